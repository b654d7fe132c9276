package spaced_repetition

import "strings"

var punctuationReplacer = strings.NewReplacer(
	".", " ", ",", " ", ";", " ", ":", " ", "!", " ", "?", " ",
	"¡", " ", "¿", " ", "—", " ", "–", " ", "-", " ",
)

// Normalize lowercases the text, turns punctuation and dashes into spaces
// and collapses whitespace
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = punctuationReplacer.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

// IsAnswerCorrect is the cheap local check done before asking the judge
func IsAnswerCorrect(userText, expected string) bool {
	return Normalize(userText) == Normalize(expected)
}
