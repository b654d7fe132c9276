package content

import (
	"regexp"
	"strings"
)

var (
	parenHint = regexp.MustCompile(`[(（]([^)）]+)[)）]`)
	quoteHint = regexp.MustCompile(`«([^»]+)»`)
	cyrillic  = regexp.MustCompile(`\p{Cyrillic}`)

	matchKeyReplacer = strings.NewReplacer("¿", "", "¡", "", "?", "", "!", "", ".", "", ",", "", ";", "", ":", "")
)

// RussianHint extracts the Russian gloss an author put into a question,
// either in parentheses or in «quotes»
func RussianHint(question string) string {
	for _, re := range []*regexp.Regexp{parenHint, quoteHint} {
		for _, m := range re.FindAllStringSubmatch(question, -1) {
			hint := strings.TrimSpace(m[1])
			if cyrillic.MatchString(hint) {
				return hint
			}
		}
	}
	return ""
}

// FillBlank substitutes the answer into the ___ placeholder, dropping quote
// marks and the parenthesized translation
func FillBlank(question, answer string) string {
	if !strings.Contains(question, "___") {
		return answer
	}
	filled := strings.ReplaceAll(question, "___", answer)
	filled = strings.NewReplacer("«", "", "»", "").Replace(filled)
	filled = parenHint.ReplaceAllString(filled, "")
	return strings.Join(strings.Fields(filled), " ")
}

func matchKey(s string) string {
	return strings.TrimSpace(matchKeyReplacer.Replace(strings.ToLower(s)))
}
