package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/espbot/internal/spaced_repetition"
)

// Local judges answers without a model, by normalized comparison. It is used
// when no OpenAI key is configured; transcription is not available.
type Local struct{}

// JudgeFillText compares normalized answers
func (Local) JudgeFillText(_ context.Context, userText, expected string) (bool, string, error) {
	correct := spaced_repetition.IsAnswerCorrect(userText, expected)
	return correct, defaultFeedback(correct, expected), nil
}

// JudgeDialogue accepts any non-empty answer
func (Local) JudgeDialogue(_ context.Context, userText, _, _ string) (string, error) {
	if strings.TrimSpace(userText) == "" {
		return "❌ Ответ пустой, попробуй написать фразу целиком.", nil
	}
	return "✅ Ответ принят.", nil
}

// JudgeTranslationEquivalence has no second opinion beyond exact match
func (Local) JudgeTranslationEquivalence(_ context.Context, userText, expected, _ string) (bool, error) {
	return spaced_repetition.IsAnswerCorrect(userText, expected), nil
}

// JudgeVoiceAnswer compares the transcription with the expected phrase
func (Local) JudgeVoiceAnswer(_ context.Context, expected, transcribed string) (bool, string, string, error) {
	if spaced_repetition.IsAnswerCorrect(transcribed, expected) {
		return true, "Произношение распознано верно.", expected, nil
	}
	return false, "Фраза распознана иначе, послушай и попробуй ещё раз.", expected, nil
}

// Transcribe is not supported offline
func (Local) Transcribe(context.Context, string) (string, error) {
	return "", fmt.Errorf("speech recognition requires OPENAI_API_KEY: %w", ErrUnavailable)
}
