package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrUnavailable means the service is not configured or could not be reached
	ErrUnavailable = errors.New("language service unavailable")
	// ErrMalformedResponse means the model answered in an unexpected shape
	ErrMalformedResponse = errors.New("malformed language service response")
)

// Options configures the OpenAI client
type Options struct {
	APIKey          string
	BaseURL         string
	Model           string
	TranscribeModel string
	Timeout         time.Duration
}

// ChatGPT represents a client for the OpenAI chat and transcription APIs
type ChatGPT struct {
	apiKey          string
	baseURL         string
	model           string
	transcribeModel string
	maxTokens       int
	client          *http.Client
}

// New creates a new ChatGPT client
func New(opts Options) (*ChatGPT, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is not set: %w", ErrUnavailable)
	}
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.openai.com/v1"
	}
	if opts.Model == "" {
		opts.Model = "gpt-4o-mini"
	}
	if opts.TranscribeModel == "" {
		opts.TranscribeModel = "whisper-1"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	return &ChatGPT{
		apiKey:          opts.APIKey,
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		model:           opts.Model,
		transcribeModel: opts.TranscribeModel,
		maxTokens:       300,
		client:          &http.Client{Timeout: opts.Timeout},
	}, nil
}

// Message represents a message in the ChatGPT conversation
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest represents a request to the ChatGPT API
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse represents a response from the ChatGPT API
type ChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
}

const systemPrompt = "Ты - преподаватель испанского языка для русскоязычных учеников. Отвечай кратко и по-русски."

// complete sends one prompt and returns the trimmed answer
func (c *ChatGPT) complete(ctx context.Context, prompt string, temperature float64) (string, error) {
	request := ChatRequest{
		Model: c.model,
		Messages: []Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   c.maxTokens,
		Temperature: temperature,
	}

	requestData, err := json.Marshal(request)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(requestData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var response ChatResponse
	if err := c.do(req, &response); err != nil {
		return "", err
	}
	if response.Error != nil {
		return "", fmt.Errorf("API error: %s: %w", response.Error.Message, ErrUnavailable)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response choices returned: %w", ErrMalformedResponse)
	}
	return strings.TrimSpace(response.Choices[0].Message.Content), nil
}

// do executes the request and decodes a JSON body into out
func (c *ChatGPT) do(req *http.Request, out interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %v: %w", err, ErrUnavailable)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %v: %w", err, ErrUnavailable)
	}
	if resp.StatusCode != http.StatusOK {
		var wrapped struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(body, &wrapped) == nil && wrapped.Error != nil {
			return fmt.Errorf("API error (%d): %s: %w", resp.StatusCode, wrapped.Error.Message, ErrUnavailable)
		}
		return fmt.Errorf("API returned status %d: %w", resp.StatusCode, ErrUnavailable)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %v: %w", err, ErrMalformedResponse)
	}
	return nil
}

type verdict struct {
	Correct   *bool  `json:"correct"`
	Feedback  string `json:"feedback"`
	Corrected string `json:"corrected"`
}

// parseVerdict extracts the JSON object from a model answer, tolerating code fences
func parseVerdict(answer string) (*verdict, error) {
	start := strings.Index(answer, "{")
	end := strings.LastIndex(answer, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("no JSON object in %q: %w", answer, ErrMalformedResponse)
	}
	var v verdict
	if err := json.Unmarshal([]byte(answer[start:end+1]), &v); err != nil {
		return nil, fmt.Errorf("bad verdict JSON: %v: %w", err, ErrMalformedResponse)
	}
	if v.Correct == nil {
		return nil, fmt.Errorf("verdict without \"correct\": %w", ErrMalformedResponse)
	}
	return &v, nil
}

// JudgeFillText checks a fill-in-the-blank answer against the expected one
func (c *ChatGPT) JudgeFillText(ctx context.Context, userText, expected string) (bool, string, error) {
	prompt := fmt.Sprintf(
		"Ученик заполнил пропуск в испанском предложении.\n"+
			"Ожидаемый ответ: %q\nОтвет ученика: %q\n\n"+
			"Допускай мелкие опечатки и отсутствие ударений, но не другую форму слова. "+
			"Верни только JSON: {\"correct\": true|false, \"feedback\": \"короткое объяснение по-русски\"}",
		expected, userText,
	)
	answer, err := c.complete(ctx, prompt, 0.2)
	if err != nil {
		return false, "", err
	}
	v, err := parseVerdict(answer)
	if err != nil {
		return false, "", err
	}
	feedback := v.Feedback
	if feedback == "" {
		feedback = defaultFeedback(*v.Correct, expected)
	}
	return *v.Correct, feedback, nil
}

// JudgeDialogue rates a free answer in a dialogue exercise. The feedback starts
// with ✅ on success and ❌ on failure.
func (c *ChatGPT) JudgeDialogue(ctx context.Context, userText, promptText, theory string) (string, error) {
	prompt := fmt.Sprintf(
		"Задание диалога: %s\n\nТеория урока:\n%s\n\nОтвет ученика: %s\n\n"+
			"Оцени, уместен ли ответ и грамматически правилен ли он для этого уровня. "+
			"Начни ответ с ✅, если ответ подходит, или с ❌, если нет, затем 1-2 предложения пояснения по-русски.",
		promptText, theory, userText,
	)
	answer, err := c.complete(ctx, prompt, 0.3)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(answer, "✅") && !strings.HasPrefix(answer, "❌") {
		return "", fmt.Errorf("dialogue verdict without marker: %w", ErrMalformedResponse)
	}
	return answer, nil
}

// JudgeTranslationEquivalence asks whether the user's text means the same as the expected answer
func (c *ChatGPT) JudgeTranslationEquivalence(ctx context.Context, userText, expected, source string) (bool, error) {
	prompt := fmt.Sprintf(
		"Исходная фраза: %q\nЭталонный перевод: %q\nПеревод ученика: %q\n\n"+
			"Передаёт ли перевод ученика тот же смысл? Ответь одним словом: YES или NO.",
		source, expected, userText,
	)
	answer, err := c.complete(ctx, prompt, 0)
	if err != nil {
		return false, err
	}
	word := strings.ToUpper(strings.Trim(answer, " .!\n\"'"))
	switch {
	case strings.HasPrefix(word, "YES"), strings.HasPrefix(word, "ДА"):
		return true, nil
	case strings.HasPrefix(word, "NO"), strings.HasPrefix(word, "НЕТ"):
		return false, nil
	}
	return false, fmt.Errorf("equivalence answer %q: %w", answer, ErrMalformedResponse)
}

// JudgeVoiceAnswer compares a transcribed answer with the expected phrase.
// It returns the verdict, feedback in Russian and the corrected phrase.
func (c *ChatGPT) JudgeVoiceAnswer(ctx context.Context, expected, transcribed string) (bool, string, string, error) {
	prompt := fmt.Sprintf(
		"Ученик произнёс испанскую фразу, распознанную как: %q\nОжидалось: %q\n\n"+
			"Учитывай ошибки распознавания речи и не придирайся к пунктуации. "+
			"Верни только JSON: {\"correct\": true|false, \"feedback\": \"совет по-русски\", \"corrected\": \"правильная фраза\"}",
		transcribed, expected,
	)
	answer, err := c.complete(ctx, prompt, 0.2)
	if err != nil {
		return false, "", "", err
	}
	v, err := parseVerdict(answer)
	if err != nil {
		return false, "", "", err
	}
	corrected := v.Corrected
	if corrected == "" {
		corrected = expected
	}
	return *v.Correct, v.Feedback, corrected, nil
}

// Transcribe converts a Spanish voice message to text
func (c *ChatGPT) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to open audio: %w", err)
	}
	defer f.Close()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return "", fmt.Errorf("failed to copy audio: %w", err)
	}
	_ = w.WriteField("model", c.transcribeModel)
	_ = w.WriteField("language", "es")
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	var response struct {
		Text string `json:"text"`
	}
	if err := c.do(req, &response); err != nil {
		return "", err
	}
	return strings.TrimSpace(response.Text), nil
}

// DialogueFailed reports whether dialogue feedback carries the failure marker
func DialogueFailed(feedback string) bool {
	return strings.HasPrefix(strings.TrimSpace(feedback), "❌")
}

func defaultFeedback(correct bool, expected string) string {
	if correct {
		return "✅ Верно!"
	}
	return fmt.Sprintf("❌ Неверно. Правильный ответ: %s", expected)
}
