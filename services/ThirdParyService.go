package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	xaiURL      = "https://api.x.ai/v1/chat/completions"
	xaiModel    = "grok-beta"
	groqURL     = "https://api.groq.com/openai/v1/chat/completions"
	groqModel   = "mixtral-8x7b-32768"
	groqBackup  = "llama3-70b-8192"
	groqKeyHint = "gsk_"

	personaPrompt = "You are Wiley Wishy, a friendly personal finance assistant. Answer the user's specific question directly with concise, actionable guidance. Avoid generic templates. Only propose budget splits (e.g., 50/30/20) or weekly schedules if the user explicitly asks for a plan. Prefer NGN examples when the context suggests Nigeria; otherwise use USD. Keep it practical and tailored."

	NoKeyAnswer   = "I'm ready to help! Please set the XAI_API_KEY in your server .env file to enable AI."
	OfflineAnswer = "I couldn't fetch an answer right now. Please try again in a moment."
)

type AIService interface {
	Ask(ctx context.Context, question string) (string, error)
}

type AIServiceImpl struct {
	apiKey  string
	timeout time.Duration
	client  *http.Client
	log     *logrus.Logger

	xaiURL  string
	groqURL string
}

func AIConstructor(apiKey string, timeout time.Duration, log *logrus.Logger) AIService {
	return &AIServiceImpl{
		apiKey:  apiKey,
		timeout: timeout,
		client:  &http.Client{},
		log:     log,
		xaiURL:  xaiURL,
		groqURL: groqURL,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Messages    []chatMessage `json:"messages"`
	Model       string        `json:"model"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	TopP        float64       `json:"top_p"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Ask only fails on a blank question. Provider problems degrade to a canned
// answer.
func (s *AIServiceImpl) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", invalidInput("no question provided")
	}
	if s.apiKey == "" {
		return NoKeyAnswer, nil
	}

	url, models := s.xaiURL, []string{xaiModel}
	if strings.HasPrefix(s.apiKey, groqKeyHint) {
		url, models = s.groqURL, []string{groqModel, groqBackup}
	}

	// Every model attempt runs under its own timeout.
	for _, model := range models {
		if ctx.Err() != nil {
			break
		}
		answer, err := s.attempt(ctx, url, model, question)
		if err != nil {
			s.log.WithError(err).WithField("model", model).Warn("AI provider call failed")
			continue
		}
		if answer != "" {
			return answer, nil
		}
	}
	return OfflineAnswer, nil
}

func (s *AIServiceImpl) attempt(ctx context.Context, url, model, question string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.complete(ctx, url, model, question)
}

func (s *AIServiceImpl) complete(ctx context.Context, url, model, question string) (string, error) {
	requestBodyJSON, err := json.Marshal(chatRequest{
		Messages: []chatMessage{
			{Role: "system", Content: personaPrompt},
			{Role: "user", Content: question},
		},
		Model:       model,
		Temperature: 0.7,
		MaxTokens:   800,
		TopP:        0.95,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(requestBodyJSON))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+s.apiKey)

	res, err := s.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}
	if res.StatusCode >= 300 {
		return "", fmt.Errorf("provider responded %d", res.StatusCode)
	}

	var completion chatResponse
	if err := json.Unmarshal(body, &completion); err != nil {
		return "", err
	}
	if len(completion.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(completion.Choices[0].Message.Content), nil
}
