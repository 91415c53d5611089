package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	openRouterBaseURL      = "https://openrouter.ai/api/v1"
	defaultOpenRouterModel = "openai/gpt-4o-mini"
)

// OpenRouter speaks the OpenAI-compatible chat completions API.
type OpenRouter struct {
	token   string
	model   string
	baseURL string
	client  *http.Client
}

// OpenRouterOption customizes the client.
type OpenRouterOption func(*OpenRouter)

// OpenRouterWithModel overrides the default model.
func OpenRouterWithModel(model string) OpenRouterOption {
	return func(o *OpenRouter) {
		if strings.TrimSpace(model) != "" {
			o.model = model
		}
	}
}

// OpenRouterWithBaseURL points the client at an alternate endpoint (tests).
func OpenRouterWithBaseURL(url string) OpenRouterOption {
	return func(o *OpenRouter) {
		if url != "" {
			o.baseURL = strings.TrimRight(url, "/")
		}
	}
}

// OpenRouterWithTimeout bounds every HTTP call.
func OpenRouterWithTimeout(d time.Duration) OpenRouterOption {
	return func(o *OpenRouter) {
		if d > 0 {
			o.client.Timeout = d
		}
	}
}

// NewOpenRouter builds an OpenRouter client. The bearer token is required.
func NewOpenRouter(token string, opts ...OpenRouterOption) (*OpenRouter, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("openrouter: token is required")
	}
	o := &OpenRouter{
		token:   token,
		model:   defaultOpenRouterModel,
		baseURL: openRouterBaseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}
	return o, nil
}

// Name implements Generator.
func (o *OpenRouter) Name() string {
	return "openrouter"
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		FinishReason string      `json:"finish_reason"`
		Message      chatMessage `json:"message"`
	} `json:"choices"`
}

// Generate implements Generator.
func (o *OpenRouter) Generate(ctx context.Context, prompt string) (string, error) {
	body := chatRequest{
		Model:    o.model,
		Messages: []chatMessage{{Role: "user", Content: prompt}},
	}
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(body); err != nil {
		return "", wrapErr(o.Name(), err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/chat/completions", buf)
	if err != nil {
		return "", wrapErr(o.Name(), err)
	}
	req.Header.Set("Authorization", "Bearer "+o.token)
	req.Header.Set("Content-Type", "application/json")

	res, err := o.client.Do(req)
	if err != nil {
		return "", wrapErr(o.Name(), err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		b, _ := io.ReadAll(res.Body)
		return "", wrapErr(o.Name(), fmt.Errorf("status %d: %s", res.StatusCode, strings.TrimSpace(string(b))))
	}
	var parsed chatResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return "", wrapErr(o.Name(), err)
	}
	if len(parsed.Choices) == 0 {
		return "", wrapErr(o.Name(), fmt.Errorf("empty response: no choices"))
	}
	text := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", wrapErr(o.Name(), fmt.Errorf("empty response: choice has no content"))
	}
	return text, nil
}
