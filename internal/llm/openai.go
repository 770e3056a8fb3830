package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITransport talks to an OpenAI-compatible chat completions endpoint,
// such as a hosted inference router.
type OpenAITransport struct {
	client *openai.Client
	model  string
	params Parameters
	hasKey bool
}

type generatedText struct {
	GeneratedText string `json:"generated_text"`
}

func NewOpenAITransport(baseURL, apiKey, model string, params Parameters, timeout time.Duration) *OpenAITransport {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	cfg.HTTPClient = &http.Client{Timeout: timeout}

	return &OpenAITransport{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
		params: params,
		hasKey: strings.TrimSpace(apiKey) != "",
	}
}

func (t *OpenAITransport) Name() string { return "openai" }

// The chat completions endpoint applies the model's chat template, so prompts
// must go out plain.
func (t *OpenAITransport) appliesChatTemplate() bool { return true }

// Send presents a completion as [{"generated_text": ...}] and API errors as
// their HTTP status, so classification and extraction stay shared.
func (t *OpenAITransport) Send(ctx context.Context, prompt string) (*RawResponse, error) {
	if !t.hasKey {
		return nil, ErrMissingAPIKey
	}
	resp, err := t.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: t.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   t.params.MaxNewTokens,
		Temperature: t.params.Temperature,
		TopP:        t.params.TopP,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
			return errorResponse(apiErr.HTTPStatusCode, apiErr.Message)
		}
		var reqErr *openai.RequestError
		if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
			return errorResponse(reqErr.HTTPStatusCode, reqErr.Error())
		}
		return nil, networkError(ctx, err)
	}

	out := make([]generatedText, 0, 1)
	if len(resp.Choices) > 0 {
		out = append(out, generatedText{GeneratedText: resp.Choices[0].Message.Content})
	}
	body, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode completion: %w", err)
	}

	return &RawResponse{StatusCode: http.StatusOK, ContentType: "application/json", Body: body}, nil
}

func errorResponse(status int, message string) (*RawResponse, error) {
	body, err := json.Marshal(map[string]string{"error": message})
	if err != nil {
		return nil, fmt.Errorf("failed to encode error: %w", err)
	}
	return &RawResponse{StatusCode: status, ContentType: "application/json", Body: body}, nil
}
