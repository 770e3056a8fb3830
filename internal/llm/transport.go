package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// RawResponse is an upstream answer before status classification and shape
// normalization.
type RawResponse struct {
	StatusCode  int
	ContentType string
	Body        []byte
}

// Transport delivers a fully formatted prompt to a text generation backend.
// Any HTTP status is returned as a RawResponse; only failures without a
// response are errors, and those wrap ErrNetwork.
type Transport interface {
	Send(ctx context.Context, prompt string) (*RawResponse, error)
	Name() string
}

// Parameters are the generation settings sent with every prompt.
type Parameters struct {
	MaxNewTokens   int     `json:"max_new_tokens"`
	Temperature    float32 `json:"temperature"`
	TopP           float32 `json:"top_p"`
	ReturnFullText bool    `json:"return_full_text"`
}

func DefaultParameters() Parameters {
	return Parameters{
		MaxNewTokens:   300,
		Temperature:    0.7,
		TopP:           0.95,
		ReturnFullText: false,
	}
}

const (
	DefaultBaseURL = "https://api-inference.huggingface.co"
	DefaultModel   = "meta-llama/Meta-Llama-3-8B-Instruct"
)

type HuggingFaceTransport struct {
	client *resty.Client
	model  string
	params Parameters
	hasKey bool
}

type inferenceRequest struct {
	Inputs     string     `json:"inputs"`
	Parameters Parameters `json:"parameters"`
}

// NewHuggingFaceTransport accepts an empty key; Send then fails with
// ErrMissingAPIKey so the server can still start and report it per request.
func NewHuggingFaceTransport(baseURL, apiKey, model string, params Parameters, timeout time.Duration) *HuggingFaceTransport {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}

	c := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &HuggingFaceTransport{client: c, model: model, params: params, hasKey: strings.TrimSpace(apiKey) != ""}
}

func (t *HuggingFaceTransport) Name() string { return "huggingface" }

func (t *HuggingFaceTransport) Send(ctx context.Context, prompt string) (*RawResponse, error) {
	if !t.hasKey {
		return nil, ErrMissingAPIKey
	}
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(&inferenceRequest{Inputs: prompt, Parameters: t.params}).
		Post("/models/" + t.model)
	if err != nil {
		return nil, networkError(ctx, err)
	}

	return &RawResponse{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}, nil
}

// RelayTransport posts prompts to the backend's own /api/chat endpoint, which
// holds the API key.
type RelayTransport struct {
	client *resty.Client
}

type relayRequest struct {
	Prompt string `json:"prompt"`
}

type relayResponse struct {
	Response *string `json:"response"`
}

func NewRelayTransport(relayURL string, timeout time.Duration) *RelayTransport {
	c := resty.New().
		SetBaseURL(strings.TrimRight(relayURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &RelayTransport{client: c}
}

func (t *RelayTransport) Name() string { return "relay" }

// Send re-presents a successful {response} body as a bare JSON string so it
// goes through the same extraction as a direct upstream reply. Error bodies
// pass through untouched.
func (t *RelayTransport) Send(ctx context.Context, prompt string) (*RawResponse, error) {
	resp, err := t.client.R().
		SetContext(ctx).
		SetBody(&relayRequest{Prompt: prompt}).
		Post("/api/chat")
	if err != nil {
		return nil, networkError(ctx, err)
	}

	raw := &RawResponse{
		StatusCode:  resp.StatusCode(),
		ContentType: resp.Header().Get("Content-Type"),
		Body:        resp.Body(),
	}
	if !resp.IsSuccess() {
		return raw, nil
	}

	var decoded relayResponse
	if err := json.Unmarshal(raw.Body, &decoded); err != nil || decoded.Response == nil {
		return raw, nil
	}

	body, err := json.Marshal(*decoded.Response)
	if err != nil {
		return nil, fmt.Errorf("failed to re-encode relay response: %w", err)
	}
	raw.Body = body
	raw.ContentType = "application/json"
	return raw, nil
}

// networkError keeps context cancellation distinguishable from a dead
// upstream.
func networkError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return fmt.Errorf("request aborted: %w", ctxErr)
	}
	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
