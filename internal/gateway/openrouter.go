package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouter talks to any OpenAI-compatible chat completions endpoint,
// OpenRouter by default.
type OpenRouter struct {
	client *openai.Client
	model  string
	cfg    Config
}

func NewOpenRouter(cfg Config) *OpenRouter {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenRouterBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenRouterModel
	}
	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	headers := map[string]string{}
	if cfg.Referrer != "" {
		headers["HTTP-Referer"] = cfg.Referrer
	}
	if cfg.AppID != "" {
		headers["X-Title"] = cfg.AppID
	}
	// No client timeout unless one is configured; see Config.Timeout.
	oc.HTTPClient = &http.Client{Transport: headerTransport{headers: headers}}
	return &OpenRouter{client: openai.NewClientWithConfig(oc), model: cfg.Model, cfg: cfg}
}

func (o *OpenRouter) Complete(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := withTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
	})
	if err != nil {
		return "", fmt.Errorf("openrouter: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}

type headerTransport struct {
	headers map[string]string
	base    http.RoundTripper
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	if len(t.headers) == 0 {
		return base.RoundTrip(req)
	}
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	return base.RoundTrip(req)
}
