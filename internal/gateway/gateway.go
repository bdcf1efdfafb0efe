// Package gateway is the single synchronous call contract to an external
// text-completion model: system instruction and user text in, text out.
//
// Calls are attempted exactly once. Transport failures are returned to the
// caller untouched; only the caller decides what a semantically bad answer means.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
)

var (
	ErrMissingCredentials = errors.New("gateway: missing credentials")
	ErrEmptyCompletion    = errors.New("gateway: no completion returned")
)

const (
	ProviderOpenRouter = "openrouter"
	ProviderGemini     = "gemini"

	DefaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	DefaultOpenRouterModel   = "anthropic/claude-3.5-sonnet-20241022"
	DefaultGeminiModel       = "gemini-2.0-flash"
)

// Completer sends one system instruction plus one user message and returns the
// model's text reply.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Func adapts a plain function to Completer.
type Func func(ctx context.Context, system, user string) (string, error)

func (f Func) Complete(ctx context.Context, system, user string) (string, error) {
	return f(ctx, system, user)
}

type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Model    string
	Referrer string
	AppID    string
	// Timeout bounds one call. Zero means wait as long as the provider takes.
	Timeout time.Duration
}

// New builds the configured provider. A missing API key is a configuration
// error and is reported before any request is made.
func New(ctx context.Context, cfg Config, logger *log.Logger) (Completer, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("%w: %s api key is not set", ErrMissingCredentials, providerName(cfg.Provider))
	}
	var (
		c   Completer
		err error
	)
	switch providerName(cfg.Provider) {
	case ProviderOpenRouter:
		c = NewOpenRouter(cfg)
	case ProviderGemini:
		c, err = NewGemini(ctx, cfg)
	default:
		return nil, fmt.Errorf("gateway: unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return Instrument(c, providerName(cfg.Provider), logger), nil
}

func providerName(p string) string {
	p = strings.ToLower(strings.TrimSpace(p))
	if p == "" {
		return ProviderOpenRouter
	}
	return p
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
