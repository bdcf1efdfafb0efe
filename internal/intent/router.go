package intent

import (
	"context"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/tasker-intent-router/internal/gateway"
)

type Source string

const (
	SourceHeuristic Source = "heuristic"
	SourceModel     Source = "model"
)

type Decision struct {
	Intent Intent
	Source Source
	// Raw is the model reply before normalization; empty for heuristic decisions.
	Raw string
}

type Router struct {
	variant Variant
	gateway gateway.Completer
	logger  *log.Logger
}

func NewRouter(v Variant, g gateway.Completer, logger *log.Logger) *Router {
	if logger == nil {
		logger = log.New()
	}
	return &Router{variant: v, gateway: g, logger: logger}
}

func (r *Router) Variant() Variant { return r.variant }

// Classify returns exactly one intent. A reply outside the variant's set falls
// back to Help. A gateway error is returned as is; it is never defaulted.
func (r *Router) Classify(ctx context.Context, text string) (Decision, error) {
	if i, ok := Heuristic(r.variant, text); ok {
		r.logger.WithFields(log.Fields{"intent": i, "source": SourceHeuristic}).Debug("classified")
		return Decision{Intent: i, Source: SourceHeuristic}, nil
	}

	r.logger.Debug("no keyword matched, asking model")
	raw, err := r.gateway.Complete(ctx, SystemPrompt(r.variant), text)
	if err != nil {
		return Decision{}, err
	}
	i := Intent(strings.ToLower(strings.TrimSpace(raw)))
	if !r.variant.Valid(i) {
		r.logger.WithField("reply", raw).Debug("model reply is not a known intent, using help")
		i = Help
	}
	r.logger.WithFields(log.Fields{"intent": i, "source": SourceModel}).Debug("classified")
	return Decision{Intent: i, Source: SourceModel, Raw: raw}, nil
}
