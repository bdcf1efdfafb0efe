package gateway

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/tasker-intent-router/internal/metrics"
)

type instrumented struct {
	next     Completer
	provider string
	logger   *log.Logger
}

// Instrument logs every call at debug level and records call latency and
// outcome. It never changes the result.
func Instrument(c Completer, provider string, logger *log.Logger) Completer {
	if logger == nil {
		logger = log.New()
	}
	return &instrumented{next: c, provider: provider, logger: logger}
}

func (i *instrumented) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	out, err := i.next.Complete(ctx, system, user)
	elapsed := time.Since(start)
	metrics.ObserveGatewayCall(i.provider, elapsed, err)

	entry := i.logger.WithFields(log.Fields{
		"provider":   i.provider,
		"duration":   elapsed.Milliseconds(),
		"system_len": len(system),
		"user_len":   len(user),
	})
	if err != nil {
		entry.WithError(err).Warn("gateway call failed")
		return "", err
	}
	entry.WithField("response_len", len(out)).Debug("gateway call completed")
	return out, nil
}
