// Package assistant runs one free-text command end to end: load the
// collections, classify, dispatch to the intent's handler and report the
// resulting state.
package assistant

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/tasker-intent-router/internal/gateway"
	"github.com/amirbrooks/tasker-intent-router/internal/intent"
	"github.com/amirbrooks/tasker-intent-router/internal/metrics"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
)

var timeNow = time.Now

// ErrGateway marks a command that failed because the model call failed.
// Every error HandleCommand returns wraps it.
var ErrGateway = errors.New("model gateway failed")

// Result is what a command returns to the transport: the response text, the
// resolved intent and the collections as they stand after the command.
type Result struct {
	Response string          `json:"response"`
	Intent   intent.Intent   `json:"intent"`
	Tasks    []store.Task    `json:"tasks"`
	Ideas    []store.Idea    `json:"ideas"`
	Projects []store.Project `json:"projects"`
}

type Assistant struct {
	router     *intent.Router
	dispatcher *Dispatcher
	store      *store.Store
	logger     *log.Logger
}

// New wires the router and dispatcher. The same gateway serves intent
// classification and field extraction. In the tasks variant it also makes s
// number new tasks, so tasks created outside the router stay addressable
// by number.
func New(v intent.Variant, g gateway.Completer, s *store.Store, logger *log.Logger) *Assistant {
	if logger == nil {
		logger = log.New()
	}
	if v == intent.VariantTasks {
		s.SetTaskIDs(store.NumericTaskIDs)
	}
	return &Assistant{
		router:     intent.NewRouter(v, g, logger),
		dispatcher: NewDispatcher(v, g, s, logger),
		store:      s,
		logger:     logger,
	}
}

func (a *Assistant) Variant() intent.Variant { return a.router.Variant() }

// HandleCommand classifies text and runs the matching handler. The only error
// it returns is a gateway failure; not-found targets and unknown labels come
// back as an ordinary Result.
func (a *Assistant) HandleCommand(ctx context.Context, text string) (Result, error) {
	entry := a.logger.WithField("request_id", newRequestID())
	st := &State{Snapshot: a.store.LoadAll(ctx)}

	d, err := a.router.Classify(ctx, text)
	if err != nil {
		metrics.CommandFailures.Inc()
		entry.WithError(err).Error("classify command")
		return Result{}, fmt.Errorf("classify: %w: %w", ErrGateway, err)
	}
	entry = entry.WithFields(log.Fields{"intent": d.Intent, "source": d.Source})

	resp, err := a.dispatcher.Dispatch(ctx, d.Intent, st, text)
	if err != nil {
		metrics.CommandFailures.Inc()
		entry.WithError(err).Error("dispatch command")
		return Result{}, fmt.Errorf("%s: %w", d.Intent, err)
	}
	metrics.CommandsTotal.WithLabelValues(string(d.Intent), string(d.Source)).Inc()
	entry.WithField("saved", st.Saved()).Info("command handled")

	return Result{
		Response: resp,
		Intent:   d.Intent,
		Tasks:    st.Tasks,
		Ideas:    st.Ideas,
		Projects: st.Projects,
	}, nil
}

type randReader struct{}

func (randReader) Read(p []byte) (int, error) { return rand.Read(p) }

func newRequestID() string {
	id, err := ulid.New(ulid.Timestamp(timeNow()), ulid.Monotonic(randReader{}, 0))
	if err != nil {
		return fmt.Sprintf("%d", timeNow().UnixNano())
	}
	return id.String()
}
