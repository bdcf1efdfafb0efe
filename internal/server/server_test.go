package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirbrooks/tasker-intent-router/internal/assistant"
	"github.com/amirbrooks/tasker-intent-router/internal/gateway"
	"github.com/amirbrooks/tasker-intent-router/internal/intent"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
	"github.com/amirbrooks/tasker-intent-router/internal/suggest"
)

type testServer struct {
	e       *echo.Echo
	backend *store.MemoryBackend
	store   *store.Store
	replies []string
	err     error
	calls   int
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newVariantServer(t, intent.VariantWorkspace)
}

func newVariantServer(t *testing.T, v intent.Variant) *testServer {
	t.Helper()
	logger := log.New()
	logger.SetOutput(io.Discard)
	ts := &testServer{backend: store.NewMemoryBackend()}
	ts.store = store.New(ts.backend, logger)
	g := gateway.Func(func(context.Context, string, string) (string, error) {
		ts.calls++
		if ts.err != nil {
			return "", ts.err
		}
		if len(ts.replies) == 0 {
			return "", errors.New("unexpected gateway call")
		}
		r := ts.replies[0]
		ts.replies = ts.replies[1:]
		return r, nil
	})
	ts.e = New(Deps{
		Assistant: assistant.New(v, g, ts.store, logger),
		Store:     ts.store,
		Suggester: suggest.New(g, logger),
		Logger:    logger,
	})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	ts.e.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"running"}`, rec.Body.String())
}

func TestInvokeAcceptsBothBodies(t *testing.T) {
	ts := newTestServer(t)
	ts.replies = []string{"buy milk"}

	rec := ts.do(t, http.MethodPost, "/tasks/invoke", `{"input":{"user_input":"add buy milk"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	out := decode[struct {
		Output assistant.Result `json:"output"`
	}](t, rec)
	assert.Equal(t, intent.AddTask, out.Output.Intent)
	require.Len(t, out.Output.Tasks, 1)
	assert.Equal(t, "buy milk", out.Output.Tasks[0].Text)
	assert.Nil(t, out.Output.Tasks[0].ProjectID)

	rec = ts.do(t, http.MethodPost, "/tasks/invoke", `{"user_input":""}`)
	require.Equal(t, http.StatusOK, rec.Code)
	out = decode[struct {
		Output assistant.Result `json:"output"`
	}](t, rec)
	assert.Equal(t, intent.Help, out.Output.Intent)
	assert.Len(t, out.Output.Tasks, 1)
}

func TestInvokeRejectsMissingInput(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/tasks/invoke", `{"input":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "user_input is required")
}

func TestCommandGatewayFailureIs502(t *testing.T) {
	ts := newTestServer(t)
	ts.err = errors.New("upstream down")
	rec := ts.do(t, http.MethodPost, "/command", `{"text":"groceries"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, decode[detail](t, rec).Detail, "upstream down")
	assert.Equal(t, 1, ts.calls)
}

func TestOnlyGatewayFailuresAre502(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(errors.New("disk on fire")))
	assert.Equal(t, http.StatusBadGateway, statusFor(fmt.Errorf("add_task: %w", assistant.ErrGateway)))
}

func TestRESTTasksCompletableByNumberInTasksVariant(t *testing.T) {
	ts := newVariantServer(t, intent.VariantTasks)

	rec := ts.do(t, http.MethodPost, "/tasks", `{"text":"water plants"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	created := decode[store.Task](t, rec)
	assert.Equal(t, "1", created.ID)

	rec = ts.do(t, http.MethodPost, "/ideas", `{"text":"compost bin"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	idea := decode[store.Idea](t, rec)
	rec = ts.do(t, http.MethodPost, "/ideas/"+idea.ID+"/to-task", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2", decode[store.Task](t, rec).ID)

	ts.replies = []string{created.ID}
	rec = ts.do(t, http.MethodPost, "/command", `{"text":"done `+created.ID+`"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[assistant.Result](t, rec)
	assert.Equal(t, "✅ Completed task #1: water plants", res.Response)
	require.Len(t, res.Tasks, 2)
	assert.True(t, res.Tasks[0].Completed())
}

func TestCreateIdeaSplitsTagString(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.do(t, http.MethodPost, "/ideas", `{"text":"rooftop garden","tags":"#outdoor, home @Outdoor"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"home", "outdoor"}, decode[store.Idea](t, rec).Tags)

	rec = ts.do(t, http.MethodPost, "/ideas", `{"text":"x","tags":7}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCommandNotFoundIsNormalResponse(t *testing.T) {
	ts := newTestServer(t)
	ts.replies = []string{"3"}
	rec := ts.do(t, http.MethodPost, "/command", `{"text":"delete 3"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[assistant.Result](t, rec)
	assert.Equal(t, "❌ Task #3 not found", res.Response)
	assert.Zero(t, ts.backend.TotalWrites())
}

func TestDeleteProjectCascades(t *testing.T) {
	ts := newTestServer(t)
	p := decode[store.Project](t, ts.do(t, http.MethodPost, "/projects", `{"name":"Garden"}`))
	assert.Equal(t, store.DefaultProjectColor, p.Color)
	for _, text := range []string{"dig", "plant"} {
		rec := ts.do(t, http.MethodPost, "/tasks", `{"text":"`+text+`","projectId":"`+p.ID+`"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	rec := ts.do(t, http.MethodGet, "/projects/"+p.ID+"/tasks", "")
	require.Len(t, decode[[]store.Task](t, rec), 2)

	rec = ts.do(t, http.MethodDelete, "/projects/"+p.ID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Project deleted"}`, rec.Body.String())

	data := decode[store.Snapshot](t, ts.do(t, http.MethodGet, "/data", ""))
	assert.Empty(t, data.Projects)
	require.Len(t, data.Tasks, 2)
	for _, task := range data.Tasks {
		assert.Nil(t, task.ProjectID)
	}
	assert.Len(t, decode[[]store.Task](t, ts.do(t, http.MethodGet, "/tasks/inbox", "")), 2)
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)
	p := decode[store.Project](t, ts.do(t, http.MethodPost, "/projects", `{"name":"Work"}`))
	task := decode[store.Task](t, ts.do(t, http.MethodPost, "/tasks", `{"text":"write report","priority":"high"}`))
	assert.Equal(t, store.PriorityHigh, task.Priority)

	moved := decode[store.Task](t, ts.do(t, http.MethodPut, "/tasks/"+task.ID+"/move?project_id="+p.ID, ""))
	require.NotNil(t, moved.ProjectID)
	assert.Equal(t, p.ID, *moved.ProjectID)

	back := decode[store.Task](t, ts.do(t, http.MethodPut, "/tasks/"+task.ID+"/move?project_id=", ""))
	assert.Nil(t, back.ProjectID)

	done := decode[store.Task](t, ts.do(t, http.MethodPut, "/tasks/"+task.ID+"/complete", ""))
	assert.Equal(t, store.StatusCompleted, done.Status)
	assert.NotEmpty(t, done.CompletedAt)

	reopened := decode[store.Task](t, ts.do(t, http.MethodPut, "/tasks/"+task.ID, `{"status":"pending","dueDate":"2026-11-01"}`))
	assert.Equal(t, store.StatusPending, reopened.Status)
	assert.Empty(t, reopened.CompletedAt)
	assert.Equal(t, "2026-11-01", reopened.DueDate)

	rec := ts.do(t, http.MethodDelete, "/tasks/"+task.ID, "")
	assert.JSONEq(t, `{"message":"Task deleted"}`, rec.Body.String())
	rec = ts.do(t, http.MethodDelete, "/tasks/"+task.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Task not found", decode[detail](t, rec).Detail)
}

func TestCreateValidation(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/tasks", `{"text":"  "}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/projects", `{}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/ideas", `not json`).Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/tasks", `{"text":"x","projectId":"nope"}`).Code)
	assert.Zero(t, ts.backend.TotalWrites())
}

func TestIdeaPromote(t *testing.T) {
	ts := newTestServer(t)
	idea := decode[store.Idea](t, ts.do(t, http.MethodPost, "/ideas", `{"text":"weekly review #habits"}`))
	assert.Equal(t, []string{"habits"}, idea.Tags)

	updated := decode[store.Idea](t, ts.do(t, http.MethodPut, "/ideas/"+idea.ID, `{"description":"sunday evenings"}`))
	assert.Equal(t, "sunday evenings", updated.Description)
	assert.Equal(t, idea.Text, updated.Text)

	task := decode[store.Task](t, ts.do(t, http.MethodPost, "/ideas/"+idea.ID+"/to-task", ""))
	assert.Equal(t, idea.Text, task.Text)
	assert.Equal(t, store.StatusPending, task.Status)

	data := decode[store.Snapshot](t, ts.do(t, http.MethodGet, "/data", ""))
	assert.Empty(t, data.Ideas)
	assert.Len(t, data.Tasks, 1)

	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodPost, "/ideas/"+idea.ID+"/to-task", "").Code)
}

func TestSuggestEndpoints(t *testing.T) {
	ts := newTestServer(t)
	p := decode[store.Project](t, ts.do(t, http.MethodPost, "/projects", `{"name":"Home"}`))
	ts.do(t, http.MethodPost, "/tasks", `{"text":"fix sink"}`)
	ts.do(t, http.MethodPost, "/tasks", `{"text":"mow lawn"}`)

	ts.replies = []string{`{"projectName":"Home","confidence":0.8,"reasoning":"house chore"}`}
	s := decode[suggest.Suggestion](t, ts.do(t, http.MethodPost, "/ai/suggest-project", `{"taskText":"fix sink","taskId":"t1"}`))
	require.NotNil(t, s.SuggestedProjectID)
	assert.Equal(t, p.ID, *s.SuggestedProjectID)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/ai/suggest-project", `{}`).Code)

	ts.calls = 0
	ts.replies = []string{"garbage", `{"projectId":"` + p.ID + `","confidence":0.6,"reasoning":"yard"}`}
	out := decode[struct {
		Suggestions []suggest.Suggestion `json:"suggestions"`
	}](t, ts.do(t, http.MethodPost, "/ai/categorize-inbox", ""))
	require.Len(t, out.Suggestions, 2)
	assert.Equal(t, 2, ts.calls)
	assert.Zero(t, out.Suggestions[0].Confidence)
	assert.Equal(t, 0.6, out.Suggestions[1].Confidence)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t)
	ts.do(t, http.MethodGet, "/", "")
	rec := ts.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tasker_http_requests_total")
}
