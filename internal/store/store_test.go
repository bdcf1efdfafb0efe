package store

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

func fixedClock(t *testing.T) {
	t.Helper()
	prev := timeNow
	timeNow = func() time.Time { return time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC) }
	t.Cleanup(func() { timeNow = prev })
}

func quietLogger() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}

func roundTrip(t *testing.T, backend Backend) {
	t.Helper()
	ctx := context.Background()
	st := New(backend, quietLogger())

	snap := st.LoadAll(ctx)
	if len(snap.Tasks) != 0 || len(snap.Projects) != 0 || len(snap.Ideas) != 0 {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
	prj, err := snap.AddProject(ProjectInput{Name: "Home"})
	if err != nil {
		t.Fatalf("add project: %v", err)
	}
	task, err := snap.AddTask(TaskInput{Text: "buy milk", ProjectID: &prj.ID, Priority: "h"})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if _, err := snap.AddIdea(IdeaInput{Text: "learn #go"}); err != nil {
		t.Fatalf("add idea: %v", err)
	}
	if !st.SaveTasks(ctx, snap.Tasks) || !st.SaveProjects(ctx, snap.Projects) || !st.SaveIdeas(ctx, snap.Ideas) {
		t.Fatalf("expected saves to succeed")
	}

	reloaded := st.LoadAll(ctx)
	if diff := cmp.Diff(snap, reloaded); diff != "" {
		t.Fatalf("reloaded snapshot mismatch (-want +got):\n%s", diff)
	}
	got := reloaded.Tasks[0]
	if got.ID != task.ID || got.Status != StatusPending || got.Priority != PriorityHigh || got.CompletedAt != "" {
		t.Fatalf("unexpected reloaded task: %+v", got)
	}
	if reloaded.Projects[0].Color != DefaultProjectColor || reloaded.Projects[0].Archived {
		t.Fatalf("unexpected project defaults: %+v", reloaded.Projects[0])
	}
}

func TestFileBackendRoundTrip(t *testing.T) {
	fixedClock(t)
	backend, err := NewFileBackend(t.TempDir())
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	roundTrip(t, backend)
}

func TestMemoryBackendRoundTrip(t *testing.T) {
	fixedClock(t)
	roundTrip(t, NewMemoryBackend())
}

func TestSQLiteBackendRoundTrip(t *testing.T) {
	fixedClock(t)
	backend, err := OpenSQLite(":memory:")
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = backend.Close() })
	roundTrip(t, backend)
}

func TestRedisBackendRoundTrip(t *testing.T) {
	fixedClock(t)
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	backend := NewRedisBackend(client, "test:")
	t.Cleanup(func() { _ = backend.Close() })
	roundTrip(t, backend)

	if !mr.Exists("test:tasks") {
		t.Fatalf("expected tasks key under prefix")
	}
}

func TestCorruptFileLoadsAsEmpty(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "ideas.json"), []byte(`{"id":"x"}`), 0o644); err != nil {
		t.Fatalf("write wrong-shape file: %v", err)
	}
	st := New(backend, quietLogger())
	if tasks := st.LoadTasks(context.Background()); len(tasks) != 0 {
		t.Fatalf("expected empty tasks, got %+v", tasks)
	}
	if ideas := st.LoadIdeas(context.Background()); len(ideas) != 0 {
		t.Fatalf("expected empty ideas, got %+v", ideas)
	}
}

func TestSaveFailureIsLoggedNotReturned(t *testing.T) {
	backend := NewMemoryBackend()
	backend.FailWrites = true
	backend.WriteErr = errors.New("disk full")

	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	st := New(backend, logger)

	if st.SaveTasks(context.Background(), []Task{NewTask("x", nil)}) {
		t.Fatalf("expected save to report failure")
	}
	if !bytes.Contains(buf.Bytes(), []byte("disk full")) {
		t.Fatalf("expected write error to be logged, got %q", buf.String())
	}
}

func TestDeleteProjectMovesTasksToInbox(t *testing.T) {
	var s Snapshot
	p, _ := s.AddProject(ProjectInput{Name: "Garden"})
	other, _ := s.AddProject(ProjectInput{Name: "Work"})
	a, _ := s.AddTask(TaskInput{Text: "plant tomatoes", ProjectID: &p.ID})
	b, _ := s.AddTask(TaskInput{Text: "water beds", ProjectID: &p.ID})
	c, _ := s.AddTask(TaskInput{Text: "send report", ProjectID: &other.ID})

	moved, err := s.DeleteProject(p.ID)
	if err != nil {
		t.Fatalf("delete project: %v", err)
	}
	if moved != 2 {
		t.Fatalf("expected 2 tasks moved, got %d", moved)
	}
	if len(s.Tasks) != 3 {
		t.Fatalf("expected no task to be deleted, got %d tasks", len(s.Tasks))
	}
	for _, id := range []string{a.ID, b.ID} {
		task, err := s.Task(id)
		if err != nil {
			t.Fatalf("get task: %v", err)
		}
		if !task.InInbox() {
			t.Fatalf("expected task %s in inbox, got project %v", id, *task.ProjectID)
		}
	}
	if task, _ := s.Task(c.ID); task.InInbox() {
		t.Fatalf("expected unrelated task to keep its project")
	}
	if _, err := s.Project(p.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected project to be gone, got %v", err)
	}
}

func TestCompleteAndReopenTaskTracksCompletedAt(t *testing.T) {
	fixedClock(t)
	var s Snapshot
	task, _ := s.AddTask(TaskInput{Text: "file taxes"})

	done, err := s.CompleteTask(task.ID)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if done.Status != StatusCompleted || done.CompletedAt != "2026-03-01T09:30:00Z" {
		t.Fatalf("unexpected completed task: %+v", done)
	}
	reopened, err := s.UpdateTask(task.ID, TaskPatch{Status: Some("pending")})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if reopened.Status != StatusPending || reopened.CompletedAt != "" {
		t.Fatalf("expected completedAt cleared, got %+v", reopened)
	}
}

func TestMoveTaskRequiresExistingProject(t *testing.T) {
	var s Snapshot
	task, _ := s.AddTask(TaskInput{Text: "call mum"})
	missing := "nope"
	if _, err := s.MoveTask(task.ID, &missing); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	p, _ := s.AddProject(ProjectInput{Name: "Family"})
	moved, err := s.MoveTask(task.ID, &p.ID)
	if err != nil {
		t.Fatalf("move: %v", err)
	}
	if moved.InInbox() || *moved.ProjectID != p.ID {
		t.Fatalf("expected task in project, got %+v", moved)
	}
	back, err := s.MoveTask(task.ID, nil)
	if err != nil {
		t.Fatalf("move to inbox: %v", err)
	}
	if !back.InInbox() {
		t.Fatalf("expected task back in inbox")
	}
	if inbox := s.InboxTasks(); len(inbox) != 1 {
		t.Fatalf("expected 1 inbox task, got %d", len(inbox))
	}
}

func TestTaskPatchDistinguishesNullFromMissing(t *testing.T) {
	var p TaskPatch
	if err := jsonUnmarshal(`{"projectId": null}`, &p); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !p.ProjectID.Set || p.ProjectID.Value != nil {
		t.Fatalf("expected explicit null to be set, got %+v", p.ProjectID)
	}
	var q TaskPatch
	if err := jsonUnmarshal(`{"text": "x"}`, &q); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if q.ProjectID.Set {
		t.Fatalf("expected missing projectId to stay unset")
	}
}

func TestOpenBackendRejectsUnknownKind(t *testing.T) {
	if _, err := OpenBackend(Options{Backend: "etcd"}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestPartlyDecodableCollectionLoadsAsEmpty(t *testing.T) {
	b := NewMemoryBackend()
	b.Put(CollectionTasks, []byte(`[{"id":"a","text":"ok"},{"id":"b","text":5}]`))
	st := New(b, quietLogger())
	if got := st.LoadTasks(context.Background()); len(got) != 0 {
		t.Fatalf("expected empty tasks, got %+v", got)
	}
}

func TestNumericIDsLoadAsText(t *testing.T) {
	b := NewMemoryBackend()
	b.Put(CollectionTasks, []byte(`[{"id":1,"text":"a","status":"pending"},{"id":2,"text":"b","status":"pending"}]`))
	b.Put(CollectionProjects, []byte(`[{"id":7,"name":"Home"}]`))
	b.Put(CollectionIdeas, []byte(`[{"id":"i-1","text":"kite"}]`))
	st := New(b, quietLogger())

	snap := st.LoadAll(context.Background())
	var ids []string
	for _, task := range snap.Tasks {
		ids = append(ids, task.ID)
	}
	if diff := cmp.Diff([]string{"1", "2"}, ids); diff != "" {
		t.Fatalf("task ids mismatch (-want +got):\n%s", diff)
	}
	if snap.Projects[0].ID != "7" || snap.Ideas[0].ID != "i-1" {
		t.Fatalf("unexpected ids: %+v %+v", snap.Projects, snap.Ideas)
	}
	if _, err := snap.CompleteTask("2"); err != nil {
		t.Fatalf("complete task 2: %v", err)
	}
}

func TestNumericTaskIDs(t *testing.T) {
	snap := Snapshot{
		Tasks:   []Task{{ID: " 4"}, {ID: "uuid-like"}, {ID: "2"}},
		TaskIDs: NumericTaskIDs,
	}
	if got := snap.NextTaskID(); got != "5" {
		t.Fatalf("expected next id 5, got %q", got)
	}
	task, err := snap.AddTask(TaskInput{Text: "sweep"})
	if err != nil {
		t.Fatalf("add task: %v", err)
	}
	if task.ID != "5" {
		t.Fatalf("expected task id 5, got %q", task.ID)
	}
	if got := NumericTaskIDs(nil); got != "1" {
		t.Fatalf("expected first id 1, got %q", got)
	}
}

func TestLookupIgnoresPaddedStoredIDs(t *testing.T) {
	snap := Snapshot{Tasks: []Task{{ID: " 3", Text: "padded", Status: StatusPending}}}
	done, err := snap.CompleteTask("3")
	if err != nil {
		t.Fatalf("complete padded id: %v", err)
	}
	if !done.Completed() {
		t.Fatalf("expected completed task, got %+v", done)
	}
}

func TestFileBackendLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir)
	if err != nil {
		t.Fatalf("open file backend: %v", err)
	}
	ctx := context.Background()
	for _, c := range Collections {
		if err := backend.Write(ctx, c, []byte("[]")); err != nil {
			t.Fatalf("write %s: %v", c, err)
		}
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	if diff := cmp.Diff([]string{"ideas.json", "projects.json", "tasks.json"}, names); diff != "" {
		t.Fatalf("unexpected files (-want +got):\n%s", diff)
	}
	info, err := os.Stat(filepath.Join(dir, "tasks.json"))
	if err != nil {
		t.Fatalf("stat tasks: %v", err)
	}
	if info.Mode().Perm() != 0o644 {
		t.Fatalf("expected 0644, got %v", info.Mode().Perm())
	}
}
