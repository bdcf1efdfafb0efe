// Package store owns the task, project and idea collections and the backends that
// persist them.
//
// Collections are always read and written whole. Every command loads a fresh
// snapshot and writes the mutated collection back in full, so two concurrent
// writers race and the last one wins. There is no lock and no version check.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	timeNow     = func() time.Time { return time.Now().UTC() }
	newID       = func() string { return uuid.NewString() }
)

type Collection string

const (
	CollectionTasks    Collection = "tasks"
	CollectionProjects Collection = "projects"
	CollectionIdeas    Collection = "ideas"
)

// Collections lists every collection in the order they are loaded.
var Collections = []Collection{CollectionTasks, CollectionProjects, CollectionIdeas}

// Backend reads and writes one raw JSON document per collection.
// Read returns ErrNotFound when the collection has never been written.
type Backend interface {
	Read(ctx context.Context, c Collection) ([]byte, error)
	Write(ctx context.Context, c Collection, data []byte) error
	Close() error
}

// Snapshot is the in-memory copy of all three collections for one command.
type Snapshot struct {
	Tasks    []Task    `json:"tasks"`
	Projects []Project `json:"projects"`
	Ideas    []Idea    `json:"ideas"`

	// TaskIDs numbers tasks added through the snapshot. Nil means UUIDs.
	TaskIDs TaskIDFunc `json:"-" yaml:"-"`
}

// TaskIDFunc mints the id of a new task given the tasks already stored.
type TaskIDFunc func(existing []Task) string

// NextTaskID returns the id the next added task will get.
func (s *Snapshot) NextTaskID() string {
	if s.TaskIDs != nil {
		return s.TaskIDs(s.Tasks)
	}
	return newID()
}

// NumericTaskIDs numbers tasks one past the largest integer id in use.
func NumericTaskIDs(existing []Task) string {
	max := 0
	for _, t := range existing {
		if n, err := strconv.Atoi(strings.TrimSpace(t.ID)); err == nil && n > max {
			max = n
		}
	}
	return strconv.Itoa(max + 1)
}

// Store applies the load/save policy on top of a Backend: unreadable or corrupt
// collections load as empty, and failed writes are logged and swallowed.
type Store struct {
	backend Backend
	logger  *log.Logger
	taskIDs TaskIDFunc
}

func New(backend Backend, logger *log.Logger) *Store {
	if backend == nil {
		panic("store.New: backend is nil")
	}
	if logger == nil {
		logger = log.New()
	}
	return &Store{backend: backend, logger: logger}
}

func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) LoadTasks(ctx context.Context) []Task {
	return loadCollection[Task](ctx, s, CollectionTasks)
}

func (s *Store) LoadProjects(ctx context.Context) []Project {
	return loadCollection[Project](ctx, s, CollectionProjects)
}

func (s *Store) LoadIdeas(ctx context.Context) []Idea {
	return loadCollection[Idea](ctx, s, CollectionIdeas)
}

// LoadAll reads all three collections.
func (s *Store) LoadAll(ctx context.Context) Snapshot {
	return Snapshot{
		Tasks:    s.LoadTasks(ctx),
		Projects: s.LoadProjects(ctx),
		Ideas:    s.LoadIdeas(ctx),
		TaskIDs:  s.taskIDs,
	}
}

// SetTaskIDs replaces how snapshots from this store number new tasks.
// Nil restores UUIDs.
func (s *Store) SetTaskIDs(f TaskIDFunc) {
	s.taskIDs = f
}

func (s *Store) TaskIDs() TaskIDFunc {
	return s.taskIDs
}

func (s *Store) SaveTasks(ctx context.Context, tasks []Task) bool {
	return s.save(ctx, CollectionTasks, tasks, len(tasks))
}

func (s *Store) SaveProjects(ctx context.Context, projects []Project) bool {
	return s.save(ctx, CollectionProjects, projects, len(projects))
}

func (s *Store) SaveIdeas(ctx context.Context, ideas []Idea) bool {
	return s.save(ctx, CollectionIdeas, ideas, len(ideas))
}

// loadCollection decodes one collection. A document that does not decode
// whole loads as empty, never as a partial list.
func loadCollection[T any](ctx context.Context, s *Store, c Collection) []T {
	out := []T{}
	b, err := s.backend.Read(ctx, c)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.WithError(err).WithField("collection", c).Warn("read collection; treating as empty")
		}
		return out
	}
	if len(strings.TrimSpace(string(b))) == 0 {
		return out
	}
	var decoded []T
	if err := json.Unmarshal(b, &decoded); err != nil {
		s.logger.WithError(err).WithField("collection", c).Warn("decode collection; treating as empty")
		return out
	}
	if decoded != nil {
		out = decoded
	}
	return out
}

// save reports whether the write reached the backend. Callers are not expected
// to act on a failure; it is only logged.
func (s *Store) save(ctx context.Context, c Collection, v any, n int) bool {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		s.logger.WithError(err).WithField("collection", c).Error("encode collection")
		return false
	}
	if err := s.backend.Write(ctx, c, b); err != nil {
		s.logger.WithError(err).WithField("collection", c).Error("failed to save collection")
		return false
	}
	s.logger.WithFields(log.Fields{"collection": c, "count": n}).Debug("saved collection")
	return true
}

func nowString() string {
	return timeNow().Format(time.RFC3339)
}

// ExpandHome resolves a leading ~ to the user's home directory.
func ExpandHome(path string) string {
	if strings.HasPrefix(path, "~"+string(os.PathSeparator)) || path == "~" {
		home, _ := os.UserHomeDir()
		if home != "" {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}

func atomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Chmod(tmp, perm); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	// Rename is atomic on same filesystem.
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}
