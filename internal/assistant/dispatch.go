package assistant

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/tasker-intent-router/internal/gateway"
	"github.com/amirbrooks/tasker-intent-router/internal/intent"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
)

type handler func(ctx context.Context, st *State, raw string) (string, error)

// Dispatcher maps each intent of its variant to exactly one handler.
type Dispatcher struct {
	variant  intent.Variant
	gateway  gateway.Completer
	store    *store.Store
	logger   *log.Logger
	handlers map[intent.Intent]handler
}

func NewDispatcher(v intent.Variant, g gateway.Completer, s *store.Store, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.New()
	}
	d := &Dispatcher{variant: v, gateway: g, store: s, logger: logger}
	d.handlers = map[intent.Intent]handler{
		intent.AddTask:      d.addTask,
		intent.CompleteTask: d.completeTask,
		intent.DeleteTask:   d.deleteTask,
		intent.Help:         d.help,
	}
	if v == intent.VariantTasks {
		d.handlers[intent.ListTasks] = d.listTasks
	} else {
		d.handlers[intent.AddIdea] = d.addIdea
		d.handlers[intent.AddProject] = d.addProject
		d.handlers[intent.ListAll] = d.listAll
	}
	return d
}

// Dispatch runs the handler for in. Labels the variant does not know are
// answered with help, the same as the router does.
func (d *Dispatcher) Dispatch(ctx context.Context, in intent.Intent, st *State, raw string) (string, error) {
	h, ok := d.handlers[in]
	if !ok {
		h = d.help
	}
	return h(ctx, st, raw)
}

func (d *Dispatcher) addTask(ctx context.Context, st *State, raw string) (string, error) {
	text, err := d.extract(ctx, extractTaskPrompt, raw)
	if err != nil {
		return "", err
	}
	t := store.NewTask(text, nil)
	t.ID = st.NextTaskID()
	st.Tasks = append(st.Tasks, t)
	d.saveTasks(ctx, st)
	return fmt.Sprintf("✅ Added task #%s: %s", t.ID, t.Text), nil
}

func (d *Dispatcher) addIdea(ctx context.Context, st *State, raw string) (string, error) {
	text, err := d.extract(ctx, extractIdeaPrompt, raw)
	if err != nil {
		return "", err
	}
	idea := store.NewIdea(text)
	st.Ideas = append(st.Ideas, idea)
	if d.store.SaveIdeas(ctx, st.Ideas) {
		st.markSaved(store.CollectionIdeas)
	}
	return fmt.Sprintf("💡 Added idea #%s: %s", idea.ID, idea.Text), nil
}

func (d *Dispatcher) addProject(ctx context.Context, st *State, raw string) (string, error) {
	name, err := d.extract(ctx, extractProjectPrompt, raw)
	if err != nil {
		return "", err
	}
	p := store.NewProject(name)
	st.Projects = append(st.Projects, p)
	if d.store.SaveProjects(ctx, st.Projects) {
		st.markSaved(store.CollectionProjects)
	}
	return fmt.Sprintf("📁 Created project #%s: %s", p.ID, p.Name), nil
}

func (d *Dispatcher) listTasks(_ context.Context, st *State, _ string) (string, error) {
	return formatTaskList(st.Tasks), nil
}

func (d *Dispatcher) listAll(_ context.Context, st *State, _ string) (string, error) {
	return formatOverview(st.Snapshot), nil
}

// completeTask marks the first loosely matching task completed. An id the
// model could not produce becomes the sentinel, which matches nothing.
func (d *Dispatcher) completeTask(ctx context.Context, st *State, raw string) (string, error) {
	id, err := d.extractTaskID(ctx, raw)
	if err != nil {
		return "", err
	}
	for i := range st.Tasks {
		if !idsEqual(st.Tasks[i].ID, id) {
			continue
		}
		st.Tasks[i].MarkCompleted()
		d.saveTasks(ctx, st)
		return fmt.Sprintf("✅ Completed task #%s: %s", id, st.Tasks[i].Text), nil
	}
	return taskNotFound(id), nil
}

// deleteTask removes every task matching the id and writes only when
// something was removed.
func (d *Dispatcher) deleteTask(ctx context.Context, st *State, raw string) (string, error) {
	id, err := d.extractTaskID(ctx, raw)
	if err != nil {
		return "", err
	}
	kept := make([]store.Task, 0, len(st.Tasks))
	for _, t := range st.Tasks {
		if !idsEqual(t.ID, id) {
			kept = append(kept, t)
		}
	}
	if len(kept) == len(st.Tasks) {
		return taskNotFound(id), nil
	}
	st.Tasks = kept
	d.saveTasks(ctx, st)
	return fmt.Sprintf("🗑️ Deleted task #%s", id), nil
}

func (d *Dispatcher) help(context.Context, *State, string) (string, error) {
	return helpText(d.variant), nil
}

func (d *Dispatcher) saveTasks(ctx context.Context, st *State) {
	if d.store.SaveTasks(ctx, st.Tasks) {
		st.markSaved(store.CollectionTasks)
	}
}
