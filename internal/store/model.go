package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"

	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"

	DefaultProjectColor = "#3b82f6"
)

type Task struct {
	ID          string  `json:"id"`
	Text        string  `json:"text"`
	Status      string  `json:"status"`
	ProjectID   *string `json:"projectId"`
	DueDate     string  `json:"dueDate,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	CreatedAt   string  `json:"createdAt"`
	CompletedAt string  `json:"completedAt,omitempty"`
}

// InInbox reports whether the task belongs to no project.
func (t Task) InInbox() bool {
	return t.ProjectID == nil || strings.TrimSpace(*t.ProjectID) == ""
}

func (t Task) Completed() bool {
	return t.Status == StatusCompleted
}

// MarkCompleted sets the completed status and stamps completedAt once.
func (t *Task) MarkCompleted() {
	setTaskStatus(t, StatusCompleted)
}

// Collections written by the numeric-id assistant carry "id": 1. Those ids
// are read back as their decimal text.
func (t *Task) UnmarshalJSON(b []byte) error {
	type plain Task
	aux := struct {
		*plain
		ID flexID `json:"id"`
	}{plain: (*plain)(t)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	t.ID = string(aux.ID)
	return nil
}

type Project struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Color       string `json:"color"`
	CreatedAt   string `json:"createdAt"`
	Archived    bool   `json:"archived"`
}

func (p *Project) UnmarshalJSON(b []byte) error {
	type plain Project
	aux := struct {
		*plain
		ID flexID `json:"id"`
	}{plain: (*plain)(p)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.ID = string(aux.ID)
	return nil
}

type Idea struct {
	ID          string   `json:"id"`
	Text        string   `json:"text"`
	Description string   `json:"description,omitempty"`
	CreatedAt   string   `json:"createdAt"`
	Tags        []string `json:"tags,omitempty"`
}

func (i *Idea) UnmarshalJSON(b []byte) error {
	type plain Idea
	aux := struct {
		*plain
		ID flexID `json:"id"`
	}{plain: (*plain)(i)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	i.ID = string(aux.ID)
	return nil
}

// flexID decodes an id written either as a JSON string or as a JSON number.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %s", b)
	}
	*f = flexID(n.String())
	return nil
}

// NewTask builds a pending task with a fresh id. The text is used verbatim.
func NewTask(text string, projectID *string) Task {
	return Task{
		ID:        newID(),
		Text:      text,
		Status:    StatusPending,
		ProjectID: cloneID(projectID),
		CreatedAt: nowString(),
	}
}

// NewProject builds an active project with a fresh id and the default color.
func NewProject(name string) Project {
	return Project{
		ID:        newID(),
		Name:      name,
		Color:     DefaultProjectColor,
		CreatedAt: nowString(),
	}
}

// NewIdea builds an idea with a fresh id. Inline #tags in the text become tags.
func NewIdea(text string) Idea {
	return Idea{
		ID:        newID(),
		Text:      text,
		CreatedAt: nowString(),
		Tags:      inferIdeaTags(text, "", nil),
	}
}

func normalizePriority(p string) string {
	p = strings.TrimSpace(strings.ToLower(p))
	switch p {
	case "low", "l":
		return PriorityLow
	case "normal", "n", "med", "medium", "m":
		return PriorityMedium
	case "high", "h", "urgent", "u", "p0":
		return PriorityHigh
	default:
		return ""
	}
}

func normalizeStatus(s string) (string, bool) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "pending", "open", "todo":
		return StatusPending, true
	case "completed", "done", "complete":
		return StatusCompleted, true
	default:
		return "", false
	}
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := strings.TrimSpace(*id)
	if v == "" {
		return nil
	}
	return &v
}
