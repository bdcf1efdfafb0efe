package store

import (
	"fmt"
	"strings"
)

type TaskInput struct {
	Text      string  `json:"text"`
	ProjectID *string `json:"projectId"`
	DueDate   string  `json:"dueDate"`
	Priority  string  `json:"priority"`
}

func (s *Snapshot) AddTask(in TaskInput) (Task, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Task{}, fmt.Errorf("%w: text is required", ErrInvalid)
	}
	if in.ProjectID != nil && strings.TrimSpace(*in.ProjectID) != "" {
		if _, err := s.projectIndex(*in.ProjectID); err != nil {
			return Task{}, err
		}
	}
	t := NewTask(text, in.ProjectID)
	t.ID = s.NextTaskID()
	t.DueDate = strings.TrimSpace(in.DueDate)
	t.Priority = normalizePriority(in.Priority)
	s.Tasks = append(s.Tasks, t)
	return t, nil
}

func (s *Snapshot) Task(id string) (Task, error) {
	i, err := s.taskIndex(id)
	if err != nil {
		return Task{}, err
	}
	return s.Tasks[i], nil
}

func (s *Snapshot) UpdateTask(id string, p TaskPatch) (Task, error) {
	i, err := s.taskIndex(id)
	if err != nil {
		return Task{}, err
	}
	t := s.Tasks[i]
	if p.Text.Set {
		text := strings.TrimSpace(p.Text.Value)
		if text == "" {
			return Task{}, fmt.Errorf("%w: text is required", ErrInvalid)
		}
		t.Text = text
	}
	if p.Status.Set {
		status, ok := normalizeStatus(p.Status.Value)
		if !ok {
			return Task{}, fmt.Errorf("%w: unknown status %q", ErrInvalid, p.Status.Value)
		}
		setTaskStatus(&t, status)
	}
	if p.ProjectID.Set {
		pid := cloneID(p.ProjectID.Value)
		if pid != nil {
			if _, err := s.projectIndex(*pid); err != nil {
				return Task{}, err
			}
		}
		t.ProjectID = pid
	}
	if p.DueDate.Set {
		t.DueDate = strings.TrimSpace(p.DueDate.Value)
	}
	if p.Priority.Set {
		t.Priority = normalizePriority(p.Priority.Value)
	}
	s.Tasks[i] = t
	return t, nil
}

// MoveTask assigns the task to a project, or back to the inbox when projectID is nil.
func (s *Snapshot) MoveTask(id string, projectID *string) (Task, error) {
	return s.UpdateTask(id, TaskPatch{ProjectID: Some(projectID)})
}

func (s *Snapshot) CompleteTask(id string) (Task, error) {
	i, err := s.taskIndex(id)
	if err != nil {
		return Task{}, err
	}
	s.Tasks[i].MarkCompleted()
	return s.Tasks[i], nil
}

func (s *Snapshot) DeleteTask(id string) error {
	i, err := s.taskIndex(id)
	if err != nil {
		return err
	}
	s.Tasks = append(s.Tasks[:i:i], s.Tasks[i+1:]...)
	return nil
}

// InboxTasks returns the tasks that belong to no project, in collection order.
func (s *Snapshot) InboxTasks() []Task {
	out := []Task{}
	for _, t := range s.Tasks {
		if t.InInbox() {
			out = append(out, t)
		}
	}
	return out
}

func (s *Snapshot) ProjectTasks(projectID string) ([]Task, error) {
	if _, err := s.projectIndex(projectID); err != nil {
		return nil, err
	}
	out := []Task{}
	for _, t := range s.Tasks {
		if !t.InInbox() && *t.ProjectID == projectID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Snapshot) taskIndex(id string) (int, error) {
	id = strings.TrimSpace(id)
	for i, t := range s.Tasks {
		if strings.TrimSpace(t.ID) == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("task %q: %w", id, ErrNotFound)
}

func setTaskStatus(t *Task, status string) {
	if t.Status == status {
		return
	}
	t.Status = status
	if status == StatusCompleted {
		t.CompletedAt = nowString()
	} else {
		t.CompletedAt = ""
	}
}
