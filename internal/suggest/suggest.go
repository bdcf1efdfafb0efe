// Package suggest asks the model which project an inbox task belongs to.
//
// A suggestion is advisory. Any failure to get or read an answer degrades to a
// zero-confidence suggestion instead of an error.
package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/amirbrooks/tasker-intent-router/internal/gateway"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
)

const (
	reasonNoProjects = "No projects available"
	reasonUnanalyzed = "Unable to analyze"
)

const systemPrompt = `You are a productivity assistant that files tasks into projects.
Given a task and the list of existing projects, pick the project the task most likely belongs to.
Respond with ONLY a JSON object of the form:
{"projectId": "<id or null>", "projectName": "<name or null>", "confidence": <0.0-1.0>, "reasoning": "<one sentence>"}
Use null for projectId when no project fits.`

type Suggestion struct {
	TaskID             string  `json:"taskId"`
	SuggestedProjectID *string `json:"suggestedProjectId"`
	ProjectName        string  `json:"projectName,omitempty"`
	Confidence         float64 `json:"confidence"`
	Reasoning          string  `json:"reasoning"`
}

// reply is the object the model is asked for.
type reply struct {
	ProjectID   *string  `json:"projectId"`
	ProjectName *string  `json:"projectName"`
	Confidence  *float64 `json:"confidence"`
	Reasoning   string   `json:"reasoning"`
}

type Suggester struct {
	gateway gateway.Completer
	logger  *log.Logger
}

func New(g gateway.Completer, logger *log.Logger) *Suggester {
	if logger == nil {
		logger = log.New()
	}
	return &Suggester{gateway: g, logger: logger}
}

// Suggest makes one model call describing every project. With no projects it
// makes none.
func (s *Suggester) Suggest(ctx context.Context, taskID, taskText string, projects []store.Project) Suggestion {
	out := Suggestion{TaskID: taskID}
	if len(projects) == 0 {
		out.Reasoning = reasonNoProjects
		return out
	}
	raw, err := s.gateway.Complete(ctx, systemPrompt, userPrompt(taskText, projects))
	if err != nil {
		s.logger.WithError(err).WithField("task", taskID).Warn("suggest project")
		out.Reasoning = reasonUnanalyzed
		return out
	}
	var r reply
	if err := json.Unmarshal([]byte(stripFences(raw)), &r); err != nil {
		s.logger.WithError(err).WithField("task", taskID).Debug("decode suggestion")
		out.Reasoning = reasonUnanalyzed
		return out
	}
	return resolve(out, r, projects)
}

// CategorizeInbox suggests a project for each inbox task in order, one model
// call per task. A failed task yields its zero-confidence suggestion and the
// batch carries on.
func (s *Suggester) CategorizeInbox(ctx context.Context, snap store.Snapshot) []Suggestion {
	inbox := snap.InboxTasks()
	out := make([]Suggestion, 0, len(inbox))
	for _, t := range inbox {
		out = append(out, s.Suggest(ctx, t.ID, t.Text, snap.Projects))
	}
	s.logger.WithField("count", len(out)).Debug("categorized inbox")
	return out
}

func userPrompt(taskText string, projects []store.Project) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\nProjects:\n", taskText)
	for _, p := range projects {
		fmt.Fprintf(&b, "- id: %s, name: %s", p.ID, p.Name)
		if p.Description != "" {
			fmt.Fprintf(&b, ", description: %s", p.Description)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// resolve keeps the model's project only if it exists. A missing id is looked
// up by name.
func resolve(out Suggestion, r reply, projects []store.Project) Suggestion {
	out.Reasoning = r.Reasoning
	if r.Confidence != nil {
		out.Confidence = clamp(*r.Confidence)
	}
	snap := store.Snapshot{Projects: projects}
	if r.ProjectID != nil && strings.TrimSpace(*r.ProjectID) != "" {
		if p, err := snap.Project(*r.ProjectID); err == nil {
			out.SuggestedProjectID = &p.ID
			out.ProjectName = p.Name
		}
	} else if r.ProjectName != nil {
		if p, ok := snap.ProjectByName(*r.ProjectName); ok {
			out.SuggestedProjectID = &p.ID
			out.ProjectName = p.Name
		}
	}
	if out.SuggestedProjectID == nil {
		out.ProjectName = ""
	}
	return out
}

// stripFences removes a surrounding markdown code fence, with or without a
// language tag.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func clamp(f float64) float64 {
	return max(0, min(1, f))
}
