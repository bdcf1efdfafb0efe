// Package intent turns free text into exactly one intent label: ordered keyword
// rules first, then a single model call when no rule matches.
package intent

import (
	"fmt"
	"strings"
)

type Intent string

const (
	AddTask      Intent = "add_task"
	AddIdea      Intent = "add_idea"
	AddProject   Intent = "add_project"
	ListTasks    Intent = "list_tasks"
	ListAll      Intent = "list_all"
	CompleteTask Intent = "complete_task"
	DeleteTask   Intent = "delete_task"
	Help         Intent = "help"
)

// Variant selects the intent vocabulary. Tasks is the single-collection
// assistant with numeric task ids; Workspace covers ideas, projects and tasks.
type Variant string

const (
	VariantTasks     Variant = "tasks"
	VariantWorkspace Variant = "workspace"
)

func ParseVariant(s string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(s))) {
	case "", VariantWorkspace:
		return VariantWorkspace, nil
	case VariantTasks:
		return VariantTasks, nil
	default:
		return "", fmt.Errorf("unknown router variant %q", s)
	}
}

// Intents lists the valid labels for the variant in prompt order.
func (v Variant) Intents() []Intent {
	if v == VariantTasks {
		return []Intent{AddTask, ListTasks, CompleteTask, DeleteTask, Help}
	}
	return []Intent{AddTask, AddIdea, AddProject, ListAll, CompleteTask, DeleteTask, Help}
}

func (v Variant) Valid(i Intent) bool {
	for _, known := range v.Intents() {
		if known == i {
			return true
		}
	}
	return false
}

// ListIntent is the listing label for the variant.
func (v Variant) ListIntent() Intent {
	if v == VariantTasks {
		return ListTasks
	}
	return ListAll
}

var intentDescriptions = map[Intent]string{
	AddTask:      "User wants to add/create a new task",
	AddIdea:      "User wants to capture a new idea",
	AddProject:   "User wants to create a new project",
	ListTasks:    "User wants to see their tasks",
	ListAll:      "User wants to see their ideas, projects and tasks",
	CompleteTask: "User wants to mark a task as done",
	DeleteTask:   "User wants to remove a task",
	Help:         "User needs help or is confused",
}

// SystemPrompt is the fixed classification instruction for the variant.
func SystemPrompt(v Variant) string {
	var b strings.Builder
	if v == VariantTasks {
		b.WriteString("You are a task intent classifier.\n")
	} else {
		b.WriteString("You are an intent classifier for a personal productivity assistant.\n")
	}
	b.WriteString("Classify the user's intent into exactly one of these categories:\n")
	for _, i := range v.Intents() {
		b.WriteString(fmt.Sprintf("- %s: %s\n", i, intentDescriptions[i]))
	}
	b.WriteString("\nRespond with ONLY the category name, nothing else.")
	return b.String()
}
