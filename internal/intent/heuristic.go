package intent

import "strings"

type rule struct {
	intent Intent
	// all must appear, and at least one of any when any is non-empty.
	all []string
	any []string
	// workspaceOnly rules are skipped in the tasks variant.
	workspaceOnly bool
}

// Order matters: a message can hit several keyword sets and the first rule wins.
var rules = []rule{
	{intent: Help, any: []string{"help"}},
	{intent: AddIdea, all: []string{"idea"}, any: []string{"add", "create", "new"}, workspaceOnly: true},
	{intent: AddProject, all: []string{"project"}, any: []string{"add", "create", "new"}, workspaceOnly: true},
	{intent: ListAll, any: []string{"list", "show", "tasks"}},
	{intent: CompleteTask, any: []string{"complete", "done", "finish", "check off"}},
	{intent: DeleteTask, any: []string{"delete", "remove", "rm", "trash"}},
	{intent: AddTask, any: []string{"add", "create", "new task", "todo"}},
}

// Heuristic applies the keyword rules to the trimmed, lower-cased input.
// Matching is plain substring search. ok is false when no rule applies.
func Heuristic(v Variant, text string) (Intent, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return Help, true
	}
	for _, r := range rules {
		if r.workspaceOnly && v == VariantTasks {
			continue
		}
		if !r.matches(s) {
			continue
		}
		if r.intent == ListAll {
			return v.ListIntent(), true
		}
		return r.intent, true
	}
	return "", false
}

func (r rule) matches(s string) bool {
	for _, kw := range r.all {
		if !strings.Contains(s, kw) {
			return false
		}
	}
	if len(r.any) == 0 {
		return true
	}
	for _, kw := range r.any {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
