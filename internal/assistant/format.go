package assistant

import (
	"fmt"
	"strings"

	"github.com/amirbrooks/tasker-intent-router/internal/intent"
	"github.com/amirbrooks/tasker-intent-router/internal/store"
)

// previewLimit is how many items of each collection a listing shows.
const previewLimit = 5

const tasksHelp = `🤖 Task Manager Help:

Commands:
  • "add [task]" - Add a new task
  • "list" or "show tasks" - See all tasks
  • "complete [number]" or "done [number]" - Mark task as done
  • "delete [number]" - Remove a task

Examples:
  • "add buy groceries"
  • "complete 1"
  • "show my tasks"
`

const workspaceHelp = `🤖 Assistant Help:

Commands:
  • "add idea [text]" - Capture an idea
  • "create project [name]" - Start a project
  • "add [task]" - Add a task to the inbox
  • "list" or "show" - See ideas, projects and tasks
  • "complete [id]" or "done [id]" - Mark a task as done
  • "delete [id]" - Remove a task

Examples:
  • "new idea: weekly review template"
  • "create project Garden"
  • "add buy groceries"
  • "done 3"
`

func helpText(v intent.Variant) string {
	if v == intent.VariantTasks {
		return tasksHelp
	}
	return workspaceHelp
}

func formatTaskList(tasks []store.Task) string {
	if len(tasks) == 0 {
		return "📋 No tasks yet. Add one with 'add [task]'"
	}
	lines := []string{"📋 Your tasks:"}
	lines = append(lines, taskLines(tasks)...)
	return strings.Join(lines, "\n")
}

// formatOverview summarizes ideas, projects and tasks in collection order.
func formatOverview(s store.Snapshot) string {
	if len(s.Ideas) == 0 && len(s.Projects) == 0 && len(s.Tasks) == 0 {
		return "📭 Nothing here yet. Try 'add idea ...', 'create project ...' or 'add ...'"
	}
	var sections []string
	if len(s.Ideas) > 0 {
		lines := []string{fmt.Sprintf("💡 Ideas (%d):", len(s.Ideas))}
		for _, idea := range s.Ideas[:shown(len(s.Ideas))] {
			lines = append(lines, fmt.Sprintf("  • %s", idea.Text))
		}
		sections = append(sections, strings.Join(withMore(lines, len(s.Ideas)), "\n"))
	}
	if len(s.Projects) > 0 {
		lines := []string{fmt.Sprintf("📁 Projects (%d):", len(s.Projects))}
		for _, p := range s.Projects[:shown(len(s.Projects))] {
			open := 0
			for _, t := range s.Tasks {
				if !t.InInbox() && *t.ProjectID == p.ID && !t.Completed() {
					open++
				}
			}
			lines = append(lines, fmt.Sprintf("  • %s (%d open)", p.Name, open))
		}
		sections = append(sections, strings.Join(withMore(lines, len(s.Projects)), "\n"))
	}
	if len(s.Tasks) > 0 {
		lines := []string{fmt.Sprintf("📋 Tasks (%d):", len(s.Tasks))}
		lines = append(lines, taskLines(s.Tasks)...)
		sections = append(sections, strings.Join(lines, "\n"))
	}
	return strings.Join(sections, "\n\n")
}

func taskLines(tasks []store.Task) []string {
	var lines []string
	for _, t := range tasks[:shown(len(tasks))] {
		mark := "○"
		if t.Completed() {
			mark = "✓"
		}
		lines = append(lines, fmt.Sprintf("  %s #%s: %s", mark, t.ID, t.Text))
	}
	return withMore(lines, len(tasks))
}

func shown(total int) int {
	return min(total, previewLimit)
}

// withMore appends the truncation note when total exceeds the preview.
func withMore(lines []string, total int) []string {
	if total > previewLimit {
		lines = append(lines, fmt.Sprintf("  ... and %d more", total-previewLimit))
	}
	return lines
}
