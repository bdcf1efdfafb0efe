package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/amirbrooks/tasker-intent-router/internal/intent"
)

// sentinelID is what an unusable id reply becomes. No stored task has it.
const sentinelID = "0"

const (
	extractTaskPrompt = `Extract the task description from the user's message.
Return ONLY the task text, nothing else. Keep it concise.`

	extractIdeaPrompt = `Extract the idea from the user's message.
Return ONLY the idea text, nothing else. Keep it concise.`

	extractProjectPrompt = `Extract the project name from the user's message.
Return ONLY the project name, nothing else.`

	extractNumberPrompt = `Extract the task number from the user's message.
Return ONLY the number, nothing else. If unclear, return 0.`

	extractIDPrompt = `Extract the task id from the user's message.
The id is either a UUID or a number.
Return ONLY the id, nothing else. If unclear, return 0.`
)

// extract asks the model for one field. The trimmed reply is used as is, even
// when empty.
func (d *Dispatcher) extract(ctx context.Context, prompt, raw string) (string, error) {
	out, err := d.gateway.Complete(ctx, prompt, raw)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGateway, err)
	}
	return strings.TrimSpace(out), nil
}

func (d *Dispatcher) extractTaskID(ctx context.Context, raw string) (string, error) {
	prompt := extractIDPrompt
	if d.variant == intent.VariantTasks {
		prompt = extractNumberPrompt
	}
	out, err := d.extract(ctx, prompt, raw)
	if err != nil {
		return "", err
	}
	return coerceTaskID(d.variant, out), nil
}

// coerceTaskID reduces a model reply to a task id. The tasks variant accepts
// integers only; the workspace variant also accepts UUIDs. Anything else is
// the sentinel.
func coerceTaskID(v intent.Variant, s string) string {
	s = strings.Trim(strings.TrimSpace(s), "#\"'`")
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	if v == intent.VariantWorkspace {
		if u, err := uuid.Parse(s); err == nil {
			return u.String()
		}
	}
	return sentinelID
}

// idsEqual compares ids loosely: two integers compare by value, so "03" and
// "3" match; anything else compares case-insensitively as text.
func idsEqual(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	if errA == nil && errB == nil {
		return na == nb
	}
	return strings.EqualFold(a, b)
}

func taskNotFound(id string) string {
	return "❌ Task #" + id + " not found"
}
