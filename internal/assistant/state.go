package assistant

import "github.com/amirbrooks/tasker-intent-router/internal/store"

// State is the snapshot one command works on. Handlers mutate it in place and
// record which collections they wrote back.
type State struct {
	store.Snapshot
	saved []store.Collection
}

func (s *State) markSaved(c store.Collection) {
	s.saved = append(s.saved, c)
}

// Saved lists the collections written during the command, in write order.
func (s *State) Saved() []store.Collection {
	return s.saved
}
