package store

import "encoding/json"

// Field is a patch value that remembers whether the key was present in the
// decoded body, so an explicit null can be told apart from an omitted key.
type Field[T any] struct {
	Set   bool
	Value T
}

func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Set = true
	return json.Unmarshal(b, &f.Value)
}

// Some returns a Field that is set to v.
func Some[T any](v T) Field[T] {
	return Field[T]{Set: true, Value: v}
}

type TaskPatch struct {
	Text      Field[string]  `json:"text"`
	Status    Field[string]  `json:"status"`
	ProjectID Field[*string] `json:"projectId"`
	DueDate   Field[string]  `json:"dueDate"`
	Priority  Field[string]  `json:"priority"`
}

type ProjectPatch struct {
	Name        Field[string] `json:"name"`
	Description Field[string] `json:"description"`
	Color       Field[string] `json:"color"`
	Archived    Field[bool]   `json:"archived"`
}

type IdeaPatch struct {
	Text        Field[string]  `json:"text"`
	Description Field[string]  `json:"description"`
	Tags        Field[TagList] `json:"tags"`
}
