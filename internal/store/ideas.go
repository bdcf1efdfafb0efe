package store

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type IdeaInput struct {
	Text        string  `json:"text"`
	Description string  `json:"description"`
	Tags        TagList `json:"tags"`
}

// TagList accepts either a JSON array of tags or one string such as
// "#work, home @later", which is split with ParseTagList.
type TagList []string

func (l *TagList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = ParseTagList(s)
		return nil
	}
	var tags []string
	if err := json.Unmarshal(b, &tags); err != nil {
		return fmt.Errorf("%w: tags must be a string or a list of strings", ErrInvalid)
	}
	*l = tags
	return nil
}

func (s *Snapshot) AddIdea(in IdeaInput) (Idea, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Idea{}, fmt.Errorf("%w: text is required", ErrInvalid)
	}
	idea := NewIdea(text)
	idea.Description = strings.TrimSpace(in.Description)
	idea.Tags = inferIdeaTags(text, idea.Description, in.Tags)
	s.Ideas = append(s.Ideas, idea)
	return idea, nil
}

func (s *Snapshot) Idea(id string) (Idea, error) {
	i, err := s.ideaIndex(id)
	if err != nil {
		return Idea{}, err
	}
	return s.Ideas[i], nil
}

func (s *Snapshot) UpdateIdea(id string, p IdeaPatch) (Idea, error) {
	i, err := s.ideaIndex(id)
	if err != nil {
		return Idea{}, err
	}
	idea := s.Ideas[i]
	if p.Text.Set {
		text := strings.TrimSpace(p.Text.Value)
		if text == "" {
			return Idea{}, fmt.Errorf("%w: text is required", ErrInvalid)
		}
		idea.Text = text
	}
	if p.Description.Set {
		idea.Description = strings.TrimSpace(p.Description.Value)
	}
	if p.Tags.Set {
		idea.Tags = normalizeIdeaTags(p.Tags.Value)
	}
	s.Ideas[i] = idea
	return idea, nil
}

func (s *Snapshot) DeleteIdea(id string) error {
	i, err := s.ideaIndex(id)
	if err != nil {
		return err
	}
	s.Ideas = append(s.Ideas[:i:i], s.Ideas[i+1:]...)
	return nil
}

// PromoteIdea turns an idea into a pending inbox task carrying the idea's text
// and removes the idea.
func (s *Snapshot) PromoteIdea(id string) (Task, error) {
	i, err := s.ideaIndex(id)
	if err != nil {
		return Task{}, err
	}
	t := NewTask(s.Ideas[i].Text, nil)
	t.ID = s.NextTaskID()
	s.Tasks = append(s.Tasks, t)
	s.Ideas = append(s.Ideas[:i:i], s.Ideas[i+1:]...)
	return t, nil
}

func (s *Snapshot) ideaIndex(id string) (int, error) {
	id = strings.TrimSpace(id)
	for i, idea := range s.Ideas {
		if strings.TrimSpace(idea.ID) == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("idea %q: %w", id, ErrNotFound)
}

// ParseTagList splits a comma or space separated tag list.
func ParseTagList(value string) []string {
	value = strings.ReplaceAll(value, ",", " ")
	fields := strings.Fields(value)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = cleanIdeaTag(f)
		if f == "" {
			continue
		}
		out = append(out, f)
	}
	return dedupeStrings(out)
}

func normalizeIdeaTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = cleanIdeaTag(tag)
		if tag == "" {
			continue
		}
		out = append(out, tag)
	}
	return dedupeStrings(out)
}

func cleanIdeaTag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return ""
	}
	tag = strings.TrimLeft(tag, "#@+")
	return strings.TrimSpace(tag)
}

func inferIdeaTags(text string, description string, explicit []string) []string {
	out := normalizeIdeaTags(explicit)
	out = append(out, extractIdeaInlineTags(text)...)
	out = append(out, extractIdeaInlineTags(description)...)
	return dedupeStrings(out)
}

func extractIdeaInlineTags(text string) []string {
	var tags []string
	s := strings.ReplaceAll(text, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	inFence := false
	fence := ""
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			if !inFence {
				inFence = true
				fence = trimmed[:3]
			} else if strings.HasPrefix(trimmed, fence) {
				inFence = false
				fence = ""
			}
			continue
		}
		if inFence || isHeadingLine(line) {
			continue
		}
		tags = append(tags, extractTagTokens(line)...)
	}
	return tags
}

func isHeadingLine(line string) bool {
	trimmed := strings.TrimLeft(line, " \t")
	i := 0
	for i < len(trimmed) && trimmed[i] == '#' {
		i++
	}
	return i > 0 && i < len(trimmed) && trimmed[i] == ' '
}

func extractTagTokens(line string) []string {
	var tags []string
	for i := 0; i < len(line); i++ {
		ch := line[i]
		if ch != '#' && ch != '@' {
			continue
		}
		if i > 0 && isTagChar(line[i-1]) {
			continue
		}
		if i+1 >= len(line) || !isTagChar(line[i+1]) {
			continue
		}
		j := i + 1
		for j < len(line) && isTagChar(line[j]) {
			j++
		}
		tags = append(tags, line[i+1:j])
		i = j - 1
	}
	return tags
}

func isTagChar(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '-' || b == '_':
		return true
	default:
		return false
	}
}

func dedupeStrings(in []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}
