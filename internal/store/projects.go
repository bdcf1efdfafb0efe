package store

import (
	"fmt"
	"strings"
)

type ProjectInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (s *Snapshot) AddProject(in ProjectInput) (Project, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return Project{}, fmt.Errorf("%w: project name is required", ErrInvalid)
	}
	p := NewProject(name)
	p.Description = strings.TrimSpace(in.Description)
	if c := strings.TrimSpace(in.Color); c != "" {
		p.Color = c
	}
	s.Projects = append(s.Projects, p)
	return p, nil
}

func (s *Snapshot) Project(id string) (Project, error) {
	i, err := s.projectIndex(id)
	if err != nil {
		return Project{}, err
	}
	return s.Projects[i], nil
}

// ProjectByName finds the first project whose name matches case-insensitively.
func (s *Snapshot) ProjectByName(name string) (Project, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Project{}, false
	}
	for _, p := range s.Projects {
		if strings.EqualFold(strings.TrimSpace(p.Name), name) {
			return p, true
		}
	}
	return Project{}, false
}

func (s *Snapshot) UpdateProject(id string, p ProjectPatch) (Project, error) {
	i, err := s.projectIndex(id)
	if err != nil {
		return Project{}, err
	}
	prj := s.Projects[i]
	if p.Name.Set {
		name := strings.TrimSpace(p.Name.Value)
		if name == "" {
			return Project{}, fmt.Errorf("%w: project name is required", ErrInvalid)
		}
		prj.Name = name
	}
	if p.Description.Set {
		prj.Description = strings.TrimSpace(p.Description.Value)
	}
	if p.Color.Set && strings.TrimSpace(p.Color.Value) != "" {
		prj.Color = strings.TrimSpace(p.Color.Value)
	}
	if p.Archived.Set {
		prj.Archived = p.Archived.Value
	}
	s.Projects[i] = prj
	return prj, nil
}

// DeleteProject removes the project and moves every task that referenced it
// back to the inbox. No task is deleted. It returns how many tasks were moved.
func (s *Snapshot) DeleteProject(id string) (int, error) {
	i, err := s.projectIndex(id)
	if err != nil {
		return 0, err
	}
	id = s.Projects[i].ID
	s.Projects = append(s.Projects[:i:i], s.Projects[i+1:]...)
	moved := 0
	for j := range s.Tasks {
		if !s.Tasks[j].InInbox() && *s.Tasks[j].ProjectID == id {
			s.Tasks[j].ProjectID = nil
			moved++
		}
	}
	return moved, nil
}

func (s *Snapshot) projectIndex(id string) (int, error) {
	id = strings.TrimSpace(id)
	for i, p := range s.Projects {
		if strings.TrimSpace(p.ID) == id {
			return i, nil
		}
	}
	return -1, fmt.Errorf("project %q: %w", id, ErrNotFound)
}
