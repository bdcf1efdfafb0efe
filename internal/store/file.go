package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// FileBackend keeps each collection in <root>/<collection>.json.
type FileBackend struct {
	Root string
}

func NewFileBackend(root string) (*FileBackend, error) {
	root = ExpandHome(root)
	if root == "" {
		return nil, fmt.Errorf("%w: store root is required", ErrInvalid)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &FileBackend{Root: root}, nil
}

func (f *FileBackend) Path(c Collection) string {
	return filepath.Join(f.Root, string(c)+".json")
}

func (f *FileBackend) Read(_ context.Context, c Collection) ([]byte, error) {
	b, err := os.ReadFile(f.Path(c))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (f *FileBackend) Write(_ context.Context, c Collection, data []byte) error {
	return atomicWriteFile(f.Path(c), data, 0o644)
}

func (f *FileBackend) Close() error { return nil }
