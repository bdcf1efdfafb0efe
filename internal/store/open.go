package store

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

type Options struct {
	Backend     string
	Root        string
	SQLitePath  string
	RedisURL    string
	RedisPrefix string
}

// OpenBackend builds the backend named by o.Backend. An empty name means file.
func OpenBackend(o Options) (Backend, error) {
	switch strings.ToLower(strings.TrimSpace(o.Backend)) {
	case "", BackendFile:
		return NewFileBackend(o.Root)
	case BackendSQLite:
		path := strings.TrimSpace(o.SQLitePath)
		if path == "" {
			path = filepath.Join(ExpandHome(o.Root), "tasker.db")
		}
		return OpenSQLite(path)
	case BackendRedis:
		return OpenRedis(strings.TrimSpace(o.RedisURL), o.RedisPrefix)
	case BackendMemory:
		return NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", ErrInvalid, o.Backend)
	}
}
