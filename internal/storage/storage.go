// Package storage provides the durable key-value slots the client persists
// into: a directory of files, a SQLite table, or process memory.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned by Load when nothing is stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Backend is a durable key-value slot.
type Backend interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Clear(ctx context.Context, key string) error
}

// Kind names a backend implementation in configuration.
type Kind string

const (
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
	KindMemory Kind = "memory"
)

// Open builds the backend named by kind rooted at dir. The returned close
// function is never nil.
func Open(kind Kind, dir string) (Backend, func() error, error) {
	noop := func() error { return nil }
	switch Kind(strings.ToLower(strings.TrimSpace(string(kind)))) {
	case "", KindFile:
		f, err := NewFile(dir)
		if err != nil {
			return nil, noop, err
		}
		return f, noop, nil
	case KindSQLite:
		resolved, err := ExpandPath(dir)
		if err != nil {
			return nil, noop, fmt.Errorf("resolve state dir: %w", err)
		}
		if err := os.MkdirAll(resolved, 0o755); err != nil {
			return nil, noop, fmt.Errorf("create state dir: %w", err)
		}
		db, err := OpenSQLite(filepath.Join(resolved, "state.db"))
		if err != nil {
			return nil, noop, err
		}
		return db, db.Close, nil
	case KindMemory:
		return NewMemory(), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown storage backend %q", kind)
	}
}

// ExpandPath resolves a leading ~ and returns an absolute path.
func ExpandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}

var (
	_ Backend = (*File)(nil)
	_ Backend = (*SQLite)(nil)
	_ Backend = (*Memory)(nil)
)
