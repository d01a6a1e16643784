// Package storage provides the client's browser-like key/value storage: a
// string-to-string map that survives restarts (SQLite) or, when no storage
// environment exists, a no-op stand-in.
package storage

import "context"

// Storage is a persistent string map. Get reports ok=false for a missing key
// rather than an error. SetItems and Delete each touch all given keys in one
// atomic step.
type Storage interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	SetItems(ctx context.Context, items map[string]string) error
	Delete(ctx context.Context, keys ...string) error
	List(ctx context.Context) (map[string]string, error)
	Clear(ctx context.Context) error
}

// Noop is the storage used where no persistent environment exists. Every
// write is dropped and every read comes back empty.
type Noop struct{}

func (Noop) Get(context.Context, string) (string, bool, error) { return "", false, nil }
func (Noop) Set(context.Context, string, string) error { return nil }
func (Noop) SetItems(context.Context, map[string]string) error { return nil }
func (Noop) Delete(context.Context, ...string) error { return nil }
func (Noop) List(context.Context) (map[string]string, error) { return map[string]string{}, nil }
func (Noop) Clear(context.Context) error { return nil }

// IsNoop reports whether s is the no-op storage.
func IsNoop(s Storage) bool {
	switch s.(type) {
	case nil, Noop, *Noop:
		return true
	default:
		return false
	}
}
