// Package store persists small JSON values (cart snapshot, connection
// settings) in a key/value store.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/goccy/go-json"
)

// ErrNotFound is returned by Get when the key has never been written.
var ErrNotFound = errors.New("store: key not found")

// Store is a byte-oriented key/value store.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Backend names accepted by Open.
const (
	BackendBadger = "badger"
	BackendFile   = "file"
	BackendMemory = "memory"
)

// Open creates the named backend rooted at path.
func Open(backend, path string) (Store, error) {
	var (
		s   Store
		err error
	)
	switch backend {
	case BackendBadger, "":
		s, err = openBadger(path)
	case BackendMemory:
		s, err = openBadger("")
	case BackendFile:
		s, err = openFile(path)
	default:
		err = fmt.Errorf("store: unknown backend %q", backend)
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openBadger(dir string) (Store, error) {
	b, err := OpenBadger(dir)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func openFile(path string) (Store, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// GetJSON reads key and decodes it into dest. found is false when the key is
// missing; a value that fails to decode is reported as an error and dest is
// left untouched.
func GetJSON(ctx context.Context, s Store, key string, dest any) (found bool, err error) {
	data, err := s.Get(ctx, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return true, fmt.Errorf("store: decode %s: %w", key, err)
	}
	return true, nil
}

// PutJSON encodes v and writes it under key.
func PutJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}
