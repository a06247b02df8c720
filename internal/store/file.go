package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/goccy/go-json"
)

// File is a Store that keeps every key in one JSON document on disk. Each Put
// rewrites the document through a temp file and rename.
type File struct {
	mu     sync.Mutex
	path   string
	values map[string]json.RawMessage
}

// OpenFile loads path if it exists. A document that cannot be parsed is
// logged and replaced by an empty one on the next write.
func OpenFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("store: file backend requires a path")
	}
	f := &File{path: path, values: map[string]json.RawMessage{}}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		return f, nil
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &f.values); err != nil {
			slog.Warn("store: discarding corrupt document", "path", path, "error", err)
			f.values = map[string]json.RawMessage{}
		}
	}
	return f, nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

// Put stores value verbatim; it is written as raw JSON when valid and as a
// JSON string otherwise.
func (f *File) Put(_ context.Context, key string, value []byte) error {
	raw := json.RawMessage(append([]byte(nil), value...))
	if !json.Valid(raw) {
		quoted, err := json.Marshal(string(value))
		if err != nil {
			return fmt.Errorf("store: encode %s: %w", key, err)
		}
		raw = quoted
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	prev, had := f.values[key]
	f.values[key] = raw
	if err := f.flush(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}
	return nil
}

func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flush()
}

func (f *File) Close() error { return nil }

func (f *File) flush() error {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode document: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("store: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".emoshop-*.tmp")
	if err != nil {
		return fmt.Errorf("store: create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("store: write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("store: rename: %w", err)
	}
	return nil
}
