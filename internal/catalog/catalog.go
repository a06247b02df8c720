package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Source defines the interface all product catalog providers implement.
type Source interface {
	// FetchPage returns one page of raw records. An empty Page.Next means
	// there are no further pages.
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
}

// PageSizeLimiter is implemented by sources that serve at most a fixed
// number of records per page regardless of the requested size.
type PageSizeLimiter interface {
	MaxPageSize() int
}

// MaxPageSize returns src's page size cap, or 0 when it has none.
func MaxPageSize(src Source) int {
	if l, ok := src.(PageSizeLimiter); ok {
		return l.MaxPageSize()
	}
	return 0
}

// PageRequest asks a source for one page.
type PageRequest struct {
	PageSize int
	Token    string // opaque continuation token; empty for the first page
}

// Page is one page of raw records plus the continuation token.
type Page struct {
	Records []model.RawRecord
	Next    string
}

// SourceConfig holds provider-specific connection settings.
type SourceConfig struct {
	Provider string
	APIKey   string
	Endpoint string
	BaseID   string
	Table    string
	Path     string
	Timeout  time.Duration
	Extra    map[string]string
}

// ErrNotConfigured marks missing credentials or settings.
var ErrNotConfigured = errors.New("catalog source not configured")

// ConfigError reports a missing or invalid source setting. It blocks a
// catalog load but is not fatal to the service.
type ConfigError struct {
	Provider string
	Field    string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s source: missing required setting %q", e.Provider, e.Field)
}

func (e *ConfigError) Unwrap() error { return ErrNotConfigured }

// TemporaryError is implemented by errors that are worth retrying.
type TemporaryError interface {
	Temporary() bool
}

// IsTemporary reports whether err (or anything it wraps) is a transient
// failure. Context cancellation is never temporary.
func IsTemporary(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	var t TemporaryError
	if errors.As(err, &t) {
		return t.Temporary()
	}
	return false
}
