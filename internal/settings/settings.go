// Package settings holds the shopper-editable catalog connection settings.
package settings

import (
	"context"
	"log/slog"
	"strings"

	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/store"
)

// Key is the store key holding the settings.
const Key = "settings"

// DefaultTable is the table name used when none is given.
const DefaultTable = "productss"

// Connection identifies the remote product table.
type Connection struct {
	BaseID    string `json:"baseId" validate:"max=64"`
	APIKey    string `json:"apiKey" validate:"max=256"`
	TableName string `json:"tableName" validate:"max=128"`
}

// Normalize trims whitespace and fills the default table name.
func (c Connection) Normalize() Connection {
	c.BaseID = strings.TrimSpace(c.BaseID)
	c.APIKey = strings.TrimSpace(c.APIKey)
	c.TableName = strings.TrimSpace(c.TableName)
	if c.TableName == "" {
		c.TableName = DefaultTable
	}
	return c
}

// Complete reports whether both credentials are present.
func (c Connection) Complete() bool {
	return c.BaseID != "" && c.APIKey != ""
}

// Apply overlays the non-empty fields of c onto a source config.
func (c Connection) Apply(cfg catalog.SourceConfig) catalog.SourceConfig {
	if c.BaseID != "" {
		cfg.BaseID = c.BaseID
	}
	if c.APIKey != "" {
		cfg.APIKey = c.APIKey
	}
	if c.TableName != "" {
		cfg.Table = c.TableName
	}
	return cfg
}

// Redacted returns a copy safe to show: the API key is masked.
func (c Connection) Redacted() Connection {
	if n := len(c.APIKey); n > 4 {
		c.APIKey = strings.Repeat("*", n-4) + c.APIKey[n-4:]
	} else if n > 0 {
		c.APIKey = "****"
	}
	return c
}

// Load reads the saved connection. Missing or unreadable settings yield the
// defaults.
func Load(ctx context.Context, s store.Store) Connection {
	var c Connection
	if s == nil {
		return c.Normalize()
	}
	if _, err := store.GetJSON(ctx, s, Key, &c); err != nil {
		slog.Warn("settings: ignoring unreadable settings", "error", err)
		c = Connection{}
	}
	return c.Normalize()
}

// Save writes c (normalized) to s.
func Save(ctx context.Context, s store.Store, c Connection) error {
	if s == nil {
		return nil
	}
	return store.PutJSON(ctx, s, Key, c.Normalize())
}
