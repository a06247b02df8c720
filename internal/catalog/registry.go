package catalog

import (
	"fmt"
	"sort"
)

// Constructor creates a Source from its configuration. Constructors return
// a *ConfigError when required settings are absent.
type Constructor func(cfg SourceConfig) (Source, error)

var registry = map[string]Constructor{}

// Register adds a source constructor under the given provider name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Get returns the source constructor for the given provider name.
func Get(name string) (Constructor, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown catalog provider: %s", name)
	}
	return ctor, nil
}

// Open resolves the provider in cfg and constructs the source.
func Open(cfg SourceConfig) (Source, error) {
	ctor, err := Get(cfg.Provider)
	if err != nil {
		return nil, err
	}
	return ctor(cfg)
}

// Providers returns the names of all registered providers, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
