// Package config loads emoshop settings in three layers: built-in defaults,
// an optional YAML file (EMOSHOP_CONFIG, else ./emoshop.yaml), then EMOSHOP_*
// environment variables. EMOSHOP_CATALOG_API_KEY maps to catalog.api_key.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix         = "EMOSHOP_"
	ConfigPathEnvVar  = "EMOSHOP_CONFIG"
	DefaultConfigPath = "emoshop.yaml"
)

// Config holds all emoshop configuration.
type Config struct {
	LogLevel string `koanf:"log_level"`
	LogJSON  bool   `koanf:"log_json"`
	Locale   string `koanf:"locale"`

	Catalog  CatalogConfig  `koanf:"catalog"`
	Detector DetectorConfig `koanf:"detector"`
	Store    StoreConfig    `koanf:"store"`
	Server   ServerConfig   `koanf:"server"`
	Output   OutputConfig   `koanf:"output"`
}

// CatalogConfig selects and tunes the product source. Missing credentials
// are not a configuration error; the shop reports them at load time.
type CatalogConfig struct {
	Provider    string        `koanf:"provider"`
	Endpoint    string        `koanf:"endpoint"`
	APIKey      string        `koanf:"api_key"`
	BaseID      string        `koanf:"base_id"`
	Table       string        `koanf:"table"`
	Path        string        `koanf:"path"`
	Selector    string        `koanf:"selector"`
	PageSize    int           `koanf:"page_size"`
	MaxRetries  int           `koanf:"max_retries"`
	RetryDelay  time.Duration `koanf:"retry_delay"`
	RatePerSec  float64       `koanf:"rate_per_sec"`
	Timeout     time.Duration `koanf:"timeout"`
	LoadOnStart bool          `koanf:"load_on_start"`

	BreakerEnabled   bool          `koanf:"breaker_enabled"`
	BreakerThreshold uint32        `koanf:"breaker_threshold"`
	BreakerTimeout   time.Duration `koanf:"breaker_timeout"`
}

// DetectorConfig selects the emotion backend and the capture loop timing.
type DetectorConfig struct {
	Backend     string        `koanf:"backend"` // onnx, remote or none
	ModelPath   string        `koanf:"model_path"`
	LibPath     string        `koanf:"lib_path"`
	Endpoint    string        `koanf:"endpoint"`
	Timeout     time.Duration `koanf:"timeout"`
	Interval    time.Duration `koanf:"interval"`
	TickTimeout time.Duration `koanf:"tick_timeout"`
	CameraDir   string        `koanf:"camera_dir"`
}

// StoreConfig selects where the cart and settings persist.
type StoreConfig struct {
	Backend string `koanf:"backend"` // badger, file or memory
	Path    string `koanf:"path"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"` // requests per minute per IP
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// OutputConfig holds mood event sink settings.
type OutputConfig struct {
	Stdout      bool          `koanf:"stdout"`
	Pretty      bool          `koanf:"pretty"`
	Verbosity   string        `koanf:"verbosity"` // standard or minimal
	WebhookURL  string        `koanf:"webhook_url"`
	FilePath    string        `koanf:"file_path"`
	DedupWindow time.Duration `koanf:"dedup_window"`
	BufferSize  int           `koanf:"buffer_size"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		LogLevel: "info",
		Locale:   "en",
		Catalog: CatalogConfig{
			Provider:         "airtable",
			Table:            "productss",
			PageSize:         100,
			MaxRetries:       3,
			RetryDelay:       2 * time.Second,
			RatePerSec:       5,
			Timeout:          30 * time.Second,
			LoadOnStart:      true,
			BreakerEnabled:   true,
			BreakerThreshold: 5,
			BreakerTimeout:   30 * time.Second,
		},
		Detector: DetectorConfig{
			Backend:     "none",
			ModelPath:   "models/emotion-ferplus-8.onnx",
			Timeout:     10 * time.Second,
			Interval:    5 * time.Second,
			TickTimeout: 4 * time.Second,
		},
		Store: StoreConfig{
			Backend: "badger",
			Path:    "data/emoshop",
		},
		Server: ServerConfig{
			Addr:            ":8080",
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
			ShutdownTimeout: 10 * time.Second,
		},
		Output: OutputConfig{
			Stdout:      true,
			Verbosity:   "standard",
			DedupWindow: 30 * time.Second,
			BufferSize:  64,
		},
	}
}

// Load reads the layered configuration and validates it.
func Load() (*Config, error) {
	return LoadFile(findConfigFile())
}

// LoadFile is Load with an explicit YAML file; an empty path skips the
// file layer.
func LoadFile(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("config: load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("config: load %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("config: load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Server.CORSOrigins = splitList(cfg.Server.CORSOrigins)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var sections = []string{"catalog", "detector", "store", "server", "output"}

// envKey maps EMOSHOP_SECTION_SOME_KEY to section.some_key. Keys outside a
// known section stay top-level (EMOSHOP_LOG_LEVEL -> log_level).
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	for _, sec := range sections {
		if rest, ok := strings.CutPrefix(key, sec+"_"); ok {
			return sec + "." + rest
		}
	}
	return key
}

// splitList flattens comma-separated entries, which is how lists arrive
// from the environment.
func splitList(in []string) []string {
	var out []string
	for _, s := range in {
		for _, part := range strings.Split(s, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		return p
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

var (
	logLevels   = []string{"debug", "info", "warn", "warning", "error"}
	providers   = []string{"airtable", "htmltable", "ndjson"}
	backends    = []string{"onnx", "remote", "none"}
	stores      = []string{"badger", "file", "memory"}
	verbosities = []string{"standard", "minimal"}
)

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if !slices.Contains(logLevels, strings.ToLower(c.LogLevel)) {
		add("log_level: unknown level %q", c.LogLevel)
	}

	cat := c.Catalog
	if !slices.Contains(providers, cat.Provider) {
		add("catalog.provider: must be one of %s, got %q", strings.Join(providers, ", "), cat.Provider)
	}
	if cat.Provider == "ndjson" && cat.Path == "" {
		add("catalog.path: required for the ndjson provider")
	}
	if cat.Provider == "htmltable" && !absoluteURL(cat.Endpoint) {
		add("catalog.endpoint: htmltable needs an absolute URL, got %q", cat.Endpoint)
	}
	if cat.Endpoint != "" && !absoluteURL(cat.Endpoint) {
		add("catalog.endpoint: not an absolute URL: %q", cat.Endpoint)
	}
	if cat.PageSize < 1 || cat.PageSize > 1000 {
		add("catalog.page_size: must be 1-1000, got %d", cat.PageSize)
	}
	if cat.MaxRetries < 0 || cat.MaxRetries > 10 {
		add("catalog.max_retries: must be 0-10, got %d", cat.MaxRetries)
	}
	if cat.RetryDelay < 0 || cat.RatePerSec < 0 || cat.Timeout < 0 {
		add("catalog: retry_delay, rate_per_sec and timeout must not be negative")
	}

	det := c.Detector
	if !slices.Contains(backends, det.Backend) {
		add("detector.backend: must be one of %s, got %q", strings.Join(backends, ", "), det.Backend)
	}
	if det.Backend == "onnx" && det.ModelPath == "" {
		add("detector.model_path: required for the onnx backend")
	}
	if det.Backend == "remote" && !absoluteURL(det.Endpoint) {
		add("detector.endpoint: remote backend needs an absolute URL, got %q", det.Endpoint)
	}
	if det.Interval < 100*time.Millisecond {
		add("detector.interval: must be at least 100ms, got %v", det.Interval)
	}
	if det.TickTimeout < 0 {
		add("detector.tick_timeout: must not be negative")
	}

	if !slices.Contains(stores, c.Store.Backend) {
		add("store.backend: must be one of %s, got %q", strings.Join(stores, ", "), c.Store.Backend)
	} else if c.Store.Backend != "memory" && c.Store.Path == "" {
		add("store.path: required for the %s backend", c.Store.Backend)
	}

	if c.Server.Addr == "" {
		add("server.addr: required")
	}
	if c.Server.RateLimit < 0 {
		add("server.rate_limit: must not be negative")
	}

	if !slices.Contains(verbosities, c.Output.Verbosity) {
		add("output.verbosity: must be standard or minimal, got %q", c.Output.Verbosity)
	}
	if c.Output.WebhookURL != "" && !absoluteURL(c.Output.WebhookURL) {
		add("output.webhook_url: not an absolute URL: %q", c.Output.WebhookURL)
	}
	if c.Output.DedupWindow < 0 || c.Output.BufferSize < 0 {
		add("output: dedup_window and buffer_size must not be negative")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("config: %w", errors.Join(errs...))
}

func absoluteURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.IsAbs() && u.Host != ""
}
