// Package shop holds the single shopper session: the loaded catalog, the
// current filter and sort, AI mode, the last detected emotion, the cart and
// the status line. Every operation goes through one mutex so HTTP handlers
// and the detection loop see a consistent state.
package shop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/crimson-sun/emoshop/internal/cart"
	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/catalog/breaker"
	"github.com/crimson-sun/emoshop/internal/catalog/loader"
	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/detector/loop"
	"github.com/crimson-sun/emoshop/internal/engine"
	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/settings"
	"github.com/crimson-sun/emoshop/internal/store"
)

var (
	ErrUnknownProduct = errors.New("shop: unknown product")
	ErrNoDetector     = errors.New("shop: emotion detection is disabled")
	ErrNoCamera       = errors.New("shop: no camera configured")
	ErrStaleLoad      = errors.New("shop: connection settings changed during catalog load")
)

// Publisher receives a mood event after each successful detection.
type Publisher interface {
	Publish(ctx context.Context, event model.MoodEvent) error
}

// Options wires the collaborators. Only Source is required for catalog
// loads; a nil Detector disables the camera endpoints.
type Options struct {
	Source  catalog.SourceConfig
	Loader  loader.Options
	Breaker *breaker.Settings // nil disables the circuit breaker
	Store   store.Store
	Engine  *engine.Engine // nil uses the default table and English collation

	Detector detector.Detector
	Camera   loop.CameraOpener
	Loop     loop.Options

	Events Publisher
	Logger *slog.Logger

	// OpenSource builds the catalog source; defaults to catalog.Open.
	OpenSource func(catalog.SourceConfig) (catalog.Source, error)
}

// ViewQuery selects the product view. A nil AIMode keeps the current mode.
type ViewQuery struct {
	Filter model.FilterState
	Sort   model.SortKey
	AIMode *bool
}

// Facets are the distinct filter values of the loaded catalog.
type Facets struct {
	Categories     []string       `json:"categories"`
	ArticleTypes   []string       `json:"articleTypes"`
	Colors         []string       `json:"colors"`
	CategoryCounts map[string]int `json:"categoryCounts"`
	Total          int            `json:"total"`
}

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Status     Status                 `json:"status"`
	Products   int                    `json:"products"`
	LoadedAt   time.Time              `json:"loadedAt"`
	LastLoad   loader.Result          `json:"lastLoad"`
	Filter     model.FilterState      `json:"filter"`
	Sort       model.SortKey          `json:"sort,omitempty"`
	AIMode     bool                   `json:"aiMode"`
	Emotion    *model.DetectedEmotion `json:"emotion,omitempty"`
	Camera     bool                   `json:"cameraActive"`
	Detection  bool                   `json:"detectionEnabled"`
	CartItems  int                    `json:"cartItems"`
	CartTotal  float64                `json:"cartTotal"`
	Configured bool                   `json:"configured"`
	Connection settings.Connection    `json:"connection"`
}

// Shop is the session controller.
type Shop struct {
	opts   Options
	engine *engine.Engine
	cart   *cart.Ledger
	loop   *loop.Loop
	log    *slog.Logger

	mu             sync.Mutex
	conn           settings.Connection
	loader         *loader.Loader
	loaderGen      uint64 // bumped whenever loader is dropped
	products       []model.Product
	loadedAt       time.Time
	lastLoad       loader.Result
	filter         model.FilterState
	sort           model.SortKey
	aiMode         bool
	emotion        *model.DetectedEmotion
	status         Status
	configReported bool
}

// New restores the cart and connection settings from opts.Store and builds
// the detection loop when a detector is configured.
func New(ctx context.Context, opts Options) *Shop {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Engine == nil {
		opts.Engine = engine.NewDefault("en")
	}
	if opts.OpenSource == nil {
		opts.OpenSource = catalog.Open
	}
	s := &Shop{
		opts:   opts,
		engine: opts.Engine,
		cart:   cart.Open(ctx, opts.Store, opts.Logger),
		log:    opts.Logger,
		conn:   settings.Load(ctx, opts.Store),
		aiMode: true,
	}
	if opts.Detector != nil && opts.Camera != nil {
		lo := opts.Loop
		lo.Logger = opts.Logger
		lo.OnResult = s.applyEmotion
		lo.OnError = s.detectionFailed
		s.loop = loop.New(opts.Detector, opts.Camera, lo)
	}
	s.status = newStatus(LevelInfo, "Welcome! Load the catalog to start shopping.")
	return s
}

// Cart exposes the ledger. It is safe for concurrent use on its own.
func (s *Shop) Cart() *cart.Ledger { return s.cart }

// Loop returns the detection loop, or nil when detection is disabled.
func (s *Shop) Loop() *loop.Loop { return s.loop }

// Engine returns the recommendation engine.
func (s *Shop) Engine() *engine.Engine { return s.engine }

// Refresh reloads the whole catalog. A missing-credential error is reported
// in the status line once until settings change; it leaves the previously
// loaded catalog in place.
func (s *Shop) Refresh(ctx context.Context) (loader.Result, error) {
	l, gen, err := s.currentLoader()
	if err != nil {
		return loader.Result{}, s.loadFailed(err)
	}

	connecting := newStatus(LevelInfo, "Connecting to the catalog and loading all products...")
	s.mu.Lock()
	prev := s.status
	s.status = connecting
	s.mu.Unlock()

	products, res, err := l.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.loaderGen {
		s.log.Info("discarding catalog loaded with superseded settings", "records", res.Records, "error", err)
		return res, ErrStaleLoad
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			if s.status == connecting {
				s.status = prev
			}
			return res, err
		}
		return res, s.loadFailedLocked(err)
	}

	s.products = products
	s.lastLoad = res
	s.loadedAt = time.Now()
	s.configReported = false
	if res.Suspicious {
		s.status = newStatus(LevelWarning, fmt.Sprintf(
			"Loaded %d products (exactly one full page; the source view may be limiting results).", res.Records))
	} else {
		s.status = newStatus(LevelSuccess, fmt.Sprintf("Loaded all %d products.", res.Records))
	}
	return res, nil
}

func (s *Shop) currentLoader() (*loader.Loader, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loader != nil {
		return s.loader, s.loaderGen, nil
	}

	cfg := s.conn.Apply(s.opts.Source)
	src, err := s.opts.OpenSource(cfg)
	if err != nil {
		return nil, 0, err
	}
	if s.opts.Breaker != nil {
		bs := *s.opts.Breaker
		if bs.Name == "" {
			bs.Name = cfg.Provider
		}
		src = breaker.Wrap(src, bs)
	}
	lo := s.opts.Loader
	lo.Provider = cfg.Provider
	lo.Logger = s.log
	s.loader = loader.New(src, lo)
	return s.loader, s.loaderGen, nil
}

func (s *Shop) loadFailed(err error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadFailedLocked(err)
}

func (s *Shop) loadFailedLocked(err error) error {
	if errors.Is(err, catalog.ErrNotConfigured) {
		if !s.configReported {
			s.configReported = true
			s.status = newStatus(LevelWarning, "Please configure the catalog credentials in settings.")
			s.log.Warn("catalog not configured", "error", err)
		}
		return err
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	s.status = newStatus(LevelError, "Failed to load products. Check the catalog configuration.")
	s.log.Error("catalog load failed", "error", err)
	return err
}

// Products records q as the current view and returns it. Scoring applies
// only while AI mode is on and an emotion has been detected.
func (s *Shop) Products(q ViewQuery) engine.Result {
	s.mu.Lock()
	s.filter = q.Filter
	s.sort = q.Sort
	if q.AIMode != nil {
		s.aiMode = *q.AIMode
	}
	products, emotion, ai := s.products, s.emotion, s.aiMode
	s.mu.Unlock()

	return s.engine.Run(products, engine.Query{
		Filter:  q.Filter,
		Sort:    q.Sort,
		AIMode:  ai,
		Emotion: emotion,
	})
}

// Product looks up a loaded product by ID.
func (s *Shop) Product(id string) (model.Product, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.findLocked(id)
}

func (s *Shop) findLocked(id string) (model.Product, bool) {
	for _, p := range s.products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}

// Facets lists the distinct categories, article types and colors, skipping
// the placeholder values the normalizer fills in.
func (s *Shop) Facets() Facets {
	s.mu.Lock()
	products := s.products
	s.mu.Unlock()

	f := Facets{CategoryCounts: map[string]int{}, Total: len(products)}
	cats, arts, cols := map[string]bool{}, map[string]bool{}, map[string]bool{}
	for _, p := range products {
		if p.Category != "" && p.Category != loader.DefaultCategory {
			cats[p.Category] = true
			f.CategoryCounts[p.Category]++
		}
		if p.ArticleType != "" {
			arts[p.ArticleType] = true
		}
		if p.Color != "" && p.Color != loader.DefaultColor {
			cols[p.Color] = true
		}
	}
	f.Categories = sortedKeys(cats)
	f.ArticleTypes = sortedKeys(arts)
	f.Colors = sortedKeys(cols)
	return f
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// AddToCart adds one unit of a loaded product.
func (s *Shop) AddToCart(ctx context.Context, id string) (model.CartEntry, error) {
	p, ok := s.Product(id)
	if !ok {
		return model.CartEntry{}, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	entry := s.cart.Add(ctx, p)
	s.setStatus(LevelSuccess, fmt.Sprintf("Added %q to cart!", p.Name))
	return entry, nil
}

// Checkout places the simulated order.
func (s *Shop) Checkout(ctx context.Context) (cart.Receipt, error) {
	r, err := s.cart.Checkout(ctx)
	if err != nil {
		return r, err
	}
	s.setStatus(LevelSuccess, "Order placed successfully! Thank you for shopping.")
	return r, nil
}

// Settings returns the connection settings with the API key masked.
func (s *Shop) Settings() settings.Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Redacted()
}

// UpdateSettings saves new connection settings and drops the cached loader
// so the next Refresh uses them.
func (s *Shop) UpdateSettings(ctx context.Context, c settings.Connection) error {
	c = c.Normalize()
	if err := settings.Save(ctx, s.opts.Store, c); err != nil {
		return fmt.Errorf("shop: save settings: %w", err)
	}
	s.mu.Lock()
	s.conn = c
	s.loader = nil
	s.loaderGen++
	s.configReported = false
	s.status = newStatus(LevelInfo, "Settings saved.")
	s.mu.Unlock()
	return nil
}

// Snapshot copies the session state.
func (s *Shop) Snapshot() Snapshot {
	s.mu.Lock()
	snap := Snapshot{
		Status:     s.status,
		Products:   len(s.products),
		LoadedAt:   s.loadedAt,
		LastLoad:   s.lastLoad,
		Filter:     s.filter,
		Sort:       s.sort,
		AIMode:     s.aiMode,
		Emotion:    copyEmotion(s.emotion),
		Detection:  s.loop != nil,
		Connection: s.conn.Redacted(),
		Configured: s.configuredLocked(),
	}
	s.mu.Unlock()
	snap.Camera = s.loop != nil && s.loop.Running()
	snap.CartItems = s.cart.ItemCount()
	snap.CartTotal = s.cart.Total()
	return snap
}

// Status returns the current status line.
func (s *Shop) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// configuredLocked reports whether the current settings are enough to build
// a catalog source. Must be called with s.mu held.
func (s *Shop) configuredLocked() bool {
	if s.loader != nil {
		return true
	}
	_, err := s.opts.OpenSource(s.conn.Apply(s.opts.Source))
	return !errors.Is(err, catalog.ErrNotConfigured)
}

func (s *Shop) setStatus(level Level, msg string) {
	s.mu.Lock()
	s.status = newStatus(level, msg)
	s.mu.Unlock()
}

func copyEmotion(e *model.DetectedEmotion) *model.DetectedEmotion {
	if e == nil {
		return nil
	}
	c := *e
	c.Scores = slices.Clone(e.Scores)
	return &c
}

// Close stops the detection loop.
func (s *Shop) Close() error {
	if s.loop == nil {
		return nil
	}
	return s.loop.Stop()
}
