package loader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/metrics"
	"github.com/crimson-sun/emoshop/internal/model"
)

const (
	DefaultPageSize    = 100
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 2 * time.Second
	DefaultLoadTimeout = 5 * time.Minute
)

// PageError reports a page that still failed after all retries. The whole
// load is aborted; no partial catalog is returned.
type PageError struct {
	Page     int // 1-based
	Attempts int
	Err      error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("catalog page %d failed after %d attempt(s): %v", e.Page, e.Attempts, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Result describes a completed load.
type Result struct {
	Pages    int `json:"pages"`
	Records  int `json:"records"`  // products returned
	Rejected int `json:"rejected"` // raw records skipped for not being objects
	// Suspicious is set when the source returned a single full page and no
	// continuation token. The catalog may be exactly that size, or an
	// upstream view may be truncating it.
	Suspicious bool          `json:"suspicious"`
	Duration   time.Duration `json:"durationNs"`
	Shared     bool          `json:"shared"` // result came from another caller's in-flight load
}

type retryAfter interface {
	RetryAfter() time.Duration
}

// Options configures a Loader. Zero values take defaults.
type Options struct {
	Provider   string        // metrics/log label
	PageSize   int           // records requested per page
	MaxRetries int           // retries per page after the first attempt; negative disables
	RetryDelay time.Duration // base for linear backoff: attempt * RetryDelay
	RatePerSec float64       // page request rate limit; 0 disables
	// LoadTimeout bounds one shared load, independent of any caller.
	LoadTimeout time.Duration
	Logger      *slog.Logger
}

// Loader fetches and normalizes the full catalog from a Source. Concurrent
// Load calls share one in-flight fetch.
type Loader struct {
	src     catalog.Source
	opts    Options
	limiter *rate.Limiter
	group   singleflight.Group
	log     *slog.Logger

	mu  sync.Mutex
	cur *flight // load currently accepting waiters

	sleep func(ctx context.Context, d time.Duration) error
}

// flight is one shared load. It runs on a context detached from the
// callers and is cancelled once every waiter has given up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

type loadResult struct {
	products []model.Product
	res      Result
}

// New creates a Loader over src.
func New(src catalog.Source, opts Options) *Loader {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	} else if opts.MaxRetries == 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.LoadTimeout <= 0 {
		opts.LoadTimeout = DefaultLoadTimeout
	}
	if opts.Provider == "" {
		opts.Provider = "unknown"
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if max := catalog.MaxPageSize(src); max > 0 && opts.PageSize > max {
		log.Debug("page size capped by source", "provider", opts.Provider, "requested", opts.PageSize, "max", max)
		opts.PageSize = max
	}
	l := &Loader{
		src:   src,
		opts:  opts,
		log:   log.With("provider", opts.Provider),
		sleep: sleepCtx,
	}
	if opts.RatePerSec > 0 {
		l.limiter = rate.NewLimiter(rate.Limit(opts.RatePerSec), 1)
	}
	return l
}

// Load fetches every page and returns the products in source order. A
// caller arriving while a load is running waits for that load and shares
// its result. Cancelling ctx only stops this caller from waiting; the shared
// load is cancelled when its last waiter leaves.
func (l *Loader) Load(ctx context.Context) ([]model.Product, Result, error) {
	l.mu.Lock()
	f := l.cur
	if f == nil {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.opts.LoadTimeout)
		f = &flight{ctx: fctx, cancel: cancel}
		l.cur = f
	}
	f.waiters++
	// DoChan only registers the call, so holding mu here keeps joining
	// and retiring a flight ordered.
	ch := l.group.DoChan("load", func() (any, error) {
		defer l.retire(f)
		products, res, err := l.load(f.ctx)
		return loadResult{products: products, res: res}, err
	})
	l.mu.Unlock()

	select {
	case <-ctx.Done():
		l.leave(f)
		return nil, Result{}, ctx.Err()
	case r := <-ch:
		l.leave(f)
		out, _ := r.Val.(loadResult)
		out.res.Shared = r.Shared
		if r.Err != nil {
			return nil, out.res, r.Err
		}
		return out.products, out.res, nil
	}
}

// leave drops one waiter. The last one to give up cancels the load and
// detaches it so later callers start a fresh one.
func (l *Loader) leave(f *flight) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f.waiters--
	if f.waiters > 0 || f.ctx.Err() != nil {
		return
	}
	f.cancel()
	if l.cur == f {
		l.cur = nil
		l.group.Forget("load")
	}
}

// retire runs when a flight's load returns, before its result is delivered.
func (l *Loader) retire(f *flight) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur == f {
		l.cur = nil
		l.group.Forget("load")
	}
	f.cancel()
}

func (l *Loader) load(ctx context.Context) ([]model.Product, Result, error) {
	start := time.Now()
	var (
		res      Result
		products []model.Product
		token    string
		lastSize int
	)

	for {
		res.Pages++
		page, err := l.fetchWithRetry(ctx, res.Pages, token)
		if err != nil {
			res.Duration = time.Since(start)
			metrics.CatalogLoads.WithLabelValues(loadLabel(err)).Inc()
			return nil, res, err
		}

		for i, rec := range page.Records {
			p, ok := Normalize(rec, res.Pages, i)
			if !ok {
				res.Rejected++
				continue
			}
			products = append(products, p)
		}
		lastSize = len(page.Records)
		l.log.Debug("catalog page loaded", "page", res.Pages, "records", lastSize, "total", len(products), "more", page.Next != "")

		if page.Next == "" {
			break
		}
		token = page.Next
	}

	res.Records = len(products)
	res.Duration = time.Since(start)
	if res.Pages == 1 && lastSize == l.opts.PageSize {
		res.Suspicious = true
		l.log.Warn("catalog returned exactly one full page with no continuation token; results may be truncated by an upstream view or limit",
			"records", lastSize, "page_size", l.opts.PageSize)
		metrics.CatalogLoads.WithLabelValues("suspicious").Inc()
	} else {
		metrics.CatalogLoads.WithLabelValues("ok").Inc()
	}
	if res.Rejected > 0 {
		metrics.CatalogRejected.Add(float64(res.Rejected))
		l.log.Warn("skipped malformed catalog records", "rejected", res.Rejected)
	}
	metrics.CatalogProducts.Set(float64(len(products)))
	l.log.Info("catalog loaded", "products", len(products), "pages", res.Pages, "duration", res.Duration)
	return products, res, nil
}

func (l *Loader) fetchWithRetry(ctx context.Context, pageNum int, token string) (catalog.Page, error) {
	maxAttempts := l.opts.MaxRetries + 1
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if l.limiter != nil {
			if err := l.limiter.Wait(ctx); err != nil {
				return catalog.Page{}, err
			}
		}

		t0 := time.Now()
		page, err := l.src.FetchPage(ctx, catalog.PageRequest{PageSize: l.opts.PageSize, Token: token})
		if err == nil {
			metrics.RecordPageFetch(l.opts.Provider, "ok", time.Since(t0))
			return page, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return catalog.Page{}, ctx.Err()
		}
		if !catalog.IsTemporary(err) {
			metrics.RecordPageFetch(l.opts.Provider, "error", time.Since(t0))
			if errors.Is(err, catalog.ErrNotConfigured) {
				return catalog.Page{}, err
			}
			return catalog.Page{}, &PageError{Page: pageNum, Attempts: attempt, Err: err}
		}
		if attempt == maxAttempts {
			metrics.RecordPageFetch(l.opts.Provider, "error", time.Since(t0))
			break
		}
		metrics.RecordPageFetch(l.opts.Provider, "retry", time.Since(t0))

		delay := time.Duration(attempt) * l.opts.RetryDelay
		var ra retryAfter
		if errors.As(err, &ra) && ra.RetryAfter() > delay {
			delay = ra.RetryAfter()
		}
		l.log.Warn("catalog page failed, retrying", "page", pageNum, "attempt", attempt, "max_retries", l.opts.MaxRetries, "delay", delay, "error", err)
		if err := l.sleep(ctx, delay); err != nil {
			return catalog.Page{}, err
		}
	}
	return catalog.Page{}, &PageError{Page: pageNum, Attempts: maxAttempts, Err: lastErr}
}

func loadLabel(err error) string {
	if errors.Is(err, catalog.ErrNotConfigured) {
		return "config_error"
	}
	return "error"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
