package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/emoshop/internal/metrics"
	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/output"
)

const (
	defaultBufferSize   = 64
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 64.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write drop the event instead of blocking when the
// buffer is full.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

// Async decouples detection from delivery via a buffered channel. A
// background goroutine drains it to the wrapped output; inner errors go to
// errFunc rather than back to the caller.
type Async struct {
	inner      output.Output
	ch         chan model.MoodEvent
	done       chan struct{}
	errFunc    func(error)
	bufSize    int
	dropOnFull bool

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

// New wraps inner. The drain goroutine starts immediately.
func New(inner output.Output, opts ...Option) *Async {
	a := &Async{
		inner:   inner,
		bufSize: defaultBufferSize,
		errFunc: func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan model.MoodEvent, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write enqueues the event. It blocks while the buffer is full unless
// WithDropOnFull was given or ctx ends. Writes after Close are dropped.
func (a *Async) Write(ctx context.Context, event model.MoodEvent) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		metrics.EventsEmitted.WithLabelValues("dropped").Inc()
		return nil
	}
	if a.dropOnFull {
		select {
		case a.ch <- event:
		default:
			metrics.EventsEmitted.WithLabelValues("dropped").Inc()
			slog.Warn("async output buffer full, dropping event", "emotion", event.Emotion)
		}
		return nil
	}
	select {
	case a.ch <- event:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, waits for the drain (with a timeout), then
// closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		close(a.ch)
		a.mu.Unlock()

		select {
		case <-a.done:
		case <-time.After(defaultDrainTimeout):
			slog.Warn("async output drain timed out")
		}
		err = a.inner.Close()
	})
	return err
}

func (a *Async) drain() {
	defer close(a.done)
	for event := range a.ch {
		if err := a.inner.Write(context.Background(), event); err != nil {
			metrics.EventsEmitted.WithLabelValues("error").Inc()
			a.errFunc(err)
			continue
		}
		metrics.EventsEmitted.WithLabelValues("sent").Inc()
	}
}
