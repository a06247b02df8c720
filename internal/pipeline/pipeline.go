package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crimson-sun/emoshop/internal/engine/dedup"
	"github.com/crimson-sun/emoshop/internal/metrics"
	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/output"
)

// Pipeline carries mood events from the detection side to the configured
// outputs. With a Deduplicator, events are held for the dedup window and
// repeated emotions are collapsed before delivery; without one, events are
// written straight through.
type Pipeline struct {
	out output.Output
	buf *batcher
}

// Option configures a Pipeline.
type Option func(*options)

type options struct {
	dedup   *dedup.Deduplicator
	maxSize int
}

// WithDedup buffers events for the deduplicator's window.
func WithDedup(d *dedup.Deduplicator) Option {
	return func(o *options) { o.dedup = d }
}

// WithMaxBuffer flushes early once n events are pending.
func WithMaxBuffer(n int) Option {
	return func(o *options) { o.maxSize = n }
}

// New creates a Pipeline writing to out.
func New(out output.Output, opts ...Option) *Pipeline {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	p := &Pipeline{out: out}
	if o.dedup != nil {
		p.buf = newBatcher(o.dedup, out, o.dedup.Window(), o.maxSize)
	}
	return p
}

// Publish hands an event to the pipeline.
func (p *Pipeline) Publish(ctx context.Context, event model.MoodEvent) error {
	if p.buf == nil {
		if err := p.out.Write(ctx, event); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
		return nil
	}
	if p.buf.add(event) {
		if err := p.buf.flush(ctx); err != nil {
			return fmt.Errorf("pipeline output: %w", err)
		}
	}
	return nil
}

// Serve flushes buffered events when their window elapses. It returns nil
// once ctx is done, after a final flush. Without dedup it just waits.
func (p *Pipeline) Serve(ctx context.Context) error {
	if p.buf == nil {
		<-ctx.Done()
		return nil
	}
	for {
		select {
		case <-ctx.Done():
			if err := p.buf.flush(context.WithoutCancel(ctx)); err != nil {
				slog.Warn("final mood event flush failed", "error", err)
			}
			return nil
		case <-p.buf.due:
			if err := p.buf.flush(ctx); err != nil {
				slog.Warn("mood event flush failed", "error", err)
				metrics.EventsEmitted.WithLabelValues("error").Inc()
			}
		}
	}
}

// String names the service for the supervisor.
func (p *Pipeline) String() string { return "mood-pipeline" }

// Close flushes anything pending and closes the outputs.
func (p *Pipeline) Close() error {
	if p.buf != nil {
		if err := p.buf.flush(context.Background()); err != nil {
			slog.Warn("mood event flush on close failed", "error", err)
		}
	}
	return p.out.Close()
}
