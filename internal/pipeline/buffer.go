package pipeline

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/crimson-sun/emoshop/internal/engine/dedup"
	"github.com/crimson-sun/emoshop/internal/metrics"
	"github.com/crimson-sun/emoshop/internal/model"
	"github.com/crimson-sun/emoshop/internal/output"
)

// batcher holds mood events for one dedup window so that a run of the same
// emotion reaches the sinks as one event carrying a match count.
type batcher struct {
	dedup  *dedup.Deduplicator
	out    output.Output
	window time.Duration
	limit  int // flush early at this many events; 0 disables

	mu     sync.Mutex
	events []model.MoodEvent
	seq    uint64 // identifies the open batch
	timer  *time.Timer
	due    chan struct{}
}

func newBatcher(d *dedup.Deduplicator, out output.Output, window time.Duration, limit int) *batcher {
	return &batcher{
		dedup:  d,
		out:    out,
		window: window,
		limit:  limit,
		due:    make(chan struct{}, 1),
	}
}

// add queues an event, opening a batch if none is open. It reports whether
// the batch reached its limit.
func (b *batcher) add(event model.MoodEvent) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.events = append(b.events, event)
	if len(b.events) == 1 {
		b.seq++
		seq := b.seq
		b.timer = time.AfterFunc(b.window, func() { b.expire(seq) })
	}
	return b.limit > 0 && len(b.events) >= b.limit
}

// expire signals due, unless the batch that armed the timer is already gone.
func (b *batcher) expire(seq uint64) {
	b.mu.Lock()
	open := b.seq == seq && len(b.events) > 0
	b.mu.Unlock()
	if !open {
		return
	}
	select {
	case b.due <- struct{}{}:
	default:
	}
}

func (b *batcher) pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

func (b *batcher) take() []model.MoodEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	events := b.events
	b.events = nil
	b.seq++
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	return events
}

// flush collapses the open batch and writes what remains. A failed write
// does not hold back the events after it.
func (b *batcher) flush(ctx context.Context) error {
	events := b.take()
	if len(events) == 0 {
		return nil
	}

	collapsed := b.dedup.DeduplicateBatch(events)
	if n := len(events) - len(collapsed); n > 0 {
		metrics.EventsEmitted.WithLabelValues("deduplicated").Add(float64(n))
	}
	var errs []error
	for _, e := range collapsed {
		if err := b.out.Write(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
