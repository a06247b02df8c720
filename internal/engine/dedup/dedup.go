package dedup

import (
	"fmt"
	"time"

	"github.com/crimson-sun/emoshop/internal/model"
)

// Config controls deduplication behavior.
type Config struct {
	Window time.Duration // grouping window (default 30s)
}

// Deduplicator collapses repeated mood events for the same emotion within a
// time window. A shopper holding one expression for a minute produces one
// event with a count, not twelve.
type Deduplicator struct {
	cfg Config
}

// New creates a Deduplicator with the given config.
func New(cfg Config) *Deduplicator {
	if cfg.Window <= 0 {
		cfg.Window = 30 * time.Second
	}
	return &Deduplicator{cfg: cfg}
}

// Window returns the configured grouping window.
func (d *Deduplicator) Window() time.Duration { return d.cfg.Window }

// group accumulates events with the same emotion.
type group struct {
	latest  model.MoodEvent
	count   int
	firstTS time.Time
}

// DeduplicateBatch collapses events with the same Emotion whose timestamps
// fall within Window of the group's first event. Groups are returned in
// first-occurrence order; each carries the most recent event's payload,
// Count, and a Summary noting the repetition.
func (d *Deduplicator) DeduplicateBatch(events []model.MoodEvent) []model.MoodEvent {
	if len(events) == 0 {
		return nil
	}

	var order []*group
	open := make(map[model.Emotion]*group)

	for _, e := range events {
		g, exists := open[e.Emotion]
		if exists && e.Timestamp.Sub(g.firstTS) <= d.cfg.Window {
			g.count++
			if !e.Timestamp.Before(g.latest.Timestamp) {
				g.latest = e
			}
			continue
		}

		g = &group{latest: e, count: 1, firstTS: e.Timestamp}
		open[e.Emotion] = g
		order = append(order, g)
	}

	result := make([]model.MoodEvent, 0, len(order))
	for _, g := range order {
		e := g.latest
		if g.count > 1 {
			e.Count = g.count
			dur := g.latest.Timestamp.Sub(g.firstTS)
			e.Summary = fmt.Sprintf("%s (x%d in %s)", e.Summary, e.Count, formatDuration(dur))
		}
		result = append(result, e)
	}
	return result
}

// formatDuration produces a human-readable short duration string.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dm%ds", mins, secs)
}
