package breaker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/crimson-sun/emoshop/internal/catalog"
	"github.com/crimson-sun/emoshop/internal/metrics"
)

// ErrOpen is returned while the breaker rejects calls. It is not temporary:
// a loader seeing it aborts instead of retrying into an open circuit.
var ErrOpen = errors.New("catalog source circuit open")

// Settings tunes the breaker. Zero values take defaults.
type Settings struct {
	Name          string
	MaxRequests   uint32        // trial requests allowed while half-open
	Interval      time.Duration // closed-state count reset window
	Timeout       time.Duration // open -> half-open delay
	FailThreshold uint32        // consecutive transient failures that trip it
}

// Source wraps a catalog.Source with a circuit breaker. Only transient
// failures count against the circuit; auth and shape errors pass through.
type Source struct {
	next catalog.Source
	cb   *gobreaker.CircuitBreaker[catalog.Page]
	name string
}

// Wrap returns next guarded by a breaker.
func Wrap(next catalog.Source, s Settings) *Source {
	if s.Name == "" {
		s.Name = "catalog"
	}
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Interval == 0 {
		s.Interval = time.Minute
	}
	if s.Timeout == 0 {
		s.Timeout = 30 * time.Second
	}
	if s.FailThreshold == 0 {
		s.FailThreshold = 5
	}

	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(0)

	threshold := s.FailThreshold
	cb := gobreaker.NewCircuitBreaker[catalog.Page](gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		IsSuccessful: func(err error) bool {
			return err == nil || !catalog.IsTemporary(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
	return &Source{next: next, cb: cb, name: s.Name}
}

// FetchPage forwards to the wrapped source unless the circuit is open, in
// which case it fails fast with ErrOpen.
func (s *Source) FetchPage(ctx context.Context, req catalog.PageRequest) (catalog.Page, error) {
	page, err := s.cb.Execute(func() (catalog.Page, error) {
		return s.next.FetchPage(ctx, req)
	})
	switch {
	case err == nil:
		metrics.CircuitBreakerRequests.WithLabelValues(s.name, "success").Inc()
		return page, nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(s.name, "rejected").Inc()
		return catalog.Page{}, fmt.Errorf("%w: %v", ErrOpen, err)
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(s.name, "failure").Inc()
		return catalog.Page{}, err
	}
}

// MaxPageSize forwards the wrapped source's page size cap.
func (s *Source) MaxPageSize() int { return catalog.MaxPageSize(s.next) }

// State reports the current breaker state as "closed", "half-open" or "open".
func (s *Source) State() string {
	return s.cb.State().String()
}

func stateValue(st gobreaker.State) float64 {
	switch st {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
