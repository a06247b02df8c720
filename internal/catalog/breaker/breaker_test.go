package breaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crimson-sun/emoshop/internal/catalog"
)

type flaky struct {
	calls int
	err   error
}

func (f *flaky) FetchPage(context.Context, catalog.PageRequest) (catalog.Page, error) {
	f.calls++
	if f.err != nil {
		return catalog.Page{}, f.err
	}
	return catalog.Page{Next: "n"}, nil
}

type transient struct{}

func (transient) Error() string   { return "503" }
func (transient) Temporary() bool { return true }

type capped struct{ flaky }

func (capped) MaxPageSize() int { return 100 }

func TestForwardsMaxPageSize(t *testing.T) {
	if n := catalog.MaxPageSize(Wrap(&capped{}, Settings{Name: "test-cap"})); n != 100 {
		t.Fatalf("wrapped MaxPageSize = %d, want 100", n)
	}
	if n := catalog.MaxPageSize(Wrap(&flaky{}, Settings{Name: "test-nocap"})); n != 0 {
		t.Fatalf("uncapped MaxPageSize = %d, want 0", n)
	}
}

func TestPassThrough(t *testing.T) {
	src := &flaky{}
	b := Wrap(src, Settings{Name: "test-pass"})
	page, err := b.FetchPage(context.Background(), catalog.PageRequest{})
	if err != nil || page.Next != "n" {
		t.Fatalf("unexpected result: %+v, %v", page, err)
	}
	if b.State() != "closed" {
		t.Fatalf("state = %s", b.State())
	}
}

func TestTripsOnTransientFailures(t *testing.T) {
	src := &flaky{err: transient{}}
	b := Wrap(src, Settings{Name: "test-trip", FailThreshold: 2, Timeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := b.FetchPage(ctx, catalog.PageRequest{}); err == nil {
			t.Fatal("expected error")
		}
	}
	_, err := b.FetchPage(ctx, catalog.PageRequest{})
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
	if catalog.IsTemporary(err) {
		t.Fatal("open circuit should not be retried")
	}
	if src.calls != 2 {
		t.Fatalf("open circuit must not call the source, calls = %d", src.calls)
	}
	if b.State() != "open" {
		t.Fatalf("state = %s", b.State())
	}
}

func TestPermanentErrorsDoNotTrip(t *testing.T) {
	src := &flaky{err: errors.New("HTTP 401")}
	b := Wrap(src, Settings{Name: "test-perm", FailThreshold: 1})
	for i := 0; i < 3; i++ {
		b.FetchPage(context.Background(), catalog.PageRequest{})
	}
	if src.calls != 3 || b.State() != "closed" {
		t.Fatalf("calls = %d, state = %s", src.calls, b.State())
	}
}
