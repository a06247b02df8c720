package multi

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/crimson-sun/emoshop/internal/model"
)

// recorder records calls for test assertions.
type recorder struct {
	name   string
	events []model.MoodEvent
	err    error // if set, Write and Close return this error
	closed *[]string
}

func (r *recorder) Write(_ context.Context, event model.MoodEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func (r *recorder) Close() error {
	if r.closed != nil {
		*r.closed = append(*r.closed, r.name)
	}
	return r.err
}

func testEvent(e model.Emotion) model.MoodEvent {
	return model.MoodEvent{Emotion: e, Timestamp: time.Now(), Summary: string(e)}
}

func TestWriteReachesEverySink(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	f := New(Sink{"stdout", a}, Sink{"file", nil}, Sink{"webhook", b})

	if err := f.Write(context.Background(), testEvent(model.Angry)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, r := range []*recorder{a, b} {
		if len(r.events) != 1 || r.events[0].Emotion != model.Angry {
			t.Errorf("sink %d: got %+v", i, r.events)
		}
	}
	if got := f.Names(); !slices.Equal(got, []string{"stdout", "webhook"}) {
		t.Fatalf("Names = %v", got)
	}
}

func TestFailingSinkIsNamedAndSkipsNothing(t *testing.T) {
	boom := errors.New("connection refused")
	a, b := &recorder{err: boom}, &recorder{}
	f := New(Sink{"webhook", a}, Sink{"stdout", b})

	err := f.Write(context.Background(), testEvent(model.Happy))
	if !errors.Is(err, boom) {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !strings.Contains(err.Error(), "webhook: ") {
		t.Fatalf("error should name the sink: %v", err)
	}
	if len(b.events) != 1 {
		t.Fatal("stdout should still receive the event")
	}
}

func TestWriteAfterCancelDeliversNothing(t *testing.T) {
	a := &recorder{}
	f := New(Sink{"stdout", a})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := f.Write(ctx, testEvent(model.Sad)); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(a.events) != 0 {
		t.Fatalf("got %d events after cancel", len(a.events))
	}
}

func TestCloseRunsInReverseOrder(t *testing.T) {
	var order []string
	boom := errors.New("close failed")
	a := &recorder{name: "stdout", closed: &order}
	b := &recorder{name: "file", err: boom, closed: &order}
	c := &recorder{name: "webhook", closed: &order}
	f := New(Sink{"stdout", a}, Sink{"file", b}, Sink{"webhook", c})

	if err := f.Close(); !errors.Is(err, boom) {
		t.Fatalf("expected joined error, got %v", err)
	}
	if !slices.Equal(order, []string{"webhook", "file", "stdout"}) {
		t.Fatalf("close order = %v", order)
	}
}
