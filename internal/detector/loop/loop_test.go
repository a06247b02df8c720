package loop

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/model"
)

type fakeCamera struct {
	closes atomic.Int32
}

func (c *fakeCamera) Capture(context.Context) (detector.Frame, error) {
	return detector.Frame{Data: []byte("frame"), CapturedAt: time.Now()}, nil
}

func (c *fakeCamera) Close() error {
	c.closes.Add(1)
	return nil
}

// fakeDetector sleeps for delay without watching ctx, like a stuck backend.
type fakeDetector struct {
	delay time.Duration
	err   error
	calls atomic.Int32
}

func (d *fakeDetector) Detect(context.Context, detector.Frame) ([]detector.Detection, error) {
	d.calls.Add(1)
	time.Sleep(d.delay)
	if d.err != nil {
		return nil, d.err
	}
	return []detector.Detection{{Scores: []model.ClassScore{{Label: model.Happy, Confidence: 0.9}}}}, nil
}

func (d *fakeDetector) Close() error { return nil }

func opener(cam *fakeCamera, opens *atomic.Int32) CameraOpener {
	return func() (detector.Camera, error) {
		opens.Add(1)
		return cam, nil
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestStartDeliversResults(t *testing.T) {
	var mu sync.Mutex
	var got []model.DetectedEmotion
	cam := &fakeCamera{}
	var opens atomic.Int32
	l := New(&fakeDetector{}, opener(cam, &opens), Options{
		Interval: 20 * time.Millisecond,
		OnResult: func(de model.DetectedEmotion) {
			mu.Lock()
			got = append(got, de)
			mu.Unlock()
		},
	})

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { mu.Lock(); defer mu.Unlock(); return len(got) >= 2 })
	if err := l.Stop(); err != nil {
		t.Fatal(err)
	}

	mu.Lock()
	defer mu.Unlock()
	if got[0].Label != model.Happy {
		t.Fatalf("unexpected label %s", got[0].Label)
	}
}

func TestStartIsIdempotent(t *testing.T) {
	cam := &fakeCamera{}
	var opens atomic.Int32
	l := New(&fakeDetector{}, opener(cam, &opens), Options{Interval: time.Hour})

	l.Start(context.Background())
	l.Start(context.Background())
	defer l.Stop()

	if opens.Load() != 1 {
		t.Fatalf("camera opened %d times, want 1", opens.Load())
	}
	if !l.Running() {
		t.Fatal("expected running")
	}
}

func TestStopIsIdempotentAndClosesCamera(t *testing.T) {
	cam := &fakeCamera{}
	var opens atomic.Int32
	l := New(&fakeDetector{}, opener(cam, &opens), Options{Interval: time.Hour})

	if err := l.Stop(); err != nil {
		t.Fatalf("Stop before Start: %v", err)
	}
	l.Start(context.Background())
	l.Stop()
	l.Stop()

	if cam.closes.Load() != 1 {
		t.Fatalf("camera closed %d times, want 1", cam.closes.Load())
	}
	if l.Running() {
		t.Fatal("expected stopped")
	}
}

func TestStopWaitsForInFlightTick(t *testing.T) {
	det := &fakeDetector{delay: 80 * time.Millisecond}
	var finished atomic.Bool
	var opens atomic.Int32
	l := New(det, opener(&fakeCamera{}, &opens), Options{
		Interval: time.Hour,
		OnResult: func(model.DetectedEmotion) { finished.Store(true) },
		OnError:  func(error) { finished.Store(true) },
	})

	l.Start(context.Background())
	waitFor(t, func() bool { return det.calls.Load() == 1 })
	l.Stop()
	if !finished.Load() {
		t.Fatal("Stop returned before the in-flight tick finished")
	}
}

func TestOverlappingTicksDropped(t *testing.T) {
	det := &fakeDetector{delay: 70 * time.Millisecond}
	var opens atomic.Int32
	l := New(det, opener(&fakeCamera{}, &opens), Options{Interval: 20 * time.Millisecond})

	l.Start(context.Background())
	time.Sleep(150 * time.Millisecond)
	l.Stop()

	st := l.Stats()
	if st.Dropped == 0 {
		t.Fatalf("expected dropped ticks, got %+v", st)
	}
	if int64(det.calls.Load()) != st.Ticks-st.Dropped {
		t.Fatalf("detector calls %d != ticks %d - dropped %d", det.calls.Load(), st.Ticks, st.Dropped)
	}
}

func TestNoFaceReportedAndLoopContinues(t *testing.T) {
	det := &fakeDetector{err: detector.ErrNoFace}
	var errs atomic.Int32
	var opens atomic.Int32
	l := New(det, opener(&fakeCamera{}, &opens), Options{
		Interval: 10 * time.Millisecond,
		OnError: func(err error) {
			if errors.Is(err, detector.ErrNoFace) {
				errs.Add(1)
			}
		},
	})

	l.Start(context.Background())
	waitFor(t, func() bool { return errs.Load() >= 3 })
	l.Stop()

	if st := l.Stats(); st.NoFace < 3 || st.OK != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestOpenFailure(t *testing.T) {
	l := New(&fakeDetector{}, func() (detector.Camera, error) { return nil, errors.New("no camera") }, Options{})
	if err := l.Start(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if l.Running() {
		t.Fatal("loop should not be running")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	cam := &fakeCamera{}
	var opens atomic.Int32
	l := New(&fakeDetector{}, opener(cam, &opens), Options{Interval: time.Hour})
	l.Start(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Serve(ctx) }()
	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if l.Running() || cam.closes.Load() != 1 {
		t.Fatal("Serve should stop the loop on cancel")
	}
}

func TestTickTimeoutClampedToInterval(t *testing.T) {
	l := New(&fakeDetector{}, nil, Options{Interval: time.Second, TickTimeout: time.Minute})
	if l.opts.TickTimeout != time.Second {
		t.Fatalf("TickTimeout = %v", l.opts.TickTimeout)
	}
}

func TestRestartWhileStoppingDoesNotBlockStop(t *testing.T) {
	cam := &fakeCamera{}
	var opens atomic.Int32
	det := &fakeDetector{delay: 100 * time.Millisecond}
	l := New(det, opener(cam, &opens), Options{Interval: time.Hour})

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return det.calls.Load() == 1 })

	stopped := make(chan error, 1)
	go func() { stopped <- l.Stop() }()
	waitFor(t, func() bool { return !l.Running() })

	if err := l.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	defer l.Stop()

	select {
	case err := <-stopped:
		if err != nil {
			t.Fatalf("Stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on the restarted run")
	}

	// The new run's first tick is not dropped by the old run's busy tick.
	waitFor(t, func() bool { return det.calls.Load() == 2 })
	if got := l.Stats().Dropped; got != 0 {
		t.Fatalf("dropped = %d, want 0", got)
	}
	if !l.Running() {
		t.Fatal("restarted loop should be running")
	}
}
