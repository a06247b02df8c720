package loop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/metrics"
	"github.com/crimson-sun/emoshop/internal/model"
)

const (
	DefaultInterval    = 5 * time.Second
	DefaultTickTimeout = 4 * time.Second
)

// CameraOpener opens a fresh camera on every Start.
type CameraOpener func() (detector.Camera, error)

// Options configures a Loop.
type Options struct {
	Interval    time.Duration
	TickTimeout time.Duration
	// OnResult receives every successful detection.
	OnResult func(model.DetectedEmotion)
	// OnError receives tick failures, including detector.ErrNoFace. The loop
	// keeps running regardless.
	OnError func(error)
	Logger  *slog.Logger
}

// Stats counts tick outcomes since the loop was created.
type Stats struct {
	Ticks   int64 `json:"ticks"`
	OK      int64 `json:"ok"`
	NoFace  int64 `json:"noFace"`
	Failed  int64 `json:"failed"`
	Dropped int64 `json:"dropped"`
}

// Loop runs periodic detection against a camera. A tick still running when
// the next one is due causes the new tick to be dropped.
type Loop struct {
	det  detector.Detector
	open CameraOpener
	opts Options
	log  *slog.Logger

	mu  sync.Mutex
	cur *run // nil when stopped

	stats struct{ ticks, ok, noFace, failed, dropped atomic.Int64 }
}

// run is one Start..Stop cycle. Stop waits only on its own run, so a
// Start issued while an older run drains gets fresh state.
type run struct {
	cancel context.CancelFunc
	cam    detector.Camera
	wg     sync.WaitGroup
	busy   atomic.Bool
}

// New creates a stopped Loop.
func New(det detector.Detector, open CameraOpener, opts Options) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.TickTimeout <= 0 || opts.TickTimeout > opts.Interval {
		opts.TickTimeout = min(DefaultTickTimeout, opts.Interval)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Loop{det: det, open: open, opts: opts, log: log.With("component", "detection-loop")}
}

// Start opens the camera and begins ticking. The first tick runs
// immediately. Calling Start on a running loop is a no-op.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cur != nil {
		return nil
	}
	cam, err := l.open()
	if err != nil {
		return fmt.Errorf("detection loop: open camera: %w", err)
	}
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	r := &run{cancel: cancel, cam: cam}
	l.cur = r

	r.wg.Add(1)
	go l.schedule(runCtx, r)
	l.log.Info("detection started", "interval", l.opts.Interval)
	return nil
}

// Stop cancels the schedule, waits for an in-flight tick, and closes the
// camera. Calling Stop on a stopped loop is a no-op.
func (l *Loop) Stop() error {
	l.mu.Lock()
	r := l.cur
	l.cur = nil
	l.mu.Unlock()
	if r == nil {
		return nil
	}

	r.cancel()
	r.wg.Wait()
	l.log.Info("detection stopped")
	return r.cam.Close()
}

// Running reports whether the loop is ticking.
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cur != nil
}

// Stats returns a snapshot of tick counters.
func (l *Loop) Stats() Stats {
	return Stats{
		Ticks:   l.stats.ticks.Load(),
		OK:      l.stats.ok.Load(),
		NoFace:  l.stats.noFace.Load(),
		Failed:  l.stats.failed.Load(),
		Dropped: l.stats.dropped.Load(),
	}
}

// Serve blocks until ctx is done and then stops the loop, so the
// supervisor owns shutdown. Detection itself is toggled with Start/Stop.
func (l *Loop) Serve(ctx context.Context) error {
	<-ctx.Done()
	if err := l.Stop(); err != nil {
		l.log.Warn("camera close failed", "error", err)
	}
	return nil
}

func (l *Loop) String() string { return "detection-loop" }

func (l *Loop) schedule(ctx context.Context, r *run) {
	defer r.wg.Done()
	ticker := time.NewTicker(l.opts.Interval)
	defer ticker.Stop()

	l.fire(ctx, r)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.fire(ctx, r)
		}
	}
}

// fire launches a tick unless one is already running.
func (l *Loop) fire(ctx context.Context, r *run) {
	l.stats.ticks.Add(1)
	if !r.busy.CompareAndSwap(false, true) {
		l.stats.dropped.Add(1)
		metrics.DetectionTicks.WithLabelValues("dropped").Inc()
		l.log.Debug("detection tick dropped, previous still running")
		return
	}
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		defer r.busy.Store(false)
		l.tick(ctx, r.cam)
	}()
}

func (l *Loop) tick(ctx context.Context, cam detector.Camera) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.TickTimeout)
	defer cancel()

	de, err := l.detectOnce(ctx, cam)
	switch {
	case err == nil:
		l.stats.ok.Add(1)
		metrics.RecordDetection(string(de.Label), de.Latency)
		if l.opts.OnResult != nil {
			l.opts.OnResult(de)
		}
	case errors.Is(err, context.Canceled):
		// Stopped mid-tick.
	case errors.Is(err, detector.ErrNoFace):
		l.stats.noFace.Add(1)
		metrics.DetectionTicks.WithLabelValues("no_face").Inc()
		if l.opts.OnError != nil {
			l.opts.OnError(err)
		}
	default:
		l.stats.failed.Add(1)
		metrics.DetectionTicks.WithLabelValues("failed").Inc()
		l.log.Warn("detection tick failed", "error", err)
		if l.opts.OnError != nil {
			l.opts.OnError(err)
		}
	}
}

func (l *Loop) detectOnce(ctx context.Context, cam detector.Camera) (model.DetectedEmotion, error) {
	frame, err := cam.Capture(ctx)
	if err != nil {
		return model.DetectedEmotion{}, fmt.Errorf("capture: %w", err)
	}
	return detector.Analyze(ctx, l.det, frame)
}
