package shop

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/crimson-sun/emoshop/internal/detector"
	"github.com/crimson-sun/emoshop/internal/engine"
	"github.com/crimson-sun/emoshop/internal/model"
)

const publishTimeout = 5 * time.Second

// StartCamera starts periodic detection. Calling it while running is a no-op.
func (s *Shop) StartCamera(ctx context.Context) error {
	if s.loop == nil {
		return ErrNoDetector
	}
	if s.loop.Running() {
		return nil
	}
	if err := s.loop.Start(ctx); err != nil {
		s.setStatus(LevelWarning, "Camera unavailable. Check the camera configuration.")
		return err
	}
	s.setStatus(LevelSuccess, "Camera active! Analyzing your emotions...")
	return nil
}

// StopCamera stops detection and forgets the last emotion, so the view
// falls back to the unscored catalog.
func (s *Shop) StopCamera() error {
	if s.loop == nil {
		return ErrNoDetector
	}
	err := s.loop.Stop()
	s.mu.Lock()
	s.emotion = nil
	s.status = newStatus(LevelInfo, "Camera stopped. Products showing all items.")
	s.mu.Unlock()
	return err
}

// Analyze runs one detection on frame, or on a fresh camera capture when
// frame is nil, and makes the result the current emotion.
func (s *Shop) Analyze(ctx context.Context, frame *detector.Frame) (model.DetectedEmotion, error) {
	if s.opts.Detector == nil {
		return model.DetectedEmotion{}, ErrNoDetector
	}
	var f detector.Frame
	if frame != nil {
		f = *frame
	} else {
		captured, err := s.capture(ctx)
		if err != nil {
			return model.DetectedEmotion{}, err
		}
		f = captured
	}

	de, err := detector.Analyze(ctx, s.opts.Detector, f)
	if err != nil {
		s.detectionFailed(err)
		return model.DetectedEmotion{}, err
	}
	s.applyEmotion(de)
	return de, nil
}

func (s *Shop) capture(ctx context.Context) (detector.Frame, error) {
	if s.opts.Camera == nil {
		return detector.Frame{}, ErrNoCamera
	}
	cam, err := s.opts.Camera()
	if err != nil {
		return detector.Frame{}, fmt.Errorf("shop: open camera: %w", err)
	}
	defer cam.Close()
	f, err := cam.Capture(ctx)
	if err != nil {
		return detector.Frame{}, fmt.Errorf("shop: capture: %w", err)
	}
	return f, nil
}

// Emotion returns the last detected emotion, or nil.
func (s *Shop) Emotion() *model.DetectedEmotion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copyEmotion(s.emotion)
}

// applyEmotion stores de and publishes a mood event describing what the
// emotion does to the current view.
func (s *Shop) applyEmotion(de model.DetectedEmotion) {
	s.mu.Lock()
	s.emotion = &de
	products, filter, sort := s.products, s.filter, s.sort
	s.status = newStatus(LevelSuccess, fmt.Sprintf("Detected %s (%.0f%% confidence).", de.Label, de.Confidence*100))
	s.mu.Unlock()

	if s.opts.Events == nil {
		return
	}
	res := s.engine.Run(products, engine.Query{Filter: filter, Sort: sort, AIMode: true, Emotion: &de})
	ev := model.MoodEvent{
		Emotion:    de.Label,
		Confidence: de.Confidence,
		Timestamp:  de.CapturedAt,
		Matches:    len(res.Items),
		Summary:    summary(de, len(res.Items)),
	}
	if len(res.Items) > 0 {
		ev.TopProduct = res.Items[0].Name
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	if err := s.opts.Events.Publish(ctx, ev); err != nil {
		s.log.Warn("mood event publish failed", "emotion", de.Label, "error", err)
	}
}

func summary(de model.DetectedEmotion, matches int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s mood at %.0f%% confidence", de.Label, de.Confidence*100)
	switch matches {
	case 0:
		b.WriteString(", no matching products")
	case 1:
		b.WriteString(", 1 matching product")
	default:
		fmt.Fprintf(&b, ", %d matching products", matches)
	}
	return b.String()
}

// detectionFailed reports a failed tick in the status line. The previous
// emotion is kept.
func (s *Shop) detectionFailed(err error) {
	if errors.Is(err, detector.ErrNoFace) {
		s.setStatus(LevelInfo, "No face detected.")
		return
	}
	s.setStatus(LevelWarning, "Emotion detection failed. Retrying on the next tick.")
}
