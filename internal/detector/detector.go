package detector

import (
	"context"
	"errors"
	"time"

	"github.com/crimson-sun/emoshop/internal/model"
)

// ErrNoFace is returned when a frame contains no detectable face. Callers
// treat it as a quiet status, not a failure.
var ErrNoFace = errors.New("no face detected")

// Frame is one captured image.
type Frame struct {
	Data        []byte
	ContentType string // e.g. "image/jpeg"
	CapturedAt  time.Time
}

// Detection is the expression distribution for one face, in class order.
type Detection struct {
	Scores []model.ClassScore
}

// Detector classifies facial expressions in a frame. Detections are returned
// in the order the backend found the faces.
type Detector interface {
	Detect(ctx context.Context, f Frame) ([]Detection, error)
	Close() error
}

// Camera produces frames on demand.
type Camera interface {
	Capture(ctx context.Context) (Frame, error)
	Close() error
}

// Dominant returns the class with the highest confidence. Ties go to the
// class that appears first. It returns false for an empty distribution.
func Dominant(scores []model.ClassScore) (model.ClassScore, bool) {
	if len(scores) == 0 {
		return model.ClassScore{}, false
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s.Confidence > best.Confidence {
			best = s
		}
	}
	return best, true
}

// Resolve turns the detections of one frame into a DetectedEmotion using the
// first face. It returns ErrNoFace when there are no usable detections.
func Resolve(dets []Detection, capturedAt time.Time) (model.DetectedEmotion, error) {
	if len(dets) == 0 {
		return model.DetectedEmotion{}, ErrNoFace
	}
	face := dets[0]
	best, ok := Dominant(face.Scores)
	if !ok {
		return model.DetectedEmotion{}, ErrNoFace
	}
	scores := make([]model.ClassScore, len(face.Scores))
	copy(scores, face.Scores)
	return model.DetectedEmotion{
		Label:      best.Label,
		Confidence: best.Confidence,
		Scores:     scores,
		CapturedAt: capturedAt,
	}, nil
}

// Analyze runs d on f and resolves the result.
func Analyze(ctx context.Context, d Detector, f Frame) (model.DetectedEmotion, error) {
	start := time.Now()
	dets, err := d.Detect(ctx, f)
	if err != nil {
		return model.DetectedEmotion{}, err
	}
	captured := f.CapturedAt
	if captured.IsZero() {
		captured = start
	}
	de, err := Resolve(dets, captured)
	if err != nil {
		return de, err
	}
	de.Latency = time.Since(start)
	return de, nil
}

// Ordered reorders a label->confidence map into canonical class order,
// filling absent classes with zero.
func Ordered(m map[model.Emotion]float64) []model.ClassScore {
	out := make([]model.ClassScore, len(model.Emotions))
	for i, e := range model.Emotions {
		out[i] = model.ClassScore{Label: e, Confidence: m[e]}
	}
	return out
}
