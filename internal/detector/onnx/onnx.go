package onnx

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/crimson-sun/emoshop/internal/detector"
)

// ErrClosed is returned by Detect after Close.
var ErrClosed = errors.New("onnx detector closed")

// Detector classifies a face crop with a local FER+ ONNX model. The whole
// frame is treated as a single face; cropping is the camera's job.
type Detector struct {
	mu   sync.Mutex
	sess *session
}

// New loads the model at modelPath. libPath locates libonnxruntime; empty
// means next to the model.
func New(modelPath, libPath string) (*Detector, error) {
	sess, err := newSession(modelPath, libPath)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	return &Detector{sess: sess}, nil
}

// Detect converts the frame to the model's grayscale input and runs one
// inference. It returns ErrClosed after Close.
func (d *Detector) Detect(ctx context.Context, f detector.Frame) ([]detector.Detection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess == nil {
		return nil, ErrClosed
	}
	pixels, err := grayscale(f.Data, int(d.sess.width), int(d.sess.height))
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	logits, err := d.sess.infer(pixels)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}

	scores := toScores(logits)
	if len(scores) == 0 {
		return nil, detector.ErrNoFace
	}
	return []detector.Detection{{Scores: scores}}, nil
}

// Close releases ONNX Runtime resources.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.sess == nil {
		return nil
	}
	err := d.sess.close()
	d.sess = nil
	return err
}
