package onnx

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// session wraps a DynamicAdvancedSession for a single-image classifier with
// input [1, 1, H, W] and output [1, classes].
type session struct {
	sess       *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	height     int64
	width      int64
	classes    int64
}

// newSession loads the model and validates its tensor shapes. An empty
// libPath means libonnxruntime.so next to the model file.
func newSession(modelPath, libPath string) (*session, error) {
	if libPath == "" {
		libPath = filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	}
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}
	if len(inputs) != 1 {
		return nil, fmt.Errorf("onnx: expected 1 input, got %d", len(inputs))
	}
	in := inputs[0].Dimensions
	if len(in) != 4 || in[1] != 1 || in[2] <= 0 || in[3] <= 0 {
		return nil, fmt.Errorf("onnx: expected grayscale input [N,1,H,W], got %v", in)
	}
	if len(outputs) == 0 {
		return nil, fmt.Errorf("onnx: model has no outputs")
	}
	out := outputs[0].Dimensions
	if len(out) != 2 || out[1] != int64(len(ferPlusClasses)) {
		return nil, fmt.Errorf("onnx: expected output [N,%d], got %v", len(ferPlusClasses), out)
	}

	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	defer opts.Destroy()
	opts.SetIntraOpNumThreads(2)
	opts.SetInterOpNumThreads(1)

	s, err := ort.NewDynamicAdvancedSession(
		modelPath,
		[]string{inputs[0].Name},
		[]string{outputs[0].Name},
		opts,
	)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session: %w", err)
	}

	return &session{
		sess:       s,
		inputName:  inputs[0].Name,
		outputName: outputs[0].Name,
		height:     in[2],
		width:      in[3],
		classes:    out[1],
	}, nil
}

// infer runs one image through the model. pixels is a flat [H*W] slice.
// Returns the raw class logits.
func (s *session) infer(pixels []float32) ([]float32, error) {
	tIn, err := ort.NewTensor(ort.NewShape(1, 1, s.height, s.width), pixels)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, s.classes))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	if err := s.sess.Run([]ort.Value{tIn}, []ort.Value{tOut}); err != nil {
		return nil, fmt.Errorf("onnx: inference failed: %w", err)
	}

	// Copy data out before tensor is destroyed.
	src := tOut.GetData()
	logits := make([]float32, len(src))
	copy(logits, src)
	return logits, nil
}

func (s *session) close() error {
	return s.sess.Destroy()
}
