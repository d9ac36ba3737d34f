package model

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	ort "github.com/yalue/onnxruntime_go"

	"github.com/Brownie44l1/pepper-api/internal/diagnosis"
	"github.com/Brownie44l1/pepper-api/internal/imaging"
)

// ErrInference is returned when the session fails or is fed or returns
// tensors of the wrong size.
var ErrInference = errors.New("inference failed")

// Config locates the model artifacts.
type Config struct {
	ModelPath    string
	MetadataPath string
	// InputShape overrides the metadata input shape when set.
	InputShape []int64
	// LibraryPath points onnxruntime_go at a specific onnxruntime shared
	// library. Empty uses the platform default.
	LibraryPath string
}

// Server holds a loaded ONNX session. It is built once at startup and shared
// read-only between requests; Classify serializes access to the session's
// tensors.
type Server struct {
	session      *ort.AdvancedSession
	Metadata     Metadata
	labels       []diagnosis.Label
	spec         imaging.Spec
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
	slot         chan struct{}
}

func NewServer(cfg Config) (*Server, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("model path required")
	}
	if _, err := os.Stat(cfg.ModelPath); err != nil {
		return nil, fmt.Errorf("model file: %w", err)
	}

	metadata, err := LoadMetadata(cfg.MetadataPath)
	if err != nil {
		return nil, err
	}
	if len(cfg.InputShape) > 0 {
		metadata.InputShape = cfg.InputShape
	}
	labels, spec, err := metadata.Resolve()
	if err != nil {
		return nil, fmt.Errorf("invalid metadata: %w", err)
	}

	if cfg.LibraryPath != "" {
		ort.SetSharedLibraryPath(cfg.LibraryPath)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.InputShape...))
	if err != nil {
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(metadata.OutputShape...))
	if err != nil {
		inputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(cfg.ModelPath,
		[]string{metadata.InputName}, []string{metadata.OutputName},
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		ort.DestroyEnvironment()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"model":        cfg.ModelPath,
		"input_shape":  metadata.InputShape,
		"output_shape": metadata.OutputShape,
		"layout":       spec.Layout,
		"classes":      metadata.Classes,
	}).Info("model loaded")

	return &Server{
		session:      session,
		Metadata:     metadata,
		labels:       labels,
		spec:         spec,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
		slot:         make(chan struct{}, 1),
	}, nil
}

// Labels returns the class order of the output vector.
func (s *Server) Labels() []diagnosis.Label {
	out := make([]diagnosis.Label, len(s.labels))
	copy(out, s.labels)
	return out
}

// InputSpec returns the image tensor layout the model expects.
func (s *Server) InputSpec() imaging.Spec {
	return s.spec
}

// Classify runs one forward pass and returns a copy of the output vector.
func (s *Server) Classify(ctx context.Context, input []float32) ([]float32, error) {
	in := s.inputTensor.GetData()
	if len(input) != len(in) {
		return nil, fmt.Errorf("%w: expected %d input values, got %d", ErrInference, len(in), len(input))
	}

	select {
	case s.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.slot }()

	copy(in, input)
	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInference, err)
	}

	outputData := s.outputTensor.GetData()
	if len(outputData) != len(s.labels) {
		return nil, fmt.Errorf("%w: model returned %d values for %d classes", ErrInference, len(outputData), len(s.labels))
	}
	probs := make([]float32, len(outputData))
	copy(probs, outputData)
	return probs, nil
}

func (s *Server) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
	ort.DestroyEnvironment()
}
