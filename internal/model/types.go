package model

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/Brownie44l1/pepper-api/internal/diagnosis"
	"github.com/Brownie44l1/pepper-api/internal/imaging"
)

// Metadata describes the exported model. It is read from the JSON file
// written next to the .onnx artifact.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
	// Layout is "NCHW" or "NHWC". Inferred from InputShape when empty.
	Layout string `json:"layout"`
	// PixelScale defaults to 1, giving channel values in [0,1].
	PixelScale float32 `json:"pixel_scale"`
}

// DefaultMetadata matches the stock 256x256 Keras export of the pepper model.
func DefaultMetadata() Metadata {
	return Metadata{
		InputShape:  []int64{1, 256, 256, 3},
		OutputShape: []int64{1, 3},
		Classes:     []string{"Healthy", "Quick_wilt", "Slow_wilt"},
		InputName:   "input",
		OutputName:  "output",
		Layout:      string(imaging.LayoutNHWC),
		PixelScale:  255,
	}
}

// LoadMetadata reads path over DefaultMetadata. An empty path returns the
// defaults unchanged.
func LoadMetadata(path string) (Metadata, error) {
	meta := DefaultMetadata()
	if path == "" {
		return meta, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}

	var fromFile Metadata
	if err := json.Unmarshal(raw, &fromFile); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse metadata: %w", err)
	}

	if len(fromFile.InputShape) > 0 {
		meta.InputShape = fromFile.InputShape
		// Layout and scale defaults belong to the default shape.
		meta.Layout = ""
		meta.PixelScale = 1
	}
	if len(fromFile.OutputShape) > 0 {
		meta.OutputShape = fromFile.OutputShape
	}
	if len(fromFile.Classes) > 0 {
		meta.Classes = fromFile.Classes
	}
	if fromFile.InputName != "" {
		meta.InputName = fromFile.InputName
	}
	if fromFile.OutputName != "" {
		meta.OutputName = fromFile.OutputName
	}
	if fromFile.Layout != "" {
		meta.Layout = fromFile.Layout
	}
	if fromFile.PixelScale > 0 {
		meta.PixelScale = fromFile.PixelScale
	}
	return meta, nil
}

// Labels parses Classes into the closed label set.
func (m Metadata) Labels() ([]diagnosis.Label, error) {
	return diagnosis.ParseLabels(m.Classes)
}

// InputSpec derives the image tensor spec from InputShape and Layout.
func (m Metadata) InputSpec() (imaging.Spec, error) {
	if len(m.InputShape) != 4 || m.InputShape[0] != 1 {
		return imaging.Spec{}, fmt.Errorf("input shape %v: want [1,C,H,W] or [1,H,W,C]", m.InputShape)
	}

	layout := imaging.Layout(m.Layout)
	if layout == "" {
		switch {
		case m.InputShape[1] == 3:
			layout = imaging.LayoutNCHW
		case m.InputShape[3] == 3:
			layout = imaging.LayoutNHWC
		default:
			return imaging.Spec{}, fmt.Errorf("input shape %v: cannot infer layout", m.InputShape)
		}
	}

	var spec imaging.Spec
	switch layout {
	case imaging.LayoutNCHW:
		if m.InputShape[1] != 3 {
			return imaging.Spec{}, fmt.Errorf("input shape %v: NCHW needs 3 channels", m.InputShape)
		}
		spec = imaging.Spec{Height: int(m.InputShape[2]), Width: int(m.InputShape[3])}
	case imaging.LayoutNHWC:
		if m.InputShape[3] != 3 {
			return imaging.Spec{}, fmt.Errorf("input shape %v: NHWC needs 3 channels", m.InputShape)
		}
		spec = imaging.Spec{Height: int(m.InputShape[1]), Width: int(m.InputShape[2])}
	default:
		return imaging.Spec{}, fmt.Errorf("unsupported layout %q", m.Layout)
	}
	spec.Layout = layout
	spec.Scale = m.PixelScale
	if spec.Scale == 0 {
		spec.Scale = 1
	}

	return spec, spec.Validate()
}

// Validate checks the metadata is consistent with a single-image classifier
// over the label set.
func (m Metadata) Validate() error {
	_, _, err := m.Resolve()
	return err
}

// Resolve validates the metadata and returns the class order and input spec
// it describes.
func (m Metadata) Resolve() ([]diagnosis.Label, imaging.Spec, error) {
	labels, err := m.Labels()
	if err != nil {
		return nil, imaging.Spec{}, err
	}
	if len(labels) == 0 {
		return nil, imaging.Spec{}, fmt.Errorf("metadata lists no classes")
	}
	spec, err := m.InputSpec()
	if err != nil {
		return nil, imaging.Spec{}, err
	}
	if n := shapeSize(m.OutputShape); n != int64(len(labels)) {
		return nil, imaging.Spec{}, fmt.Errorf("output shape %v holds %d values for %d classes", m.OutputShape, n, len(labels))
	}
	if m.InputName == "" || m.OutputName == "" {
		return nil, imaging.Spec{}, fmt.Errorf("input and output tensor names are required")
	}
	return labels, spec, nil
}

func shapeSize(shape []int64) int64 {
	if len(shape) == 0 {
		return 0
	}
	n := int64(1)
	for _, dim := range shape {
		n *= dim
	}
	return n
}
