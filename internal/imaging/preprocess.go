// Package imaging turns uploaded image bytes into model input tensors.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrDecode is returned when the uploaded bytes are not a supported image.
var ErrDecode = errors.New("invalid image")

// Layout is the memory order of the model input tensor.
type Layout string

const (
	LayoutNCHW Layout = "NCHW"
	LayoutNHWC Layout = "NHWC"
)

const channels = 3

// Spec describes the tensor a model expects for a single RGB image.
type Spec struct {
	Width  int
	Height int
	Layout Layout
	// Scale multiplies each channel after normalizing it to [0,1]. Models
	// that take raw 8-bit pixels use 255.
	Scale float32
}

// Size is the number of float32 values in one tensor.
func (s Spec) Size() int {
	return channels * s.Width * s.Height
}

func (s Spec) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("invalid image size %dx%d", s.Width, s.Height)
	}
	if s.Layout != LayoutNCHW && s.Layout != LayoutNHWC {
		return fmt.Errorf("unsupported layout %q", s.Layout)
	}
	if s.Scale <= 0 {
		return fmt.Errorf("invalid pixel scale %v", s.Scale)
	}
	return nil
}

// DefaultMaxPixels bounds the decoded size of an upload. A 10 MiB compressed
// file can otherwise expand to several GB of pixels.
const DefaultMaxPixels = 40_000_000

// Decode reads an image in any registered format. The header is checked
// before decoding: images with no pixels or more than maxPixels are rejected.
// maxPixels <= 0 uses DefaultMaxPixels.
func Decode(r io.Reader, maxPixels int64) (image.Image, string, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %w", ErrDecode, err)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, "", fmt.Errorf("%w: empty image %dx%d", ErrDecode, cfg.Width, cfg.Height)
	}
	if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > maxPixels {
		return nil, "", fmt.Errorf("%w: %dx%d exceeds %d pixel limit", ErrDecode, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	// Frame bounds can differ from the header dimensions.
	if img.Bounds().Empty() {
		return nil, "", fmt.Errorf("%w: empty image bounds %v", ErrDecode, img.Bounds())
	}
	return img, format, nil
}

// Tensor resizes img to the spec and lays out its RGB channels.
func Tensor(img image.Image, spec Spec) []float32 {
	resized := resize.Resize(uint(spec.Width), uint(spec.Height), img, resize.Lanczos3)

	bounds := resized.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	plane := width * height

	data := make([]float32, channels*plane)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, _ := resized.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()

			rv := float32(r) / 65535.0 * spec.Scale
			gv := float32(g) / 65535.0 * spec.Scale
			bv := float32(b) / 65535.0 * spec.Scale

			pixel := y*width + x
			switch spec.Layout {
			case LayoutNHWC:
				data[pixel*channels] = rv
				data[pixel*channels+1] = gv
				data[pixel*channels+2] = bv
			default:
				data[pixel] = rv
				data[plane+pixel] = gv
				data[2*plane+pixel] = bv
			}
		}
	}

	return data
}
