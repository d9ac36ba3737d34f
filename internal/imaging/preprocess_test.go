package imaging

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"
)

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 0.01
}

func TestDecode(t *testing.T) {
	img, format, err := Decode(bytes.NewReader(solidPNG(t, 8, 6, color.White)), 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if format != "png" {
		t.Fatalf("expected png got %s", format)
	}
	if img.Bounds().Dx() != 8 || img.Bounds().Dy() != 6 {
		t.Fatalf("unexpected bounds %v", img.Bounds())
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, _, err := Decode(strings.NewReader("definitely not an image"), 0)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode got %v", err)
	}
}

// emptyGIF builds a GIF whose screen and only frame are w x h.
func emptyGIF(w, h byte) []byte {
	return []byte{
		'G', 'I', 'F', '8', '9', 'a',
		w, 0, h, 0, 0x80, 0, 0,
		0, 0, 0, 0xff, 0xff, 0xff,
		0x2c, 0, 0, 0, 0, w, 0, h, 0, 0,
		0x02, 0x01, 0x2c, 0x00,
		0x3b,
	}
}

func TestDecodeRejectsEmptyImages(t *testing.T) {
	tests := []struct {
		name string
		w, h byte
	}{
		{"0x0", 0, 0},
		{"1x0", 1, 0},
		{"0x1", 0, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Decode(bytes.NewReader(emptyGIF(tc.w, tc.h)), 0)
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("expected ErrDecode got %v", err)
			}
		})
	}
}

func TestDecodePixelLimit(t *testing.T) {
	data := solidPNG(t, 40, 30, color.White)

	if _, _, err := Decode(bytes.NewReader(data), 1200); err != nil {
		t.Fatalf("image at the limit rejected: %v", err)
	}
	_, _, err := Decode(bytes.NewReader(data), 1199)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode got %v", err)
	}
	if !strings.Contains(err.Error(), "pixel limit") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestTensorLayouts(t *testing.T) {
	red := color.RGBA{R: 255, A: 255}
	img, _, err := Decode(bytes.NewReader(solidPNG(t, 10, 10, red)), 0)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}

	t.Run("nchw", func(t *testing.T) {
		spec := Spec{Width: 4, Height: 4, Layout: LayoutNCHW, Scale: 1}
		data := Tensor(img, spec)
		if len(data) != spec.Size() {
			t.Fatalf("expected %d values got %d", spec.Size(), len(data))
		}
		for i, v := range data {
			want := float32(0)
			if i < 16 {
				want = 1
			}
			if !near(v, want) {
				t.Fatalf("index %d: expected %v got %v", i, want, v)
			}
		}
	})

	t.Run("nhwc", func(t *testing.T) {
		spec := Spec{Width: 3, Height: 2, Layout: LayoutNHWC, Scale: 255}
		data := Tensor(img, spec)
		if len(data) != spec.Size() {
			t.Fatalf("expected %d values got %d", spec.Size(), len(data))
		}
		for i, v := range data {
			want := float32(0)
			if i%3 == 0 {
				want = 255
			}
			if math.Abs(float64(v-want)) > 3 {
				t.Fatalf("index %d: expected %v got %v", i, want, v)
			}
		}
	})
}

func TestSpecValidate(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		ok   bool
	}{
		{"valid", Spec{Width: 256, Height: 256, Layout: LayoutNHWC, Scale: 255}, true},
		{"zero width", Spec{Height: 256, Layout: LayoutNCHW, Scale: 1}, false},
		{"bad layout", Spec{Width: 2, Height: 2, Layout: "CHW", Scale: 1}, false},
		{"zero scale", Spec{Width: 2, Height: 2, Layout: LayoutNCHW}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.spec.Validate()
			if tc.ok && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tc.ok && err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
