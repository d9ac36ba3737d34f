package config

import (
	"reflect"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MODEL_PATH", "INPUT_SHAPE", "ONNXRUNTIME_LIB",
		"ALLOWED_ORIGINS", "MAX_UPLOAD_BYTES", "MAX_IMAGE_PIXELS", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := Default()
	// METADATA_PATH may be set in the surrounding environment.
	cfg.MetadataPath = want.MetadataPath
	if !reflect.DeepEqual(cfg, want) {
		t.Fatalf("expected %+v got %+v", want, cfg)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"http://localhost:3000"}) {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("MODEL_PATH", "/srv/pepper.onnx")
	t.Setenv("METADATA_PATH", "")
	t.Setenv("INPUT_SHAPE", "1, 3, 224, 224")
	t.Setenv("ALLOWED_ORIGINS", "https://pepper.example.com, http://localhost:3000")
	t.Setenv("MAX_UPLOAD_BYTES", "2048")
	t.Setenv("MAX_IMAGE_PIXELS", "4000000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "JSON")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.ModelPath != "/srv/pepper.onnx" {
		t.Fatalf("unexpected port/model: %s %s", cfg.Port, cfg.ModelPath)
	}
	if cfg.MetadataPath != "" {
		t.Fatalf("expected metadata path cleared, got %q", cfg.MetadataPath)
	}
	if !reflect.DeepEqual(cfg.InputShape, []int64{1, 3, 224, 224}) {
		t.Fatalf("unexpected shape %v", cfg.InputShape)
	}
	if !reflect.DeepEqual(cfg.AllowedOrigins, []string{"https://pepper.example.com", "http://localhost:3000"}) {
		t.Fatalf("unexpected origins %v", cfg.AllowedOrigins)
	}
	if cfg.MaxUploadBytes != 2048 || cfg.LogLevel != logrus.DebugLevel || cfg.LogFormat != "json" {
		t.Fatalf("unexpected values %+v", cfg)
	}
	if cfg.MaxImagePixels != 4000000 {
		t.Fatalf("unexpected pixel limit %d", cfg.MaxImagePixels)
	}
	if cfg.ShutdownTimeout != 3*time.Second {
		t.Fatalf("unexpected shutdown timeout %v", cfg.ShutdownTimeout)
	}
}

func TestLoadRejectsMalformed(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"INPUT_SHAPE", "1,x,3"},
		{"MAX_UPLOAD_BYTES", "-5"},
		{"MAX_IMAGE_PIXELS", "0"},
		{"MAX_IMAGE_PIXELS", "lots"},
		{"LOG_LEVEL", "chatty"},
		{"LOG_FORMAT", "xml"},
		{"SHUTDOWN_TIMEOUT", "soon"},
	}
	for _, tc := range tests {
		t.Run(tc.key, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("expected error for %s=%q", tc.key, tc.value)
			}
		})
	}
}

func TestParseShape(t *testing.T) {
	if _, err := ParseShape(""); err == nil {
		t.Fatal("expected error for empty shape")
	}
	if _, err := ParseShape("1,0,3"); err == nil {
		t.Fatal("expected error for zero dimension")
	}
	got, err := ParseShape("1,256,256,3")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !reflect.DeepEqual(got, []int64{1, 256, 256, 3}) {
		t.Fatalf("unexpected shape %v", got)
	}
}
