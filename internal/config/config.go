// Package config reads service settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/pepper-api/internal/imaging"
)

// Config holds everything resolved at startup.
type Config struct {
	Port            string
	ModelPath       string
	MetadataPath    string
	InputShape      []int64
	ONNXLibraryPath string
	AllowedOrigins  []string
	MaxUploadBytes  int64
	MaxImagePixels  int64
	LogLevel        logrus.Level
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Default returns the settings used when no environment overrides are set.
func Default() Config {
	return Config{
		Port:            "8080",
		ModelPath:       "models/model.onnx",
		MetadataPath:    "models/model_metadata.json",
		AllowedOrigins:  []string{"http://localhost:3000"},
		MaxUploadBytes:  10 << 20,
		MaxImagePixels:  imaging.DefaultMaxPixels,
		LogLevel:        logrus.InfoLevel,
		LogFormat:       "text",
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load applies environment overrides on top of Default. Malformed values are
// errors rather than silently ignored.
func Load() (Config, error) {
	cfg := Default()

	if v := env("PORT"); v != "" {
		cfg.Port = v
	}
	if v := env("MODEL_PATH"); v != "" {
		cfg.ModelPath = v
	}
	if v, ok := os.LookupEnv("METADATA_PATH"); ok {
		cfg.MetadataPath = strings.TrimSpace(v)
	}
	if v := env("INPUT_SHAPE"); v != "" {
		shape, err := ParseShape(v)
		if err != nil {
			return Config{}, fmt.Errorf("INPUT_SHAPE: %w", err)
		}
		cfg.InputShape = shape
	}
	cfg.ONNXLibraryPath = env("ONNXRUNTIME_LIB")
	if v := env("ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := env("MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("MAX_UPLOAD_BYTES: invalid value %q", v)
		}
		cfg.MaxUploadBytes = n
	}
	if v := env("MAX_IMAGE_PIXELS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("MAX_IMAGE_PIXELS: invalid value %q", v)
		}
		cfg.MaxImagePixels = n
	}
	if v := env("LOG_LEVEL"); v != "" {
		level, err := logrus.ParseLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("LOG_LEVEL: %w", err)
		}
		cfg.LogLevel = level
	}
	if v := env("LOG_FORMAT"); v != "" {
		v = strings.ToLower(v)
		if v != "text" && v != "json" {
			return Config{}, fmt.Errorf("LOG_FORMAT: want text or json, got %q", v)
		}
		cfg.LogFormat = v
	}
	if v := env("SHUTDOWN_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		cfg.ShutdownTimeout = d
	}

	return cfg, nil
}

// ConfigureLogging applies the level and format to the standard logrus logger.
func (c Config) ConfigureLogging() {
	logrus.SetLevel(c.LogLevel)
	if c.LogFormat == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}

// ParseShape parses a comma separated shape such as "1,256,256,3".
func ParseShape(s string) ([]int64, error) {
	parts := splitList(s)
	if len(parts) == 0 {
		return nil, fmt.Errorf("empty shape")
	}
	shape := make([]int64, 0, len(parts))
	for _, p := range parts {
		dim, err := strconv.ParseInt(p, 10, 64)
		if err != nil || dim <= 0 {
			return nil, fmt.Errorf("invalid dimension %q", p)
		}
		shape = append(shape, dim)
	}
	return shape, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
