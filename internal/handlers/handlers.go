package handlers

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Brownie44l1/pepper-api/internal/diagnosis"
	"github.com/Brownie44l1/pepper-api/internal/imaging"
)

const pingMessage = "Hello, I am alive"

// Classifier is the inference side of a prediction. *model.Server
// implements it.
type Classifier interface {
	Classify(ctx context.Context, input []float32) ([]float32, error)
	Labels() []diagnosis.Label
	InputSpec() imaging.Spec
}

type Handler struct {
	classifier     Classifier
	labels         []diagnosis.Label
	spec           imaging.Spec
	maxUploadBytes int64
	maxImagePixels int64
}

// NewHandler wires a classifier to the HTTP layer. Non-positive limits fall
// back to 10 MiB uploads and imaging.DefaultMaxPixels.
func NewHandler(classifier Classifier, maxUploadBytes, maxImagePixels int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 10 << 20
	}
	if maxImagePixels <= 0 {
		maxImagePixels = imaging.DefaultMaxPixels
	}
	return &Handler{
		classifier:     classifier,
		labels:         classifier.Labels(),
		spec:           classifier.InputSpec(),
		maxUploadBytes: maxUploadBytes,
		maxImagePixels: maxImagePixels,
	}
}

type tensorRequest struct {
	Image []float32 `json:"image" binding:"required"`
}

func (h *Handler) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, pingMessage)
}

func (h *Handler) Health(c *gin.Context) {
	classes := make([]string, 0, len(h.labels))
	for _, l := range h.labels {
		classes = append(classes, l.String())
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"classes": classes,
		"input": gin.H{
			"width":  h.spec.Width,
			"height": h.spec.Height,
			"layout": h.spec.Layout,
		},
	})
}

// Predict diagnoses an uploaded leaf image. The file is read from the "file"
// form field, falling back to "image".
func (h *Handler) Predict(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)

	header, err := formImage(c)
	if err != nil {
		h.renderError(c, fmt.Errorf("%w: %w", imaging.ErrDecode, err))
		return
	}

	file, err := header.Open()
	if err != nil {
		h.renderError(c, fmt.Errorf("%w: %v", imaging.ErrDecode, err))
		return
	}
	defer file.Close()

	img, format, err := imaging.Decode(file, h.maxImagePixels)
	if err != nil {
		h.renderError(c, err)
		return
	}

	logger(c).WithFields(logrus.Fields{
		"filename": header.Filename,
		"bytes":    header.Size,
		"format":   format,
		"width":    img.Bounds().Dx(),
		"height":   img.Bounds().Dy(),
	}).Debug("image received")

	h.respond(c, imaging.Tensor(img, h.spec))
}

// PredictTensor diagnoses an already preprocessed input tensor.
func (h *Handler) PredictTensor(c *gin.Context) {
	var req tensorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON"})
		return
	}

	if expected := h.spec.Size(); len(req.Image) != expected {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Expected %d values, got %d", expected, len(req.Image)),
		})
		return
	}

	h.respond(c, req.Image)
}

func (h *Handler) respond(c *gin.Context, input []float32) {
	probs, err := h.classifier.Classify(c.Request.Context(), input)
	if err != nil {
		h.renderError(c, err)
		return
	}

	result, err := diagnosis.Diagnose(probs, h.labels)
	if err != nil {
		h.renderError(c, err)
		return
	}

	logger(c).WithFields(logrus.Fields{
		"class":      result.Class.String(),
		"confidence": result.Confidence,
	}).Info("prediction served")

	c.JSON(http.StatusOK, result)
}

func (h *Handler) renderError(c *gin.Context, err error) {
	status, message := classify(err)
	entry := logger(c).WithError(err)
	switch {
	case errors.Is(err, diagnosis.ErrUnknownLabel):
		entry.Error("model output outside the label set")
	case status >= http.StatusInternalServerError:
		entry.Error("prediction failed")
	default:
		entry.Warn("rejected request")
	}
	c.JSON(status, gin.H{"error": message})
}

func classify(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "Image too large"
	case errors.Is(err, imaging.ErrDecode):
		return http.StatusBadRequest, "Invalid image. Upload a JPEG, PNG, GIF, BMP, TIFF or WebP file in the 'file' field"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "Prediction cancelled"
	default:
		return http.StatusInternalServerError, "Prediction failed"
	}
}

func formImage(c *gin.Context) (*multipart.FileHeader, error) {
	header, err := c.FormFile("file")
	if err == nil {
		return header, nil
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return nil, err
	}
	if fallback, ferr := c.FormFile("image"); ferr == nil {
		return fallback, nil
	}
	return nil, fmt.Errorf("no image file provided: %w", err)
}
