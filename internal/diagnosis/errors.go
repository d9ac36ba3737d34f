package diagnosis

import "errors"

var (
	// ErrUnknownLabel is returned when a class index or name falls outside
	// the label set. It is an internal consistency error.
	ErrUnknownLabel = errors.New("unknown class label")

	// ErrMalformedOutput is returned when a probability vector cannot be
	// reduced to a prediction.
	ErrMalformedOutput = errors.New("malformed model output")
)
