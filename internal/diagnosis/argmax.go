package diagnosis

import (
	"fmt"
	"math"
)

// Top returns the label with the highest probability. On ties the lowest
// index wins. probs[i] is the probability of labels[i].
func Top(probs []float32, labels []Label) (Prediction, error) {
	if len(probs) == 0 {
		return Prediction{}, fmt.Errorf("%w: empty probability vector", ErrMalformedOutput)
	}
	if len(probs) != len(labels) {
		return Prediction{}, fmt.Errorf("%w: got %d values for %d classes",
			ErrMalformedOutput, len(probs), len(labels))
	}

	maxIdx := 0
	maxVal := probs[0]
	for i, val := range probs {
		v := float64(val)
		if math.IsNaN(v) || v < 0 || v > 1 {
			return Prediction{}, fmt.Errorf("%w: probability %v at index %d", ErrMalformedOutput, val, i)
		}
		if val > maxVal {
			maxVal = val
			maxIdx = i
		}
	}

	label := labels[maxIdx]
	if !label.Valid() {
		return Prediction{}, fmt.Errorf("%w: index %d", ErrUnknownLabel, maxIdx)
	}

	return Prediction{Label: label, Confidence: float64(maxVal)}, nil
}
