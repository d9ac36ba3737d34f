package diagnosis

import "fmt"

// ConfidenceThreshold is the confidence a prediction must strictly exceed
// before a diagnosis-specific advisory list is returned.
const ConfidenceThreshold = 0.70

var (
	notSureAdvice = []string{
		"I am not sure about the diagnosis.",
	}

	healthyAdvice = []string{
		"The plant is in perfect condition. Keep up regular care.",
	}

	quickWiltAdvice = []string{
		"Improve drainage in the soil to prevent waterlogging.",
		"Avoid excess watering, especially during the rainy season.",
		"Apply fungicides that target root rot if applicable.",
		"Remove any affected plants to prevent the spread of the disease.",
		"Ensure that the soil has a balanced pH level.",
	}

	slowWiltAdvice = []string{
		"Ensure proper watering, keeping the soil moist but not waterlogged.",
		"Avoid over-fertilization as it can lead to stress on the plant.",
		"Improve soil aeration by regularly tilling around the plant.",
		"Use organic mulches to help retain soil moisture.",
		"Regularly monitor the plant's root health.",
	}
)

// Advise selects the advisory list for a prediction. Confidence at or below
// ConfidenceThreshold yields the "not sure" list for any label. The returned
// slice is a copy and may be modified by the caller.
func Advise(label Label, confidence float64) ([]string, error) {
	if confidence <= ConfidenceThreshold {
		return clone(notSureAdvice), nil
	}

	switch label {
	case Healthy:
		return clone(healthyAdvice), nil
	case QuickWilt:
		return clone(quickWiltAdvice), nil
	case SlowWilt:
		return clone(slowWiltAdvice), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownLabel, label)
	}
}

func clone(items []string) []string {
	out := make([]string, len(items))
	copy(out, items)
	return out
}
