package diagnosis

// Prediction is the top class picked from a probability vector.
type Prediction struct {
	Label      Label
	Confidence float64
}

// Response is the body returned by the predict endpoints.
type Response struct {
	Class      Label    `json:"class"`
	Confidence float64  `json:"confidence"`
	Solution   []string `json:"solution"`
}

// Diagnose reduces a probability vector to a Response.
func Diagnose(probs []float32, labels []Label) (*Response, error) {
	pred, err := Top(probs, labels)
	if err != nil {
		return nil, err
	}
	solution, err := Advise(pred.Label, pred.Confidence)
	if err != nil {
		return nil, err
	}
	return &Response{
		Class:      pred.Label,
		Confidence: pred.Confidence,
		Solution:   solution,
	}, nil
}
