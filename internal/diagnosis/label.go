package diagnosis

import (
	"encoding/json"
	"fmt"
)

// Label is one of the diagnosis categories the classifier can output.
type Label int

const (
	Healthy Label = iota
	QuickWilt
	SlowWilt
)

var labelNames = [...]string{
	Healthy:   "Healthy",
	QuickWilt: "Quick_wilt",
	SlowWilt:  "Slow_wilt",
}

// DefaultLabels is the class order of the stock pepper model.
func DefaultLabels() []Label {
	return []Label{Healthy, QuickWilt, SlowWilt}
}

func (l Label) Valid() bool {
	return l >= 0 && int(l) < len(labelNames)
}

func (l Label) String() string {
	if !l.Valid() {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

// ParseLabel maps a model class name to a Label.
func ParseLabel(name string) (Label, error) {
	for i, n := range labelNames {
		if n == name {
			return Label(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownLabel, name)
}

// ParseLabels maps an ordered list of class names, preserving order.
func ParseLabels(names []string) ([]Label, error) {
	labels := make([]Label, 0, len(names))
	for _, name := range names {
		l, err := ParseLabel(name)
		if err != nil {
			return nil, err
		}
		labels = append(labels, l)
	}
	return labels, nil
}

func (l Label) MarshalJSON() ([]byte, error) {
	if !l.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownLabel, int(l))
	}
	return json.Marshal(labelNames[l])
}

func (l *Label) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	parsed, err := ParseLabel(name)
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}
