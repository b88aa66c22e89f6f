package series

import (
	"encoding/json"
	"fmt"
	"slices"
)

// FallbackLabels are the placeholder periods shown when a payload has no usable shape.
var FallbackLabels = []string{"Jan", "Fev", "Mar", "Abr", "Mai", "Jun"}

// Series is an ordered sequence of labelled numeric points.
// It is immutable: constructors copy their input and accessors return copies.
type Series struct {
	labels []string
	points []float64
}

// New builds a Series from parallel label and point slices.
func New(labels []string, points []float64) (Series, error) {
	if len(labels) != len(points) {
		return Series{}, fmt.Errorf("series has %d labels but %d points", len(labels), len(points))
	}
	return Series{labels: slices.Clone(labels), points: slices.Clone(points)}, nil
}

// Fallback returns the six-period zero series.
func Fallback() Series {
	return Series{labels: slices.Clone(FallbackLabels), points: make([]float64, len(FallbackLabels))}
}

func (s Series) Len() int { return len(s.labels) }

func (s Series) Labels() []string { return slices.Clone(s.labels) }

func (s Series) Points() []float64 { return slices.Clone(s.points) }

// At returns the label and point at index i.
func (s Series) At(i int) (string, float64) { return s.labels[i], s.points[i] }

// Last returns the final point, or 0 for an empty series.
func (s Series) Last() float64 {
	if len(s.points) == 0 {
		return 0
	}
	return s.points[len(s.points)-1]
}

func (s Series) Equal(o Series) bool {
	return slices.Equal(s.labels, o.labels) && slices.Equal(s.points, o.points)
}

func (s Series) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Labels []string  `json:"labels"`
		Points []float64 `json:"points"`
	}{Labels: nonNil(s.labels), Points: nonNilPoints(s.points)})
}

func (s *Series) UnmarshalJSON(data []byte) error {
	var raw struct {
		Labels []string  `json:"labels"`
		Points []float64 `json:"points"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := New(raw.Labels, raw.Points)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Builder accumulates points in order.
type Builder struct {
	labels []string
	points []float64
}

func NewBuilder(capacity int) *Builder {
	return &Builder{labels: make([]string, 0, capacity), points: make([]float64, 0, capacity)}
}

func (b *Builder) Add(label string, point float64) {
	b.labels = append(b.labels, label)
	b.points = append(b.points, point)
}

func (b *Builder) Series() Series {
	return Series{labels: slices.Clone(b.labels), points: slices.Clone(b.points)}
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilPoints(v []float64) []float64 {
	if v == nil {
		return []float64{}
	}
	return v
}
