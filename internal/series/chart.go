package series

// ChartData is the chart-ready structure consumed by the renderers:
// a shared label axis and one or more styled datasets.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Dataset is one plotted series with its styling.
type Dataset struct {
	Type            string    `json:"type,omitempty"`
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor,omitempty"`
	BorderColor     string    `json:"borderColor,omitempty"`
	BorderWidth     int       `json:"borderWidth,omitempty"`
	Tension         float64   `json:"tension,omitempty"`
	Fill            bool      `json:"fill,omitempty"`
	PointRadius     int       `json:"pointRadius,omitempty"`
}

// Primary derives a Series from the labels and the first dataset.
// Missing data points are reported as zero so the cardinality follows the labels.
func (c ChartData) Primary() Series {
	b := NewBuilder(len(c.Labels))
	var data []float64
	if len(c.Datasets) > 0 {
		data = c.Datasets[0].Data
	}
	for i, l := range c.Labels {
		v := 0.0
		if i < len(data) {
			v = data[i]
		}
		b.Add(l, v)
	}
	return b.Series()
}
