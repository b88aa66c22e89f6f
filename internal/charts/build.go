// Package charts turns canonical series into chart-ready datasets and renders
// them as Mermaid text, PNG images or an HTML page.
package charts

import (
	"dashmetrics/internal/series"
)

// Build styles a series as the single dataset of a chart.
func Build(s series.Series, cfg Config, theme Theme) series.ChartData {
	p := theme.Palette()
	color := p.DatasetColor(cfg.ID)
	points := s.Points()

	ds := series.Dataset{
		Label:       cfg.Title,
		Data:        points,
		BorderColor: color,
	}
	if cfg.Type == "bar" {
		ds.BorderWidth = 1
		ds.BackgroundColor = make([]string, len(points))
		for i, v := range points {
			ds.BackgroundColor[i] = RGBA(p.BarColor(v, cfg.Unit, 0), 0.7)
		}
	} else {
		ds.BorderWidth = 3
		ds.Tension = 0.4
		ds.Fill = true
		ds.PointRadius = 4
		ds.BackgroundColor = []string{RGBA(color, 0.1)}
	}

	return series.ChartData{Labels: s.Labels(), Datasets: []series.Dataset{ds}}
}
