package charts

import (
	"errors"
	"io"
	"strings"

	"dashmetrics/internal/series"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	pngWidth  = 800
	pngHeight = 400
)

// PNG renders a single chart to w.
func PNG(w io.Writer, s series.Series, cfg Config, theme Theme) error {
	if s.Len() == 0 {
		return errors.New("cannot render an empty series")
	}
	p := theme.Palette()
	labels, points := s.Labels(), s.Points()
	yRange := valueRange(points)
	background := chart.Style{FillColor: hexColor(p.Background)}
	canvas := chart.Style{FillColor: hexColor(p.Background)}
	font := chart.Style{FontColor: hexColor(p.Text)}

	if cfg.Type == "bar" {
		bars := make([]chart.Value, len(points))
		for i, v := range points {
			c := hexColor(p.BarColor(v, cfg.Unit, 0))
			bars[i] = chart.Value{
				Label: labels[i],
				Value: v,
				Style: chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1},
			}
		}
		bc := chart.BarChart{
			Title:      cfg.Title,
			TitleStyle: font,
			Width:      pngWidth,
			Height:     pngHeight,
			BarWidth:   max(10, pngWidth/(2*len(bars)+1)),
			Background: chart.Style{FillColor: background.FillColor, Padding: chart.Box{Top: 40}},
			Canvas:     canvas,
			XAxis:      font,
			YAxis:      chart.YAxis{Name: cfg.Unit, Style: font, Range: yRange},
			Bars:       bars,
		}
		return bc.Render(chart.PNG, w)
	}

	xs := make([]float64, len(points))
	ticks := make([]chart.Tick, len(points))
	for i := range points {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: labels[i]}
	}
	color := hexColor(p.DatasetColor(cfg.ID))
	xAxis := chart.XAxis{Ticks: ticks, Style: font}
	if len(points) == 1 {
		xAxis.Range = &chart.ContinuousRange{Min: -1, Max: 1}
	}

	ch := chart.Chart{
		Title:      cfg.Title,
		TitleStyle: font,
		Width:      pngWidth,
		Height:     pngHeight,
		Background: chart.Style{FillColor: background.FillColor, Padding: chart.Box{Top: 40, Left: 20, Right: 20, Bottom: 20}},
		Canvas:     canvas,
		XAxis:      xAxis,
		YAxis:      chart.YAxis{Name: cfg.Unit, Style: font, Range: yRange},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    cfg.Title,
				XValues: xs,
				YValues: points,
				Style: chart.Style{
					StrokeColor: color,
					StrokeWidth: 3,
					DotColor:    color,
					DotWidth:    4,
				},
			},
		},
	}
	ch.Elements = []chart.Renderable{chart.Legend(&ch)}
	return ch.Render(chart.PNG, w)
}

// valueRange pins the y axis so flat or all-zero series still render.
func valueRange(points []float64) *chart.ContinuousRange {
	lo, hi := 0.0, 0.0
	for _, v := range points {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	return &chart.ContinuousRange{Min: lo, Max: hi * 1.1}
}

func hexColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
