package dashboard

import (
	"context"
	"time"

	"dashmetrics/internal/charts"
	"dashmetrics/internal/insights"
	"dashmetrics/internal/kpi"
	"dashmetrics/internal/normalize"
	"dashmetrics/internal/project"
	"dashmetrics/internal/series"

	"golang.org/x/sync/errgroup"
)

// State is the lifecycle of the selected category.
type State string

const (
	StateIdle     State = "idle"
	StateLoading  State = "loading"
	StateRendered State = "rendered"
	StateError    State = "error"
)

// Source tells where the data behind a view came from.
type Source string

const (
	SourceLive  Source = "live"
	SourceCache Source = "cache"
	SourceMock  Source = "mock"
)

// KPICount is the number of headline cards per category.
const KPICount = 4

// ChartView is one normalized chart of a category. Chart holds the backend
// object unchanged when it was already chart-ready and a series.ChartData
// built from Series otherwise.
type ChartView struct {
	Config     charts.Config     `json:"config"`
	Series     series.Series     `json:"series"`
	Chart      any               `json:"chart"`
	Shape      normalize.Shape   `json:"shape"`
	Diagnostic string            `json:"diagnostic,omitempty"`
	Summary    kpi.MetricSummary `json:"summary"`
}

// View is a snapshot of one category as rendered.
type View struct {
	Project      project.Project    `json:"project"`
	Category     string             `json:"category"`
	CategoryName string             `json:"category_name"`
	State        State              `json:"state"`
	Source       Source             `json:"source,omitempty"`
	Charts       []ChartView        `json:"charts"`
	KPIs         []kpi.KPI          `json:"kpis"`
	Insights     []insights.Insight `json:"insights"`
	Summary      insights.Summary   `json:"summary"`
	Err          string             `json:"error,omitempty"`
	UpdatedAt    time.Time          `json:"updated_at"`
	// Metrics has every sequence of a category-map payload, configured or not.
	Metrics      []normalize.Named  `json:"metrics,omitempty"`
	// Rows are the source rows of a row-array or wrapped payload.
	Rows         []map[string]any   `json:"-"`
}

// PageData converts the view into the HTML dashboard model.
func (v View) PageData(theme charts.Theme, notices []string) charts.PageData {
	pc := make([]charts.PageChart, len(v.Charts))
	for i, c := range v.Charts {
		pc[i] = charts.PageChart{Config: c.Config, Series: c.Series}
	}
	return charts.PageData{
		Title:       v.Project.Name,
		Subtitle:    v.CategoryName,
		Theme:       theme,
		KPIs:        v.KPIs,
		Charts:      pc,
		Insights:    v.Insights,
		Notices:     notices,
		GeneratedAt: v.UpdatedAt,
	}
}

// build normalizes every configured chart and formats the insights of one
// category concurrently.
func build(ctx context.Context, cfgs []charts.Config, theme charts.Theme, raw any, backend map[string]any) ([]ChartView, []insights.Insight, error) {
	views := make([]ChartView, len(cfgs))
	var list []insights.Insight

	g, ctx := errgroup.WithContext(ctx)
	for i, cfg := range cfgs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res := normalize.Normalize(raw, cfg.DataKey)
			var cd any = charts.Build(res.Series, cfg, theme)
			if res.Payload != nil {
				cd = res.Payload
			}
			views[i] = ChartView{
				Config:     cfg,
				Series:     res.Series,
				Chart:      cd,
				Shape:      res.Shape,
				Diagnostic: res.Diagnostic,
				Summary:    kpi.Summarize(cfg.DataKey, res.Series.Points()),
			}
			return nil
		})
	}
	g.Go(func() error {
		list = insights.Format(backend)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return views, list, nil
}

func kpis(views []ChartView) []kpi.KPI {
	n := min(KPICount, len(views))
	out := make([]kpi.KPI, 0, n)
	for _, c := range views[:n] {
		out = append(out, kpi.Compute(c.Config.Title, c.Config.DataKey, c.Config.Unit, c.Series.Points()))
	}
	return out
}
