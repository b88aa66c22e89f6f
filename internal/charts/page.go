package charts

import (
	"bytes"
	_ "embed"
	"fmt"
	"html/template"
	"io"
	"sync"
	"time"

	"dashmetrics/internal/insights"
	"dashmetrics/internal/kpi"
	"dashmetrics/internal/series"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rs/zerolog/log"
)

//go:embed page.css
var pageCSS string

//go:embed page.html.tmpl
var pageTemplate string

// PageChart is one chart on the dashboard page.
type PageChart struct {
	Config Config
	Series series.Series
}

// PageData is everything shown on a rendered dashboard.
type PageData struct {
	Title       string
	Subtitle    string
	Theme       Theme
	KPIs        []kpi.KPI
	Charts      []PageChart
	Insights    []insights.Insight
	Notices     []string
	GeneratedAt time.Time
}

var (
	minifyOnce sync.Once
	minified   string
	tmpl       = template.Must(template.New("page").Parse(pageTemplate))
)

// stylesheet returns the page CSS minified by esbuild, or the raw CSS if minification fails.
func stylesheet() string {
	minifyOnce.Do(func() {
		res := esbuild.Transform(pageCSS, esbuild.TransformOptions{
			Loader:           esbuild.LoaderCSS,
			MinifyWhitespace: true,
			MinifySyntax:     true,
		})
		if len(res.Errors) > 0 {
			log.Warn().Str("error", res.Errors[0].Text).Msg("CSS minification failed, using raw stylesheet")
			minified = pageCSS
			return
		}
		minified = string(res.Code)
	})
	return minified
}

// Page writes a standalone HTML dashboard: KPI cards, insight cards and an
// embedded ECharts document with one chart per config.
func Page(w io.Writer, d PageData) error {
	var chartsHTML bytes.Buffer
	if len(d.Charts) > 0 {
		if err := renderECharts(&chartsHTML, d); err != nil {
			return fmt.Errorf("failed to render charts: %w", err)
		}
	}

	p := d.Theme.Palette()
	return tmpl.Execute(w, struct {
		PageData
		CSS        template.CSS
		ChartsDoc  string
		Background template.CSS
		Text       template.CSS
		Generated  string
	}{
		PageData:   d,
		CSS:        template.CSS(stylesheet()),
		ChartsDoc:  chartsHTML.String(),
		Background: template.CSS(p.Background),
		Text:       template.CSS(p.Text),
		Generated:  d.GeneratedAt.Format("02/01/2006 15:04"),
	})
}

func renderECharts(w io.Writer, d PageData) error {
	p := d.Theme.Palette()
	page := components.NewPage()
	page.PageTitle = d.Title
	page.SetLayout(components.PageFlexLayout)

	for _, pc := range d.Charts {
		init := opts.Initialization{
			Width:           "560px",
			Height:          "320px",
			BackgroundColor: p.Background,
		}
		title := opts.Title{Title: pc.Config.Title, Subtitle: pc.Config.Unit}
		labels, points := pc.Series.Labels(), pc.Series.Points()

		if pc.Config.Type == "bar" {
			bar := charts.NewBar()
			bar.SetGlobalOptions(charts.WithInitializationOpts(init), charts.WithTitleOpts(title))
			data := make([]opts.BarData, len(points))
			for i, v := range points {
				data[i] = opts.BarData{Value: v, ItemStyle: &opts.ItemStyle{Color: p.BarColor(v, pc.Config.Unit, 0)}}
			}
			bar.SetXAxis(labels).AddSeries(pc.Config.Title, data)
			page.AddCharts(bar)
			continue
		}

		line := charts.NewLine()
		line.SetGlobalOptions(charts.WithInitializationOpts(init), charts.WithTitleOpts(title))
		color := p.DatasetColor(pc.Config.ID)
		data := make([]opts.LineData, len(points))
		for i, v := range points {
			data[i] = opts.LineData{Value: v}
		}
		line.SetXAxis(labels).AddSeries(pc.Config.Title, data,
			charts.WithItemStyleOpts(opts.ItemStyle{Color: color}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: RGBA(color, 0.1)}),
		)
		page.AddCharts(line)
	}
	return page.Render(w)
}
