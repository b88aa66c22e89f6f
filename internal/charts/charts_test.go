package charts

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"dashmetrics/internal/insights"
	"dashmetrics/internal/kpi"
	"dashmetrics/internal/series"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) series.Series {
	t.Helper()
	s, err := series.New([]string{"Jan", "Fev", "Mar"}, []float64{10, 35, 60})
	require.NoError(t, err)
	return s
}

func TestDefaultRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.Equal(t, []string{"email", "social", "seo", "ecommerce", "google-ads", "meta-ads", "blog"}, r.Keys())

	email := r.For("email")
	require.Len(t, email, 4)
	assert.Equal(t, "taxa_abertura", email[0].DataKey)
	assert.Equal(t, "%", email[0].Unit)
	assert.Equal(t, "E-mail Marketing", r.Name("email"))
	assert.Equal(t, "unknown", r.Name("unknown"))
	assert.Nil(t, r.For("unknown"))
	assert.True(t, r.Known("blog"))
}

func TestRegistryForReturnsCopy(t *testing.T) {
	r := DefaultRegistry()
	cfgs := r.For("email")
	cfgs[0].Title = "changed"
	assert.Equal(t, "Taxa de Abertura", r.For("email")[0].Title)
}

func TestParseRegistryRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"NoKey":     "categories:\n  - name: x\n",
		"Duplicate": "categories:\n  - key: a\n  - key: a\n",
		"BadType":   "categories:\n  - key: a\n    charts:\n      - {title: t, type: pie, dataKey: k}\n",
		"NoDataKey": "categories:\n  - key: a\n    charts:\n      - {title: t, type: line}\n",
		"BadYAML":   "categories: [",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestHashStringIsStable(t *testing.T) {
	// "abc" = ((97*31)+98)*31+99
	assert.Equal(t, int32(96354), hashString("abc"))
	p := Light.Palette()
	assert.Equal(t, p.DatasetColor("email-open-rate"), p.DatasetColor("email-open-rate"))
}

func TestBarColor(t *testing.T) {
	p := Light.Palette()
	tests := []struct {
		value float64
		unit  string
		want  string
	}{
		{10, "%", p.Quaternary},
		{35, "%", p.Tertiary},
		{60, "%", p.Secondary},
		{1000, "R$", p.Quaternary},
		{5000, "R$", p.Tertiary},
		{9000, "R$", p.Secondary},
		{9000, "", p.Primary},
	}
	for _, tt := range tests {
		if got := p.BarColor(tt.value, tt.unit, 0); got != tt.want {
			t.Errorf("BarColor(%v, %q) = %s, want %s", tt.value, tt.unit, got, tt.want)
		}
	}
}

func TestRGBA(t *testing.T) {
	assert.Equal(t, "rgba(26, 115, 232, 0.1)", RGBA("#1a73e8", 0.1))
	assert.Equal(t, "rgba(0, 0, 0, 0.5)", RGBA("bad", 0.5))
}

func TestParseTheme(t *testing.T) {
	assert.Equal(t, Dark, ParseTheme("DARK"))
	assert.Equal(t, Light, ParseTheme(""))
	assert.Equal(t, "#202124", Dark.Palette().Background)
}

func TestBuild(t *testing.T) {
	s := sample(t)

	bar := Build(s, Config{ID: "x", Title: "Taxa", Type: "bar", Unit: "%"}, Light)
	require.Len(t, bar.Datasets, 1)
	assert.Equal(t, []string{"Jan", "Fev", "Mar"}, bar.Labels)
	assert.Equal(t, []float64{10, 35, 60}, bar.Datasets[0].Data)
	assert.Equal(t, RGBA("#ea4335", 0.7), bar.Datasets[0].BackgroundColor[0])
	assert.Equal(t, RGBA("#34a853", 0.7), bar.Datasets[0].BackgroundColor[2])
	assert.Equal(t, 1, bar.Datasets[0].BorderWidth)

	line := Build(s, Config{ID: "x", Title: "Taxa", Type: "line"}, Dark)
	ds := line.Datasets[0]
	assert.Equal(t, 3, ds.BorderWidth)
	assert.Equal(t, 0.4, ds.Tension)
	assert.True(t, ds.Fill)
	assert.Equal(t, Dark.Palette().DatasetColor("x"), ds.BorderColor)
}

func TestMermaid(t *testing.T) {
	out := Mermaid(sample(t), Config{Title: "Taxa de Abertura", Type: "bar", Unit: "%"})
	assert.True(t, strings.HasPrefix(out, "```mermaid\nxychart-beta\n"))
	assert.Contains(t, out, `x-axis ["Jan", "Fev", "Mar"]`)
	assert.Contains(t, out, `y-axis "Taxa de Abertura (%)" 0 --> 72`)
	assert.Contains(t, out, "bar [10.00, 35.00, 60.00]")

	assert.Empty(t, Mermaid(series.Series{}, Config{}))
}

func TestPNG(t *testing.T) {
	for _, kind := range []string{"line", "bar"} {
		t.Run(kind, func(t *testing.T) {
			var buf bytes.Buffer
			err := PNG(&buf, sample(t), Config{ID: "c", Title: "Chart", Type: kind, Unit: "%"}, Light)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")), "output should be a PNG")
		})
	}
}

func TestPNGFlatSeries(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, series.Fallback(), Config{ID: "f", Title: "Fallback", Type: "line"}, Dark))
	assert.NotZero(t, buf.Len())
}

func TestPNGEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, PNG(&buf, series.Series{}, Config{Type: "line"}, Light))
}

func TestPage(t *testing.T) {
	var buf bytes.Buffer
	err := Page(&buf, PageData{
		Title:    "Projeto <Teste>",
		Subtitle: "E-mail Marketing",
		Theme:    Light,
		KPIs:     []kpi.KPI{kpi.Compute("Taxa de Abertura", "taxa_abertura", "%", []float64{20, 30})},
		Charts: []PageChart{
			{Config: Config{ID: "a", Title: "Taxa de Abertura", Type: "line", Unit: "%"}, Series: sample(t)},
			{Config: Config{ID: "b", Title: "Conversões", Type: "bar"}, Series: sample(t)},
		},
		Insights:    []insights.Insight{{Metric: "CTR", Type: insights.Danger, Message: "queda", Actions: []string{"revisar"}}},
		Notices:     []string{"Usando dados de demonstração"},
		GeneratedAt: time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "Projeto &lt;Teste&gt;")
	assert.Contains(t, html, "25.0%")
	assert.Contains(t, html, `class="insight danger"`)
	assert.Contains(t, html, "srcdoc=")
	assert.Contains(t, html, "Usando dados de demonstração")
	assert.Contains(t, html, "Gerado em 01/06/2024 09:00")
	assert.NotContains(t, html, "\n  --bg:", "stylesheet should be minified")
}
