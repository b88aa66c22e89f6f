package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"dashmetrics/internal/charts"
	"dashmetrics/internal/insights"
	"dashmetrics/internal/series"
)

// CSV writes the Dados sheet as comma-separated values.
func CSV(w io.Writer, b Bundle) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(toStrings(dataHeader)); err != nil {
		return err
	}
	for _, row := range dataRows(b) {
		if err := cw.Write(toStrings(row)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// InsightsText writes one plain-text insight report per category.
func InsightsText(w io.Writer, b Bundle) error {
	for i, v := range b.Views {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, insights.Report(v.Insights, v.CategoryName, b.GeneratedAt)); err != nil {
			return err
		}
	}
	return nil
}

// Markdown writes a report with one Mermaid chart per metric.
func Markdown(w io.Writer, b Bundle) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", b.Project.Name)
	fmt.Fprintf(&sb, "Gerado em %s\n\n", b.GeneratedAt.Format("02/01/2006 15:04"))
	for _, v := range b.Views {
		fmt.Fprintf(&sb, "## %s\n\n", v.CategoryName)
		if v.Source != "" {
			fmt.Fprintf(&sb, "Fonte: %s\n\n", v.Source)
		}
		if len(v.KPIs) > 0 {
			sb.WriteString("| Indicador | Valor | Tendência |\n|---|---|---|\n")
			for _, k := range v.KPIs {
				fmt.Fprintf(&sb, "| %s | %s | %s |\n", k.Title, k.Formatted, k.Trend.Label)
			}
			sb.WriteString("\n")
		}
		for _, c := range v.Charts {
			if m := charts.Mermaid(c.Series, c.Config); m != "" {
				sb.WriteString(m)
				sb.WriteString("\n")
			}
		}
		if len(v.Insights) > 0 {
			sb.WriteString("### Insights\n\n")
			for _, in := range v.Insights {
				fmt.Fprintf(&sb, "- **%s** (%s): %s\n", in.Metric, in.Type, in.Message)
			}
			sb.WriteString("\n")
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// HTML writes a standalone dashboard page with every chart of the bundle.
func HTML(w io.Writer, b Bundle) error {
	d := charts.PageData{
		Title:       b.Project.Name,
		Theme:       b.Theme,
		GeneratedAt: b.GeneratedAt,
	}
	var names []string
	for _, v := range b.Views {
		pd := v.PageData(b.Theme, nil)
		names = append(names, v.CategoryName)
		d.KPIs = append(d.KPIs, pd.KPIs...)
		d.Charts = append(d.Charts, pd.Charts...)
		d.Insights = append(d.Insights, pd.Insights...)
	}
	d.Subtitle = strings.Join(names, " · ")
	return charts.Page(w, d)
}

// ChartsPNG renders every chart of the bundle to its own PNG file in dir.
func ChartsPNG(dir string, b Bundle) ([]string, error) {
	var paths []string
	for _, v := range b.Views {
		for _, c := range v.Charts {
			name := FileName(b.Project.Name, v.Category+"-"+c.Config.ID, "png", b.GeneratedAt)
			path := filepath.Join(dir, name)
			if err := writePNG(path, c.Series, c.Config, b.Theme); err != nil {
				return paths, err
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func writePNG(path string, s series.Series, cfg charts.Config, theme charts.Theme) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := charts.PNG(f, s, cfg, theme); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to render %s: %w", cfg.ID, err)
	}
	return f.Close()
}

func toStrings(row []any) []string {
	out := make([]string, len(row))
	for i, v := range row {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		case string:
			out[i] = x
		default:
			out[i] = fmt.Sprint(x)
		}
	}
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func joinActions(actions []string) string {
	return strings.Join(actions, "; ")
}
