package charts

import (
	"fmt"
	"math"
	"strings"

	"dashmetrics/internal/series"
)

// Mermaid renders a series as a Mermaid xychart-beta block.
func Mermaid(s series.Series, cfg Config) string {
	if s.Len() == 0 {
		return ""
	}

	var labels, values []string
	maxVal, minVal := 0.0, 0.0
	for i := 0; i < s.Len(); i++ {
		label, v := s.At(i)
		labels = append(labels, fmt.Sprintf("%q", strings.ReplaceAll(label, `"`, "'")))
		values = append(values, fmt.Sprintf("%.2f", v))
		maxVal = math.Max(maxVal, v)
		minVal = math.Min(minVal, v)
	}

	axis := cfg.Title
	if cfg.Unit != "" {
		axis = fmt.Sprintf("%s (%s)", cfg.Title, cfg.Unit)
	}
	kind := "line"
	if cfg.Type == "bar" {
		kind = "bar"
	}

	// Leave headroom above the highest point
	top := math.Ceil(maxVal + math.Max(1, maxVal*0.2))

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString(fmt.Sprintf("    title %q\n", cfg.Title))
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis %q %d --> %d\n", axis, int(math.Floor(minVal)), int(top)))
	sb.WriteString(fmt.Sprintf("    %s [%s]\n", kind, strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
