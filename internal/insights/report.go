package insights

import (
	"fmt"
	"strings"
	"time"
)

var sectionTitles = []struct {
	Type  Type
	Title string
}{
	{Danger, "CRÍTICOS"},
	{Warning, "ATENÇÃO"},
	{Success, "POSITIVOS"},
	{Info, "INFORMATIVOS"},
}

// Report renders insights as a plain-text report grouped by type.
func Report(list []Insight, category string, now time.Time) string {
	var sb strings.Builder
	rule := strings.Repeat("=", 50)

	sb.WriteString("RELATÓRIO DE INSIGHTS\n")
	sb.WriteString(rule + "\n")
	fmt.Fprintf(&sb, "Categoria: %s\n", category)
	fmt.Fprintf(&sb, "Data: %s\n", now.Format("02/01/2006 15:04"))
	sb.WriteString(rule + "\n\n")

	s := Summarize(list)
	sb.WriteString("RESUMO:\n")
	fmt.Fprintf(&sb, "- Total de insights: %d\n", s.Total)
	fmt.Fprintf(&sb, "- Críticos: %d\n", s.Danger)
	fmt.Fprintf(&sb, "- Atenção: %d\n", s.Warning)
	fmt.Fprintf(&sb, "- Positivos: %d\n", s.Success)
	fmt.Fprintf(&sb, "- Informativos: %d\n\n", s.Info)

	for _, sec := range sectionTitles {
		var group []Insight
		for _, in := range list {
			if in.Type == sec.Type {
				group = append(group, in)
			}
		}
		if len(group) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "%s (%d)\n", sec.Title, len(group))
		sb.WriteString(strings.Repeat("-", 30) + "\n")
		for i, in := range group {
			fmt.Fprintf(&sb, "%d. %s", i+1, in.Metric)
			if in.Value != "" {
				fmt.Fprintf(&sb, ": %s", in.Value)
			}
			sb.WriteString("\n")
			if in.Message != "" {
				fmt.Fprintf(&sb, "   %s\n", in.Message)
			}
			if in.Advice != "" {
				fmt.Fprintf(&sb, "   Recomendação: %s\n", in.Advice)
			}
			for _, a := range in.Actions {
				fmt.Fprintf(&sb, "   - %s\n", a)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
