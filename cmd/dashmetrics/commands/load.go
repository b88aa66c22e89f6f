package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"dashmetrics/internal/charts"
	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/insights"

	"github.com/spf13/cobra"
)

func newLoadCmd(get func() *app) *cobra.Command {
	var (
		category string
		mermaid  bool
		asJSON   bool
		refresh  bool
	)
	cmd := &cobra.Command{
		Use:   "load <project>",
		Short: "Load a project category and print its KPIs, charts and insights",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			p, err := a.projects.Get(args[0])
			if err != nil {
				return err
			}
			if category == "" && len(p.Categories) > 0 {
				category = p.Categories[0]
			}
			if refresh {
				a.dash.Cache().Clear()
			}

			v, err := a.dash.Select(cmd.Context(), p, category)
			printNotices(cmd.ErrOrStderr(), a.dash.Notices())
			if err != nil && v.State != dashboard.StateError {
				return a.check(err)
			}
			if v.State == dashboard.StateError {
				return fmt.Errorf("%s", v.Err)
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(v)
			}
			printView(out, v, mermaid)
			return nil
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "category to load (defaults to the first category of the project)")
	cmd.Flags().BoolVar(&mermaid, "mermaid", false, "print every chart as a Mermaid block")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the view as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "ignore cached responses")
	return cmd
}

func printNotices(w io.Writer, notices []dashboard.Notice) {
	for _, n := range notices {
		fmt.Fprintf(w, "[%s] %s\n", strings.ToUpper(n.Level), n.Message)
	}
}

func printView(w io.Writer, v dashboard.View, mermaid bool) {
	fmt.Fprintf(w, "%s · %s (fonte: %s, %s)\n\n", v.Project.Name, v.CategoryName, v.Source, v.UpdatedAt.Local().Format("02/01/2006 15:04"))

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KPI\tVALOR\tTENDÊNCIA")
	for _, k := range v.KPIs {
		fmt.Fprintf(tw, "%s\t%s\t%s %s\n", k.Title, k.Formatted, k.Trend.Direction, k.Trend.Label)
	}
	_ = tw.Flush()
	fmt.Fprintln(w)

	for _, c := range v.Charts {
		if mermaid {
			fmt.Fprintln(w, charts.Mermaid(c.Series, c.Config))
			continue
		}
		labels, points := c.Series.Labels(), c.Series.Points()
		parts := make([]string, len(points))
		for i := range points {
			parts[i] = fmt.Sprintf("%s=%.2f", labels[i], points[i])
		}
		line := fmt.Sprintf("%s: %s", c.Config.Title, strings.Join(parts, "  "))
		if c.Diagnostic != "" {
			line += " (dados indisponíveis)"
		}
		fmt.Fprintln(w, line)
	}
	fmt.Fprintln(w)
	fmt.Fprint(w, insights.Report(v.Insights, v.CategoryName, v.UpdatedAt))
}
