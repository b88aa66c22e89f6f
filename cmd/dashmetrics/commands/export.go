package commands

import (
	"fmt"
	"strings"
	"time"

	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/export"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newExportCmd(get func() *app) *cobra.Command {
	var (
		format   string
		category string
		dir      string
		open     bool
	)
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}

	cmd := &cobra.Command{
		Use:   "export <project>",
		Short: "Export a project report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			p, err := a.projects.Get(args[0])
			if err != nil {
				return err
			}

			var views []dashboard.View
			if category != "" {
				v, err := a.dash.Select(cmd.Context(), p, category)
				if err != nil {
					return a.check(err)
				}
				views = []dashboard.View{v}
			} else if views, err = a.dash.LoadAll(cmd.Context(), p); err != nil {
				return a.check(err)
			}
			printNotices(cmd.ErrOrStderr(), a.dash.Notices())

			if dir == "" {
				dir = a.cfg.ExportDir
			}
			b := export.Bundle{Project: p, Views: views, Theme: a.cfg.Theme, GeneratedAt: time.Now()}
			paths, err := export.Write(f, dir, b)
			if err != nil {
				return err
			}
			if err := export.Log(a.store, b, f, paths, a.cfg.ExportHistoryLimit); err != nil {
				log.Warn().Err(err).Msg("Failed to record export")
			}

			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			if open && len(paths) > 0 {
				browser.Stdout = cmd.ErrOrStderr()
				if err := browser.OpenFile(paths[0]); err != nil {
					log.Warn().Err(err).Str("path", paths[0]).Msg("Failed to open export")
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(export.FormatExcel), strings.Join(names, ", "))
	cmd.Flags().StringVarP(&category, "category", "c", "", "export one category instead of the whole project")
	cmd.Flags().StringVarP(&dir, "dir", "o", "", "output directory (defaults to <DATA_PATH>/exports)")
	cmd.Flags().BoolVar(&open, "open", false, "open the exported file with the default application")
	return cmd
}
