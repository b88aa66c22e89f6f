package commands

import (
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"dashmetrics/internal/export"
	"dashmetrics/internal/mcp"
	"dashmetrics/internal/server"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newCacheCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect or clear cached API responses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats := get().dash.Cache().Stats()
			if len(stats) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Cache vazio.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CHAVE\tIDADE\tBYTES")
			for _, s := range stats {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", s.Key, s.Age.Round(time.Second), s.Size)
			}
			return tw.Flush()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Drop every cached response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := get().dash.Cache()
			n := c.Len()
			c.Clear()
			fmt.Fprintf(cmd.OutOrStdout(), "%d entradas removidas.\n", n)
			return nil
		},
	})
	return cmd
}

func newHistoryCmd(get func() *app) *cobra.Command {
	var (
		category string
		limit    int
		exports  bool
		reset    bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the insight history, or the export log with --exports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			out := cmd.OutOrStdout()
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)

			if exports {
				records, err := export.History(a.store)
				if err != nil {
					return err
				}
				fmt.Fprintln(tw, "DATA\tPROJETO\tCATEGORIA\tFORMATO\tARQUIVOS")
				for i := len(records) - 1; i >= 0 && len(records)-i <= limit; i-- {
					r := records[i]
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						r.Time.Local().Format("02/01/2006 15:04"), r.Project, r.Category, r.Format, strings.Join(r.Paths, ", "))
				}
				return tw.Flush()
			}

			h := a.dash.History()
			if reset {
				h.Clear()
				fmt.Fprintln(out, "Histórico de insights limpo.")
				return nil
			}
			entries := h.Entries()
			fmt.Fprintln(tw, "DATA\tCATEGORIA\tFONTE\tTOTAL\tCRÍTICOS\tATENÇÃO\tPOSITIVOS")
			shown := 0
			for i := len(entries) - 1; i >= 0 && shown < limit; i-- {
				e := entries[i]
				if category != "" && e.Category != category {
					continue
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
					e.Timestamp.Local().Format("02/01/2006 15:04"), e.Category, e.Source,
					e.Summary.Total, e.Summary.Danger, e.Summary.Warning, e.Summary.Success)
				shown++
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVarP(&category, "category", "c", "", "only this category")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "newest entries to show")
	cmd.Flags().BoolVar(&exports, "exports", false, "show the export log instead")
	cmd.Flags().BoolVar(&reset, "clear", false, "clear the insight history")
	return cmd
}

func newServeCmd(get func() *app) *cobra.Command {
	var (
		addr string
		open bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			verbose, _ := cmd.Flags().GetBool("verbose")
			srv := server.New(a.projects, a.dash, verbose)
			if open {
				go func() {
					time.Sleep(300 * time.Millisecond)
					if err := browser.OpenURL("http://" + addr); err != nil {
						log.Warn().Err(err).Msg("Failed to open browser")
					}
				}()
			}
			return srv.Run(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to DASHMETRICS_HTTP_ADDR)")
	cmd.Flags().BoolVar(&open, "open", false, "open the dashboard in the browser")
	return cmd
}

func newMCPCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the dashboard as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			s := mcp.NewServer(a.projects, a.dash, a.store, mcp.Config{
				ExportDir:          a.cfg.ExportDir,
				ExportHistoryLimit: a.cfg.ExportHistoryLimit,
				Version:            Version,
			})
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return s.Serve(ctx)
		},
	}
}
