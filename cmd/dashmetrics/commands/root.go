package commands

import (
	"errors"
	"time"

	"dashmetrics/internal/api"
	"dashmetrics/internal/auth"
	"dashmetrics/internal/charts"
	"dashmetrics/internal/config"
	"dashmetrics/internal/dashboard"
	"dashmetrics/internal/logging"
	"dashmetrics/internal/project"
	"dashmetrics/internal/storage"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	// Version, Commit, and BuildDate are set at build time via ldflags.
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

// app is the wiring shared by every command for one invocation.
type app struct {
	cfg      *config.AppConfig
	store    *storage.Store
	auth     *auth.Session
	client   api.Client
	registry *charts.Registry
	projects *project.Manager
	dash     *dashboard.Session
}

// open builds the session-scoped objects. A logout (explicit or triggered by
// a 401) closes the dashboard session.
func open(cfg *config.AppConfig) (*app, error) {
	st, err := storage.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	sess, err := auth.NewSession(st)
	if err != nil {
		st.Close()
		return nil, err
	}

	a := &app{cfg: cfg, store: st, auth: sess, registry: charts.DefaultRegistry()}
	a.client = api.NewClient(cfg.API, sess)

	var remote project.Remote
	if sess.IsAuthenticated() {
		if !sess.TokenValid(time.Now()) {
			log.Warn().Msg("Stored token has expired; run `dashmetrics login` again")
		}
		remote = a.client
	}
	a.projects = project.NewManager(st, remote, a.registry.Known)

	a.dash = dashboard.New(a.client, sess, a.registry, dashboard.Options{
		CacheTTL:     cfg.CacheTTL,
		CacheMax:     cfg.CacheMaxEntries,
		HistoryLimit: cfg.HistoryLimit,
		HistoryDir:   cfg.CacheDir,
		Theme:        cfg.Theme,
		MockFallback: cfg.MockFallback,
		CacheStore:   st,
	})
	sess.OnLogout(func() {
		if err := a.dash.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close dashboard session")
		}
	})
	return a, nil
}

// check ends the stored session when the API rejected the credentials.
func (a *app) check(err error) error {
	if api.IsAuthExpired(err) {
		if lerr := a.auth.Logout(); lerr != nil {
			log.Warn().Err(lerr).Msg("Failed to clear credentials")
		}
		return errors.New(api.UserMessage(err))
	}
	return err
}

func (a *app) close() error {
	return errors.Join(a.dash.Suspend(), a.store.Close())
}

// NewRootCmd assembles the command tree.
func NewRootCmd() *cobra.Command {
	var (
		verbose bool
		a       *app
	)
	get := func() *app { return a }

	rootCmd := &cobra.Command{
		Use:   "dashmetrics",
		Short: "dashmetrics is a marketing analytics dashboard client",
		Long: `A client for the marketing analytics API: it registers spreadsheet projects,
loads per-category metrics into KPI cards, charts and prioritized insights, and exports
reports as Excel, CSV, PNG, HTML, Markdown or text. The same dashboard is served over
HTTP (serve) and as MCP tools (mcp).`,
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logging.Init(verbose, cmd.Name() == "mcp")

			cfg, err := config.Load()
			if err != nil {
				log.Fatal().Err(err).Msg("Failed to load configuration")
			}
			if a, err = open(cfg); err != nil {
				return err
			}

			log.Debug().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("api", cfg.API.BaseURL).
				Msg("dashmetrics starting")
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a == nil {
				return nil
			}
			return a.close()
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.SetVersionTemplate("dashmetrics {{.Version}} (" + Commit + ", " + BuildDate + ")\n")

	rootCmd.AddCommand(
		newLoginCmd(get),
		newRegisterCmd(get),
		newLogoutCmd(get),
		newProjectsCmd(get),
		newLoadCmd(get),
		newExportCmd(get),
		newCacheCmd(get),
		newHistoryCmd(get),
		newServeCmd(get),
		newMCPCmd(get),
	)
	return rootCmd
}

func Execute() error {
	return NewRootCmd().Execute()
}
