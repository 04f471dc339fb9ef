package main

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"notes/app/internal/config"
	applog "notes/app/internal/platform/log"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "0.1.0"

// state holds the process-wide dependencies prepared before any subcommand runs.
type state struct {
	cfg    *config.Config
	logger *logrus.Logger
	sentry *sentry.Hub
	flush  func()
}

var (
	envFile string
	app     state
)

var rootCmd = &cobra.Command{
	Use:           "notes",
	Short:         "Notes API server",
	Long:          "A simple note-taking API backed by SQLite or PostgreSQL.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if cmd.Name() == versionCmd.Name() {
			return nil
		}
		return app.load(envFile)
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if app.flush != nil {
			app.flush()
		}
	},
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context(), app)
	},
}

// Execute runs the root command; without a subcommand the API server starts.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to an optional dotenv file")
}

func (r *state) load(path string) error {
	// A missing dotenv file is fine; the environment may already be populated.
	_ = godotenv.Load(path)

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	hub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
		Debug:       cfg.Debug,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}

	r.cfg = cfg
	r.logger = logger
	r.sentry = hub
	r.flush = flush
	return nil
}
