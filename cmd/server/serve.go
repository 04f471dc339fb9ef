package main

import (
	"context"
	"errors"
	stdhttp "net/http"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"notes/app/internal/app/bootstrap"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server (default)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context(), app)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, rt state) error {
	logger := rt.logger

	built, err := bootstrap.Build(ctx, bootstrap.Dependencies{
		Config:    rt.cfg,
		Logger:    logger,
		SentryHub: rt.sentry,
	})
	if err != nil {
		return eris.Wrap(err, "bootstrapping application")
	}
	defer func() {
		if closeErr := built.Cleanup(); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	httpServer := &stdhttp.Server{
		Addr:    rt.cfg.Addr(),
		Handler: built.HTTPServer.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":        httpServer.Addr,
		"environment": rt.cfg.Environment,
		"db_driver":   rt.cfg.Database.Driver,
		"version":     version,
	}).Info("starting http server")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "http server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), rt.cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down http server")
	}

	logger.Info("http server shut down cleanly")
	return nil
}
