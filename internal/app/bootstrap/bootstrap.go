package bootstrap

import (
	"context"

	"github.com/getsentry/sentry-go"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"notes/app/internal/config"
	"notes/app/internal/db"
	apphttp "notes/app/internal/http"
	"notes/app/internal/notes"
	applog "notes/app/internal/platform/log"
)

type Dependencies struct {
	Config    *config.Config
	Logger    *logrus.Logger
	SentryHub *sentry.Hub
}

type Result struct {
	Notes      *notes.Repository
	HTTPServer *apphttp.Server
	Database   *gorm.DB
	Cleanup    func() error
}

// OpenDatabase connects to the configured store with the pool settings applied.
func OpenDatabase(cfg *config.Config, logger *logrus.Logger) (*gorm.DB, error) {
	if cfg == nil {
		return nil, eris.New("config is required")
	}

	dbCfg := cfg.Database
	return db.Open(db.Options{
		Driver:       dbCfg.Driver,
		Path:         dbCfg.Path,
		Host:         dbCfg.Host,
		Port:         dbCfg.Port,
		User:         dbCfg.User,
		Password:     dbCfg.Password,
		Name:         dbCfg.Name,
		SSLMode:      dbCfg.SSLMode,
		Logger:       applog.NewGormLogger(logger, cfg.Debug),
		MaxOpenConns: dbCfg.MaxOpenConns(),
		MaxIdleConns: dbCfg.PoolSize,
		ConnMaxLife:  dbCfg.PoolRecycle,
	})
}

// Build composes the notes application layers and returns the constructed components.
func Build(ctx context.Context, deps Dependencies) (Result, error) {
	if deps.Logger == nil {
		return Result{}, eris.New("logger is required")
	}

	conn, err := OpenDatabase(deps.Config, deps.Logger)
	if err != nil {
		return Result{}, eris.Wrap(err, "opening database")
	}

	closeOnError := func(wrapper error) (Result, error) {
		if closeErr := db.Close(conn); closeErr != nil {
			deps.Logger.WithError(closeErr).Error("closing database after bootstrap failure")
		}
		return Result{}, wrapper
	}

	if err := notes.Migrate(ctx, conn, deps.Logger); err != nil {
		return closeOnError(eris.Wrap(err, "running notes migrations"))
	}

	repo, err := notes.NewRepository(conn, deps.Logger)
	if err != nil {
		return closeOnError(eris.Wrap(err, "creating notes repository"))
	}

	httpServer, err := apphttp.NewServer(apphttp.Options{
		Notes:     repo,
		Database:  conn,
		Logger:    deps.Logger,
		SentryHub: deps.SentryHub,
		CORS: apphttp.CORSSettings{
			AllowOrigins: deps.Config.CORS.AllowOrigins,
		},
		RateLimiter: apphttp.RateLimiterSettings{
			Burst:             deps.Config.RateLimit.Burst,
			RequestsPerSecond: deps.Config.RateLimit.RequestsPerSecond,
			ClientTTL:         deps.Config.RateLimit.ClientTTL,
		},
	})
	if err != nil {
		return closeOnError(eris.Wrap(err, "initialising http server"))
	}

	cleanup := func() error {
		httpServer.Close()
		return db.Close(conn)
	}

	return Result{
		Notes:      repo,
		HTTPServer: httpServer,
		Database:   conn,
		Cleanup:    cleanup,
	}, nil
}
