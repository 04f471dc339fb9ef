package notes

import (
	"context"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Migrate ensures the notes table and its indexes exist. It is idempotent.
func Migrate(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	logFields := logrus.Fields{"component": "notes.migrate"}
	if logger != nil {
		logger.WithFields(logFields).Info("applying notes schema")
	}

	if err := db.WithContext(ctx).AutoMigrate(&noteRecord{}); err != nil {
		if logger != nil {
			logger.WithFields(logFields).WithField("error", err.Error()).Error("notes schema migration failed")
		}
		return eris.Wrap(err, "auto migrating notes schema")
	}

	if logger != nil {
		logger.WithFields(logFields).Info("notes schema migration complete")
	}

	return nil
}

// Reset drops the notes table and recreates it empty. Development use only.
func Reset(ctx context.Context, db *gorm.DB, logger *logrus.Logger) error {
	if db == nil {
		return eris.New("gorm DB is required")
	}

	if err := db.WithContext(ctx).Migrator().DropTable(&noteRecord{}); err != nil {
		return eris.Wrap(err, "dropping notes table")
	}

	if logger != nil {
		logger.WithField("component", "notes.migrate").Warn("dropped notes table")
	}

	return Migrate(ctx, db, logger)
}
