package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"notes/app/internal/app/bootstrap"
	"notes/app/internal/db"
	"notes/app/internal/notes"
)

var resetSchema bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the notes schema",
	Long: `Applies the notes schema to the configured database. With --reset the notes
table is dropped first; this is refused outside the development environment.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if resetSchema && !app.cfg.IsDevelopment() {
			return eris.Errorf("--reset is only allowed when ENV=development (current: %s)", app.cfg.Environment)
		}

		conn, err := bootstrap.OpenDatabase(app.cfg, app.logger)
		if err != nil {
			return eris.Wrap(err, "opening database")
		}
		defer func() {
			if closeErr := db.Close(conn); closeErr != nil {
				app.logger.WithError(closeErr).Error("closing database")
			}
		}()

		if resetSchema {
			return notes.Reset(cmd.Context(), conn, app.logger)
		}
		return notes.Migrate(cmd.Context(), conn, app.logger)
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&resetSchema, "reset", false, "Drop and recreate the notes table (development only)")
	rootCmd.AddCommand(migrateCmd)
}
