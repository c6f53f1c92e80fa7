// Package migrations embeds the agenda schema migrations and applies
// them with goose.
package migrations

import (
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

// FS contains the embedded SQL migration files for the events,
// notifications and event_notify tables.
//
//go:embed *.sql
var FS embed.FS

// Run brings the agenda database up to the latest schema version.
func Run(db *sql.DB) error {
	goose.SetBaseFS(FS)

	// modernc.org/sqlite registers as "sqlite"; goose knows the dialect
	// as "sqlite3".
	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}
