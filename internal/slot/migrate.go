package slot

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// migrate applies the embedded migrations for dialect from dir.
func migrate(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("slot: migrations %s: %w", dir, err)
	}

	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("slot: goose provider: %w", err)
	}
	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("slot: goose up: %w", err)
	}
	return nil
}

// migrateBridge runs migrate over a database/sql bridge and closes it.
// Closing the bridge leaves the connections it wraps open.
func migrateBridge(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	defer db.Close()
	return migrate(ctx, db, dialect, dir)
}
