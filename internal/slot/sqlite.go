package slot

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pressly/goose/v3"

	_ "modernc.org/sqlite"
)

var openDB = sql.Open

// SQLite keeps each slot as one row of the slots table in <dir>/contacts.db.
type SQLite struct {
	db   *sql.DB
	name string
}

// OpenSQLite opens (or creates) the database and applies migrations.
func OpenSQLite(ctx context.Context, dir, name string) (*SQLite, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("slot: create data dir: %w", err)
	}

	dbPath := filepath.Join(dir, "contacts.db")
	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)", dbPath)
	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("slot: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("slot: ping database: %w", err)
	}

	if err := migrate(ctx, db, goose.DialectSQLite3, "migrations/sqlite"); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &SQLite{db: db, name: name}, nil
}

func (s *SQLite) Name() string { return s.name }

func (s *SQLite) Load(ctx context.Context) ([]byte, error) {
	query, args, err := sq.Select("data").
		From("slots").
		Where(sq.Eq{"name": s.name}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = s.db.QueryRowContext(ctx, query, args...).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("slot: load %s: %w", s.name, err)
	}
	return data, nil
}

func (s *SQLite) Save(ctx context.Context, data []byte) error {
	query, args, err := sq.Insert("slots").
		Columns("name", "data", "updated_at").
		Values(s.name, data, time.Now().UTC().Format(time.RFC3339Nano)).
		Suffix("ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("slot: save %s: %w", s.name, err)
	}
	return nil
}

func (s *SQLite) Vacuum(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "VACUUM"); err != nil {
		return fmt.Errorf("slot: vacuum: %w", err)
	}
	return nil
}

func (s *SQLite) Analyze(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "ANALYZE"); err != nil {
		return fmt.Errorf("slot: analyze: %w", err)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
