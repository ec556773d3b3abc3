package slot

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// Querier is the subset of pgxpool.Pool the Postgres slot needs.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Postgres keeps each slot as one row of the contact_slots table.
type Postgres struct {
	q     Querier
	name  string
	close func()
}

// NewPostgres wraps an existing connection. The caller owns q.
func NewPostgres(q Querier, name string) *Postgres {
	return &Postgres{q: q, name: name, close: func() {}}
}

// OpenPostgres connects to dsn and applies migrations.
func OpenPostgres(ctx context.Context, dsn, name string) (*Postgres, error) {
	if dsn == "" {
		return nil, fmt.Errorf("slot: postgres dsn is required")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("slot: connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("slot: ping postgres: %w", err)
	}

	// goose needs database/sql; the bridge shares the pool's connections.
	err = migrateBridge(ctx, stdlib.OpenDBFromPool(pool), goose.DialectPostgres, "migrations/postgres")
	if err != nil {
		pool.Close()
		return nil, err
	}

	return &Postgres{q: pool, name: name, close: pool.Close}, nil
}

func (p *Postgres) Name() string { return p.name }

func (p *Postgres) Load(ctx context.Context) ([]byte, error) {
	query, args, err := psql.Select("data").
		From("contact_slots").
		Where(sq.Eq{"name": p.name}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var data []byte
	err = p.q.QueryRow(ctx, query, args...).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEmpty
	}
	if err != nil {
		return nil, fmt.Errorf("slot: load %s: %w", p.name, err)
	}
	return data, nil
}

func (p *Postgres) Save(ctx context.Context, data []byte) error {
	query, args, err := psql.Insert("contact_slots").
		Columns("name", "data", "updated_at").
		Values(p.name, data, time.Now().UTC()).
		Suffix("ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}

	if _, err := p.q.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("slot: save %s: %w", p.name, err)
	}
	return nil
}

func (p *Postgres) Vacuum(ctx context.Context) error {
	if _, err := p.q.Exec(ctx, "VACUUM contact_slots"); err != nil {
		return fmt.Errorf("slot: vacuum: %w", err)
	}
	return nil
}

func (p *Postgres) Analyze(ctx context.Context) error {
	if _, err := p.q.Exec(ctx, "ANALYZE contact_slots"); err != nil {
		return fmt.Errorf("slot: analyze: %w", err)
	}
	return nil
}

func (p *Postgres) Close() error {
	p.close()
	return nil
}
