// Package slot implements the persistence port behind the contact store.
//
// A slot is a single named location holding one opaque blob. The store
// rewrites the whole blob on every mutation and reads it back once at
// startup, so backends only need Load and Save. File, SQLite and Postgres
// backends share that contract; the relational ones keep each slot as one
// row and additionally support maintenance.
package slot

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrEmpty is returned by Load when nothing has been saved under the slot yet.
var ErrEmpty = errors.New("slot: empty")

// Slot is a single named blob location.
type Slot interface {
	Name() string
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
	Close() error
}

// Maintainer is implemented by slots backed by a real database engine.
type Maintainer interface {
	Vacuum(ctx context.Context) error
	Analyze(ctx context.Context) error
}

// Config selects and locates a slot backend.
type Config struct {
	Driver string // file, sqlite, postgres or memory
	Dir    string // data directory for file and sqlite
	Name   string // slot name
	DSN    string // postgres connection string
}

// Open returns the slot described by cfg.
func Open(ctx context.Context, cfg Config) (Slot, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("slot: name is required")
	}
	switch strings.ToLower(cfg.Driver) {
	case "", "file":
		return OpenFile(cfg.Dir, cfg.Name)
	case "sqlite":
		return OpenSQLite(ctx, cfg.Dir, cfg.Name)
	case "postgres":
		return OpenPostgres(ctx, cfg.DSN, cfg.Name)
	case "memory":
		return NewMemory(cfg.Name), nil
	default:
		return nil, fmt.Errorf("slot: unknown driver %q", cfg.Driver)
	}
}
