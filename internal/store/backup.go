package store

import (
	"context"
	"fmt"
	"time"

	"github.com/AbduSami-bK/contact-manager/internal/backup"
	"github.com/AbduSami-bK/contact-manager/internal/slot"
)

// ─── Backup / Restore ────────────────────────────────────────────────────────

// Backup writes a snapshot of the collection to the archive, prunes old
// snapshots and returns the new snapshot's name.
func (s *Store) Backup(ctx context.Context) (string, error) {
	if s.cfg.Archive == nil {
		return "", ErrNoArchive
	}

	s.mu.Lock()
	data, err := s.exportLocked()
	count := len(s.contacts)
	s.mu.Unlock()
	if err != nil {
		return "", err
	}

	name, err := s.cfg.Archive.Put(ctx, data)
	if err != nil {
		return "", fmt.Errorf("contacts: backup: %w", err)
	}
	s.log.Info().Str("backup", name).Int("contacts", count).Msg("backup written")

	if removed, err := s.cfg.Archive.Prune(ctx, s.cfg.BackupKeep); err != nil {
		s.log.Warn().Stack().Err(err).Msg("prune backups failed")
	} else if removed > 0 {
		s.log.Debug().Int("removed", removed).Msg("old backups pruned")
	}
	return name, nil
}

// Restore replaces the whole collection with the named snapshot.
func (s *Store) Restore(ctx context.Context, name string) error {
	if s.cfg.Archive == nil {
		return ErrNoArchive
	}

	data, err := s.cfg.Archive.Get(ctx, name)
	if err != nil {
		return fmt.Errorf("contacts: restore: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.replaceAll(ctx, data)
	if err != nil {
		return err
	}
	s.log.Info().Str("backup", name).Int("contacts", n).Msg("backup restored")
	return nil
}

// ListBackups returns the archive's snapshots, newest first.
func (s *Store) ListBackups(ctx context.Context) ([]backup.Entry, error) {
	if s.cfg.Archive == nil {
		return nil, ErrNoArchive
	}
	return s.cfg.Archive.List(ctx)
}

// AutoBackup takes a backup every interval until ctx is cancelled. Failures
// are logged and never stop the loop. A non-positive interval returns at once.
func (s *Store) AutoBackup(ctx context.Context, interval time.Duration) error {
	if interval <= 0 || s.cfg.Archive == nil {
		return nil
	}

	s.log.Info().Dur("interval", interval).Msg("auto-backup starting")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("auto-backup stopping")
			return nil
		case <-ticker.C:
			if _, err := s.Backup(ctx); err != nil {
				s.log.Error().Stack().Err(err).Msg("auto-backup failed")
			}
		}
	}
}

// ─── Maintenance ─────────────────────────────────────────────────────────────

// Vacuum compacts the backing database. Slots without a database engine
// have nothing to compact and return nil.
func (s *Store) Vacuum(ctx context.Context) error {
	m, ok := s.slot.(slot.Maintainer)
	if !ok {
		s.log.Debug().Msg("vacuum: slot has no database engine")
		return nil
	}
	return m.Vacuum(ctx)
}

// Analyze refreshes the backing database's planner statistics, if any.
func (s *Store) Analyze(ctx context.Context) error {
	m, ok := s.slot.(slot.Maintainer)
	if !ok {
		s.log.Debug().Msg("analyze: slot has no database engine")
		return nil
	}
	return m.Analyze(ctx)
}
