package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
)

// ─── Export / Import ─────────────────────────────────────────────────────────

// ExportAll returns every contact as an indented JSON array in List order.
func (s *Store) ExportAll(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exportLocked()
}

func (s *Store) exportLocked() ([]byte, error) {
	data, err := json.MarshalIndent(s.listLocked(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("contacts: export: %w", err)
	}
	return data, nil
}

// ImportBatch inserts every record whose id is new, exactly as given, and
// returns how many were inserted. Records without an id, with an id already
// present or that are not objects are skipped. Only input that is not a
// JSON array is an error.
func (s *Store) ImportBatch(ctx context.Context, data []byte) (int, error) {
	records, err := parseArray(data)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	imported := 0
	for _, raw := range records {
		var c Contact
		if err := json.Unmarshal(raw, &c); err != nil {
			continue
		}
		if c.ID == "" {
			continue
		}
		if _, taken := s.contacts[c.ID]; taken {
			continue
		}
		normalize(&c)
		s.contacts[c.ID] = &c
		imported++
	}

	if imported == 0 {
		return 0, nil
	}
	if err := s.persist(ctx); err != nil {
		return imported, err
	}
	s.log.Info().Int("imported", imported).Int("skipped", len(records)-imported).Msg("import finished")
	return imported, nil
}

// replaceAll swaps the whole collection for the records in data and
// persists it. Callers hold s.mu.
func (s *Store) replaceAll(ctx context.Context, data []byte) (int, error) {
	records, err := parseArray(data)
	if err != nil {
		return 0, err
	}

	next := make(map[string]*Contact, len(records))
	for _, raw := range records {
		var c Contact
		if err := json.Unmarshal(raw, &c); err != nil || c.ID == "" {
			continue
		}
		normalize(&c)
		next[c.ID] = &c
	}

	s.contacts = next
	return len(next), s.persist(ctx)
}

func parseArray(data []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, ErrMalformedImport
	}
	var records []json.RawMessage
	if err := json.Unmarshal(trimmed, &records); err != nil {
		return nil, ErrMalformedImport
	}
	return records, nil
}
