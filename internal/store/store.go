// Package store implements the contact store for contact-manager.
//
// The store owns the authoritative collection of contacts and keeps it in
// memory. The whole collection is serialized to a single persistence slot on
// every mutation and read back once when the store is created. Everything
// else (HTTP server, MCP server, native-messaging host, TUI, CLI) talks to
// this.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/AbduSami-bK/contact-manager/internal/backup"
	"github.com/AbduSami-bK/contact-manager/internal/slot"
)

// ─── Types ───────────────────────────────────────────────────────────────────

type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zipCode,omitempty"`
	Country string `json:"country,omitempty"`
}

type Contact struct {
	ID         string    `json:"id"`
	FirstName  string    `json:"firstName"`
	LastName   string    `json:"lastName"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	Company    string    `json:"company,omitempty"`
	JobTitle   string    `json:"jobTitle,omitempty"`
	Address    *Address  `json:"address,omitempty"`
	Notes      string    `json:"notes,omitempty"`
	Tags       []string  `json:"tags"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
	IsFavorite bool      `json:"isFavorite"`
	Avatar     string    `json:"avatar,omitempty"`
}

// ContactInput carries the caller-supplied fields of a new contact.
type ContactInput struct {
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Email     string   `json:"email" required:"false"`
	Phone     string   `json:"phone" required:"false"`
	Company   string   `json:"company,omitempty"`
	JobTitle  string   `json:"jobTitle,omitempty"`
	Address   *Address `json:"address,omitempty"`
	Notes     string   `json:"notes,omitempty"`
	Tags      []string `json:"tags,omitempty"`
	Avatar    string   `json:"avatar,omitempty"`
}

// ContactPatch is a partial update. Nil fields are left untouched; a nil
// Tags slice keeps the existing tags while an empty one clears them.
type ContactPatch struct {
	FirstName  *string  `json:"firstName,omitempty"`
	LastName   *string  `json:"lastName,omitempty"`
	Email      *string  `json:"email,omitempty"`
	Phone      *string  `json:"phone,omitempty"`
	Company    *string  `json:"company,omitempty"`
	JobTitle   *string  `json:"jobTitle,omitempty"`
	Address    *Address `json:"address,omitempty"`
	Notes      *string  `json:"notes,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IsFavorite *bool    `json:"isFavorite,omitempty"`
	Avatar     *string  `json:"avatar,omitempty"`
}

// IsEmpty reports whether the patch changes no field.
func (p ContactPatch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil &&
		p.Phone == nil && p.Company == nil && p.JobTitle == nil &&
		p.Address == nil && p.Notes == nil && p.Tags == nil &&
		p.IsFavorite == nil && p.Avatar == nil
}

var (
	// ErrNotFound is returned when an operation names an id the store does not hold.
	ErrNotFound = errors.New("contact not found")
	// ErrMalformedImport is returned when import data is not a JSON array.
	ErrMalformedImport = errors.New("invalid import data format")
	// ErrNoArchive is returned by backup operations when no archive is configured.
	ErrNoArchive = errors.New("backups are not configured")
)

// ─── Config ──────────────────────────────────────────────────────────────────

// Archive stores backup snapshots. backup.Dir implements it.
type Archive interface {
	Put(ctx context.Context, data []byte) (string, error)
	Get(ctx context.Context, name string) ([]byte, error)
	List(ctx context.Context) ([]backup.Entry, error)
	Prune(ctx context.Context, keep int) (int, error)
}

type Config struct {
	Logger     zerolog.Logger
	Archive    Archive // nil disables Backup and Restore
	BackupKeep int     // snapshots kept after each backup, 0 keeps all
	Now        func() time.Time
	NewID      func() string
}

func DefaultConfig() Config {
	return Config{
		Logger:     zerolog.Nop(),
		BackupKeep: 10,
		Now:        time.Now,
		NewID:      NewID,
	}
}

// ─── Store ───────────────────────────────────────────────────────────────────

type Store struct {
	mu       sync.Mutex
	slot     slot.Slot
	cfg      Config
	log      zerolog.Logger
	contacts map[string]*Contact
}

// New builds a store on top of sl and loads whatever the slot holds. A slot
// that is empty, unreadable or unparsable yields an empty collection.
func New(ctx context.Context, sl slot.Slot, cfg Config) (*Store, error) {
	if sl == nil {
		return nil, fmt.Errorf("contacts: slot is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.NewID == nil {
		cfg.NewID = NewID
	}

	s := &Store{
		slot:     sl,
		cfg:      cfg,
		log:      cfg.Logger.With().Str("slot", sl.Name()).Logger(),
		contacts: make(map[string]*Contact),
	}
	s.load(ctx)
	return s, nil
}

func (s *Store) Close() error {
	return s.slot.Close()
}

// SlotName is the name of the persistence slot backing the store.
func (s *Store) SlotName() string {
	return s.slot.Name()
}

func (s *Store) load(ctx context.Context) {
	data, err := s.slot.Load(ctx)
	if errors.Is(err, slot.ErrEmpty) {
		return
	}
	if err != nil {
		s.log.Warn().Err(err).Msg("read slot failed, starting empty")
		return
	}

	var stored map[string]*Contact
	if err := json.Unmarshal(data, &stored); err != nil {
		s.log.Warn().Err(err).Msg("slot holds unparsable data, starting empty")
		return
	}

	for id, c := range stored {
		if c == nil {
			continue
		}
		if c.ID == "" {
			c.ID = id
		}
		normalize(c)
		s.contacts[c.ID] = c
	}
	s.log.Debug().Int("contacts", len(s.contacts)).Msg("slot loaded")
}

// persist rewrites the whole slot. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	data, err := json.Marshal(s.contacts)
	if err != nil {
		return fmt.Errorf("contacts: encode: %w", err)
	}
	if err := s.slot.Save(ctx, data); err != nil {
		s.log.Error().Stack().Err(err).Msg("write slot failed")
		return fmt.Errorf("contacts: persist: %w", err)
	}
	return nil
}

// ─── Contacts ────────────────────────────────────────────────────────────────

func (s *Store) Create(ctx context.Context, in ContactInput) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.cfg.NewID()
	for _, taken := s.contacts[id]; taken; _, taken = s.contacts[id] {
		id = s.cfg.NewID()
	}

	now := s.stamp(time.Time{})
	c := &Contact{
		ID:         id,
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Phone:      in.Phone,
		Company:    in.Company,
		JobTitle:   in.JobTitle,
		Address:    copyAddress(in.Address),
		Notes:      in.Notes,
		Tags:       copyTags(in.Tags),
		CreatedAt:  now,
		UpdatedAt:  now,
		IsFavorite: false,
		Avatar:     in.Avatar,
	}
	s.contacts[id] = c

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return clone(c), nil
}

func (s *Store) Get(_ context.Context, id string) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(c), nil
}

// List returns every contact ordered by creation time, then id.
func (s *Store) List(_ context.Context) ([]Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listLocked(), nil
}

func (s *Store) listLocked() []Contact {
	out := make([]Contact, 0, len(s.contacts))
	for _, c := range s.contacts {
		out = append(out, *clone(c))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Update merges p onto the contact. id and createdAt never change and
// updatedAt always moves forward.
func (s *Store) Update(ctx context.Context, id string, p ContactPatch) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}

	merged := Merge(*existing, p)
	merged.ID = existing.ID
	merged.CreatedAt = existing.CreatedAt
	merged.UpdatedAt = s.stamp(existing.UpdatedAt)
	s.contacts[id] = &merged

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return clone(&merged), nil
}

// Delete removes the contact and reports whether it existed. Nothing is
// written when the id is unknown.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.contacts[id]; !ok {
		return false, nil
	}
	delete(s.contacts, id)

	if err := s.persist(ctx); err != nil {
		return true, err
	}
	return true, nil
}

func (s *Store) ToggleFavorite(ctx context.Context, id string) (*Contact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contacts[id]
	if !ok {
		return nil, ErrNotFound
	}
	c.IsFavorite = !c.IsFavorite
	c.UpdatedAt = s.stamp(c.UpdatedAt)

	if err := s.persist(ctx); err != nil {
		return nil, err
	}
	return clone(c), nil
}

func (s *Store) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.contacts = make(map[string]*Contact)
	return s.persist(ctx)
}

// ─── Merge ───────────────────────────────────────────────────────────────────

// Merge applies p to c field by field. Fields absent from p keep their
// value; present fields replace the old value wholesale.
func Merge(c Contact, p ContactPatch) Contact {
	if p.FirstName != nil {
		c.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		c.LastName = *p.LastName
	}
	if p.Email != nil {
		c.Email = *p.Email
	}
	if p.Phone != nil {
		c.Phone = *p.Phone
	}
	if p.Company != nil {
		c.Company = *p.Company
	}
	if p.JobTitle != nil {
		c.JobTitle = *p.JobTitle
	}
	if p.Address != nil {
		c.Address = copyAddress(p.Address)
	}
	if p.Notes != nil {
		c.Notes = *p.Notes
	}
	if p.Tags != nil {
		c.Tags = copyTags(p.Tags)
	}
	if p.IsFavorite != nil {
		c.IsFavorite = *p.IsFavorite
	}
	if p.Avatar != nil {
		c.Avatar = *p.Avatar
	}
	return c
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// NewID returns a UUIDv7: a millisecond timestamp followed by random bits.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// stamp returns the current time at millisecond precision, strictly after prev.
func (s *Store) stamp(prev time.Time) time.Time {
	now := s.cfg.Now().UTC().Truncate(time.Millisecond)
	if !now.After(prev) {
		now = prev.Add(time.Millisecond)
	}
	return now
}

// normalize repairs records that arrived without tags.
func normalize(c *Contact) {
	if c.Tags == nil {
		c.Tags = []string{}
	}
}

func clone(c *Contact) *Contact {
	out := *c
	out.Address = copyAddress(c.Address)
	out.Tags = copyTags(c.Tags)
	return &out
}

func copyTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func copyAddress(a *Address) *Address {
	if a == nil {
		return nil
	}
	out := *a
	return &out
}
