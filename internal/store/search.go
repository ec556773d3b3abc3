package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// ─── Search ──────────────────────────────────────────────────────────────────

// Sortable fields accepted in SearchFilters.SortBy.
const (
	SortFirstName = "firstName"
	SortLastName  = "lastName"
	SortEmail     = "email"
	SortPhone     = "phone"
	SortCompany   = "company"
	SortJobTitle  = "jobTitle"
	SortCreatedAt = "createdAt"
	SortUpdatedAt = "updatedAt"
)

// SearchFilters narrows and orders a search. Every field is optional.
type SearchFilters struct {
	Search     string   `json:"search,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	IsFavorite *bool    `json:"isFavorite,omitempty"`
	SortBy     string   `json:"sortBy,omitempty"`
	SortOrder  string   `json:"sortOrder,omitempty"` // asc (default) or desc
}

// SortFields lists the values SortBy accepts.
func SortFields() []string {
	return []string{
		SortFirstName, SortLastName, SortEmail, SortPhone,
		SortCompany, SortJobTitle, SortCreatedAt, SortUpdatedAt,
	}
}

// Search filters by text, then tags, then favorite flag, then sorts.
func (s *Store) Search(_ context.Context, f SearchFilters) ([]Contact, error) {
	var less func(a, b *Contact) bool
	if f.SortBy != "" {
		cmp, ok := comparators[f.SortBy]
		if !ok {
			return nil, fmt.Errorf("contacts: unknown sort field %q", f.SortBy)
		}
		less = cmp
		switch strings.ToLower(f.SortOrder) {
		case "", "asc":
		case "desc":
			less = func(a, b *Contact) bool { return cmp(b, a) }
		default:
			return nil, fmt.Errorf("contacts: unknown sort order %q", f.SortOrder)
		}
	}

	s.mu.Lock()
	results := s.listLocked()
	s.mu.Unlock()

	if f.Search != "" {
		results = keep(results, func(c *Contact) bool { return matchesText(c, f.Search) })
	}
	if len(f.Tags) > 0 {
		results = keep(results, func(c *Contact) bool { return hasAnyTag(c, f.Tags) })
	}
	if f.IsFavorite != nil {
		want := *f.IsFavorite
		results = keep(results, func(c *Contact) bool { return c.IsFavorite == want })
	}
	if less != nil {
		sort.SliceStable(results, func(i, j int) bool { return less(&results[i], &results[j]) })
	}
	return results, nil
}

// matchesText is a case-insensitive substring match on the name, email and
// company fields, or a case-sensitive one on the phone as typed.
func matchesText(c *Contact, query string) bool {
	q := strings.ToLower(query)
	for _, field := range []string{c.FirstName, c.LastName, c.Email, c.Company} {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return strings.Contains(c.Phone, query)
}

func hasAnyTag(c *Contact, tags []string) bool {
	for _, want := range tags {
		for _, have := range c.Tags {
			if have == want {
				return true
			}
		}
	}
	return false
}

func keep(in []Contact, pred func(c *Contact) bool) []Contact {
	out := in[:0]
	for i := range in {
		if pred(&in[i]) {
			out = append(out, in[i])
		}
	}
	return out
}

func byFold(field func(c *Contact) string) func(a, b *Contact) bool {
	return func(a, b *Contact) bool {
		return strings.ToLower(field(a)) < strings.ToLower(field(b))
	}
}

var comparators = map[string]func(a, b *Contact) bool{
	SortFirstName: byFold(func(c *Contact) string { return c.FirstName }),
	SortLastName:  byFold(func(c *Contact) string { return c.LastName }),
	SortEmail:     byFold(func(c *Contact) string { return c.Email }),
	SortPhone:     byFold(func(c *Contact) string { return c.Phone }),
	SortCompany:   byFold(func(c *Contact) string { return c.Company }),
	SortJobTitle:  byFold(func(c *Contact) string { return c.JobTitle }),
	SortCreatedAt: func(a, b *Contact) bool { return a.CreatedAt.Before(b.CreatedAt) },
	SortUpdatedAt: func(a, b *Contact) bool { return a.UpdatedAt.Before(b.UpdatedAt) },
}

// ─── Stats ───────────────────────────────────────────────────────────────────

type Stats struct {
	Total     int            `json:"total"`
	Favorites int            `json:"favorites"`
	WithEmail int            `json:"withEmail"`
	WithPhone int            `json:"withPhone"`
	ByTag     map[string]int `json:"byTag"`
}

func (s *Store) Stats(_ context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &Stats{ByTag: make(map[string]int)}
	for _, c := range s.contacts {
		stats.Total++
		if c.IsFavorite {
			stats.Favorites++
		}
		if c.Email != "" {
			stats.WithEmail++
		}
		if c.Phone != "" {
			stats.WithPhone++
		}
		for _, tag := range c.Tags {
			stats.ByTag[tag]++
		}
	}
	return stats, nil
}
