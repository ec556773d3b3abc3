// Package tui implements the Bubbletea terminal UI for contact-manager.
//
// - Screen constants as iota
// - Single Model struct holds ALL state
// - Update() with type switch
// - Per-screen key handlers returning (tea.Model, tea.Cmd)
// - Vim keys (j/k) for navigation
// - PrevScreen for back navigation
package tui

import (
	"context"

	"github.com/AbduSami-bK/contact-manager/internal/backup"
	"github.com/AbduSami-bK/contact-manager/internal/setup"
	"github.com/AbduSami-bK/contact-manager/internal/store"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ─── Screens ─────────────────────────────────────────────────────────────────

type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenSearch
	ScreenSearchResults
	ScreenContacts
	ScreenContactDetail
	ScreenBackups
	ScreenSetup
)

// ─── Custom Messages ─────────────────────────────────────────────────────────

type statsLoadedMsg struct {
	stats *store.Stats
	err   error
}

type searchResultsMsg struct {
	results []store.Contact
	query   string
	err     error
}

type contactsLoadedMsg struct {
	contacts []store.Contact
	title    string
	err      error
}

type contactDetailMsg struct {
	contact *store.Contact
	err     error
}

type contactDeletedMsg struct {
	id  string
	err error
}

type backupsLoadedMsg struct {
	backups []backup.Entry
	err     error
}

type backupDoneMsg struct {
	name     string
	restored bool
	err      error
}

type setupInstallMsg struct {
	result *setup.Result
	err    error
}

// ─── Model ───────────────────────────────────────────────────────────────────

type Model struct {
	ctx        context.Context
	store      *store.Store
	Version    string
	Screen     Screen
	PrevScreen Screen
	Width      int
	Height     int
	Cursor     int
	Scroll     int

	// Status line
	ErrorMsg  string
	StatusMsg string

	// Dashboard
	Stats *store.Stats

	// Search
	SearchInput   textinput.Model
	SearchQuery   string
	SearchResults []store.Contact

	// Contact list (all or favorites)
	ListTitle string
	Contacts  []store.Contact

	// Contact detail
	SelectedContact *store.Contact
	DetailScroll    int
	ConfirmDelete   bool

	// Backups
	Backups        []backup.Entry
	ConfirmRestore bool

	// Setup
	SetupTargets        []setup.Target
	SetupResult         *setup.Result
	SetupError          string
	SetupDone           bool
	SetupInstalling     bool
	SetupInstallingName string
	SetupSpinner        spinner.Model
}

// New creates a new TUI model connected to the given store.
func New(ctx context.Context, s *store.Store, version string) Model {
	ti := textinput.New()
	ti.Placeholder = "Search name, email, phone, company, tags..."
	ti.CharLimit = 256
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(colorAccent)

	return Model{
		ctx:          ctx,
		store:        s,
		Version:      version,
		Screen:       ScreenDashboard,
		SearchInput:  ti,
		SetupSpinner: sp,
	}
}

// Init loads the dashboard stats.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		loadStats(m.ctx, m.store),
		tea.EnterAltScreen,
	)
}

// ─── Commands (data loading) ─────────────────────────────────────────────────

func loadStats(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		stats, err := s.Stats(ctx)
		return statsLoadedMsg{stats: stats, err: err}
	}
}

func searchContacts(ctx context.Context, s *store.Store, query string) tea.Cmd {
	return func() tea.Msg {
		results, err := s.Search(ctx, store.SearchFilters{Search: query, SortBy: "lastName"})
		return searchResultsMsg{results: results, query: query, err: err}
	}
}

func loadContacts(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		contacts, err := s.Search(ctx, store.SearchFilters{SortBy: "lastName"})
		return contactsLoadedMsg{contacts: contacts, title: "All Contacts", err: err}
	}
}

func loadFavorites(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		fav := true
		contacts, err := s.Search(ctx, store.SearchFilters{IsFavorite: &fav, SortBy: "lastName"})
		return contactsLoadedMsg{contacts: contacts, title: "Favorites", err: err}
	}
}

func loadContactDetail(ctx context.Context, s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		c, err := s.Get(ctx, id)
		return contactDetailMsg{contact: c, err: err}
	}
}

func toggleFavorite(ctx context.Context, s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		c, err := s.ToggleFavorite(ctx, id)
		return contactDetailMsg{contact: c, err: err}
	}
}

// toggleAndReload flips a favorite from a list and reloads that list in place.
func toggleAndReload(ctx context.Context, s *store.Store, id string, reload tea.Cmd) tea.Cmd {
	return func() tea.Msg {
		if _, err := s.ToggleFavorite(ctx, id); err != nil {
			return contactDetailMsg{err: err}
		}
		return reload()
	}
}

func deleteContact(ctx context.Context, s *store.Store, id string) tea.Cmd {
	return func() tea.Msg {
		_, err := s.Delete(ctx, id)
		return contactDeletedMsg{id: id, err: err}
	}
}

func loadBackups(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		entries, err := s.ListBackups(ctx)
		return backupsLoadedMsg{backups: entries, err: err}
	}
}

func createBackup(ctx context.Context, s *store.Store) tea.Cmd {
	return func() tea.Msg {
		name, err := s.Backup(ctx)
		return backupDoneMsg{name: name, err: err}
	}
}

func restoreBackup(ctx context.Context, s *store.Store, name string) tea.Cmd {
	return func() tea.Msg {
		err := s.Restore(ctx, name)
		return backupDoneMsg{name: name, restored: true, err: err}
	}
}

func installTarget(name string) tea.Cmd {
	return func() tea.Msg {
		result, err := installTargetFn(name)
		return setupInstallMsg{result: result, err: err}
	}
}

var installTargetFn = setup.Install
