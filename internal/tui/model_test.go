package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/AbduSami-bK/contact-manager/internal/backup"
	"github.com/AbduSami-bK/contact-manager/internal/setup"
	"github.com/AbduSami-bK/contact-manager/internal/slot"
	"github.com/AbduSami-bK/contact-manager/internal/store"
)

func newTestModel(t *testing.T) (Model, *store.Store) {
	t.Helper()
	archive, err := backup.NewDir(t.TempDir(), "contacts", "")
	if err != nil {
		t.Fatalf("new archive: %v", err)
	}
	cfg := store.DefaultConfig()
	cfg.Archive = archive

	ctx := context.Background()
	s, err := store.New(ctx, slot.NewMemory("contacts"), cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	for _, in := range []store.ContactInput{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Tags: []string{"math"}},
		{FirstName: "Grace", LastName: "Hopper", Phone: "+1 555 0100", Company: "Navy"},
	} {
		if _, err := s.Create(ctx, in); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	m := New(ctx, s, "test")
	m.Height = 40
	m.Width = 120
	return m, s
}

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(keyMsg(k))
		m = next.(Model)
	}
	return m, cmd
}

// run executes cmd and feeds its message back into the model.
func run(t *testing.T, m Model, cmd tea.Cmd) (Model, tea.Cmd) {
	t.Helper()
	if cmd == nil {
		t.Fatalf("expected a command")
	}
	next, out := m.Update(cmd())
	return next.(Model), out
}

func TestDashboardShowsStats(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = run(t, m, loadStats(m.ctx, m.store))
	if m.Stats == nil || m.Stats.Total != 2 {
		t.Fatalf("expected 2 contacts in stats, got %#v", m.Stats)
	}

	view := m.View()
	for _, want := range []string{"contacts", "favorites", "math", "Search contacts"} {
		if !strings.Contains(view, want) {
			t.Fatalf("dashboard view missing %q", want)
		}
	}
}

func TestContactListDetailFavoriteAndDelete(t *testing.T) {
	m, s := newTestModel(t)

	m, cmd := press(t, m, "j", "enter")
	if m.Screen != ScreenContacts {
		t.Fatalf("expected contacts screen, got %v", m.Screen)
	}
	m, _ = run(t, m, cmd)
	if len(m.Contacts) != 2 || m.Contacts[0].LastName != "Hopper" {
		t.Fatalf("expected contacts sorted by last name, got %#v", m.Contacts)
	}
	if view := m.View(); !strings.Contains(view, "Grace Hopper") || !strings.Contains(view, "All Contacts") {
		t.Fatalf("unexpected list view:\n%s", view)
	}

	m, cmd = press(t, m, "enter")
	m, _ = run(t, m, cmd)
	if m.Screen != ScreenContactDetail || m.SelectedContact == nil || m.SelectedContact.FirstName != "Grace" {
		t.Fatalf("expected Grace detail, got screen %v contact %#v", m.Screen, m.SelectedContact)
	}

	m, cmd = press(t, m, "f")
	m, _ = run(t, m, cmd)
	if !m.SelectedContact.IsFavorite {
		t.Fatalf("expected favorite after f")
	}
	if !strings.Contains(m.View(), "★") {
		t.Fatalf("expected star in detail view")
	}

	m, _ = press(t, m, "d")
	if !m.ConfirmDelete {
		t.Fatalf("expected delete confirmation")
	}
	m, cmd = press(t, m, "n")
	if m.ConfirmDelete || cmd != nil {
		t.Fatalf("expected cancel on non-y key")
	}

	id := m.SelectedContact.ID
	m, _ = press(t, m, "d")
	m, cmd = press(t, m, "y")
	m, cmd = run(t, m, cmd)
	if m.Screen != ScreenContacts || m.StatusMsg != "Contact deleted" {
		t.Fatalf("expected back on list with status, got %v %q", m.Screen, m.StatusMsg)
	}
	m, _ = run(t, m, cmd)
	if len(m.Contacts) != 1 {
		t.Fatalf("expected refreshed list with 1 contact, got %d", len(m.Contacts))
	}
	if _, err := s.Get(context.Background(), id); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected contact gone, got %v", err)
	}
}

func TestFavoritesMenuAndListToggle(t *testing.T) {
	m, _ := newTestModel(t)

	m, cmd := press(t, m, "j", "j", "enter")
	m, _ = run(t, m, cmd)
	if m.ListTitle != "Favorites" || len(m.Contacts) != 0 {
		t.Fatalf("expected empty favorites, got %q %#v", m.ListTitle, m.Contacts)
	}
	if !strings.Contains(m.View(), "No contacts yet") {
		t.Fatalf("expected empty state")
	}

	m, cmd = press(t, m, "esc")
	m, _ = run(t, m, cmd)
	m.Cursor = 1
	m, cmd = press(t, m, "enter")
	m, _ = run(t, m, cmd)

	m, cmd = press(t, m, "f")
	m, _ = run(t, m, cmd)
	if m.Screen != ScreenContacts || !m.Contacts[0].IsFavorite {
		t.Fatalf("expected list toggle to stay on list, got %v %#v", m.Screen, m.Contacts[0])
	}
}

func TestSearchFlow(t *testing.T) {
	m, _ := newTestModel(t)

	m, _ = press(t, m, "/")
	if m.Screen != ScreenSearch || !m.SearchInput.Focused() {
		t.Fatalf("expected focused search screen")
	}
	m, _ = press(t, m, "h", "o", "p")
	if got := m.SearchInput.Value(); got != "hop" {
		t.Fatalf("expected typed query, got %q", got)
	}

	m, cmd := press(t, m, "enter")
	m, _ = run(t, m, cmd)
	if m.Screen != ScreenSearchResults || len(m.SearchResults) != 1 || m.SearchResults[0].LastName != "Hopper" {
		t.Fatalf("unexpected results: %#v", m.SearchResults)
	}
	if !strings.Contains(m.View(), `"hop"`) {
		t.Fatalf("expected query in header")
	}

	m, _ = press(t, m, "esc")
	if m.Screen != ScreenDashboard {
		t.Fatalf("expected dashboard after esc, got %v", m.Screen)
	}
}

func TestBackupsCreateAndRestore(t *testing.T) {
	m, s := newTestModel(t)

	m, cmd := press(t, m, "j", "j", "j", "enter")
	if m.Screen != ScreenBackups {
		t.Fatalf("expected backups screen, got %v", m.Screen)
	}
	m, _ = run(t, m, cmd)
	if len(m.Backups) != 0 {
		t.Fatalf("expected no backups, got %d", len(m.Backups))
	}

	m, cmd = press(t, m, "b")
	m, cmd = run(t, m, cmd)
	if !strings.HasPrefix(m.StatusMsg, "Created ") {
		t.Fatalf("expected created status, got %q", m.StatusMsg)
	}
	m, _ = run(t, m, cmd)
	if len(m.Backups) != 1 {
		t.Fatalf("expected one backup, got %d", len(m.Backups))
	}

	if err := s.ClearAll(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}

	m, _ = press(t, m, "enter")
	if !m.ConfirmRestore || !strings.Contains(m.View(), "Replace all contacts") {
		t.Fatalf("expected restore confirmation")
	}
	m, cmd = press(t, m, "y")
	m, _ = run(t, m, cmd)
	if !strings.HasPrefix(m.StatusMsg, "Restored ") {
		t.Fatalf("expected restored status, got %q (err %q)", m.StatusMsg, m.ErrorMsg)
	}

	all, err := s.List(context.Background())
	if err != nil || len(all) != 2 {
		t.Fatalf("expected 2 contacts after restore, got %d (%v)", len(all), err)
	}
}

func TestSetupScreenInstallsTarget(t *testing.T) {
	m, _ := newTestModel(t)

	old := installTargetFn
	t.Cleanup(func() { installTargetFn = old })
	var installed string
	installTargetFn = func(name string) (*setup.Result, error) {
		installed = name
		return &setup.Result{Target: name, Destination: "/tmp/host.json", Files: 1}, nil
	}

	m, _ = press(t, m, "j", "j", "j", "j", "enter")
	if m.Screen != ScreenSetup || len(m.SetupTargets) == 0 {
		t.Fatalf("expected setup screen with targets")
	}

	m, cmd := press(t, m, "enter")
	if !m.SetupInstalling || cmd == nil {
		t.Fatalf("expected install to start")
	}
	if !strings.Contains(m.View(), "Installing") {
		t.Fatalf("expected spinner view")
	}

	m, _ = run(t, m, installTarget(m.SetupInstallingName))
	if installed != m.SetupTargets[0].Name {
		t.Fatalf("expected %s installed, got %q", m.SetupTargets[0].Name, installed)
	}
	if !m.SetupDone || !strings.Contains(m.View(), "Configured "+installed) {
		t.Fatalf("expected success view:\n%s", m.View())
	}

	installTargetFn = func(string) (*setup.Result, error) { return nil, errors.New("no extension id") }
	m, _ = press(t, m, "enter")
	m, _ = press(t, m, "j", "j", "j", "j", "enter")
	m, _ = run(t, m, installTarget("chrome"))
	if m.SetupError != "no extension id" || !strings.Contains(m.View(), "Installation failed") {
		t.Fatalf("expected failure view, got %q", m.SetupError)
	}
}
