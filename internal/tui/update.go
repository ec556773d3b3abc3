package tui

import (
	"github.com/AbduSami-bK/contact-manager/internal/setup"
	"github.com/AbduSami-bK/contact-manager/internal/store"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// ─── Update ──────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// Focused search input takes most keys
		if m.Screen == ScreenSearch && m.SearchInput.Focused() {
			return m.handleSearchInputKeys(msg)
		}
		return m.handleKeyPress(msg.String())

	// ─── Data loaded messages ────────────────────────────────────────────
	case statsLoadedMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Stats = msg.stats
		return m, nil

	case searchResultsMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.SearchResults = msg.results
		m.SearchQuery = msg.query
		m.Screen = ScreenSearchResults
		m.Cursor = 0
		m.Scroll = 0
		return m, nil

	case contactsLoadedMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Contacts = msg.contacts
		m.ListTitle = msg.title
		if m.Cursor >= len(m.Contacts) {
			m.Cursor = max(len(m.Contacts)-1, 0)
		}
		return m, nil

	case contactDetailMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.SelectedContact = msg.contact
		m.Screen = ScreenContactDetail
		return m, nil

	case contactDeletedMsg:
		m.ConfirmDelete = false
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.StatusMsg = "Contact deleted"
		m.SelectedContact = nil
		m.Screen = m.PrevScreen
		m.DetailScroll = 0
		return m, m.refreshScreen(m.PrevScreen)

	case backupsLoadedMsg:
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		m.Backups = msg.backups
		if m.Cursor >= len(m.Backups) {
			m.Cursor = max(len(m.Backups)-1, 0)
		}
		return m, nil

	case backupDoneMsg:
		m.ConfirmRestore = false
		if msg.err != nil {
			m.ErrorMsg = msg.err.Error()
			return m, nil
		}
		if msg.restored {
			m.StatusMsg = "Restored " + msg.name
		} else {
			m.StatusMsg = "Created " + msg.name
		}
		return m, loadBackups(m.ctx, m.store)

	case setupInstallMsg:
		m.SetupInstalling = false
		m.SetupDone = true
		if msg.err != nil {
			m.SetupError = msg.err.Error()
			return m, nil
		}
		m.SetupResult = msg.result
		m.SetupError = ""
		return m, nil

	case spinner.TickMsg:
		if m.SetupInstalling {
			var cmd tea.Cmd
			m.SetupSpinner, cmd = m.SetupSpinner.Update(msg)
			return m, cmd
		}
		return m, nil
	}

	return m, nil
}

// ─── Key Press Router ────────────────────────────────────────────────────────

func (m Model) handleKeyPress(key string) (tea.Model, tea.Cmd) {
	m.ErrorMsg = ""
	m.StatusMsg = ""

	switch m.Screen {
	case ScreenDashboard:
		return m.handleDashboardKeys(key)
	case ScreenSearch:
		return m.handleSearchKeys(key)
	case ScreenSearchResults:
		return m.handleListKeys(key, m.SearchResults)
	case ScreenContacts:
		return m.handleListKeys(key, m.Contacts)
	case ScreenContactDetail:
		return m.handleContactDetailKeys(key)
	case ScreenBackups:
		return m.handleBackupsKeys(key)
	case ScreenSetup:
		return m.handleSetupKeys(key)
	}
	return m, nil
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

var dashboardMenuItems = []string{
	"Search contacts",
	"All contacts",
	"Favorites",
	"Backups",
	"Connect a browser or agent",
	"Quit",
}

func (m Model) handleDashboardKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(dashboardMenuItems)-1 {
			m.Cursor++
		}
	case "enter", " ":
		return m.handleDashboardSelection()
	case "s", "/":
		return m.openSearch(ScreenDashboard), nil
	case "q":
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) handleDashboardSelection() (tea.Model, tea.Cmd) {
	switch m.Cursor {
	case 0:
		return m.openSearch(ScreenDashboard), nil
	case 1, 2:
		load := loadContacts(m.ctx, m.store)
		if m.Cursor == 2 {
			load = loadFavorites(m.ctx, m.store)
		}
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenContacts
		m.Contacts = nil
		m.Cursor = 0
		m.Scroll = 0
		return m, load
	case 3:
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenBackups
		m.Cursor = 0
		m.ConfirmRestore = false
		return m, loadBackups(m.ctx, m.store)
	case 4:
		m.PrevScreen = ScreenDashboard
		m.Screen = ScreenSetup
		m.Cursor = 0
		m.SetupTargets = setup.SupportedTargets()
		m.SetupResult = nil
		m.SetupError = ""
		m.SetupDone = false
		m.SetupInstalling = false
		m.SetupInstallingName = ""
		return m, nil
	case 5:
		return m, tea.Quit
	}
	return m, nil
}

func (m Model) openSearch(from Screen) Model {
	m.PrevScreen = from
	m.Screen = ScreenSearch
	m.Cursor = 0
	m.SearchInput.SetValue("")
	m.SearchInput.Focus()
	return m
}

// ─── Search Input ────────────────────────────────────────────────────────────

func (m Model) handleSearchInputKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		// Empty query lists everyone
		m.SearchInput.Blur()
		return m, searchContacts(m.ctx, m.store, m.SearchInput.Value())
	case "esc":
		m.SearchInput.Blur()
		m.Screen = ScreenDashboard
		m.Cursor = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.SearchInput, cmd = m.SearchInput.Update(msg)
	return m, cmd
}

func (m Model) handleSearchKeys(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		return m, nil
	case "i", "/":
		m.SearchInput.Focus()
		return m, nil
	}
	return m, nil
}

// ─── Contact Lists ───────────────────────────────────────────────────────────

// handleListKeys drives both the search results and the contacts screens.
func (m Model) handleListKeys(key string, items []store.Contact) (tea.Model, tea.Cmd) {
	visibleItems := m.listCapacity()

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
			if m.Cursor < m.Scroll {
				m.Scroll = m.Cursor
			}
		}
	case "down", "j":
		if m.Cursor < len(items)-1 {
			m.Cursor++
			if m.Cursor >= m.Scroll+visibleItems {
				m.Scroll = m.Cursor - visibleItems + 1
			}
		}
	case "enter":
		if m.Cursor < len(items) {
			m.PrevScreen = m.Screen
			m.DetailScroll = 0
			m.ConfirmDelete = false
			return m, loadContactDetail(m.ctx, m.store, items[m.Cursor].ID)
		}
	case "f":
		if m.Cursor < len(items) {
			return m, toggleAndReload(m.ctx, m.store, items[m.Cursor].ID, m.refreshScreen(m.Screen))
		}
	case "/", "s":
		return m.openSearch(m.Screen), nil
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		m.Scroll = 0
		return m, loadStats(m.ctx, m.store)
	}
	return m, nil
}

// listCapacity is how many two-line contact rows fit on screen.
func (m Model) listCapacity() int {
	n := (m.Height - 10) / 2
	if n < 3 {
		n = 3
	}
	return n
}

// ─── Contact Detail ──────────────────────────────────────────────────────────

func (m Model) handleContactDetailKeys(key string) (tea.Model, tea.Cmd) {
	if m.SelectedContact == nil {
		m.Screen = m.PrevScreen
		return m, m.refreshScreen(m.PrevScreen)
	}
	id := m.SelectedContact.ID

	if m.ConfirmDelete {
		m.ConfirmDelete = false
		if key == "y" {
			return m, deleteContact(m.ctx, m.store, id)
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.DetailScroll > 0 {
			m.DetailScroll--
		}
	case "down", "j":
		m.DetailScroll++
	case "f":
		return m, toggleFavorite(m.ctx, m.store, id)
	case "d", "x":
		m.ConfirmDelete = true
	case "esc", "q":
		m.Screen = m.PrevScreen
		m.DetailScroll = 0
		return m, m.refreshScreen(m.PrevScreen)
	}
	return m, nil
}

// ─── Backups ─────────────────────────────────────────────────────────────────

func (m Model) handleBackupsKeys(key string) (tea.Model, tea.Cmd) {
	if m.ConfirmRestore {
		m.ConfirmRestore = false
		if key == "y" && m.Cursor < len(m.Backups) {
			return m, restoreBackup(m.ctx, m.store, m.Backups[m.Cursor].Name)
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Backups)-1 {
			m.Cursor++
		}
	case "b", "n":
		return m, createBackup(m.ctx, m.store)
	case "enter", "r":
		if m.Cursor < len(m.Backups) {
			m.ConfirmRestore = true
		}
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		return m, loadStats(m.ctx, m.store)
	}
	return m, nil
}

// ─── Setup ───────────────────────────────────────────────────────────────────

func (m Model) handleSetupKeys(key string) (tea.Model, tea.Cmd) {
	if m.SetupInstalling {
		return m, nil
	}

	if m.SetupDone {
		switch key {
		case "esc", "q", "enter":
			m.Screen = ScreenDashboard
			m.Cursor = 0
			m.SetupDone = false
			m.SetupResult = nil
			m.SetupError = ""
			return m, loadStats(m.ctx, m.store)
		}
		return m, nil
	}

	switch key {
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.SetupTargets)-1 {
			m.Cursor++
		}
	case "enter":
		if m.Cursor < len(m.SetupTargets) {
			target := m.SetupTargets[m.Cursor]
			m.SetupInstalling = true
			m.SetupInstallingName = target.Name
			return m, tea.Batch(m.SetupSpinner.Tick, installTarget(target.Name))
		}
	case "esc", "q":
		m.Screen = ScreenDashboard
		m.Cursor = 0
		return m, loadStats(m.ctx, m.store)
	}
	return m, nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

// refreshScreen returns the data-loading Cmd for a screen so lists show
// fresh data after navigating back.
func (m Model) refreshScreen(screen Screen) tea.Cmd {
	switch screen {
	case ScreenDashboard:
		return loadStats(m.ctx, m.store)
	case ScreenContacts:
		if m.ListTitle == "Favorites" {
			return loadFavorites(m.ctx, m.store)
		}
		return loadContacts(m.ctx, m.store)
	case ScreenSearchResults:
		return searchContacts(m.ctx, m.store, m.SearchQuery)
	default:
		return nil
	}
}
