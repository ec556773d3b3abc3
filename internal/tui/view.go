package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/AbduSami-bK/contact-manager/internal/store"
)

// ─── Logo ────────────────────────────────────────────────────────────────────

func renderLogo(version string) string {
	logoText := []string{
		`  ___ ___  _  _ _____ _   ___ _____ ___ `,
		` / __/ _ \| \| |_   _/_\ / __|_   _/ __|`,
		`| (_| (_) | .' | | |/ _ \ (__  | | \__ \`,
		` \___\___/|_|\_| |_/_/ \_\___| |_| |___/`,
	}

	frameStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorOverlay).
		Padding(0, 1).
		MarginBottom(1)

	textStyle := lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	taglineStyle := lipgloss.NewStyle().Foreground(colorSubtext).Italic(true)

	var b strings.Builder
	for _, line := range logoText {
		b.WriteString(" " + textStyle.Render(line) + "\n")
	}
	b.WriteString("\n")
	b.WriteString(taglineStyle.Render(" > contact-manager " + version + ": your address book, local first"))

	return frameStyle.Render(b.String()) + "\n"
}

// ─── View (main router) ─────────────────────────────────────────────────────

func (m Model) View() string {
	var content string

	switch m.Screen {
	case ScreenDashboard:
		content = m.viewDashboard()
	case ScreenSearch:
		content = m.viewSearch()
	case ScreenSearchResults:
		content = m.viewSearchResults()
	case ScreenContacts:
		content = m.viewContacts()
	case ScreenContactDetail:
		content = m.viewContactDetail()
	case ScreenBackups:
		content = m.viewBackups()
	case ScreenSetup:
		content = m.viewSetup()
	default:
		content = "Unknown screen"
	}

	if m.StatusMsg != "" {
		content += "\n" + statusStyle.Render(m.StatusMsg)
	}
	if m.ErrorMsg != "" {
		content += "\n" + errorStyle.Render("Error: "+m.ErrorMsg)
	}

	return appStyle.Render(content)
}

// ─── Dashboard ───────────────────────────────────────────────────────────────

func (m Model) viewDashboard() string {
	var b strings.Builder

	b.WriteString(renderLogo(m.Version))
	b.WriteString("\n")

	if m.Stats != nil {
		statsContent := fmt.Sprintf(
			"%s %s\n%s %s\n%s %s\n%s %s",
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.Total)),
			statLabelStyle.Render("contacts"),
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.Favorites)),
			statLabelStyle.Render("favorites"),
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.WithEmail)),
			statLabelStyle.Render("with email"),
			statNumberStyle.Render(fmt.Sprintf("%d", m.Stats.WithPhone)),
			statLabelStyle.Render("with phone"),
		)
		b.WriteString(statCardStyle.Render(statsContent))
		b.WriteString("\n")

		if len(m.Stats.ByTag) > 0 {
			b.WriteString(titleStyle.Render("  Tags"))
			b.WriteString("\n")

			tags := topTags(m.Stats.ByTag)
			limit := 5
			for i, tag := range tags {
				if i >= limit {
					break
				}
				b.WriteString(listItemStyle.Render(fmt.Sprintf("• %s %s", tagStyle.Render(tag), timestampStyle.Render(fmt.Sprintf("(%d)", m.Stats.ByTag[tag])))))
				b.WriteString("\n")
			}
			if len(tags) > limit {
				b.WriteString(fmt.Sprintf("    %s\n", timestampStyle.Render(fmt.Sprintf("...and %d more tags", len(tags)-limit))))
			}
			b.WriteString("\n")
		}
	} else {
		b.WriteString(statCardStyle.Render("Loading stats..."))
		b.WriteString("\n")
	}

	b.WriteString(titleStyle.Render("  Actions"))
	b.WriteString("\n")

	for i, item := range dashboardMenuItems {
		if i == m.Cursor {
			b.WriteString(menuSelectedStyle.Render("▸ " + item))
		} else {
			b.WriteString(menuItemStyle.Render("  " + item))
		}
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter select • s search • q quit"))

	return b.String()
}

// topTags orders tags by count, then name.
func topTags(byTag map[string]int) []string {
	tags := make([]string, 0, len(byTag))
	for tag := range byTag {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if byTag[tags[i]] != byTag[tags[j]] {
			return byTag[tags[i]] > byTag[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}

// ─── Search ──────────────────────────────────────────────────────────────────

func (m Model) viewSearch() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Search Contacts"))
	b.WriteString("\n\n")

	b.WriteString(searchInputStyle.Render(m.SearchInput.View()))
	b.WriteString("\n\n")

	b.WriteString(helpStyle.Render("  Type a query and press enter • esc go back"))

	return b.String()
}

// ─── Search Results ──────────────────────────────────────────────────────────

func (m Model) viewSearchResults() string {
	count := len(m.SearchResults)
	header := fmt.Sprintf("  Search: %q: %d result", m.SearchQuery, count)
	if count != 1 {
		header += "s"
	}
	return m.renderContactList(header, m.SearchResults,
		"No contacts match. Try a different query.",
		"  j/k navigate • enter detail • f favorite • / search • esc back")
}

// ─── Contacts ────────────────────────────────────────────────────────────────

func (m Model) viewContacts() string {
	title := m.ListTitle
	if title == "" {
		title = "Contacts"
	}
	return m.renderContactList(fmt.Sprintf("  %s (%d)", title, len(m.Contacts)), m.Contacts,
		"No contacts yet. Add one with `contact-manager add` or the browser extension.",
		"  j/k navigate • enter detail • f favorite • / search • esc back")
}

// ─── Contact Detail ──────────────────────────────────────────────────────────

func (m Model) viewContactDetail() string {
	c := m.SelectedContact
	if c == nil {
		return noResultsStyle.Render("Loading...")
	}

	var b strings.Builder

	name := fullName(*c)
	if c.IsFavorite {
		name = favoriteStyle.Render("★ ") + name
	}
	b.WriteString(headerStyle.Render("  " + name))
	b.WriteString("\n")

	var lines []string
	field := func(label, value string) {
		if value != "" {
			lines = append(lines, detailLabelStyle.Render(label+":")+detailValueStyle.Render(value))
		}
	}
	field("Email", c.Email)
	field("Phone", c.Phone)
	field("Company", c.Company)
	field("Job title", c.JobTitle)
	if c.Address != nil {
		field("Street", c.Address.Street)
		field("City", strings.TrimSpace(strings.Join(nonEmpty(c.Address.City, c.Address.State, c.Address.ZipCode), ", ")))
		field("Country", c.Address.Country)
	}
	if len(c.Tags) > 0 {
		lines = append(lines, detailLabelStyle.Render("Tags:")+tagStyle.Render(strings.Join(c.Tags, ", ")))
	}
	field("Avatar", c.Avatar)
	field("Created", c.CreatedAt.Format("2006-01-02 15:04"))
	field("Updated", c.UpdatedAt.Format("2006-01-02 15:04"))
	field("ID", c.ID)

	if c.Notes != "" {
		lines = append(lines, "", sectionHeadingStyle.Render("  Notes"))
		for _, l := range strings.Split(c.Notes, "\n") {
			lines = append(lines, detailContentStyle.Render(l))
		}
	}

	scroll := m.DetailScroll
	if scroll > len(lines)-1 {
		scroll = max(len(lines)-1, 0)
	}
	for _, l := range lines[scroll:] {
		b.WriteString(l)
		b.WriteString("\n")
	}

	if m.ConfirmDelete {
		b.WriteString("\n" + confirmStyle.Render("Delete "+fullName(*c)+"? y to confirm, any other key cancels"))
	}

	b.WriteString(helpStyle.Render("\n  j/k scroll • f favorite • d delete • esc back"))

	return b.String()
}

// ─── Backups ─────────────────────────────────────────────────────────────────

func (m Model) viewBackups() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("  Backups (%d)", len(m.Backups))))
	b.WriteString("\n")

	if len(m.Backups) == 0 {
		b.WriteString(noResultsStyle.Render("No backups yet. Press b to create one."))
		b.WriteString("\n")
	}

	for i, e := range m.Backups {
		cursor, style := "  ", listItemStyle
		if i == m.Cursor {
			cursor, style = "▸ ", listSelectedStyle
		}
		lock := ""
		if e.Encrypted {
			lock = " " + tagStyle.Render("[encrypted]")
		}
		b.WriteString(fmt.Sprintf("%s%s  %s  %s%s\n",
			cursor,
			style.Render(e.Name),
			timestampStyle.Render(e.CreatedAt.Format("2006-01-02 15:04:05")),
			timestampStyle.Render(humanSize(e.Size)),
			lock))
	}

	if m.ConfirmRestore && m.Cursor < len(m.Backups) {
		b.WriteString("\n" + confirmStyle.Render("Replace all contacts with "+m.Backups[m.Cursor].Name+"? y to confirm"))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • b new backup • enter restore • esc back"))

	return b.String()
}

func humanSize(n int64) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// ─── Setup ───────────────────────────────────────────────────────────────────

func (m Model) viewSetup() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("  Connect contact-manager"))
	b.WriteString("\n")

	if m.SetupInstalling {
		b.WriteString(fmt.Sprintf("  %s Installing %s...\n",
			m.SetupSpinner.View(),
			lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Render(m.SetupInstallingName)))
		return b.String()
	}

	if m.SetupDone {
		if m.SetupError != "" {
			b.WriteString(errorStyle.Render("  ✗ Installation failed: " + m.SetupError))
			b.WriteString("\n\n")
		} else if m.SetupResult != nil {
			successMsg := "Configured " + m.SetupResult.Target
			if m.SetupResult.Files > 0 {
				successMsg += fmt.Sprintf(" (%d files)", m.SetupResult.Files)
			}
			ok := lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
			b.WriteString(fmt.Sprintf("  %s %s\n", ok.Render("✓"), ok.Render(successMsg)))
			b.WriteString(fmt.Sprintf("  %s %s\n\n",
				detailLabelStyle.Render("Location:"),
				companyStyle.Render(m.SetupResult.Destination)))

			b.WriteString(sectionHeadingStyle.Render("  Next Steps"))
			b.WriteString("\n")
			for i, step := range nextSteps(m.SetupResult.Target) {
				b.WriteString(detailContentStyle.Render(fmt.Sprintf("%d. %s", i+1, step)))
				b.WriteString("\n")
			}
		}

		b.WriteString(helpStyle.Render("\n  enter/esc back to dashboard"))
		return b.String()
	}

	b.WriteString(titleStyle.Render("  Select a browser or agent"))
	b.WriteString("\n\n")

	for i, t := range m.SetupTargets {
		if i == m.Cursor {
			b.WriteString(menuSelectedStyle.Render("▸ " + t.Description))
		} else {
			b.WriteString(menuItemStyle.Render("  " + t.Description))
		}
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("      %s %s\n\n",
			detailLabelStyle.Render("Install to:"),
			timestampStyle.Render(t.InstallDir)))
	}

	b.WriteString(helpStyle.Render("\n  j/k navigate • enter install • esc back"))

	return b.String()
}

func nextSteps(target string) []string {
	switch target {
	case "claude-code", "gemini-cli", "codex":
		return []string{
			"Restart the agent so it picks up the MCP server",
			"Ask it to search your contacts to check the connection",
		}
	default:
		return []string{
			"Restart the browser",
			"Open the extension popup: it now talks to the local store",
		}
	}
}

// ─── Shared Renderers ────────────────────────────────────────────────────────

func (m Model) renderContactList(header string, items []store.Contact, empty, help string) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(header))
	b.WriteString("\n")

	if len(items) == 0 {
		b.WriteString(noResultsStyle.Render(empty))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("  / search • esc back"))
		return b.String()
	}

	visibleItems := m.listCapacity()
	end := m.Scroll + visibleItems
	if end > len(items) {
		end = len(items)
	}

	for i := m.Scroll; i < end; i++ {
		b.WriteString(m.renderContactListItem(i, items[i]))
	}

	if len(items) > visibleItems {
		b.WriteString(fmt.Sprintf("\n  %s",
			timestampStyle.Render(fmt.Sprintf("showing %d-%d of %d", m.Scroll+1, end, len(items)))))
	}

	b.WriteString(helpStyle.Render("\n" + help))

	return b.String()
}

func (m Model) renderContactListItem(index int, c store.Contact) string {
	cursor := "  "
	style := listItemStyle
	if index == m.Cursor {
		cursor = "▸ "
		style = listSelectedStyle
	}

	star := "  "
	if c.IsFavorite {
		star = favoriteStyle.Render("★ ")
	}

	company := ""
	if c.Company != "" {
		company = "  " + companyStyle.Render(truncateStr(c.Company, 30))
	}

	tags := ""
	if len(c.Tags) > 0 {
		tags = "  " + tagStyle.Render(truncateStr(strings.Join(c.Tags, ", "), 30))
	}

	line := fmt.Sprintf("%s%s%s%s%s\n", cursor, star, style.Render(truncateStr(fullName(c), 40)), company, tags)

	if preview := strings.Join(nonEmpty(c.Email, c.Phone), " · "); preview != "" {
		line += contactPreviewStyle.Render(truncateStr(preview, 80)) + "\n"
	}

	return line
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func fullName(c store.Contact) string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func nonEmpty(values ...string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func truncateStr(s string, max int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
