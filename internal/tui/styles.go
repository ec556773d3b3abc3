package tui

import "github.com/charmbracelet/lipgloss"

// ─── Palette ─────────────────────────────────────────────────────────────────

var (
	colorOverlay = lipgloss.Color("#5c6773") // slate borders
	colorText    = lipgloss.Color("#e6e1cf") // paper
	colorSubtext = lipgloss.Color("#8a9199") // pencil
	colorAccent  = lipgloss.Color("#59c2ff") // ink
	colorGreen   = lipgloss.Color("#aad94c")
	colorOrange  = lipgloss.Color("#ffb454")
	colorRed     = lipgloss.Color("#f07178")
	colorPurple  = lipgloss.Color("#d2a6ff")
	colorGold    = lipgloss.Color("#e6b450")
	colorTeal    = lipgloss.Color("#95e6cb")
)

// Base styles. lipgloss setters return copies, so everything below derives
// from these without mutating them.
var (
	text   = lipgloss.NewStyle().Foreground(colorText)
	muted  = lipgloss.NewStyle().Foreground(colorSubtext)
	strong = lipgloss.NewStyle().Bold(true)
	boxed  = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(colorOverlay)
)

// ─── Frame ───────────────────────────────────────────────────────────────────

var (
	appStyle    = text.Padding(1, 2)
	helpStyle   = muted.MarginTop(1)
	headerStyle = strong.Foreground(colorAccent).
			BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(colorOverlay).
			PaddingBottom(1).MarginBottom(1)

	errorStyle   = strong.Foreground(colorRed).Padding(0, 1)
	statusStyle  = strong.Foreground(colorGreen).Padding(0, 1)
	confirmStyle = strong.Foreground(colorOrange).Padding(0, 1)
)

// ─── Dashboard ───────────────────────────────────────────────────────────────

var (
	statNumberStyle = strong.Foreground(colorGreen).Width(8).Align(lipgloss.Right)
	statLabelStyle  = text.PaddingLeft(2)
	statCardStyle   = boxed.Padding(1, 2).MarginBottom(1)
	titleStyle      = strong.Foreground(colorPurple).MarginBottom(1)

	menuItemStyle     = text.PaddingLeft(2)
	menuSelectedStyle = strong.Foreground(colorAccent).PaddingLeft(1)
)

// ─── Lists ───────────────────────────────────────────────────────────────────

var (
	listItemStyle     = menuItemStyle
	listSelectedStyle = menuSelectedStyle

	favoriteStyle       = strong.Foreground(colorGold)
	tagStyle            = lipgloss.NewStyle().Foreground(colorOrange)
	companyStyle        = lipgloss.NewStyle().Foreground(colorTeal)
	timestampStyle      = muted.Italic(true)
	contactPreviewStyle = muted.PaddingLeft(4) // email · phone under the name
	noResultsStyle      = timestampStyle.PaddingLeft(2).MarginTop(1)
)

// ─── Detail ──────────────────────────────────────────────────────────────────

var (
	sectionHeadingStyle = titleStyle.MarginTop(1)
	detailContentStyle  = text.PaddingLeft(2)
	detailLabelStyle    = muted.Width(14).Align(lipgloss.Right).PaddingRight(1)
	detailValueStyle    = text
)

// ─── Search ──────────────────────────────────────────────────────────────────

var searchInputStyle = text.BorderStyle(lipgloss.NormalBorder()).BorderForeground(colorAccent).
	Padding(0, 1).MarginBottom(1)
