package views

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// DownloadEntry is one row of the download ledger
type DownloadEntry struct {
	Mod       string // provider:id
	VersionID string
	Path      string
	Status    string // verification status
}

// DownloadsLoadedMsg carries a fresh copy of the ledger
type DownloadsLoadedMsg struct {
	Entries []DownloadEntry
	Err     error
}

// RefreshDownloadsMsg asks the app to reload the ledger
type RefreshDownloadsMsg struct{}

// Downloads lists files fetched by tmods and whether they still verify
type Downloads struct {
	keys     Keys
	entries  []DownloadEntry
	selected int
	err      error
	width    int
	height   int
}

// NewDownloads creates a new downloads view
func NewDownloads(keys Keys) Downloads {
	return Downloads{keys: keys, width: 80, height: 24}
}

// Selected returns the currently selected index
func (m Downloads) Selected() int {
	return m.selected
}

// EntryCount returns the number of ledger entries
func (m Downloads) EntryCount() int {
	return len(m.entries)
}

// Init implements tea.Model
func (m Downloads) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model
func (m Downloads) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "r" {
			return m, func() tea.Msg { return RefreshDownloadsMsg{} }
		}
		if cursor, ok := moveCursor(m.keys, msg, m.selected, len(m.entries)); ok {
			m.selected = cursor
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case DownloadsLoadedMsg:
		m.err = msg.Err
		if msg.Err == nil {
			m.entries = msg.Entries
		}
		if m.selected >= len(m.entries) {
			m.selected = 0
		}
		return m, nil
	}

	return m, nil
}

// View implements tea.Model
func (m Downloads) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("69")).
		MarginBottom(1)

	itemStyle := lipgloss.NewStyle().
		PaddingLeft(2)

	selectedStyle := lipgloss.NewStyle().
		PaddingLeft(2).
		Foreground(lipgloss.Color("205")).
		Bold(true)

	detailStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		PaddingLeft(4)

	output := titleStyle.Render("Downloads") + "\n"

	if m.err != nil {
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		output += errStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	if len(m.entries) == 0 {
		output += itemStyle.Render("Nothing downloaded yet.") + "\n"
	}

	for i, e := range m.entries {
		cursor := "  "
		style := itemStyle
		if i == m.selected {
			cursor = "▸ "
			style = selectedStyle
		}

		output += style.Render(fmt.Sprintf("%s%s %s", cursor, statusIcon(e.Status), e.Mod)) + "\n"
		if i == m.selected {
			output += detailStyle.Render("version: "+e.VersionID) + "\n"
			output += detailStyle.Render("path: "+e.Path) + "\n"
			output += detailStyle.Render("status: "+e.Status) + "\n"
		}
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	output += helpStyle.Render(m.keys.NavigationHelp() + "  r: refresh")

	return output
}

func statusIcon(status string) string {
	switch status {
	case "ok":
		return "✓"
	case "missing", "mismatch":
		return "✗"
	default:
		return "?"
	}
}
