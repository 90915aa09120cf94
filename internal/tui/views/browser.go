package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tmods/internal/domain"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// SearchFunc runs a merged catalog search
type SearchFunc func(ctx context.Context, query string) (*domain.SearchResult, error)

// SearchResultsMsg contains search results
type SearchResultsMsg struct {
	Query  string
	Result *domain.SearchResult
}

// SearchErrorMsg indicates a search error
type SearchErrorMsg struct {
	Err error
}

// DownloadHitMsg is sent when the user wants to download a search hit
type DownloadHitMsg struct {
	Hit domain.SearchHit
}

// Browser is the search view
type Browser struct {
	search        SearchFunc
	keys          Keys
	searchInput   textinput.Model
	searchFocused bool
	results       []domain.SearchHit
	total         int
	selected      int
	loading       bool
	err           error
	width         int
	height        int
}

// NewBrowser creates a new search view
func NewBrowser(search SearchFunc, keys Keys) Browser {
	ti := textinput.New()
	ti.Placeholder = "Search mods..."
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 40

	return Browser{
		search:        search,
		keys:          keys,
		searchInput:   ti,
		searchFocused: true,
		width:         80,
		height:        24,
	}
}

// SearchQuery returns the current search query
func (m Browser) SearchQuery() string {
	return m.searchInput.Value()
}

// IsSearchFocused returns whether the search input is focused
func (m Browser) IsSearchFocused() bool {
	return m.searchFocused
}

// IsLoading reports whether a search is in flight
func (m Browser) IsLoading() bool {
	return m.loading
}

// ResultCount returns the number of hits shown
func (m Browser) ResultCount() int {
	return len(m.results)
}

// Total returns the catalog-reported hit count
func (m Browser) Total() int {
	return m.total
}

// Selected returns the currently selected result index
func (m Browser) Selected() int {
	return m.selected
}

// SelectedHit returns the currently selected hit
func (m Browser) SelectedHit() *domain.SearchHit {
	if len(m.results) == 0 || m.selected >= len(m.results) {
		return nil
	}
	return &m.results[m.selected]
}

// Init implements tea.Model
func (m Browser) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case SearchResultsMsg:
		m.loading = false
		m.err = nil
		m.selected = 0
		m.results, m.total = nil, 0
		if msg.Result != nil {
			m.results = msg.Result.Hits
			m.total = msg.Result.Count
		}
		return m, nil

	case SearchErrorMsg:
		m.err = msg.Err
		m.loading = false
		return m, nil
	}

	if m.searchFocused {
		m.searchInput, cmd = m.searchInput.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Browser) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searchFocused {
		switch msg.Type {
		case tea.KeyEsc:
			m.searchFocused = false
			m.searchInput.Blur()
			return m, nil

		case tea.KeyEnter:
			query := strings.TrimSpace(m.searchInput.Value())
			if query == "" {
				return m, nil
			}
			m.loading = true
			m.err = nil
			m.searchFocused = false
			m.searchInput.Blur()
			return m, m.runSearch(query)

		default:
			var cmd tea.Cmd
			m.searchInput, cmd = m.searchInput.Update(msg)
			return m, cmd
		}
	}

	if m.keys.IsSearch(msg) {
		m.searchFocused = true
		m.searchInput.Focus()
		return m, textinput.Blink
	}

	if cursor, ok := moveCursor(m.keys, msg, m.selected, len(m.results)); ok {
		m.selected = cursor
		return m, nil
	}

	if m.keys.IsConfirm(msg) {
		if hit := m.SelectedHit(); hit != nil {
			selected := *hit
			return m, func() tea.Msg {
				return DownloadHitMsg{Hit: selected}
			}
		}
	}

	return m, nil
}

func (m Browser) runSearch(query string) tea.Cmd {
	search := m.search
	return func() tea.Msg {
		if search == nil {
			return SearchErrorMsg{Err: errors.New("search is not available")}
		}
		result, err := search(context.Background(), query)
		if err != nil {
			return SearchErrorMsg{Err: err}
		}
		return SearchResultsMsg{Query: query, Result: result}
	}
}

// View implements tea.Model
func (m Browser) View() string {
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

	providerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	loadingStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("196"))

	output := titleStyle.Render("Search Mods") + "\n"

	searchLabel := "Search: "
	if m.searchFocused {
		searchLabel = "Search (esc to exit): "
	}
	output += searchLabel + m.searchInput.View() + "\n\n"

	if m.loading {
		output += loadingStyle.Render("Searching...") + "\n"
		return output
	}

	if m.err != nil {
		output += errorStyle.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
		return output
	}

	if len(m.results) == 0 {
		if m.SearchQuery() != "" {
			output += itemStyle.Render("No mods found.") + "\n"
		} else {
			output += itemStyle.Render("Enter a search term and press Enter.") + "\n"
		}
	} else {
		output += fmt.Sprintf("Showing %d of %d mods:\n\n", len(m.results), m.total)

		for i, hit := range m.results {
			cursor := "  "
			style := itemStyle

			if i == m.selected {
				cursor = "▸ "
				style = selectedStyle
			}

			line := fmt.Sprintf("%s%s %s", cursor, hit.Name, providerStyle.Render("["+hit.Identity.Provider.DisplayName()+"]"))
			output += style.Render(line) + "\n"

			if i == m.selected {
				if len(hit.Authors) > 0 {
					output += detailStyle.Render("by "+strings.Join(hit.Authors, ", ")) + "\n"
				}
				if hit.Description != "" {
					output += detailStyle.Render(hit.Description) + "\n"
				}
				output += detailStyle.Render(fmt.Sprintf("%s  slug: %s", hit.Identity, hit.Slug)) + "\n"
				output += "\n"
			}
		}
	}

	helpStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)

	if m.searchFocused {
		output += helpStyle.Render("enter: search  esc: exit search")
	} else {
		output += helpStyle.Render("/: search  " + m.keys.NavigationHelp() + "  enter: download")
	}

	return output
}
