package tui

import (
	"context"
	"fmt"

	"tmods/internal/domain"
	"tmods/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ViewType represents different screens in the TUI
type ViewType int

const (
	ViewBrowser ViewType = iota
	ViewDownloads
)

// NavigateMsg is sent to change views
type NavigateMsg struct {
	View ViewType
}

// ErrorMsg is sent when an error occurs
type ErrorMsg struct {
	Err error
}

// DownloadDoneMsg reports the outcome of a download started from the browser
type DownloadDoneMsg struct {
	Hit  domain.SearchHit
	Path string
	Err  error
}

// Actions are the operations the TUI drives. Any of them may be nil.
type Actions struct {
	Search    views.SearchFunc
	Download  func(ctx context.Context, hit domain.SearchHit) (string, error)
	Downloads func() ([]views.DownloadEntry, error)
}

// App is the main TUI application model
type App struct {
	actions     Actions
	keys        *KeyMap
	currentView ViewType
	width       int
	height      int
	err         error
	status      string
	showHelp    bool

	browser   views.Browser
	downloads views.Downloads
}

// NewApp creates a new TUI application
func NewApp(actions Actions, keyMode KeyMode) App {
	keys := NewKeyMap(keyMode)
	return App{
		actions:     actions,
		keys:        keys,
		currentView: ViewBrowser,
		width:       80,
		height:      24,
		browser:     views.NewBrowser(actions.Search, keys),
		downloads:   views.NewDownloads(keys),
	}
}

// CurrentView returns the current view type
func (a App) CurrentView() ViewType {
	return a.currentView
}

// Status returns the status line
func (a App) Status() string {
	return a.status
}

// Init implements tea.Model
func (a App) Init() tea.Cmd {
	return tea.Batch(a.browser.Init(), a.loadDownloads())
}

// Update implements tea.Model
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return a.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		var cmd1, cmd2 tea.Cmd
		var model tea.Model
		model, cmd1 = a.browser.Update(msg)
		a.browser = model.(views.Browser)
		model, cmd2 = a.downloads.Update(msg)
		a.downloads = model.(views.Downloads)
		return a, tea.Batch(cmd1, cmd2)

	case NavigateMsg:
		a.currentView = msg.View
		return a, nil

	case ErrorMsg:
		a.err = msg.Err
		return a, nil

	case views.DownloadHitMsg:
		a.status = fmt.Sprintf("Downloading %s...", msg.Hit.Name)
		return a, a.download(msg.Hit)

	case DownloadDoneMsg:
		if msg.Err != nil {
			a.status = fmt.Sprintf("Download of %s failed: %v", msg.Hit.Name, msg.Err)
			return a, nil
		}
		a.status = fmt.Sprintf("Saved %s to %s", msg.Hit.Name, msg.Path)
		return a, a.loadDownloads()

	case views.RefreshDownloadsMsg:
		return a, a.loadDownloads()

	case views.DownloadsLoadedMsg:
		model, cmd := a.downloads.Update(msg)
		a.downloads = model.(views.Downloads)
		return a, cmd

	case views.SearchResultsMsg, views.SearchErrorMsg:
		model, cmd := a.browser.Update(msg)
		a.browser = model.(views.Browser)
		return a, cmd
	}

	return a.updateCurrentView(msg)
}

func (a App) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return a, tea.Quit
	}

	// Typing into the search box takes every other key
	if a.currentView == ViewBrowser && a.browser.IsSearchFocused() {
		return a.updateCurrentView(msg)
	}

	switch {
	case a.keys.IsQuit(msg):
		return a, tea.Quit
	case a.keys.IsHelp(msg):
		a.showHelp = !a.showHelp
		return a, nil
	case a.keys.IsLeft(msg), a.keys.IsRight(msg), msg.Type == tea.KeyTab:
		if a.currentView == ViewBrowser {
			a.currentView = ViewDownloads
		} else {
			a.currentView = ViewBrowser
		}
		return a, nil
	}

	switch msg.String() {
	case "1":
		a.currentView = ViewBrowser
		return a, nil
	case "2":
		a.currentView = ViewDownloads
		return a, nil
	}

	return a.updateCurrentView(msg)
}

func (a App) updateCurrentView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		model tea.Model
		cmd   tea.Cmd
	)

	switch a.currentView {
	case ViewBrowser:
		model, cmd = a.browser.Update(msg)
		a.browser = model.(views.Browser)
	case ViewDownloads:
		model, cmd = a.downloads.Update(msg)
		a.downloads = model.(views.Downloads)
	}

	return a, cmd
}

func (a App) download(hit domain.SearchHit) tea.Cmd {
	download := a.actions.Download
	return func() tea.Msg {
		if download == nil {
			return DownloadDoneMsg{Hit: hit, Err: fmt.Errorf("downloads are not available")}
		}
		path, err := download(context.Background(), hit)
		return DownloadDoneMsg{Hit: hit, Path: path, Err: err}
	}
}

func (a App) loadDownloads() tea.Cmd {
	list := a.actions.Downloads
	if list == nil {
		return nil
	}
	return func() tea.Msg {
		entries, err := list()
		return views.DownloadsLoadedMsg{Entries: entries, Err: err}
	}
}

// View implements tea.Model
func (a App) View() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	tabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	activeTabStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("205")).
		Bold(true)

	header := titleStyle.Render("tmods - Minecraft mod aggregator")

	tabs := []string{"[1]Browse", "[2]Downloads"}
	tabBar := ""
	for i, tab := range tabs {
		if ViewType(i) == a.currentView {
			tabBar += activeTabStyle.Render(tab) + "  "
		} else {
			tabBar += tabStyle.Render(tab) + "  "
		}
	}

	var content string
	switch {
	case a.err != nil:
		errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
		content = errStyle.Render(fmt.Sprintf("Error: %v", a.err))
	case a.showHelp:
		content = a.keys.FullHelp()
	case a.currentView == ViewDownloads:
		content = a.downloads.View()
	default:
		content = a.browser.View()
	}

	footerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241")).
		MarginTop(1)
	footer := footerStyle.Render("q: quit  ?: help")
	if a.status != "" {
		statusStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
		footer = statusStyle.Render(a.status) + "\n" + footer
	}

	return fmt.Sprintf("%s\n%s\n\n%s\n\n%s", header, tabBar, content, footer)
}

// Run starts the TUI application
func Run(actions Actions, keyMode KeyMode) error {
	app := NewApp(actions, keyMode)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
