package views_test

import (
	"context"
	"errors"
	"testing"

	"tmods/internal/domain"
	"tmods/internal/tui"
	"tmods/internal/tui/views"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleHits() []domain.SearchHit {
	return []domain.SearchHit{
		{Identity: domain.ModIdentity{Provider: domain.ProviderModrinth, ID: "AANobbMI"}, Name: "Sodium", Slug: "sodium", Authors: []string{"jellysquid3"}},
		{Identity: domain.ModIdentity{Provider: domain.ProviderCurseForge, ID: "238222"}, Name: "JEI", Slug: "jei"},
	}
}

func withResults(t *testing.T, m views.Browser) views.Browser {
	t.Helper()
	newModel, _ := m.Update(views.SearchResultsMsg{Query: "x", Result: &domain.SearchResult{Hits: sampleHits(), Count: 42}})
	newModel, _ = newModel.Update(tea.KeyMsg{Type: tea.KeyEsc})
	return newModel.(views.Browser)
}

func TestBrowser_InitialState(t *testing.T) {
	model := views.NewBrowser(nil, tui.NewKeyMap("vim"))

	assert.Equal(t, "", model.SearchQuery())
	assert.True(t, model.IsSearchFocused())
	assert.Contains(t, model.View(), "Enter a search term")
}

func TestBrowser_TypeInSearch(t *testing.T) {
	model := views.NewBrowser(nil, tui.NewKeyMap("vim"))

	newModel, _ := model.Update(runes("s"))
	newModel, _ = newModel.Update(runes("o"))
	newModel, _ = newModel.Update(runes("d"))

	updated := newModel.(views.Browser)
	assert.Equal(t, "sod", updated.SearchQuery())
}

func TestBrowser_EnterRunsSearch(t *testing.T) {
	var gotQuery string
	search := func(ctx context.Context, query string) (*domain.SearchResult, error) {
		gotQuery = query
		return &domain.SearchResult{Hits: sampleHits(), Count: 42}, nil
	}
	model := views.NewBrowser(search, tui.NewKeyMap("vim"))

	newModel, _ := model.Update(runes("sodium"))
	newModel, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	updated := newModel.(views.Browser)
	assert.True(t, updated.IsLoading())
	assert.False(t, updated.IsSearchFocused())
	require.NotNil(t, cmd)

	msg := cmd()
	assert.Equal(t, "sodium", gotQuery)

	newModel, _ = updated.Update(msg)
	updated = newModel.(views.Browser)
	assert.False(t, updated.IsLoading())
	assert.Equal(t, 2, updated.ResultCount())
	assert.Equal(t, 42, updated.Total())
	assert.Contains(t, updated.View(), "Showing 2 of 42")
}

func TestBrowser_EmptyQueryDoesNothing(t *testing.T) {
	model := views.NewBrowser(nil, tui.NewKeyMap("vim"))

	newModel, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.False(t, newModel.(views.Browser).IsLoading())
}

func TestBrowser_SearchError(t *testing.T) {
	search := func(ctx context.Context, query string) (*domain.SearchResult, error) {
		return nil, errors.New("catalog down")
	}
	model := views.NewBrowser(search, tui.NewKeyMap("vim"))

	newModel, _ := model.Update(runes("x"))
	newModel, cmd := newModel.Update(tea.KeyMsg{Type: tea.KeyEnter})
	newModel, _ = newModel.Update(cmd())

	assert.Contains(t, newModel.View(), "catalog down")
}

func TestBrowser_NavigateResults(t *testing.T) {
	updated := withResults(t, views.NewBrowser(nil, tui.NewKeyMap("vim")))
	assert.False(t, updated.IsSearchFocused())

	newModel, _ := updated.Update(tea.KeyMsg{Type: tea.KeyDown})
	updated = newModel.(views.Browser)
	assert.Equal(t, 1, updated.Selected())

	newModel, _ = updated.Update(runes("j"))
	updated = newModel.(views.Browser)
	assert.Equal(t, 0, updated.Selected(), "cursor wraps")

	newModel, _ = updated.Update(runes("G"))
	updated = newModel.(views.Browser)
	assert.Equal(t, 1, updated.Selected())
}

func TestBrowser_EnterDownloadsHit(t *testing.T) {
	updated := withResults(t, views.NewBrowser(nil, tui.NewKeyMap("vim")))

	_, cmd := updated.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	msg, ok := cmd().(views.DownloadHitMsg)
	require.True(t, ok)
	assert.Equal(t, "sodium", msg.Hit.Slug)
}

func TestBrowser_SlashFocusesSearch(t *testing.T) {
	model := views.NewBrowser(nil, tui.NewKeyMap("vim"))

	newModel, _ := model.Update(tea.KeyMsg{Type: tea.KeyEsc})
	updated := newModel.(views.Browser)
	assert.False(t, updated.IsSearchFocused())

	newModel, _ = updated.Update(runes("/"))
	updated = newModel.(views.Browser)
	assert.True(t, updated.IsSearchFocused())
}

func TestDownloads_LoadAndNavigate(t *testing.T) {
	model := views.NewDownloads(tui.NewKeyMap("standard"))
	assert.Contains(t, model.View(), "Nothing downloaded yet")

	entries := []views.DownloadEntry{
		{Mod: "modrinth:AANobbMI", VersionID: "v1", Path: "/mods/sodium.jar", Status: "ok"},
		{Mod: "curseforge:238222", VersionID: "4001", Path: "/mods/jei.jar", Status: "missing"},
	}
	newModel, _ := model.Update(views.DownloadsLoadedMsg{Entries: entries})
	updated := newModel.(views.Downloads)
	assert.Equal(t, 2, updated.EntryCount())

	newModel, _ = updated.Update(tea.KeyMsg{Type: tea.KeyEnd})
	updated = newModel.(views.Downloads)
	assert.Equal(t, 1, updated.Selected())
	assert.Contains(t, updated.View(), "/mods/jei.jar")
}

func TestDownloads_RefreshKey(t *testing.T) {
	model := views.NewDownloads(tui.NewKeyMap("vim"))

	_, cmd := model.Update(runes("r"))
	require.NotNil(t, cmd)
	_, ok := cmd().(views.RefreshDownloadsMsg)
	assert.True(t, ok)
}
