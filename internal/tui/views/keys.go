package views

import tea "github.com/charmbracelet/bubbletea"

// Keys decides which key presses map to navigation actions
type Keys interface {
	IsUp(msg tea.KeyMsg) bool
	IsDown(msg tea.KeyMsg) bool
	IsHome(msg tea.KeyMsg) bool
	IsEnd(msg tea.KeyMsg) bool
	IsConfirm(msg tea.KeyMsg) bool
	IsCancel(msg tea.KeyMsg) bool
	IsSearch(msg tea.KeyMsg) bool
	NavigationHelp() string
}

// moveCursor applies up/down/home/end to a wrapping cursor over n items
func moveCursor(keys Keys, msg tea.KeyMsg, cursor, n int) (int, bool) {
	if n == 0 {
		return cursor, false
	}
	switch {
	case keys.IsUp(msg):
		cursor--
		if cursor < 0 {
			cursor = n - 1
		}
	case keys.IsDown(msg):
		cursor++
		if cursor >= n {
			cursor = 0
		}
	case keys.IsHome(msg):
		cursor = 0
	case keys.IsEnd(msg):
		cursor = n - 1
	default:
		return cursor, false
	}
	return cursor, true
}
