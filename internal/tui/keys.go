package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// KeyMode selects a keybinding layout
type KeyMode string

const (
	ModeVim      KeyMode = "vim"
	ModeStandard KeyMode = "standard"
)

// ParseKeyMode validates a --keys value. Empty means vim.
func ParseKeyMode(s string) (KeyMode, error) {
	switch m := KeyMode(strings.ToLower(s)); m {
	case "":
		return ModeVim, nil
	case ModeVim, ModeStandard:
		return m, nil
	default:
		return "", fmt.Errorf("unknown key mode %q (want vim or standard)", s)
	}
}

// KeyMap maps key presses to actions. Arrow and Home/End keys work in every
// mode; vim mode adds hjkl and g/G.
type KeyMap struct {
	mode KeyMode
}

// NewKeyMap creates a keymap, defaulting to vim
func NewKeyMap(mode KeyMode) *KeyMap {
	if mode == "" {
		mode = ModeVim
	}
	return &KeyMap{mode: mode}
}

// Mode returns the keybinding mode
func (k *KeyMap) Mode() KeyMode {
	return k.mode
}

// matches reports whether msg is the special key, or the vim key in vim mode
func (k *KeyMap) matches(msg tea.KeyMsg, special tea.KeyType, vim string) bool {
	if msg.Type == special {
		return true
	}
	return k.mode == ModeVim && msg.String() == vim
}

func (k *KeyMap) IsUp(msg tea.KeyMsg) bool    { return k.matches(msg, tea.KeyUp, "k") }
func (k *KeyMap) IsDown(msg tea.KeyMsg) bool  { return k.matches(msg, tea.KeyDown, "j") }
func (k *KeyMap) IsLeft(msg tea.KeyMsg) bool  { return k.matches(msg, tea.KeyLeft, "h") }
func (k *KeyMap) IsRight(msg tea.KeyMsg) bool { return k.matches(msg, tea.KeyRight, "l") }
func (k *KeyMap) IsHome(msg tea.KeyMsg) bool  { return k.matches(msg, tea.KeyHome, "g") }
func (k *KeyMap) IsEnd(msg tea.KeyMsg) bool   { return k.matches(msg, tea.KeyEnd, "G") }

// IsConfirm is enter or space
func (k *KeyMap) IsConfirm(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEnter || msg.String() == " "
}

// IsCancel is esc
func (k *KeyMap) IsCancel(msg tea.KeyMsg) bool {
	return msg.Type == tea.KeyEsc
}

// IsQuit is q or ctrl+c
func (k *KeyMap) IsQuit(msg tea.KeyMsg) bool {
	return msg.String() == "q" || msg.Type == tea.KeyCtrlC
}

// IsSearch focuses the search box
func (k *KeyMap) IsSearch(msg tea.KeyMsg) bool {
	return msg.String() == "/"
}

// IsHelp toggles the help screen
func (k *KeyMap) IsHelp(msg tea.KeyMsg) bool {
	return msg.String() == "?"
}

// NavigationHelp is the one-line navigation hint shown under each view
func (k *KeyMap) NavigationHelp() string {
	if k.mode == ModeVim {
		return "j/k: navigate  g/G: first/last"
	}
	return "↑/↓: navigate  home/end: first/last"
}

type helpLine struct {
	vim, standard, action string
}

var navigationHelp = []helpLine{
	{"j/k", "↑/↓", "Move down/up"},
	{"h/l", "←/→", "Previous/next tab"},
	{"g/G", "Home/End", "Go to first/last item"},
}

var actionHelp = []helpLine{
	{"enter", "Enter", "Search / download selected mod"},
	{"/", "/", "Focus search"},
	{"r", "r", "Refresh downloads"},
	{"?", "?", "Help"},
	{"q", "q", "Quit"},
}

// FullHelp returns the help screen text
func (k *KeyMap) FullHelp() string {
	var b strings.Builder
	section := func(title string, lines []helpLine) {
		b.WriteString(title + ":\n")
		for _, l := range lines {
			key := l.standard
			if k.mode == ModeVim {
				key = l.vim
			}
			fmt.Fprintf(&b, "  %-9s %s\n", key, l.action)
		}
	}
	section("Navigation", navigationHelp)
	b.WriteString("\n")
	section("Actions", actionHelp)
	return strings.TrimRight(b.String(), "\n")
}
