package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
)

// keyMap defines key bindings for the TUI
type keyMap struct {
	Up           key
	Down         key
	Authorize    key
	Reject       key
	AuthorizeAll key
	RejectAll    key
	Enter        key
	Quit         key
	ForceQuit    key
}

// key represents a key binding with help text
type key struct {
	tea.Key
	help string
}

// matches reports whether msg triggers k.
func (k key) matches(msg tea.KeyMsg) bool {
	return msg.String() == k.Key.String()
}

func (k keyMap) shortHelp() []key {
	return []key{k.Authorize, k.Reject, k.AuthorizeAll, k.Quit}
}

func (k keyMap) fullHelp() []key {
	return []key{
		k.Up, k.Down,
		k.Authorize, k.Reject,
		k.AuthorizeAll, k.RejectAll,
		k.Enter, k.Quit, k.ForceQuit,
	}
}

// Help generates the help view
func (k keyMap) Help() helpWrapper {
	return helpWrapper{keyMap: k}
}

type helpWrapper struct {
	keyMap keyMap
}

// String lists every binding, one per line.
func (h helpWrapper) String() string {
	var b strings.Builder
	for _, k := range h.keyMap.fullHelp() {
		b.WriteString("  " + k.Key.String() + "  " + k.help + "\n")
	}
	return b.String()
}

// View is the one-line status bar.
func (h helpWrapper) View() string {
	parts := make([]string, 0, 4)
	for _, k := range h.keyMap.shortHelp() {
		parts = append(parts, "["+k.Key.String()+"] "+k.help)
	}
	return strings.Join(parts, "  ")
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'k'}},
			help: "nach oben",
		},
		Down: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'j'}},
			help: "nach unten",
		},
		Authorize: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'a'}},
			help: "freigeben",
		},
		Reject: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'r'}},
			help: "ablehnen",
		},
		AuthorizeAll: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'A'}},
			help: "alle freigeben",
		},
		RejectAll: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'R'}},
			help: "alle ablehnen",
		},
		Enter: key{
			Key:  tea.Key{Type: tea.KeyEnter},
			help: "Hilfe",
		},
		Quit: key{
			Key:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'q'}},
			help: "beenden",
		},
		ForceQuit: key{
			Key:  tea.Key{Type: tea.KeyEsc},
			help: "sofort beenden",
		},
	}
}
