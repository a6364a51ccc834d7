package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// maxInputLength bounds a single typed message
const maxInputLength = 2000

// ChatKeyMap defines keyboard shortcuts for the chat view. Keys not bound
// here go to the text input.
type ChatKeyMap struct {
	Send       key.Binding
	Voice      key.Binding
	Quit       key.Binding
	ScrollUp   key.Binding
	ScrollDown key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
}

// DefaultChatKeyMap returns the chat's key bindings
func DefaultChatKeyMap() ChatKeyMap {
	return ChatKeyMap{
		Send:       key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "send")),
		Voice:      key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "start/stop recording")),
		Quit:       key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
		ScrollUp:   key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "scroll up")),
		ScrollDown: key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "scroll down")),
		PageUp:     key.NewBinding(key.WithKeys("pgup", "shift+up"), key.WithHelp("pgup", "page up")),
		PageDown:   key.NewBinding(key.WithKeys("pgdown", "shift+down"), key.WithHelp("pgdn", "page down")),
		Top:        key.NewBinding(key.WithKeys("home"), key.WithHelp("home", "top")),
		Bottom:     key.NewBinding(key.WithKeys("end"), key.WithHelp("end", "bottom")),
	}
}

func newInput() textinput.Model {
	ti := textinput.New()
	ti.Prompt = "❯ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(Yellow).Bold(true)
	ti.Placeholder = "Ask the HR assistant..."
	ti.CharLimit = maxInputLength
	ti.Focus()
	return ti
}

// handleKeyPress processes keyboard input
func (m *ChatUI) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Voice):
		return m, m.toggleVoiceCommand()

	case key.Matches(msg, m.keys.Send):
		return m.handleEnterKey()

	case key.Matches(msg, m.keys.ScrollUp):
		m.scrollBy(1)
		return m, nil

	case key.Matches(msg, m.keys.ScrollDown):
		m.scrollBy(-1)
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.scrollBy(m.pageSize())
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.scrollBy(-m.pageSize())
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.scrollBy(len(m.viewport))
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewportOffset = 0
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleEnterKey submits the input line as a command or a chat message
func (m *ChatUI) handleEnterKey() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	m.input.Reset()

	if cmd, ok := ParseCommand(text); ok {
		return m, m.handleSlashCommand(cmd, text)
	}

	m.notices = m.notices[:0]
	return m, m.sendCommand(text)
}
func (m *ChatUI) pageSize() int {
	size := m.height - 6
	if size < 1 {
		size = 1
	}
	return size
}

// scrollBy moves the view up (positive) or down (negative) within the history
func (m *ChatUI) scrollBy(lines int) {
	m.viewportOffset += lines
	maxOffset := len(m.viewport) - m.pageSize()
	if maxOffset < 0 {
		maxOffset = 0
	}
	if m.viewportOffset > maxOffset {
		m.viewportOffset = maxOffset
	}
	if m.viewportOffset < 0 {
		m.viewportOffset = 0
	}
}
