package chat

import (
	"context"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/glamour"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// VoiceControl starts and stops voice recordings from the UI
type VoiceControl interface {
	Toggle(ctx context.Context) error
}

// NewChatUI creates a new chat UI for the session. voice may be nil when
// voice capture is disabled.
func NewChatUI(ctx context.Context, session *Session, voice VoiceControl) *ChatUI {
	ui := &ChatUI{
		ctx:      ctx,
		session:  session,
		voice:    voice,
		keys:     DefaultChatKeyMap(),
		rendered: make(map[int]string),
		width:    80,
	}
	ui.spinner = spinner.New(
		spinner.WithSpinner(spinner.Dot),
		spinner.WithStyle(lipgloss.NewStyle().Foreground(Yellow).Bold(true)),
	)
	ui.input = newInput()
	ui.statusLine = ui.idleStatus()
	ui.rebuildViewport()
	return ui
}

// Run starts the bubbletea program and blocks until the user quits
func (m *ChatUI) Run() error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))

	m.session.OnChange(func() {
		p.Send(sessionChangedMsg{})
	})

	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (m *ChatUI) Init() tea.Cmd {
	return tea.Batch(tea.SetWindowTitle("HR Assistant"), textinput.Blink)
}

// ShouldUseEnhancedUI reports whether the terminal supports the full-screen UI
func ShouldUseEnhancedUI() bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		return false
	}

	termType := os.Getenv("TERM")
	if termType == "" || strings.Contains(termType, "dumb") {
		return false
	}
	return true
}

// setWidth resizes the markdown renderer and drops cached renderings
func (m *ChatUI) setWidth(width int) {
	m.width = width
	wrap := width - 4
	if wrap < 20 {
		wrap = 20
	}
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(wrap),
	)
	if err == nil {
		m.renderer = renderer
	}
	m.rendered = make(map[int]string)

	// border, padding and prompt
	m.input.Width = m.boxWidth() - 8
	if m.input.Width < 10 {
		m.input.Width = 10
	}
}

// renderMarkdown renders assistant text, caching by entry ID
func (m *ChatUI) renderMarkdown(e Entry) string {
	if cached, ok := m.rendered[e.ID]; ok {
		return cached
	}
	if m.renderer == nil {
		return e.Text
	}
	out, err := m.renderer.Render(e.Text)
	if err != nil {
		return e.Text
	}
	out = strings.Trim(out, "\n")
	m.rendered[e.ID] = out
	return out
}

func (m *ChatUI) idleStatus() string {
	status := "Ready"
	if m.lastFailed {
		status = "Last message failed"
	}
	if m.voice == nil {
		return status
	}
	return status + " | Ctrl+T=voice"
}
