package chat

import (
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// Update handles messages and updates the model
func (m *ChatUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.setWidth(msg.Width)
		m.ready = true
		m.rebuildViewport()
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case sessionChangedMsg:
		return m.handleSessionChanged()

	case sentMsg:
		if msg.ok {
			m.lastFailed = msg.reply.Text == ErrorReply
		}
		if !m.busy() {
			m.statusLine = m.idleStatus()
		}
		m.rebuildViewport()
		return m, nil

	case voiceResultMsg:
		if msg.err != nil {
			m.statusLine = "Voice: " + msg.err.Error()
		}
		return m, nil

	case spinner.TickMsg:
		if !m.busy() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	// cursor blink
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSessionChanged redraws after the session appended an entry or flipped a flag
func (m *ChatUI) handleSessionChanged() (tea.Model, tea.Cmd) {
	m.rebuildViewport()
	m.viewportOffset = 0
	if !m.busy() {
		m.statusLine = m.idleStatus()
	}

	if m.busy() && !m.spinning {
		m.spinning = true
		return m, m.spinner.Tick
	}
	return m, nil
}

// sendCommand runs the exchange off the UI loop. The session reports
// progress through its change listener.
func (m *ChatUI) sendCommand(text string) tea.Cmd {
	return func() tea.Msg {
		reply, ok := m.session.SendMessage(m.ctx, text)
		return sentMsg{reply: reply, ok: ok}
	}
}

// toggleVoiceCommand starts or stops a recording
func (m *ChatUI) toggleVoiceCommand() tea.Cmd {
	if m.voice == nil {
		m.statusLine = "Voice capture is disabled"
		return nil
	}
	return func() tea.Msg {
		return voiceResultMsg{err: m.voice.Toggle(m.ctx)}
	}
}

// handleSlashCommand runs a command typed into the input
func (m *ChatUI) handleSlashCommand(cmd Command, raw string) tea.Cmd {
	switch cmd {
	case CommandQuit:
		return tea.Quit
	case CommandVoice:
		return m.toggleVoiceCommand()
	case CommandHelp:
		m.notices = m.notices[:0]
		for _, line := range helpLines(true) {
			m.notices = append(m.notices, m.createNotice(line, Tan))
		}
	default:
		m.notices = append(m.notices[:0], m.createNotice("Unknown command: "+raw+" (try /help)", Red))
	}
	m.rebuildViewport()
	m.viewportOffset = 0
	return nil
}
