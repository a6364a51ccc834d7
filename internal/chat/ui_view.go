package chat

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

// View renders the chat UI
func (m *ChatUI) View() string {
	if !m.ready {
		return m.createLoadingView()
	}

	statusHeight := 1
	inputHeight := 3 // border + padding
	viewportHeight := m.height - statusHeight - inputHeight
	if viewportHeight < 1 {
		viewportHeight = 1
	}

	content := strings.Join(m.renderViewport(viewportHeight), "\n")
	content += "\n" + m.renderStatusLine()
	content += "\n" + m.renderInputArea()
	return content
}

func (m *ChatUI) createLoadingView() string {
	style := lipgloss.NewStyle().
		Foreground(Yellow).
		Bold(true).
		Align(lipgloss.Center).
		Margin(1)

	return style.Render("Connecting to HR Assistant...")
}

// rebuildViewport redraws the conversation from the session's log
func (m *ChatUI) rebuildViewport() {
	now := time.Now()
	lines := []string{m.createHeader(), ""}

	for _, e := range m.session.Entries() {
		lines = append(lines, m.renderEntry(e, now)...)
		lines = append(lines, "")
	}
	lines = append(lines, m.notices...)

	m.viewport = lines
}

func (m *ChatUI) createHeader() string {
	headerStyle := lipgloss.NewStyle().Foreground(ArmyGreen).Bold(true)
	title := " HR Assistant "
	width := m.boxWidth()
	pad := width - 2 - len(title)
	if pad < 0 {
		pad = 0
	}
	left := pad / 2
	return headerStyle.Render("╭" + strings.Repeat("─", left) + title + strings.Repeat("─", pad-left) + "╮")
}

// renderEntry draws one entry: assistant on the left, user on the right
func (m *ChatUI) renderEntry(e Entry, now time.Time) []string {
	width := m.boxWidth()

	var authorStyle lipgloss.Style
	var body string
	if e.Role == RoleUser {
		authorStyle = lipgloss.NewStyle().Foreground(Brown).Bold(true)
		body = e.Text
	} else {
		authorStyle = lipgloss.NewStyle().Foreground(LightGreen).Bold(true)
		body = m.renderMarkdown(e)
	}
	timeStyle := lipgloss.NewStyle().Foreground(Tan)
	header := authorStyle.Render(e.Author()) + " " + timeStyle.Render(e.DisplayTime(now))

	align := lipgloss.Left
	if e.Align() == AlignRight {
		align = lipgloss.Right
	}
	block := lipgloss.NewStyle().Width(width).Align(align)

	out := []string{block.Render(header)}
	for _, line := range strings.Split(body, "\n") {
		if e.Role == RoleUser {
			out = append(out, block.Render(line))
		} else {
			out = append(out, line)
		}
	}
	return out
}

// renderViewport renders the chat history with scrolling support
func (m *ChatUI) renderViewport(viewportHeight int) []string {
	viewport := make([]string, viewportHeight)

	totalLines := len(m.viewport)
	if totalLines == 0 {
		return viewport
	}

	// offset 0 shows the latest lines
	startIdx := totalLines - viewportHeight - m.viewportOffset
	if startIdx < 0 {
		startIdx = 0
	}

	for i := 0; i < viewportHeight; i++ {
		if startIdx+i < totalLines {
			viewport[i] = m.viewport[startIdx+i]
		}
	}

	if m.busy() && viewportHeight > 0 {
		activityStyle := lipgloss.NewStyle().Foreground(LightGreen)
		viewport[viewportHeight-1] = fmt.Sprintf("  %s %s",
			m.spinner.View(),
			activityStyle.Render(m.activity()))
	}

	return viewport
}

// activity describes what the session is waiting on
func (m *ChatUI) activity() string {
	switch {
	case m.session.Listening():
		return "Recording... (Ctrl+T to stop)"
	case m.session.Processing():
		return "Processing..."
	default:
		return ""
	}
}

func (m *ChatUI) busy() bool {
	return m.session.Listening() || m.session.Processing()
}

// renderInputArea renders the input field
func (m *ChatUI) renderInputArea() string {
	inputStyle := lipgloss.NewStyle().
		Border(lipgloss.NormalBorder()).
		BorderForeground(Brown).
		Width(m.boxWidth() - 2).
		Padding(0, 1)

	return inputStyle.Render(m.input.View())
}

// renderStatusLine renders the status bar with scroll information
func (m *ChatUI) renderStatusLine() string {
	statusStyle := lipgloss.NewStyle().
		Foreground(GoldYellow).
		Background(ArmyGreen).
		Padding(0, 1).
		Width(m.width)

	statusText := m.statusLine
	switch {
	case m.session.Listening():
		statusText = "Recording..."
	case m.session.Processing():
		statusText = "Processing..."
	}

	if m.viewportOffset > 0 {
		currentPos := len(m.viewport) - m.viewportOffset
		statusText += fmt.Sprintf(" | Scrolled: %d/%d lines (End=bottom)", currentPos, len(m.viewport))
	} else {
		statusText += " | PgUp/PgDn=scroll /help"
	}

	return statusStyle.Render(statusText)
}

func (m *ChatUI) createNotice(message string, color lipgloss.Color) string {
	return lipgloss.NewStyle().Foreground(color).Render("│ " + message)
}

func (m *ChatUI) boxWidth() int {
	if m.width > 2 {
		return m.width - 2
	}
	return 78
}
