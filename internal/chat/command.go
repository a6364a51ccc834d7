package chat

import (
	"strings"
)

// Command is a slash command typed into the chat input
type Command int

const (
	CommandUnknown Command = iota
	CommandHelp
	CommandVoice
	CommandQuit
)

func (c Command) String() string {
	switch c {
	case CommandHelp:
		return "/help"
	case CommandVoice:
		return "/voice"
	case CommandQuit:
		return "/quit"
	default:
		return "unknown"
	}
}

// ParseCommand recognizes slash commands. The second result is false for
// ordinary chat text.
func ParseCommand(input string) (Command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return CommandUnknown, false
	}

	parts := strings.Fields(input)
	switch strings.ToLower(parts[0]) {
	case "/help", "/?":
		return CommandHelp, true
	case "/voice", "/mic":
		return CommandVoice, true
	case "/quit", "/exit":
		return CommandQuit, true
	default:
		return CommandUnknown, true
	}
}

// helpLines lists the commands and keys available in the chat
func helpLines(interactive bool) []string {
	lines := []string{
		"Type a question and press Enter to ask the HR assistant.",
		"",
		"Commands:",
		"  /voice  start or stop a voice recording",
		"  /help   show this help",
		"  /quit   leave the chat",
	}
	if interactive {
		lines = append(lines,
			"",
			"Keys:",
			"  Ctrl+T     start or stop a voice recording",
			"  PgUp/PgDn  scroll the conversation",
			"  Ctrl+C     quit",
		)
	}
	return lines
}
