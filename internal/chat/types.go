package chat

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
)

// Role identifies who authored a conversation entry
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Alignment is where an entry is drawn in the conversation view
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
)

func (a Alignment) String() string {
	if a == AlignRight {
		return "right"
	}
	return "left"
}

// Fixed texts shown by the assistant side of the conversation
const (
	WelcomeMessage = "Welcome! How can I assist you today?"
	FallbackReply  = "I'm here to help!"
	ErrorReply     = "Sorry, there was an error processing your request."
)

// Entry is one immutable message in the conversation log
type Entry struct {
	ID        int
	Role      Role
	Text      string
	Timestamp time.Time
}

// Align derives the display side from the role: assistant left, user right
func (e Entry) Align() Alignment {
	if e.Role == RoleUser {
		return AlignRight
	}
	return AlignLeft
}

// Author returns the display name for the entry's role
func (e Entry) Author() string {
	if e.Role == RoleUser {
		return "User"
	}
	return "HR Agent"
}

// DisplayTime formats the timestamp relative to now
func (e Entry) DisplayTime(now time.Time) string {
	if now.Sub(e.Timestamp) < time.Minute {
		return "Just now"
	}
	return e.Timestamp.Format("15:04")
}

// Conversation is the append-only conversation log. IDs are assigned at
// append time and strictly increase.
type Conversation struct {
	mu      sync.RWMutex
	entries []Entry
	nextID  int
	now     func() time.Time
}

// NewConversation returns a log seeded with the assistant's welcome entry
func NewConversation() *Conversation {
	c := &Conversation{nextID: 1, now: time.Now}
	c.Append(RoleAssistant, WelcomeMessage)
	return c
}

// Append adds an entry and returns it with its assigned ID
func (c *Conversation) Append(role Role, text string) Entry {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := Entry{
		ID:        c.nextID,
		Role:      role,
		Text:      text,
		Timestamp: c.now(),
	}
	c.nextID++
	c.entries = append(c.entries, e)
	return e
}

// Entries returns a copy of the log in append order
func (c *Conversation) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries
func (c *Conversation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Last returns the most recent entry
func (c *Conversation) Last() (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if len(c.entries) == 0 {
		return Entry{}, false
	}
	return c.entries[len(c.entries)-1], true
}

// ChatUI is the bubbletea model for the interactive chat
type ChatUI struct {
	ctx      context.Context
	session  *Session
	voice    VoiceControl
	keys     ChatKeyMap
	spinner  spinner.Model
	renderer *glamour.TermRenderer
	rendered map[int]string

	input          textinput.Model
	viewport       []string
	notices        []string
	viewportOffset int
	statusLine     string
	width          int
	height         int
	ready          bool
	spinning       bool
	lastFailed     bool
}

// Message types for the chat UI
type sessionChangedMsg struct{}

type sentMsg struct {
	reply Entry
	ok    bool
}

type voiceResultMsg struct {
	err error
}

// Color theme constants for consistent styling
var (
	ArmyGreen  = lipgloss.Color("58")  // #5f5f00
	LightGreen = lipgloss.Color("64")  // #5f8700
	Brown      = lipgloss.Color("94")  // #875f00
	Yellow     = lipgloss.Color("226") // #ffff00
	GoldYellow = lipgloss.Color("220") // #ffd700
	Red        = lipgloss.Color("196") // #ff0000
	Tan        = lipgloss.Color("180") // #d7af87
)
