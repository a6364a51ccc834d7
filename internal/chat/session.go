package chat

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/phildougherty/hrchat/internal/metrics"
)

// Exchanger performs one chat exchange with the backend
type Exchanger interface {
	Chat(ctx context.Context, input string) (string, error)
}

// Session holds the chat application state: the conversation log and the
// processing and listening flags shown by the UI.
type Session struct {
	conversation *Conversation
	client       Exchanger
	log          logr.Logger
	metrics      *metrics.Metrics

	mu         sync.RWMutex
	processing bool
	listening  bool
	listeners  []func()
}

// NewSession creates a session with a freshly seeded conversation
func NewSession(client Exchanger, log logr.Logger, m *metrics.Metrics) *Session {
	return &Session{
		conversation: NewConversation(),
		client:       client,
		log:          log.WithName("chat"),
		metrics:      m,
	}
}

// OnChange registers a listener called after every state change. Listeners
// may run on any goroutine.
func (s *Session) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

func (s *Session) notify() {
	s.mu.RLock()
	listeners := append([]func(){}, s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn()
	}
}

// SendMessage appends the user's text, exchanges it with the backend and
// appends the assistant's reply. Blank text is ignored and reports false.
// Failures never escape: they become the error reply entry.
func (s *Session) SendMessage(ctx context.Context, text string) (Entry, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Entry{}, false
	}

	s.conversation.Append(RoleUser, text)
	s.SetProcessing(true)
	defer s.SetProcessing(false)

	start := time.Now()
	reply, err := s.client.Chat(ctx, text)
	elapsed := time.Since(start)

	var entry Entry
	switch {
	case err != nil:
		s.log.Error(err, "chat exchange failed", "elapsed", elapsed)
		s.metrics.ObserveExchange(metrics.OutcomeError, elapsed)
		entry = s.conversation.Append(RoleAssistant, ErrorReply)
	case reply == "":
		s.log.V(1).Info("empty reply, using fallback", "elapsed", elapsed)
		s.metrics.ObserveExchange(metrics.OutcomeFallback, elapsed)
		entry = s.conversation.Append(RoleAssistant, FallbackReply)
	default:
		s.log.V(1).Info("reply received", "elapsed", elapsed, "chars", len(reply))
		s.metrics.ObserveExchange(metrics.OutcomeReply, elapsed)
		entry = s.conversation.Append(RoleAssistant, reply)
	}
	return entry, true
}

// Submit relays a voice transcript into the conversation
func (s *Session) Submit(ctx context.Context, text string) {
	s.SendMessage(ctx, text)
}

// SetProcessing sets the flag shown while a request is in flight
func (s *Session) SetProcessing(processing bool) {
	s.mu.Lock()
	s.processing = processing
	s.mu.Unlock()
	s.notify()
}

// SetListening sets the flag shown while the microphone is recording
func (s *Session) SetListening(listening bool) {
	s.mu.Lock()
	s.listening = listening
	s.mu.Unlock()
	s.notify()
}

func (s *Session) Processing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.processing
}

func (s *Session) Listening() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listening
}

// Entries returns the conversation in display order
func (s *Session) Entries() []Entry {
	return s.conversation.Entries()
}

// Conversation exposes the underlying log
func (s *Session) Conversation() *Conversation {
	return s.conversation
}
