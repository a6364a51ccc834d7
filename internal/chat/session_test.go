package chat

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phildougherty/hrchat/internal/backend"
	"github.com/phildougherty/hrchat/internal/metrics"
)

// fakeExchanger answers with a fixed reply or error
type fakeExchanger struct {
	reply string
	err   error
	calls int32
	// release blocks Chat until closed, when set
	release chan struct{}
	// seen reports whether processing was set during the call
	session *Session
	seen    atomic.Bool
}

func (f *fakeExchanger) Chat(ctx context.Context, input string) (string, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.session != nil {
		f.seen.Store(f.session.Processing())
	}
	if f.release != nil {
		<-f.release
	}
	return f.reply, f.err
}

func newTestSession(ex Exchanger) *Session {
	return NewSession(ex, logr.Discard(), nil)
}

func texts(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = string(e.Role) + ": " + e.Text
	}
	return out
}

func TestSendMessage_Reply(t *testing.T) {
	ex := &fakeExchanger{reply: "Hi there"}
	s := newTestSession(ex)
	ex.session = s

	reply, ok := s.SendMessage(context.Background(), "Hello")
	require.True(t, ok)

	assert.Equal(t, "Hi there", reply.Text)
	assert.Equal(t, []string{
		"assistant: " + WelcomeMessage,
		"user: Hello",
		"assistant: Hi there",
	}, texts(s.Entries()))
	assert.True(t, ex.seen.Load(), "processing set during the exchange")
	assert.False(t, s.Processing(), "processing reset after the exchange")

	entries := s.Entries()
	assert.Equal(t, AlignRight, entries[1].Align())
	assert.Equal(t, AlignLeft, entries[2].Align())
}

func TestSendMessage_BlankIsNoop(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		ex := &fakeExchanger{reply: "unused"}
		s := newTestSession(ex)

		_, ok := s.SendMessage(context.Background(), input)
		assert.False(t, ok)
		assert.Equal(t, 1, s.Conversation().Len())
		assert.Zero(t, atomic.LoadInt32(&ex.calls), "no request for blank input")
	}
}

func TestSendMessage_TrimsText(t *testing.T) {
	s := newTestSession(&fakeExchanger{reply: "ok"})
	s.SendMessage(context.Background(), "  leave policy  ")

	assert.Equal(t, "leave policy", s.Entries()[1].Text)
}

func TestSendMessage_Fallbacks(t *testing.T) {
	tests := []struct {
		name string
		ex   *fakeExchanger
		want string
	}{
		{"empty reply", &fakeExchanger{reply: ""}, FallbackReply},
		{"transport error", &fakeExchanger{err: errors.New("connection refused")}, ErrorReply},
		{"server error", &fakeExchanger{err: &backend.StatusError{StatusCode: 500}}, ErrorReply},
		{"malformed body", &fakeExchanger{err: fmt.Errorf("%w from /chat", backend.ErrMalformedResponse)}, ErrorReply},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSession(tt.ex)

			reply, ok := s.SendMessage(context.Background(), "Hello")
			require.True(t, ok)
			assert.Equal(t, tt.want, reply.Text)
			assert.Equal(t, RoleAssistant, reply.Role)
			assert.Equal(t, 3, s.Conversation().Len())
			assert.False(t, s.Processing())
			assert.Equal(t, int32(1), atomic.LoadInt32(&tt.ex.calls), "single attempt")
		})
	}
}

func TestSendMessage_UserEntryBeforeNetwork(t *testing.T) {
	ex := &fakeExchanger{reply: "done", release: make(chan struct{})}
	s := newTestSession(ex)

	done := make(chan struct{})
	go func() {
		s.SendMessage(context.Background(), "Hello")
		close(done)
	}()

	require.Eventually(t, s.Processing, time.Second, time.Millisecond)
	last, _ := s.Conversation().Last()
	assert.Equal(t, "Hello", last.Text, "user entry visible while the request is in flight")

	close(ex.release)
	<-done
	last, _ = s.Conversation().Last()
	assert.Equal(t, "done", last.Text)
}

func TestSendMessage_OverlappingSendsAllSettle(t *testing.T) {
	s := newTestSession(&fakeExchanger{reply: "answer"})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SendMessage(context.Background(), fmt.Sprintf("question %d", i))
		}(i)
	}
	wg.Wait()

	entries := s.Entries()
	assert.Len(t, entries, 21)
	users, replies := 0, 0
	for i, e := range entries {
		if i > 0 {
			assert.Greater(t, e.ID, entries[i-1].ID)
		}
		switch {
		case e.Role == RoleUser:
			users++
		case e.Text == "answer":
			replies++
		}
	}
	assert.Equal(t, 10, users)
	assert.Equal(t, 10, replies)
}

func TestSendMessage_Metrics(t *testing.T) {
	m := metrics.NewMetrics()
	s := NewSession(&fakeExchanger{err: errors.New("boom")}, logr.Discard(), m)
	s.SendMessage(context.Background(), "Hello")

	ok := NewSession(&fakeExchanger{reply: "hi"}, logr.Discard(), m)
	ok.SendMessage(context.Background(), "Hello")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Exchanges.WithLabelValues(metrics.OutcomeError)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Exchanges.WithLabelValues(metrics.OutcomeReply)))
}

func TestSession_FlagsNotify(t *testing.T) {
	s := newTestSession(&fakeExchanger{})
	var calls int32
	s.OnChange(func() { atomic.AddInt32(&calls, 1) })

	s.SetListening(true)
	assert.True(t, s.Listening())
	s.SetListening(false)
	s.SetProcessing(true)
	assert.True(t, s.Processing())

	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestSession_SubmitRelaysTranscript(t *testing.T) {
	ex := &fakeExchanger{reply: "You have 12 days left"}
	s := newTestSession(ex)

	s.Submit(context.Background(), "how much leave do I have")

	assert.Equal(t, []string{
		"assistant: " + WelcomeMessage,
		"user: how much leave do I have",
		"assistant: You have 12 days left",
	}, texts(s.Entries()))
}

func TestSendMessage_AgainstBackend(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name: "reply",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{"assistant":"Hi there"}`))
			},
			want: "Hi there",
		},
		{
			name: "missing field",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`{}`))
			},
			want: FallbackReply,
		},
		{
			name: "http 500",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "internal error", http.StatusInternalServerError)
			},
			want: ErrorReply,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			client := backend.NewClient(backend.Config{BaseURL: server.URL, Log: logr.Discard()})
			s := newTestSession(client)

			s.SendMessage(context.Background(), "Hello")
			assert.Equal(t, []string{
				"assistant: " + WelcomeMessage,
				"user: Hello",
				"assistant: " + tt.want,
			}, texts(s.Entries()))
			assert.False(t, s.Processing())
		})
	}
}
