package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phildougherty/hrchat/internal/audio"
	"github.com/phildougherty/hrchat/internal/devserver"
)

func newTestClient(url string) *Client {
	return NewClient(Config{BaseURL: url, SessionID: "session-1", Log: logr.Discard()})
}

func TestChat_Success(t *testing.T) {
	var gotBody map[string]string
	var gotSession string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		gotSession = r.Header.Get("X-Session-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"assistant":"Hi there"}`))
	}))
	defer server.Close()

	reply, err := newTestClient(server.URL).Chat(context.Background(), "Hello")
	require.NoError(t, err)

	assert.Equal(t, "Hi there", reply)
	assert.Equal(t, map[string]string{"input": "Hello"}, gotBody)
	assert.Equal(t, "session-1", gotSession)
}

func TestChat_MissingReplyField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"other":"value"}`))
	}))
	defer server.Close()

	reply, err := newTestClient(server.URL).Chat(context.Background(), "Hello")
	require.NoError(t, err)
	assert.Empty(t, reply)
}

func TestChat_Failures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"detail":"Run failed"}`,
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.True(t, errors.As(err, &statusErr))
				assert.Equal(t, 500, statusErr.StatusCode)
				assert.Contains(t, statusErr.Body, "Run failed")
			},
		},
		{
			name:   "not modified is a failure",
			status: http.StatusNotModified,
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				assert.True(t, errors.As(err, &statusErr))
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedResponse)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Chat(context.Background(), "Hello")
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestChat_SingleAttempt(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL).Chat(context.Background(), "Hello")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestChat_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestClient(url).Chat(context.Background(), "Hello")
	assert.Error(t, err)
}

func TestTranscribe_MultipartUpload(t *testing.T) {
	wav := audio.EncodeWAV(audio.Samples{0.1, -0.1}, audio.TargetSampleRate)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/speech-to-text", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Len(t, r.MultipartForm.File, 1, "single file field")

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, RecordingFilename, header.Filename)
		assert.Equal(t, "audio/wav", header.Header.Get("Content-Type"))

		data, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, wav, data)

		w.Write([]byte(`{"text":"what is my leave balance"}`))
	}))
	defer server.Close()

	text, err := newTestClient(server.URL).Transcribe(context.Background(), wav)
	require.NoError(t, err)
	assert.Equal(t, "what is my leave balance", text)
}

func TestClient_DevServerRoundTrip(t *testing.T) {
	server := httptest.NewServer(devserver.New(devserver.Echo{}, "", logr.Discard()))
	defer server.Close()
	client := newTestClient(server.URL)

	reply, err := client.Chat(context.Background(), "How many vacation days do I have?")
	require.NoError(t, err)
	assert.Equal(t, "You said: How many vacation days do I have?", reply)

	tone := make(audio.Samples, audio.TargetSampleRate)
	for i := range tone {
		tone[i] = 0.3
	}
	text, err := client.Transcribe(context.Background(), audio.EncodeWAV(tone, audio.TargetSampleRate))
	require.NoError(t, err)
	assert.Equal(t, "I recorded 1.0 seconds of audio", text)

	_, err = client.Transcribe(context.Background(), []byte("not a wav"))
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusBadRequest, statusErr.StatusCode)
}

func TestClient_SetBaseURL(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://one.example.com/", Log: logr.Discard()})
	assert.Equal(t, "http://one.example.com", client.BaseURL())
	assert.NotEmpty(t, client.SessionID(), "session id generated")

	client.SetBaseURL("http://two.example.com")
	assert.Equal(t, "http://two.example.com", client.BaseURL())
}
