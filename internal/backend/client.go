package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// ErrMalformedResponse is returned when a 2xx response body cannot be decoded
var ErrMalformedResponse = errors.New("malformed response body")

// StatusError captures non-2xx responses from the backend
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend: unexpected status %d from %s: %s", e.StatusCode, e.URL, e.Body)
}

// maxErrorBody bounds how much of an error response is kept for logging
const maxErrorBody = 512

// RecordingFilename is the name the WAV upload carries in the multipart form
const RecordingFilename = "recording.wav"

// Config configures a Client
type Config struct {
	BaseURL    string
	ChatPath   string
	SpeechPath string
	// Timeout of zero leaves request deadlines to the transport
	Timeout    time.Duration
	SessionID  string
	HTTPClient *http.Client
	Log        logr.Logger
}

// Client talks to the HR assistant's /chat and /speech-to-text endpoints.
// Every call is a single attempt.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	chatPath   string
	speechPath string
	sessionID  string
	httpClient *http.Client
	log        logr.Logger
}

type chatRequest struct {
	Input string `json:"input"`
}

type chatResponse struct {
	Assistant string `json:"assistant"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

// NewClient creates a backend client. A session id is generated when none is given.
func NewClient(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	sessionID := cfg.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	chatPath := cfg.ChatPath
	if chatPath == "" {
		chatPath = "/chat"
	}
	speechPath := cfg.SpeechPath
	if speechPath == "" {
		speechPath = "/speech-to-text"
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		chatPath:   chatPath,
		speechPath: speechPath,
		sessionID:  sessionID,
		httpClient: httpClient,
		log:        cfg.Log.WithName("backend"),
	}
}

// SetBaseURL points the client at a different backend; used on config reload
func (c *Client) SetBaseURL(baseURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = strings.TrimRight(baseURL, "/")
}

// BaseURL returns the backend the client currently talks to
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// SessionID identifies this client's conversation to the backend
func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) endpoint(path string) string {
	return c.BaseURL() + path
}

// Chat sends the user's text and returns the assistant's reply. An absent
// reply field yields an empty string and no error.
func (c *Client) Chat(ctx context.Context, input string) (string, error) {
	body, err := json.Marshal(chatRequest{Input: input})
	if err != nil {
		return "", fmt.Errorf("failed to marshal chat request: %w", err)
	}

	url := c.endpoint(c.chatPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var resp chatResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Assistant, nil
}

// Transcribe uploads an encoded WAV container and returns the transcript
func (c *Client) Transcribe(ctx context.Context, wav []byte) (string, error) {
	body, contentType, err := multipartWAV(wav)
	if err != nil {
		return "", err
	}

	url := c.endpoint(c.speechPath)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return "", fmt.Errorf("failed to create transcription request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	var resp transcriptionResponse
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.Text, nil
}

// multipartWAV builds a form with a single "file" field holding the recording
func multipartWAV(wav []byte) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, RecordingFilename))
	h.Set("Content-Type", "audio/wav")
	part, err := writer.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(wav); err != nil {
		return nil, "", fmt.Errorf("failed to write audio data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}
	return &buf, writer.FormDataContentType(), nil
}

func (c *Client) do(req *http.Request, out interface{}) error {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Session-ID", c.sessionID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Error(err, "request failed", "url", req.URL.String())
		return fmt.Errorf("request to %s failed: %w", req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.log.V(1).Info("response received", "url", req.URL.String(), "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			StatusCode: resp.StatusCode,
			URL:        req.URL.String(),
			Body:       strings.TrimSpace(string(snippet)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w from %s: %v", ErrMalformedResponse, req.URL.Path, err)
	}
	return nil
}
