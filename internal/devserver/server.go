// Package devserver is a local stand-in for the HR assistant backend. It
// serves the same /chat and /speech-to-text endpoints so the client can be
// exercised without the real service.
package devserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/gorilla/mux"

	"github.com/phildougherty/hrchat/internal/audio"
)

// maxUpload bounds the multipart form accepted by /speech-to-text
const maxUpload = 32 << 20

// ErrNoSpeech is returned by a Responder when a recording holds nothing to transcribe
var ErrNoSpeech = errors.New("no speech could be recognized")

// Responder produces the assistant's side of the conversation
type Responder interface {
	Reply(ctx context.Context, input string) (string, error)
	Transcribe(ctx context.Context, info *audio.WAVInfo, samples audio.Samples) (string, error)
}

// Echo answers every message by repeating it and "transcribes" recordings by
// describing them. Recordings shorter than MinSpeech are rejected.
type Echo struct {
	MinSpeech time.Duration
}

func (e Echo) Reply(_ context.Context, input string) (string, error) {
	return "You said: " + input, nil
}

func (e Echo) Transcribe(_ context.Context, info *audio.WAVInfo, samples audio.Samples) (string, error) {
	if info.Duration < e.MinSpeech || silent(samples) {
		return "", ErrNoSpeech
	}
	return fmt.Sprintf("I recorded %.1f seconds of audio", info.Duration.Seconds()), nil
}

func silent(samples audio.Samples) bool {
	for _, s := range samples {
		if s > 0.01 || s < -0.01 {
			return false
		}
	}
	return true
}

type server struct {
	responder Responder
	origin    string
	log       logr.Logger
}

// New returns the dev backend's HTTP handler
func New(responder Responder, allowedOrigin string, log logr.Logger) http.Handler {
	s := &server{
		responder: responder,
		origin:    allowedOrigin,
		log:       log.WithName("devserver"),
	}

	r := mux.NewRouter()
	r.Use(s.cors, s.logRequests)
	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost, http.MethodOptions)
	r.HandleFunc("/speech-to-text", s.handleSpeechToText).Methods(http.MethodPost, http.MethodOptions)
	return r
}

func (s *server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", s.origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "*")
			w.Header().Set("Access-Control-Allow-Headers", "*")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.log.Info("handled request", "method", r.Method, "path", r.URL.Path, "elapsed", time.Since(start))
	})
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input *string `json:"input"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}
	if req.Input == nil || strings.TrimSpace(*req.Input) == "" {
		writeError(w, http.StatusBadRequest, "input is required")
		return
	}

	reply, err := s.responder.Reply(r.Context(), *req.Input)
	if err != nil {
		s.log.Error(err, "reply failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"assistant": reply})
}

func (s *server) handleSpeechToText(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart form: "+err.Error())
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read upload: "+err.Error())
		return
	}
	s.log.Info("received recording", "filename", header.Filename, "bytes", len(data))

	info, err := audio.ParseWAV(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	samples, _, err := audio.DecodeWAV(data)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	text, err := s.responder.Transcribe(r.Context(), info, samples)
	switch {
	case errors.Is(err, ErrNoSpeech):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		s.log.Error(err, "transcription failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
