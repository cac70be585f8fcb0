package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"media-digest-go/internal/logger"
	"media-digest-go/internal/progress"
	"media-digest-go/internal/types"
)

const maxBodyBytes = 1 << 20

// Pipeline runs one summarize invocation.
type Pipeline interface {
	Process(ctx context.Context, jobID, sourceURL string, rep progress.Reporter) (types.Summary, error)
}

// Relay serves the chat stream and translation endpoints.
type Relay interface {
	Chat(ctx context.Context, w http.ResponseWriter, message, summary string) error
	Translate(ctx context.Context, text, targetLanguage string) (string, error)
}

type Options struct {
	Pipeline   Pipeline
	Relay      Relay
	Users      UserDirectory // optional; auth routes are mounted only when set
	Logger     *logger.Logger
	CORSOrigin string
}

// Server exposes the HTTP API.
type Server struct {
	pipeline   Pipeline
	relay      Relay
	users      UserDirectory
	gauge      *progress.Tracker
	jobs       *progress.Registry
	log        *logger.Logger
	corsOrigin string
}

func New(opts Options) *Server {
	origin := opts.CORSOrigin
	if origin == "" {
		origin = "*"
	}
	return &Server{
		pipeline:   opts.Pipeline,
		relay:      opts.Relay,
		users:      opts.Users,
		gauge:      progress.NewTracker(),
		jobs:       progress.NewRegistry(),
		log:        opts.Logger,
		corsOrigin: origin,
	}
}

// Progress returns the process-wide progress gauge.
func (s *Server) Progress() *progress.Tracker { return s.gauge }

// Jobs returns the per-invocation progress registry.
func (s *Server) Jobs() *progress.Registry { return s.jobs }

// Handler builds the routed, middleware-wrapped handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /progress", s.handleProgress)
	mux.HandleFunc("POST /summarize", s.handleSummarize)
	mux.HandleFunc("POST /chat", s.handleChat)
	mux.HandleFunc("POST /translate", s.handleTranslate)

	if s.users != nil {
		mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
		mux.HandleFunc("POST /api/auth/login", s.handleLogin)
	}

	return s.withCORS(s.withLogging(mux))
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", s.corsOrigin)
		h.Set("Access-Control-Allow-Methods", "GET,HEAD,PUT,PATCH,POST,DELETE")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
		h.Set("Access-Control-Expose-Headers", "X-Job-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status and keeps streaming support.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := s.log.WithRequest(r).WithFields(logrus.Fields{
			"status":      rec.status,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		// Progress is polled; keep it out of info logs.
		if r.URL.Path == "/progress" {
			entry.Debug("request handled")
			return
		}
		entry.Info("request handled")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) error {
	return writeJSON(w, status, types.ErrorResponse{Error: msg})
}

// decode reads a JSON body into v, capped at maxBodyBytes.
func decode(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON body")
	}
	return nil
}
