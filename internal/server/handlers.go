package server

import (
	"errors"
	"net/http"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"media-digest-go/internal/progress"
	"media-digest-go/internal/types"
)

const (
	summarizeFailure = "An error occurred during the summarization process."
	translateFailure = "An error occurred during translation."
)

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// handleProgress reports the legacy global gauge, or one job's progress with ?job=.
func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	value := s.gauge.Get()
	if job := r.URL.Query().Get("job"); job != "" {
		value = s.jobs.Get(job)
	}
	writeJSON(w, http.StatusOK, types.ProgressResponse{Progress: value})
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "summarize")

	var req types.SummarizeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	req.URL = strings.TrimSpace(req.URL)
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "missing url")
		return
	}

	jobID := jobIDFor(r, req.JobID)
	if !jobIDPattern.MatchString(jobID) {
		writeError(w, http.StatusBadRequest, "invalid jobId")
		return
	}

	tracker, err := s.jobs.Start(jobID)
	if errors.Is(err, progress.ErrJobExists) {
		writeError(w, http.StatusConflict, "job already running")
		return
	}
	defer s.jobs.Finish(jobID)

	reqLog = reqLog.WithField("job_id", jobID).WithField("url", req.URL)
	reqLog.Info("summarize request received")
	w.Header().Set("X-Job-ID", jobID)

	res, err := s.pipeline.Process(r.Context(), jobID, req.URL, progress.Multi(s.gauge, tracker))
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("summarize failed")
		writeError(w, http.StatusInternalServerError, summarizeFailure)
		return
	}

	if err := writeJSON(w, http.StatusOK, res); err != nil {
		reqLog.WithField("error", err.Error()).Error("failed to write response")
	}
}

// jobIDFor picks the body jobId, then X-Request-ID, then a fresh uuid.
func jobIDFor(r *http.Request, fromBody string) string {
	if id := strings.TrimSpace(fromBody); id != "" {
		return id
	}
	if id := strings.TrimSpace(r.Header.Get("X-Request-ID")); id != "" {
		return id
	}
	return uuid.New().String()
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "chat")

	var req types.ChatRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "missing message")
		return
	}

	// Once streaming starts the status line is gone; the relay reports
	// failures in-band with an error frame.
	if err := s.relay.Chat(r.Context(), w, req.Message, req.Summary); err != nil {
		reqLog.WithField("error", err.Error()).Warn("chat stream ended with error")
	}
}

func (s *Server) handleTranslate(w http.ResponseWriter, r *http.Request) {
	reqLog := s.log.WithRequest(r).WithField("handler", "translate")

	var req types.TranslateRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Text == "" || strings.TrimSpace(req.TargetLanguage) == "" {
		writeError(w, http.StatusBadRequest, "text and targetLanguage are required")
		return
	}

	out, err := s.relay.Translate(r.Context(), req.Text, req.TargetLanguage)
	if err != nil {
		reqLog.WithField("error", err.Error()).Error("translate failed")
		writeError(w, http.StatusInternalServerError, translateFailure)
		return
	}
	writeJSON(w, http.StatusOK, types.TranslateResponse{Translation: out})
}
