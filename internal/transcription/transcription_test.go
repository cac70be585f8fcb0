package transcription

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"media-digest-go/internal/logger"
)

func writeScratch(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audio-job.mp3")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write scratch: %v", err)
	}
	return path
}

func TestTranscribeSuccessRemovesFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("model") != "whisper-1" {
			t.Errorf("model = %q", r.FormValue("model"))
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			data, _ := io.ReadAll(file)
			if string(data) != "mp3-bytes" {
				t.Errorf("uploaded = %q", data)
			}
			if header.Filename != "audio-job.mp3" {
				t.Errorf("filename = %q", header.Filename)
			}
		}
		w.Write([]byte(`{"text":"hello world"}`))
	}))
	defer srv.Close()

	path := writeScratch(t, "mp3-bytes")
	c := New(srv.URL+"/v1/", "sk-test", "", srv.Client(), logger.Discard().Entry)
	got, err := c.Transcribe(context.Background(), path)
	if err != nil {
		t.Fatalf("Transcribe() error = %v", err)
	}
	if got != "hello world" {
		t.Fatalf("transcript = %q", got)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("scratch file should be removed, stat err = %v", err)
	}
}

func TestTranscribeFailureKeepsFile(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"service error", http.StatusInternalServerError, `{"error":"boom"}`},
		{"unauthorized", http.StatusUnauthorized, `{"error":"bad key"}`},
		{"malformed response", http.StatusOK, `<html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				io.Copy(io.Discard, r.Body)
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			path := writeScratch(t, "mp3-bytes")
			c := New(srv.URL, "sk-test", "whisper-1", srv.Client(), logger.Discard().Entry)
			_, err := c.Transcribe(context.Background(), path)

			var terr *TranscriptionError
			if !errors.As(err, &terr) {
				t.Fatalf("error = %v, want *TranscriptionError", err)
			}
			if _, err := os.Stat(path); err != nil {
				t.Fatalf("scratch file should remain on failure: %v", err)
			}
		})
	}
}

func TestTranscribeMissingFile(t *testing.T) {
	c := New("http://127.0.0.1:1", "sk-test", "", nil, logger.Discard().Entry)
	_, err := c.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.mp3"))
	var terr *TranscriptionError
	if !errors.As(err, &terr) {
		t.Fatalf("error = %v, want *TranscriptionError", err)
	}
}
