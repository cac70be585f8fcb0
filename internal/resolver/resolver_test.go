package resolver

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"media-digest-go/internal/logger"
)

func newTestResolver(srv *httptest.Server) *Resolver {
	return New(srv.URL+"/download", "key-1", "convert.example", srv.Client(), logger.Discard().Entry)
}

func TestResolveSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.URL.Path != "/download" {
			t.Errorf("path = %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("url") != "https://video/x" || q.Get("format") != "mp3" || q.Get("quality") != "5" {
			t.Errorf("query = %v", q)
		}
		if r.Header.Get("x-rapidapi-key") != "key-1" || r.Header.Get("x-rapidapi-host") != "convert.example" {
			t.Errorf("headers = %v", r.Header)
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "{}" {
			t.Errorf("body = %q, want {}", body)
		}
		w.Write([]byte(`{"downloadUrl":"https://cdn.example/a.mp3","title":"T"}`))
	}))
	defer srv.Close()

	got, err := newTestResolver(srv).Resolve(context.Background(), "https://video/x")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.DirectURL != "https://cdn.example/a.mp3" || got.Title != "T" {
		t.Fatalf("got %+v", got)
	}
}

func TestResolveFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"error status", http.StatusTooManyRequests, `{"message":"quota"}`},
		{"server error", http.StatusInternalServerError, ``},
		{"malformed json", http.StatusOK, `not json`},
		{"missing url", http.StatusOK, `{"title":"T"}`},
		{"relative url", http.StatusOK, `{"downloadUrl":"/a.mp3","title":"T"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := newTestResolver(srv).Resolve(context.Background(), "https://video/x")
			var rerr *ResolutionError
			if !errors.As(err, &rerr) {
				t.Fatalf("error = %v, want *ResolutionError", err)
			}
			if rerr.SourceURL != "https://video/x" {
				t.Errorf("SourceURL = %q", rerr.SourceURL)
			}
		})
	}
}

func TestResolveUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	r := newTestResolver(srv)
	srv.Close()

	_, err := r.Resolve(context.Background(), "https://video/x")
	var rerr *ResolutionError
	if !errors.As(err, &rerr) {
		t.Fatalf("error = %v, want *ResolutionError", err)
	}
}
