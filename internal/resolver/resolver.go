package resolver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"media-digest-go/internal/types"
)

// Fixed conversion preferences sent with every request.
const (
	Format  = "mp3"
	Quality = "5"
)

// ResolutionError reports a failed or unusable conversion service response.
type ResolutionError struct {
	SourceURL  string
	StatusCode int
	Reason     string
	Err        error
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("resolve %s: %s", e.SourceURL, e.Reason)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status=%d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Err }

type conversionResponse struct {
	DownloadURL string `json:"downloadUrl"`
	Title       string `json:"title"`
}

// Resolver turns a media page URL into a direct audio URL via RapidAPI.
type Resolver struct {
	endpoint string
	apiKey   string
	apiHost  string
	client   *http.Client
	log      *logrus.Entry
}

func New(endpoint, apiKey, apiHost string, client *http.Client, log *logrus.Entry) *Resolver {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	return &Resolver{
		endpoint: endpoint,
		apiKey:   apiKey,
		apiHost:  apiHost,
		client:   client,
		log:      log.WithField("component", "resolver"),
	}
}

// Resolve asks the conversion service for an mp3 rendition of sourceURL.
func (r *Resolver) Resolve(ctx context.Context, sourceURL string) (types.ResolvedAudio, error) {
	fail := func(status int, reason string, err error) (types.ResolvedAudio, error) {
		return types.ResolvedAudio{}, &ResolutionError{SourceURL: sourceURL, StatusCode: status, Reason: reason, Err: err}
	}

	u, err := url.Parse(r.endpoint)
	if err != nil {
		return fail(0, "invalid conversion endpoint", err)
	}
	q := u.Query()
	q.Set("url", sourceURL)
	q.Set("format", Format)
	q.Set("quality", Quality)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), strings.NewReader("{}"))
	if err != nil {
		return fail(0, "build request", err)
	}
	req.Header.Set("x-rapidapi-key", r.apiKey)
	req.Header.Set("x-rapidapi-host", r.apiHost)
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return fail(0, "request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fail(resp.StatusCode, "read body", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fail(resp.StatusCode, "conversion service error", fmt.Errorf("%s", strings.TrimSpace(string(body))))
	}

	var parsed conversionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return fail(resp.StatusCode, "malformed response", err)
	}

	direct, err := url.Parse(strings.TrimSpace(parsed.DownloadURL))
	if err != nil || (direct.Scheme != "http" && direct.Scheme != "https") || direct.Host == "" {
		return fail(resp.StatusCode, "no usable download url", err)
	}

	r.log.WithFields(logrus.Fields{
		"source_url": sourceURL,
		"direct_url": direct.String(),
		"title":      parsed.Title,
	}).Info("resolved audio")

	return types.ResolvedAudio{DirectURL: direct.String(), Title: parsed.Title}, nil
}
