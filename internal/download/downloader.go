package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/sirupsen/logrus"
)

const (
	MaxAttempts = 6
	RetryDelay  = 20 * time.Second

	// Some CDNs behind the conversion service reject non-browser clients.
	UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
)

// DownloadExhaustedError is returned once every attempt has failed.
type DownloadExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *DownloadExhaustedError) Error() string {
	return fmt.Sprintf("download %s failed after %d attempts: %v", e.URL, e.Attempts, e.Err)
}

func (e *DownloadExhaustedError) Unwrap() error { return e.Err }

// Downloader streams a remote file to disk with fixed-delay retries.
type Downloader struct {
	client      *http.Client
	maxAttempts int
	delay       time.Duration
	timer       backoff.Timer
	log         *logrus.Entry
}

// Option customizes a Downloader.
type Option func(*Downloader)

// WithTimer swaps the wait timer between attempts.
func WithTimer(t backoff.Timer) Option {
	return func(d *Downloader) { d.timer = t }
}

// WithHTTPClient sets the client used for each attempt.
func WithHTTPClient(c *http.Client) Option {
	return func(d *Downloader) { d.client = c }
}

func New(log *logrus.Entry, opts ...Option) *Downloader {
	d := &Downloader{
		// No overall timeout: large files stream for as long as they need.
		client:      &http.Client{},
		maxAttempts: MaxAttempts,
		delay:       RetryDelay,
		log:         log.WithField("component", "downloader"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download writes the body of directURL to destPath. Each attempt truncates
// destPath, so a failed attempt never leaks bytes into the next one.
func (d *Downloader) Download(ctx context.Context, directURL, destPath string) error {
	attempts := 0
	log := d.log.WithField("url", directURL)

	op := func() error {
		if err := ctx.Err(); err != nil {
			return backoff.Permanent(err)
		}
		attempts++
		err := d.attempt(ctx, directURL, destPath)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}

	notify := func(err error, wait time.Duration) {
		log.WithFields(logrus.Fields{
			"attempt": attempts,
			"wait":    wait.String(),
			"error":   err.Error(),
		}).Warn("download attempt failed")
	}

	var b backoff.BackOff = backoff.NewConstantBackOff(d.delay)
	b = backoff.WithMaxRetries(b, uint64(d.maxAttempts-1))
	b = backoff.WithContext(b, ctx)

	if err := backoff.RetryNotifyWithTimer(op, b, notify, d.timer); err != nil {
		if ctx.Err() != nil {
			log.WithField("attempts", attempts).Warn("download cancelled")
			return fmt.Errorf("download %s: %w", directURL, ctx.Err())
		}
		log.WithField("attempts", attempts).WithField("error", err.Error()).Error("download exhausted")
		return &DownloadExhaustedError{URL: directURL, Attempts: attempts, Err: err}
	}

	log.WithField("attempts", attempts).Info("download complete")
	return nil
}

func (d *Downloader) attempt(ctx context.Context, directURL, destPath string) (err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, directURL, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	f, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", destPath, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", destPath, cerr)
		}
	}()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("stream body: %w", err)
	}
	return nil
}

// IsExhausted reports whether err came from running out of attempts.
func IsExhausted(err error) bool {
	var e *DownloadExhaustedError
	return errors.As(err, &e)
}
