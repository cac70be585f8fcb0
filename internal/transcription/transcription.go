package transcription

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

// TranscriptionError reports a failed speech-to-text call.
type TranscriptionError struct {
	Path       string
	StatusCode int
	Err        error
}

func (e *TranscriptionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transcribe %s: status=%d: %v", e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transcribe %s: %v", e.Path, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// Client posts audio files to an OpenAI-compatible /audio/transcriptions endpoint.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	remove     func(string) error
	log        *logrus.Entry
}

func New(baseURL, apiKey, model string, httpClient *http.Client, log *logrus.Entry) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Minute}
	}
	if model == "" {
		model = openai.Whisper1
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: httpClient,
		remove:     os.Remove,
		log:        log.WithField("component", "transcription"),
	}
}

// Transcribe uploads filePath and returns the transcript text. The file is
// removed after a successful call and left in place on failure.
func (c *Client) Transcribe(ctx context.Context, filePath string) (string, error) {
	log := c.log.WithField("path", filePath)

	f, err := os.Open(filePath)
	if err != nil {
		return "", &TranscriptionError{Path: filePath, Err: err}
	}
	defer f.Close()

	body, contentType := streamForm(f, filepath.Base(filePath), c.model)
	defer body.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", &TranscriptionError{Path: filePath, Err: err}
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	log.Info("starting transcription")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &TranscriptionError{Path: filePath, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return "", &TranscriptionError{Path: filePath, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= 300 {
		return "", &TranscriptionError{Path: filePath, StatusCode: resp.StatusCode, Err: fmt.Errorf("server error: %s", strings.TrimSpace(string(raw)))}
	}

	var out openai.AudioResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &TranscriptionError{Path: filePath, StatusCode: resp.StatusCode, Err: fmt.Errorf("json decode error: %w", err)}
	}

	f.Close()
	if err := c.remove(filePath); err != nil {
		log.WithField("error", err.Error()).Warn("failed to remove scratch file")
	}

	log.WithField("chars", len(out.Text)).Info("transcription complete")
	return out.Text, nil
}

// streamForm encodes a multipart body on the fly so the audio is never
// held in memory as a whole.
func streamForm(file io.Reader, filename, model string) (io.ReadCloser, string) {
	pr, pw := io.Pipe()
	w := multipart.NewWriter(pw)

	go func() {
		err := func() error {
			if err := w.WriteField("model", model); err != nil {
				return err
			}
			part, err := w.CreateFormFile("file", filename)
			if err != nil {
				return err
			}
			if _, err := io.Copy(part, file); err != nil {
				return err
			}
			return w.Close()
		}()
		pw.CloseWithError(err)
	}()

	return pr, w.FormDataContentType()
}
