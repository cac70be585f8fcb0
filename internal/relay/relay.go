package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"
	"media-digest-go/internal/llm"
)

const (
	chatInstruction      = "You are a helpful assistant that can answer questions about a podcast summary. Here's the summary:"
	translateInstruction = "You are a professional translator. Translate the following text to %s. Maintain the original meaning and tone as closely as possible."

	ChatTemperature      = 0.7
	TranslateTemperature = 0.5

	// ChatFailureMessage is sent in the error frame when the upstream fails mid-stream.
	ChatFailureMessage = "An error occurred during the chat process."
)

// Relay forwards chat and translation requests to the text-generation service.
type Relay struct {
	gen   llm.Generator
	model string
	log   *logrus.Entry
}

func New(gen llm.Generator, model string, log *logrus.Entry) *Relay {
	return &Relay{gen: gen, model: model, log: log.WithField("component", "relay")}
}

// writeError marks a failure to deliver a frame to the client, as opposed
// to an upstream failure.
type writeError struct{ err error }

func (e *writeError) Error() string { return "write frame: " + e.err.Error() }
func (e *writeError) Unwrap() error { return e.err }

// Chat streams the answer to message as SSE frames: start, content*, then
// done on success or error on upstream failure.
func (r *Relay) Chat(ctx context.Context, w http.ResponseWriter, message, summary string) error {
	sse := newSSEWriter(w)
	if err := sse.send(frame{Start: true}); err != nil {
		return &writeError{err: err}
	}

	fragments := 0
	err := r.gen.Stream(ctx, llm.Request{
		Model:       r.model,
		Temperature: ChatTemperature,
		System:      chatInstruction + summary,
		User:        message,
	}, func(fragment string) error {
		if err := sse.send(frame{Content: fragment}); err != nil {
			return &writeError{err: err}
		}
		fragments++
		return nil
	})

	log := r.log.WithField("fragments", fragments)
	var werr *writeError
	switch {
	case errors.As(err, &werr):
		log.WithField("error", err.Error()).Warn("client stream closed")
		return err
	case err != nil:
		log.WithField("error", err.Error()).Error("chat upstream failed")
		if serr := sse.send(frame{Error: ChatFailureMessage}); serr != nil {
			log.WithField("error", serr.Error()).Warn("failed to send error frame")
		}
		return err
	}

	if err := sse.send(frame{Done: true}); err != nil {
		return &writeError{err: err}
	}
	log.Info("chat stream complete")
	return nil
}

// Translate returns the service's translation of text verbatim.
func (r *Relay) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	out, err := r.gen.Complete(ctx, llm.Request{
		Model:       r.model,
		Temperature: TranslateTemperature,
		System:      fmt.Sprintf(translateInstruction, targetLanguage),
		User:        text,
	})
	if err != nil {
		r.log.WithField("target_language", targetLanguage).WithField("error", err.Error()).Error("translation failed")
		return "", fmt.Errorf("translate: %w", err)
	}
	return out, nil
}
