package summarizer

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"media-digest-go/internal/llm"
)

const (
	Instruction = "You are a video summarizer. Given the following transcript of a video, provide a concise summary of the main points and key information. Also expand a little bit on the summary:"
	Temperature = 0.5
)

// SummarizationError reports a failed summary call.
type SummarizationError struct {
	Err error
}

func (e *SummarizationError) Error() string {
	return fmt.Sprintf("summarize: %v", e.Err)
}

func (e *SummarizationError) Unwrap() error { return e.Err }

// Summarizer turns a transcript into a summary with a fixed instruction.
type Summarizer struct {
	gen   llm.Generator
	model string
	log   *logrus.Entry
}

func New(gen llm.Generator, model string, log *logrus.Entry) *Summarizer {
	return &Summarizer{gen: gen, model: model, log: log.WithField("component", "summarizer")}
}

// Summarize returns the service's text verbatim.
func (s *Summarizer) Summarize(ctx context.Context, transcript string) (string, error) {
	s.log.WithField("transcript_chars", len(transcript)).Info("requesting summary")

	text, err := s.gen.Complete(ctx, llm.Request{
		Model:       s.model,
		Temperature: Temperature,
		System:      Instruction,
		User:        transcript,
	})
	if err != nil {
		return "", &SummarizationError{Err: err}
	}
	return text, nil
}
