package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"media-digest-go/internal/progress"
	"media-digest-go/internal/types"
)

// Stage names one step of the summarize pipeline.
type Stage string

const (
	StageIdle         Stage = "idle"
	StageResolving    Stage = "resolving"
	StageDownloading  Stage = "downloading"
	StageTranscribing Stage = "transcribing"
	StageSummarizing  Stage = "summarizing"
	StageDone         Stage = "done"
)

// StageError wraps the failure that aborted the pipeline.
type StageError struct {
	JobID string
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("job %s failed while %s: %v", e.JobID, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Resolver interface {
	Resolve(ctx context.Context, sourceURL string) (types.ResolvedAudio, error)
}

type Downloader interface {
	Download(ctx context.Context, directURL, destPath string) error
}

type Transcriber interface {
	Transcribe(ctx context.Context, filePath string) (string, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, transcript string) (string, error)
}

// Processor runs resolve -> download -> transcribe -> summarize for one URL.
type Processor struct {
	resolver    Resolver
	downloader  Downloader
	transcriber Transcriber
	summarizer  Summarizer
	scratchDir  string
	log         *logrus.Entry
}

func New(r Resolver, d Downloader, t Transcriber, s Summarizer, scratchDir string, log *logrus.Entry) *Processor {
	return &Processor{
		resolver:    r,
		downloader:  d,
		transcriber: t,
		summarizer:  s,
		scratchDir:  scratchDir,
		log:         log.WithField("component", "processor"),
	}
}

// Process runs the pipeline for sourceURL, reporting checkpoints to rep.
// rep is reset to idle on every exit path, and the scratch file is removed.
func (p *Processor) Process(ctx context.Context, jobID, sourceURL string, rep progress.Reporter) (types.Summary, error) {
	start := time.Now()
	log := p.log.WithFields(logrus.Fields{"job_id": jobID, "source_url": sourceURL})

	rep.Reset()
	defer rep.Reset()

	stage := StageIdle
	fail := func(err error) (types.Summary, error) {
		serr := &StageError{JobID: jobID, Stage: stage, Err: err}
		log.WithFields(logrus.Fields{
			"stage":       string(stage),
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Error("pipeline failed")
		return types.Summary{}, serr
	}
	enter := func(next Stage, value int) {
		stage = next
		if value >= 0 {
			rep.Set(value)
		}
		log.WithField("stage", string(next)).Info("pipeline stage")
	}

	enter(StageResolving, progress.Resolving)
	audio, err := p.resolver.Resolve(ctx, sourceURL)
	if err != nil {
		return fail(err)
	}

	enter(StageDownloading, progress.Downloading)
	scratch, release, err := p.scratchFile(jobID)
	if err != nil {
		return fail(err)
	}
	defer release()

	if err := p.downloader.Download(ctx, audio.DirectURL, scratch); err != nil {
		return fail(err)
	}

	enter(StageTranscribing, progress.Transcribing)
	transcript, err := p.transcriber.Transcribe(ctx, scratch)
	if err != nil {
		return fail(err)
	}

	// Progress stays at the transcribing checkpoint until the summary arrives.
	enter(StageSummarizing, -1)
	summary, err := p.summarizer.Summarize(ctx, transcript)
	if err != nil {
		return fail(err)
	}

	enter(StageDone, progress.Done)
	log.WithField("duration_ms", time.Since(start).Milliseconds()).Info("pipeline finished")
	return types.Summary{JobID: jobID, Summary: summary, Title: audio.Title}, nil
}

// scratchFile reserves a unique path for this job's audio. release removes it
// whether or not the transcriber already did.
func (p *Processor) scratchFile(jobID string) (string, func(), error) {
	f, err := os.CreateTemp(p.scratchDir, "audio-"+jobID+"-*.mp3")
	if err != nil {
		return "", nil, fmt.Errorf("create scratch file: %w", err)
	}
	path := f.Name()
	f.Close()

	release := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			p.log.WithField("path", path).WithField("error", err.Error()).Warn("failed to remove scratch file")
		}
	}
	return path, release, nil
}
