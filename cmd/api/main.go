package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"media-digest-go/internal/config"
	"media-digest-go/internal/download"
	"media-digest-go/internal/llm"
	"media-digest-go/internal/logger"
	"media-digest-go/internal/processor"
	"media-digest-go/internal/relay"
	"media-digest-go/internal/resolver"
	"media-digest-go/internal/server"
	"media-digest-go/internal/summarizer"
	"media-digest-go/internal/transcription"
)

func main() {
	log := logger.New()
	log.WithField("service", "media-digest-go").Info("starting service")

	cfg, err := config.Load()
	if err != nil {
		var cerr *config.ConfigurationError
		if errors.As(err, &cerr) {
			fmt.Fprintln(os.Stderr, cerr.Error())
			os.Exit(2)
		}
		log.WithError(err).Fatal("failed to load configuration")
	}

	// Upstream calls are bounded by request contexts.
	httpClient := &http.Client{}

	gen := llm.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIBaseURL, httpClient)
	proc := processor.New(
		resolver.New(cfg.RapidAPIURL, cfg.RapidAPIKey, cfg.RapidAPIHost, httpClient, log.Component("resolver")),
		download.New(log.Component("download"), download.WithHTTPClient(httpClient)),
		transcription.New(cfg.OpenAIBaseURL, cfg.OpenAIKey, cfg.TranscribeModel, httpClient, log.Component("transcription")),
		summarizer.New(gen, cfg.SummaryModel, log.Component("summarizer")),
		cfg.ScratchDir,
		log.Component("processor"),
	)

	api := server.New(server.Options{
		Pipeline:   proc,
		Relay:      relay.New(gen, cfg.ChatModel, log.Component("relay")),
		Logger:     log,
		CORSOrigin: cfg.CORSAllowOrigin,
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.Handler(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.WithError(err).Fatal("server terminated")
		}
	case <-ctx.Done():
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("graceful shutdown failed")
	}
	log.Info("server stopped")
}
