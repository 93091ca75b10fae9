// main package for the voice-service
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

	"github.com/book-expert/logger"
	"github.com/nats-io/nats.go"

	"github.com/book-expert/voice-service/internal/audio"
	"github.com/book-expert/voice-service/internal/config"
	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/fetch"
	"github.com/book-expert/voice-service/internal/httpapi"
	"github.com/book-expert/voice-service/internal/inference"
	"github.com/book-expert/voice-service/internal/objectstore"
	"github.com/book-expert/voice-service/internal/pipeline"
	"github.com/book-expert/voice-service/internal/staticstore"
)

const (
	shutdownTimeout   = 10 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func setupLogger(logPath string) (*logger.Logger, error) {
	log, err := logger.New(logPath, "voice-service.log")
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return log, nil
}

func run() error {
	// 1. Create a temporary logger for the bootstrap process
	bootstrapLog, err := setupLogger(os.TempDir())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to create bootstrap logger: %v\n", err)

		return err
	}

	// 2. Load configuration using the central configurator
	cfg, err := config.Load(bootstrapLog)
	if err != nil {
		bootstrapLog.Error("Failed to load configuration: %v", err)

		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// 3. Initialize the final logger based on the loaded configuration
	finalLog, err := setupLogger(cfg.Paths.BaseLogsDir)
	if err != nil {
		bootstrapLog.Error("Failed to create final logger: %v", err)

		return fmt.Errorf("failed to create final logger: %w", err)
	}

	defer func() {
		closeErr := finalLog.Close()
		if closeErr != nil {
			fmt.Fprintf(os.Stderr, "error closing final logger: %v\n", closeErr)
		}
	}()

	return serve(cfg, finalLog)
}

func serve(cfg *config.Config, log *logger.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := buildStaticStore(ctx, cfg, log)
	if err != nil {
		return err
	}

	voicePipeline, err := buildPipeline(cfg, store, log)
	if err != nil {
		return err
	}

	inferenceClient := inference.NewClient(
		cfg.Inference.BaseURL,
		cfg.Inference.APIToken,
		cfg.Inference.ModelVersion,
	)

	server := httpapi.New(voicePipeline, inferenceClient, store, log)

	go store.RunReclaimer(ctx)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	serveErrCh := make(chan error, 1)

	go func() {
		log.System("Voice service listening on %s", addr)
		serveErrCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.System("Shutdown signal received")
	case serveErr := <-serveErrCh:
		if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", serveErr)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	shutdownErr := httpServer.Shutdown(shutdownCtx)
	if shutdownErr != nil {
		return fmt.Errorf("http server shutdown failed: %w", shutdownErr)
	}

	return nil
}

func buildStaticStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*staticstore.Store, error) {
	mirror, err := buildMirror(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	store, err := staticstore.New(staticstore.Options{
		Root:            cfg.Paths.StaticFilesDir,
		BaseURL:         cfg.Static.BaseURL,
		Lifetime:        time.Duration(cfg.Static.FileLifetimeSec) * time.Second,
		ReclaimInterval: time.Duration(cfg.Static.ReclaimIntervalSec) * time.Second,
		Mirror:          mirror,
	}, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create static store: %w", err)
	}

	return store, nil
}

// buildMirror connects the optional NATS artifact mirror; deployments without
// one run purely on the local static root.
func buildMirror(_ context.Context, cfg *config.Config, log *logger.Logger) (core.ObjectMirror, error) {
	if !cfg.NATS.Enabled {
		return nil, nil
	}

	natsConnection, err := nats.Connect(cfg.NATS.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATS.URL, err)
	}

	jetstreamContext, err := natsConnection.JetStream()
	if err != nil {
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	mirror, err := objectstore.New(jetstreamContext, cfg.NATS.MirrorBucket)
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact mirror: %w", err)
	}

	log.System("Artifact mirror enabled (bucket %s)", cfg.NATS.MirrorBucket)

	return mirror, nil
}

func buildPipeline(cfg *config.Config, store *staticstore.Store, log *logger.Logger) (*pipeline.Pipeline, error) {
	decoder, err := audio.NewDecoder()
	if err != nil {
		return nil, fmt.Errorf("failed to locate audio decoder: %w", err)
	}

	processor := audio.NewProcessor(decoder, audio.ProcessorOptions{
		LoudnessTargetDBFS: cfg.Audio.LoudnessTargetDBFS,
		SilenceThreshDBFS:  cfg.Audio.SilenceThreshDBFS,
		MinSilenceMs:       cfg.Audio.MinSilenceMs,
		KeepSilenceMs:      cfg.Audio.KeepSilenceMs,
		LowEnergyFloorDBFS: cfg.Audio.LowEnergyFloorDBFS,
	}, log)

	auditor := audio.NewAuditor(audio.AuditorOptions{
		MinDurationSec:      cfg.Audio.MinDurationSec,
		LoudnessTargetDBFS:  cfg.Audio.LoudnessTargetDBFS,
		LoudnessToleranceDB: cfg.Audio.LoudnessToleranceDB,
	})

	fetcher := fetch.NewDownloader(time.Duration(cfg.Audio.FetchTimeoutSec) * time.Second)

	return pipeline.New(fetcher, processor, auditor, store, "", log), nil
}

func main() {
	err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Service exited with error: %v\n", err)
		os.Exit(1)
	}
}
