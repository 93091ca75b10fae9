// Package pipeline orchestrates the audio preprocessing flow: fetch each
// source URL, conform it to the canonical form, concatenate losslessly,
// audit the merged artifact, and publish it to the static store.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/book-expert/logger"

	"github.com/book-expert/voice-service/internal/audio"
	"github.com/book-expert/voice-service/internal/core"
)

// Scratch and artifact naming.
const (
	scratchPattern = "voice-preprocess-*"
	rawNameFormat  = "raw_%04d"
	segNameFormat  = "segment_%04d.wav"
	mergedName     = "merged.wav"
	extensionWAV   = ".wav"
)

// Pipeline runs preprocess requests end-to-end with scoped scratch release.
// It implements core.Preprocessor.
type Pipeline struct {
	fetcher     core.SegmentFetcher
	processor   core.SegmentProcessor
	auditor     *audio.Auditor
	store       core.ArtifactStore
	scratchRoot string
	log         *logger.Logger
}

// New creates a Pipeline from its collaborators. scratchRoot is the parent
// directory for per-request scratch directories; empty means the system
// temporary directory.
func New(
	fetcher core.SegmentFetcher,
	processor core.SegmentProcessor,
	auditor *audio.Auditor,
	store core.ArtifactStore,
	scratchRoot string,
	log *logger.Logger,
) *Pipeline {
	return &Pipeline{
		fetcher:     fetcher,
		processor:   processor,
		auditor:     auditor,
		store:       store,
		scratchRoot: scratchRoot,
		log:         log,
	}
}

// Process runs the full pipeline over audioURLs in caller order. Any fetch or
// decode failure aborts the run with the original error kind; the scratch
// directory is released on every exit path, including cancellation.
func (p *Pipeline) Process(ctx context.Context, audioURLs []string) (core.PreprocessResult, error) {
	if len(audioURLs) == 0 {
		return core.PreprocessResult{}, fmt.Errorf("%w: audio_urls cannot be empty", core.ErrInvalidInput)
	}

	scratchDir, err := os.MkdirTemp(p.scratchRoot, scratchPattern)
	if err != nil {
		return core.PreprocessResult{}, fmt.Errorf("%w: failed to create scratch directory: %w",
			core.ErrPipelineIO, err)
	}

	defer func() {
		removeErr := os.RemoveAll(scratchDir)
		if removeErr != nil {
			p.log.Warn("Failed to remove scratch directory %s: %v", scratchDir, removeErr)
		}
	}()

	segmentPaths, err := p.conformSegments(ctx, audioURLs, scratchDir)
	if err != nil {
		return core.PreprocessResult{}, err
	}

	mergedPath := filepath.Join(scratchDir, mergedName)

	duration, err := audio.Concatenate(segmentPaths, mergedPath)
	if err != nil {
		return core.PreprocessResult{}, err
	}

	report := p.auditor.Audit(mergedPath, duration)

	publicURL, err := p.store.Publish(mergedPath, extensionWAV)
	if err != nil {
		return core.PreprocessResult{}, err
	}

	p.log.Info("Published artifact %s (%.2fs, %s)", publicURL, duration, report.OverallQuality)

	return core.PreprocessResult{
		ProcessedAudioURL: publicURL,
		Duration:          duration,
		QualityReport:     report,
	}, nil
}

// conformSegments fetches and conforms every URL in order, returning the
// canonical segment paths. The first failure aborts the whole run.
func (p *Pipeline) conformSegments(ctx context.Context, audioURLs []string, scratchDir string) ([]string, error) {
	segmentPaths := make([]string, 0, len(audioURLs))

	for index, sourceURL := range audioURLs {
		ctxErr := ctx.Err()
		if ctxErr != nil {
			return nil, fmt.Errorf("%w: request cancelled: %w", core.ErrPipelineIO, ctxErr)
		}

		rawPath := filepath.Join(scratchDir, fmt.Sprintf(rawNameFormat, index))
		segPath := filepath.Join(scratchDir, fmt.Sprintf(segNameFormat, index))

		fetchErr := p.fetcher.Fetch(ctx, sourceURL, rawPath)
		if fetchErr != nil {
			return nil, fmt.Errorf("segment %d: %w", index, fetchErr)
		}

		result, conformErr := p.processor.Conform(ctx, rawPath, segPath)
		if conformErr != nil {
			return nil, fmt.Errorf("segment %d: %w", index, conformErr)
		}

		for _, warning := range result.Warnings {
			p.log.Warn("Segment %d (%s): %s", index, sourceURL, warning)
		}

		segmentPaths = append(segmentPaths, segPath)
	}

	return segmentPaths, nil
}
