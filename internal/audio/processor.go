package audio

import (
	"context"
	"fmt"

	"github.com/book-expert/logger"
	"github.com/book-expert/voice-service/internal/core"
)

// Warning messages recorded by the processor.
const (
	warnAllSilent = "segment is entirely below the silence threshold; trim skipped"
	warnLowEnergy = "segment mean loudness below floor; replaced with placeholder"
)

// PCMDecoder decodes an audio file into canonical-rate mono samples.
type PCMDecoder interface {
	Decode(ctx context.Context, path string) ([]int16, error)
}

// ProcessorOptions holds the preprocessing thresholds.
type ProcessorOptions struct {
	LoudnessTargetDBFS float64
	SilenceThreshDBFS  float64
	MinSilenceMs       int
	KeepSilenceMs      int
	LowEnergyFloorDBFS float64
}

// Processor conforms raw downloaded segments into the canonical form. It
// implements core.SegmentProcessor.
type Processor struct {
	decoder PCMDecoder
	opts    ProcessorOptions
	log     *logger.Logger
}

// NewProcessor creates a Processor over the given decoder.
func NewProcessor(decoder PCMDecoder, opts ProcessorOptions, log *logger.Logger) *Processor {
	return &Processor{
		decoder: decoder,
		opts:    opts,
		log:     log,
	}
}

// Conform decodes rawPath, applies the preprocessing chain, and writes a
// canonical WAV to outPath. The chain is: decode, peak normalize, silence
// trim, low-energy reject, loudness normalize. Only decode failures are
// errors; everything else degrades to a recorded warning.
func (p *Processor) Conform(ctx context.Context, rawPath, outPath string) (core.ProcessResult, error) {
	samples, err := p.decoder.Decode(ctx, rawPath)
	if err != nil {
		return core.ProcessResult{}, fmt.Errorf("%w: %w", core.ErrDecode, err)
	}

	var warnings []string

	samples = PeakNormalize(samples)

	trimmed, allSilent := TrimSilence(
		samples,
		p.opts.MinSilenceMs,
		p.opts.KeepSilenceMs,
		p.opts.SilenceThreshDBFS,
	)
	if allSilent {
		warnings = append(warnings, warnAllSilent)
		p.log.Warn("Segment %s: %s", rawPath, warnAllSilent)
	} else {
		samples = trimmed
	}

	if MeanDBFS(samples) < p.opts.LowEnergyFloorDBFS {
		samples = LowEnergyPlaceholder()

		warnings = append(warnings, warnLowEnergy)
		p.log.Warn("Segment %s: %s", rawPath, warnLowEnergy)
	}

	samples = LoudnessNormalize(samples, p.opts.LoudnessTargetDBFS)

	writeErr := WriteCanonicalFile(outPath, samples)
	if writeErr != nil {
		return core.ProcessResult{}, fmt.Errorf("%w: %w", core.ErrPipelineIO, writeErr)
	}

	return core.ProcessResult{
		DurationSeconds: Duration(len(samples)),
		Warnings:        warnings,
	}, nil
}
