package audio

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os/exec"
)

// Decoder binary and arguments. The decoder is an external collaborator: any
// container ffmpeg can read (WAV, MP3, M4A, OGG, FLAC, ...) is accepted.
const (
	decoderBinary = "ffmpeg"
)

// ErrDecoderNotFound indicates the decoder binary is not on PATH.
var ErrDecoderNotFound = errors.New("decoder binary not found")

// Decoder decodes arbitrary audio containers to canonical raw PCM using an
// ffmpeg subprocess.
type Decoder struct {
	binaryPath string
}

// NewDecoder locates the decoder binary and returns a Decoder.
func NewDecoder() (*Decoder, error) {
	binaryPath, err := exec.LookPath(decoderBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecoderNotFound, decoderBinary, err)
	}

	return &Decoder{binaryPath: binaryPath}, nil
}

// Decode reads the audio file at path and returns canonical-rate mono int16
// samples. Decoding failures indicate an unreadable or unsupported input.
func (d *Decoder) Decode(ctx context.Context, path string) ([]int16, error) {
	args := []string{
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ar", fmt.Sprintf("%d", CanonicalSampleRate),
		"-ac", fmt.Sprintf("%d", CanonicalChannels),
		"-loglevel", "error",
		"pipe:1",
	}

	// #nosec G204 -- binaryPath is resolved via LookPath, args are fixed
	cmd := exec.CommandContext(ctx, d.binaryPath, args...)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("decoder failed for %s: %w", path, err)
	}

	// Drop a trailing odd byte so the int16 conversion stays aligned.
	if len(out)%bytesPerSample != 0 {
		out = out[:len(out)-1]
	}

	samples := make([]int16, len(out)/bytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(out[i*bytesPerSample:]))
	}

	return samples, nil
}
