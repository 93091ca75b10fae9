// Package audio_test tests the canonical WAV codec.
package audio_test

import (
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-service/internal/audio"
)

// sineSamples generates a mono sine tone at the canonical rate.
func sineSamples(t *testing.T, seconds float64, amplitude float64, freqHz float64) []int16 {
	t.Helper()

	count := int(seconds * audio.CanonicalSampleRate)
	samples := make([]int16, count)

	for i := range samples {
		phase := 2 * math.Pi * freqHz * float64(i) / audio.CanonicalSampleRate
		samples[i] = int16(amplitude * 32767 * math.Sin(phase))
	}

	return samples
}

func TestEncodeParseRoundTrip(t *testing.T) {
	t.Parallel()

	samples := sineSamples(t, 0.5, 0.8, 440)

	data := audio.EncodeCanonical(samples)
	parsed, err := audio.ParseCanonical(data)
	require.NoError(t, err)

	assert.Equal(t, samples, parsed)
}

func TestEncodeCanonicalZeroLength(t *testing.T) {
	t.Parallel()

	data := audio.EncodeCanonical(nil)

	parsed, err := audio.ParseCanonical(data)
	require.NoError(t, err)
	assert.Empty(t, parsed)
}

func TestParseCanonicalRejectsGarbage(t *testing.T) {
	t.Parallel()

	_, err := audio.ParseCanonical([]byte("definitely not a wav file"))
	require.ErrorIs(t, err, audio.ErrMalformedWAV)
}

func TestParseCanonicalRejectsTruncated(t *testing.T) {
	t.Parallel()

	data := audio.EncodeCanonical(sineSamples(t, 0.1, 0.5, 440))

	_, err := audio.ParseCanonical(data[:20])
	require.ErrorIs(t, err, audio.ErrMalformedWAV)
}

func TestWriteAndReadCanonicalFile(t *testing.T) {
	t.Parallel()

	samples := sineSamples(t, 0.25, 0.6, 220)
	path := filepath.Join(t.TempDir(), "tone.wav")

	err := audio.WriteCanonicalFile(path, samples)
	require.NoError(t, err)

	read, err := audio.ReadCanonicalFile(path)
	require.NoError(t, err)
	assert.Equal(t, samples, read)
}

func TestProbeReportsCanonicalForm(t *testing.T) {
	t.Parallel()

	samples := sineSamples(t, 1.0, 0.5, 440)
	path := filepath.Join(t.TempDir(), "probe.wav")

	require.NoError(t, audio.WriteCanonicalFile(path, samples))

	info, err := audio.Probe(path)
	require.NoError(t, err)

	assert.True(t, info.IsCanonical())
	assert.Equal(t, audio.CanonicalSampleRate, info.SampleRate)
	assert.Equal(t, audio.CanonicalChannels, info.Channels)
	assert.Equal(t, audio.CanonicalBitDepth, info.BitDepth)
	assert.Equal(t, len(samples), info.SampleCount)
}

func TestDuration(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 1.0, audio.Duration(audio.CanonicalSampleRate), 0.0001)
	assert.InDelta(t, 0.0, audio.Duration(0), 0.0001)
}
