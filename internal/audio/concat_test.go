// Package audio_test tests lossless concatenation.
package audio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/voice-service/internal/audio"
	"github.com/book-expert/voice-service/internal/core"
)

func writeSegment(t *testing.T, dir, name string, samples []int16) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, audio.WriteCanonicalFile(path, samples))

	return path
}

func TestConcatenatePreservesOrder(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := sineSamples(t, 0.5, 0.5, 220)
	second := sineSamples(t, 0.25, 0.5, 880)

	paths := []string{
		writeSegment(t, dir, "a.wav", first),
		writeSegment(t, dir, "b.wav", second),
	}
	outPath := filepath.Join(dir, "merged.wav")

	duration, err := audio.Concatenate(paths, outPath)
	require.NoError(t, err)
	assert.InDelta(t, 0.75, duration, 0.001)

	merged, err := audio.ReadCanonicalFile(outPath)
	require.NoError(t, err)

	assert.Equal(t, first, merged[:len(first)])
	assert.Equal(t, second, merged[len(first):])
}

func TestConcatenateSingleSegmentBitwiseIdentity(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	samples := sineSamples(t, 1.0, 0.7, 440)
	inPath := writeSegment(t, dir, "only.wav", samples)
	outPath := filepath.Join(dir, "merged.wav")

	_, err := audio.Concatenate([]string{inPath}, outPath)
	require.NoError(t, err)

	inData, err := os.ReadFile(inPath)
	require.NoError(t, err)

	outData, err := os.ReadFile(outPath)
	require.NoError(t, err)

	assert.Equal(t, inData, outData)
}

func TestConcatenateEmptyListYieldsZeroLengthWAV(t *testing.T) {
	t.Parallel()

	outPath := filepath.Join(t.TempDir(), "empty.wav")

	duration, err := audio.Concatenate(nil, outPath)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, duration, 0.0001)

	samples, err := audio.ReadCanonicalFile(outPath)
	require.NoError(t, err)
	assert.Empty(t, samples)
}

func TestConcatenateRejectsMissingSegment(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	outPath := filepath.Join(dir, "merged.wav")

	_, err := audio.Concatenate([]string{filepath.Join(dir, "absent.wav")}, outPath)
	require.ErrorIs(t, err, core.ErrPipelineIO)
}
