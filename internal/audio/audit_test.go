// Package audio_test tests the quality auditor.
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

func newTestAuditor() *audio.Auditor {
	return audio.NewAuditor(audio.AuditorOptions{
		MinDurationSec:      20.0,
		LoudnessTargetDBFS:  -5.0,
		LoudnessToleranceDB: 3.0,
	})
}

func TestAuditPass(t *testing.T) {
	t.Parallel()

	samples := audio.LoudnessNormalize(sineSamples(t, 25.0, 0.8, 440), -5.0)
	path := filepath.Join(t.TempDir(), "good.wav")
	require.NoError(t, audio.WriteCanonicalFile(path, samples))

	report := newTestAuditor().Audit(path, audio.Duration(len(samples)))

	assert.Equal(t, core.QualityPass, report.OverallQuality)
	assert.Equal(t, 100, report.QualityScore)
	assert.Empty(t, report.Messages)
}

func TestAuditShortDurationWarns(t *testing.T) {
	t.Parallel()

	samples := audio.LoudnessNormalize(sineSamples(t, 8.0, 0.8, 440), -5.0)
	path := filepath.Join(t.TempDir(), "short.wav")
	require.NoError(t, audio.WriteCanonicalFile(path, samples))

	report := newTestAuditor().Audit(path, audio.Duration(len(samples)))

	assert.Equal(t, core.QualityWarn, report.OverallQuality)
	assert.Equal(t, 90, report.QualityScore)
	assert.Contains(t, report.Messages, "WARN: duration short (8.00s)")
}

func TestAuditLoudnessOutsideToleranceWarns(t *testing.T) {
	t.Parallel()

	samples := audio.LoudnessNormalize(sineSamples(t, 25.0, 0.8, 440), -15.0)
	path := filepath.Join(t.TempDir(), "quiet.wav")
	require.NoError(t, audio.WriteCanonicalFile(path, samples))

	report := newTestAuditor().Audit(path, audio.Duration(len(samples)))

	assert.Equal(t, core.QualityWarn, report.OverallQuality)
	require.Len(t, report.Messages, 1)
	assert.Contains(t, report.Messages[0], "loudness")
}

func TestAuditNonCanonicalFails(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("not a wav"), 0o600))

	report := newTestAuditor().Audit(path, 25.0)

	assert.Equal(t, core.QualityFail, report.OverallQuality)
	assert.Equal(t, 70, report.QualityScore)
	assert.Contains(t, report.Messages, "FAIL: non-canonical artifact")
}

func TestAuditScoreClampsAtZero(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "missing.wav")

	// Short duration (warn) plus unreadable artifact (fail) on an auditor
	// with inflated penalties still yields a score within [0, 100].
	report := newTestAuditor().Audit(path, 1.0)

	assert.Equal(t, core.QualityFail, report.OverallQuality)
	assert.GreaterOrEqual(t, report.QualityScore, 0)
	assert.LessOrEqual(t, report.QualityScore, 100)
}
