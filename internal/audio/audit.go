package audio

import (
	"fmt"
	"math"
	"strings"

	"github.com/book-expert/voice-service/internal/core"
)

// Audit scoring constants.
const (
	scoreStart  = 100
	scoreFloor  = 0
	warnPenalty = 10
	failPenalty = 30
	warnPrefix  = "WARN: "
	failPrefix  = "FAIL: "
	msgShortFmt = "WARN: duration short (%.2fs)"
	msgLoudness = "WARN: loudness %.1f dBFS outside target %.1f dBFS (±%.1f dB)"
	msgNonCanon = "FAIL: non-canonical artifact"
)

// AuditorOptions holds the audit thresholds.
type AuditorOptions struct {
	MinDurationSec      float64
	LoudnessTargetDBFS  float64
	LoudnessToleranceDB float64
}

// Auditor computes advisory quality reports over merged artifacts. A fail
// verdict never blocks publication; the caller decides what to do with it.
type Auditor struct {
	opts AuditorOptions
}

// NewAuditor creates an Auditor with the given thresholds.
func NewAuditor(opts AuditorOptions) *Auditor {
	return &Auditor{opts: opts}
}

// Audit inspects the merged artifact at path and returns its quality report.
func (a *Auditor) Audit(path string, durationSec float64) core.QualityReport {
	var messages []string

	if durationSec < a.opts.MinDurationSec {
		messages = append(messages, fmt.Sprintf(msgShortFmt, durationSec))
	}

	samples, err := ReadCanonicalFile(path)

	switch {
	case err != nil:
		// Unreadable or non-canonical output is a format failure, not an
		// error: the report carries the verdict.
		messages = append(messages, msgNonCanon)
	default:
		loudness := MeanDBFS(samples)
		if math.Abs(loudness-a.opts.LoudnessTargetDBFS) > a.opts.LoudnessToleranceDB {
			messages = append(messages, fmt.Sprintf(
				msgLoudness,
				loudness,
				a.opts.LoudnessTargetDBFS,
				a.opts.LoudnessToleranceDB,
			))
		}
	}

	return buildReport(messages)
}

// buildReport derives the overall verdict and score from the message list.
func buildReport(messages []string) core.QualityReport {
	overall := core.QualityPass
	score := scoreStart

	for _, message := range messages {
		switch {
		case strings.HasPrefix(message, failPrefix):
			overall = core.QualityFail
			score -= failPenalty
		case strings.HasPrefix(message, warnPrefix):
			if overall != core.QualityFail {
				overall = core.QualityWarn
			}

			score -= warnPenalty
		}
	}

	if score < scoreFloor {
		score = scoreFloor
	}

	if messages == nil {
		messages = []string{}
	}

	return core.QualityReport{
		OverallQuality: overall,
		QualityScore:   score,
		Messages:       messages,
	}
}
