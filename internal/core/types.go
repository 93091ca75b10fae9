package core

import "errors"

// Overall quality verdicts for an audit report.
const (
	QualityPass = "pass"
	QualityWarn = "warn"
	QualityFail = "fail"
)

// Error kinds surfaced by the service. Each kind maps to exactly one HTTP
// disposition at the facade; components wrap these with fmt.Errorf("%w", ...)
// so the kind survives the trip up the call stack.
var (
	// ErrInvalidInput indicates a caller-supplied value failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrFetch indicates a source URL could not be downloaded.
	ErrFetch = errors.New("fetch failed")
	// ErrDecode indicates a downloaded segment could not be decoded.
	ErrDecode = errors.New("decode failed")
	// ErrPipelineIO indicates a local filesystem or scratch failure.
	ErrPipelineIO = errors.New("pipeline io failure")
	// ErrUpstreamUnavailable indicates a transport-level failure reaching the
	// inference provider.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamRejected indicates the inference provider returned an error.
	ErrUpstreamRejected = errors.New("upstream rejected request")
	// ErrUpstreamMalformed indicates the provider response lacked a usable
	// audio URL.
	ErrUpstreamMalformed = errors.New("upstream response malformed")
)

// QualityReport is the advisory audit computed over a merged artifact.
type QualityReport struct {
	OverallQuality string   `json:"overall_quality"`
	QualityScore   int      `json:"quality_score"`
	Messages       []string `json:"messages"`
}

// ProcessResult describes one conformed segment.
type ProcessResult struct {
	// DurationSeconds is the length of the conformed audio.
	DurationSeconds float64
	// Warnings carries non-fatal observations (all-silent input, low energy).
	Warnings []string
}

// PreprocessResult is the outcome of a successful pipeline run.
type PreprocessResult struct {
	ProcessedAudioURL string        `json:"processed_audio_url"`
	Duration          float64       `json:"duration"`
	QualityReport     QualityReport `json:"quality_report"`
}

// GenerateRequest carries the inputs for one voice-cloning synthesis call.
type GenerateRequest struct {
	SpeakerWavURL string `json:"speaker_wav_url"`
	Text          string `json:"text"`
	Language      string `json:"language"`
}
