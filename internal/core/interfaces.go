// Package core defines the core business logic and interfaces for the voice service.
package core

import "context"

// SegmentFetcher downloads a remote audio resource to a local path.
type SegmentFetcher interface {
	Fetch(ctx context.Context, url, destPath string) error
}

// SegmentProcessor conforms a raw downloaded segment into the canonical WAV form.
type SegmentProcessor interface {
	Conform(ctx context.Context, rawPath, outPath string) (ProcessResult, error)
}

// ArtifactStore names, publishes, and reclaims artifacts under the static root.
type ArtifactStore interface {
	Publish(localPath, extension string) (string, error)
	Reclaim() error
}

// SpeechGenerator calls the external voice-cloning provider and returns the URL
// of the generated audio.
type SpeechGenerator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// ObjectMirror is an optional remote blob store that mirrors published artifacts.
type ObjectMirror interface {
	Download(ctx context.Context, key string) ([]byte, error)
	Upload(ctx context.Context, key string, data []byte) error
}

// Preprocessor runs the full preprocessing pipeline over a list of source URLs.
type Preprocessor interface {
	Process(ctx context.Context, audioURLs []string) (PreprocessResult, error)
}
