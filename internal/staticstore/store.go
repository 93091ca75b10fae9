// Package staticstore owns the static root directory: artifact naming,
// publication, serving, and age-based reclamation.
package staticstore

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/book-expert/logger"
	"github.com/google/uuid"

	"github.com/book-expert/voice-service/internal/core"
	"github.com/book-expert/voice-service/internal/voiceutils"
)

// Public URL path under which artifacts are served.
const (
	StaticURLPrefix = "/static/"
	contentTypeWAV  = "audio/wav"
	extensionWAV    = ".wav"
	filePermissions = 0o600
)

// ErrNotDirectory indicates the static root path exists but is not a directory.
var ErrNotDirectory = errors.New("static root is not a directory")

// Store publishes artifacts into the static root under UUID names and
// reclaims them once they exceed the configured lifetime. It implements
// core.ArtifactStore.
type Store struct {
	root     string
	baseURL  string
	lifetime time.Duration
	interval time.Duration
	mirror   core.ObjectMirror
	log      *logger.Logger
}

// Options configures a Store.
type Options struct {
	// Root is the static files directory; created if absent.
	Root string
	// BaseURL is the scheme+host prefix used to build public URLs.
	BaseURL string
	// Lifetime is the age past which an artifact is reclaimed.
	Lifetime time.Duration
	// ReclaimInterval is the pause between reclaimer sweeps.
	ReclaimInterval time.Duration
	// Mirror, when non-nil, receives a copy of every published artifact.
	Mirror core.ObjectMirror
}

// New creates the static root if needed and returns a Store.
func New(opts Options, log *logger.Logger) (*Store, error) {
	err := voiceutils.EnsureDir(opts.Root)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare static root: %w", err)
	}

	info, statErr := os.Stat(opts.Root)
	if statErr != nil {
		return nil, fmt.Errorf("failed to stat static root %s: %w", opts.Root, statErr)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, opts.Root)
	}

	return &Store{
		root:     opts.Root,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		lifetime: opts.Lifetime,
		interval: opts.ReclaimInterval,
		mirror:   opts.Mirror,
		log:      log,
	}, nil
}

// Publish moves the file at localPath under the static root, renaming it to a
// fresh UUID with the given extension, and returns the public URL. The move
// falls back to copy+remove when the scratch directory is on another
// filesystem. Published files are immutable once named.
func (s *Store) Publish(localPath, extension string) (string, error) {
	name := uuid.NewString() + extension
	destPath := filepath.Join(s.root, name)

	err := moveFile(localPath, destPath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to publish %s: %w", core.ErrPipelineIO, localPath, err)
	}

	s.mirrorArtifact(name, destPath)

	return s.baseURL + StaticURLPrefix + name, nil
}

// Reclaim performs one sweep over the static root, removing every regular
// file whose modification-time age exceeds the lifetime. Individual failures
// are logged and do not abort the sweep.
func (s *Store) Reclaim() error {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return fmt.Errorf("failed to enumerate static root %s: %w", s.root, err)
	}

	cutoff := time.Now().Add(-s.lifetime)

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}

		info, infoErr := entry.Info()
		if infoErr != nil {
			s.log.Warn("Reclaim: failed to stat %s: %v", entry.Name(), infoErr)

			continue
		}

		if info.ModTime().After(cutoff) {
			continue
		}

		removeErr := os.Remove(filepath.Join(s.root, entry.Name()))
		if removeErr != nil {
			// A publish racing the sweep at the age boundary can make
			// the unlink fail; tolerated.
			s.log.Warn("Reclaim: failed to remove %s: %v", entry.Name(), removeErr)

			continue
		}

		s.log.Info("Reclaimed aged artifact %s", entry.Name())
	}

	return nil
}

// RunReclaimer sweeps immediately and then on every interval tick until ctx
// is done. It is intended to run as a single background goroutine.
func (s *Store) RunReclaimer(ctx context.Context) {
	sweepErr := s.Reclaim()
	if sweepErr != nil {
		s.log.Warn("Reclaimer sweep failed: %v", sweepErr)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			sweepErr = s.Reclaim()
			if sweepErr != nil {
				s.log.Warn("Reclaimer sweep failed: %v", sweepErr)
			}
		}
	}
}

// Handler serves artifacts under GET /static/<name>.
func (s *Store) Handler() http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, req *http.Request) {
		name := strings.TrimPrefix(req.URL.Path, StaticURLPrefix)
		if name == "" || name != filepath.Base(name) {
			http.NotFound(writer, req)

			return
		}

		if strings.HasSuffix(name, extensionWAV) {
			writer.Header().Set("Content-Type", contentTypeWAV)
		}

		http.ServeFile(writer, req, filepath.Join(s.root, name))
	})
}

// mirrorArtifact uploads the published file to the configured object mirror.
// Mirror failures are logged and never fail the publish.
func (s *Store) mirrorArtifact(name, path string) {
	if s.mirror == nil {
		return
	}

	data, readErr := os.ReadFile(path)
	if readErr != nil {
		s.log.Warn("Mirror: failed to read %s: %v", path, readErr)

		return
	}

	uploadErr := s.mirror.Upload(context.Background(), name, data)
	if uploadErr != nil {
		s.log.Warn("Mirror: failed to upload %s: %v", name, uploadErr)
	}
}

// moveFile renames src to dest, falling back to copy+remove across devices.
func moveFile(src, dest string) error {
	renameErr := os.Rename(src, dest)
	if renameErr == nil {
		return nil
	}

	data, readErr := os.ReadFile(src)
	if readErr != nil {
		return fmt.Errorf("failed to read %s for copy: %w", src, readErr)
	}

	writeErr := os.WriteFile(dest, data, filePermissions)
	if writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", dest, writeErr)
	}

	removeErr := os.Remove(src)
	if removeErr != nil {
		return fmt.Errorf("failed to remove %s after copy: %w", src, removeErr)
	}

	return nil
}
