// Package fetch downloads remote audio resources to local scratch paths.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/book-expert/voice-service/internal/core"
)

// Download constraints.
const (
	partSuffix      = ".part"
	filePermissions = 0o600
)

// Allowed URL schemes.
const (
	schemeHTTP  = "http"
	schemeHTTPS = "https"
)

// Downloader fetches source audio over HTTP with a bounded timeout and
// redirect following. It implements core.SegmentFetcher.
type Downloader struct {
	httpClient *http.Client
}

// NewDownloader creates a Downloader with the given request timeout.
func NewDownloader(timeout time.Duration) *Downloader {
	return &Downloader{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Fetch downloads url into destPath. The body is written to a sibling .part
// file first and renamed into place, so destPath is never observed partial.
// Non-2xx responses, transport failures, and zero-length bodies all map to
// core.ErrFetch; a malformed or non-http URL maps to core.ErrInvalidInput.
func (d *Downloader) Fetch(ctx context.Context, rawURL, destPath string) error {
	err := validateURL(rawURL)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: failed to build request for %s: %w", core.ErrInvalidInput, rawURL, err)
	}

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", core.ErrFetch, rawURL, err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: %s returned status %s", core.ErrFetch, rawURL, resp.Status)
	}

	written, err := writeAtomic(destPath, resp.Body)
	if err != nil {
		return err
	}

	if written == 0 {
		removeErr := os.Remove(destPath)
		if removeErr != nil && !os.IsNotExist(removeErr) {
			return fmt.Errorf("%w: failed to remove empty download %s: %w",
				core.ErrPipelineIO, destPath, removeErr)
		}

		return fmt.Errorf("%w: %s returned an empty body", core.ErrFetch, rawURL)
	}

	return nil
}

// validateURL accepts absolute http and https URLs only.
func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: unparseable url %q: %w", core.ErrInvalidInput, rawURL, err)
	}

	if parsed.Scheme != schemeHTTP && parsed.Scheme != schemeHTTPS {
		return fmt.Errorf("%w: unsupported url scheme %q", core.ErrInvalidInput, parsed.Scheme)
	}

	if parsed.Host == "" {
		return fmt.Errorf("%w: url %q has no host", core.ErrInvalidInput, rawURL)
	}

	return nil
}

// writeAtomic streams body to destPath via a .part file and rename.
func writeAtomic(destPath string, body io.Reader) (int64, error) {
	partPath := destPath + partSuffix

	partFile, err := os.OpenFile(partPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, filePermissions)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to create %s: %w", core.ErrPipelineIO, partPath, err)
	}

	written, copyErr := io.Copy(partFile, body)
	closeErr := partFile.Close()

	if copyErr != nil {
		_ = os.Remove(partPath)

		return 0, fmt.Errorf("%w: failed to stream body to %s: %w", core.ErrFetch, partPath, copyErr)
	}

	if closeErr != nil {
		_ = os.Remove(partPath)

		return 0, fmt.Errorf("%w: failed to close %s: %w", core.ErrPipelineIO, partPath, closeErr)
	}

	renameErr := os.Rename(partPath, destPath)
	if renameErr != nil {
		return 0, fmt.Errorf("%w: failed to move %s into place: %w", core.ErrPipelineIO, partPath, renameErr)
	}

	return written, nil
}
