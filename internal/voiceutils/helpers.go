// Package voiceutils provides small file and formatting helpers shared by the
// voice service and its CLI client.
package voiceutils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Directory permissions for created paths.
const (
	defaultDirPermissions = 0o750
)

// Time formatting constants.
const (
	secondsInMinute = 60
	secondsInHour   = 3600
	formatSeconds   = "%.1fs"
	formatMinutes   = "%dm %.1fs"
	formatHours     = "%dh %dm"
)

// File extension constants.
const (
	extAAC  = ".aac"
	extFLAC = ".flac"
	extM4A  = ".m4a"
	extMP3  = ".mp3"
	extOGG  = ".ogg"
	extWAV  = ".wav"
)

const invalidCharReplacement = "_"

// EnsureDir ensures a directory exists at the given path, creating it if it
// doesn't.
func EnsureDir(path string) error {
	_, statErr := os.Stat(path)
	if os.IsNotExist(statErr) {
		mkdirErr := os.MkdirAll(path, defaultDirPermissions)
		if mkdirErr != nil {
			return fmt.Errorf("failed to create directory %s: %w", path, mkdirErr)
		}
	}

	return nil
}

// FormatDuration formats a duration in a human-readable string (e.g., "1h 15m",
// "5m 30.5s", "45.2s").
func FormatDuration(seconds float64) string {
	if seconds < secondsInMinute {
		return fmt.Sprintf(formatSeconds, seconds)
	}

	if seconds < secondsInHour {
		minutes := int(seconds / secondsInMinute)
		remainingSeconds := seconds - float64(minutes*secondsInMinute)

		return fmt.Sprintf(formatMinutes, minutes, remainingSeconds)
	}

	hours := int(seconds / secondsInHour)
	remainingSeconds := seconds - float64(hours*secondsInHour)
	remainingMinutes := int(remainingSeconds / secondsInMinute)

	return fmt.Sprintf(formatHours, hours, remainingMinutes)
}

// IsValidAudioFile checks if a filename has a common audio file extension.
func IsValidAudioFile(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case extWAV, extMP3, extFLAC, extOGG, extM4A, extAAC:
		return true
	default:
		return false
	}
}

// SanitizeFilename removes or replaces characters that are invalid in most
// filesystems.
func SanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"<", invalidCharReplacement,
		">", invalidCharReplacement,
		":", invalidCharReplacement,
		"\"", invalidCharReplacement,
		"/", invalidCharReplacement,
		"\\", invalidCharReplacement,
		"|", invalidCharReplacement,
		"?", invalidCharReplacement,
		"*", invalidCharReplacement,
	)

	return replacer.Replace(filename)
}
