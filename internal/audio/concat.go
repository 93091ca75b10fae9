package audio

import (
	"fmt"

	"github.com/book-expert/voice-service/internal/core"
)

// Concatenate losslessly appends the canonical WAV files at paths, in order,
// into a single canonical WAV at outPath, and returns the merged duration in
// seconds. All inputs must already be in canonical form; a mismatch is a
// programming error upstream and aborts the merge. An empty path list yields
// a zero-length canonical WAV.
func Concatenate(paths []string, outPath string) (float64, error) {
	var merged []int16

	for _, path := range paths {
		samples, err := ReadCanonicalFile(path)
		if err != nil {
			return 0, fmt.Errorf("%w: segment %s: %w", core.ErrPipelineIO, path, err)
		}

		merged = append(merged, samples...)
	}

	err := WriteCanonicalFile(outPath, merged)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", core.ErrPipelineIO, err)
	}

	return Duration(len(merged)), nil
}
