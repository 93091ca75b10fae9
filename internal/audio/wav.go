// Package audio implements the preprocessing primitives for the voice service:
// the canonical WAV container, PCM loudness math, silence trimming, decoding,
// lossless concatenation, and the quality audit.
//
// All audio inside the service is kept in the canonical form: RIFF/WAVE
// container, single channel, 16 kHz sample rate, signed 16-bit little-endian
// PCM samples.
package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
)

// Canonical form parameters.
const (
	CanonicalSampleRate = 16000
	CanonicalChannels   = 1
	CanonicalBitDepth   = 16
)

// WAV container constants.
const (
	riffMagic      = "RIFF"
	waveMagic      = "WAVE"
	fmtChunkID     = "fmt "
	dataChunkID    = "data"
	fmtChunkSize   = 16
	pcmFormatTag   = 1
	headerSize     = 44
	bytesPerSample = CanonicalBitDepth / 8
	chunkHeaderLen = 8
	riffHeaderLen  = 12
)

// File permissions for written artifacts.
const (
	filePermissions = 0o600
)

// Errors returned by the WAV codec.
var (
	// ErrMalformedWAV indicates the data is not a parseable RIFF/WAVE stream.
	ErrMalformedWAV = errors.New("malformed wav data")
	// ErrNotCanonical indicates a well-formed WAV that is not in canonical form.
	ErrNotCanonical = errors.New("wav is not in canonical form")
)

// Info describes the format of a parsed WAV stream.
type Info struct {
	SampleRate  int
	Channels    int
	BitDepth    int
	SampleCount int
}

// Duration converts a canonical sample count to seconds.
func Duration(sampleCount int) float64 {
	return float64(sampleCount) / float64(CanonicalSampleRate)
}

// EncodeCanonical serializes samples into a canonical WAV byte stream.
func EncodeCanonical(samples []int16) []byte {
	dataSize := len(samples) * bytesPerSample
	buf := bytes.NewBuffer(make([]byte, 0, headerSize+dataSize))

	byteRate := CanonicalSampleRate * CanonicalChannels * bytesPerSample
	blockAlign := CanonicalChannels * bytesPerSample

	buf.WriteString(riffMagic)
	_ = binary.Write(buf, binary.LittleEndian, uint32(headerSize-chunkHeaderLen+dataSize))
	buf.WriteString(waveMagic)

	buf.WriteString(fmtChunkID)
	_ = binary.Write(buf, binary.LittleEndian, uint32(fmtChunkSize))
	_ = binary.Write(buf, binary.LittleEndian, uint16(pcmFormatTag))
	_ = binary.Write(buf, binary.LittleEndian, uint16(CanonicalChannels))
	_ = binary.Write(buf, binary.LittleEndian, uint32(CanonicalSampleRate))
	_ = binary.Write(buf, binary.LittleEndian, uint32(byteRate))
	_ = binary.Write(buf, binary.LittleEndian, uint16(blockAlign))
	_ = binary.Write(buf, binary.LittleEndian, uint16(CanonicalBitDepth))

	buf.WriteString(dataChunkID)
	_ = binary.Write(buf, binary.LittleEndian, uint32(dataSize))

	for _, sample := range samples {
		_ = binary.Write(buf, binary.LittleEndian, sample)
	}

	return buf.Bytes()
}

// WriteCanonicalFile writes samples to path as a canonical WAV file.
func WriteCanonicalFile(path string, samples []int16) error {
	err := os.WriteFile(path, EncodeCanonical(samples), filePermissions)
	if err != nil {
		return fmt.Errorf("failed to write canonical wav to %s: %w", path, err)
	}

	return nil
}

// ParseCanonical parses data as a WAV stream, verifies the canonical form, and
// returns the PCM samples.
func ParseCanonical(data []byte) ([]int16, error) {
	info, pcm, err := parseWAV(data)
	if err != nil {
		return nil, err
	}

	if !info.IsCanonical() {
		return nil, fmt.Errorf("%w: %d Hz, %d channel(s), %d-bit",
			ErrNotCanonical, info.SampleRate, info.Channels, info.BitDepth)
	}

	samples := make([]int16, len(pcm)/bytesPerSample)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(pcm[i*bytesPerSample:]))
	}

	return samples, nil
}

// ReadCanonicalFile reads path and parses it as a canonical WAV file.
func ReadCanonicalFile(path string) ([]int16, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read wav file %s: %w", path, err)
	}

	return ParseCanonical(data)
}

// Probe parses only the format information of the WAV file at path.
func Probe(path string) (Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read wav file %s: %w", path, err)
	}

	info, _, parseErr := parseWAV(data)
	if parseErr != nil {
		return Info{}, parseErr
	}

	return info, nil
}

// IsCanonical reports whether the format matches the canonical form.
func (i Info) IsCanonical() bool {
	return i.SampleRate == CanonicalSampleRate &&
		i.Channels == CanonicalChannels &&
		i.BitDepth == CanonicalBitDepth
}

// parseWAV walks the RIFF chunk list and returns the format info and the raw
// bytes of the data chunk.
func parseWAV(data []byte) (Info, []byte, error) {
	if len(data) < riffHeaderLen ||
		string(data[0:4]) != riffMagic ||
		string(data[8:12]) != waveMagic {
		return Info{}, nil, fmt.Errorf("%w: missing RIFF/WAVE header", ErrMalformedWAV)
	}

	var (
		info    Info
		pcm     []byte
		sawFmt  bool
		sawData bool
	)

	offset := riffHeaderLen
	for offset+chunkHeaderLen <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := data[offset+chunkHeaderLen:]

		if chunkSize > len(body) {
			return Info{}, nil, fmt.Errorf("%w: truncated %q chunk", ErrMalformedWAV, chunkID)
		}

		switch chunkID {
		case fmtChunkID:
			fmtErr := parseFmtChunk(body[:chunkSize], &info)
			if fmtErr != nil {
				return Info{}, nil, fmtErr
			}

			sawFmt = true
		case dataChunkID:
			pcm = body[:chunkSize]
			sawData = true
		}

		// Chunks are word-aligned.
		offset += chunkHeaderLen + chunkSize + (chunkSize & 1)
	}

	if !sawFmt || !sawData {
		return Info{}, nil, fmt.Errorf("%w: missing fmt or data chunk", ErrMalformedWAV)
	}

	if info.Channels > 0 && info.BitDepth > 0 {
		info.SampleCount = len(pcm) / (info.Channels * info.BitDepth / 8)
	}

	return info, pcm, nil
}

func parseFmtChunk(body []byte, info *Info) error {
	if len(body) < fmtChunkSize {
		return fmt.Errorf("%w: fmt chunk too small", ErrMalformedWAV)
	}

	formatTag := binary.LittleEndian.Uint16(body[0:2])
	if formatTag != pcmFormatTag {
		return fmt.Errorf("%w: non-PCM format tag %d", ErrMalformedWAV, formatTag)
	}

	info.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
	info.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
	info.BitDepth = int(binary.LittleEndian.Uint16(body[14:16]))

	return nil
}
