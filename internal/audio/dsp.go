package audio

import (
	"math"
)

// PCM scale constants.
const (
	fullScale    = 32768.0
	maxSample    = 32767
	minSample    = -32768
	msPerSecond  = 1000
	windowMs     = 10
	decibelScale = 20.0
)

// silenceFloorDBFS stands in for negative infinity on empty or all-zero audio.
const silenceFloorDBFS = -96.0

// minSpeechLenMs is the shortest span the downstream audit treats as speech.
// The low-energy placeholder is deliberately shorter than this.
const minSpeechLenMs = 250

// PeakDBFS returns the peak level of samples in dBFS.
func PeakDBFS(samples []int16) float64 {
	peak := 0.0
	for _, sample := range samples {
		abs := math.Abs(float64(sample))
		if abs > peak {
			peak = abs
		}
	}

	if peak == 0 {
		return silenceFloorDBFS
	}

	return decibelScale * math.Log10(peak/fullScale)
}

// MeanDBFS returns the RMS level of samples in dBFS.
func MeanDBFS(samples []int16) float64 {
	if len(samples) == 0 {
		return silenceFloorDBFS
	}

	var sumSquares float64
	for _, sample := range samples {
		value := float64(sample)
		sumSquares += value * value
	}

	rms := math.Sqrt(sumSquares / float64(len(samples)))
	if rms == 0 {
		return silenceFloorDBFS
	}

	return decibelScale * math.Log10(rms/fullScale)
}

// ApplyGainDB scales samples by the given gain in decibels, clamping at the
// int16 range.
func ApplyGainDB(samples []int16, gainDB float64) []int16 {
	gain := math.Pow(10, gainDB/decibelScale)
	out := make([]int16, len(samples))

	for i, sample := range samples {
		scaled := math.Round(float64(sample) * gain)
		if scaled > maxSample {
			scaled = maxSample
		} else if scaled < minSample {
			scaled = minSample
		}

		out[i] = int16(scaled)
	}

	return out
}

// PeakNormalize scales samples so the maximum absolute sample reaches full
// scale without clipping. All-zero input is returned unchanged.
func PeakNormalize(samples []int16) []int16 {
	peak := PeakDBFS(samples)
	if peak <= silenceFloorDBFS {
		out := make([]int16, len(samples))
		copy(out, samples)

		return out
	}

	return ApplyGainDB(samples, -peak)
}

// LoudnessNormalize scales samples so their RMS level lands on targetDBFS.
func LoudnessNormalize(samples []int16, targetDBFS float64) []int16 {
	current := MeanDBFS(samples)
	if current <= silenceFloorDBFS {
		out := make([]int16, len(samples))
		copy(out, samples)

		return out
	}

	return ApplyGainDB(samples, targetDBFS-current)
}

// TrimSilence removes silent spans longer than minSilenceMs at threshDBFS,
// preserving keepMs of silence at each boundary of the removed span. If the
// whole input is below the threshold, the input is returned unchanged and
// allSilent is true.
func TrimSilence(samples []int16, minSilenceMs, keepMs int, threshDBFS float64) (trimmed []int16, allSilent bool) {
	windowSamples := CanonicalSampleRate * windowMs / msPerSecond
	if len(samples) == 0 || windowSamples == 0 {
		return samples, len(samples) == 0
	}

	silent := classifyWindows(samples, windowSamples, threshDBFS)

	anyLoud := false
	for _, isSilent := range silent {
		if !isSilent {
			anyLoud = true

			break
		}
	}

	if !anyLoud {
		return samples, true
	}

	minSilenceSamples := CanonicalSampleRate * minSilenceMs / msPerSecond
	keepSamples := CanonicalSampleRate * keepMs / msPerSecond

	return removeSilentRuns(samples, silent, windowSamples, minSilenceSamples, keepSamples), false
}

// LowEnergyPlaceholder returns a near-empty silent span, shorter than the
// minimum speech length, used to replace a rejected low-energy segment.
func LowEnergyPlaceholder() []int16 {
	return make([]int16, CanonicalSampleRate*(minSpeechLenMs/2)/msPerSecond)
}

// classifyWindows marks each fixed-size window as silent when its RMS level is
// below the threshold. The trailing partial window inherits its own level.
func classifyWindows(samples []int16, windowSamples int, threshDBFS float64) []bool {
	windowCount := (len(samples) + windowSamples - 1) / windowSamples
	silent := make([]bool, windowCount)

	for w := range windowCount {
		start := w * windowSamples
		end := min(start+windowSamples, len(samples))
		silent[w] = MeanDBFS(samples[start:end]) < threshDBFS
	}

	return silent
}

// removeSilentRuns copies samples, collapsing every silent run of at least
// minSilenceSamples down to keepSamples at each end of the run.
func removeSilentRuns(samples []int16, silent []bool, windowSamples, minSilenceSamples, keepSamples int) []int16 {
	out := make([]int16, 0, len(samples))
	index := 0

	for index < len(silent) {
		if !silent[index] {
			start := index * windowSamples
			end := min(start+windowSamples, len(samples))
			out = append(out, samples[start:end]...)
			index++

			continue
		}

		runStart := index
		for index < len(silent) && silent[index] {
			index++
		}

		spanStart := runStart * windowSamples
		spanEnd := min(index*windowSamples, len(samples))
		span := samples[spanStart:spanEnd]

		if len(span) < minSilenceSamples || len(span) <= 2*keepSamples {
			out = append(out, span...)

			continue
		}

		// Keep the boundary silence on both sides of the removed span.
		out = append(out, span[:keepSamples]...)
		out = append(out, span[len(span)-keepSamples:]...)
	}

	return out
}
