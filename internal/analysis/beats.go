package analysis

import (
	"math"

	"github.com/tphakala/simd/f64"
)

const (
	// DefaultWindowSize is the energy window length in samples.
	DefaultWindowSize = 1024
	// DefaultHistoryWindows is how many trailing windows feed the running
	// energy average.
	DefaultHistoryWindows = 43
	// DefaultOnsetRatio is how far above the running average a window's
	// energy must rise to count as an onset.
	DefaultOnsetRatio = 1.5
	// DefaultMinGapWindows is the minimum number of windows that must
	// elapse after an onset before the next one may fire.
	DefaultMinGapWindows = 13
)

// Span is a time range within a track, in seconds.
type Span struct {
	Start    float64
	Duration float64
}

// BeatDetector finds beat onsets by comparing short-window energy against a
// trailing average. Roughly 43 windows of 1024 samples is one second at CD
// rate, so the average tracks the recent loudness envelope.
type BeatDetector struct {
	WindowSize     int
	HistoryWindows int
	OnsetRatio     float64
	MinGapWindows  int
}

// NewBeatDetector returns a detector with the default tuning.
func NewBeatDetector() *BeatDetector {
	return &BeatDetector{
		WindowSize:     DefaultWindowSize,
		HistoryWindows: DefaultHistoryWindows,
		OnsetRatio:     DefaultOnsetRatio,
		MinGapWindows:  DefaultMinGapWindows,
	}
}

// Detect segments samples into beat spans. Each span runs from one onset to
// the next; the final span is clamped to the end of the track. Returns nil
// when no onsets are found.
func (d *BeatDetector) Detect(samples []float64, sampleRate int) []Span {
	if len(samples) == 0 || sampleRate <= 0 {
		return nil
	}

	windowSize := d.WindowSize
	if windowSize <= 0 {
		windowSize = DefaultWindowSize
	}
	history := d.HistoryWindows
	if history <= 0 {
		history = DefaultHistoryWindows
	}
	ratio := d.OnsetRatio
	if ratio <= 0 {
		ratio = DefaultOnsetRatio
	}
	minGap := d.MinGapWindows
	if minGap < 0 {
		minGap = DefaultMinGapWindows
	}

	numWindows := len(samples) / windowSize
	if numWindows == 0 {
		return nil
	}

	energies := make([]float64, numWindows)
	for i := 0; i < numWindows; i++ {
		w := samples[i*windowSize : (i+1)*windowSize]
		energies[i] = math.Sqrt(f64.DotProductUnsafe(w, w) / float64(windowSize))
	}

	var onsets []int
	lastOnset := -minGap - 1
	var sum float64
	for i, e := range energies {
		// average of up to history windows strictly before i
		lo := i - history
		if lo < 0 {
			lo = 0
		}
		if i > 0 {
			if i > history {
				sum -= energies[i-history-1]
			}
			sum += energies[i-1]
			// the rolling subtraction leaves tiny negative residue once a
			// loud passage ages out; a negative average would turn silence
			// into onsets
			if sum < 0 {
				sum = 0
			}
		}
		count := i - lo
		var avg float64
		if count > 0 {
			avg = sum / float64(count)
		}

		if count > 0 && e > avg*ratio && i-lastOnset >= minGap {
			onsets = append(onsets, i)
			lastOnset = i
		}
	}

	if len(onsets) == 0 {
		return nil
	}

	totalDur := float64(len(samples)) / float64(sampleRate)
	windowDur := float64(windowSize) / float64(sampleRate)

	spans := make([]Span, len(onsets))
	for i, w := range onsets {
		start := float64(w) * windowDur
		var end float64
		if i+1 < len(onsets) {
			end = float64(onsets[i+1]) * windowDur
		} else {
			end = totalDur
		}
		spans[i] = Span{Start: start, Duration: end - start}
	}
	return spans
}
