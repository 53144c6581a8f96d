package analysis

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// chromaFrameSize is the number of samples transformed per beat.
	chromaFrameSize = 2048
	// chromaMinFreq discards rumble below the bottom of the musical range.
	chromaMinFreq = 100.0
	// chromaMaxFreq caps the bins considered; above this the pitch-class
	// mapping is dominated by noise and overtones.
	chromaMaxFreq = 5000.0
	// chromaAttackSkip is how far into a beat the analyzed slice starts,
	// so the transient attack does not smear the harmonic content.
	chromaAttackSkip = 0.05
	// chromaSliceMax bounds how much of a long beat is analyzed.
	chromaSliceMax = 0.3
)

// ChromaExtractor reduces a beat to a 12-bin pitch-class profile. Bin k of
// the result holds the summed spectral magnitude of every frequency whose
// nearest equal-tempered pitch is k semitones above C. The analyzed band is
// tunable; the frame size is fixed by the transform plan.
type ChromaExtractor struct {
	MinFreq float64
	MaxFreq float64

	fft *fourier.FFT
}

// NewChromaExtractor creates an extractor with its transform plan ready and
// the default band.
func NewChromaExtractor() *ChromaExtractor {
	return &ChromaExtractor{
		MinFreq: chromaMinFreq,
		MaxFreq: chromaMaxFreq,
		fft:     fourier.NewFFT(chromaFrameSize),
	}
}

// Extract computes the pitch-class profile for the beat span starting at
// span.Start within samples. Beats too short to fill an analysis frame get a
// zero vector, which keeps them maximally distant from every other beat.
func (c *ChromaExtractor) Extract(samples []float64, sampleRate int, span Span) [12]float64 {
	var out [12]float64
	if sampleRate <= 0 {
		return out
	}

	startOff := math.Min(chromaAttackSkip, span.Duration/4)
	endOff := math.Min(chromaSliceMax, span.Duration)

	start := int((span.Start + startOff) * float64(sampleRate))
	end := int((span.Start + endOff) * float64(sampleRate))
	if start < 0 {
		start = 0
	}
	if end > len(samples) {
		end = len(samples)
	}
	if end-start < chromaFrameSize {
		return out
	}

	minFreq := c.MinFreq
	if minFreq <= 0 {
		minFreq = chromaMinFreq
	}
	maxFreq := c.MaxFreq
	if maxFreq <= 0 {
		maxFreq = chromaMaxFreq
	}

	coeffs := c.fft.Coefficients(nil, samples[start:start+chromaFrameSize])

	binHz := float64(sampleRate) / float64(chromaFrameSize)
	maxBin := int(math.Round(maxFreq / binHz))
	if maxBin >= len(coeffs) {
		maxBin = len(coeffs) - 1
	}

	for bin := 1; bin <= maxBin; bin++ {
		freq := float64(bin) * binHz
		if freq < minFreq {
			continue
		}
		mag := math.Hypot(real(coeffs[bin]), imag(coeffs[bin]))
		midi := 12*math.Log2(freq/440.0) + 69
		pc := ((int(math.Round(midi)) % 12) + 12) % 12
		out[pc] += mag
	}

	// Normalize so the dominant pitch class is 1.0. The divisor never drops
	// below 1, so near-silent slices stay near zero instead of being blown
	// up to full scale.
	maxv := 0.0
	for _, v := range out {
		if v > maxv {
			maxv = v
		}
	}
	div := math.Max(maxv, 1)
	for i := range out {
		out[i] /= div
	}
	return out
}
