// Package audio handles audio decoding and scheduled playback output.
//
// Decoding produces a Buffer: the full track as mono float64 samples.
// Playback goes through OtoOutput, which exposes a sample-driven clock and
// accepts clips scheduled at absolute future times.
package audio

import "time"

// Buffer is a fully decoded track, downmixed to mono.
type Buffer struct {
	Samples    []float64
	SampleRate int
}

// Duration returns the track length in seconds.
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Samples)) / float64(b.SampleRate)
}

// FrameAt converts a time offset in seconds to a sample index, clamped to the
// buffer bounds.
func (b *Buffer) FrameAt(sec float64) int {
	frame := int(sec * float64(b.SampleRate))
	if frame < 0 {
		return 0
	}
	if frame > len(b.Samples) {
		return len(b.Samples)
	}
	return frame
}

// pcm16ToMono converts interleaved 16-bit little-endian PCM to mono float64
// samples in [-1, 1], averaging channels.
func pcm16ToMono(data []byte, channels int) []float64 {
	if channels < 1 {
		channels = 1
	}
	bytesPerFrame := 2 * channels
	numFrames := len(data) / bytesPerFrame

	samples := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		offset := i * bytesPerFrame
		var sum float64
		for ch := 0; ch < channels; ch++ {
			chOffset := offset + ch*2
			sample := int16(data[chOffset]) | int16(data[chOffset+1])<<8
			sum += float64(sample) / 32768.0
		}
		samples[i] = sum / float64(channels)
	}
	return samples
}

// framesToDuration converts a frame count at the given rate to a duration.
func framesToDuration(frames int64, sampleRate int) time.Duration {
	return time.Duration(frames * int64(time.Second) / int64(sampleRate))
}

// durationToFrames converts a duration to a frame count at the given rate.
func durationToFrames(d time.Duration, sampleRate int) int64 {
	return int64(d) * int64(sampleRate) / int64(time.Second)
}
