package audio

import (
	"fmt"
	"os"

	"github.com/go-audio/wav"
)

// decodeWAV decodes a PCM WAV file into a mono Buffer.
func decodeWAV(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	decoder := wav.NewDecoder(f)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("decode %s: invalid WAV file", path)
	}

	pcm, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if pcm == nil || pcm.Format == nil || len(pcm.Data) == 0 {
		return nil, fmt.Errorf("decode %s: no audio data", path)
	}

	channels := pcm.Format.NumChannels
	if channels < 1 {
		channels = 1
	}
	scale := float64(int64(1) << (decoder.BitDepth - 1))
	if scale <= 0 {
		scale = 32768
	}

	numFrames := len(pcm.Data) / channels
	samples := make([]float64, numFrames)
	for i := 0; i < numFrames; i++ {
		var sum float64
		for ch := 0; ch < channels; ch++ {
			sum += float64(pcm.Data[i*channels+ch]) / scale
		}
		samples[i] = sum / float64(channels)
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: pcm.Format.SampleRate,
	}, nil
}
