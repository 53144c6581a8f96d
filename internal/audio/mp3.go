package audio

import (
	"fmt"
	"io"
	"os"

	mp3 "github.com/hajimehoshi/go-mp3"
)

// decodeMP3 decodes an MP3 file into a mono Buffer. go-mp3 always emits
// 16-bit little-endian stereo frames.
func decodeMP3(path string) (*Buffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	decoder, err := mp3.NewDecoder(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	var samples []float64
	if n := decoder.Length(); n > 0 {
		samples = make([]float64, 0, n/4)
	}

	buf := make([]byte, 4096)
	for {
		n, err := decoder.Read(buf)
		if n > 0 {
			samples = append(samples, pcm16ToMono(buf[:n], 2)...)
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	if len(samples) == 0 {
		return nil, fmt.Errorf("decode %s: no audio data", path)
	}

	return &Buffer{
		Samples:    samples,
		SampleRate: decoder.SampleRate(),
	}, nil
}
