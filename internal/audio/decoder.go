package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned when no decoder can handle a file.
var ErrUnsupportedFormat = errors.New("audio: unsupported format")

// Decoder decodes an audio file into a mono sample buffer.
type Decoder interface {
	Decode(ctx context.Context, path string) (*Buffer, error)
}

// FFmpegDecoder decodes arbitrary formats by piping through ffmpeg.
type FFmpegDecoder struct {
	ffmpegPath string
	sampleRate int
}

// NewFFmpegDecoder creates a decoder that shells out to ffmpeg, decoding to
// mono PCM at the given sample rate.
func NewFFmpegDecoder(sampleRate int) (*FFmpegDecoder, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	if sampleRate <= 0 {
		sampleRate = 44100
	}
	return &FFmpegDecoder{
		ffmpegPath: ffmpegPath,
		sampleRate: sampleRate,
	}, nil
}

// Decode runs ffmpeg to produce signed 16-bit mono PCM and converts it to a
// float64 Buffer.
func (d *FFmpegDecoder) Decode(ctx context.Context, path string) (*Buffer, error) {
	args := []string{
		"-i", path,
		"-f", "s16le",
		"-acodec", "pcm_s16le",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", d.sampleRate),
		"-",
	}

	cmd := exec.CommandContext(ctx, d.ffmpegPath, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to get stdout pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	// Ensure the process is killed and reaped on any exit path
	defer func() {
		if cmd.Process != nil {
			cmd.Process.Kill()
			cmd.Wait()
		}
	}()

	var buf bytes.Buffer
	buf.Grow(1 << 20)
	if _, err := io.Copy(&buf, stdout); err != nil {
		return nil, fmt.Errorf("failed to read ffmpeg output: %w", err)
	}
	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed for %s: %w", path, err)
	}

	data := buf.Bytes()
	if len(data) < 2 {
		return nil, fmt.Errorf("decode %s: no audio data", path)
	}

	return &Buffer{
		Samples:    pcm16ToMono(data, 1),
		SampleRate: d.sampleRate,
	}, nil
}

// NativeDecoder routes WAV and MP3 files to in-process decoders and falls
// back to ffmpeg for everything else (when available).
type NativeDecoder struct {
	fallback *FFmpegDecoder
}

// NewNativeDecoder creates a NativeDecoder. fallback may be nil, in which
// case unrecognized formats fail with ErrUnsupportedFormat.
func NewNativeDecoder(fallback *FFmpegDecoder) *NativeDecoder {
	return &NativeDecoder{fallback: fallback}
}

// Decode decodes the file at path, selecting a decoder by extension.
func (d *NativeDecoder) Decode(ctx context.Context, path string) (*Buffer, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return decodeWAV(path)
	case ".mp3":
		return decodeMP3(path)
	default:
		if d.fallback != nil {
			return d.fallback.Decode(ctx, path)
		}
		return nil, fmt.Errorf("decode %s: %w", path, ErrUnsupportedFormat)
	}
}
