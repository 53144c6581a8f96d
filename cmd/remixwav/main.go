// Package main is the remixwav tool: it renders an endless-remix walk of a
// track to a fixed-length WAV file, without opening an audio device. Useful
// for checking what a branch setting sounds like and for testing analysis
// changes offline.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/remixd/remixd/internal/analysis"
	"github.com/remixd/remixd/internal/audio"
	"github.com/remixd/remixd/internal/remix"
)

func main() {
	input := flag.String("input", "", "Track to analyze and remix")
	output := flag.String("output", "remix.wav", "Output WAV path")
	seconds := flag.Float64("seconds", 60, "Length of the rendered remix")
	branch := flag.Float64("branch", 0.3, "Branch probability per beat")
	threshold := flag.Float64("threshold", analysis.DefaultThreshold, "Minimum edge similarity for branching")
	seed := flag.Int64("seed", 0, "Random seed (0 = time-based)")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*input, *output, *seconds, *branch, *threshold, *seed); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(input, output string, seconds, branch, threshold float64, seed int64) error {
	decoder := newDecoder()
	buf, err := decoder.Decode(context.Background(), input)
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", input, err)
	}
	log.Printf("Decoded %s: %.1fs at %d Hz", input, buf.Duration(), buf.SampleRate)

	data, err := analysis.NewPipeline().Analyze(buf)
	if err != nil {
		return fmt.Errorf("failed to analyze %s: %w", input, err)
	}
	if len(data.Beats) == 0 {
		return fmt.Errorf("no beats detected in %s", input)
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	log.Printf("Rendering %.1fs with branch=%.2f threshold=%.2f seed=%d",
		seconds, branch, threshold, seed)

	sess := remix.NewSession(input, buf, data)
	settings := remix.Settings{BranchChance: branch, SimilarityThreshold: threshold}
	samples := remix.Render(sess, settings, seconds, rng)
	if len(samples) == 0 {
		return fmt.Errorf("nothing rendered")
	}

	if err := writeWAV(output, samples, buf.SampleRate); err != nil {
		return err
	}
	log.Printf("Wrote %s (%d frames)", output, len(samples))
	return nil
}

func newDecoder() audio.Decoder {
	fallback, err := audio.NewFFmpegDecoder(0)
	if err != nil {
		return audio.NewNativeDecoder(nil)
	}
	return audio.NewNativeDecoder(fallback)
}

// writeWAV saves mono float samples as 16-bit PCM.
func writeWAV(path string, samples []float64, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	intBuf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: 1, SampleRate: sampleRate},
		SourceBitDepth: 16,
		Data:           make([]int, len(samples)),
	}
	for i, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		intBuf.Data[i] = int(s * 32767)
	}

	if err := enc.Write(intBuf); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, err)
	}
	return nil
}
