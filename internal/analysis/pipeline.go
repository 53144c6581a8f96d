package analysis

import (
	"errors"
	"log"
	"time"

	"github.com/tphakala/simd/f64"

	"github.com/remixd/remixd/internal/audio"
)

// DefaultThreshold is the playback-time similarity floor for branch
// candidates. It sits above EdgeCutoff so the stored graph keeps headroom for
// callers that want looser jumping.
const DefaultThreshold = 0.4

var (
	// ErrEmptyInput means the buffer had no samples to analyze.
	ErrEmptyInput = errors.New("analysis: empty input")
	// ErrBadSampleRate means the buffer carried a non-positive sample rate.
	ErrBadSampleRate = errors.New("analysis: invalid sample rate")
)

// Pipeline runs the full analysis chain: beat detection, feature extraction,
// graph construction. The stage fields are exported so callers can retune
// them from config before the first Analyze call.
type Pipeline struct {
	Detector *BeatDetector
	Chroma   *ChromaExtractor
	Graph    *GraphBuilder

	// Threshold is recorded on the result as the suggested playback-time
	// similarity floor.
	Threshold float64
}

// NewPipeline returns a pipeline with default-tuned stages.
func NewPipeline() *Pipeline {
	return &Pipeline{
		Detector:  NewBeatDetector(),
		Chroma:    NewChromaExtractor(),
		Graph:     NewGraphBuilder(),
		Threshold: DefaultThreshold,
	}
}

// Analyze produces the beat graph for a decoded track. A silent or beatless
// track yields a valid result with no beats rather than an error.
func (p *Pipeline) Analyze(buf *audio.Buffer) (*Data, error) {
	if buf == nil || len(buf.Samples) == 0 {
		return nil, ErrEmptyInput
	}
	if buf.SampleRate <= 0 {
		return nil, ErrBadSampleRate
	}

	start := time.Now()

	spans := p.Detector.Detect(buf.Samples, buf.SampleRate)

	beats := make([]Beat, len(spans))
	for i, span := range spans {
		lo := buf.FrameAt(span.Start)
		hi := buf.FrameAt(span.Start + span.Duration)
		seg := buf.Samples[lo:hi]

		var energy float64
		if len(seg) > 0 {
			energy = f64.DotProductUnsafe(seg, seg)
		}

		beats[i] = Beat{
			Index:       i,
			Start:       span.Start,
			Duration:    span.Duration,
			Feature:     p.Chroma.Extract(buf.Samples, buf.SampleRate, span),
			TotalEnergy: energy,
		}
	}

	data := NewData(beats, p.Graph.Build(beats), p.Threshold, buf.Duration())

	log.Printf("[ANALYSIS] %d beats, %d edges in %v",
		len(data.Beats), len(data.Edges), time.Since(start))
	return data, nil
}
