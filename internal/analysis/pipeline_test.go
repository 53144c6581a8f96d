package analysis

import (
	"errors"
	"math"
	"testing"

	"github.com/remixd/remixd/internal/audio"
)

func TestAnalyzeRejectsBadInput(t *testing.T) {
	p := NewPipeline()

	if _, err := p.Analyze(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("nil buffer: got %v, want ErrEmptyInput", err)
	}
	if _, err := p.Analyze(&audio.Buffer{SampleRate: 44100}); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("empty samples: got %v, want ErrEmptyInput", err)
	}
	buf := &audio.Buffer{Samples: make([]float64, 4096), SampleRate: 0}
	if _, err := p.Analyze(buf); !errors.Is(err, ErrBadSampleRate) {
		t.Errorf("zero rate: got %v, want ErrBadSampleRate", err)
	}
}

func TestAnalyzeSilentTrack(t *testing.T) {
	buf := &audio.Buffer{Samples: make([]float64, 44100), SampleRate: 44100}
	data, err := NewPipeline().Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	if len(data.Beats) != 0 {
		t.Errorf("silent track produced %d beats", len(data.Beats))
	}
	if data.Threshold != DefaultThreshold {
		t.Errorf("threshold = %f, want %f", data.Threshold, DefaultThreshold)
	}
}

func TestAnalyzeBurstTrack(t *testing.T) {
	const rate = 44100
	samples := burstTrack(rate, 3.0, []float64{0.5, 1.0, 1.5, 2.0})
	buf := &audio.Buffer{Samples: samples, SampleRate: rate}

	data, err := NewPipeline().Analyze(buf)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}

	if len(data.Beats) != 4 {
		t.Fatalf("got %d beats, want 4", len(data.Beats))
	}
	if math.Abs(data.Duration-3.0) > 1e-9 {
		t.Errorf("duration = %f, want 3.0", data.Duration)
	}

	for i, b := range data.Beats {
		if b.Index != i {
			t.Errorf("beat %d has index %d", i, b.Index)
		}
		if b.Duration <= 0 {
			t.Errorf("beat %d has duration %f", i, b.Duration)
		}
		if b.TotalEnergy <= 0 {
			t.Errorf("beat %d has energy %f, want > 0", i, b.TotalEnergy)
		}
	}

	// identical bursts should produce a densely linked graph
	if len(data.Edges) == 0 {
		t.Error("no edges between identical-sounding beats")
	}
	for i := range data.Beats {
		for _, e := range data.EdgesFrom(i) {
			if e.Dest < 0 || e.Dest >= len(data.Beats) {
				t.Errorf("edge from %d to out-of-range beat %d", i, e.Dest)
			}
		}
	}
}
