package analysis

import (
	"math"
	"testing"
)

func featBeats(features ...[12]float64) []Beat {
	beats := make([]Beat, len(features))
	for i, f := range features {
		beats[i] = Beat{Index: i, Feature: f}
	}
	return beats
}

func TestSimilarityBounds(t *testing.T) {
	var a, b [12]float64
	a[0] = 1
	b[0] = 1
	if got := Similarity(a, b); got != 1.0 {
		t.Errorf("identical features: got %f, want 1", got)
	}

	var lo, hi [12]float64
	for i := 0; i < 6; i++ {
		lo[i] = 1
		hi[i+6] = 1
	}
	if got := Similarity(lo, hi); got != 0.0 {
		t.Errorf("maximally distant features: got %f, want 0", got)
	}
}

func TestSimilaritySingleBinShift(t *testing.T) {
	var a, b [12]float64
	a[0] = 1
	b[1] = 1
	// distance sqrt(2) over diameter sqrt(12)
	want := 1 - math.Sqrt(2)/math.Sqrt(12)
	if got := Similarity(a, b); math.Abs(got-want) > 1e-12 {
		t.Errorf("got %f, want %f", got, want)
	}
}

func TestBuildEdges(t *testing.T) {
	var fA, fA2, fB, fFar [12]float64
	fA[0] = 1
	fA2[0] = 1
	fB[1] = 1
	fFar[6], fFar[7], fFar[8], fFar[9], fFar[10], fFar[11] = 1, 1, 1, 1, 1, 1

	beats := featBeats(fA, fA2, fB, fFar)
	edges := NewGraphBuilder().Build(beats)

	type pair struct{ s, d int }
	bySrc := make(map[pair]float64)
	for _, e := range edges {
		if e.Source == e.Dest {
			t.Fatalf("self edge on beat %d", e.Source)
		}
		bySrc[pair{e.Source, e.Dest}] = e.Similarity
	}

	// both directions, same similarity
	for p, sim := range bySrc {
		rev, ok := bySrc[pair{p.d, p.s}]
		if !ok {
			t.Fatalf("edge %d->%d has no reverse", p.s, p.d)
		}
		if rev != sim {
			t.Errorf("edge %d->%d similarity %f != reverse %f", p.s, p.d, sim, rev)
		}
	}

	if sim, ok := bySrc[pair{0, 1}]; !ok || sim != 1.0 {
		t.Errorf("identical beats 0,1: got (%f, %v), want (1, true)", sim, ok)
	}
	if sim, ok := bySrc[pair{0, 2}]; !ok || sim >= bySrc[pair{0, 1}] {
		t.Errorf("shifted beat should link weaker: got (%f, %v)", sim, ok)
	}
	if _, ok := bySrc[pair{0, 3}]; ok {
		t.Error("distant beat pair should fall below the cutoff")
	}
}

func TestBuildAllSimilaritiesAboveCutoff(t *testing.T) {
	features := make([][12]float64, 8)
	for i := range features {
		features[i][i%12] = 1
		features[i][(i+3)%12] = 0.5
	}
	beats := featBeats(features...)

	for _, e := range NewGraphBuilder().Build(beats) {
		if e.Similarity <= EdgeCutoff {
			t.Errorf("edge %d->%d stored with similarity %f at cutoff %f",
				e.Source, e.Dest, e.Similarity, EdgeCutoff)
		}
	}
}

func TestBuildEmptyAndSingle(t *testing.T) {
	g := NewGraphBuilder()
	if edges := g.Build(nil); len(edges) != 0 {
		t.Errorf("nil beats produced %d edges", len(edges))
	}
	var f [12]float64
	f[4] = 1
	if edges := g.Build(featBeats(f)); len(edges) != 0 {
		t.Errorf("single beat produced %d edges", len(edges))
	}
}

func TestEdgesFromIndex(t *testing.T) {
	var fA, fA2, fB [12]float64
	fA[0] = 1
	fA2[0] = 1
	fB[1] = 1

	beats := featBeats(fA, fA2, fB)
	data := &Data{Beats: beats, Edges: NewGraphBuilder().Build(beats)}
	data.buildIndex()

	total := 0
	for i := range beats {
		for _, e := range data.EdgesFrom(i) {
			if e.Source != i {
				t.Errorf("EdgesFrom(%d) returned edge with source %d", i, e.Source)
			}
			total++
		}
	}
	if total != len(data.Edges) {
		t.Errorf("per-beat edges total %d, want %d", total, len(data.Edges))
	}

	if data.EdgesFrom(-1) != nil || data.EdgesFrom(len(beats)) != nil {
		t.Error("out-of-range EdgesFrom should return nil")
	}
}
