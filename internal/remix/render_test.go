package remix

import (
	"math/rand"
	"testing"

	"github.com/remixd/remixd/internal/analysis"
)

func TestRenderProducesRequestedLength(t *testing.T) {
	sess := testSession(4, 0.1, 1000, nil)
	rng := rand.New(rand.NewSource(42))

	out := Render(sess, DefaultSettings(), 2.0, rng)
	if len(out) < 2000 {
		t.Errorf("rendered %d frames, want at least 2000", len(out))
	}
	// output stops within one beat of the target
	if len(out) > 2000+100 {
		t.Errorf("rendered %d frames, want no more than one beat past 2000", len(out))
	}
}

func TestRenderIsDeterministicPerSeed(t *testing.T) {
	edges := []analysis.Edge{
		{Source: 0, Dest: 2, Similarity: 0.9},
		{Source: 2, Dest: 0, Similarity: 0.9},
	}
	sess := testSession(4, 0.1, 1000, edges)
	st := Settings{BranchChance: 0.5, SimilarityThreshold: 0.4}

	a := Render(sess, st, 1.0, rand.New(rand.NewSource(7)))
	b := Render(sess, st, 1.0, rand.New(rand.NewSource(7)))
	if len(a) != len(b) {
		t.Fatalf("seeded renders differ in length: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded renders differ at frame %d", i)
		}
	}
}

func TestRenderHandlesDegenerateInput(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	if out := Render(nil, DefaultSettings(), 1.0, rng); out != nil {
		t.Errorf("nil session rendered %d frames", len(out))
	}

	sess := testSession(4, 0.1, 1000, nil)
	if out := Render(sess, DefaultSettings(), 0, rng); out != nil {
		t.Errorf("zero length rendered %d frames", len(out))
	}
	if out := Render(sess, DefaultSettings(), -1, rng); out != nil {
		t.Errorf("negative length rendered %d frames", len(out))
	}
}
