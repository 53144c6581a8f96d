package analysis

import "math"

// EdgeCutoff is the minimum similarity worth storing as an edge. Pairs below
// this sound different enough that jumping between them is always jarring, so
// keeping them would only bloat the graph.
const EdgeCutoff = 0.3

// maxChromaDistance is the Euclidean diameter of the feature space: sqrt(12),
// the distance between opposite corners of the unit 12-cube.
var maxChromaDistance = math.Sqrt(12)

// Similarity maps the Euclidean distance between two pitch-class profiles
// onto [0, 1], where 1 is identical and 0 is maximally distant.
func Similarity(a, b [12]float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	s := 1 - math.Sqrt(sum)/maxChromaDistance
	if s < 0 {
		return 0
	}
	return s
}

// GraphBuilder links pairs of similar beats. Every pair is compared, so build
// time grows quadratically with beat count; fine for single tracks, too slow
// for corpus-scale batches.
type GraphBuilder struct {
	Cutoff float64
}

// NewGraphBuilder returns a builder using the default cutoff.
func NewGraphBuilder() *GraphBuilder {
	return &GraphBuilder{Cutoff: EdgeCutoff}
}

// Build compares every beat pair and returns edges for those above the
// cutoff, materialized in both directions. Self edges are never produced.
func (g *GraphBuilder) Build(beats []Beat) []Edge {
	cutoff := g.Cutoff
	if cutoff <= 0 {
		cutoff = EdgeCutoff
	}

	var edges []Edge
	for i := 0; i < len(beats); i++ {
		for j := i + 1; j < len(beats); j++ {
			sim := Similarity(beats[i].Feature, beats[j].Feature)
			if sim <= cutoff {
				continue
			}
			edges = append(edges,
				Edge{Source: i, Dest: j, Similarity: sim},
				Edge{Source: j, Dest: i, Similarity: sim},
			)
		}
	}
	return edges
}
