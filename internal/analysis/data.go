// Package analysis segments a track into beats, extracts harmonic features,
// and links similar-sounding beats into a graph that playback can branch
// through.
package analysis

import "sort"

// Beat is one detected segment of the track.
type Beat struct {
	Index       int        `json:"index"`
	Start       float64    `json:"start"`
	Duration    float64    `json:"duration"`
	Feature     [12]float64 `json:"feature"`
	TotalEnergy float64    `json:"totalEnergy"`
}

// Edge links two beats whose features sound alike. Edges are stored in both
// directions.
type Edge struct {
	Source     int     `json:"source"`
	Dest       int     `json:"dest"`
	Similarity float64 `json:"similarity"`
}

// Data is the full analysis result for one track.
type Data struct {
	Beats     []Beat  `json:"beats"`
	Edges     []Edge  `json:"edges"`
	Threshold float64 `json:"threshold"`
	Duration  float64 `json:"duration"`

	// fromIndex[i] is the offset of the first edge with Source i in Edges,
	// which must be sorted by Source. fromIndex[len(Beats)] == len(Edges).
	fromIndex []int
}

// NewData assembles a result from its parts and indexes the edges.
func NewData(beats []Beat, edges []Edge, threshold, duration float64) *Data {
	d := &Data{
		Beats:     beats,
		Edges:     edges,
		Threshold: threshold,
		Duration:  duration,
	}
	d.buildIndex()
	return d
}

// buildIndex sorts Edges by source beat and computes per-beat offsets so
// EdgesFrom is a slice operation.
func (d *Data) buildIndex() {
	sort.Slice(d.Edges, func(i, j int) bool {
		if d.Edges[i].Source != d.Edges[j].Source {
			return d.Edges[i].Source < d.Edges[j].Source
		}
		return d.Edges[i].Dest < d.Edges[j].Dest
	})

	d.fromIndex = make([]int, len(d.Beats)+1)
	pos := 0
	for src := 0; src < len(d.Beats); src++ {
		d.fromIndex[src] = pos
		for pos < len(d.Edges) && d.Edges[pos].Source == src {
			pos++
		}
	}
	d.fromIndex[len(d.Beats)] = pos
}

// EdgesFrom returns the edges leaving beat i. The returned slice is shared
// with Edges and must not be modified.
func (d *Data) EdgesFrom(i int) []Edge {
	if d.fromIndex == nil || i < 0 || i >= len(d.Beats) {
		return nil
	}
	return d.Edges[d.fromIndex[i]:d.fromIndex[i+1]]
}
