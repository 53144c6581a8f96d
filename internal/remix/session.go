// Package remix turns a beat graph into an endless playback stream, walking
// beats in order and occasionally branching to a similar-sounding beat
// elsewhere in the track.
package remix

import (
	"github.com/google/uuid"

	"github.com/remixd/remixd/internal/analysis"
	"github.com/remixd/remixd/internal/audio"
)

// Session binds a decoded track to its analysis for one remix run.
type Session struct {
	ID     uuid.UUID
	Path   string
	Buffer *audio.Buffer
	Data   *analysis.Data
}

// NewSession creates a session with a fresh ID.
func NewSession(path string, buf *audio.Buffer, data *analysis.Data) *Session {
	return &Session{
		ID:     uuid.New(),
		Path:   path,
		Buffer: buf,
		Data:   data,
	}
}

// Settings controls branching behavior during playback.
type Settings struct {
	// BranchChance is the probability of attempting a jump at each beat
	// boundary.
	BranchChance float64 `json:"branchChance"`
	// SimilarityThreshold is the minimum edge similarity a jump will take.
	SimilarityThreshold float64 `json:"similarityThreshold"`
}

// DefaultSettings returns the stock branching behavior.
func DefaultSettings() Settings {
	return Settings{
		BranchChance:        0.3,
		SimilarityThreshold: analysis.DefaultThreshold,
	}
}

// clamped returns the settings with both fields forced into [0, 1].
func (s Settings) clamped() Settings {
	clamp := func(v float64) float64 {
		if v < 0 {
			return 0
		}
		if v > 1 {
			return 1
		}
		return v
	}
	s.BranchChance = clamp(s.BranchChance)
	s.SimilarityThreshold = clamp(s.SimilarityThreshold)
	return s
}

// SettingsUpdate is a partial settings change; nil fields keep their current
// value.
type SettingsUpdate struct {
	BranchChance        *float64 `json:"branchChance,omitempty"`
	SimilarityThreshold *float64 `json:"similarityThreshold,omitempty"`
}

// apply merges the update into s.
func (u SettingsUpdate) apply(s Settings) Settings {
	if u.BranchChance != nil {
		s.BranchChance = *u.BranchChance
	}
	if u.SimilarityThreshold != nil {
		s.SimilarityThreshold = *u.SimilarityThreshold
	}
	return s.clamped()
}
