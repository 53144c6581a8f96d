// Package config persists daemon settings as JSON in the user config
// directory.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Config holds all persisted daemon settings.
type Config struct {
	Audio    AudioConfig    `json:"audio"`
	Analysis AnalysisConfig `json:"analysis"`
	Playback PlaybackConfig `json:"playback"`
}

// AudioConfig controls the output device.
type AudioConfig struct {
	SampleRate    int     `json:"sampleRate"`
	DefaultVolume float64 `json:"defaultVolume"`
}

// AnalysisConfig tunes beat detection and graph construction.
type AnalysisConfig struct {
	WindowSize       int     `json:"windowSize"`
	HistoryWindows   int     `json:"historyWindows"`
	OnsetRatio       float64 `json:"onsetRatio"`
	MinGapWindows    int     `json:"minGapWindows"`
	ChromaMinFreq    float64 `json:"chromaMinFreq"`
	ChromaMaxFreq    float64 `json:"chromaMaxFreq"`
	EdgeCutoff       float64 `json:"edgeCutoff"`
	DefaultThreshold float64 `json:"defaultThreshold"`
}

// PlaybackConfig tunes the scheduler and branching defaults.
type PlaybackConfig struct {
	TickMs              int     `json:"tickMs"`
	LookaheadMs         int     `json:"lookaheadMs"`
	FadeMs              int     `json:"fadeMs"`
	BranchChance        float64 `json:"branchChance"`
	SimilarityThreshold float64 `json:"similarityThreshold"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() *Config {
	return &Config{
		Audio: AudioConfig{
			SampleRate:    44100,
			DefaultVolume: 1.0,
		},
		Analysis: AnalysisConfig{
			WindowSize:       1024,
			HistoryWindows:   43,
			OnsetRatio:       1.5,
			MinGapWindows:    13,
			ChromaMinFreq:    100,
			ChromaMaxFreq:    5000,
			EdgeCutoff:       0.3,
			DefaultThreshold: 0.4,
		},
		Playback: PlaybackConfig{
			TickMs:              25,
			LookaheadMs:         100,
			FadeMs:              10,
			BranchChance:        0.3,
			SimilarityThreshold: 0.4,
		},
	}
}

// Manager loads and saves the config file, serializing access.
type Manager struct {
	mu         sync.RWMutex
	configPath string
	config     *Config
}

// NewManager creates a manager rooted at configDir, loading the existing
// config file or writing defaults if none exists.
func NewManager(configDir string) (*Manager, error) {
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	m := &Manager{
		configPath: filepath.Join(configDir, "config.json"),
		config:     DefaultConfig(),
	}

	if err := m.Load(); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		if err := m.Save(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Load reads the config file into memory.
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.configPath)
	if err != nil {
		return err
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}

	m.mu.Lock()
	m.config = config
	m.mu.Unlock()
	return nil
}

// Save writes the in-memory config to disk.
func (m *Manager) Save() error {
	m.mu.RLock()
	data, err := json.MarshalIndent(m.config, "", "  ")
	m.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Get returns a copy of the current config.
func (m *Manager) Get() Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return *m.config
}

// Update mutates the config under lock and saves it.
func (m *Manager) Update(fn func(*Config)) error {
	m.mu.Lock()
	fn(m.config)
	m.mu.Unlock()
	return m.Save()
}
