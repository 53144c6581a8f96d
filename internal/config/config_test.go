package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewManagerWritesDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "config.json")); err != nil {
		t.Errorf("config file not written: %v", err)
	}

	cfg := m.Get()
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("default sample rate = %d", cfg.Audio.SampleRate)
	}
	if cfg.Playback.BranchChance != 0.3 {
		t.Errorf("default branch chance = %f", cfg.Playback.BranchChance)
	}
	if cfg.Analysis.EdgeCutoff != 0.3 {
		t.Errorf("default edge cutoff = %f", cfg.Analysis.EdgeCutoff)
	}
	if cfg.Analysis.ChromaMinFreq != 100 || cfg.Analysis.ChromaMaxFreq != 5000 {
		t.Errorf("default chroma band = [%f, %f]",
			cfg.Analysis.ChromaMinFreq, cfg.Analysis.ChromaMaxFreq)
	}
}

func TestUpdatePersistsAcrossManagers(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	err = m.Update(func(c *Config) {
		c.Playback.BranchChance = 0.75
		c.Audio.DefaultVolume = 0.5
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	m2, err := NewManager(dir)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	cfg := m2.Get()
	if cfg.Playback.BranchChance != 0.75 {
		t.Errorf("branch chance = %f after reload", cfg.Playback.BranchChance)
	}
	if cfg.Audio.DefaultVolume != 0.5 {
		t.Errorf("volume = %f after reload", cfg.Audio.DefaultVolume)
	}
	// untouched fields keep defaults
	if cfg.Analysis.WindowSize != 1024 {
		t.Errorf("window size = %d after reload", cfg.Analysis.WindowSize)
	}
}

func TestLoadFillsMissingFieldsWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"playback":{"branchChance":0.9}}`), 0644); err != nil {
		t.Fatal(err)
	}

	m, err := NewManager(dir)
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	cfg := m.Get()
	if cfg.Playback.BranchChance != 0.9 {
		t.Errorf("branch chance = %f", cfg.Playback.BranchChance)
	}
	if cfg.Audio.SampleRate != 44100 {
		t.Errorf("missing field not defaulted: sample rate = %d", cfg.Audio.SampleRate)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte("not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewManager(dir); err == nil {
		t.Error("NewManager accepted malformed config")
	}
}
