package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("default configuration invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
mountain_car:
  learning_rate: 0.05
  max_episodes: 2500
breakout:
  filters: 16
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	config, err := Load(path)
	if err != nil {
		t.Fatalf("could not load config: %v", err)
	}

	if config.MountainCar.LearningRate != 0.05 {
		t.Errorf("override missed\n\twant(%v)\n\thave(%v)", 0.05,
			config.MountainCar.LearningRate)
	}
	if config.MountainCar.MaxEpisodes != 2500 {
		t.Errorf("override missed\n\twant(%v)\n\thave(%v)", 2500,
			config.MountainCar.MaxEpisodes)
	}
	if config.Breakout.Filters != 16 {
		t.Errorf("override missed\n\twant(%v)\n\thave(%v)", 16,
			config.Breakout.Filters)
	}

	// Untouched defaults survive
	defaults := Default()
	if config.MountainCar.Discount != defaults.MountainCar.Discount {
		t.Errorf("default clobbered\n\twant(%v)\n\thave(%v)",
			defaults.MountainCar.Discount, config.MountainCar.Discount)
	}
	if config.Breakout.SkipInterval != defaults.Breakout.SkipInterval {
		t.Errorf("default clobbered\n\twant(%v)\n\thave(%v)",
			defaults.Breakout.SkipInterval, config.Breakout.SkipInterval)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte(`
mountain_car:
  learning_rate: -1.0
`)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("could not write config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for negative learning rate but got none")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing config file but got none")
	}
}
