// Package config loads the hyperparameters of both training pipelines
// from YAML, with defaults matching the reference hyperparameter sets
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"qpilot/agent/deep/dqn"
	"qpilot/agent/tabular/qlearning"
	"qpilot/experiment"
)

// MountainCar holds the hyperparameters of the tabular pipeline
type MountainCar struct {
	LearningRate      float64   `yaml:"learning_rate"`
	Discount          float64   `yaml:"discount"`
	BinWidths         []float64 `yaml:"bin_widths"`
	ShapeReward       bool      `yaml:"shape_reward"`
	ShapingMultiplier float64   `yaml:"shaping_multiplier"`

	Epsilon      float64 `yaml:"epsilon"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`

	MaxEpisodes     int     `yaml:"max_episodes"`
	MinEpisodes     int     `yaml:"min_episodes"`
	StatsInterval   int     `yaml:"stats_interval"`
	SolvedThreshold float64 `yaml:"solved_threshold"`
	EarlyStopX      float64 `yaml:"early_stop_x"`

	// MaxSteps truncates episodes in the built-in environment
	MaxSteps int    `yaml:"max_steps"`
	Seed     uint64 `yaml:"seed"`
}

// Breakout holds the hyperparameters of the deep pipeline
type Breakout struct {
	Filters      int     `yaml:"filters"`
	HiddenSize   int     `yaml:"hidden_size"`
	LearningRate float64 `yaml:"learning_rate"`
	Discount     float64 `yaml:"discount"`
	HuberDelta   float64 `yaml:"huber_delta"`

	Epsilon      float64 `yaml:"epsilon"`
	EpsilonDecay float64 `yaml:"epsilon_decay"`
	EpsilonFloor float64 `yaml:"epsilon_floor"`

	MaxEpisodes   int `yaml:"max_episodes"`
	SyncInterval  int `yaml:"sync_interval"`
	SkipInterval  int `yaml:"skip_interval"`
	DefaultAction int `yaml:"default_action"`
	StatsInterval int `yaml:"stats_interval"`
	WarmupFrames  int `yaml:"warmup_frames"`

	FrameSize  int    `yaml:"frame_size"`
	CropTop    int    `yaml:"crop_top"`
	CropBottom int    `yaml:"crop_bottom"`
	RawRows    int    `yaml:"raw_rows"`
	RawCols    int    `yaml:"raw_cols"`
	Seed       uint64 `yaml:"seed"`
}

// Config bundles the hyperparameters of both pipelines
type Config struct {
	MountainCar MountainCar `yaml:"mountain_car"`
	Breakout    Breakout    `yaml:"breakout"`
}

// Default returns the reference hyperparameter set for both pipelines
func Default() Config {
	return Config{
		MountainCar: MountainCar{
			LearningRate:      0.01,
			Discount:          0.99,
			BinWidths:         []float64{0.1, 0.01},
			ShapeReward:       true,
			ShapingMultiplier: 2.0,
			Epsilon:           1.0,
			EpsilonDecay:      1.0 / 10000.0,
			MaxEpisodes:       10000,
			MinEpisodes:       100,
			StatsInterval:     50,
			SolvedThreshold:   -175.0,
			EarlyStopX:        0.6,
			MaxSteps:          200,
			Seed:              42,
		},
		Breakout: Breakout{
			Filters:       32,
			HiddenSize:    32,
			LearningRate:  1e-3,
			Discount:      0.99,
			HuberDelta:    1.0,
			Epsilon:       1.0,
			EpsilonDecay:  1.0 / (5000.0 * 0.8),
			EpsilonFloor:  0.01,
			MaxEpisodes:   5000,
			SyncInterval:  64,
			SkipInterval:  4,
			DefaultAction: 1,
			StatsInterval: 16,
			WarmupFrames:  10000,
			FrameSize:     80,
			CropTop:       33,
			CropBottom:    17,
			RawRows:       210,
			RawCols:       160,
			Seed:          42,
		},
	}
}

// Load reads a YAML file over the defaults, so a file only needs to
// name the hyperparameters it changes
func Load(path string) (Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: could not read config file: %v",
			err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("load: could not parse config "+
			"file: %v", err)
	}

	if err := config.Validate(); err != nil {
		return Config{}, fmt.Errorf("load: %v", err)
	}
	return config, nil
}

// Validate checks both pipelines' hyperparameters by validating the
// component configurations they produce
func (c Config) Validate() error {
	if err := c.MountainCar.AgentConfig().Validate(); err != nil {
		return fmt.Errorf("mountain car: %v", err)
	}
	if err := c.MountainCar.LoopConfig(true).Validate(); err != nil {
		return fmt.Errorf("mountain car: %v", err)
	}
	if c.MountainCar.Epsilon < 0.0 || c.MountainCar.Epsilon > 1.0 {
		return fmt.Errorf("mountain car: epsilon must be in [0, 1], "+
			"got %v", c.MountainCar.Epsilon)
	}
	if c.MountainCar.MaxSteps < 1 {
		return fmt.Errorf("mountain car: max steps must be positive, "+
			"got %v", c.MountainCar.MaxSteps)
	}

	if err := c.Breakout.AgentConfig().Validate(); err != nil {
		return fmt.Errorf("breakout: %v", err)
	}
	if err := c.Breakout.LoopConfig(true).Validate(); err != nil {
		return fmt.Errorf("breakout: %v", err)
	}
	if c.Breakout.Epsilon < 0.0 || c.Breakout.Epsilon > 1.0 {
		return fmt.Errorf("breakout: epsilon must be in [0, 1], got %v",
			c.Breakout.Epsilon)
	}
	return nil
}

// AgentConfig returns the tabular agent configuration
func (m MountainCar) AgentConfig() qlearning.Config {
	return qlearning.Config{
		LearningRate:      m.LearningRate,
		Discount:          m.Discount,
		BinWidths:         m.BinWidths,
		ShapeReward:       m.ShapeReward,
		ShapingMultiplier: m.ShapingMultiplier,
	}
}

// LoopConfig returns the tabular training loop configuration
func (m MountainCar) LoopConfig(training bool) experiment.TabularConfig {
	return experiment.TabularConfig{
		MaxEpisodes:     m.MaxEpisodes,
		MinEpisodes:     m.MinEpisodes,
		StatsInterval:   m.StatsInterval,
		SolvedThreshold: m.SolvedThreshold,
		EarlyStopX:      m.EarlyStopX,
		Training:        training,
	}
}

// AgentConfig returns the deep agent configuration
func (b Breakout) AgentConfig() dqn.Config {
	return dqn.Config{
		Filters:      b.Filters,
		HiddenSize:   b.HiddenSize,
		FrameSize:    b.FrameSize,
		LearningRate: b.LearningRate,
		Discount:     b.Discount,
		HuberDelta:   b.HuberDelta,
	}
}

// LoopConfig returns the deep training loop configuration
func (b Breakout) LoopConfig(training bool) experiment.DeepConfig {
	return experiment.DeepConfig{
		MaxEpisodes:   b.MaxEpisodes,
		SyncInterval:  b.SyncInterval,
		SkipInterval:  b.SkipInterval,
		DefaultAction: b.DefaultAction,
		StatsInterval: b.StatsInterval,
		WarmupFrames:  b.WarmupFrames,
		Training:      training,
	}
}
