package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"qpilot/config"
	"qpilot/experiment/tracker"
)

var rootCmd = &cobra.Command{
	Use:   "qpilot",
	Short: "Train value-based reinforcement-learning agents",
	Long: "qpilot trains a tabular Q-learning agent on the mountain car\n" +
		"control task and a deep Q-network on Atari Breakout pixels,\n" +
		"tracking reward progressions and persisting learned parameters.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(mountainCarCmd)
	rootCmd.AddCommand(breakoutCmd)
}

// saveProgression persists a reward progression so it can be reloaded
// and replotted without re-running the experiment
func saveProgression(points []float64, filename string) error {
	series := tracker.NewSeries(filename)
	for _, point := range points {
		series.Track(point)
	}
	return series.Save()
}

// loadConfig returns the default hyperparameters, overridden by a
// YAML file when one is named
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}

	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("loadconfig: %v", err)
	}
	return cfg, nil
}
