package qlearning

import (
	"fmt"
)

// Config represents a configuration for the QLearning agent
type Config struct {
	// LearningRate is the step size of the Q-learning update
	LearningRate float64

	// Discount weights bootstrapped future value in the update target
	Discount float64

	// BinWidths holds the bucket width used to discretize each
	// observation dimension
	BinWidths []float64

	// ShapeReward replaces the environment reward fed to the update
	// rule with a dense signal rewarding progress along the first
	// observation dimension
	ShapeReward bool

	// ShapingMultiplier scales the shaped progress signal
	ShapingMultiplier float64
}

// Validate ensures that the Config is valid. Invalid configurations
// are fatal before any episode runs.
func (c Config) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning rate %v not in (0, 1]", c.LearningRate)
	}
	if c.Discount < 0 || c.Discount >= 1 {
		return fmt.Errorf("discount %v not in [0, 1)", c.Discount)
	}
	if len(c.BinWidths) == 0 {
		return fmt.Errorf("no bin widths given")
	}
	for i, width := range c.BinWidths {
		if width <= 0 {
			return fmt.Errorf("non-positive bin width %v for dimension %v",
				width, i)
		}
	}
	if c.ShapeReward && c.ShapingMultiplier <= 0 {
		return fmt.Errorf("non-positive shaping multiplier %v",
			c.ShapingMultiplier)
	}
	return nil
}
