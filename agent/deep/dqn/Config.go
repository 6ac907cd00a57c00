package dqn

import "fmt"

// Config implements a configuration for a DQN agent
type Config struct {
	// Filters is the number of feature maps produced by each
	// convolutional stage of the Q-network
	Filters int

	// HiddenSize is the number of units in the dense hidden layer
	// between the convolutional stages and the output layer
	HiddenSize int

	// FrameSize is the side length of the square frames the agent
	// consumes. It fixes the input geometry of the Q-network.
	FrameSize int

	LearningRate float64
	Discount     float64

	// HuberDelta is the transition point of the Huber-style loss
	// between its quadratic and linear regimes
	HuberDelta float64
}

// Validate checks whether or not the Config is valid
func (c Config) Validate() error {
	if c.Filters < 1 {
		return fmt.Errorf("config: filters must be positive, got %v",
			c.Filters)
	}

	if c.HiddenSize < 1 {
		return fmt.Errorf("config: hidden size must be positive, got %v",
			c.HiddenSize)
	}

	if c.FrameSize < 1 {
		return fmt.Errorf("config: frame size must be positive, got %v",
			c.FrameSize)
	}

	if c.LearningRate <= 0.0 {
		return fmt.Errorf("config: learning rate must be positive, got %v",
			c.LearningRate)
	}

	if c.Discount < 0.0 || c.Discount >= 1.0 {
		return fmt.Errorf("config: discount must be in [0, 1), got %v",
			c.Discount)
	}

	if c.HuberDelta <= 0.0 {
		return fmt.Errorf("config: huber delta must be positive, got %v",
			c.HuberDelta)
	}

	return nil
}
