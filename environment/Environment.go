// Package environment outlines the interface through which agents
// interact with simulated environments.
//
// The learning code consumes environments through a four-operation
// contract: reset the environment, step it with a discrete action, and
// query the observation and action specifications. Concrete
// environments live in subpackages or outside this module entirely;
// the training loops never reach past this interface.
package environment

import (
	"gonum.org/v1/gonum/mat"

	"qpilot/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() mat.Vector
}

// Environment implements a simulated environment with a discrete
// action space.
//
// Step returns an error only when the contract is violated, e.g. an
// illegal action or a step on a finished episode. Such errors are
// fatal to a training run and are never repaired here.
type Environment interface {
	// Reset starts a new episode and returns its first TimeStep
	Reset() (timestep.TimeStep, error)

	// Step applies a discrete action and returns the next TimeStep.
	// The returned TimeStep carries the reward for the transition and
	// flags episode termination and truncation.
	Step(action int) (timestep.TimeStep, error)

	// ObservationSpec describes the shape and bounds of observations
	ObservationSpec() Spec

	// ActionSpec describes the discrete action set
	ActionSpec() Spec
}
