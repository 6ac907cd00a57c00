// Package agent defines the interfaces through which training loops
// drive learning agents.
//
// Two families of value function exist, with no shared state: a dense
// table indexed by discretized observations, and a neural network fed
// preprocessed frame stacks. Each family has its own interface because
// the two consume different state encodings and expose a different
// end-of-episode hook: the tabular agent pins terminal values directly,
// while the deep agent periodically snapshots its online parameters
// into a target network.
package agent

import (
	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
)

// Tabular is a value-function agent over discretized observations.
// All operations mutate the agent's table in place and are called
// sequentially by a single training loop.
type Tabular interface {
	// SelectAction returns the greedy action for an observation. Ties
	// are broken by the first-encountered maximum.
	SelectAction(obs mat.Vector) (int, error)

	// Train applies a one-step Q-learning update for the transition
	// (obs, action, reward, next)
	Train(obs mat.Vector, action int, reward float64, next mat.Vector) error

	// UpdateTerminal assigns the realized terminal reward as the value
	// of (obs, action), discarding any previous estimate
	UpdateTerminal(obs mat.Vector, action int, reward float64) error
}

// Deep is a value-function agent over frame-stack tensors produced by
// a framestack.Processor.
type Deep interface {
	// SelectAction returns the greedy action for a frame stack. Ties
	// are broken by the first-encountered maximum.
	SelectAction(stack tensor.Tensor) (int, error)

	// Train performs one gradient step on the online network toward
	// reward + discount * max over the target network's action values
	// for the given frame stack
	Train(reward float64, stack tensor.Tensor) error

	// SyncTarget copies the online parameters into the target network
	// wholesale. The target network is never updated any other way.
	SyncTarget() error
}

// Closer is an agent holding resources that must be released after
// training
type Closer interface {
	Close() error
}
