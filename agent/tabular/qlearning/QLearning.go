// Package qlearning implements tabular one-step Q-learning over
// discretized observations.
//
// The value function is a dense multi-dimensional array indexed by
// the bin index of each observation dimension plus a trailing action
// axis. The table is allocated once from the environment's declared
// observation bounds and never resized; the discretizer clamps every
// index into the allocated extent.
package qlearning

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"qpilot/discretize"
	env "qpilot/environment"
)

// QLearning implements the Q-Learning algorithm with a dense table as
// the value function. All methods mutate the table in place; calls are
// sequential and single-threaded.
type QLearning struct {
	table       []float64
	stateDims   []int
	strides     []int
	numActions  int
	discretizer *discretize.Discretizer
	config      Config
}

// New creates a new QLearning agent for the given environment. The
// table extent is computed from the environment's declared observation
// bounds and the configured bin widths; all values start at zero.
func New(environment env.Environment, config Config) (*QLearning, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("qlearning: invalid configuration: %v", err)
	}

	obsSpec := environment.ObservationSpec()
	discretizer, err := discretize.New(obsSpec.LowerBound, obsSpec.UpperBound,
		config.BinWidths)
	if err != nil {
		return nil, fmt.Errorf("qlearning: %v", err)
	}

	numActions, err := environment.ActionSpec().NumActions()
	if err != nil {
		return nil, fmt.Errorf("qlearning: %v", err)
	}

	stateDims := discretizer.Extents()

	// Row-major strides over [stateDims..., numActions]
	strides := make([]int, len(stateDims))
	size := numActions
	for i := len(stateDims) - 1; i >= 0; i-- {
		strides[i] = size
		size *= stateDims[i]
	}

	return &QLearning{
		table:       make([]float64, size),
		stateDims:   stateDims,
		strides:     strides,
		numActions:  numActions,
		discretizer: discretizer,
		config:      config,
	}, nil
}

// SelectAction returns the greedy action for an observation: the
// argmax over the action axis at the observation's table row. Ties are
// broken by the first-encountered maximum, so selection is
// deterministic.
func (q *QLearning) SelectAction(obs mat.Vector) (int, error) {
	row, err := q.row(obs)
	if err != nil {
		return 0, fmt.Errorf("selectaction: %v", err)
	}

	action := 0
	for a := 1; a < q.numActions; a++ {
		if q.table[row+a] > q.table[row+action] {
			action = a
		}
	}
	return action, nil
}

// Train applies the one-step Q-learning update for the transition
// (obs, action, reward, next):
//
//	Q[s, a] += α * (r' + γ * max Q[s', ·] - Q[s, a])
//
// where r' is the (possibly shaped) reward.
func (q *QLearning) Train(obs mat.Vector, action int, reward float64,
	next mat.Vector) error {
	if err := q.checkAction(action); err != nil {
		return fmt.Errorf("train: %v", err)
	}

	row, err := q.row(obs)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	nextIndices, err := q.discretizer.Encode(next)
	if err != nil {
		return fmt.Errorf("train: %v", err)
	}
	nextRow := q.rowAt(nextIndices)

	maxNext := q.table[nextRow]
	for a := 1; a < q.numActions; a++ {
		if q.table[nextRow+a] > maxNext {
			maxNext = q.table[nextRow+a]
		}
	}

	shapedReward := q.shapeReward(reward, nextIndices)
	i := row + action
	q.table[i] += q.config.LearningRate *
		(shapedReward + q.config.Discount*maxNext - q.table[i])
	return nil
}

// UpdateTerminal assigns the realized terminal reward as the value of
// (obs, action). There is no next state to bootstrap from, so the
// previous estimate is overwritten rather than blended.
func (q *QLearning) UpdateTerminal(obs mat.Vector, action int,
	reward float64) error {
	if err := q.checkAction(action); err != nil {
		return fmt.Errorf("updateterminal: %v", err)
	}

	row, err := q.row(obs)
	if err != nil {
		return fmt.Errorf("updateterminal: %v", err)
	}

	q.table[row+action] = reward
	return nil
}

// Value returns the current estimate for (obs, action)
func (q *QLearning) Value(obs mat.Vector, action int) (float64, error) {
	if err := q.checkAction(action); err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}

	row, err := q.row(obs)
	if err != nil {
		return 0, fmt.Errorf("value: %v", err)
	}
	return q.table[row+action], nil
}

// Table returns a copy of the table contents for persistence
func (q *QLearning) Table() []float64 {
	table := make([]float64, len(q.table))
	copy(table, q.table)
	return table
}

// SetTable overwrites the table contents with a previously persisted
// snapshot
func (q *QLearning) SetTable(values []float64) error {
	if len(values) != len(q.table) {
		return fmt.Errorf("settable: invalid table size\n\twant(%v)"+
			"\n\thave(%v)", len(q.table), len(values))
	}
	copy(q.table, values)
	return nil
}

// Dims returns the table extent: one entry per observation dimension
// plus the trailing action axis
func (q *QLearning) Dims() []int {
	dims := make([]int, 0, len(q.stateDims)+1)
	dims = append(dims, q.stateDims...)
	return append(dims, q.numActions)
}

// shapeReward returns the reward fed to the update rule. When shaping
// is enabled, the environment reward is replaced with a dense signal
// that grows with the bin index of the first observation dimension of
// the next state and is negative everywhere below the top bin.
func (q *QLearning) shapeReward(reward float64, nextIndices []int) float64 {
	if !q.config.ShapeReward {
		return reward
	}

	m := q.config.ShapingMultiplier
	return float64(nextIndices[0])*m - (float64(q.stateDims[0])*m + 1)
}

// row returns the flat table offset of the action row for an
// observation
func (q *QLearning) row(obs mat.Vector) (int, error) {
	indices, err := q.discretizer.Encode(obs)
	if err != nil {
		return 0, err
	}
	return q.rowAt(indices), nil
}

func (q *QLearning) rowAt(indices []int) int {
	row := 0
	for i, index := range indices {
		row += index * q.strides[i]
	}
	return row
}

func (q *QLearning) checkAction(action int) error {
	if action < 0 || action >= q.numActions {
		return fmt.Errorf("illegal action %v ∉ [0, %v)", action,
			q.numActions)
	}
	return nil
}
