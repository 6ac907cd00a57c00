// Package mountaincar implements the discrete action classic control
// environment "Mountain Car"
package mountaincar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	env "qpilot/environment"
	ts "qpilot/timestep"
	"qpilot/utils/floatutils"
)

const (
	MinPosition float64 = -1.2
	MaxPosition float64 = 0.6
	MaxSpeed    float64 = 0.07
	Power       float64 = 0.0015 // Engine power
	Gravity     float64 = 0.0025

	// GoalPosition is the x position at which an episode terminates
	GoalPosition float64 = 0.5

	// Discrete actions: accelerate left, do nothing, accelerate right
	MinAction  int = 0
	MaxAction  int = 2
	NumActions int = 3
)

// MountainCar implements the classic control Mountain Car environment.
// The agent controls an underpowered car in a valley between two
// hills, and must rock back and forth from hill to hill to build
// enough momentum to reach the goal on the right hill.
//
// State observations are 2-dimensional: the x position of the car and
// its velocity, bounded by the constants in this package. Rewards are
// -1 on each step and 0 for the transition into the goal state.
// Episodes terminate at the goal and are truncated after maxSteps.
type MountainCar struct {
	starter        env.Starter
	positionBounds r1.Interval
	speedBounds    r1.Interval
	maxSteps       int
	discount       float64
	lastStep       ts.TimeStep
}

// New creates a new Mountain Car environment with starting states
// drawn from starter and episodes truncated after maxSteps
func New(starter env.Starter, maxSteps int,
	discount float64) (*MountainCar, error) {
	if maxSteps <= 0 {
		return nil, fmt.Errorf("mountaincar: non-positive step limit %v",
			maxSteps)
	}
	if discount < 0 || discount > 1 {
		return nil, fmt.Errorf("mountaincar: discount %v not in [0, 1]",
			discount)
	}

	m := &MountainCar{
		starter:        starter,
		positionBounds: r1.Interval{Min: MinPosition, Max: MaxPosition},
		speedBounds:    r1.Interval{Min: -MaxSpeed, Max: MaxSpeed},
		maxSteps:       maxSteps,
		discount:       discount,
	}

	if _, err := m.Reset(); err != nil {
		return nil, err
	}
	return m, nil
}

// Reset resets the environment and returns a starting state drawn from
// the environment Starter
func (m *MountainCar) Reset() (ts.TimeStep, error) {
	state := m.starter.Start()
	if err := m.validateState(state); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	m.lastStep = ts.New(ts.First, 0, m.discount, state, 0)
	return m.lastStep, nil
}

// Step takes one environmental step given a discrete action in
// {0, 1, 2} and returns the next timestep. Stepping a finished episode
// or passing an illegal action is an error.
func (m *MountainCar) Step(action int) (ts.TimeStep, error) {
	if m.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: episode has ended, call " +
			"Reset before stepping")
	}
	if action < MinAction || action > MaxAction {
		return ts.TimeStep{}, fmt.Errorf("step: illegal action %v ∉ "+
			"[%v, %v]", action, MinAction, MaxAction)
	}

	// Actions determine the direction of full accelerating force
	force := float64(action) - 1.0

	state := m.lastStep.Observation
	position, velocity := state.AtVec(0), state.AtVec(1)

	velocity += force*Power - Gravity*math.Cos(3*position)
	velocity = floatutils.Clip(velocity, m.speedBounds.Min, m.speedBounds.Max)

	position += velocity
	position = floatutils.Clip(position, m.positionBounds.Min,
		m.positionBounds.Max)

	// The left wall is inelastic
	if position <= m.positionBounds.Min && velocity < 0 {
		velocity = 0
	}

	newState := mat.NewVecDense(2, []float64{position, velocity})

	reward := -1.0
	if position >= GoalPosition {
		reward = 0.0
	}

	nextStep := ts.New(ts.Mid, reward, m.discount, newState,
		m.lastStep.Number+1)
	if position >= GoalPosition {
		nextStep.StepType = ts.Last
	} else if nextStep.Number >= m.maxSteps {
		nextStep.StepType = ts.Last
		nextStep.Truncated = true
	}

	m.lastStep = nextStep
	return nextStep, nil
}

// ObservationSpec returns the observation specification of the
// environment
func (m *MountainCar) ObservationSpec() env.Spec {
	shape := mat.NewVecDense(2, nil)
	lowerBound := mat.NewVecDense(2, []float64{m.positionBounds.Min,
		m.speedBounds.Min})
	upperBound := mat.NewVecDense(2, []float64{m.positionBounds.Max,
		m.speedBounds.Max})

	return env.NewSpec(shape, env.Observation, lowerBound, upperBound,
		env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (m *MountainCar) ActionSpec() env.Spec {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxAction)})

	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete)
}

// String returns a string representation of the environment
func (m *MountainCar) String() string {
	str := "Mountain Car  |  Position: %v  |  Speed: %v"
	state := m.lastStep.Observation
	return fmt.Sprintf(str, state.AtVec(0), state.AtVec(1))
}

// validateState validates a starting state against the environmental
// limits on position and speed
func (m *MountainCar) validateState(s mat.Vector) error {
	if s.Len() != 2 {
		return fmt.Errorf("illegal state length %v, expected 2", s.Len())
	}

	position := s.AtVec(0)
	if position < m.positionBounds.Min || position > m.positionBounds.Max {
		return fmt.Errorf("illegal position %v ∉ [%v, %v]", position,
			m.positionBounds.Min, m.positionBounds.Max)
	}

	speed := s.AtVec(1)
	if speed < m.speedBounds.Min || speed > m.speedBounds.Max {
		return fmt.Errorf("illegal speed %v ∉ [%v, %v]", speed,
			m.speedBounds.Min, m.speedBounds.Max)
	}
	return nil
}
