// Package gym provides access to OpenAI Gym environments served over
// HTTP by gym-http-api.
//
// The pixel-based arcade tasks have no native Go implementation, so
// they are consumed as external collaborators: a remote server owns
// the environment and this package adapts it to the
// environment.Environment interface.
package gym

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	env "qpilot/environment"
	ts "qpilot/timestep"
)

// Env adapts one remote gym environment instance to the
// environment.Environment interface
type Env struct {
	client   *Client
	instance InstanceID
	envID    string
	discount float64

	obsSpec  env.Spec
	actSpec  env.Spec
	lastStep ts.TimeStep
}

// New creates a remote environment with the given gym environment ID
// on the gym-http-api server at baseURL
func New(envID, baseURL string, discount float64) (*Env, error) {
	client, err := NewClient(baseURL)
	if err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	instance, err := client.Create(envID)
	if err != nil {
		return nil, fmt.Errorf("new: could not create gym environment: %v",
			err)
	}

	e := &Env{
		client:   client,
		instance: instance,
		envID:    envID,
		discount: discount,
	}

	if e.obsSpec, err = e.observationSpec(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	if e.actSpec, err = e.actionSpec(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}
	return e, nil
}

// Reset resets the remote environment and returns the first TimeStep
// of a new episode
func (e *Env) Reset() (ts.TimeStep, error) {
	obs, err := e.client.Reset(e.instance)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %v", err)
	}

	e.lastStep = ts.New(ts.First, 0, e.discount,
		mat.NewVecDense(len(obs), obs), 0)
	return e.lastStep, nil
}

// Step applies a discrete action to the remote environment. The
// gym-http-api protocol reports a single done flag, which is treated
// as termination; step-limit truncation is owned by the server.
func (e *Env) Step(action int) (ts.TimeStep, error) {
	if e.lastStep.Last() {
		return ts.TimeStep{}, fmt.Errorf("step: episode has ended, call " +
			"Reset before stepping")
	}

	obs, reward, done, err := e.client.Step(e.instance, action)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("step: %v", err)
	}

	t := ts.New(ts.Mid, reward, e.discount, mat.NewVecDense(len(obs), obs),
		e.lastStep.Number+1)
	if done {
		t.StepType = ts.Last
	}

	e.lastStep = t
	return t, nil
}

// ObservationSpec returns the observation specification of the remote
// environment
func (e *Env) ObservationSpec() env.Spec {
	return e.obsSpec
}

// ActionSpec returns the action specification of the remote
// environment
func (e *Env) ActionSpec() env.Spec {
	return e.actSpec
}

// Close shuts down the remote environment instance
func (e *Env) Close() error {
	return e.client.Close(e.instance)
}

func (e *Env) observationSpec() (env.Spec, error) {
	space, err := e.client.ObservationSpace(e.instance)
	if err != nil {
		return env.Spec{}, err
	}
	if space.Name != "Box" {
		return env.Spec{}, fmt.Errorf("unsupported observation space %q",
			space.Name)
	}

	features := 1
	for _, dim := range space.Shape {
		features *= dim
	}
	if features < 1 {
		return env.Spec{}, fmt.Errorf("empty observation shape %v",
			space.Shape)
	}

	low := make([]float64, features)
	high := make([]float64, features)
	for i := 0; i < features; i++ {
		// Some servers elide the full bound arrays for large pixel
		// spaces; assume the 8-bit pixel range then.
		if i < len(space.Low) {
			low[i] = space.Low[i]
		}
		if i < len(space.High) {
			high[i] = space.High[i]
		} else {
			high[i] = 255
		}
	}

	shape := mat.NewVecDense(features, nil)
	return env.NewSpec(shape, env.Observation, mat.NewVecDense(features, low),
		mat.NewVecDense(features, high), env.Continuous), nil
}

func (e *Env) actionSpec() (env.Spec, error) {
	space, err := e.client.ActionSpace(e.instance)
	if err != nil {
		return env.Spec{}, err
	}
	if space.Name != "Discrete" {
		return env.Spec{}, fmt.Errorf("unsupported action space %q",
			space.Name)
	}
	if space.N < 1 {
		return env.Spec{}, fmt.Errorf("invalid action count %v", space.N)
	}

	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, nil)
	upperBound := mat.NewVecDense(1, []float64{float64(space.N - 1)})
	return env.NewSpec(shape, env.Action, lowerBound, upperBound,
		env.Discrete), nil
}
