// Package dqn implements a deep Q-learning agent over stacks of
// pixel frames
package dqn

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"qpilot/framestack"
	"qpilot/network"
	"qpilot/utils/floatutils"
)

// DQN implements deep Q-learning with a convolutional Q-network and a
// periodically synchronized target network. The target network
// provides the bootstrap value for the update target and is only
// refreshed when SyncTarget is called, so consecutive updates regress
// toward a stable target.
//
// Action values for both the update target and the temporal
// difference error are taken as the maximum over actions, so the
// agent learns on-policy with respect to its own greedy choices.
type DQN struct {
	// Network for selecting actions
	behaviour   network.NeuralNet
	behaviourVM G.VM

	// Network whose weights are adapted by the solver
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     G.Solver

	// Network providing the update target
	targetNet   network.NeuralNet
	targetNetVM G.VM

	// target is the input node of the trainNet graph that receives
	// the update target r + γ * max[Q(s, a)] computed by targetNet
	target *G.Node

	numActions int
	discount   float64
}

// New creates and returns a new DQN agent that selects among
// numActions discrete actions
func New(numActions int, config Config) (*DQN, error) {
	if numActions < 1 {
		return nil, fmt.Errorf("new: agent needs at least one action, "+
			"got %v", numActions)
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %v", err)
	}

	init := G.GlorotU(1.0)

	// Behaviour network for selecting actions
	gBehaviour := G.NewGraph()
	behaviour, err := network.NewConvNet(framestack.StackSize,
		config.FrameSize, config.FrameSize, config.Filters,
		config.HiddenSize, numActions, gBehaviour, init)
	if err != nil {
		return nil, fmt.Errorf("new: could not create behaviour "+
			"network: %v", err)
	}
	behaviourVM := G.NewTapeMachine(gBehaviour)

	// Create the training network which learns the weights
	gTrain := G.NewGraph()
	trainNet, err := network.NewConvNet(framestack.StackSize,
		config.FrameSize, config.FrameSize, config.Filters,
		config.HiddenSize, numActions, gTrain, init)
	if err != nil {
		return nil, fmt.Errorf("new: could not create learning "+
			"network: %v", err)
	}

	// Action value of the update, taken greedily over the predictions
	q := G.Must(G.Max(trainNet.Prediction(), 1))

	// Node receiving the update target computed by the target network
	target := G.NewVector(gTrain, tensor.Float64, G.WithShape(1),
		G.WithName("target"), G.WithInit(G.Zeroes()))

	// Compute the Huber-style loss δ²(√(1 + (x/δ)²) - 1) on the TD
	// error. The smooth form is used since the piecewise form needs a
	// comparison mask that the gradient cannot flow through.
	diff := G.Must(G.Sub(q, target))
	delta := G.NewVector(gTrain, tensor.Float64, G.WithShape(1),
		G.WithName("delta"), G.WithInit(G.ValuesOf(config.HuberDelta)))
	one := G.NewVector(gTrain, tensor.Float64, G.WithShape(1),
		G.WithName("one"), G.WithInit(G.Ones()))

	loss := G.Must(G.HadamardDiv(diff, delta))
	loss = G.Must(G.Square(loss))
	loss = G.Must(G.Add(one, loss))
	loss = G.Must(G.Sqrt(loss))
	loss = G.Must(G.Sub(loss, one))
	loss = G.Must(G.HadamardProd(loss, G.Must(G.Square(delta))))
	cost := G.Must(G.Mean(loss))

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("new: could not compute gradient: %v", err)
	}

	// Compile the trainNet graph into a VM
	trainNetVM := G.NewTapeMachine(
		gTrain,
		G.BindDualValues(trainNet.Learnables()...),
	)
	solver := G.NewAdamSolver(
		G.WithLearnRate(config.LearningRate),
		G.WithBatchSize(1),
	)

	// Create the target network which provides the update target
	targetNet, err := trainNet.Clone()
	if err != nil {
		return nil, fmt.Errorf("new: could not create target network: %v",
			err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// All three networks start from the same weights
	if err := behaviour.Set(trainNet); err != nil {
		return nil, fmt.Errorf("new: could not set behaviour weights: %v",
			err)
	}

	return &DQN{
		behaviour:   behaviour,
		behaviourVM: behaviourVM,
		trainNet:    trainNet,
		trainNetVM:  trainNetVM,
		solver:      solver,
		targetNet:   targetNet,
		targetNetVM: targetNetVM,
		target:      target,
		numActions:  numActions,
		discount:    config.Discount,
	}, nil
}

// SelectAction returns the greedy action for the frame stack
func (d *DQN) SelectAction(stack tensor.Tensor) (int, error) {
	if err := d.behaviour.SetInput(stack); err != nil {
		return 0, fmt.Errorf("selectaction: %v", err)
	}
	if err := d.behaviourVM.RunAll(); err != nil {
		return 0, fmt.Errorf("selectaction: could not run behaviour "+
			"network: %v", err)
	}
	defer d.behaviourVM.Reset()

	values := d.behaviour.Output().Data().([]float64)
	return floatutils.ArgMax(values), nil
}

// Train performs a single gradient step on the frame stack. The
// update target bootstraps from the target network on the same stack,
// and the behaviour network receives the adapted weights.
func (d *DQN) Train(reward float64, stack tensor.Tensor) error {
	// Compute the update target r + γ * max[Q(s, a)]
	if err := d.targetNet.SetInput(stack); err != nil {
		return fmt.Errorf("train: could not set target net input: %v", err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return fmt.Errorf("train: could not run target network: %v", err)
	}
	stableValues := d.targetNet.Output().Data().([]float64)
	updateTarget := reward + d.discount*floatutils.Max(stableValues...)
	d.targetNetVM.Reset()

	targetTensor := tensor.New(
		tensor.WithShape(1),
		tensor.WithBacking([]float64{updateTarget}),
	)
	if err := G.Let(d.target, targetTensor); err != nil {
		return fmt.Errorf("train: could not set update target: %v", err)
	}

	// Run the learning step
	if err := d.trainNet.SetInput(stack); err != nil {
		return fmt.Errorf("train: could not set trainNet input: %v", err)
	}
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("train: could not run learning network: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return fmt.Errorf("train: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()

	return d.behaviour.Set(d.trainNet)
}

// SyncTarget updates the target network by setting its weights to the
// newly learned weights
func (d *DQN) SyncTarget() error {
	return d.targetNet.Set(d.trainNet)
}

// NumActions returns the number of actions the agent selects among
func (d *DQN) NumActions() int {
	return d.numActions
}

// Weights returns a copy of the learned weights, one slice per
// learnable tensor in construction order
func (d *DQN) Weights() [][]float64 {
	learnables := d.trainNet.Learnables()
	weights := make([][]float64, len(learnables))
	for i, node := range learnables {
		data := node.Value().Data().([]float64)
		weights[i] = make([]float64, len(data))
		copy(weights[i], data)
	}
	return weights
}

// SetWeights overwrites the weights of all three networks. The
// argument must have the layout produced by Weights.
func (d *DQN) SetWeights(weights [][]float64) error {
	learnables := d.trainNet.Learnables()
	if len(weights) != len(learnables) {
		return fmt.Errorf("setweights: wrong number of weight tensors"+
			"\n\twant(%v)\n\thave(%v)", len(learnables), len(weights))
	}

	for i, node := range learnables {
		size := node.Shape().TotalSize()
		if len(weights[i]) != size {
			return fmt.Errorf("setweights: tensor %v has wrong size"+
				"\n\twant(%v)\n\thave(%v)", i, size, len(weights[i]))
		}

		backing := make([]float64, size)
		copy(backing, weights[i])
		value := tensor.New(
			tensor.WithShape(node.Shape()...),
			tensor.WithBacking(backing),
		)
		if err := G.Let(node, value); err != nil {
			return fmt.Errorf("setweights: could not set tensor %v: %v",
				i, err)
		}
	}

	if err := d.behaviour.Set(d.trainNet); err != nil {
		return fmt.Errorf("setweights: could not set behaviour "+
			"weights: %v", err)
	}
	if err := d.targetNet.Set(d.trainNet); err != nil {
		return fmt.Errorf("setweights: could not set target weights: %v",
			err)
	}
	return nil
}

// Close releases the virtual machines backing the agent's networks
func (d *DQN) Close() error {
	if err := d.behaviourVM.Close(); err != nil {
		return fmt.Errorf("close: could not close behaviour VM: %v", err)
	}
	if err := d.trainNetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close learning VM: %v", err)
	}
	if err := d.targetNetVM.Close(); err != nil {
		return fmt.Errorf("close: could not close target VM: %v", err)
	}
	return nil
}
