// Package network implements neural network value functions using
// Gorgonia.
package network

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet describes a neural network function approximator whose
// computational graph is run by an external VM. The typical usage is:
//
//	Set up a VM with the network's graph:  vm = NewTapeMachine(net.Graph())
//	Set the network input:                 net.SetInput(stack)
//	Predict the action values:             vm.RunAll()
//	Read the predictions:                  net.Output()
type NeuralNet interface {
	// Graph returns the computational graph holding the network
	Graph() *G.ExprGraph

	// Clone returns a network with identical architecture and weights
	// on a fresh computational graph
	Clone() (NeuralNet, error)

	// SetInput sets the value of the network's input node before a
	// forward pass
	SetInput(tensor.Tensor) error

	// Set copies the argument network's weights into the receiver
	Set(NeuralNet) error

	// Learnables returns the nodes holding learnable weights
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients, for use
	// by a solver
	Model() []G.ValueGrad

	// Output returns the value of the prediction node from the last
	// run of the graph
	Output() G.Value

	// Prediction returns the node of the computational graph that
	// stores the network's output
	Prediction() *G.Node

	// Outputs returns the number of values the network predicts
	Outputs() int
}
