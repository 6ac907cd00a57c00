package network

import (
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// convLayer implements a 2D convolutional layer followed by a
// rectified linear activation
type convLayer struct {
	weights *G.Node
	kernel  tensor.Shape
	pad     []int
	stride  []int
}

// fwd adds the forward pass of the convLayer to the computational
// graph
func (c *convLayer) fwd(x *G.Node) (*G.Node, error) {
	out, err := G.Conv2d(x, c.weights, c.kernel, c.pad, c.stride,
		[]int{1, 1})
	if err != nil {
		return nil, err
	}
	return G.Rectify(out)
}

// fcLayer implements a fully connected layer of a feed forward neural
// network. A nil activation leaves the layer linear.
type fcLayer struct {
	weights *G.Node
	bias    *G.Node
	act     func(x *G.Node) (*G.Node, error)
}

// fwd adds the forward pass of the fcLayer to the computational graph
func (f *fcLayer) fwd(x *G.Node) (*G.Node, error) {
	x, err := G.Mul(x, f.weights)
	if err != nil {
		return nil, err
	}

	// Broadcast the bias weights to all samples along the batch
	// dimension
	x, err = G.BroadcastAdd(x, f.bias, nil, []byte{0})
	if err != nil {
		return nil, err
	}

	if f.act == nil {
		return x, nil
	}
	return f.act(x)
}
