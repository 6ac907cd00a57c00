package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Fixed convolutional geometry of the Q-network: a wide feature
// extractor over the frame stack followed by two reduction stages.
var (
	convKernels = []int{8, 4, 3}
	convStrides = []int{4, 2, 1}
	convPads    = []int{2, 0, 0}
)

// ConvNet is a convolutional network mapping a stack of single-channel
// frames to one scalar prediction per discrete action. The frame stack
// enters as the channel dimension of a rank-4 (batch, stack, height,
// width) input. Three convolutional stages feed a flattening step, one
// rectified dense hidden layer, and a final linear output layer.
type ConvNet struct {
	g     *G.ExprGraph
	input *G.Node
	conv  []*convLayer
	fc    []*fcLayer

	channels, height, width int
	filters, hidden         int
	outputs                 int

	prediction *G.Node
	predVal    G.Value

	learnables G.Nodes
	model      []G.ValueGrad
}

// NewConvNet creates and returns a new ConvNet with the given input
// geometry, populating the graph g. The init parameter determines the
// weight initialization scheme. Input geometry that does not reduce
// cleanly through the convolutional stages is a configuration error.
func NewConvNet(channels, height, width, filters, hidden, outputs int,
	g *G.ExprGraph, init G.InitWFn) (*ConvNet, error) {
	if channels < 1 || height < 1 || width < 1 {
		return nil, fmt.Errorf("newconvnet: invalid input geometry "+
			"(%v, %v, %v)", channels, height, width)
	}
	if filters < 1 || hidden < 1 || outputs < 1 {
		return nil, fmt.Errorf("newconvnet: invalid layer sizes "+
			"(filters %v, hidden %v, outputs %v)", filters, hidden, outputs)
	}

	n := &ConvNet{
		g:        g,
		channels: channels,
		height:   height,
		width:    width,
		filters:  filters,
		hidden:   hidden,
		outputs:  outputs,
	}

	n.input = G.NewTensor(g, tensor.Float64, 4,
		G.WithShape(1, channels, height, width),
		G.WithName("input"),
		G.WithInit(G.Zeroes()),
	)

	// Convolutional stages
	h, w := height, width
	inChannels := channels
	for i := range convKernels {
		k := convKernels[i]

		var err error
		if h, err = convOut(h, k, convPads[i], convStrides[i]); err != nil {
			return nil, fmt.Errorf("newconvnet: stage %v: %v", i, err)
		}
		if w, err = convOut(w, k, convPads[i], convStrides[i]); err != nil {
			return nil, fmt.Errorf("newconvnet: stage %v: %v", i, err)
		}

		weights := G.NewTensor(g, tensor.Float64, 4,
			G.WithShape(filters, inChannels, k, k),
			G.WithName(fmt.Sprintf("conv%v-w", i)),
			G.WithInit(init),
		)
		n.conv = append(n.conv, &convLayer{
			weights: weights,
			kernel:  tensor.Shape{k, k},
			pad:     []int{convPads[i], convPads[i]},
			stride:  []int{convStrides[i], convStrides[i]},
		})
		inChannels = filters
	}

	// Dense head
	flat := filters * h * w
	n.fc = []*fcLayer{
		{
			weights: G.NewMatrix(g, tensor.Float64, G.WithShape(flat, hidden),
				G.WithName("hidden-w"), G.WithInit(init)),
			bias: G.NewMatrix(g, tensor.Float64, G.WithShape(1, hidden),
				G.WithName("hidden-b"), G.WithInit(G.Zeroes())),
			act: G.Rectify,
		},
		{
			weights: G.NewMatrix(g, tensor.Float64,
				G.WithShape(hidden, outputs), G.WithName("output-w"),
				G.WithInit(init)),
			bias: G.NewMatrix(g, tensor.Float64, G.WithShape(1, outputs),
				G.WithName("output-b"), G.WithInit(G.Zeroes())),
		},
	}

	if err := n.fwd(flat); err != nil {
		return nil, fmt.Errorf("newconvnet: could not compute forward "+
			"pass: %v", err)
	}
	return n, nil
}

// fwd performs the forward pass of the ConvNet on the input node
func (n *ConvNet) fwd(flat int) error {
	pred := n.input
	var err error
	for i, layer := range n.conv {
		if pred, err = layer.fwd(pred); err != nil {
			return fmt.Errorf("fwd: convolutional stage %v: %v", i, err)
		}
	}

	if pred, err = G.Reshape(pred, tensor.Shape{1, flat}); err != nil {
		return fmt.Errorf("fwd: could not flatten features: %v", err)
	}

	for i, layer := range n.fc {
		if pred, err = layer.fwd(pred); err != nil {
			return fmt.Errorf("fwd: dense layer %v: %v", i, err)
		}
	}

	n.prediction = pred
	G.Read(n.prediction, &n.predVal)
	return nil
}

// Graph returns the computational graph of the ConvNet
func (n *ConvNet) Graph() *G.ExprGraph {
	return n.g
}

// Clone clones the ConvNet onto a fresh computational graph, copying
// the current weights
func (n *ConvNet) Clone() (NeuralNet, error) {
	clone, err := NewConvNet(n.channels, n.height, n.width, n.filters,
		n.hidden, n.outputs, G.NewGraph(), G.Zeroes())
	if err != nil {
		return nil, fmt.Errorf("clone: %v", err)
	}

	if err := clone.Set(n); err != nil {
		return nil, fmt.Errorf("clone: could not copy weights: %v", err)
	}
	return clone, nil
}

// SetInput sets the value of the input node before running the forward
// pass
func (n *ConvNet) SetInput(t tensor.Tensor) error {
	if !t.Shape().Eq(n.input.Shape()) {
		return fmt.Errorf("setinput: invalid input shape\n\twant(%v)"+
			"\n\thave(%v)", n.input.Shape(), t.Shape())
	}
	return G.Let(n.input, t)
}

// Set copies the weights of another network into the ConvNet. The two
// networks must share the same architecture.
func (dest *ConvNet) Set(source NeuralNet) error {
	sourceNodes := source.Learnables()
	nodes := dest.Learnables()
	if len(sourceNodes) != len(nodes) {
		return fmt.Errorf("set: mismatched architectures\n\twant(%v "+
			"learnables)\n\thave(%v)", len(nodes), len(sourceNodes))
	}

	for i, destLearnable := range nodes {
		sourceLearnable := sourceNodes[i].Clone()
		err := G.Let(destLearnable, sourceLearnable.(*G.Node).Value())
		if err != nil {
			return err
		}
	}
	return nil
}

// Learnables returns the learnable nodes in the ConvNet
func (n *ConvNet) Learnables() G.Nodes {
	// Lazy instantiation
	if n.learnables == nil {
		n.learnables = n.computeLearnables()
	}
	return n.learnables
}

func (n *ConvNet) computeLearnables() G.Nodes {
	learnables := make(G.Nodes, 0, len(n.conv)+2*len(n.fc))
	for _, layer := range n.conv {
		learnables = append(learnables, layer.weights)
	}
	for _, layer := range n.fc {
		learnables = append(learnables, layer.weights, layer.bias)
	}
	return learnables
}

// Model returns the learnable nodes with their gradients
func (n *ConvNet) Model() []G.ValueGrad {
	// Lazy instantiation
	if n.model == nil {
		for _, node := range n.Learnables() {
			n.model = append(n.model, node)
		}
	}
	return n.model
}

// Output returns the output of the ConvNet from the last graph run
func (n *ConvNet) Output() G.Value {
	return n.predVal
}

// Prediction returns the node of the computational graph that stores
// the output of the ConvNet
func (n *ConvNet) Prediction() *G.Node {
	return n.prediction
}

// Outputs returns the number of action values the ConvNet predicts
func (n *ConvNet) Outputs() int {
	return n.outputs
}

// convOut computes the output side length of a convolutional stage
func convOut(in, kernel, pad, stride int) (int, error) {
	span := in + 2*pad - kernel
	if span < 0 || span%stride != 0 {
		return 0, fmt.Errorf("kernel %v with pad %v and stride %v does not "+
			"tile input %v", kernel, pad, stride, in)
	}
	return span/stride + 1, nil
}
