package network

import (
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestNewConvNetGeometry(t *testing.T) {
	tests := []struct {
		name                    string
		channels, height, width int
		shouldErr               bool
	}{
		{"80x80 stack of 2", 2, 80, 80, false},
		{"square input that does not tile", 2, 81, 81, true},
		{"input smaller than first kernel", 2, 3, 3, true},
		{"zero channels", 0, 80, 80, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewConvNet(tt.channels, tt.height, tt.width, 2, 4, 4,
				G.NewGraph(), G.GlorotU(1.0))
			if tt.shouldErr && err == nil {
				t.Error("expected geometry error but got none")
			} else if !tt.shouldErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestConvNetForwardShape(t *testing.T) {
	const outputs = 4
	net, err := NewConvNet(2, 80, 80, 2, 4, outputs, G.NewGraph(),
		G.GlorotU(1.0))
	if err != nil {
		t.Fatalf("could not construct network: %v", err)
	}

	input := tensor.New(
		tensor.WithShape(1, 2, 80, 80),
		tensor.WithBacking(make([]float64, 2*80*80)),
	)
	if err := net.SetInput(input); err != nil {
		t.Fatalf("could not set input: %v", err)
	}

	vm := G.NewTapeMachine(net.Graph())
	defer vm.Close()
	if err := vm.RunAll(); err != nil {
		t.Fatalf("could not run forward pass: %v", err)
	}

	out := net.Output().Data().([]float64)
	if len(out) != outputs {
		t.Errorf("wrong number of predictions\n\twant(%v)\n\thave(%v)",
			outputs, len(out))
	}

	// Zero input through zero biases leaves the output fully
	// determined by the rectified zero features
	for i, pred := range out {
		if pred != 0.0 {
			t.Errorf("expected zero prediction for zero input at action "+
				"%v, got %v", i, pred)
		}
	}
}

func TestConvNetSetInputShape(t *testing.T) {
	net, err := NewConvNet(2, 80, 80, 2, 4, 4, G.NewGraph(), G.GlorotU(1.0))
	if err != nil {
		t.Fatalf("could not construct network: %v", err)
	}

	wrong := tensor.New(
		tensor.WithShape(1, 1, 80, 80),
		tensor.WithBacking(make([]float64, 80*80)),
	)
	if err := net.SetInput(wrong); err == nil {
		t.Error("expected shape mismatch error but got none")
	}
}

func TestConvNetLearnables(t *testing.T) {
	net, err := NewConvNet(2, 80, 80, 2, 4, 4, G.NewGraph(), G.GlorotU(1.0))
	if err != nil {
		t.Fatalf("could not construct network: %v", err)
	}

	// Three convolutional weight tensors plus weights and bias for
	// each of the two dense layers
	if len(net.Learnables()) != 7 {
		t.Errorf("wrong number of learnables\n\twant(%v)\n\thave(%v)",
			7, len(net.Learnables()))
	}
	if len(net.Model()) != len(net.Learnables()) {
		t.Errorf("model and learnables disagree\n\twant(%v)\n\thave(%v)",
			len(net.Learnables()), len(net.Model()))
	}
}

func TestConvNetCloneCopiesWeights(t *testing.T) {
	net, err := NewConvNet(2, 80, 80, 2, 4, 4, G.NewGraph(), G.GlorotU(1.0))
	if err != nil {
		t.Fatalf("could not construct network: %v", err)
	}

	cloned, err := net.Clone()
	if err != nil {
		t.Fatalf("could not clone network: %v", err)
	}

	source := net.Learnables()
	copied := cloned.Learnables()
	if len(source) != len(copied) {
		t.Fatalf("clone has wrong number of learnables\n\twant(%v)"+
			"\n\thave(%v)", len(source), len(copied))
	}

	for i := range source {
		from := source[i].Value().Data().([]float64)
		to := copied[i].Value().Data().([]float64)
		for j := range from {
			if from[j] != to[j] {
				t.Fatalf("learnable %v differs at element %v"+
					"\n\twant(%v)\n\thave(%v)", i, j, from[j], to[j])
			}
		}
	}
}
