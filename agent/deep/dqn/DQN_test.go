package dqn

import (
	"math/rand"
	"testing"

	"gorgonia.org/tensor"

	"qpilot/framestack"
)

const (
	testFrameSize  = 40
	testNumActions = 4
)

func testConfig() Config {
	return Config{
		Filters:      2,
		HiddenSize:   4,
		FrameSize:    testFrameSize,
		LearningRate: 0.001,
		Discount:     0.99,
		HuberDelta:   1.0,
	}
}

func randomStack(rng *rand.Rand) tensor.Tensor {
	backing := make([]float64, framestack.StackSize*testFrameSize*
		testFrameSize)
	for i := range backing {
		backing[i] = rng.Float64()
	}
	return tensor.New(
		tensor.WithShape(1, framestack.StackSize, testFrameSize,
			testFrameSize),
		tensor.WithBacking(backing),
	)
}

// snapshot copies the current weight values of a network's learnables
func snapshot(weights [][]float64) [][]float64 {
	out := make([][]float64, len(weights))
	for i := range weights {
		out[i] = make([]float64, len(weights[i]))
		copy(out[i], weights[i])
	}
	return out
}

func equal(a, b [][]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if len(a[i]) != len(b[i]) {
			return false
		}
		for j := range a[i] {
			if a[i][j] != b[i][j] {
				return false
			}
		}
	}
	return true
}

func targetWeights(d *DQN) [][]float64 {
	learnables := d.targetNet.Learnables()
	weights := make([][]float64, len(learnables))
	for i, node := range learnables {
		data := node.Value().Data().([]float64)
		weights[i] = make([]float64, len(data))
		copy(weights[i], data)
	}
	return weights
}

func TestNewValidatesConfig(t *testing.T) {
	config := testConfig()
	config.LearningRate = 0.0
	if _, err := New(testNumActions, config); err == nil {
		t.Error("expected error for zero learning rate but got none")
	}

	if _, err := New(0, testConfig()); err == nil {
		t.Error("expected error for zero actions but got none")
	}
}

func TestSelectActionInRange(t *testing.T) {
	agent, err := New(testNumActions, testConfig())
	if err != nil {
		t.Fatalf("could not construct agent: %v", err)
	}
	defer agent.Close()

	rng := rand.New(rand.NewSource(13))
	for i := 0; i < 10; i++ {
		action, err := agent.SelectAction(randomStack(rng))
		if err != nil {
			t.Fatalf("could not select action: %v", err)
		}
		if action < 0 || action >= testNumActions {
			t.Errorf("action out of range\n\twant(within [0, %v))"+
				"\n\thave(%v)", testNumActions, action)
		}
	}
}

func TestTrainLeavesTargetUnchanged(t *testing.T) {
	agent, err := New(testNumActions, testConfig())
	if err != nil {
		t.Fatalf("could not construct agent: %v", err)
	}
	defer agent.Close()

	before := snapshot(targetWeights(agent))

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 3; i++ {
		if err := agent.Train(1.0, randomStack(rng)); err != nil {
			t.Fatalf("could not train: %v", err)
		}
	}

	if !equal(before, targetWeights(agent)) {
		t.Error("training changed the target network weights")
	}
	if equal(before, agent.Weights()) {
		t.Error("training left the learned weights unchanged")
	}
}

func TestSyncTargetCopiesLearnedWeights(t *testing.T) {
	agent, err := New(testNumActions, testConfig())
	if err != nil {
		t.Fatalf("could not construct agent: %v", err)
	}
	defer agent.Close()

	rng := rand.New(rand.NewSource(21))
	if err := agent.Train(1.0, randomStack(rng)); err != nil {
		t.Fatalf("could not train: %v", err)
	}

	if equal(agent.Weights(), targetWeights(agent)) {
		t.Fatal("target network already matches the learned weights")
	}

	if err := agent.SyncTarget(); err != nil {
		t.Fatalf("could not sync target network: %v", err)
	}
	if !equal(agent.Weights(), targetWeights(agent)) {
		t.Error("target network does not match the learned weights " +
			"after syncing")
	}
}

func TestSetWeightsRoundTrip(t *testing.T) {
	agent, err := New(testNumActions, testConfig())
	if err != nil {
		t.Fatalf("could not construct agent: %v", err)
	}
	defer agent.Close()

	weights := agent.Weights()
	for i := range weights {
		for j := range weights[i] {
			weights[i][j] = float64(i) + float64(j)*0.01
		}
	}

	if err := agent.SetWeights(weights); err != nil {
		t.Fatalf("could not set weights: %v", err)
	}
	if !equal(weights, agent.Weights()) {
		t.Error("weights do not round trip through SetWeights")
	}
	if !equal(weights, targetWeights(agent)) {
		t.Error("target network missed the restored weights")
	}

	if err := agent.SetWeights(weights[1:]); err == nil {
		t.Error("expected error for truncated weights but got none")
	}
}
