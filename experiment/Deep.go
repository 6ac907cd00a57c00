package experiment

import (
	"fmt"

	"golang.org/x/exp/rand"

	"qpilot/agent"
	"qpilot/environment"
	"qpilot/experiment/tracker"
	"qpilot/framestack"
	"qpilot/utils/progressbar"
)

// DeepConfig implements a configuration for a deep training run
type DeepConfig struct {
	MaxEpisodes int

	// SyncInterval is the episode cadence at which the target network
	// is refreshed from the learned weights
	SyncInterval int

	// SkipInterval is the frame-skip factor K. Only every Kth step
	// consults the policy for a new action; the other steps repeat
	// DefaultAction.
	SkipInterval int

	// DefaultAction is the action repeated on skipped steps
	DefaultAction int

	// StatsInterval is the episode cadence at which the running mean
	// reward is recorded. It is also the capacity of the reward trace.
	StatsInterval int

	// WarmupFrames is the number of interaction frames that must
	// elapse before the exploration schedule starts decaying
	WarmupFrames int

	// Training disables learning updates when false, so the run
	// replays the greedy policy only
	Training bool
}

// Validate checks whether or not the DeepConfig is valid
func (c DeepConfig) Validate() error {
	if c.MaxEpisodes < 1 {
		return fmt.Errorf("config: max episodes must be positive, got %v",
			c.MaxEpisodes)
	}
	if c.SyncInterval < 1 {
		return fmt.Errorf("config: sync interval must be positive, got %v",
			c.SyncInterval)
	}
	if c.SkipInterval < 1 {
		return fmt.Errorf("config: skip interval must be positive, got %v",
			c.SkipInterval)
	}
	if c.DefaultAction < 0 {
		return fmt.Errorf("config: default action must be non-negative, "+
			"got %v", c.DefaultAction)
	}
	if c.StatsInterval < 1 {
		return fmt.Errorf("config: stats interval must be positive, "+
			"got %v", c.StatsInterval)
	}
	if c.WarmupFrames < 0 {
		return fmt.Errorf("config: warmup frames must be non-negative, "+
			"got %v", c.WarmupFrames)
	}
	return nil
}

// Deep runs a deep agent against a pixel environment, feeding it
// stacks of preprocessed frames. The exploration probability decays
// once per episode after a warm-up period of interaction frames.
type Deep struct {
	env       environment.Environment
	agent     agent.Deep
	processor *framestack.Processor
	schedule  *Schedule
	config    DeepConfig

	numActions  int
	totalFrames int
	rng         *rand.Rand
}

// NewDeep creates and returns a new Deep experiment
func NewDeep(env environment.Environment, a agent.Deep,
	processor *framestack.Processor, schedule *Schedule,
	config DeepConfig, seed uint64) (*Deep, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newdeep: %v", err)
	}

	numActions, err := env.ActionSpec().NumActions()
	if err != nil {
		return nil, fmt.Errorf("newdeep: %v", err)
	}
	if config.DefaultAction >= numActions {
		return nil, fmt.Errorf("newdeep: default action %v out of range "+
			"for %v actions", config.DefaultAction, numActions)
	}

	return &Deep{
		env:        env,
		agent:      a,
		processor:  processor,
		schedule:   schedule,
		config:     config,
		numActions: numActions,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Run runs the experiment for MaxEpisodes episodes
func (d *Deep) Run() (*Result, error) {
	trace, err := tracker.NewTrace(d.config.StatsInterval)
	if err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}

	result := &Result{}
	bar := progressbar.New(50, d.config.MaxEpisodes)
	bar.Display()

	for episode := 0; episode < d.config.MaxEpisodes; episode++ {
		reward, err := d.runEpisode()
		if err != nil {
			return nil, fmt.Errorf("run: episode %v: %v", episode, err)
		}

		// Refresh the target network at a fixed episode cadence,
		// never more often
		if d.config.Training && episode > 1 &&
			episode%d.config.SyncInterval == 0 {
			if err := d.agent.SyncTarget(); err != nil {
				return nil, fmt.Errorf("run: could not sync target "+
					"network: %v", err)
			}
		}

		trace.Add(reward)
		result.Episodes = episode + 1

		if episode%d.config.StatsInterval == 0 {
			result.RewardProgression = append(result.RewardProgression,
				trace.Mean())
		}

		// Exploration only starts decaying once enough frames have
		// been seen, and then decays once per episode
		if d.schedule.Value() > 0 && d.totalFrames > d.config.WarmupFrames {
			d.schedule.Decay()
		}

		bar.SetPostfix("reward: %.1f, ε: %.3f, frames: %v", reward,
			d.schedule.Value(), d.totalFrames)
		bar.Increment()
		bar.Display()
	}
	bar.Finish()

	result.MeanReward = trace.Mean()
	return result, nil
}

// runEpisode runs a single episode and returns its cumulative reward
func (d *Deep) runEpisode() (float64, error) {
	step, err := d.env.Reset()
	if err != nil {
		return 0, fmt.Errorf("runepisode: could not reset environment: %v",
			err)
	}
	d.processor.Reset()

	episodeReward := 0.0
	stepNum := 0

	for !step.Last() {
		d.totalFrames++
		stepNum++

		// Skipped steps repeat the default action. A skipped step
		// that earns reward still trains immediately on the current
		// frame stack.
		if stepNum%d.config.SkipInterval != 0 {
			if step, err = d.env.Step(d.config.DefaultAction); err != nil {
				return 0, fmt.Errorf("runepisode: could not step "+
					"environment: %v", err)
			}
			if step.Reward > 0 {
				err := d.agent.Train(step.Reward, d.processor.Encode())
				if err != nil {
					return 0, fmt.Errorf("runepisode: could not train "+
						"on skipped step: %v", err)
				}
				episodeReward += step.Reward
			}
			continue
		}

		// Exploration gate
		var action int
		if d.schedule.Value() > 0 && d.rng.Float64() < d.schedule.Value() {
			action = d.rng.Intn(d.numActions)
		} else {
			action, err = d.agent.SelectAction(d.processor.Encode())
			if err != nil {
				return 0, fmt.Errorf("runepisode: could not select "+
					"action: %v", err)
			}
		}

		if step, err = d.env.Step(action); err != nil {
			return 0, fmt.Errorf("runepisode: could not step "+
				"environment: %v", err)
		}
		episodeReward += step.Reward

		if d.config.Training {
			err := d.agent.Train(step.Reward, d.processor.Encode())
			if err != nil {
				return 0, fmt.Errorf("runepisode: could not train: %v", err)
			}
		}

		// Prepare the stack for the next decision
		if err := d.processor.AddFrame(step.Observation); err != nil {
			return 0, fmt.Errorf("runepisode: could not add frame: %v", err)
		}
	}

	return episodeReward, nil
}
