package experiment

import (
	"fmt"

	"golang.org/x/exp/rand"

	"qpilot/agent"
	"qpilot/environment"
	"qpilot/experiment/tracker"
	"qpilot/utils/progressbar"
)

// TabularConfig implements a configuration for a tabular training run
type TabularConfig struct {
	// MaxEpisodes is the number of episodes the run lasts unless the
	// task is solved first
	MaxEpisodes int

	// MinEpisodes is the number of episodes that must elapse before
	// the solved check may stop the run. It is also the capacity of
	// the reward trace.
	MinEpisodes int

	// StatsInterval is the episode cadence at which running means are
	// recorded and the solved check performed
	StatsInterval int

	// SolvedThreshold is the running mean reward above which the task
	// counts as solved
	SolvedThreshold float64

	// EarlyStopX ends an episode once the first observation coordinate
	// crosses it, even when the environment has not terminated
	EarlyStopX float64

	// Training disables learning updates when false, so the run
	// replays the greedy policy only
	Training bool
}

// Validate checks whether or not the TabularConfig is valid
func (c TabularConfig) Validate() error {
	if c.MaxEpisodes < 1 {
		return fmt.Errorf("config: max episodes must be positive, got %v",
			c.MaxEpisodes)
	}
	if c.MinEpisodes < 1 {
		return fmt.Errorf("config: min episodes must be positive, got %v",
			c.MinEpisodes)
	}
	if c.StatsInterval < 1 {
		return fmt.Errorf("config: stats interval must be positive, "+
			"got %v", c.StatsInterval)
	}
	return nil
}

// Result summarizes a training run
type Result struct {
	Episodes int
	Solved   bool

	// MeanReward is the last recorded running mean of episodic rewards
	MeanReward float64

	// RewardProgression and ProgressProgression hold the running means
	// recorded every StatsInterval episodes
	RewardProgression   []float64
	ProgressProgression []float64
}

// Tabular runs a tabular agent against an environment, decaying the
// exploration probability on every exploratory step
type Tabular struct {
	env      environment.Environment
	agent    agent.Tabular
	schedule *Schedule
	config   TabularConfig

	numActions int
	rng        *rand.Rand
}

// NewTabular creates and returns a new Tabular experiment
func NewTabular(env environment.Environment, a agent.Tabular,
	schedule *Schedule, config TabularConfig, seed uint64) (*Tabular,
	error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("newtabular: %v", err)
	}

	numActions, err := env.ActionSpec().NumActions()
	if err != nil {
		return nil, fmt.Errorf("newtabular: %v", err)
	}

	return &Tabular{
		env:        env,
		agent:      a,
		schedule:   schedule,
		config:     config,
		numActions: numActions,
		rng:        rand.New(rand.NewSource(seed)),
	}, nil
}

// Run runs the experiment until MaxEpisodes elapse or the task is
// solved, whichever comes first
func (t *Tabular) Run() (*Result, error) {
	rewardTrace, err := tracker.NewTrace(t.config.MinEpisodes)
	if err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}
	progressTrace, err := tracker.NewTrace(t.config.MinEpisodes)
	if err != nil {
		return nil, fmt.Errorf("run: %v", err)
	}

	result := &Result{}
	bar := progressbar.New(50, t.config.MaxEpisodes)
	bar.Display()

	for episode := 0; episode < t.config.MaxEpisodes; episode++ {
		reward, maxX, err := t.runEpisode()
		if err != nil {
			return nil, fmt.Errorf("run: episode %v: %v", episode, err)
		}

		rewardTrace.Add(reward)
		progressTrace.Add(maxX)
		result.Episodes = episode + 1

		if episode > 0 && episode%t.config.StatsInterval == 0 {
			result.RewardProgression = append(result.RewardProgression,
				rewardTrace.Mean())
			result.ProgressProgression = append(result.ProgressProgression,
				progressTrace.Mean())

			bar.SetPostfix("mean reward: %.2f, mean max x: %.2f, ε: %.3f",
				rewardTrace.Mean(), progressTrace.Mean(),
				t.schedule.Value())

			if rewardTrace.Mean() > t.config.SolvedThreshold &&
				episode >= t.config.MinEpisodes {
				result.Solved = true
				break
			}
		}

		bar.Increment()
		bar.Display()
	}
	bar.Finish()

	result.MeanReward = rewardTrace.Mean()
	return result, nil
}

// runEpisode runs a single episode and returns the cumulative reward
// and the maximum first observation coordinate reached
func (t *Tabular) runEpisode() (float64, float64, error) {
	step, err := t.env.Reset()
	if err != nil {
		return 0, 0, fmt.Errorf("runepisode: could not reset "+
			"environment: %v", err)
	}

	obs := step.Observation
	episodeReward := 0.0
	maxX := t.env.ObservationSpec().LowerBound.AtVec(0)

	for !step.Last() {
		// Exploration gate. Exploratory steps pay for themselves by
		// decaying the schedule.
		var action int
		if t.schedule.Value() > 0 && t.rng.Float64() < t.schedule.Value() {
			action = t.rng.Intn(t.numActions)
			t.schedule.Decay()
		} else {
			if action, err = t.agent.SelectAction(obs); err != nil {
				return 0, 0, fmt.Errorf("runepisode: could not select "+
					"action: %v", err)
			}
		}

		if step, err = t.env.Step(action); err != nil {
			return 0, 0, fmt.Errorf("runepisode: could not step "+
				"environment: %v", err)
		}

		if t.config.Training {
			err = t.agent.Train(obs, action, step.Reward, step.Observation)
			if err != nil {
				return 0, 0, fmt.Errorf("runepisode: could not train: %v",
					err)
			}
		}

		episodeReward += step.Reward
		x := step.Observation.AtVec(0)
		if x > maxX {
			maxX = x
		}
		obs = step.Observation

		// Terminal states are worth exactly their final reward
		if step.Terminal() && t.config.Training {
			if err := t.agent.UpdateTerminal(obs, action, 0); err != nil {
				return 0, 0, fmt.Errorf("runepisode: could not update "+
					"terminal state: %v", err)
			}
		}

		if x >= t.config.EarlyStopX {
			break
		}
	}

	return episodeReward, maxX, nil
}
