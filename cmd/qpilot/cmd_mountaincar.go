package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/spatial/r1"

	"qpilot/agent/tabular/qlearning"
	"qpilot/checkpoint"
	"qpilot/config"
	"qpilot/environment"
	"qpilot/environment/classiccontrol/mountaincar"
	"qpilot/experiment"
	"qpilot/plot"
)

var mountainCarFlags struct {
	configPath     string
	checkpointPath string
	plotPath       string
	seriesPath     string
	save           bool
	demoEpisodes   int
}

var mountainCarCmd = &cobra.Command{
	Use:   "mountaincar",
	Short: "Train a tabular Q-learning agent on the mountain car task",
	Long: `Train a tabular Q-learning agent on the built-in mountain car
environment. Observations are discretized into a dense Q-table, rewards
are shaped toward higher positions, and the run stops early once the
running mean reward crosses the solved threshold.

A Q-table snapshot is loaded from --checkpoint when present and saved
back at shutdown unless --save=false.`,
	Args: cobra.NoArgs,
	RunE: runMountainCar,
}

func init() {
	f := mountainCarCmd.Flags()
	f.StringVar(&mountainCarFlags.configPath, "config", "",
		"Path to a YAML hyperparameter file (defaults built in)")
	f.StringVar(&mountainCarFlags.checkpointPath, "checkpoint",
		"qtable.bin", "Q-table snapshot path")
	f.StringVar(&mountainCarFlags.plotPath, "plot", "mountaincar.png",
		"Reward progression PNG path (empty disables plotting)")
	f.StringVar(&mountainCarFlags.seriesPath, "series",
		"mountaincar_rewards.bin",
		"Reward progression snapshot path (empty disables saving)")
	f.BoolVar(&mountainCarFlags.save, "save", true,
		"Save the learned Q-table at shutdown")
	f.IntVar(&mountainCarFlags.demoEpisodes, "demo-episodes", 0,
		"Greedy episodes to replay after training")
}

func runMountainCar(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(mountainCarFlags.configPath)
	if err != nil {
		return err
	}
	mc := cfg.MountainCar

	// The cart starts at a uniformly random position near the valley
	// bottom with zero velocity
	starter := environment.NewUniformStarter([]r1.Interval{
		{Min: -0.6, Max: -0.4},
		{Min: 0.0, Max: 0.0},
	}, mc.Seed)
	env, err := mountaincar.New(starter, mc.MaxSteps, mc.Discount)
	if err != nil {
		return fmt.Errorf("mountaincar: %v", err)
	}

	learner, err := qlearning.New(env, mc.AgentConfig())
	if err != nil {
		return fmt.Errorf("mountaincar: %v", err)
	}

	if checkpoint.Exists(mountainCarFlags.checkpointPath) {
		snapshot, err := checkpoint.LoadTable(mountainCarFlags.checkpointPath)
		if err != nil {
			return fmt.Errorf("mountaincar: %v", err)
		}
		if err := learner.SetTable(snapshot.Values); err != nil {
			return fmt.Errorf("mountaincar: could not restore Q-table: %v",
				err)
		}
		log.Printf("restored Q-table from %v", mountainCarFlags.checkpointPath)
	} else {
		log.Printf("no snapshot at %v, starting from a fresh table",
			mountainCarFlags.checkpointPath)
	}

	if mountainCarFlags.save {
		defer func() {
			snapshot := &checkpoint.Table{
				Dims:   learner.Dims(),
				Values: learner.Table(),
			}
			err := checkpoint.SaveTable(mountainCarFlags.checkpointPath,
				snapshot)
			if err != nil {
				log.Printf("could not save Q-table: %v", err)
				return
			}
			log.Printf("saved Q-table to %v", mountainCarFlags.checkpointPath)
		}()
	}

	schedule, err := experiment.NewSchedule(mc.Epsilon, mc.EpsilonDecay, 0)
	if err != nil {
		return fmt.Errorf("mountaincar: %v", err)
	}

	exp, err := experiment.NewTabular(env, learner, schedule,
		mc.LoopConfig(true), mc.Seed)
	if err != nil {
		return fmt.Errorf("mountaincar: %v", err)
	}

	fmt.Printf("Training started for mountain car, target: %v (last %v "+
		"runs)\n", mc.SolvedThreshold, mc.MinEpisodes)
	result, err := exp.Run()
	if err != nil {
		return fmt.Errorf("mountaincar: %v", err)
	}

	if result.Solved {
		fmt.Printf("Solved at episode %v: mean reward %.2f\n",
			result.Episodes, result.MeanReward)
	} else {
		fmt.Printf("Not solved, last mean reward %.2f\n", result.MeanReward)
	}

	if mountainCarFlags.plotPath != "" &&
		len(result.RewardProgression) >= 2 {
		err := plot.RewardProgression(result.RewardProgression,
			"Rewards Progression", mountainCarFlags.plotPath)
		if err != nil {
			return fmt.Errorf("mountaincar: %v", err)
		}
		log.Printf("saved reward progression to %v", mountainCarFlags.plotPath)
	}

	if mountainCarFlags.seriesPath != "" &&
		len(result.RewardProgression) > 0 {
		err := saveProgression(result.RewardProgression,
			mountainCarFlags.seriesPath)
		if err != nil {
			return fmt.Errorf("mountaincar: %v", err)
		}
		log.Printf("saved reward series to %v", mountainCarFlags.seriesPath)
	}

	if mountainCarFlags.demoEpisodes > 0 {
		if err := demoMountainCar(env, learner, mc); err != nil {
			return fmt.Errorf("mountaincar: %v", err)
		}
	}
	return nil
}

// demoMountainCar replays the learned greedy policy without training
func demoMountainCar(env *mountaincar.MountainCar,
	learner *qlearning.QLearning, mc config.MountainCar) error {
	greedy, err := experiment.NewSchedule(0, 0, 0)
	if err != nil {
		return err
	}

	demoConfig := mc.LoopConfig(false)
	demoConfig.MaxEpisodes = mountainCarFlags.demoEpisodes

	demo, err := experiment.NewTabular(env, learner, greedy, demoConfig, 0)
	if err != nil {
		return err
	}

	result, err := demo.Run()
	if err != nil {
		return err
	}
	fmt.Printf("Demo mean reward over %v episodes: %.2f\n",
		result.Episodes, result.MeanReward)
	return nil
}
