package main

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"qpilot/agent/deep/dqn"
	"qpilot/checkpoint"
	"qpilot/environment/gym"
	"qpilot/experiment"
	"qpilot/framestack"
	"qpilot/plot"
)

var breakoutFlags struct {
	configPath     string
	checkpointPath string
	plotPath       string
	seriesPath     string
	gymURL         string
	envID          string
	save           bool
	demoEpisodes   int
}

var breakoutCmd = &cobra.Command{
	Use:   "breakout",
	Short: "Train a deep Q-network on Atari Breakout pixels",
	Long: `Train a deep Q-network on Atari Breakout. Frames are served by a
gym HTTP server (gym-http-api), cropped and resized to a square stack
of two grayscale frames, and fed to a convolutional Q-network with a
periodically synchronized target network.

Network weights are loaded from --checkpoint when present and saved
back at shutdown unless --save=false.`,
	Args: cobra.NoArgs,
	RunE: runBreakout,
}

func init() {
	f := breakoutCmd.Flags()
	f.StringVar(&breakoutFlags.configPath, "config", "",
		"Path to a YAML hyperparameter file (defaults built in)")
	f.StringVar(&breakoutFlags.checkpointPath, "checkpoint",
		"breakout.bin", "Network weight snapshot path")
	f.StringVar(&breakoutFlags.plotPath, "plot", "breakout.png",
		"Reward progression PNG path (empty disables plotting)")
	f.StringVar(&breakoutFlags.seriesPath, "series",
		"breakout_rewards.bin",
		"Reward progression snapshot path (empty disables saving)")
	f.StringVar(&breakoutFlags.gymURL, "gym-url",
		"http://localhost:5000", "Base URL of the gym HTTP server")
	f.StringVar(&breakoutFlags.envID, "env-id", "Breakout-v0",
		"Environment ID to create on the gym server")
	f.BoolVar(&breakoutFlags.save, "save", true,
		"Save the learned weights at shutdown")
	f.IntVar(&breakoutFlags.demoEpisodes, "demo-episodes", 0,
		"Greedy episodes to replay after training")
}

func runBreakout(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(breakoutFlags.configPath)
	if err != nil {
		return err
	}
	b := cfg.Breakout

	env, err := gym.New(breakoutFlags.envID, breakoutFlags.gymURL,
		b.Discount)
	if err != nil {
		return fmt.Errorf("breakout: %v", err)
	}
	defer env.Close()

	numActions, err := env.ActionSpec().NumActions()
	if err != nil {
		return fmt.Errorf("breakout: %v", err)
	}

	agent, err := dqn.New(numActions, b.AgentConfig())
	if err != nil {
		return fmt.Errorf("breakout: %v", err)
	}
	defer agent.Close()

	if checkpoint.Exists(breakoutFlags.checkpointPath) {
		snapshot, err := checkpoint.LoadNetwork(breakoutFlags.checkpointPath)
		if err != nil {
			return fmt.Errorf("breakout: %v", err)
		}
		if err := agent.SetWeights(snapshot.Weights); err != nil {
			return fmt.Errorf("breakout: could not restore weights: %v",
				err)
		}
		log.Printf("restored weights from %v", breakoutFlags.checkpointPath)
	} else {
		log.Printf("no snapshot at %v, starting from fresh weights",
			breakoutFlags.checkpointPath)
	}

	if breakoutFlags.save {
		defer func() {
			snapshot := &checkpoint.Network{Weights: agent.Weights()}
			err := checkpoint.SaveNetwork(breakoutFlags.checkpointPath,
				snapshot)
			if err != nil {
				log.Printf("could not save weights: %v", err)
				return
			}
			log.Printf("saved weights to %v", breakoutFlags.checkpointPath)
		}()
	}

	processor, err := framestack.New(b.RawRows, b.RawCols, b.CropTop,
		b.CropBottom, b.FrameSize)
	if err != nil {
		return fmt.Errorf("breakout: %v", err)
	}

	schedule, err := experiment.NewSchedule(b.Epsilon, b.EpsilonDecay,
		b.EpsilonFloor)
	if err != nil {
		return fmt.Errorf("breakout: %v", err)
	}

	exp, err := experiment.NewDeep(env, agent, processor, schedule,
		b.LoopConfig(true), b.Seed)
	if err != nil {
		return fmt.Errorf("breakout: %v", err)
	}

	fmt.Printf("Training started for %v over %v episodes\n",
		breakoutFlags.envID, b.MaxEpisodes)
	result, err := exp.Run()
	if err != nil {
		return fmt.Errorf("breakout: %v", err)
	}
	fmt.Printf("Finished %v episodes, mean reward %.2f\n",
		result.Episodes, result.MeanReward)

	if breakoutFlags.plotPath != "" && len(result.RewardProgression) >= 2 {
		err := plot.RewardProgression(result.RewardProgression,
			"Rewards Progression", breakoutFlags.plotPath)
		if err != nil {
			return fmt.Errorf("breakout: %v", err)
		}
		log.Printf("saved reward progression to %v", breakoutFlags.plotPath)
	}

	if breakoutFlags.seriesPath != "" && len(result.RewardProgression) > 0 {
		err := saveProgression(result.RewardProgression,
			breakoutFlags.seriesPath)
		if err != nil {
			return fmt.Errorf("breakout: %v", err)
		}
		log.Printf("saved reward series to %v", breakoutFlags.seriesPath)
	}

	if breakoutFlags.demoEpisodes > 0 {
		greedy, err := experiment.NewSchedule(0, 0, 0)
		if err != nil {
			return fmt.Errorf("breakout: %v", err)
		}

		demoConfig := b.LoopConfig(false)
		demoConfig.MaxEpisodes = breakoutFlags.demoEpisodes
		demo, err := experiment.NewDeep(env, agent, processor, greedy,
			demoConfig, 0)
		if err != nil {
			return fmt.Errorf("breakout: %v", err)
		}

		demoResult, err := demo.Run()
		if err != nil {
			return fmt.Errorf("breakout: %v", err)
		}
		fmt.Printf("Demo mean reward over %v episodes: %.2f\n",
			demoResult.Episodes, demoResult.MeanReward)
	}
	return nil
}
