// qpilot trains two reinforcement-learning agents: a tabular
// Q-learning agent on the mountain car control task and a deep
// Q-network on Atari Breakout pixels served by a gym HTTP server.
//
// Usage:
//
//	qpilot mountaincar [--config=<path>] [--checkpoint=<path>]
//	qpilot breakout --gym-url=<url> [--config=<path>]
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
