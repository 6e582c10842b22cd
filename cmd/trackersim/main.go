package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trackersim",
	Short: "Replay scripted visits against the GoSight tracker",
	Long: `trackersim loads a YAML scenario (an HTML page plus a list of user
actions), replays it against a tracker on a simulated clock and prints
every captured event. Batches can be delivered to a real collector.`,
	Version:      "0.1.0",
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(runCmd, checkCmd)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate(fmt.Sprintf("trackersim version %s\n", rootCmd.Version))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
