// Package cli implements the lvlup command-line interface using Cobra.
// Each subcommand maps to one store operation (add a task, complete it,
// show progress, and so on).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "lvlup",
		Short: "lvlup - a task list that levels you up",
		Long: `lvlup is a local-first task manager with a game layer.
Complete tasks to earn XP, climb levels, keep streaks alive and unlock
achievements. Everything lives in one SQLite file on this device.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newInitCmd(),
		newStatusCmd(),
		newTaskCmd(),
		newGoalCmd(),
		newAchievementsCmd(),
		newMissionsCmd(),
		newStatsCmd(),
		newExportCmd(),
		newServeCmd(),
	)
	return root
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd := newRootCmd()
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
