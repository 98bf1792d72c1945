package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init NAME",
		Short: "Create your profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openRawStore()
			if err != nil {
				return err
			}
			defer closeFn()

			u, created, err := st.Bootstrap(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !created {
				fmt.Fprintf(out, "Profile %q already exists (level %d).\n", u.Name, u.CurrentLevel)
				return nil
			}
			fmt.Fprintf(out, "Welcome, %s! You are level %d (%s).\n", u.Name, u.CurrentLevel, label(u.Category))
			fmt.Fprintln(out, "Add your first task with 'lvlup task add \"...\"'.")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show level, streak and today's progress",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			u, err := st.User()
			if err != nil {
				return err
			}
			lp, err := st.LevelProgress()
			if err != nil {
				return err
			}
			streak, err := st.Streak()
			if err != nil {
				return err
			}

			pending := 0
			for _, t := range st.Tasks() {
				if t.IsOpen() {
					pending++
				}
			}
			unlocked := 0
			achievements := st.Achievements()
			for _, a := range achievements {
				if a.Unlocked {
					unlocked++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s - Level %d (%s)\n", u.Name, lp.CurrentLevel, label(lp.Category))
			if lp.MaxedOut {
				fmt.Fprintf(out, "  %s  max level\n", progressBar(100))
			} else {
				fmt.Fprintf(out, "  %s  %d / %d XP\n", progressBar(lp.Pct()), lp.CurrentLevelXP, lp.NextLevelXP)
			}
			fmt.Fprintf(out, "  Total XP:      %d\n", u.TotalXP)

			state := "inactive"
			if streak.IsActive {
				state = "active"
			}
			fmt.Fprintf(out, "  Streak:        %s (best %d, %s)\n", plural(streak.CurrentStreak, "day"), streak.BestStreak, state)
			fmt.Fprintf(out, "  Today:         %s done, %d open\n", plural(u.TasksCompletedToday, "task"), pending)
			fmt.Fprintf(out, "  Achievements:  %d / %d\n", unlocked, len(achievements))
			return nil
		},
	}
}

