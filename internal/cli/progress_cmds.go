package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newAchievementsCmd() *cobra.Command {
	var showAll bool

	cmd := &cobra.Command{
		Use:     "achievements",
		Aliases: []string{"ach"},
		Short:   "Show achievements and progress toward them",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tRARITY\tCATEGORY\tPROGRESS\tXP")
			hidden := 0
			for _, a := range st.Achievements() {
				if a.IsSecret && !a.Unlocked && !showAll {
					hidden++
					continue
				}
				progress := fmt.Sprintf("%s %3d%%", miniBar(a.Progress, 100), a.Progress)
				if a.Unlocked {
					progress = "unlocked"
					if a.UnlockedAt != nil {
						progress += " " + a.UnlockedAt.Format("2006-01-02")
					}
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\n",
					a.Name, label(a.Rarity), label(a.Category), progress, a.XPReward)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			if hidden > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "\n+ %d secret achievements\n", hidden)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&showAll, "all", false, "reveal locked secret achievements")
	return cmd
}

func newMissionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "missions",
		Short: "Show today's daily missions",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			missions, err := st.TodayMissions(cmd.Context())
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "MISSION\tPROGRESS\tXP")
			for _, m := range missions {
				state := fmt.Sprintf("%s %d/%d", miniBar(m.Progress, m.Target), m.Progress, m.Target)
				if m.Completed {
					state = "done"
				}
				fmt.Fprintf(w, "%s\t%s\t%d\n", m.Title, state, m.XPReward)
			}
			return w.Flush()
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show lifetime statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			s, err := st.RecomputeStats(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Tasks\t%d total, %d completed, %d open, %d overdue\n",
				s.TotalTasks, s.CompletedTasks, s.PendingTasks, s.OverdueTasks)
			fmt.Fprintf(w, "Completion rate\t%.1f%%\n", s.CompletionRate)
			fmt.Fprintf(w, "By difficulty\teasy %d, medium %d, hard %d, extreme %d\n",
				s.EasyCompleted, s.MediumCompleted, s.HardCompleted, s.ExtremeCompleted)
			fmt.Fprintf(w, "Points\t%d total, %.1f average, %d best\n",
				s.TotalPointsEarned, s.AveragePoints, s.BestTaskPoints)
			fmt.Fprintf(w, "Time invested\t%d min\n", s.TimeInvested)
			fmt.Fprintf(w, "This week / month\t%d / %d\n", s.CompletedThisWeek, s.CompletedThisMonth)
			fmt.Fprintf(w, "Streak\t%d current, %d best, %d active days\n",
				s.CurrentStreak, s.BestStreak, s.TotalDaysActive)
			fmt.Fprintf(w, "Achievements\t%d / %d\n", s.AchievementsUnlocked, s.AchievementsTotal)
			if s.MostProductiveHour >= 0 {
				fmt.Fprintf(w, "Most productive\t%02d:00, %s\n", s.MostProductiveHour, weekdayName(s.MostProductiveDay))
			}
			return w.Flush()
		},
	}
}

func weekdayName(d int) string {
	names := []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}
	if d < 0 || d >= len(names) {
		return "-"
	}
	return names[d]
}
