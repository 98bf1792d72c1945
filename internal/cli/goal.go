package cli

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lvlup-app/lvlup/internal/app/engagement"
	"github.com/lvlup-app/lvlup/internal/domain"
)

func newGoalCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Track monthly and yearly goals",
	}
	cmd.AddCommand(newGoalAddCmd(), newGoalListCmd(), newGoalDoneCmd(), newGoalRmCmd())
	return cmd
}

func newGoalAddCmd() *cobra.Command {
	var in domain.GoalInput
	var goalType string

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a goal",
		Long: `Add a monthly or yearly goal. Completing it earns a fixed reward
(monthly 500 XP, yearly 2000 XP); letting it expire costs XP.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			now := time.Now()
			in.Title = strings.Join(args, " ")
			in.Type = domain.GoalType(goalType)
			if in.Year == 0 {
				in.Year = now.Year()
			}
			if in.Type == domain.GoalMonthly && in.Month == 0 {
				in.Month = int(now.Month())
			}
			in.NotificationEnabled = in.ReminderDate != ""

			g, err := st.AddGoal(cmd.Context(), in)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s goal %s %q (+%d XP, due %s)\n",
				g.Type, shortID(g.ID), g.Title, g.XPReward, engagement.GoalDeadline(g))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&goalType, "type", "t", string(domain.GoalMonthly), "monthly or yearly")
	f.IntVar(&in.Year, "year", 0, "goal year (default this year)")
	f.IntVar(&in.Month, "month", 0, "goal month 1-12 (monthly goals, default this month)")
	f.StringVar(&in.ReminderDate, "remind-on", "", "check-in date (YYYY-MM-DD); also the deadline")
	f.StringVar(&in.Description, "desc", "", "description")
	return cmd
}

func newGoalListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List goals",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			goals, err := st.Goals(cmd.Context())
			if err != nil {
				return err
			}
			if len(goals) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No goals yet. Add one with 'lvlup goal add \"...\"'.")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTYPE\tSTATE\tDEADLINE\tTITLE\tREWARD")
			for _, g := range goals {
				state := "open"
				switch {
				case g.Completed:
					state = "completed"
				case g.Failed:
					state = "failed"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%d\n",
					shortID(g.ID), g.Type, state, engagement.GoalDeadline(g), g.Title, g.XPReward)
			}
			return w.Flush()
		},
	}
}

func newGoalDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Complete a goal and collect its reward",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			g, err := resolveGoalID(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}
			g, change, err := st.CompleteGoal(cmd.Context(), g.ID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Goal complete: %q  +%d XP\n", g.Title, change.Delta)
			if change.LeveledUp {
				fmt.Fprintf(out, "  Level up! You are now level %d (%s)\n", change.NewLevel, label(change.Category))
			}
			return nil
		},
	}
}

func newGoalRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			g, err := resolveGoalID(cmd.Context(), st, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteGoal(cmd.Context(), g.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed goal %q\n", g.Title)
			return nil
		},
	}
}
