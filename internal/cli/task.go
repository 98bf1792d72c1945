package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lvlup-app/lvlup/internal/app/calendar"
	"github.com/lvlup-app/lvlup/internal/app/store"
	"github.com/lvlup-app/lvlup/internal/domain"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"t"},
		Short:   "Add, list and complete tasks",
	}
	cmd.AddCommand(newTaskAddCmd(), newTaskListCmd(), newTaskDoneCmd(), newTaskUndoCmd(), newTaskRmCmd())
	return cmd
}

func newTaskAddCmd() *cobra.Command {
	var in domain.TaskInput
	var difficulty, category, priority string

	cmd := &cobra.Command{
		Use:   "add TITLE",
		Short: "Add a task",
		Long: `Add a task. Harder tasks are worth more XP:
  easy 10, medium 25, hard 50, extreme 100 base points.

Example:
  lvlup task add "Write quarterly report" -d hard --due 2026-10-20 --at 17:00 --remind`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			in.Title = strings.Join(args, " ")
			in.Difficulty = domain.Difficulty(difficulty)
			in.Category = domain.TaskCategory(category)
			in.Priority = domain.Priority(priority)
			if in.DueDate == "today" {
				in.DueDate = calendar.Today(time.Now())
			}

			task, err := st.AddTask(cmd.Context(), in)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %s %q (%s, %s)\n", shortID(task.ID), task.Title, task.Difficulty, task.Category)
			if task.DueDate != "" {
				fmt.Fprintf(out, "  Due: %s %s\n", task.DueDate, task.DueTime)
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&difficulty, "difficulty", "d", string(domain.DifficultyEasy), "easy, medium, hard or extreme")
	f.StringVarP(&category, "category", "c", string(domain.CategoryPersonal), "task category")
	f.StringVarP(&priority, "priority", "p", string(domain.PriorityMedium), "low, medium, high or urgent")
	f.StringVar(&in.DueDate, "due", "", "due date (YYYY-MM-DD or 'today')")
	f.StringVar(&in.DueTime, "at", "", "due time (HH:mm)")
	f.StringVar(&in.Description, "desc", "", "description")
	f.IntVar(&in.EstimatedTime, "estimate", 0, "estimated minutes")
	f.BoolVar(&in.HasReminder, "remind", false, "remind before the due time (needs 'lvlup serve')")
	return cmd
}

func newTaskListCmd() *cobra.Command {
	var month, from, to string
	var all bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			var tasks []domain.Task
			switch {
			case month != "":
				m, err := time.Parse("2006-01", month)
				if err != nil {
					return domain.NewValidationError("month", month, "expected YYYY-MM")
				}
				tasks, err = st.TasksForMonth(cmd.Context(), m.Year(), int(m.Month()))
				if err != nil {
					return err
				}
			case from != "" || to != "":
				tasks, err = st.TasksInRange(cmd.Context(), from, to)
				if err != nil {
					return err
				}
			default:
				for _, t := range st.Tasks() {
					if all || t.IsOpen() {
						tasks = append(tasks, t)
					}
				}
			}

			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks. Add one with 'lvlup task add \"...\"'.")
				return nil
			}
			return printTasks(cmd.OutOrStdout(), tasks)
		},
	}
	f := cmd.Flags()
	f.StringVar(&month, "month", "", "tasks due in a month (YYYY-MM)")
	f.StringVar(&from, "from", "", "first due date of a range (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "last due date of a range (YYYY-MM-DD)")
	f.BoolVarP(&all, "all", "a", false, "include completed tasks")
	return cmd
}

func printTasks(out io.Writer, tasks []domain.Task) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tDIFFICULTY\tDUE\tTITLE\tPOINTS")
	for _, t := range tasks {
		due := strings.TrimSpace(t.DueDate + " " + t.DueTime)
		if due == "" {
			due = "-"
		}
		points := "-"
		if t.Completed {
			points = fmt.Sprintf("%d", t.EarnedPoints)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(t.ID), t.Status, t.Difficulty, due, t.Title, points)
	}
	return w.Flush()
}

func newTaskDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "done ID",
		Short: "Complete a task and collect its XP",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := resolveTaskID(st, args[0])
			if err != nil {
				return err
			}
			res, err := st.CompleteTask(cmd.Context(), task.ID)
			if err != nil {
				return err
			}
			printCompletion(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func printCompletion(out io.Writer, res store.CompletionResult) {
	fmt.Fprintf(out, "Completed %q  +%d XP (%d x %.2f)\n",
		res.Task.Title, res.Award.EarnedPoints, res.Award.BasePoints, res.Award.Multiplier)
	if res.XP.LeveledUp {
		fmt.Fprintf(out, "  Level up! You are now level %d (%s)\n", res.XP.NewLevel, label(res.XP.Category))
	}
	for _, a := range res.Unlocked {
		fmt.Fprintf(out, "  Achievement unlocked: %s (%s, +%d XP)\n", a.Name, label(a.Rarity), a.XPReward)
	}
	for _, m := range res.MissionsCompleted {
		fmt.Fprintf(out, "  Mission complete: %s (+%d XP)\n", m.Title, m.XPReward)
	}
	if res.AllMissionsDone {
		fmt.Fprintln(out, "  All of today's missions are done!")
	}
	if res.DayCompleted {
		fmt.Fprintf(out, "  Day complete! Streak: %s\n", plural(res.Streak.CurrentStreak, "day"))
	}
}

func newTaskUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo ID",
		Short: "Reopen a completed task (earned XP is kept)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := resolveTaskID(st, args[0])
			if err != nil {
				return err
			}
			if !task.Completed {
				return domain.NewValidationError("id", args[0], "task is not completed")
			}
			reopened, _, err := st.ToggleTask(cmd.Context(), task.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reopened %q (%s)\n", reopened.Title, reopened.Status)
			return nil
		},
	}
}

func newTaskRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, closeFn, err := openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			task, err := resolveTaskID(st, args[0])
			if err != nil {
				return err
			}
			if err := st.DeleteTask(cmd.Context(), task.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q\n", task.Title)
			return nil
		},
	}
}
