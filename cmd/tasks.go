package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/spf13/cobra"

	"github.com/teemow/taskcal/internal/app"
	"github.com/teemow/taskcal/internal/task"
	"github.com/teemow/taskcal/internal/tools/batch"
)

func newAddCmd() *cobra.Command {
	var input task.DraftInput

	cmd := &cobra.Command{
		Use:   "add DESCRIPTION...",
		Short: "Add a task",
		Long: `Add a task to the list. A task with both --date and --time is also added to
Google Calendar when signed in; the command waits for that to finish.`,
		Example: `  taskcal add "Dentist" --priority high --date 2024-01-10 --time 14:30
  taskcal add "Standup" --date 2024-01-15 --recurring --until 2024-01-20`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			input.Description = strings.Join(args, " ")
			draft, err := input.Parse()
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				t, err := a.AddTask(ctx, draft)
				if err != nil {
					return notified(err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", formatTask(t))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&input.Priority, "priority", "p", "", "Priority: high, medium or low (default: medium)")
	cmd.Flags().StringVarP(&input.Date, "date", "d", "", "Due date as YYYY-MM-DD")
	cmd.Flags().StringVarP(&input.Time, "time", "t", "", "Time of day as HH:MM (only used together with --date)")
	cmd.Flags().BoolVar(&input.IsRecurring, "recurring", false, "Repeat daily from --date until --until")
	cmd.Flags().StringVar(&input.RecurringUntil, "until", "", "Last day of a recurring task as YYYY-MM-DD")
	return cmd
}

func newListCmd() *cobra.Command {
	var (
		date  string
		today bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Long: `List tasks. With --date or --today only the tasks due that day and the
recurring tasks whose range covers it are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			filter, err := task.ParseDate(date)
			if err != nil {
				return err
			}
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				if today && filter == nil {
					d := a.Today()
					filter = &d
				}
				printTasks(cmd.OutOrStdout(), a.Tasks(filter), filter)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Only show tasks visible on this day (YYYY-MM-DD)")
	cmd.Flags().BoolVar(&today, "today", false, "Only show tasks visible today")
	return cmd
}

func newToggleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID...",
		Short: "Mark tasks as completed or not completed",
		Long: `Flip the completed flag of each task. An ID that matches no task is
reported and skipped.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids := make([]int64, 0, len(args))
			for _, arg := range args {
				id, err := batch.ParseID(arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				var errs []error
				for _, id := range ids {
					t, err := a.ToggleTask(ctx, id)
					if errors.Is(err, app.ErrTaskNotFound) {
						fmt.Fprintf(cmd.ErrOrStderr(), "! No task with ID %d, nothing changed\n", id)
						continue
					}
					if err != nil {
						errs = append(errs, notified(err))
					}
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", formatTask(t))
				}
				return errors.Join(errs...)
			})
		},
	}
}

func newProgressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "Show how many tasks are completed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(_ context.Context, a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), formatProgress(a.Progress()))
				return nil
			})
		},
	}
}

func newClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("refusing to clear the task list without --yes")
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return notified(a.Clear(ctx))
			})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm removing every task")
	return cmd
}

func newEventsCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Show the Google Calendar events of a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, err := task.ParseDate(date)
			if err != nil {
				return err
			}
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				day := a.Today()
				if parsed != nil {
					day = *parsed
				}
				out := cmd.OutOrStdout()
				if !a.Status().CalendarAvailable {
					fmt.Fprintln(out, "Not signed in to Google. Run 'taskcal login' to connect a calendar.")
					return nil
				}
				events, err := a.Events(ctx, day)
				if err != nil {
					return notified(err)
				}
				if len(events) == 0 {
					fmt.Fprintf(out, "No events on %s.\n", day)
					return nil
				}
				fmt.Fprintf(out, "Events on %s:\n", day)
				for _, e := range events {
					when := "all day    "
					if !e.AllDay {
						when = e.Start.Format("15:04") + "-" + e.End.Format("15:04")
					}
					fmt.Fprintf(out, "  %s  %s\n", when, e.Summary)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&date, "date", "d", "", "Day as YYYY-MM-DD (default: today)")
	return cmd
}

func printTasks(w io.Writer, tasks []task.Task, date *civil.Date) {
	switch {
	case len(tasks) == 0 && date != nil:
		fmt.Fprintf(w, "No tasks for %s.\n", date)
		return
	case len(tasks) == 0:
		fmt.Fprintln(w, "No tasks yet.")
		return
	case date != nil:
		fmt.Fprintf(w, "Tasks for %s:\n", date)
	default:
		fmt.Fprintln(w, "Tasks:")
	}
	for _, t := range tasks {
		fmt.Fprintf(w, "  %s\n", formatTask(t))
	}
}

// formatTask renders a task as a single line, e.g.
// "[x] 1704896400000 Dentist (High) 2024-01-10 14:30".
func formatTask(t task.Task) string {
	check := " "
	if t.Completed {
		check = "x"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %d %s (%s)", check, t.ID, t.Description, t.Priority.Label())
	if t.Date != nil {
		fmt.Fprintf(&b, " %s", t.Date)
		if t.Time != nil {
			fmt.Fprintf(&b, " %s", t.Time)
		}
	}
	if t.IsRecurring && t.RecurringUntil != nil {
		fmt.Fprintf(&b, ", daily until %s", t.RecurringUntil)
	}
	return b.String()
}

func formatProgress(p task.Progress) string {
	if p.Total == 0 {
		return "No tasks yet."
	}
	return fmt.Sprintf("%d of %d tasks completed (%d%%)", p.Completed, p.Total, p.Percent)
}
