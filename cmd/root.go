package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command for the taskcal application
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taskcal",
		Short: "A to-do list that adds scheduled tasks to Google Calendar",
		Long: `taskcal keeps a persistent to-do list. Tasks can carry a due date, a time
of day and a daily recurrence range. When signed in to Google, every task with
a date and a time is also added to Google Calendar in the background.

It can run as:
  - A standalone CLI tool (default)
  - An MCP (Model Context Protocol) server for AI assistants
  - An HTTP API server with the MCP endpoint mounted`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	globals.register(cmd)

	cmd.AddCommand(newAddCmd())
	cmd.AddCommand(newListCmd())
	cmd.AddCommand(newToggleCmd())
	cmd.AddCommand(newProgressCmd())
	cmd.AddCommand(newClearCmd())
	cmd.AddCommand(newEventsCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newGenerateDocsCmd())
	cmd.AddCommand(newVersionCmd())
	return cmd
}

// version will be set by main
var version = "dev"

// SetVersion sets the version for the root command
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}

// Execute is the main entry point for the CLI application
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "taskcal version %s\n" .Version}}`)

	// If no subcommand is provided, show today's tasks
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "list", "--today")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errNotified) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
