package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/snapgram/cli/internal/app"
	apperrors "github.com/snapgram/cli/pkg/errors"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	outputFmt  string
)

// deps is built once per invocation in PersistentPreRunE.
var deps *app.App

const skipSession = "skip-session"

var rootCmd = &cobra.Command{
	Use:   "snapgram",
	Short: "Snapgram CLI - share photos with the people you follow",
	Long: `Snapgram CLI is a command-line client for Snapgram. Browse your
feed, look at profiles, follow people and edit your own profile
without leaving the terminal.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		deps, err = app.New(app.Options{
			ConfigPath: configPath,
			Verbose:    verbose,
			Output:     outputFmt,
		})
		if err != nil {
			return err
		}
		if cmd.Annotations[skipSession] == "" {
			deps.Hydrate(cmd.Context())
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		color.New(color.FgRed).Fprint(os.Stderr, apperrors.Format(err))
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: ~/.config/snapgram/config.toml)")
	rootCmd.PersistentFlags().StringVarP(&outputFmt, "output", "o", "", "Output format: text, json, table")

	rootCmd.AddCommand(authCmd)
	rootCmd.AddCommand(feedCmd)
	rootCmd.AddCommand(postsCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

func requireArgsMsg(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return fmt.Errorf("usage: snapgram %s", usage)
		}
		return nil
	}
}
