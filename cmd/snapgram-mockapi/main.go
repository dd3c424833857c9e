// Command snapgram-mockapi serves an in-memory Snapgram backend for local
// development of the CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/snapgram/cli/internal/mockapi"
	"github.com/snapgram/cli/pkg/config"
	"github.com/snapgram/cli/pkg/logger"
	"github.com/spf13/cobra"
)

var (
	configPath string
	addr       string
	seedUsers  int
	seed       int64
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:           "snapgram-mockapi",
	Short:         "Run an in-memory Snapgram backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger.Init(logger.Options{Level: cfg.GetString("log.level"), Verbose: verbose})

		if !cmd.Flags().Changed("addr") {
			addr = cfg.GetString("mock.addr")
		}
		if !cmd.Flags().Changed("seed-users") {
			seedUsers = cfg.GetInt("mock.seed_users")
		}
		if !cmd.Flags().Changed("seed") {
			seed = time.Now().UnixNano()
		}

		srv, err := mockapi.New(mockapi.Options{
			JWTSecret: cfg.GetString("mock.jwt_secret"),
			SeedUsers: seedUsers,
			Seed:      seed,
		})
		if err != nil {
			return err
		}
		if seedUsers > 0 {
			logger.Info("Demo account ready", "username", mockapi.DemoUsername, "password", mockapi.DemoPassword)
		}
		return srv.Run(cmd.Context(), addr)
	},
}

func main() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	rootCmd.Flags().IntVar(&seedUsers, "seed-users", 8, "Number of fake users to create")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Seed for fake data (random when omitted)")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every request")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
