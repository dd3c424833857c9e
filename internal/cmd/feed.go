package cmd

import (
	"github.com/spf13/cobra"
)

var (
	feedWatch         bool
	feedNoInteractive bool
)

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "View your home feed",
	Long: `Show posts from you and the people you follow, newest first.
More pages are offered until the feed runs out. With --watch the feed
stays open and redraws when posts are edited or deleted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := deps.Session.RequireUser(); err != nil {
			return err
		}
		if feedWatch {
			return deps.Feed().Watch(cmd.Context(), deps.LiveConfig())
		}
		return deps.Feed().Browse(cmd.Context(), !feedNoInteractive && !deps.Printer.IsJSON())
	},
}

func init() {
	feedCmd.Flags().BoolVarP(&feedWatch, "watch", "w", false, "Keep the feed open and apply live updates")
	feedCmd.Flags().BoolVar(&feedNoInteractive, "no-interactive", false, "Print the first page and exit")
}
