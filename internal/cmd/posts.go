package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var postsCmd = &cobra.Command{
	Use:     "posts",
	Aliases: []string{"post"},
	Short:   "Post commands",
	Long:    "List and view posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all posts",
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Posts().ListAll(cmd.Context())
	},
}

var postsShowCmd = &cobra.Command{
	Use:   "show <post-id>",
	Short: "Show one post",
	Args:  requireArgsMsg(1, "posts show <post-id>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid post id %q", args[0])
		}
		return deps.Posts().Show(cmd.Context(), id)
	},
}

func init() {
	postsCmd.AddCommand(postsListCmd)
	postsCmd.AddCommand(postsShowCmd)
}
