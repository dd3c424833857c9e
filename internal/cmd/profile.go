package cmd

import (
	"github.com/snapgram/cli/pkg/service"
	"github.com/spf13/cobra"
)

var (
	editName          string
	editBio           string
	editImage         string
	editNoInteractive bool
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Profile commands",
	Long:  "View profiles, follow people and edit your own profile",
}

var profileViewCmd = &cobra.Command{
	Use:   "view [username]",
	Short: "View a profile (defaults to your own)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Profiles().View(cmd.Context(), optionalArg(args))
	},
}

var profileFollowCmd = &cobra.Command{
	Use:   "follow <username>",
	Short: "Follow a user, or unfollow if you already follow them",
	Args:  requireArgsMsg(1, "profile follow <username>"),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Profiles().ToggleFollow(cmd.Context(), args[0])
	},
}

var profileFollowersCmd = &cobra.Command{
	Use:   "followers [username]",
	Short: "List followers",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Profiles().Followers(cmd.Context(), optionalArg(args))
	},
}

var profileFollowingCmd = &cobra.Command{
	Use:   "following [username]",
	Short: "List who a user follows",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return deps.Profiles().Following(cmd.Context(), optionalArg(args))
	},
}

var profileEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit your profile",
	Long: `Change your name, bio or profile image. Fields not given as flags
are prompted for, with the current value kept on an empty answer.
If the image upload fails the current image is kept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := service.EditOptions{
			ImagePath:   editImage,
			Interactive: !editNoInteractive,
		}
		if cmd.Flags().Changed("name") {
			opts.Name = &editName
		}
		if cmd.Flags().Changed("bio") {
			opts.Bio = &editBio
		}
		return deps.Profiles().Edit(cmd.Context(), opts)
	},
}

func optionalArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}

func init() {
	profileEditCmd.Flags().StringVar(&editName, "name", "", "Display name (max 100 characters)")
	profileEditCmd.Flags().StringVar(&editBio, "bio", "", "Bio (max 500 characters)")
	profileEditCmd.Flags().StringVar(&editImage, "image", "", "Path to a new profile image")
	profileEditCmd.Flags().BoolVar(&editNoInteractive, "no-interactive", false, "Do not prompt for fields missing from flags")

	profileCmd.AddCommand(profileViewCmd)
	profileCmd.AddCommand(profileFollowCmd)
	profileCmd.AddCommand(profileFollowersCmd)
	profileCmd.AddCommand(profileFollowingCmd)
	profileCmd.AddCommand(profileEditCmd)
}
