package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X".
var Version = "0.1.0"

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Show CLI version",
	Annotations: map[string]string{skipSession: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "Snapgram CLI v%s\n", Version)
	},
}
