package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:         "config",
	Short:       "Read and change CLI settings",
	Annotations: map[string]string{skipSession: "true"},
}

var configGetCmd = &cobra.Command{
	Use:         "get <key>",
	Short:       "Print a setting, e.g. api.base_url",
	Args:        requireArgsMsg(1, "config get <key>"),
	Annotations: map[string]string{skipSession: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), deps.Config.GetString(args[0]))
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:         "set <key> <value>",
	Short:       "Save a setting to the user config file",
	Args:        requireArgsMsg(2, "config set <key> <value>"),
	Annotations: map[string]string{skipSession: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := deps.Config.Save(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}
		deps.Printer.Success("%s = %s", args[0], args[1])
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:         "path",
	Short:       "Print the config file location",
	Annotations: map[string]string{skipSession: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), deps.Config.FilePath())
	},
}

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configPathCmd)
}
