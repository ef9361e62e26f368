package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"

	"github.com/tujuhre12/vlist/internal/config"
)

var dirsCmd = &cobra.Command{
	Use:   "dirs",
	Short: "Print directories used by vlist",
	Long: heredoc.Doc(`
		Print where vlist reads its configuration, where it keeps the
		settings changed from the list view and where it writes logs.
	`),
	Example: heredoc.Doc(`
		# Print all directories
		vlist dirs

		# Print only the config directory
		vlist dirs --config

		# Print only the data directory
		vlist dirs --data
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		configOnly, _ := cmd.Flags().GetBool("config")
		dataOnly, _ := cmd.Flags().GetBool("data")

		if configOnly && dataOnly {
			return fmt.Errorf("cannot specify both --config and --data flags")
		}

		configDir := filepath.Dir(config.GlobalConfig())
		dataDir := config.GlobalDataDir()

		out := cmd.OutOrStdout()
		if configOnly {
			fmt.Fprintln(out, configDir)
			return nil
		}

		if dataOnly {
			fmt.Fprintln(out, dataDir)
			return nil
		}

		// Print both by default
		fmt.Fprintf(out, "Config directory: %s\n", configDir)
		fmt.Fprintf(out, "Data directory:   %s\n", dataDir)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(dirsCmd)
	dirsCmd.Flags().Bool("config", false, "Print only the config directory")
	dirsCmd.Flags().Bool("data", false, "Print only the data directory")
}
