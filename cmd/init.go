package cmd

import (
	"log"

	"github.com/josephlewis42/shellfyre/core/config"
	"github.com/spf13/cobra"
)

// initCmd intializes the configuration directory
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration directory.",
	Long: `Creates the configuration directory given by --config with a default
config.yaml, an empty directory history and an SSH host key. Existing files
are kept.`,
	Args: cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		return config.Initialize(cfgPath, logger)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
