package cmd

import (
	"strings"

	"github.com/josephlewis42/shellfyre/core/shell"
	"github.com/spf13/cobra"
)

var parseCmd = &cobra.Command{
	Use:   "parse LINE...",
	Short: "Show how a line is split into stages.",
	Long: `Parses the arguments, joined with spaces, as a single line and prints
every stage with its arguments, redirects and markers. Nothing is run.`,
	Example: `  shellfyre parse 'sort < in.txt | uniq -c >> counts &'`,
	Args:    cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		shell.Parse(strings.Join(args, " ")).Describe(cmd.OutOrStdout())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}
