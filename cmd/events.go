package cmd

import (
	"fmt"
	"io"

	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Explore the event log.",
}

var reportCommand = &cobra.Command{
	Use:   "report",
	Short: "Show a report of events.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		report := logger.NewReport()
		return printEventSummary(cmd, report.Update, report)
	},
}

var sessionsReportCommand = &cobra.Command{
	Use:   "sessions",
	Short: "Show the activity of each session.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		var report logger.SessionReport
		return printEventSummary(cmd, report.Update, &report)
	},
}

// printEventSummary feeds the event log to update then prints summary as
// YAML.
func printEventSummary(cmd *cobra.Command, update func(*logger.LogEntry), summary interface{}) error {
	cmd.SilenceUsage = true

	config, err := loadConfig()
	if err != nil {
		return err
	}

	fd, err := config.ReadAppLog()
	if err != nil {
		return err
	}
	defer fd.Close()

	return writeEventSummary(fd, cmd.OutOrStdout(), update, summary)
}

func writeEventSummary(r io.Reader, w io.Writer, update func(*logger.LogEntry), summary interface{}) error {
	if err := logger.ReadJSONLinesLog(r, update); err != nil {
		return err
	}

	out, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}

	fmt.Fprintln(w, string(out))
	return nil
}

func init() {
	rootCmd.AddCommand(eventsCmd)
	eventsCmd.AddCommand(reportCommand)
	eventsCmd.AddCommand(sessionsReportCommand)
}
