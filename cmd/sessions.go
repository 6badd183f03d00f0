package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/josephlewis42/shellfyre/core/ttylog"
	"github.com/spf13/cobra"
)

var idleTimeLimit time.Duration

var sessionsCmd = &cobra.Command{
	Use:     "sessions",
	Aliases: []string{"recordings"},
	Short:   "Explore the recorded SSH sessions.",
}

var listRecordingsCommand = &cobra.Command{
	Use:   "list",
	Short: "List recorded sessions, oldest first.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		config, err := loadConfig()
		if err != nil {
			return err
		}

		dir := config.RecordingsDir()
		if dir == "" {
			return fmt.Errorf("session recording is disabled")
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			return err
		}

		var names []string
		for _, entry := range entries {
			if strings.TrimPrefix(filepath.Ext(entry.Name()), ".") == ttylog.AsciicastFileExt {
				names = append(names, filepath.Join(dir, entry.Name()))
			}
		}
		sort.Strings(names)

		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

// playCommand replays a recording with its original timing.
var playCommand = &cobra.Command{
	Use:   "play FILE",
	Short: "Replay a recorded session in the terminal.",
	Long:  `Plays a recorded session back to the current terminal.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		sink = ttylog.NewRealTimePlayback(idleTimeLimit, sink)
		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), sink)
	},
}

// catCommand prints a recording's output at once.
var catCommand = &cobra.Command{
	Use:   "cat FILE",
	Short: "Print full output of a recorded session.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		sink := ttylog.NewClientOutput(cmd.OutOrStdout())
		return ttylog.Replay(ttylog.NewAsciicastLogSource(fd), sink)
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(listRecordingsCommand)
	sessionsCmd.AddCommand(playCommand)
	sessionsCmd.AddCommand(catCommand)

	playCommand.Flags().DurationVarP(&idleTimeLimit, "idle-time-limit", "i", 3*time.Second, "Maximum time output can be idle. (e.g. 3s, 2m, 100ms)")
}
