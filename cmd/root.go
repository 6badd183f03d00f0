package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/josephlewis42/shellfyre/commands"
	"github.com/josephlewis42/shellfyre/core/config"
	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/josephlewis42/shellfyre/core/proc"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	cfgPath     string
	commandLine string
)

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}

	return configuration, err
}

// exitStatus is returned by commands that want the process to exit with a
// specific code without printing an error.
type exitStatus int

func (e exitStatus) Error() string {
	return fmt.Sprintf("exit status %d", int(e))
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "shellfyre",
	Short: "An interactive command interpreter",
	Long: `shellfyre reads lines, runs them as pipelines of programs and offers a
handful of built-in commands (run "help" inside the shell for the list).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := config.LoadOrInitialize(cfgPath, log.New(cmd.ErrOrStderr(), "", 0))
		if err != nil {
			return err
		}

		logFd, err := cfg.OpenAppLog()
		if err != nil {
			return err
		}
		defer logFd.Close()
		events := logger.NewJsonLinesLogRecorder(logFd).NewSession()

		stdio := proc.OSStdio()
		if cmd.Flags().Changed("command") {
			sh := commands.NewShell(cfg, stdio, commands.NewPlainReader(nil, nil), events)
			sh.RunLine(commandLine)
			return shellStatus(cmd, sh.LastStatus())
		}

		sh := commands.NewShell(cfg, stdio, commands.NewLineReader(stdio), events)
		sh.Interactive = term.IsTerminal(int(os.Stdin.Fd()))
		sh.Color = sh.Interactive && term.IsTerminal(int(os.Stdout.Fd()))
		sh.RunInteractive()
		return shellStatus(cmd, sh.LastStatus())
	},
}

func shellStatus(cmd *cobra.Command, status int) error {
	if status == 0 {
		return nil
	}
	cmd.SilenceErrors = true
	return exitStatus(status)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()

	var status exitStatus
	if errors.As(err, &status) {
		os.Exit(int(status))
	}
	cobra.CheckErr(err)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", config.DefaultDir(), "configuration directory")
	rootCmd.Flags().StringVarP(&commandLine, "command", "c", "", "run a single line and exit with its status")
}
