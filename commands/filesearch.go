package commands

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/shellfyre/core/proc"
	"github.com/josephlewis42/shellfyre/core/shell"
)

// FileSearch finds files whose name contains a substring, optionally printing
// their contents.
func FileSearch(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "filesearch [-r] [-o] NAME",
		Short: "Search the current directory for files whose name contains NAME.",
	}
	recursive := cmd.Flags().Bool('r', "search subdirectories too")
	open := cmd.Flags().Bool('o', "print the contents of the files found")

	return cmd.Run(s, args, func() int {
		rest := cmd.Args()
		if len(rest) != 1 {
			err := errors.New("expected exactly one NAME")
			s.LogInvalidInvocation(args, err)
			s.Errorf(args[0], err)
			return 1
		}

		find := findArgs(rest[0], *recursive)
		if !*open {
			return s.runStage(shell.Stage{Name: find[0], Args: find[1:], Background: s.background()})
		}

		var found bytes.Buffer
		_, err := s.Executor.WithStdio(proc.Stdio{
			In:  s.Stdin,
			Out: &found,
			Err: s.Stderr,
		}).Run(find...)
		if err != nil {
			return 1
		}

		var files []string
		for _, line := range strings.Split(found.String(), "\n") {
			if line != "" {
				files = append(files, line)
			}
		}
		if len(files) == 0 {
			fmt.Fprintln(s.Stdout, "Could not find a file.")
			return 0
		}

		return s.runStage(shell.Stage{Name: "cat", Args: files, Background: s.background()})
	})
}

func findArgs(name string, recursive bool) []string {
	out := []string{"find", "."}
	if !recursive {
		out = append(out, "-maxdepth", "1")
	}
	return append(out, "-name", "*"+name+"*")
}

// runStage runs a single program on behalf of a builtin.
func (s *Shell) runStage(stage shell.Stage) int {
	status, _ := s.Executor.Execute(&shell.Pipeline{Stages: []shell.Stage{stage}})
	return status
}
