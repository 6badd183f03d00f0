package commands

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/josephlewis42/shellfyre/core/history"
)

// cdhLimit is the number of directories cdh offers.
const cdhLimit = 10

// Cd is the cd shell builtin
func Cd(s *Shell, args []string) int {
	switch len(args) {
	case 1:
		args = append(args, s.Home)
		fallthrough
	case 2:
		if err := s.changeDir(args[1]); err != nil {
			s.Errorf(args[0], err)
			return 1
		}
	default:
		s.LogInvalidInvocation(args, errTooManyArgs)
		s.Errorf(args[0], errTooManyArgs)
		return 1
	}
	return 0
}

// Cdh offers the most recently visited directories and moves to the chosen
// one.
func Cdh(s *Shell, args []string) int {
	if len(args) > 1 {
		s.LogInvalidInvocation(args, errTooManyArgs)
		s.Errorf(args[0], errTooManyArgs)
		return 1
	}

	dirs, err := s.History.Recent(cdhLimit)
	switch {
	case errors.Is(err, history.ErrEmpty):
		fmt.Fprintln(s.Stdout, "No directories visited yet.")
		return 0
	case err != nil:
		s.Errorf(args[0], err)
		return 1
	}

	for i, dir := range dirs {
		fmt.Fprintf(s.Stdout, "%c %d) %s\n", 'a'+i, i+1, dir)
	}

	choice, err := s.Prompt("Select directory by letter or number: ")
	if err != nil {
		fmt.Fprintln(s.Stdout)
		return 1
	}

	idx := selectionIndex(strings.TrimSpace(choice), len(dirs))
	if idx < 0 {
		err := fmt.Errorf("invalid selection %q", strings.TrimSpace(choice))
		s.LogInvalidInvocation(args, err)
		s.Errorf(args[0], err)
		return 1
	}

	if err := s.changeDir(dirs[idx]); err != nil {
		s.Errorf(args[0], err)
		return 1
	}
	return 0
}

// selectionIndex maps a letter (a, b, ...) or a number (1, 2, ...) to an
// index into a list of n items, or -1.
func selectionIndex(choice string, n int) int {
	if len(choice) == 1 && choice[0] >= 'a' && int(choice[0]-'a') < n {
		return int(choice[0] - 'a')
	}

	if num, err := strconv.Atoi(choice); err == nil && num >= 1 && num <= n {
		return num - 1
	}
	return -1
}

// Take creates a directory and its parents then moves into it.
func Take(s *Shell, args []string) int {
	if len(args) != 2 {
		err := errors.New("usage: take DIR")
		s.LogInvalidInvocation(args, err)
		s.Errorf(args[0], err)
		return 1
	}

	if err := os.MkdirAll(s.resolve(args[1]), 0755); err != nil {
		s.Errorf(args[0], err)
		return 1
	}

	if err := s.changeDir(args[1]); err != nil {
		s.Errorf(args[0], err)
		return 1
	}
	return 0
}
