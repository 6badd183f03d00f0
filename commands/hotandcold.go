package commands

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	hotAndColdMax = 100
)

// HotAndCold is a number guessing game that tells the player whether each
// guess is closer to the secret than the previous one.
func HotAndCold(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "hotandcold",
		Short: "Guess a number from 1 to 100.",
	}

	return cmd.Run(s, args, func() int {
		secret := s.Rand.Intn(hotAndColdMax) + 1
		distance := hotAndColdMax
		tries := 0

		prompt := fmt.Sprintf("Make a guess from 1 to %d: ", hotAndColdMax)
		for {
			line, err := s.Prompt(prompt)
			switch {
			case err == io.EOF, errors.Is(err, ErrInterrupt):
				fmt.Fprintln(s.Stdout)
				return 1
			case err != nil:
				s.Errorf(args[0], err)
				return 1
			}

			guess, err := strconv.Atoi(strings.TrimSpace(line))
			if err != nil {
				fmt.Fprintln(s.Stdout, "Please enter a number.")
				continue
			}

			tries++
			if guess == secret {
				break
			}

			if abs(guess-secret) <= distance {
				fmt.Fprintln(s.Stdout, "Getting hot!")
			} else {
				fmt.Fprintln(s.Stdout, "Getting cold!")
			}
			distance = abs(guess - secret)
			prompt = "Make a guess: "
		}

		fmt.Fprintf(s.Stdout, "You guessed in %d tries.\n", tries)

		if !s.Record.Beats(tries) {
			return 0
		}

		fmt.Fprintln(s.Stdout, "Congratulations! That's a new record!")
		if err := s.Record.Set(tries); err != nil {
			s.Errorf(args[0], err)
			return 1
		}
		return 0
	})
}

// ResetRecord forgets the best hotandcold score.
func ResetRecord(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "resetrecord",
		Short: "Forget the hotandcold record.",
	}

	return cmd.Run(s, args, func() int {
		if err := s.Record.Reset(); err != nil {
			s.Errorf(args[0], err)
			return 1
		}
		fmt.Fprintln(s.Stdout, "The record is reset.")
		return 0
	})
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
