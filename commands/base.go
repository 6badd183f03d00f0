package commands

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	getopt "github.com/pborman/getopt/v2"
)

type SimpleCommand struct {
	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
	// ShowHelp sets whether help is displayed or not.
	// If this is non-nil when Run() is called, then the default help flag isn't
	// added.
	ShowHelp *bool
	// NeverBail skips interacting with stdout/stderr on failure and
	// always runs the callback.
	NeverBail bool

	flags *getopt.Set
}

// Flags gets the command's flag set.
func (c *SimpleCommand) Flags() *getopt.Set {
	if c.flags == nil {
		c.flags = getopt.New()
	}

	return c.flags
}

// PrintHelp writes help for the command to the given writer.
func (c *SimpleCommand) PrintHelp(w io.Writer) {
	fmt.Fprint(w, "usage: ")
	fmt.Fprintln(w, c.Use)
	fmt.Fprintln(w, c.Short)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	c.Flags().PrintOptions(w)
}

// Run the command, if flag parsing was succcessful call the callback.
// args[0] is the name of the command.
func (c *SimpleCommand) Run(s *Shell, args []string, callback func() int) int {
	opts := c.Flags()

	// Add help flag if not overridden.
	if c.ShowHelp == nil {
		c.ShowHelp = opts.BoolLong("help", 'h', "show this help and exit")
	}

	err := opts.Getopt(args, nil)
	if err != nil {
		s.LogInvalidInvocation(args, err)
	}

	if err != nil && !c.NeverBail {
		s.Errorf(args[0], err)
		fmt.Fprintln(s.Stderr)

		c.PrintHelp(s.Stdout)
		return 1
	}

	if *c.ShowHelp {
		c.PrintHelp(s.Stdout)
		return 0
	}

	return callback()
}

// Args returns the arguments left after flag parsing.
func (c *SimpleCommand) Args() []string {
	return c.Flags().Args()
}

const (
	colorAlways = "always"
	colorAuto   = "auto"
	colorNever  = "never"
)

var (
	ColorBoldBlue  = color.New(color.FgBlue, color.Bold)
	ColorBoldGreen = color.New(color.FgGreen, color.Bold)
	ColorBoldCyan  = color.New(color.FgCyan, color.Bold)
	ColorBoldRed   = color.New(color.FgRed, color.Bold)
)

// colorize formats the text in the color regardless of whether the process's
// own stdout is a terminal; the caller decides based on the session.
func colorize(c *color.Color, text string) string {
	forced := *c
	forced.EnableColor()
	return forced.Sprint(text)
}

type ColorPrinter struct {
	value *string
	shell *Shell
}

// Init sets up the flag and shell to determine the color output.
func (c *ColorPrinter) Init(flags *getopt.Set, s *Shell) {
	c.shell = s
	c.value = flags.EnumLong(
		"color",
		rune(0), // No short flag.
		[]string{colorAlways, colorAuto, colorNever},
		colorAuto,
		"colorize the output (always|auto|never)")
}

func (c *ColorPrinter) ShouldColor() bool {
	switch {
	case *c.value == colorNever:
		return false
	case *c.value == colorAlways:
		return true
	default:
		return c.shell.Color
	}
}

func (c *ColorPrinter) Sprintf(color *color.Color, format string, a ...interface{}) string {
	if c.ShouldColor() {
		return colorize(color, fmt.Sprintf(format, a...))
	}
	return fmt.Sprintf(format, a...)
}
