package commands

import (
	"errors"
	"fmt"
	"sort"

	"github.com/josephlewis42/shellfyre/core/shell"
)

var errTooManyArgs = errors.New("too many arguments")

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]ShellBuiltin)

// builtinUsage holds the one line usage of each builtin.
var builtinUsage = make(map[string]string)

type ShellBuiltin interface {
	Main(s *Shell, args []string) int
}

type ShellBuiltinFunc func(s *Shell, args []string) int

func (f ShellBuiltinFunc) Main(s *Shell, args []string) int {
	return f(s, args)
}

var _ ShellBuiltin = (ShellBuiltinFunc)(nil)

func mustAddBuiltin(name, usage string, builtin ShellBuiltinFunc) {
	if _, ok := AllBuiltins[name]; ok {
		panic(fmt.Sprintf("duplicate builtin %q", name))
	}
	AllBuiltins[name] = builtin
	builtinUsage[name] = usage
}

// BuiltinNames returns the names of the builtins in sorted order.
func BuiltinNames() []string {
	var out []string
	for name := range AllBuiltins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// BuiltinUsage returns the usage line of a builtin.
func BuiltinUsage(name string) string {
	return builtinUsage[name]
}

// Dispatch runs p's head stage if it names a builtin. Only the head's name
// and arguments are used; the rest of the pipeline is ignored. The second
// result is false if p should be handed to the executor instead.
func Dispatch(s *Shell, p *shell.Pipeline) (Code, bool) {
	head := p.Head()
	builtin, ok := AllBuiltins[head.Name]
	if !ok {
		return CodeSuccess, false
	}

	s.pipeline = p
	defer func() { s.pipeline = nil }()

	s.lastRet = builtin.Main(s, head.Argv())
	if s.Quit {
		return CodeExit, true
	}
	return CodeSuccess, true
}

// background reports whether the builtin currently running was asked to run
// in the background.
func (s *Shell) background() bool {
	return s.pipeline != nil && s.pipeline.Background()
}

// Exit quits the shell
func Exit(s *Shell, args []string) int {
	s.Quit = true
	return 0
}

func Help(s *Shell, args []string) int {
	cmd := &SimpleCommand{
		Use:   "help [--color=WHEN]",
		Short: "List the commands built into the shell.",
	}
	var colors ColorPrinter
	colors.Init(cmd.Flags(), s)

	return cmd.Run(s, args, func() int {
		w := s.Stdout
		fmt.Fprintf(w, "%s, an interactive command interpreter.\n", SystemName)
		fmt.Fprintln(w, "Lines are made of programs joined by '|', with '<', '>' and '>>'")
		fmt.Fprintln(w, "redirects and a trailing '&' to run in the background.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Builtins:")
		fmt.Fprintln(w)

		for _, name := range BuiltinNames() {
			fmt.Fprintf(w, "  %s\n", colors.Sprintf(ColorBoldCyan, "%s", BuiltinUsage(name)))
		}
		return 0
	})
}

func init() {
	mustAddBuiltin("exit", "exit", Exit)
	mustAddBuiltin("help", "help [--color=WHEN]", Help)
	mustAddBuiltin("cd", "cd [DIR]", Cd)
	mustAddBuiltin("cdh", "cdh", Cdh)
	mustAddBuiltin("take", "take DIR", Take)
	mustAddBuiltin("filesearch", "filesearch [-r] [-o] NAME", FileSearch)
	mustAddBuiltin("joke", "joke", Joke)
	mustAddBuiltin("joker", "joker", Joker)
	mustAddBuiltin("hotandcold", "hotandcold", HotAndCold)
	mustAddBuiltin("resetrecord", "resetrecord", ResetRecord)
	mustAddBuiltin("pstraverse", "pstraverse PID -b|-d", PsTraverse)
}
