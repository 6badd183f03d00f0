package shell

import (
	"fmt"
	"io"
	"strings"
)

// Redirect indexes the redirect slots of a Stage.
type Redirect int

const (
	// RedirectIn replaces standard input with a file opened for reading.
	RedirectIn Redirect = iota
	// RedirectOut replaces standard output with a created/truncated file.
	RedirectOut
	// RedirectAppend replaces standard output with a file opened for append.
	RedirectAppend

	numRedirects = 3
)

// Stage is a single program invocation within a pipeline.
type Stage struct {
	// Name of the program, empty only when the line was empty.
	Name string
	// Args holds the arguments, excluding the program name.
	Args []string
	// Background is only honored on the last stage of a pipeline.
	Background bool
	// AutoComplete is set when the line ended in the trigger character. It is
	// recognized but nothing acts on it yet.
	AutoComplete bool
	// Redirects holds the target path of each redirect slot, empty if unset.
	Redirects [numRedirects]string
}

// Argv returns the exec argument vector for the stage, name first.
func (s *Stage) Argv() []string {
	return append([]string{s.Name}, s.Args...)
}

// Redirect returns the path set for the slot, or "".
func (s *Stage) Redirect(r Redirect) string {
	return s.Redirects[r]
}

func (s *Stage) setRedirect(r Redirect, path string) {
	switch r {
	case RedirectOut:
		s.Redirects[RedirectAppend] = ""
	case RedirectAppend:
		s.Redirects[RedirectOut] = ""
	}
	s.Redirects[r] = path
}

// Pipeline is an ordered chain of stages connected by pipes.
type Pipeline struct {
	Stages []Stage
}

// Len returns the number of stages.
func (p *Pipeline) Len() int {
	return len(p.Stages)
}

// Head returns the first stage.
func (p *Pipeline) Head() *Stage {
	return &p.Stages[0]
}

// Last returns the final stage.
func (p *Pipeline) Last() *Stage {
	return &p.Stages[len(p.Stages)-1]
}

// Background reports whether the pipeline should run without being waited on.
func (p *Pipeline) Background() bool {
	return p.Last().Background
}

// Empty reports whether the pipeline came from a blank line.
func (p *Pipeline) Empty() bool {
	return len(p.Stages) == 1 && p.Stages[0].Name == ""
}

// String returns the canonical text form of the pipeline.
func (p *Pipeline) String() string {
	var parts []string
	for _, stage := range p.Stages {
		words := stage.Argv()
		if in := stage.Redirects[RedirectIn]; in != "" {
			words = append(words, "<"+in)
		}
		if out := stage.Redirects[RedirectOut]; out != "" {
			words = append(words, ">"+out)
		}
		if app := stage.Redirects[RedirectAppend]; app != "" {
			words = append(words, ">>"+app)
		}
		parts = append(parts, strings.Join(words, " "))
	}

	out := strings.Join(parts, " | ")
	if p.Background() {
		out += " &"
	}
	return out
}

// Describe writes a human readable dump of the pipeline to w.
func (p *Pipeline) Describe(w io.Writer) {
	for i := range p.Stages {
		stage := &p.Stages[i]
		if i > 0 {
			fmt.Fprintln(w, "\tPiped to:")
		}

		fmt.Fprintf(w, "Command: <%s>\n", stage.Name)
		fmt.Fprintf(w, "\tIs Background: %s\n", yesNo(stage.Background))
		fmt.Fprintf(w, "\tNeeds Auto-complete: %s\n", yesNo(stage.AutoComplete))
		fmt.Fprintln(w, "\tRedirects:")
		for slot, path := range stage.Redirects {
			if path == "" {
				path = "N/A"
			}
			fmt.Fprintf(w, "\t\t%d: %s\n", slot, path)
		}
		fmt.Fprintf(w, "\tArguments (%d):\n", len(stage.Args))
		for j, arg := range stage.Args {
			fmt.Fprintf(w, "\t\tArg %d: %s\n", j, arg)
		}
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
