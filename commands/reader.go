package commands

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/shellfyre/core/proc"
	"golang.org/x/term"
)

// ErrInterrupt is returned by a LineReader when the user pressed Ctrl+C.
var ErrInterrupt = readline.ErrInterrupt

// LineReader reads lines of input after showing a prompt.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
}

// NewLineReader picks a reader for the process's standard input: a line
// editor when it's a terminal, otherwise a plain line reader.
func NewLineReader(stdio proc.Stdio) LineReader {
	if f, ok := stdio.In.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return NewTerminalReader(f, stdio.Out)
	}
	return NewPlainReader(stdio.In, stdio.Out)
}

// NewReadlineReader creates a line editor over arbitrary streams, used for
// remote sessions.
func NewReadlineReader(stdio proc.Stdio, isTerminal func() bool, width func() int) (LineReader, error) {
	cfg := &readline.Config{
		Stdin:          readline.NewCancelableStdin(stdio.In),
		Stdout:         stdio.Out,
		Stderr:         stdio.Err,
		FuncGetWidth:   width,
		FuncIsTerminal: isTerminal,
	}

	if err := cfg.Init(); err != nil {
		return nil, err
	}

	return readline.NewEx(cfg)
}

// terminalReader edits lines on the controlling terminal. The terminal is only
// in raw mode while a line is being read, so programs started by the shell
// get the terminal in its normal state and nothing reads ahead of them.
type terminalReader struct {
	fd       int
	terminal *term.Terminal
	input    *interruptWatcher
}

// NewTerminalReader creates a line editor on the terminal in.
func NewTerminalReader(in *os.File, out io.Writer) LineReader {
	watcher := &interruptWatcher{r: in}
	rw := struct {
		io.Reader
		io.Writer
	}{watcher, out}

	return &terminalReader{
		fd:       int(in.Fd()),
		terminal: term.NewTerminal(rw, ""),
		input:    watcher,
	}
}

func (r *terminalReader) SetPrompt(prompt string) {
	r.terminal.SetPrompt(prompt)
}

func (r *terminalReader) Readline() (string, error) {
	state, err := term.MakeRaw(r.fd)
	if err != nil {
		return "", err
	}
	defer term.Restore(r.fd, state)

	if width, height, err := term.GetSize(r.fd); err == nil {
		r.terminal.SetSize(width, height)
	}

	r.input.interrupted = false
	line, err := r.terminal.ReadLine()
	if err == io.EOF && r.input.interrupted {
		// The terminal reports Ctrl+C as end of input.
		return "", ErrInterrupt
	}
	return line, err
}

const keyCtrlC = 3

type interruptWatcher struct {
	r           io.Reader
	interrupted bool
}

func (w *interruptWatcher) Read(p []byte) (int, error) {
	n, err := w.r.Read(p)
	if bytes.IndexByte(p[:n], keyCtrlC) >= 0 {
		w.interrupted = true
	}
	return n, err
}

// plainReader reads lines without any editing support.
type plainReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

// NewPlainReader reads lines from in, writing prompts to out.
func NewPlainReader(in io.Reader, out io.Writer) LineReader {
	if in == nil {
		in = strings.NewReader("")
	}
	return &plainReader{in: bufio.NewReader(in), out: out}
}

func (r *plainReader) SetPrompt(prompt string) {
	r.prompt = prompt
}

func (r *plainReader) Readline() (string, error) {
	if r.prompt != "" && r.out != nil {
		fmt.Fprint(r.out, r.prompt)
	}

	line, err := r.in.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
