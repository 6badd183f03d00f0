package commands

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/josephlewis42/shellfyre/core/config"
	"github.com/josephlewis42/shellfyre/core/history"
	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/josephlewis42/shellfyre/core/proc"
	"github.com/josephlewis42/shellfyre/core/proctree"
	"github.com/josephlewis42/shellfyre/core/record"
	"github.com/josephlewis42/shellfyre/core/shell"
)

const (
	// SystemName prefixes error messages.
	SystemName    = "shellfyre"
	DefaultPrompt = `\u@\h:\w shellfyre\$ `
)

// Code is the result of interpreting a single line.
type Code int

const (
	// CodeSuccess means the line was handled and the shell should continue.
	CodeSuccess Code = iota
	// CodeExit means the shell should stop.
	CodeExit
	// CodeUnknown means the last stage of the pipeline couldn't be found.
	CodeUnknown
)

func (c Code) String() string {
	switch c {
	case CodeSuccess:
		return "success"
	case CodeExit:
		return "exit"
	case CodeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

type Shell struct {
	Config *config.Configuration
	Input  LineReader

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Executor *proc.Executor
	History  *history.DirHistory
	Record   *record.Store
	ProcTree proctree.Service
	Events   *logger.SessionLogger

	Rand       *rand.Rand
	HTTPClient *http.Client

	// Interactive shows the prompt before each line.
	Interactive bool
	// Color enables colored output.
	Color bool

	User     string
	Hostname string
	Home     string

	// Set to true to quit the shell
	Quit bool

	dir      string
	lastRet  int
	pipeline *shell.Pipeline
}

// NewShell creates a shell rooted in the current working directory. If input
// is nil lines are read from stdio.In without editing support.
func NewShell(cfg *config.Configuration, stdio proc.Stdio, input LineReader, events *logger.SessionLogger) *Shell {
	dir, err := os.Getwd()
	if err != nil {
		dir = "/"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = dir
	}
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	if input == nil {
		input = NewPlainReader(stdio.In, stdio.Out)
	}
	if events == nil {
		events = logger.Discard().Sessionless()
	}

	executor := proc.NewExecutor(stdio)
	executor.Name = SystemName
	executor.SearchPath = cfg.ResolvedSearchPath()
	executor.Dir = dir

	return &Shell{
		Config:     cfg,
		Input:      input,
		Stdin:      stdio.In,
		Stdout:     stdio.Out,
		Stderr:     stdio.Err,
		Executor:   executor,
		History:    cfg.DirHistory(),
		Record:     cfg.Record(),
		ProcTree:   cfg.ProcTreeService(proctree.ExecRunner(executor)),
		Events:     events,
		Rand:       rand.New(rand.NewSource(time.Now().UnixNano())),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		User:       currentUser(),
		Hostname:   hostname,
		Home:       home,
		dir:        dir,
	}
}

func currentUser() string {
	if u, err := user.Current(); err == nil {
		return u.Username
	}
	return os.Getenv("USER")
}

// Dir returns the shell's working directory.
func (s *Shell) Dir() string {
	return s.dir
}

// LastStatus returns the exit status of the most recent command.
func (s *Shell) LastStatus() int {
	return s.lastRet
}

// Chdir changes the working directory of the shell and of every program it
// starts afterwards. The process working directory is left untouched so
// several shells can share a process.
func (s *Shell) Chdir(dir string) error {
	target := s.resolve(dir)

	info, err := os.Stat(target)
	switch {
	case err != nil:
		return err
	case !info.IsDir():
		return &fs.PathError{Op: "chdir", Path: dir, Err: syscall.ENOTDIR}
	}

	s.dir = target
	s.Executor.Dir = target
	return nil
}

// resolve makes path absolute relative to the working directory.
func (s *Shell) resolve(path string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(s.dir, path)
}

// changeDir moves to dir and records it in the directory history.
func (s *Shell) changeDir(dir string) error {
	if err := s.Chdir(dir); err != nil {
		return err
	}

	s.Events.Record(logger.DirectoryChange(s.dir))
	if err := s.History.Append(s.dir); err != nil {
		log.Printf("Error saving directory history: %v", err)
	}
	return nil
}

// Prompt shows prompt and reads one line of input.
func (s *Shell) Prompt(prompt string) (string, error) {
	s.Input.SetPrompt(prompt)
	return s.Input.Readline()
}

// Errorf prints an error in the standard format.
func (s *Shell) Errorf(name string, err error) {
	msg := fmt.Sprintf("-%s: %s: %s", SystemName, name, errorText(err))
	if s.Color {
		msg = colorize(ColorBoldRed, msg)
	}
	fmt.Fprintln(s.Stderr, msg)
}

// LogInvalidInvocation records a built-in called with bad arguments.
func (s *Shell) LogInvalidInvocation(args []string, err error) {
	s.Events.Record(logger.InvalidInvocation(args, err))
}

// errorText strips the operation and path from OS errors so messages read
// like strerror.
func errorText(err error) string {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return pathErr.Err.Error()
	}
	return err.Error()
}

// RunInteractive reads and runs lines until exit or end of input.
func (s *Shell) RunInteractive() Code {
	for !s.Quit {
		if s.Interactive {
			s.Input.SetPrompt(s.prompt())
		} else {
			s.Input.SetPrompt("")
		}
		line, err := s.Input.Readline()

		switch {
		case err == io.EOF:
			return CodeExit // Input closed, quit.

		case errors.Is(err, ErrInterrupt):
			// Interrupt clears line.
			continue

		case err != nil:
			log.Printf("Error readline: %v", err)
			return CodeExit

		case strings.TrimSpace(line) == "":
			continue // empty line
		}

		if s.RunLine(line) == CodeExit {
			return CodeExit
		}
	}
	return CodeExit
}

// RunLine parses and runs a single line.
func (s *Shell) RunLine(line string) Code {
	p := shell.Parse(line)
	if p.Empty() {
		return CodeSuccess
	}

	if code, handled := Dispatch(s, p); handled {
		return code
	}

	return s.execute(p)
}

func (s *Shell) execute(p *shell.Pipeline) Code {
	for i := range p.Stages {
		stage := &p.Stages[i]

		path, err := proc.LookPath(s.Executor.Fs, s.Executor.SearchPath, s.dir, stage.Name)
		if err != nil {
			s.Events.Record(logger.UnknownCommand(stage.Argv(), err))
			continue
		}
		s.Events.Record(logger.RunCommand(stage.Argv(), path, p.Background()))
	}

	status, err := s.Executor.Execute(p)
	s.lastRet = status
	if errors.Is(err, proc.ErrNotFound) {
		return CodeUnknown
	}
	return CodeSuccess
}

func (s *Shell) prompt() string {
	prompt := s.Config.Prompt
	if prompt == "" {
		prompt = DefaultPrompt
	}

	host := s.Hostname
	if i := strings.IndexByte(host, '.'); i > 0 {
		host = host[:i]
	}

	pwd := s.dir
	if s.Home != "" && (pwd == s.Home || strings.HasPrefix(pwd, s.Home+"/")) {
		pwd = "~" + strings.TrimPrefix(pwd, s.Home)
	}

	sigil := "$"
	if s.User == "root" {
		sigil = "#"
	}

	prompt = strings.NewReplacer(
		`\u`, s.User,
		`\h`, host,
		`\w`, pwd,
		`\W`, filepath.Base(s.dir),
		`\$`, sigil,
	).Replace(prompt)

	if s.Color {
		return colorize(ColorBoldGreen, prompt)
	}
	return prompt
}
