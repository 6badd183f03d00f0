// Package proc runs parsed pipelines as operating system processes.
package proc

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"

	"github.com/josephlewis42/shellfyre/core/shell"
	"github.com/spf13/afero"
)

const (
	// StatusNotFound is returned when the last stage could not be located.
	StatusNotFound = 127
	// StatusCannotExecute is returned when the last stage was found but could
	// not be started.
	StatusCannotExecute = 126
)

// Executor spawns the stages of a pipeline.
type Executor struct {
	Stdio

	// Name prefixes user visible error messages.
	Name string
	// Dir is the working directory for new processes and the base for
	// relative redirect paths. Empty means the current directory.
	Dir string
	// Env is the environment of new processes, nil inherits the current one.
	Env []string
	// SearchPath is the list of directories programs are looked up in.
	SearchPath string
	// Fs is used to look up programs.
	Fs afero.Fs
}

// NewExecutor creates an executor that inherits the process environment.
func NewExecutor(stdio Stdio) *Executor {
	return &Executor{
		Stdio:      stdio,
		Name:       "shellfyre",
		SearchPath: os.Getenv("PATH"),
		Fs:         afero.NewOsFs(),
	}
}

// WithStdio returns a copy of the executor writing to different streams.
func (e *Executor) WithStdio(stdio Stdio) *Executor {
	clone := *e
	clone.Stdio = stdio
	return &clone
}

// Run executes a single program in the foreground.
func (e *Executor) Run(argv ...string) (int, error) {
	if len(argv) == 0 {
		return 0, nil
	}
	return e.Execute(&shell.Pipeline{
		Stages: []shell.Stage{{Name: argv[0], Args: argv[1:]}},
	})
}

// Execute runs every stage of p connected by pipes.
//
// In the foreground it waits for all stages and returns the exit status of
// the last one. In the background it returns 0 as soon as the stages have
// started; they are reaped asynchronously.
//
// A stage that fails to start is reported to Err and does not stop the
// remaining stages. The returned error is non-nil only if the last stage
// failed to start.
func (e *Executor) Execute(p *shell.Pipeline) (int, error) {
	background := p.Background()
	n := p.Len()

	var (
		started []*exec.Cmd
		lastCmd *exec.Cmd
		pgid    int
		prev    *os.File
		status  int
		lastErr error
	)

	for i := range p.Stages {
		stage := &p.Stages[i]

		st, err := e.streams(stage, prev, i == 0, i == n-1)
		prev = st.next
		if err != nil {
			st.release()
			e.errorf("%v", err)
			status, lastErr = 1, err
			continue
		}

		cmd, err := e.command(stage, st)
		if err != nil {
			st.release()
			status, lastErr = e.lookupFailure(stage, err)
			continue
		}

		if background {
			cmd.SysProcAttr = processGroup(pgid)
		}
		err = cmd.Start()
		st.release()
		if err != nil {
			e.errorf("%s: %v", stage.Name, err)
			status, lastErr = StatusCannotExecute, fmt.Errorf("%s: %w", stage.Name, err)
			continue
		}

		if background && pgid == 0 {
			pgid = cmd.Process.Pid
		}
		started = append(started, cmd)
		if i == n-1 {
			lastCmd = cmd
			status, lastErr = 0, nil
		}
	}

	if background {
		go func() {
			for _, cmd := range started {
				_ = cmd.Wait()
			}
		}()
		if lastCmd == nil {
			return status, lastErr
		}
		return 0, nil
	}

	for _, cmd := range started {
		err := cmd.Wait()
		if cmd == lastCmd {
			status, lastErr = exitStatus(cmd, err)
		}
	}
	return status, lastErr
}

func (e *Executor) command(stage *shell.Stage, st *streams) (*exec.Cmd, error) {
	path, err := LookPath(e.fs(), e.SearchPath, e.Dir, stage.Name)
	if err != nil {
		return nil, err
	}

	return &exec.Cmd{
		Path:   path,
		Args:   stage.Argv(),
		Env:    e.Env,
		Dir:    e.Dir,
		Stdin:  st.stdin,
		Stdout: st.stdout,
		Stderr: e.Err,
	}, nil
}

// lookupFailure reports a stage whose program could not be resolved and
// returns the status it contributes as the last stage.
func (e *Executor) lookupFailure(stage *shell.Stage, err error) (int, error) {
	switch {
	case errors.Is(err, ErrNotFound):
		e.errorf("%s: command not found", stage.Name)
		return StatusNotFound, fmt.Errorf("%s: %w", stage.Name, err)
	case errors.Is(err, fs.ErrNotExist):
		e.errorf("%s: no such file or directory", stage.Name)
		return StatusNotFound, fmt.Errorf("%s: %w", stage.Name, err)
	case errors.Is(err, fs.ErrPermission):
		e.errorf("%s: permission denied", stage.Name)
		return StatusCannotExecute, fmt.Errorf("%s: %w", stage.Name, err)
	default:
		e.errorf("%s: %v", stage.Name, err)
		return StatusCannotExecute, fmt.Errorf("%s: %w", stage.Name, err)
	}
}

func (e *Executor) errorf(format string, args ...interface{}) {
	if e.Err == nil {
		return
	}
	fmt.Fprintf(e.Err, "-%s: %s\n", e.Name, fmt.Sprintf(format, args...))
}

func (e *Executor) fs() afero.Fs {
	if e.Fs == nil {
		return afero.NewOsFs()
	}
	return e.Fs
}

// exitStatus converts the result of Wait into a shell status.
func exitStatus(cmd *exec.Cmd, err error) (int, error) {
	if cmd.ProcessState != nil {
		if status, ok := signalStatus(cmd.ProcessState); ok {
			return status, nil
		}
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return 0, nil
	case errors.As(err, &exitErr):
		return exitErr.ExitCode(), nil
	default:
		return 1, err
	}
}

// streams are the standard streams of one stage. Handles in owned belong to
// the stage's setup and are closed in the parent once the stage has started
// or failed to start.
type streams struct {
	stdin  io.Reader
	stdout io.Writer
	owned  []io.Closer

	// next is the read end of the pipe feeding the following stage.
	next *os.File
}

func (st *streams) release() {
	for _, c := range st.owned {
		_ = c.Close()
	}
	st.owned = nil
}

// streams builds the standard streams of a stage. Pipes take precedence over
// redirects: the input redirect is honored only on the first stage and the
// output redirect only on the last.
//
// The outgoing pipe is created before anything that can fail so the next
// stage always receives a read end, even if this stage never starts.
func (e *Executor) streams(stage *shell.Stage, prev *os.File, first, last bool) (*streams, error) {
	st := &streams{
		stdin:  e.In,
		stdout: e.Out,
	}

	if prev != nil {
		st.stdin = prev
		st.owned = append(st.owned, prev)
	}

	if !last {
		r, w, err := os.Pipe()
		if err != nil {
			return st, fmt.Errorf("creating pipe: %w", err)
		}
		st.next = r
		st.stdout = w
		st.owned = append(st.owned, w)
	}

	if first && prev == nil {
		if path := stage.Redirect(shell.RedirectIn); path != "" {
			f, err := os.OpenFile(resolve(e.Dir, path), os.O_RDONLY, 0)
			if err != nil {
				return st, redirectError(err, path)
			}
			st.stdin = f
			st.owned = append(st.owned, f)
		}
	}

	if last {
		flags, path := 0, ""
		switch {
		case stage.Redirect(shell.RedirectOut) != "":
			flags, path = os.O_WRONLY|os.O_CREATE|os.O_TRUNC, stage.Redirect(shell.RedirectOut)
		case stage.Redirect(shell.RedirectAppend) != "":
			flags, path = os.O_WRONLY|os.O_CREATE|os.O_APPEND, stage.Redirect(shell.RedirectAppend)
		}

		if path != "" {
			f, err := os.OpenFile(resolve(e.Dir, path), flags, 0644)
			if err != nil {
				return st, redirectError(err, path)
			}
			st.stdout = f
			st.owned = append(st.owned, f)
		}
	}

	return st, nil
}

// redirectError reports err against the path the user typed rather than the
// resolved one.
func redirectError(err error, path string) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		err = pathErr.Err
	}
	return fmt.Errorf("%s: %w", path, err)
}
