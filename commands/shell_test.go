//go:build unix

package commands

import (
	"bytes"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/josephlewis42/shellfyre/core/config"
	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/josephlewis42/shellfyre/core/proc"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testShell struct {
	*Shell
	stdout bytes.Buffer
	stderr bytes.Buffer
	events []logger.LogEntry
}

// newTestShell creates a shell in a fresh directory that reads input and
// keeps its state in memory.
func newTestShell(t *testing.T, input string) *testShell {
	t.Helper()

	ts := &testShell{}
	events := &logger.Logger{
		Record: func(le *logger.LogEntry) error {
			ts.events = append(ts.events, *le)
			return nil
		},
	}

	cfg := config.Default(afero.NewMemMapFs())
	stdio := proc.Stdio{
		In:  strings.NewReader(input),
		Out: &ts.stdout,
		Err: &ts.stderr,
	}
	ts.Shell = NewShell(cfg, stdio, nil, events.NewSession())

	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.Nil(t, err)
	require.Nil(t, ts.Chdir(dir))
	ts.Home = dir
	ts.User = "tester"
	ts.Hostname = "box.example.com"
	ts.Rand = rand.New(rand.NewSource(1))

	return ts
}

// setInput replaces the remaining input of the shell.
func (ts *testShell) setInput(input string) {
	ts.Input = NewPlainReader(strings.NewReader(input), &ts.stdout)
}

func (ts *testShell) eventTypes() []string {
	var out []string
	for _, le := range ts.events {
		out = append(out, le.Event.Type)
	}
	return out
}

func (ts *testShell) lastEvent(t *testing.T) logger.Event {
	t.Helper()
	require.NotEmpty(t, ts.events)
	return ts.events[len(ts.events)-1].Event
}

func mkdirs(t *testing.T, root string, dirs ...string) {
	t.Helper()
	for _, dir := range dirs {
		require.Nil(t, os.MkdirAll(filepath.Join(root, dir), 0755))
	}
}

func TestCode_String(t *testing.T) {
	assert.Equal(t, "success", CodeSuccess.String())
	assert.Equal(t, "exit", CodeExit.String())
	assert.Equal(t, "unknown", CodeUnknown.String())
	assert.Equal(t, "Code(9)", Code(9).String())
}

func TestShell_Chdir(t *testing.T) {
	ts := newTestShell(t, "")
	home := ts.Dir()
	mkdirs(t, home, "a/b")
	require.Nil(t, os.WriteFile(filepath.Join(home, "file"), nil, 0644))

	assert.Nil(t, ts.Chdir("a/b"))
	assert.Equal(t, filepath.Join(home, "a", "b"), ts.Dir())
	assert.Equal(t, ts.Dir(), ts.Executor.Dir)

	assert.Nil(t, ts.Chdir(".."))
	assert.Equal(t, filepath.Join(home, "a"), ts.Dir())

	assert.Error(t, ts.Chdir("missing"))
	assert.Error(t, ts.Chdir(filepath.Join(home, "file")))
	assert.Equal(t, filepath.Join(home, "a"), ts.Dir())
}

func TestShell_prompt(t *testing.T) {
	ts := newTestShell(t, "")
	mkdirs(t, ts.Home, "src")

	cases := map[string]struct {
		prompt   string
		user     string
		dir      string
		expected string
	}{
		"default": {
			prompt:   DefaultPrompt,
			user:     "tester",
			dir:      "src",
			expected: "tester@box:~/src shellfyre$ ",
		},
		"root": {
			prompt:   `\u\$ `,
			user:     "root",
			dir:      ".",
			expected: "root# ",
		},
		"basename": {
			prompt:   `[\W]`,
			user:     "tester",
			dir:      "src",
			expected: "[src]",
		},
		"home": {
			prompt:   `\w>`,
			user:     "tester",
			dir:      ".",
			expected: "~>",
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts.Config.Prompt = tc.prompt
			ts.User = tc.user
			require.Nil(t, ts.Chdir(filepath.Join(ts.Home, tc.dir)))

			assert.Equal(t, tc.expected, ts.prompt())
		})
	}
}

func TestShell_Errorf(t *testing.T) {
	ts := newTestShell(t, "")

	_, err := os.Stat(filepath.Join(ts.Dir(), "nope"))
	ts.Errorf("cat", err)

	assert.Equal(t, "-shellfyre: cat: no such file or directory\n", ts.stderr.String())
}

func TestShell_RunLine(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		ts := newTestShell(t, "")

		assert.Equal(t, CodeSuccess, ts.RunLine("   "))
		assert.Empty(t, ts.events)
	})

	t.Run("pipeline", func(t *testing.T) {
		ts := newTestShell(t, "")

		assert.Equal(t, CodeSuccess, ts.RunLine("echo hello | tr a-z A-Z"))
		assert.Equal(t, "HELLO\n", ts.stdout.String())
		assert.Equal(t, []string{logger.TypeRunCommand, logger.TypeRunCommand}, ts.eventTypes())
		assert.Equal(t, []string{"tr", "a-z", "A-Z"}, ts.lastEvent(t).Command())
		assert.NotEmpty(t, ts.lastEvent(t).String("resolved_command_path"))
	})

	t.Run("trailing pipe", func(t *testing.T) {
		ts := newTestShell(t, "")

		assert.Equal(t, CodeSuccess, ts.RunLine("echo hi |"))
		assert.Equal(t, "hi\n", ts.stdout.String())
		assert.Empty(t, ts.stderr.String())
		assert.Equal(t, []string{logger.TypeRunCommand}, ts.eventTypes())
	})

	t.Run("status", func(t *testing.T) {
		ts := newTestShell(t, "")

		assert.Equal(t, CodeSuccess, ts.RunLine("false"))
		assert.Equal(t, 1, ts.LastStatus())
	})

	t.Run("unknown", func(t *testing.T) {
		ts := newTestShell(t, "")

		assert.Equal(t, CodeUnknown, ts.RunLine("no-such-program-here arg"))
		assert.Equal(t, proc.StatusNotFound, ts.LastStatus())
		assert.Equal(t, []string{logger.TypeUnknownCommand}, ts.eventTypes())
		assert.Equal(t, []string{"no-such-program-here", "arg"}, ts.lastEvent(t).Command())
		assert.Equal(t, "-shellfyre: no-such-program-here: command not found\n", ts.stderr.String())
	})

	t.Run("runs in shell directory", func(t *testing.T) {
		ts := newTestShell(t, "")
		mkdirs(t, ts.Home, "sub")

		assert.Equal(t, CodeSuccess, ts.RunLine("cd sub"))
		assert.Equal(t, CodeSuccess, ts.RunLine("pwd"))
		assert.Equal(t, filepath.Join(ts.Home, "sub")+"\n", ts.stdout.String())
	})

	t.Run("builtin ignores rest of pipeline", func(t *testing.T) {
		ts := newTestShell(t, "")
		mkdirs(t, ts.Home, "sub")

		assert.Equal(t, CodeSuccess, ts.RunLine("cd sub | cat > out"))
		assert.Equal(t, filepath.Join(ts.Home, "sub"), ts.Dir())
		assert.NoFileExists(t, filepath.Join(ts.Home, "out"))
	})

	t.Run("exit", func(t *testing.T) {
		ts := newTestShell(t, "")

		assert.Equal(t, CodeExit, ts.RunLine("exit"))
		assert.True(t, ts.Quit)
	})
}

func TestShell_RunInteractive(t *testing.T) {
	t.Run("stops at exit", func(t *testing.T) {
		ts := newTestShell(t, "echo one\n\nexit\necho two\n")

		assert.Equal(t, CodeExit, ts.RunInteractive())
		assert.Equal(t, "one\n", ts.stdout.String())
	})

	t.Run("stops at end of input", func(t *testing.T) {
		ts := newTestShell(t, "echo one\necho two")

		assert.Equal(t, CodeExit, ts.RunInteractive())
		assert.Equal(t, "one\ntwo\n", ts.stdout.String())
	})

	t.Run("continues after unknown command", func(t *testing.T) {
		ts := newTestShell(t, "no-such-program-here\necho after\n")

		assert.Equal(t, CodeExit, ts.RunInteractive())
		assert.Equal(t, "after\n", ts.stdout.String())
	})

	t.Run("shows prompt", func(t *testing.T) {
		ts := newTestShell(t, "exit\n")
		ts.Interactive = true
		ts.Config.Prompt = "> "

		assert.Equal(t, CodeExit, ts.RunInteractive())
		assert.Equal(t, "> ", ts.stdout.String())
	})
}

type interruptingReader struct {
	lines []string
	errs  []error
}

func (r *interruptingReader) SetPrompt(string) {}

func (r *interruptingReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line, err := r.lines[0], r.errs[0]
	r.lines, r.errs = r.lines[1:], r.errs[1:]
	return line, err
}

func TestShell_RunInteractive_interrupt(t *testing.T) {
	ts := newTestShell(t, "")
	ts.Input = &interruptingReader{
		lines: []string{"partial", "echo ok"},
		errs:  []error{ErrInterrupt, nil},
	}

	assert.Equal(t, CodeExit, ts.RunInteractive())
	assert.Equal(t, "ok\n", ts.stdout.String())
}
