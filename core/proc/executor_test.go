//go:build unix

package proc

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/josephlewis42/shellfyre/core/shell"
	"github.com/stretchr/testify/assert"
)

type testExecutor struct {
	*Executor
	dir    string
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestExecutor(t *testing.T) *testExecutor {
	t.Helper()

	te := &testExecutor{
		dir:    t.TempDir(),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	te.Executor = NewExecutor(Stdio{
		In:  strings.NewReader(""),
		Out: te.stdout,
		Err: te.stderr,
	})
	te.Executor.Dir = te.dir
	return te
}

func (te *testExecutor) run(t *testing.T, line string) (int, error) {
	t.Helper()

	type result struct {
		status int
		err    error
	}
	done := make(chan result, 1)
	go func() {
		status, err := te.Execute(shell.Parse(line))
		done <- result{status, err}
	}()

	select {
	case r := <-done:
		return r.status, r.err
	case <-time.After(10 * time.Second):
		t.Fatalf("%q did not finish", line)
		return 0, nil
	}
}

func (te *testExecutor) readFile(t *testing.T, name string) string {
	t.Helper()

	b, err := os.ReadFile(filepath.Join(te.dir, name))
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}

func (te *testExecutor) writeFile(t *testing.T, name, contents string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(te.dir, name), []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestExecute_pipe(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.run(t, "echo hi | tr h H")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "Hi\n", te.stdout.String())
	assert.Empty(t, te.stderr.String())
}

func TestExecute_redirectOut(t *testing.T) {
	te := newTestExecutor(t)
	te.writeFile(t, "out.txt", "previous contents that are longer\n")

	status, err := te.run(t, "echo hi | tr h H > out.txt")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, te.stdout.String())
	assert.Equal(t, "Hi\n", te.readFile(t, "out.txt"))
}

func TestExecute_redirectInAndAppend(t *testing.T) {
	te := newTestExecutor(t)
	te.writeFile(t, "in.txt", "b\na\n")

	for i := 0; i < 2; i++ {
		status, err := te.run(t, "sort < in.txt >> out.txt")
		assert.NoError(t, err)
		assert.Equal(t, 0, status)
	}

	assert.Equal(t, "a\nb\na\nb\n", te.readFile(t, "out.txt"))
}

func TestExecute_redirectsOnlyAtBoundaries(t *testing.T) {
	te := newTestExecutor(t)
	te.writeFile(t, "in.txt", "first\n")

	// The second stage's input redirect loses to the pipe and the first
	// stage's output redirect loses to the pipe.
	status, err := te.run(t, "cat < in.txt > ignored.txt | cat < ignored.txt")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "first\n", te.stdout.String())
	assert.NoFileExists(t, filepath.Join(te.dir, "ignored.txt"))
}

func TestExecute_lastStageStatus(t *testing.T) {
	cases := map[string]int{
		"true":           0,
		"false":          1,
		"true | false":   1,
		"false | true":   0,
		"echo x | false": 1,
	}

	for line, expected := range cases {
		t.Run(line, func(t *testing.T) {
			te := newTestExecutor(t)

			status, err := te.run(t, line)

			assert.NoError(t, err)
			assert.Equal(t, expected, status)
		})
	}
}

func TestExecute_signalStatus(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.Execute(&shell.Pipeline{
		Stages: []shell.Stage{{Name: "sh", Args: []string{"-c", "kill -9 $$"}}},
	})

	assert.NoError(t, err)
	assert.Equal(t, 128+9, status)
}

func TestExecute_notFound(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.run(t, "shellfyre-no-such-program --flag")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, StatusNotFound, status)
	assert.Equal(t, "-shellfyre: shellfyre-no-such-program: command not found\n", te.stderr.String())
}

func TestExecute_missingMiddleStage(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.run(t, "echo hi | shellfyre-no-such-program | cat")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Empty(t, te.stdout.String())
	assert.Contains(t, te.stderr.String(), "shellfyre-no-such-program: command not found")
}

func TestExecute_missingFirstStage(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.run(t, "shellfyre-no-such-program | wc -l")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "0", strings.TrimSpace(te.stdout.String()))
}

func TestExecute_missingInputRedirect(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.run(t, "cat < missing.txt")

	assert.Error(t, err)
	assert.Equal(t, 1, status)
	assert.Equal(t, "-shellfyre: missing.txt: no such file or directory\n", te.stderr.String())
}

func TestExecute_background(t *testing.T) {
	te := newTestExecutor(t)

	start := time.Now()
	status, err := te.run(t, "sleep 5 &")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Less(t, int64(time.Since(start)), int64(3*time.Second))
}

func TestExecute_backgroundPipeline(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.run(t, "echo hi | tr h H > out.txt &")
	assert.NoError(t, err)
	assert.Equal(t, 0, status)

	assert.Eventually(t, func() bool {
		b, _ := os.ReadFile(filepath.Join(te.dir, "out.txt"))
		return string(b) == "Hi\n"
	}, 5*time.Second, 10*time.Millisecond)
}

func TestExecute_workingDirectory(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.run(t, "pwd")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)

	expected, _ := filepath.EvalSymlinks(te.dir)
	actual, _ := filepath.EvalSymlinks(strings.TrimSpace(te.stdout.String()))
	assert.Equal(t, expected, actual)
}

func TestExecutor_Run(t *testing.T) {
	te := newTestExecutor(t)

	status, err := te.Run("echo", "a", "b")

	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "a b\n", te.stdout.String())
}

func TestExecutor_WithStdio(t *testing.T) {
	te := newTestExecutor(t)
	captured := &bytes.Buffer{}

	_, err := te.WithStdio(Stdio{Out: captured, Err: te.stderr}).Run("echo", "captured")

	assert.NoError(t, err)
	assert.Equal(t, "captured\n", captured.String())
	assert.Empty(t, te.stdout.String())
}
