//go:build unix

package commands

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/josephlewis42/shellfyre/core/shell"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllBuiltins(t *testing.T) {
	expected := []string{
		"cd",
		"cdh",
		"exit",
		"filesearch",
		"help",
		"hotandcold",
		"joke",
		"joker",
		"pstraverse",
		"resetrecord",
		"take",
	}
	assert.Equal(t, expected, BuiltinNames())

	for _, name := range BuiltinNames() {
		t.Run(name, func(t *testing.T) {
			assert.NotNil(t, AllBuiltins[name])
			assert.NotEmpty(t, BuiltinUsage(name))
		})
	}
}

func TestDispatch(t *testing.T) {
	ts := newTestShell(t, "")

	code, ok := Dispatch(ts.Shell, shell.Parse("ls -l"))
	assert.False(t, ok)
	assert.Equal(t, CodeSuccess, code)

	code, ok = Dispatch(ts.Shell, shell.Parse("cd /does/not/exist"))
	assert.True(t, ok)
	assert.Equal(t, CodeSuccess, code)
	assert.Equal(t, 1, ts.LastStatus())

	code, ok = Dispatch(ts.Shell, shell.Parse("exit"))
	assert.True(t, ok)
	assert.Equal(t, CodeExit, code)
}

func TestHelp(t *testing.T) {
	ts := newTestShell(t, "")

	assert.Equal(t, CodeSuccess, ts.RunLine("help"))
	assert.Equal(t, 0, ts.LastStatus())
	for _, name := range BuiltinNames() {
		assert.Contains(t, ts.stdout.String(), BuiltinUsage(name))
	}
}

func TestHelp_badFlag(t *testing.T) {
	ts := newTestShell(t, "")

	ts.RunLine("help --bogus")
	assert.Equal(t, 1, ts.LastStatus())
	assert.Contains(t, ts.stdout.String(), "usage: help")
	assert.Equal(t, []string{logger.TypeInvalidInvocation}, ts.eventTypes())
}

func TestCd(t *testing.T) {
	t.Run("relative", func(t *testing.T) {
		ts := newTestShell(t, "")
		mkdirs(t, ts.Home, "a/b")

		ts.RunLine("cd a/b")
		assert.Equal(t, 0, ts.LastStatus())
		assert.Equal(t, filepath.Join(ts.Home, "a", "b"), ts.Dir())

		event := ts.lastEvent(t)
		assert.Equal(t, logger.TypeDirectoryChange, event.Type)
		assert.Equal(t, ts.Dir(), event.String("path"))

		dirs, err := ts.History.All()
		require.Nil(t, err)
		assert.Equal(t, []string{ts.Dir()}, dirs)
	})

	t.Run("home", func(t *testing.T) {
		ts := newTestShell(t, "")
		mkdirs(t, ts.Home, "a")
		require.Nil(t, ts.Chdir("a"))

		ts.RunLine("cd")
		assert.Equal(t, 0, ts.LastStatus())
		assert.Equal(t, ts.Home, ts.Dir())
	})

	t.Run("missing", func(t *testing.T) {
		ts := newTestShell(t, "")
		before := ts.Dir()

		ts.RunLine("cd missing")
		assert.Equal(t, 1, ts.LastStatus())
		assert.Equal(t, before, ts.Dir())
		assert.Equal(t, "-shellfyre: cd: no such file or directory\n", ts.stderr.String())

		dirs, err := ts.History.All()
		require.Nil(t, err)
		assert.Empty(t, dirs)
	})

	t.Run("too many arguments", func(t *testing.T) {
		ts := newTestShell(t, "")

		ts.RunLine("cd a b")
		assert.Equal(t, 1, ts.LastStatus())
		assert.Equal(t, "-shellfyre: cd: too many arguments\n", ts.stderr.String())
		assert.Equal(t, []string{logger.TypeInvalidInvocation}, ts.eventTypes())
	})
}

func TestCdh(t *testing.T) {
	visit := func(t *testing.T, ts *testShell, dirs ...string) {
		t.Helper()
		for _, dir := range dirs {
			ts.RunLine("cd " + filepath.Join(ts.Home, dir))
			require.Equal(t, 0, ts.LastStatus())
		}
		ts.stdout.Reset()
	}

	cases := map[string]struct {
		choice   string
		expected string
	}{
		"letter":        {choice: "c", expected: "one"},
		"number":        {choice: "2", expected: "two"},
		"most recent":   {choice: "a", expected: "three"},
		"surrounded ws": {choice: "  1 ", expected: "three"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			ts := newTestShell(t, "")
			mkdirs(t, ts.Home, "one", "two", "three")
			visit(t, ts, "one", "two", "three")

			ts.setInput(tc.choice + "\n")
			ts.RunLine("cdh")

			assert.Equal(t, 0, ts.LastStatus())
			assert.Equal(t, filepath.Join(ts.Home, tc.expected), ts.Dir())

			expectedMenu := fmt.Sprintf(
				"a 1) %s\nb 2) %s\nc 3) %s\nSelect directory by letter or number: ",
				filepath.Join(ts.Home, "three"),
				filepath.Join(ts.Home, "two"),
				filepath.Join(ts.Home, "one"))
			assert.Equal(t, expectedMenu, ts.stdout.String())
		})
	}

	t.Run("invalid selection", func(t *testing.T) {
		ts := newTestShell(t, "")
		mkdirs(t, ts.Home, "one")
		visit(t, ts, "one")

		ts.setInput("z\n")
		ts.RunLine("cdh")

		assert.Equal(t, 1, ts.LastStatus())
		assert.Equal(t, filepath.Join(ts.Home, "one"), ts.Dir())
		assert.Equal(t, logger.TypeInvalidInvocation, ts.lastEvent(t).Type)
	})

	t.Run("empty history", func(t *testing.T) {
		ts := newTestShell(t, "")

		ts.RunLine("cdh")

		assert.Equal(t, 0, ts.LastStatus())
		assert.Equal(t, "No directories visited yet.\n", ts.stdout.String())
	})

	t.Run("limited to ten", func(t *testing.T) {
		ts := newTestShell(t, "")
		var dirs []string
		for i := 0; i < 12; i++ {
			dirs = append(dirs, fmt.Sprintf("d%d", i))
		}
		mkdirs(t, ts.Home, dirs...)
		visit(t, ts, dirs...)

		ts.setInput("\n")
		ts.RunLine("cdh")

		assert.Contains(t, ts.stdout.String(), "j 10) "+filepath.Join(ts.Home, "d2")+"\n")
		assert.NotContains(t, ts.stdout.String(), "d1\n")
	})
}

func TestSelectionIndex(t *testing.T) {
	cases := map[string]struct {
		choice   string
		n        int
		expected int
	}{
		"first letter":   {choice: "a", n: 3, expected: 0},
		"last letter":    {choice: "c", n: 3, expected: 2},
		"letter too far": {choice: "d", n: 3, expected: -1},
		"uppercase":      {choice: "A", n: 3, expected: -1},
		"first number":   {choice: "1", n: 3, expected: 0},
		"last number":    {choice: "3", n: 3, expected: 2},
		"zero":           {choice: "0", n: 3, expected: -1},
		"number too far": {choice: "4", n: 3, expected: -1},
		"ten":            {choice: "10", n: 10, expected: 9},
		"empty":          {choice: "", n: 3, expected: -1},
		"word":           {choice: "abc", n: 3, expected: -1},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			assert.Equal(t, tc.expected, selectionIndex(tc.choice, tc.n))
		})
	}
}

func TestTake(t *testing.T) {
	t.Run("creates parents", func(t *testing.T) {
		ts := newTestShell(t, "")

		ts.RunLine("take x/y/z")
		assert.Equal(t, 0, ts.LastStatus())
		assert.Equal(t, filepath.Join(ts.Home, "x", "y", "z"), ts.Dir())
		assert.DirExists(t, ts.Dir())
		assert.Equal(t, logger.TypeDirectoryChange, ts.lastEvent(t).Type)
	})

	t.Run("existing", func(t *testing.T) {
		ts := newTestShell(t, "")
		mkdirs(t, ts.Home, "x")

		ts.RunLine("take x")
		assert.Equal(t, 0, ts.LastStatus())
		assert.Equal(t, filepath.Join(ts.Home, "x"), ts.Dir())
	})

	t.Run("arity", func(t *testing.T) {
		ts := newTestShell(t, "")
		before := ts.Dir()

		ts.RunLine("take")
		assert.Equal(t, 1, ts.LastStatus())
		ts.RunLine("take a b")
		assert.Equal(t, 1, ts.LastStatus())

		assert.Equal(t, before, ts.Dir())
		assert.Equal(t, []string{logger.TypeInvalidInvocation, logger.TypeInvalidInvocation}, ts.eventTypes())
	})
}
