//go:build unix

package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/josephlewis42/shellfyre/core/logger"
	"github.com/stretchr/testify/assert"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return out.String(), err
}

func TestParseCmd(t *testing.T) {
	out, err := execute(t, "parse", "cat < in | wc -l &")

	assert.Nil(t, err)
	assert.Contains(t, out, "cat")
	assert.Contains(t, out, "wc")
	assert.Contains(t, out, "in")
}

func TestBuiltinsCmd(t *testing.T) {
	out, err := execute(t, "builtins")

	assert.Nil(t, err)
	for _, name := range []string{"cd", "cdh", "take", "filesearch", "joke", "joker", "hotandcold", "resetrecord", "pstraverse", "exit", "help"} {
		assert.Contains(t, out, name+" ")
	}
}

func TestRootCmd_command(t *testing.T) {
	dir := t.TempDir()

	_, err := execute(t, "--config", dir, "-c", "true")
	assert.Nil(t, err)

	_, err = execute(t, "--config", dir, "-c", "false")
	assert.Equal(t, exitStatus(1), err)

	_, err = execute(t, "--config", dir, "-c", "no-such-program-here")
	assert.Equal(t, exitStatus(127), err)
}

func TestWriteEventSummary(t *testing.T) {
	var log bytes.Buffer
	session := logger.NewJsonLinesLogRecorder(&log).NewSession()
	session.Record(logger.RunCommand([]string{"ls", "-l"}, "/bin/ls", false))
	session.Record(logger.UnknownCommand([]string{"sl"}, nil))
	session.Record(logger.DirectoryChange("/tmp"))

	t.Run("report", func(t *testing.T) {
		report := logger.NewReport()
		var out bytes.Buffer

		err := writeEventSummary(strings.NewReader(log.String()), &out, report.Update, report)

		assert.Nil(t, err)
		assert.Equal(t, 3, report.LogEntries)
		assert.Contains(t, out.String(), "log_entries: 3")
	})

	t.Run("sessions", func(t *testing.T) {
		var report logger.SessionReport
		var out bytes.Buffer

		err := writeEventSummary(strings.NewReader(log.String()), &out, report.Update, &report)

		assert.Nil(t, err)
		assert.Contains(t, out.String(), session.SessionID())
		assert.Contains(t, out.String(), "ls -l")
		assert.Contains(t, out.String(), "/tmp")
	})

	t.Run("garbled", func(t *testing.T) {
		report := logger.NewReport()
		var out bytes.Buffer

		err := writeEventSummary(strings.NewReader("{not json"), &out, report.Update, report)

		assert.Error(t, err)
	})
}
