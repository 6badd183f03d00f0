// Package history keeps the list of directories the shell has visited.
package history

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrEmpty is returned when no directories have been recorded yet.
var ErrEmpty = errors.New("no directories in history")

// DirHistory is an append-only file with one absolute path per line, most
// recent last. It is not locked: concurrent shells sharing a file may
// interleave their writes.
type DirHistory struct {
	fs   afero.Fs
	path string
}

// New creates a history backed by the file at path on fs.
func New(fs afero.Fs, path string) *DirHistory {
	return &DirHistory{fs: fs, path: path}
}

// Append records dir, which must be absolute.
func (h *DirHistory) Append(dir string) error {
	if !filepath.IsAbs(dir) {
		return fmt.Errorf("history entry %q is not absolute", dir)
	}

	fd, err := h.fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintln(fd, dir); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

// All returns every entry, oldest first.
func (h *DirHistory) All() ([]string, error) {
	fd, err := h.fs.Open(h.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, err
	}
	defer fd.Close()

	var out []string
	scanner := bufio.NewScanner(fd)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			out = append(out, line)
		}
	}
	return out, scanner.Err()
}

// Recent returns up to n entries, most recent first. It returns ErrEmpty if
// nothing has been recorded.
func (h *DirHistory) Recent(n int) ([]string, error) {
	all, err := h.All()
	if err != nil {
		return nil, err
	}
	if len(all) == 0 {
		return nil, ErrEmpty
	}

	var out []string
	for i := len(all) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
