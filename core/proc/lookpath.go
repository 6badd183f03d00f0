package proc

import (
	"io/fs"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// ErrNotFound is the error resulting if a path search failed to find an executable file.
var ErrNotFound = exec.ErrNotFound

func findExecutable(fsys afero.Fs, file string) error {
	d, err := fsys.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0111 != 0 {
		return nil
	}
	return fs.ErrPermission
}

// LookPath searches for an executable named file in the directories of
// searchPath, a list separated by the OS path list separator. If file contains
// a slash, it is tried directly and the search path is not consulted.
//
// Relative results are resolved against dir, the caller's working directory,
// rather than the working directory of the process.
func LookPath(fsys afero.Fs, searchPath, dir, file string) (string, error) {
	if strings.Contains(file, "/") {
		path := resolve(dir, file)
		if err := findExecutable(fsys, path); err != nil {
			return "", err
		}
		return path, nil
	}

	if file == "" {
		return "", ErrNotFound
	}

	for _, elem := range filepath.SplitList(searchPath) {
		if elem == "" {
			// Unix shell semantics: path element "" means "."
			elem = "."
		}
		path := resolve(dir, filepath.Join(elem, file))
		if err := findExecutable(fsys, path); err == nil {
			return path, nil
		}
	}
	return "", ErrNotFound
}

func resolve(dir, path string) string {
	if filepath.IsAbs(path) || dir == "" {
		return path
	}
	return filepath.Join(dir, path)
}
