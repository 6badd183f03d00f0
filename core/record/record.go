// Package record persists the best score of the guessing game.
package record

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// None is stored when there is no record.
const None = -1

// Store holds a single integer in a file. Every update replaces the whole
// file.
type Store struct {
	fs   afero.Fs
	path string
}

// New creates a store backed by the file at path on fs.
func New(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// Get returns the stored record. A missing or unreadable file counts as None.
func (s *Store) Get() int {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		return None
	}

	val, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return None
	}
	return val
}

// Set overwrites the stored record. The new value is written to a temporary
// file and renamed over the old one so readers never see a partial file.
func (s *Store) Set(val int) error {
	tmp, err := afero.TempFile(s.fs, filepath.Dir(s.path), filepath.Base(s.path)+".tmp-")
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(tmp, "%d\n", val); err != nil {
		tmp.Close()
		s.fs.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmp.Name())
		return err
	}

	if err := s.fs.Rename(tmp.Name(), s.path); err != nil {
		s.fs.Remove(tmp.Name())
		return fmt.Errorf("replacing record: %w", err)
	}
	return nil
}

// Reset clears the record. It is safe to call when there is none.
func (s *Store) Reset() error {
	return s.Set(None)
}

// Beats reports whether tries is a new record.
func (s *Store) Beats(tries int) bool {
	current := s.Get()
	return current == None || tries < current
}
