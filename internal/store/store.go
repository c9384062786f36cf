// Package store persists the sensor address between runs.
//
// The address is kept as raw text in address_data.txt under the application
// data directory. Read and write failures are logged and degrade to "no
// address" rather than stopping the monitor.
package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/muurk/co2viewer/internal/config"
	"github.com/muurk/co2viewer/internal/logging"
)

// FileSystem is the file I/O collaborator behind the store.
type FileSystem interface {
	ReadFile(name string) ([]byte, error)
	WriteFile(name string, data []byte, perm os.FileMode) error
	Rename(oldpath, newpath string) error
	Remove(name string) error
	MkdirAll(path string, perm os.FileMode) error
}

// OSFileSystem implements FileSystem on the local disk.
type OSFileSystem struct{}

// ReadFile calls os.ReadFile.
func (OSFileSystem) ReadFile(name string) ([]byte, error) { return os.ReadFile(name) }

// WriteFile calls os.WriteFile.
func (OSFileSystem) WriteFile(name string, data []byte, perm os.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// Rename calls os.Rename.
func (OSFileSystem) Rename(oldpath, newpath string) error { return os.Rename(oldpath, newpath) }

// Remove calls os.Remove.
func (OSFileSystem) Remove(name string) error { return os.Remove(name) }

// MkdirAll calls os.MkdirAll.
func (OSFileSystem) MkdirAll(path string, perm os.FileMode) error { return os.MkdirAll(path, perm) }

// Store reads and writes the persisted address.
type Store struct {
	path string
	fs   FileSystem
	mu   sync.Mutex
}

// New creates a store for the file at path. A nil fs uses the local disk.
func New(path string, fsys FileSystem) *Store {
	if fsys == nil {
		fsys = OSFileSystem{}
	}
	return &Store{path: path, fs: fsys}
}

// Default creates a store at the platform data directory.
func Default() (*Store, error) {
	path, err := config.GetAddressPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve address file: %w", err)
	}
	return New(path, nil), nil
}

// Path returns the location of the address file.
func (s *Store) Path() string {
	return s.path
}

// Load returns the persisted address. ok is false when the file is missing,
// blank or unreadable.
func (s *Store) Load() (addr string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.fs.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.LogStoreError("read", s.path, err)
		}
		return "", false
	}

	addr = strings.TrimSpace(string(data))
	return addr, addr != ""
}

// Save overwrites the persisted address. The error is logged before it is
// returned; callers are free to ignore it.
func (s *Store) Save(addr string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.save(addr); err != nil {
		logging.LogStoreError("write", s.path, err)
		return err
	}
	return nil
}

func (s *Store) save(addr string) error {
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmpPath := s.path + ".tmp"
	if err := s.fs.WriteFile(tmpPath, []byte(addr), 0600); err != nil {
		return fmt.Errorf("failed to write temporary address file: %w", err)
	}
	if err := s.fs.Rename(tmpPath, s.path); err != nil {
		_ = s.fs.Remove(tmpPath)
		return fmt.Errorf("failed to save address file: %w", err)
	}
	return nil
}

// Clear removes the persisted address. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		logging.LogStoreError("remove", s.path, err)
		return fmt.Errorf("failed to remove address file: %w", err)
	}
	return nil
}
