// Package filesys provides file system abstractions for the myip CLI.
// The config loader and the change monitor's address cache depend on the
// small interfaces below instead of the os package so they can be tested
// against an in-memory or mocked file system.
package filesys

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
)

// ReadWriteFS is the surface the config loader needs.
type ReadWriteFS interface {
	Stat(string) (fs.FileInfo, error)
	MkdirAll(string, os.FileMode) error
	Open(string) (*os.File, error)
	WriteFile(string, []byte, os.FileMode) error
}

// FileOps is what the address cache needs to read a snapshot and replace it
// atomically.
type FileOps interface {
	Open(string) (*os.File, error)
	ReadFile(string) ([]byte, error)
	MkdirAll(string, os.FileMode) error
	CreateTemp(string, string) (*os.File, error)
	Rename(string, string) error
	Remove(string) error
	Chmod(string, os.FileMode) error
}

// OS returns a file system implementation that delegates to the standard library.
func OS() OsFS {
	return OsFS{}
}

// OsFS implements both ReadWriteFS and FileOps against the local disk.
type OsFS struct{}

func (OsFS) Stat(p string) (fs.FileInfo, error)                { return os.Stat(p) }
func (OsFS) MkdirAll(p string, m os.FileMode) error            { return os.MkdirAll(p, m) }
func (OsFS) Open(p string) (*os.File, error)                   { return os.Open(p) }
func (OsFS) ReadFile(p string) ([]byte, error)                 { return os.ReadFile(p) }
func (OsFS) WriteFile(p string, b []byte, m os.FileMode) error { return os.WriteFile(p, b, m) }
func (OsFS) CreateTemp(dir, pat string) (*os.File, error)      { return os.CreateTemp(dir, pat) }
func (OsFS) Rename(old, newName string) error                  { return os.Rename(old, newName) }
func (OsFS) Remove(p string) error                             { return os.Remove(p) }
func (OsFS) Chmod(p string, m os.FileMode) error               { return os.Chmod(p, m) }

var (
	_ ReadWriteFS = OsFS{}
	_ FileOps     = OsFS{}
)

// AtomicWrite replaces dst with data so readers see either the old or the
// new contents, never a partial file:
//
//  1. temp file in the same dir
//  2. fsync(temp) + close
//  3. chmod(temp, perm)
//  4. rename(temp, dst)
//  5. fsync(dir), best effort
//
// The parent directory is created if missing. A failed step removes the temp
// file; a failure to remove it is reported alongside the original error.
func AtomicWrite(fsys FileOps, dst string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(dst)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	tmp, err := fsys.CreateTemp(dir, ".myip-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	name := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	err = multierr.Append(err, tmp.Close())
	if err == nil {
		err = fsys.Chmod(name, perm)
	}
	if err == nil {
		err = fsys.Rename(name, dst)
	}
	if err != nil {
		return multierr.Append(
			fmt.Errorf("writing %s: %w", dst, err),
			ignoreNotExist(fsys.Remove(name)),
		)
	}

	// Directory sync makes the rename durable; not every platform supports it.
	if d, derr := fsys.Open(dir); derr == nil {
		_ = d.Sync()
		_ = d.Close()
	}
	return nil
}

func ignoreNotExist(err error) error {
	if err == nil || os.IsNotExist(err) {
		return nil
	}
	return fmt.Errorf("removing temp file: %w", err)
}
