// Package storage implements the on-disk asset store for category images.
//
// The store is a flat directory of files named per the generated asset-name
// grammar, plus a .backups subdirectory managed by the backup manager. All
// paths handed to the store are resolved against the root and rejected if
// they escape it, so handler-layer filename validation is not the only line
// of defense.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// BackupDirName is the subdirectory of the store root that holds pre-replace
// snapshots.
const BackupDirName = ".backups"

// Store is a filesystem asset store rooted at a single directory.
type Store struct {
	root string
}

// New creates a Store rooted at root, creating the directory and its backup
// subdirectory if needed.
func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o750); err != nil {
		return nil, fmt.Errorf("create store root %q: %w", root, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve store root: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(absRoot, BackupDirName), 0o750); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Store{root: absRoot}, nil
}

// Root returns the absolute store root directory.
func (s *Store) Root() string {
	return s.root
}

// BackupDir returns the absolute path of the backup subdirectory.
func (s *Store) BackupDir() string {
	return filepath.Join(s.root, BackupDirName)
}

// abs resolves a store-relative path to a concrete filesystem path, rejecting
// anything that resolves outside the root.
func (s *Store) abs(path string) (string, error) {
	joined := filepath.Join(s.root, filepath.Clean(filepath.FromSlash(path)))
	rel, err := filepath.Rel(s.root, joined)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes store root", path)
	}
	return joined, nil
}

// MoveIn copies the file at sourcePath (anywhere on disk) to the
// store-relative target and then removes the source. Copy+unlink is used
// instead of a rename because the upload temp directory and the store may
// live on different volumes.
func (s *Store) MoveIn(sourcePath, target string) (int64, error) {
	dest, err := s.abs(target)
	if err != nil {
		return 0, err
	}

	src, err := os.Open(sourcePath)
	if err != nil {
		return 0, fmt.Errorf("open source %q: %w", sourcePath, err)
	}

	n, err := writeAtomic(dest, src)
	src.Close()
	if err != nil {
		return 0, err
	}

	if err := os.Remove(sourcePath); err != nil && !os.IsNotExist(err) {
		// The target is already complete; a stale source is reclaimable
		// later and not worth failing the move over.
		return n, nil
	}
	return n, nil
}

// Delete removes the store-relative path. Succeeds silently if the file does
// not exist.
func (s *Store) Delete(path string) error {
	abs, err := s.abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Exists reports whether the store-relative path exists.
func (s *Store) Exists(path string) bool {
	abs, err := s.abs(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Size returns the byte size of the store-relative path.
func (s *Store) Size(path string) (int64, error) {
	abs, err := s.abs(path)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Open opens the store-relative path for reading.
func (s *Store) Open(path string) (io.ReadCloser, error) {
	abs, err := s.abs(path)
	if err != nil {
		return nil, err
	}
	return os.Open(abs)
}

// Abs exposes root-guarded path resolution for collaborators that need the
// concrete filesystem path (integrity checks, optimizer).
func (s *Store) Abs(path string) (string, error) {
	return s.abs(path)
}

// ListFiles returns the names of regular files directly under the store root,
// skipping the backup subdirectory. Returns an empty slice when the root is
// empty.
func (s *Store) ListFiles() ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("read store root: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	return names, nil
}

// CopyFile copies src to dest through a temp file so a crash mid-copy never
// leaves a truncated dest behind.
func CopyFile(src, dest string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("open %q: %w", src, err)
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0o750); err != nil {
		return 0, fmt.Errorf("mkdir %q: %w", filepath.Dir(dest), err)
	}
	return writeAtomic(dest, in)
}

// writeAtomic streams r to dest using a temp-file + rename so partially
// written files are never observable at dest.
func writeAtomic(dest string, r io.Reader) (int64, error) {
	tmp := dest + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o640)
	if err != nil {
		return 0, fmt.Errorf("open tmp %q: %w", tmp, err)
	}

	n, werr := io.Copy(f, r)
	cerr := f.Close()

	if werr != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("stream write: %w", werr)
	}
	if cerr != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("flush: %w", cerr)
	}

	if err := os.Rename(tmp, dest); err != nil {
		os.Remove(tmp)
		return 0, fmt.Errorf("rename to %q: %w", dest, err)
	}
	return n, nil
}
