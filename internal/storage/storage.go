// Package storage keeps catalog and distribution files under a data directory.
//
// Catalog files live at deterministic paths that are overwritten by every accepted
// submission. Writes are staged next to their target and promoted under a per-node
// file lock, so a reader never sees a partially written catalog and two writers for
// the same node cannot interleave. Distribution versions get a fresh directory per
// upload and are never overwritten.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/stacklok/opendata-catalog-server/internal/catalog"
)

// ErrStorage is returned when the filesystem rejects a write
var ErrStorage = errors.New("storage failure")

const (
	fileMode os.FileMode = 0o640
	dirMode  os.FileMode = 0o750

	lockDir        = ".locks"
	lockRetryDelay = 25 * time.Millisecond
)

// Storage stores files relative to a root directory
type Storage struct {
	root string
}

// New creates a Storage rooted at dataDir, creating the directory if needed
func New(dataDir string) (*Storage, error) {
	root, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to resolve data directory: %w", ErrStorage, err)
	}
	if err := mkdirAll(filepath.Join(root, lockDir)); err != nil {
		return nil, err
	}
	slog.Debug("Storage initialized", "data_dir", root)
	return &Storage{root: root}, nil
}

// Root returns the absolute data directory
func (s *Storage) Root() string {
	return s.root
}

func (s *Storage) abs(rel string) string {
	return filepath.Join(s.root, filepath.FromSlash(rel))
}

// Entry is one file of a staged write
type Entry struct {
	Path string
	Data []byte
}

// Staged holds files written to temporary names next to their final location
type Staged struct {
	storage *Storage
	node    string
	entries []stagedEntry
	done    bool
}

type stagedEntry struct {
	path string
	tmp  string
}

// Stage writes each entry to a temporary file beside its target. Nothing is
// visible at the target paths until Promote is called.
func (s *Storage) Stage(node string, entries ...Entry) (*Staged, error) {
	if err := checkComponent("node", node); err != nil {
		return nil, err
	}

	staged := &Staged{storage: s, node: node}
	for _, e := range entries {
		tmp, err := s.writeTemp(e.Path, e.Data)
		if err != nil {
			staged.Discard()
			return nil, err
		}
		staged.entries = append(staged.entries, stagedEntry{path: e.Path, tmp: tmp})
	}
	return staged, nil
}

func (s *Storage) writeTemp(rel string, data []byte) (string, error) {
	target := s.abs(rel)
	dir := filepath.Dir(target)
	if err := mkdirAll(dir); err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, ".staging-*")
	if err != nil {
		return "", fmt.Errorf("%w: failed to create staging file for %s: %w", ErrStorage, rel, err)
	}
	tmp := f.Name()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: failed to write %s: %w", ErrStorage, rel, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: failed to sync %s: %w", ErrStorage, rel, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: failed to close %s: %w", ErrStorage, rel, err)
	}
	if err := os.Chmod(tmp, fileMode); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("%w: failed to set mode on %s: %w", ErrStorage, rel, err)
	}
	return tmp, nil
}

// Paths returns the final relative paths of the staged entries
func (st *Staged) Paths() []string {
	paths := make([]string, len(st.entries))
	for i, e := range st.entries {
		paths[i] = e.path
	}
	return paths
}

// Promote moves every staged file to its final path, removing whatever was there.
// It holds the node's file lock for the duration.
func (st *Staged) Promote(ctx context.Context) error {
	if st.done {
		return fmt.Errorf("%w: staged files already promoted or discarded", ErrStorage)
	}

	unlock, err := st.storage.lockNode(ctx, st.node)
	if err != nil {
		return err
	}
	defer unlock()

	for i, e := range st.entries {
		target := st.storage.abs(e.path)
		if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
			st.discardFrom(i)
			return fmt.Errorf("%w: failed to remove previous %s: %w", ErrStorage, e.path, err)
		}
		if err := os.Rename(e.tmp, target); err != nil {
			st.discardFrom(i)
			return fmt.Errorf("%w: failed to move %s into place: %w", ErrStorage, e.path, err)
		}
	}
	st.done = true
	return nil
}

// Discard removes the staged files. It is safe to call after Promote.
func (st *Staged) Discard() {
	if st.done {
		return
	}
	st.discardFrom(0)
}

func (st *Staged) discardFrom(i int) {
	for _, e := range st.entries[i:] {
		if err := os.Remove(e.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
			slog.Warn("Failed to remove staging file", "path", e.tmp, "error", err)
		}
	}
	st.done = true
}

// lockNode takes the node's exclusive file lock
func (s *Storage) lockNode(ctx context.Context, node string) (func(), error) {
	fl := flock.New(filepath.Join(s.root, lockDir, node+".lock"), flock.SetPermissions(fileMode))
	locked, err := fl.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to lock node %s: %w", ErrStorage, node, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: could not lock node %s", ErrStorage, node)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			slog.Warn("Failed to release node lock", "node", node, "error", err)
		}
	}, nil
}

// Store writes a catalog to its canonical path and returns that path
func (s *Storage) Store(ctx context.Context, node string, format catalog.Format, data []byte) (string, error) {
	rel, err := CatalogPath(node, format)
	if err != nil {
		return "", err
	}
	staged, err := s.Stage(node, Entry{Path: rel, Data: data})
	if err != nil {
		return "", err
	}
	if err := staged.Promote(ctx); err != nil {
		return "", err
	}
	return rel, nil
}

// StoreVersion writes a distribution upload into a new version directory and
// returns its relative path
func (s *Storage) StoreVersion(
	node, distribution, fileName string,
	uploadedAt time.Time,
	data []byte,
) (string, error) {
	rel, err := VersionPath(node, distribution, VersionMarker(uploadedAt), fileName)
	if err != nil {
		return "", err
	}

	target := s.abs(rel)
	if err := mkdirAll(filepath.Dir(target)); err != nil {
		return "", err
	}
	// O_EXCL: version files are never overwritten
	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, fileMode)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create %s: %w", ErrStorage, rel, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: failed to write %s: %w", ErrStorage, rel, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: failed to close %s: %w", ErrStorage, rel, err)
	}
	if err := os.Chmod(target, fileMode); err != nil {
		_ = os.Remove(target)
		return "", fmt.Errorf("%w: failed to set mode on %s: %w", ErrStorage, rel, err)
	}
	return rel, nil
}

// Open opens a stored file for reading
func (s *Storage) Open(rel string) (io.ReadSeekCloser, error) {
	f, err := os.Open(s.abs(rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to open %s: %w", ErrStorage, rel, err)
	}
	return f, nil
}

// ReadFile returns the content of a stored file
func (s *Storage) ReadFile(rel string) ([]byte, error) {
	data, err := os.ReadFile(s.abs(rel))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: failed to read %s: %w", ErrStorage, rel, err)
	}
	return data, nil
}

// LocalPath returns the absolute filesystem path of a stored file
func (s *Storage) LocalPath(rel string) string {
	return s.abs(rel)
}

// RemoveVersion deletes a version file and its marker directory. Missing files are ignored.
func (s *Storage) RemoveVersion(rel string) error {
	target := s.abs(rel)
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: failed to remove %s: %w", ErrStorage, rel, err)
	}
	// The marker directory only ever holds this one file
	if err := os.Remove(filepath.Dir(target)); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Debug("Version directory not removed", "path", filepath.Dir(target), "error", err)
	}
	return nil
}

func mkdirAll(dir string) error {
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return fmt.Errorf("%w: failed to create directory %s: %w", ErrStorage, dir, err)
	}
	if err := os.Chmod(dir, dirMode); err != nil {
		return fmt.Errorf("%w: failed to set mode on %s: %w", ErrStorage, dir, err)
	}
	return nil
}
