// Package layout implements the on-disk output tree (spec §4.9): lazy
// per-version directory creation, atomic write-then-rename, and stale
// temp-file cleanup left behind by an interrupted prior run. Grounded on
// the teacher's service/cas.Disk staging-directory / blobFinalizer pattern,
// adapted to write straight to each asset's final path rather than a
// content-addressed cache tree.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	pipelineerrors "github.com/cdnmirror/mirrorctl/internal/errors"
)

// tempPrefix marks an in-progress write so a later run can recognise and
// remove a file left behind by a SIGINT (spec §5, "Cancellation").
const tempPrefix = ".mirrorctl-tmp-"

// Tree roots an output directory holding one subdirectory per version.
type Tree struct {
	root string
}

// New returns a Tree rooted at root. root is not created until a version
// directory is first requested.
func New(root string) *Tree {
	return &Tree{root: root}
}

// AssetPath returns the final path for a named asset of the given version,
// without creating any directory.
func (t *Tree) AssetPath(version uint64, name string) string {
	return filepath.Join(t.root, strconv.FormatUint(version, 10), name)
}

// VersionDir returns the path of a version's output directory, without
// creating it.
func (t *Tree) VersionDir(version uint64) string {
	return filepath.Join(t.root, strconv.FormatUint(version, 10))
}

// VersionDirExists reports whether a version's directory is already
// present, used by --checksum selection (spec §4.5).
func (t *Tree) VersionDirExists(version uint64) bool {
	info, err := os.Stat(t.VersionDir(version))
	return err == nil && info.IsDir()
}

// EnsureVersionDir lazily creates a version's output directory, 0o755.
// An EACCES (or any other mkdir failure) is fatal to the process per
// spec §4.9/§7.
func (t *Tree) EnsureVersionDir(version uint64) error {
	dir := t.VersionDir(version)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &pipelineerrors.IOPermissionError{Path: dir, Cause: err}
	}
	return nil
}

// WriteAtomic writes body to the final path for (version, name) by first
// writing to a sibling temp file under the version directory, then
// renaming it into place - a crash or SIGINT between the two leaves only
// the recognisably-named temp file, never a partially written final file.
func (t *Tree) WriteAtomic(version uint64, name string, body []byte) error {
	if err := t.EnsureVersionDir(version); err != nil {
		return err
	}
	dir := t.VersionDir(version)

	tmp, err := os.CreateTemp(dir, tempPrefix+name+"-*")
	if err != nil {
		return &pipelineerrors.IOPermissionError{Path: dir, Cause: err}
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return fmt.Errorf("writing staging file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing staging file %s: %w", tmpPath, err)
	}

	finalPath := t.AssetPath(version, name)
	if err := os.Rename(tmpPath, finalPath); err != nil {
		return fmt.Errorf("renaming %s to %s: %w", tmpPath, finalPath, err)
	}
	return nil
}

// CleanStale removes any leftover temp files from a version directory,
// recognised by tempPrefix, left behind by a prior interrupted run.
func (t *Tree) CleanStale(version uint64) error {
	dir := t.VersionDir(version)
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if matchesStalePrefix(entry.Name()) {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
	}
	return nil
}

func matchesStalePrefix(name string) bool {
	return len(name) >= len(tempPrefix) && name[:len(tempPrefix)] == tempPrefix
}
