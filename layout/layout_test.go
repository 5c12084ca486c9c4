package layout_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cdnmirror/mirrorctl/layout"
)

func TestWriteAtomicCreatesVersionDirAndFile(t *testing.T) {
	root := t.TempDir()
	tree := layout.New(root)

	if err := tree.WriteAtomic(100000, "a", []byte("hello")); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(filepath.Join(root, "100000", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("got %q, want %q", got, "hello")
	}
}

func TestWriteAtomicLeavesNoTempFileBehind(t *testing.T) {
	root := t.TempDir()
	tree := layout.New(root)

	if err := tree.WriteAtomic(100000, "a", []byte("hello")); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(root, "100000"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a" {
		t.Fatalf("unexpected directory contents: %+v", entries)
	}
}

func TestVersionDirExists(t *testing.T) {
	root := t.TempDir()
	tree := layout.New(root)

	if tree.VersionDirExists(100000) {
		t.Fatal("expected version directory to not yet exist")
	}
	if err := tree.EnsureVersionDir(100000); err != nil {
		t.Fatal(err)
	}
	if !tree.VersionDirExists(100000) {
		t.Fatal("expected version directory to exist")
	}
}

func TestCleanStaleRemovesOnlyTempFiles(t *testing.T) {
	root := t.TempDir()
	tree := layout.New(root)
	if err := tree.EnsureVersionDir(100000); err != nil {
		t.Fatal(err)
	}
	dir := tree.VersionDir(100000)

	if err := os.WriteFile(filepath.Join(dir, ".mirrorctl-tmp-a-123"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "a"), []byte("final"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := tree.CleanStale(100000); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "a" {
		t.Fatalf("unexpected directory contents after clean: %+v", entries)
	}
}

func TestCleanStaleOnMissingDirIsNoop(t *testing.T) {
	root := t.TempDir()
	tree := layout.New(root)
	if err := tree.CleanStale(999); err != nil {
		t.Fatal(err)
	}
}
