package state

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureStateDirsCreatesLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "state")
	dirs, err := EnsureStateDirs(root)
	if err != nil {
		t.Fatalf("EnsureStateDirs: %v", err)
	}
	for _, p := range []string{dirs.Root, dirs.Audit, dirs.Images, dirs.Tmp} {
		fi, err := os.Stat(p)
		if err != nil {
			t.Fatalf("stat %s: %v", p, err)
		}
		if !fi.IsDir() {
			t.Fatalf("%s is not a directory", p)
		}
		if fi.Mode().Perm()&0o022 != 0 {
			t.Fatalf("%s has group/other write mode %v", p, fi.Mode().Perm())
		}
	}
	// Idempotent.
	if _, err := EnsureStateDirs(root); err != nil {
		t.Fatalf("EnsureStateDirs again: %v", err)
	}
}

func TestEnsureStateDirsRejectsFile(t *testing.T) {
	root := filepath.Join(t.TempDir(), "state")
	if err := os.WriteFile(root, []byte("x"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := EnsureStateDirs(root); err == nil {
		t.Fatal("expected error for non-directory state path")
	}
}

func TestEnsureStateDirsRejectsSymlink(t *testing.T) {
	tmp := t.TempDir()
	target := filepath.Join(tmp, "target")
	if err := os.MkdirAll(target, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	link := filepath.Join(tmp, "state")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if _, err := EnsureStateDirs(link); err == nil {
		t.Fatal("expected error for symlinked state path")
	}
}
