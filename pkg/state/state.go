package state

import (
	"fmt"
	"os"
	"path/filepath"
)

// Dirs is the resolved runtime folder layout under the state path.
type Dirs struct {
	Root   string
	Audit  string
	Images string
	Tmp    string
}

// EnsureStateDirs creates the canonical runtime layout under statePath and
// verifies each directory is a real, writable directory with restrictive
// permissions. Symlinked state dirs are rejected.
func EnsureStateDirs(statePath string) (Dirs, error) {
	dirs := Dirs{
		Root:   statePath,
		Audit:  filepath.Join(statePath, "audit"),
		Images: filepath.Join(statePath, "images"),
		Tmp:    filepath.Join(statePath, "tmp"),
	}
	for _, p := range []string{dirs.Root, dirs.Audit, dirs.Images, dirs.Tmp} {
		if fi, err := os.Lstat(p); err == nil {
			if fi.Mode()&os.ModeSymlink != 0 {
				return Dirs{}, fmt.Errorf("state path is a symlink: %s", p)
			}
			if !fi.IsDir() {
				return Dirs{}, fmt.Errorf("state path exists and is not a directory: %s", p)
			}
			if fi.Mode().Perm()&0o022 != 0 {
				return Dirs{}, fmt.Errorf("state path has group/other write mode: %s", p)
			}
		}
		if err := os.MkdirAll(p, 0o700); err != nil {
			return Dirs{}, fmt.Errorf("cannot create state path %s: %w", p, err)
		}

		// writability check: create and remove a probe file
		probe, err := os.CreateTemp(p, ".probe-*")
		if err != nil {
			return Dirs{}, fmt.Errorf("state path not writable: %s: %w", p, err)
		}
		name := probe.Name()
		probe.Close()
		if err := os.Remove(name); err != nil {
			return Dirs{}, fmt.Errorf("cannot remove probe file in %s: %w", p, err)
		}
	}
	return dirs, nil
}
