package report

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// ReadLines reads a document and splits it with SplitLines.
func ReadLines(fs afero.Fs, path string) ([]string, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", path, err)
	}
	return SplitLines(string(data)), nil
}

// FileMode returns the permission bits of path, or 0644 when it cannot be
// stat'ed.
func FileMode(fs afero.Fs, path string) os.FileMode {
	if info, err := fs.Stat(path); err == nil {
		return info.Mode().Perm()
	}
	return 0644
}

// WriteFileAtomic writes data to a temp file next to path and renames it into
// place, so readers see either the old or the new content.
// On an OsFs a symlinked path is resolved first so the link keeps pointing at
// the updated target.
func WriteFileAtomic(fs afero.Fs, path string, data []byte, perm os.FileMode) error {
	if _, ok := fs.(*afero.OsFs); ok {
		if resolved, err := filepath.EvalSymlinks(path); err == nil {
			path = resolved
		}
	}
	dir := filepath.Dir(path)

	// Same directory keeps the rename on one filesystem.
	tmp, err := afero.TempFile(fs, dir, tmpPattern(filepath.Base(path)))
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanupTmp := true

	defer func() {
		_ = tmp.Close()
		if cleanupTmp {
			_ = fs.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := fs.Chmod(tmpName, perm); err != nil {
		return fmt.Errorf("chmod temp file: %w", err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename temp file into place: %w", err)
	}
	cleanupTmp = false
	return nil
}

func tmpPattern(base string) string {
	// TempFile replaces the trailing * with a random suffix.
	return fmt.Sprintf(".%s.*", base)
}
