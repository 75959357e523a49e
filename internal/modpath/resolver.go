// Package modpath maps coverage report file identifiers to display names
// relative to their outermost enclosing package.
package modpath

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

// DefaultMarker is the file that makes a directory a Python package.
const DefaultMarker = "__init__.py"

// Resolved is the outcome of resolving one file identifier.
type Resolved struct {
	// FileID is the identifier exactly as it appeared in the report.
	FileID string
	// RootPackageDir is the outermost package directory, or "" if none was found.
	RootPackageDir string
	// RelativeModule is the absolute file path with RootPackageDir stripped.
	RelativeModule string
}

// Found reports whether a package root was located.
func (r Resolved) Found() bool {
	return r.RootPackageDir != ""
}

// DisplayName is the name shown in the coverage table. It falls back to the
// raw identifier whenever no root was found or nothing is left after stripping.
func (r Resolved) DisplayName() string {
	if !r.Found() || r.RelativeModule == "" {
		return r.FileID
	}
	return r.RelativeModule
}

// Resolver walks parent directories looking for package markers.
type Resolver struct {
	fs     afero.Fs
	marker string
}

// NewResolver creates a Resolver. An empty marker selects DefaultMarker.
func NewResolver(fs afero.Fs, marker string) *Resolver {
	if marker == "" {
		marker = DefaultMarker
	}
	return &Resolver{fs: fs, marker: marker}
}

// FindRoot returns the outermost ancestor directory of path that contains the
// package marker. The walk starts at the directory holding path and goes up to
// the filesystem root; the last (highest) match wins.
func (r *Resolver) FindRoot(path string) (string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", false
	}

	root := ""
	dir := filepath.Dir(abs)
	for {
		if r.hasMarker(dir) {
			root = dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return root, root != ""
}

// Resolve computes the display information for a report file identifier.
// It never fails; an unresolvable identifier yields a Resolved without a root.
func (r *Resolver) Resolve(fileID string) Resolved {
	res := Resolved{FileID: fileID}

	root, ok := r.FindRoot(fileID)
	if !ok {
		return res
	}
	abs, err := filepath.Abs(fileID)
	if err != nil {
		return res
	}

	res.RootPackageDir = root
	res.RelativeModule = strings.TrimPrefix(abs, root)
	return res
}

// hasMarker treats any stat failure, including a vanished directory, as absent.
func (r *Resolver) hasMarker(dir string) bool {
	ok, err := afero.Exists(r.fs, filepath.Join(dir, r.marker))
	return err == nil && ok
}

// ModuleName returns the display name for fileID.
func (r *Resolver) ModuleName(fileID string) string {
	return r.Resolve(fileID).DisplayName()
}
