package datadir

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"flowtagger/internal/apperr"
)

// Dir is a small helper around the directory that input and output paths are
// relative to.
//
// Absolute paths are used as given. Errors returned by Open, Create and Glob
// are *apperr.FileAccessError carrying the resolved path.
type Dir struct {
	Root string
}

func (d Dir) Path(rel string) string {
	if d.Root == "" || filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(d.Root, rel)
}

func (d Dir) Open(rel string) (*os.File, error) {
	p := d.Path(rel)
	f, err := os.Open(p)
	if err != nil {
		return nil, &apperr.FileAccessError{Op: "open", Path: p, Err: unwrapPathError(err)}
	}
	return f, nil
}

func (d Dir) Create(rel string) (*os.File, error) {
	p := d.Path(rel)
	f, err := os.Create(p)
	if err != nil {
		return nil, &apperr.FileAccessError{Op: "create", Path: p, Err: unwrapPathError(err)}
	}
	return f, nil
}

// Glob expands a doublestar pattern (e.g. "logs/**/*.log") into the matching
// file paths, sorted. An existing regular file whose name merely contains
// meta characters (e.g. "flow[1].log") matches itself. A pattern that matches
// nothing is reported as a missing file.
func (d Dir) Glob(pattern string) ([]string, error) {
	p := d.Path(pattern)

	if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
		return []string{p}, nil
	}

	matches, err := doublestar.FilepathGlob(p, doublestar.WithFilesOnly())
	if err != nil {
		return nil, &apperr.FileAccessError{Op: "glob", Path: p, Err: err}
	}
	if len(matches) == 0 {
		return nil, &apperr.FileAccessError{Op: "open", Path: p, Err: fs.ErrNotExist}
	}

	sort.Strings(matches)
	return matches, nil
}

// unwrapPathError drops the *fs.PathError layer so the path is not repeated
// in the message.
func unwrapPathError(err error) error {
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return pe.Err
	}
	return err
}
