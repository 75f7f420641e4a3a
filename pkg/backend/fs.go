package backend

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// FileSystem is the minimal capability a storage backend exposes to the
// glob engine.
//
// Exists and IsDir answer false for anything that cannot be resolved and only
// return an error when the backend itself cannot respond. ListDir fails for a
// missing path or a non-directory.
type FileSystem interface {
	Exists(path string) (bool, error)
	IsDir(path string) (bool, error)
	ListDir(path string) ([]string, error)
}

// UnavailableError is returned when the backend cannot answer at all, for
// example because the connection dropped.
type UnavailableError struct {
	Op   string
	Path string
	Err  error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("backend unavailable: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }

func unavailable(op, path string, err error) error {
	return &UnavailableError{Op: op, Path: path, Err: err}
}

// IsUnavailable reports whether err, or anything it wraps, is an
// UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

func notFound(op, path string) error {
	return &os.PathError{Op: op, Path: path, Err: os.ErrNotExist}
}

func notDir(op, path string) error {
	return errors.Wrapf(notFound(op, path), "%s is not a directory", path)
}
