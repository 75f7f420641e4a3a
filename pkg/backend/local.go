package backend

import (
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// Local implements FileSystem on top of an afero filesystem, normally the
// local disk.
type Local struct {
	fs afero.Fs
}

// NewLocal returns a local-disk backend. A non-empty root confines every path
// below that directory.
func NewLocal(root string) *Local {
	var fs afero.Fs = afero.NewOsFs()
	if root != "" {
		fs = afero.NewBasePathFs(fs, root)
	}
	return NewLocalFs(fs)
}

func NewLocalFs(fs afero.Fs) *Local {
	return &Local{fs: fs}
}

func (l *Local) Exists(path string) (bool, error) {
	ok, err := afero.Exists(l.fs, path)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func (l *Local) IsDir(path string) (bool, error) {
	ok, err := afero.IsDir(l.fs, path)
	if err != nil {
		return false, nil
	}
	return ok, nil
}

func (l *Local) ListDir(path string) ([]string, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "listdir")
	}
	defer f.Close()

	names, err := f.Readdirnames(-1)
	if err != nil {
		return nil, errors.Wrapf(err, "listdir %s", path)
	}
	return names, nil
}
