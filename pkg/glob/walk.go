package glob

import (
	"iter"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/koblas/fsglob/pkg/backend"
	"github.com/koblas/fsglob/pkg/fnmatch"
)

// Entry is one directory visited by Walk along with the names of its
// subdirectories and files, as seen by a single listing.
type Entry struct {
	Dir   string   `json:"dir"`
	Dirs  []string `json:"dirs"`
	Files []string `json:"files"`
}

// Walk enumerates the tree below root depth-first, yielding each directory
// before its children. A root that cannot be listed yields nothing.
func Walk(root string, fs backend.FileSystem) iter.Seq2[Entry, error] {
	w := walker{fs: fs, logger: log.NewNopLogger()}

	return func(yield func(Entry, error) bool) {
		err := w.walk(root, "", func(_ string, entry Entry) error {
			if !yield(entry, nil) {
				return errHalt
			}
			return nil
		})
		if err != nil && err != errHalt {
			yield(Entry{}, err)
		}
	}
}

type walker struct {
	fs         backend.FileSystem
	skipHidden bool
	logger     log.Logger
}

// walk visits dir and everything below it. rel is dir relative to the root
// the walk started from.
func (w walker) walk(dir, rel string, emit func(rel string, entry Entry) error) error {
	names, ok, err := w.list(dir)
	if err != nil || !ok {
		return err
	}

	entry := Entry{Dir: dir, Dirs: []string{}, Files: []string{}}
	for _, name := range names {
		if w.skipHidden && fnmatch.IsHidden(name) {
			continue
		}
		isDir, err := w.isDir(join(dir, name))
		if err != nil {
			return err
		}
		if isDir {
			entry.Dirs = append(entry.Dirs, name)
		} else {
			entry.Files = append(entry.Files, name)
		}
	}

	if err := emit(rel, entry); err != nil {
		return err
	}

	for _, sub := range entry.Dirs {
		if err := w.walk(join(dir, sub), join(rel, sub), emit); err != nil {
			return err
		}
	}
	return nil
}

// relative emits the path of every entry below dir relative to dir, skipping
// files when dironly is set.
func (w walker) relative(dir string, dironly bool, emit func(string) error) error {
	return w.walk(dir, "", func(rel string, entry Entry) error {
		for _, sub := range entry.Dirs {
			if err := emit(join(rel, sub)); err != nil {
				return err
			}
		}
		if dironly {
			return nil
		}
		for _, file := range entry.Files {
			if err := emit(join(rel, file)); err != nil {
				return err
			}
		}
		return nil
	})
}

// listdir is list without the existence flag.
func (w walker) listdir(dir string) ([]string, error) {
	names, _, err := w.list(dir)
	return names, err
}

// list returns the names in dir. A failed listing is reported as not ok,
// unless the backend is unavailable, which is returned as an error.
func (w walker) list(dir string) ([]string, bool, error) {
	path := dir
	if path == "" {
		path = "."
	}

	names, err := w.fs.ListDir(path)
	if err != nil {
		if backend.IsUnavailable(err) {
			return nil, false, err
		}
		level.Debug(w.logger).Log("msg", "skipping directory that cannot be listed", "path", path, "err", err)
		return nil, false, nil
	}
	return names, true, nil
}

func (w walker) isDir(path string) (bool, error) {
	ok, err := w.fs.IsDir(path)
	if err != nil {
		if backend.IsUnavailable(err) {
			return false, err
		}
		return false, nil
	}
	return ok, nil
}
