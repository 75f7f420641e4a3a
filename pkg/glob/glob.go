package glob

import (
	"iter"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/koblas/fsglob/pkg/backend"
	"github.com/koblas/fsglob/pkg/fnmatch"
	"github.com/pkg/errors"
)

const recursiveToken = "**"

var (
	ErrInvalidPattern = errors.New("invalid pattern")

	// errHalt unwinds the traversal once the consumer stops pulling results.
	errHalt = errors.New("halt")
)

type Options struct {
	// Recursive lets a "**" segment match any files and zero or more
	// directories and subdirectories.
	Recursive bool

	// Logger receives debug traces for listings that were skipped.
	Logger log.Logger
}

type globber struct {
	fs        backend.FileSystem
	recursive bool
	logger    log.Logger
	walker    walker
}

// Glob returns every path matching pattern.
func Glob(pattern string, fs backend.FileSystem, opts Options) ([]string, error) {
	seq, err := IGlob(pattern, fs, opts)
	if err != nil {
		return nil, err
	}

	matches := []string{}
	for match, err := range seq {
		if err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, nil
}

// IGlob returns a lazy sequence of the paths matching pattern.
//
// The pattern may contain simple shell-style wildcards. Names starting with a
// dot are not matched by '*', '?' or sets unless the pattern segment itself
// starts with a dot.
//
// Backend calls are only issued while the sequence is consumed. A backend that
// stops responding ends the sequence with its error.
func IGlob(pattern string, fs backend.FileSystem, opts Options) (iter.Seq2[string, error], error) {
	if err := validate(pattern, opts.Recursive); err != nil {
		return nil, err
	}

	g := newGlobber(fs, opts)
	overlapping := opts.Recursive && recursiveSegments(pattern) > 1

	return func(yield func(string, error) bool) {
		// Nested "**" bases walk overlapping subtrees.
		var seen map[string]struct{}
		if overlapping {
			seen = map[string]struct{}{}
		}

		err := g.iglob(pattern, false, func(match string) error {
			// The bare "**" pattern also produces the empty base path.
			if match == "" {
				return nil
			}
			if seen != nil {
				if _, ok := seen[match]; ok {
					return nil
				}
				seen[match] = struct{}{}
			}
			if !yield(match, nil) {
				return errHalt
			}
			return nil
		})
		if err != nil && err != errHalt {
			yield("", err)
		}
	}, nil
}

func newGlobber(fs backend.FileSystem, opts Options) *globber {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &globber{
		fs:        fs,
		recursive: opts.Recursive,
		logger:    logger,
		walker:    walker{fs: fs, skipHidden: true, logger: logger},
	}
}

func validate(pattern string, recursive bool) error {
	if pattern == "" {
		return errors.Wrap(ErrInvalidPattern, "empty pattern")
	}
	if !recursive {
		return nil
	}
	for _, segment := range strings.Split(pattern, "/") {
		if segment != recursiveToken && strings.Contains(segment, recursiveToken) {
			return errors.Wrapf(ErrInvalidPattern, "%q: ** must be a whole path segment", pattern)
		}
	}
	return nil
}

func recursiveSegments(pattern string) int {
	count := 0
	for _, segment := range strings.Split(pattern, "/") {
		if segment == recursiveToken {
			count++
		}
	}
	return count
}

func (g *globber) iglob(pathname string, dironly bool, emit func(string) error) error {
	dirname, basename := split(pathname)

	if !fnmatch.HasMagic(pathname) {
		if basename != "" {
			ok, err := g.exists(pathname)
			if err != nil || !ok {
				return err
			}
			return emit(pathname)
		}
		// Patterns ending with a slash should match only directories
		ok, err := g.isDir(dirname)
		if err != nil || !ok {
			return err
		}
		return emit(pathname)
	}

	globInDir := g.glob1
	if !fnmatch.HasMagic(basename) {
		globInDir = g.glob0
	} else if g.recursive && basename == recursiveToken {
		globInDir = g.glob2
	}

	if dirname == "" {
		return globInDir(dirname, basename, dironly, emit)
	}

	dirs := func(each func(string) error) error { return each(dirname) }
	// never recurse on a head identical to the pattern itself
	if dirname != pathname && fnmatch.HasMagic(dirname) {
		dirs = func(each func(string) error) error { return g.iglob(dirname, true, each) }
	}

	return dirs(func(dir string) error {
		return globInDir(dir, basename, dironly, func(name string) error {
			return emit(join(dir, name))
		})
	})
}

// glob1 matches a wildcard segment against the entries of a literal directory.
func (g *globber) glob1(dirname, pattern string, dironly bool, emit func(string) error) error {
	names, err := g.iterdir(dirname, dironly)
	if err != nil {
		return err
	}

	re, err := fnmatch.Compile(pattern)
	if err != nil {
		return errors.Wrapf(ErrInvalidPattern, "%q: %v", pattern, err)
	}

	hidden := fnmatch.IsHidden(pattern)
	for _, name := range names {
		if !hidden && fnmatch.IsHidden(name) {
			continue
		}
		if !re.MatchString(name) {
			continue
		}
		if err := emit(name); err != nil {
			return err
		}
	}
	return nil
}

// glob0 checks a literal segment inside a literal directory without listing it.
func (g *globber) glob0(dirname, basename string, _ bool, emit func(string) error) error {
	if basename == "" {
		// 'q*x/' should match only directories.
		ok, err := g.isDir(dirname)
		if err != nil || !ok {
			return err
		}
		return emit(basename)
	}

	ok, err := g.exists(join(dirname, basename))
	if err != nil || !ok {
		return err
	}
	return emit(basename)
}

// glob2 yields the directory itself followed by every non-hidden entry below
// it, relative to dirname.
func (g *globber) glob2(dirname, _ string, dironly bool, emit func(string) error) error {
	if dirname != "" {
		ok, err := g.isDir(dirname)
		if err != nil || !ok {
			return err
		}
	}
	if err := emit(""); err != nil {
		return err
	}
	return g.walker.relative(dirname, dironly, emit)
}

// iterdir lists a directory, keeping only subdirectories when dironly is set.
// Listing failures other than an unavailable backend produce no names.
func (g *globber) iterdir(dirname string, dironly bool) ([]string, error) {
	names, err := g.walker.listdir(dirname)
	if err != nil || !dironly {
		return names, err
	}

	dirs := []string{}
	for _, name := range names {
		ok, err := g.isDir(join(dirname, name))
		if err != nil {
			return nil, err
		}
		if ok {
			dirs = append(dirs, name)
		}
	}
	return dirs, nil
}

func (g *globber) exists(path string) (bool, error) {
	ok, err := g.fs.Exists(path)
	return g.settle(backend.OpExists, path, ok, err)
}

func (g *globber) isDir(path string) (bool, error) {
	ok, err := g.fs.IsDir(path)
	return g.settle(backend.OpIsDir, path, ok, err)
}

func (g *globber) settle(op, path string, ok bool, err error) (bool, error) {
	if err == nil {
		return ok, nil
	}
	if backend.IsUnavailable(err) {
		return false, err
	}
	level.Debug(g.logger).Log("msg", "treating failed check as no match", "op", op, "path", path, "err", err)
	return false, nil
}

// GlobLiteral checks a literal name inside dir and returns it when it exists.
// An empty name matches dir itself when dir is a directory.
func GlobLiteral(dir, name string, fs backend.FileSystem) ([]string, error) {
	g := newGlobber(fs, Options{})
	return collect(func(emit func(string) error) error {
		return g.glob0(dir, name, false, emit)
	})
}

// GlobInDir returns the names inside dir matching a single segment pattern.
func GlobInDir(dir, pattern string, fs backend.FileSystem) ([]string, error) {
	g := newGlobber(fs, Options{})
	return collect(func(emit func(string) error) error {
		return g.glob1(dir, pattern, false, emit)
	})
}

func collect(run func(emit func(string) error) error) ([]string, error) {
	result := []string{}
	err := run(func(name string) error {
		result = append(result, name)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
