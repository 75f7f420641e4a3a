package glob_test

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/koblas/fsglob/pkg/backend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// memFs builds an in-memory tree. Entries ending in "/" are empty directories.
func memFs(t *testing.T, entries ...string) afero.Fs {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, entry := range entries {
		if strings.HasSuffix(entry, "/") {
			require.NoError(t, fs.MkdirAll(entry, 0o755))
			continue
		}
		require.NoError(t, fs.MkdirAll(filepath.Dir(entry), 0o755))
		require.NoError(t, afero.WriteFile(fs, entry, []byte(entry), 0o644))
	}
	return fs
}

var dataTree = []string{
	"/data/test.txt",
	"/data/b.txt",
	"/data/.hidden.txt",
	"/data/subdir/nested.txt",
	"/data/subdir/.secret/key.txt",
	"/data/.git/config",
	"/data/empty/",
}

func dataFs(t *testing.T) backend.FileSystem {
	return backend.NewLocalFs(memFs(t, dataTree...))
}

// counted wraps fs with call counters.
type counted struct {
	backend.FileSystem
	metrics *backend.Metrics
}

func newCounted(t *testing.T, fs backend.FileSystem) counted {
	t.Helper()

	metrics, err := backend.NewMetrics(prometheus.NewRegistry())
	require.NoError(t, err)
	return counted{FileSystem: metrics.Instrument("mem", fs), metrics: metrics}
}

func (c counted) calls(op string) int {
	return int(testutil.ToFloat64(c.metrics.Calls("mem", op)))
}

func (c counted) total() int {
	return c.calls(backend.OpExists) + c.calls(backend.OpIsDir) + c.calls(backend.OpListDir)
}

// failingFs fails every listing of one path with the given error.
type failingFs struct {
	backend.FileSystem
	path string
	err  error
}

func (f failingFs) ListDir(path string) ([]string, error) {
	if path == f.path {
		return nil, f.err
	}
	return f.FileSystem.ListDir(path)
}

func unavailableAt(fs backend.FileSystem, path string) failingFs {
	return failingFs{
		FileSystem: fs,
		path:       path,
		err:        &backend.UnavailableError{Op: backend.OpListDir, Path: path, Err: io.ErrUnexpectedEOF},
	}
}

func forbiddenAt(fs backend.FileSystem, path string) failingFs {
	return failingFs{
		FileSystem: fs,
		path:       path,
		err:        &os.PathError{Op: "open", Path: path, Err: os.ErrPermission},
	}
}
