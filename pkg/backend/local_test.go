package backend_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/koblas/fsglob/pkg/backend"
	"github.com/koblas/fsglob/pkg/glob"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diskTree(t *testing.T, files ...string) string {
	t.Helper()

	root := t.TempDir()
	for _, f := range files {
		full := filepath.Join(root, f)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(f), 0o644))
	}
	return root
}

func TestLocal(t *testing.T) {
	root := diskTree(t, "data/test.txt", "data/subdir/nested.txt")
	fs := backend.NewLocal("")

	ok, err := fs.Exists(filepath.Join(root, "data/test.txt"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.Exists(filepath.Join(root, "data/missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fs.IsDir(filepath.Join(root, "data/subdir"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = fs.IsDir(filepath.Join(root, "data/test.txt"))
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = fs.IsDir(filepath.Join(root, "missing"))
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := fs.ListDir(filepath.Join(root, "data"))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"test.txt", "subdir"}, names)

	_, err = fs.ListDir(filepath.Join(root, "missing"))
	assert.Error(t, err)
	assert.False(t, backend.IsUnavailable(err))

	_, err = fs.ListDir(filepath.Join(root, "data/test.txt"))
	assert.Error(t, err)
}

func TestLocalRooted(t *testing.T) {
	root := diskTree(t, "data/test.txt", "data/subdir/nested.txt", "data/.hidden")
	fs := backend.NewLocal(root)

	matches, err := glob.Glob("/data/**", fs, glob.Options{Recursive: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"/data/", "/data/test.txt", "/data/subdir", "/data/subdir/nested.txt"}, matches)

	matches, err = glob.Glob("data/*.txt", fs, glob.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"data/test.txt"}, matches)
}
