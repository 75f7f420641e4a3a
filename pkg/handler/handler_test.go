package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/koblas/fsglob/pkg/backend"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFs(t *testing.T) backend.FileSystem {
	t.Helper()

	fs := afero.NewMemMapFs()
	for _, file := range []string{
		"/data/test.txt",
		"/data/b.txt",
		"/data/old.bak",
		"/data/subdir/nested.txt",
		"/data/.git/config",
		"/etc/passwd",
	} {
		require.NoError(t, fs.MkdirAll(filepath.Dir(file), 0o755))
		require.NoError(t, afero.WriteFile(fs, file, []byte(file), 0o644))
	}
	return backend.NewLocalFs(fs)
}

func testConfig() Configuration {
	return Configuration{
		Public:   "/data",
		Unlisted: []string{"**/.git/**", "**/*.bak"},
		Backend:  BackendConfig{Type: "local"},
	}
}

func newTestServer(t *testing.T, config Configuration, fs backend.FileSystem) *httptest.Server {
	t.Helper()

	state, err := NewHandler(config, fs, prometheus.NewRegistry())
	require.NoError(t, err)

	router := chi.NewRouter()
	state.AttachRoutes(router)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func get(t *testing.T, server *httptest.Server, route string, query url.Values, asJSON bool) (*http.Response, []byte) {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, server.URL+route+"?"+query.Encode(), nil)
	require.NoError(t, err)
	if asJSON {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

type errorReply struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func TestGlobRoute(t *testing.T) {
	server := newTestServer(t, testConfig(), testFs(t))

	tests := []struct {
		pattern   string
		recursive string
		matches   []string
	}{
		{"/data/*.txt", "", []string{"/data/b.txt", "/data/test.txt"}},
		{"/data/**/*.txt", "true", []string{"/data/b.txt", "/data/subdir/nested.txt", "/data/test.txt"}},
		{"/data/**/*.txt", "false", []string{"/data/subdir/nested.txt"}},
		{"/data/*", "", []string{"/data/b.txt", "/data/subdir", "/data/test.txt"}},
		{"/data/.git/*", "", []string{}},
		{"/data/missing/*", "", []string{}},
	}

	for _, item := range tests {
		query := url.Values{"pattern": {item.pattern}}
		if item.recursive != "" {
			query.Set("recursive", item.recursive)
		}

		resp, body := get(t, server, "/glob", query, true)
		require.Equal(t, http.StatusOK, resp.StatusCode, "pattern: %q", item.pattern)
		assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")

		var reply globResponse
		require.NoError(t, json.Unmarshal(body, &reply))
		assert.Equal(t, item.pattern, reply.Pattern)
		assert.Equal(t, item.matches, reply.Matches, "pattern: %q", item.pattern)
	}
}

func TestGlobRouteRecursiveDefault(t *testing.T) {
	config := testConfig()
	config.Recursive = true
	server := newTestServer(t, config, testFs(t))

	_, body := get(t, server, "/glob", url.Values{"pattern": {"/data/**/nested.txt"}}, true)

	var reply globResponse
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.True(t, reply.Recursive)
	assert.Equal(t, []string{"/data/subdir/nested.txt"}, reply.Matches)
}

func TestGlobRouteBadRequest(t *testing.T) {
	server := newTestServer(t, testConfig(), testFs(t))

	tests := []url.Values{
		{},
		{"pattern": {"/etc/*"}},
		{"pattern": {"/data/../etc/*"}},
		{"pattern": {"/data/a**"}, "recursive": {"true"}},
		{"pattern": {"/data/*"}, "recursive": {"maybe"}},
	}

	for _, query := range tests {
		resp, body := get(t, server, "/glob", query, true)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "query: %v", query)

		var reply errorReply
		require.NoError(t, json.Unmarshal(body, &reply))
		assert.Equal(t, "bad_request", reply.Error.Code)
		assert.NotEmpty(t, reply.Error.Message)
	}
}

type downFs struct {
	backend.FileSystem
}

func (downFs) ListDir(path string) ([]string, error) {
	return nil, &backend.UnavailableError{Op: backend.OpListDir, Path: path, Err: io.ErrUnexpectedEOF}
}

func TestGlobRouteUnavailable(t *testing.T) {
	server := newTestServer(t, testConfig(), downFs{testFs(t)})

	resp, body := get(t, server, "/glob", url.Values{"pattern": {"/data/*.txt"}}, true)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var reply errorReply
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "service_unavailable", reply.Error.Code)

	// literal patterns never list
	resp, _ = get(t, server, "/glob", url.Values{"pattern": {"/data/test.txt"}}, true)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body = get(t, server, "/walk", url.Values{"root": {"/data"}}, false)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Contains(t, string(body), "service_unavailable")
}

func TestGlobRouteHTML(t *testing.T) {
	server := newTestServer(t, testConfig(), testFs(t))

	resp, body := get(t, server, "/glob", url.Values{"pattern": {"/data/*.txt"}}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, string(body), "<li>/data/test.txt</li>")
	assert.Contains(t, string(body), "2 matches")

	resp, body = get(t, server, "/glob", url.Values{}, false)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "bad_request")
}

func TestWalkRoute(t *testing.T) {
	server := newTestServer(t, testConfig(), testFs(t))

	resp, body := get(t, server, "/walk", url.Values{"root": {"/data"}}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply walkResponse
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "/data", reply.Root)
	require.NotEmpty(t, reply.Entries)

	top := reply.Entries[0]
	assert.Equal(t, "/data", top.Dir)
	assert.Equal(t, []string{"b.txt", "test.txt"}, top.Files)
	assert.Contains(t, top.Dirs, "subdir")

	for _, entry := range reply.Entries {
		assert.NotContains(t, entry.Files, "config", "dir: %s", entry.Dir)
		assert.NotContains(t, entry.Files, "old.bak", "dir: %s", entry.Dir)
	}

	// the public prefix is the default root
	resp, body = get(t, server, "/walk", url.Values{}, true)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NoError(t, json.Unmarshal(body, &reply))
	assert.Equal(t, "/data", reply.Root)

	resp, _ = get(t, server, "/walk", url.Values{"root": {"/etc"}}, true)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWalkRouteHTML(t *testing.T) {
	server := newTestServer(t, testConfig(), testFs(t))

	resp, body := get(t, server, "/walk", url.Values{"root": {"/data/subdir"}}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "<h2>/data/subdir</h2>")
	assert.Contains(t, string(body), "<li>nested.txt</li>")
}

func TestMetricsRoute(t *testing.T) {
	server := newTestServer(t, testConfig(), testFs(t))

	get(t, server, "/glob", url.Values{"pattern": {"/data/*.txt"}}, true)

	resp, body := get(t, server, "/metrics", url.Values{}, false)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `fsglob_backend_calls_total{backend="local",op="listdir"} 1`)
}

func TestNewHandlerInvalidUnlisted(t *testing.T) {
	config := testConfig()
	config.Unlisted = []string{"[unterminated"}

	_, err := NewHandler(config, testFs(t), nil)
	assert.Error(t, err)
}
