package handler

import (
	"net/http"
	"path"
	"sort"

	"github.com/go-kit/log/level"
	"github.com/koblas/fsglob/pkg/glob"
	"github.com/koblas/fsglob/pkg/swhttp"
	"github.com/pkg/errors"
)

type globResponse struct {
	Pattern   string   `json:"pattern"`
	Recursive bool     `json:"recursive"`
	Matches   []string `json:"matches"`
}

type walkResponse struct {
	Root    string       `json:"root"`
	Entries []glob.Entry `json:"entries"`
}

func (state HandlerState) serveGlob(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		state.sendError(w, r, http.StatusBadRequest, errors.New("missing pattern"))
		return
	}
	if !state.allowed(pattern) {
		state.sendError(w, r, http.StatusBadRequest, errors.Errorf("pattern %q is outside the public path", pattern))
		return
	}

	recursive, err := state.recursive(r)
	if err != nil {
		state.sendError(w, r, http.StatusBadRequest, err)
		return
	}

	level.Debug(state.logger).Log("msg", "glob", "pattern", pattern, "recursive", recursive)

	seq, err := glob.IGlob(pattern, state.fs, glob.Options{Recursive: recursive, Logger: state.logger})
	if err != nil {
		state.sendError(w, r, errorStatus(err), err)
		return
	}

	matches := []string{}
	for match, err := range seq {
		if err != nil {
			state.sendError(w, r, errorStatus(err), err)
			return
		}
		if state.unlisted(match) {
			continue
		}
		matches = append(matches, match)
	}
	sort.Strings(matches)

	result := globResponse{Pattern: pattern, Recursive: recursive, Matches: matches}
	if acceptJSON(r) {
		state.sendJSON(w, result)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	page := swhttp.ResultsPage{Pattern: pattern, Recursive: recursive, Matches: matches}
	if err := swhttp.RenderResults(w, page); err != nil {
		level.Error(state.logger).Log("msg", "failed to render results", "err", err)
	}
}

func (state HandlerState) serveWalk(w http.ResponseWriter, r *http.Request) {
	root := r.URL.Query().Get("root")
	if root == "" {
		root = state.Public
	}
	if root == "" || !state.allowed(root) {
		state.sendError(w, r, http.StatusBadRequest, errors.Errorf("root %q is outside the public path", root))
		return
	}

	level.Debug(state.logger).Log("msg", "walk", "root", root)

	entries := []glob.Entry{}
	for entry, err := range glob.Walk(root, state.fs) {
		if err != nil {
			state.sendError(w, r, errorStatus(err), err)
			return
		}
		if state.unlisted(entry.Dir) {
			continue
		}
		entry.Dirs = state.listed(entry.Dir, entry.Dirs)
		entry.Files = state.listed(entry.Dir, entry.Files)
		entries = append(entries, entry)
	}

	if acceptJSON(r) {
		state.sendJSON(w, walkResponse{Root: root, Entries: entries})
		return
	}

	page := swhttp.WalkPage{Root: root}
	for _, entry := range entries {
		page.Entries = append(page.Entries, swhttp.WalkEntry{Dir: entry.Dir, Dirs: entry.Dirs, Files: entry.Files})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := swhttp.RenderWalk(w, page); err != nil {
		level.Error(state.logger).Log("msg", "failed to render walk", "err", err)
	}
}

func (state HandlerState) listed(dir string, names []string) []string {
	result := []string{}
	for _, name := range names {
		if !state.unlisted(path.Join(dir, name)) {
			result = append(result, name)
		}
	}
	sort.Strings(result)
	return result
}
