package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-chi/chi/v5"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/koblas/fsglob/pkg/backend"
	"github.com/koblas/fsglob/pkg/glob"
	"github.com/koblas/fsglob/pkg/swhttp"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HandlerState struct {
	Configuration
	fs       backend.FileSystem
	logger   log.Logger
	registry *prometheus.Registry
}

// NewHandler serves glob and walk requests against fs. Backend calls are
// counted in registry.
func NewHandler(config Configuration, fs backend.FileSystem, registry *prometheus.Registry) (HandlerState, error) {
	for _, pattern := range config.Unlisted {
		if !doublestar.ValidatePattern(pattern) {
			return HandlerState{}, errors.Errorf("invalid unlisted pattern %q", pattern)
		}
	}

	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	metrics, err := backend.NewMetrics(registry)
	if err != nil {
		return HandlerState{}, errors.Wrap(err, "register backend metrics")
	}

	name := config.Backend.Type
	if name == "" {
		name = "local"
	}

	return HandlerState{
		Configuration: config,
		fs:            metrics.Instrument(name, fs),
		logger:        NewLogger(config.Debug),
		registry:      registry,
	}, nil
}

func acceptJSON(r *http.Request) bool {
	accept := r.Header[http.CanonicalHeaderKey("accept")]

	for _, value := range accept {
		if strings.Contains(strings.ToLower(value), "application/json") {
			return true
		}
	}

	return false
}

func (state HandlerState) sendError(w http.ResponseWriter, r *http.Request, statusCode int, err error) {
	type errorBodyType = struct {
		StatusCode int    `json:"-"`
		Code       string `json:"code"`
		Message    string `json:"message"`
	}
	type errorInfo = struct {
		Error errorBodyType `json:"error"`
	}

	errorBody := errorBodyType{StatusCode: statusCode}
	switch statusCode {
	case http.StatusBadRequest:
		errorBody.Code = "bad_request"
		errorBody.Message = "Bad request"
	case http.StatusServiceUnavailable:
		errorBody.Code = "service_unavailable"
		errorBody.Message = "The storage backend could not be reached"
	default:
		errorBody.Code = "internal_server_error"
		errorBody.Message = "A server error has occurred"
	}
	if err != nil && statusCode == http.StatusBadRequest {
		errorBody.Message = err.Error()
	}

	level.Debug(state.logger).Log("msg", "request failed", "path", r.URL.Path, "status", statusCode, "err", err)

	if acceptJSON(r) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(errorInfo{errorBody}); err != nil {
			level.Error(state.logger).Log("msg", "failed to encode error", "err", err)
		}
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(statusCode)

	page := swhttp.ErrorPage{StatusCode: statusCode, Code: errorBody.Code, Message: errorBody.Message}
	if err := swhttp.RenderError(w, page); err != nil {
		level.Error(state.logger).Log("msg", "failed to render error", "err", err)
	}
}

func (state HandlerState) sendJSON(w http.ResponseWriter, value interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(value); err != nil {
		level.Error(state.logger).Log("msg", "failed to encode response", "err", err)
	}
}

// allowed rejects paths that climb out of, or lie outside, the public prefix.
func (state HandlerState) allowed(p string) bool {
	if escapesParent(p) {
		return false
	}
	if state.Public == "" {
		return true
	}
	return pathIsInside(p, state.Public)
}

// unlisted reports whether p is hidden from answers by the unlisted patterns.
func (state HandlerState) unlisted(p string) bool {
	name := strings.Trim(p, "/")
	if name == "" {
		return false
	}

	for _, pattern := range state.Unlisted {
		if ok, _ := doublestar.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, glob.ErrInvalidPattern):
		return http.StatusBadRequest
	case backend.IsUnavailable(err):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func (state HandlerState) AttachRoutes(router chi.Router) {
	router.Get("/glob", state.serveGlob)
	router.Get("/walk", state.serveWalk)
	router.Handle("/metrics", promhttp.HandlerFor(state.registry, promhttp.HandlerOpts{}))
}

func (state HandlerState) recursive(r *http.Request) (bool, error) {
	value := r.URL.Query().Get("recursive")
	if value == "" {
		return state.Recursive, nil
	}
	recursive, err := strconv.ParseBool(value)
	if err != nil {
		return false, errors.Errorf("invalid recursive value %q", value)
	}
	return recursive, nil
}
