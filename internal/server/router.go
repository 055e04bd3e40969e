package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/teemow/taskcal/internal/app"
	"github.com/teemow/taskcal/internal/logging"
	"github.com/teemow/taskcal/internal/task"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("empty body")

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// taskResponse carries a task and, when the write-through failed, a warning.
type taskResponse struct {
	Task    task.Task `json:"task"`
	Warning string    `json:"warning,omitempty"`
}

type api struct {
	sc *ServerContext
}

type routerOptions struct {
	mcp http.Handler
}

// RouterOption configures NewRouter.
type RouterOption func(*routerOptions)

// WithMCPHandler mounts an MCP streamable HTTP handler at /mcp.
func WithMCPHandler(h http.Handler) RouterOption {
	return func(o *routerOptions) {
		o.mcp = h
	}
}

// NewRouter builds the HTTP API and health endpoints.
func NewRouter(sc *ServerContext, health *HealthChecker, opts ...RouterOption) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}
	a := &api{sc: sc}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(a.instrument)

	if health != nil {
		health.RegisterHealthEndpoints(r)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/tasks", a.handleListTasks)
		r.Post("/tasks", a.handleCreateTask)
		r.Delete("/tasks", a.handleClearTasks)
		r.Post("/tasks/{id}/toggle", a.handleToggleTask)
		r.Get("/progress", a.handleProgress)
		r.Get("/events", a.handleListEvents)
		r.Get("/status", a.handleStatus)
	})

	if o.mcp != nil {
		r.Handle("/mcp", o.mcp)
	}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, "not_found", "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
	})
	return r
}

// instrument records request metrics labelled by route pattern.
func (a *api) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		pattern := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			pattern = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		a.sc.Metrics().RecordHTTPRequest(r.Context(), r.Method, pattern, status, time.Since(start))
		a.sc.Logger().Debug("http request",
			slog.String("method", r.Method),
			slog.String("route", pattern),
			slog.Int("status", status),
			slog.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func (a *api) handleListTasks(w http.ResponseWriter, r *http.Request) {
	date, err := task.ParseDate(r.URL.Query().Get("date"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_date", err.Error())
		return
	}
	respondJSON(w, http.StatusOK, a.sc.App().Tasks(date))
}

func (a *api) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var in task.DraftInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	draft, err := in.Parse()
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_task", err.Error())
		return
	}

	created, err := a.sc.App().AddTask(r.Context(), draft)
	var validation *task.ValidationError
	switch {
	case errors.As(err, &validation):
		respondError(w, http.StatusBadRequest, "invalid_task", err.Error())
	case err != nil:
		respondJSON(w, http.StatusCreated, taskResponse{Task: created, Warning: err.Error()})
	default:
		respondJSON(w, http.StatusCreated, taskResponse{Task: created})
	}
}

func (a *api) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "id")), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_task_id", "task id must be an integer")
		return
	}

	toggled, err := a.sc.App().ToggleTask(r.Context(), id)
	switch {
	case errors.Is(err, app.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, "task_not_found", err.Error())
	case err != nil:
		respondJSON(w, http.StatusOK, taskResponse{Task: toggled, Warning: err.Error()})
	default:
		respondJSON(w, http.StatusOK, taskResponse{Task: toggled})
	}
}

func (a *api) handleClearTasks(w http.ResponseWriter, r *http.Request) {
	if err := a.sc.App().Clear(r.Context()); err != nil {
		a.sc.Logger().Warn("clear not persisted", logging.Err(err))
		respondError(w, http.StatusInternalServerError, "persistence_failed", err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleProgress(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, a.sc.App().Progress())
}

func (a *api) handleListEvents(w http.ResponseWriter, r *http.Request) {
	date := a.sc.App().Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := task.ParseDate(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_date", err.Error())
			return
		}
		date = *parsed
	}
	events, err := a.sc.App().Events(r.Context(), date)
	if err != nil {
		w.Header().Set("X-Taskcal-Warning", err.Error())
	}
	respondJSON(w, http.StatusOK, events)
}

func (a *api) handleStatus(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, a.sc.App().Status())
}

func decodeJSON(w http.ResponseWriter, r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
