package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/taskcal/internal/app"
	taskcal "github.com/teemow/taskcal/internal/calendar"
	"github.com/teemow/taskcal/internal/calendar/calendartest"
	"github.com/teemow/taskcal/internal/instrumentation"
	"github.com/teemow/taskcal/internal/session"
	"github.com/teemow/taskcal/internal/storage"
	"github.com/teemow/taskcal/internal/task"
)

type brokenBackend struct {
	*storage.Memory
}

func (brokenBackend) Get(context.Context, string) ([]byte, error) {
	return nil, assert.AnError
}

func newTestApp(t *testing.T, backend storage.Backend) (*app.App, *calendartest.Server) {
	t.Helper()
	srv := calendartest.NewServer()
	t.Cleanup(srv.Close)

	sess := session.New(backend, nil)
	a := app.New(app.Options{
		Store:    task.NewStore(backend, task.DefaultStorageKey, nil),
		Session:  sess,
		Calendar: taskcal.New(sess, taskcal.Options{Endpoint: srv.Endpoint(), Location: time.UTC}),
		Notifier: app.NewRecordingNotifier(nil),
	})
	return a, srv
}

func newTestRouter(t *testing.T, opts ...Option) (http.Handler, *ServerContext, *calendartest.Server) {
	t.Helper()
	a, srv := newTestApp(t, storage.NewMemory())
	sc, err := NewServerContext(context.Background(), a, opts...)
	require.NoError(t, err)
	return NewRouter(sc, NewHealthChecker(sc)), sc, srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestNewServerContext_RequiresApp(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil)
	assert.Error(t, err)
}

func TestAPI_CreateAndListTasks(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/tasks", `{"task":"standup","priority":"high","date":"2024-01-15","isRecurring":true,"recurringUntil":"2024-01-20"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[taskResponse](t, rec)
	assert.Equal(t, "standup", created.Task.Description)
	assert.Equal(t, task.PriorityHigh, created.Task.Priority)
	assert.Empty(t, created.Warning)

	rec = do(t, h, http.MethodPost, "/api/tasks", `{"task":"dentist","date":"2024-01-10"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]task.Task](t, rec), 2)

	rec = do(t, h, http.MethodGet, "/api/tasks?date=2024-01-18", "")
	require.Equal(t, http.StatusOK, rec.Code)
	visible := decode[[]task.Task](t, rec)
	require.Len(t, visible, 1)
	assert.Equal(t, "standup", visible[0].Description)
}

func TestAPI_CreateTaskRejectsInvalidInput(t *testing.T) {
	h, sc, _ := newTestRouter(t)

	tests := []struct {
		name string
		body string
		code string
	}{
		{name: "empty body", body: "", code: "invalid_request"},
		{name: "malformed json", body: `{"task":`, code: "invalid_request"},
		{name: "unknown field", body: `{"task":"x","color":"red"}`, code: "invalid_request"},
		{name: "empty description", body: `{"task":"  "}`, code: "invalid_task"},
		{name: "until before date", body: `{"task":"x","date":"2024-01-10","isRecurring":true,"recurringUntil":"2024-01-01"}`, code: "invalid_task"},
		{name: "bad time", body: `{"task":"x","date":"2024-01-10","time":"noon"}`, code: "invalid_task"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/tasks", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode[errorResponse](t, rec).Code)
		})
	}
	assert.Empty(t, sc.App().Tasks(nil))
}

func TestAPI_ToggleTask(t *testing.T) {
	h, sc, _ := newTestRouter(t)
	created, err := sc.App().AddTask(context.Background(), task.Draft{Description: "read"})
	require.NoError(t, err)

	rec := do(t, h, http.MethodPost, "/api/tasks/"+itoa(created.ID)+"/toggle", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[taskResponse](t, rec).Task.Completed)

	rec = do(t, h, http.MethodPost, "/api/tasks/42/toggle", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/tasks/abc/toggle", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/progress", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, task.Progress{Completed: 1, Total: 1, Percent: 100}, decode[task.Progress](t, rec))
}

func TestAPI_ClearTasks(t *testing.T) {
	h, sc, _ := newTestRouter(t)
	_, err := sc.App().AddTask(context.Background(), task.Draft{Description: "read"})
	require.NoError(t, err)

	rec := do(t, h, http.MethodDelete, "/api/tasks", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, sc.App().Tasks(nil))
}

func TestAPI_Events(t *testing.T) {
	h, sc, srv := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/events?date=2024-01-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]taskcal.Event](t, rec))
	assert.Empty(t, srv.Requests(), "no remote call without a session")

	require.NoError(t, sc.App().SignInWithToken(context.Background(), "ya29.test"))
	srv.SetEvents(&calendar.Event{
		Id:      "ev1",
		Summary: "standup",
		Start:   &calendar.EventDateTime{DateTime: "2024-01-10T09:00:00Z"},
		End:     &calendar.EventDateTime{DateTime: "2024-01-10T09:15:00Z"},
	})

	rec = do(t, h, http.MethodGet, "/api/events?date=2024-01-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	events := decode[[]taskcal.Event](t, rec)
	require.Len(t, events, 1)
	assert.Equal(t, "standup", events[0].Summary)

	rec = do(t, h, http.MethodGet, "/api/events?date=tomorrow", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	srv.Fail(http.StatusInternalServerError, "backend error")
	rec = do(t, h, http.MethodGet, "/api/events?date=2024-01-10", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]taskcal.Event](t, rec))
	assert.Contains(t, rec.Header().Get("X-Taskcal-Warning"), "backend error")
}

func TestAPI_MountsMCPHandler(t *testing.T) {
	a, _ := newTestApp(t, storage.NewMemory())
	sc, err := NewServerContext(context.Background(), a)
	require.NoError(t, err)

	var hits int
	mcp := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		w.WriteHeader(http.StatusAccepted)
	})

	h := NewRouter(sc, nil, WithMCPHandler(mcp))
	rec := do(t, h, http.MethodPost, "/mcp", `{"jsonrpc":"2.0","id":1,"method":"ping"}`)
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, 1, hits)

	h = NewRouter(sc, nil)
	rec = do(t, h, http.MethodPost, "/mcp", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_Status(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[app.Status](t, rec)
	assert.Equal(t, "unauthenticated", st.Session)
	assert.Equal(t, storage.TypeMemory, st.Backend)
}

func TestAPI_UnknownRoute(t *testing.T) {
	h, _, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decode[errorResponse](t, rec).Code)

	rec = do(t, h, http.MethodPut, "/api/progress", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAPI_RecordsRequestMetrics(t *testing.T) {
	provider := createTestProvider(t, instrumentation.ExporterPrometheus)
	h, _, _ := newTestRouter(t, WithProvider(provider))

	do(t, h, http.MethodGet, "/api/progress", "")

	rec := httptest.NewRecorder()
	provider.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body := rec.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `path="/api/progress"`)
}

func TestHealth(t *testing.T) {
	h, sc, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/readyz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	ready := decode[HealthResponse](t, rec)
	assert.Equal(t, healthStatusOK, ready.Checks["storage"])

	rec = do(t, h, http.MethodGet, "/healthz/detailed", "")
	require.Equal(t, http.StatusOK, rec.Code)
	detailed := decode[DetailedHealthResponse](t, rec)
	assert.Equal(t, "unauthenticated", detailed.Session)
	assert.Equal(t, storage.TypeMemory, detailed.Backend)

	require.NoError(t, sc.Shutdown(context.Background()))
	assert.True(t, sc.IsShutdown())
	rec = do(t, h, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, healthStatusShuttingDown, decode[HealthResponse](t, rec).Checks["shutdown"])
}

func TestHealth_NotReady(t *testing.T) {
	health := NewHealthChecker(nil)
	health.SetReady(false)
	assert.False(t, health.IsReady())

	mux := http.NewServeMux()
	health.RegisterHealthEndpoints(mux)

	rec := do(t, mux, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	rec = do(t, mux, http.MethodGet, "/healthz/detailed", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHealth_StorageUnavailable(t *testing.T) {
	a, _ := newTestApp(t, brokenBackend{Memory: storage.NewMemory()})
	sc, err := NewServerContext(context.Background(), a)
	require.NoError(t, err)

	rec := do(t, NewRouter(sc, NewHealthChecker(sc)), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, healthStatusUnavailable, decode[HealthResponse](t, rec).Checks["storage"])
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
