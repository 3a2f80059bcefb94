package http

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var sawLogger bool
	handler := RequestLogger(base)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sawLogger = LoggerFromContext(r.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/schedule/state", nil))

	require.True(t, sawLogger, "expected logger in request context")
	assert.Equal(t, http.StatusTeapot, recorder.Code)
	out := buf.String()
	assert.Contains(t, out, "request_id=1")
	assert.Contains(t, out, "path=/schedule/state")
	assert.Contains(t, out, "status=418")
}

func TestMetricsMiddleware(t *testing.T) {
	t.Parallel()

	handler := Metrics()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	counter := httpRequestTotal.WithLabelValues(http.MethodPost, "/schedule/events/{id}/status", "202")
	before := testutil.ToFloat64(counter)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/schedule/events/E42/status", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/schedule/events/E43/status", nil))

	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}

func TestRecover(t *testing.T) {
	t.Parallel()

	handler := Recover(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.True(t, strings.HasPrefix(recorder.Header().Get("Content-Type"), "application/json"))
}

func TestRouteLabel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"/api/events":                     "/api/events",
		"/api/events/E1":                  "/api/events/{id}",
		"/api/trainers/T1":                "/api/trainers/{id}",
		"/schedule/events/E1/status":      "/schedule/events/{id}/status",
		"/schedule/trainers/T1/next-slot": "/schedule/trainers/{id}/next-slot",
		"/healthz":                        "/healthz",
	}
	for path, want := range tests {
		assert.Equal(t, want, routeLabel(path), path)
	}
}

func TestRouterMiddlewareOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mark := func(name string) func(http.Handler) http.Handler {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	router := NewRouter(RouterConfig{
		Health:     NewHealthHandler(nil, nil),
		Middleware: []func(http.Handler) http.Handler{mark("outer"), nil, mark("inner")},
	})
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, []string{"outer", "inner"}, order)
}
