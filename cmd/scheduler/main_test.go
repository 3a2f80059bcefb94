package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/trainer-scheduler/internal/config"
)

func loadTestConfig(t *testing.T, dbName string) config.Config {
	t.Helper()
	t.Setenv("SCHEDULER_DB_DSN", filepath.Join(t.TempDir(), dbName))
	t.Setenv("SCHEDULER_CONFLICT_POLICY", "enforce")
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func startApp(t *testing.T, cfg config.Config) (*app, *httptest.Server) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a, err := newApp(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	srv := httptest.NewServer(a.handler)
	t.Cleanup(srv.Close)
	return a, srv
}

func call(t *testing.T, method, url string, payload any) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, raw
}

func TestNewAppServesLocalRepository(t *testing.T) {
	cfg := loadTestConfig(t, "local.db")
	a, srv := startApp(t, cfg)

	resp, body := call(t, http.MethodGet, srv.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	assert.Contains(t, string(body), `"database":"ok"`)

	resp, body = call(t, http.MethodPut, srv.URL+"/api/trainers/T1", map[string]any{"name": "Alex Morgan"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	require.NoError(t, a.store.Refresh(context.Background()))
	require.Len(t, a.store.Trainers(), 1)

	event := map[string]any{
		"title":     "Morning strength",
		"type":      "training",
		"startTime": "2030-01-07T10:00:00Z",
		"endTime":   "2030-01-07T11:00:00Z",
		"trainerId": "T1",
	}
	resp, body = call(t, http.MethodPost, srv.URL+"/schedule/events", event)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	// the configured enforce policy rejects the overlapping booking
	resp, body = call(t, http.MethodPost, srv.URL+"/schedule/events", event)
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(body))

	resp, body = call(t, http.MethodGet, srv.URL+"/metrics", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "scheduler_http_requests_total")
}

func TestNewAppUsesRemoteRepository(t *testing.T) {
	backendCfg := loadTestConfig(t, "backend.db")
	_, backendSrv := startApp(t, backendCfg)

	resp, body := call(t, http.MethodPut, backendSrv.URL+"/api/trainers/T1", map[string]any{"name": "Alex Morgan"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	engineCfg := loadTestConfig(t, "engine.db")
	engineCfg.RepositoryURL = backendSrv.URL + "/api"
	_, engineSrv := startApp(t, engineCfg)

	resp, body = call(t, http.MethodPost, engineSrv.URL+"/schedule/refresh", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = call(t, http.MethodGet, engineSrv.URL+"/schedule/trainers", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "Alex Morgan")

	resp, body = call(t, http.MethodPost, engineSrv.URL+"/schedule/events", map[string]any{
		"title":     "Evening mobility",
		"type":      "group",
		"startTime": "2030-01-08T18:00:00Z",
		"endTime":   "2030-01-08T19:00:00Z",
		"trainerId": "T1",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = call(t, http.MethodGet, backendSrv.URL+"/api/events", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "Evening mobility"), string(body))
}

func TestNewAppRejectsUnknownDriver(t *testing.T) {
	cfg := loadTestConfig(t, "unused.db")
	cfg.DBDriver = "oracle"

	_, err := newApp(context.Background(), cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported driver")
}
