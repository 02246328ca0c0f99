package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/config"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/dataset"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/infrastructure"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/middleware"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/shared/testutil"
)

func testConfig(t *testing.T, datasetPath string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Logging.Level = "error"
	cfg.Security.RateLimit.Enabled = false
	cfg.Dataset.Path = datasetPath
	return cfg
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()
	infrastructure.ResetLoggerForTesting()
	t.Cleanup(infrastructure.ResetLoggerForTesting)

	app, err := NewApplicationWithConfig(cfg, io.Discard)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app
}

func sampleDataset(t *testing.T) string {
	t.Helper()
	return testutil.WriteCSV(t, t.TempDir(), "churn.csv", testutil.SampleRows())
}

func serve(app *Application, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestNewApplicationWithConfig(t *testing.T) {
	path := sampleDataset(t)
	app := newTestApp(t, testConfig(t, path))

	assert.Equal(t, path, app.Config.Dataset.Path)
	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.NotNil(t, app.Metrics)
	assert.Equal(t, path, app.Services.Dashboard.DatasetPath())
	assert.Equal(t, "127.0.0.1:0", app.Server.Addr)
}

func TestNewApplication_InvalidConfigFile(t *testing.T) {
	bad := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("server: [not, a, map]\n"), 0644))

	_, err := NewApplication(Options{ConfigPath: bad, Console: io.Discard})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load configuration")
}

func TestRouter(t *testing.T) {
	app := newTestApp(t, testConfig(t, sampleDataset(t)))

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantType    string
		wantContain string
	}{
		{"dashboard page", http.MethodGet, "/", http.StatusOK, "text/html; charset=utf-8", "Customer Churn Analysis Dashboard"},
		{"health", http.MethodGet, "/api/health", http.StatusOK, "application/json", `"status":"ok"`},
		{"readiness", http.MethodGet, "/api/health/ready", http.StatusOK, "application/json", `"dataset"`},
		{"version", http.MethodGet, "/api/version", http.StatusOK, "application/json", REPO_URL},
		{"unknown path", http.MethodGet, "/nope", http.StatusNotFound, apierrors.ProblemContentType, apierrors.TypeNotFound},
		{"wrong method", http.MethodPost, "/", http.StatusMethodNotAllowed, apierrors.ProblemContentType, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(app, tt.method, tt.path)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), tt.wantType)
			assert.NotEmpty(t, rec.Header().Get(middleware.RequestIDHeader))
			assert.Contains(t, rec.Body.String(), tt.wantContain)
		})
	}
}

func TestRouter_MetricsAfterRender(t *testing.T) {
	app := newTestApp(t, testConfig(t, sampleDataset(t)))

	require.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/").Code)

	rec := serve(app, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dashboard_renders_total")
	assert.Contains(t, rec.Body.String(), "dataset_rows_excluded_total")
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t, sampleDataset(t))
	cfg.Telemetry.MetricExporter = "none"
	app := newTestApp(t, cfg)

	rec := serve(app, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_DatasetRemovedAfterStartup(t *testing.T) {
	path := sampleDataset(t)
	app := newTestApp(t, testConfig(t, path))
	require.NoError(t, os.Remove(path))

	page := serve(app, http.MethodGet, "/")
	assert.Equal(t, http.StatusServiceUnavailable, page.Code)

	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(page.Body.Bytes(), &problem))
	assert.Equal(t, apierrors.TypeDataNotFound, problem["type"])

	ready := serve(app, http.MethodGet, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, ready.Code)
}

func TestRouter_RateLimit(t *testing.T) {
	cfg := testConfig(t, sampleDataset(t))
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 1}
	app := newTestApp(t, cfg)

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/health/live").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, "/api/health/live").Code)
}

func TestStart_ServesUntilCancelled(t *testing.T) {
	app := newTestApp(t, testConfig(t, sampleDataset(t)))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Start(ctx, ln) }()

	url := "http://" + ln.Addr().String() + "/api/health/live"
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancellation")
	}
}

func TestStart_MissingDatasetIsFatal(t *testing.T) {
	app := newTestApp(t, testConfig(t, filepath.Join(t.TempDir(), "missing.csv")))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	err = app.Start(context.Background(), ln)
	require.Error(t, err)
	assert.ErrorIs(t, err, dataset.ErrDatasetNotFound)
	assert.Contains(t, err.Error(), "startup check failed")
}

func TestSnapshot(t *testing.T) {
	app := newTestApp(t, testConfig(t, sampleDataset(t)))

	var buf bytes.Buffer
	require.NoError(t, app.Snapshot(context.Background(), &buf))

	out := buf.String()
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "Data View")
	assert.Contains(t, out, "Churn rates based on monthly charges")
}

func TestSnapshot_Failure(t *testing.T) {
	app := newTestApp(t, testConfig(t, filepath.Join(t.TempDir(), "missing.csv")))

	var buf bytes.Buffer
	err := app.Snapshot(context.Background(), &buf)
	require.Error(t, err)
	assert.Equal(t, apierrors.ErrTypeNotFound, apierrors.TypeOf(err))
	assert.Zero(t, buf.Len())
}

func TestBuildInfo(t *testing.T) {
	assert.NotEmpty(t, BuildTime)
	assert.Len(t, BuildID, 12)
	assert.Equal(t, config.AppVersion, VERSION)
}
