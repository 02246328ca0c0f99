package http

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/config"
	apierrors "github.com/sxyz5675/Steamlit-Dashboard/internal/errors"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/services"
	"github.com/sxyz5675/Steamlit-Dashboard/internal/shared/testutil"
)

type MockDashboardRenderer struct {
	mock.Mock
}

func (m *MockDashboardRenderer) Render(ctx context.Context, w io.Writer, source string) error {
	args := m.Called(ctx, w, source)
	if body := args.String(1); body != "" {
		_, _ = io.WriteString(w, body)
	}
	return args.Error(0)
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestDashboardHandler_ServePage(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	renderer := new(MockDashboardRenderer)
	renderer.On("Render", mock.Anything, mock.Anything, services.SourceHTTP).
		Return(nil, "<html>dashboard</html>").Once()

	handler := NewDashboardHandler(renderer, logger, apierrors.NewErrorHandler(logger, false))
	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.Equal(t, "<html>dashboard</html>", rec.Body.String())
	renderer.AssertExpectations(t)
}

func TestDashboardHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{
			name:       "dataset missing",
			err:        apierrors.NewNotFoundError("dataset churn.csv", os.ErrNotExist),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   apierrors.TypeDataNotFound,
		},
		{
			name:       "schema error",
			err:        apierrors.NewSchemaError("cannot parse tenure", nil).WithContext("row", 5),
			wantStatus: http.StatusInternalServerError,
			wantType:   apierrors.TypeDataCorrupted,
		},
		{
			name:       "undefined churn label",
			err:        apierrors.NewMappingError(`Churn label "Maybe" is neither Yes nor No`),
			wantStatus: http.StatusInternalServerError,
			wantType:   apierrors.TypeDataMapping,
		},
		{
			name:       "render failure",
			err:        apierrors.NewRenderError("failed to draw chart", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   apierrors.TypeRender,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			renderer := new(MockDashboardRenderer)
			renderer.On("Render", mock.Anything, mock.Anything, services.SourceHTTP).Return(tt.err, "")

			handler := NewDashboardHandler(renderer, logger, apierrors.NewErrorHandler(logger, false))
			rec := httptest.NewRecorder()
			handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, apierrors.ProblemContentType, rec.Header().Get("Content-Type"))
			assert.Empty(t, rec.Header().Get("Cache-Control"))

			body := decodeJSON(t, rec)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.True(t, logs.ContainsMessage("request failed"))
		})
	}
}

func TestDashboardHandler_RendersRealPipeline(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	path := testutil.WriteCSV(t, t.TempDir(), "churn.csv", testutil.SampleRows())

	cfg := config.Default().Dataset
	cfg.Path = path
	svc := services.NewDashboardService(cfg, nil, logger)
	handler := NewDashboardHandler(svc, logger, apierrors.NewErrorHandler(logger, false))

	rec := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Churn rates based on monthly charges")
	assert.Contains(t, rec.Body.String(), "<h2>Data View</h2>")
}

func TestHealthHandler(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "churn.csv")
	require.NoError(t, os.WriteFile(present, []byte("gender\n"), 0644))

	tests := []struct {
		name       string
		dataset    string
		path       string
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name: "health", dataset: present, path: "/api/health", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, services.StatusOK, body["status"])
				assert.Equal(t, "9.9.9", body["version"])
			},
		},
		{
			name: "live", dataset: present, path: "/api/health/live", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, services.StatusAlive, body["status"])
				assert.Contains(t, body, "runtime")
			},
		},
		{
			name: "ready", dataset: present, path: "/api/health/ready", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, services.StatusReady, body["status"])
			},
		},
		{
			name: "not ready", dataset: filepath.Join(dir, "gone.csv"), path: "/api/health/ready", wantStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, services.StatusNotReady, body["status"])
				svcs := body["services"].(map[string]interface{})
				assert.Contains(t, svcs, "dataset")
			},
		},
		{
			name: "version", dataset: present, path: "/api/version", wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "9.9.9", body["version"])
				assert.Equal(t, "b-1", body["build_id"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := services.NewHealthService(services.BuildInfo{Version: "9.9.9", BuildID: "b-1"}, tt.dataset, logger)

			r := chi.NewRouter()
			r.Mount("/api", NewHealthHandler(hs, logger).Routes())

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
			if tt.wantStatus == http.StatusServiceUnavailable {
				assert.Equal(t, "30", rec.Header().Get("Retry-After"))
			}
			tt.check(t, decodeJSON(t, rec))
		})
	}
}

func TestMetricsHandler(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	errHandler := apierrors.NewErrorHandler(logger, false)

	t.Run("exporter enabled", func(t *testing.T) {
		exporter := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, "dashboard_renders_total 1\n")
		})
		rec := httptest.NewRecorder()
		NewMetricsHandler(exporter, errHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "dashboard_renders_total")
	})

	t.Run("exporter disabled", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewMetricsHandler(nil, errHandler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, apierrors.TypeServiceDown, decodeJSON(t, rec)["type"])
	})
}
