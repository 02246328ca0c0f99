package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/shared/testutil"
)

func decodeProblem(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	assert.Equal(t, ProblemContentType, w.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestErrorHandler_HandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
		wantLevel  slog.Level
	}{
		{
			name:       "missing dataset",
			err:        fmt.Errorf("load: %w", NewNotFoundError("dataset", fs.ErrNotExist)),
			wantStatus: http.StatusServiceUnavailable,
			wantType:   TypeDataNotFound,
			wantLevel:  slog.LevelError,
		},
		{
			name:       "parse failure",
			err:        NewParsingError("TotalCharges is not numeric", nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeDataCorrupted,
			wantLevel:  slog.LevelError,
		},
		{
			name:       "schema failure",
			err:        NewSchemaError(`missing column "tenure"`, nil),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeDataCorrupted,
			wantLevel:  slog.LevelError,
		},
		{
			name:       "unexpected churn label",
			err:        NewMappingError(`Churn "Maybe"`),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeDataMapping,
			wantLevel:  slog.LevelError,
		},
		{
			name:       "render failure",
			err:        NewRenderError("panel C", errors.New("no values")),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeRender,
			wantLevel:  slog.LevelError,
		},
		{
			name:       "deadline",
			err:        fmt.Errorf("render: %w", context.DeadlineExceeded),
			wantStatus: http.StatusGatewayTimeout,
			wantType:   TypeTimeout,
			wantLevel:  slog.LevelError,
		},
		{
			name:       "rate limited",
			err:        ErrRateLimitExceeded,
			wantStatus: http.StatusTooManyRequests,
			wantType:   TypeRateLimit,
			wantLevel:  slog.LevelWarn,
		},
		{
			name:       "unknown error",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantType:   TypeInternal,
			wantLevel:  slog.LevelError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, false)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "req-1"))
			w := httptest.NewRecorder()

			h.HandleError(w, req, tt.err)

			assert.Equal(t, tt.wantStatus, w.Code)
			body := decodeProblem(t, w)
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, "req-1", body["trace_id"])
			assert.Equal(t, "/", body["instance"])
			assert.NotContains(t, body, "stack")

			testutil.AssertLogContains(t, logs, tt.wantLevel, "request failed")
			assert.True(t, logs.ContainsAttr("component", "error_handler"))
		})
	}
}

func TestErrorHandler_HandleErrorNil(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)
	w := httptest.NewRecorder()

	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Zero(t, w.Body.Len())
	assert.Zero(t, logs.Count())
}

func TestErrorHandler_AppErrorContextExtension(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, true)

	err := NewSchemaError("bad cell", nil).WithContext("column", "MonthlyCharges").WithContext("row", 4)
	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), err)

	body := decodeProblem(t, w)
	assert.Equal(t, "SCHEMA", body["error_type"])
	ctx, ok := body["context"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "MonthlyCharges", ctx["column"])
	assert.Contains(t, body, "stack")
}

func TestErrorHandler_ConfigErrorDetailHidden(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.HandleError(w, httptest.NewRequest(http.MethodGet, "/", nil), NewConfigError("secret path /etc/x", nil))

	body := decodeProblem(t, w)
	assert.Equal(t, TypeInternal, body["type"])
	assert.Equal(t, "CONFIG", body["error_type"])
	assert.NotContains(t, body["detail"], "/etc/x")
}

func TestErrorHandler_HandlePanic(t *testing.T) {
	tests := []struct {
		name         string
		includeStack bool
	}{
		{"production", false},
		{"development", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			h := NewErrorHandler(logger, tt.includeStack)
			w := httptest.NewRecorder()

			h.HandlePanic(w, httptest.NewRequest(http.MethodGet, "/", nil), "nil map")

			assert.Equal(t, http.StatusInternalServerError, w.Code)
			body := decodeProblem(t, w)
			_, hasPanic := body["panic"]
			assert.Equal(t, tt.includeStack, hasPanic)
			testutil.AssertLogContains(t, logs, slog.LevelError, "panic recovered")
		})
	}
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	h := NewErrorHandler(logger, false)

	w := httptest.NewRecorder()
	h.NotFound(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, TypeNotFound, decodeProblem(t, w)["type"])

	w = httptest.NewRecorder()
	h.MethodNotAllowed(w, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	body := decodeProblem(t, w)
	assert.Equal(t, TypeMethodNotAllowed, body["type"])
	assert.Contains(t, body["detail"], "DELETE")
}
