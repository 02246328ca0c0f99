package errors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/go-chi/chi/v5/middleware"
)

// Problem types for transport-level failures (RFC 7807)
const (
	TypeValidation       = "/errors/validation"
	TypeNotFound         = "/errors/not-found"
	TypeMethodNotAllowed = "/errors/method-not-allowed"
	TypeRateLimit        = "/errors/rate-limit"
	TypeInternal         = "/errors/internal"
	TypeServiceDown      = "/errors/service-unavailable"
	TypeTimeout          = "/errors/timeout"
)

// Dataset and rendering problem types
const (
	TypeDataNotFound  = "/errors/data/not-found"
	TypeDataCorrupted = "/errors/data/corrupted"
	TypeDataMapping   = "/errors/data/mapping"
	TypeRender        = "/errors/render"
)

type problemKind struct {
	status int
	typ    string
	title  string
	// public means the AppError message is safe to show as the detail.
	public bool
}

// appProblems maps pipeline error types to responses. A missing dataset is
// a 503 because the service itself is fine and recovers once the file is
// back; everything else the pipeline reports is a 500.
var appProblems = map[ErrorType]problemKind{
	ErrTypeNotFound:   {http.StatusServiceUnavailable, TypeDataNotFound, "Dataset Unavailable", true},
	ErrTypeParsing:    {http.StatusInternalServerError, TypeDataCorrupted, "Dataset Corrupted", true},
	ErrTypeSchema:     {http.StatusInternalServerError, TypeDataCorrupted, "Dataset Corrupted", true},
	ErrTypeMapping:    {http.StatusInternalServerError, TypeDataMapping, "Unmapped Value", true},
	ErrTypeRender:     {http.StatusInternalServerError, TypeRender, "Rendering Failed", true},
	ErrTypeValidation: {http.StatusBadRequest, TypeValidation, "Validation Failed", true},
}

var internalProblem = problemKind{http.StatusInternalServerError, TypeInternal, "Internal Server Error", false}

const internalDetail = "An unexpected error occurred while processing your request"

// ErrorHandler writes every failure as an application/problem+json
// response and logs it once.
type ErrorHandler struct {
	logger       *slog.Logger
	includeStack bool
}

// NewErrorHandler creates a new error handler. includeStack adds goroutine
// stacks to responses and is meant for development only.
func NewErrorHandler(logger *slog.Logger, includeStack bool) *ErrorHandler {
	return &ErrorHandler{
		logger:       logger.With(slog.String("component", "error_handler")),
		includeStack: includeStack,
	}
}

// HandleError converts err to a problem document, logs it and responds.
// Client-side problems (4xx) log at warn, the rest at error.
func (h *ErrorHandler) HandleError(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		return
	}

	reqID := middleware.GetReqID(r.Context())
	problem := h.ErrorToProblem(err, r)

	level := slog.LevelError
	if problem.Status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(r.Context(), level, "request failed",
		slog.String("error", err.Error()),
		slog.String("problem_type", problem.Type),
		slog.Int("status", problem.Status),
		slog.String("request_id", reqID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
	)

	if h.includeStack {
		problem.WithExtension("stack", getStackTrace())
	}
	h.write(w, r, problem)
}

// ErrorToProblem converts an error to RFC 7807 Problem Details
func (h *ErrorHandler) ErrorToProblem(err error, r *http.Request) *ProblemDetails {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return NewProblemDetails(http.StatusGatewayTimeout, TypeTimeout, "Request Timeout",
			"The dashboard took too long to render and the request was cancelled", r.URL.Path)
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErrorToProblem(apiErr, r)
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErrorToProblem(appErr, r)
	}

	return kindToProblem(internalProblem, internalDetail, r)
}

func kindToProblem(k problemKind, detail string, r *http.Request) *ProblemDetails {
	return NewProblemDetails(k.status, k.typ, k.title, detail, r.URL.Path)
}

func appErrorToProblem(appErr *AppError, r *http.Request) *ProblemDetails {
	kind, ok := appProblems[appErr.Type]
	if !ok {
		kind = internalProblem
	}

	detail := internalDetail
	if kind.public {
		detail = appErr.Error()
	}

	problem := kindToProblem(kind, detail, r).WithExtension("error_type", string(appErr.Type))
	if len(appErr.Context) > 0 {
		problem.WithExtension("context", appErr.Context)
	}
	return problem
}

func apiErrorToProblem(apiErr *APIError, r *http.Request) *ProblemDetails {
	problemType := apiErr.ProblemType
	if problemType == "" {
		problemType = TypeInternal
	}

	problem := NewProblemDetails(apiErr.StatusCode, problemType, http.StatusText(apiErr.StatusCode),
		apiErr.Message, r.URL.Path).
		WithExtension("error_code", apiErr.ErrorCode)

	if apiErr.Details != "" {
		problem.WithExtension("details", apiErr.Details)
	}
	if apiErr.RetryAfter > 0 {
		problem.WithExtension("retry_after", apiErr.RetryAfter)
	}
	return problem
}

// HandlePanic answers a recovered panic with a 500 problem
func (h *ErrorHandler) HandlePanic(w http.ResponseWriter, r *http.Request, recovered interface{}) {
	h.logger.ErrorContext(r.Context(), "panic recovered",
		slog.Any("panic", recovered),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("stack", string(debug.Stack())),
	)

	problem := kindToProblem(internalProblem, "An unexpected error occurred", r)
	if h.includeStack {
		problem.WithExtension("panic", fmt.Sprintf("%v", recovered))
		problem.WithExtension("stack", getStackTrace())
	}
	h.write(w, r, problem)
}

// NotFound is the router's 404 handler
func (h *ErrorHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusNotFound, TypeNotFound, "Not Found",
		"The requested resource was not found", r.URL.Path))
}

// MethodNotAllowed is the router's 405 handler
func (h *ErrorHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.write(w, r, NewProblemDetails(http.StatusMethodNotAllowed, TypeMethodNotAllowed, "Method Not Allowed",
		fmt.Sprintf("Method %s is not allowed for this endpoint", r.Method), r.URL.Path))
}

// write stamps the request ID on the problem so a client report can be
// matched to the log line.
func (h *ErrorHandler) write(w http.ResponseWriter, r *http.Request, problem *ProblemDetails) {
	problem.WithExtension("trace_id", middleware.GetReqID(r.Context()))
	WriteProblem(w, problem)
}

func getStackTrace() string {
	buf := make([]byte, 8<<10)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}
