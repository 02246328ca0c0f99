package infrastructure

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.opentelemetry.io/otel/trace"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/config"
)

var (
	loggerMu   sync.Mutex
	rootLogger *slog.Logger
	logFile    *os.File
)

// InitializeLogger creates the process-wide JSON logger and installs it as
// the slog default. Console output goes to console, file output appends to
// cfg.FilePath. Later calls return the logger built by the first one.
func InitializeLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if rootLogger != nil {
		return rootLogger, nil
	}

	out, file, err := logDestination(cfg, console)
	if err != nil {
		return nil, err
	}

	logFile = file
	rootLogger = NewLogger(out, cfg.Level)
	slog.SetDefault(rootLogger)
	return rootLogger, nil
}

// GetLogger returns the process logger, or slog.Default before
// InitializeLogger has run.
func GetLogger() *slog.Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if rootLogger == nil {
		return slog.Default()
	}
	return rootLogger
}

// NewLogger builds a JSON logger writing to w whose records carry the
// correlation IDs found in the context.
func NewLogger(w io.Writer, level string) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: true,
		Level:     parseLogLevel(level),
	})
	return slog.New(&contextHandler{Handler: handler})
}

// logDestination resolves the configured output. The returned file is nil
// for console-only logging.
func logDestination(cfg config.LoggingConfig, console io.Writer) (io.Writer, *os.File, error) {
	if console == nil {
		console = os.Stdout
	}

	output := strings.ToLower(cfg.Output)
	if output != "file" && output != "both" {
		return console, nil, nil
	}

	file, err := openLogFile(cfg.FilePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if output == "file" {
		return file, file, nil
	}
	return io.MultiWriter(console, file), file, nil
}

// contextHandler adds correlation IDs from the context: the request or
// snapshot trace ID, and the IDs of an active OpenTelemetry span.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if traceID := GetTraceID(ctx); traceID != "" {
		r.AddAttrs(slog.String("trace_id", traceID))
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		r.AddAttrs(
			slog.String("otel_trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *contextHandler) WithGroup(name string) slog.Handler {
	return &contextHandler{Handler: h.Handler.WithGroup(name)}
}

// parseLogLevel accepts the slog level names plus "warning"; anything else
// is info.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}

// CloseLogFile closes the log file opened by InitializeLogger, if any.
func CloseLogFile() error {
	loggerMu.Lock()
	defer loggerMu.Unlock()

	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// ResetLoggerForTesting drops the process logger so the next
// InitializeLogger call builds a new one. Tests only.
func ResetLoggerForTesting() {
	_ = CloseLogFile()

	loggerMu.Lock()
	rootLogger = nil
	loggerMu.Unlock()
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory for %s: %w", path, err)
	}
	return os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
}
