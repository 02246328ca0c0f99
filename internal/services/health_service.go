package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// Health statuses
const (
	StatusOK       = "ok"
	StatusAlive    = "alive"
	StatusReady    = "ready"
	StatusNotReady = "not_ready"
)

// HealthService provides health check functionality
type HealthService struct {
	version     string
	repoURL     string
	buildTime   string
	buildID     string
	datasetPath string
	startTime   time.Time
	logger      *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                   `json:"status"`
	Timestamp time.Time                `json:"timestamp"`
	Version   string                   `json:"version"`
	Runtime   map[string]interface{}   `json:"runtime,omitempty"`
	Services  map[string]ServiceHealth `json:"services,omitempty"`
}

// ServiceHealth represents individual service health
type ServiceHealth struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version   string
	RepoURL   string
	BuildTime string
	BuildID   string
}

// NewHealthService creates a health service that reports ready while the
// dataset file is present.
func NewHealthService(build BuildInfo, datasetPath string, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("HealthService initialized",
		slog.String("version", build.Version),
		slog.String("build_time", build.BuildTime),
		slog.String("build_id", build.BuildID))

	return &HealthService{
		version:     build.Version,
		repoURL:     build.RepoURL,
		buildTime:   build.BuildTime,
		buildID:     build.BuildID,
		datasetPath: datasetPath,
		startTime:   time.Now(),
		logger:      logger,
	}
}

// HealthCheck returns overall health status
func (hs *HealthService) HealthCheck(ctx context.Context) HealthStatus {
	hs.logger.DebugContext(ctx, "HealthCheck: performing health check",
		slog.String("uptime", time.Since(hs.startTime).String()))

	return HealthStatus{
		Status:    StatusOK,
		Timestamp: time.Now(),
		Version:   hs.version,
	}
}

// ReadinessCheck reports whether the dataset can be served.
func (hs *HealthService) ReadinessCheck(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    StatusReady,
		Timestamp: time.Now(),
		Version:   hs.version,
		Services: map[string]ServiceHealth{
			"dataset": hs.checkDatasetHealth(),
		},
	}

	for name, service := range status.Services {
		if service.Status != StatusReady {
			status.Status = StatusNotReady
			hs.logger.WarnContext(ctx, "ReadinessCheck: dependency not ready",
				slog.String("service", name),
				slog.String("message", service.Message))
		}
	}
	return status
}

// LivenessCheck returns liveness status
func (hs *HealthService) LivenessCheck(ctx context.Context) HealthStatus {
	return HealthStatus{
		Status:    StatusAlive,
		Timestamp: time.Now(),
		Version:   hs.version,
		Runtime: map[string]interface{}{
			"uptime":     time.Since(hs.startTime).Seconds(),
			"go_version": runtime.Version(),
			"goroutines": runtime.NumGoroutine(),
		},
	}
}

// Version returns version information
func (hs *HealthService) Version() map[string]interface{} {
	result := map[string]interface{}{
		"version":      hs.version,
		"go_version":   runtime.Version(),
		"os":           runtime.GOOS,
		"arch":         runtime.GOARCH,
		"uptime":       time.Since(hs.startTime).Seconds(),
		"start_time":   hs.startTime.Format(time.RFC3339),
		"current_time": time.Now().Format(time.RFC3339),
	}

	if hs.repoURL != "" {
		result["repo_url"] = hs.repoURL
	}
	if hs.buildTime != "" {
		result["build_time"] = hs.buildTime
	}
	if hs.buildID != "" {
		result["build_id"] = hs.buildID
	}

	return result
}

func (hs *HealthService) checkDatasetHealth() ServiceHealth {
	info, err := os.Stat(hs.datasetPath)
	switch {
	case os.IsNotExist(err):
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Dataset not found: %s", hs.datasetPath),
		}
	case err != nil:
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Dataset not accessible: %v", err),
		}
	case info.IsDir():
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Dataset path is a directory: %s", hs.datasetPath),
		}
	case info.Size() == 0:
		return ServiceHealth{
			Status:  StatusNotReady,
			Message: fmt.Sprintf("Dataset is empty: %s", hs.datasetPath),
		}
	}

	return ServiceHealth{
		Status: StatusReady,
		Message: fmt.Sprintf("Dataset is readable (%d bytes, modified %s)",
			info.Size(), info.ModTime().UTC().Format(time.RFC3339)),
	}
}
