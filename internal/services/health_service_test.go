package services

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sxyz5675/Steamlit-Dashboard/internal/shared/testutil"
)

func TestHealthService_HealthCheck(t *testing.T) {
	hs := NewHealthService(BuildInfo{Version: "1.2.3"}, "", nil)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, StatusOK, status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	dir := t.TempDir()
	present := filepath.Join(dir, "churn.csv")
	require.NoError(t, os.WriteFile(present, []byte("gender\n"), 0644))
	empty := filepath.Join(dir, "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0644))

	tests := []struct {
		name       string
		path       string
		wantStatus string
		wantMsg    string
	}{
		{"dataset present", present, StatusReady, "Dataset is readable"},
		{"dataset missing", filepath.Join(dir, "missing.csv"), StatusNotReady, "Dataset not found"},
		{"path is a directory", dir, StatusNotReady, "is a directory"},
		{"empty file", empty, StatusNotReady, "Dataset is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			hs := NewHealthService(BuildInfo{Version: "test"}, tt.path, logger)

			status := hs.ReadinessCheck(context.Background())

			assert.Equal(t, tt.wantStatus, status.Status)
			require.Contains(t, status.Services, "dataset")
			assert.Equal(t, tt.wantStatus, status.Services["dataset"].Status)
			assert.Contains(t, status.Services["dataset"].Message, tt.wantMsg)
			assert.Equal(t, tt.wantStatus == StatusNotReady, logs.ContainsMessage("dependency not ready"))
		})
	}
}

func TestHealthService_LivenessCheck(t *testing.T) {
	hs := NewHealthService(BuildInfo{Version: "test"}, "", nil)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, StatusAlive, status.Status)
	assert.Equal(t, runtime.Version(), status.Runtime["go_version"])
	assert.Contains(t, status.Runtime, "uptime")
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_Version(t *testing.T) {
	tests := []struct {
		name    string
		build   BuildInfo
		present []string
		absent  []string
	}{
		{
			name:    "full build info",
			build:   BuildInfo{Version: "1.0.0", RepoURL: "https://example.com/repo", BuildTime: "2026-10-01T00:00:00Z", BuildID: "abc123"},
			present: []string{"version", "repo_url", "build_time", "build_id", "go_version", "os", "arch"},
		},
		{
			name:    "version only",
			build:   BuildInfo{Version: "dev"},
			present: []string{"version", "start_time", "current_time"},
			absent:  []string{"repo_url", "build_time", "build_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := NewHealthService(tt.build, "", nil).Version()
			assert.Equal(t, tt.build.Version, info["version"])
			for _, k := range tt.present {
				assert.Contains(t, info, k)
			}
			for _, k := range tt.absent {
				assert.NotContains(t, info, k)
			}
		})
	}
}
