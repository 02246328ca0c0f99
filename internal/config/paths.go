package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ResolveDatasetPath returns the location of the dataset file. Absolute paths
// are used as-is. Relative paths are tried against the working directory
// first and then the directory holding the executable, so a binary copied
// next to its CSV works from anywhere. When neither exists the working
// directory candidate is returned and the loader reports it as missing.
func ResolveDatasetPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("dataset path is empty")
	}
	if filepath.IsAbs(path) {
		return path, nil
	}

	wdPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if FileExists(wdPath) {
		return wdPath, nil
	}

	exeDir, err := executableDir()
	if err != nil {
		return wdPath, nil
	}
	exePath := filepath.Join(exeDir, path)
	if FileExists(exePath) {
		slog.Default().Debug("Dataset resolved next to executable",
			slog.String("path", exePath))
		return exePath, nil
	}

	return wdPath, nil
}

// executableDir returns the directory containing the running binary
func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// FileExists checks if a regular file exists
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
