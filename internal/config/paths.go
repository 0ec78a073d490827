package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths centralizes filesystem layout resolution for the application.
// All raw inputs live under RawDir and all processed outputs under
// ProcessedDir; nothing else on disk is touched by the pipeline.
type Paths struct {
	BaseDir      string
	DataDir      string
	RawDir       string
	ProcessedDir string
	LogsDir      string
}

// NewPaths builds the path set from a base directory. An empty base
// resolves to the current working directory.
func NewPaths(baseDir string) (*Paths, error) {
	if baseDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve working directory: %w", err)
		}
		baseDir = wd
	}

	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", baseDir, err)
	}

	dataDir := filepath.Join(abs, "data")
	return &Paths{
		BaseDir:      abs,
		DataDir:      dataDir,
		RawDir:       filepath.Join(dataDir, "raw"),
		ProcessedDir: filepath.Join(dataDir, "processed"),
		LogsDir:      filepath.Join(abs, "logs"),
	}, nil
}

// EnsureDirectories creates all required directories if they do not exist.
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.RawDir, p.ProcessedDir, p.LogsDir}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// GetRawPath returns the full path for a raw input filename.
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetProcessedPath returns the full path for a processed output filename.
func (p *Paths) GetProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDir, filename)
}

// GetLogPath returns the full path for a log filename.
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// FileExists checks if a file exists at the given path
func FileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
