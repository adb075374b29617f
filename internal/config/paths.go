package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the resolved absolute locations used at runtime
type Paths struct {
	BaseDir      string
	DataDir      string
	LogsDir      string
	DatasetFile  string
	QueryLogFile string
	LogFile      string
}

// ResolvedPaths returns the resolved paths of a loaded configuration
func (c *Config) ResolvedPaths() *Paths {
	return &Paths{
		BaseDir:      c.Paths.BaseDir,
		DataDir:      c.Paths.DataDir,
		LogsDir:      c.Paths.LogsDir,
		DatasetFile:  c.Dataset.Path,
		QueryLogFile: c.QueryLog.Path,
		LogFile:      c.Logging.FilePath,
	}
}

// EnsureDirectories creates the writable directories (data, logs and the query log parent)
func (p *Paths) EnsureDirectories() error {
	dirs := []string{p.DataDir, p.LogsDir}
	if p.QueryLogFile != "" {
		dirs = append(dirs, filepath.Dir(p.QueryLogFile))
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	return nil
}

// LogPathResolution logs every resolved path at debug level
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	logger.Debug("Resolved application paths",
		slog.String("base_dir", p.BaseDir),
		slog.String("data_dir", p.DataDir),
		slog.String("logs_dir", p.LogsDir),
		slog.String("dataset_file", p.DatasetFile),
		slog.String("query_log_file", p.QueryLogFile),
		slog.Bool("dataset_exists", FileExists(p.DatasetFile)))
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
