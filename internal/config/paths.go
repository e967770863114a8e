package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// Paths holds the directories the dashboard reads from and writes to.
// Relative config values are resolved against BaseDir when they do not exist
// relative to the working directory.
type Paths struct {
	BaseDir    string
	LogsDir    string
	ExportsDir string
}

// NewPaths lays out the directories under baseDir.
func NewPaths(baseDir string) *Paths {
	return &Paths{
		BaseDir:    baseDir,
		LogsDir:    filepath.Join(baseDir, "logs"),
		ExportsDir: filepath.Join(baseDir, "exports"),
	}
}

// GetPaths returns the paths relative to the executable location
func GetPaths() (*Paths, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable path: %v", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve executable symlinks: %v", err)
	}

	return NewPaths(filepath.Dir(exe)), nil
}

// EnsureDirectories creates the writable directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{p.LogsDir, p.ExportsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %v", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}
	return nil
}

// Resolve returns path unchanged when it is absolute or exists relative to
// the working directory, and joins it onto BaseDir otherwise.
func (p *Paths) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || FileExists(path) {
		return path
	}
	resolved := filepath.Join(p.BaseDir, path)
	slog.Debug("Path resolved against base directory",
		slog.String("path", path),
		slog.String("resolved", resolved),
		slog.Bool("exists", FileExists(resolved)))
	return resolved
}

// GetExportPath returns the path for a generated workbook
func (p *Paths) GetExportPath(filename string) string {
	return filepath.Join(p.ExportsDir, filename)
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
