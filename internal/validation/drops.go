// Package validation checks the on-disk layout of Aadhaar data drops before
// the analysis pipelines run. It reports missing or empty drop directories
// early so operators see a clear startup message instead of empty analysis
// results later.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Drop files are CSV or Excel exports from the enrollment API feeds.
var dropExtensions = map[string]bool{
	".csv":  true,
	".xlsx": true,
	".xls":  true,
}

// DropValidator validates the data drop directories shared by the server and
// the report CLI.
type DropValidator struct {
	logger *slog.Logger
}

// NewDropValidator creates a validator. A nil logger falls back to the
// default logger.
func NewDropValidator(logger *slog.Logger) *DropValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &DropValidator{logger: logger}
}

// ValidateDataLayout checks that the base directory exists and inspects each
// named drop directory beneath it. It returns the names of drop directories
// that are absent. Present-but-empty directories are logged but not treated
// as missing, matching the loader which yields an empty dataset for them.
func (v *DropValidator) ValidateDataLayout(baseDir string, dropDirs ...string) ([]string, error) {
	info, err := os.Stat(baseDir)
	if os.IsNotExist(err) {
		v.logger.Error("Data base directory does not exist",
			slog.String("directory", baseDir))
		return nil, fmt.Errorf("data directory %s does not exist", baseDir)
	}
	if err != nil {
		return nil, fmt.Errorf("stat data directory %s: %w", baseDir, err)
	}
	if !info.IsDir() {
		v.logger.Error("Data base path is not a directory",
			slog.String("path", baseDir))
		return nil, fmt.Errorf("%s is not a directory", baseDir)
	}

	var missing []string
	for _, dir := range dropDirs {
		path := filepath.Join(baseDir, dir)
		info, err := os.Stat(path)
		if err != nil || !info.IsDir() {
			v.logger.Warn("Drop directory missing",
				slog.String("directory", path))
			missing = append(missing, dir)
			continue
		}

		count, err := v.CountDropFiles(path)
		if err != nil {
			return nil, err
		}
		if count == 0 {
			v.logger.Warn("Drop directory has no data files",
				slog.String("directory", path))
			continue
		}
		v.logger.Info("Drop directory validated",
			slog.String("directory", path),
			slog.Int("files_found", count))
	}
	return missing, nil
}

// ValidateReportsDir ensures the reports directory exists and is writable.
func (v *DropValidator) ValidateReportsDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		v.logger.Error("Failed to create reports directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create reports directory %s: %w", dir, err)
	}

	// Verify it's writable by creating a probe file
	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		v.logger.Error("Reports directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("reports directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(probe)

	return nil
}

// CountDropFiles counts the data files in a drop directory. Excel lock files
// ("~$" prefixed) and subdirectories are ignored.
func (v *DropValidator) CountDropFiles(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading drop directory %s: %w", dir, err)
	}

	count := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, "~$") {
			continue
		}
		if dropExtensions[strings.ToLower(filepath.Ext(name))] {
			count++
		}
	}
	return count, nil
}
