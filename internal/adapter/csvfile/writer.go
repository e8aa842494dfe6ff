package csvfile

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// FileWriter writes the cleaned dataset to a local path. The file is written
// to a temporary sibling and renamed into place, so readers never see a
// partial file.
type FileWriter struct {
	path   string
	logger *slog.Logger
}

// NewFileWriter creates a loader targeting path.
func NewFileWriter(path string, logger *slog.Logger) *FileWriter {
	return &FileWriter{path: path, logger: logger}
}

// Name identifies the loader in logs and metrics.
func (w *FileWriter) Name() string { return "file" }

// Load replaces the output file with readings.
func (w *FileWriter) Load(ctx context.Context, readings []domain.Reading) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	dir := filepath.Dir(w.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(w.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", w.path, err)
	}
	if err := Encode(tmp, readings); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode %s: %w", w.path, err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync %s: %w", w.path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", w.path, err)
	}
	if err := os.Rename(tmpName, w.path); err != nil {
		return fmt.Errorf("rename %s: %w", w.path, err)
	}

	w.logger.Info("dataset written", "path", w.path, "rows", len(readings))
	return nil
}
