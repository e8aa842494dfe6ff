package csvfile

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
	"github.com/couchcryptid/wind-power-etl/internal/observability"
)

// Opener opens a named input table.
type Opener interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
}

// FSOpener opens tables from a file system.
type FSOpener struct {
	fsys fs.FS
}

// NewDirOpener opens tables relative to dir.
func NewDirOpener(dir string) FSOpener {
	return FSOpener{fsys: os.DirFS(dir)}
}

// NewFSOpener opens tables from fsys.
func NewFSOpener(fsys fs.FS) FSOpener {
	return FSOpener{fsys: fsys}
}

func (o FSOpener) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return o.fsys.Open(name)
}

// Reader extracts every table listed in a farm manifest.
type Reader struct {
	opener  Opener
	files   []domain.TurbineFile
	strict  bool
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReader creates a Reader. In strict mode the first malformed row aborts
// the extract; otherwise bad rows are logged, counted and skipped.
func NewReader(opener Opener, files []domain.TurbineFile, strict bool, logger *slog.Logger, metrics *observability.Metrics) *Reader {
	return &Reader{
		opener:  opener,
		files:   files,
		strict:  strict,
		logger:  logger,
		metrics: metrics,
	}
}

// Extract reads the tables in manifest order.
func (r *Reader) Extract(ctx context.Context) ([]domain.TurbineTable, error) {
	tables := make([]domain.TurbineTable, 0, len(r.files))
	for _, f := range r.files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		table, err := r.extractOne(ctx, f)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (r *Reader) extractOne(ctx context.Context, f domain.TurbineFile) (domain.TurbineTable, error) {
	rc, err := r.opener.Open(ctx, f.File)
	if err != nil {
		return domain.TurbineTable{}, fmt.Errorf("open %s: %w", f.File, err)
	}
	defer func() { _ = rc.Close() }()

	table, err := Decode(rc, f, r.reject)
	if err != nil {
		return domain.TurbineTable{}, err
	}

	for _, reading := range table.Readings {
		r.metrics.RowsLoaded.WithLabelValues(reading.Source.String()).Inc()
	}
	r.logger.Info("table loaded",
		"file", f.File,
		"turbine_id", f.TurbineID,
		"source", f.Source.String(),
		"rows", len(table.Readings),
		"rejected", table.Rejected,
	)
	return table, nil
}

func (r *Reader) reject(rowErr *domain.RowError) error {
	r.metrics.RowsRejected.Inc()
	if r.strict {
		return rowErr
	}
	r.logger.Warn("row rejected, skipping",
		"file", rowErr.File,
		"line", rowErr.Line,
		"error", rowErr.Err,
	)
	return nil
}
