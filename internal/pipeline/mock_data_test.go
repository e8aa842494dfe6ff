package pipeline_test

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-power-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/wind-power-etl/internal/domain"
	"github.com/couchcryptid/wind-power-etl/internal/pipeline"
)

// testdata holds six small tables in the published column layout. WT3 seq 4
// has a wind speed spike, WT6 seq 2 an air density spike, WT2 seq 5 a missing
// direction and WT4 seq 3 a non-numeric wind speed.
const testdataDir = "testdata"

func TestPipeline_Run_MockDataset(t *testing.T) {
	out := filepath.Join(t.TempDir(), "filtered_dataset.csv")
	metrics := newTestMetrics()
	logger := discardLogger()

	reader := csvfile.NewReader(csvfile.NewDirOpener(testdataDir), domain.DefaultManifest(), false, logger, metrics)
	transformer := pipeline.NewTransformer(nil, logger)
	writer := csvfile.NewFileWriter(out, logger)

	p := pipeline.New(reader, transformer, []pipeline.Loader{writer}, logger, metrics)
	report, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, report.Tables, 6)
	assert.Equal(t, 35, report.RowsLoaded)
	assert.Equal(t, 1, report.RowsRejected)
	assert.Equal(t, 1, report.DroppedMissing)
	assert.Equal(t, map[domain.Source]int{domain.SourceInland: 1, domain.SourceOffshore: 3}, report.Removed)
	assert.Equal(t, 30, report.RowsWritten)
	assert.Equal(t, []string{"file"}, report.Loaders)

	assert.InDelta(t, 23, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("inland")), 0)
	assert.InDelta(t, 12, testutil.ToFloat64(metrics.RowsLoaded.WithLabelValues("offshore")), 0)
	assert.InDelta(t, 30, testutil.ToFloat64(metrics.RowsWritten), 0)

	rows := readOutput(t, out)
	require.Len(t, rows, 31)
	assert.Equal(t, domain.OutputHeader(), rows[0])

	seen := make(map[string]bool)
	for _, row := range rows[1:] {
		seen[row[8]+"-"+row[0]] = true
	}
	for _, removed := range []string{"WT3-4", "WT2-5", "WT4-3", "WT5-3", "WT5-6", "WT6-2"} {
		assert.False(t, seen[removed], "reading %s should not be in the output", removed)
	}
	assert.True(t, seen["WT1-1"])
	assert.True(t, seen["WT6-6"])
}

func TestPipeline_Run_MockDatasetOutputMatchesFilter(t *testing.T) {
	logger := discardLogger()
	reader := csvfile.NewReader(csvfile.NewDirOpener(testdataDir), domain.DefaultManifest(), false, logger, newTestMetrics())

	tables, err := reader.Extract(context.Background())
	require.NoError(t, err)
	normalized, err := domain.NormalizeAll(domain.Merge(tables))
	require.NoError(t, err)
	result, err := domain.FilterOutliers(normalized, domain.DefaultScreenedFields, logger)
	require.NoError(t, err)

	for _, r := range result.Readings {
		want := r.PercentToRated / 100 * 2.5
		if r.Source == domain.SourceOffshore {
			want = r.PercentToRated / 100 * 4.0
		}
		assert.Equal(t, want, r.AbsolutePower, r.Key())
		for _, f := range domain.DefaultScreenedFields {
			v, ok := r.Value(f)
			require.True(t, ok)
			assert.True(t, result.Fences[r.Source][f].Contains(v), "%s %s outside fences", r.Key(), f)
		}
	}

	// Offshore rows come after every inland row.
	offshoreSeen := false
	for _, r := range result.Readings {
		if r.Source == domain.SourceOffshore {
			offshoreSeen = true
			continue
		}
		assert.False(t, offshoreSeen, "inland reading %s after offshore", r.Key())
	}
}

func TestPipeline_Run_MockDatasetStrict(t *testing.T) {
	logger := discardLogger()
	reader := csvfile.NewReader(csvfile.NewDirOpener(testdataDir), domain.DefaultManifest(), true, logger, newTestMetrics())
	loader := &mockLoader{name: "memory"}

	p := pipeline.New(reader, pipeline.NewTransformer(nil, logger), []pipeline.Loader{loader}, logger, newTestMetrics())
	_, err := p.Run(context.Background())

	var rowErr *domain.RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, "Inland Wind Farm Dataset1(WT4).csv", rowErr.File)
	assert.Equal(t, 4, rowErr.Line)
	assert.Zero(t, loader.calls.Load())
}

func readOutput(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}
