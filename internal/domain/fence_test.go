package domain

import (
	"io"
	"log/slog"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fenceDelta = 1e-9

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// screenedReading builds a reading whose non-wind fields are constant, so
// only wind speed and air density can push it outside the fences.
func screenedReading(seq int, source Source, windSpeed, airDensity float64) Reading {
	r := Reading{
		Seq:                 seq,
		Source:              source,
		TurbineID:           "WT1",
		WindSpeed:           windSpeed,
		WindDirection:       180,
		AirDensity:          airDensity,
		TurbulenceIntensity: 0.1,
		PercentToRated:      50,
	}
	n, err := NormalizePower(r)
	if err != nil {
		panic(err)
	}
	return n
}

func TestQuantile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100}

	tests := []struct {
		name     string
		p        float64
		expected float64
	}{
		{"min", 0, 1},
		{"q1", 0.25, 3.25},
		{"median", 0.5, 5.5},
		{"q3", 0.75, 7.75},
		{"max", 1, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, Quantile(sorted, tt.p), fenceDelta)
		})
	}

	t.Run("single value", func(t *testing.T) {
		assert.Equal(t, 4.2, Quantile([]float64{4.2}, 0.25))
		assert.Equal(t, 4.2, Quantile([]float64{4.2}, 0.75))
	})

	t.Run("empty", func(t *testing.T) {
		assert.True(t, math.IsNaN(Quantile(nil, 0.5)))
	})
}

func TestNewFences(t *testing.T) {
	values := []float64{100, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	f := NewFences(values)

	assert.InDelta(t, 3.25, f.Q1, fenceDelta)
	assert.InDelta(t, 7.75, f.Q3, fenceDelta)
	assert.InDelta(t, 4.5, f.IQR, fenceDelta)
	assert.InDelta(t, -3.5, f.Lower, fenceDelta)
	assert.InDelta(t, 14.5, f.Upper, fenceDelta)
	assert.Equal(t, 10, f.Count)
	assert.False(t, f.Contains(100))
	for v := 1.0; v <= 9; v++ {
		assert.True(t, f.Contains(v), "value %v", v)
	}
	assert.Equal(t, 100.0, values[0], "input must not be reordered")

	t.Run("single value", func(t *testing.T) {
		one := NewFences([]float64{7})
		assert.Equal(t, Fences{Q1: 7, Q3: 7, IQR: 0, Lower: 7, Upper: 7, Count: 1}, one)
		assert.True(t, one.Contains(7))
	})
}

func TestFilterOutliers_Scenario(t *testing.T) {
	var readings []Reading
	for i, v := range []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 100} {
		readings = append(readings, screenedReading(i+1, SourceInland, v, 1.2))
	}

	result, err := FilterOutliers(readings, DefaultScreenedFields, discardLogger())
	require.NoError(t, err)

	require.Len(t, result.Readings, 9)
	for _, r := range result.Readings {
		assert.NotEqual(t, 100.0, r.WindSpeed)
	}
	assert.Equal(t, 1, result.Removed[SourceInland])
	assert.Zero(t, result.DroppedMissing)

	ws := result.Fences[SourceInland][FieldWindSpeed]
	assert.InDelta(t, -3.5, ws.Lower, fenceDelta)
	assert.InDelta(t, 14.5, ws.Upper, fenceDelta)
}

func TestFilterOutliers_PerSourceFences(t *testing.T) {
	// 30 m/s is an outlier inland but ordinary offshore.
	var readings []Reading
	for i, v := range []float64{4, 5, 5, 6, 6, 7, 30} {
		readings = append(readings, screenedReading(i, SourceInland, v, 1.2))
	}
	for i, v := range []float64{20, 25, 28, 30, 31, 33, 35} {
		readings = append(readings, screenedReading(100+i, SourceOffshore, v, 1.2))
	}

	result, err := FilterOutliers(readings, DefaultScreenedFields, discardLogger())
	require.NoError(t, err)

	assert.Equal(t, 1, result.Removed[SourceInland])
	assert.Zero(t, result.Removed[SourceOffshore])
	require.Len(t, result.Readings, 13)

	// Inland first, then offshore, input order within each.
	assert.Equal(t, SourceInland, result.Readings[0].Source)
	assert.Equal(t, SourceOffshore, result.Readings[len(result.Readings)-1].Source)
	assert.Equal(t, 106, result.Readings[len(result.Readings)-1].Seq)
}

func TestFilterOutliers_FencesCapturedBeforeFiltering(t *testing.T) {
	// Reading 10 is an outlier on both wind speed and air density. Reading 9
	// (air density 15) is inside the air density fences of the full partition
	// but would fall outside them if they were recomputed after reading 10 is
	// removed.
	winds := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 5, 100}
	densities := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 15, 100}

	readings := make([]Reading, len(winds))
	for i := range winds {
		readings[i] = screenedReading(i, SourceInland, winds[i], densities[i])
	}

	result, err := FilterOutliers(readings, DefaultScreenedFields, discardLogger())
	require.NoError(t, err)
	require.Len(t, result.Readings, 10)
	assert.Equal(t, 9, result.Readings[9].Seq)

	full := NewFences(densities)
	assert.Equal(t, full, result.Fences[SourceInland][FieldAirDensity])

	t.Run("same fences are idempotent", func(t *testing.T) {
		again, err := ApplyFences(result.Readings, result.Fences, DefaultScreenedFields)
		require.NoError(t, err)
		assert.Equal(t, result.Readings, again.Readings)
		assert.Zero(t, again.Removed[SourceInland])
	})

	t.Run("recomputed fences remove more", func(t *testing.T) {
		again, err := FilterOutliers(result.Readings, DefaultScreenedFields, discardLogger())
		require.NoError(t, err)
		assert.Len(t, again.Readings, 9)
		assert.Equal(t, 1, again.Removed[SourceInland])
	})
}

func TestFilterOutliers_OutputSubsetOfInput(t *testing.T) {
	var readings []Reading
	for i := 0; i < 50; i++ {
		src := SourceInland
		if i%3 == 0 {
			src = SourceOffshore
		}
		readings = append(readings, screenedReading(i, src, float64((i*37)%23), 1.1+float64(i%7)/10))
	}

	result, err := FilterOutliers(readings, DefaultScreenedFields, discardLogger())
	require.NoError(t, err)
	assert.LessOrEqual(t, len(result.Readings), len(readings))

	seen := make(map[string]Reading, len(readings))
	for _, r := range readings {
		seen[r.Key()+r.Source.String()] = r
	}
	for _, r := range result.Readings {
		in, ok := seen[r.Key()+r.Source.String()]
		require.True(t, ok)
		assert.Equal(t, in, r)
	}
}

func TestFilterOutliers_EmptyInput(t *testing.T) {
	_, err := FilterOutliers(nil, DefaultScreenedFields, discardLogger())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestComputeFencesFor_EmptyPartition(t *testing.T) {
	_, err := ComputeFencesFor(SourceOffshore, nil, DefaultScreenedFields, discardLogger())

	var dataErr *InsufficientDataError
	require.ErrorAs(t, err, &dataErr)
	assert.Equal(t, SourceOffshore, dataErr.Source)
	assert.Equal(t, FieldWindSpeed, dataErr.Field)
	assert.Zero(t, dataErr.Count)
}

func TestFilterOutliers_MissingValues(t *testing.T) {
	readings := []Reading{
		screenedReading(1, SourceInland, 5, 1.2),
		screenedReading(2, SourceInland, 6, 1.2),
		screenedReading(3, SourceInland, 7, 1.2),
	}
	missing := screenedReading(4, SourceInland, 0, 1.2)
	missing.Missing = missing.Missing.With(FieldWindSpeed)
	readings = append(readings, missing)

	result, err := FilterOutliers(readings, DefaultScreenedFields, discardLogger())
	require.NoError(t, err)
	assert.Len(t, result.Readings, 3)
	assert.Equal(t, 1, result.DroppedMissing)
	assert.Zero(t, result.Removed[SourceInland])

	// The zero placeholder must not leak into the statistics.
	assert.Equal(t, 3, result.Fences[SourceInland][FieldWindSpeed].Count)
	assert.InDelta(t, 5.5, result.Fences[SourceInland][FieldWindSpeed].Q1, fenceDelta)

	t.Run("field with no values", func(t *testing.T) {
		only := []Reading{missing}
		_, err := FilterOutliers(only, DefaultScreenedFields, discardLogger())

		var dataErr *InsufficientDataError
		require.ErrorAs(t, err, &dataErr)
		assert.Equal(t, FieldWindSpeed, dataErr.Field)
		assert.Equal(t, SourceInland, dataErr.Source)
	})
}

func TestFilterOutliers_UnknownSource(t *testing.T) {
	readings := []Reading{screenedReading(1, SourceInland, 5, 1.2), {Seq: 2, Source: SourceUnknown}}
	_, err := FilterOutliers(readings, DefaultScreenedFields, discardLogger())
	assert.ErrorIs(t, err, ErrUnknownSource)
}
