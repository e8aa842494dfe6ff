package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-power-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

func writeDataset(t *testing.T) string {
	t.Helper()
	var readings []domain.Reading
	for i := 0; i < 40; i++ {
		ws := 3 + float64(i)/4
		r, err := domain.NormalizePower(domain.Reading{
			Seq: i + 1, WindSpeed: ws, WindDirection: float64(i*37%360), AirDensity: 1.18 + float64(i%5)/100,
			TurbulenceIntensity: 0.1, BelowHubShear: 0.2, PercentToRated: 8 * ws,
			Source: domain.SourceInland, TurbineID: "WT1",
		})
		require.NoError(t, err)
		readings = append(readings, r)
	}

	path := filepath.Join(t.TempDir(), "filtered_dataset.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, csvfile.Encode(f, readings))
	return path
}

func TestRun(t *testing.T) {
	var out bytes.Buffer
	err := run(options{
		in:           writeDataset(t),
		threshold:    0.5,
		seed:         42,
		testFraction: 0.2,
		features:     "wind_speed,air_den",
	}, &out)
	require.NoError(t, err)

	text := out.String()
	assert.Contains(t, text, "Cleaned dataset: 40 rows")
	assert.Contains(t, text, "wind_speed")
	assert.Contains(t, text, "Selected features")
	assert.Contains(t, text, "least_squares")
	assert.Contains(t, text, "power_curve")
}

func TestRun_Errors(t *testing.T) {
	var out bytes.Buffer
	err := run(options{in: filepath.Join(t.TempDir(), "absent.csv"), features: "wind_speed", testFraction: 0.2}, &out)
	require.Error(t, err)

	err = run(options{in: writeDataset(t), features: "humidity", testFraction: 0.2}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func TestRun_RawTableHasNoTarget(t *testing.T) {
	raw := "Sequence No.,V,D,air density,I,S_b,y (% relative to rated power)\n"
	for i := 1; i <= 20; i++ {
		raw += fmt.Sprintf("%d,%d.5,180,1.2,0.1,0.2,%d\n", i, i%12, 4*i)
	}
	path := filepath.Join(t.TempDir(), "Inland Wind Farm Dataset1(WT1).csv")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	var out bytes.Buffer
	err := run(options{in: path, threshold: 0.5, seed: 42, testFraction: 0.2, features: "wind_speed"}, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not enough samples")
}

func TestParseFields(t *testing.T) {
	fields, err := parseFields("wind_speed, air_den,")
	require.NoError(t, err)
	assert.Equal(t, []domain.Field{domain.FieldWindSpeed, domain.FieldAirDensity}, fields)

	_, err = parseFields(" , ")
	require.Error(t, err)
}
