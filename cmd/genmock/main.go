// Command genmock writes a synthetic six-turbine dataset in the published
// column layout, with injected spikes and blank cells, and prints what the
// ETL pipeline is expected to keep. It uses the actual domain package so the
// printed counts match real pipeline behavior.
//
// Usage:
//
//	go run ./cmd/genmock -out data -rows 500 -seed 7 -outlier-rate 0.01
package main

import (
	"bytes"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/wind-power-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

var (
	inlandHeader   = []string{"Sequence No.", "V", "D", "air density", "I", "S_b", "y (% relative to rated power)"}
	offshoreHeader = []string{"Sequence No.", "V", "D", "air density", "humidity", "I", "S_a", "S_b", "y (% relative to rated power)"}
)

// genOptions controls the synthetic rows.
type genOptions struct {
	rows        int
	outlierRate float64
	blankRate   float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "data", "directory to write the six CSV files into")
	rows := flag.Int("rows", 500, "rows per turbine")
	seed := flag.Uint64("seed", 7, "random seed")
	outlierRate := flag.Float64("outlier-rate", 0.01, "fraction of rows with an injected spike")
	blankRate := flag.Float64("blank-rate", 0.2, "fraction of sparse offshore cells left blank")
	flag.Parse()

	if *rows < 1 {
		flag.Usage()
		return fmt.Errorf("-rows must be positive")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	opts := genOptions{rows: *rows, outlierRate: *outlierRate, blankRate: *blankRate}
	rng := rand.New(rand.NewPCG(*seed, *seed^0x9e3779b97f4a7c15))

	var tables []domain.TurbineTable
	for _, f := range domain.DefaultManifest() {
		var buf bytes.Buffer
		if err := generate(&buf, f, opts, rng); err != nil {
			return fmt.Errorf("generating %s: %w", f.File, err)
		}
		path := filepath.Join(*outDir, f.File)
		if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
			return err
		}

		table, err := csvfile.Decode(&buf, f, nil)
		if err != nil {
			return fmt.Errorf("re-reading %s: %w", f.File, err)
		}
		tables = append(tables, table)
		log.Printf("%s: %d rows", path, len(table.Readings))
	}

	return printStats(tables)
}

// generate writes one turbine table. Power follows a cubic curve between
// cut-in (3 m/s) and rated (12 m/s) wind speed with noise.
func generate(w io.Writer, f domain.TurbineFile, opts genOptions, rng *rand.Rand) error {
	offshore := f.Source == domain.SourceOffshore
	header := inlandHeader
	if offshore {
		header = offshoreHeader
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	baseWind := 7.0
	if offshore {
		baseWind = 9.0
	}

	for seq := 1; seq <= opts.rows; seq++ {
		v := math.Max(0, baseWind+rng.NormFloat64()*2)
		d := math.Mod(200+rng.NormFloat64()*40+360, 360)
		rho := 1.21 + rng.NormFloat64()*0.015
		ti := math.Max(0.01, 0.1+rng.NormFloat64()*0.02)
		sb := 0.2 + rng.NormFloat64()*0.04
		y := powerPercent(v) + rng.NormFloat64()*2

		if rng.Float64() < opts.outlierRate {
			switch rng.IntN(3) {
			case 0:
				v *= 4
			case 1:
				rho += 0.8
			default:
				ti *= 6
			}
		}

		row := []string{strconv.Itoa(seq), num(v), num(d), num(rho)}
		if offshore {
			row = append(row, sparse(rng, opts.blankRate, 0.7+rng.NormFloat64()*0.1))
		}
		row = append(row, num(ti))
		if offshore {
			row = append(row, sparse(rng, opts.blankRate, 0.15+rng.NormFloat64()*0.03))
		}
		row = append(row, num(sb), num(math.Max(0, math.Min(100, y))))

		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func powerPercent(v float64) float64 {
	const cutIn, rated = 3.0, 12.0
	switch {
	case v < cutIn:
		return 0
	case v >= rated:
		return 100
	default:
		x := (v - cutIn) / (rated - cutIn)
		return 100 * x * x * x
	}
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func sparse(rng *rand.Rand, blankRate, v float64) string {
	if rng.Float64() < blankRate {
		return ""
	}
	return num(v)
}

func printStats(tables []domain.TurbineTable) error {
	normalized, err := domain.NormalizeAll(domain.Merge(tables))
	if err != nil {
		return err
	}
	result, err := domain.FilterOutliers(normalized, domain.DefaultScreenedFields, nil)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Println("=== Expected pipeline output ===")
	fmt.Printf("  %-10s %8s\n", "source", "removed")
	for _, src := range domain.Sources {
		fmt.Printf("  %-10s %8d\n", src, result.Removed[src])
	}
	fmt.Printf("\n  input %d, kept %d, dropped for missing values %d\n",
		len(normalized), len(result.Readings), result.DroppedMissing)
	return nil
}
