// Command report prints exploratory statistics and a baseline model
// comparison for a cleaned turbine dataset written by the ETL service.
//
// Usage:
//
//	go run ./cmd/report -in filtered_dataset.csv [-threshold 0.5] [-seed 42]
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/wind-power-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/wind-power-etl/internal/analysis"
	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

type options struct {
	in           string
	threshold    float64
	seed         uint64
	testFraction float64
	features     string
}

func main() {
	var opts options
	flag.StringVar(&opts.in, "in", "filtered_dataset.csv", "cleaned dataset CSV")
	flag.Float64Var(&opts.threshold, "threshold", 0.5, "absolute correlation threshold for feature selection")
	flag.Uint64Var(&opts.seed, "seed", 42, "train/test split seed")
	flag.Float64Var(&opts.testFraction, "test-size", 0.2, "fraction of samples held out for scoring")
	flag.StringVar(&opts.features, "features", "wind_speed,air_den", "comma-separated model features")
	flag.Parse()

	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "report: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options, w io.Writer) error {
	readings, err := readDataset(opts.in)
	if err != nil {
		return err
	}

	features, err := parseFields(opts.features)
	if err != nil {
		return err
	}

	summaries := analysis.Describe(readings, domain.NumericFields)
	corr := analysis.Correlation(readings, domain.NumericFields)
	selected := analysis.SelectFeatures(corr, opts.threshold)

	ds := analysis.NewDataset(readings, features, domain.FieldAbsolutePower)
	scores, err := analysis.Compare(ds, analysis.DefaultModels(), opts.testFraction, opts.seed)
	if err != nil {
		return fmt.Errorf("compare models: %w", err)
	}

	writeText(w, len(readings), summaries, corr, selected, opts.threshold, features, scores)
	return nil
}

func readDataset(path string) ([]domain.Reading, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	table, err := csvfile.Decode(f, domain.TurbineFile{File: path}, func(e *domain.RowError) error { return e })
	if err != nil {
		return nil, err
	}
	return table.Readings, nil
}

func parseFields(s string) ([]domain.Field, error) {
	var fields []domain.Field
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := domain.ParseField(name)
		if err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("no model features given")
	}
	return fields, nil
}

func writeText(w io.Writer, rows int, summaries []analysis.Summary, corr analysis.Matrix, selected []domain.Field, threshold float64, features []domain.Field, scores []analysis.Score) {
	fmt.Fprintf(w, "=== Cleaned dataset: %d rows ===\n\n", rows)

	fmt.Fprintf(w, "%-20s %7s %10s %10s %10s %10s %10s %10s %10s\n",
		"field", "count", "mean", "std", "min", "25%", "50%", "75%", "max")
	for _, s := range summaries {
		fmt.Fprintf(w, "%-20s %7d %10.4f %10.4f %10.4f %10.4f %10.4f %10.4f %10.4f\n",
			s.Field, s.Count, s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max)
	}

	fmt.Fprintf(w, "\n--- Correlation ---\n%-20s", "")
	for _, f := range corr.Fields {
		fmt.Fprintf(w, " %8.8s", f)
	}
	fmt.Fprintln(w)
	for i, f := range corr.Fields {
		fmt.Fprintf(w, "%-20s", f)
		for j := range corr.Fields {
			fmt.Fprintf(w, " %8.3f", corr.At(i, j))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "\nSelected features (|r| > %.2f): %s\n", threshold, joinFields(selected))
	fmt.Fprintf(w, "\n--- Models on %s -> %s ---\n", joinFields(features), domain.FieldAbsolutePower)
	fmt.Fprintf(w, "%-15s %10s %10s %10s\n", "model", "MAE", "MSE", "R2")
	for _, s := range scores {
		fmt.Fprintf(w, "%-15s %10.4f %10.4f %10.4f\n", s.Model, s.MAE, s.MSE, s.R2)
	}
}

func joinFields(fields []domain.Field) string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.String()
	}
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
