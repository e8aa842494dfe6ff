// Command validate performs end-to-end integrity checks between the raw
// turbine tables and a cleaned dataset written by the ETL service. It verifies
// the output schema, that every output row comes from the input unchanged,
// the absolute power derivation, fence membership per source and the
// expected row count.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -input-dir data \
//	  -output filtered_dataset.csv \
//	  [-manifest farm.yaml] \
//	  [-screen-fields wind_speed,wind_dir,air_den,turbulence_int,absolute_power]
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/couchcryptid/wind-power-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/wind-power-etl/internal/config"
	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

// maxErrors caps the detail printed per failing phase.
const maxErrors = 20

func main() {
	inputDir := flag.String("input-dir", "", "directory containing the raw turbine CSV files")
	output := flag.String("output", "", "path to the cleaned dataset CSV")
	manifest := flag.String("manifest", "", "optional farm manifest YAML")
	screen := flag.String("screen-fields", "", "comma-separated screened fields used by the run (default: the service default)")
	flag.Parse()

	if *inputDir == "" || *output == "" {
		flag.Usage()
		os.Exit(1)
	}

	fields, err := parseFields(*screen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	os.Exit(run(*inputDir, *output, *manifest, fields, os.Stdout))
}

// parseFields reads a comma-separated field list. Empty means the default
// screened fields.
func parseFields(s string) ([]domain.Field, error) {
	if strings.TrimSpace(s) == "" {
		return slices.Clone(domain.DefaultScreenedFields), nil
	}
	var fields []domain.Field
	for _, name := range strings.Split(s, ",") {
		if strings.TrimSpace(name) == "" {
			continue
		}
		f, err := domain.ParseField(name)
		if err != nil {
			return nil, fmt.Errorf("-screen-fields: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, nil
}

func run(inputDir, outputPath, manifestPath string, fields []domain.Field, w io.Writer) int {
	fmt.Fprintln(w, "=== Wind Dataset Integrity Validation ===")
	fmt.Fprintf(w, "Screened fields: %v\n\n", fields)

	files, err := config.LoadManifest(manifestPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load manifest: %v\n", err)
		return 1
	}

	input, err := loadInput(inputDir, files)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load input: %v\n", err)
		return 1
	}

	header, output, err := loadOutput(outputPath)
	if err != nil {
		fmt.Fprintf(w, "FATAL: load output: %v\n", err)
		return 1
	}

	fences, err := inputFences(input, fields)
	if err != nil {
		fmt.Fprintf(w, "FATAL: input fences: %v\n", err)
		return 1
	}
	expected := expectedKeys(input, fences, fields)

	// ── Run validation phases ──
	phases := []*phase{
		validateSchema(header),
		validateProvenance(output, input),
		validatePowerDerivation(output),
		validateFences(output, fences, fields),
		validateRowSet(output, expected),
		validateOrdering(output),
	}

	// ── Report results ──
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Records: %d input, %d expected, %d output\n", len(input), len(expected), len(output))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			if i == maxErrors {
				fmt.Fprintf(w, "  ... %d more\n", len(p.errors)-maxErrors)
				break
			}
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadInput(dir string, files []domain.TurbineFile) ([]domain.Reading, error) {
	tables := make([]domain.TurbineTable, 0, len(files))
	for _, f := range files {
		table, err := decodeFile(filepath.Join(dir, f.File), f, false)
		if err != nil {
			return nil, err
		}
		tables = append(tables, table)
	}
	return domain.NormalizeAll(domain.Merge(tables))
}

func loadOutput(path string) ([]string, []domain.Reading, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return nil, nil, err
	}
	defer func() { _ = f.Close() }()

	header, err := csv.NewReader(f).Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}
	table, err := decodeFile(path, domain.TurbineFile{File: path}, true)
	if err != nil {
		return nil, nil, err
	}
	return header, table.Readings, nil
}

// decodeFile parses a table. Malformed rows are skipped, as the service
// does by default, unless strict is set.
func decodeFile(path string, tf domain.TurbineFile, strict bool) (domain.TurbineTable, error) {
	f, err := os.Open(path) //nolint:gosec // path comes from the command line
	if err != nil {
		return domain.TurbineTable{}, err
	}
	defer func() { _ = f.Close() }()

	var reject csvfile.RejectFunc
	if strict {
		reject = func(e *domain.RowError) error { return e }
	}
	return csvfile.Decode(f, tf, reject)
}

// ── Expected result ──

// inputFences computes Tukey fences per source directly from the raw input
// columns, ignoring missing cells.
func inputFences(input []domain.Reading, fields []domain.Field) (domain.FenceSet, error) {
	values := make(map[domain.Source]map[domain.Field][]float64)
	for _, r := range input {
		if values[r.Source] == nil {
			values[r.Source] = make(map[domain.Field][]float64, len(fields))
		}
		for _, f := range fields {
			if v, ok := r.Value(f); ok {
				values[r.Source][f] = append(values[r.Source][f], v)
			}
		}
	}

	fences := make(domain.FenceSet, len(values))
	for src, cols := range values {
		fences[src] = make(map[domain.Field]domain.Fences, len(fields))
		for _, f := range fields {
			if len(cols[f]) == 0 {
				return nil, fmt.Errorf("%s: no %s values", src, f)
			}
			fences[src][f] = domain.NewFences(cols[f])
		}
	}
	return fences, nil
}

// expectedKeys lists, in input order, the readings whose screened fields are
// all present and inside their source's fences.
func expectedKeys(input []domain.Reading, fences domain.FenceSet, fields []domain.Field) []string {
	var keys []string
	for _, r := range input {
		keep := true
		for _, f := range fields {
			v, ok := r.Value(f)
			if !ok || !fences[r.Source][f].Contains(v) {
				keep = false
				break
			}
		}
		if keep {
			keys = append(keys, r.Key())
		}
	}
	return keys
}

// ── Phases ──

func validateSchema(header []string) *phase {
	p := &phase{name: "Output schema"}
	if !slices.Equal(header, domain.OutputHeader()) {
		p.errorf("header %v, want %v", header, domain.OutputHeader())
	}
	return p
}

func validateProvenance(output, input []domain.Reading) *phase {
	p := &phase{name: "Output rows present in input"}
	byKey := make(map[string]domain.Reading, len(input))
	for _, r := range input {
		byKey[r.Key()] = r
	}
	for _, r := range output {
		src, ok := byKey[r.Key()]
		if !ok {
			p.errorf("%s: not in input", r.Key())
			continue
		}
		if src != r {
			p.errorf("%s: values differ from input", r.Key())
		}
	}
	return p
}

func validatePowerDerivation(output []domain.Reading) *phase {
	p := &phase{name: "Absolute power derivation"}
	for _, r := range output {
		want, err := domain.NormalizePower(r)
		if err != nil {
			p.errorf("%s: %v", r.Key(), err)
			continue
		}
		if want.AbsolutePower != r.AbsolutePower || want.Missing != r.Missing {
			p.errorf("%s: absolute_power %v, want %v", r.Key(), r.AbsolutePower, want.AbsolutePower)
		}
	}
	return p
}

func validateFences(output []domain.Reading, fences domain.FenceSet, fields []domain.Field) *phase {
	p := &phase{name: "Screened values within source fences"}
	for _, r := range output {
		fs, ok := fences[r.Source]
		if !ok {
			p.errorf("%s: no fences for source %s", r.Key(), r.Source)
			continue
		}
		for _, f := range fields {
			v, ok := r.Value(f)
			if !ok {
				p.errorf("%s: %s missing", r.Key(), f)
				continue
			}
			if fence := fs[f]; !fence.Contains(v) {
				p.errorf("%s: %s=%v outside [%v, %v]", r.Key(), f, v, fence.Lower, fence.Upper)
			}
		}
	}
	return p
}

func validateRowSet(output []domain.Reading, expected []string) *phase {
	p := &phase{name: "Output matches expected row set"}
	if len(output) != len(expected) {
		p.errorf("row count %d, want %d", len(output), len(expected))
	}
	got := make(map[string]bool, len(output))
	for _, r := range output {
		got[r.Key()] = true
	}
	for _, key := range expected {
		if !got[key] {
			p.errorf("%s: expected in output", key)
		}
	}
	return p
}

func validateOrdering(output []domain.Reading) *phase {
	p := &phase{name: "Inland rows before offshore rows"}
	offshoreSeen := false
	for _, r := range output {
		switch r.Source {
		case domain.SourceOffshore:
			offshoreSeen = true
		case domain.SourceInland:
			if offshoreSeen {
				p.errorf("%s: inland row after offshore rows", r.Key())
			}
		}
	}
	return p
}
