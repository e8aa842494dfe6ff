package domain

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

type column int

const (
	colDropped column = iota
	colSeq
	colWindSpeed
	colWindDirection
	colAirDensity
	colTurbulence
	colBelowHubShear
	colPercentToRated
	colSource
	colTurbineID
	colAbsolutePower
)

// headerAliases maps normalized header names to columns. The short names
// come from the published dataset; the long ones are the output schema so a
// written file can be read back.
var headerAliases = map[string]column{
	"sequence no.":                  colSeq,
	"sequence no":                   colSeq,
	"seq":                           colSeq,
	"v":                             colWindSpeed,
	"wind_speed":                    colWindSpeed,
	"d":                             colWindDirection,
	"wind_dir":                      colWindDirection,
	"air density":                   colAirDensity,
	"rho":                           colAirDensity,
	"air_den":                       colAirDensity,
	"i":                             colTurbulence,
	"turbulence_int":                colTurbulence,
	"s_b":                           colBelowHubShear,
	"sb":                            colBelowHubShear,
	"below_hub_wshear":              colBelowHubShear,
	"y (% relative to rated power)": colPercentToRated,
	"y":                             colPercentToRated,
	"perc_to_rated_power":           colPercentToRated,
	"source":                        colSource,
	"turbine_id":                    colTurbineID,
	"wind_turbine":                  colTurbineID,
	"absolute_power":                colAbsolutePower,
	"actual_power_output":           colAbsolutePower,

	// Sparse columns, dropped at load.
	"h":                colDropped,
	"humidity":         colDropped,
	"s_a":              colDropped,
	"sa":               colDropped,
	"above_hub_wshear": colDropped,
}

var requiredColumns = []column{
	colSeq, colWindSpeed, colWindDirection, colAirDensity,
	colTurbulence, colBelowHubShear, colPercentToRated,
}

var columnFields = map[column]Field{
	colWindSpeed:      FieldWindSpeed,
	colWindDirection:  FieldWindDirection,
	colAirDensity:     FieldAirDensity,
	colTurbulence:     FieldTurbulenceIntensity,
	colBelowHubShear:  FieldBelowHubShear,
	colPercentToRated: FieldPercentToRated,
	colAbsolutePower:  FieldAbsolutePower,
}

// ErrFieldCount is wrapped by row errors whose width differs from the header.
var ErrFieldCount = errors.New("wrong number of fields")

// ColumnMap binds header positions to Reading fields.
type ColumnMap struct {
	index map[column]int
	width int
}

// NewColumnMap builds a ColumnMap from a header row. Unknown headers,
// duplicates and missing required columns are errors.
func NewColumnMap(header []string) (ColumnMap, error) {
	m := ColumnMap{index: make(map[column]int, len(header)), width: len(header)}
	for i, h := range header {
		name := normalizeHeader(h)
		col, ok := headerAliases[name]
		if !ok {
			return ColumnMap{}, fmt.Errorf("unknown column %q", h)
		}
		if col == colDropped {
			continue
		}
		if _, dup := m.index[col]; dup {
			return ColumnMap{}, fmt.Errorf("duplicate column %q", h)
		}
		m.index[col] = i
	}
	for _, col := range requiredColumns {
		if _, ok := m.index[col]; !ok {
			return ColumnMap{}, fmt.Errorf("missing required column for %s", columnName(col))
		}
	}
	return m, nil
}

// HasSource reports whether rows carry their own source column.
func (m ColumnMap) HasSource() bool {
	_, ok := m.index[colSource]
	return ok
}

// Parse converts one row into a Reading tagged with the file's provenance.
// If the row carries source or turbine_id columns they must be valid and take
// precedence over the file tags. Empty and NA cells, and absent optional
// columns such as absolute_power in raw tables, are marked missing; anything
// else that is not a number is an error.
func (m ColumnMap) Parse(row []string, file TurbineFile) (Reading, error) {
	if len(row) != m.width {
		return Reading{}, fmt.Errorf("%w: expected %d, got %d", ErrFieldCount, m.width, len(row))
	}

	seqRaw := strings.TrimSpace(row[m.index[colSeq]])
	seq, err := strconv.Atoi(seqRaw)
	if err != nil {
		return Reading{}, fmt.Errorf("parse seq %q: %w", seqRaw, err)
	}

	r := Reading{Seq: seq, Source: file.Source, TurbineID: file.TurbineID}

	if i, ok := m.index[colSource]; ok {
		src, err := ParseSource(row[i])
		if err != nil {
			return Reading{}, err
		}
		r.Source = src
	}
	if i, ok := m.index[colTurbineID]; ok {
		if id := strings.TrimSpace(row[i]); id != "" {
			r.TurbineID = id
		}
	}

	for col, field := range columnFields {
		i, ok := m.index[col]
		if !ok {
			r.Missing = r.Missing.With(field)
			continue
		}
		v, present, err := parseCell(row[i])
		if err != nil {
			return Reading{}, fmt.Errorf("parse %s: %w", field, err)
		}
		if !present {
			r.Missing = r.Missing.With(field)
			continue
		}
		r = setField(r, field, v)
	}
	return r, nil
}

// parseCell parses a numeric cell. Empty and NA/NaN cells are reported as
// not present rather than returned as NaN. Infinities are errors.
func parseCell(raw string) (float64, bool, error) {
	s := strings.TrimSpace(raw)
	switch strings.ToLower(s) {
	case "", "na", "nan", "n/a", "null":
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false, err
	}
	if math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("non-finite value %q", s)
	}
	return v, true, nil
}

func setField(r Reading, f Field, v float64) Reading {
	switch f {
	case FieldWindSpeed:
		r.WindSpeed = v
	case FieldWindDirection:
		r.WindDirection = v
	case FieldAirDensity:
		r.AirDensity = v
	case FieldTurbulenceIntensity:
		r.TurbulenceIntensity = v
	case FieldBelowHubShear:
		r.BelowHubShear = v
	case FieldPercentToRated:
		r.PercentToRated = v
	case FieldAbsolutePower:
		r.AbsolutePower = v
	}
	return r
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.ToLower(strings.TrimSpace(h))
}

func columnName(c column) string {
	if f, ok := columnFields[c]; ok {
		return f.String()
	}
	switch c {
	case colSeq:
		return "seq"
	case colSource:
		return "source"
	case colTurbineID:
		return "turbine_id"
	default:
		return "dropped"
	}
}
