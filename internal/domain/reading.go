package domain

import (
	"fmt"
	"strings"
)

// Source identifies the wind farm a turbine belongs to.
type Source int

const (
	SourceUnknown Source = iota
	SourceInland
	SourceOffshore
)

// Sources lists every valid source in partition order.
var Sources = []Source{SourceInland, SourceOffshore}

func (s Source) String() string {
	switch s {
	case SourceInland:
		return "inland"
	case SourceOffshore:
		return "offshore"
	case SourceUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("Source(%d)", int(s))
	}
}

// ParseSource maps a source label to the enum. Matching ignores case and
// surrounding whitespace.
func ParseSource(value string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "inland":
		return SourceInland, nil
	case "offshore":
		return SourceOffshore, nil
	default:
		return SourceUnknown, &UnknownSourceError{Value: value}
	}
}

func (s Source) MarshalText() ([]byte, error) {
	if s != SourceInland && s != SourceOffshore {
		return nil, &UnknownSourceError{Value: s.String()}
	}
	return []byte(s.String()), nil
}

func (s *Source) UnmarshalText(text []byte) error {
	parsed, err := ParseSource(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Field names a numeric column of a Reading.
type Field int

const (
	FieldWindSpeed Field = iota
	FieldWindDirection
	FieldAirDensity
	FieldTurbulenceIntensity
	FieldBelowHubShear
	FieldPercentToRated
	FieldAbsolutePower
)

// NumericFields lists every numeric field in output column order.
var NumericFields = []Field{
	FieldWindSpeed,
	FieldWindDirection,
	FieldAirDensity,
	FieldTurbulenceIntensity,
	FieldBelowHubShear,
	FieldPercentToRated,
	FieldAbsolutePower,
}

// DefaultScreenedFields are the fields checked by the outlier filter.
var DefaultScreenedFields = []Field{
	FieldWindSpeed,
	FieldWindDirection,
	FieldAirDensity,
	FieldTurbulenceIntensity,
	FieldAbsolutePower,
}

var fieldNames = map[Field]string{
	FieldWindSpeed:           "wind_speed",
	FieldWindDirection:       "wind_dir",
	FieldAirDensity:          "air_den",
	FieldTurbulenceIntensity: "turbulence_int",
	FieldBelowHubShear:       "below_hub_wshear",
	FieldPercentToRated:      "perc_to_rated_power",
	FieldAbsolutePower:       "absolute_power",
}

// String returns the output column name of the field.
func (f Field) String() string {
	if name, ok := fieldNames[f]; ok {
		return name
	}
	return fmt.Sprintf("Field(%d)", int(f))
}

// ParseField looks a field up by its output column name.
func ParseField(name string) (Field, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for f, n := range fieldNames {
		if n == name {
			return f, nil
		}
	}
	return 0, fmt.Errorf("unknown field %q", name)
}

func (f Field) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Field) UnmarshalText(text []byte) error {
	parsed, err := ParseField(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// FieldSet is a bitset of fields.
type FieldSet uint16

// Has reports whether f is in the set.
func (s FieldSet) Has(f Field) bool { return s&(1<<uint(f)) != 0 }

// With returns a copy of the set including f.
func (s FieldSet) With(f Field) FieldSet { return s | 1<<uint(f) }

// Without returns a copy of the set excluding f.
func (s FieldSet) Without(f Field) FieldSet { return s &^ (1 << uint(f)) }

// Reading is one 10-minute row for a single turbine.
type Reading struct {
	Seq                 int     `json:"seq"`
	WindSpeed           float64 `json:"wind_speed"`
	WindDirection       float64 `json:"wind_dir"`
	AirDensity          float64 `json:"air_den"`
	TurbulenceIntensity float64 `json:"turbulence_int"`
	BelowHubShear       float64 `json:"below_hub_wshear"`
	PercentToRated      float64 `json:"perc_to_rated_power"`
	Source              Source  `json:"source"`
	TurbineID           string  `json:"turbine_id"`
	AbsolutePower       float64 `json:"absolute_power"`

	// Missing marks fields whose raw cell was empty or NA. The stored value
	// for a missing field is zero and must not be used.
	Missing FieldSet `json:"-"`
}

// Value returns the value of f and whether it is present.
func (r Reading) Value(f Field) (float64, bool) {
	if r.Missing.Has(f) {
		return 0, false
	}
	switch f {
	case FieldWindSpeed:
		return r.WindSpeed, true
	case FieldWindDirection:
		return r.WindDirection, true
	case FieldAirDensity:
		return r.AirDensity, true
	case FieldTurbulenceIntensity:
		return r.TurbulenceIntensity, true
	case FieldBelowHubShear:
		return r.BelowHubShear, true
	case FieldPercentToRated:
		return r.PercentToRated, true
	case FieldAbsolutePower:
		return r.AbsolutePower, true
	default:
		return 0, false
	}
}

// Key identifies a reading across the merged dataset.
func (r Reading) Key() string {
	return fmt.Sprintf("%s-%d", r.TurbineID, r.Seq)
}

// TurbineFile describes one input table and the provenance tags applied to
// every row read from it.
type TurbineFile struct {
	File      string
	TurbineID string
	Source    Source
}

// DefaultManifest returns the six tables of the original study.
func DefaultManifest() []TurbineFile {
	files := make([]TurbineFile, 0, 6)
	for i := 1; i <= 6; i++ {
		source, prefix := SourceInland, "Inland"
		if i > 4 {
			source, prefix = SourceOffshore, "Offshore"
		}
		files = append(files, TurbineFile{
			File:      fmt.Sprintf("%s Wind Farm Dataset1(WT%d).csv", prefix, i),
			TurbineID: fmt.Sprintf("WT%d", i),
			Source:    source,
		})
	}
	return files
}

// TurbineTable is the parsed contents of one TurbineFile.
type TurbineTable struct {
	File     TurbineFile
	Readings []Reading
	Rejected int
}
