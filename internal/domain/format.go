package domain

import "strconv"

var outputHeader = []string{
	"seq",
	FieldWindSpeed.String(),
	FieldWindDirection.String(),
	FieldAirDensity.String(),
	FieldTurbulenceIntensity.String(),
	FieldBelowHubShear.String(),
	FieldPercentToRated.String(),
	"source",
	"turbine_id",
	FieldAbsolutePower.String(),
}

// OutputHeader returns the column names of the cleaned dataset.
func OutputHeader() []string {
	out := make([]string, len(outputHeader))
	copy(out, outputHeader)
	return out
}

// FormatRow renders a reading in OutputHeader order. Missing fields are
// written as empty cells and floats use the shortest exact representation.
func FormatRow(r Reading) []string {
	row := make([]string, 0, len(outputHeader))
	row = append(row, strconv.Itoa(r.Seq))
	for _, f := range NumericFields[:6] {
		row = append(row, formatValue(r, f))
	}
	return append(row, r.Source.String(), r.TurbineID, formatValue(r, FieldAbsolutePower))
}

func formatValue(r Reading, f Field) string {
	v, ok := r.Value(f)
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
