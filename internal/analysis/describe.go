package analysis

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// Summary holds descriptive statistics for one field. Std is the sample
// standard deviation and is NaN when Count < 2.
type Summary struct {
	Field  domain.Field `json:"field"`
	Count  int          `json:"count"`
	Mean   float64      `json:"mean"`
	Std    float64      `json:"std"`
	Min    float64      `json:"min"`
	Q1     float64      `json:"q1"`
	Median float64      `json:"median"`
	Q3     float64      `json:"q3"`
	Max    float64      `json:"max"`
}

// Describe summarises each field over the readings where it is present.
func Describe(readings []domain.Reading, fields []domain.Field) []Summary {
	out := make([]Summary, 0, len(fields))
	for _, f := range fields {
		values := column(readings, f)
		s := Summary{Field: f, Count: len(values)}
		if len(values) == 0 {
			nan := math.NaN()
			s.Mean, s.Std, s.Min, s.Q1, s.Median, s.Q3, s.Max = nan, nan, nan, nan, nan, nan, nan
			out = append(out, s)
			continue
		}
		slices.Sort(values)
		s.Mean = stat.Mean(values, nil)
		s.Std = math.NaN()
		if len(values) > 1 {
			s.Std = stat.StdDev(values, nil)
		}
		s.Min = values[0]
		s.Q1 = domain.Quantile(values, 0.25)
		s.Median = domain.Quantile(values, 0.5)
		s.Q3 = domain.Quantile(values, 0.75)
		s.Max = values[len(values)-1]
		out = append(out, s)
	}
	return out
}

func column(readings []domain.Reading, f domain.Field) []float64 {
	values := make([]float64, 0, len(readings))
	for _, r := range readings {
		if v, ok := r.Value(f); ok {
			values = append(values, v)
		}
	}
	return values
}
