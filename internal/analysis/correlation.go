package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// Matrix is a symmetric Pearson correlation matrix over Fields.
type Matrix struct {
	Fields []domain.Field
	Values [][]float64
}

// At returns the correlation between fields i and j.
func (m Matrix) At(i, j int) float64 { return m.Values[i][j] }

// Correlation computes pairwise Pearson coefficients, using for each pair
// only the readings where both fields are present. Pairs with fewer than two
// observations or zero variance are NaN.
func Correlation(readings []domain.Reading, fields []domain.Field) Matrix {
	n := len(fields)
	m := Matrix{Fields: fields, Values: make([][]float64, n)}
	for i := range m.Values {
		m.Values[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j <= i; j++ {
			c := pairCorrelation(readings, fields[i], fields[j])
			m.Values[i][j] = c
			m.Values[j][i] = c
		}
	}
	return m
}

func pairCorrelation(readings []domain.Reading, a, b domain.Field) float64 {
	x := make([]float64, 0, len(readings))
	y := make([]float64, 0, len(readings))
	for _, r := range readings {
		va, okA := r.Value(a)
		vb, okB := r.Value(b)
		if okA && okB {
			x = append(x, va)
			y = append(y, vb)
		}
	}
	if len(x) < 2 {
		return math.NaN()
	}
	return stat.Correlation(x, y, nil)
}

// SelectFeatures returns, in matrix order, every field i that has
// |corr(i, j)| > threshold with some earlier field j < i.
func SelectFeatures(m Matrix, threshold float64) []domain.Field {
	var out []domain.Field
	for i := range m.Fields {
		for j := 0; j < i; j++ {
			if math.Abs(m.At(i, j)) > threshold {
				out = append(out, m.Fields[i])
				break
			}
		}
	}
	return out
}
