package analysis

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNotEnoughSamples is returned by Fit when the training set cannot
// determine the model.
var ErrNotEnoughSamples = errors.New("not enough samples")

// Regressor is a model that predicts the target from a feature row.
type Regressor interface {
	Name() string
	Fit(x [][]float64, y []float64) error
	Predict(x []float64) float64
}

// MeanModel predicts the training mean of the target.
type MeanModel struct {
	mean float64
}

func (m *MeanModel) Name() string { return "mean" }

func (m *MeanModel) Fit(_ [][]float64, y []float64) error {
	if len(y) == 0 {
		return ErrNotEnoughSamples
	}
	m.mean = stat.Mean(y, nil)
	return nil
}

func (m *MeanModel) Predict([]float64) float64 { return m.mean }

// SimpleLinear fits target = Alpha + Beta*x on the first feature.
type SimpleLinear struct {
	Alpha, Beta float64
}

func (m *SimpleLinear) Name() string { return "linear" }

func (m *SimpleLinear) Fit(x [][]float64, y []float64) error {
	if len(y) < 2 {
		return ErrNotEnoughSamples
	}
	xs := make([]float64, len(x))
	for i, row := range x {
		xs[i] = row[0]
	}
	m.Alpha, m.Beta = stat.LinearRegression(xs, y, nil, false)
	return nil
}

func (m *SimpleLinear) Predict(x []float64) float64 { return m.Alpha + m.Beta*x[0] }

// LeastSquares fits an intercept plus one coefficient per feature by QR
// least squares.
type LeastSquares struct {
	Coefficients []float64 // intercept first
}

func (m *LeastSquares) Name() string { return "least_squares" }

func (m *LeastSquares) Fit(x [][]float64, y []float64) error {
	n := len(y)
	if n == 0 {
		return ErrNotEnoughSamples
	}
	p := len(x[0]) + 1
	if n < p {
		return fmt.Errorf("%w: %d samples for %d coefficients", ErrNotEnoughSamples, n, p)
	}

	design := mat.NewDense(n, p, nil)
	for i, row := range x {
		design.Set(i, 0, 1)
		for j, v := range row {
			design.Set(i, j+1, v)
		}
	}
	target := mat.NewVecDense(n, slices.Clone(y))

	var coeffs mat.Dense
	if err := coeffs.Solve(design, target); err != nil {
		return fmt.Errorf("solve least squares: %w", err)
	}
	m.Coefficients = make([]float64, p)
	for i := range m.Coefficients {
		m.Coefficients[i] = coeffs.At(i, 0)
	}
	return nil
}

func (m *LeastSquares) Predict(x []float64) float64 {
	v := m.Coefficients[0]
	for i, xi := range x {
		v += m.Coefficients[i+1] * xi
	}
	return v
}

// PowerCurve is a method-of-bins power curve on the first feature: samples
// are grouped into fixed-width bins, each bin is reduced to its mean
// (x, y), and predictions interpolate linearly between bin means, clamped
// at the ends.
type PowerCurve struct {
	BinWidth float64
	xs, ys   []float64
}

// NewPowerCurve creates a PowerCurve with the given bin width in feature
// units.
func NewPowerCurve(binWidth float64) *PowerCurve {
	return &PowerCurve{BinWidth: binWidth}
}

func (m *PowerCurve) Name() string { return "power_curve" }

func (m *PowerCurve) Fit(x [][]float64, y []float64) error {
	if len(y) == 0 {
		return ErrNotEnoughSamples
	}
	if m.BinWidth <= 0 {
		return errors.New("power curve bin width must be positive")
	}

	type acc struct {
		sx, sy float64
		n      int
	}
	bins := make(map[int]*acc)
	for i, row := range x {
		k := int(math.Floor(row[0] / m.BinWidth))
		b, ok := bins[k]
		if !ok {
			b = &acc{}
			bins[k] = b
		}
		b.sx += row[0]
		b.sy += y[i]
		b.n++
	}

	keys := make([]int, 0, len(bins))
	for k := range bins {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	m.xs = make([]float64, len(keys))
	m.ys = make([]float64, len(keys))
	for i, k := range keys {
		b := bins[k]
		m.xs[i] = b.sx / float64(b.n)
		m.ys[i] = b.sy / float64(b.n)
	}
	return nil
}

func (m *PowerCurve) Predict(x []float64) float64 {
	v := x[0]
	n := len(m.xs)
	switch {
	case n == 0:
		return math.NaN()
	case v <= m.xs[0]:
		return m.ys[0]
	case v >= m.xs[n-1]:
		return m.ys[n-1]
	}
	i, _ := slices.BinarySearch(m.xs, v)
	x0, x1 := m.xs[i-1], m.xs[i]
	y0, y1 := m.ys[i-1], m.ys[i]
	return y0 + (v-x0)/(x1-x0)*(y1-y0)
}
