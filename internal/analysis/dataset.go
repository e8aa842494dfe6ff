package analysis

import (
	"errors"
	"math"
	"math/rand/v2"

	"github.com/couchcryptid/wind-power-etl/internal/domain"
)

// Dataset is a feature matrix and target vector built from readings.
type Dataset struct {
	Features []domain.Field
	Target   domain.Field
	X        [][]float64
	Y        []float64
}

// NewDataset extracts the feature and target columns. Readings missing any
// of them are skipped.
func NewDataset(readings []domain.Reading, features []domain.Field, target domain.Field) Dataset {
	ds := Dataset{Features: features, Target: target}
rows:
	for _, r := range readings {
		y, ok := r.Value(target)
		if !ok {
			continue
		}
		x := make([]float64, len(features))
		for i, f := range features {
			v, ok := r.Value(f)
			if !ok {
				continue rows
			}
			x[i] = v
		}
		ds.X = append(ds.X, x)
		ds.Y = append(ds.Y, y)
	}
	return ds
}

// Len returns the number of samples.
func (d Dataset) Len() int { return len(d.Y) }

// Subset returns the samples at idx, sharing row storage with d.
func (d Dataset) Subset(idx []int) Dataset {
	out := Dataset{
		Features: d.Features,
		Target:   d.Target,
		X:        make([][]float64, len(idx)),
		Y:        make([]float64, len(idx)),
	}
	for i, k := range idx {
		out.X[i] = d.X[k]
		out.Y[i] = d.Y[k]
	}
	return out
}

// TrainTestSplit shuffles 0..n-1 with a seeded PCG source and splits it. The
// test set has ceil(n*testFraction) indices. The same seed always yields the
// same split.
func TrainTestSplit(n int, testFraction float64, seed uint64) (train, test []int, err error) {
	if testFraction <= 0 || testFraction >= 1 {
		return nil, nil, errors.New("test fraction must be between 0 and 1")
	}
	nTest := int(math.Ceil(float64(n) * testFraction))
	if nTest < 1 || n-nTest < 1 {
		return nil, nil, errors.New("not enough samples to split")
	}
	perm := rand.New(rand.NewPCG(seed, seed)).Perm(n)
	return perm[nTest:], perm[:nTest], nil
}
