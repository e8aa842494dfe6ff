package analysis

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Score holds held-out error metrics for one model.
type Score struct {
	Model string  `json:"model"`
	MAE   float64 `json:"mae"`
	MSE   float64 `json:"mse"`
	R2    float64 `json:"r2"`
}

// Evaluate computes mean absolute error, mean squared error and the
// coefficient of determination of predictions against observed values.
func Evaluate(observed, predicted []float64) (mae, mse, r2 float64) {
	n := float64(len(observed))
	if n == 0 {
		return math.NaN(), math.NaN(), math.NaN()
	}
	for i, y := range observed {
		d := predicted[i] - y
		mae += math.Abs(d)
		mse += d * d
	}
	return mae / n, mse / n, stat.RSquaredFrom(predicted, observed, nil)
}

// Compare fits every model on the training split of ds and scores it on
// the test split. Models are scored in the order given.
func Compare(ds Dataset, models []Regressor, testFraction float64, seed uint64) ([]Score, error) {
	trainIdx, testIdx, err := TrainTestSplit(ds.Len(), testFraction, seed)
	if err != nil {
		return nil, err
	}
	train, test := ds.Subset(trainIdx), ds.Subset(testIdx)

	scores := make([]Score, 0, len(models))
	for _, m := range models {
		if err := m.Fit(train.X, train.Y); err != nil {
			return nil, fmt.Errorf("fit %s: %w", m.Name(), err)
		}
		predicted := make([]float64, test.Len())
		for i, x := range test.X {
			predicted[i] = m.Predict(x)
		}
		mae, mse, r2 := Evaluate(test.Y, predicted)
		scores = append(scores, Score{Model: m.Name(), MAE: mae, MSE: mse, R2: r2})
	}
	return scores, nil
}

// DefaultModels returns the baseline models compared by the report command.
func DefaultModels() []Regressor {
	return []Regressor{
		&MeanModel{},
		&SimpleLinear{},
		&LeastSquares{},
		NewPowerCurve(0.5),
	}
}
