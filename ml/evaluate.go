package ml

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// EvaluationResult carries the held-out error metrics of one pipeline run.
type EvaluationResult struct {
	RMSE float64 `json:"rmse"`
	R2   float64 `json:"r2"`
}

// Evaluate computes RMSE and R² over paired true/predicted targets. When the
// true targets have zero variance the R² denominator is guarded instead of
// dividing by zero: a perfect prediction scores 1, anything else scores 0.
func Evaluate(actual, predicted []float64) (EvaluationResult, error) {
	if len(actual) == 0 || len(actual) != len(predicted) {
		return EvaluationResult{}, &EmptyInputError{Actual: len(actual), Predicted: len(predicted)}
	}

	mean := stat.Mean(actual, nil)

	var rss, tss float64
	for i := range actual {
		residual := actual[i] - predicted[i]
		rss += residual * residual
		deviation := actual[i] - mean
		tss += deviation * deviation
	}

	result := EvaluationResult{
		RMSE: math.Sqrt(rss / float64(len(actual))),
	}
	if tss == 0 {
		if rss == 0 {
			result.R2 = 1
		}
		return result, nil
	}
	result.R2 = 1 - rss/tss
	return result, nil
}
