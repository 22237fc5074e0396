package ml

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler standardizes feature vectors with per-feature mean and
// standard deviation. Fit runs on the train subset only; every later
// transform (test rows, query vectors) reuses the train-derived statistics.
// Fitting on test data or on the full dataset is a data-leakage defect.
type StandardScaler struct {
	Mean []float64 `json:"mean"`
	Std  []float64 `json:"std"`
}

// Fit computes per-feature statistics from the train subset. A zero standard
// deviation (constant feature) is stored as 1 so transform never divides by
// zero.
func (s *StandardScaler) Fit(features [][]float64) error {
	if len(features) == 0 {
		return errors.New("features is empty")
	}

	width := len(features[0])
	s.Mean = make([]float64, width)
	s.Std = make([]float64, width)

	column := make([]float64, len(features))
	for j := 0; j < width; j++ {
		for i, row := range features {
			column[i] = row[j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		s.Mean[j] = mean
		s.Std[j] = std
	}
	return nil
}

// TransformVector standardizes one vector with the fitted statistics.
func (s *StandardScaler) TransformVector(vector []float64) ([]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}
	if len(vector) != len(s.Mean) {
		return nil, errors.New("vector width does not match fitted statistics")
	}

	scaled := make([]float64, len(vector))
	for j, v := range vector {
		scaled[j] = (v - s.Mean[j]) / s.Std[j]
	}
	return scaled, nil
}

// Transform standardizes a batch of vectors with the fitted statistics. It
// never recomputes statistics from its input.
func (s *StandardScaler) Transform(features [][]float64) ([][]float64, error) {
	if len(s.Mean) == 0 {
		return nil, ErrNotFitted
	}

	scaled := make([][]float64, len(features))
	for i, row := range features {
		v, err := s.TransformVector(row)
		if err != nil {
			return nil, err
		}
		scaled[i] = v
	}
	return scaled, nil
}
