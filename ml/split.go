package ml

import (
	"errors"
	"math"
	"math/rand"
)

// SplitDataset shuffles the pairs with a seeded permutation and carves off
// round(testRatio*N) rows for the test subset; the remainder trains. The same
// inputs, ratio and seed always land the same rows in test. An out-of-range
// ratio falls back to 0.2.
func SplitDataset(features [][]float64, targets []float64, testRatio float64, seed int64) (trainX [][]float64, trainY []float64, testX [][]float64, testY []float64, err error) {
	if len(features) != len(targets) {
		return nil, nil, nil, nil, errors.New("features/targets length mismatch")
	}
	if testRatio <= 0 || testRatio >= 1 {
		testRatio = 0.2
	}

	n := len(features)
	testSize := int(math.Round(testRatio * float64(n)))
	if n-testSize < 1 {
		return nil, nil, nil, nil, &InsufficientDataError{Rows: n}
	}

	rnd := rand.New(rand.NewSource(seed))
	indices := rnd.Perm(n)

	for i, idx := range indices {
		if i < n-testSize {
			trainX = append(trainX, features[idx])
			trainY = append(trainY, targets[idx])
		} else {
			testX = append(testX, features[idx])
			testY = append(testY, targets[idx])
		}
	}
	return trainX, trainY, testX, testY, nil
}
