package ml

import (
	"errors"

	"aircast/dataset"
)

// FeatureNames returns the pollutant columns in canonical vector order.
func FeatureNames() []string {
	return dataset.Pollutants()
}

// FeatureVector builds the canonical 7-element vector for one reading.
// Cleaned readings carry every pollutant key; an absent key reads as zero.
func FeatureVector(r dataset.Reading) []float64 {
	names := FeatureNames()
	vector := make([]float64, len(names))
	for i, name := range names {
		v, _ := r.Value(name)
		vector[i] = v
	}
	return vector
}

// ExtractFeatures projects a cleaned store onto parallel feature vectors and
// AQI targets, one pair per row, order-preserving. It fails with a SchemaError
// when the source table lacks a required pollutant column.
func ExtractFeatures(store *dataset.Store) ([][]float64, []float64, error) {
	if store == nil || len(store.Readings) == 0 {
		return nil, nil, errors.New("store is empty")
	}
	for _, name := range FeatureNames() {
		if !store.HasColumn(name) {
			return nil, nil, &SchemaError{Column: name}
		}
	}

	features := make([][]float64, len(store.Readings))
	targets := make([]float64, len(store.Readings))
	for i, r := range store.Readings {
		features[i] = FeatureVector(r)
		targets[i] = r.AQI
	}
	return features, targets, nil
}
