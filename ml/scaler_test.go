package ml

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/stat"
)

func TestScalerRoundTrip(t *testing.T) {
	features := [][]float64{
		{10, 5},
		{20, 7},
		{30, 9},
		{40, 11},
	}

	scaler := &StandardScaler{}
	if err := scaler.Fit(features); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	scaled, err := scaler.Transform(features)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Transforming the fit data must give mean 0 and std 1 per feature.
	column := make([]float64, len(scaled))
	for j := 0; j < 2; j++ {
		for i, row := range scaled {
			column[i] = row[j]
		}
		mean, std := stat.MeanStdDev(column, nil)
		if math.Abs(mean) > 1e-9 {
			t.Fatalf("feature %d mean %f after round trip", j, mean)
		}
		if math.Abs(std-1) > 1e-9 {
			t.Fatalf("feature %d std %f after round trip", j, std)
		}
	}
}

func TestScalerConstantFeature(t *testing.T) {
	features := [][]float64{
		{5, 1},
		{5, 2},
		{5, 3},
	}

	scaler := &StandardScaler{}
	if err := scaler.Fit(features); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaler.Std[0] != 1 {
		t.Fatalf("constant feature std should be stored as 1, got %f", scaler.Std[0])
	}

	scaled, err := scaler.TransformVector([]float64{5, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if scaled[0] != 0 {
		t.Fatalf("constant feature should scale to 0, got %f", scaled[0])
	}
}

func TestScalerNotFitted(t *testing.T) {
	scaler := &StandardScaler{}
	if _, err := scaler.TransformVector([]float64{1, 2}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
	if _, err := scaler.Transform([][]float64{{1, 2}}); !errors.Is(err, ErrNotFitted) {
		t.Fatalf("expected ErrNotFitted, got %v", err)
	}
}

func TestScalerStatsAreTrainOnly(t *testing.T) {
	train := [][]float64{{1}, {2}, {3}}
	test := [][]float64{{100}, {200}}

	trainScaler := &StandardScaler{}
	if err := trainScaler.Fit(train); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	combinedScaler := &StandardScaler{}
	if err := combinedScaler.Fit(append(append([][]float64{}, train...), test...)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if trainScaler.Mean[0] == combinedScaler.Mean[0] {
		t.Fatal("train-only mean should differ from combined mean")
	}

	// Transforming test rows must use the train statistics, not recompute.
	scaled, err := trainScaler.Transform(test)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (100.0 - trainScaler.Mean[0]) / trainScaler.Std[0]
	if scaled[0][0] != want {
		t.Fatalf("transform recomputed statistics: got %f want %f", scaled[0][0], want)
	}
}
