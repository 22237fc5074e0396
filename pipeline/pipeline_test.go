package pipeline

import (
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"aircast/dataset"
	"aircast/ml"
)

// syntheticStore builds a multi-city table where AQI tracks PM2.5 and PM10.
func syntheticStore(rows int) *dataset.Store {
	columns := append([]string{"City", "Date"}, append(dataset.Pollutants(), "AQI")...)
	store := &dataset.Store{Columns: columns}

	cities := []string{"Delhi", "Mumbai", "Chennai"}
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < rows; i++ {
		values := make(map[string]float64)
		for _, name := range dataset.Pollutants() {
			values[name] = rng.Float64() * 50
		}
		values["PM2.5"] = rng.Float64() * 150
		values["PM10"] = rng.Float64() * 200
		store.Readings = append(store.Readings, dataset.Reading{
			City:   cities[i%len(cities)],
			Date:   time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i/len(cities)),
			Values: values,
			AQI:    1.2*values["PM2.5"] + 0.6*values["PM10"] + rng.Float64()*10,
			HasAQI: true,
		})
	}
	return store
}

func TestPipelineDeterminism(t *testing.T) {
	cfg := Config{TestRatio: 0.2, Seed: 42, Trees: 20}

	runA, err := Run(syntheticStore(90), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	runB, err := Run(syntheticStore(90), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if runA.Evaluation() != runB.Evaluation() {
		t.Fatalf("evaluations differ: %+v vs %+v", runA.Evaluation(), runB.Evaluation())
	}

	queryA, err := runA.Query("Delhi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	queryB, err := runB.Query("Delhi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if queryA.PredictedAQI != queryB.PredictedAQI {
		t.Fatalf("predictions differ: %f vs %f", queryA.PredictedAQI, queryB.PredictedAQI)
	}
}

func TestPipelineScalerFitOnTrainOnly(t *testing.T) {
	store := syntheticStore(90)
	cfg := Config{TestRatio: 0.2, Seed: 42, Trees: 10}

	p, err := Run(store, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Rebuild the train subset the way Run does and fit a fresh scaler on it.
	cleaned := dataset.Clean(store)
	features, targets, err := ml.ExtractFeatures(cleaned)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trainX, _, _, _, err := ml.SplitDataset(features, targets, cfg.TestRatio, cfg.Seed)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	trainOnly := &ml.StandardScaler{}
	if err := trainOnly.Fit(trainX); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	combined := &ml.StandardScaler{}
	if err := combined.Fit(features); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for j := range trainOnly.Mean {
		if p.scaler.Mean[j] != trainOnly.Mean[j] || p.scaler.Std[j] != trainOnly.Std[j] {
			t.Fatalf("pipeline scaler differs from train-only fit at feature %d", j)
		}
	}

	// Combined-fit statistics differ, so matching them would mean leakage.
	leaked := true
	for j := range combined.Mean {
		if p.scaler.Mean[j] != combined.Mean[j] {
			leaked = false
			break
		}
	}
	if leaked {
		t.Fatal("pipeline scaler matches train+test statistics: data leakage")
	}
}

func TestQueryReturnsLatestDateNotHighestAQI(t *testing.T) {
	columns := append([]string{"City", "Date"}, append(dataset.Pollutants(), "AQI")...)
	store := &dataset.Store{Columns: columns}
	aqis := []float64{100, 150, 120, 200, 90}
	for i, aqi := range aqis {
		values := make(map[string]float64)
		for _, name := range dataset.Pollutants() {
			values[name] = float64(i + 1)
		}
		store.Readings = append(store.Readings, dataset.Reading{
			City:   "Delhi",
			Date:   time.Date(2020, 1, i+1, 0, 0, 0, 0, time.UTC),
			Values: values,
			AQI:    aqi,
			HasAQI: true,
		})
	}

	p, err := Run(store, Config{TestRatio: 0.2, Seed: 1, Trees: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := p.Query("Delhi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The last date carries AQI 90; the max-AQI row (200) is older.
	want := time.Date(2020, 1, 5, 0, 0, 0, 0, time.UTC)
	if !result.Date.Equal(want) {
		t.Fatalf("expected latest date %v, got %v", want, result.Date)
	}
	if result.Values["PM2.5"] != 5 {
		t.Fatalf("expected raw values from the latest row, got %v", result.Values)
	}
}

func TestQueryNormalizesCityName(t *testing.T) {
	p, err := Run(syntheticStore(60), Config{TestRatio: 0.2, Seed: 3, Trees: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	plain, err := p.Query("Delhi")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	messy, err := p.Query("  delhi ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if plain.PredictedAQI != messy.PredictedAQI || !plain.Date.Equal(messy.Date) {
		t.Fatalf("normalized query differs: %+v vs %+v", plain, messy)
	}
}

func TestNormalizeCityConcurrent(t *testing.T) {
	inputs := []string{"  delhi ", "MUMBAI", "new delhi", "Chennai", " kolkata"}
	want := []string{"Delhi", "Mumbai", "New Delhi", "Chennai", "Kolkata"}

	var wg sync.WaitGroup
	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				k := i % len(inputs)
				if got := NormalizeCity(inputs[k]); got != want[k] {
					t.Errorf("NormalizeCity(%q) = %q, want %q", inputs[k], got, want[k])
					return
				}
			}
		}()
	}
	wg.Wait()
}

func TestQueryUnknownCityKeepsEvaluation(t *testing.T) {
	p, err := Run(syntheticStore(60), Config{TestRatio: 0.2, Seed: 3, Trees: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := p.Evaluation()

	_, err = p.Query("Atlantis")
	var notFound *CityNotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected CityNotFoundError, got %v", err)
	}
	if len(notFound.Known) == 0 {
		t.Fatal("expected known cities in error")
	}

	if p.Evaluation() != before {
		t.Fatal("failed query disturbed evaluation results")
	}
}

func TestPipelineCityAverages(t *testing.T) {
	p, err := Run(syntheticStore(60), Config{TestRatio: 0.2, Seed: 3, Trees: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	averages := p.CityAverages()
	for _, city := range []string{"Delhi", "Mumbai", "Chennai"} {
		if _, ok := averages[city]; !ok {
			t.Fatalf("missing average for %s", city)
		}
	}
}

func TestPipelineFeatureImportances(t *testing.T) {
	p, err := Run(syntheticStore(90), Config{TestRatio: 0.2, Seed: 42, Trees: 20})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	importances, err := p.FeatureImportances()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(importances) != len(ml.FeatureNames()) {
		t.Fatalf("expected %d importances, got %d", len(ml.FeatureNames()), len(importances))
	}

	var sum float64
	for _, v := range importances {
		sum += v
	}
	if sum < 0.999 || sum > 1.001 {
		t.Fatalf("importances sum to %f, want 1", sum)
	}
}
