package pipeline

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"aircast/dataset"
	"aircast/ml"
)

// CityNotFoundError reports a query for a city absent from the store, listing
// the known labels for diagnostics.
type CityNotFoundError struct {
	City  string
	Known []string
}

func (e *CityNotFoundError) Error() string {
	return fmt.Sprintf("city %q not found; known cities: %s", e.City, strings.Join(e.Known, ", "))
}

// QueryResult is the prediction for a city's most recent observation.
type QueryResult struct {
	City         string             `json:"city"`
	Date         time.Time          `json:"date"`
	Values       map[string]float64 `json:"values"`
	PredictedAQI float64            `json:"predicted_aqi"`
}

// NormalizeCity trims whitespace and title-cases a city name so lookups are
// case- and whitespace-insensitive against the store's labels. A cases.Caser
// is stateful and not safe for shared use, so one is built per call.
func NormalizeCity(name string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(name)))
}

// Query resolves a city to its most recent reading (date ties broken by input
// order, last one wins), scales the feature vector with the run's fitted
// statistics and predicts its AQI. A failed lookup does not disturb the run's
// evaluation results.
func (p *Pipeline) Query(city string) (QueryResult, error) {
	normalized := NormalizeCity(city)

	var latest dataset.Reading
	found := false
	for _, r := range p.store.Readings {
		if r.City != normalized {
			continue
		}
		if !found || !r.Date.Before(latest.Date) {
			latest = r
			found = true
		}
	}
	if !found {
		return QueryResult{}, &CityNotFoundError{City: normalized, Known: p.store.Cities()}
	}

	scaled, err := p.scaler.TransformVector(ml.FeatureVector(latest))
	if err != nil {
		return QueryResult{}, err
	}
	predicted, err := p.model.Predict(scaled)
	if err != nil {
		return QueryResult{}, err
	}

	values := make(map[string]float64, len(latest.Values))
	for k, v := range latest.Values {
		values[k] = v
	}
	return QueryResult{
		City:         latest.City,
		Date:         latest.Date,
		Values:       values,
		PredictedAQI: predicted,
	}, nil
}
