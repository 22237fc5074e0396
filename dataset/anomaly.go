package dataset

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	defaultAnomalyWindow = 10
	defaultAnomalyZ      = 3.0
)

// Anomaly flags a reading whose AQI deviates sharply from the city's recent
// history.
type Anomaly struct {
	City   string    `json:"city"`
	Date   time.Time `json:"date"`
	AQI    float64   `json:"aqi"`
	Mean   float64   `json:"window_mean"`
	ZScore float64   `json:"z_score"`
}

// DetectAnomalies scans each city's AQI series in date order and reports
// readings whose z-score against the preceding window exceeds the threshold.
// A zero-variance window never flags. window <= 1 and threshold <= 0 fall
// back to defaults.
func DetectAnomalies(s *Store, window int, threshold float64) []Anomaly {
	if window <= 1 {
		window = defaultAnomalyWindow
	}
	if threshold <= 0 {
		threshold = defaultAnomalyZ
	}

	byCity := make(map[string][]Reading)
	for _, r := range s.Readings {
		if !r.HasAQI {
			continue
		}
		byCity[r.City] = append(byCity[r.City], r)
	}

	var anomalies []Anomaly
	for _, city := range s.Cities() {
		readings := byCity[city]
		sort.SliceStable(readings, func(i, j int) bool {
			return readings[i].Date.Before(readings[j].Date)
		})
		if len(readings) <= window {
			continue
		}

		recent := make([]float64, window)
		for i := window; i < len(readings); i++ {
			for j := 0; j < window; j++ {
				recent[j] = readings[i-window+j].AQI
			}
			mean, std := stat.MeanStdDev(recent, nil)
			if std == 0 || math.IsNaN(std) {
				continue
			}

			z := math.Abs(readings[i].AQI-mean) / std
			if z > threshold {
				anomalies = append(anomalies, Anomaly{
					City:   city,
					Date:   readings[i].Date,
					AQI:    readings[i].AQI,
					Mean:   mean,
					ZScore: z,
				})
			}
		}
	}
	return anomalies
}
