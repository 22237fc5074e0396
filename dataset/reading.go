package dataset

import "time"

// Pollutants returns the canonical feature order. Training, testing and
// inference all build vectors in exactly this order.
func Pollutants() []string {
	return []string{
		"PM2.5",
		"PM10",
		"NO2",
		"CO",
		"SO2",
		"O3",
		"NH3",
	}
}

// Reading is one observation: a city, a date, the pollutant concentrations
// that were measured, and the AQI target when it was recorded.
type Reading struct {
	City   string
	Date   time.Time
	Values map[string]float64
	AQI    float64
	HasAQI bool
}

// Value returns the concentration for a pollutant and whether it was measured.
func (r Reading) Value(name string) (float64, bool) {
	v, ok := r.Values[name]
	return v, ok
}

// Store is an in-memory table of readings. It is built once at load time and
// treated as read-only after cleaning.
type Store struct {
	Columns  []string
	Readings []Reading
}

// HasColumn reports whether the source table carried the named column.
func (s *Store) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Cities returns the distinct city labels in first-seen order.
func (s *Store) Cities() []string {
	seen := make(map[string]bool)
	cities := make([]string, 0)
	for _, r := range s.Readings {
		if !seen[r.City] {
			seen[r.City] = true
			cities = append(cities, r.City)
		}
	}
	return cities
}
