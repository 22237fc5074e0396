package dataset

// Clean returns a new store containing only rows with a recorded AQI target,
// with every missing pollutant value replaced by zero. A missing reading is
// treated as "not detected", not estimated; mean/median imputation must not be
// substituted here. The input store is left untouched.
func Clean(s *Store) *Store {
	cleaned := &Store{
		Columns:  append([]string(nil), s.Columns...),
		Readings: make([]Reading, 0, len(s.Readings)),
	}

	for _, r := range s.Readings {
		if !r.HasAQI {
			continue
		}
		values := make(map[string]float64, len(Pollutants()))
		for _, name := range Pollutants() {
			if v, ok := r.Values[name]; ok {
				values[name] = v
			} else {
				values[name] = 0
			}
		}
		cleaned.Readings = append(cleaned.Readings, Reading{
			City:   r.City,
			Date:   r.Date,
			Values: values,
			AQI:    r.AQI,
			HasAQI: true,
		})
	}

	return cleaned
}

// CityAverages maps each city to its mean AQI over the cleaned store. It is
// computed straight from the data, independent of any trained model.
func CityAverages(s *Store) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)
	for _, r := range s.Readings {
		if !r.HasAQI {
			continue
		}
		sums[r.City] += r.AQI
		counts[r.City]++
	}

	averages := make(map[string]float64, len(sums))
	for city, sum := range sums {
		averages[city] = sum / float64(counts[city])
	}
	return averages
}
