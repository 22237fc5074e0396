package dataset

import (
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/go-gota/gota/dataframe"
)

// Date layouts accepted in the input table, tried in order.
var dateLayouts = []string{
	"2006-01-02",
	"02-01-2006",
	"2006/01/02",
	"2006-01-02 15:04:05",
}

// LoadCSV reads a pollutant table from a CSV file. Required columns are City
// and Date; pollutant and AQI columns are optional per cell (missing cells
// come back as NaN and are resolved by Clean).
func LoadCSV(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV parses a pollutant table from r.
func ReadCSV(r io.Reader) (*Store, error) {
	df := dataframe.ReadCSV(r)
	if df.Err != nil {
		return nil, fmt.Errorf("read csv: %w", df.Err)
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("csv contains no rows")
	}

	columns := df.Names()
	has := make(map[string]bool, len(columns))
	for _, c := range columns {
		has[c] = true
	}
	for _, required := range []string{"City", "Date"} {
		if !has[required] {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}

	cities := df.Col("City").Records()
	dates := df.Col("Date").Records()

	// Pull each pollutant column once; gota yields NaN for empty cells.
	pollutantCols := make(map[string][]float64)
	for _, name := range Pollutants() {
		if has[name] {
			pollutantCols[name] = df.Col(name).Float()
		}
	}
	var aqi []float64
	if has["AQI"] {
		aqi = df.Col("AQI").Float()
	}

	readings := make([]Reading, 0, df.Nrow())
	for i := 0; i < df.Nrow(); i++ {
		date, err := parseDate(dates[i])
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+1, err)
		}
		values := make(map[string]float64, len(pollutantCols))
		for name, col := range pollutantCols {
			if !math.IsNaN(col[i]) {
				values[name] = col[i]
			}
		}
		reading := Reading{
			City:   cities[i],
			Date:   date,
			Values: values,
		}
		if aqi != nil && !math.IsNaN(aqi[i]) {
			reading.AQI = aqi[i]
			reading.HasAQI = true
		}
		readings = append(readings, reading)
	}

	return &Store{Columns: columns, Readings: readings}, nil
}

func parseDate(value string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", value)
}
