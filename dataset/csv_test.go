package dataset

import (
	"strings"
	"testing"
)

const sampleCSV = `City,Date,PM2.5,PM10,NO2,CO,SO2,O3,NH3,AQI
Delhi,2020-01-01,81.4,124.5,40.1,1.2,15.3,34.5,25.8,209
Delhi,2020-01-02,,110.2,38.6,1.1,14.9,30.2,24.1,
Mumbai,2020-01-01,45.0,70.3,22.4,0.8,9.1,28.7,12.2,101
`

func TestReadCSV(t *testing.T) {
	store, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.Readings) != 3 {
		t.Fatalf("expected 3 readings, got %d", len(store.Readings))
	}
	for _, name := range Pollutants() {
		if !store.HasColumn(name) {
			t.Fatalf("missing column %s", name)
		}
	}

	first := store.Readings[0]
	if first.City != "Delhi" {
		t.Fatalf("unexpected city: %s", first.City)
	}
	if first.Date.Year() != 2020 || first.Date.Day() != 1 {
		t.Fatalf("unexpected date: %v", first.Date)
	}
	if !first.HasAQI || first.AQI != 209 {
		t.Fatalf("unexpected target: %v %v", first.HasAQI, first.AQI)
	}
	if v, ok := first.Value("PM2.5"); !ok || v != 81.4 {
		t.Fatalf("unexpected PM2.5: %v %v", v, ok)
	}
}

func TestReadCSVMissingCells(t *testing.T) {
	store, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := store.Readings[1]
	if _, ok := second.Value("PM2.5"); ok {
		t.Fatal("empty cell should read as missing")
	}
	if second.HasAQI {
		t.Fatal("empty AQI cell should read as missing target")
	}
}

func TestReadCSVRequiresCityAndDate(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("Town,Date\nDelhi,2020-01-01\n")); err == nil {
		t.Fatal("expected error for missing City column")
	}
	if _, err := ReadCSV(strings.NewReader("City,Day\nDelhi,2020-01-01\n")); err == nil {
		t.Fatal("expected error for missing Date column")
	}
}

func TestReadCSVBadDate(t *testing.T) {
	if _, err := ReadCSV(strings.NewReader("City,Date\nDelhi,yesterday\n")); err == nil {
		t.Fatal("expected error for unparseable date")
	}
}
