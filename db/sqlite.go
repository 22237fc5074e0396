package db

import (
	"database/sql"
	"errors"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"aircast/ml"
	"aircast/pipeline"
)

var database *sql.DB

// InitDB initializes the SQLite database
func InitDB(path string) error {
	var err error
	database, err = sql.Open("sqlite3", path)
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        city VARCHAR(50) NOT NULL,
        observed_at DATETIME NOT NULL,
        predicted_aqi REAL NOT NULL,
        created_at DATETIME DEFAULT CURRENT_TIMESTAMP
    );
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        rmse REAL,
        r2 REAL,
        data_points INTEGER,
        trees INTEGER,
        seed INTEGER,
        trained_at DATETIME
    );
    `

	_, err = database.Exec(query)
	return err
}

// SavePrediction records one resolved query result.
func SavePrediction(result pipeline.QueryResult) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO predictions (city, observed_at, predicted_aqi)
        VALUES (?, ?, ?)`,
		result.City, result.Date, result.PredictedAQI)
	return err
}

// Prediction is one stored prediction row.
type Prediction struct {
	City         string    `json:"city"`
	ObservedAt   time.Time `json:"observed_at"`
	PredictedAQI float64   `json:"predicted_aqi"`
	CreatedAt    time.Time `json:"created_at"`
}

// QueryPredictions returns the most recent stored predictions for a city.
func QueryPredictions(city string, limit int) ([]Prediction, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 100
	}
	rows, err := database.Query(`
        SELECT city, observed_at, predicted_aqi, created_at
        FROM predictions
        WHERE city = ?
        ORDER BY created_at DESC
        LIMIT ?`, city, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	predictions := make([]Prediction, 0)
	for rows.Next() {
		var p Prediction
		if err := rows.Scan(&p.City, &p.ObservedAt, &p.PredictedAQI, &p.CreatedAt); err != nil {
			return nil, err
		}
		predictions = append(predictions, p)
	}
	return predictions, rows.Err()
}

// TrainingLog is one stored training run.
type TrainingLog struct {
	RMSE       float64   `json:"rmse"`
	R2         float64   `json:"r2"`
	DataPoints int       `json:"data_points"`
	Trees      int       `json:"trees"`
	Seed       int64     `json:"seed"`
	TrainedAt  time.Time `json:"trained_at"`
}

// SaveTrainingLog records the metrics of one pipeline run.
func SaveTrainingLog(result ml.EvaluationResult, dataPoints, trees int, seed int64) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	_, err := database.Exec(`
        INSERT INTO training_log (rmse, r2, data_points, trees, seed, trained_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		result.RMSE, result.R2, dataPoints, trees, seed, time.Now().UTC())
	return err
}

// LoadTrainingLog returns stored training runs, newest first.
func LoadTrainingLog() ([]TrainingLog, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	rows, err := database.Query(`
        SELECT rmse, r2, data_points, trees, seed, trained_at
        FROM training_log
        ORDER BY trained_at DESC
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.RMSE, &log.R2, &log.DataPoints, &log.Trees, &log.Seed, &log.TrainedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
