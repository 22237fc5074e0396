package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"aircast/dataset"
	"aircast/db"
	"aircast/logging"
	"aircast/pipeline"
)

var (
	pipelineMu sync.RWMutex
	current    *pipeline.Pipeline

	queryCache *lru.Cache[string, pipeline.QueryResult]
)

func init() {
	queryCache, _ = lru.New[string, pipeline.QueryResult](128)
}

// SetPipeline swaps the fitted pipeline served by the handlers. Cached query
// results belong to the previous fit, so the cache is dropped.
func SetPipeline(p *pipeline.Pipeline) {
	pipelineMu.Lock()
	current = p
	pipelineMu.Unlock()
	queryCache.Purge()
}

func currentPipeline() *pipeline.Pipeline {
	pipelineMu.RLock()
	defer pipelineMu.RUnlock()
	return current
}

// RegisterHandlers wires the read-only API over the fitted pipeline.
func RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/predict/{city}", handlePredict)
	mux.HandleFunc("GET /api/metrics", handleMetrics)
	mux.HandleFunc("GET /api/importance", handleImportance)
	mux.HandleFunc("GET /api/cities", handleCities)
	mux.HandleFunc("GET /api/history/{city}", handleHistory)
	mux.HandleFunc("GET /api/anomalies", handleAnomalies)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handlePredict(w http.ResponseWriter, r *http.Request) {
	city := r.PathValue("city")
	if city == "" {
		http.Error(w, "city is required", http.StatusBadRequest)
		return
	}

	p := currentPipeline()
	if p == nil {
		http.Error(w, "pipeline not trained", http.StatusServiceUnavailable)
		return
	}

	key := pipeline.NormalizeCity(city)
	if result, ok := queryCache.Get(key); ok {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(result)
		return
	}

	result, err := p.Query(city)
	if err != nil {
		var notFound *pipeline.CityNotFoundError
		if errors.As(err, &notFound) {
			http.Error(w, notFound.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	queryCache.Add(key, result)
	if err := db.SavePrediction(result); err != nil {
		logging.S().Warnw("save prediction", "city", result.City, "err", err)
	}
	broadcastPrediction(result)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func handleMetrics(w http.ResponseWriter, r *http.Request) {
	p := currentPipeline()
	if p == nil {
		http.Error(w, "pipeline not trained", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(p.Evaluation())
}

func handleImportance(w http.ResponseWriter, r *http.Request) {
	p := currentPipeline()
	if p == nil {
		http.Error(w, "pipeline not trained", http.StatusServiceUnavailable)
		return
	}

	importances, err := p.FeatureImportances()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(importances)
}

func handleCities(w http.ResponseWriter, r *http.Request) {
	p := currentPipeline()
	if p == nil {
		http.Error(w, "pipeline not trained", http.StatusServiceUnavailable)
		return
	}

	response := map[string]interface{}{
		"cities":      p.Store().Cities(),
		"average_aqi": p.CityAverages(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleAnomalies(w http.ResponseWriter, r *http.Request) {
	p := currentPipeline()
	if p == nil {
		http.Error(w, "pipeline not trained", http.StatusServiceUnavailable)
		return
	}

	window := 0
	if windowStr := r.URL.Query().Get("window"); windowStr != "" {
		if n, err := strconv.Atoi(windowStr); err == nil {
			window = n
		}
	}

	anomalies := dataset.DetectAnomalies(p.Store(), window, 0)
	if city := r.URL.Query().Get("city"); city != "" {
		normalized := pipeline.NormalizeCity(city)
		filtered := anomalies[:0]
		for _, a := range anomalies {
			if a.City == normalized {
				filtered = append(filtered, a)
			}
		}
		anomalies = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"count": len(anomalies),
		"data":  anomalies,
	})
}

func handleHistory(w http.ResponseWriter, r *http.Request) {
	city := r.PathValue("city")
	if city == "" {
		http.Error(w, "city is required", http.StatusBadRequest)
		return
	}

	limit := 100
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil {
			limit = l
		}
	}

	predictions, err := db.QueryPredictions(pipeline.NormalizeCity(city), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"city": pipeline.NormalizeCity(city),
		"data": predictions,
	})
}
