package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"aircast/dataset"
	"aircast/ml"
	"aircast/pipeline"
)

func main() {
	dataPath := flag.String("data", "", "path to the pollutant CSV")
	city := flag.String("city", "", "city to predict after training (optional)")
	testRatio := flag.Float64("test_ratio", 0.2, "test subset fraction")
	seed := flag.Int64("seed", 42, "random seed")
	trees := flag.Int("trees", 100, "number of trees in the ensemble")
	maxDepth := flag.Int("max_depth", 16, "max tree depth")
	modelPath := flag.String("model_path", "", "optional path to save the fitted scaler+forest bundle")
	flag.Parse()

	if *dataPath == "" {
		log.Fatal("data is required")
	}

	store, err := dataset.LoadCSV(*dataPath)
	if err != nil {
		log.Fatalf("failed to load dataset: %v", err)
	}

	p, err := pipeline.Run(store, pipeline.Config{
		TestRatio: *testRatio,
		Seed:      *seed,
		Trees:     *trees,
		MaxDepth:  *maxDepth,
	})
	if err != nil {
		log.Fatalf("pipeline failed: %v", err)
	}

	result := p.Evaluation()
	fmt.Printf("rows=%d rmse=%.4f r2=%.4f\n", len(p.Store().Readings), result.RMSE, result.R2)

	printImportances(p)

	if *modelPath != "" {
		if err := p.Bundle().Save(*modelPath); err != nil {
			log.Fatalf("failed to save model: %v", err)
		}
		fmt.Printf("model saved to %s\n", *modelPath)
	}

	if *city != "" {
		query, err := p.Query(*city)
		if err != nil {
			log.Fatalf("query failed: %v", err)
		}
		fmt.Printf("%s (%s): predicted AQI %.2f\n",
			query.City, query.Date.Format("2006-01-02"), query.PredictedAQI)
	}
}

func printImportances(p *pipeline.Pipeline) {
	importances, err := p.FeatureImportances()
	if err != nil {
		return
	}
	names := ml.FeatureNames()
	sort.SliceStable(names, func(i, j int) bool {
		return importances[names[i]] > importances[names[j]]
	})
	for _, name := range names {
		fmt.Printf("  %-6s %.4f\n", name, importances[name])
	}
}
