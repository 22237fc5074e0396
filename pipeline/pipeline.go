// Package pipeline runs the AQI training pipeline and serves single-city
// predictions from its fitted state.
package pipeline

import (
	"aircast/dataset"
	"aircast/logging"
	"aircast/ml"
)

// Config is the explicit configuration surface of one pipeline run.
type Config struct {
	TestRatio float64
	Seed      int64
	Trees     int
	MaxDepth  int
}

func (c Config) withDefaults() Config {
	if c.TestRatio <= 0 || c.TestRatio >= 1 {
		c.TestRatio = 0.2
	}
	if c.Trees <= 0 {
		c.Trees = 100
	}
	return c
}

// Pipeline holds the cleaned store and the fitted scaler/model of one run.
// Everything here is read-only after Run returns; concurrent queries against
// a fitted pipeline are safe.
type Pipeline struct {
	config Config
	store  *dataset.Store
	scaler *ml.StandardScaler
	model  *ml.ForestRegressor
	result ml.EvaluationResult
}

// Run executes the full sequence: clean, extract, split, fit the scaler on
// the train subset only, train the forest on scaled train features, evaluate
// on the held-out test subset. The scaler is never refit after this.
func Run(raw *dataset.Store, cfg Config) (*Pipeline, error) {
	cfg = cfg.withDefaults()

	cleaned := dataset.Clean(raw)
	features, targets, err := ml.ExtractFeatures(cleaned)
	if err != nil {
		return nil, err
	}

	trainX, trainY, testX, testY, err := ml.SplitDataset(features, targets, cfg.TestRatio, cfg.Seed)
	if err != nil {
		return nil, err
	}

	scaler := &ml.StandardScaler{}
	if err := scaler.Fit(trainX); err != nil {
		return nil, err
	}
	scaledTrain, err := scaler.Transform(trainX)
	if err != nil {
		return nil, err
	}
	scaledTest, err := scaler.Transform(testX)
	if err != nil {
		return nil, err
	}

	model := ml.NewForestRegressor(cfg.Trees, cfg.Seed)
	if cfg.MaxDepth > 0 {
		model.MaxDepth = cfg.MaxDepth
	}
	if err := model.Fit(scaledTrain, trainY); err != nil {
		return nil, err
	}

	predicted, err := model.PredictBatch(scaledTest)
	if err != nil {
		return nil, err
	}
	result, err := ml.Evaluate(testY, predicted)
	if err != nil {
		return nil, err
	}

	logging.S().Infow("pipeline trained",
		"rows", len(cleaned.Readings),
		"train", len(trainY),
		"test", len(testY),
		"trees", cfg.Trees,
		"seed", cfg.Seed,
		"rmse", result.RMSE,
		"r2", result.R2,
	)

	return &Pipeline{
		config: cfg,
		store:  cleaned,
		scaler: scaler,
		model:  model,
		result: result,
	}, nil
}

// Evaluation returns the held-out metrics of this run.
func (p *Pipeline) Evaluation() ml.EvaluationResult {
	return p.result
}

// Store returns the cleaned record store.
func (p *Pipeline) Store() *dataset.Store {
	return p.store
}

// CityAverages returns mean AQI per city from the cleaned store.
func (p *Pipeline) CityAverages() map[string]float64 {
	return dataset.CityAverages(p.store)
}

// FeatureImportances maps pollutant names to their normalized importance.
func (p *Pipeline) FeatureImportances() (map[string]float64, error) {
	scores, err := p.model.FeatureImportances()
	if err != nil {
		return nil, err
	}
	names := ml.FeatureNames()
	importances := make(map[string]float64, len(names))
	for i, name := range names {
		importances[name] = scores[i]
	}
	return importances, nil
}

// Bundle exposes the fitted scaler and forest for persistence; they must be
// saved together.
func (p *Pipeline) Bundle() *ml.ModelBundle {
	return &ml.ModelBundle{Scaler: p.scaler, Forest: p.model}
}
