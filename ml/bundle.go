package ml

import (
	"encoding/json"
	"errors"
	"os"
)

// ModelBundle couples a fitted scaler with the fitted forest. The two are
// serialized together because a forest without its train-derived scaling
// statistics cannot produce correct predictions.
type ModelBundle struct {
	Scaler *StandardScaler
	Forest *ForestRegressor
}

type bundlePayload struct {
	Mean        []float64    `json:"mean"`
	Std         []float64    `json:"std"`
	NumTrees    int          `json:"num_trees"`
	MaxDepth    int          `json:"max_depth"`
	MinLeaf     int          `json:"min_leaf"`
	MaxFeatures int          `json:"max_features"`
	Seed        int64        `json:"seed"`
	Trees       [][]TreeNode `json:"trees"`
	Importances []float64    `json:"importances"`
}

// Save writes the fitted bundle to path.
func (b *ModelBundle) Save(path string) error {
	if b.Scaler == nil || len(b.Scaler.Mean) == 0 {
		return errors.New("scaler not fitted")
	}
	if b.Forest == nil || len(b.Forest.trees) == 0 {
		return errors.New("forest not fitted")
	}

	payload, err := json.Marshal(bundlePayload{
		Mean:        b.Scaler.Mean,
		Std:         b.Scaler.Std,
		NumTrees:    b.Forest.NumTrees,
		MaxDepth:    b.Forest.MaxDepth,
		MinLeaf:     b.Forest.MinLeaf,
		MaxFeatures: b.Forest.MaxFeatures,
		Seed:        b.Forest.Seed,
		Trees:       b.Forest.trees,
		Importances: b.Forest.importances,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o600)
}

// LoadModelBundle restores a fitted scaler and forest saved by Save.
func LoadModelBundle(path string) (*ModelBundle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var payload bundlePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, err
	}
	if len(payload.Mean) == 0 || len(payload.Trees) == 0 {
		return nil, errors.New("bundle incomplete: scaler and forest must be saved together")
	}

	return &ModelBundle{
		Scaler: &StandardScaler{Mean: payload.Mean, Std: payload.Std},
		Forest: &ForestRegressor{
			NumTrees:    payload.NumTrees,
			MaxDepth:    payload.MaxDepth,
			MinLeaf:     payload.MinLeaf,
			MaxFeatures: payload.MaxFeatures,
			Seed:        payload.Seed,
			trees:       payload.Trees,
			importances: payload.Importances,
		},
	}, nil
}
