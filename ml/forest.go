package ml

import (
	"errors"
	"math/rand"
	"sync"
)

// Per-tree seeds are derived as Seed + treeIndex*seedStride so tree
// construction stays deterministic no matter how training is scheduled.
const seedStride = 7919

// ForestRegressor averages an ensemble of independently grown regression
// trees. Each tree trains on a bootstrap resample of the train subset and
// evaluates a random feature subset per split. All randomness derives from
// the single Seed, so refitting with the same data and seed reproduces the
// exact same predictions. Once fitted the forest is read-only and safe for
// concurrent prediction.
type ForestRegressor struct {
	NumTrees    int
	MaxDepth    int
	MinLeaf     int
	MaxFeatures int // 0 picks max(1, numFeatures/3) per split
	Seed        int64

	trees       [][]TreeNode
	importances []float64
}

// NewForestRegressor builds an untrained forest with the default geometry.
func NewForestRegressor(numTrees int, seed int64) *ForestRegressor {
	if numTrees <= 0 {
		numTrees = 100
	}
	return &ForestRegressor{
		NumTrees: numTrees,
		MaxDepth: 16,
		MinLeaf:  1,
		Seed:     seed,
	}
}

// Fit grows the ensemble on scaled train features and matching targets. Trees
// are grown concurrently; per-tree seeding keeps the result deterministic.
func (f *ForestRegressor) Fit(features [][]float64, targets []float64) error {
	if len(features) == 0 || len(targets) == 0 {
		return errors.New("features or targets empty")
	}
	if len(features) != len(targets) {
		return errors.New("features and targets size mismatch")
	}

	numFeatures := len(features[0])
	mtry := f.MaxFeatures
	if mtry <= 0 {
		mtry = numFeatures / 3
		if mtry < 1 {
			mtry = 1
		}
	}
	cfg := treeConfig{
		maxDepth:    f.MaxDepth,
		minLeaf:     f.MinLeaf,
		maxFeatures: mtry,
	}

	trees := make([][]TreeNode, f.NumTrees)
	treeImportances := make([][]float64, f.NumTrees)

	var wg sync.WaitGroup
	for t := 0; t < f.NumTrees; t++ {
		wg.Add(1)
		go func(t int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(f.Seed + int64(t)*seedStride))

			sample := make([]int, len(features))
			for i := range sample {
				sample[i] = rng.Intn(len(features))
			}

			trees[t], treeImportances[t] = growTree(features, targets, sample, cfg, rng)
		}(t)
	}
	wg.Wait()

	importances := make([]float64, numFeatures)
	var total float64
	for _, imp := range treeImportances {
		for j, v := range imp {
			importances[j] += v
			total += v
		}
	}
	if total > 0 {
		for j := range importances {
			importances[j] /= total
		}
	} else {
		// All-leaf forest (constant target); spread importance evenly so the
		// scores still sum to 1.
		for j := range importances {
			importances[j] = 1 / float64(numFeatures)
		}
	}

	f.trees = trees
	f.importances = importances
	return nil
}

// Predict returns the ensemble mean for one scaled feature vector.
func (f *ForestRegressor) Predict(vector []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotFitted
	}

	var sum float64
	for _, nodes := range f.trees {
		sum += predictTree(nodes, vector)
	}
	return sum / float64(len(f.trees)), nil
}

// PredictBatch predicts one target per scaled feature vector.
func (f *ForestRegressor) PredictBatch(features [][]float64) ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}

	predictions := make([]float64, len(features))
	for i, vector := range features {
		p, err := f.Predict(vector)
		if err != nil {
			return nil, err
		}
		predictions[i] = p
	}
	return predictions, nil
}

// FeatureImportances returns the normalized variance-reduction contribution of
// each feature across all trees; the scores sum to 1.
func (f *ForestRegressor) FeatureImportances() ([]float64, error) {
	if len(f.trees) == 0 {
		return nil, ErrNotFitted
	}
	return append([]float64(nil), f.importances...), nil
}
