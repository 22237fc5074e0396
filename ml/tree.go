package ml

import (
	"math/rand"
	"sort"
)

// TreeNode is one node in the flat array encoding of a regression tree. Left
// and Right index into the owning tree's node slice; -1 marks a leaf child.
type TreeNode struct {
	Feature   int     `json:"feature"`
	Threshold float64 `json:"threshold"`
	Left      int     `json:"left"`
	Right     int     `json:"right"`
	Value     float64 `json:"value"`
	Leaf      bool    `json:"leaf"`
}

// predictTree walks a flat node slice from the root for one feature vector.
func predictTree(nodes []TreeNode, vector []float64) float64 {
	idx := 0
	for {
		node := nodes[idx]
		if node.Leaf {
			return node.Value
		}
		if vector[node.Feature] <= node.Threshold {
			idx = node.Left
		} else {
			idx = node.Right
		}
	}
}

type treeConfig struct {
	maxDepth    int
	minLeaf     int
	maxFeatures int
}

// treeBuilder grows a single regression tree over row indices into the shared
// feature matrix. Splits minimize the summed squared error of the branches;
// each split considers a random subset of features drawn from rng.
type treeBuilder struct {
	features    [][]float64
	targets     []float64
	cfg         treeConfig
	rng         *rand.Rand
	nodes       []TreeNode
	importances []float64
}

func growTree(features [][]float64, targets []float64, sample []int, cfg treeConfig, rng *rand.Rand) ([]TreeNode, []float64) {
	b := &treeBuilder{
		features:    features,
		targets:     targets,
		cfg:         cfg,
		rng:         rng,
		importances: make([]float64, len(features[0])),
	}
	b.build(sample, 0)
	return b.nodes, b.importances
}

func (b *treeBuilder) build(sample []int, depth int) int {
	mean, sse := b.meanSSE(sample)
	idx := len(b.nodes)
	b.nodes = append(b.nodes, TreeNode{Feature: -1, Left: -1, Right: -1, Value: mean, Leaf: true})

	if depth >= b.cfg.maxDepth || len(sample) < 2*b.cfg.minLeaf || sse == 0 {
		return idx
	}

	feature, threshold, gain, ok := b.bestSplit(sample, sse)
	if !ok {
		return idx
	}

	var left, right []int
	for _, i := range sample {
		if b.features[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	if len(left) < b.cfg.minLeaf || len(right) < b.cfg.minLeaf {
		return idx
	}

	b.importances[feature] += gain

	leftIdx := b.build(left, depth+1)
	rightIdx := b.build(right, depth+1)
	b.nodes[idx] = TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      leftIdx,
		Right:     rightIdx,
		Value:     mean,
		Leaf:      false,
	}
	return idx
}

// bestSplit scans a random feature subset for the threshold with the largest
// variance reduction. Candidate thresholds are midpoints between consecutive
// distinct values, evaluated with running prefix sums.
func (b *treeBuilder) bestSplit(sample []int, parentSSE float64) (feature int, threshold, gain float64, ok bool) {
	numFeatures := len(b.features[0])
	mtry := b.cfg.maxFeatures
	if mtry <= 0 || mtry > numFeatures {
		mtry = numFeatures
	}

	candidates := b.rng.Perm(numFeatures)[:mtry]
	sort.Ints(candidates)

	type pair struct {
		value  float64
		target float64
	}
	pairs := make([]pair, len(sample))

	feature = -1
	bestChildSSE := parentSSE

	for _, f := range candidates {
		for i, idx := range sample {
			pairs[i] = pair{value: b.features[idx][f], target: b.targets[idx]}
		}
		sort.Slice(pairs, func(i, j int) bool { return pairs[i].value < pairs[j].value })

		var totalSum, totalSq float64
		for _, p := range pairs {
			totalSum += p.target
			totalSq += p.target * p.target
		}

		var leftSum, leftSq float64
		n := float64(len(pairs))
		for i := 0; i < len(pairs)-1; i++ {
			leftSum += pairs[i].target
			leftSq += pairs[i].target * pairs[i].target
			if pairs[i].value == pairs[i+1].value {
				continue
			}

			nl := float64(i + 1)
			nr := n - nl
			sseL := leftSq - leftSum*leftSum/nl
			sseR := (totalSq - leftSq) - (totalSum-leftSum)*(totalSum-leftSum)/nr
			if child := sseL + sseR; child < bestChildSSE {
				bestChildSSE = child
				feature = f
				threshold = (pairs[i].value + pairs[i+1].value) / 2
			}
		}
	}

	if feature == -1 {
		return -1, 0, 0, false
	}
	return feature, threshold, parentSSE - bestChildSSE, true
}

func (b *treeBuilder) meanSSE(sample []int) (mean, sse float64) {
	var sum, sq float64
	for _, i := range sample {
		t := b.targets[i]
		sum += t
		sq += t * t
	}
	n := float64(len(sample))
	mean = sum / n
	sse = sq - sum*sum/n
	if sse < 0 {
		sse = 0
	}
	return mean, sse
}
