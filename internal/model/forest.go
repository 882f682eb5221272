// Package model implements the traffic-volume regressor and its artifacts:
// a bagged random forest of regression trees, gob persistence for the
// trained model and fitted encoder, test-set evaluation, and classification
// of a prediction into a traffic level.
package model

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
)

// Options configures random forest training.
type Options struct {
	Trees           int
	MinSamplesSplit int
	// MaxDepth limits tree depth; 0 means unlimited.
	MaxDepth int
	Seed     int64
}

// RandomForest is a bagged ensemble of regression trees. Fields are exported
// for gob serialization; a trained forest is read-only.
type RandomForest struct {
	Trees        []*TreeNode
	FeatureNames []string
}

// TreeNode is one node of a regression tree. Leaf nodes carry the mean
// response of their training samples.
type TreeNode struct {
	Leaf      bool
	Value     float64
	Feature   int
	Threshold float64
	Left      *TreeNode
	Right     *TreeNode
}

// TrainForest fits a random forest on the feature matrix. Each tree trains
// on a bootstrap sample with sqrt(p) candidate features per split; splits
// minimize within-node variance. Training is deterministic for a given seed.
func TrainForest(features [][]float64, response []float64, names []string, opts Options) (*RandomForest, error) {
	n := len(features)
	if n == 0 || n != len(response) {
		return nil, fmt.Errorf("model: feature matrix and response sizes do not match (%d vs %d)", n, len(response))
	}
	p := len(names)
	for i, row := range features {
		if len(row) != p {
			return nil, fmt.Errorf("model: row %d has %d features, want %d", i, len(row), p)
		}
	}

	forest := &RandomForest{
		Trees:        make([]*TreeNode, 0, opts.Trees),
		FeatureNames: append([]string(nil), names...),
	}
	mtry := int(math.Sqrt(float64(p)))
	if mtry < 1 {
		mtry = 1
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	for t := 0; t < opts.Trees; t++ {
		sample := make([]int, n)
		for i := range sample {
			sample[i] = rng.Intn(n)
		}
		builder := &treeBuilder{
			features: features,
			response: response,
			minSplit: opts.MinSamplesSplit,
			maxDepth: opts.MaxDepth,
			mtry:     mtry,
			rng:      rand.New(rand.NewSource(opts.Seed + int64(t) + 1)),
		}
		forest.Trees = append(forest.Trees, builder.build(sample, 0))
	}
	return forest, nil
}

// Predict returns the forest prediction for one feature row, the mean of the
// per-tree predictions.
func (f *RandomForest) Predict(row []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range f.Trees {
		sum += tree.predict(row)
	}
	return sum / float64(len(f.Trees))
}

func (t *TreeNode) predict(row []float64) float64 {
	node := t
	for !node.Leaf {
		if row[node.Feature] <= node.Threshold {
			node = node.Left
		} else {
			node = node.Right
		}
	}
	return node.Value
}

type treeBuilder struct {
	features [][]float64
	response []float64
	minSplit int
	maxDepth int
	mtry     int
	rng      *rand.Rand
}

func (b *treeBuilder) build(indices []int, depth int) *TreeNode {
	mean := meanAt(b.response, indices)
	if len(indices) < b.minSplit || (b.maxDepth > 0 && depth >= b.maxDepth) || pureAt(b.response, indices) {
		return &TreeNode{Leaf: true, Value: mean}
	}

	feature, threshold, ok := b.bestSplit(indices)
	if !ok {
		return &TreeNode{Leaf: true, Value: mean}
	}

	var left, right []int
	for _, idx := range indices {
		if b.features[idx][feature] <= threshold {
			left = append(left, idx)
		} else {
			right = append(right, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return &TreeNode{Leaf: true, Value: mean}
	}

	return &TreeNode{
		Feature:   feature,
		Threshold: threshold,
		Left:      b.build(left, depth+1),
		Right:     b.build(right, depth+1),
	}
}

// bestSplit scans a random feature subset for the split with the lowest
// weighted child variance.
func (b *treeBuilder) bestSplit(indices []int) (feature int, threshold float64, ok bool) {
	p := len(b.features[indices[0]])
	candidates := b.rng.Perm(p)[:b.mtry]

	bestScore := math.Inf(1)
	for _, f := range candidates {
		values := make([]float64, 0, len(indices))
		for _, idx := range indices {
			values = append(values, b.features[idx][f])
		}
		sort.Float64s(values)

		for i := 1; i < len(values); i++ {
			if values[i] == values[i-1] {
				continue
			}
			mid := (values[i] + values[i-1]) / 2
			score := b.splitScore(indices, f, mid)
			if score < bestScore {
				bestScore = score
				feature = f
				threshold = mid
				ok = true
			}
		}
	}
	return feature, threshold, ok
}

func (b *treeBuilder) splitScore(indices []int, feature int, threshold float64) float64 {
	var leftSum, leftSq, rightSum, rightSq float64
	var leftN, rightN int
	for _, idx := range indices {
		y := b.response[idx]
		if b.features[idx][feature] <= threshold {
			leftSum += y
			leftSq += y * y
			leftN++
		} else {
			rightSum += y
			rightSq += y * y
			rightN++
		}
	}
	if leftN == 0 || rightN == 0 {
		return math.Inf(1)
	}
	// Sum of squared deviations per side, from the sufficient statistics.
	leftSS := leftSq - leftSum*leftSum/float64(leftN)
	rightSS := rightSq - rightSum*rightSum/float64(rightN)
	return leftSS + rightSS
}

func meanAt(values []float64, indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sum := 0.0
	for _, idx := range indices {
		sum += values[idx]
	}
	return sum / float64(len(indices))
}

func pureAt(values []float64, indices []int) bool {
	first := values[indices[0]]
	for _, idx := range indices[1:] {
		if values[idx] != first {
			return false
		}
	}
	return true
}
