// Package importance implements the ensemble importance producers: a bagged forest of
// regression trees, gradient-boosted regression trees and an elastic net.
package importance

import (
	"math/rand/v2"
	"sort"
)

// minGain is the smallest squared-error reduction accepted as a split.
const minGain = 1e-12

type treeParams struct {
	maxDepth        int
	minSamplesLeaf  int
	featureFraction float64
}

type node struct {
	leaf      bool
	value     float64
	feature   int
	threshold float64
	left      *node
	right     *node
}

func (n *node) predict(row []float64) float64 {
	for !n.leaf {
		if row[n.feature] <= n.threshold {
			n = n.left
		} else {
			n = n.right
		}
	}
	return n.value
}

// treeBuilder grows one CART regression tree and credits each split's
// squared-error reduction to the split feature.
type treeBuilder struct {
	x      [][]float64
	y      []float64
	params treeParams
	rng    *rand.Rand
	gains  []float64
}

func newTreeBuilder(x [][]float64, y []float64, params treeParams, rng *rand.Rand, gains []float64) *treeBuilder {
	if params.minSamplesLeaf < 1 {
		params.minSamplesLeaf = 1
	}
	return &treeBuilder{x: x, y: y, params: params, rng: rng, gains: gains}
}

func (b *treeBuilder) build(idx []int, depth int) *node {
	mean, sse := b.moments(idx)
	if depth >= b.params.maxDepth || len(idx) < 2*b.params.minSamplesLeaf || sse <= minGain {
		return &node{leaf: true, value: mean}
	}

	feature, threshold, childSSE, ok := b.bestSplit(idx)
	if !ok || sse-childSSE <= minGain {
		return &node{leaf: true, value: mean}
	}
	b.gains[feature] += sse - childSSE

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	return &node{
		feature:   feature,
		threshold: threshold,
		left:      b.build(left, depth+1),
		right:     b.build(right, depth+1),
	}
}

// candidates returns the features considered at one split. When a fraction is set the
// remaining features follow the sampled ones so a split is still found when the
// sample holds only constant columns.
func (b *treeBuilder) candidates() (sampled, rest []int) {
	features := len(b.x[0])
	order := make([]int, features)
	for j := range order {
		order[j] = j
	}
	if b.params.featureFraction <= 0 || b.params.featureFraction >= 1 || b.rng == nil {
		return order, nil
	}
	b.rng.Shuffle(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	k := int(float64(features)*b.params.featureFraction + 0.5)
	if k < 1 {
		k = 1
	}
	return order[:k], order[k:]
}

func (b *treeBuilder) bestSplit(idx []int) (feature int, threshold, sse float64, ok bool) {
	sampled, rest := b.candidates()
	feature, threshold, sse, ok = b.searchFeatures(idx, sampled)
	if !ok && len(rest) > 0 {
		feature, threshold, sse, ok = b.searchFeatures(idx, rest)
	}
	return feature, threshold, sse, ok
}

func (b *treeBuilder) searchFeatures(idx []int, features []int) (feature int, threshold, best float64, ok bool) {
	n := len(idx)
	minLeaf := b.params.minSamplesLeaf
	sorted := make([]int, n)

	for _, j := range features {
		copy(sorted, idx)
		sort.SliceStable(sorted, func(a, c int) bool { return b.x[sorted[a]][j] < b.x[sorted[c]][j] })

		var totalSum, totalSq float64
		for _, i := range sorted {
			totalSum += b.y[i]
			totalSq += b.y[i] * b.y[i]
		}

		var leftSum, leftSq float64
		for pos := 0; pos < n-1; pos++ {
			yi := b.y[sorted[pos]]
			leftSum += yi
			leftSq += yi * yi

			nl := pos + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			lo, hi := b.x[sorted[pos]][j], b.x[sorted[pos+1]][j]
			if lo == hi {
				continue
			}

			rightSum := totalSum - leftSum
			rightSq := totalSq - leftSq
			candidate := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if !ok || candidate < best {
				feature, threshold, best, ok = j, lo+(hi-lo)/2, candidate, true
			}
		}
	}
	return feature, threshold, best, ok
}

func (b *treeBuilder) moments(idx []int) (mean, sse float64) {
	if len(idx) == 0 {
		return 0, 0
	}
	for _, i := range idx {
		mean += b.y[i]
	}
	mean /= float64(len(idx))
	for _, i := range idx {
		d := b.y[i] - mean
		sse += d * d
	}
	return mean, sse
}

// normalize scales gains to sum to one. All-zero gains stay zero.
func normalize(gains []float64) []float64 {
	var total float64
	for _, g := range gains {
		total += g
	}
	out := make([]float64, len(gains))
	if total <= 0 {
		return out
	}
	for j, g := range gains {
		out[j] = g / total
	}
	return out
}

//Personal.AI order the ending
