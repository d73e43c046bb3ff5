package model

import (
	"fmt"
	"math"
	"slices"

	json "github.com/goccy/go-json"
)

// KindDecisionTree is the artifact kind of DecisionTree.
const KindDecisionTree = "decision_tree"

// leafFeature marks a node without a split.
const leafFeature = -1

// TreeParams controls tree growth.
type TreeParams struct {
	// MaxDepth limits the depth of the tree. Zero means unlimited.
	MaxDepth int `json:"max_depth"`

	// MinSamplesSplit is the minimum number of samples a node needs to split.
	MinSamplesSplit int `json:"min_samples_split"`

	// MinSamplesLeaf is the minimum number of samples each child must keep.
	MinSamplesLeaf int `json:"min_samples_leaf"`
}

// DefaultTreeParams grows the tree until leaves are pure.
func DefaultTreeParams() TreeParams {
	return TreeParams{
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
	}
}

func (p TreeParams) normalized() TreeParams {
	if p.MaxDepth < 0 {
		p.MaxDepth = 0
	}
	if p.MinSamplesSplit < 2 {
		p.MinSamplesSplit = 2
	}
	if p.MinSamplesLeaf < 1 {
		p.MinSamplesLeaf = 1
	}
	return p
}

// treeNode is one node of the flattened tree. Samples with
// x[Feature] <= Threshold go Left.
type treeNode struct {
	Feature   int       `json:"feature"`
	Threshold float64   `json:"threshold"`
	Left      int       `json:"left"`
	Right     int       `json:"right"`
	Samples   int       `json:"samples"`
	Value     []float64 `json:"value"`
}

func (n treeNode) isLeaf() bool {
	return n.Feature == leafFeature
}

// DecisionTree is a CART classifier using Gini impurity.
type DecisionTree struct {
	nodes       []treeNode
	numFeatures int
	numClasses  int
	params      TreeParams
}

var _ Classifier = (*DecisionTree)(nil)

// FitDecisionTree grows a tree over X (one row per sample) and class codes y.
func FitDecisionTree(X [][]int, y []int, numClasses int, params TreeParams) (*DecisionTree, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("fit decision tree: no samples")
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("fit decision tree: %d samples but %d targets", len(X), len(y))
	}
	if numClasses < 1 {
		return nil, fmt.Errorf("fit decision tree: numClasses must be positive")
	}
	numFeatures := len(X[0])
	if numFeatures == 0 {
		return nil, fmt.Errorf("fit decision tree: samples have no features")
	}
	for i, row := range X {
		if len(row) != numFeatures {
			return nil, fmt.Errorf("fit decision tree: sample %d has %d features, want %d", i, len(row), numFeatures)
		}
		if y[i] < 0 || y[i] >= numClasses {
			return nil, fmt.Errorf("fit decision tree: target %d of sample %d outside [0,%d)", y[i], i, numClasses)
		}
	}

	b := &treeBuilder{
		X:          X,
		y:          y,
		numClasses: numClasses,
		params:     params.normalized(),
	}
	idx := make([]int, len(X))
	for i := range idx {
		idx[i] = i
	}
	b.build(idx, 0)

	return &DecisionTree{
		nodes:       b.nodes,
		numFeatures: numFeatures,
		numClasses:  numClasses,
		params:      b.params,
	}, nil
}

func (t *DecisionTree) Kind() string     { return KindDecisionTree }
func (t *DecisionTree) NumFeatures() int { return t.numFeatures }
func (t *DecisionTree) NumClasses() int  { return t.numClasses }

// Params returns the growth parameters the tree was fitted with.
func (t *DecisionTree) Params() TreeParams { return t.params }

func (t *DecisionTree) PredictProba(x []int) ([]float64, error) {
	leaf, err := t.leaf(x)
	if err != nil {
		return nil, err
	}
	return slices.Clone(leaf.Value), nil
}

// Predict returns the class with the highest leaf probability. Ties go to
// the lowest code.
func (t *DecisionTree) Predict(x []int) (int, error) {
	leaf, err := t.leaf(x)
	if err != nil {
		return 0, err
	}
	best := 0
	for c, p := range leaf.Value {
		if p > leaf.Value[best] {
			best = c
		}
	}
	return best, nil
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *DecisionTree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.nodes[i]
		if n.isLeaf() {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	return walk(0)
}

// Leaves returns the number of leaf nodes.
func (t *DecisionTree) Leaves() int {
	count := 0
	for _, n := range t.nodes {
		if n.isLeaf() {
			count++
		}
	}
	return count
}

func (t *DecisionTree) leaf(x []int) (treeNode, error) {
	if err := checkInput(x, t.numFeatures); err != nil {
		return treeNode{}, err
	}
	n := t.nodes[0]
	for !n.isLeaf() {
		if float64(x[n.Feature]) <= n.Threshold {
			n = t.nodes[n.Left]
		} else {
			n = t.nodes[n.Right]
		}
	}
	return n, nil
}

// treeBody is the serialized form of a DecisionTree.
type treeBody struct {
	Params TreeParams `json:"params"`
	Nodes  []treeNode `json:"nodes"`
}

func (t *DecisionTree) marshalBody() ([]byte, error) {
	return json.Marshal(treeBody{Params: t.params, Nodes: t.nodes})
}

func decodeDecisionTree(body []byte, numFeatures, numClasses int) (Classifier, error) {
	var tb treeBody
	if err := json.Unmarshal(body, &tb); err != nil {
		return nil, fmt.Errorf("decode decision tree: %w", err)
	}
	if len(tb.Nodes) == 0 {
		return nil, fmt.Errorf("decode decision tree: no nodes")
	}
	for i, n := range tb.Nodes {
		if len(n.Value) != numClasses {
			return nil, fmt.Errorf("decode decision tree: node %d has %d class values, want %d", i, len(n.Value), numClasses)
		}
		if n.isLeaf() {
			continue
		}
		if n.Feature < 0 || n.Feature >= numFeatures {
			return nil, fmt.Errorf("decode decision tree: node %d splits on feature %d", i, n.Feature)
		}
		// Children always follow their parent in the flattened order.
		if n.Left <= i || n.Right <= i || n.Left >= len(tb.Nodes) || n.Right >= len(tb.Nodes) {
			return nil, fmt.Errorf("decode decision tree: node %d has invalid children", i)
		}
	}
	return &DecisionTree{
		nodes:       tb.Nodes,
		numFeatures: numFeatures,
		numClasses:  numClasses,
		params:      tb.Params,
	}, nil
}

// treeBuilder grows the tree depth-first into a flat node slice.
type treeBuilder struct {
	X          [][]int
	y          []int
	numClasses int
	params     TreeParams
	nodes      []treeNode
}

type split struct {
	feature   int
	threshold float64
	impurity  float64
}

func (b *treeBuilder) build(idx []int, depth int) int {
	counts := b.classCounts(idx)
	pos := len(b.nodes)
	b.nodes = append(b.nodes, treeNode{
		Feature: leafFeature,
		Samples: len(idx),
		Value:   distribution(counts, len(idx)),
	})

	if b.stop(idx, counts, depth) {
		return pos
	}
	best, ok := b.bestSplit(idx, counts)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if float64(b.X[i][best.feature]) <= best.threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)

	b.nodes[pos].Feature = best.feature
	b.nodes[pos].Threshold = best.threshold
	b.nodes[pos].Left = l
	b.nodes[pos].Right = r
	return pos
}

func (b *treeBuilder) stop(idx []int, counts []int, depth int) bool {
	if len(idx) < b.params.MinSamplesSplit {
		return true
	}
	if b.params.MaxDepth > 0 && depth >= b.params.MaxDepth {
		return true
	}
	nonZero := 0
	for _, c := range counts {
		if c > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// bestSplit scans every feature and every midpoint between adjacent observed
// values and returns the split with the lowest weighted Gini impurity. A split
// that does not lower impurity is still taken, so impure nodes keep splitting
// while any feature separates their samples. Features are visited in order
// and only a strictly better split replaces the current best.
func (b *treeBuilder) bestSplit(idx []int, counts []int) (split, bool) {
	n := len(idx)
	best := split{impurity: math.Inf(1)}
	found := false

	numFeatures := len(b.X[idx[0]])
	for f := 0; f < numFeatures; f++ {
		byValue := make(map[int][]int)
		for _, i := range idx {
			v := b.X[i][f]
			if byValue[v] == nil {
				byValue[v] = make([]int, b.numClasses)
			}
			byValue[v][b.y[i]]++
		}
		if len(byValue) < 2 {
			continue
		}
		values := make([]int, 0, len(byValue))
		for v := range byValue {
			values = append(values, v)
		}
		slices.Sort(values)

		leftCounts := make([]int, b.numClasses)
		leftN := 0
		for k := 0; k < len(values)-1; k++ {
			for c, cnt := range byValue[values[k]] {
				leftCounts[c] += cnt
				leftN += cnt
			}
			rightN := n - leftN
			if leftN < b.params.MinSamplesLeaf || rightN < b.params.MinSamplesLeaf {
				continue
			}
			rightCounts := make([]int, b.numClasses)
			for c := range rightCounts {
				rightCounts[c] = counts[c] - leftCounts[c]
			}
			impurity := (float64(leftN)*gini(leftCounts, leftN) + float64(rightN)*gini(rightCounts, rightN)) / float64(n)
			if impurity < best.impurity {
				best = split{
					feature:   f,
					threshold: float64(values[k]+values[k+1]) / 2,
					impurity:  impurity,
				}
				found = true
			}
		}
	}
	return best, found
}

func (b *treeBuilder) classCounts(idx []int) []int {
	counts := make([]int, b.numClasses)
	for _, i := range idx {
		counts[b.y[i]]++
	}
	return counts
}

func gini(counts []int, n int) float64 {
	if n == 0 {
		return 0
	}
	g := 1.0
	for _, c := range counts {
		p := float64(c) / float64(n)
		g -= p * p
	}
	return g
}

func distribution(counts []int, n int) []float64 {
	out := make([]float64, len(counts))
	if n == 0 {
		return out
	}
	for c, cnt := range counts {
		out[c] = float64(cnt) / float64(n)
	}
	return out
}
