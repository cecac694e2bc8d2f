package pdf

// BinaryTree divides the range [lower, upper] into 2^layers equal-width
// buckets and supports O(layers) lookup of which bucket contains a value.
// The tree is array-backed: keys[d] holds the split keys of the 2^d internal
// nodes at depth d, and the leaf buckets are kept in three parallel slices
// indexed by bucket ordinal. The tree is static once built; there is no
// insertion or rebalancing.
type BinaryTree struct {
	layers int
	keys   [][]float64

	lows  []float64
	highs []float64
	mids  []float64
}

// NewBinaryTree builds a balanced tree over [lower, upper] with 2^layers
// leaf buckets, merged pairwise bottom-up. Each merge stores the midpoint
// of its two children's keys as its own split key; leaf keys are the bucket
// midpoints.
func NewBinaryTree(layers int, lower, upper float64) *BinaryTree {
	if layers < 1 {
		layers = 1
	}
	n := 1 << uint(layers)
	edges := linspace(lower, upper, n+1)

	t := &BinaryTree{
		layers: layers,
		keys:   make([][]float64, layers),
		lows:   make([]float64, n),
		highs:  make([]float64, n),
		mids:   make([]float64, n),
	}
	for i := 0; i < n; i++ {
		t.lows[i] = edges[i]
		t.highs[i] = edges[i+1]
		t.mids[i] = 0.5 * (edges[i] + edges[i+1])
	}

	level := t.mids
	for d := layers - 1; d >= 0; d-- {
		up := make([]float64, len(level)/2)
		for i := range up {
			up[i] = 0.5 * (level[2*i] + level[2*i+1])
		}
		t.keys[d] = up
		level = up
	}
	return t
}

// Lookup descends the tree and returns the ordinal of the bucket containing
// x. Values outside [lower, upper] route to the nearest boundary bucket,
// since the outermost comparisons are unbounded on both sides.
func (t *BinaryTree) Lookup(x float64) int {
	j := 0
	for d := 0; d < t.layers; d++ {
		if x > t.keys[d][j] {
			j = 2*j + 1
		} else {
			j = 2 * j
		}
	}
	return j
}

// Buckets returns the number of leaf buckets.
func (t *BinaryTree) Buckets() int {
	return len(t.mids)
}

// Bucket returns the bounds and midpoint of the i-th bucket.
func (t *BinaryTree) Bucket(i int) (lower, upper, mid float64) {
	return t.lows[i], t.highs[i], t.mids[i]
}
