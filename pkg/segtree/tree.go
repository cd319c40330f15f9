package segtree

import "math/bits"

// GlobalIndex stably identifies a GlobalInterval stored in the tree's
// canonical pool, independent of however many clipped places it occupies in
// the tree itself.
type GlobalIndex uint64

// GlobalInterval is the canonical, unclipped interval and its payload, as
// returned by search and removal.
type GlobalInterval[V any] struct {
	Interval  Interval
	Data      V
	GlobalIdx GlobalIndex
}

const null int32 = -1

type node struct {
	parent   int32
	children [2]int32
	bucket   int32
}

func (n node) isLeaf() bool { return n.children[0] == null && n.children[1] == null }

type treeInterval struct {
	clipped   Interval
	globalIdx GlobalIndex
}

type globalSlot[V any] struct {
	present  bool
	interval Interval
	data     V
}

// Tree is a sparse, pooled segment tree over a circular timeline of the
// given power-of-two width. The root always exists and owns bucket 0; it is
// never freed.
type Tree[V any] struct {
	maxDepth uint32
	width    int64
	exponent uint32

	nodes     []node
	freeNodes []int32
	root      int32

	buckets     [][]treeInterval
	freeBuckets []int32

	globalPool []globalSlot[V]
	freeGlobal []GlobalIndex
}

// New constructs a tree with the given maximum descent depth and a circular
// width that must be a power of two; any other width is a programmer error
// and panics, matching the core's fatal-error policy for malformed
// structural input.
func New[V any](maxDepth uint32, width int64) *Tree[V] {
	if width <= 0 || width&(width-1) != 0 {
		panic("segtree: width must be a power of two")
	}

	t := &Tree[V]{
		maxDepth: maxDepth,
		width:    width,
		exponent: uint32(bits.TrailingZeros64(uint64(width))),
	}

	rootBucket := t.allocateBucket()
	t.root = t.allocateNode(null, rootBucket)
	return t
}

func (t *Tree[V]) allocateNode(parent, bucket int32) int32 {
	if n := len(t.freeNodes); n > 0 {
		idx := t.freeNodes[n-1]
		t.freeNodes = t.freeNodes[:n-1]
		t.nodes[idx] = node{parent: parent, children: [2]int32{null, null}, bucket: bucket}
		return idx
	}
	t.nodes = append(t.nodes, node{parent: parent, children: [2]int32{null, null}, bucket: bucket})
	return int32(len(t.nodes) - 1)
}

func (t *Tree[V]) freeNode(idx int32) {
	t.nodes[idx] = node{parent: null, children: [2]int32{null, null}, bucket: null}
	t.freeNodes = append(t.freeNodes, idx)
}

func (t *Tree[V]) allocateBucket() int32 {
	if n := len(t.freeBuckets); n > 0 {
		idx := t.freeBuckets[n-1]
		t.freeBuckets = t.freeBuckets[:n-1]
		t.buckets[idx] = t.buckets[idx][:0]
		return idx
	}
	t.buckets = append(t.buckets, nil)
	return int32(len(t.buckets) - 1)
}

func (t *Tree[V]) freeBucket(idx int32) {
	t.buckets[idx] = t.buckets[idx][:0]
	t.freeBuckets = append(t.freeBuckets, idx)
}

func (t *Tree[V]) allocateGlobalSlot(slot globalSlot[V]) GlobalIndex {
	if n := len(t.freeGlobal); n > 0 {
		idx := t.freeGlobal[n-1]
		t.freeGlobal = t.freeGlobal[:n-1]
		t.globalPool[idx] = slot
		return idx
	}
	t.globalPool = append(t.globalPool, slot)
	return GlobalIndex(len(t.globalPool) - 1)
}

func (t *Tree[V]) freeGlobalSlot(idx GlobalIndex) (V, bool) {
	slot := t.globalPool[idx]
	if !slot.present {
		var zero V
		return zero, false
	}
	t.globalPool[idx] = globalSlot[V]{}
	t.freeGlobal = append(t.freeGlobal, idx)
	return slot.data, true
}

// clipInterval computes the number of timeline blocks (of size width) an
// interval spans and projects it onto at most two non-wrapping pieces.
func (t *Tree[V]) clipInterval(iv Interval, out *[2]Interval) int {
	remainderMask := (int64(1) << t.exponent) - 1

	loBlock := iv.Lo >> t.exponent
	hiBlock := iv.Hi >> t.exponent
	numBlocks := (hiBlock - loBlock) + 1

	splitA := Interval{Lo: iv.Lo & remainderMask, Hi: t.width}
	splitB := Interval{Lo: 0, Hi: iv.Hi & remainderMask}
	splitC := Interval{Lo: iv.Lo & remainderMask, Hi: iv.Hi & remainderMask}

	switch {
	case numBlocks >= 3:
		out[0] = Interval{Lo: 0, Hi: t.width}
		return 1
	case numBlocks >= 2 && splitA.Distance() > 0 && splitB.Distance() > 0:
		out[0] = splitA
		out[1] = splitB
		return 2
	case !splitC.Inverted():
		out[0] = splitC
		return 1
	default:
		out[0] = iv
		return 1
	}
}

// Insert clips iv onto the circular domain and descends the tree for each
// resulting piece, splitting nodes until a piece no longer fits cleanly
// into one child half or max depth is reached. Returns the stable index of
// the canonical, unclipped interval.
func (t *Tree[V]) Insert(iv Interval, data V) GlobalIndex {
	alias := t.allocateGlobalSlot(globalSlot[V]{present: true, interval: iv, data: data})

	var clips [2]Interval
	n := t.clipInterval(iv, &clips)
	for i := 0; i < n; i++ {
		t.insertHelper(clips[i], alias, t.root, 0, 0, t.width)
	}
	return alias
}

func (t *Tree[V]) insertHelper(iv Interval, alias GlobalIndex, root int32, depth uint32, lo, hi int64) {
	for depth < t.maxDepth {
		mid := lo + (hi-lo)/2
		overlapLeft := iv.IsOverlapping(Interval{Lo: lo, Hi: mid})
		overlapRight := iv.IsOverlapping(Interval{Lo: mid, Hi: hi})
		if overlapLeft == overlapRight {
			// Overlaps both halves (or neither): can't descend further
			// without splitting the interval itself, so stop here.
			break
		}

		var selected int
		if overlapLeft {
			hi = mid
			selected = 0
		} else {
			lo = mid
			selected = 1
		}

		if t.nodes[root].children[selected] == null {
			bucket := t.allocateBucket()
			child := t.allocateNode(root, bucket)
			t.nodes[root].children[selected] = child
		}
		root = t.nodes[root].children[selected]
		depth++
	}

	bucketIdx := t.nodes[root].bucket
	t.buckets[bucketIdx] = append(t.buckets[bucketIdx], treeInterval{clipped: iv, globalIdx: alias})
}

// visitScalarPath walks from the root toward the child subtree containing
// point, invoking visit at every node along the way (root included), which
// is how a stored interval at any depth can still be found for a given
// point query.
func (t *Tree[V]) visitScalarPath(point int64, visit func(node, bucketIdx int32)) {
	root := t.root
	lo, hi := int64(0), t.width
	depth := uint32(0)

	for root != null {
		visit(root, t.nodes[root].bucket)

		if depth >= t.maxDepth {
			return
		}
		mid := lo + (hi-lo)/2
		var next int
		if point <= mid {
			next = 0
			hi = mid
		} else {
			next = 1
			lo = mid
		}
		child := t.nodes[root].children[next]
		if child == null {
			return
		}
		root = child
		depth++
	}
}

// SearchScalar returns every stored interval whose clipped projection
// contains t (mod width) and whose original, unclipped interval contains
// the un-wrapped t. The second check rejects false positives introduced by
// the wrap-around clipping.
func (t *Tree[V]) SearchScalar(tm int64) []GlobalInterval[V] {
	circularT := tm & (t.width - 1)
	var results []GlobalInterval[V]

	t.visitScalarPath(circularT, func(_ int32, bucketIdx int32) {
		for _, ti := range t.buckets[bucketIdx] {
			if !ti.clipped.IsWithin(circularT) {
				continue
			}
			slot := t.globalPool[ti.globalIdx]
			if !slot.present || !slot.interval.IsWithin(tm) {
				continue
			}
			results = append(results, GlobalInterval[V]{Interval: slot.interval, Data: slot.data, GlobalIdx: ti.globalIdx})
		}
	})
	return results
}

type intervalSearchFrame struct {
	node   int32
	lo, hi int64
	depth  uint32
}

// SearchInterval returns every stored interval whose clipped projection
// overlaps q. q is itself clipped as at insertion time, and each resulting
// piece is searched independently by DFS; a stored interval straddling two
// clipped pieces of q may be emitted twice. Callers needing strict
// uniqueness should deduplicate by GlobalIdx.
func (t *Tree[V]) SearchInterval(q Interval) []GlobalInterval[V] {
	var clips [2]Interval
	n := t.clipInterval(q, &clips)

	var results []GlobalInterval[V]
	for i := 0; i < n; i++ {
		t.searchIntervalPiece(clips[i], &results)
	}
	return results
}

func (t *Tree[V]) searchIntervalPiece(piece Interval, results *[]GlobalInterval[V]) {
	stack := []intervalSearchFrame{{node: t.root, lo: 0, hi: t.width, depth: 0}}

	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		bucketIdx := t.nodes[f.node].bucket
		for _, ti := range t.buckets[bucketIdx] {
			if !ti.clipped.IsOverlapping(piece) {
				continue
			}
			slot := t.globalPool[ti.globalIdx]
			if !slot.present {
				continue
			}
			*results = append(*results, GlobalInterval[V]{Interval: slot.interval, Data: slot.data, GlobalIdx: ti.globalIdx})
		}

		if f.depth >= t.maxDepth {
			continue
		}
		mid := f.lo + (f.hi-f.lo)/2
		left := Interval{Lo: f.lo, Hi: mid}
		right := Interval{Lo: mid, Hi: f.hi}

		if piece.IsOverlapping(left) {
			if c := t.nodes[f.node].children[0]; c != null {
				stack = append(stack, intervalSearchFrame{node: c, lo: f.lo, hi: mid, depth: f.depth + 1})
			}
		}
		if piece.IsOverlapping(right) {
			if c := t.nodes[f.node].children[1]; c != null {
				stack = append(stack, intervalSearchFrame{node: c, lo: mid, hi: f.hi, depth: f.depth + 1})
			}
		}
	}
}

type matchedEntry struct {
	node int32
	ti   treeInterval
}

func (t *Tree[V]) removeMatching(mid int64, match func(treeInterval) bool) []treeInterval {
	var matches []matchedEntry
	t.visitScalarPath(mid, func(nodeIdx, bucketIdx int32) {
		for _, ti := range t.buckets[bucketIdx] {
			if ti.clipped.IsWithin(mid) && match(ti) {
				matches = append(matches, matchedEntry{node: nodeIdx, ti: ti})
			}
		}
	})

	out := make([]treeInterval, 0, len(matches))
	for _, m := range matches {
		t.removeHelper(m.node, m.ti)
		out = append(out, m.ti)
	}
	return out
}

// removeHelper splices one tree-interval out of its bucket, then walks
// upward freeing nodes and buckets as long as the parent still exists, the
// bucket just vacated is empty, and the node is a leaf; it stops at the
// root, which is never freed.
func (t *Tree[V]) removeHelper(root int32, target treeInterval) {
	globalRoot := t.root
	bucketIdx := t.nodes[root].bucket

	pos := -1
	for i, e := range t.buckets[bucketIdx] {
		if e.clipped.Equal(target.clipped) && e.globalIdx == target.globalIdx {
			pos = i
			break
		}
	}
	if pos == -1 {
		return
	}
	t.buckets[bucketIdx] = append(t.buckets[bucketIdx][:pos], t.buckets[bucketIdx][pos+1:]...)

	for root != null && root != globalRoot && len(t.buckets[bucketIdx]) == 0 && t.nodes[root].isLeaf() {
		parent := t.nodes[root].parent
		bucketIdx = t.nodes[root].bucket

		if parent != null {
			if t.nodes[parent].children[0] == root {
				t.nodes[parent].children[0] = null
			} else {
				t.nodes[parent].children[1] = null
			}
		}
		t.freeNode(root)
		t.freeBucket(bucketIdx)
		root = parent
		if root != null {
			bucketIdx = t.nodes[root].bucket
		}
	}
}

// RemoveByIndex deletes every tree placement of the global interval
// identified by idx and frees its slot.
func (t *Tree[V]) RemoveByIndex(idx GlobalIndex) (GlobalInterval[V], bool) {
	slot := t.globalPool[idx]
	if !slot.present {
		return GlobalInterval[V]{}, false
	}
	original := slot.interval

	var clips [2]Interval
	n := t.clipInterval(original, &clips)
	for i := 0; i < n; i++ {
		piece := clips[i]
		t.removeMatching(piece.Midpoint(), func(ti treeInterval) bool {
			return ti.globalIdx == idx
		})
	}

	data, _ := t.freeGlobalSlot(idx)
	return GlobalInterval[V]{Interval: original, Data: data, GlobalIdx: idx}, true
}

// RemoveByInterval deletes every tree placement whose clipped projection
// equals target, across however many distinct global intervals produced
// that exact clipped form, and frees each such global slot exactly once.
func (t *Tree[V]) RemoveByInterval(target Interval) []GlobalInterval[V] {
	var clips [2]Interval
	n := t.clipInterval(target, &clips)

	seen := make(map[GlobalIndex]bool)
	var removed []GlobalInterval[V]
	for i := 0; i < n; i++ {
		piece := clips[i]
		matched := t.removeMatching(piece.Midpoint(), func(ti treeInterval) bool {
			return ti.clipped.Equal(piece)
		})
		for _, ti := range matched {
			if seen[ti.globalIdx] {
				continue
			}
			seen[ti.globalIdx] = true
			slot := t.globalPool[ti.globalIdx]
			data, _ := t.freeGlobalSlot(ti.globalIdx)
			removed = append(removed, GlobalInterval[V]{Interval: slot.interval, Data: data, GlobalIdx: ti.globalIdx})
		}
	}
	return removed
}

// Pool introspection, exposed for the pooling-invariant tests mirroring the
// ones the tree's original algorithm shipped with.

func (t *Tree[V]) NodeCount() int          { return len(t.nodes) }
func (t *Tree[V]) FreeNodeCount() int      { return len(t.freeNodes) }
func (t *Tree[V]) BucketPoolLen() int      { return len(t.buckets) }
func (t *Tree[V]) FreeBucketCount() int    { return len(t.freeBuckets) }
func (t *Tree[V]) GlobalPoolLen() int      { return len(t.globalPool) }
func (t *Tree[V]) FreeGlobalCount() int    { return len(t.freeGlobal) }
