package segtree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTreePoolingInvariantsAfterRepeatedInsertRemove(t *testing.T) {
	tree := New[int](4, 1024)

	intervals := []Interval{
		NewInterval(0, 64),
		NewInterval(128*7, 128*8-1),
		NewInterval(128*8, 128*10),
		NewInterval(900, 1050),
	}

	indices := make([]GlobalIndex, len(intervals))
	for i, iv := range intervals {
		indices[i] = tree.Insert(iv, i)
	}

	totalNodesBeforeRemove := tree.NodeCount()

	for _, idx := range indices {
		_, ok := tree.RemoveByIndex(idx)
		require.True(t, ok)
	}

	const cycles = 5000
	for c := 0; c < cycles; c++ {
		idxs := make([]GlobalIndex, len(intervals))
		for i, iv := range intervals {
			idxs[i] = tree.Insert(iv, i)
		}
		for _, idx := range idxs {
			_, ok := tree.RemoveByIndex(idx)
			require.True(t, ok)
		}
	}

	require.Equal(t, tree.GlobalPoolLen(), tree.FreeGlobalCount(),
		"global pool must be entirely free once the tree is empty")
	require.Equal(t, len(intervals), tree.GlobalPoolLen())

	require.Equal(t, tree.BucketPoolLen()-1, tree.FreeBucketCount(),
		"every bucket but the root's must be free once the tree is empty")

	require.Equal(t, totalNodesBeforeRemove, tree.BucketPoolLen())
	require.Equal(t, totalNodesBeforeRemove, tree.NodeCount())
}

func TestTreeSearchScalarMatchesLinearScan(t *testing.T) {
	const width = int64(1) << 30
	const numIntervals = 60000

	rng := rand.New(rand.NewSource(0xaaabb))
	tree := New[struct{}](30, width)

	type stored struct {
		iv  Interval
		idx GlobalIndex
	}
	all := make([]stored, 0, numIntervals)

	for i := 0; i < numIntervals; i++ {
		lo := int64(rng.Intn(3_600_000))
		hi := lo + 1 + int64(rng.Intn(60_000))
		iv := NewInterval(lo, hi)
		idx := tree.Insert(iv, struct{}{})
		all = append(all, stored{iv: iv, idx: idx})
	}

	lbound, ubound := all[0].iv.Lo, all[0].iv.Hi
	for _, s := range all {
		if s.iv.Lo < lbound {
			lbound = s.iv.Lo
		}
		if s.iv.Hi > ubound {
			ubound = s.iv.Hi
		}
	}

	step := (ubound - lbound) / 500
	if step < 1 {
		step = 1
	}

	sortByLoHi := func(a, b Interval) bool {
		if a.Lo != b.Lo {
			return a.Lo < b.Lo
		}
		return a.Hi < b.Hi
	}

	for tm := lbound; tm <= ubound; tm += step {
		var linear []Interval
		for _, s := range all {
			if s.iv.IsWithin(tm) {
				linear = append(linear, s.iv)
			}
		}

		var fromTree []Interval
		for _, r := range tree.SearchScalar(tm) {
			fromTree = append(fromTree, r.Interval)
		}

		sort.Slice(linear, func(i, j int) bool { return sortByLoHi(linear[i], linear[j]) })
		sort.Slice(fromTree, func(i, j int) bool { return sortByLoHi(fromTree[i], fromTree[j]) })

		require.Equal(t, linear, fromTree, "mismatch at t=%d", tm)
	}
}

func TestTreeSearchIntervalMatchesLinearScanAfterDedup(t *testing.T) {
	const width = int64(1) << 20
	tree := New[int](20, width)

	intervals := []Interval{
		NewInterval(10, 50),
		NewInterval(40, 90),
		NewInterval(200, 300),
		NewInterval(400, 900),
	}
	for i, iv := range intervals {
		tree.Insert(iv, i)
	}

	query := NewInterval(30, 250)

	var linear []Interval
	for _, iv := range intervals {
		if iv.IsOverlapping(query) {
			linear = append(linear, iv)
		}
	}

	seen := map[GlobalIndex]bool{}
	var deduped []Interval
	for _, r := range tree.SearchInterval(query) {
		if seen[r.GlobalIdx] {
			continue
		}
		seen[r.GlobalIdx] = true
		deduped = append(deduped, r.Interval)
	}

	sort.Slice(linear, func(i, j int) bool { return linear[i].Lo < linear[j].Lo })
	sort.Slice(deduped, func(i, j int) bool { return deduped[i].Lo < deduped[j].Lo })
	require.ElementsMatch(t, linear, deduped)
}

func TestTreeRemoveByIndexRemovesOnlyThatEntry(t *testing.T) {
	tree := New[string](10, 1<<16)

	a := tree.Insert(NewInterval(0, 100), "a")
	b := tree.Insert(NewInterval(50, 150), "b")

	removed, ok := tree.RemoveByIndex(a)
	require.True(t, ok)
	require.Equal(t, "a", removed.Data)

	results := tree.SearchScalar(75)
	require.Len(t, results, 1)
	require.Equal(t, "b", results[0].Data)
	require.Equal(t, b, results[0].GlobalIdx)

	_, ok = tree.RemoveByIndex(a)
	require.False(t, ok, "removing an already-removed index must report failure")
}

func TestTreeRemoveByIntervalRemovesAllMatchingPayloads(t *testing.T) {
	tree := New[int](10, 1<<16)

	iv := NewInterval(10, 20)
	tree.Insert(iv, 1)
	tree.Insert(iv, 2)
	tree.Insert(NewInterval(500, 600), 3)

	removed := tree.RemoveByInterval(iv)
	require.Len(t, removed, 2)

	results := tree.SearchScalar(15)
	require.Empty(t, results)

	results = tree.SearchScalar(550)
	require.Len(t, results, 1)
	require.Equal(t, 3, results[0].Data)
}

func TestTreeNewPanicsOnNonPowerOfTwoWidth(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic for non-power-of-two width")
		}
	}()
	New[int](4, 100)
}
