package join

import (
	"sort"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/joinbench/joinrel"
)

// chunkSize is the sort-merge engine's fixed merge-phase chunk width.
const chunkSize = 1024

// SortMerge sorts the join-table and the incoming relation, then merges
// them in fixed-size, independently-owned chunks.
type SortMerge struct {
	Improved bool

	rows []Row
}

// Rows returns the current join-table.
func (sm *SortMerge) Rows() []Row { return sm.rows }

// Step advances the join-table by one relation.
func (sm *SortMerge) Step(width int, step int, rel joinrel.Relation, _ joinrel.Range) {
	if step == 0 {
		sm.rows = seed(rel, width)
		return
	}

	right := append(joinrel.Relation(nil), rel...)

	if sm.Improved {
		parallelSortRows(sm.rows, func(a, b Row) bool { return a[step] < b[step] })
		parallelSortPairs(right)
	} else {
		sortRowsAndRelation(sm.rows, right, step)
	}

	sm.rows = merge(sm.rows, right, step)
}

// sortRowsAndRelation is the naive build: the two sorts run as a two-way
// fork-join so neither waits on the other's result before starting.
func sortRowsAndRelation(rows []Row, right joinrel.Relation, step int) {
	traverse.Each(2, func(i int) error {
		if i == 0 {
			sort.Slice(rows, func(a, b int) bool { return rows[a][step] < rows[b][step] })
		} else {
			sortPairsByTuple(right)
		}
		return nil
	})
}

func sortPairsByTuple(right joinrel.Relation) {
	sort.Slice(right, func(a, b int) bool {
		if right[a].Subject != right[b].Subject {
			return right[a].Subject < right[b].Subject
		}
		return right[a].Object < right[b].Object
	})
}

// merge performs the chunked parallel merge: each chunk of the join-table
// finds its starting point in right via partition-point, walks forward
// matching contiguous runs of equal subjects, mutates matches in place,
// and reports its own deletion indices plus any duplicate rows produced
// by a subject with more than one matching right-hand entry.
func merge(rows []Row, right joinrel.Relation, step int) []Row {
	numChunks := (len(rows) + chunkSize - 1) / chunkSize
	if numChunks == 0 {
		return rows
	}
	deletions := make([][]int, numChunks)
	duplicates := make([][]Row, numChunks)

	traverse.Each(numChunks, func(c int) error {
		lo := c * chunkSize
		hi := lo + chunkSize
		if hi > len(rows) {
			hi = len(rows)
		}
		dels, dups := mergeChunk(rows, lo, hi, right, step)
		deletions[c] = dels
		duplicates[c] = dups
		return nil
	})

	// Flatten deletions in globally-ascending order, then apply them as a
	// single descending stream of swap-removes so earlier indices are
	// unaffected by later removals.
	var flatDeletions []int
	for _, d := range deletions {
		flatDeletions = append(flatDeletions, d...)
	}
	for i := len(flatDeletions) - 1; i >= 0; i-- {
		idx := flatDeletions[i]
		last := len(rows) - 1
		rows[idx] = rows[last]
		rows = rows[:last]
	}

	for _, dups := range duplicates {
		rows = append(rows, dups...)
	}
	return rows
}

// mergeChunk processes rows[lo:hi] against right, returning the absolute
// indices (within rows) to delete and any duplicate rows to append.
func mergeChunk(rows []Row, lo, hi int, right joinrel.Relation, step int) (dels []int, dups []Row) {
	if lo >= hi {
		return nil, nil
	}
	firstKey := rows[lo][step]
	j := sort.Search(len(right), func(k int) bool { return right[k].Subject >= firstKey })
	if j >= len(right) {
		for idx := lo; idx < hi; idx++ {
			dels = append(dels, idx)
		}
		return dels, nil
	}

	for idx := lo; idx < hi; idx++ {
		key := rows[idx][step]
		for j < len(right) && right[j].Subject < key {
			j++
		}
		if j >= len(right) {
			for ; idx < hi; idx++ {
				dels = append(dels, idx)
			}
			break
		}
		if right[j].Subject != key {
			dels = append(dels, idx)
			continue
		}
		rows[idx][step+1] = right[j].Object
		for k := j + 1; k < len(right) && right[k].Subject == key; k++ {
			clone := make(Row, len(rows[idx]))
			copy(clone, rows[idx])
			clone[step+1] = right[k].Object
			dups = append(dups, clone)
		}
	}
	return dels, dups
}

// parallelSortRows sorts rows by less using a data-parallel unstable sort:
// split into worker-sized chunks, sort each concurrently, then merge the
// sorted chunks back together.
func parallelSortRows(rows []Row, less func(a, b Row) bool) {
	const workers = 4
	if len(rows) < workers*2 {
		sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
		return
	}
	chunkLen := (len(rows) + workers - 1) / workers
	chunks := make([][]Row, workers)
	traverse.Each(workers, func(k int) error {
		lo := k * chunkLen
		hi := lo + chunkLen
		if lo >= len(rows) {
			chunks[k] = nil
			return nil
		}
		if hi > len(rows) {
			hi = len(rows)
		}
		c := append([]Row(nil), rows[lo:hi]...)
		sort.Slice(c, func(i, j int) bool { return less(c[i], c[j]) })
		chunks[k] = c
		return nil
	})
	merged := mergeSortedChunks(chunks, less)
	copy(rows, merged)
}

func parallelSortPairs(right joinrel.Relation) {
	less := func(a, b joinrel.Pair) bool {
		if a.Subject != b.Subject {
			return a.Subject < b.Subject
		}
		return a.Object < b.Object
	}
	const workers = 4
	if len(right) < workers*2 {
		sortPairsByTuple(right)
		return
	}
	chunkLen := (len(right) + workers - 1) / workers
	chunks := make([]joinrel.Relation, workers)
	traverse.Each(workers, func(k int) error {
		lo := k * chunkLen
		hi := lo + chunkLen
		if lo >= len(right) {
			chunks[k] = nil
			return nil
		}
		if hi > len(right) {
			hi = len(right)
		}
		c := append(joinrel.Relation(nil), right[lo:hi]...)
		sort.Slice(c, func(i, j int) bool { return less(c[i], c[j]) })
		chunks[k] = c
		return nil
	})
	merged := mergeSortedPairChunks(chunks, less)
	copy(right, merged)
}

func mergeSortedChunks(chunks [][]Row, less func(a, b Row) bool) []Row {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make([]Row, 0, total)
	heads := make([]int, len(chunks))
	for {
		best := -1
		for k, c := range chunks {
			if heads[k] >= len(c) {
				continue
			}
			if best == -1 || less(c[heads[k]], chunks[best][heads[best]]) {
				best = k
			}
		}
		if best == -1 {
			return out
		}
		out = append(out, chunks[best][heads[best]])
		heads[best]++
	}
}

func mergeSortedPairChunks(chunks []joinrel.Relation, less func(a, b joinrel.Pair) bool) joinrel.Relation {
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	out := make(joinrel.Relation, 0, total)
	heads := make([]int, len(chunks))
	for {
		best := -1
		for k, c := range chunks {
			if heads[k] >= len(c) {
				continue
			}
			if best == -1 || less(c[heads[k]], chunks[best][heads[best]]) {
				best = k
			}
		}
		if best == -1 {
			return out
		}
		out = append(out, chunks[best][heads[best]])
		heads[best]++
	}
}
