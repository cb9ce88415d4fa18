package join

import (
	"sort"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/joinbench/input"
	"github.com/grailbio/joinbench/joinrel"
)

// numBuckets is the improved hash join's partition count: a tunable
// compile-time constant, not a correctness requirement (see bucket
// construction in buildImproved below).
const numBuckets = 8

// minPerBucket floors a bucket's share of the key range so that a narrow
// range (or a range with very few distinct values) still gets workable
// partitions instead of degenerating to near-empty buckets.
const minPerBucket = 128

// HashJoin builds, per step, one or eight in-memory hash tables keyed by
// the join column and probes the next relation against them.
type HashJoin struct {
	Improved bool

	rows    []Row
	buckets [numBuckets]map[input.Field][]Row
	ranges  [numBuckets]bucketRange
}

type bucketRange struct {
	lo input.Field
	hi input.Field // exclusive
}

// Rows returns the current join-table.
func (h *HashJoin) Rows() []Row { return h.rows }

// Step advances the join-table by one relation.
func (h *HashJoin) Step(width int, step int, rel joinrel.Relation, rng joinrel.Range) {
	if step == 0 {
		h.rows = seed(rel, width)
		return
	}
	for k := range h.buckets {
		h.buckets[k] = nil
	}

	if h.Improved {
		h.buildImproved(step, rng)
	} else {
		h.buildNaive(step)
	}

	h.rows = h.probe(step, rel)
}

func (h *HashJoin) buildNaive(step int) {
	table := make(map[input.Field][]Row, len(h.rows))
	for _, row := range h.rows {
		key := row[step]
		table[key] = append(table[key], row)
	}
	h.buckets[0] = table
	h.ranges[0] = bucketRange{lo: 0, hi: input.Invalid}
	for k := 1; k < numBuckets; k++ {
		h.ranges[k] = bucketRange{lo: input.Invalid, hi: input.Invalid}
	}
}

// buildImproved partitions the join-table's key range into numBuckets
// contiguous, non-overlapping windows and builds one hash table per
// window in parallel. Bucket 0's window starts at zero rather than at
// rng.Lo, so it also catches any key below the range (the asymmetry is
// inherited unchanged from the algorithm this implements), and the last
// window has no upper bound, so it also catches every key above the
// other windows.
func (h *HashJoin) buildImproved(step int, rng joinrel.Range) {
	lo, hi := rng.Lo, rng.Hi
	length := hi.Offset() - lo.Offset() + 1
	perBucket := length / numBuckets
	if perBucket < minPerBucket {
		perBucket = minPerBucket
	}

	h.ranges[0] = bucketRange{lo: 0, hi: lo.Advance(perBucket)}
	for k := 1; k < numBuckets; k++ {
		prev := h.ranges[k-1]
		h.ranges[k] = bucketRange{lo: prev.hi, hi: prev.hi.Advance(perBucket)}
	}
	h.ranges[numBuckets-1].hi = input.Invalid

	traverse.Each(numBuckets, func(k int) error {
		br := h.ranges[k]
		table := make(map[input.Field][]Row)
		for _, row := range h.rows {
			key := row[step]
			if br.contains(key) {
				table[key] = append(table[key], row)
			}
		}
		h.buckets[k] = table
		return nil
	})
}

func (br bucketRange) contains(f input.Field) bool {
	if br.hi == input.Invalid {
		return f >= br.lo
	}
	return f >= br.lo && f < br.hi
}

// bucketFor finds the owning bucket for subj by binary-searching the
// range table for the last range whose lo is <= subj.
func (h *HashJoin) bucketFor(subj input.Field) int {
	idx := sort.Search(numBuckets, func(k int) bool {
		return h.ranges[k].lo > subj
	})
	return idx - 1
}

func (h *HashJoin) probe(step int, rel joinrel.Relation) []Row {
	out := make([]Row, 0, len(rel))
	if h.Improved {
		partials := make([][]Row, len(rel))
		traverse.Each(len(rel), func(i int) error {
			p := rel[i]
			k := h.bucketFor(p.Subject)
			if k < 0 {
				return nil
			}
			matches := h.buckets[k][p.Subject]
			if len(matches) == 0 {
				return nil
			}
			rows := make([]Row, 0, len(matches))
			for _, row := range matches {
				rows = append(rows, extendRow(row, step, p.Object))
			}
			partials[i] = rows
			return nil
		})
		for _, rows := range partials {
			out = append(out, rows...)
		}
		return out
	}

	table := h.buckets[0]
	for _, p := range rel {
		matches := table[p.Subject]
		for _, row := range matches {
			out = append(out, extendRow(row, step, p.Object))
		}
	}
	return out
}

func extendRow(row Row, step int, obj input.Field) Row {
	clone := make(Row, len(row))
	copy(clone, row)
	clone[step+1] = obj
	return clone
}
