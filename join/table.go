// Package join implements the two join engines this module compares: a
// hash join and a sort-merge join, each with a naive and an "improved"
// (parallel-partitioned) variant. Both engines consume the field-form
// relations produced by package pipeline one at a time, extending a
// shared join-table by one column per step.
package join

import (
	"github.com/grailbio/joinbench/input"
	"github.com/grailbio/joinbench/joinrel"
)

// Row is one join-table row: a fixed-width vector of Fields, one per
// relation joined so far plus one. Unfilled trailing slots hold
// input.Invalid until their step runs.
type Row []input.Field

// Engine is implemented by HashJoin and SortMerge. Step advances the
// join-table by one relation: step 0 seeds it from rel, and step i (i>0)
// joins rel's subject against column i of every existing row, appending
// column i+1 on a match and dropping non-matching rows (inner-join
// semantics). width is the number of relations in the pipeline, so every
// row holds width+1 Fields. rng bounds rel's subject Fields and is only
// consulted by the improved hash join.
type Engine interface {
	Step(width int, step int, rel joinrel.Relation, rng joinrel.Range)
	Rows() []Row
}

func seed(rel joinrel.Relation, width int) []Row {
	rows := make([]Row, len(rel))
	for i, p := range rel {
		row := make(Row, width+1)
		for k := range row {
			row[k] = input.Invalid
		}
		row[0] = p.Subject
		row[1] = p.Object
		rows[i] = row
	}
	return rows
}
