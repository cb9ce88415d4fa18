// Package joinrel holds the field-valued relation and range types shared
// between the pipeline builder and the join engines.
package joinrel

import "github.com/grailbio/joinbench/input"

// Pair is one (subject, object) row of a field-form relation.
type Pair struct {
	Subject input.Field
	Object  input.Field
}

// Relation is an ordered field-form relation, one per joined step.
type Relation []Pair

// Range is an inclusive (min, max) bound over the subject Fields of a
// relation. A relation's index-0 range is an unused sentinel (the seed
// relation's subject is not a join key).
type Range struct {
	Lo input.Field
	Hi input.Field
}

// Unset is the sentinel range carried by a relation whose bounds are not
// meaningful (the seed relation).
var Unset = Range{Lo: input.Invalid, Hi: input.Invalid}

// Extend widens r to include f, treating an Unset r as "first value seen".
func (r Range) Extend(f input.Field) Range {
	if r == Unset {
		return Range{Lo: f, Hi: f}
	}
	lo, hi := r.Lo, r.Hi
	if f < lo {
		lo = f
	}
	if f > hi {
		hi = f
	}
	return Range{Lo: lo, Hi: hi}
}
