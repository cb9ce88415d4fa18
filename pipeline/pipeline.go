// Package pipeline builds the field-form join pipeline from a catalogue: it
// resolves relation names, converts each relation's Str-keyed rows into
// Field-keyed rows, and chains adjacent relations together so that
// relation k+1's subject dictionary is keyed by relation k's objects.
//
// The conversion runs in two independent fan-out phases (grounded on
// grailbio-bio/pileup/snp/pileup.go's use of traverse.Each for a similar
// one-task-per-shard fan-out): phase one builds each non-final relation's
// own object→Field dictionary, entirely from that relation's own rows;
// phase two resolves every relation's subjects against the dictionary
// built from the relation before it. Neither phase has a stage that
// depends on another stage's phase-two output, so both fan out fully in
// parallel rather than forming a producer/consumer pipeline.
package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
	"github.com/grailbio/joinbench/catalogue"
	"github.com/grailbio/joinbench/input"
	"github.com/grailbio/joinbench/internal/strmap"
	"github.com/grailbio/joinbench/joinrel"
)

// Pipeline is the resolved, field-form join plan: Relations[i] joins
// against Relations[i-1] on Relations[i]'s subject and Relations[i-1]'s
// object, for i >= 1. Ranges[i] bounds Relations[i]'s subject Fields and
// is used to size the hash-join's buckets; Ranges[0] is joinrel.Unset.
type Pipeline struct {
	Names     []string
	Relations []joinrel.Relation
	Ranges    []joinrel.Range
}

// halfEntry is a relation row partway through resolution: the subject is
// still a Str (not yet known to survive the chain) and the object has
// already been folded into the relation's own dictionary.
type halfEntry struct {
	Subject input.Str
	Object  input.Field
}

// Build resolves names against buf's catalogue and produces the field-form
// pipeline. It fails fast on an unresolvable relation list (aggregating
// every unknown name into one error) or a relation count under two; once
// names resolve, every other failure in this package is an invariant
// violation and panics rather than being reported through error, matching
// the rest of this module's Buffer/Field invariants.
func Build(buf *input.Buffer, universe catalogue.Universe, names []string) (*Pipeline, error) {
	rels, err := resolveNames(universe, names)
	if err != nil {
		return nil, err
	}
	n := len(rels)
	if n < 2 {
		return nil, errors.E(errors.Invalid, "no join to be performed")
	}

	tables := make([]halfEntries, n-1)
	dicts := make([]*strmap.Map, n-1)
	if err := traverse.Each(n-1, func(k int) error {
		table, dict := buildDict(buf, rels[k])
		tables[k] = table
		dicts[k] = dict
		return nil
	}); err != nil {
		return nil, err
	}

	mappedRels := make([]joinrel.Relation, n)
	ranges := make([]joinrel.Range, n)
	if err := traverse.Each(n, func(k int) error {
		switch {
		case k == 0:
			mappedRels[k], ranges[k] = seedRelation(buf, tables[0])
		case k == n-1:
			mappedRels[k], ranges[k] = resolveLast(buf, dicts[k-1], rels[k])
		default:
			mappedRels[k], ranges[k] = resolveMiddle(dicts[k-1], tables[k])
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return &Pipeline{Names: names, Relations: mappedRels, Ranges: ranges}, nil
}

type halfEntries []halfEntry

// resolveNames looks every name up in universe, aggregating every miss
// into a single "unknown relations" error instead of failing on the first.
func resolveNames(universe catalogue.Universe, names []string) ([]catalogue.Relation, error) {
	rels := make([]catalogue.Relation, 0, len(names))
	var missing []string
	for _, name := range names {
		rel, ok := universe.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		rels = append(rels, rel)
	}
	if len(missing) > 0 {
		return nil, errors.E(errors.NotExist, fmt.Sprintf("unknown relations: %s", joinWithAnd(missing)))
	}
	return rels, nil
}

func joinWithAnd(names []string) string {
	sorted := append([]string(nil), names...)
	sort.Strings(sorted)
	switch len(sorted) {
	case 1:
		return sorted[0]
	default:
		return strings.Join(sorted[:len(sorted)-1], ", ") + ", and " + sorted[len(sorted)-1]
	}
}

// buildDict builds rel's own object→Field dictionary: for each distinct
// object Str, the Field of its first occurrence as an object in rel. It
// returns both the dictionary and rel's rows rewritten as (subject Str,
// object Field) pairs, where the object Field is that dictionary's
// representative Field for the row's object value.
func buildDict(buf *input.Buffer, rel catalogue.Relation) (halfEntries, *strmap.Map) {
	dict := strmap.New(len(rel))
	table := make(halfEntries, 0, len(rel))
	for _, e := range rel {
		obj := e.Object
		val, _ := dict.GetOrInsert(e.Object.Bytes(), func() uint64 {
			return uint64(buf.ExtractField(obj))
		})
		table = append(table, halfEntry{Subject: e.Subject, Object: input.Field(val)})
	}
	return table, dict
}

func seedRelation(buf *input.Buffer, table halfEntries) (joinrel.Relation, joinrel.Range) {
	rel := make(joinrel.Relation, 0, len(table))
	for _, e := range table {
		subj := buf.ExtractField(e.Subject)
		rel = append(rel, joinrel.Pair{Subject: subj, Object: e.Object})
	}
	return rel, joinrel.Unset
}

func resolveMiddle(dict *strmap.Map, table halfEntries) (joinrel.Relation, joinrel.Range) {
	rel := make(joinrel.Relation, 0, len(table))
	rng := joinrel.Unset
	for _, e := range table {
		val, ok := dict.Get(e.Subject.Bytes())
		if !ok {
			continue
		}
		subj := input.Field(val)
		rel = append(rel, joinrel.Pair{Subject: subj, Object: e.Object})
		rng = rng.Extend(subj)
	}
	return rel, rng
}

func resolveLast(buf *input.Buffer, dict *strmap.Map, rel catalogue.Relation) (joinrel.Relation, joinrel.Range) {
	out := make(joinrel.Relation, 0, len(rel))
	rng := joinrel.Unset
	for _, e := range rel {
		val, ok := dict.Get(e.Subject.Bytes())
		if !ok {
			continue
		}
		subj := input.Field(val)
		obj := buf.ExtractField(e.Object)
		out = append(out, joinrel.Pair{Subject: subj, Object: obj})
		rng = rng.Extend(subj)
	}
	return out, rng
}
