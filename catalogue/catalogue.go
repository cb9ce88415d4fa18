// Package catalogue builds the in-memory catalogue of triples grouped by
// relation (property) name: the single streaming pass over the mapped
// input that every join run starts from.
package catalogue

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/joinbench/input"
)

// Entry is one (subject, object) pair belonging to a relation.
type Entry struct {
	Subject input.Str
	Object  input.Str
}

// Relation is a relation in string form: the ordered list of entries
// sharing a property, preserving input order including duplicates.
type Relation []Entry

// Universe maps a property name to its relation. Only properties named in
// Wanted are retained; everything else is discarded as it streams past.
type Universe map[string]Relation

// Get looks up a relation by name.
func (u Universe) Get(name string) (Relation, bool) {
	r, ok := u[name]
	return r, ok
}

// Build streams every line of buf through Line.Parse, keeping only the
// triples whose property is in wanted, and groups them by property name,
// preserving input order.
func Build(buf *input.Buffer, wanted map[string]bool) (Universe, error) {
	universe := make(Universe, len(wanted))
	it := buf.IterLines()
	lineNo := 0
	for {
		ln, ok := it.Next()
		if !ok {
			break
		}
		lineNo++
		triple, err := ln.Parse()
		if err != nil {
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("%s: line %d", buf.Path(), lineNo))
		}
		name := triple.Property.Key()
		if !wanted[name] {
			continue
		}
		universe[name] = append(universe[name], Entry{Subject: triple.Subject, Object: triple.Object})
	}
	return universe, nil
}

// Properties lists every distinct property name seen in buf, in order of
// first appearance, without filtering by any wanted set.
func Properties(buf *input.Buffer) ([]string, error) {
	seen := make(map[string]bool)
	var order []string
	it := buf.IterLines()
	lineNo := 0
	for {
		ln, ok := it.Next()
		if !ok {
			break
		}
		lineNo++
		triple, err := ln.Parse()
		if err != nil {
			return nil, errors.E(errors.Invalid, err, fmt.Sprintf("%s: line %d", buf.Path(), lineNo))
		}
		name := triple.Property.String()
		if !seen[name] {
			seen[name] = true
			order = append(order, name)
		}
	}
	return order, nil
}
