// Package strmap is a small linear-probing hash table keyed by byte-slice
// content, used by the pipeline builder (github.com/grailbio/joinbench/pipeline)
// for its per-relation object→Field dictionaries. A plain Go
// map[string]uint64 would work; this exists because the pack already
// reaches for a dedicated fast hash (github.com/dgryski/go-farm, used by
// grailbio-bio/fusion's kmer index) for exactly this kind of
// high-cardinality key table, and a hand-rolled table lets us avoid the
// string(key) allocation a native map forces on every lookup.
package strmap

import (
	farm "github.com/dgryski/go-farm"
)

const maxLoadFactor = 0.75

// Map is map[string]uint64 keyed by byte-slice content. The zero value is
// not usable; construct with New. Map is not safe for concurrent use.
type Map struct {
	keys [][]byte
	vals []uint64
	n    int
}

// New returns an empty Map sized for roughly capacityHint entries.
func New(capacityHint int) *Map {
	size := 16
	for float64(capacityHint) > float64(size)*maxLoadFactor {
		size *= 2
	}
	return &Map{
		keys: make([][]byte, size),
		vals: make([]uint64, size),
	}
}

// Len returns the number of entries stored.
func (m *Map) Len() int {
	return m.n
}

// Get looks up key, which is not retained.
func (m *Map) Get(key []byte) (uint64, bool) {
	idx, found := m.find(key)
	if !found {
		return 0, false
	}
	return m.vals[idx], true
}

// GetOrInsert returns the value already stored for key, or computes one via
// makeVal, stores it, and returns it. key is copied if it is newly stored.
func (m *Map) GetOrInsert(key []byte, makeVal func() uint64) (val uint64, inserted bool) {
	idx, found := m.find(key)
	if found {
		return m.vals[idx], false
	}
	if float64(m.n+1) > float64(len(m.keys))*maxLoadFactor {
		m.grow()
		idx, _ = m.find(key)
	}
	val = makeVal()
	owned := make([]byte, len(key))
	copy(owned, key)
	m.keys[idx] = owned
	m.vals[idx] = val
	m.n++
	return val, true
}

// find returns the slot key belongs in: either the slot holding an equal
// key (found=true) or the first empty slot on its probe sequence.
func (m *Map) find(key []byte) (idx int, found bool) {
	mask := uint64(len(m.keys) - 1)
	idx = int(farm.Hash64(key) & mask)
	for {
		if m.keys[idx] == nil {
			return idx, false
		}
		if bytesEqual(m.keys[idx], key) {
			return idx, true
		}
		idx = (idx + 1) & int(mask)
	}
}

func (m *Map) grow() {
	oldKeys, oldVals := m.keys, m.vals
	m.keys = make([][]byte, len(oldKeys)*2)
	m.vals = make([]uint64, len(oldVals)*2)
	for i, k := range oldKeys {
		if k == nil {
			continue
		}
		idx, _ := m.find(k)
		m.keys[idx] = k
		m.vals[idx] = oldVals[i]
	}
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
