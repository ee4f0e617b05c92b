//
// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//

// Package groupify builds the equivalence classes of a dataset under a
// transformation.
//
// A Table is a chained hash table of Entry values keyed by the generalized
// quasi-identifiers. Entries are also linked in first-seen order, the order
// of their earliest record, so that every traversal and every suppression
// decision is deterministic. Tables are built from raw records (Build), from
// the table of a more specialized transformation (Rollup), or from shards
// built concurrently and merged in shard order.
package groupify

import (
	"math"

	"github.com/google/differential-privacy/anonymization/lattice"
)

const minTableCap = 16

// Entry is an equivalence class.
type Entry struct {
	// Key holds the generalized quasi-identifiers. It must not be modified.
	Key   []int
	Count int
	// IsNotOutlier is cleared when the class is suppressed.
	IsNotOutlier bool
	// Distributions is indexed by sensitive attribute and holds the
	// frequency table of every attribute listed in Options.Sensitive. The
	// other slots are nil.
	Distributions []*Distribution
	// Representative is the earliest record of the class.
	Representative int
	// Rows lists the records of the class in increasing order. It is only
	// set when the table was built with Options.TrackRows.
	Rows []int

	hash        uint64
	next        *Entry
	nextOrdered *Entry
}

// Next returns the following entry in first-seen order, or nil.
func (e *Entry) Next() *Entry { return e.nextOrdered }

// Table is the set of equivalence classes of one transformation.
type Table struct {
	transformation lattice.Transformation
	buckets        []*Entry
	first, last    *Entry
	size           int
	records        int
}

func newTable(t lattice.Transformation, capacity int) *Table {
	c := minTableCap
	for c < capacity && c < math.MaxInt32/2 {
		c <<= 1
	}
	return &Table{transformation: t, buckets: make([]*Entry, c)}
}

// Transformation returns the transformation the table was built for.
func (t *Table) Transformation() lattice.Transformation { return t.transformation }

// First returns the earliest entry, or nil for an empty table.
func (t *Table) First() *Entry { return t.first }

// Len returns the number of equivalence classes.
func (t *Table) Len() int { return t.size }

// NumRecords returns the number of records in the table.
func (t *Table) NumRecords() int { return t.records }

// Entries returns the entries in first-seen order.
func (t *Table) Entries() []*Entry {
	out := make([]*Entry, 0, t.size)
	for e := t.first; e != nil; e = e.nextOrdered {
		out = append(out, e)
	}
	return out
}

// Get returns the entry with the given key, or nil.
func (t *Table) Get(key []int) *Entry {
	h := hashKey(key)
	for e := t.buckets[h&uint64(len(t.buckets)-1)]; e != nil; e = e.next {
		if e.hash == h && equalKeys(e.Key, key) {
			return e
		}
	}
	return nil
}

// SuppressedRecords returns the number of records in outlier classes.
func (t *Table) SuppressedRecords() int {
	n := 0
	for e := t.first; e != nil; e = e.nextOrdered {
		if !e.IsNotOutlier {
			n += e.Count
		}
	}
	return n
}

// NumOutlierClasses returns the number of suppressed classes.
func (t *Table) NumOutlierClasses() int {
	n := 0
	for e := t.first; e != nil; e = e.nextOrdered {
		if !e.IsNotOutlier {
			n++
		}
	}
	return n
}

// ResetOutliers marks every class as not suppressed.
func (t *Table) ResetOutliers() {
	for e := t.first; e != nil; e = e.nextOrdered {
		e.IsNotOutlier = true
	}
}

// Suppress runs the suppression pass: every class for which keep returns
// false is marked as an outlier, in first-seen order. It returns the number
// of suppressed records and whether that number is at most
// ⌊limit · NumRecords()⌋. Once the budget is exceeded the pass stops early
// and the table must be treated as not anonymous.
func (t *Table) Suppress(limit float64, keep func(*Entry) bool) (suppressed int, ok bool) {
	budget := int(math.Floor(limit * float64(t.records)))
	for e := t.first; e != nil; e = e.nextOrdered {
		if keep(e) {
			e.IsNotOutlier = true
			continue
		}
		e.IsNotOutlier = false
		suppressed += e.Count
		if suppressed > budget {
			return suppressed, false
		}
	}
	return suppressed, true
}

// insert returns the entry for key, creating it at the end of the
// first-seen order if needed. created reports whether a new entry was made;
// its Key is then key itself.
func (t *Table) insert(key []int, h uint64) (e *Entry, created bool) {
	b := h & uint64(len(t.buckets)-1)
	for e := t.buckets[b]; e != nil; e = e.next {
		if e.hash == h && equalKeys(e.Key, key) {
			return e, false
		}
	}
	if 4*(t.size+1) > 3*len(t.buckets) {
		t.grow()
		b = h & uint64(len(t.buckets)-1)
	}
	e = &Entry{Key: key, IsNotOutlier: true, hash: h, next: t.buckets[b]}
	t.buckets[b] = e
	if t.last == nil {
		t.first = e
	} else {
		t.last.nextOrdered = e
	}
	t.last = e
	t.size++
	return e, true
}

func (t *Table) grow() {
	buckets := make([]*Entry, 2*len(t.buckets))
	mask := uint64(len(buckets) - 1)
	for e := t.first; e != nil; e = e.nextOrdered {
		b := e.hash & mask
		e.next = buckets[b]
		buckets[b] = e
	}
	t.buckets = buckets
}

// hashKey is FNV-1a over the key's values.
func hashKey(key []int) uint64 {
	h := uint64(14695981039346656037)
	for _, v := range key {
		x := uint64(v)
		for i := 0; i < 8; i++ {
			h ^= x & 0xff
			h *= 1099511628211
			x >>= 8
		}
	}
	return h
}

func equalKeys(a, b []int) bool {
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
