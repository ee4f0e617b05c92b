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

// Package lattice provides the generalization lattice: the set of
// transformations (one generalization level per quasi-identifier) ordered
// component-wise.
//
// Every transformation has a canonical integer ID, its mixed-radix encoding
// with radix height+1 per attribute and the first attribute most
// significant. Search state is kept in a Space indexed by these IDs.
package lattice

import (
	"fmt"

	"github.com/google/differential-privacy/anonymization/interval"
)

// Transformation is a vector of generalization levels, one per
// quasi-identifier. Transformations are values: never modify one after it
// has been handed out.
type Transformation []int

func (t Transformation) String() string {
	return fmt.Sprint([]int(t))
}

// Level returns the sum of the generalization levels.
func (t Transformation) Level() int {
	s := 0
	for _, l := range t {
		s += l
	}
	return s
}

// LessOrEqual reports whether t ≤ u component-wise.
func (t Transformation) LessOrEqual(u Transformation) bool {
	for i := range t {
		if t[i] > u[i] {
			return false
		}
	}
	return true
}

// Compare orders transformations lexicographically. It returns -1, 0 or +1.
func (t Transformation) Compare(u Transformation) int {
	for i := range t {
		switch {
		case t[i] < u[i]:
			return -1
		case t[i] > u[i]:
			return 1
		}
	}
	return 0
}

// Equal reports whether t and u hold the same levels.
func (t Transformation) Equal(u Transformation) bool {
	return len(t) == len(u) && t.Compare(u) == 0
}

// Lattice is the set of transformations bounded by a height vector.
type Lattice struct {
	height []int
	radix  []int64
	size   int64
}

// New returns the lattice of all transformations t with 0 ≤ t[i] ≤ height[i].
// It returns an error if the number of transformations does not fit an
// int64.
func New(height []int) (*Lattice, error) {
	if len(height) == 0 {
		return nil, fmt.Errorf("lattice.New: no attributes")
	}
	l := &Lattice{
		height: append([]int(nil), height...),
		radix:  make([]int64, len(height)),
		size:   1,
	}
	for i := len(height) - 1; i >= 0; i-- {
		if height[i] < 0 {
			return nil, fmt.Errorf("lattice.New: height of attribute %d is %d, must be non-negative", i, height[i])
		}
		l.radix[i] = l.size
		size, err := interval.MultExact(l.size, int64(height[i])+1)
		if err != nil {
			return nil, fmt.Errorf("lattice.New: lattice with heights %v has too many nodes: %w", height, err)
		}
		l.size = size
	}
	return l, nil
}

// Height returns the maximal level of every attribute.
func (l *Lattice) Height() []int {
	return append([]int(nil), l.height...)
}

// NumAttributes returns the length of the transformations.
func (l *Lattice) NumAttributes() int { return len(l.height) }

// Size returns the number of transformations.
func (l *Lattice) Size() int64 { return l.size }

// MaxLevel returns the level of the top transformation.
func (l *Lattice) MaxLevel() int { return Transformation(l.height).Level() }

// Bottom returns the transformation that generalizes nothing.
func (l *Lattice) Bottom() Transformation {
	return make(Transformation, len(l.height))
}

// Top returns the transformation that generalizes every attribute to its
// root.
func (l *Lattice) Top() Transformation {
	return Transformation(l.Height())
}

// Contains reports whether t is a transformation of the lattice.
func (l *Lattice) Contains(t Transformation) bool {
	if len(t) != len(l.height) {
		return false
	}
	for i, level := range t {
		if level < 0 || level > l.height[i] {
			return false
		}
	}
	return true
}

// ID returns the canonical identifier of t. t must be in the lattice.
func (l *Lattice) ID(t Transformation) int64 {
	var id int64
	for i, level := range t {
		id += int64(level) * l.radix[i]
	}
	return id
}

// Transformation returns the transformation with the given identifier.
func (l *Lattice) Transformation(id int64) Transformation {
	t := make(Transformation, len(l.height))
	for i := range t {
		t[i] = int(id / l.radix[i])
		id %= l.radix[i]
	}
	return t
}

// Successors returns the direct generalizations of t, one attribute
// incremented by one, in attribute order.
func (l *Lattice) Successors(t Transformation) []Transformation {
	var out []Transformation
	for i, level := range t {
		if level < l.height[i] {
			s := append(Transformation(nil), t...)
			s[i]++
			out = append(out, s)
		}
	}
	return out
}

// Predecessors returns the direct specializations of t, one attribute
// decremented by one, in attribute order.
func (l *Lattice) Predecessors(t Transformation) []Transformation {
	var out []Transformation
	for i, level := range t {
		if level > 0 {
			p := append(Transformation(nil), t...)
			p[i]--
			out = append(out, p)
		}
	}
	return out
}

// ChangedAttribute returns the single attribute in which the direct
// successor succ differs from t, or -1 if succ is not a direct successor.
func ChangedAttribute(t, succ Transformation) int {
	changed := -1
	for i := range t {
		switch d := succ[i] - t[i]; {
		case d == 0:
		case d == 1 && changed < 0:
			changed = i
		default:
			return -1
		}
	}
	return changed
}
