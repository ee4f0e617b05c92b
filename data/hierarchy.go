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

package data

import (
	"fmt"
)

// Hierarchy is a generalization hierarchy for one quasi-identifying
// attribute. Row c of the table holds the ancestors of level-0 code c, one
// per level, so that table[c][0] == c and table[c][Height()] is the root.
//
// A Hierarchy is immutable after construction and safe for concurrent use.
type Hierarchy struct {
	name   string
	table  [][]int
	height int
	root   int
	// domain[l] is the number of distinct values at level l.
	domain []int
	// leaves[l][v] is the number of level-0 values generalized to v at level l.
	leaves []map[int]int
}

// NewHierarchy validates table and returns the corresponding Hierarchy.
//
// Every row must have the same number of levels and start with its own index.
// The hierarchy must be monotone (values that are equal at one level stay
// equal at every higher level) and the top level must hold a single root
// value.
func NewHierarchy(name string, table [][]int) (*Hierarchy, error) {
	if len(table) == 0 {
		return nil, fmt.Errorf("data.NewHierarchy: hierarchy %q is empty", name)
	}
	levels := len(table[0])
	if levels == 0 {
		return nil, fmt.Errorf("data.NewHierarchy: hierarchy %q has no levels", name)
	}
	for c, row := range table {
		if len(row) != levels {
			return nil, fmt.Errorf("data.NewHierarchy: hierarchy %q: row %d has %d levels, want %d", name, c, len(row), levels)
		}
		if row[0] != c {
			return nil, fmt.Errorf("data.NewHierarchy: hierarchy %q: row %d starts with %d, want %d", name, c, row[0], c)
		}
	}

	h := &Hierarchy{
		name:   name,
		table:  table,
		height: levels - 1,
		domain: make([]int, levels),
		leaves: make([]map[int]int, levels),
	}
	for l := 0; l < levels; l++ {
		h.leaves[l] = make(map[int]int)
		for _, row := range table {
			h.leaves[l][row[l]]++
		}
		h.domain[l] = len(h.leaves[l])
	}
	// Monotonicity: the step from level l-1 to level l must be a function.
	for l := 1; l < levels; l++ {
		parent := make(map[int]int, h.domain[l-1])
		for _, row := range table {
			if p, ok := parent[row[l-1]]; ok && p != row[l] {
				return nil, fmt.Errorf("data.NewHierarchy: hierarchy %q is not monotone: value %d at level %d maps to both %d and %d at level %d",
					name, row[l-1], l-1, p, row[l], l)
			}
			parent[row[l-1]] = row[l]
		}
	}
	if h.domain[h.height] != 1 {
		return nil, fmt.Errorf("data.NewHierarchy: hierarchy %q has %d values at its top level, want 1", name, h.domain[h.height])
	}
	h.root = table[0][h.height]
	return h, nil
}

// Name returns the name of the attribute this hierarchy generalizes.
func (h *Hierarchy) Name() string { return h.name }

// Height returns the highest generalization level.
func (h *Hierarchy) Height() int { return h.height }

// Root returns the code of the single top-level value.
func (h *Hierarchy) Root() int { return h.root }

// Generalize returns the ancestor of level-0 code at the given level.
func (h *Hierarchy) Generalize(code, level int) int { return h.table[code][level] }

// DomainSize returns the number of distinct values at level.
func (h *Hierarchy) DomainSize(level int) int { return h.domain[level] }

// Leaves returns how many level-0 values are generalized to value at level.
func (h *Hierarchy) Leaves(level, value int) int { return h.leaves[level][value] }
