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

package lattice

import (
	"sort"
	"strings"
)

// Anonymity is the tri-state verdict of a node.
type Anonymity int8

const (
	Unknown Anonymity = iota
	Anonymous
	NotAnonymous
)

func (a Anonymity) String() string {
	switch a {
	case Anonymous:
		return "anonymous"
	case NotAnonymous:
		return "not anonymous"
	default:
		return "unknown"
	}
}

// State holds the search flags of a node.
type State uint16

const (
	// Enqueued nodes have been put on the search frontier.
	Enqueued State = 1 << iota
	// Evaluating is set while the node is being checked.
	Evaluating
	// Checked nodes had their verdict computed from equivalence classes.
	Checked
	// Inferred nodes had their verdict implied by a checked node through
	// monotonicity.
	Inferred
	// BoundPruned nodes were skipped because their lower bound exceeded the
	// best information loss found.
	BoundPruned
	// Scored nodes have an information loss.
	Scored
	// Selected nodes were picked by the exponential mechanism.
	Selected
	// Optimum marks the returned transformation.
	Optimum
)

var stateNames = []string{"enqueued", "evaluating", "checked", "inferred", "bound-pruned", "scored", "selected", "optimum"}

// Has reports whether every flag of f is set.
func (s State) Has(f State) bool { return s&f == f }

func (s State) String() string {
	var names []string
	for i, name := range stateNames {
		if s&(1<<i) != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "unvisited"
	}
	return strings.Join(names, "|")
}

// Node is the search state of one transformation.
type Node struct {
	ID             int64
	Transformation Transformation
	State          State
	Anonymity      Anonymity
}

// Resolve sets the verdict of an unresolved node. It returns false, leaving
// the node unchanged, if the verdict is already known. inferred marks
// verdicts implied by another node.
func (n *Node) Resolve(a Anonymity, inferred bool) bool {
	if n.Anonymity != Unknown || a == Unknown {
		return false
	}
	n.Anonymity = a
	n.State &^= Evaluating
	if inferred {
		n.State |= Inferred
	} else {
		n.State |= Checked
	}
	return true
}

// Space is an arena of nodes keyed by transformation ID. Nodes are created
// on first access. A Space belongs to a single search.
type Space struct {
	lattice *Lattice
	nodes   map[int64]*Node
}

// NewSpace returns an empty arena over l.
func NewSpace(l *Lattice) *Space {
	return &Space{lattice: l, nodes: make(map[int64]*Node)}
}

// Lattice returns the lattice the arena is built on.
func (s *Space) Lattice() *Lattice { return s.lattice }

// Node returns the node of t, creating it if needed.
func (s *Space) Node(t Transformation) *Node {
	id := s.lattice.ID(t)
	if n, ok := s.nodes[id]; ok {
		return n
	}
	n := &Node{ID: id, Transformation: t}
	s.nodes[id] = n
	return n
}

// Lookup returns the node with the given ID if it has been created.
func (s *Space) Lookup(id int64) (*Node, bool) {
	n, ok := s.nodes[id]
	return n, ok
}

// Len returns the number of nodes created.
func (s *Space) Len() int { return len(s.nodes) }

// Nodes returns every created node ordered by level, then lexicographically.
func (s *Space) Nodes() []*Node {
	out := make([]*Node, 0, len(s.nodes))
	for _, n := range s.nodes {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool {
		li, lj := out[i].Transformation.Level(), out[j].Transformation.Level()
		if li != lj {
			return li < lj
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PropagateNotAnonymous marks every strict specialization of t as not
// anonymous by inference. It returns the number of nodes newly resolved.
func (s *Space) PropagateNotAnonymous(t Transformation) int {
	return s.propagate(t, NotAnonymous, s.lattice.Predecessors)
}

func (s *Space) propagate(t Transformation, a Anonymity, next func(Transformation) []Transformation) int {
	count := 0
	stack := next(t)
	for len(stack) > 0 {
		u := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if !s.Node(u).Resolve(a, true) {
			continue
		}
		count++
		stack = append(stack, next(u)...)
	}
	return count
}
