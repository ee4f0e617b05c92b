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

// Package criteria provides privacy models that decide whether equivalence
// classes, and whole transformations, are anonymous.
//
// A Criterion is created with its parameters, then bound to a dataset with
// Bind before use. Bind validates the parameters, resolves attribute names
// and returns a fresh value, so a criterion can be reused across searches
// without sharing state between them.
//
// Every criterion has a floating-point decision (IsAnonymous) and a reliable
// one (IsReliablyAnonymous) evaluated with interval arithmetic. The reliable
// decision returns Indeterminate whenever rounding could change the outcome
// or an arithmetic fault occurs; callers treat Indeterminate as
// NotAnonymous.
package criteria

import (
	"fmt"
	"strings"

	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
)

// Verdict is the outcome of a reliable anonymity decision.
type Verdict int8

const (
	NotAnonymous Verdict = iota
	Anonymous
	// Indeterminate means the decision depends on rounding or hit an
	// arithmetic fault.
	Indeterminate
)

func (v Verdict) String() string {
	switch v {
	case Anonymous:
		return "anonymous"
	case Indeterminate:
		return "indeterminate"
	default:
		return "not anonymous"
	}
}

// Accepted reports whether v is Anonymous. Indeterminate is not accepted.
func (v Verdict) Accepted() bool { return v == Anonymous }

// verdict converts a reliable comparison into a Verdict.
func verdict(ok bool, err error) Verdict {
	switch {
	case err != nil:
		return Indeterminate
	case ok:
		return Anonymous
	default:
		return NotAnonymous
	}
}

// Criterion is a privacy model evaluated per equivalence class.
type Criterion interface {
	// Bind validates the parameters against ds and returns a criterion
	// ready for evaluation.
	Bind(ds *data.Dataset) (Criterion, error)
	// SensitiveAttributes returns the sensitive attributes whose
	// distributions must be tracked. Only valid after Bind.
	SensitiveAttributes() []int
	// MinimalClassSize returns the size below which a class can never be
	// anonymous, or 0.
	MinimalClassSize() int
	IsAnonymous(t lattice.Transformation, e *groupify.Entry) bool
	IsReliablyAnonymous(t lattice.Transformation, e *groupify.Entry) Verdict
	// IsMonotonic reports whether anonymity at t implies anonymity at every
	// generalization of t when no records are suppressed.
	IsMonotonic() bool
	// IsMonotonicWithSuppression reports whether the implication also
	// holds when classes may be suppressed.
	IsMonotonicWithSuppression() bool
	String() string
}

// TableCriterion is a privacy model with an additional decision over the
// whole table, evaluated after the suppression pass.
type TableCriterion interface {
	Criterion
	IsAnonymousTable(t lattice.Transformation, table *groupify.Table) bool
	IsReliablyAnonymousTable(t lattice.Transformation, table *groupify.Table) Verdict
}

// Composite is the conjunction of several criteria.
type Composite struct {
	parts []Criterion
}

// All returns the conjunction of cs. A class is anonymous only if every
// criterion accepts it, and the conjunction is monotonic only if every
// criterion is.
func All(cs ...Criterion) *Composite {
	return &Composite{parts: cs}
}

// Parts returns the combined criteria.
func (c *Composite) Parts() []Criterion { return c.parts }

// Bind binds every part.
func (c *Composite) Bind(ds *data.Dataset) (Criterion, error) {
	return c.BindAll(ds)
}

// BindAll is Bind with a concrete result type.
func (c *Composite) BindAll(ds *data.Dataset) (*Composite, error) {
	if len(c.parts) == 0 {
		return nil, fmt.Errorf("criteria: no privacy criterion selected")
	}
	bound := make([]Criterion, len(c.parts))
	for i, p := range c.parts {
		if p == nil {
			return nil, fmt.Errorf("criteria: criterion %d is nil", i)
		}
		b, err := p.Bind(ds)
		if err != nil {
			return nil, err
		}
		bound[i] = b
	}
	return &Composite{parts: bound}, nil
}

// SensitiveAttributes returns the union of the parts' attributes in first
// occurrence order.
func (c *Composite) SensitiveAttributes() []int {
	var out []int
	seen := make(map[int]bool)
	for _, p := range c.parts {
		for _, a := range p.SensitiveAttributes() {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// MinimalClassSize returns the largest minimal class size of the parts.
func (c *Composite) MinimalClassSize() int {
	m := 0
	for _, p := range c.parts {
		if s := p.MinimalClassSize(); s > m {
			m = s
		}
	}
	return m
}

func (c *Composite) IsAnonymous(t lattice.Transformation, e *groupify.Entry) bool {
	for _, p := range c.parts {
		if !p.IsAnonymous(t, e) {
			return false
		}
	}
	return true
}

// IsReliablyAnonymous returns NotAnonymous if any part rejects the class,
// else Indeterminate if any part is undecided.
func (c *Composite) IsReliablyAnonymous(t lattice.Transformation, e *groupify.Entry) Verdict {
	return c.combine(func(p Criterion) Verdict { return p.IsReliablyAnonymous(t, e) })
}

func (c *Composite) combine(f func(Criterion) Verdict) Verdict {
	v := Anonymous
	for _, p := range c.parts {
		switch f(p) {
		case NotAnonymous:
			return NotAnonymous
		case Indeterminate:
			v = Indeterminate
		}
	}
	return v
}

func (c *Composite) IsMonotonic() bool {
	for _, p := range c.parts {
		if !p.IsMonotonic() {
			return false
		}
	}
	return true
}

func (c *Composite) IsMonotonicWithSuppression() bool {
	for _, p := range c.parts {
		if !p.IsMonotonicWithSuppression() {
			return false
		}
	}
	return true
}

// IsAnonymousTable evaluates the table-level parts.
func (c *Composite) IsAnonymousTable(t lattice.Transformation, table *groupify.Table) bool {
	for _, p := range c.parts {
		if tc, ok := p.(TableCriterion); ok && !tc.IsAnonymousTable(t, table) {
			return false
		}
	}
	return true
}

// IsReliablyAnonymousTable evaluates the table-level parts reliably.
func (c *Composite) IsReliablyAnonymousTable(t lattice.Transformation, table *groupify.Table) Verdict {
	return c.combine(func(p Criterion) Verdict {
		if tc, ok := p.(TableCriterion); ok {
			return tc.IsReliablyAnonymousTable(t, table)
		}
		return Anonymous
	})
}

func (c *Composite) String() string {
	s := make([]string, len(c.parts))
	for i, p := range c.parts {
		s[i] = p.String()
	}
	return strings.Join(s, " and ")
}

// sensitive resolves the named sensitive attribute of ds.
func sensitive(ds *data.Dataset, attribute string) (int, error) {
	i, err := ds.SensitiveIndex(attribute)
	if err != nil {
		return 0, fmt.Errorf("criteria: %w", err)
	}
	return i, nil
}

// distribution returns the tracked distribution of attribute a in e, or nil
// for an empty class or an untracked attribute.
func distribution(e *groupify.Entry, a int) *groupify.Distribution {
	if e.Count <= 0 || a >= len(e.Distributions) {
		return nil
	}
	return e.Distributions[a]
}
