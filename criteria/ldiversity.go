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

package criteria

import (
	"fmt"
	"math"
	"sort"

	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/interval"
	"github.com/google/differential-privacy/anonymization/lattice"
	"gonum.org/v1/gonum/stat"
)

// DistinctLDiversity requires every class to hold at least L distinct
// values of the sensitive attribute.
type DistinctLDiversity struct {
	Attribute string
	L         float64

	index int
}

// NewDistinctLDiversity returns the distinct-l-diversity criterion for the
// named sensitive attribute.
func NewDistinctLDiversity(attribute string, l float64) *DistinctLDiversity {
	return &DistinctLDiversity{Attribute: attribute, L: l}
}

func (c *DistinctLDiversity) Bind(ds *data.Dataset) (Criterion, error) {
	if err := checks.CheckL(c.L); err != nil {
		return nil, fmt.Errorf("criteria.DistinctLDiversity: %w", err)
	}
	i, err := sensitive(ds, c.Attribute)
	if err != nil {
		return nil, err
	}
	return &DistinctLDiversity{Attribute: c.Attribute, L: c.L, index: i}, nil
}

func (c *DistinctLDiversity) SensitiveAttributes() []int { return []int{c.index} }

func (c *DistinctLDiversity) MinimalClassSize() int { return int(math.Ceil(c.L)) }

func (c *DistinctLDiversity) IsAnonymous(_ lattice.Transformation, e *groupify.Entry) bool {
	d := distribution(e, c.index)
	return d != nil && float64(d.Size()) >= c.L
}

// IsReliablyAnonymous compares an integer with L and is always decided.
func (c *DistinctLDiversity) IsReliablyAnonymous(t lattice.Transformation, e *groupify.Entry) Verdict {
	return verdict(c.IsAnonymous(t, e), nil)
}

func (c *DistinctLDiversity) IsMonotonic() bool { return true }

func (c *DistinctLDiversity) IsMonotonicWithSuppression() bool { return true }

func (c *DistinctLDiversity) String() string {
	return fmt.Sprintf("distinct-%g-diversity for attribute %q", c.L, c.Attribute)
}

// EntropyLDiversity requires the entropy of the sensitive attribute within
// every class to be at least log(L).
type EntropyLDiversity struct {
	Attribute string
	L         float64

	index int
}

// NewEntropyLDiversity returns the entropy-l-diversity criterion for the
// named sensitive attribute.
func NewEntropyLDiversity(attribute string, l float64) *EntropyLDiversity {
	return &EntropyLDiversity{Attribute: attribute, L: l}
}

func (c *EntropyLDiversity) Bind(ds *data.Dataset) (Criterion, error) {
	if err := checks.CheckL(c.L); err != nil {
		return nil, fmt.Errorf("criteria.EntropyLDiversity: %w", err)
	}
	i, err := sensitive(ds, c.Attribute)
	if err != nil {
		return nil, err
	}
	return &EntropyLDiversity{Attribute: c.Attribute, L: c.L, index: i}, nil
}

func (c *EntropyLDiversity) SensitiveAttributes() []int { return []int{c.index} }

func (c *EntropyLDiversity) MinimalClassSize() int { return int(math.Ceil(c.L)) }

func (c *EntropyLDiversity) IsAnonymous(_ lattice.Transformation, e *groupify.Entry) bool {
	d := distribution(e, c.index)
	if d == nil || float64(d.Size()) < c.L {
		return false
	}
	p := make([]float64, 0, d.Size())
	total := float64(d.Total())
	for _, f := range d.Frequencies() {
		p = append(p, float64(f)/total)
	}
	return stat.Entropy(p) >= math.Log(c.L)
}

// IsReliablyAnonymous evaluates the entropy in bits as
// log₂(n) − (1/n)·Σ f·log₂(f).
func (c *EntropyLDiversity) IsReliablyAnonymous(_ lattice.Transformation, e *groupify.Entry) Verdict {
	d := distribution(e, c.index)
	if d == nil || float64(d.Size()) < c.L {
		return NotAnonymous
	}
	sum := interval.Point(0)
	for _, f := range d.Frequencies() {
		fi := interval.Int(int64(f))
		sum = sum.Add(fi.Mult(fi.Log2()))
	}
	n := interval.Int(int64(d.Total()))
	entropy := n.Log2().Sub(sum.Div(n))
	return verdict(interval.LessOrEqual(interval.Point(c.L).Log2(), entropy))
}

func (c *EntropyLDiversity) IsMonotonic() bool { return true }

func (c *EntropyLDiversity) IsMonotonicWithSuppression() bool { return false }

func (c *EntropyLDiversity) String() string {
	return fmt.Sprintf("entropy-%g-diversity for attribute %q", c.L, c.Attribute)
}

// RecursiveCLDiversity requires, within every class, that the most frequent
// sensitive value occurs less than C times the sum of all but the L-1 most
// frequent values.
type RecursiveCLDiversity struct {
	Attribute string
	C         float64
	L         int

	index int
}

// NewRecursiveCLDiversity returns the recursive-(c,l)-diversity criterion
// for the named sensitive attribute.
func NewRecursiveCLDiversity(attribute string, c float64, l int) *RecursiveCLDiversity {
	return &RecursiveCLDiversity{Attribute: attribute, C: c, L: l}
}

func (c *RecursiveCLDiversity) Bind(ds *data.Dataset) (Criterion, error) {
	if err := checks.CheckL(float64(c.L)); err != nil {
		return nil, fmt.Errorf("criteria.RecursiveCLDiversity: %w", err)
	}
	if err := checks.CheckC(c.C); err != nil {
		return nil, fmt.Errorf("criteria.RecursiveCLDiversity: %w", err)
	}
	i, err := sensitive(ds, c.Attribute)
	if err != nil {
		return nil, err
	}
	return &RecursiveCLDiversity{Attribute: c.Attribute, C: c.C, L: c.L, index: i}, nil
}

func (c *RecursiveCLDiversity) SensitiveAttributes() []int { return []int{c.index} }

func (c *RecursiveCLDiversity) MinimalClassSize() int { return c.L }

// sortedFrequencies returns the frequencies in increasing order, or nil if
// fewer than L values occur.
func (c *RecursiveCLDiversity) sortedFrequencies(e *groupify.Entry) []int {
	d := distribution(e, c.index)
	if d == nil || d.Size() < c.L {
		return nil
	}
	f := d.Frequencies()
	sort.Ints(f)
	return f
}

func (c *RecursiveCLDiversity) IsAnonymous(_ lattice.Transformation, e *groupify.Entry) bool {
	f := c.sortedFrequencies(e)
	if f == nil {
		return false
	}
	threshold := 0
	for i := len(f) - c.L; i >= 0; i-- {
		threshold += f[i]
	}
	return float64(f[len(f)-1]) < float64(threshold)*c.C
}

// IsReliablyAnonymous sums the threshold with overflow checks and compares
// with interval arithmetic.
func (c *RecursiveCLDiversity) IsReliablyAnonymous(_ lattice.Transformation, e *groupify.Entry) Verdict {
	f := c.sortedFrequencies(e)
	if f == nil {
		return NotAnonymous
	}
	var threshold int64
	for i := len(f) - c.L; i >= 0; i-- {
		var err error
		if threshold, err = interval.AddExact(threshold, int64(f[i])); err != nil {
			return Indeterminate
		}
	}
	largest := interval.Int(int64(f[len(f)-1]))
	return verdict(interval.LessThan(largest, interval.Int(threshold).Mult(interval.Point(c.C))))
}

func (c *RecursiveCLDiversity) IsMonotonic() bool { return true }

func (c *RecursiveCLDiversity) IsMonotonicWithSuppression() bool { return false }

func (c *RecursiveCLDiversity) String() string {
	return fmt.Sprintf("recursive-(%g,%d)-diversity for attribute %q", c.C, c.L, c.Attribute)
}
