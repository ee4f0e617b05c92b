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

	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/interval"
	"github.com/google/differential-privacy/anonymization/lattice"
)

// tCloseness holds what both t-closeness variants share: the distribution
// of the sensitive attribute over the whole dataset.
type tCloseness struct {
	Attribute string
	T         float64

	index  int
	global []int
	total  int
}

func (c *tCloseness) bind(ds *data.Dataset, name string) (tCloseness, error) {
	if err := checks.CheckT(c.T); err != nil {
		return tCloseness{}, fmt.Errorf("criteria.%s: %w", name, err)
	}
	i, err := sensitive(ds, c.Attribute)
	if err != nil {
		return tCloseness{}, err
	}
	if ds.NumRecords() == 0 {
		return tCloseness{}, fmt.Errorf("criteria.%s: dataset is empty", name)
	}
	return tCloseness{
		Attribute: c.Attribute,
		T:         c.T,
		index:     i,
		global:    ds.SensitiveFrequencies(i),
		total:     ds.NumRecords(),
	}, nil
}

func (c *tCloseness) SensitiveAttributes() []int { return []int{c.index} }

func (c *tCloseness) MinimalClassSize() int { return 0 }

func (c *tCloseness) IsMonotonic() bool { return true }

func (c *tCloseness) IsMonotonicWithSuppression() bool { return false }

// differences returns p_i − q_i for every value i, where p is the class
// distribution and q the global one.
func (c *tCloseness) differences(d *groupify.Distribution) []float64 {
	local := d.Dense()
	n := float64(d.Total())
	out := make([]float64, len(c.global))
	for i, g := range c.global {
		l := 0
		if i < len(local) {
			l = local[i]
		}
		out[i] = float64(l)/n - float64(g)/float64(c.total)
	}
	return out
}

// intervalDifferences is differences with interval arithmetic.
func (c *tCloseness) intervalDifferences(d *groupify.Distribution) []interval.Interval {
	local := d.Dense()
	n := interval.Int(int64(d.Total()))
	total := interval.Int(int64(c.total))
	out := make([]interval.Interval, len(c.global))
	for i, g := range c.global {
		l := 0
		if i < len(local) {
			l = local[i]
		}
		out[i] = interval.Int(int64(l)).Div(n).Sub(interval.Int(int64(g)).Div(total))
	}
	return out
}

func abs(a interval.Interval) interval.Interval {
	switch {
	case !a.Valid() || a.Lo >= 0:
		return a
	case a.Hi <= 0:
		return interval.Interval{Lo: -a.Hi, Hi: -a.Lo}
	default:
		return interval.Interval{Lo: 0, Hi: math.Max(-a.Lo, a.Hi)}
	}
}

// EqualDistanceTCloseness bounds the variational distance
// ½·Σ|p_i − q_i| between the class and global distributions by T.
type EqualDistanceTCloseness struct {
	tCloseness
}

// NewEqualDistanceTCloseness returns t-closeness with the equal ground
// distance for the named sensitive attribute.
func NewEqualDistanceTCloseness(attribute string, t float64) *EqualDistanceTCloseness {
	return &EqualDistanceTCloseness{tCloseness{Attribute: attribute, T: t}}
}

func (c *EqualDistanceTCloseness) Bind(ds *data.Dataset) (Criterion, error) {
	b, err := c.bind(ds, "EqualDistanceTCloseness")
	if err != nil {
		return nil, err
	}
	return &EqualDistanceTCloseness{b}, nil
}

func (c *EqualDistanceTCloseness) IsAnonymous(_ lattice.Transformation, e *groupify.Entry) bool {
	d := distribution(e, c.index)
	if d == nil {
		return false
	}
	sum := 0.0
	for _, x := range c.differences(d) {
		sum += math.Abs(x)
	}
	return sum/2 <= c.T
}

func (c *EqualDistanceTCloseness) IsReliablyAnonymous(_ lattice.Transformation, e *groupify.Entry) Verdict {
	d := distribution(e, c.index)
	if d == nil {
		return NotAnonymous
	}
	sum := interval.Point(0)
	for _, x := range c.intervalDifferences(d) {
		sum = sum.Add(abs(x))
	}
	return verdict(interval.LessOrEqual(sum.Div(interval.Point(2)), interval.Point(c.T)))
}

func (c *EqualDistanceTCloseness) String() string {
	return fmt.Sprintf("%g-closeness with equal ground distance for attribute %q", c.T, c.Attribute)
}

// OrderedDistanceTCloseness bounds the earth mover's distance with ordered
// ground distance, (1/(m−1))·Σ_i |Σ_{j≤i} (p_j − q_j)| over the m codes of
// the sensitive attribute in code order, by T.
type OrderedDistanceTCloseness struct {
	tCloseness
}

// NewOrderedDistanceTCloseness returns t-closeness with the ordered ground
// distance for the named sensitive attribute. Codes must follow the order of
// the attribute's values.
func NewOrderedDistanceTCloseness(attribute string, t float64) *OrderedDistanceTCloseness {
	return &OrderedDistanceTCloseness{tCloseness{Attribute: attribute, T: t}}
}

func (c *OrderedDistanceTCloseness) Bind(ds *data.Dataset) (Criterion, error) {
	b, err := c.bind(ds, "OrderedDistanceTCloseness")
	if err != nil {
		return nil, err
	}
	return &OrderedDistanceTCloseness{b}, nil
}

func (c *OrderedDistanceTCloseness) IsAnonymous(_ lattice.Transformation, e *groupify.Entry) bool {
	d := distribution(e, c.index)
	if d == nil {
		return false
	}
	m := len(c.global)
	if m <= 1 {
		return true
	}
	sum, cumulative := 0.0, 0.0
	for _, x := range c.differences(d)[:m-1] {
		cumulative += x
		sum += math.Abs(cumulative)
	}
	return sum/float64(m-1) <= c.T
}

func (c *OrderedDistanceTCloseness) IsReliablyAnonymous(_ lattice.Transformation, e *groupify.Entry) Verdict {
	d := distribution(e, c.index)
	if d == nil {
		return NotAnonymous
	}
	m := len(c.global)
	if m <= 1 {
		return Anonymous
	}
	sum, cumulative := interval.Point(0), interval.Point(0)
	for _, x := range c.intervalDifferences(d)[:m-1] {
		cumulative = cumulative.Add(x)
		sum = sum.Add(abs(cumulative))
	}
	return verdict(interval.LessOrEqual(sum.Div(interval.Int(int64(m-1))), interval.Point(c.T)))
}

func (c *OrderedDistanceTCloseness) String() string {
	return fmt.Sprintf("%g-closeness with ordered ground distance for attribute %q", c.T, c.Attribute)
}
