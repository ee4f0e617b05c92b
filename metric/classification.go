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

package metric

import (
	"fmt"
	"strconv"

	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
)

// Classification measures how well the released records still predict a
// class attribute. Records are grouped by their generalized features, the
// quasi-identifiers other than the class attribute, and a record is
// unpenalized if its class value is the most frequent one in its group.
// Suppressed records and records whose features are all generalized to the
// root are penalized. The loss is the share of penalized records.
//
// The class attribute is either a quasi-identifier, whose generalized value
// is then the class, or a sensitive attribute.
type Classification struct {
	Attribute string

	// qi is the index of the class attribute among the quasi-identifiers,
	// or -1.
	qi int
	// sensitive is the index of the class attribute among the sensitive
	// attributes, or -1.
	sensitive int
	heights   []int
}

// NewClassification returns the classification metric for the named class
// attribute.
func NewClassification(attribute string) *Classification {
	return &Classification{Attribute: attribute}
}

func (m *Classification) Bind(ds *data.Dataset) (Metric, error) {
	b := &Classification{Attribute: m.Attribute, qi: -1, sensitive: -1, heights: ds.Heights()}
	for i, name := range ds.QuasiIdentifierNames() {
		if name == m.Attribute {
			b.qi = i
			return b, nil
		}
	}
	i, err := ds.SensitiveIndex(m.Attribute)
	if err != nil {
		return nil, fmt.Errorf("metric.Classification: class attribute %q is neither a quasi-identifier nor sensitive", m.Attribute)
	}
	b.sensitive = i
	return b, nil
}

func (m *Classification) SensitiveAttributes() []int {
	if m.sensitive < 0 {
		return nil
	}
	return []int{m.sensitive}
}

// featuresSuppressed reports whether every feature is generalized to the
// root under t.
func (m *Classification) featuresSuppressed(t lattice.Transformation) bool {
	for a, l := range t {
		if a != m.qi && l < m.heights[a] {
			return false
		}
	}
	return true
}

// unpenalized returns the number of records whose class value is the most
// frequent one among the released records sharing their features.
func (m *Classification) unpenalized(t lattice.Transformation, table *groupify.Table) int {
	if m.featuresSuppressed(t) {
		return 0
	}
	count := 0
	if m.sensitive >= 0 {
		// Every class holds distinct features.
		for e := table.First(); e != nil; e = e.Next() {
			if !e.IsNotOutlier || m.sensitive >= len(e.Distributions) || e.Distributions[m.sensitive] == nil {
				continue
			}
			_, c := e.Distributions[m.sensitive].Mode()
			count += c
		}
		return count
	}

	groups := make(map[string]map[int]int)
	var buf []byte
	for e := table.First(); e != nil; e = e.Next() {
		if !e.IsNotOutlier {
			continue
		}
		buf = buf[:0]
		for a, v := range e.Key {
			if a != m.qi {
				buf = strconv.AppendInt(buf, int64(v), 36)
				buf = append(buf, ',')
			}
		}
		g, ok := groups[string(buf)]
		if !ok {
			g = make(map[int]int)
			groups[string(buf)] = g
		}
		g[e.Key[m.qi]] += e.Count
	}
	for _, g := range groups {
		best := 0
		for _, c := range g {
			if c > best {
				best = c
			}
		}
		count += best
	}
	return count
}

func (m *Classification) Score(t lattice.Transformation, table *groupify.Table) InformationLoss {
	n := table.NumRecords()
	if n == 0 {
		return Scalar(1)
	}
	return Scalar(float64(n-m.unpenalized(t, table)) / float64(n))
}

func (m *Classification) LowerBound(lattice.Transformation) (InformationLoss, bool) {
	return InformationLoss{}, false
}

func (m *Classification) IsMonotonic() bool { return false }

// DPScore returns the number of unpenalized records divided by k.
func (m *Classification) DPScore(t lattice.Transformation, table *groupify.Table, k int) float64 {
	return float64(m.unpenalized(t, table)) / float64(k)
}

func (m *Classification) String() string {
	return fmt.Sprintf("classification accuracy for attribute %q", m.Attribute)
}
