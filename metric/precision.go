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
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
)

// Precision is the average normalized generalization level of every value.
// A suppressed value has loss 1.
type Precision struct {
	dimensions

	heights []int
}

// NewPrecision returns the precision metric.
func NewPrecision(opt Options) *Precision {
	return &Precision{dimensions: dimensions{opt: opt}}
}

func (m *Precision) Bind(ds *data.Dataset) (Metric, error) {
	d, err := m.bind(ds, "Precision")
	if err != nil {
		return nil, err
	}
	return &Precision{dimensions: d, heights: ds.Heights()}, nil
}

func (m *Precision) Score(t lattice.Transformation, table *groupify.Table) InformationLoss {
	n := table.NumRecords()
	if n == 0 {
		return m.maximal(len(t))
	}
	// Without suppression the loss is exactly the normalized level.
	suppressed := float64(table.SuppressedRecords()) / float64(n)
	v := normalizedLevels(t, m.heights)
	for a := range v {
		v[a] += (1 - v[a]) * suppressed
	}
	return checked(m.vector(v), m.maximal(len(t)))
}

func (m *Precision) LowerBound(t lattice.Transformation) (InformationLoss, bool) {
	return m.vector(normalizedLevels(t, m.heights)), true
}

func (m *Precision) IsMonotonic() bool { return true }

// DPScore returns minus the total loss of all records divided by k.
func (m *Precision) DPScore(t lattice.Transformation, table *groupify.Table, k int) float64 {
	return -float64(table.NumRecords()) * m.Score(t, table).Value() / float64(k)
}

func (m *Precision) String() string { return "precision" }

// Loss is the generalization intensity: for every value, the share of the
// attribute's domain it was generalized to, (leaves − 1)/(domain − 1),
// averaged over records. A suppressed value has loss 1.
type Loss struct {
	dimensions

	hierarchies []*data.Hierarchy
	// bound[a][l] is the loss of attribute a at level l without
	// suppression.
	bound [][]float64
}

// NewLoss returns the generalization intensity metric.
func NewLoss(opt Options) *Loss {
	return &Loss{dimensions: dimensions{opt: opt}}
}

func (m *Loss) Bind(ds *data.Dataset) (Metric, error) {
	d, err := m.bind(ds, "Loss")
	if err != nil {
		return nil, err
	}
	b := &Loss{dimensions: d}
	n := ds.NumRecords()
	for a := 0; a < ds.NumQuasiIdentifiers(); a++ {
		h := ds.Hierarchy(a)
		b.hierarchies = append(b.hierarchies, h)
		levels := make([]float64, h.Height()+1)
		for l := range levels {
			if n == 0 {
				break
			}
			for r := 0; r < n; r++ {
				levels[l] += b.share(a, l, h.Generalize(ds.QuasiIdentifiers(r)[a], l))
			}
			levels[l] /= float64(n)
		}
		b.bound = append(b.bound, levels)
	}
	return b, nil
}

// share returns the loss of value v of attribute a at level l.
func (m *Loss) share(a, l, v int) float64 {
	h := m.hierarchies[a]
	d := h.DomainSize(0)
	if d <= 1 {
		return 0
	}
	return float64(h.Leaves(l, v)-1) / float64(d-1)
}

func (m *Loss) Score(t lattice.Transformation, table *groupify.Table) InformationLoss {
	n := table.NumRecords()
	if n == 0 {
		return m.maximal(len(t))
	}
	v := make([]float64, len(t))
	for e := table.First(); e != nil; e = e.Next() {
		for a := range v {
			if e.IsNotOutlier {
				v[a] += float64(e.Count) * m.share(a, t[a], e.Key[a])
			} else {
				v[a] += float64(e.Count)
			}
		}
	}
	for a := range v {
		v[a] /= float64(n)
	}
	return checked(m.vector(v), m.maximal(len(t)))
}

func (m *Loss) LowerBound(t lattice.Transformation) (InformationLoss, bool) {
	v := make([]float64, len(t))
	for a, l := range t {
		v[a] = m.bound[a][l]
	}
	return m.vector(v), true
}

func (m *Loss) IsMonotonic() bool { return true }

// DPScore returns minus the total loss of all records divided by k.
func (m *Loss) DPScore(t lattice.Transformation, table *groupify.Table, k int) float64 {
	return -float64(table.NumRecords()) * m.Score(t, table).Value() / float64(k)
}

func (m *Loss) String() string { return "loss" }
