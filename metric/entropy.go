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
	"math"

	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
)

// Entropy is the non-uniform entropy: for every record and attribute,
// log₂(F(g)/F(v)) bits, where v is the original value, g its generalization
// and F the frequency of a value in the dataset. A suppressed value counts
// as the root, whose frequency is the number of records.
type Entropy struct {
	dimensions

	records int
	// frequency[a][l][v] is the frequency of value v of attribute a at
	// level l.
	frequency [][][]int
	// original[a] is Σ log₂ F(v) over all records.
	original []float64
	// rootBits[a] is log₂ of the frequency of the root of attribute a.
	rootBits []float64
	// bound[a][l] is the loss of attribute a at level l without
	// suppression.
	bound [][]float64
}

// NewEntropy returns the non-uniform entropy metric.
func NewEntropy(opt Options) *Entropy {
	return &Entropy{dimensions: dimensions{opt: opt}}
}

func (m *Entropy) Bind(ds *data.Dataset) (Metric, error) {
	d, err := m.bind(ds, "Entropy")
	if err != nil {
		return nil, err
	}
	b := &Entropy{dimensions: d, records: ds.NumRecords()}
	for a := 0; a < ds.NumQuasiIdentifiers(); a++ {
		h := ds.Hierarchy(a)
		freq := make([][]int, h.Height()+1)
		for l := range freq {
			size := 0
			for c := 0; c < h.DomainSize(0); c++ {
				size = max(size, h.Generalize(c, l)+1)
			}
			freq[l] = make([]int, size)
			for r := 0; r < ds.NumRecords(); r++ {
				freq[l][h.Generalize(ds.QuasiIdentifiers(r)[a], l)]++
			}
		}
		original := entropySum(freq[0])
		bound := make([]float64, len(freq))
		for l := range bound {
			bound[l] = entropySum(freq[l]) - original
		}
		b.rootBits = append(b.rootBits, math.Log2(float64(freq[h.Height()][h.Root()])))
		b.frequency = append(b.frequency, freq)
		b.original = append(b.original, original)
		b.bound = append(b.bound, bound)
	}
	return b, nil
}

// entropySum returns Σ F·log₂(F) over the non-zero frequencies, in value
// order.
func entropySum(freq []int) float64 {
	s := 0.0
	for _, f := range freq {
		if f > 0 {
			s += float64(f) * math.Log2(float64(f))
		}
	}
	return s
}

func (m *Entropy) Score(t lattice.Transformation, table *groupify.Table) InformationLoss {
	if m.records == 0 {
		return m.maximal(len(t))
	}
	v := make([]float64, len(t))
	for e := table.First(); e != nil; e = e.Next() {
		for a := range v {
			bits := m.rootBits[a]
			if e.IsNotOutlier {
				bits = math.Log2(float64(m.frequency[a][t[a]][e.Key[a]]))
			}
			v[a] += float64(e.Count) * bits
		}
	}
	for a := range v {
		v[a] -= m.original[a]
	}
	return checked(m.vector(v), m.rootLoss(len(t)))
}

// rootLoss is the loss of suppressing every record.
func (m *Entropy) rootLoss(attributes int) InformationLoss {
	v := make([]float64, attributes)
	root := float64(m.records) * math.Log2(float64(m.records))
	for a := range v {
		v[a] = root - m.original[a]
	}
	return m.vector(v)
}

func (m *Entropy) LowerBound(t lattice.Transformation) (InformationLoss, bool) {
	v := make([]float64, len(t))
	for a, l := range t {
		v[a] = m.bound[a][l]
	}
	return m.vector(v), true
}

func (m *Entropy) IsMonotonic() bool { return true }

func (m *Entropy) String() string { return "non-uniform entropy" }
