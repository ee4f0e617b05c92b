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

// Discernibility charges every record the size of its class, and every
// suppressed record the number of records.
type Discernibility struct{}

// NewDiscernibility returns the discernibility metric.
func NewDiscernibility() *Discernibility { return &Discernibility{} }

func (m *Discernibility) Bind(*data.Dataset) (Metric, error) { return &Discernibility{}, nil }

func (m *Discernibility) Score(_ lattice.Transformation, table *groupify.Table) InformationLoss {
	n := float64(table.NumRecords())
	s := 0.0
	for e := table.First(); e != nil; e = e.Next() {
		c := float64(e.Count)
		if e.IsNotOutlier {
			s += c * c
		} else {
			s += c * n
		}
	}
	if math.IsInf(s, 0) {
		return Scalar(math.MaxFloat64)
	}
	return Scalar(s)
}

func (m *Discernibility) LowerBound(lattice.Transformation) (InformationLoss, bool) {
	return InformationLoss{}, false
}

func (m *Discernibility) IsMonotonic() bool { return true }

func (m *Discernibility) String() string { return "discernibility" }

// AECS is the average equivalence class size. Suppressed records form one
// class.
type AECS struct{}

// NewAECS returns the average equivalence class size metric.
func NewAECS() *AECS { return &AECS{} }

func (m *AECS) Bind(*data.Dataset) (Metric, error) { return &AECS{}, nil }

func (m *AECS) Score(_ lattice.Transformation, table *groupify.Table) InformationLoss {
	classes := table.Len() - table.NumOutlierClasses()
	if table.SuppressedRecords() > 0 {
		classes++
	}
	if classes == 0 {
		return Scalar(0)
	}
	return Scalar(float64(table.NumRecords()) / float64(classes))
}

func (m *AECS) LowerBound(lattice.Transformation) (InformationLoss, bool) {
	return InformationLoss{}, false
}

func (m *AECS) IsMonotonic() bool { return true }

func (m *AECS) String() string { return "average equivalence class size" }
