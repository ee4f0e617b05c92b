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

// Height is the generalization distance: the generalization level of every
// quasi-identifier. It does not depend on the data or on suppression.
type Height struct {
	dimensions
}

// NewHeight returns the generalization distance metric.
func NewHeight(opt Options) *Height {
	return &Height{dimensions{opt: opt}}
}

func (m *Height) Bind(ds *data.Dataset) (Metric, error) {
	d, err := m.bind(ds, "Height")
	if err != nil {
		return nil, err
	}
	return &Height{d}, nil
}

func (m *Height) Score(t lattice.Transformation, _ *groupify.Table) InformationLoss {
	l, _ := m.LowerBound(t)
	return l
}

func (m *Height) LowerBound(t lattice.Transformation) (InformationLoss, bool) {
	v := make([]float64, len(t))
	for i, l := range t {
		v[i] = float64(l)
	}
	return m.vector(v), true
}

func (m *Height) IsMonotonic() bool { return true }

func (m *Height) String() string { return "height" }
