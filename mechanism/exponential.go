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

// Package mechanism contains the differential privacy primitives used by the
// anonymization search: the exponential mechanism for selecting a
// transformation, and the parameters of SafePub-style (ε, δ)-differentially
// private anonymization by random sampling and k-anonymity.
package mechanism

import (
	"fmt"
	"math"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/rand"
)

// Exponential is the exponential mechanism: it selects candidate i with
// probability proportional to exp(ε · score_i / (2 · sensitivity)).
type Exponential struct {
	epsilon     float64
	sensitivity float64
}

// NewExponential returns an exponential mechanism for scores of the given
// sensitivity.
func NewExponential(epsilon, sensitivity float64) (*Exponential, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return nil, fmt.Errorf("mechanism.NewExponential: %w", err)
	}
	if sensitivity <= 0 || math.IsInf(sensitivity, 0) || math.IsNaN(sensitivity) {
		return nil, fmt.Errorf("mechanism.NewExponential: Sensitivity is %f, must be strictly positive and finite", sensitivity)
	}
	return &Exponential{epsilon: epsilon, sensitivity: sensitivity}, nil
}

// Probabilities returns the selection probability of every score.
func (m *Exponential) Probabilities(scores []float64) ([]float64, error) {
	if len(scores) == 0 {
		return nil, fmt.Errorf("mechanism.Exponential: no candidates")
	}
	top := math.Inf(-1)
	for i, s := range scores {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, fmt.Errorf("mechanism.Exponential: score %d is %f, must be finite", i, s)
		}
		top = math.Max(top, s)
	}
	// Shifting by the largest score keeps every weight in (0, 1].
	w := make([]float64, len(scores))
	total := 0.0
	for i, s := range scores {
		w[i] = math.Exp(m.epsilon * (s - top) / (2 * m.sensitivity))
		total += w[i]
	}
	for i := range w {
		w[i] /= total
	}
	return w, nil
}

// Select draws the index of one candidate.
func (m *Exponential) Select(scores []float64, src *rand.Source) (int, error) {
	p, err := m.Probabilities(scores)
	if err != nil {
		return 0, err
	}
	u := src.Uniform()
	cumulative := 0.0
	for i, pi := range p {
		cumulative += pi
		if u <= cumulative {
			return i, nil
		}
	}
	// Rounding can leave the cumulative sum just below 1.
	log.V(2).Infof("mechanism.Exponential: cumulative probability %v below draw %v, selecting last candidate", cumulative, u)
	return len(p) - 1, nil
}
