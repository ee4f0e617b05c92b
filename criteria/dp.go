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

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
	"github.com/google/differential-privacy/anonymization/mechanism"
	"github.com/google/differential-privacy/anonymization/rand"
)

// Sampler is implemented by criteria that anonymize a random sample of the
// dataset instead of the dataset itself.
type Sampler interface {
	Criterion
	// Sample returns the records kept by the sampling step.
	Sample(ds *data.Dataset, src *rand.Source) *data.Dataset
}

// FixedScheme is implemented by criteria whose search space is a single
// transformation chosen independently of the data.
type FixedScheme interface {
	Criterion
	Scheme() lattice.Transformation
}

// ExponentialSearch is implemented by criteria that select the
// transformation with the exponential mechanism.
type ExponentialSearch interface {
	Criterion
	// SearchEpsilon returns the privacy budget of the whole selection.
	SearchEpsilon() float64
	// Steps returns the number of selection rounds.
	Steps() int
}

// sampledKAnonymity is (ε, δ)-differential privacy by random sampling with
// probability β = 1 − e^(−ε) followed by k-anonymization, with k derived
// from ε and δ.
type sampledKAnonymity struct {
	epsilon, delta float64
	k              int
	beta           float64
}

func newSampledKAnonymity(epsilon, delta float64, name string) (sampledKAnonymity, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return sampledKAnonymity{}, fmt.Errorf("criteria.%s: %w", name, err)
	}
	if err := checks.CheckDeltaStrict(delta); err != nil {
		return sampledKAnonymity{}, fmt.Errorf("criteria.%s: %w", name, err)
	}
	k, err := mechanism.K(epsilon, delta)
	if err != nil {
		return sampledKAnonymity{}, fmt.Errorf("criteria.%s: %w", name, err)
	}
	log.V(1).Infof("criteria.%s: epsilon %g and delta %g give k = %d", name, epsilon, delta, k)
	return sampledKAnonymity{epsilon: epsilon, delta: delta, k: k, beta: mechanism.SamplingProbability(epsilon)}, nil
}

// K returns the derived class size threshold. Only valid after Bind.
func (c *sampledKAnonymity) K() int { return c.k }

// SamplingProbability returns β. Only valid after Bind.
func (c *sampledKAnonymity) SamplingProbability() float64 { return c.beta }

func (c *sampledKAnonymity) Sample(ds *data.Dataset, src *rand.Source) *data.Dataset {
	var rows []int
	for r := 0; r < ds.NumRecords(); r++ {
		if src.Bernoulli(c.beta) {
			rows = append(rows, r)
		}
	}
	log.V(1).Infof("criteria: sampled %d of %d records with probability %g", len(rows), ds.NumRecords(), c.beta)
	return ds.Subset(rows)
}

func (c *sampledKAnonymity) SensitiveAttributes() []int { return nil }

func (c *sampledKAnonymity) MinimalClassSize() int { return c.k }

func (c *sampledKAnonymity) IsAnonymous(_ lattice.Transformation, e *groupify.Entry) bool {
	return e.Count >= c.k
}

func (c *sampledKAnonymity) IsReliablyAnonymous(t lattice.Transformation, e *groupify.Entry) Verdict {
	return verdict(c.IsAnonymous(t, e), nil)
}

func (c *sampledKAnonymity) IsMonotonic() bool { return true }

func (c *sampledKAnonymity) IsMonotonicWithSuppression() bool { return true }

// DifferentialPrivacy is data-independent (ε, δ)-differential privacy: the
// records are sampled, generalized with a fixed scheme chosen without
// looking at the data, and every class smaller than the derived k is
// suppressed.
type DifferentialPrivacy struct {
	Epsilon, Delta float64
	// GeneralizationScheme is the only transformation considered.
	GeneralizationScheme lattice.Transformation

	sampledKAnonymity
}

// NewDifferentialPrivacy returns the data-independent differential privacy
// criterion.
func NewDifferentialPrivacy(epsilon, delta float64, scheme lattice.Transformation) *DifferentialPrivacy {
	return &DifferentialPrivacy{Epsilon: epsilon, Delta: delta, GeneralizationScheme: scheme}
}

func (c *DifferentialPrivacy) Bind(ds *data.Dataset) (Criterion, error) {
	s, err := newSampledKAnonymity(c.Epsilon, c.Delta, "DifferentialPrivacy")
	if err != nil {
		return nil, err
	}
	l, err := lattice.New(ds.Heights())
	if err != nil {
		return nil, fmt.Errorf("criteria.DifferentialPrivacy: %w", err)
	}
	if !l.Contains(c.GeneralizationScheme) {
		return nil, fmt.Errorf("criteria.DifferentialPrivacy: generalization scheme %v is not within heights %v", c.GeneralizationScheme, ds.Heights())
	}
	return &DifferentialPrivacy{
		Epsilon:              c.Epsilon,
		Delta:                c.Delta,
		GeneralizationScheme: append(lattice.Transformation(nil), c.GeneralizationScheme...),
		sampledKAnonymity:    s,
	}, nil
}

func (c *DifferentialPrivacy) Scheme() lattice.Transformation { return c.GeneralizationScheme }

func (c *DifferentialPrivacy) String() string {
	return fmt.Sprintf("(%g, %g)-differential privacy with generalization scheme %v", c.Epsilon, c.Delta, c.GeneralizationScheme)
}

// DataDependentDifferentialPrivacy is (ε, δ)-differential privacy where the
// generalization is selected from the data. AnonymizationEpsilon and Delta
// pay for sampling and k-anonymization; SearchEpsilon pays for Steps
// rounds of the exponential mechanism over the lattice.
type DataDependentDifferentialPrivacy struct {
	AnonymizationEpsilon float64
	SearchBudget         float64
	Delta                float64
	SearchSteps          int

	sampledKAnonymity
}

// NewDataDependentDifferentialPrivacy returns the data-dependent
// differential privacy criterion. The total privacy budget is
// (anonymizationEpsilon + searchEpsilon, delta).
func NewDataDependentDifferentialPrivacy(anonymizationEpsilon, searchEpsilon, delta float64, steps int) *DataDependentDifferentialPrivacy {
	return &DataDependentDifferentialPrivacy{
		AnonymizationEpsilon: anonymizationEpsilon,
		SearchBudget:         searchEpsilon,
		Delta:                delta,
		SearchSteps:          steps,
	}
}

func (c *DataDependentDifferentialPrivacy) Bind(ds *data.Dataset) (Criterion, error) {
	if err := checks.CheckEpsilonStrict(c.SearchBudget, "SearchEpsilon"); err != nil {
		return nil, fmt.Errorf("criteria.DataDependentDifferentialPrivacy: %w", err)
	}
	if err := checks.CheckSteps(c.SearchSteps); err != nil {
		return nil, fmt.Errorf("criteria.DataDependentDifferentialPrivacy: %w", err)
	}
	s, err := newSampledKAnonymity(c.AnonymizationEpsilon, c.Delta, "DataDependentDifferentialPrivacy")
	if err != nil {
		return nil, err
	}
	return &DataDependentDifferentialPrivacy{
		AnonymizationEpsilon: c.AnonymizationEpsilon,
		SearchBudget:         c.SearchBudget,
		Delta:                c.Delta,
		SearchSteps:          c.SearchSteps,
		sampledKAnonymity:    s,
	}, nil
}

func (c *DataDependentDifferentialPrivacy) SearchEpsilon() float64 { return c.SearchBudget }

func (c *DataDependentDifferentialPrivacy) Steps() int { return c.SearchSteps }

func (c *DataDependentDifferentialPrivacy) String() string {
	return fmt.Sprintf("(%g, %g)-differential privacy with search budget %g over %d steps",
		c.AnonymizationEpsilon+c.SearchBudget, c.Delta, c.SearchBudget, c.SearchSteps)
}
