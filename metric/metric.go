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

// Package metric provides information loss metrics that rank anonymous
// transformations.
//
// Single-dimensional metrics produce a scalar loss. Multi-dimensional
// metrics produce one loss per quasi-identifier and compare them through
// attribute weights and an Aggregation. Metrics that can bound the loss of a
// transformation and of all its generalizations before grouping implement
// LowerBound; the search uses the bound to prune the lattice.
package metric

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
	"gonum.org/v1/gonum/floats"
)

// Aggregation combines the per-attribute values of a multi-dimensional loss.
type Aggregation int

const (
	// Sum compares the weighted sums.
	Sum Aggregation = iota
	// Max compares the largest weighted values.
	Max
	// Rank compares the weighted values sorted in decreasing order
	// lexicographically.
	Rank
)

func (a Aggregation) String() string {
	switch a {
	case Sum:
		return "sum"
	case Max:
		return "max"
	case Rank:
		return "rank"
	default:
		return fmt.Sprintf("Aggregation(%d)", int(a))
	}
}

// ParseAggregation returns the aggregation with the given name.
func ParseAggregation(s string) (Aggregation, error) {
	switch strings.ToLower(s) {
	case "", "sum":
		return Sum, nil
	case "max":
		return Max, nil
	case "rank":
		return Rank, nil
	}
	return 0, fmt.Errorf("metric: unknown aggregation %q", s)
}

// InformationLoss is the utility cost of a transformation. It is immutable.
// Only values produced by the same bound metric can be compared.
type InformationLoss struct {
	values      []float64
	weights     []float64
	aggregation Aggregation
}

// Scalar returns a single-dimensional loss.
func Scalar(v float64) InformationLoss {
	return InformationLoss{values: []float64{v}}
}

// Vector returns a multi-dimensional loss. A nil weights slice weighs every
// attribute with 1.
func Vector(values, weights []float64, aggregation Aggregation) InformationLoss {
	return InformationLoss{values: values, weights: weights, aggregation: aggregation}
}

// Values returns the unweighted per-attribute values, or the single scalar.
func (l InformationLoss) Values() []float64 {
	return append([]float64(nil), l.values...)
}

func (l InformationLoss) weighted() []float64 {
	w := append([]float64(nil), l.values...)
	if l.weights != nil {
		floats.Mul(w, l.weights)
	}
	return w
}

// Value returns the aggregated loss: the weighted sum for Sum and Rank,
// the largest weighted value for Max.
func (l InformationLoss) Value() float64 {
	if len(l.values) == 0 {
		return 0
	}
	w := l.weighted()
	if l.aggregation == Max {
		return floats.Max(w)
	}
	return floats.Sum(w)
}

// Compare returns -1, 0 or +1 as l is smaller than, equal to or larger than
// o.
func (l InformationLoss) Compare(o InformationLoss) int {
	if l.aggregation != Rank || len(l.values) != len(o.values) {
		return compareFloat(l.Value(), o.Value())
	}
	a, b := l.weighted(), o.weighted()
	sort.Sort(sort.Reverse(sort.Float64Slice(a)))
	sort.Sort(sort.Reverse(sort.Float64Slice(b)))
	for i := range a {
		if c := compareFloat(a[i], b[i]); c != 0 {
			return c
		}
	}
	return 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (l InformationLoss) String() string {
	if len(l.values) == 1 {
		return fmt.Sprintf("%g", l.values[0])
	}
	return fmt.Sprintf("%g %v", l.Value(), l.values)
}

// Metric scores transformations.
type Metric interface {
	// Bind validates the configuration against ds and precomputes what the
	// metric needs. It returns a fresh metric ready for scoring.
	Bind(ds *data.Dataset) (Metric, error)
	// Score returns the loss of t given its classes after the suppression
	// pass. Numeric faults yield the maximal loss.
	Score(t lattice.Transformation, table *groupify.Table) InformationLoss
	// LowerBound returns a loss no larger than the score of t and of every
	// generalization of t, or false if the metric has none.
	LowerBound(t lattice.Transformation) (InformationLoss, bool)
	// IsMonotonic reports whether the score never decreases under further
	// generalization when no records are suppressed.
	IsMonotonic() bool
	String() string
}

// DistributionMetric is implemented by metrics that read the distributions
// of sensitive attributes.
type DistributionMetric interface {
	Metric
	SensitiveAttributes() []int
}

// Scorer is implemented by metrics usable by the exponential mechanism. The
// score has sensitivity 1 when every released class holds at least k
// records. Larger scores are better.
type Scorer interface {
	Metric
	DPScore(t lattice.Transformation, table *groupify.Table, k int) float64
}

// Options configures multi-dimensional metrics.
type Options struct {
	// Weights holds one weight per quasi-identifier. Nil weighs every
	// attribute with 1.
	Weights     []float64
	Aggregation Aggregation
}

// dimensions is what multi-dimensional metrics share.
type dimensions struct {
	opt Options
}

func (d *dimensions) bind(ds *data.Dataset, name string) (dimensions, error) {
	if err := checks.CheckWeights(d.opt.Weights, ds.NumQuasiIdentifiers()); err != nil {
		return dimensions{}, fmt.Errorf("metric.%s: %w", name, err)
	}
	switch d.opt.Aggregation {
	case Sum, Max, Rank:
	default:
		return dimensions{}, fmt.Errorf("metric.%s: unknown aggregation %v", name, d.opt.Aggregation)
	}
	return dimensions{opt: Options{
		Weights:     append([]float64(nil), d.opt.Weights...),
		Aggregation: d.opt.Aggregation,
	}}, nil
}

func (d *dimensions) vector(values []float64) InformationLoss {
	w := d.opt.Weights
	if len(w) == 0 {
		w = nil
	}
	return Vector(values, w, d.opt.Aggregation)
}

// maximal returns values of 1 for every attribute.
func (d *dimensions) maximal(attributes int) InformationLoss {
	v := make([]float64, attributes)
	for i := range v {
		v[i] = 1
	}
	return d.vector(v)
}

// checked replaces a loss holding a NaN or infinite value with fallback.
func checked(l InformationLoss, fallback InformationLoss) InformationLoss {
	for _, v := range l.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fallback
		}
	}
	return l
}

// normalizedLevels returns level/height per attribute, 0 for attributes of
// height 0.
func normalizedLevels(t lattice.Transformation, heights []int) []float64 {
	out := make([]float64, len(t))
	for i, l := range t {
		if heights[i] > 0 {
			out[i] = float64(l) / float64(heights[i])
		}
	}
	return out
}
