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

// Package checker evaluates single transformations: it groups the records,
// runs the suppression pass, applies the privacy criteria and scores the
// result.
package checker

import (
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/criteria"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
	"github.com/google/differential-privacy/anonymization/metric"
)

// Options configures a Checker.
type Options struct {
	// SuppressionLimit is the largest share of records that may be
	// suppressed, within [0, 1].
	SuppressionLimit float64
	// Reliable evaluates the criteria with interval arithmetic. Undecided
	// classes are suppressed.
	Reliable bool
	// Parallelism is passed to groupify.Build.
	Parallelism int
}

// Checker evaluates transformations of one dataset against bound criteria
// and a bound metric. It holds no per-node state and may be reused.
type Checker struct {
	ds        *data.Dataset
	criteria  *criteria.Composite
	metric    metric.Metric
	opt       Options
	sensitive []int
	minSize   int
}

// New returns a Checker. The criteria and metric must be bound to ds.
func New(ds *data.Dataset, c *criteria.Composite, m metric.Metric, opt Options) (*Checker, error) {
	if ds == nil || c == nil || m == nil {
		return nil, fmt.Errorf("checker.New: dataset, criteria and metric are required")
	}
	if err := checks.CheckSuppressionLimit(opt.SuppressionLimit); err != nil {
		return nil, fmt.Errorf("checker.New: %w", err)
	}
	if err := checks.CheckParallelism(opt.Parallelism); err != nil {
		return nil, fmt.Errorf("checker.New: %w", err)
	}
	sensitive := c.SensitiveAttributes()
	if dm, ok := m.(metric.DistributionMetric); ok {
		seen := make(map[int]bool)
		for _, s := range sensitive {
			seen[s] = true
		}
		for _, s := range dm.SensitiveAttributes() {
			if !seen[s] {
				sensitive = append(sensitive, s)
			}
		}
	}
	return &Checker{
		ds:        ds,
		criteria:  c,
		metric:    m,
		opt:       opt,
		sensitive: sensitive,
		minSize:   c.MinimalClassSize(),
	}, nil
}

// Dataset returns the dataset the checker evaluates.
func (c *Checker) Dataset() *data.Dataset { return c.ds }

// Result is the evaluation of one transformation.
type Result struct {
	Transformation lattice.Transformation
	Anonymous      bool
	// Suppressed is the number of records in outlier classes. When the
	// suppression limit was exceeded it is only a lower bound.
	Suppressed int
	// Undecided counts reliable decisions that were Indeterminate and
	// treated as not anonymous.
	Undecided int
	// Loss is only set for anonymous transformations.
	Loss metric.InformationLoss
	// Table holds the classes after the suppression pass.
	Table *groupify.Table
}

// Check evaluates t. If base is not nil it must be the table of a
// transformation below t, and t's classes are rolled up from it instead of
// being built from the records.
func (c *Checker) Check(t lattice.Transformation, base *groupify.Table) (*Result, error) {
	var table *groupify.Table
	var err error
	if base != nil {
		table, err = groupify.Rollup(c.ds, base, t)
	} else {
		table, err = groupify.Build(c.ds, t, groupify.Options{Sensitive: c.sensitive, Parallelism: c.opt.Parallelism})
	}
	if err != nil {
		return nil, fmt.Errorf("checker.Check: %w", err)
	}
	return c.evaluate(t, table), nil
}

// Materialize evaluates t from the records and keeps the members of every
// class, for rendering the output of t.
func (c *Checker) Materialize(t lattice.Transformation) (*Result, error) {
	table, err := groupify.Build(c.ds, t, groupify.Options{
		Sensitive:   c.sensitive,
		Parallelism: c.opt.Parallelism,
		TrackRows:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("checker.Materialize: %w", err)
	}
	return c.evaluate(t, table), nil
}

func (c *Checker) evaluate(t lattice.Transformation, table *groupify.Table) *Result {
	r := &Result{Transformation: t, Table: table}
	suppressed, ok := table.Suppress(c.opt.SuppressionLimit, func(e *groupify.Entry) bool {
		if e.Count < c.minSize {
			return false
		}
		if !c.opt.Reliable {
			return c.criteria.IsAnonymous(t, e)
		}
		v := c.criteria.IsReliablyAnonymous(t, e)
		if v == criteria.Indeterminate {
			r.Undecided++
			log.V(2).Infof("checker: class %v at %v is undecided", e.Key, t)
		}
		return v.Accepted()
	})
	r.Suppressed = suppressed
	if ok {
		if c.opt.Reliable {
			v := c.criteria.IsReliablyAnonymousTable(t, table)
			if v == criteria.Indeterminate {
				r.Undecided++
			}
			ok = v.Accepted()
		} else {
			ok = c.criteria.IsAnonymousTable(t, table)
		}
	}
	if r.Undecided > 0 {
		log.Warningf("checker: %d undecided decisions at %v treated as not anonymous", r.Undecided, t)
	}
	r.Anonymous = ok
	if ok {
		r.Loss = c.metric.Score(t, table)
	}
	log.V(1).Infof("checker: %v anonymous=%t suppressed=%d loss=%v", t, r.Anonymous, r.Suppressed, r.Loss)
	return r
}

// LowerBound returns the metric's lower bound for t.
func (c *Checker) LowerBound(t lattice.Transformation) (metric.InformationLoss, bool) {
	return c.metric.LowerBound(t)
}
