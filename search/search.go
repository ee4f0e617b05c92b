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

// Package search finds the anonymous transformation of a dataset with the
// least information loss.
//
// Anonymize traverses the generalization lattice level by level from the
// bottom, evaluating each transformation with a checker.Checker. It prunes
// subtrees whose lower bound exceeds the best loss found, infers verdicts
// from monotonic criteria, and rolls up equivalence classes from cached
// tables of less generalized transformations. Ties are broken by the number
// of suppressed records, then by the lexicographically smallest
// transformation, so a search is deterministic for a given input.
//
// Differential privacy criteria change the search: the records are sampled
// first, and the transformation is either fixed in advance or selected with
// the exponential mechanism using a seeded random source.
package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/checker"
	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/criteria"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/lattice"
	"github.com/google/differential-privacy/anonymization/metric"
	"github.com/google/differential-privacy/anonymization/rand"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"
)

var (
	// ErrConfiguration is returned, wrapped, when the options are invalid.
	// No transformation is evaluated.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrInfeasible is returned, wrapped, when a complete search found no
	// anonymous transformation.
	ErrInfeasible = errors.New("no anonymous transformation")
)

const defaultHistorySize = 64

// Options configures a search.
type Options struct {
	// Criteria must hold at least one privacy criterion. All of them must
	// be satisfied.
	Criteria []criteria.Criterion
	// Metric ranks anonymous transformations. Defaults to metric.Loss.
	Metric metric.Metric
	// SuppressionLimit is the largest share of records that may be
	// suppressed, within [0, 1]. Differential privacy criteria always
	// allow every record to be suppressed.
	SuppressionLimit float64
	// Reliable evaluates the criteria with interval arithmetic.
	Reliable bool
	// Parallelism is the number of shards used to group large datasets.
	Parallelism int
	// MaxNodes stops the search after that many transformations were
	// evaluated. 0 means no limit.
	MaxNodes int
	// HistorySize is the number of equivalence class tables kept for
	// rolling up generalizations. Defaults to 64.
	HistorySize int
	// Seed initializes the random source of differential privacy criteria.
	Seed int64
	// Metrics records search statistics if not nil.
	Metrics *Metrics
}

// NodeInfo describes a transformation touched by the search.
type NodeInfo struct {
	Transformation lattice.Transformation
	State          lattice.State
	Anonymity      lattice.Anonymity
	// Loss is set if State has lattice.Scored.
	Loss metric.InformationLoss
	// LowerBound is set if HasLowerBound.
	LowerBound    metric.InformationLoss
	HasLowerBound bool
	// Suppressed is the number of suppressed records of checked nodes.
	Suppressed int
	// Score is the exponential mechanism score of nodes that were
	// candidates of a data-dependent differential privacy search.
	Score float64
}

// Result is the outcome of a search.
type Result struct {
	// RunID identifies the search in logs.
	RunID string
	// Optimum is the best anonymous transformation found, or nil if the
	// search was stopped before finding one.
	Optimum    lattice.Transformation
	Loss       metric.InformationLoss
	Suppressed int
	// Complete is false if the search was stopped by its context or by
	// MaxNodes. The optimum is then the best found so far.
	Complete bool
	// Checked is the number of transformations evaluated.
	Checked int
	// Dataset holds the records that were anonymized: the input, or the
	// sample drawn by a differential privacy criterion.
	Dataset *data.Dataset

	space   *lattice.Space
	info    map[int64]*NodeInfo
	checker *checker.Checker
}

// Nodes returns every node touched by the search, by level and then
// lexicographically.
func (r *Result) Nodes() []NodeInfo {
	nodes := r.space.Nodes()
	out := make([]NodeInfo, 0, len(nodes))
	for _, n := range nodes {
		var ni NodeInfo
		if info, ok := r.info[n.ID]; ok {
			ni = *info
		}
		ni.Transformation = n.Transformation
		ni.State = n.State
		ni.Anonymity = n.Anonymity
		out = append(out, ni)
	}
	return out
}

// config is a validated search configuration.
type config struct {
	runID    string
	ds       *data.Dataset
	criteria *criteria.Composite
	metric   metric.Metric
	opt      Options
	sampler  criteria.Sampler
	src      *rand.Source
	lattice  *lattice.Lattice
	checker  *checker.Checker
	history  *lru.Cache
}

func configurationError(format string, args ...interface{}) error {
	return fmt.Errorf("search: %w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

// newConfig validates the options and binds criteria and metric.
func newConfig(ds *data.Dataset, opt *Options) (*config, error) {
	if ds == nil {
		return nil, configurationError("no dataset")
	}
	if opt == nil {
		opt = &Options{}
	}
	o := *opt
	if err := checks.CheckSuppressionLimit(o.SuppressionLimit); err != nil {
		return nil, configurationError("%v", err)
	}
	if err := checks.CheckParallelism(o.Parallelism); err != nil {
		return nil, configurationError("%v", err)
	}
	if o.MaxNodes < 0 {
		return nil, configurationError("MaxNodes is %d, must be nonnegative", o.MaxNodes)
	}
	if o.HistorySize < 0 {
		return nil, configurationError("HistorySize is %d, must be nonnegative", o.HistorySize)
	}
	if o.HistorySize == 0 {
		o.HistorySize = defaultHistorySize
	}
	if o.Metric == nil {
		o.Metric = metric.NewLoss(metric.Options{})
	}

	c, err := criteria.All(o.Criteria...).BindAll(ds)
	if err != nil {
		return nil, configurationError("%v", err)
	}
	cfg := &config{runID: uuid.NewString(), ds: ds, criteria: c, opt: o}
	for _, p := range c.Parts() {
		s, ok := p.(criteria.Sampler)
		if !ok {
			continue
		}
		if cfg.sampler != nil {
			return nil, configurationError("at most one differential privacy criterion may be used, got %s and %s", cfg.sampler, s)
		}
		cfg.sampler = s
	}
	if cfg.sampler != nil {
		if _, ok := cfg.sampler.(criteria.ExponentialSearch); ok {
			if _, ok := o.Metric.(metric.Scorer); !ok {
				return nil, configurationError("metric %s cannot be used with %s", o.Metric, cfg.sampler)
			}
		}
		if o.SuppressionLimit != 1 {
			log.Infof("search %s: suppression limit raised from %g to 1 for %s", cfg.runID, o.SuppressionLimit, cfg.sampler)
			cfg.opt.SuppressionLimit = 1
		}
		cfg.src = rand.New(o.Seed)
		cfg.ds = cfg.sampler.Sample(ds, cfg.src)
		log.Infof("search %s: %s sampled %d of %d records", cfg.runID, cfg.sampler, cfg.ds.NumRecords(), cfg.ds.NumOriginalRecords())
	} else if o.SuppressionLimit == 1 {
		log.Warningf("search %s: suppression limit is 1: every record may be suppressed", cfg.runID)
	}

	if cfg.metric, err = o.Metric.Bind(cfg.ds); err != nil {
		return nil, configurationError("%v", err)
	}
	if cfg.lattice, err = lattice.New(ds.Heights()); err != nil {
		return nil, configurationError("%v", err)
	}
	cfg.checker, err = checker.New(cfg.ds, c, cfg.metric, checker.Options{
		SuppressionLimit: cfg.opt.SuppressionLimit,
		Reliable:         o.Reliable,
		Parallelism:      o.Parallelism,
	})
	if err != nil {
		return nil, configurationError("%v", err)
	}
	if cfg.history, err = lru.New(o.HistorySize); err != nil {
		return nil, configurationError("%v", err)
	}
	return cfg, nil
}

// Anonymize searches the transformations of ds for the anonymous one with
// the least information loss.
//
// Invalid options yield an error wrapping ErrConfiguration. If every
// transformation was evaluated or pruned and none is anonymous, the error
// wraps ErrInfeasible. A search stopped by ctx or MaxNodes is not an error:
// the result is marked incomplete and holds the best transformation found
// so far, if any.
func Anonymize(ctx context.Context, ds *data.Dataset, opt *Options) (*Result, error) {
	cfg, err := newConfig(ds, opt)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	log.Infof("search %s: anonymizing %d records with %s, metric %s, lattice of %d transformations",
		cfg.runID, cfg.ds.NumRecords(), cfg.criteria, cfg.metric, cfg.lattice.Size())

	s := newSearcher(ctx, cfg)
	switch c := cfg.sampler.(type) {
	case criteria.FixedScheme:
		err = s.fixed(c.Scheme())
	case criteria.ExponentialSearch:
		err = s.exponential(c)
	default:
		err = s.branchAndBound()
	}
	if err != nil {
		cfg.opt.Metrics.observeSearch("error")
		return nil, err
	}

	r := s.result()
	switch {
	case r.Optimum == nil && r.Complete:
		cfg.opt.Metrics.observeSearch("infeasible")
		log.Infof("search %s: no anonymous transformation after %d checks in %v", cfg.runID, r.Checked, time.Since(start))
		return nil, fmt.Errorf("search: %w among %d transformations for %s", ErrInfeasible, cfg.lattice.Size(), cfg.criteria)
	case !r.Complete:
		cfg.opt.Metrics.observeSearch("incomplete")
	default:
		cfg.opt.Metrics.observeSearch("complete")
	}
	log.Infof("search %s: optimum %v with loss %v and %d suppressed records after %d checks in %v (complete=%t)",
		cfg.runID, r.Optimum, r.Loss, r.Suppressed, r.Checked, time.Since(start), r.Complete)
	return r, nil
}
