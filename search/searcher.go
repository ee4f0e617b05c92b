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

package search

import (
	"context"
	"fmt"
	"sort"
	"time"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/checker"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
	"github.com/google/differential-privacy/anonymization/metric"
)

// candidate is an anonymous transformation eligible as the optimum.
type candidate struct {
	t          lattice.Transformation
	loss       metric.InformationLoss
	suppressed int
}

// better reports whether c beats o: lower loss, then fewer suppressed
// records, then the lexicographically smaller transformation.
func (c *candidate) better(o *candidate) bool {
	if cmp := c.loss.Compare(o.loss); cmp != 0 {
		return cmp < 0
	}
	if c.suppressed != o.suppressed {
		return c.suppressed < o.suppressed
	}
	return c.t.Compare(o.t) < 0
}

// searcher holds the state of one search.
type searcher struct {
	ctx   context.Context
	cfg   *config
	space *lattice.Space
	info  map[int64]*NodeInfo
	// zeroSuppression holds the anonymous nodes known to need no
	// suppression.
	zeroSuppression map[int64]bool
	// offerChecked makes every anonymous checked node a candidate.
	offerChecked bool
	best         *candidate
	checked      int
	complete     bool
}

func newSearcher(ctx context.Context, cfg *config) *searcher {
	return &searcher{
		ctx:             ctx,
		cfg:             cfg,
		space:           lattice.NewSpace(cfg.lattice),
		info:            make(map[int64]*NodeInfo),
		zeroSuppression: make(map[int64]bool),
		offerChecked:    true,
	}
}

// stopped reports whether the node budget or the context ended the search.
func (s *searcher) stopped() bool {
	if s.cfg.opt.MaxNodes > 0 && s.checked >= s.cfg.opt.MaxNodes {
		log.Infof("search %s: stopping after %d checks", s.cfg.runID, s.checked)
		return true
	}
	if err := s.ctx.Err(); err != nil {
		log.Infof("search %s: stopping after %d checks: %v", s.cfg.runID, s.checked, err)
		return true
	}
	return false
}

func (s *searcher) nodeInfo(n *lattice.Node) *NodeInfo {
	info, ok := s.info[n.ID]
	if !ok {
		info = &NodeInfo{}
		s.info[n.ID] = info
	}
	return info
}

// cachedPredecessor returns the smallest cached table of a predecessor of
// t, or nil.
func (s *searcher) cachedPredecessor(t lattice.Transformation) *groupify.Table {
	var base *groupify.Table
	for _, p := range s.cfg.lattice.Predecessors(t) {
		v, ok := s.cfg.history.Get(s.cfg.lattice.ID(p))
		if !ok {
			continue
		}
		if table := v.(*groupify.Table); base == nil || table.Len() < base.Len() {
			base = table
		}
	}
	return base
}

// check evaluates n and records its verdict, loss and table.
func (s *searcher) check(n *lattice.Node) (*checker.Result, error) {
	n.State |= lattice.Evaluating
	base := s.cachedPredecessor(n.Transformation)
	start := time.Now()
	r, err := s.cfg.checker.Check(n.Transformation, base)
	if err != nil {
		return nil, fmt.Errorf("search: checking %v: %w", n.Transformation, err)
	}
	s.cfg.opt.Metrics.observeCheck(base != nil, time.Since(start))
	s.checked++

	verdict := lattice.NotAnonymous
	if r.Anonymous {
		verdict = lattice.Anonymous
	}
	if !n.Resolve(verdict, false) {
		if n.Anonymity != verdict {
			log.Warningf("search %s: %v was inferred %v but checked %v", s.cfg.runID, n.Transformation, n.Anonymity, verdict)
		}
		n.State &^= lattice.Evaluating
		n.State |= lattice.Checked
	}
	info := s.nodeInfo(n)
	info.Suppressed = r.Suppressed
	if r.Anonymous {
		info.Loss = r.Loss
		n.State |= lattice.Scored
		if r.Suppressed == 0 {
			s.zeroSuppression[n.ID] = true
		}
		if s.offerChecked {
			s.offer(n, r)
		}
	}
	s.cfg.history.Add(n.ID, r.Table)
	return r, nil
}

// offer makes the anonymous node n a candidate for the optimum.
func (s *searcher) offer(n *lattice.Node, r *checker.Result) {
	s.consider(&candidate{t: n.Transformation, loss: r.Loss, suppressed: r.Suppressed})
}

func (s *searcher) consider(c *candidate) {
	if s.best == nil || c.better(s.best) {
		log.V(1).Infof("search %s: new best %v with loss %v", s.cfg.runID, c.t, c.loss)
		s.best = c
	}
}

// predecessorMatches reports whether a created predecessor of n satisfies f.
func (s *searcher) predecessorMatches(n *lattice.Node, f func(*lattice.Node) bool) bool {
	for _, p := range s.cfg.lattice.Predecessors(n.Transformation) {
		if pn, ok := s.space.Lookup(s.cfg.lattice.ID(p)); ok && f(pn) {
			return true
		}
	}
	return false
}

// branchAndBound traverses the lattice level by level from the bottom.
func (s *searcher) branchAndBound() error {
	l := s.cfg.lattice
	monotonic := s.cfg.criteria.IsMonotonic()
	// Monotonicity under the active suppression setting.
	monotonicSuppressed := monotonic
	if s.cfg.opt.SuppressionLimit > 0 {
		monotonicSuppressed = s.cfg.criteria.IsMonotonicWithSuppression()
	}
	skipDominated := monotonic && s.cfg.metric.IsMonotonic()

	bottom := s.space.Node(l.Bottom())
	bottom.State |= lattice.Enqueued
	level := []*lattice.Node{bottom}
	for len(level) > 0 {
		var next []*lattice.Node
		for _, n := range level {
			if s.stopped() {
				return nil
			}
			expand, err := s.visit(n, monotonicSuppressed, skipDominated)
			if err != nil {
				return err
			}
			if !expand {
				continue
			}
			for _, t := range l.Successors(n.Transformation) {
				m := s.space.Node(t)
				if !m.State.Has(lattice.Enqueued) {
					m.State |= lattice.Enqueued
					next = append(next, m)
				}
			}
		}
		sort.Slice(next, func(i, j int) bool { return next[i].ID < next[j].ID })
		level = next
	}
	s.complete = true
	return nil
}

// visit prunes or checks n and reports whether its successors need to be
// enqueued.
func (s *searcher) visit(n *lattice.Node, monotonicSuppressed, skipDominated bool) (bool, error) {
	if s.predecessorMatches(n, func(p *lattice.Node) bool { return p.State.Has(lattice.BoundPruned) }) {
		s.prune(n)
		return false, nil
	}
	if bound, ok := s.cfg.checker.LowerBound(n.Transformation); ok {
		info := s.nodeInfo(n)
		info.LowerBound, info.HasLowerBound = bound, true
		if s.best != nil && bound.Compare(s.best.loss) > 0 {
			s.prune(n)
			return false, nil
		}
	}
	// A generalization of an anonymous node without suppression is
	// anonymous without suppression and has no smaller loss.
	if skipDominated && s.predecessorMatches(n, func(p *lattice.Node) bool { return s.zeroSuppression[p.ID] }) {
		n.Resolve(lattice.Anonymous, true)
		s.zeroSuppression[n.ID] = true
		s.cfg.opt.Metrics.observePruned(prunedInferred)
		log.V(1).Infof("search %s: %v is dominated", s.cfg.runID, n.Transformation)
		return false, nil
	}

	r, err := s.check(n)
	if err != nil {
		return false, err
	}
	switch {
	case r.Anonymous && skipDominated && r.Suppressed == 0:
		return false, nil
	case r.Anonymous && (monotonicSuppressed || r.Suppressed == 0 && s.cfg.criteria.IsMonotonic()):
		for _, t := range s.cfg.lattice.Successors(n.Transformation) {
			s.space.Node(t).Resolve(lattice.Anonymous, true)
		}
	case !r.Anonymous && monotonicSuppressed:
		if c := s.space.PropagateNotAnonymous(n.Transformation); c > 0 {
			log.V(1).Infof("search %s: %d specializations of %v inferred not anonymous", s.cfg.runID, c, n.Transformation)
		}
	}
	return true, nil
}

func (s *searcher) prune(n *lattice.Node) {
	n.State |= lattice.BoundPruned
	s.cfg.opt.Metrics.observePruned(prunedBound)
	log.V(1).Infof("search %s: %v pruned by its lower bound", s.cfg.runID, n.Transformation)
}

// fixed evaluates the single transformation t.
func (s *searcher) fixed(t lattice.Transformation) error {
	n := s.space.Node(t)
	n.State |= lattice.Enqueued
	if s.stopped() {
		return nil
	}
	if _, err := s.check(n); err != nil {
		return err
	}
	s.complete = true
	return nil
}

// result assembles the Result.
func (s *searcher) result() *Result {
	r := &Result{
		RunID:    s.cfg.runID,
		Complete: s.complete,
		Checked:  s.checked,
		Dataset:  s.cfg.ds,
		space:    s.space,
		info:     s.info,
		checker:  s.cfg.checker,
	}
	if s.best != nil {
		r.Optimum = s.best.t
		r.Loss = s.best.loss
		r.Suppressed = s.best.suppressed
		s.space.Node(s.best.t).State |= lattice.Optimum
	}
	return r
}
