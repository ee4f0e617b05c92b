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
	"fmt"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/criteria"
	"github.com/google/differential-privacy/anonymization/lattice"
	"github.com/google/differential-privacy/anonymization/mechanism"
	"github.com/google/differential-privacy/anonymization/metric"
)

// exponential walks up the lattice from the bottom. At every step the
// successors of the current pivot join the candidate pool, and the
// exponential mechanism selects the next pivot among all candidates with
// each step spending an equal share of the search budget. The optimum is the
// best anonymous node among the selected pivots.
func (s *searcher) exponential(c criteria.ExponentialSearch) error {
	scorer := s.cfg.metric.(metric.Scorer)
	k := s.cfg.sampler.MinimalClassSize()
	mech, err := mechanism.NewExponential(c.SearchEpsilon()/float64(c.Steps()), 1)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	s.offerChecked = false
	l := s.cfg.lattice

	pivot := s.space.Node(l.Bottom())
	pivot.State |= lattice.Enqueued
	if s.stopped() {
		return nil
	}
	r, err := s.check(pivot)
	if err != nil {
		return err
	}
	pivot.State |= lattice.Selected
	if r.Anonymous {
		s.offer(pivot, r)
	}

	var candidates []*lattice.Node
	for step := 0; step < c.Steps(); step++ {
		for _, t := range l.Successors(pivot.Transformation) {
			n := s.space.Node(t)
			if !n.State.Has(lattice.Enqueued) {
				n.State |= lattice.Enqueued
				candidates = append(candidates, n)
			}
		}
		if len(candidates) == 0 {
			log.V(1).Infof("search %s: no candidates left after %d steps", s.cfg.runID, step)
			break
		}
		scores := make([]float64, len(candidates))
		for i, n := range candidates {
			if !n.State.Has(lattice.Checked) {
				if s.stopped() {
					return nil
				}
				r, err := s.check(n)
				if err != nil {
					return err
				}
				s.nodeInfo(n).Score = scorer.DPScore(n.Transformation, r.Table, k)
			}
			scores[i] = s.nodeInfo(n).Score
		}
		i, err := mech.Select(scores, s.cfg.src)
		if err != nil {
			return fmt.Errorf("search: selecting step %d: %w", step, err)
		}
		pivot = candidates[i]
		candidates = append(candidates[:i], candidates[i+1:]...)
		pivot.State |= lattice.Selected
		log.V(1).Infof("search %s: step %d selected %v with score %g", s.cfg.runID, step, pivot.Transformation, scores[i])
		if pivot.Anonymity == lattice.Anonymous {
			info := s.nodeInfo(pivot)
			s.consider(&candidate{t: pivot.Transformation, loss: info.Loss, suppressed: info.Suppressed})
		}
	}
	s.complete = true
	return nil
}

