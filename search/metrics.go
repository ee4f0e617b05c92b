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
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Pruning reasons reported by Metrics.
const (
	prunedBound    = "bound"
	prunedInferred = "inferred"
)

// Groupify modes reported by Metrics.
const (
	groupifyBuild  = "build"
	groupifyRollup = "rollup"
)

// Metrics holds Prometheus collectors for searches. A nil *Metrics records
// nothing. One Metrics may be shared by concurrent searches.
type Metrics struct {
	checked       prometheus.Counter
	pruned        *prometheus.CounterVec
	groupify      *prometheus.CounterVec
	checkDuration prometheus.Histogram
	searches      *prometheus.CounterVec
}

// NewMetrics creates the search collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		checked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "anonymization",
			Subsystem: "search",
			Name:      "nodes_checked_total",
			Help:      "Number of transformations whose equivalence classes were evaluated.",
		}),
		pruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anonymization",
			Subsystem: "search",
			Name:      "nodes_pruned_total",
			Help:      "Number of transformations skipped without evaluation.",
		}, []string{"reason"}),
		groupify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anonymization",
			Subsystem: "search",
			Name:      "groupify_total",
			Help:      "Number of equivalence class tables built from records or rolled up from a cached table.",
		}, []string{"mode"}),
		checkDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "anonymization",
			Subsystem: "search",
			Name:      "check_duration_seconds",
			Help:      "Time to evaluate one transformation.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}),
		searches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "anonymization",
			Subsystem: "search",
			Name:      "searches_total",
			Help:      "Number of finished searches by outcome.",
		}, []string{"outcome"}),
	}
	for _, c := range []prometheus.Collector{m.checked, m.pruned, m.groupify, m.checkDuration, m.searches} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeCheck(rollup bool, d time.Duration) {
	if m == nil {
		return
	}
	m.checked.Inc()
	mode := groupifyBuild
	if rollup {
		mode = groupifyRollup
	}
	m.groupify.WithLabelValues(mode).Inc()
	m.checkDuration.Observe(d.Seconds())
}

func (m *Metrics) observePruned(reason string) {
	if m == nil {
		return
	}
	m.pruned.WithLabelValues(reason).Inc()
}

func (m *Metrics) observeSearch(outcome string) {
	if m == nil {
		return
	}
	m.searches.WithLabelValues(outcome).Inc()
}
