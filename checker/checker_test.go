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

package checker

import (
	"testing"

	"github.com/google/differential-privacy/anonymization/criteria"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/data/datatest"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/lattice"
	"github.com/google/differential-privacy/anonymization/metric"
	"github.com/google/go-cmp/cmp"
)

func newChecker(t *testing.T, ds *data.Dataset, m metric.Metric, opt Options, cs ...criteria.Criterion) *Checker {
	t.Helper()
	c, err := criteria.All(cs...).BindAll(ds)
	if err != nil {
		t.Fatalf("BindAll: got error %v", err)
	}
	bm, err := m.Bind(ds)
	if err != nil {
		t.Fatalf("Bind(%s): got error %v", m, err)
	}
	chk, err := New(ds, c, bm, opt)
	if err != nil {
		t.Fatalf("New: got error %v", err)
	}
	return chk
}

func mustCheck(t *testing.T, c *Checker, tr lattice.Transformation, base *groupify.Table) *Result {
	t.Helper()
	r, err := c.Check(tr, base)
	if err != nil {
		t.Fatalf("Check(%v): got error %v", tr, err)
	}
	return r
}

func TestCheck(t *testing.T) {
	ds := datatest.Example()
	for _, tc := range []struct {
		desc           string
		k              int
		limit          float64
		tr             lattice.Transformation
		wantAnonymous  bool
		wantSuppressed int
	}{
		{"two classes of 4 and 3 records", 3, 0, lattice.Transformation{2, 0, 3}, true, 0},
		{"unique records", 2, 0, lattice.Transformation{0, 0, 0}, false, 1},
		{"females suppressed within the limit", 4, 0.5, lattice.Transformation{2, 0, 3}, true, 3},
		{"females suppressed beyond the limit", 4, 0.4, lattice.Transformation{2, 0, 3}, false, 3},
		{"single class", 7, 0, lattice.Transformation{2, 1, 3}, true, 0},
	} {
		c := newChecker(t, ds, metric.NewHeight(metric.Options{}), Options{SuppressionLimit: tc.limit}, criteria.NewKAnonymity(tc.k))
		r := mustCheck(t, c, tc.tr, nil)
		if r.Anonymous != tc.wantAnonymous || r.Suppressed != tc.wantSuppressed {
			t.Errorf("Check: when %s got anonymous=%t suppressed=%d, want %t and %d",
				tc.desc, r.Anonymous, r.Suppressed, tc.wantAnonymous, tc.wantSuppressed)
		}
		if tc.wantAnonymous {
			if diff := cmp.Diff(tc.tr.Level(), int(r.Loss.Value())); diff != "" {
				t.Errorf("Check: when %s loss diff (-want +got):\n%s", tc.desc, diff)
			}
			for e := r.Table.First(); e != nil; e = e.Next() {
				if e.IsNotOutlier && e.Count < tc.k {
					t.Errorf("Check: when %s released a class of %d records", tc.desc, e.Count)
				}
			}
		}
	}
}

func TestCheckWithTableCriterion(t *testing.T) {
	ds := datatest.Example()
	// Two classes of seven records give an average risk of 2/7.
	for _, tc := range []struct {
		threshold float64
		want      bool
	}{
		{0.3, true},
		{0.25, false},
	} {
		c := newChecker(t, ds, metric.NewHeight(metric.Options{}), Options{}, criteria.NewAverageRisk(tc.threshold))
		if got := mustCheck(t, c, lattice.Transformation{2, 0, 3}, nil).Anonymous; got != tc.want {
			t.Errorf("Check: with risk threshold %g got %t, want %t", tc.threshold, got, tc.want)
		}
	}
}

func TestReliableUndecided(t *testing.T) {
	ds := datatest.Example()
	// The male class holds flu and cancer twice each: its entropy is
	// exactly log(2).
	c := newChecker(t, ds, metric.NewHeight(metric.Options{}), Options{SuppressionLimit: 1, Reliable: true},
		criteria.NewEntropyLDiversity("disease", 2))
	r := mustCheck(t, c, lattice.Transformation{2, 0, 3}, nil)
	if r.Undecided == 0 {
		t.Errorf("Check: got no undecided classes, want the male class undecided")
	}
	males := r.Table.First()
	if males.IsNotOutlier {
		t.Errorf("Check: undecided male class was released")
	}

	plain := newChecker(t, ds, metric.NewHeight(metric.Options{}), Options{SuppressionLimit: 1},
		criteria.NewEntropyLDiversity("disease", 2))
	if r := mustCheck(t, plain, lattice.Transformation{2, 0, 3}, nil); r.Undecided != 0 {
		t.Errorf("Check: without reliable evaluation got %d undecided classes", r.Undecided)
	}
}

func TestRollupMatchesBuild(t *testing.T) {
	ds := datatest.Random(datatest.RandomOptions{Records: 400, Heights: []int{2, 2, 3}, SensitiveDomains: []int{3}, Seed: 21})
	l, err := lattice.New(ds.Heights())
	if err != nil {
		t.Fatalf("lattice.New: got error %v", err)
	}
	c := newChecker(t, ds, metric.NewLoss(metric.Options{}), Options{SuppressionLimit: 0.1, Parallelism: 3},
		criteria.NewKAnonymity(3), criteria.NewDistinctLDiversity("s0", 2))
	for id := int64(0); id < l.Size(); id++ {
		tr := l.Transformation(id)
		built := mustCheck(t, c, tr, nil)
		for _, p := range l.Predecessors(tr) {
			base := mustCheck(t, c, p, nil)
			rolled := mustCheck(t, c, tr, base.Table)
			if rolled.Anonymous != built.Anonymous || rolled.Suppressed != built.Suppressed || rolled.Table.Len() != built.Table.Len() {
				t.Errorf("Check: rolled up %v from %v got anonymous=%t suppressed=%d classes=%d, want %t, %d and %d",
					tr, p, rolled.Anonymous, rolled.Suppressed, rolled.Table.Len(), built.Anonymous, built.Suppressed, built.Table.Len())
			}
			if built.Anonymous && rolled.Loss.Compare(built.Loss) != 0 {
				t.Errorf("Check: rolled up %v from %v got loss %v, want %v", tr, p, rolled.Loss, built.Loss)
			}
		}
	}
}

func TestMaterialize(t *testing.T) {
	ds := datatest.Example()
	c := newChecker(t, ds, metric.NewHeight(metric.Options{}), Options{SuppressionLimit: 0.5}, criteria.NewKAnonymity(4))
	r, err := c.Materialize(lattice.Transformation{2, 0, 3})
	if err != nil {
		t.Fatalf("Materialize: got error %v", err)
	}
	var rows [][]int
	var released []bool
	for e := r.Table.First(); e != nil; e = e.Next() {
		rows = append(rows, e.Rows)
		released = append(released, e.IsNotOutlier)
	}
	if diff := cmp.Diff([][]int{{0, 2, 5, 6}, {1, 3, 4}}, rows); diff != "" {
		t.Errorf("Materialize: rows diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]bool{true, false}, released); diff != "" {
		t.Errorf("Materialize: released diff (-want +got):\n%s", diff)
	}
}

func TestNewErrors(t *testing.T) {
	ds := datatest.Example()
	c, err := criteria.All(criteria.NewKAnonymity(2)).BindAll(ds)
	if err != nil {
		t.Fatalf("BindAll: got error %v", err)
	}
	m, err := metric.NewHeight(metric.Options{}).Bind(ds)
	if err != nil {
		t.Fatalf("Bind: got error %v", err)
	}
	for _, tc := range []struct {
		desc string
		ds   *data.Dataset
		c    *criteria.Composite
		m    metric.Metric
		opt  Options
	}{
		{"no dataset", nil, c, m, Options{}},
		{"no criteria", ds, nil, m, Options{}},
		{"no metric", ds, c, nil, Options{}},
		{"suppression limit above 1", ds, c, m, Options{SuppressionLimit: 2}},
		{"negative parallelism", ds, c, m, Options{Parallelism: -1}},
	} {
		if _, err := New(tc.ds, tc.c, tc.m, tc.opt); err == nil {
			t.Errorf("New: when %s got no error", tc.desc)
		}
	}
}

func TestDistributionMetricAttributes(t *testing.T) {
	ds := datatest.Example()
	c := newChecker(t, ds, metric.NewClassification("disease"), Options{}, criteria.NewKAnonymity(3))
	r := mustCheck(t, c, lattice.Transformation{2, 0, 3}, nil)
	if d := r.Table.First().Distributions; len(d) == 0 || d[0] == nil {
		t.Fatalf("Check: the classification metric's attribute is not tracked")
	}
	if got, want := r.Loss.Value(), 3.0/7; got != want {
		t.Errorf("Check: got loss %g, want %g", got, want)
	}
}
