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

package mechanism

import (
	"math"
	"testing"

	"github.com/google/differential-privacy/anonymization/rand"
	"github.com/google/differential-privacy/anonymization/stattestutils"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestNewExponentialErrors(t *testing.T) {
	for _, tc := range []struct {
		desc                 string
		epsilon, sensitivity float64
	}{
		{"zero epsilon", 0, 1},
		{"infinite epsilon", math.Inf(1), 1},
		{"zero sensitivity", 1, 0},
		{"NaN sensitivity", 1, math.NaN()},
	} {
		if _, err := NewExponential(tc.epsilon, tc.sensitivity); err == nil {
			t.Errorf("NewExponential: when %s got nil error, want error", tc.desc)
		}
	}
}

func TestProbabilities(t *testing.T) {
	m, err := NewExponential(2, 1)
	if err != nil {
		t.Fatalf("NewExponential: got err %v", err)
	}
	for _, tc := range []struct {
		desc   string
		scores []float64
		want   []float64
	}{
		{"equal scores", []float64{3, 3, 3, 3}, []float64{0.25, 0.25, 0.25, 0.25}},
		// Weights e^0 and e^1.
		{"unit difference", []float64{0, 1}, []float64{1 / (1 + math.E), math.E / (1 + math.E)}},
		{"large scores do not overflow", []float64{1e6, 1e6 + 1}, []float64{1 / (1 + math.E), math.E / (1 + math.E)}},
	} {
		got, err := m.Probabilities(tc.scores)
		if err != nil {
			t.Errorf("Probabilities: when %s got err %v", tc.desc, err)
			continue
		}
		if diff := cmp.Diff(tc.want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Errorf("Probabilities: when %s diff (-want +got):\n%s", tc.desc, diff)
		}
	}
	if _, err := m.Probabilities(nil); err == nil {
		t.Errorf("Probabilities: without candidates got nil error, want error")
	}
	if _, err := m.Probabilities([]float64{1, math.NaN()}); err == nil {
		t.Errorf("Probabilities: with a NaN score got nil error, want error")
	}
}

func TestSelectStatistics(t *testing.T) {
	m, err := NewExponential(1, 1)
	if err != nil {
		t.Fatalf("NewExponential: got err %v", err)
	}
	scores := []float64{0, 1, 2, 4}
	want, err := m.Probabilities(scores)
	if err != nil {
		t.Fatalf("Probabilities: got err %v", err)
	}
	src := rand.New(42)
	observed := make([]int, len(scores))
	for i := 0; i < 20000; i++ {
		j, err := m.Select(scores, src)
		if err != nil {
			t.Fatalf("Select: got err %v", err)
		}
		observed[j]++
	}
	p, err := stattestutils.GoodnessOfFit(observed, want)
	if err != nil {
		t.Fatalf("GoodnessOfFit: got err %v", err)
	}
	if p < 1e-4 {
		t.Errorf("Select: observed %v for probabilities %v, p-value %e", observed, want, p)
	}
}

func TestSelectIsDeterministicForSeed(t *testing.T) {
	m, err := NewExponential(0.5, 1)
	if err != nil {
		t.Fatalf("NewExponential: got err %v", err)
	}
	scores := []float64{1, 2, 3, 2, 1}
	draw := func(seed int64) []int {
		src := rand.New(seed)
		var out []int
		for i := 0; i < 50; i++ {
			j, err := m.Select(scores, src)
			if err != nil {
				t.Fatalf("Select: got err %v", err)
			}
			out = append(out, j)
		}
		return out
	}
	if diff := cmp.Diff(draw(7), draw(7)); diff != "" {
		t.Errorf("Select: same seed gave different draws, diff:\n%s", diff)
	}
}

func TestSamplingProbability(t *testing.T) {
	if got := SamplingProbability(math.Ln2); math.Abs(got-0.5) > 1e-15 {
		t.Errorf("SamplingProbability(ln 2): got %v, want 0.5", got)
	}
	if got := SamplingProbability(1e-20); got <= 0 {
		t.Errorf("SamplingProbability(1e-20): got %v, want strictly positive", got)
	}
}

func TestKIsSmallestAdmissible(t *testing.T) {
	for _, tc := range []struct {
		epsilon, delta float64
	}{
		{2, 1e-5},
		{1.5, 1e-6},
		{math.Ln2, 1e-7},
		{1, 1e-3},
	} {
		k, err := K(tc.epsilon, tc.delta)
		if err != nil {
			t.Errorf("K(%v, %v): got err %v", tc.epsilon, tc.delta, err)
			continue
		}
		d, err := Delta(tc.epsilon, k)
		if err != nil || d > tc.delta {
			t.Errorf("K(%v, %v) = %d: Delta got (%e, %v), want at most %e", tc.epsilon, tc.delta, k, d, err, tc.delta)
		}
		if k > 1 {
			if d, _ := Delta(tc.epsilon, k-1); d <= tc.delta {
				t.Errorf("K(%v, %v) = %d: k-1 already achieves delta %e", tc.epsilon, tc.delta, k, d)
			}
		}
	}
}

func TestKGrowsAsDeltaShrinks(t *testing.T) {
	prev := 0
	for _, delta := range []float64{1e-2, 1e-4, 1e-6, 1e-8} {
		k, err := K(1, delta)
		if err != nil {
			t.Fatalf("K(1, %v): got err %v", delta, err)
		}
		if k < prev {
			t.Errorf("K(1, %v): got %d, want at least %d", delta, k, prev)
		}
		prev = k
	}
}

func TestKErrors(t *testing.T) {
	for _, tc := range []struct {
		desc           string
		epsilon, delta float64
	}{
		{"zero epsilon", 0, 1e-5},
		{"zero delta", 1, 0},
		{"delta of one", 1, 1},
	} {
		if _, err := K(tc.epsilon, tc.delta); err == nil {
			t.Errorf("K: when %s got nil error, want error", tc.desc)
		}
	}
	if _, err := Delta(1, 0); err == nil {
		t.Errorf("Delta: with k = 0 got nil error, want error")
	}
}
