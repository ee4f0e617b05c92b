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

package checks

import (
	"math"
	"testing"
)

func TestCheckEpsilonStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		epsilon float64
		wantErr bool
	}{
		{"negative epsilon",
			-2,
			true},
		{"zero epsilon",
			0,
			true},
		{"epsilon is NaN",
			math.NaN(),
			true},
		{"epsilon is positive infinity",
			math.Inf(1),
			true},
		{"small positive epsilon",
			math.Exp2(-50),
			false},
		{"positive epsilon",
			2,
			false},
	} {
		if err := CheckEpsilonStrict(tc.epsilon); (err != nil) != tc.wantErr {
			t.Errorf("CheckEpsilonStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckEpsilonStrictName(t *testing.T) {
	err := CheckEpsilonStrict(0, "SearchEpsilon")
	if err == nil || err.Error() != "SearchEpsilon is 0.000000, must be strictly positive and finite" {
		t.Errorf("CheckEpsilonStrict: got %v, want error naming SearchEpsilon", err)
	}
	if err := CheckEpsilonStrict(1, "a", "b"); err == nil {
		t.Errorf("CheckEpsilonStrict: with two names got nil error, want error")
	}
}

func TestCheckDeltaStrict(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		delta   float64
		wantErr bool
	}{
		{"negative delta", -1, true},
		{"zero delta", 0, true},
		{"delta is NaN", math.NaN(), true},
		{"delta is one", 1, true},
		{"small delta", 1e-5, false},
	} {
		if err := CheckDeltaStrict(tc.delta); (err != nil) != tc.wantErr {
			t.Errorf("CheckDeltaStrict: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestCheckPrivacyParameters(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		err     error
		wantErr bool
	}{
		{"k is zero", CheckK(0), true},
		{"k is one", CheckK(1), false},
		{"l is below one", CheckL(0.5), true},
		{"l is infinite", CheckL(math.Inf(1)), true},
		{"l is two", CheckL(2), false},
		{"c is zero", CheckC(0), true},
		{"c is positive", CheckC(0.5), false},
		{"t is above one", CheckT(1.2), true},
		{"t is negative", CheckT(-0.1), true},
		{"t is zero", CheckT(0), false},
		{"risk threshold is zero", CheckRiskThreshold(0), true},
		{"risk threshold is one", CheckRiskThreshold(1), false},
		{"steps is zero", CheckSteps(0), true},
		{"steps is ten", CheckSteps(10), false},
		{"parallelism is negative", CheckParallelism(-1), true},
		{"parallelism is zero", CheckParallelism(0), false},
	} {
		if (tc.err != nil) != tc.wantErr {
			t.Errorf("check: when %s for err got %v, want %t", tc.desc, tc.err, tc.wantErr)
		}
	}
}

func TestCheckSuppressionLimit(t *testing.T) {
	for _, tc := range []struct {
		limit   float64
		wantErr bool
	}{
		{-0.1, true},
		{0, false},
		{0.04, false},
		{1, false},
		{1.01, true},
		{math.NaN(), true},
	} {
		if err := CheckSuppressionLimit(tc.limit); (err != nil) != tc.wantErr {
			t.Errorf("CheckSuppressionLimit(%f): got %v, want error %t", tc.limit, err, tc.wantErr)
		}
	}
}

func TestCheckWeights(t *testing.T) {
	for _, tc := range []struct {
		desc       string
		weights    []float64
		attributes int
		wantErr    bool
	}{
		{"nil weights", nil, 3, false},
		{"empty weights", []float64{}, 3, false},
		{"matching weights", []float64{1, 0.5, 0}, 3, false},
		{"too few weights", []float64{1}, 3, true},
		{"negative weight", []float64{1, -1}, 2, true},
		{"NaN weight", []float64{math.NaN()}, 1, true},
	} {
		if err := CheckWeights(tc.weights, tc.attributes); (err != nil) != tc.wantErr {
			t.Errorf("CheckWeights: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}
