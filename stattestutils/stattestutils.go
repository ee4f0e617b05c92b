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

// Package stattestutils provides goodness-of-fit helpers for randomized
// tests.
//
// This package is not optimized for performance or speed and is only intended
// to be used in tests.
package stattestutils

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquared returns Pearson's chi-squared statistic of observed counts
// against the given probabilities. Categories with probability 0 must not be
// observed and are excluded from the statistic.
func ChiSquared(observed []int, probabilities []float64) (float64, error) {
	if len(observed) != len(probabilities) {
		return 0, fmt.Errorf("stattestutils.ChiSquared: %d categories observed, %d probabilities", len(observed), len(probabilities))
	}
	n := 0
	for _, o := range observed {
		n += o
	}
	stat := 0.0
	for i, o := range observed {
		expected := probabilities[i] * float64(n)
		if expected == 0 {
			if o != 0 {
				return 0, fmt.Errorf("stattestutils.ChiSquared: category %d has probability 0 but was observed %d times", i, o)
			}
			continue
		}
		d := float64(o) - expected
		stat += d * d / expected
	}
	return stat, nil
}

// GoodnessOfFit returns the p-value of the chi-squared test that observed
// was drawn from probabilities.
func GoodnessOfFit(observed []int, probabilities []float64) (float64, error) {
	stat, err := ChiSquared(observed, probabilities)
	if err != nil {
		return 0, err
	}
	df := -1
	for _, p := range probabilities {
		if p > 0 {
			df++
		}
	}
	if df < 1 {
		return 1, nil
	}
	return distuv.ChiSquared{K: float64(df)}.Survival(stat), nil
}
