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

// Package checks contains parameter checks for privacy criteria, quality
// models and search configurations.
package checks

import (
	"fmt"
	"math"
)

const (
	epsilonName = "Epsilon"
	deltaName   = "Delta"
)

func verifyName(defaultName string, nameSlice []string) (string, error) {
	var name string
	switch len(nameSlice) {
	case 0:
		name = defaultName
	case 1:
		name = nameSlice[0]
	default:
		return "", fmt.Errorf("This should never happen. There should be 0 or 1 'name' parameter, got %d", len(nameSlice))
	}
	return name, nil
}

// CheckEpsilonStrict returns an error if ε is nonpositive or +∞.
func CheckEpsilonStrict(epsilon float64, name ...string) error {
	epsName, err := verifyName(epsilonName, name)
	if err != nil {
		return err
	}
	if epsilon <= 0 || math.IsInf(epsilon, 0) || math.IsNaN(epsilon) {
		return fmt.Errorf("%s is %f, must be strictly positive and finite", epsName, epsilon)
	}
	return nil
}

// CheckDeltaStrict returns an error if δ is nonpositive or greater than or equal to 1.
func CheckDeltaStrict(delta float64, name ...string) error {
	delName, err := verifyName(deltaName, name)
	if err != nil {
		return err
	}
	if math.IsNaN(delta) {
		return fmt.Errorf("%s is %e, cannot be NaN", delName, delta)
	}
	if delta <= 0 {
		return fmt.Errorf("%s is %e, must be strictly positive", delName, delta)
	}
	if delta >= 1 {
		return fmt.Errorf("%s is %e, must be strictly less than 1", delName, delta)
	}
	return nil
}

// CheckK returns an error if k is less than 1.
func CheckK(k int) error {
	if k < 1 {
		return fmt.Errorf("K is %d, must be at least 1", k)
	}
	return nil
}

// CheckL returns an error if l is less than 1 or not finite.
func CheckL(l float64) error {
	if l < 1 || math.IsInf(l, 0) || math.IsNaN(l) {
		return fmt.Errorf("L is %f, must be at least 1 and finite", l)
	}
	return nil
}

// CheckC returns an error if c is nonpositive or not finite.
func CheckC(c float64) error {
	if c <= 0 || math.IsInf(c, 0) || math.IsNaN(c) {
		return fmt.Errorf("C is %f, must be strictly positive and finite", c)
	}
	return nil
}

// CheckT returns an error if t is not within [0, 1].
func CheckT(t float64) error {
	if t < 0 || t > 1 || math.IsNaN(t) {
		return fmt.Errorf("T is %f, must be within [0, 1]", t)
	}
	return nil
}

// CheckRiskThreshold returns an error if the threshold is not within (0, 1].
func CheckRiskThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 1 || math.IsNaN(threshold) {
		return fmt.Errorf("Risk threshold is %f, must be within (0, 1]", threshold)
	}
	return nil
}

// CheckSuppressionLimit returns an error if the suppression limit is not within [0, 1].
func CheckSuppressionLimit(limit float64) error {
	if limit < 0 || limit > 1 || math.IsNaN(limit) {
		return fmt.Errorf("Suppression limit is %f, must be within [0, 1]", limit)
	}
	return nil
}

// CheckSteps returns an error if the number of search steps is less than 1.
func CheckSteps(steps int) error {
	if steps < 1 {
		return fmt.Errorf("Steps is %d, must be at least 1", steps)
	}
	return nil
}

// CheckWeights returns an error if the number of weights does not match the
// number of attributes or if any weight is negative or not finite. No weights
// at all means equal weights.
func CheckWeights(weights []float64, attributes int) error {
	if len(weights) == 0 {
		return nil
	}
	if len(weights) != attributes {
		return fmt.Errorf("Got %d attribute weights, want %d", len(weights), attributes)
	}
	for i, w := range weights {
		if w < 0 || math.IsInf(w, 0) || math.IsNaN(w) {
			return fmt.Errorf("Weight of attribute %d is %f, must be nonnegative and finite", i, w)
		}
	}
	return nil
}

// CheckParallelism returns an error if parallelism is negative.
func CheckParallelism(parallelism int) error {
	if parallelism < 0 {
		return fmt.Errorf("Parallelism is %d, must be nonnegative", parallelism)
	}
	return nil
}
