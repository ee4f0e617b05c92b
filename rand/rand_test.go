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

package rand

import (
	"math"
	"testing"

	"github.com/grd/stat"
)

func TestSameSeedSameSequence(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 1000; i++ {
		if x, y := a.Uniform(), b.Uniform(); x != y {
			t.Fatalf("Uniform: draw %d differs for equal seeds: %v != %v", i, x, y)
		}
		if x, y := a.I63n(10), b.I63n(10); x != y {
			t.Fatalf("I63n: draw %d differs for equal seeds", i)
		}
	}
}

func TestDifferentSeedsDiffer(t *testing.T) {
	a, b := New(1), New(2)
	same := 0
	for i := 0; i < 100; i++ {
		if a.U64() == b.U64() {
			same++
		}
	}
	if same == 100 {
		t.Errorf("U64: sources with different seeds produced identical sequences")
	}
}

func TestUniformRange(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		if u := s.Uniform(); u <= 0 || u > 1 {
			t.Fatalf("Uniform: got %v, want value in (0, 1]", u)
		}
	}
}

func TestI63nRange(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		if v := s.I63n(13); v < 0 || v >= 13 {
			t.Fatalf("I63n(13): got %d, want value in [0, 13)", v)
		}
	}
}

func TestBernoulliStatistics(t *testing.T) {
	const numberOfSamples = 100000
	for _, p := range []float64{0.1, 0.5, 1 - math.Exp(-1)} {
		s := New(int64(p * 1000))
		samples := make(stat.IntSlice, numberOfSamples)
		for i := range samples {
			if s.Bernoulli(p) {
				samples[i] = 1
			}
		}
		mean := stat.Mean(samples)
		// Sample mean is approximately Gaussian with standard deviation
		// sqrt(p(1-p)/n); the tolerance is its 99.9995% quantile.
		tolerance := 4.41717 * math.Sqrt(p*(1-p)/numberOfSamples)
		if math.Abs(mean-p) > tolerance {
			t.Errorf("Bernoulli(%f): sample mean %f, want within %f of %f", p, mean, tolerance, p)
		}
	}
}

func TestBernoulliDegenerate(t *testing.T) {
	s := New(3)
	for i := 0; i < 100; i++ {
		if s.Bernoulli(0) {
			t.Fatalf("Bernoulli(0): got true")
		}
		if !s.Bernoulli(1) {
			t.Fatalf("Bernoulli(1): got false")
		}
	}
}
