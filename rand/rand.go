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

// Package rand provides the random source threaded through randomized
// anonymization steps (record sampling and exponential-mechanism selection).
//
// A Source is always created from an explicit seed so that two runs over the
// same input with the same seed make identical random decisions. There is no
// package-level generator.
package rand

import (
	"math"
	"math/bits"
	mathrand "math/rand"
)

// Source is a deterministic pseudo-random source. Not thread-safe.
type Source struct {
	r *mathrand.Rand
}

// New returns a Source seeded with seed.
func New(seed int64) *Source {
	return &Source{r: mathrand.New(mathrand.NewSource(seed))}
}

// U64 returns a uniformly random uint64.
func (s *Source) U64() uint64 {
	return s.r.Uint64()
}

// U8 returns a uniformly random uint8.
func (s *Source) U8() uint8 {
	return uint8(s.r.Uint64())
}

// I63n returns an integer from the set {0,...,n-1} uniformly at random.
// The value of n must be positive.
func (s *Source) I63n(n int64) int64 {
	largestMultipleOfN := (math.MaxInt64 / n) * n
	for {
		// Draw random 64 bit sequence and set sign bit to 0.
		positiveRandomInteger := int64(s.U64()) & 0x7fffffffffffffff
		if positiveRandomInteger < largestMultipleOfN {
			return positiveRandomInteger % n
		}
	}
}

// Uniform returns a float64 from the interval (0,1] such that each float
// in the interval is returned with positive probability and the resulting
// distribution simulates a continuous uniform distribution on (0, 1].
func (s *Source) Uniform() float64 {
	i := s.U64() % (1 << 53)
	r := (1 + float64(i)/(1<<53)) / math.Pow(2, s.Geometric())
	if r == 0 {
		return 1
	}
	return r
}

// Geometric returns a float64 that counts the number of Bernoulli trials until
// the first success for a success probability of 0.5.
func (s *Source) Geometric() float64 {
	// 1 plus the number of leading zeros from an infinite stream of random bits
	// follows the desired geometric distribution.
	b := 1
	var r uint8
	for r == 0 {
		r = s.U8()
		b += bits.LeadingZeros8(r)
	}
	return float64(b)
}

// Bernoulli returns true with probability p. p is clamped to [0, 1].
func (s *Source) Bernoulli(p float64) bool {
	if p <= 0 {
		return false
	}
	if p >= 1 {
		return true
	}
	// Uniform is in (0,1], so u <= p has probability exactly p.
	return s.Uniform() <= p
}
