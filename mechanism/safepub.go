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
	"fmt"
	"math"

	"github.com/google/differential-privacy/anonymization/checks"
	"gonum.org/v1/gonum/stat/distuv"
)

// maxK bounds the search for the smallest admissible k.
const maxK = 1 << 20

// SamplingProbability returns β = 1 − e^(−ε), the probability with which
// every record is kept by the random sampling step.
func SamplingProbability(epsilon float64) float64 {
	return -math.Expm1(-epsilon)
}

// gamma returns γ = (e^ε − 1 + β) / e^ε.
func gamma(epsilon, beta float64) float64 {
	return (math.Expm1(epsilon) + beta) / math.Exp(epsilon)
}

// klDivergence returns the Kullback-Leibler divergence between Bernoulli
// distributions with parameters γ and β, the exponent of the Chernoff bound
// on P[Bin(n, β) > γn].
func klDivergence(gamma, beta float64) float64 {
	return gamma*math.Log(gamma/beta) + (1-gamma)*math.Log((1-gamma)/(1-beta))
}

// Delta returns the δ achieved by random sampling with probability β
// followed by k-anonymization with class size threshold k:
//
//	δ(k) = max_{n ≥ ⌈k/γ − 1⌉} P[Bin(n, β) > γn].
//
// The maximum is taken until the Chernoff bound e^(−n·KL(γ‖β)) on the
// remaining terms drops to the running maximum.
func Delta(epsilon float64, k int) (float64, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, fmt.Errorf("mechanism.Delta: %w", err)
	}
	if err := checks.CheckK(k); err != nil {
		return 0, fmt.Errorf("mechanism.Delta: %w", err)
	}
	return deltaForK(epsilon, SamplingProbability(epsilon), k), nil
}

func deltaForK(epsilon, beta float64, k int) float64 {
	g := gamma(epsilon, beta)
	a := klDivergence(g, beta)
	start := int(math.Ceil(float64(k)/g - 1))
	if start < 1 {
		start = 1
	}
	worst := 0.0
	for n := start; ; n++ {
		b := distuv.Binomial{N: float64(n), P: beta}
		// P[X > γn] = P[X > ⌊γn⌋].
		worst = math.Max(worst, b.Survival(math.Floor(g*float64(n))))
		if math.Exp(-float64(n)*a) <= worst {
			return worst
		}
	}
}

// K returns the smallest class size threshold k such that random sampling
// with probability SamplingProbability(ε) followed by k-anonymization is
// (ε, δ)-differentially private.
func K(epsilon, delta float64) (int, error) {
	if err := checks.CheckEpsilonStrict(epsilon); err != nil {
		return 0, fmt.Errorf("mechanism.K: %w", err)
	}
	if err := checks.CheckDeltaStrict(delta); err != nil {
		return 0, fmt.Errorf("mechanism.K: %w", err)
	}
	beta := SamplingProbability(epsilon)
	// δ(k) is non-increasing in k: double until admissible, then bisect.
	hi := 1
	for deltaForK(epsilon, beta, hi) > delta {
		if hi >= maxK {
			return 0, fmt.Errorf("mechanism.K: no k up to %d achieves delta %e for epsilon %f", maxK, delta, epsilon)
		}
		hi *= 2
	}
	lo := hi/2 + 1
	for lo < hi {
		mid := lo + (hi-lo)/2
		if deltaForK(epsilon, beta, mid) <= delta {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return hi, nil
}
