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

// Package interval implements closed-interval arithmetic over float64 with
// outward rounding. Every operation returns an interval that contains the
// exact real result of applying the operation to any reals inside its
// operands, so a comparison that succeeds on intervals also holds for the
// exact values.
//
// Faults (overflow, NaN, division by an interval containing zero) produce an
// invalid interval. Invalid intervals propagate through further arithmetic
// and make every comparison fail with ErrArithmetic.
package interval

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrIndeterminate is returned by comparisons whose operands overlap, so
	// that the outcome depends on rounding.
	ErrIndeterminate = errors.New("interval: comparison is indeterminate")
	// ErrArithmetic is returned by comparisons involving an invalid interval.
	ErrArithmetic = errors.New("interval: arithmetic fault")
	// ErrOverflow is returned by the checked integer operations.
	ErrOverflow = errors.New("interval: integer overflow")
)

// maxExactInt is the largest magnitude up to which every integer is exactly
// representable as a float64.
const maxExactInt = 1 << 53

// Interval is the closed interval [Lo, Hi].
type Interval struct {
	Lo, Hi float64
}

var invalid = Interval{Lo: math.NaN(), Hi: math.NaN()}

func (a Interval) String() string {
	return fmt.Sprintf("[%v, %v]", a.Lo, a.Hi)
}

// Valid reports whether both bounds are finite and ordered.
func (a Interval) Valid() bool {
	return !math.IsNaN(a.Lo) && !math.IsNaN(a.Hi) &&
		!math.IsInf(a.Lo, 0) && !math.IsInf(a.Hi, 0) && a.Lo <= a.Hi
}

// Point returns the degenerate interval [x, x]. x is assumed to be exact.
func Point(x float64) Interval {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return invalid
	}
	return Interval{Lo: x, Hi: x}
}

// Int returns an interval containing the integer i. Integers whose magnitude
// exceeds 2⁵³ may not be representable and are widened by one ulp.
func Int(i int64) Interval {
	x := float64(i)
	if i > maxExactInt || i < -maxExactInt {
		return Interval{Lo: down(x), Hi: up(x)}
	}
	return Interval{Lo: x, Hi: x}
}

func down(x float64) float64 { return math.Nextafter(x, math.Inf(-1)) }
func up(x float64) float64   { return math.Nextafter(x, math.Inf(1)) }

// widen rounds the computed bounds outward and checks them.
func widen(lo, hi float64) Interval {
	r := Interval{Lo: down(lo), Hi: up(hi)}
	if !r.Valid() {
		return invalid
	}
	return r
}

// Add returns a + b.
func (a Interval) Add(b Interval) Interval {
	if !a.Valid() || !b.Valid() {
		return invalid
	}
	return widen(a.Lo+b.Lo, a.Hi+b.Hi)
}

// Sub returns a - b.
func (a Interval) Sub(b Interval) Interval {
	if !a.Valid() || !b.Valid() {
		return invalid
	}
	return widen(a.Lo-b.Hi, a.Hi-b.Lo)
}

// Mult returns a · b.
func (a Interval) Mult(b Interval) Interval {
	if !a.Valid() || !b.Valid() {
		return invalid
	}
	p := [4]float64{a.Lo * b.Lo, a.Lo * b.Hi, a.Hi * b.Lo, a.Hi * b.Hi}
	lo, hi := p[0], p[0]
	for _, v := range p[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	return widen(lo, hi)
}

// Div returns a / b. The result is invalid if b contains zero.
func (a Interval) Div(b Interval) Interval {
	if !a.Valid() || !b.Valid() || (b.Lo <= 0 && b.Hi >= 0) {
		return invalid
	}
	return a.Mult(widen(1/b.Hi, 1/b.Lo))
}

// Log2 returns log₂(a). The result is invalid unless a is strictly positive.
// math.Log2 is not correctly rounded, so the bounds are widened by two ulps.
func (a Interval) Log2() Interval {
	if !a.Valid() || a.Lo <= 0 {
		return invalid
	}
	return widen(down(math.Log2(a.Lo)), up(math.Log2(a.Hi)))
}

// LessThan reports whether every value in a is less than every value in b.
// It returns ErrIndeterminate if the intervals overlap.
func LessThan(a, b Interval) (bool, error) {
	if !a.Valid() || !b.Valid() {
		return false, ErrArithmetic
	}
	if a.Hi < b.Lo {
		return true, nil
	}
	if a.Lo >= b.Hi {
		return false, nil
	}
	return false, ErrIndeterminate
}

// LessOrEqual reports whether every value in a is at most every value in b.
// It returns ErrIndeterminate if the intervals overlap in more than a point.
func LessOrEqual(a, b Interval) (bool, error) {
	if !a.Valid() || !b.Valid() {
		return false, ErrArithmetic
	}
	if a.Hi <= b.Lo {
		return true, nil
	}
	if a.Lo > b.Hi {
		return false, nil
	}
	return false, ErrIndeterminate
}

// AddExact returns a + b or ErrOverflow.
func AddExact(a, b int64) (int64, error) {
	s := a + b
	if (a > 0 && b > 0 && s < 0) || (a < 0 && b < 0 && s >= 0) {
		return 0, ErrOverflow
	}
	return s, nil
}

// MultExact returns a · b or ErrOverflow.
func MultExact(a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a || (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, ErrOverflow
	}
	return p, nil
}
