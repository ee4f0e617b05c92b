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

package groupify

import "sort"

const (
	emptyBucket        = -1
	minDistributionCap = 8
)

// Distribution is the frequency table of one sensitive attribute within an
// equivalence class. It is an open-addressed array of (value, count) pairs
// with linear probing, sized from the attribute's domain and grown at a load
// factor of 3/4.
type Distribution struct {
	// buckets holds value and count interleaved; a value of -1 marks an
	// empty bucket.
	buckets []int
	size    int
	total   int
	domain  int
}

// NewDistribution returns an empty distribution for an attribute with the
// given number of codes.
func NewDistribution(domain int) *Distribution {
	c := minDistributionCap
	for c < 2*domain && c < 64 {
		c <<= 1
	}
	d := &Distribution{domain: domain}
	d.init(c)
	return d
}

func (d *Distribution) init(capacity int) {
	d.buckets = make([]int, 2*capacity)
	for i := 0; i < len(d.buckets); i += 2 {
		d.buckets[i] = emptyBucket
	}
}

func (d *Distribution) capacity() int { return len(d.buckets) / 2 }

func (d *Distribution) slot(value int) int {
	mask := d.capacity() - 1
	i := int(uint32(value)*0x9e3779b1) & mask
	for d.buckets[2*i] != emptyBucket && d.buckets[2*i] != value {
		i = (i + 1) & mask
	}
	return i
}

// Add adds count occurrences of value.
func (d *Distribution) Add(value, count int) {
	i := d.slot(value)
	if d.buckets[2*i] == emptyBucket {
		if 4*(d.size+1) > 3*d.capacity() {
			d.grow()
			i = d.slot(value)
		}
		d.buckets[2*i] = value
		d.size++
	}
	d.buckets[2*i+1] += count
	d.total += count
}

func (d *Distribution) grow() {
	old := d.buckets
	d.init(2 * d.capacity())
	for i := 0; i < len(old); i += 2 {
		if old[i] != emptyBucket {
			j := d.slot(old[i])
			d.buckets[2*j] = old[i]
			d.buckets[2*j+1] = old[i+1]
		}
	}
}

// Merge adds every count of other.
func (d *Distribution) Merge(other *Distribution) {
	for i := 0; i < len(other.buckets); i += 2 {
		if other.buckets[i] != emptyBucket {
			d.Add(other.buckets[i], other.buckets[i+1])
		}
	}
}

// Clone returns an independent copy of d.
func (d *Distribution) Clone() *Distribution {
	c := *d
	c.buckets = append([]int(nil), d.buckets...)
	return &c
}

// Size returns the number of distinct values.
func (d *Distribution) Size() int { return d.size }

// Total returns the sum of all counts.
func (d *Distribution) Total() int { return d.total }

// Domain returns the number of codes of the attribute.
func (d *Distribution) Domain() int { return d.domain }

// Count returns the number of occurrences of value.
func (d *Distribution) Count(value int) int {
	i := d.slot(value)
	if d.buckets[2*i] == emptyBucket {
		return 0
	}
	return d.buckets[2*i+1]
}

// Frequencies returns the non-zero counts in ascending order of value, so
// that sums over them do not depend on insertion order.
func (d *Distribution) Frequencies() []int {
	values := make([]int, 0, d.size)
	d.Each(func(v, _ int) { values = append(values, v) })
	sort.Ints(values)
	out := make([]int, len(values))
	for i, v := range values {
		out[i] = d.Count(v)
	}
	return out
}

// Dense returns the counts indexed by value, with one entry per code of the
// attribute.
func (d *Distribution) Dense() []int {
	out := make([]int, d.domain)
	d.Each(func(value, count int) {
		if value < len(out) {
			out[value] = count
		}
	})
	return out
}

// Each calls f for every value with a non-zero count, in bucket order.
func (d *Distribution) Each(f func(value, count int)) {
	for i := 0; i < len(d.buckets); i += 2 {
		if d.buckets[i] != emptyBucket {
			f(d.buckets[i], d.buckets[i+1])
		}
	}
}

// Mode returns the most frequent value, the smallest one on ties, and its
// count. It returns (-1, 0) for an empty distribution.
func (d *Distribution) Mode() (value, count int) {
	value = -1
	d.Each(func(v, c int) {
		if c > count || (c == count && v < value) {
			value, count = v, c
		}
	})
	return value, count
}
