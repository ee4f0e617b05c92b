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

import (
	"sort"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDistributionAddAndGrow(t *testing.T) {
	d := NewDistribution(1000)
	want := make(map[int]int)
	for i := 0; i < 500; i++ {
		v := (i * 37) % 211
		d.Add(v, i%3+1)
		want[v] += i%3 + 1
	}
	if got := d.Size(); got != len(want) {
		t.Errorf("Size: got %d, want %d", got, len(want))
	}
	total := 0
	for v, c := range want {
		total += c
		if got := d.Count(v); got != c {
			t.Errorf("Count(%d): got %d, want %d", v, got, c)
		}
	}
	if got := d.Total(); got != total {
		t.Errorf("Total: got %d, want %d", got, total)
	}
	if got := d.Count(999); got != 0 {
		t.Errorf("Count(absent): got %d, want 0", got)
	}
}

func TestDistributionMergeAndClone(t *testing.T) {
	a, b := NewDistribution(5), NewDistribution(5)
	a.Add(0, 2)
	a.Add(3, 1)
	b.Add(3, 4)
	b.Add(4, 1)
	c := a.Clone()
	a.Merge(b)
	if diff := cmp.Diff([]int{2, 0, 0, 5, 1}, a.Dense()); diff != "" {
		t.Errorf("Merge: diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{2, 0, 0, 1, 0}, c.Dense()); diff != "" {
		t.Errorf("Clone: changed by Merge, diff (-want +got):\n%s", diff)
	}
	freq := a.Frequencies()
	sort.Ints(freq)
	if diff := cmp.Diff([]int{1, 2, 5}, freq); diff != "" {
		t.Errorf("Frequencies: diff (-want +got):\n%s", diff)
	}
}

func TestDistributionFrequenciesIgnoreInsertionOrder(t *testing.T) {
	forward, backward := NewDistribution(40), NewDistribution(40)
	var want []int
	for v := 0; v < 40; v += 3 {
		forward.Add(v, v+1)
		want = append(want, v+1)
	}
	for v := 39; v >= 0; v-- {
		if v%3 == 0 {
			backward.Add(v, v+1)
		}
	}
	if diff := cmp.Diff(want, forward.Frequencies()); diff != "" {
		t.Errorf("Frequencies: diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want, backward.Frequencies()); diff != "" {
		t.Errorf("Frequencies: reversed insertion diff (-want +got):\n%s", diff)
	}
}

func TestDistributionMode(t *testing.T) {
	d := NewDistribution(10)
	if v, c := d.Mode(); v != -1 || c != 0 {
		t.Errorf("Mode of empty distribution: got (%d, %d), want (-1, 0)", v, c)
	}
	d.Add(7, 3)
	d.Add(2, 3)
	d.Add(5, 1)
	if v, c := d.Mode(); v != 2 || c != 3 {
		t.Errorf("Mode: got (%d, %d), want (2, 3)", v, c)
	}
}
