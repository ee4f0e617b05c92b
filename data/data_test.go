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

package data

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewHierarchyValidation(t *testing.T) {
	for _, tc := range []struct {
		desc    string
		table   [][]int
		wantErr bool
	}{
		{"empty table", nil, true},
		{"no levels", [][]int{{}}, true},
		{"ragged rows", [][]int{{0, 2}, {1}}, true},
		{"row does not start with its index", [][]int{{1, 2}, {0, 2}}, true},
		{"not monotone", [][]int{{0, 2, 4}, {1, 2, 5}}, true},
		{"two roots", [][]int{{0, 2}, {1, 3}}, true},
		{"single value", [][]int{{0}}, false},
		{"valid", [][]int{{0, 3, 5}, {1, 3, 5}, {2, 4, 5}}, false},
	} {
		if _, err := NewHierarchy("a", tc.table); (err != nil) != tc.wantErr {
			t.Errorf("NewHierarchy: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
}

func TestHierarchyAccessors(t *testing.T) {
	h, err := NewHierarchy("a", [][]int{{0, 3, 5}, {1, 3, 5}, {2, 4, 5}})
	if err != nil {
		t.Fatalf("NewHierarchy: got err %v", err)
	}
	if got := h.Height(); got != 2 {
		t.Errorf("Height: got %d, want 2", got)
	}
	if got := h.Root(); got != 5 {
		t.Errorf("Root: got %d, want 5", got)
	}
	if got := h.Generalize(1, 1); got != 3 {
		t.Errorf("Generalize(1, 1): got %d, want 3", got)
	}
	for _, tc := range []struct {
		level, want int
	}{{0, 3}, {1, 2}, {2, 1}} {
		if got := h.DomainSize(tc.level); got != tc.want {
			t.Errorf("DomainSize(%d): got %d, want %d", tc.level, got, tc.want)
		}
	}
	if got := h.Leaves(1, 3); got != 2 {
		t.Errorf("Leaves(1, 3): got %d, want 2", got)
	}
	if got := h.Leaves(2, 5); got != 3 {
		t.Errorf("Leaves(2, 5): got %d, want 3", got)
	}
}

func twoLevel(t *testing.T, name string, n int) *Hierarchy {
	t.Helper()
	table := make([][]int, n)
	for c := range table {
		table[c] = []int{c, n}
	}
	h, err := NewHierarchy(name, table)
	if err != nil {
		t.Fatalf("NewHierarchy: got err %v", err)
	}
	return h
}

func TestNewDatasetValidation(t *testing.T) {
	h := twoLevel(t, "a", 3)
	for _, tc := range []struct {
		desc      string
		qi        [][]int
		sensitive [][]int
		names     []string
		wantErr   bool
	}{
		{"code outside hierarchy", [][]int{{3}}, nil, nil, true},
		{"wrong width", [][]int{{0, 1}}, nil, nil, true},
		{"sensitive row count mismatch", [][]int{{0}, {1}}, [][]int{{0}}, []string{"s"}, true},
		{"sensitive names without values", [][]int{{0}, {1}}, nil, []string{"s"}, true},
		{"sensitive names on an empty table", nil, nil, []string{"s"}, false},
		{"negative sensitive code", [][]int{{0}}, [][]int{{-1}}, []string{"s"}, true},
		{"no sensitive attributes", [][]int{{0}, {2}}, nil, nil, false},
		{"valid", [][]int{{0}, {2}}, [][]int{{1}, {4}}, []string{"s"}, false},
	} {
		if _, err := New(tc.qi, []*Hierarchy{h}, tc.sensitive, tc.names); (err != nil) != tc.wantErr {
			t.Errorf("New: when %s for err got %v, want %t", tc.desc, err, tc.wantErr)
		}
	}
	if _, err := New(nil, nil, nil, nil); err == nil {
		t.Errorf("New: without quasi-identifiers got nil error, want error")
	}
}

func TestSensitiveFrequencies(t *testing.T) {
	ds, err := New([][]int{{0}, {1}, {2}, {0}}, []*Hierarchy{twoLevel(t, "a", 3)},
		[][]int{{2}, {0}, {2}, {1}}, []string{"s"})
	if err != nil {
		t.Fatalf("New: got err %v", err)
	}
	if got := ds.SensitiveDomain(0); got != 3 {
		t.Errorf("SensitiveDomain: got %d, want 3", got)
	}
	if diff := cmp.Diff([]int{1, 1, 2}, ds.SensitiveFrequencies(0)); diff != "" {
		t.Errorf("SensitiveFrequencies: diff (-want +got):\n%s", diff)
	}
	if _, err := ds.SensitiveIndex("t"); err == nil {
		t.Errorf("SensitiveIndex(t): got nil error, want error")
	}
}

func TestSubset(t *testing.T) {
	ds, err := New([][]int{{0}, {1}, {2}, {0}}, []*Hierarchy{twoLevel(t, "a", 3)},
		[][]int{{2}, {0}, {2}, {1}}, []string{"s"})
	if err != nil {
		t.Fatalf("New: got err %v", err)
	}
	s := ds.Subset([]int{3, 1})
	sub := s.Subset([]int{1})
	if got := s.NumRecords(); got != 2 {
		t.Errorf("Subset: NumRecords got %d, want 2", got)
	}
	if got := s.NumOriginalRecords(); got != 4 {
		t.Errorf("Subset: NumOriginalRecords got %d, want 4", got)
	}
	if got := s.OriginalRow(0); got != 3 {
		t.Errorf("Subset: OriginalRow(0) got %d, want 3", got)
	}
	if got := sub.OriginalRow(0); got != 1 {
		t.Errorf("Subset of subset: OriginalRow(0) got %d, want 1", got)
	}
	if got := s.Sensitive(0, 0); got != 1 {
		t.Errorf("Subset: Sensitive(0, 0) got %d, want 1", got)
	}
}

var (
	header = []string{"name", "age", "gender", "zip", "disease", "visits"}
	rows   = [][]string{
		{"ann", "34", "female", "81667", "flu", "2"},
		{"bob", "45", "male", "81675", "cancer", "1"},
		{"cid", "34", "male", "81667", "flu", "7"},
	}
	ageSpec = [][]string{
		{"34", "30-39", "*"},
		{"45", "40-49", "*"},
		{"15", "10-19", "*"},
	}
)

func TestEncode(t *testing.T) {
	ds, err := Encode(header, rows, &Definition{
		QuasiIdentifiers: []string{"age", "gender"},
		Hierarchies:      map[string][][]string{"age": ageSpec},
		Sensitive:        []string{"disease"},
		Insensitive:      []string{"visits"},
	})
	if err != nil {
		t.Fatalf("Encode: got err %v", err)
	}
	if diff := cmp.Diff([]int{2, 1}, ds.Heights()); diff != "" {
		t.Errorf("Encode: Heights diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"age", "gender"}, ds.QuasiIdentifierNames()); diff != "" {
		t.Errorf("Encode: QuasiIdentifierNames diff (-want +got):\n%s", diff)
	}
	// Level-0 values are coded in hierarchy order, then the generated gender
	// hierarchy in first-seen order.
	if diff := cmp.Diff([]int{0, 0}, ds.QuasiIdentifiers(0)); diff != "" {
		t.Errorf("Encode: record 0 diff (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 1}, ds.QuasiIdentifiers(1)); diff != "" {
		t.Errorf("Encode: record 1 diff (-want +got):\n%s", diff)
	}
	age := ds.Hierarchy(0)
	if got := ds.QuasiIdentifierLabel(0, age.Generalize(0, 1)); got != "30-39" {
		t.Errorf("Encode: age 34 at level 1 got %q, want %q", got, "30-39")
	}
	if got := ds.QuasiIdentifierLabel(1, ds.Hierarchy(1).Root()); got != SuppressedValue {
		t.Errorf("Encode: gender root got %q, want %q", got, SuppressedValue)
	}
	if got := ds.SensitiveLabel(0, ds.Sensitive(1, 0)); got != "cancer" {
		t.Errorf("Encode: disease of record 1 got %q, want cancer", got)
	}
	if got := ds.Sensitive(2, 0); got != ds.Sensitive(0, 0) {
		t.Errorf("Encode: equal sensitive values got codes %d and %d", ds.Sensitive(0, 0), got)
	}
	if diff := cmp.Diff([]string{"7"}, ds.Insensitive(2)); diff != "" {
		t.Errorf("Encode: insensitive cells diff (-want +got):\n%s", diff)
	}
}

func TestEncodeErrors(t *testing.T) {
	for _, tc := range []struct {
		desc string
		def  *Definition
	}{
		{"nil definition", nil},
		{"unknown quasi-identifier", &Definition{QuasiIdentifiers: []string{"height"}}},
		{"unknown sensitive attribute", &Definition{QuasiIdentifiers: []string{"age"}, Sensitive: []string{"salary"}}},
		{"value missing from hierarchy", &Definition{
			QuasiIdentifiers: []string{"age"},
			Hierarchies:      map[string][][]string{"age": {{"34", "*"}}},
		}},
		{"value listed twice", &Definition{
			QuasiIdentifiers: []string{"age"},
			Hierarchies:      map[string][][]string{"age": {{"34", "*"}, {"45", "*"}, {"34", "*"}}},
		}},
		{"non-monotone hierarchy", &Definition{
			QuasiIdentifiers: []string{"age"},
			Hierarchies:      map[string][][]string{"age": {{"34", "a", "*"}, {"45", "a", "b"}}},
		}},
	} {
		if _, err := Encode(header, rows, tc.def); err == nil {
			t.Errorf("Encode: when %s got nil error, want error", tc.desc)
		}
	}
	if _, err := Encode([]string{"a", "a"}, nil, &Definition{}); err == nil {
		t.Errorf("Encode: with duplicate columns got nil error, want error")
	}
	if _, err := Encode(header, [][]string{{"x"}}, &Definition{QuasiIdentifiers: []string{"name"}}); err == nil {
		t.Errorf("Encode: with a short row got nil error, want error")
	}
}
