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
	"fmt"
)

// SuppressedValue is the label of the root value of generated hierarchies
// and of suppressed cells in decoded output.
const SuppressedValue = "*"

// Definition assigns attribute types to the columns of a string table.
// Columns not named anywhere are identifying and are dropped.
type Definition struct {
	QuasiIdentifiers []string
	// Hierarchies maps a quasi-identifier to its hierarchy table. Each row
	// lists a value followed by its generalizations, one per level. A
	// quasi-identifier without a table gets the two-level hierarchy
	// value → "*".
	Hierarchies map[string][][]string
	Sensitive   []string
	Insensitive []string
}

// dictionary assigns consecutive codes to strings in first-seen order.
type dictionary struct {
	codes  map[string]int
	labels []string
}

func newDictionary() *dictionary {
	return &dictionary{codes: make(map[string]int)}
}

func (d *dictionary) code(s string) int {
	if c, ok := d.codes[s]; ok {
		return c
	}
	c := len(d.labels)
	d.codes[s] = c
	d.labels = append(d.labels, s)
	return c
}

// Encode converts a string table into a coded Dataset.
func Encode(header []string, rows [][]string, def *Definition) (*Dataset, error) {
	if def == nil {
		return nil, fmt.Errorf("data.Encode: no attribute definition")
	}
	column := make(map[string]int, len(header))
	for i, name := range header {
		if _, ok := column[name]; ok {
			return nil, fmt.Errorf("data.Encode: duplicate column %q", name)
		}
		column[name] = i
	}
	index := func(name string) (int, error) {
		i, ok := column[name]
		if !ok {
			return 0, fmt.Errorf("data.Encode: unknown column %q", name)
		}
		return i, nil
	}
	for r, row := range rows {
		if len(row) != len(header) {
			return nil, fmt.Errorf("data.Encode: row %d has %d cells, want %d", r, len(row), len(header))
		}
	}

	qi := make([][]int, len(rows))
	for r := range qi {
		qi[r] = make([]int, len(def.QuasiIdentifiers))
	}
	hierarchies := make([]*Hierarchy, len(def.QuasiIdentifiers))
	qiLabels := make([][]string, len(def.QuasiIdentifiers))
	for a, name := range def.QuasiIdentifiers {
		col, err := index(name)
		if err != nil {
			return nil, err
		}
		spec := def.Hierarchies[name]
		if spec == nil {
			spec = trivialHierarchy(rows, col)
		}
		dict, table, err := encodeHierarchy(name, spec)
		if err != nil {
			return nil, err
		}
		for r, row := range rows {
			c, ok := dict.codes[row[col]]
			if !ok || c >= len(table) {
				return nil, fmt.Errorf("data.Encode: value %q of attribute %q in row %d is not in its hierarchy", row[col], name, r)
			}
			qi[r][a] = c
		}
		if hierarchies[a], err = NewHierarchy(name, table); err != nil {
			return nil, fmt.Errorf("data.Encode: %w", err)
		}
		qiLabels[a] = dict.labels
	}

	var sensitive [][]int
	sensitiveLabels := make([][]string, len(def.Sensitive))
	if len(def.Sensitive) > 0 {
		sensitive = make([][]int, len(rows))
		for r := range sensitive {
			sensitive[r] = make([]int, len(def.Sensitive))
		}
	}
	for a, name := range def.Sensitive {
		col, err := index(name)
		if err != nil {
			return nil, err
		}
		dict := newDictionary()
		for r, row := range rows {
			sensitive[r][a] = dict.code(row[col])
		}
		sensitiveLabels[a] = dict.labels
	}

	ds, err := New(qi, hierarchies, sensitive, def.Sensitive)
	if err != nil {
		return nil, err
	}
	ds.qiLabels = qiLabels
	ds.sensitiveLabels = sensitiveLabels

	if len(def.Insensitive) > 0 {
		cols := make([]int, len(def.Insensitive))
		for i, name := range def.Insensitive {
			if cols[i], err = index(name); err != nil {
				return nil, err
			}
		}
		ds.insensitiveNames = def.Insensitive
		ds.insensitive = make([][]string, len(rows))
		for r, row := range rows {
			ds.insensitive[r] = make([]string, len(cols))
			for i, c := range cols {
				ds.insensitive[r][i] = row[c]
			}
		}
	}
	return ds, nil
}

func trivialHierarchy(rows [][]string, col int) [][]string {
	seen := make(map[string]bool)
	var spec [][]string
	for _, row := range rows {
		if !seen[row[col]] {
			seen[row[col]] = true
			spec = append(spec, []string{row[col], SuppressedValue})
		}
	}
	return spec
}

// encodeHierarchy codes the level-0 values first so that they occupy
// [0, len(spec)), then the labels of the higher levels.
func encodeHierarchy(name string, spec [][]string) (*dictionary, [][]int, error) {
	dict := newDictionary()
	for r, row := range spec {
		if len(row) == 0 {
			return nil, nil, fmt.Errorf("data.Encode: hierarchy %q: row %d is empty", name, r)
		}
		if c := dict.code(row[0]); c != r {
			return nil, nil, fmt.Errorf("data.Encode: hierarchy %q: value %q is listed twice", name, row[0])
		}
	}
	table := make([][]int, len(spec))
	for r, row := range spec {
		table[r] = make([]int, len(row))
		for l, label := range row {
			table[r][l] = dict.code(label)
		}
	}
	return dict, table, nil
}

// QuasiIdentifierLabel returns the string for a code of quasi-identifier i.
func (d *Dataset) QuasiIdentifierLabel(i, code int) string {
	if d.qiLabels == nil {
		return fmt.Sprint(code)
	}
	return d.qiLabels[i][code]
}

// SensitiveLabel returns the string for a code of sensitive attribute i.
func (d *Dataset) SensitiveLabel(i, code int) string {
	if d.sensitiveLabels == nil || d.sensitiveLabels[i] == nil {
		return fmt.Sprint(code)
	}
	return d.sensitiveLabels[i][code]
}

// InsensitiveNames returns the names of the attributes copied to the output
// unchanged.
func (d *Dataset) InsensitiveNames() []string { return d.insensitiveNames }

// Insensitive returns the insensitive cells of record r.
func (d *Dataset) Insensitive(r int) []string {
	if d.insensitive == nil {
		return nil
	}
	return d.insensitive[r]
}
