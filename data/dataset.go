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

// Package data holds integer-coded datasets and their generalization
// hierarchies.
//
// Quasi-identifying values are level-0 codes of the attribute's Hierarchy.
// Sensitive values are codes in [0, SensitiveDomain(i)). A Dataset is
// read-only once built and can be shared by any number of searches.
package data

import (
	"fmt"
)

// Dataset is a coded table.
type Dataset struct {
	qi          [][]int
	hierarchies []*Hierarchy

	sensitive       [][]int
	sensitiveNames  []string
	sensitiveDomain []int

	// Optional decoding information, set by Encode.
	qiLabels         [][]string
	sensitiveLabels  [][]string
	insensitiveNames []string
	insensitive      [][]string

	// rows maps each record to its index in the table it was sampled from.
	// nil means the identity.
	rows        []int
	numOriginal int
}

// New returns a Dataset over the given quasi-identifier rows (one column per
// hierarchy) and sensitive rows (one column per sensitive name). sensitive
// may be nil only if there are no sensitive names or no records.
func New(qi [][]int, hierarchies []*Hierarchy, sensitive [][]int, sensitiveNames []string) (*Dataset, error) {
	if len(hierarchies) == 0 {
		return nil, fmt.Errorf("data.New: no quasi-identifying attributes")
	}
	for r, row := range qi {
		if len(row) != len(hierarchies) {
			return nil, fmt.Errorf("data.New: record %d has %d quasi-identifiers, want %d", r, len(row), len(hierarchies))
		}
		for i, code := range row {
			if code < 0 || code >= len(hierarchies[i].table) {
				return nil, fmt.Errorf("data.New: record %d: code %d of attribute %q is not in its hierarchy", r, code, hierarchies[i].name)
			}
		}
	}
	if (sensitive != nil || len(sensitiveNames) > 0) && len(sensitive) != len(qi) {
		return nil, fmt.Errorf("data.New: got %d sensitive rows for %d records", len(sensitive), len(qi))
	}
	domain := make([]int, len(sensitiveNames))
	for r, row := range sensitive {
		if len(row) != len(sensitiveNames) {
			return nil, fmt.Errorf("data.New: record %d has %d sensitive values, want %d", r, len(row), len(sensitiveNames))
		}
		for i, code := range row {
			if code < 0 {
				return nil, fmt.Errorf("data.New: record %d: negative code %d for sensitive attribute %q", r, code, sensitiveNames[i])
			}
			if code+1 > domain[i] {
				domain[i] = code + 1
			}
		}
	}
	return &Dataset{
		qi:              qi,
		hierarchies:     hierarchies,
		sensitive:       sensitive,
		sensitiveNames:  sensitiveNames,
		sensitiveDomain: domain,
		numOriginal:     len(qi),
	}, nil
}

// NumRecords returns the number of records.
func (d *Dataset) NumRecords() int { return len(d.qi) }

// NumQuasiIdentifiers returns the number of quasi-identifying attributes.
func (d *Dataset) NumQuasiIdentifiers() int { return len(d.hierarchies) }

// NumSensitive returns the number of sensitive attributes.
func (d *Dataset) NumSensitive() int { return len(d.sensitiveNames) }

// QuasiIdentifiers returns the level-0 codes of record r. The slice must not
// be modified.
func (d *Dataset) QuasiIdentifiers(r int) []int { return d.qi[r] }

// Sensitive returns the code of sensitive attribute i in record r.
func (d *Dataset) Sensitive(r, i int) int { return d.sensitive[r][i] }

// Hierarchy returns the hierarchy of quasi-identifier i.
func (d *Dataset) Hierarchy(i int) *Hierarchy { return d.hierarchies[i] }

// Heights returns the highest generalization level of every quasi-identifier.
func (d *Dataset) Heights() []int {
	h := make([]int, len(d.hierarchies))
	for i, hier := range d.hierarchies {
		h[i] = hier.height
	}
	return h
}

// QuasiIdentifierNames returns the names of the quasi-identifiers.
func (d *Dataset) QuasiIdentifierNames() []string {
	names := make([]string, len(d.hierarchies))
	for i, h := range d.hierarchies {
		names[i] = h.name
	}
	return names
}

// SensitiveNames returns the names of the sensitive attributes.
func (d *Dataset) SensitiveNames() []string { return d.sensitiveNames }

// SensitiveIndex returns the column index of the named sensitive attribute.
func (d *Dataset) SensitiveIndex(name string) (int, error) {
	for i, n := range d.sensitiveNames {
		if n == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("data: %q is not a sensitive attribute", name)
}

// SensitiveDomain returns the number of codes of sensitive attribute i.
func (d *Dataset) SensitiveDomain(i int) int { return d.sensitiveDomain[i] }

// SensitiveFrequencies returns the number of records holding each code of
// sensitive attribute i.
func (d *Dataset) SensitiveFrequencies(i int) []int {
	freq := make([]int, d.sensitiveDomain[i])
	for _, row := range d.sensitive {
		freq[row[i]]++
	}
	return freq
}

// OriginalRow returns the index of record r in the table this dataset was
// sampled from.
func (d *Dataset) OriginalRow(r int) int {
	if d.rows == nil {
		return r
	}
	return d.rows[r]
}

// NumOriginalRecords returns the number of records of the table this dataset
// was sampled from.
func (d *Dataset) NumOriginalRecords() int { return d.numOriginal }

// Subset returns the dataset restricted to the given records, in order.
// Hierarchies and decoding information are shared.
func (d *Dataset) Subset(rows []int) *Dataset {
	s := *d
	s.qi = make([][]int, len(rows))
	s.rows = make([]int, len(rows))
	if d.sensitive != nil {
		s.sensitive = make([][]int, len(rows))
	}
	if d.insensitive != nil {
		s.insensitive = make([][]string, len(rows))
	}
	for i, r := range rows {
		s.qi[i] = d.qi[r]
		s.rows[i] = d.OriginalRow(r)
		if d.sensitive != nil {
			s.sensitive[i] = d.sensitive[r]
		}
		if d.insensitive != nil {
			s.insensitive[i] = d.insensitive[r]
		}
	}
	return &s
}
