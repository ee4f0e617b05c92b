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

package search

import (
	"fmt"

	"github.com/google/differential-privacy/anonymization/data"
)

// Output is the anonymized table of a result.
type Output struct {
	// Header lists the quasi-identifiers, then the sensitive attributes,
	// then the insensitive attributes.
	Header []string
	// Rows holds one row per record of Result.Dataset, in record order.
	// Quasi-identifiers of suppressed records are data.SuppressedValue.
	Rows [][]string
	// Records[i] is the index of Rows[i] in the input table. It differs
	// from i when a differential privacy criterion sampled the records.
	Records []int
	// InputRecords is the number of records of the input table.
	InputRecords int
	// Suppressed is the number of suppressed records.
	Suppressed int
}

// Output renders the records of the result under its optimum.
func (r *Result) Output() (*Output, error) {
	if r.Optimum == nil {
		return nil, fmt.Errorf("search: result %s has no optimum", r.RunID)
	}
	m, err := r.checker.Materialize(r.Optimum)
	if err != nil {
		return nil, fmt.Errorf("search: rendering %v: %w", r.Optimum, err)
	}
	ds := r.Dataset
	qi, sensitive := ds.NumQuasiIdentifiers(), ds.NumSensitive()
	out := &Output{Suppressed: m.Suppressed, InputRecords: ds.NumOriginalRecords()}
	out.Header = append(out.Header, ds.QuasiIdentifierNames()...)
	out.Header = append(out.Header, ds.SensitiveNames()...)
	out.Header = append(out.Header, ds.InsensitiveNames()...)

	out.Rows = make([][]string, ds.NumRecords())
	out.Records = make([]int, ds.NumRecords())
	for e := m.Table.First(); e != nil; e = e.Next() {
		for _, rec := range e.Rows {
			row := make([]string, 0, len(out.Header))
			for a := 0; a < qi; a++ {
				if e.IsNotOutlier {
					row = append(row, ds.QuasiIdentifierLabel(a, e.Key[a]))
				} else {
					row = append(row, data.SuppressedValue)
				}
			}
			for i := 0; i < sensitive; i++ {
				row = append(row, ds.SensitiveLabel(i, ds.Sensitive(rec, i)))
			}
			row = append(row, ds.Insensitive(rec)...)
			out.Rows[rec] = row
			out.Records[rec] = ds.OriginalRow(rec)
		}
	}
	return out, nil
}
