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

package criteria

import (
	"fmt"

	"github.com/google/differential-privacy/anonymization/checks"
	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/groupify"
	"github.com/google/differential-privacy/anonymization/interval"
	"github.com/google/differential-privacy/anonymization/lattice"
)

// AverageRisk bounds the average re-identification risk of the released
// records, the number of non-suppressed classes divided by the number of
// non-suppressed records, by Threshold. It accepts every class and decides
// on the whole table.
type AverageRisk struct {
	Threshold float64
}

// NewAverageRisk returns the average re-identification risk criterion.
func NewAverageRisk(threshold float64) *AverageRisk {
	return &AverageRisk{Threshold: threshold}
}

func (c *AverageRisk) Bind(ds *data.Dataset) (Criterion, error) {
	if err := checks.CheckRiskThreshold(c.Threshold); err != nil {
		return nil, fmt.Errorf("criteria.AverageRisk: %w", err)
	}
	return &AverageRisk{Threshold: c.Threshold}, nil
}

func (c *AverageRisk) SensitiveAttributes() []int { return nil }

func (c *AverageRisk) MinimalClassSize() int { return 0 }

func (c *AverageRisk) IsAnonymous(lattice.Transformation, *groupify.Entry) bool { return true }

func (c *AverageRisk) IsReliablyAnonymous(lattice.Transformation, *groupify.Entry) Verdict {
	return Anonymous
}

// released returns the number of non-suppressed classes and records.
func released(table *groupify.Table) (classes, records int) {
	for e := table.First(); e != nil; e = e.Next() {
		if e.IsNotOutlier {
			classes++
			records += e.Count
		}
	}
	return classes, records
}

// IsAnonymousTable accepts a table whose records are all suppressed.
func (c *AverageRisk) IsAnonymousTable(_ lattice.Transformation, table *groupify.Table) bool {
	classes, records := released(table)
	if records == 0 {
		return true
	}
	return float64(classes)/float64(records) <= c.Threshold
}

func (c *AverageRisk) IsReliablyAnonymousTable(_ lattice.Transformation, table *groupify.Table) Verdict {
	classes, records := released(table)
	if records == 0 {
		return Anonymous
	}
	risk := interval.Int(int64(classes)).Div(interval.Int(int64(records)))
	return verdict(interval.LessOrEqual(risk, interval.Point(c.Threshold)))
}

// Merging classes never raises the ratio.
func (c *AverageRisk) IsMonotonic() bool { return true }

func (c *AverageRisk) IsMonotonicWithSuppression() bool { return false }

func (c *AverageRisk) String() string {
	return fmt.Sprintf("average re-identification risk at most %g", c.Threshold)
}
