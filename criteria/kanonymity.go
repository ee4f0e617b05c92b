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
	"github.com/google/differential-privacy/anonymization/lattice"
)

// KAnonymity requires every class to hold at least K records.
type KAnonymity struct {
	K int
}

// NewKAnonymity returns the k-anonymity criterion.
func NewKAnonymity(k int) *KAnonymity {
	return &KAnonymity{K: k}
}

func (c *KAnonymity) Bind(ds *data.Dataset) (Criterion, error) {
	if err := checks.CheckK(c.K); err != nil {
		return nil, fmt.Errorf("criteria.KAnonymity: %w", err)
	}
	return &KAnonymity{K: c.K}, nil
}

func (c *KAnonymity) SensitiveAttributes() []int { return nil }

func (c *KAnonymity) MinimalClassSize() int { return c.K }

func (c *KAnonymity) IsAnonymous(_ lattice.Transformation, e *groupify.Entry) bool {
	return e.Count >= c.K
}

// IsReliablyAnonymous compares integers and is always decided.
func (c *KAnonymity) IsReliablyAnonymous(t lattice.Transformation, e *groupify.Entry) Verdict {
	return verdict(c.IsAnonymous(t, e), nil)
}

func (c *KAnonymity) IsMonotonic() bool { return true }

func (c *KAnonymity) IsMonotonicWithSuppression() bool { return true }

func (c *KAnonymity) String() string { return fmt.Sprintf("%d-anonymity", c.K) }
