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

// Package datatest provides small datasets for tests.
//
// This package is only intended to be used in tests.
package datatest

import (
	"fmt"

	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/rand"
)

// ExampleHeader is the header of the seven-record example table.
var ExampleHeader = []string{"age", "gender", "zipcode", "disease"}

// ExampleRows is a seven-record table in which every combination of age,
// gender and zipcode is unique.
var ExampleRows = [][]string{
	{"34", "male", "81667", "flu"},
	{"45", "female", "81675", "flu"},
	{"66", "male", "81925", "cancer"},
	{"70", "female", "81931", "flu"},
	{"34", "female", "81931", "gastritis"},
	{"70", "male", "81931", "cancer"},
	{"45", "male", "81931", "flu"},
}

// AgeHierarchy groups ages 0-20 and 20-33 and keeps other ages exact before
// suppressing them.
var AgeHierarchy = [][]string{
	{"34", "34", "*"},
	{"45", "45", "*"},
	{"66", "66", "*"},
	{"70", "70", "*"},
	{"15", "[0, 20[", "*"},
	{"25", "[20, 33[", "*"},
}

// ZipcodeHierarchy redacts zipcodes digit by digit from the right.
var ZipcodeHierarchy = [][]string{
	{"81667", "8166*", "816**", "81***", "8****", "*****"},
	{"81675", "8167*", "816**", "81***", "8****", "*****"},
	{"81925", "8192*", "819**", "81***", "8****", "*****"},
	{"81931", "8193*", "819**", "81***", "8****", "*****"},
}

// ExampleDefinition declares age, gender and zipcode as quasi-identifiers
// and disease as sensitive. Gender gets the generated value → "*" hierarchy.
func ExampleDefinition() *data.Definition {
	return &data.Definition{
		QuasiIdentifiers: []string{"age", "gender", "zipcode"},
		Hierarchies: map[string][][]string{
			"age":     AgeHierarchy,
			"zipcode": ZipcodeHierarchy,
		},
		Sensitive: []string{"disease"},
	}
}

// Example returns the encoded seven-record table. It panics on error.
func Example() *data.Dataset {
	ds, err := data.Encode(ExampleHeader, ExampleRows, ExampleDefinition())
	if err != nil {
		panic(fmt.Sprintf("datatest.Example: %v", err))
	}
	return ds
}

// RandomOptions configures Random.
type RandomOptions struct {
	Records int
	// Heights holds the hierarchy height of every quasi-identifier. Each
	// attribute has 2^height level-0 values; level l halves the domain of
	// level l-1 and the top level is a single root.
	Heights []int
	// SensitiveDomains holds the domain size of every sensitive attribute.
	SensitiveDomains []int
	Seed             int64
}

// Random returns a dataset with uniformly drawn codes. It panics on error.
func Random(opt RandomOptions) *data.Dataset {
	src := rand.New(opt.Seed)
	hierarchies := make([]*data.Hierarchy, len(opt.Heights))
	for i, height := range opt.Heights {
		table := make([][]int, 1<<height)
		for c := range table {
			table[c] = make([]int, height+1)
			for l := 0; l < height; l++ {
				table[c][l] = c >> l
			}
			table[c][height] = 0
		}
		h, err := data.NewHierarchy(fmt.Sprintf("q%d", i), table)
		if err != nil {
			panic(fmt.Sprintf("datatest.Random: %v", err))
		}
		hierarchies[i] = h
	}
	qi := make([][]int, opt.Records)
	var sensitive [][]int
	names := make([]string, len(opt.SensitiveDomains))
	for i := range names {
		names[i] = fmt.Sprintf("s%d", i)
	}
	if len(opt.SensitiveDomains) > 0 {
		sensitive = make([][]int, opt.Records)
	}
	for r := range qi {
		qi[r] = make([]int, len(opt.Heights))
		for i, height := range opt.Heights {
			qi[r][i] = int(src.I63n(1 << height))
		}
		if sensitive != nil {
			sensitive[r] = make([]int, len(opt.SensitiveDomains))
			for i, d := range opt.SensitiveDomains {
				sensitive[r][i] = int(src.I63n(int64(d)))
			}
		}
	}
	ds, err := data.New(qi, hierarchies, sensitive, names)
	if err != nil {
		panic(fmt.Sprintf("datatest.Random: %v", err))
	}
	return ds
}
