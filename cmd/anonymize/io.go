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

package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/google/differential-privacy/anonymization/data"
	"github.com/google/differential-privacy/anonymization/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("couldn't open the csv file = %q, err = %v", path, err)
	}
	defer f.Close()
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("couldn't read the csv file = %q, err = %v", path, err)
	}
	return records, nil
}

// readDataset reads the input table, whose first row is the header, and
// the hierarchy tables of cfg, which have no header.
func readDataset(cfg *Config) (*data.Dataset, error) {
	records, err := readCSV(cfg.Input)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("the csv file = %q has no header", cfg.Input)
	}
	def := &data.Definition{
		QuasiIdentifiers: cfg.QuasiIdentifiers,
		Hierarchies:      make(map[string][][]string, len(cfg.Hierarchies)),
		Sensitive:        cfg.Sensitive,
		Insensitive:      cfg.Insensitive,
	}
	for attribute, path := range cfg.Hierarchies {
		if def.Hierarchies[attribute], err = readCSV(path); err != nil {
			return nil, fmt.Errorf("hierarchy of %q: %w", attribute, err)
		}
	}
	return data.Encode(records[0], records[1:], def)
}

// writeOutput writes the anonymized table to path, or to stdout if path is
// empty or "-".
func writeOutput(path string, stdout io.Writer, out *search.Output) error {
	w := stdout
	if path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("couldn't create the output file = %q, err = %v", path, err)
		}
		defer f.Close()
		w = f
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(out.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(out.Rows); err != nil {
		return fmt.Errorf("couldn't write the output, err = %v", err)
	}
	return nil
}

// writeMetrics dumps every metric of g in text exposition format.
func writeMetrics(path string, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("couldn't create the metrics file = %q, err = %v", path, err)
	}
	defer f.Close()
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(f, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}
