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
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/differential-privacy/anonymization/criteria"
	"github.com/google/differential-privacy/anonymization/data/datatest"
	"github.com/google/differential-privacy/anonymization/metric"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeCSV(t *testing.T, path string, records [][]string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(records))
}

// exampleFiles writes the example table and its hierarchies to a temporary
// directory and returns their paths.
func exampleFiles(t *testing.T) (input, age, zipcode string) {
	t.Helper()
	dir := t.TempDir()
	input = filepath.Join(dir, "input.csv")
	age = filepath.Join(dir, "age.csv")
	zipcode = filepath.Join(dir, "zipcode.csv")
	writeCSV(t, input, append([][]string{datatest.ExampleHeader}, datatest.ExampleRows...))
	writeCSV(t, age, datatest.AgeHierarchy)
	writeCSV(t, zipcode, datatest.ZipcodeHierarchy)
	return input, age, zipcode
}

func readOutput(t *testing.T, out string) [][]string {
	t.Helper()
	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	return records
}

func TestCommand(t *testing.T) {
	input, age, zipcode := exampleFiles(t)
	metricsFile := filepath.Join(t.TempDir(), "metrics.txt")
	var stdout bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetArgs([]string{
		"--input", input,
		"--quasi-identifiers", "age,gender,zipcode",
		"--hierarchy", "age=" + age,
		"--hierarchy", "zipcode=" + zipcode,
		"--sensitive", "disease",
		"--k", "3",
		"--metric", "height",
		"--metrics-file", metricsFile,
	})
	require.NoError(t, cmd.Execute())

	records := readOutput(t, stdout.String())
	require.Len(t, records, 8)
	assert.Equal(t, []string{"age", "gender", "zipcode", "disease"}, records[0])
	assert.Equal(t, []string{"*", "male", "81***", "flu"}, records[1])
	assert.Equal(t, []string{"*", "female", "81***", "gastritis"}, records[5])

	metrics, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(metrics), "anonymization_search_nodes_checked_total")
	assert.Contains(t, string(metrics), `anonymization_search_searches_total{outcome="complete"} 1`)
}

func TestCommandMetricWithoutWeights(t *testing.T) {
	input, age, zipcode := exampleFiles(t)
	for _, m := range []string{"height", "loss", "precision", "entropy"} {
		var stdout bytes.Buffer
		cmd := newRootCmd(&stdout)
		cmd.SetArgs([]string{
			"--input", input,
			"--quasi-identifiers", "age,gender,zipcode",
			"--hierarchy", "age=" + age + ",zipcode=" + zipcode,
			"--k", "3",
			"--metric", m,
		})
		require.NoError(t, cmd.Execute(), m)
		assert.Len(t, readOutput(t, stdout.String()), 8, m)
	}
}

func TestCommandConfigFile(t *testing.T) {
	input, age, zipcode := exampleFiles(t)
	dir := t.TempDir()
	output := filepath.Join(dir, "output.csv")
	config := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(config, []byte(`
input: `+input+`
output: `+output+`
quasi-identifiers: [age, gender, zipcode]
hierarchies:
  age: `+age+`
  zipcode: `+zipcode+`
sensitive: [disease]
criteria:
  - type: k-anonymity
    k: 4
suppression-limit: 0.5
metric:
  name: height
  weights: [1, 1, 1]
`), 0o644))

	var stdout bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetArgs([]string{"--config", config})
	require.NoError(t, cmd.Execute())
	assert.Empty(t, stdout.String())

	b, err := os.ReadFile(output)
	require.NoError(t, err)
	records := readOutput(t, string(b))
	require.Len(t, records, 8)
	// The released class keeps its exact zipcode.
	suppressed := 0
	for _, r := range records[1:] {
		if r[2] == "*" {
			suppressed++
		}
	}
	assert.Equal(t, 3, suppressed)
}

func TestCommandEnvironment(t *testing.T) {
	input, age, zipcode := exampleFiles(t)
	t.Setenv("ANONYMIZE_INPUT", input)
	t.Setenv("ANONYMIZE_QUASI_IDENTIFIERS", "age,gender,zipcode")
	t.Setenv("ANONYMIZE_K", "3")
	t.Setenv("ANONYMIZE_METRIC_NAME", "height")
	var stdout bytes.Buffer
	cmd := newRootCmd(&stdout)
	cmd.SetArgs([]string{"--hierarchy", "age=" + age + ",zipcode=" + zipcode})
	require.NoError(t, cmd.Execute())
	records := readOutput(t, stdout.String())
	require.Len(t, records, 8)
	assert.Equal(t, []string{"age", "gender", "zipcode"}, records[0])
	assert.Equal(t, []string{"*", "female", "81***"}, records[2])
}

func TestCommandErrors(t *testing.T) {
	input, age, _ := exampleFiles(t)
	for _, tc := range []struct {
		desc string
		args []string
		want string
	}{
		{"no input", []string{"--quasi-identifiers", "age", "--k", "2"}, "no input file"},
		{"no quasi-identifier", []string{"--input", input, "--k", "2"}, "no quasi-identifier"},
		{"no criterion", []string{"--input", input, "--quasi-identifiers", "age"}, "no privacy criterion"},
		{"missing input", []string{"--input", input + ".missing", "--quasi-identifiers", "age", "--k", "2"}, "couldn't open"},
		{"unknown metric", []string{"--input", input, "--quasi-identifiers", "age", "--k", "2", "--metric", "utility"}, "unknown metric"},
		{"unknown column", []string{"--input", input, "--quasi-identifiers", "salary", "--k", "2"}, "unknown column"},
		{"infeasible", []string{"--input", input, "--quasi-identifiers", "age", "--hierarchy", "age=" + age, "--k", "8"}, "relax the privacy criteria"},
		{"invalid k", []string{"--input", input, "--quasi-identifiers", "age", "--k=-1"}, "invalid configuration"},
	} {
		var stdout bytes.Buffer
		cmd := newRootCmd(&stdout)
		cmd.SetArgs(tc.args)
		cmd.SetErr(&bytes.Buffer{})
		err := cmd.Execute()
		if assert.Error(t, err, tc.desc) {
			assert.Contains(t, err.Error(), tc.want, tc.desc)
		}
	}
}

func TestConfigOptions(t *testing.T) {
	cfg := &Config{
		K: 5,
		Criteria: []CriterionConfig{
			{Type: "distinct-l-diversity", Attribute: "disease", L: 2},
			{Type: "Recursive-CL-Diversity", Attribute: "disease", C: 3, L: 2},
			{Type: "ordered-distance-t-closeness", Attribute: "disease", T: 0.2},
			{Type: "average-risk", Threshold: 0.1},
			{Type: "differential-privacy", Epsilon: 1, Delta: 1e-5, Scheme: []int{1, 0, 2}},
		},
		Metric:           MetricConfig{Name: "loss", Weights: []float64{1, 2, 3}, Aggregation: "rank"},
		SuppressionLimit: 0.1,
		Seed:             4,
		MaxNodes:         10,
		Timeout:          time.Second,
	}
	opt, err := cfg.options()
	require.NoError(t, err)
	require.Len(t, opt.Criteria, 6)
	assert.IsType(t, &criteria.KAnonymity{}, opt.Criteria[0])
	assert.IsType(t, &criteria.RecursiveCLDiversity{}, opt.Criteria[2])
	assert.IsType(t, &criteria.DifferentialPrivacy{}, opt.Criteria[5])
	assert.IsType(t, &metric.Loss{}, opt.Metric)
	assert.Equal(t, int64(4), opt.Seed)
	assert.Equal(t, 10, opt.MaxNodes)

	cfg.Criteria = []CriterionConfig{{Type: "recursive-cl-diversity", C: 3, L: 2.5}}
	_, err = cfg.options()
	assert.Error(t, err)
	cfg.Criteria = []CriterionConfig{{Type: "delta-presence"}}
	_, err = cfg.options()
	assert.ErrorContains(t, err, "unknown criterion type")
	cfg.Criteria = nil
	cfg.Metric = MetricConfig{Name: "entropy", Weights: []float64{}}
	opt, err = cfg.options()
	require.NoError(t, err)
	assert.IsType(t, &metric.Entropy{}, opt.Metric)
	cfg.Metric = MetricConfig{Aggregation: "median"}
	_, err = cfg.options()
	assert.Error(t, err)
}

func TestRunStopped(t *testing.T) {
	input, age, zipcode := exampleFiles(t)
	cfg := &Config{
		Input:            input,
		QuasiIdentifiers: []string{"age", "gender", "zipcode"},
		Hierarchies:      map[string]string{"age": age, "zipcode": zipcode},
		K:                3,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var stdout bytes.Buffer
	err := run(ctx, cfg, &stdout)
	assert.ErrorContains(t, err, "without finding an anonymous one")
	assert.Empty(t, stdout.String())
}
