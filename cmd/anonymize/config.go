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
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/differential-privacy/anonymization/criteria"
	"github.com/google/differential-privacy/anonymization/lattice"
	"github.com/google/differential-privacy/anonymization/metric"
	"github.com/google/differential-privacy/anonymization/search"
	"github.com/spf13/viper"
)

// Config is the configuration bundle of one anonymization run. Keys match
// the command line flags; every key can also be set in the config file or
// through an ANONYMIZE_ environment variable.
type Config struct {
	Input            string            `mapstructure:"input"`
	Output           string            `mapstructure:"output"`
	QuasiIdentifiers []string          `mapstructure:"quasi-identifiers"`
	Hierarchies      map[string]string `mapstructure:"hierarchies"`
	Sensitive        []string          `mapstructure:"sensitive"`
	Insensitive      []string          `mapstructure:"insensitive"`

	// K adds k-anonymity if positive.
	K        int               `mapstructure:"k"`
	Criteria []CriterionConfig `mapstructure:"criteria"`
	Metric   MetricConfig      `mapstructure:"metric"`

	SuppressionLimit float64       `mapstructure:"suppression-limit"`
	Reliable         bool          `mapstructure:"reliable"`
	Seed             int64         `mapstructure:"seed"`
	Parallelism      int           `mapstructure:"parallelism"`
	MaxNodes         int           `mapstructure:"max-nodes"`
	HistorySize      int           `mapstructure:"history-size"`
	Timeout          time.Duration `mapstructure:"timeout"`
	// MetricsFile receives the search metrics in text exposition format.
	MetricsFile string `mapstructure:"metrics-file"`
}

// CriterionConfig selects one privacy criterion. Only the parameters of
// its Type are read.
type CriterionConfig struct {
	Type          string  `mapstructure:"type"`
	Attribute     string  `mapstructure:"attribute"`
	K             int     `mapstructure:"k"`
	L             float64 `mapstructure:"l"`
	C             float64 `mapstructure:"c"`
	T             float64 `mapstructure:"t"`
	Threshold     float64 `mapstructure:"threshold"`
	Epsilon       float64 `mapstructure:"epsilon"`
	Delta         float64 `mapstructure:"delta"`
	SearchEpsilon float64 `mapstructure:"search-epsilon"`
	Steps         int     `mapstructure:"steps"`
	Scheme        []int   `mapstructure:"scheme"`
}

// MetricConfig selects the information loss metric.
type MetricConfig struct {
	Name        string    `mapstructure:"name"`
	Attribute   string    `mapstructure:"attribute"`
	Weights     []float64 `mapstructure:"weights"`
	Aggregation string    `mapstructure:"aggregation"`
}

// loadConfig reads the bundle from v, after flags, environment and config
// file were bound.
func loadConfig(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decoding configuration: %w", err)
	}
	if cfg.Input == "" {
		return nil, fmt.Errorf("no input file")
	}
	if len(cfg.QuasiIdentifiers) == 0 {
		return nil, fmt.Errorf("no quasi-identifier")
	}
	if cfg.K == 0 && len(cfg.Criteria) == 0 {
		return nil, fmt.Errorf("no privacy criterion: set k or criteria")
	}
	return cfg, nil
}

// criteria returns the configured privacy criteria.
func (c *Config) criteria() ([]criteria.Criterion, error) {
	var out []criteria.Criterion
	if c.K != 0 {
		out = append(out, criteria.NewKAnonymity(c.K))
	}
	for i, cc := range c.Criteria {
		cr, err := cc.criterion()
		if err != nil {
			return nil, fmt.Errorf("criterion %d: %w", i, err)
		}
		out = append(out, cr)
	}
	return out, nil
}

func (cc *CriterionConfig) criterion() (criteria.Criterion, error) {
	switch strings.ToLower(cc.Type) {
	case "k-anonymity":
		return criteria.NewKAnonymity(cc.K), nil
	case "distinct-l-diversity":
		return criteria.NewDistinctLDiversity(cc.Attribute, cc.L), nil
	case "entropy-l-diversity":
		return criteria.NewEntropyLDiversity(cc.Attribute, cc.L), nil
	case "recursive-cl-diversity":
		if cc.L != math.Trunc(cc.L) {
			return nil, fmt.Errorf("L is %g, must be an integer for recursive-(c,l)-diversity", cc.L)
		}
		return criteria.NewRecursiveCLDiversity(cc.Attribute, cc.C, int(cc.L)), nil
	case "equal-distance-t-closeness":
		return criteria.NewEqualDistanceTCloseness(cc.Attribute, cc.T), nil
	case "ordered-distance-t-closeness":
		return criteria.NewOrderedDistanceTCloseness(cc.Attribute, cc.T), nil
	case "average-risk":
		return criteria.NewAverageRisk(cc.Threshold), nil
	case "differential-privacy":
		return criteria.NewDifferentialPrivacy(cc.Epsilon, cc.Delta, lattice.Transformation(cc.Scheme)), nil
	case "data-dependent-differential-privacy":
		return criteria.NewDataDependentDifferentialPrivacy(cc.Epsilon, cc.SearchEpsilon, cc.Delta, cc.Steps), nil
	default:
		return nil, fmt.Errorf("unknown criterion type %q", cc.Type)
	}
}

// metric returns the configured metric, or nil for the default.
func (c *Config) metric() (metric.Metric, error) {
	agg, err := metric.ParseAggregation(c.Metric.Aggregation)
	if err != nil {
		return nil, err
	}
	opt := metric.Options{Aggregation: agg}
	if len(c.Metric.Weights) > 0 {
		opt.Weights = c.Metric.Weights
	}
	switch strings.ToLower(c.Metric.Name) {
	case "":
		return nil, nil
	case "height":
		return metric.NewHeight(opt), nil
	case "precision":
		return metric.NewPrecision(opt), nil
	case "loss":
		return metric.NewLoss(opt), nil
	case "entropy":
		return metric.NewEntropy(opt), nil
	case "discernibility":
		return metric.NewDiscernibility(), nil
	case "aecs":
		return metric.NewAECS(), nil
	case "classification":
		return metric.NewClassification(c.Metric.Attribute), nil
	default:
		return nil, fmt.Errorf("unknown metric %q", c.Metric.Name)
	}
}

// options returns the search options, without Metrics.
func (c *Config) options() (*search.Options, error) {
	cs, err := c.criteria()
	if err != nil {
		return nil, err
	}
	m, err := c.metric()
	if err != nil {
		return nil, err
	}
	return &search.Options{
		Criteria:         cs,
		Metric:           m,
		SuppressionLimit: c.SuppressionLimit,
		Reliable:         c.Reliable,
		Parallelism:      c.Parallelism,
		MaxNodes:         c.MaxNodes,
		HistorySize:      c.HistorySize,
		Seed:             c.Seed,
	}, nil
}
