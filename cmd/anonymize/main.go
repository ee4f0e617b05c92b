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

// anonymize is a command line utility which anonymizes a CSV table by
// generalization and suppression.
// Usage example:
//
//	go run ./cmd/anonymize --input=data.csv --quasi-identifiers=age,zipcode \
//	  --hierarchy=age=age.csv --hierarchy=zipcode=zipcode.csv --k=5 \
//	  --suppression-limit=0.02 --output=anonymized.csv
//
// Criteria other than k-anonymity are read from a YAML or JSON config file:
//
//	criteria:
//	  - type: entropy-l-diversity
//	    attribute: disease
//	    l: 2
//	metric:
//	  name: entropy
//	  weights: [1, 0.5]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	log "github.com/golang/glog"
	"github.com/google/differential-privacy/anonymization/search"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// configKeys maps flags to the configuration keys they set, where the two
// differ.
var configKeys = map[string]string{
	"hierarchy":        "hierarchies",
	"metric":           "metric.name",
	"metric-attribute": "metric.attribute",
	"weights":          "metric.weights",
	"aggregation":      "metric.aggregation",
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	v := viper.New()
	var cfgFile string
	cmd := &cobra.Command{
		Use:   "anonymize",
		Short: "Anonymize a CSV table by generalization and suppression",
		Long: `anonymize searches the generalization lattice of the quasi-identifiers for
the transformation that satisfies every privacy criterion with the least
information loss, and writes the table transformed by it.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// glog reads its flags from the standard flag set.
			if err := flag.CommandLine.Parse(nil); err != nil {
				return err
			}
			return initConfig(v, cfgFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(v)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, cfg, stdout)
		},
	}

	f := cmd.Flags()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "YAML or JSON config file")
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	f.StringP("input", "i", "", "Input csv file name; the first row is the header.")
	f.StringP("output", "o", "-", "Output csv file name (- for stdout).")
	f.StringSlice("quasi-identifiers", nil, "Quasi-identifying columns.")
	f.StringToString("hierarchy", nil, "Hierarchy csv file of a quasi-identifier, as column=file. Columns without one are suppressed in a single step.")
	f.StringSlice("sensitive", nil, "Sensitive columns, kept verbatim and protected by diversity criteria.")
	f.StringSlice("insensitive", nil, "Columns copied verbatim. Other columns are dropped.")
	f.Int("k", 0, "Adds k-anonymity if positive.")
	f.String("metric", "", "Information loss metric: height, precision, loss, entropy, discernibility, aecs or classification (default loss).")
	f.String("metric-attribute", "", "Class attribute of the classification metric.")
	f.StringSlice("weights", nil, "Weight of every quasi-identifier in the information loss.")
	f.String("aggregation", "sum", "Aggregation of per-attribute losses: sum, max or rank.")
	f.Float64("suppression-limit", 0, "Largest share of records that may be suppressed.")
	f.Bool("reliable", false, "Evaluate criteria with interval arithmetic.")
	f.Int64("seed", 0, "Seed of the random source of differential privacy criteria.")
	f.Int("parallelism", 0, "Number of shards used to group records.")
	f.Int("max-nodes", 0, "Stop after evaluating that many transformations (0 for no limit).")
	f.Int("history-size", 0, "Number of equivalence class tables cached for rollups.")
	f.Duration("timeout", 0, "Stop the search after that long (0 for no limit).")
	f.String("metrics-file", "", "Write search metrics in Prometheus text format to that file.")

	f.VisitAll(func(fl *pflag.Flag) {
		key, ok := configKeys[fl.Name]
		if !ok {
			key = fl.Name
		}
		cobra.CheckErr(v.BindPFlag(key, fl))
	})
	return cmd
}

func initConfig(v *viper.Viper, cfgFile string) error {
	v.SetEnvPrefix("ANONYMIZE")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()
	if cfgFile == "" {
		return nil
	}
	v.SetConfigFile(cfgFile)
	if err := v.ReadInConfig(); err != nil {
		return err
	}
	log.Infof("Using config file %s", v.ConfigFileUsed())
	return nil
}

// run anonymizes the input of cfg and writes the output.
func run(ctx context.Context, cfg *Config, stdout io.Writer) error {
	opt, err := cfg.options()
	if err != nil {
		return err
	}
	ds, err := readDataset(cfg)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	if cfg.MetricsFile != "" {
		if opt.Metrics, err = search.NewMetrics(reg); err != nil {
			return err
		}
	}
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	r, err := search.Anonymize(ctx, ds, opt)
	if cfg.MetricsFile != "" {
		if werr := writeMetrics(cfg.MetricsFile, reg); werr != nil {
			log.Warningf("Couldn't write metrics, err = %v", werr)
		}
	}
	if errors.Is(err, search.ErrInfeasible) {
		return fmt.Errorf("%w: relax the privacy criteria or raise the suppression limit", err)
	}
	if err != nil {
		return err
	}
	if r.Optimum == nil {
		return fmt.Errorf("search %s stopped after %d transformations without finding an anonymous one", r.RunID, r.Checked)
	}
	if !r.Complete {
		log.Warningf("Search %s was stopped after %d transformations; %v may not be optimal", r.RunID, r.Checked, r.Optimum)
	}
	log.Infof("Transformation %v with information loss %v suppresses %d of %d records", r.Optimum, r.Loss, r.Suppressed, r.Dataset.NumRecords())

	out, err := r.Output()
	if err != nil {
		return err
	}
	if len(out.Rows) < out.InputRecords {
		log.Infof("Releasing %d of %d input records", len(out.Rows), out.InputRecords)
	}
	return writeOutput(cfg.Output, stdout, out)
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		log.Exitf("anonymize failed, err = %v", err)
	}
}
