// Copyright 2024 The Cockroach Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command hybridbench drives the HybridMap performance suite and the
// randomized correctness runner described in spec.md section 6: -s runs
// the finite throughput suite, -sc additionally compares against the
// builtin-map oracle, -q silences progress logging, and -tN runs an
// unbounded randomized correctness workload at verbosity N.
package main

import (
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/cockroachdb/hybridmap/internal/suite"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("hybridbench", flag.ContinueOnError)
	// pflag parses single-dash flags as shorthands, so each flag carries a
	// one-letter shorthand; -sc is read as -s -c, and -c selects compare mode.
	runSuite := flags.BoolP("s", "s", false, "run the performance suite")
	runCompare := flags.BoolP("sc", "c", false, "run the performance suite and compare against the reference map")
	quiet := flags.BoolP("q", "q", false, "suppress progress logging")
	testVerbosity := flags.IntP("t", "t", -1, "run randomized correctness tests at verbosity N (0, 1, or 2)")
	n := flags.IntP("n", "n", 100_000, "entry count for the performance suite")
	keyRange := flags.Int64P("r", "r", 1000, "key range [-r, r] for randomized correctness tests")

	if err := flags.Parse(args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}

	log, err := newLogger(*quiet)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error: failed to construct logger:", err)
		return 1
	}
	defer log.Sync() //nolint:errcheck

	switch {
	case *testVerbosity >= 0:
		if err := suite.RunRandomized(log, *testVerbosity, *keyRange); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			return 1
		}
		return 0

	case *runCompare:
		hybrid, reference := suite.RunCompare(log, *n)
		printResults("hybridmap", hybrid)
		printResults("refmap", reference)
		return 0

	case *runSuite:
		printResults("hybridmap", suite.Run(log, *n))
		return 0

	default:
		fmt.Fprintln(os.Stderr, "usage: hybridbench [-s] [-sc] [-q] [-tN] [-n count] [-r range]")
		return 1
	}
}

func newLogger(quiet bool) (*zap.Logger, error) {
	if quiet {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
		return cfg.Build()
	}
	return zap.NewDevelopment()
}

func printResults(label string, results []suite.Result) {
	fmt.Printf("%s:\n", label)
	for _, r := range results {
		fmt.Printf("  %s\n", r)
	}
}
