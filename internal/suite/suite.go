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

// Package suite drives the two modes the CLI exposes beyond plain unit
// tests: a finite throughput benchmark (-s, -sc) and an unbounded
// randomized correctness run (-tN). Neither belongs in the core
// hybridmap package itself, per spec.md section 1's "out of scope:
// the microbenchmark harness and timing utilities".
package suite

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/cockroachdb/hybridmap"
	"github.com/cockroachdb/hybridmap/internal/refmap"
)

// Result holds one operation's measured throughput.
type Result struct {
	Op      string
	N       int
	Elapsed time.Duration
}

func (r Result) String() string {
	return fmt.Sprintf("%-8s n=%-8d %12s  (%.1f ns/op)", r.Op, r.N, r.Elapsed, float64(r.Elapsed.Nanoseconds())/float64(r.N))
}

// Run exercises Set/Get/Remove on a fresh HybridMap[int64,int64] of n
// entries, logging progress after each phase and returning the elapsed
// time of each, per spec.md section 6's -s mode.
func Run(log *zap.Logger, n int) []Result {
	m := hybridmap.New[int64, int64](hybridmap.IntTraits[int64]())
	keys := sequentialKeys(n)

	var results []Result

	start := time.Now()
	for _, k := range keys {
		m.Set(k, k*k)
	}
	results = append(results, record("Set", n, start))
	log.Info("suite: set complete", zap.Int("n", n), zap.Duration("elapsed", results[len(results)-1].Elapsed))

	start = time.Now()
	var sum int64
	for _, k := range keys {
		v, _ := m.Get(k)
		sum += v
	}
	results = append(results, record("Get", n, start))
	log.Info("suite: get complete", zap.Int("n", n), zap.Int64("checksum", sum))

	start = time.Now()
	for _, k := range keys {
		m.Remove(k)
	}
	results = append(results, record("Remove", n, start))
	log.Info("suite: remove complete", zap.Int("n", n))

	return results
}

// RunCompare runs Run against both HybridMap and the builtin-map-backed
// refmap oracle, for the CLI's -sc mode.
func RunCompare(log *zap.Logger, n int) (hybrid []Result, reference []Result) {
	hybrid = Run(log, n)

	keys := sequentialKeys(n)
	r := refmap.New[int64, int64]()

	start := time.Now()
	for _, k := range keys {
		r.Set(k, k*k)
	}
	reference = append(reference, record("Set", n, start))

	start = time.Now()
	var sum int64
	for _, k := range keys {
		v, _ := r.Get(k)
		sum += v
	}
	reference = append(reference, record("Get", n, start))
	log.Info("suite: reference get complete", zap.Int("n", n), zap.Int64("checksum", sum))

	start = time.Now()
	for _, k := range keys {
		r.Remove(k)
	}
	reference = append(reference, record("Remove", n, start))

	return hybrid, reference
}

func record(op string, n int, start time.Time) Result {
	return Result{Op: op, N: n, Elapsed: time.Since(start)}
}

func sequentialKeys(n int) []int64 {
	keys := make([]int64, n)
	for i := range keys {
		keys[i] = int64(i)
	}
	return keys
}

// RunRandomized drives an unbounded random Set/Remove workload against a
// HybridMap, diffing against a refmap oracle and calling
// AssertCorrectness after every operation, per spec.md section 6's -tN
// mode. verbosity is forwarded directly to AssertCorrectness. It returns
// only on the first assertion failure, by design (the mode is
// intentionally unbounded). Keys -1 and -2, the reserved sentinels of an
// int64 key, are never drawn.
func RunRandomized(log *zap.Logger, verbosity int, keyRange int64) error {
	m := hybridmap.New[int64, int64](hybridmap.IntTraits[int64]())
	ref := refmap.New[int64, int64]()
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var iterations int64
	for {
		iterations++
		k := rng.Int63n(2*keyRange+1) - keyRange
		for k == -1 || k == -2 {
			k = rng.Int63n(2*keyRange+1) - keyRange
		}
		if rng.Intn(2) == 0 {
			v := rng.Int63n(1 << 30)
			m.Set(k, v)
			ref.Set(k, v)
		} else {
			ref.Remove(k)
			m.Remove(k)
		}

		if err := m.AssertCorrectness(verbosity); err != nil {
			log.Error("randomized test found an invariant violation",
				zap.Int64("iterations", iterations), zap.Error(err))
			return err
		}

		if m.Len() != ref.Len() {
			err := fmt.Errorf("size mismatch after %d iterations: hybridmap=%d refmap=%d", iterations, m.Len(), ref.Len())
			log.Error("randomized test found a size mismatch", zap.Error(err))
			return err
		}

		var diffErr error
		ref.ForEach(func(rk, rv int64) bool {
			if got, ok := m.Get(rk); !ok || got != rv {
				diffErr = fmt.Errorf("value mismatch for key %d after %d iterations: hybridmap=%d refmap=%d", rk, iterations, got, rv)
			}
			return diffErr != nil
		})
		if diffErr != nil {
			log.Error("randomized test found a value mismatch", zap.Error(diffErr))
			return diffErr
		}

		if iterations%1_000_000 == 0 {
			log.Info("randomized test progress", zap.Int64("iterations", iterations), zap.Int("size", m.Len()))
		}
	}
}
