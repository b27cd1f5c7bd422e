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

// Package hybridmap implements a hybrid array/hash associative container
// keyed by integers, tuned for workloads where a large fraction of keys
// cluster near zero.
//
// # Hybrid layout
//
// A HybridMap fuses two physical structures behind one map abstraction: a
// directly-indexed array part owning a dense prefix [0, array_size) of
// keys, and an open-addressed, linear-probed hash part owning everything
// else. Unlike a classic Swiss table, neither part carries a separate
// metadata array: the array part encodes "present" in the value slot
// itself (live iff not the traits' empty marker), and the hash part
// encodes cell state in the key slot (EMPTY / REMOVED / live). This trades
// the control-byte SIMD matching of a Swiss table for a layout with zero
// per-slot overhead, which matters when the dense region dominates.
//
// An internal policy, AdaptSizes, decides on every hash overflow whether
// to grow the array part, the hash part, or both, and promotes hash
// entries into the array when they fall in its new range. The decision is
// driven by a log2-histogram of the keys currently held (see resize.go),
// favoring the largest array size whose fill ratio stays acceptable,
// since array access is strictly cheaper than a hash probe.
//
// # Interior pointers
//
// GetPtr/Set/SetIfNew return pointers directly into the owning buffer. These
// borrows are invalidated by any subsequent call that may trigger a
// resize (Set, SetIfNew, Reserve); RemovePtr and KeyOf require a borrow
// that has not been invalidated since it was taken.
//
// # Concurrency
//
// A HybridMap is not safe for concurrent use; callers synchronize
// externally. There is no shrinking, no duplicate-key semantics, and no
// ordering guarantee on ForEach.
package hybridmap
