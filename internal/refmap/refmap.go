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

// Package refmap is the reference map oracle used by the CLI's -sc
// comparison mode and randomized correctness tests: a thin wrapper over
// Go's builtin map, which by construction cannot share any bug with
// HybridMap's hybrid array/hash layout.
package refmap

// Map is a builtin-map-backed oracle with the subset of HybridMap's
// surface that admits a direct, obviously-correct reference
// implementation: no interior pointers, no Reserve, no Swap.
type Map[K comparable, V any] struct {
	m map[K]V
}

// New constructs an empty reference map.
func New[K comparable, V any]() *Map[K, V] {
	return &Map[K, V]{m: make(map[K]V)}
}

// Get returns the value for k and whether it was present.
func (r *Map[K, V]) Get(k K) (V, bool) {
	v, ok := r.m[k]
	return v, ok
}

// Set inserts or overwrites the entry for k.
func (r *Map[K, V]) Set(k K, v V) {
	r.m[k] = v
}

// Remove deletes the entry for k, reporting whether it was present.
func (r *Map[K, V]) Remove(k K) bool {
	_, ok := r.m[k]
	delete(r.m, k)
	return ok
}

// Len returns the number of entries.
func (r *Map[K, V]) Len() int {
	return len(r.m)
}

// ForEach visits every entry in unspecified order, stopping early if fn
// returns true.
func (r *Map[K, V]) ForEach(fn func(k K, v V) bool) {
	for k, v := range r.m {
		if fn(k, v) {
			return
		}
	}
}

// Equal reports whether r and other hold exactly the same key/value
// pairs.
func (r *Map[K, V]) Equal(other map[K]V) bool {
	if len(r.m) != len(other) {
		return false
	}
	for k, v := range r.m {
		ov, ok := other[k]
		if !ok {
			return false
		}
		if any(v) != any(ov) {
			return false
		}
	}
	return true
}
