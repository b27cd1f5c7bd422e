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

package hybridmap

import (
	"fmt"
	"strings"
	"unsafe"
)

// invariants gates every precondition panic in this package (reserved-key
// checks, empty-value checks). It mirrors a C++ debug-build assertion: set
// it to true in a development build to catch misuse, leave it false in a
// release build where callers are trusted to uphold preconditions. It
// does not gate AssertCorrectness, which is always available and is the
// only sanctioned way to check I1-I10 (see errors.go).
const invariants = false

// HybridMap is a hybrid array/hash map from integer keys to arbitrary
// values. See the package doc for the layout and invalidation rules. The
// zero value is not usable; construct with New.
type HybridMap[K Key, V any] struct {
	array     arrayPart[V]
	hash      hashPart[K, V]
	sentinels sentinels[K]
	traits    ValueTraits[V]
}

// New constructs an empty HybridMap. traits supplies the empty marker for
// V; use IntTraits, Float64Traits, Float32Traits, PointerTraits, or
// DefaultTraits, or provide a custom ValueTraits for a type with its own
// natural empty value.
func New[K Key, V any](traits ValueTraits[V], options ...option[K, V]) *HybridMap[K, V] {
	m := &HybridMap[K, V]{
		traits:    traits,
		sentinels: deriveSentinels[K](),
	}
	m.hash.hash = defaultHash

	for _, op := range options {
		op.apply(m)
	}
	return m
}

func (m *HybridMap[K, V]) checkKey(k K) {
	if !invariants {
		return
	}
	if k == m.sentinels.empty || k == m.sentinels.removed {
		panic(fmt.Sprintf("hybridmap: key %v collides with a reserved sentinel", k))
	}
}

func (m *HybridMap[K, V]) checkValue(v V) {
	if !invariants {
		return
	}
	if m.traits.IsEmpty(v) {
		panic("hybridmap: value passed to Set/SetIfNew must not be the empty marker")
	}
}

// Get returns the value stored for k, or the traits' empty marker and
// false if k is absent.
func (m *HybridMap[K, V]) Get(k K) (V, bool) {
	m.checkKey(k)
	uk := unsigned(k)
	var v V
	var ok bool
	if inArray(uk, uint64(len(m.array.buf))) {
		v, ok = m.array.get(uk, m.traits)
	} else {
		v, ok = m.hash.get(k, m.sentinels)
	}
	if !ok {
		return m.traits.Empty(), false
	}
	return v, true
}

// GetPtr returns a pointer to the value stored for k, or nil if k is
// absent. The pointer is a borrow invalidated by the next Set, SetIfNew,
// or Reserve call on m.
func (m *HybridMap[K, V]) GetPtr(k K) *V {
	m.checkKey(k)
	uk := unsigned(k)
	if inArray(uk, uint64(len(m.array.buf))) {
		return m.array.getPtr(uk, m.traits)
	}
	return m.hash.getPtr(k, m.sentinels)
}

// Set inserts or overwrites the entry for k, returning a pointer to the
// stored value. The pointer, and any pointer previously returned by this
// map, is invalidated if this call triggers a resize.
func (m *HybridMap[K, V]) Set(k K, v V) *V {
	m.checkKey(k)
	m.checkValue(v)
	uk := unsigned(k)
	if inArray(uk, uint64(len(m.array.buf))) {
		return m.array.set(uk, v, m.traits)
	}

	if m.hash.atOrPastMaxFill() {
		m.relocate(adaptSizes(m, k))
		uk = unsigned(k)
		if inArray(uk, uint64(len(m.array.buf))) {
			return m.array.set(uk, v, m.traits)
		}
	}

	ptr, _ := m.hash.put(k, v, m.sentinels)
	return ptr
}

// SetIfNew inserts the entry for k iff it is absent. On insert it returns
// nil; if k was already present it returns a pointer to the existing
// value and makes no change.
func (m *HybridMap[K, V]) SetIfNew(k K, v V) *V {
	m.checkKey(k)
	m.checkValue(v)
	uk := unsigned(k)
	if inArray(uk, uint64(len(m.array.buf))) {
		return m.array.setIfNew(uk, v, m.traits)
	}

	if m.hash.atOrPastMaxFill() {
		m.relocate(adaptSizes(m, k))
		uk = unsigned(k)
		if inArray(uk, uint64(len(m.array.buf))) {
			return m.array.setIfNew(uk, v, m.traits)
		}
	}

	return m.hash.setIfNew(k, v, m.sentinels)
}

// Remove deletes the entry for k, if present. It reports whether an
// entry was removed. Any pointer to the removed cell is invalidated.
func (m *HybridMap[K, V]) Remove(k K) bool {
	m.checkKey(k)
	uk := unsigned(k)
	if inArray(uk, uint64(len(m.array.buf))) {
		return m.array.remove(uk, m.traits)
	}
	return m.hash.remove(k, m.sentinels, m.traits)
}

// arrayIndexOf reports the array index owning p, if p points within the
// array part's buffer.
func (m *HybridMap[K, V]) arrayIndexOf(p *V) (uint64, bool) {
	if len(m.array.buf) == 0 {
		return 0, false
	}
	return byteOffsetIndex(p, m.array.buf)
}

// hashIndexOf reports the hash cell owning p, if p points within the hash
// part's value buffer.
func (m *HybridMap[K, V]) hashIndexOf(p *V) (uint64, bool) {
	if len(m.hash.vals) == 0 {
		return 0, false
	}
	return byteOffsetIndex(p, m.hash.vals)
}

// byteOffsetIndex computes which element of buf, if any, p points to, by
// checking whether p's address falls within buf's byte range (spec.md
// section 4.1: "does pointer p belong to the array buffer" is a
// byte-offset-in-range check).
func byteOffsetIndex[V any](p *V, buf []V) (uint64, bool) {
	var zero V
	size := unsafe.Sizeof(zero)
	lo := uintptr(unsafe.Pointer(&buf[0]))
	hi := lo + uintptr(len(buf))*size
	tp := uintptr(unsafe.Pointer(p))
	if tp < lo || tp >= hi {
		return 0, false
	}
	return uint64((tp - lo) / size), true
}

// RemovePtr deletes the cell p points to. p must be a live interior
// pointer previously returned by GetPtr/Set/SetIfNew on this map and
// not yet invalidated; a pointer outside both of this map's buffers
// panics.
func (m *HybridMap[K, V]) RemovePtr(p *V) {
	if i, ok := m.arrayIndexOf(p); ok {
		m.array.remove(i, m.traits)
		return
	}
	if i, ok := m.hashIndexOf(p); ok {
		k := m.hash.keys[i]
		m.hash.remove(k, m.sentinels, m.traits)
		return
	}
	panic("hybridmap: RemovePtr called with a pointer not owned by this map")
}

// KeyOf returns the key associated with a live interior pointer p,
// previously returned by GetPtr/Set/SetIfNew on this map and not yet
// invalidated; a pointer outside both of this map's buffers panics.
func (m *HybridMap[K, V]) KeyOf(p *V) K {
	if i, ok := m.arrayIndexOf(p); ok {
		return K(i)
	}
	if i, ok := m.hashIndexOf(p); ok {
		return m.hash.keys[i]
	}
	panic("hybridmap: KeyOf called with a pointer not owned by this map")
}

// roundUpCapacity returns 0 for lb == 0 (no reservation requested),
// otherwise the smallest power of two that is >= minSize and >= lb.
func roundUpCapacity(lb, minSize uint64) uint64 {
	if lb == 0 {
		return 0
	}
	size := minSize
	for size < lb {
		size *= 2
	}
	return size
}

// Reserve grows the array part to at least arrayLB slots and the hash part
// to at least hashLB cells (each rounded up to a power of two no smaller
// than its minimum size), without changing the key->value mapping and
// without ever decreasing either part's capacity. The hash part still
// resizes once its fill reaches 3/4 of its cells. If cleanHash is true,
// the hash part's tombstones are dropped even if no growth is otherwise
// required.
func (m *HybridMap[K, V]) Reserve(arrayLB, hashLB uint64, cleanHash bool) {
	curArraySize := uint64(len(m.array.buf))
	curHashSize := uint64(len(m.hash.keys))
	newArraySize := max64(curArraySize, roundUpCapacity(arrayLB, arrayMinSize))
	newHashSize := max64(curHashSize, roundUpCapacity(hashLB, hashMinSize))

	if !cleanHash && newArraySize == curArraySize && newHashSize == curHashSize {
		return
	}
	m.relocate(resizePlan{newArraySize: newArraySize, newHashSize: newHashSize})
}

// Swap exchanges the complete internal state of m and other in O(1).
// Pointers borrowed from either map before the call are invalidated.
func (m *HybridMap[K, V]) Swap(other *HybridMap[K, V]) {
	m.array, other.array = other.array, m.array
	m.hash, other.hash = other.hash, m.hash
	m.sentinels, other.sentinels = other.sentinels, m.sentinels
	m.traits, other.traits = other.traits, m.traits
}

// Clear removes all entries, retaining both parts' capacities.
func (m *HybridMap[K, V]) Clear() {
	m.array.clear(m.traits)
	m.hash.clear(m.sentinels, m.traits)
}

// Len returns the number of entries currently stored.
func (m *HybridMap[K, V]) Len() int {
	return m.array.count + m.hash.count
}

// ForEach visits every entry in unspecified order, stopping early if fn
// returns true. fn must not mutate m.
func (m *HybridMap[K, V]) ForEach(fn func(k K, v *V) bool) {
	stopped := m.array.forEach(m.traits, func(i uint64, v *V) bool {
		return fn(K(i), v)
	})
	if stopped {
		return
	}
	m.hash.forEach(m.sentinels, fn)
}

// AssertCorrectness checks invariants I1-I10 (spec section 8) and returns
// the first violation found, or nil if every check passes. At verbosity
// 0 the error carries only a one-line diagnosis; at verbosity >= 1 it
// also carries a debugString dump of the full internal state, useful
// when diagnosing a failure surfaced by a long randomized-test run (see
// internal/suite).
func (m *HybridMap[K, V]) AssertCorrectness(verbosity int) error {
	dump := ""
	if verbosity >= 1 {
		dump = m.debugString()
	}

	arraySize := uint64(len(m.array.buf))
	hashSize := uint64(len(m.hash.keys))

	// I1: sizes are 0 or a power of two >= their minima.
	if arraySize != 0 && (!isPow2(arraySize) || arraySize < arrayMinSize) {
		return invariantf("I1", dump, "array_size %d is not 0 or a power of two >= %d", arraySize, arrayMinSize)
	}
	if hashSize != 0 && (!isPow2(hashSize) || hashSize < hashMinSize) {
		return invariantf("I1", dump, "hash_size %d is not 0 or a power of two >= %d", hashSize, hashMinSize)
	}

	// I2: buffers are nil iff the corresponding size is 0.
	if (arraySize == 0) != (m.array.buf == nil) {
		return invariantf("I2", dump, "array buffer nil-ness disagrees with array_size %d", arraySize)
	}
	if (hashSize == 0) != (m.hash.keys == nil) {
		return invariantf("I2", dump, "hash buffer nil-ness disagrees with hash_size %d", hashSize)
	}

	// I3: hash_fill <= floor(0.75 * hash_size).
	if uint64(m.hash.fill) > maxFillFor(hashSize) {
		return invariantf("I3", dump, "hash_fill %d exceeds max fill %d for hash_size %d", m.hash.fill, maxFillFor(hashSize), hashSize)
	}

	// I4: array_count matches actual live slot count.
	var liveArray int
	for i := range m.array.buf {
		if !m.traits.IsEmpty(m.array.buf[i]) {
			liveArray++
		}
	}
	if liveArray != m.array.count {
		return invariantf("I4", dump, "array_count %d disagrees with observed live count %d", m.array.count, liveArray)
	}

	// I5, I6, I7, I8, I9, I10.
	var fill, count int
	seen := make(map[K]bool, len(m.hash.keys))
	for i, k := range m.hash.keys {
		if k != m.sentinels.empty {
			fill++
		}
		if k == m.sentinels.empty || k == m.sentinels.removed {
			continue
		}
		count++

		if unsigned(k) < arraySize {
			return invariantf("I7", dump, "live hash key %v is < array_size %d", k, arraySize)
		}
		if seen[k] {
			return invariantf("I8", dump, "hash key %v appears in more than one live cell", k)
		}
		seen[k] = true

		if m.traits.IsEmpty(m.hash.vals[i]) {
			return invariantf("I10", dump, "live hash cell %d (key %v) holds the empty marker", i, k)
		}

		if !m.probeReaches(k, uint64(i)) {
			return invariantf("I9", dump, "probe sequence for key %v does not reach its cell %d without crossing an empty slot", k, i)
		}
	}
	if fill != m.hash.fill {
		return invariantf("I5", dump, "hash_fill %d disagrees with observed non-empty count %d", m.hash.fill, fill)
	}
	if count != m.hash.count {
		return invariantf("I6", dump, "hash_count %d disagrees with observed live count %d", m.hash.count, count)
	}

	return nil
}

// probeReaches reports whether find_cell_or_empty(k) would reach cell i
// without first passing a cell whose key is EMPTY, i.e. that i lies on
// k's probe sequence before the first empty cell (invariant I9).
func (m *HybridMap[K, V]) probeReaches(k K, i uint64) bool {
	size := uint64(len(m.hash.keys))
	mask := size - 1
	j := m.hash.hash(unsigned(k), size)
	for {
		if j == i {
			return true
		}
		if m.hash.keys[j] == m.sentinels.empty {
			return false
		}
		j = (j + 1) & mask
	}
}

// debugString renders the full internal state of m for diagnostics.
func (m *HybridMap[K, V]) debugString() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "array_size=%d array_count=%d hash_size=%d hash_count=%d hash_fill=%d\n",
		len(m.array.buf), m.array.count, len(m.hash.keys), m.hash.count, m.hash.fill)
	for i, v := range m.array.buf {
		if !m.traits.IsEmpty(v) {
			fmt.Fprintf(&buf, "  array[%d] = %v\n", i, v)
		}
	}
	for i, k := range m.hash.keys {
		switch {
		case k == m.sentinels.empty:
		case k == m.sentinels.removed:
			fmt.Fprintf(&buf, "  hash[%d] = <removed>\n", i)
		default:
			fmt.Fprintf(&buf, "  hash[%d] = %v -> %v\n", i, k, m.hash.vals[i])
		}
	}
	return buf.String()
}
