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

// hashFn computes the base probe cell for a key's unsigned bit pattern
// over a power-of-two table of the given size. WithHash lets a caller
// override the default Fibonacci multiplicative hash, grounded on the
// teacher's WithHash option (options.go).
type hashFn func(k uint64, size uint64) uint64

// fibonacciMultiplier is the 64-bit odd constant used for the default
// multiplicative (Knuth/Fibonacci) hash, per spec.md section 4.2.
const fibonacciMultiplier = 0x9E3779B97F4A7C15

// defaultHash computes the base probe cell's hash for key k over a table
// of the given size (a power of two). The top bits of a multiplicative
// hash are the highest quality, so the table index is taken from the high
// bits of the 64x64 product via a right shift, then masked to size.
func defaultHash(k uint64, size uint64) uint64 {
	h := k * fibonacciMultiplier
	return (h >> (64 - log2up(size))) & (size - 1)
}

// hashPart is the open-addressed, linear-probed region of a HybridMap,
// owning every key not owned by the array part. hash_keys/hash_vals are
// parallel buffers; a cell is live iff its key is neither emptyKey nor
// removedKey, per spec.md section 3.
type hashPart[K Key, V any] struct {
	keys  []K
	vals  []V
	count int // live cells
	fill  int // live + tombstoned cells
	hash  hashFn
}

// findCellOrEmpty probes from k's base cell until it finds a cell whose
// key is emptyKey or equals k, skipping tombstoned (removedKey) cells.
// Used by every user-visible hash operation (Get, Set, SetIfNew, Remove),
// per spec.md section 4.2.
func (h *hashPart[K, V]) findCellOrEmpty(k K, sent sentinels[K]) uint64 {
	size := uint64(len(h.keys))
	i := h.hash(unsigned(k), size)
	mask := size - 1
	for {
		cur := h.keys[i]
		if cur == sent.empty || cur == k {
			return i
		}
		i = (i + 1) & mask
	}
}

// findCellEmpty probes from k's base cell until it finds a cell whose key
// is emptyKey. Used only during relocation, when the caller has already
// guaranteed k is not yet present in the table (spec.md section 4.2).
func (h *hashPart[K, V]) findCellEmpty(k K, sent sentinels[K]) uint64 {
	size := uint64(len(h.keys))
	i := h.hash(unsigned(k), size)
	mask := size - 1
	for h.keys[i] != sent.empty {
		i = (i + 1) & mask
	}
	return i
}

// get looks up k, returning ok=false if absent.
func (h *hashPart[K, V]) get(k K, sent sentinels[K]) (v V, ok bool) {
	if len(h.keys) == 0 {
		return v, false
	}
	i := h.findCellOrEmpty(k, sent)
	if h.keys[i] != k {
		return v, false
	}
	return h.vals[i], true
}

// getPtr looks up k, returning nil if absent.
func (h *hashPart[K, V]) getPtr(k K, sent sentinels[K]) *V {
	if len(h.keys) == 0 {
		return nil
	}
	i := h.findCellOrEmpty(k, sent)
	if h.keys[i] != k {
		return nil
	}
	return &h.vals[i]
}

// maxFillFor returns floor(HASH_MAX_FILL * size), the fill threshold past
// which the next insertion must trigger AdaptSizes (spec.md section 4.4,
// "Hash-path Set").
func maxFillFor(size uint64) uint64 {
	return (size * 3) / 4
}

// atOrPastMaxFill reports whether inserting one more entry would push
// hash_fill past HASH_MAX_FILL*hash_size, expressed branchlessly per
// spec.md section 4.4 as hash_fill >= (hash_size>>2)*3.
func (h *hashPart[K, V]) atOrPastMaxFill() bool {
	size := uint64(len(h.keys))
	if size == 0 {
		return true
	}
	return uint64(h.fill) >= (size>>2)*3
}

// put writes key/value at the cell found by findCellOrEmpty, assuming the
// caller has already checked atOrPastMaxFill and resized if necessary. If
// the cell was previously empty it bumps both hash_fill and hash_count.
// It reports whether the cell was previously empty and returns a pointer
// to the written value.
func (h *hashPart[K, V]) put(k K, v V, sent sentinels[K]) (ptr *V, wasEmpty bool) {
	i := h.findCellOrEmpty(k, sent)
	wasEmpty = h.keys[i] == sent.empty
	if wasEmpty {
		h.fill++
		h.count++
	}
	h.keys[i] = k
	h.vals[i] = v
	return &h.vals[i], wasEmpty
}

// setIfNew writes key/value only if absent, returning nil in that case;
// otherwise returns a pointer to the existing value without writing.
func (h *hashPart[K, V]) setIfNew(k K, v V, sent sentinels[K]) *V {
	i := h.findCellOrEmpty(k, sent)
	if h.keys[i] == k {
		return &h.vals[i]
	}
	h.fill++
	h.count++
	h.keys[i] = k
	h.vals[i] = v
	return nil
}

// remove tombstones the cell holding k, if present. hash_fill is left
// unchanged (only a resize drops tombstones), per spec.md section 4.4.
func (h *hashPart[K, V]) remove(k K, sent sentinels[K], traits ValueTraits[V]) bool {
	if len(h.keys) == 0 {
		return false
	}
	i := h.findCellOrEmpty(k, sent)
	if h.keys[i] != k {
		return false
	}
	h.keys[i] = sent.removed
	h.vals[i] = traits.Empty()
	h.count--
	return true
}

// clear resets every cell to emptyKey and zeroes the counters. Capacity is
// unchanged.
func (h *hashPart[K, V]) clear(sent sentinels[K], traits ValueTraits[V]) {
	if h.fill == 0 {
		return
	}
	empty := traits.Empty()
	for i := range h.keys {
		h.keys[i] = sent.empty
		h.vals[i] = empty
	}
	h.count = 0
	h.fill = 0
}

// forEach visits every live cell, stopping early if fn returns true.
func (h *hashPart[K, V]) forEach(sent sentinels[K], fn func(k K, v *V) bool) bool {
	for i := range h.keys {
		k := h.keys[i]
		if k != sent.empty && k != sent.removed {
			if fn(k, &h.vals[i]) {
				return true
			}
		}
	}
	return false
}
