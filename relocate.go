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

// relocate migrates a HybridMap's array and hash parts to plan's sizes,
// both of which are guaranteed >= the current sizes. Depending on which
// parts actually change size, this covers all four cases of spec.md
// section 4.6:
//
//	(A) both unchanged  -> rebuildHashInPlace only (drops tombstones)
//	(B) array grows     -> grow array, then rebuildHashInPlace (promotes)
//	(C) hash grows      -> rebuildIntoNewHash only (no promotion possible)
//	(D) both grow       -> grow array, then rebuildIntoNewHash (promotes)
//
// Allocations (array.grow, the new hash buffers in rebuildIntoNewHash) are
// always performed before any destructive step, so a failed make() leaves
// the receiver's prior state valid, per spec.md section 7.
func (m *HybridMap[K, V]) relocate(plan resizePlan) {
	oldArraySize := uint64(len(m.array.buf))
	oldHashSize := uint64(len(m.hash.keys))

	if plan.newArraySize > oldArraySize {
		m.array.grow(plan.newArraySize, m.traits)
	}

	if plan.newHashSize == oldHashSize {
		m.rebuildHashInPlace(plan.newArraySize)
	} else {
		m.rebuildIntoNewHash(plan.newHashSize, plan.newArraySize)
	}
}

// firstEmptyCell returns the index of a cell whose key is emptyKey. One is
// guaranteed to exist whenever hash_fill < hash_size, which always holds
// prior to a rehash (invariant I3: hash_fill <= floor(0.75*hash_size) <
// hash_size for hash_size > 0).
func (m *HybridMap[K, V]) firstEmptyCell() uint64 {
	for i, k := range m.hash.keys {
		if k == m.sentinels.empty {
			return uint64(i)
		}
	}
	panic("hybridmap: no empty cell found before rehash; hash_fill invariant violated")
}

// rebuildHashInPlace drops every tombstone and re-settles every live key
// within the same hash_size buffer, promoting keys that now fall below
// newArraySize into the (possibly just-enlarged) array part, per spec.md
// section 4.6.
//
// The walk starts at a guaranteed-empty cell and proceeds cyclically,
// clearing each cell's key to emptyKey the instant it is read. Because the
// walk and the probe direction are the same, by the time any index is
// reached every earlier index in the walk has already settled to either
// EMPTY or its own final relocated key — so probing for an insertion
// target with the ordinary findCellEmpty either lands on a cell already
// vacated earlier this pass, or on a cell that was genuinely empty before
// the rebuild began. It can never land on a not-yet-visited cell that
// still holds stale, unprocessed data, since such a cell is not emptyKey
// and so is skipped by the probe exactly as it would be outside a rehash.
func (m *HybridMap[K, V]) rebuildHashInPlace(newArraySize uint64) {
	size := uint64(len(m.hash.keys))
	if size == 0 {
		return
	}

	start := m.firstEmptyCell()
	mask := size - 1
	var promoted int

	idx := start
	for n := uint64(0); n < size; n++ {
		key := m.hash.keys[idx]
		m.hash.keys[idx] = m.sentinels.empty

		if key != m.sentinels.empty && key != m.sentinels.removed {
			val := m.hash.vals[idx]
			m.hash.vals[idx] = m.traits.Empty()

			uk := unsigned(key)
			if uk < newArraySize {
				m.array.buf[uk] = val
				m.array.count++
				promoted++
			} else {
				target := m.hash.findCellEmpty(key, m.sentinels)
				m.hash.keys[target] = key
				m.hash.vals[target] = val
			}
		}

		idx = (idx + 1) & mask
	}

	m.hash.count -= promoted
	m.hash.fill = m.hash.count
}

// rebuildIntoNewHash allocates fresh key/value buffers of newHashSize,
// migrates every live cell of the old hash part into them (promoting keys
// that fall below newArraySize into the array part instead), and drops
// every tombstone, per spec.md section 4.6 cases (C) and (D).
func (m *HybridMap[K, V]) rebuildIntoNewHash(newHashSize, newArraySize uint64) {
	next := hashPart[K, V]{
		keys: make([]K, newHashSize),
		vals: make([]V, newHashSize),
		hash: m.hash.hash,
	}
	for i := range next.keys {
		next.keys[i] = m.sentinels.empty
	}

	old := m.hash
	var promoted int
	for i, key := range old.keys {
		if key == m.sentinels.empty || key == m.sentinels.removed {
			continue
		}
		val := old.vals[i]
		uk := unsigned(key)
		if uk < newArraySize {
			m.array.buf[uk] = val
			m.array.count++
			promoted++
			continue
		}
		target := next.findCellEmpty(key, m.sentinels)
		next.keys[target] = key
		next.vals[target] = val
	}

	next.count = old.count - promoted
	next.fill = next.count
	m.hash = next
}
