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

// Tuning constants, per spec.md section 9. These are deliberately an
// inlined configuration, not a runtime knob: changing the trade-off
// between array density and hash density is a recompile-time decision.
const (
	arrayMinFillNum, arrayMinFillDen = 45, 100 // ARRAY_MIN_FILL = 0.45
	hashMinFillNum, hashMinFillDen   = 30, 100 // HASH_MIN_FILL  = 0.30
	hashMaxFillNum, hashMaxFillDen   = 3, 4    // HASH_MAX_FILL  = 0.75 (see hash.go maxFillFor)

	arrayMinSize = 8 // ARRAY_MIN_SIZE
	hashMinSize  = 8 // HASH_MIN_SIZE
)

// resizePlan is the output of AdaptSizes: the new array and hash sizes to
// migrate to. Both are >= their current values (no shrink), per spec.md
// section 4.5.
type resizePlan struct {
	newArraySize uint64
	newHashSize  uint64
}

// adaptSizes picks new (array_size', hash_size') for a HybridMap that is
// about to overflow its hash part on insertion of newKey, per spec.md
// section 4.5. It never shrinks either part, and is the only place the
// "include the new key everywhere" rule from section 9's Open Question is
// applied: newKey contributes to the histogram and to every population
// total used by the viability checks below, without exception.
func adaptSizes[K Key, V any](m *HybridMap[K, V], newKey K) resizePlan {
	arraySize := uint64(len(m.array.buf))
	hashSize := uint64(len(m.hash.keys))
	arrayCount := uint64(m.array.count)
	hashCount := uint64(m.hash.count)

	// Step 1: histogram. H[t] counts keys whose minimum containing array
	// size is 2^t.
	var h [maxWidth + 1]uint64
	if arrayCount > 0 {
		h[log2up(arraySize)] += arrayCount
	}
	h[log2size(unsigned(newKey))]++
	for _, k := range m.hash.keys {
		if k != m.sentinels.empty && k != m.sentinels.removed {
			h[log2size(unsigned(k))]++
		}
	}

	// Step 2: walk buckets from the current array size upward, keeping a
	// prefix sum P of keys that would fit into an array of size 2^t.
	startT := log2up(arraySize)
	chosenSize := arraySize
	chosenCount := arrayCount
	totalPopulation := arrayCount + hashCount + 1 // "+1" for newKey, always included

	// t never reaches maxWidth itself: 2^maxWidth (2^64) does not fit in a
	// uint64 size, and no real map ever needs an array that large anyway —
	// keys that wide simply stay in the hash part forever.
	var p uint64
	for t := startT; t < maxWidth; t++ {
		p += h[t]
		sz := pow2(t)
		required := mulDivFloor(sz, arrayMinFillNum, arrayMinFillDen)

		if sz <= max64(arraySize, arrayMinSize) || p >= required {
			chosenSize = sz
			chosenCount = p
			continue
		}
		if totalPopulation < required {
			break
		}
	}

	// Step 3: if the array part was empty and nothing would populate it,
	// leave it empty rather than materializing a floor-sized array of all
	// empty slots.
	if arraySize == 0 && chosenCount == 0 {
		chosenSize = 0
	}

	// Step 4: the hash part absorbs whatever the array part didn't.
	newHashCount := totalPopulation - chosenCount
	newHashSize := max64(hashSize, hashMinSize)
	for newHashCount >= mulDivFloor(newHashSize*2, hashMinFillNum, hashMinFillDen) {
		newHashSize *= 2
	}

	// Step 5: symmetric empty-stays-empty rule for the hash part.
	if hashSize == 0 && newHashCount == 0 {
		newHashSize = 0
	}

	return resizePlan{newArraySize: chosenSize, newHashSize: newHashSize}
}

func max64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// mulDivFloor computes floor(x*num/den) without overflowing for x up to
// the full uint64 range, by splitting x into quotient/remainder against
// den before multiplying by num (num and den are both small tuning-ratio
// constants here, never user-controlled).
func mulDivFloor(x, num, den uint64) uint64 {
	return (x/den)*num + ((x%den)*num)/den
}
