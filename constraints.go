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

// Key is the set of integer types usable as a HybridMap key. Both signed
// and unsigned widths are allowed; the top two values of the type's
// unsigned range are reserved as sentinels (see emptyKey/removedKey).
type Key interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint
}

// sentinels holds the two reserved key values for a given instantiation of
// HybridMap. EMPTY_KEY is the maximum representable value of K's unsigned
// view; REMOVED_KEY is one less.
type sentinels[K Key] struct {
	empty   K
	removed K
}

// deriveSentinels computes EMPTY_KEY/REMOVED_KEY for a concrete width. Go
// generics have no numeric_limits, so maxOf switches on the type directly
// to find K's width, the way original_source/ArrayWithHash.h derives its
// sentinels from std::numeric_limits<Size>::max() (Size being the unsigned
// sibling of Key) for whatever integer Key the container was instantiated
// with.
func deriveSentinels[K Key]() sentinels[K] {
	return sentinels[K]{
		empty:   maxOf[K](),
		removed: maxOf[K]() - 1,
	}
}

// maxOf returns the maximum value representable by K's underlying width,
// reinterpreted as K. For signed K this is the same bit pattern as the
// unsigned max (i.e. -1 for a signed type), matching
// original_source/ArrayWithHash.h's use of the *unsigned* max as the
// sentinel even when Key is signed.
func maxOf[K Key]() K {
	var zero K
	switch any(zero).(type) {
	case int8, uint8:
		v := ^uint8(0)
		return K(v)
	case int16, uint16:
		v := ^uint16(0)
		return K(v)
	case int32, uint32:
		v := ^uint32(0)
		return K(v)
	case int64, uint64, int, uint:
		v := ^uint64(0)
		return K(v)
	default:
		v := ^uint64(0)
		return K(v)
	}
}

// unsigned reinterprets a key's bit pattern as a uint64 for the array
// membership test and hashing, matching spec.md 4.3's "Size" type.
func unsigned[K Key](k K) uint64 {
	switch v := any(k).(type) {
	case int8:
		return uint64(uint8(v))
	case int16:
		return uint64(uint16(v))
	case int32:
		return uint64(uint32(v))
	case int64:
		return uint64(v)
	case int:
		return uint64(v)
	case uint8:
		return uint64(v)
	case uint16:
		return uint64(v)
	case uint32:
		return uint64(v)
	case uint64:
		return v
	case uint:
		return uint64(v)
	default:
		return uint64(k)
	}
}
