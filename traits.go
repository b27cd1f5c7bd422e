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

import "math"

// ValueTraits tells a HybridMap how to recognize and produce the "empty"
// marker for a value type V, and whether V is trivially relocatable (safe
// to move with copy() rather than by an element-wise assignment). A
// HybridMap stores the ValueTraits[V] passed to New as an interface value,
// so every Empty/IsEmpty call on the Get/Set path is a dynamic call.
type ValueTraits[V any] interface {
	// Empty produces a canonical empty marker value.
	Empty() V
	// IsEmpty recognizes the empty marker. Must never use floating-point
	// equality when V is a float type (NaN != NaN).
	IsEmpty(v V) bool
	// RelocateByBytes reports whether a V can be moved between slots with
	// copy() of the underlying storage rather than an element assignment.
	// true for plain numeric and pointer types; false whenever V holds
	// something an assignment would need to do extra work for.
	RelocateByBytes() bool
}

// intTraits is the built-in ValueTraits for signed and unsigned integer
// value types: the canonical empty marker is the maximum representable
// value, per spec.md section 3. This is deliberately distinct from
// maxOf, which key sentinels use: a Key's EMPTY_KEY is the top of the
// *unsigned* bit-pattern range (so -1 for a signed key type), whereas a
// value's empty marker is the type's actual maximum representable
// number (e.g. 2147483647 for int32), since S1's `Get(11) ==
// 2147483647` exercises exactly this distinction.
type intTraits[V Key] struct{}

func (intTraits[V]) Empty() V              { return valueMaxOf[V]() }
func (intTraits[V]) IsEmpty(v V) bool      { return v == valueMaxOf[V]() }
func (intTraits[V]) RelocateByBytes() bool { return true }

// IntTraits returns the built-in ValueTraits for an integer value type.
func IntTraits[V Key]() ValueTraits[V] { return intTraits[V]{} }

// valueMaxOf returns V's true maximum representable value (not the
// unsigned-bit-pattern reinterpretation maxOf uses for key sentinels).
// Each case converts from a locally typed constant rather than an
// untyped one, since a conversion of an untyped constant to a type
// parameter must be representable in every type of the parameter's
// constraint, not just the asserted case's type.
func valueMaxOf[V Key]() V {
	var zero V
	switch any(zero).(type) {
	case int8:
		var c int8 = math.MaxInt8
		return V(c)
	case int16:
		var c int16 = math.MaxInt16
		return V(c)
	case int32:
		var c int32 = math.MaxInt32
		return V(c)
	case int64:
		var c int64 = math.MaxInt64
		return V(c)
	case int:
		var c int = math.MaxInt
		return V(c)
	case uint8:
		var c uint8 = math.MaxUint8
		return V(c)
	case uint16:
		var c uint16 = math.MaxUint16
		return V(c)
	case uint32:
		var c uint32 = math.MaxUint32
		return V(c)
	case uint64:
		var c uint64 = math.MaxUint64
		return V(c)
	case uint:
		var c uint = math.MaxUint
		return V(c)
	default:
		var c int64 = math.MaxInt64
		return V(c)
	}
}

// float64Traits is the built-in ValueTraits for float64 values: the empty
// marker is a NaN with all bits set, and recognition is via the bit
// pattern, never floating-point equality (spec.md "Design Notes",
// "Sentinel aliasing for floats").
type float64Traits struct{}

var emptyFloat64 = math.Float64frombits(0xFFFFFFFFFFFFFFFF)

func (float64Traits) Empty() float64 { return emptyFloat64 }
func (float64Traits) IsEmpty(v float64) bool {
	return math.Float64bits(v) == math.Float64bits(emptyFloat64)
}
func (float64Traits) RelocateByBytes() bool { return true }

// Float64Traits returns the built-in ValueTraits for float64 values.
func Float64Traits() ValueTraits[float64] { return float64Traits{} }

// float32Traits mirrors float64Traits for float32 values.
type float32Traits struct{}

var emptyFloat32 = math.Float32frombits(0xFFFFFFFF)

func (float32Traits) Empty() float32 { return emptyFloat32 }
func (float32Traits) IsEmpty(v float32) bool {
	return math.Float32bits(v) == math.Float32bits(emptyFloat32)
}
func (float32Traits) RelocateByBytes() bool { return true }

// Float32Traits returns the built-in ValueTraits for float32 values.
func Float32Traits() ValueTraits[float32] { return float32Traits{} }

// pointerTraits is the built-in ValueTraits for pointer-like values: the
// empty marker is nil. Pointers are trivially relocatable.
type pointerTraits[V ~*E, E any] struct{}

func (pointerTraits[V, E]) Empty() V              { var z V; return z }
func (pointerTraits[V, E]) IsEmpty(v V) bool      { return v == nil }
func (pointerTraits[V, E]) RelocateByBytes() bool { return true }

// PointerTraits returns the built-in ValueTraits for a pointer value type.
func PointerTraits[V ~*E, E any]() ValueTraits[V] { return pointerTraits[V, E]{} }

// zeroValueTraits is the fallback ValueTraits for arbitrary value types
// that have no more specific built-in: the empty marker is the
// default-constructed (zero) value, and a value is considered empty iff it
// equals the zero value. This requires V to be comparable; types that
// cannot be compared with == (slices, maps, funcs) must supply their own
// ValueTraits, since there would otherwise be no way to implement IsEmpty.
type zeroValueTraits[V comparable] struct{}

func (zeroValueTraits[V]) Empty() V { var z V; return z }
func (zeroValueTraits[V]) IsEmpty(v V) bool {
	var z V
	return v == z
}
func (zeroValueTraits[V]) RelocateByBytes() bool { return false }

// DefaultTraits returns a zero-value-based ValueTraits, a reasonable
// default for struct and comparable-interface value types passed to New.
// It cannot distinguish a caller-inserted zero value from an absent key;
// callers for whom that distinction matters should pass IntTraits,
// Float64Traits, Float32Traits, PointerTraits, or a custom ValueTraits
// using a sentinel field instead.
func DefaultTraits[V comparable]() ValueTraits[V] { return zeroValueTraits[V]{} }
