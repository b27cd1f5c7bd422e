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
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

// TODO(student): add metamorphic tests that cross-check behavior across a
// range of ARRAY_MIN_SIZE/HASH_MIN_SIZE tunings.

// toBuiltinMap returns the elements as a map[K]V. Useful for testing.
func (m *HybridMap[K, V]) toBuiltinMap() map[K]V {
	r := make(map[K]V)
	m.ForEach(func(k K, v *V) bool {
		r[k] = *v
		return false
	})
	return r
}

func newIntMap() *HybridMap[int64, int64] {
	return New[int64, int64](IntTraits[int64]())
}

func TestUnsignedReinterpretation(t *testing.T) {
	require.Equal(t, uint64(0xFF), unsigned(int8(-1)))
	require.Equal(t, uint64(0xFFFFFFFFFFFFFFFF), unsigned(int64(-1)))
	require.Equal(t, uint64(0xFFFFFFFF), unsigned(uint32(0xFFFFFFFF)))
}

func TestEmptyMap(t *testing.T) {
	m := newIntMap()
	require.Equal(t, 0, m.Len())
	_, ok := m.Get(5)
	require.False(t, ok)
	require.Nil(t, m.GetPtr(5))
	require.False(t, m.Remove(5))
	require.NoError(t, m.AssertCorrectness(1))
}

func TestArrayPathBasic(t *testing.T) {
	m := newIntMap()
	for k := int64(0); k < 8; k++ {
		m.Set(k, k*k)
	}
	require.Equal(t, 8, m.Len())
	for k := int64(0); k < 8; k++ {
		v, ok := m.Get(k)
		require.True(t, ok)
		require.Equal(t, k*k, v)
	}
	require.NoError(t, m.AssertCorrectness(1))
}

func TestSetOverwrite(t *testing.T) {
	m := newIntMap()
	m.Set(3, 30)
	require.Equal(t, 1, m.Len())
	m.Set(3, 300)
	require.Equal(t, 1, m.Len())
	v, ok := m.Get(3)
	require.True(t, ok)
	require.Equal(t, int64(300), v)
}

func TestSetIfNew(t *testing.T) {
	m := newIntMap()
	require.Nil(t, m.SetIfNew(3, 30))
	v, ok := m.Get(3)
	require.True(t, ok)
	require.Equal(t, int64(30), v)

	ptr := m.SetIfNew(3, 99)
	require.NotNil(t, ptr)
	require.Equal(t, int64(30), *ptr)
}

func TestRemove(t *testing.T) {
	m := newIntMap()
	m.Set(3, 30)
	m.Set(100000, 7)
	require.True(t, m.Remove(3))
	require.False(t, m.Remove(3))
	_, ok := m.Get(3)
	require.False(t, ok)
	v, ok := m.Get(100000)
	require.True(t, ok)
	require.Equal(t, int64(7), v)
}

func TestRemovePtrAndKeyOf(t *testing.T) {
	m := newIntMap()
	p1 := m.Set(3, 30)
	require.Equal(t, int64(3), m.KeyOf(p1))
	p2 := m.Set(1_000_000, 70)
	require.Equal(t, int64(1_000_000), m.KeyOf(p2))

	m.RemovePtr(p2)
	_, ok := m.Get(1_000_000)
	require.False(t, ok)
	require.Equal(t, 1, m.Len())
}

func TestClear(t *testing.T) {
	m := newIntMap()
	for k := int64(0); k < 100; k++ {
		m.Set(k, k)
	}
	oldArraySize := len(m.array.buf)
	m.Clear()
	require.Equal(t, 0, m.Len())
	require.Equal(t, oldArraySize, len(m.array.buf))
	for k := int64(0); k < 100; k++ {
		_, ok := m.Get(k)
		require.False(t, ok)
	}
}

func TestSwap(t *testing.T) {
	a := newIntMap()
	b := newIntMap()
	for _, k := range []int64{0, 1, 2, 42, 27} {
		a.Set(k, k+1)
	}
	a.Swap(b)
	require.Equal(t, 0, a.Len())
	require.Equal(t, 5, b.Len())
	for _, k := range []int64{0, 1, 2, 42, 27} {
		v, ok := b.Get(k)
		require.True(t, ok)
		require.Equal(t, k+1, v)
	}

	a.Swap(b)
	a.Swap(b)
	require.Equal(t, 0, a.Len())
	require.Equal(t, 5, b.Len())
}

func TestForEachStopsEarly(t *testing.T) {
	m := newIntMap()
	for k := int64(0); k < 20; k++ {
		m.Set(k, k)
	}
	var visited int
	m.ForEach(func(k int64, v *int64) bool {
		visited++
		return visited == 5
	})
	require.Equal(t, 5, visited)
}

func TestNegativeKeys(t *testing.T) {
	m := newIntMap()
	m.Set(-5, 55)
	m.Set(5, 5)
	v, ok := m.Get(-5)
	require.True(t, ok)
	require.Equal(t, int64(55), v)
	require.NoError(t, m.AssertCorrectness(1))
}

func TestFloatTraits(t *testing.T) {
	m := New[int64, float64](Float64Traits())
	m.Set(1, 3.5)
	m.Set(2, math.NaN())
	v, ok := m.Get(1)
	require.True(t, ok)
	require.Equal(t, 3.5, v)
	v, ok = m.Get(2)
	require.True(t, ok)
	require.True(t, math.IsNaN(v))
	_, ok = m.Get(3)
	require.False(t, ok)
}

func TestRandomizedAgainstBuiltinMap(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m := newIntMap()
	ref := make(map[int64]int64)

	for i := 0; i < 5000; i++ {
		k := int64(rng.Intn(400) - 200)
		for k == m.sentinels.empty || k == m.sentinels.removed {
			k = int64(rng.Intn(400) - 200)
		}
		if rng.Intn(2) == 0 {
			v := int64(rng.Intn(1_000_000))
			m.Set(k, v)
			ref[k] = v
		} else {
			delete(ref, k)
			m.Remove(k)
		}
	}

	require.Equal(t, len(ref), m.Len())
	require.Equal(t, ref, m.toBuiltinMap())
	require.NoError(t, m.AssertCorrectness(1))
}
