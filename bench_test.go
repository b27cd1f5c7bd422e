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
	"strconv"
	"testing"
)

func benchSizes(f func(b *testing.B, n int)) func(*testing.B) {
	cases := []int{8, 64, 1024, 1 << 16}
	return func(b *testing.B) {
		for _, n := range cases {
			b.Run("len="+strconv.Itoa(n), func(b *testing.B) { f(b, n) })
		}
	}
}

func BenchmarkMapIter(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapIter))
	b.Run("impl=hybridMap", benchSizes(benchmarkHybridMapIter))
}

func BenchmarkMapGetHit(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetHit))
	b.Run("impl=hybridMap", benchSizes(benchmarkHybridMapGetHit))
}

func BenchmarkMapGetMiss(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapGetMiss))
	b.Run("impl=hybridMap", benchSizes(benchmarkHybridMapGetMiss))
}

func BenchmarkMapSetGrow(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapSetGrow))
	b.Run("impl=hybridMap", benchSizes(benchmarkHybridMapSetGrow))
}

func BenchmarkMapSetPreAllocate(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapSetPreAllocate))
	b.Run("impl=hybridMap", benchSizes(benchmarkHybridMapSetPreAllocate))
}

func BenchmarkMapSetRemove(b *testing.B) {
	b.Run("impl=runtimeMap", benchSizes(benchmarkRuntimeMapSetRemove))
	b.Run("impl=hybridMap", benchSizes(benchmarkHybridMapSetRemove))
}

func genKeys(start, end int) []int64 {
	keys := make([]int64, end-start)
	for i := range keys {
		keys[i] = int64(start + i)
	}
	return keys
}

func benchmarkRuntimeMapIter(b *testing.B, n int) {
	m := make(map[int64]int64, n)
	for _, k := range genKeys(0, n) {
		m[k] = k
	}
	b.ResetTimer()
	var tmp int64
	for i := 0; i < b.N; i++ {
		for k, v := range m {
			tmp += k + v
		}
	}
}

func benchmarkHybridMapIter(b *testing.B, n int) {
	m := newIntMap()
	for _, k := range genKeys(0, n) {
		m.Set(k, k)
	}
	b.ResetTimer()
	var tmp int64
	for i := 0; i < b.N; i++ {
		m.ForEach(func(k int64, v *int64) bool {
			tmp += k + *v
			return false
		})
	}
}

func benchmarkRuntimeMapGetHit(b *testing.B, n int) {
	m := make(map[int64]int64, n)
	keys := genKeys(0, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m[keys[i%len(keys)]]
	}
	_ = ok
}

func benchmarkHybridMapGetHit(b *testing.B, n int) {
	m := newIntMap()
	keys := genKeys(0, n)
	for _, k := range keys {
		m.Set(k, k)
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Get(keys[i%len(keys)])
	}
	_ = ok
}

func benchmarkRuntimeMapGetMiss(b *testing.B, n int) {
	m := make(map[int64]int64, n)
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m[miss[i%len(miss)]]
	}
	_ = ok
}

func benchmarkHybridMapGetMiss(b *testing.B, n int) {
	m := newIntMap()
	keys := genKeys(0, n)
	miss := genKeys(-n, 0)
	for _, k := range keys {
		m.Set(k, k)
	}
	b.ResetTimer()
	var ok bool
	for i := 0; i < b.N; i++ {
		_, ok = m.Get(miss[i%len(miss)])
	}
	_ = ok
}

func benchmarkRuntimeMapSetGrow(b *testing.B, n int) {
	keys := genKeys(0, n)
	for i := 0; i < b.N; i++ {
		m := make(map[int64]int64)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkHybridMapSetGrow(b *testing.B, n int) {
	keys := genKeys(0, n)
	for i := 0; i < b.N; i++ {
		m := newIntMap()
		for _, k := range keys {
			m.Set(k, k)
		}
	}
}

func benchmarkRuntimeMapSetPreAllocate(b *testing.B, n int) {
	keys := genKeys(0, n)
	for i := 0; i < b.N; i++ {
		m := make(map[int64]int64, n)
		for _, k := range keys {
			m[k] = k
		}
	}
}

func benchmarkHybridMapSetPreAllocate(b *testing.B, n int) {
	keys := genKeys(0, n)
	for i := 0; i < b.N; i++ {
		m := newIntMap()
		m.Reserve(uint64(n), 0, false)
		for _, k := range keys {
			m.Set(k, k)
		}
	}
}

func benchmarkRuntimeMapSetRemove(b *testing.B, n int) {
	keys := genKeys(0, n)
	m := make(map[int64]int64, n)
	for _, k := range keys {
		m[k] = k
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		delete(m, k)
		m[k] = k
	}
}

func benchmarkHybridMapSetRemove(b *testing.B, n int) {
	keys := genKeys(0, n)
	m := newIntMap()
	for _, k := range keys {
		m.Set(k, k)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := keys[i%len(keys)]
		m.Remove(k)
		m.Set(k, k)
	}
}
