package tiered

import (
	"math/rand"
	"slices"
	"testing"

	"github.com/npillmayer/tiered/layout"
)

const benchSize = 100_000

func benchConfigs() map[string]Config[int] {
	return map[string]Config[int]{
		"speed":  {},
		"memory": {Layout: layout.Memory},
	}
}

func BenchmarkPushBack(b *testing.B) {
	for name, cfg := range benchConfigs() {
		b.Run(name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				s, _ := New(cfg)
				for k := 0; k < benchSize; k++ {
					_ = s.PushBack(k)
				}
			}
		})
	}
}

func BenchmarkRandomInsert(b *testing.B) {
	for name, cfg := range benchConfigs() {
		b.Run(name, func(b *testing.B) {
			s := newSeq(b, cfg, ints(benchSize)...)
			r := rand.New(rand.NewSource(1))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_ = s.Insert(r.Intn(s.Len()+1), i)
			}
		})
	}
	b.Run("slice", func(b *testing.B) {
		s := ints(benchSize)
		r := rand.New(rand.NewSource(1))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			s = slices.Insert(s, r.Intn(len(s)+1), i)
		}
	})
}

func BenchmarkRandomAccess(b *testing.B) {
	for name, cfg := range benchConfigs() {
		b.Run(name, func(b *testing.B) {
			s := newSeq(b, cfg, ints(benchSize)...)
			r := rand.New(rand.NewSource(1))
			b.ResetTimer()
			sum := 0
			for i := 0; i < b.N; i++ {
				sum += s.Get(r.Intn(benchSize))
			}
			_ = sum
		})
	}
}

func BenchmarkIterate(b *testing.B) {
	s := newSeq(b, Config[int]{}, ints(benchSize)...)
	b.Run("iterator", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sum := 0
			for it := s.Begin(); it.Valid(); it.Next() {
				sum += it.Value()
			}
		}
	})
	b.Run("segments", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			sum := 0
			s.ForEachSegment(func(seg []int) bool {
				for _, v := range seg {
					sum += v
				}
				return true
			})
		}
	})
}
