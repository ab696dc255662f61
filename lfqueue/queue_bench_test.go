package lfqueue

import "testing"

func BenchmarkPushPop(b *testing.B) {
	q := New[int]()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = q.Push(i)
		q.Pop()
	}
}

func BenchmarkPushPopParallel(b *testing.B) {
	q := New[int]()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			_ = q.Push(i)
			q.Pop()
			i++
		}
	})
}
