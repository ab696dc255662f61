package lfqueue

import (
	"math"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"

	"concore/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// SINGLE-THREADED BEHAVIOUR
// ============================================================================

func TestPopEmpty(t *testing.T) {
	q := New[int]()
	v, ok := q.Pop()
	assert.False(t, ok)
	assert.Zero(t, v)
	assert.True(t, q.Empty())
	assert.Zero(t, q.Len())
}

func TestFIFOSingleProducer(t *testing.T) {
	q := New[int]()
	for i := 0; i < 5000; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, 5000, q.Len())
	assert.False(t, q.Empty())
	for i := 0; i < 5000; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
	assert.True(t, q.Empty())
}

func TestInterleavedPushPop(t *testing.T) {
	q := New[string]()
	require.NoError(t, q.Push("a"))
	require.NoError(t, q.Push("b"))
	v, _ := q.Pop()
	assert.Equal(t, "a", v)
	require.NoError(t, q.Push("c"))
	v, _ = q.Pop()
	assert.Equal(t, "b", v)
	v, _ = q.Pop()
	assert.Equal(t, "c", v)
	_, ok := q.Pop()
	assert.False(t, ok)
}

func TestNodesAreRecycled(t *testing.T) {
	q := New[int]()
	for round := 0; round < 10000; round++ {
		require.NoError(t, q.Push(round))
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, round, v)
	}
	// One dummy plus one value node ever needed.
	assert.LessOrEqual(t, q.nodes.fresh.Load(), uint64(2))
	assert.Equal(t, constants.NodeSegmentSize, q.nodes.capacity())
}

func TestArenaGrowsAcrossSegments(t *testing.T) {
	q := New[int]()
	n := 3*constants.NodeSegmentSize + 17
	for i := 0; i < n; i++ {
		require.NoError(t, q.Push(i))
	}
	assert.Equal(t, 4*constants.NodeSegmentSize, q.nodes.capacity())
	for i := 0; i < n; i++ {
		v, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, i, v)
	}
}

func TestPoppedValueIsReleased(t *testing.T) {
	q := New[*int]()
	x := 7
	require.NoError(t, q.Push(&x))
	v, ok := q.Pop()
	require.True(t, ok)
	assert.Same(t, &x, v)

	// The node that held the value is now the dummy and must not pin it.
	head := q.head.Load()
	assert.Nil(t, q.nodes.at(head.Index()).val.Load())
}

func TestExhausted(t *testing.T) {
	q := New[int]()
	q.nodes.fresh.Store(math.MaxUint32)
	assert.ErrorIs(t, q.Push(1), ErrExhausted)

	// A recycled node is still available after exhaustion of fresh space.
	q2 := New[int]()
	require.NoError(t, q2.Push(1))
	_, ok := q2.Pop()
	require.True(t, ok)
	q2.nodes.fresh.Store(math.MaxUint32)
	assert.NoError(t, q2.Push(2))
}

func TestNullIndexNeverHandedOut(t *testing.T) {
	var a arena[int]
	for i := 0; i < 10; i++ {
		idx, err := a.alloc()
		require.NoError(t, err)
		assert.NotZero(t, idx)
	}
}

// ============================================================================
// CONCURRENT BEHAVIOUR
// ============================================================================

func TestMPMCNoLossNoDuplication(t *testing.T) {
	const producers = 8
	const consumers = 8
	const perProducer = 20000
	q := New[int]()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(base int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				if err := q.Push(base + i); err != nil {
					t.Error(err)
					return
				}
			}
		}(p * perProducer)
	}

	seen := make([]int32, producers*perProducer)
	var popped sync.WaitGroup
	var mu sync.Mutex
	total := 0
	done := make(chan struct{})
	for c := 0; c < consumers; c++ {
		popped.Add(1)
		go func() {
			defer popped.Done()
			local := 0
			for {
				v, ok := q.Pop()
				if ok {
					atomic.AddInt32(&seen[v], 1)
					local++
					continue
				}
				select {
				case <-done:
					if q.Empty() {
						mu.Lock()
						total += local
						mu.Unlock()
						return
					}
				default:
					runtime.Gosched()
				}
			}
		}()
	}

	wg.Wait()
	close(done)
	popped.Wait()

	assert.Equal(t, producers*perProducer, total)
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("value %d popped %d times", v, n)
		}
	}
}

func TestFIFOPerProducerUnderContention(t *testing.T) {
	const producers = 4
	const perProducer = 10000
	type item struct{ producer, seq int }
	q := New[item]()

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = q.Push(item{p, i})
			}
		}(p)
	}
	wg.Wait()

	// With one consumer, each producer's values come out in push order.
	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for {
		it, ok := q.Pop()
		if !ok {
			break
		}
		require.Greater(t, it.seq, last[it.producer])
		last[it.producer] = it.seq
	}
	for _, l := range last {
		assert.Equal(t, perProducer-1, l)
	}
}

func TestConcurrentPushPopPairs(t *testing.T) {
	q := New[int]()
	const workers = 8
	const rounds = 20000
	var wg sync.WaitGroup
	var sum, want int64
	var mu sync.Mutex
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			var local, pushed int64
			for i := 0; i < rounds; i++ {
				v := w*rounds + i
				_ = q.Push(v)
				pushed += int64(v)
				if got, ok := q.Pop(); ok {
					local += int64(got)
				}
			}
			mu.Lock()
			sum += local
			want += pushed
			mu.Unlock()
		}(w)
	}
	wg.Wait()
	for {
		v, ok := q.Pop()
		if !ok {
			break
		}
		sum += int64(v)
	}
	assert.Equal(t, want, sum)
	assert.True(t, q.Empty())
	assert.Zero(t, q.Len())
}
