package threadpool

import (
	"runtime"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"concore/debug"
	"concore/lfqueue"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFuncPool(t *testing.T, cfg Config) *Pool[Task, Runner] {
	t.Helper()
	p, err := NewFunc(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p
}

// blockWorker occupies the pool's only worker until the returned release
// is called.
func blockWorker(t *testing.T, p *Pool[Task, Runner]) (release func()) {
	t.Helper()
	started := make(chan struct{})
	gate := make(chan struct{})
	require.NoError(t, p.AddTask(func() {
		close(started)
		<-gate
	}))
	select {
	case <-started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never picked up the blocking task")
	}
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

// ============================================================================
// COMPLETENESS
// ============================================================================

func TestCompleteAllTasksCountsEveryTask(t *testing.T) {
	configs := map[string]Config{"low_latency": LowLatency(), "low_cpu": LowCPU()}
	for name, base := range configs {
		for _, workers := range []int{1, 2, 8} {
			for _, k := range []int{0, 1, 1000} {
				cfg := base
				cfg.Workers = workers
				p := newFuncPool(t, cfg)
				var counter atomic.Int64
				for i := 0; i < k; i++ {
					require.NoError(t, p.AddTask(func() { counter.Add(1) }))
				}
				p.CompleteAllTasks()
				assert.Equal(t, int64(k), counter.Load(), "%s workers=%d k=%d", name, workers, k)
				p.Close()
			}
		}
	}
}

func TestEndToEndUniqueIntegers(t *testing.T) {
	cfg := LowLatency()
	cfg.Workers = 4
	p := newFuncPool(t, cfg)
	out := lfqueue.New[int]()

	const n = 10000
	for i := 0; i < n; i++ {
		v := i
		require.NoError(t, p.AddTask(func() {
			if err := out.Push(v); err != nil {
				t.Error(err)
			}
		}))
	}
	p.CompleteAllTasks()

	var got []int
	for {
		v, ok := out.Pop()
		if !ok {
			break
		}
		got = append(got, v)
	}
	require.Len(t, got, n)
	sort.Ints(got)
	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestCompleteAllTasksWaitsForInFlight(t *testing.T) {
	cfg := LowCPU()
	cfg.Workers = 2
	p := newFuncPool(t, cfg)
	var done atomic.Bool
	require.NoError(t, p.AddTask(func() {
		time.Sleep(30 * time.Millisecond)
		done.Store(true)
	}))
	p.CompleteAllTasks()
	assert.True(t, done.Load())
}

func TestTasksSubmittedFromTasks(t *testing.T) {
	cfg := LowCPU()
	cfg.Workers = 4
	cfg.MaxQueued = 0
	p := newFuncPool(t, cfg)
	var counter atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.AddTask(func() {
			counter.Add(1)
			_ = p.AddTask(func() { counter.Add(1) })
		}))
	}
	p.CompleteAllTasks()
	assert.Equal(t, int64(200), counter.Load())
}

// ============================================================================
// PARTICIPATION AND BOUNDS
// ============================================================================

func TestParticipatingControllerRunsTasks(t *testing.T) {
	cfg := LowLatency()
	cfg.Workers = 1
	p := newFuncPool(t, cfg)
	release := blockWorker(t, p)
	defer release()

	var counter atomic.Int64
	for i := 0; i < 10; i++ {
		require.NoError(t, p.AddTask(func() { counter.Add(1) }))
	}
	finished := make(chan struct{})
	go func() {
		p.CompleteAllTasks()
		close(finished)
	}()

	// The only worker is blocked, so only the controller can run these.
	require.Eventually(t, func() bool { return counter.Load() == 10 }, 5*time.Second, time.Millisecond)
	release()
	<-finished
}

func TestProducerOnlyControllerWaits(t *testing.T) {
	cfg := LowCPU()
	cfg.Workers = 1
	p := newFuncPool(t, cfg)
	release := blockWorker(t, p)

	var counter atomic.Int64
	for i := 0; i < 10; i++ {
		require.NoError(t, p.AddTask(func() { counter.Add(1) }))
	}
	finished := make(chan struct{})
	go func() {
		p.CompleteAllTasks()
		close(finished)
	}()

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, counter.Load())
	release()
	select {
	case <-finished:
	case <-time.After(5 * time.Second):
		t.Fatal("CompleteAllTasks did not return")
	}
	assert.Equal(t, int64(10), counter.Load())
}

func TestBoundedQueueBlocksProducer(t *testing.T) {
	cfg := LowCPU()
	cfg.Workers = 1
	cfg.MaxQueued = 2
	p := newFuncPool(t, cfg)
	release := blockWorker(t, p)

	require.NoError(t, p.AddTask(func() {}))
	require.NoError(t, p.AddTask(func() {}))

	added := make(chan error, 1)
	go func() { added <- p.AddTask(func() {}) }()
	select {
	case <-added:
		t.Fatal("AddTask returned while the queue was full")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	select {
	case err := <-added:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("AddTask never found room")
	}
	p.CompleteAllTasks()
}

func TestClearQueue(t *testing.T) {
	cfg := LowCPU()
	cfg.Workers = 1
	p := newFuncPool(t, cfg)
	release := blockWorker(t, p)

	var counter atomic.Int64
	for i := 0; i < 5; i++ {
		require.NoError(t, p.AddTask(func() { counter.Add(1) }))
	}
	assert.Equal(t, 5, p.ClearQueue())
	assert.Zero(t, p.ClearQueue())
	release()
	p.CompleteAllTasks()
	assert.Zero(t, counter.Load())
}

// ============================================================================
// LIFECYCLE
// ============================================================================

func TestCloseDropsQueuedAndRejectsNew(t *testing.T) {
	cfg := LowCPU()
	cfg.Workers = 1
	p, err := NewFunc(cfg)
	require.NoError(t, err)
	release := blockWorker(t, p)
	for i := 0; i < 3; i++ {
		require.NoError(t, p.AddTask(func() {}))
	}

	dropped := make(chan int, 1)
	go func() { dropped <- p.Close() }()
	require.Eventually(t, p.closed.Load, 5*time.Second, time.Millisecond)
	release()
	assert.Equal(t, 3, <-dropped)
	assert.Zero(t, p.Close())
	assert.ErrorIs(t, p.AddTask(func() {}), ErrClosed)
	p.CompleteAllTasks()
}

func TestNumberOfThreads(t *testing.T) {
	cfg := LowCPU()
	cfg.Workers = 3
	p := newFuncPool(t, cfg)
	assert.Equal(t, 3, p.NumberOfThreads())

	p2 := newFuncPool(t, LowCPU())
	assert.Equal(t, runtime.GOMAXPROCS(0), p2.NumberOfThreads())
}

func TestInvalidConfig(t *testing.T) {
	_, err := NewFunc(Config{Workers: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewFunc(Config{MaxQueued: -1})
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = NewFunc(Config{Idle: 9})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestPanickingTaskIsIsolated(t *testing.T) {
	var mu sync.Mutex
	var lines []string
	restore := debug.SetOutput(func(s string) {
		mu.Lock()
		lines = append(lines, s)
		mu.Unlock()
	})
	defer restore()

	cfg := LowCPU()
	cfg.Workers = 2
	p := newFuncPool(t, cfg)
	var counter atomic.Int64
	require.NoError(t, p.AddTask(func() { panic("boom") }))
	for i := 0; i < 10; i++ {
		require.NoError(t, p.AddTask(func() { counter.Add(1) }))
	}
	p.CompleteAllTasks()
	assert.Equal(t, int64(10), counter.Load())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, lines, 1)
	assert.True(t, strings.Contains(lines[0], "boom"))
}

func TestPinnedWorkers(t *testing.T) {
	restore := debug.SetOutput(nil)
	defer restore()
	cfg := LowCPU()
	cfg.Workers = 2
	cfg.PinWorkers = true
	p := newFuncPool(t, cfg)
	var counter atomic.Int64
	for i := 0; i < 100; i++ {
		require.NoError(t, p.AddTask(func() { counter.Add(1) }))
	}
	p.CompleteAllTasks()
	assert.Equal(t, int64(100), counter.Load())
}

// ============================================================================
// CUSTOM CONSUMERS
// ============================================================================

// summer adds every task into a shared total.
type summer struct {
	total *atomic.Int64
}

func (s summer) Consume(v int) { s.total.Add(int64(v)) }

func TestTypedConsumer(t *testing.T) {
	var total atomic.Int64
	cfg := LowLatency()
	cfg.Workers = 4
	p, err := New[int](summer{total: &total}, cfg)
	require.NoError(t, err)
	defer p.Close()
	for i := 1; i <= 100; i++ {
		require.NoError(t, p.AddTask(i))
	}
	p.CompleteAllTasks()
	assert.Equal(t, int64(5050), total.Load())
}

func TestDefaultPool(t *testing.T) {
	p := Default()
	assert.Same(t, p, Default())
	var ran atomic.Bool
	require.NoError(t, p.AddTask(func() { ran.Store(true) }))
	p.CompleteAllTasks()
	assert.True(t, ran.Load())
}
