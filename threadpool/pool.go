// ============================================================================
// THREAD POOL
// ============================================================================
//
// A fixed set of worker goroutines, each locked to its own OS thread and
// optionally pinned to a CPU, drains one lock-free task queue.
//
// Accounting:
//   - queued counts tasks sitting in the queue; it doubles as the bound
//     reservation, taken by CAS before a push
//   - pending counts queued plus executing tasks; CompleteAllTasks returns
//     once it reaches zero
//
// Waiting (for work, for queue room, for completion) follows the idle
// policy: Spin retries with atomicx.Backoff and never blocks; Signaled arms
// a Signal and sleeps at most one poll interval, so a lost wake-up costs
// one interval and never a hang.
//
// Cancellation: none mid-task. Close stops workers before they start
// another task and drops whatever is still queued.

package threadpool

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"concore/atomicx"
	"concore/debug"
	"concore/lfqueue"
)

// ErrClosed is returned by AddTask after Close.
var ErrClosed = errors.New("threadpool: closed")

// Consumer executes one task. Every worker owns a private copy, so a
// Consumer may keep per-thread state in its fields.
type Consumer[T any] interface {
	Consume(task T)
}

// Pool runs tasks of type T through copies of a Consumer C.
type Pool[T any, C Consumer[T]] struct {
	cfg      Config
	consumer C
	tasks    *lfqueue.Queue[T]

	queued  atomic.Int64
	pending atomic.Int64
	closed  atomic.Bool

	work *Signal // a task was queued, or the pool closed
	room *Signal // a bounded queue slot freed up
	idle *Signal // pending dropped to zero

	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New starts cfg.Workers workers, each with its own copy of consumer.
func New[T any, C Consumer[T]](consumer C, cfg Config) (*Pool[T, C], error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg = cfg.resolved()
	p := &Pool[T, C]{
		cfg:      cfg,
		consumer: consumer,
		tasks:    lfqueue.New[T](),
		work:     NewSignal(),
		room:     NewSignal(),
		idle:     NewSignal(),
	}
	p.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go p.worker(i, consumer)
	}
	return p, nil
}

// NumberOfThreads returns the number of worker threads.
func (p *Pool[T, C]) NumberOfThreads() int { return p.cfg.Workers }

// Config returns the resolved configuration.
func (p *Pool[T, C]) Config() Config { return p.cfg }

// AddTask queues task. On a full bounded queue the caller waits for room
// according to the idle policy.
func (p *Pool[T, C]) AddTask(task T) error {
	if p.closed.Load() {
		return ErrClosed
	}
	if err := p.reserve(); err != nil {
		return err
	}
	p.pending.Add(1)
	if err := p.tasks.Push(task); err != nil {
		p.queued.Add(-1)
		p.finish()
		return fmt.Errorf("threadpool: queue task: %w", err)
	}
	if p.closed.Load() {
		// Lost the race with Close, which may already have drained.
		p.ClearQueue()
		return ErrClosed
	}
	p.work.Broadcast()
	return nil
}

// reserve takes one queue slot, waiting while a bounded queue is full.
func (p *Pool[T, C]) reserve() error {
	limit := int64(p.cfg.MaxQueued)
	if limit == 0 {
		p.queued.Add(1)
		return nil
	}
	var b atomicx.Backoff
	for {
		n := p.queued.Load()
		if n < limit {
			if p.queued.CompareAndSwap(n, n+1) {
				return nil
			}
			continue
		}
		if p.closed.Load() {
			return ErrClosed
		}
		p.wait(&b, p.room, func() bool { return p.queued.Load() < limit || p.closed.Load() })
	}
}

// take pops one task and releases its queue slot.
func (p *Pool[T, C]) take() (T, bool) {
	task, ok := p.tasks.Pop()
	if ok {
		p.queued.Add(-1)
		if p.cfg.MaxQueued > 0 {
			p.room.Broadcast()
		}
	}
	return task, ok
}

// finish retires one task that was counted in pending.
func (p *Pool[T, C]) finish() {
	if p.pending.Add(-1) == 0 {
		p.idle.Broadcast()
	}
}

// wait idles once according to the policy. ready is re-checked after
// arming so a signal between the caller's check and the sleep is not lost.
func (p *Pool[T, C]) wait(b *atomicx.Backoff, sig *Signal, ready func() bool) {
	if p.cfg.Idle == Spin {
		b.Spin()
		return
	}
	ch := sig.Arm()
	if !ready() {
		Wait(ch, p.cfg.PollInterval)
	}
	sig.Disarm()
}

func (p *Pool[T, C]) worker(id int, c C) {
	defer p.wg.Done()
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	if p.cfg.PinWorkers {
		if err := setAffinity(id % runtime.NumCPU()); err != nil {
			debug.DropError("THREADPOOL_PIN", err)
		}
	}

	var b atomicx.Backoff
	for !p.closed.Load() {
		if task, ok := p.take(); ok {
			c.Consume(task)
			p.finish()
			b.Reset()
			continue
		}
		p.wait(&b, p.work, func() bool { return p.queued.Load() > 0 || p.closed.Load() })
	}
}

// CompleteAllTasks blocks until no task is queued or executing. A
// participating controller runs queued tasks on the calling goroutine
// with its own copy of the consumer while it waits.
func (p *Pool[T, C]) CompleteAllTasks() {
	c := p.consumer
	var b atomicx.Backoff
	for p.pending.Load() > 0 {
		if p.cfg.Participation == Participating {
			if task, ok := p.take(); ok {
				c.Consume(task)
				p.finish()
				b.Reset()
				continue
			}
		}
		p.wait(&b, p.idle, func() bool { return p.pending.Load() == 0 })
	}
}

// ClearQueue drops every task that has not started and returns how many
// were dropped. Tasks already executing are unaffected.
func (p *Pool[T, C]) ClearQueue() int {
	n := 0
	for {
		if _, ok := p.take(); !ok {
			return n
		}
		p.finish()
		n++
	}
}

// Close stops the workers once their current task ends, waits for them to
// exit, and drops the tasks still queued. Further AddTask calls fail with
// ErrClosed. Close is idempotent and returns the number of dropped tasks
// on the first call.
func (p *Pool[T, C]) Close() int {
	dropped := 0
	p.closeOnce.Do(func() {
		p.closed.Store(true)
		p.work.Broadcast()
		p.room.Broadcast()
		p.wg.Wait()
		dropped = p.ClearQueue()
	})
	return dropped
}
