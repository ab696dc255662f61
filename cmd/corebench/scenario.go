package main

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math/rand"
	"os"
	"sort"
	"sync/atomic"
	"time"

	"github.com/sugawarayuuta/sonnet"
	"golang.org/x/crypto/sha3"

	"concore/alloc"
	"concore/lfqueue"
	"concore/refcount"
	"concore/threadpool"
	"concore/utils"
)

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// SCENARIO FILE
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Scenario is one bench configuration. The thread pool keys of the same
// document ("workers", "idle", ...) are decoded by threadpool.LoadConfig.
type Scenario struct {
	Tasks        int   `json:"tasks"`
	ChurnBlocks  int   `json:"churn_blocks"`
	ChurnMaxSize int   `json:"churn_max_size"`
	Owners       int   `json:"owners"`
	Seed         int64 `json:"seed"`

	Pool threadpool.Config `json:"-"`
	raw  []byte
}

// defaultScenario is the built-in run: four low-latency workers pushing
// ten thousand integers, plus a ten-thousand-block allocator churn.
var defaultScenario = []byte(`{
	"workers": 4,
	"idle": "spin",
	"participation": "participating",
	"tasks": 10000,
	"churn_blocks": 10000,
	"churn_max_size": 256,
	"owners": 64,
	"seed": 1
}`)

// loadScenario reads path, or the built-in scenario when path is empty.
func loadScenario(path string) (*Scenario, error) {
	raw := defaultScenario
	if path != "" {
		var err error
		if raw, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return parseScenario(raw)
}

func parseScenario(raw []byte) (*Scenario, error) {
	sc := &Scenario{raw: raw}
	if err := sonnet.Unmarshal(raw, sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	cfg, err := threadpool.LoadConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	sc.Pool = cfg
	switch {
	case sc.Tasks < 0, sc.ChurnBlocks < 0, sc.Owners < 0:
		return nil, fmt.Errorf("scenario: negative count")
	case sc.ChurnBlocks > 0 && sc.ChurnMaxSize < 1:
		return nil, fmt.Errorf("scenario: churn_max_size must be positive")
	}
	return sc, nil
}

// ═══════════════════════════════════════════════════════════════════════════════════════════════
// RUNS
// ═══════════════════════════════════════════════════════════════════════════════════════════════

// Result is one recorded run.
type Result struct {
	Name        string
	Config      string
	Started     time.Time
	Duration    time.Duration
	OK          bool
	Fingerprint string
	Detail      string
}

type run func(*Scenario) Result

func (sc *Scenario) runs() []run {
	return []run{runEndToEnd, runChurn, runRefcount}
}

func timed(sc *Scenario, name string, body func() (ok bool, sum []byte, detail string)) Result {
	start := time.Now()
	ok, sum, detail := body()
	return Result{
		Name:        name,
		Config:      utils.B2s(sc.raw),
		Started:     start,
		Duration:    time.Since(start),
		OK:          ok,
		Fingerprint: hex.EncodeToString(sum),
		Detail:      detail,
	}
}

// fingerprint hashes a sorted integer set so equal sets from different
// interleavings compare equal.
func fingerprint(values []int) []byte {
	h := sha3.New256()
	var buf [8]byte
	for _, v := range values {
		binary.LittleEndian.PutUint64(buf[:], uint64(v))
		h.Write(buf[:])
	}
	return h.Sum(nil)
}

// runEndToEnd submits Tasks tasks that each push a unique integer into a
// second queue, waits for completion and checks the drained set is exactly
// 0..Tasks-1.
func runEndToEnd(sc *Scenario) Result {
	return timed(sc, "end_to_end", func() (bool, []byte, string) {
		pool, err := threadpool.NewFunc(sc.Pool)
		if err != nil {
			return false, nil, err.Error()
		}
		defer pool.Close()

		out := lfqueue.New[int]()
		var pushErrs atomic.Int64
		for i := 0; i < sc.Tasks; i++ {
			v := i
			if err := pool.AddTask(func() {
				if out.Push(v) != nil {
					pushErrs.Add(1)
				}
			}); err != nil {
				return false, nil, err.Error()
			}
		}
		pool.CompleteAllTasks()

		drained := make([]int, 0, sc.Tasks)
		for {
			v, ok := out.Pop()
			if !ok {
				break
			}
			drained = append(drained, v)
		}
		sort.Ints(drained)
		for i, v := range drained {
			if v != i {
				return false, nil, "value " + utils.Itoa(v) + " at position " + utils.Itoa(i)
			}
		}
		if len(drained) != sc.Tasks || pushErrs.Load() != 0 {
			return false, nil, "drained " + utils.Itoa(len(drained)) + " of " + utils.Itoa(sc.Tasks)
		}
		return true, fingerprint(drained), utils.Itoa(pool.NumberOfThreads()) + " workers, " + sc.Pool.Idle.String()
	})
}

// runChurn allocates ChurnBlocks random-sized blocks, frees them in random
// order and checks every chunk invariant.
func runChurn(sc *Scenario) Result {
	return timed(sc, "alloc_churn", func() (bool, []byte, string) {
		a := alloc.NewSmallObjectAllocator(alloc.WithMaxObjectSize(sc.ChurnMaxSize))
		defer a.Release()
		rng := rand.New(rand.NewSource(sc.Seed))

		type live struct {
			b    []byte
			size int
		}
		blocks := make([]live, 0, sc.ChurnBlocks)
		for i := 0; i < sc.ChurnBlocks; i++ {
			size := 1 + rng.Intn(sc.ChurnMaxSize)
			b, err := a.Allocate(size)
			if err != nil {
				return false, nil, err.Error()
			}
			for j := range b {
				b[j] = byte(i)
			}
			blocks = append(blocks, live{b, size})
		}
		peak := a.Stats()

		rng.Shuffle(len(blocks), func(i, j int) { blocks[i], blocks[j] = blocks[j], blocks[i] })
		for _, lb := range blocks {
			a.Deallocate(lb.b, lb.size)
		}
		if err := a.Verify(); err != nil {
			return false, nil, err.Error()
		}
		if n := a.Stats().InUse(); n != 0 {
			return false, nil, utils.Itoa(n) + " blocks still in use"
		}

		doc, err := sonnet.Marshal(peak)
		if err != nil {
			return false, nil, err.Error()
		}
		sum := sha3.Sum256(doc)
		return true, sum[:], utils.Itoa(len(peak.Pools)) + " pools at peak"
	})
}

// runRefcount hands Owners clones of one externally counted value to the
// process-wide pool and checks the destructor runs exactly once.
func runRefcount(sc *Scenario) Result {
	return timed(sc, "refcount", func() (bool, []byte, string) {
		var destroyed atomic.Int32
		value := new(int)
		root, err := refcount.NewExternal(value, func(*int) { destroyed.Add(1) })
		if err != nil {
			return false, nil, err.Error()
		}

		pool := threadpool.Default()
		for i := 0; i < sc.Owners; i++ {
			h := root.Clone()
			if err := pool.AddTask(func() { h.Release() }); err != nil {
				return false, nil, err.Error()
			}
		}
		root.Release()
		pool.CompleteAllTasks()

		n := int(destroyed.Load())
		if n != 1 {
			return false, nil, "destroyed " + utils.Itoa(n) + " times"
		}
		sum := sha3.Sum256([]byte(utils.Itoa(sc.Owners)))
		return true, sum[:], utils.Itoa(sc.Owners) + " owners"
	})
}
