package threadpool

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"time"

	"github.com/sugawarayuuta/sonnet"

	"concore/constants"
)

// ErrInvalidConfig reports a Config that can not build a pool.
var ErrInvalidConfig = errors.New("threadpool: invalid config")

// IdlePolicy decides what a thread does when it has to wait for work,
// room in the queue, or completion.
type IdlePolicy uint8

const (
	// Spin busy-retries and never blocks.
	Spin IdlePolicy = iota
	// Signaled blocks on a Signal, bounded by the poll interval.
	Signaled
)

// Participation decides whether CompleteAllTasks runs tasks itself.
type Participation uint8

const (
	// Participating controllers pop and run tasks while they wait.
	Participating Participation = iota
	// ProducerOnly controllers only wait.
	ProducerOnly
)

// Config is fixed at construction.
type Config struct {
	Workers       int           `json:"workers"`    // 0 = GOMAXPROCS
	MaxQueued     int           `json:"max_queued"` // 0 = unbounded
	Idle          IdlePolicy    `json:"idle"`
	Participation Participation `json:"participation"`
	PinWorkers    bool          `json:"pin_workers"`
	PollInterval  time.Duration `json:"poll_interval"` // 0 = constants.DefaultPollInterval
}

// LowLatency suits short bursts of known-size work: spinning threads, a
// participating controller and an unbounded queue.
func LowLatency() Config {
	return Config{Idle: Spin, Participation: Participating}
}

// LowCPU suits a continuous stream of tasks: signaled threads, a
// producer-only controller and a bounded queue.
func LowCPU() Config {
	return Config{
		MaxQueued:     constants.LowCPUQueueBound,
		Idle:          Signaled,
		Participation: ProducerOnly,
	}
}

// LoadConfig decodes a JSON Config. Idle and participation are given by
// name ("spin", "signaled", "participating", "producer_only") and the poll
// interval as a Go duration string.
func LoadConfig(r io.Reader) (Config, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("threadpool: read config: %w", err)
	}
	var doc struct {
		Workers       int    `json:"workers"`
		MaxQueued     int    `json:"max_queued"`
		Idle          string `json:"idle"`
		Participation string `json:"participation"`
		PinWorkers    bool   `json:"pin_workers"`
		PollInterval  string `json:"poll_interval"`
	}
	if err := sonnet.Unmarshal(raw, &doc); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	cfg := Config{Workers: doc.Workers, MaxQueued: doc.MaxQueued, PinWorkers: doc.PinWorkers}
	switch doc.Idle {
	case "", "spin":
		cfg.Idle = Spin
	case "signaled":
		cfg.Idle = Signaled
	default:
		return Config{}, fmt.Errorf("%w: idle policy %q", ErrInvalidConfig, doc.Idle)
	}
	switch doc.Participation {
	case "", "participating":
		cfg.Participation = Participating
	case "producer_only":
		cfg.Participation = ProducerOnly
	default:
		return Config{}, fmt.Errorf("%w: participation %q", ErrInvalidConfig, doc.Participation)
	}
	if doc.PollInterval != "" {
		d, err := time.ParseDuration(doc.PollInterval)
		if err != nil {
			return Config{}, fmt.Errorf("%w: poll interval: %v", ErrInvalidConfig, err)
		}
		cfg.PollInterval = d
	}
	return cfg, cfg.validate()
}

// String names the policy.
func (p IdlePolicy) String() string {
	if p == Signaled {
		return "signaled"
	}
	return "spin"
}

// String names the policy.
func (p Participation) String() string {
	if p == ProducerOnly {
		return "producer_only"
	}
	return "participating"
}

func (c Config) validate() error {
	switch {
	case c.Workers < 0:
		return fmt.Errorf("%w: %d workers", ErrInvalidConfig, c.Workers)
	case c.MaxQueued < 0:
		return fmt.Errorf("%w: queue bound %d", ErrInvalidConfig, c.MaxQueued)
	case c.PollInterval < 0:
		return fmt.Errorf("%w: poll interval %v", ErrInvalidConfig, c.PollInterval)
	case c.Idle > Signaled:
		return fmt.Errorf("%w: idle policy %d", ErrInvalidConfig, c.Idle)
	case c.Participation > ProducerOnly:
		return fmt.Errorf("%w: participation %d", ErrInvalidConfig, c.Participation)
	}
	return nil
}

// resolved fills in the platform-dependent defaults.
func (c Config) resolved() Config {
	if c.Workers == 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	if c.PollInterval == 0 {
		c.PollInterval = constants.DefaultPollInterval
	}
	return c
}
