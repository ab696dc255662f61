package threadpool

import (
	"strings"
	"testing"
	"time"

	"concore/constants"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNamedConfigs(t *testing.T) {
	ll := LowLatency()
	assert.Equal(t, Spin, ll.Idle)
	assert.Equal(t, Participating, ll.Participation)
	assert.Zero(t, ll.MaxQueued)

	lc := LowCPU()
	assert.Equal(t, Signaled, lc.Idle)
	assert.Equal(t, ProducerOnly, lc.Participation)
	assert.Equal(t, constants.LowCPUQueueBound, lc.MaxQueued)
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`{
		"workers": 4,
		"max_queued": 64,
		"idle": "signaled",
		"participation": "producer_only",
		"pin_workers": true,
		"poll_interval": "2ms"
	}`))
	require.NoError(t, err)
	assert.Equal(t, Config{
		Workers:       4,
		MaxQueued:     64,
		Idle:          Signaled,
		Participation: ProducerOnly,
		PinWorkers:    true,
		PollInterval:  2 * time.Millisecond,
	}, cfg)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(strings.NewReader(`{}`))
	require.NoError(t, err)
	assert.Equal(t, LowLatency(), cfg)
	assert.Equal(t, constants.DefaultPollInterval, cfg.resolved().PollInterval)
}

func TestLoadConfigRejects(t *testing.T) {
	for _, doc := range []string{
		`{"idle": "nap"}`,
		`{"participation": "sometimes"}`,
		`{"poll_interval": "soon"}`,
		`{"workers": -2}`,
		`not json`,
	} {
		_, err := LoadConfig(strings.NewReader(doc))
		assert.ErrorIs(t, err, ErrInvalidConfig, doc)
	}
}

func TestPolicyNames(t *testing.T) {
	assert.Equal(t, "spin", Spin.String())
	assert.Equal(t, "signaled", Signaled.String())
	assert.Equal(t, "participating", Participating.String())
	assert.Equal(t, "producer_only", ProducerOnly.String())
}

// ============================================================================
// SIGNAL
// ============================================================================

func TestSignalTimeout(t *testing.T) {
	s := NewSignal()
	ch := s.Arm()
	defer s.Disarm()
	start := time.Now()
	assert.False(t, Wait(ch, 20*time.Millisecond))
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.False(t, Wait(ch, 0))
}

func TestSignalBroadcastWakesAll(t *testing.T) {
	s := NewSignal()
	const waiters = 4
	woke := make(chan bool, waiters)
	armed := make(chan struct{}, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			ch := s.Arm()
			armed <- struct{}{}
			woke <- Wait(ch, 5*time.Second)
			s.Disarm()
		}()
	}
	for i := 0; i < waiters; i++ {
		<-armed
	}
	s.Broadcast()
	for i := 0; i < waiters; i++ {
		assert.True(t, <-woke)
	}
}

func TestSignalBroadcastWithoutWaiters(t *testing.T) {
	s := NewSignal()
	s.Broadcast()
	ch := s.Arm()
	defer s.Disarm()
	assert.False(t, Wait(ch, 0), "a broadcast with nobody armed is not latched")
}
