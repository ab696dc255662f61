package tagptr

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestZeroValueIsNull(t *testing.T) {
	var p Pointer
	v := p.Load()
	require.True(t, v.IsNil())
	require.Equal(t, Make(Null, 0), v)
}

func TestSetGetTag(t *testing.T) {
	var p Pointer
	p.Set(42, 7)
	require.Equal(t, uint32(42), p.Get())
	require.Equal(t, uint32(7), p.Tag())
	require.False(t, p.Load().IsNil())
}

func TestEqualityNeedsBothHalves(t *testing.T) {
	require.Equal(t, Make(3, 9), Make(3, 9))
	require.NotEqual(t, Make(3, 9), Make(3, 10))
	require.NotEqual(t, Make(3, 9), Make(4, 9))
}

func TestSwingBumpsTag(t *testing.T) {
	var p Pointer
	p.Set(1, 0)
	old := p.Load()
	require.True(t, p.Swing(old, 2))
	require.Equal(t, Make(2, 1), p.Load())
	require.False(t, p.Swing(old, 3), "stale expected value must lose")
}

// TestABADetected replays the ABA interleaving: a delayed thread reads
// {1,t}, others move the slot to 2 and back to 1, and the delayed CAS must
// fail because the tag moved on.
func TestABADetected(t *testing.T) {
	var p Pointer
	p.Set(1, 0)
	stale := p.Load()

	require.True(t, p.Swing(p.Load(), 2))
	require.True(t, p.Swing(p.Load(), 1))
	require.Equal(t, uint32(1), p.Get(), "same index as the stale read")

	require.False(t, p.Swing(stale, 5))
	require.Equal(t, Make(1, 2), p.Load())
}

func TestTagWraps(t *testing.T) {
	var p Pointer
	p.Set(9, ^uint32(0))
	require.True(t, p.Swing(p.Load(), 9))
	require.Equal(t, Make(9, 0), p.Load())
}

func TestConcurrentSwingCountsEveryUpdate(t *testing.T) {
	const goroutines, ops = 8, 5000
	var p Pointer
	var wg sync.WaitGroup
	for g := 0; g < goroutines; g++ {
		wg.Add(1)
		go func(id uint32) {
			defer wg.Done()
			for i := 0; i < ops; i++ {
				for {
					cur := p.Load()
					if p.Swing(cur, id) {
						break
					}
				}
			}
		}(uint32(g + 1))
	}
	wg.Wait()
	require.Equal(t, uint32(goroutines*ops), p.Tag(), "one tag step per successful update")
}
