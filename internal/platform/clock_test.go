package platform

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFuelClock_AdvanceAccumulates(t *testing.T) {
	c := NewFuelClock()
	require.Equal(t, uint64(0), c.Now())

	require.Equal(t, uint64(5), c.Advance(5))
	require.Equal(t, uint64(8), c.Advance(3))
	require.Equal(t, uint64(8), c.Now())
}

func TestFuelClock_ConcurrentAdvanceIsRaceFree(t *testing.T) {
	c := NewFuelClock()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Advance(1)
		}()
	}
	wg.Wait()
	require.Equal(t, uint64(100), c.Now())
}
