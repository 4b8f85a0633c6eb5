package bound

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestMap(t *testing.T, capacity int) *BoundedMap[uint32, uint32] {
	t.Helper()
	keys := NewHeapProvider(capacity*4, VerificationOff)
	values := NewHeapProvider(capacity*4, VerificationOff)
	m, err := NewBoundedMap[uint32, uint32](capacity, keys, values, Uint32Codec{}, Uint32Codec{})
	require.NoError(t, err)
	return m
}

func TestBoundedMap_InsertGetContains(t *testing.T) {
	m := newTestMap(t, 4)
	require.NoError(t, m.Insert(1, 100))
	require.NoError(t, m.Insert(2, 200))

	v, ok, err := m.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(100), v)

	ok, err = m.Contains(2)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = m.Contains(99)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoundedMap_InsertReplacesExisting(t *testing.T) {
	m := newTestMap(t, 4)
	require.NoError(t, m.Insert(1, 100))
	require.NoError(t, m.Insert(1, 200))
	require.Equal(t, 1, m.Len())

	v, ok, err := m.Get(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(200), v)
}

func TestBoundedMap_CapacityExceeded(t *testing.T) {
	m := newTestMap(t, 1)
	require.NoError(t, m.Insert(1, 100))
	err := m.Insert(2, 200)
	require.Error(t, err)
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 1, m.Len())
}

func TestBoundedMap_Remove(t *testing.T) {
	m := newTestMap(t, 4)
	require.NoError(t, m.Insert(1, 100))
	require.NoError(t, m.Insert(2, 200))

	v, ok, err := m.Remove(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(100), v)
	require.Equal(t, 1, m.Len())

	_, ok, err = m.Remove(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoundedMap_RangeStopsEarly(t *testing.T) {
	m := newTestMap(t, 4)
	require.NoError(t, m.Insert(1, 10))
	require.NoError(t, m.Insert(2, 20))
	require.NoError(t, m.Insert(3, 30))

	var seen int
	err := m.Range(func(k, v uint32) bool {
		seen++
		return seen < 2
	})
	require.NoError(t, err)
	require.Equal(t, 2, seen)
}

func TestBoundedMap_Clear(t *testing.T) {
	m := newTestMap(t, 4)
	require.NoError(t, m.Insert(1, 10))
	m.Clear()
	require.True(t, m.IsEmpty())
	require.Equal(t, 0, m.Len())
}
