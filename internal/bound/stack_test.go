package bound

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestStack(t *testing.T, capacity int) *BoundedStack[uint32] {
	t.Helper()
	p := NewHeapProvider(capacity*4, VerificationOff)
	s, err := NewBoundedStack[uint32](capacity, p, Uint32Codec{})
	require.NoError(t, err)
	return s
}

func TestBoundedStack_PushPeekPop(t *testing.T) {
	s := newTestStack(t, 3)
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))

	top, ok, err := s.Peek()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(2), top)
	require.Equal(t, 2, s.Len())

	item, ok, err := s.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(2), item)
	require.Equal(t, 1, s.Len())
}

func TestBoundedStack_PeekEmpty(t *testing.T) {
	s := newTestStack(t, 2)
	_, ok, err := s.Peek()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoundedStack_CapacityExceeded(t *testing.T) {
	s := newTestStack(t, 1)
	require.NoError(t, s.Push(1))
	err := s.Push(2)
	require.Error(t, err)
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
}

func TestBoundedStack_LIFOOrder(t *testing.T) {
	s := newTestStack(t, 4)
	require.NoError(t, s.Push(1))
	require.NoError(t, s.Push(2))
	require.NoError(t, s.Push(3))

	var order []uint32
	for {
		item, ok, err := s.Pop()
		require.NoError(t, err)
		if !ok {
			break
		}
		order = append(order, item)
	}
	require.Equal(t, []uint32{3, 2, 1}, order)
}
