package bound

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestVec(t *testing.T, capacity int) *BoundedVec[uint32] {
	t.Helper()
	p := NewHeapProvider(capacity*4, VerificationFull)
	v, err := NewBoundedVec[uint32](capacity, p, Uint32Codec{})
	require.NoError(t, err)
	return v
}

func TestBoundedVec_PushPopGetSet(t *testing.T) {
	v := newTestVec(t, 4)
	require.NoError(t, v.Push(10))
	require.NoError(t, v.Push(20))
	require.NoError(t, v.Push(30))
	require.Equal(t, 3, v.Len())

	got, err := v.Get(1)
	require.NoError(t, err)
	require.Equal(t, uint32(20), got)

	prev, err := v.Set(1, 99)
	require.NoError(t, err)
	require.Equal(t, uint32(20), prev)
	got, err = v.Get(1)
	require.NoError(t, err)
	require.Equal(t, uint32(99), got)

	item, ok, err := v.Pop()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint32(30), item)
	require.Equal(t, 2, v.Len())
}

func TestBoundedVec_PopEmpty(t *testing.T) {
	v := newTestVec(t, 2)
	_, ok, err := v.Pop()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoundedVec_CapacityExceeded(t *testing.T) {
	v := newTestVec(t, 2)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	err := v.Push(3)
	require.Error(t, err)
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 2, v.Len())
}

func TestBoundedVec_IndexOutOfBounds(t *testing.T) {
	v := newTestVec(t, 2)
	require.NoError(t, v.Push(1))

	_, err := v.Get(5)
	require.Error(t, err)
	var oobErr *IndexOutOfBoundsError
	require.ErrorAs(t, err, &oobErr)

	_, err = v.Set(-1, 7)
	require.Error(t, err)
	require.ErrorAs(t, err, &oobErr)
}

func TestBoundedVec_InsertRemove(t *testing.T) {
	v := newTestVec(t, 4)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(3))
	require.NoError(t, v.Insert(1, 2))

	slice, err := v.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, slice)

	removed, err := v.Remove(0)
	require.NoError(t, err)
	require.Equal(t, uint32(1), removed)
	slice, err = v.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 3}, slice)
}

func TestBoundedVec_InsertCapacityExceeded(t *testing.T) {
	v := newTestVec(t, 2)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))
	err := v.Insert(0, 3)
	require.Error(t, err)
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
}

func TestBoundedVec_Extend(t *testing.T) {
	v := newTestVec(t, 4)
	require.NoError(t, v.Extend([]uint32{1, 2, 3}))
	require.Equal(t, 3, v.Len())

	err := v.Extend([]uint32{4, 5})
	require.Error(t, err)
}

func TestBoundedVec_ClearAndRetain(t *testing.T) {
	v := newTestVec(t, 4)
	require.NoError(t, v.Extend([]uint32{1, 2, 3, 4}))

	require.NoError(t, v.Retain(func(x uint32) bool { return x%2 == 0 }))
	slice, err := v.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint32{2, 4}, slice)

	v.Clear()
	require.True(t, v.IsEmpty())
}

func TestBoundedVec_SortAndDedup(t *testing.T) {
	v := newTestVec(t, 6)
	require.NoError(t, v.Extend([]uint32{3, 1, 2, 2, 1, 3}))
	require.NoError(t, v.Sort(func(a, b uint32) bool { return a < b }))
	slice, err := v.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 1, 2, 2, 3, 3}, slice)

	require.NoError(t, v.Dedup(func(a, b uint32) bool { return a == b }))
	slice, err = v.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 2, 3}, slice)
}

func TestBoundedVec_BinarySearch(t *testing.T) {
	v := newTestVec(t, 5)
	require.NoError(t, v.Extend([]uint32{10, 20, 30, 40, 50}))
	less := func(a, b uint32) bool { return a < b }

	idx, found, err := v.BinarySearch(30, less)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 2, idx)

	idx, found, err = v.BinarySearch(25, less)
	require.NoError(t, err)
	require.False(t, found)
	require.Equal(t, 2, idx)
}

func TestBoundedVec_DrainShiftsTail(t *testing.T) {
	v := newTestVec(t, 5)
	require.NoError(t, v.Extend([]uint32{1, 2, 3, 4, 5}))

	it, err := v.Drain(1, 3)
	require.NoError(t, err)
	var drained []uint32
	for {
		item, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		drained = append(drained, item)
	}
	require.Equal(t, []uint32{2, 3}, drained)

	slice, err := v.ToSlice()
	require.NoError(t, err)
	require.Equal(t, []uint32{1, 4, 5}, slice)
}

func TestBoundedVec_VerifyChecksum(t *testing.T) {
	v := newTestVec(t, 4)
	require.NoError(t, v.Push(1))
	require.NoError(t, v.Push(2))

	ok, err := v.VerifyChecksum()
	require.NoError(t, err)
	require.True(t, ok)
}

func TestBoundedVec_ZeroSizeElementRejectsNonzeroCapacity(t *testing.T) {
	p := NewHeapProvider(0, VerificationOff)
	_, err := NewBoundedVec[struct{}](3, p, zeroSizeCodec{})
	require.Error(t, err)
	var invErr *InvalidCapacityError
	require.ErrorAs(t, err, &invErr)
}

type zeroSizeCodec struct{}

func (zeroSizeCodec) Size() int                             { return 0 }
func (zeroSizeCodec) Encode(struct{}, []byte)                {}
func (zeroSizeCodec) Decode([]byte) (struct{}, error)        { return struct{}{}, nil }
