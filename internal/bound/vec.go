package bound

import "sort"

// BoundedVec is an ordered, ≤N-element sequence whose items are serialized
// into bytes supplied by a Provider, per section 3.2. Every mutating
// operation is O(1) or O(n) per standard Vec semantics and never allocates
// beyond the Provider's preallocated storage.
type BoundedVec[T any] struct {
	provider Provider
	codec    Codec[T]
	capacity int
	length   int
	itemSize int
	checksum uint32
	level    VerificationLevel
}

// NewBoundedVec constructs a BoundedVec with the given fixed capacity,
// backed by provider, using codec to serialize elements. It rejects a
// nonzero capacity paired with a zero-size codec, per section 4.1 ("the
// container rejects N > 0 when serialized size is 0 and the element
// carries data") — a zero-size element is only meaningful for capacity 0,
// a degenerate marker container.
func NewBoundedVec[T any](capacity int, provider Provider, codec Codec[T]) (*BoundedVec[T], error) {
	size := codec.Size()
	if size == 0 && capacity > 0 {
		return nil, &InvalidCapacityError{Reason: "zero-size element with nonzero capacity"}
	}
	if provider.Capacity() < size*capacity {
		return nil, &InvalidCapacityError{Reason: "provider too small for requested capacity"}
	}
	return &BoundedVec[T]{
		provider: provider,
		codec:    codec,
		capacity: capacity,
		itemSize: size,
		level:    provider.VerificationLevel(),
	}, nil
}

func (v *BoundedVec[T]) Len() int      { return v.length }
func (v *BoundedVec[T]) IsEmpty() bool { return v.length == 0 }
func (v *BoundedVec[T]) IsFull() bool  { return v.length == v.capacity }
func (v *BoundedVec[T]) Capacity() int { return v.capacity }

func (v *BoundedVec[T]) VerificationLevel() VerificationLevel { return v.level }
func (v *BoundedVec[T]) SetVerificationLevel(l VerificationLevel) { v.level = l }

func (v *BoundedVec[T]) offset(index int) int { return index * v.itemSize }

// Push appends item, failing with CapacityExceededError if the container
// is already full; the container's length is unchanged on failure.
func (v *BoundedVec[T]) Push(item T) error {
	if v.length >= v.capacity {
		return &CapacityExceededError{Capacity: v.capacity}
	}
	if v.itemSize > 0 {
		buf := make([]byte, v.itemSize)
		v.codec.Encode(item, buf)
		if err := v.provider.WriteData(v.offset(v.length), buf); err != nil {
			return err
		}
	}
	v.length++
	v.afterMutation()
	return nil
}

// Pop removes and returns the last element, or ok=false if empty.
func (v *BoundedVec[T]) Pop() (item T, ok bool, err error) {
	if v.length == 0 {
		return item, false, nil
	}
	item, err = v.readAt(v.length - 1)
	if err != nil {
		return item, false, err
	}
	v.length--
	v.afterMutation()
	return item, true, nil
}

func (v *BoundedVec[T]) readAt(index int) (item T, err error) {
	if v.itemSize == 0 {
		return item, nil
	}
	buf, err := v.provider.BorrowSlice(v.offset(index), v.itemSize)
	if err != nil {
		return item, err
	}
	item, err = v.codec.Decode(buf)
	if err != nil {
		return item, &ConversionError{Reason: err.Error()}
	}
	return item, nil
}

// Get returns the element at index, or IndexOutOfBoundsError past Len().
func (v *BoundedVec[T]) Get(index int) (T, error) {
	var zero T
	if index < 0 || index >= v.length {
		return zero, &IndexOutOfBoundsError{Index: index, Length: v.length}
	}
	return v.readAt(index)
}

// Set overwrites the element at index, returning the previous value.
func (v *BoundedVec[T]) Set(index int, value T) (T, error) {
	var zero T
	if index < 0 || index >= v.length {
		return zero, &IndexOutOfBoundsError{Index: index, Length: v.length}
	}
	prev, err := v.readAt(index)
	if err != nil {
		return zero, err
	}
	if v.itemSize > 0 {
		buf := make([]byte, v.itemSize)
		v.codec.Encode(value, buf)
		if err := v.provider.WriteData(v.offset(index), buf); err != nil {
			return zero, err
		}
	}
	v.afterMutation()
	return prev, nil
}

// Insert shifts elements at and after index right by one and stores value
// at index.
func (v *BoundedVec[T]) Insert(index int, value T) error {
	if index < 0 || index > v.length {
		return &IndexOutOfBoundsError{Index: index, Length: v.length}
	}
	if v.length >= v.capacity {
		return &CapacityExceededError{Capacity: v.capacity}
	}
	for i := v.length; i > index; i-- {
		prev, err := v.readAt(i - 1)
		if err != nil {
			return err
		}
		if err := v.writeAt(i, prev); err != nil {
			return err
		}
	}
	if err := v.writeAt(index, value); err != nil {
		return err
	}
	v.length++
	v.afterMutation()
	return nil
}

func (v *BoundedVec[T]) writeAt(index int, value T) error {
	if v.itemSize == 0 {
		return nil
	}
	buf := make([]byte, v.itemSize)
	v.codec.Encode(value, buf)
	return v.provider.WriteData(v.offset(index), buf)
}

// Remove shifts elements after index left by one and returns the removed
// value.
func (v *BoundedVec[T]) Remove(index int) (T, error) {
	var zero T
	if index < 0 || index >= v.length {
		return zero, &IndexOutOfBoundsError{Index: index, Length: v.length}
	}
	removed, err := v.readAt(index)
	if err != nil {
		return zero, err
	}
	for i := index; i < v.length-1; i++ {
		next, err := v.readAt(i + 1)
		if err != nil {
			return zero, err
		}
		if err := v.writeAt(i, next); err != nil {
			return zero, err
		}
	}
	v.length--
	v.afterMutation()
	return removed, nil
}

// Clear empties the container; capacity and provider storage are retained.
func (v *BoundedVec[T]) Clear() {
	v.length = 0
	v.afterMutation()
}

// Extend appends every element of items, failing (with no partial effect
// beyond the elements that did fit) if capacity would be exceeded.
func (v *BoundedVec[T]) Extend(items []T) error {
	for _, it := range items {
		if err := v.Push(it); err != nil {
			return err
		}
	}
	return nil
}

// ToSlice materializes every element as a plain Go slice. Used by callers
// (e.g. error formatting, debugging) that need ordinary Go ergonomics;
// never called on a hot path.
func (v *BoundedVec[T]) ToSlice() ([]T, error) {
	out := make([]T, 0, v.length)
	for i := 0; i < v.length; i++ {
		item, err := v.readAt(i)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// Iter returns a lazy, finite iterator over the container's current
// length, deserializing each element on Next.
func (v *BoundedVec[T]) Iter() *Iterator[T] {
	return &Iterator[T]{vec: v, next: 0, end: v.length}
}

// Iterator is the lazy sequence BoundedVec.Iter and Drain produce.
type Iterator[T any] struct {
	vec  *BoundedVec[T]
	next int
	end  int
}

// Next returns the next element and true, or the zero value and false when
// the iterator is exhausted.
func (it *Iterator[T]) Next() (T, bool, error) {
	var zero T
	if it.next >= it.end {
		return zero, false, nil
	}
	item, err := it.vec.readAt(it.next)
	it.next++
	if err != nil {
		return zero, false, err
	}
	return item, true, nil
}

// Drain removes the elements in [start, end), shifting the tail left
// before it returns, and yields the removed elements through the returned
// iterator, which reads a separate copy of them.
func (v *BoundedVec[T]) Drain(start, end int) (*Iterator[T], error) {
	if start < 0 || end > v.length || start > end {
		return nil, &IndexOutOfBoundsError{Index: end, Length: v.length}
	}
	drained := make([]T, 0, end-start)
	for i := start; i < end; i++ {
		item, err := v.readAt(i)
		if err != nil {
			return nil, err
		}
		drained = append(drained, item)
	}
	for i := end; i < v.length; i++ {
		item, err := v.readAt(i)
		if err != nil {
			return nil, err
		}
		if err := v.writeAt(start+(i-end), item); err != nil {
			return nil, err
		}
	}
	v.length -= end - start
	v.afterMutation()
	snapshot := &BoundedVec[T]{
		provider: newInMemorySnapshot(drained, v.codec),
		codec:    v.codec,
		capacity: len(drained),
		length:   len(drained),
		itemSize: v.itemSize,
	}
	return &Iterator[T]{vec: snapshot, next: 0, end: len(drained)}, nil
}

// newInMemorySnapshot builds a tiny throwaway Provider holding an encoded
// copy of items, used only so Drain's returned Iterator can share the same
// Iterator[T] type as Iter without a second code path.
func newInMemorySnapshot[T any](items []T, codec Codec[T]) Provider {
	size := codec.Size()
	p := NewHeapProvider(size*len(items), VerificationOff)
	for i, it := range items {
		if size == 0 {
			continue
		}
		buf := make([]byte, size)
		codec.Encode(it, buf)
		_ = p.WriteData(i*size, buf)
	}
	return p
}

// Retain keeps only elements for which keep returns true, preserving
// relative order.
func (v *BoundedVec[T]) Retain(keep func(T) bool) error {
	write := 0
	for read := 0; read < v.length; read++ {
		item, err := v.readAt(read)
		if err != nil {
			return err
		}
		if keep(item) {
			if write != read {
				if err := v.writeAt(write, item); err != nil {
					return err
				}
			}
			write++
		}
	}
	v.length = write
	v.afterMutation()
	return nil
}

// Sort sorts elements using less, a strict weak ordering.
func (v *BoundedVec[T]) Sort(less func(a, b T) bool) error {
	items, err := v.ToSlice()
	if err != nil {
		return err
	}
	sort.Slice(items, func(i, j int) bool { return less(items[i], items[j]) })
	for i, it := range items {
		if err := v.writeAt(i, it); err != nil {
			return err
		}
	}
	v.afterMutation()
	return nil
}

// Dedup removes consecutive duplicate elements as judged by eq, the same
// semantics as Rust's Vec::dedup_by.
func (v *BoundedVec[T]) Dedup(eq func(a, b T) bool) error {
	if v.length < 2 {
		return nil
	}
	write := 1
	prev, err := v.readAt(0)
	if err != nil {
		return err
	}
	for read := 1; read < v.length; read++ {
		cur, err := v.readAt(read)
		if err != nil {
			return err
		}
		if eq(prev, cur) {
			continue
		}
		if write != read {
			if err := v.writeAt(write, cur); err != nil {
				return err
			}
		}
		write++
		prev = cur
	}
	v.length = write
	v.afterMutation()
	return nil
}

// BinarySearch looks up target in an ascending-sorted container using
// less, returning the index and true on an exact match, or the insertion
// point and false otherwise.
func (v *BoundedVec[T]) BinarySearch(target T, less func(a, b T) bool) (int, bool, error) {
	lo, hi := 0, v.length
	for lo < hi {
		mid := (lo + hi) / 2
		item, err := v.readAt(mid)
		if err != nil {
			return 0, false, err
		}
		switch {
		case less(item, target):
			lo = mid + 1
		case less(target, item):
			hi = mid
		default:
			return mid, true, nil
		}
	}
	return lo, false, nil
}

// VerifyChecksum recomputes the checksum over every item and compares it
// to the value recorded at the last mutation. Only meaningful when
// VerificationLevel().ChecksumsEnabled(); returns true trivially otherwise.
func (v *BoundedVec[T]) VerifyChecksum() (bool, error) {
	if !v.level.ChecksumsEnabled() {
		return true, nil
	}
	want := v.checksum
	got, err := v.computeChecksum()
	if err != nil {
		return false, err
	}
	return want == got, nil
}

func (v *BoundedVec[T]) computeChecksum() (uint32, error) {
	if v.itemSize == 0 || v.length == 0 {
		return 0, nil
	}
	buf, err := v.provider.BorrowSlice(0, v.length*v.itemSize)
	if err != nil {
		return 0, err
	}
	return checksum32(buf), nil
}

// afterMutation recomputes the running checksum when the configured
// VerificationLevel requires it (Full and above), per section 4.1.
func (v *BoundedVec[T]) afterMutation() {
	if !v.level.ChecksumsEnabled() {
		return
	}
	if sum, err := v.computeChecksum(); err == nil {
		v.checksum = sum
	}
}
