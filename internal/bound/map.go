package bound

// BoundedMap is a unique-key association with at most N entries, per
// section 3.2; insertion order is not meaningful. It is backed by two
// parallel BoundedVecs (keys, values) over one Provider, mirroring the
// original's choice to keep a map as a bounded association list rather
// than a hash table — at the small N bounded collections are sized for, a
// linear scan is the simplest representation that still never allocates
// beyond capacity. The fuel executor's task table, alert flags and debt
// ledgers are Go maps, not BoundedMaps.
type BoundedMap[K comparable, V any] struct {
	keys   *BoundedVec[K]
	values *BoundedVec[V]
}

// NewBoundedMap constructs a BoundedMap with the given fixed entry
// capacity. keyProvider and valueProvider may be the same Provider split
// by the caller into disjoint byte ranges, or two distinct providers.
func NewBoundedMap[K comparable, V any](capacity int, keyProvider, valueProvider Provider, keyCodec Codec[K], valueCodec Codec[V]) (*BoundedMap[K, V], error) {
	keys, err := NewBoundedVec[K](capacity, keyProvider, keyCodec)
	if err != nil {
		return nil, err
	}
	values, err := NewBoundedVec[V](capacity, valueProvider, valueCodec)
	if err != nil {
		return nil, err
	}
	return &BoundedMap[K, V]{keys: keys, values: values}, nil
}

func (m *BoundedMap[K, V]) Len() int      { return m.keys.Len() }
func (m *BoundedMap[K, V]) IsEmpty() bool { return m.keys.Len() == 0 }
func (m *BoundedMap[K, V]) IsFull() bool  { return m.keys.IsFull() }
func (m *BoundedMap[K, V]) Capacity() int { return m.keys.Capacity() }

func (m *BoundedMap[K, V]) indexOf(key K) (int, error) {
	n := m.keys.Len()
	for i := 0; i < n; i++ {
		k, err := m.keys.Get(i)
		if err != nil {
			return -1, err
		}
		if k == key {
			return i, nil
		}
	}
	return -1, nil
}

// Get returns the value for key, or ok=false if absent.
func (m *BoundedMap[K, V]) Get(key K) (v V, ok bool, err error) {
	idx, err := m.indexOf(key)
	if err != nil || idx < 0 {
		return v, false, err
	}
	v, err = m.values.Get(idx)
	return v, err == nil, err
}

// Contains reports whether key is present.
func (m *BoundedMap[K, V]) Contains(key K) (bool, error) {
	idx, err := m.indexOf(key)
	return idx >= 0, err
}

// Insert associates key with value, replacing any existing association.
// Fails with CapacityExceededError when key is new and the map is full.
func (m *BoundedMap[K, V]) Insert(key K, value V) error {
	idx, err := m.indexOf(key)
	if err != nil {
		return err
	}
	if idx >= 0 {
		_, err := m.values.Set(idx, value)
		return err
	}
	if err := m.keys.Push(key); err != nil {
		return err
	}
	if err := m.values.Push(value); err != nil {
		// Roll back the key push so keys/values stay in lockstep.
		_, _, _ = m.keys.Pop()
		return err
	}
	return nil
}

// Remove deletes key's association if present, returning the removed value.
func (m *BoundedMap[K, V]) Remove(key K) (v V, ok bool, err error) {
	idx, err := m.indexOf(key)
	if err != nil || idx < 0 {
		return v, false, err
	}
	if _, err := m.keys.Remove(idx); err != nil {
		return v, false, err
	}
	v, err = m.values.Remove(idx)
	return v, err == nil, err
}

// Clear empties the map.
func (m *BoundedMap[K, V]) Clear() {
	m.keys.Clear()
	m.values.Clear()
}

// Keys returns every key currently present, in internal storage order.
func (m *BoundedMap[K, V]) Keys() ([]K, error) { return m.keys.ToSlice() }

// Range calls fn for every (key, value) pair, stopping early if fn returns
// false.
func (m *BoundedMap[K, V]) Range(fn func(K, V) bool) error {
	n := m.keys.Len()
	for i := 0; i < n; i++ {
		k, err := m.keys.Get(i)
		if err != nil {
			return err
		}
		v, err := m.values.Get(i)
		if err != nil {
			return err
		}
		if !fn(k, v) {
			return nil
		}
	}
	return nil
}
