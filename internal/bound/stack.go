package bound

// BoundedStack is the LIFO view over the same representation as
// BoundedVec, per section 3.2, for wherever strict push/pop/peek access is
// the only needed shape. The interpreter's block-context stack and the
// executor's task bookkeeping do not use it; they use Go slices and maps.
type BoundedStack[T any] struct {
	vec *BoundedVec[T]
}

// NewBoundedStack constructs a BoundedStack with the given fixed capacity.
func NewBoundedStack[T any](capacity int, provider Provider, codec Codec[T]) (*BoundedStack[T], error) {
	vec, err := NewBoundedVec[T](capacity, provider, codec)
	if err != nil {
		return nil, err
	}
	return &BoundedStack[T]{vec: vec}, nil
}

func (s *BoundedStack[T]) Len() int      { return s.vec.Len() }
func (s *BoundedStack[T]) IsEmpty() bool { return s.vec.IsEmpty() }
func (s *BoundedStack[T]) IsFull() bool  { return s.vec.IsFull() }
func (s *BoundedStack[T]) Capacity() int { return s.vec.Capacity() }

// Push pushes item onto the top of the stack.
func (s *BoundedStack[T]) Push(item T) error { return s.vec.Push(item) }

// Pop removes and returns the top of the stack.
func (s *BoundedStack[T]) Pop() (T, bool, error) { return s.vec.Pop() }

// Peek returns the top of the stack without removing it.
func (s *BoundedStack[T]) Peek() (item T, ok bool, err error) {
	if s.vec.Len() == 0 {
		return item, false, nil
	}
	item, err = s.vec.Get(s.vec.Len() - 1)
	return item, err == nil, err
}

func (s *BoundedStack[T]) VerificationLevel() VerificationLevel { return s.vec.VerificationLevel() }
func (s *BoundedStack[T]) SetVerificationLevel(l VerificationLevel) { s.vec.SetVerificationLevel(l) }
func (s *BoundedStack[T]) VerifyChecksum() (bool, error)            { return s.vec.VerifyChecksum() }
