package bound

import "unicode/utf8"

// BoundedString is a UTF-8 byte sequence held in a BoundedVec[byte], per
// section 3.2. Every mutation preserves UTF-8 character boundaries:
// Truncate rolls back to the last full rune rather than splitting one.
type BoundedString struct {
	bytes *BoundedVec[byte]
}

// NewBoundedString constructs an empty BoundedString with the given fixed
// byte capacity.
func NewBoundedString(capacity int, provider Provider) (*BoundedString, error) {
	bytes, err := NewBoundedVec[byte](capacity, provider, ByteCodec{})
	if err != nil {
		return nil, err
	}
	return &BoundedString{bytes: bytes}, nil
}

func (s *BoundedString) Len() int      { return s.bytes.Len() }
func (s *BoundedString) IsEmpty() bool { return s.bytes.Len() == 0 }
func (s *BoundedString) IsFull() bool  { return s.bytes.IsFull() }
func (s *BoundedString) Capacity() int { return s.bytes.Capacity() }

// String materializes the current contents as a Go string.
func (s *BoundedString) String() (string, error) {
	raw, err := s.bytes.ToSlice()
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// PushStr appends str, failing with CapacityExceededError (and leaving the
// string unchanged) if it would not fit in full.
func (s *BoundedString) PushStr(str string) error {
	if s.bytes.Len()+len(str) > s.bytes.Capacity() {
		return &CapacityExceededError{Capacity: s.bytes.Capacity()}
	}
	for i := 0; i < len(str); i++ {
		if err := s.bytes.Push(str[i]); err != nil {
			return err
		}
	}
	return nil
}

// Truncate shortens the string to at most newLen bytes, rolling back to
// the start of the previous rune if newLen would split one.
func (s *BoundedString) Truncate(newLen int) error {
	if newLen >= s.bytes.Len() {
		return nil
	}
	raw, err := s.bytes.ToSlice()
	if err != nil {
		return err
	}
	for newLen > 0 && !utf8.RuneStart(raw[newLen]) {
		newLen--
	}
	for i := s.bytes.Len() - 1; i >= newLen; i-- {
		if _, _, err := s.bytes.Pop(); err != nil {
			return err
		}
	}
	return nil
}

// Clear empties the string.
func (s *BoundedString) Clear() { s.bytes.Clear() }

func (s *BoundedString) VerificationLevel() VerificationLevel { return s.bytes.VerificationLevel() }
func (s *BoundedString) VerifyChecksum() (bool, error)         { return s.bytes.VerifyChecksum() }
