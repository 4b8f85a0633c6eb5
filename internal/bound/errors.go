package bound

import "fmt"

// CapacityExceededError is returned by a push/insert that would exceed a
// container's fixed capacity. The container's length is left unchanged.
type CapacityExceededError struct {
	Capacity int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("capacity exceeded: limit is %d elements", e.Capacity)
}

// IndexOutOfBoundsError is returned by get/set/remove/insert at an index
// past the container's current length.
type IndexOutOfBoundsError struct {
	Index, Length int
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("index %d out of bounds for length %d", e.Index, e.Length)
}

// ConversionError is returned when an element fails to serialize or
// deserialize through the backing provider.
type ConversionError struct {
	Reason string
}

func (e *ConversionError) Error() string { return "conversion error: " + e.Reason }

// ChecksumMismatchError describes a recomputed checksum that disagrees with
// the one recorded at last mutation. VerifyChecksum reports a mismatch as
// false rather than returning this type; nothing in this package returns it.
type ChecksumMismatchError struct {
	Want, Got uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: want %#x got %#x", e.Want, e.Got)
}

// InvalidCapacityError is returned by a constructor when a zero-sized
// element type is paired with a nonzero capacity (section 4.1: "the
// container rejects N > 0 when serialized size is 0 and the element
// carries data").
type InvalidCapacityError struct {
	Reason string
}

func (e *InvalidCapacityError) Error() string { return "invalid capacity: " + e.Reason }
