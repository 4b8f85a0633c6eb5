package bound

// Provider is the byte-backing store used by every bounded collection,
// per section 3.3. A container never allocates outside its provider:
// WriteData and the slice accessors are the only ways bytes move, and the
// provider's capacity is fixed for the life of the container.
type Provider interface {
	// WriteData copies data into the provider's backing storage starting
	// at offset. It fails if offset+len(data) exceeds Capacity.
	WriteData(offset int, data []byte) error

	// BorrowSlice returns a read-only view of length bytes starting at
	// offset. The returned slice must not be retained past the current
	// operation (section 5: "mutable slices may not be held across
	// suspension points" applies symmetrically to borrows).
	BorrowSlice(offset, length int) ([]byte, error)

	// GetSliceMut returns a mutable view of length bytes starting at
	// offset.
	GetSliceMut(offset, length int) ([]byte, error)

	// Capacity returns the total number of addressable bytes.
	Capacity() int

	// VerificationLevel returns the level this provider enforces reads
	// and writes at.
	VerificationLevel() VerificationLevel

	// SetVerificationLevel updates the enforced level.
	SetVerificationLevel(VerificationLevel)
}

// HeapProvider is a heap-backed Provider: a single byte slice allocated
// once at construction time and never grown, the "std" variant named in
// section 3.3. wazero's own Memory type makes the same heap-vs-bounded
// choice (internal/wasm memory instances are backed by a single []byte
// sized at instantiation).
//
// A fixed-array-backed (no_std) provider is named in the original source
// as the embedded-target counterpart; Go has no value-level generics over
// array length, so a second, statically-sized-array implementation cannot
// share this same generic code path the way Rust's const generics do. This
// core implements only the heap-backed provider; see DESIGN.md for the
// no_std/fixed-array omission.
type HeapProvider struct {
	data  []byte
	level VerificationLevel
}

// NewHeapProvider allocates a provider with exactly capacity addressable
// bytes, all zero-initialized.
func NewHeapProvider(capacity int, level VerificationLevel) *HeapProvider {
	return &HeapProvider{data: make([]byte, capacity), level: level}
}

func (p *HeapProvider) WriteData(offset int, data []byte) error {
	if offset < 0 || offset+len(data) > len(p.data) {
		return &IndexOutOfBoundsError{Index: offset + len(data), Length: len(p.data)}
	}
	copy(p.data[offset:], data)
	return nil
}

func (p *HeapProvider) BorrowSlice(offset, length int) ([]byte, error) {
	if offset < 0 || length < 0 || offset+length > len(p.data) {
		return nil, &IndexOutOfBoundsError{Index: offset + length, Length: len(p.data)}
	}
	return p.data[offset : offset+length : offset+length], nil
}

func (p *HeapProvider) GetSliceMut(offset, length int) ([]byte, error) {
	return p.BorrowSlice(offset, length)
}

func (p *HeapProvider) Capacity() int { return len(p.data) }

func (p *HeapProvider) VerificationLevel() VerificationLevel { return p.level }

func (p *HeapProvider) SetVerificationLevel(l VerificationLevel) { p.level = l }
