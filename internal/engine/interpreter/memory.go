package interpreter

import (
	"encoding/binary"

	"github.com/pulseengine/wrt/internal/wasm"
	"github.com/pulseengine/wrt/internal/wasmruntime"
)

// PageSize is the fixed WebAssembly linear-memory page size in bytes.
const PageSize = 65536

// defaultMaxPages bounds a memory with no declared maximum, so every
// Memory still preallocates a fixed-capacity backing array rather than
// growing without limit — the bounded-collection discipline of section 4.1
// applies to linear memory's backing storage exactly as it does to every
// other runtime container, even though memory.grow itself (within the
// declared bound) is ordinary Wasm behavior, not the "dynamic growth
// beyond declared bounds" the spec's Non-goals exclude.
const defaultMaxPages = 1024 // 64 MiB

// Memory is a ModuleInstance's linear memory, preallocated to its declared
// (or default) maximum so growth within bounds never reallocates.
type Memory struct {
	data         []byte
	currentPages uint32
	maxPages     uint32
}

// NewMemory constructs a Memory sized to t's minimum, preallocating the
// full maximum (or defaultMaxPages if t declares none) up front.
func NewMemory(t wasm.MemoryType) *Memory {
	max := t.Max
	if !t.HasMax {
		max = defaultMaxPages
	}
	return &Memory{
		data:         make([]byte, max*PageSize)[:t.Min*PageSize],
		currentPages: t.Min,
		maxPages:     max,
	}
}

// SizePages returns the current size in 64KiB pages (memory.size).
func (m *Memory) SizePages() uint32 { return m.currentPages }

// Grow grows the memory by delta pages if doing so would not exceed the
// declared maximum, returning the previous page count, or ^uint32(0) (the
// Wasm memory.grow failure sentinel) if the growth cannot happen.
func (m *Memory) Grow(delta uint32) uint32 {
	prev := m.currentPages
	if uint64(prev)+uint64(delta) > uint64(m.maxPages) {
		return ^uint32(0)
	}
	m.currentPages += delta
	m.data = m.data[:m.currentPages*PageSize]
	return prev
}

func (m *Memory) bytes() int { return len(m.data) }

// boundsCheck validates that [addr, addr+width) lies within the memory's
// current byte size, per section 4.2's "Memory bounds" rule, returning the
// effective address on success.
func (m *Memory) boundsCheck(addr uint64, offset uint64, width int) (int, bool) {
	effective := addr + offset
	if effective < addr { // overflow
		return 0, false
	}
	if effective+uint64(width) > uint64(m.bytes()) {
		return 0, false
	}
	return int(effective), true
}

func (m *Memory) load(addr uint64, offset uint64, width int) []byte {
	eff, ok := m.boundsCheck(addr, offset, width)
	if !ok {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	return m.data[eff : eff+width]
}

func (m *Memory) store(addr uint64, offset uint64, data []byte) {
	eff, ok := m.boundsCheck(addr, offset, len(data))
	if !ok {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	copy(m.data[eff:eff+len(data)], data)
}

func (m *Memory) LoadI32(addr uint64, offset uint64) int32 {
	return int32(binary.LittleEndian.Uint32(m.load(addr, offset, 4)))
}
func (m *Memory) LoadI64(addr uint64, offset uint64) int64 {
	return int64(binary.LittleEndian.Uint64(m.load(addr, offset, 8)))
}
func (m *Memory) LoadI32_8S(addr, offset uint64) int32 { return int32(int8(m.load(addr, offset, 1)[0])) }
func (m *Memory) LoadI32_8U(addr, offset uint64) int32 { return int32(m.load(addr, offset, 1)[0]) }
func (m *Memory) LoadI32_16S(addr, offset uint64) int32 {
	return int32(int16(binary.LittleEndian.Uint16(m.load(addr, offset, 2))))
}
func (m *Memory) LoadI32_16U(addr, offset uint64) int32 {
	return int32(binary.LittleEndian.Uint16(m.load(addr, offset, 2)))
}
func (m *Memory) LoadI64_8S(addr, offset uint64) int64 { return int64(int8(m.load(addr, offset, 1)[0])) }
func (m *Memory) LoadI64_8U(addr, offset uint64) int64 { return int64(m.load(addr, offset, 1)[0]) }
func (m *Memory) LoadI64_16S(addr, offset uint64) int64 {
	return int64(int16(binary.LittleEndian.Uint16(m.load(addr, offset, 2))))
}
func (m *Memory) LoadI64_16U(addr, offset uint64) int64 {
	return int64(binary.LittleEndian.Uint16(m.load(addr, offset, 2)))
}
func (m *Memory) LoadI64_32S(addr, offset uint64) int64 {
	return int64(int32(binary.LittleEndian.Uint32(m.load(addr, offset, 4))))
}
func (m *Memory) LoadI64_32U(addr, offset uint64) int64 {
	return int64(binary.LittleEndian.Uint32(m.load(addr, offset, 4)))
}

func (m *Memory) StoreI32(addr, offset uint64, v int32) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	m.store(addr, offset, buf)
}
func (m *Memory) StoreI64(addr, offset uint64, v int64) {
	buf := make([]byte, 8)
	binary.LittleEndian.PutUint64(buf, uint64(v))
	m.store(addr, offset, buf)
}
func (m *Memory) StoreI32_8(addr, offset uint64, v int32)  { m.store(addr, offset, []byte{byte(v)}) }
func (m *Memory) StoreI32_16(addr, offset uint64, v int32) {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(v))
	m.store(addr, offset, buf)
}
func (m *Memory) StoreI64_8(addr, offset uint64, v int64)  { m.store(addr, offset, []byte{byte(v)}) }
func (m *Memory) StoreI64_16(addr, offset uint64, v int64) {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, uint16(v))
	m.store(addr, offset, buf)
}
func (m *Memory) StoreI64_32(addr, offset uint64, v int64) {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, uint32(v))
	m.store(addr, offset, buf)
}

// Fill sets n bytes starting at addr to val (memory.fill).
func (m *Memory) Fill(addr uint64, val byte, n uint64) {
	eff, ok := m.boundsCheck(addr, 0, int(n))
	if !ok {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	for i := eff; i < eff+int(n); i++ {
		m.data[i] = val
	}
}

// Copy copies n bytes from src to dst (memory.copy), correctly handling
// overlap the way Go's builtin copy does.
func (m *Memory) Copy(dst, src, n uint64) {
	dstEff, ok := m.boundsCheck(dst, 0, int(n))
	if !ok {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	srcEff, ok := m.boundsCheck(src, 0, int(n))
	if !ok {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	copy(m.data[dstEff:dstEff+int(n)], m.data[srcEff:srcEff+int(n)])
}

// Init copies n bytes from a data segment into memory (memory.init).
func (m *Memory) Init(dst uint64, seg []byte, srcOffset, n uint64) {
	if srcOffset+n > uint64(len(seg)) {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	m.store(dst, 0, seg[srcOffset:srcOffset+n])
}

// AtomicRMW performs an atomic read-modify-write at the given width (1, 2,
// 4, or 8 bytes), trapping on unaligned access per section 4.2. In this
// single-threaded core, "atomic" reduces to plain read-modify-write
// performed without interleaving (section 4.3/5: no instruction suspends
// mid-execution), which already satisfies the from-the-interpreter's-
// viewpoint atomicity the spec requires.
func (m *Memory) AtomicRMW(addr, offset uint64, width int, op func(old uint64) uint64) uint64 {
	m.checkAlign(addr, offset, width)
	eff, ok := m.boundsCheck(addr, offset, width)
	if !ok {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	old := littleEndianGet(m.data[eff : eff+width])
	next := op(old)
	littleEndianPut(m.data[eff:eff+width], next)
	return old
}

func (m *Memory) checkAlign(addr, offset uint64, width int) {
	effective := addr + offset
	if effective%uint64(width) != 0 {
		panic(wasmruntime.ErrUnalignedAtomic)
	}
}

func littleEndianGet(b []byte) uint64 {
	switch len(b) {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(binary.LittleEndian.Uint16(b))
	case 4:
		return uint64(binary.LittleEndian.Uint32(b))
	case 8:
		return binary.LittleEndian.Uint64(b)
	}
	panic("unsupported atomic width")
}

func littleEndianPut(b []byte, v uint64) {
	switch len(b) {
	case 1:
		b[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(b, uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(b, uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(b, v)
	}
}

// AtomicWait implements wait32/wait64 (section 4.2/4.3): it never blocks.
// It returns 1 ("not-equal") immediately when the observed value differs
// from expected, and 0 ("ok") otherwise.
func (m *Memory) AtomicWait(addr, offset uint64, width int, expected uint64) uint32 {
	m.checkAlign(addr, offset, width)
	eff, ok := m.boundsCheck(addr, offset, width)
	if !ok {
		panic(wasmruntime.ErrOutOfBoundsMemory)
	}
	observed := littleEndianGet(m.data[eff : eff+width])
	if observed != expected {
		return 1
	}
	return 0
}

// AtomicNotify implements memory.atomic.notify, which always returns 0 in
// this single-threaded core: there are no other threads' waiters to wake.
func (m *Memory) AtomicNotify(addr, offset uint64, count uint32) uint32 { return 0 }
