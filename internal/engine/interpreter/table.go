package interpreter

import (
	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/wasm"
	"github.com/pulseengine/wrt/internal/wasmruntime"
)

const defaultMaxTableSize = 65536

// tableNull is the sentinel element value representing a null reference.
const tableNull = ^uint64(0)

// Table is a ModuleInstance's table of opaque reference handles (funcref or
// externref entries), preallocated to its declared maximum for the same
// bounded-capacity reasons Memory is (section 3.2/4.1).
type Table struct {
	elems   []uint64
	elemTyp api.ValueType
	max     uint32
}

// NewTable constructs a Table sized to t's minimum.
func NewTable(t wasm.TableType) *Table {
	max := t.Max
	if !t.HasMax {
		max = defaultMaxTableSize
	}
	elems := make([]uint64, max)
	for i := range elems {
		elems[i] = tableNull
	}
	return &Table{elems: elems[:t.Min], elemTyp: t.ElemType, max: max}
}

func (t *Table) Size() uint32 { return uint32(len(t.elems)) }

// Grow appends delta entries set to fillWith, returning the previous size, or
// ^uint32(0) if growth would exceed the declared maximum.
func (t *Table) Grow(delta uint32, fillWith uint64) uint32 {
	prev := uint32(len(t.elems))
	if uint64(prev)+uint64(delta) > uint64(t.max) {
		return ^uint32(0)
	}
	for i := uint32(0); i < delta; i++ {
		t.elems = append(t.elems, fillWith)
	}
	return prev
}

func (t *Table) Get(i uint32) uint64 {
	if i >= uint32(len(t.elems)) {
		panic(wasmruntime.ErrOutOfBoundsTable)
	}
	return t.elems[i]
}

func (t *Table) Set(i uint32, v uint64) {
	if i >= uint32(len(t.elems)) {
		panic(wasmruntime.ErrOutOfBoundsTable)
	}
	t.elems[i] = v
}

func (t *Table) Fill(i uint32, v uint64, n uint32) {
	if uint64(i)+uint64(n) > uint64(len(t.elems)) {
		panic(wasmruntime.ErrOutOfBoundsTable)
	}
	for k := i; k < i+n; k++ {
		t.elems[k] = v
	}
}

func (t *Table) Copy(dst, src *Table, dstOff, srcOff, n uint32) {
	if uint64(dstOff)+uint64(n) > uint64(len(dst.elems)) || uint64(srcOff)+uint64(n) > uint64(len(src.elems)) {
		panic(wasmruntime.ErrOutOfBoundsTable)
	}
	copy(dst.elems[dstOff:dstOff+n], src.elems[srcOff:srcOff+n])
}

func (t *Table) Init(dstOff uint32, funcIndices []uint32, srcOff, n uint32) {
	if uint64(srcOff)+uint64(n) > uint64(len(funcIndices)) || uint64(dstOff)+uint64(n) > uint64(len(t.elems)) {
		panic(wasmruntime.ErrOutOfBoundsTable)
	}
	for k := uint32(0); k < n; k++ {
		t.elems[dstOff+k] = uint64(funcIndices[srcOff+k])
	}
}
