// Package wasm holds the static module vocabulary the interpreter consumes:
// type table, function bodies, tables, memories, globals, and data/element
// segments, per section 6 ("the interpreter consumes a decoded Module
// produced by an external decoder. No raw Wasm bytes are parsed by the
// core."). Field names follow tetratelabs-wazero's api.FunctionDefinition
// naming, adapted from its host-facing interface shape into the plain data
// records this core's decoder-free interpreter operates on directly.
package wasm

import "github.com/pulseengine/wrt/api"

// FuncType is a function signature: its parameter and result value types.
type FuncType struct {
	Params  []api.ValueType
	Results []api.ValueType
}

// Local describes one run of declared locals sharing a type, the same
// run-length encoding the Wasm binary format itself uses.
type Local struct {
	Count uint32
	Type  api.ValueType
}

// FunctionBody is a local function's declared locals and instruction
// sequence.
type FunctionBody struct {
	Locals       []Local
	Instructions []Instruction
}

// ExpandedLocalTypes flattens Locals into one ValueType per declared local,
// the layout NewStacklessFrame needs to zero-initialize them.
func (b *FunctionBody) ExpandedLocalTypes() []api.ValueType {
	var n int
	for _, l := range b.Locals {
		n += int(l.Count)
	}
	out := make([]api.ValueType, 0, n)
	for _, l := range b.Locals {
		for i := uint32(0); i < l.Count; i++ {
			out = append(out, l.Type)
		}
	}
	return out
}

// TableType describes a table's element type and size limits.
type TableType struct {
	ElemType api.ValueType // ValueTypeFuncref or ValueTypeExternref
	Min, Max uint32
	HasMax   bool
}

// MemoryType describes a linear memory's size limits, in 64KiB pages.
type MemoryType struct {
	Min, Max uint32
	HasMax   bool
}

// GlobalType describes a global's value type and mutability.
type GlobalType struct {
	Type    api.ValueType
	Mutable bool
}

// Function is one entry in the module's function index space: imports
// first, per section 6 ("Imports and exports are expressed as
// FunctionKind::{Import, Export, Local}").
type Function struct {
	Kind       api.FunctionKind
	Type       FuncType
	Import     api.Import // valid only when Kind == FunctionKindImport
	ExportName string     // valid only when Kind == FunctionKindExport
	Body       *FunctionBody // nil for imports
}

// DataSegment is a passive or active initializer for linear memory bytes.
type DataSegment struct {
	MemoryIndex uint32
	Offset      []Instruction // constant expression; empty for passive segments
	Passive     bool
	Bytes       []byte
	Dropped     bool
}

// ElementSegment is a passive or active initializer for table entries.
type ElementSegment struct {
	TableIndex uint32
	Offset     []Instruction
	Passive    bool
	FuncIndices []uint32
	Dropped    bool
}

// Global is a module-level global's declared type and constant initializer
// expression.
type Global struct {
	Type GlobalType
	Init []Instruction
}

// Module is the static, shared representation produced by the external
// decoder/validator and consumed by the interpreter (section 6). It is
// immutable after construction; ModuleInstance holds the mutable runtime
// state derived from it.
type Module struct {
	ID        uint64
	Types     []FuncType
	Functions []Function
	Tables    []TableType
	Memories  []MemoryType
	Globals   []Global
	Data      []DataSegment
	Elements  []ElementSegment
	StartFunc uint32
	HasStart  bool
}

// FuncTypeOf returns the FuncType of the function at funcIdx.
func (m *Module) FuncTypeOf(funcIdx uint32) FuncType {
	return m.Functions[funcIdx].Type
}
