package wasm

import "github.com/pulseengine/wrt/api"

// Opcode identifies one interpreter instruction. Values are grouped by
// category (control, variable, memory, numeric, reference, atomics) rather
// than packed to match the Wasm binary encoding one-to-one, since this
// core never parses the binary format (section 6) — a decoder external to
// this package owns that mapping and produces Opcode values directly.
type Opcode uint16

const (
	// Control flow (section 4.2: "Block/Loop/If/Else/End, Br/BrIf/BrTable,
	// Return, Call/CallIndirect").
	OpUnreachable Opcode = iota
	OpNop
	OpBlock
	OpLoop
	OpIf
	OpElse
	OpEnd
	OpBr
	OpBrIf
	OpBrTable
	OpReturn
	OpCall
	OpCallIndirect
	OpReturnCall         // Wasm 2.0 tail call
	OpReturnCallIndirect // Wasm 2.0 tail call

	// Parametric / variable access.
	OpDrop
	OpSelect
	OpLocalGet
	OpLocalSet
	OpLocalTee
	OpGlobalGet
	OpGlobalSet

	// Table instructions.
	OpTableGet
	OpTableSet
	OpTableSize
	OpTableGrow
	OpTableFill
	OpTableCopy
	OpTableInit
	OpElemDrop

	// Memory instructions: loads/stores at every width, signed/unsigned.
	OpI32Load
	OpI64Load
	OpF32Load
	OpF64Load
	OpI32Load8S
	OpI32Load8U
	OpI32Load16S
	OpI32Load16U
	OpI64Load8S
	OpI64Load8U
	OpI64Load16S
	OpI64Load16U
	OpI64Load32S
	OpI64Load32U
	OpI32Store
	OpI64Store
	OpF32Store
	OpF64Store
	OpI32Store8
	OpI32Store16
	OpI64Store8
	OpI64Store16
	OpI64Store32
	OpMemorySize
	OpMemoryGrow
	OpMemoryFill
	OpMemoryCopy
	OpMemoryInit
	OpDataDrop

	// Numeric constants.
	OpI32Const
	OpI64Const
	OpF32Const
	OpF64Const

	// i32 arithmetic / bitwise / comparison.
	OpI32Eqz
	OpI32Eq
	OpI32Ne
	OpI32LtS
	OpI32LtU
	OpI32GtS
	OpI32GtU
	OpI32LeS
	OpI32LeU
	OpI32GeS
	OpI32GeU
	OpI32Clz
	OpI32Ctz
	OpI32Popcnt
	OpI32Add
	OpI32Sub
	OpI32Mul
	OpI32DivS
	OpI32DivU
	OpI32RemS
	OpI32RemU
	OpI32And
	OpI32Or
	OpI32Xor
	OpI32Shl
	OpI32ShrS
	OpI32ShrU
	OpI32Rotl
	OpI32Rotr

	// i64 arithmetic / bitwise / comparison.
	OpI64Eqz
	OpI64Eq
	OpI64Ne
	OpI64LtS
	OpI64LtU
	OpI64GtS
	OpI64GtU
	OpI64LeS
	OpI64LeU
	OpI64GeS
	OpI64GeU
	OpI64Clz
	OpI64Ctz
	OpI64Popcnt
	OpI64Add
	OpI64Sub
	OpI64Mul
	OpI64DivS
	OpI64DivU
	OpI64RemS
	OpI64RemU
	OpI64And
	OpI64Or
	OpI64Xor
	OpI64Shl
	OpI64ShrS
	OpI64ShrU
	OpI64Rotl
	OpI64Rotr

	// f32/f64 arithmetic and comparison.
	OpF32Eq
	OpF32Ne
	OpF32Lt
	OpF32Gt
	OpF32Le
	OpF32Ge
	OpF32Abs
	OpF32Neg
	OpF32Ceil
	OpF32Floor
	OpF32Trunc
	OpF32Nearest
	OpF32Sqrt
	OpF32Add
	OpF32Sub
	OpF32Mul
	OpF32Div
	OpF32Min
	OpF32Max
	OpF32Copysign

	OpF64Eq
	OpF64Ne
	OpF64Lt
	OpF64Gt
	OpF64Le
	OpF64Ge
	OpF64Abs
	OpF64Neg
	OpF64Ceil
	OpF64Floor
	OpF64Trunc
	OpF64Nearest
	OpF64Sqrt
	OpF64Add
	OpF64Sub
	OpF64Mul
	OpF64Div
	OpF64Min
	OpF64Max
	OpF64Copysign

	// Conversions / reinterprets / sign extensions.
	OpI32WrapI64
	OpI32TruncF32S
	OpI32TruncF32U
	OpI32TruncF64S
	OpI32TruncF64U
	OpI64ExtendI32S
	OpI64ExtendI32U
	OpI64TruncF32S
	OpI64TruncF32U
	OpI64TruncF64S
	OpI64TruncF64U
	OpF32ConvertI32S
	OpF32ConvertI32U
	OpF32ConvertI64S
	OpF32ConvertI64U
	OpF32DemoteF64
	OpF64ConvertI32S
	OpF64ConvertI32U
	OpF64ConvertI64S
	OpF64ConvertI64U
	OpF64PromoteF32
	OpI32ReinterpretF32
	OpI64ReinterpretF64
	OpF32ReinterpretI32
	OpF64ReinterpretI64
	OpI32Extend8S
	OpI32Extend16S
	OpI64Extend8S
	OpI64Extend16S
	OpI64Extend32S

	// Reference types.
	OpRefNull
	OpRefIsNull
	OpRefFunc
	OpRefAsNonNull
	OpRefEq
	OpBrOnNull
	OpBrOnNonNull

	// Threads proposal atomics.
	OpAtomicFence
	OpI32AtomicLoad
	OpI64AtomicLoad
	OpI32AtomicLoad8U
	OpI32AtomicLoad16U
	OpI64AtomicLoad8U
	OpI64AtomicLoad16U
	OpI64AtomicLoad32U
	OpI32AtomicStore
	OpI64AtomicStore
	OpI32AtomicStore8
	OpI32AtomicStore16
	OpI64AtomicStore8
	OpI64AtomicStore16
	OpI64AtomicStore32
	OpI32AtomicRmwAdd
	OpI32AtomicRmwSub
	OpI32AtomicRmwAnd
	OpI32AtomicRmwOr
	OpI32AtomicRmwXor
	OpI32AtomicRmwXchg
	OpI32AtomicRmwCmpxchg
	OpI64AtomicRmwAdd
	OpI64AtomicRmwSub
	OpI64AtomicRmwAnd
	OpI64AtomicRmwOr
	OpI64AtomicRmwXor
	OpI64AtomicRmwXchg
	OpI64AtomicRmwCmpxchg
	OpI32AtomicRmw8AddU
	OpI32AtomicRmw8SubU
	OpI32AtomicRmw8AndU
	OpI32AtomicRmw8OrU
	OpI32AtomicRmw8XorU
	OpI32AtomicRmw8XchgU
	OpI32AtomicRmw8CmpxchgU
	OpI32AtomicRmw16AddU
	OpI32AtomicRmw16SubU
	OpI32AtomicRmw16AndU
	OpI32AtomicRmw16OrU
	OpI32AtomicRmw16XorU
	OpI32AtomicRmw16XchgU
	OpI32AtomicRmw16CmpxchgU
	OpI64AtomicRmw8AddU
	OpI64AtomicRmw8SubU
	OpI64AtomicRmw8AndU
	OpI64AtomicRmw8OrU
	OpI64AtomicRmw8XorU
	OpI64AtomicRmw8XchgU
	OpI64AtomicRmw8CmpxchgU
	OpI64AtomicRmw16AddU
	OpI64AtomicRmw16SubU
	OpI64AtomicRmw16AndU
	OpI64AtomicRmw16OrU
	OpI64AtomicRmw16XorU
	OpI64AtomicRmw16XchgU
	OpI64AtomicRmw16CmpxchgU
	OpI64AtomicRmw32AddU
	OpI64AtomicRmw32SubU
	OpI64AtomicRmw32AndU
	OpI64AtomicRmw32OrU
	OpI64AtomicRmw32XorU
	OpI64AtomicRmw32XchgU
	OpI64AtomicRmw32CmpxchgU
	OpMemoryAtomicNotify
	OpMemoryAtomicWait32
	OpMemoryAtomicWait64

	// Explicit yield, routed to the fuel executor's yield machinery
	// (section 5 suspension point ii). Not a Wasm core instruction; this
	// is the hook the Component Model's task.yield lowers to.
	OpExplicitYield
)

// MemArg is the offset/alignment immediate shared by every load/store and
// atomic memory instruction.
type MemArg struct {
	Offset uint64
	Align  uint32 // log2 of the natural alignment the decoder declared
}

// BlockSignature is a block/loop/if's type: either a single ValueType
// result, an empty type, or an index into the module's type table for a
// multi-value block (Wasm 2.0).
type BlockSignature struct {
	ValueType  api.ValueType
	TypeIndex  uint32
	Empty      bool
	HasValue   bool
	IsTypeIdx  bool
}

// Instruction is one decoded instruction: an opcode plus whichever
// immediate fields it needs. Unused fields are simply zero; this favors a
// single flat struct (as wazero's own wazeroir intermediate representation
// does per-operation) over a tagged union, keeping the interpreter's
// dispatch switch free of type assertions on the hot path.
type Instruction struct {
	Op Opcode

	I32 int32
	I64 int64
	F32 uint32
	F64 uint64

	// Index is a local/global/func/table/memory/type index, depending on
	// Op. For OpBlock/OpLoop/OpIf it instead holds the flat instruction-
	// array index of the matching End instruction itself, precomputed by
	// the external decoder the same way a compiler precomputes relative
	// jump targets — this core never scans forward for a matching End at
	// run time.
	Index uint32
	// Index2 holds the matching Else's instruction-array index for
	// OpIf (equal to Index when the if has no else clause); unused
	// otherwise.
	Index2 uint32

	Mem MemArg

	Block BlockSignature

	// BrTable immediates: Labels[i] for the popped operand i, with Default
	// as the fallback when i is out of range; Labels are relative block
	// depths.
	Labels  []uint32
	Default uint32
}
