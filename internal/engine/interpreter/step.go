package interpreter

import (
	"math"
	"math/bits"

	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/wasm"
	"github.com/pulseengine/wrt/internal/wasmruntime"
)

// maxBlockDepth bounds a single frame's structured-control nesting,
// independent of the ASIL-derived call-chain depth in ExecutionContext —
// it guards against a single pathological function body's Block/Loop/If
// nesting exhausting memory.
const maxBlockDepth = 1024

// OutcomeKind classifies what Step did, telling the caller (the fuel
// executor's task loop) whether to keep stepping
// the current frame, push a new one for a call, or pop the current one for
// a return — all without a native recursive Go call, per section 3.4's
// stackless requirement.
type OutcomeKind byte

const (
	OutcomeContinue OutcomeKind = iota
	OutcomeCall
	OutcomeReturn
	OutcomeYield
)

// Outcome is Step's result.
type Outcome struct {
	Kind OutcomeKind

	// OutcomeCall
	CallTarget    *ModuleInstance
	CallFuncIndex uint32
	CallArgs      []api.Value
	IsTailCall    bool

	// OutcomeReturn: the function's result values, already popped from
	// the shared operand stack.
	ReturnValues []api.Value

	// OutcomeYield
	Yield YieldType
}

// Step executes exactly one instruction of ec's current frame and advances
// its program counter, returning what the caller must do next. Step never
// recurses into a callee: OutcomeCall hands the caller enough information
// to push a brand-new StacklessFrame itself (section 3.4/4.2, "pausable at
// any point without relying on the host call stack").
//
// Traps are raised by panicking with a *wasmruntime.TrapError from deep
// inside helpers (Memory/Table bounds checks, numeric.go's overflow
// checks); Step itself never recovers them. The fuel executor's task loop
// (stepTask) recovers them at that boundary and fails the task rather
// than the whole executor.
func Step(ec *ExecutionContext) Outcome {
	f := ec.CurrentFrame()
	ins := f.Body.Instructions[f.PC]
	switch ins.Op {

	case wasm.OpUnreachable:
		panic(wasmruntime.ErrUnreachable)

	case wasm.OpNop:
		f.PC++

	case wasm.OpBlock:
		f.pushBlock(BlockContext{
			Kind:             BlockKindBlock,
			EndPC:            int(ins.Index),
			ElsePC:           -1,
			StackDepthBefore: len(ec.Stack),
			Arity:            blockArity(f, ins.Block),
		}, maxBlockDepth)
		f.PC++

	case wasm.OpLoop:
		f.pushBlock(BlockContext{
			Kind:             BlockKindLoop,
			LoopStartPC:      f.PC + 1,
			EndPC:            int(ins.Index),
			ElsePC:           -1,
			StackDepthBefore: len(ec.Stack),
			Arity:            blockArity(f, ins.Block),
		}, maxBlockDepth)
		f.PC++

	case wasm.OpIf:
		cond := ec.popValue()
		elsePC := int(ins.Index2)
		f.pushBlock(BlockContext{
			Kind:             BlockKindIf,
			EndPC:            int(ins.Index),
			ElsePC:           elsePC,
			StackDepthBefore: len(ec.Stack),
			Arity:            blockArity(f, ins.Block),
		}, maxBlockDepth)
		if cond.I32() != 0 {
			f.PC++
		} else if elsePC != int(ins.Index) {
			f.PC = elsePC + 1
		} else {
			f.PC = int(ins.Index)
		}

	case wasm.OpElse:
		// Reached by falling through the Then arm: skip to the block's End.
		b := f.topBlock()
		f.PC = b.EndPC

	case wasm.OpEnd:
		if len(f.Blocks) == 0 {
			// A decoder-emitted End closing the function body itself,
			// rather than an explicit Block/Loop/If: behaves as Return.
			doReturn(ec, f)
			return Outcome{Kind: OutcomeReturn, ReturnValues: ec.lastReturn}
		}
		f.popBlock()
		f.PC++

	case wasm.OpBr:
		branch(ec, f, int(ins.Index))

	case wasm.OpBrIf:
		cond := ec.popValue()
		if cond.I32() != 0 {
			branch(ec, f, int(ins.Index))
		} else {
			f.PC++
		}

	case wasm.OpBrTable:
		i := ec.popValue().U32()
		depth := ins.Default
		if i < uint32(len(ins.Labels)) {
			depth = ins.Labels[i]
		}
		branch(ec, f, int(depth))

	case wasm.OpReturn:
		doReturn(ec, f)
		return Outcome{Kind: OutcomeReturn, ReturnValues: ec.lastReturn}

	case wasm.OpCall:
		target, localIdx := f.Module.ResolveFunction(ins.Index)
		ft := target.Module.FuncTypeOf(localIdx)
		args := ec.popValues(len(ft.Params))
		f.PC++
		return Outcome{Kind: OutcomeCall, CallTarget: target, CallFuncIndex: localIdx, CallArgs: args}

	case wasm.OpReturnCall:
		target, localIdx := f.Module.ResolveFunction(ins.Index)
		ft := target.Module.FuncTypeOf(localIdx)
		args := ec.popValues(len(ft.Params))
		ec.PopFrame()
		return Outcome{Kind: OutcomeCall, CallTarget: target, CallFuncIndex: localIdx, CallArgs: args, IsTailCall: true}

	case wasm.OpCallIndirect:
		tableIdx := ins.Index2
		typeIdx := ins.Index
		elemIdx := ec.popValue().U32()
		table := f.Module.Tables[tableIdx]
		handle := table.Get(elemIdx)
		if handle == tableNull {
			panic(wasmruntime.ErrNullReference)
		}
		localIdx := uint32(handle)
		target, resolvedIdx := f.Module.ResolveFunction(localIdx)
		actual := target.Module.FuncTypeOf(resolvedIdx)
		expected := f.Module.Module.Types[typeIdx]
		if !sameFuncType(actual, expected) {
			panic(wasmruntime.ErrIndirectCallTypeMismatch)
		}
		args := ec.popValues(len(actual.Params))
		f.PC++
		return Outcome{Kind: OutcomeCall, CallTarget: target, CallFuncIndex: resolvedIdx, CallArgs: args}

	case wasm.OpReturnCallIndirect:
		tableIdx := ins.Index2
		typeIdx := ins.Index
		elemIdx := ec.popValue().U32()
		table := f.Module.Tables[tableIdx]
		handle := table.Get(elemIdx)
		if handle == tableNull {
			panic(wasmruntime.ErrNullReference)
		}
		localIdx := uint32(handle)
		target, resolvedIdx := f.Module.ResolveFunction(localIdx)
		actual := target.Module.FuncTypeOf(resolvedIdx)
		expected := f.Module.Module.Types[typeIdx]
		if !sameFuncType(actual, expected) {
			panic(wasmruntime.ErrIndirectCallTypeMismatch)
		}
		args := ec.popValues(len(actual.Params))
		ec.PopFrame()
		return Outcome{Kind: OutcomeCall, CallTarget: target, CallFuncIndex: resolvedIdx, CallArgs: args, IsTailCall: true}

	case wasm.OpDrop:
		ec.popValue()
		f.PC++

	case wasm.OpSelect:
		cond := ec.popValue()
		b := ec.popValue()
		a := ec.popValue()
		if cond.I32() != 0 {
			ec.pushValue(a)
		} else {
			ec.pushValue(b)
		}
		f.PC++

	case wasm.OpLocalGet:
		ec.pushValue(f.Locals[ins.Index])
		f.PC++
	case wasm.OpLocalSet:
		f.Locals[ins.Index] = ec.popValue()
		f.PC++
	case wasm.OpLocalTee:
		v := ec.Stack[len(ec.Stack)-1]
		f.Locals[ins.Index] = v
		f.PC++

	case wasm.OpGlobalGet:
		ec.pushValue(f.Module.Globals[ins.Index].Value)
		f.PC++
	case wasm.OpGlobalSet:
		f.Module.Globals[ins.Index].Value = ec.popValue()
		f.PC++

	case wasm.OpTableGet:
		i := ec.popValue().U32()
		handle := f.Module.Tables[ins.Index].Get(i)
		ec.pushValue(refValueFromHandle(f.Module.Tables[ins.Index].elemTyp, handle))
		f.PC++
	case wasm.OpTableSet:
		v := ec.popValue()
		i := ec.popValue().U32()
		f.Module.Tables[ins.Index].Set(i, handleFromRefValue(v))
		f.PC++
	case wasm.OpTableSize:
		ec.pushValue(api.I32Value(int32(f.Module.Tables[ins.Index].Size())))
		f.PC++
	case wasm.OpTableGrow:
		n := ec.popValue().U32()
		v := ec.popValue()
		ec.pushValue(api.I32Value(int32(f.Module.Tables[ins.Index].Grow(n, handleFromRefValue(v)))))
		f.PC++
	case wasm.OpTableFill:
		n := ec.popValue().U32()
		v := ec.popValue()
		i := ec.popValue().U32()
		f.Module.Tables[ins.Index].Fill(i, handleFromRefValue(v), n)
		f.PC++
	case wasm.OpTableCopy:
		n := ec.popValue().U32()
		src := ec.popValue().U32()
		dst := ec.popValue().U32()
		f.Module.Tables[ins.Index].Copy(f.Module.Tables[ins.Index], f.Module.Tables[ins.Index2], dst, src, n)
		f.PC++
	case wasm.OpTableInit:
		n := ec.popValue().U32()
		src := ec.popValue().U32()
		dst := ec.popValue().U32()
		seg := f.Module.Module.Elements[ins.Index2]
		f.Module.Tables[ins.Index].Init(dst, seg.FuncIndices, src, n)
		f.PC++
	case wasm.OpElemDrop:
		f.Module.Module.Elements[ins.Index].Dropped = true
		f.PC++

	case wasm.OpI32Load:
		ec.pushValue(api.I32Value(f.Module.Memory0().LoadI32(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI64Load:
		ec.pushValue(api.I64Value(f.Module.Memory0().LoadI64(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpF32Load:
		ec.pushValue(api.F32Value(uint32(f.Module.Memory0().LoadI32(ec.popValue().U64(), ins.Mem.Offset))))
		f.PC++
	case wasm.OpF64Load:
		ec.pushValue(api.F64Value(uint64(f.Module.Memory0().LoadI64(ec.popValue().U64(), ins.Mem.Offset))))
		f.PC++
	case wasm.OpI32Load8S:
		ec.pushValue(api.I32Value(f.Module.Memory0().LoadI32_8S(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI32Load8U:
		ec.pushValue(api.I32Value(f.Module.Memory0().LoadI32_8U(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI32Load16S:
		ec.pushValue(api.I32Value(f.Module.Memory0().LoadI32_16S(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI32Load16U:
		ec.pushValue(api.I32Value(f.Module.Memory0().LoadI32_16U(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI64Load8S:
		ec.pushValue(api.I64Value(f.Module.Memory0().LoadI64_8S(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI64Load8U:
		ec.pushValue(api.I64Value(f.Module.Memory0().LoadI64_8U(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI64Load16S:
		ec.pushValue(api.I64Value(f.Module.Memory0().LoadI64_16S(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI64Load16U:
		ec.pushValue(api.I64Value(f.Module.Memory0().LoadI64_16U(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI64Load32S:
		ec.pushValue(api.I64Value(f.Module.Memory0().LoadI64_32S(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++
	case wasm.OpI64Load32U:
		ec.pushValue(api.I64Value(f.Module.Memory0().LoadI64_32U(ec.popValue().U64(), ins.Mem.Offset)))
		f.PC++

	case wasm.OpI32Store:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI32(addr, ins.Mem.Offset, v.I32())
		f.PC++
	case wasm.OpI64Store:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI64(addr, ins.Mem.Offset, v.I64())
		f.PC++
	case wasm.OpF32Store:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI32(addr, ins.Mem.Offset, int32(v.F32Bits()))
		f.PC++
	case wasm.OpF64Store:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI64(addr, ins.Mem.Offset, int64(v.F64Bits()))
		f.PC++
	case wasm.OpI32Store8:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI32_8(addr, ins.Mem.Offset, v.I32())
		f.PC++
	case wasm.OpI32Store16:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI32_16(addr, ins.Mem.Offset, v.I32())
		f.PC++
	case wasm.OpI64Store8:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI64_8(addr, ins.Mem.Offset, v.I64())
		f.PC++
	case wasm.OpI64Store16:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI64_16(addr, ins.Mem.Offset, v.I64())
		f.PC++
	case wasm.OpI64Store32:
		v := ec.popValue()
		addr := ec.popValue().U64()
		f.Module.Memory0().StoreI64_32(addr, ins.Mem.Offset, v.I64())
		f.PC++

	case wasm.OpMemorySize:
		ec.pushValue(api.I32Value(int32(f.Module.Memory0().SizePages())))
		f.PC++
	case wasm.OpMemoryGrow:
		delta := ec.popValue().U32()
		ec.pushValue(api.I32Value(int32(f.Module.Memory0().Grow(delta))))
		f.PC++
	case wasm.OpMemoryFill:
		n := ec.popValue().U64()
		val := byte(ec.popValue().I32())
		addr := ec.popValue().U64()
		f.Module.Memory0().Fill(addr, val, n)
		f.PC++
	case wasm.OpMemoryCopy:
		n := ec.popValue().U64()
		src := ec.popValue().U64()
		dst := ec.popValue().U64()
		f.Module.Memory0().Copy(dst, src, n)
		f.PC++
	case wasm.OpMemoryInit:
		n := ec.popValue().U64()
		src := ec.popValue().U64()
		dst := ec.popValue().U64()
		seg := f.Module.Module.Data[ins.Index]
		f.Module.Memory0().Init(dst, seg.Bytes, src, n)
		f.PC++
	case wasm.OpDataDrop:
		f.Module.Module.Data[ins.Index].Dropped = true
		f.PC++

	case wasm.OpI32Const:
		ec.pushValue(api.I32Value(ins.I32))
		f.PC++
	case wasm.OpI64Const:
		ec.pushValue(api.I64Value(ins.I64))
		f.PC++
	case wasm.OpF32Const:
		ec.pushValue(api.F32Value(ins.F32))
		f.PC++
	case wasm.OpF64Const:
		ec.pushValue(api.F64Value(ins.F64))
		f.PC++

	case wasm.OpI32Eqz:
		ec.pushValue(boolValue(ec.popValue().I32() == 0))
		f.PC++
	case wasm.OpI64Eqz:
		ec.pushValue(boolValue(ec.popValue().I64() == 0))
		f.PC++

	case wasm.OpI32Clz, wasm.OpI32Ctz, wasm.OpI32Popcnt:
		v := ec.popValue().U32()
		ec.pushValue(api.I32Value(int32(i32UnaryOp(ins.Op, v))))
		f.PC++
	case wasm.OpI64Clz, wasm.OpI64Ctz, wasm.OpI64Popcnt:
		v := ec.popValue().U64()
		ec.pushValue(api.I64Value(int64(i64UnaryOp(ins.Op, v))))
		f.PC++

	case wasm.OpI32Eq, wasm.OpI32Ne, wasm.OpI32LtS, wasm.OpI32LtU, wasm.OpI32GtS, wasm.OpI32GtU,
		wasm.OpI32LeS, wasm.OpI32LeU, wasm.OpI32GeS, wasm.OpI32GeU,
		wasm.OpI32Add, wasm.OpI32Sub, wasm.OpI32Mul, wasm.OpI32DivS, wasm.OpI32DivU,
		wasm.OpI32RemS, wasm.OpI32RemU, wasm.OpI32And, wasm.OpI32Or, wasm.OpI32Xor,
		wasm.OpI32Shl, wasm.OpI32ShrS, wasm.OpI32ShrU, wasm.OpI32Rotl, wasm.OpI32Rotr:
		b := ec.popValue().I32()
		a := ec.popValue().I32()
		ec.pushValue(i32BinOp(i32OpTag(ins.Op), a, b))
		f.PC++

	case wasm.OpI64Eq, wasm.OpI64Ne, wasm.OpI64LtS, wasm.OpI64LtU, wasm.OpI64GtS, wasm.OpI64GtU,
		wasm.OpI64LeS, wasm.OpI64LeU, wasm.OpI64GeS, wasm.OpI64GeU,
		wasm.OpI64Add, wasm.OpI64Sub, wasm.OpI64Mul, wasm.OpI64DivS, wasm.OpI64DivU,
		wasm.OpI64RemS, wasm.OpI64RemU, wasm.OpI64And, wasm.OpI64Or, wasm.OpI64Xor,
		wasm.OpI64Shl, wasm.OpI64ShrS, wasm.OpI64ShrU, wasm.OpI64Rotl, wasm.OpI64Rotr:
		b := ec.popValue().I64()
		a := ec.popValue().I64()
		ec.pushValue(i64BinOp(i64OpTag(ins.Op), a, b))
		f.PC++

	case wasm.OpF32Abs, wasm.OpF32Neg, wasm.OpF32Ceil, wasm.OpF32Floor, wasm.OpF32Trunc,
		wasm.OpF32Nearest, wasm.OpF32Sqrt:
		v := math.Float32frombits(ec.popValue().F32Bits())
		ec.pushValue(api.F32Value(math.Float32bits(f32UnaryOp(ins.Op, v))))
		f.PC++
	case wasm.OpF64Abs, wasm.OpF64Neg, wasm.OpF64Ceil, wasm.OpF64Floor, wasm.OpF64Trunc,
		wasm.OpF64Nearest, wasm.OpF64Sqrt:
		v := math.Float64frombits(ec.popValue().F64Bits())
		ec.pushValue(api.F64Value(math.Float64bits(f64UnaryOp(ins.Op, v))))
		f.PC++

	case wasm.OpF32Eq, wasm.OpF32Ne, wasm.OpF32Lt, wasm.OpF32Gt, wasm.OpF32Le, wasm.OpF32Ge,
		wasm.OpF32Add, wasm.OpF32Sub, wasm.OpF32Mul, wasm.OpF32Div, wasm.OpF32Min, wasm.OpF32Max,
		wasm.OpF32Copysign:
		b := math.Float32frombits(ec.popValue().F32Bits())
		a := math.Float32frombits(ec.popValue().F32Bits())
		ec.pushValue(f32BinOp(f32OpTag(ins.Op), a, b))
		f.PC++

	case wasm.OpF64Eq, wasm.OpF64Ne, wasm.OpF64Lt, wasm.OpF64Gt, wasm.OpF64Le, wasm.OpF64Ge,
		wasm.OpF64Add, wasm.OpF64Sub, wasm.OpF64Mul, wasm.OpF64Div, wasm.OpF64Min, wasm.OpF64Max,
		wasm.OpF64Copysign:
		b := math.Float64frombits(ec.popValue().F64Bits())
		a := math.Float64frombits(ec.popValue().F64Bits())
		ec.pushValue(f64BinOp(f64OpTag(ins.Op), a, b))
		f.PC++

	case wasm.OpI32WrapI64:
		ec.pushValue(api.I32Value(int32(ec.popValue().I64())))
		f.PC++
	case wasm.OpI32TruncF32S:
		ec.pushValue(api.I32Value(truncToI32S(float64(math.Float32frombits(ec.popValue().F32Bits())))))
		f.PC++
	case wasm.OpI32TruncF32U:
		ec.pushValue(api.I32Value(truncToI32U(float64(math.Float32frombits(ec.popValue().F32Bits())))))
		f.PC++
	case wasm.OpI32TruncF64S:
		ec.pushValue(api.I32Value(truncToI32S(math.Float64frombits(ec.popValue().F64Bits()))))
		f.PC++
	case wasm.OpI32TruncF64U:
		ec.pushValue(api.I32Value(truncToI32U(math.Float64frombits(ec.popValue().F64Bits()))))
		f.PC++
	case wasm.OpI64ExtendI32S:
		ec.pushValue(api.I64Value(int64(ec.popValue().I32())))
		f.PC++
	case wasm.OpI64ExtendI32U:
		ec.pushValue(api.I64Value(int64(uint32(ec.popValue().I32()))))
		f.PC++
	case wasm.OpI64TruncF32S:
		ec.pushValue(api.I64Value(truncToI64S(float64(math.Float32frombits(ec.popValue().F32Bits())))))
		f.PC++
	case wasm.OpI64TruncF32U:
		ec.pushValue(api.I64Value(truncToI64U(float64(math.Float32frombits(ec.popValue().F32Bits())))))
		f.PC++
	case wasm.OpI64TruncF64S:
		ec.pushValue(api.I64Value(truncToI64S(math.Float64frombits(ec.popValue().F64Bits()))))
		f.PC++
	case wasm.OpI64TruncF64U:
		ec.pushValue(api.I64Value(truncToI64U(math.Float64frombits(ec.popValue().F64Bits()))))
		f.PC++
	case wasm.OpF32ConvertI32S:
		ec.pushValue(api.F32Value(math.Float32bits(float32(ec.popValue().I32()))))
		f.PC++
	case wasm.OpF32ConvertI32U:
		ec.pushValue(api.F32Value(math.Float32bits(float32(uint32(ec.popValue().I32())))))
		f.PC++
	case wasm.OpF32ConvertI64S:
		ec.pushValue(api.F32Value(math.Float32bits(float32(ec.popValue().I64()))))
		f.PC++
	case wasm.OpF32ConvertI64U:
		ec.pushValue(api.F32Value(math.Float32bits(float32(uint64(ec.popValue().I64())))))
		f.PC++
	case wasm.OpF32DemoteF64:
		ec.pushValue(api.F32Value(math.Float32bits(float32(math.Float64frombits(ec.popValue().F64Bits())))))
		f.PC++
	case wasm.OpF64ConvertI32S:
		ec.pushValue(api.F64Value(math.Float64bits(float64(ec.popValue().I32()))))
		f.PC++
	case wasm.OpF64ConvertI32U:
		ec.pushValue(api.F64Value(math.Float64bits(float64(uint32(ec.popValue().I32())))))
		f.PC++
	case wasm.OpF64ConvertI64S:
		ec.pushValue(api.F64Value(math.Float64bits(float64(ec.popValue().I64()))))
		f.PC++
	case wasm.OpF64ConvertI64U:
		ec.pushValue(api.F64Value(math.Float64bits(float64(uint64(ec.popValue().I64())))))
		f.PC++
	case wasm.OpF64PromoteF32:
		ec.pushValue(api.F64Value(math.Float64bits(float64(math.Float32frombits(ec.popValue().F32Bits())))))
		f.PC++
	case wasm.OpI32ReinterpretF32:
		ec.pushValue(api.I32Value(int32(ec.popValue().F32Bits())))
		f.PC++
	case wasm.OpI64ReinterpretF64:
		ec.pushValue(api.I64Value(int64(ec.popValue().F64Bits())))
		f.PC++
	case wasm.OpF32ReinterpretI32:
		ec.pushValue(api.F32Value(uint32(ec.popValue().I32())))
		f.PC++
	case wasm.OpF64ReinterpretI64:
		ec.pushValue(api.F64Value(uint64(ec.popValue().I64())))
		f.PC++
	case wasm.OpI32Extend8S:
		ec.pushValue(api.I32Value(int32(int8(ec.popValue().I32()))))
		f.PC++
	case wasm.OpI32Extend16S:
		ec.pushValue(api.I32Value(int32(int16(ec.popValue().I32()))))
		f.PC++
	case wasm.OpI64Extend8S:
		ec.pushValue(api.I64Value(int64(int8(ec.popValue().I64()))))
		f.PC++
	case wasm.OpI64Extend16S:
		ec.pushValue(api.I64Value(int64(int16(ec.popValue().I64()))))
		f.PC++
	case wasm.OpI64Extend32S:
		ec.pushValue(api.I64Value(int64(int32(ec.popValue().I64()))))
		f.PC++

	case wasm.OpRefNull:
		if ins.Block.ValueType == api.ValueTypeExternref {
			ec.pushValue(api.NullExternRef())
		} else {
			ec.pushValue(api.NullFuncRef())
		}
		f.PC++
	case wasm.OpRefIsNull:
		ec.pushValue(boolValue(ec.popValue().IsNull()))
		f.PC++
	case wasm.OpRefFunc:
		ec.pushValue(api.FuncRefValue(uint64(ins.Index)))
		f.PC++
	case wasm.OpRefAsNonNull:
		v := ec.Stack[len(ec.Stack)-1]
		if v.IsNull() {
			panic(wasmruntime.ErrNullReference)
		}
		f.PC++
	case wasm.OpRefEq:
		b := ec.popValue()
		a := ec.popValue()
		ec.pushValue(boolValue(a.IsNull() == b.IsNull() && a.RefHandle() == b.RefHandle()))
		f.PC++
	case wasm.OpBrOnNull:
		v := ec.Stack[len(ec.Stack)-1]
		if v.IsNull() {
			ec.popValue()
			branch(ec, f, int(ins.Index))
		} else {
			f.PC++
		}
	case wasm.OpBrOnNonNull:
		v := ec.Stack[len(ec.Stack)-1]
		if !v.IsNull() {
			branch(ec, f, int(ins.Index))
		} else {
			ec.popValue()
			f.PC++
		}

	case wasm.OpAtomicFence:
		f.PC++ // single-threaded core: no other agent to fence against

	case wasm.OpI32AtomicRmwAdd, wasm.OpI32AtomicRmwSub, wasm.OpI32AtomicRmwAnd, wasm.OpI32AtomicRmwOr,
		wasm.OpI32AtomicRmwXor, wasm.OpI32AtomicRmwXchg:
		v := ec.popValue().U32()
		addr := ec.popValue().U64()
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, 4, atomicRMWFn(ins.Op, uint64(v)))
		ec.pushValue(api.I32Value(int32(old)))
		f.PC++
	case wasm.OpI32AtomicRmwCmpxchg:
		replacement := ec.popValue().U32()
		expected := ec.popValue().U32()
		addr := ec.popValue().U64()
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, 4, func(cur uint64) uint64 {
			if uint32(cur) == expected {
				return uint64(replacement)
			}
			return cur
		})
		ec.pushValue(api.I32Value(int32(old)))
		f.PC++

	case wasm.OpI64AtomicRmwAdd, wasm.OpI64AtomicRmwSub, wasm.OpI64AtomicRmwAnd, wasm.OpI64AtomicRmwOr,
		wasm.OpI64AtomicRmwXor, wasm.OpI64AtomicRmwXchg:
		v := ec.popValue().U64()
		addr := ec.popValue().U64()
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, 8, atomicRMWFn(ins.Op, v))
		ec.pushValue(api.I64Value(int64(old)))
		f.PC++
	case wasm.OpI64AtomicRmwCmpxchg:
		replacement := ec.popValue().U64()
		expected := ec.popValue().U64()
		addr := ec.popValue().U64()
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, 8, func(cur uint64) uint64 {
			if cur == expected {
				return replacement
			}
			return cur
		})
		ec.pushValue(api.I64Value(int64(old)))
		f.PC++

	case wasm.OpI32AtomicLoad, wasm.OpI32AtomicLoad8U, wasm.OpI32AtomicLoad16U:
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, func(cur uint64) uint64 { return cur })
		ec.pushValue(api.I32Value(int32(old)))
		f.PC++
	case wasm.OpI64AtomicLoad, wasm.OpI64AtomicLoad8U, wasm.OpI64AtomicLoad16U, wasm.OpI64AtomicLoad32U:
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, func(cur uint64) uint64 { return cur })
		ec.pushValue(api.I64Value(int64(old)))
		f.PC++
	case wasm.OpI32AtomicStore, wasm.OpI32AtomicStore8, wasm.OpI32AtomicStore16:
		v := uint64(ec.popValue().U32())
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, func(uint64) uint64 { return v })
		f.PC++
	case wasm.OpI64AtomicStore, wasm.OpI64AtomicStore8, wasm.OpI64AtomicStore16, wasm.OpI64AtomicStore32:
		v := ec.popValue().U64()
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, func(uint64) uint64 { return v })
		f.PC++

	case wasm.OpI32AtomicRmw8AddU, wasm.OpI32AtomicRmw8SubU, wasm.OpI32AtomicRmw8AndU, wasm.OpI32AtomicRmw8OrU,
		wasm.OpI32AtomicRmw8XorU, wasm.OpI32AtomicRmw8XchgU, wasm.OpI32AtomicRmw16AddU, wasm.OpI32AtomicRmw16SubU,
		wasm.OpI32AtomicRmw16AndU, wasm.OpI32AtomicRmw16OrU, wasm.OpI32AtomicRmw16XorU, wasm.OpI32AtomicRmw16XchgU:
		v := ec.popValue().U32()
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, atomicRMWFn(subwordBaseOp(ins.Op), uint64(v)))
		ec.pushValue(api.I32Value(int32(old)))
		f.PC++
	case wasm.OpI32AtomicRmw8CmpxchgU, wasm.OpI32AtomicRmw16CmpxchgU:
		replacement := ec.popValue().U32()
		expected := ec.popValue().U32()
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		mask := uint64(1)<<(uint(width)*8) - 1
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, func(cur uint64) uint64 {
			if cur&mask == uint64(expected)&mask {
				return uint64(replacement) & mask
			}
			return cur
		})
		ec.pushValue(api.I32Value(int32(old)))
		f.PC++

	case wasm.OpI64AtomicRmw8AddU, wasm.OpI64AtomicRmw8SubU, wasm.OpI64AtomicRmw8AndU, wasm.OpI64AtomicRmw8OrU,
		wasm.OpI64AtomicRmw8XorU, wasm.OpI64AtomicRmw8XchgU, wasm.OpI64AtomicRmw16AddU, wasm.OpI64AtomicRmw16SubU,
		wasm.OpI64AtomicRmw16AndU, wasm.OpI64AtomicRmw16OrU, wasm.OpI64AtomicRmw16XorU, wasm.OpI64AtomicRmw16XchgU,
		wasm.OpI64AtomicRmw32AddU, wasm.OpI64AtomicRmw32SubU, wasm.OpI64AtomicRmw32AndU, wasm.OpI64AtomicRmw32OrU,
		wasm.OpI64AtomicRmw32XorU, wasm.OpI64AtomicRmw32XchgU:
		v := ec.popValue().U64()
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, atomicRMWFn(subwordBaseOp(ins.Op), v))
		ec.pushValue(api.I64Value(int64(old)))
		f.PC++
	case wasm.OpI64AtomicRmw8CmpxchgU, wasm.OpI64AtomicRmw16CmpxchgU, wasm.OpI64AtomicRmw32CmpxchgU:
		replacement := ec.popValue().U64()
		expected := ec.popValue().U64()
		addr := ec.popValue().U64()
		width := atomicWidth(ins.Op)
		mask := uint64(1)<<(uint(width)*8) - 1
		old := f.Module.Memory0().AtomicRMW(addr, ins.Mem.Offset, width, func(cur uint64) uint64 {
			if cur&mask == expected&mask {
				return replacement & mask
			}
			return cur
		})
		ec.pushValue(api.I64Value(int64(old)))
		f.PC++

	case wasm.OpMemoryAtomicNotify:
		count := ec.popValue().U32()
		addr := ec.popValue().U64()
		ec.pushValue(api.I32Value(int32(f.Module.Memory0().AtomicNotify(addr, ins.Mem.Offset, count))))
		f.PC++
	case wasm.OpMemoryAtomicWait32:
		expected := ec.popValue().U32()
		addr := ec.popValue().U64()
		ec.popValue() // timeout: ignored, this core never blocks
		ec.pushValue(api.I32Value(int32(f.Module.Memory0().AtomicWait(addr, ins.Mem.Offset, 4, uint64(expected)))))
		f.PC++
	case wasm.OpMemoryAtomicWait64:
		expected := ec.popValue().U64()
		addr := ec.popValue().U64()
		ec.popValue() // timeout: ignored
		ec.pushValue(api.I32Value(int32(f.Module.Memory0().AtomicWait(addr, ins.Mem.Offset, 8, expected))))
		f.PC++

	case wasm.OpExplicitYield:
		f.PC++
		return Outcome{Kind: OutcomeYield, Yield: YieldExplicitYield}

	default:
		panic(wasmruntime.ErrUnreachable)
	}

	if ec.CurrentFrame() != f {
		// branch() popped the frame: a branch past the outermost block
		// returns from the function.
		return Outcome{Kind: OutcomeReturn, ReturnValues: ec.lastReturn}
	}
	if f.PC >= len(f.Body.Instructions) {
		doReturn(ec, f)
		return Outcome{Kind: OutcomeReturn, ReturnValues: ec.lastReturn}
	}
	return Outcome{Kind: OutcomeContinue}
}

// branch implements Br(depth): pop depth+1 block contexts, truncate the
// value stack to that outer context's pre-entry depth plus its arity
// worth of results, then jump to its continuation. A depth past the
// outermost open block acts as Return: the frame is popped via doReturn.
func branch(ec *ExecutionContext, f *StacklessFrame, depth int) {
	if depth >= len(f.Blocks) {
		doReturn(ec, f)
		return
	}
	var target BlockContext
	for i := 0; i <= depth; i++ {
		target = f.popBlock()
	}
	results := ec.popValues(target.Arity)
	ec.Stack = ec.Stack[:target.StackDepthBefore]
	ec.Stack = append(ec.Stack, results...)
	if target.Kind == BlockKindLoop {
		// Re-push the loop context: a Br to a loop re-enters it, it does
		// not end it.
		f.pushBlock(target, maxBlockDepth)
	}
	f.PC = target.continuationPC()
}

// doReturn pops the frame's result values into ExecutionContext.lastReturn
// and pops the frame; Step's OutcomeReturn sites hand lastReturn to the
// caller.
func doReturn(ec *ExecutionContext, f *StacklessFrame) {
	ec.lastReturn = ec.popValues(f.Arity)
	ec.PopFrame()
}

func blockArity(f *StacklessFrame, sig wasm.BlockSignature) int {
	if sig.Empty {
		return 0
	}
	if sig.HasValue {
		return 1
	}
	if sig.IsTypeIdx {
		return len(f.Module.Module.Types[sig.TypeIndex].Results)
	}
	return 0
}

func sameFuncType(a, b wasm.FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

func refValueFromHandle(elemTyp api.ValueType, handle uint64) api.Value {
	if handle == tableNull {
		if elemTyp == api.ValueTypeExternref {
			return api.NullExternRef()
		}
		return api.NullFuncRef()
	}
	if elemTyp == api.ValueTypeExternref {
		return api.ExternRefValue(handle)
	}
	return api.FuncRefValue(handle)
}

func handleFromRefValue(v api.Value) uint64 {
	if v.IsNull() {
		return tableNull
	}
	return v.RefHandle()
}

func i32UnaryOp(op wasm.Opcode, v uint32) uint32 {
	switch op {
	case wasm.OpI32Clz:
		return uint32(bits.LeadingZeros32(v))
	case wasm.OpI32Ctz:
		return uint32(bits.TrailingZeros32(v))
	case wasm.OpI32Popcnt:
		return uint32(bits.OnesCount32(v))
	}
	panic("unreachable i32 unary op")
}

func i64UnaryOp(op wasm.Opcode, v uint64) uint64 {
	switch op {
	case wasm.OpI64Clz:
		return uint64(bits.LeadingZeros64(v))
	case wasm.OpI64Ctz:
		return uint64(bits.TrailingZeros64(v))
	case wasm.OpI64Popcnt:
		return uint64(bits.OnesCount64(v))
	}
	panic("unreachable i64 unary op")
}

func f32UnaryOp(op wasm.Opcode, v float32) float32 {
	switch op {
	case wasm.OpF32Abs:
		return float32(math.Abs(float64(v)))
	case wasm.OpF32Neg:
		return -v
	case wasm.OpF32Ceil:
		return float32(math.Ceil(float64(v)))
	case wasm.OpF32Floor:
		return float32(math.Floor(float64(v)))
	case wasm.OpF32Trunc:
		return float32(math.Trunc(float64(v)))
	case wasm.OpF32Nearest:
		return float32(math.RoundToEven(float64(v)))
	case wasm.OpF32Sqrt:
		return float32(math.Sqrt(float64(v)))
	}
	panic("unreachable f32 unary op")
}

func f64UnaryOp(op wasm.Opcode, v float64) float64 {
	switch op {
	case wasm.OpF64Abs:
		return math.Abs(v)
	case wasm.OpF64Neg:
		return -v
	case wasm.OpF64Ceil:
		return math.Ceil(v)
	case wasm.OpF64Floor:
		return math.Floor(v)
	case wasm.OpF64Trunc:
		return math.Trunc(v)
	case wasm.OpF64Nearest:
		return math.RoundToEven(v)
	case wasm.OpF64Sqrt:
		return math.Sqrt(v)
	}
	panic("unreachable f64 unary op")
}

func atomicWidth(op wasm.Opcode) int {
	switch op {
	case wasm.OpI32AtomicLoad8U, wasm.OpI32AtomicStore8, wasm.OpI64AtomicLoad8U, wasm.OpI64AtomicStore8:
		return 1
	case wasm.OpI32AtomicLoad16U, wasm.OpI32AtomicStore16, wasm.OpI64AtomicLoad16U, wasm.OpI64AtomicStore16:
		return 2
	case wasm.OpI64AtomicLoad32U, wasm.OpI64AtomicStore32:
		return 4
	case wasm.OpI64AtomicLoad, wasm.OpI64AtomicStore:
		return 8
	}
	return 4
}

// subwordBaseOp maps a sub-word RMW opcode (e.g. i32.atomic.rmw8.add_u) to
// its full-width counterpart so atomicRMWFn only needs one switch.
func subwordBaseOp(op wasm.Opcode) wasm.Opcode {
	switch op {
	case wasm.OpI32AtomicRmw8AddU, wasm.OpI32AtomicRmw16AddU, wasm.OpI64AtomicRmw8AddU, wasm.OpI64AtomicRmw16AddU, wasm.OpI64AtomicRmw32AddU:
		return wasm.OpI32AtomicRmwAdd
	case wasm.OpI32AtomicRmw8SubU, wasm.OpI32AtomicRmw16SubU, wasm.OpI64AtomicRmw8SubU, wasm.OpI64AtomicRmw16SubU, wasm.OpI64AtomicRmw32SubU:
		return wasm.OpI32AtomicRmwSub
	case wasm.OpI32AtomicRmw8AndU, wasm.OpI32AtomicRmw16AndU, wasm.OpI64AtomicRmw8AndU, wasm.OpI64AtomicRmw16AndU, wasm.OpI64AtomicRmw32AndU:
		return wasm.OpI32AtomicRmwAnd
	case wasm.OpI32AtomicRmw8OrU, wasm.OpI32AtomicRmw16OrU, wasm.OpI64AtomicRmw8OrU, wasm.OpI64AtomicRmw16OrU, wasm.OpI64AtomicRmw32OrU:
		return wasm.OpI32AtomicRmwOr
	case wasm.OpI32AtomicRmw8XorU, wasm.OpI32AtomicRmw16XorU, wasm.OpI64AtomicRmw8XorU, wasm.OpI64AtomicRmw16XorU, wasm.OpI64AtomicRmw32XorU:
		return wasm.OpI32AtomicRmwXor
	default:
		return wasm.OpI32AtomicRmwXchg
	}
}

func atomicRMWFn(op wasm.Opcode, operand uint64) func(uint64) uint64 {
	switch op {
	case wasm.OpI32AtomicRmwAdd, wasm.OpI64AtomicRmwAdd:
		return func(old uint64) uint64 { return old + operand }
	case wasm.OpI32AtomicRmwSub, wasm.OpI64AtomicRmwSub:
		return func(old uint64) uint64 { return old - operand }
	case wasm.OpI32AtomicRmwAnd, wasm.OpI64AtomicRmwAnd:
		return func(old uint64) uint64 { return old & operand }
	case wasm.OpI32AtomicRmwOr, wasm.OpI64AtomicRmwOr:
		return func(old uint64) uint64 { return old | operand }
	case wasm.OpI32AtomicRmwXor, wasm.OpI64AtomicRmwXor:
		return func(old uint64) uint64 { return old ^ operand }
	default:
		return func(uint64) uint64 { return operand }
	}
}

func i32OpTag(op wasm.Opcode) wasmOp {
	switch op {
	case wasm.OpI32Add:
		return opAdd
	case wasm.OpI32Sub:
		return opSub
	case wasm.OpI32Mul:
		return opMul
	case wasm.OpI32DivS:
		return opDivS
	case wasm.OpI32DivU:
		return opDivU
	case wasm.OpI32RemS:
		return opRemS
	case wasm.OpI32RemU:
		return opRemU
	case wasm.OpI32And:
		return opAnd
	case wasm.OpI32Or:
		return opOr
	case wasm.OpI32Xor:
		return opXor
	case wasm.OpI32Shl:
		return opShl
	case wasm.OpI32ShrS:
		return opShrS
	case wasm.OpI32ShrU:
		return opShrU
	case wasm.OpI32Rotl:
		return opRotl
	case wasm.OpI32Rotr:
		return opRotr
	case wasm.OpI32Eq:
		return opEq
	case wasm.OpI32Ne:
		return opNe
	case wasm.OpI32LtS:
		return opLtS
	case wasm.OpI32LtU:
		return opLtU
	case wasm.OpI32GtS:
		return opGtS
	case wasm.OpI32GtU:
		return opGtU
	case wasm.OpI32LeS:
		return opLeS
	case wasm.OpI32LeU:
		return opLeU
	case wasm.OpI32GeS:
		return opGeS
	default: // wasm.OpI32GeU
		return opGeU
	}
}

func i64OpTag(op wasm.Opcode) wasmOp {
	switch op {
	case wasm.OpI64Add:
		return opAdd
	case wasm.OpI64Sub:
		return opSub
	case wasm.OpI64Mul:
		return opMul
	case wasm.OpI64DivS:
		return opDivS
	case wasm.OpI64DivU:
		return opDivU
	case wasm.OpI64RemS:
		return opRemS
	case wasm.OpI64RemU:
		return opRemU
	case wasm.OpI64And:
		return opAnd
	case wasm.OpI64Or:
		return opOr
	case wasm.OpI64Xor:
		return opXor
	case wasm.OpI64Shl:
		return opShl
	case wasm.OpI64ShrS:
		return opShrS
	case wasm.OpI64ShrU:
		return opShrU
	case wasm.OpI64Rotl:
		return opRotl
	case wasm.OpI64Rotr:
		return opRotr
	case wasm.OpI64Eq:
		return opEq
	case wasm.OpI64Ne:
		return opNe
	case wasm.OpI64LtS:
		return opLtS
	case wasm.OpI64LtU:
		return opLtU
	case wasm.OpI64GtS:
		return opGtS
	case wasm.OpI64GtU:
		return opGtU
	case wasm.OpI64LeS:
		return opLeS
	case wasm.OpI64LeU:
		return opLeU
	case wasm.OpI64GeS:
		return opGeS
	default: // wasm.OpI64GeU
		return opGeU
	}
}

func f32OpTag(op wasm.Opcode) wasmOp {
	switch op {
	case wasm.OpF32Eq:
		return opEq
	case wasm.OpF32Ne:
		return opNe
	case wasm.OpF32Lt:
		return opLt
	case wasm.OpF32Gt:
		return opGt
	case wasm.OpF32Le:
		return opLe
	case wasm.OpF32Ge:
		return opGe
	case wasm.OpF32Add:
		return opAdd
	case wasm.OpF32Sub:
		return opSub
	case wasm.OpF32Mul:
		return opMul
	case wasm.OpF32Div:
		return opDiv
	case wasm.OpF32Min:
		return opMin
	case wasm.OpF32Max:
		return opMax
	default: // wasm.OpF32Copysign
		return opCopysign
	}
}

func f64OpTag(op wasm.Opcode) wasmOp {
	switch op {
	case wasm.OpF64Eq:
		return opEq
	case wasm.OpF64Ne:
		return opNe
	case wasm.OpF64Lt:
		return opLt
	case wasm.OpF64Gt:
		return opGt
	case wasm.OpF64Le:
		return opLe
	case wasm.OpF64Ge:
		return opGe
	case wasm.OpF64Add:
		return opAdd
	case wasm.OpF64Sub:
		return opSub
	case wasm.OpF64Mul:
		return opMul
	case wasm.OpF64Div:
		return opDiv
	case wasm.OpF64Min:
		return opMin
	case wasm.OpF64Max:
		return opMax
	default: // wasm.OpF64Copysign
		return opCopysign
	}
}
