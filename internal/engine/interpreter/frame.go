package interpreter

import (
	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/wasm"
	"github.com/pulseengine/wrt/internal/wasmruntime"
)

// BlockKind distinguishes the three structured control-flow constructs a
// BlockContext can represent.
type BlockKind byte

const (
	BlockKindBlock BlockKind = iota
	BlockKindLoop
	BlockKindIf
)

// BlockContext records one block's type, its continuation program
// counters, the value-stack depth before entering it, and its arity, per
// section 3.4. Blocks nest strictly: a matching End pops exactly one
// context, and branches target contexts by relative depth (section 4.2).
type BlockContext struct {
	Kind BlockKind

	// LoopStartPC is where a Br targeting this context resumes execution
	// when Kind == BlockKindLoop; EndPC is used for Block and If.
	LoopStartPC int
	EndPC       int
	ElsePC      int // BlockKindIf: index of the matching Else, or EndPC if none; -1 for Block and Loop

	StackDepthBefore int
	Arity            int // number of result values the block produces
}

// continuationPC returns the program counter a Br targeting this context
// jumps to after branch() has already popped it off the block stack: the
// loop's start for a loop (so the loop body runs again), or one past its
// End instruction otherwise (section 4.2: "Br(n) ... jumps to the top
// one's continuation (loop-start for Loop contexts, end-pc otherwise)").
func (b *BlockContext) continuationPC() int {
	if b.Kind == BlockKindLoop {
		return b.LoopStartPC
	}
	return b.EndPC + 1
}

// StacklessFrame is one activation record for an active function call,
// per section 3.4. Every field needed to pause and resume this call
// without relying on the host call stack lives here or in the shared
// ExecutionContext value stack — there is deliberately no recursive Go
// call for nested Wasm calls; Step returns a Call outcome and Step's
// caller (the fuel executor's task loop) pushes a new StacklessFrame
// instead.
type StacklessFrame struct {
	PC     int
	Locals []api.Value

	Module    *ModuleInstance
	FuncIndex uint32
	FuncType  wasm.FuncType
	Arity     int

	Body   *wasm.FunctionBody
	Blocks []BlockContext
}

// MaxLocals bounds the number of locals (params + declared) a single frame
// may hold, independent of any ASIL stack-depth limit: it guards against a
// single pathological function body exhausting memory through its own
// locals vector, per section 4.2 step 3 ("Error if total locals exceed
// max_locals").
const MaxLocals = 4096

// NewStacklessFrame constructs a frame for calling function funcIndex on
// module instance inst with the given arguments, per section 4.2:
//  1. look up the function type and body,
//  2. initialize locals as args followed by zeroed declared locals,
//  3. error if total locals would exceed maxLocals,
//  4. initialize an empty block-context stack and pc = 0.
func NewStacklessFrame(inst *ModuleInstance, funcIndex uint32, args []api.Value, maxLocals int) (*StacklessFrame, error) {
	fn := inst.Module.Functions[funcIndex]
	if fn.Body == nil {
		return nil, &NoFunctionBodyError{FuncIndex: funcIndex}
	}
	declared := fn.Body.ExpandedLocalTypes()
	total := len(args) + len(declared)
	if total > maxLocals {
		return nil, &TooManyLocalsError{Count: total, Max: maxLocals}
	}
	locals := make([]api.Value, 0, total)
	locals = append(locals, args...)
	for _, t := range declared {
		locals = append(locals, zeroValue(t))
	}
	return &StacklessFrame{
		Locals:    locals,
		Module:    inst,
		FuncIndex: funcIndex,
		FuncType:  fn.Type,
		Arity:     len(fn.Type.Results),
		Body:      fn.Body,
		Blocks:    make([]BlockContext, 0, 8),
	}, nil
}

func zeroValue(t api.ValueType) api.Value {
	switch t {
	case api.ValueTypeI32:
		return api.I32Value(0)
	case api.ValueTypeI64:
		return api.I64Value(0)
	case api.ValueTypeF32:
		return api.F32Value(0)
	case api.ValueTypeF64:
		return api.F64Value(0)
	case api.ValueTypeFuncref:
		return api.NullFuncRef()
	case api.ValueTypeExternref:
		return api.NullExternRef()
	default:
		return api.I32Value(0)
	}
}

// pushBlock pushes a new BlockContext, trapping with StackOverflow if the
// frame's block nesting would exceed maxBlockDepth — the interpreter-level
// analogue of a native call-stack limit, since otherwise nested blocks
// would grow a frame's block-context slice without bound.
func (f *StacklessFrame) pushBlock(b BlockContext, maxBlockDepth int) {
	if len(f.Blocks) >= maxBlockDepth {
		panic(wasmruntime.ErrStackOverflow)
	}
	f.Blocks = append(f.Blocks, b)
}

func (f *StacklessFrame) topBlock() *BlockContext {
	if len(f.Blocks) == 0 {
		return nil
	}
	return &f.Blocks[len(f.Blocks)-1]
}

func (f *StacklessFrame) popBlock() BlockContext {
	n := len(f.Blocks)
	b := f.Blocks[n-1]
	f.Blocks = f.Blocks[:n-1]
	return b
}

type NoFunctionBodyError struct{ FuncIndex uint32 }

func (e *NoFunctionBodyError) Error() string { return "function has no body (import not resolved)" }

type TooManyLocalsError struct{ Count, Max int }

func (e *TooManyLocalsError) Error() string { return "too many locals for frame" }
