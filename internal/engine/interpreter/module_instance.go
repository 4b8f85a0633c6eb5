package interpreter

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/wasm"
)

// ImportBinding resolves one imported function index to the concrete
// ModuleInstance and local function index it was linked against at
// instantiation time. Binding imports is ordinarily the job of the
// external Component Model ABI layer (section 1: "out of scope"); this
// core only needs the resulting table to route a Call instruction across
// module boundaries (section 8 end-to-end scenario 4, "cross-module
// call").
type ImportBinding struct {
	Target     *ModuleInstance
	FuncIndex  uint32
}

// ModuleInstance is the per-instantiation runtime state linked to a static
// Module: its Memory, Table, and Global instances, per section 3.4.
// Created at instantiation, destroyed when no task references it.
type ModuleInstance struct {
	Module   *wasm.Module
	Memories []*Memory
	Tables   []*Table
	Globals  []*Global
	Imports  map[uint32]ImportBinding

	mu sync.RWMutex
}

// NewModuleInstance instantiates every Memory, Table, and Global declared
// by m, evaluating global initializer expressions via a tiny constant-only
// evaluator (globals may only reference imported globals or Wasm
// constants during instantiation, never executable code).
func NewModuleInstance(m *wasm.Module, imports map[uint32]ImportBinding) *ModuleInstance {
	inst := &ModuleInstance{Module: m, Imports: imports}
	for _, mt := range m.Memories {
		inst.Memories = append(inst.Memories, NewMemory(mt))
	}
	for _, tt := range m.Tables {
		inst.Tables = append(inst.Tables, NewTable(tt))
	}
	for _, g := range m.Globals {
		inst.Globals = append(inst.Globals, &Global{
			Type:    g.Type.Type,
			Mutable: g.Type.Mutable,
			Value:   evalConstExpr(g.Init),
		})
	}
	return inst
}

// Memory0 returns the module's first memory, the implicit operand of every
// single-memory instruction (section 9: "the source sometimes
// short-circuits type checks ('assume memory index 0') outside the MVP" —
// this core keeps that MVP assumption explicit rather than silent, per the
// spec's recommendation to document it).
func (mi *ModuleInstance) Memory0() *Memory {
	if len(mi.Memories) == 0 {
		return nil
	}
	return mi.Memories[0]
}

// ResolveFunction returns the (instance, local-func-index) a Call to
// funcIdx should actually execute, following one level of import binding.
// Imports are not chained across more than one hop in this core.
func (mi *ModuleInstance) ResolveFunction(funcIdx uint32) (*ModuleInstance, uint32) {
	fn := mi.Module.Functions[funcIdx]
	if fn.Kind == 0 { // FunctionKindLocal
		return mi, funcIdx
	}
	if binding, ok := mi.Imports[funcIdx]; ok {
		return binding.Target, binding.FuncIndex
	}
	return mi, funcIdx
}

// instantiateGroup collapses concurrent first-instantiation requests for
// the same Module, the way section 2 DOMAIN STACK wiring calls for:
// multiple tasks racing to instantiate the same shared Module should not
// duplicate the work of evaluating every global initializer and
// preallocating every Memory/Table.
var instantiateGroup singleflight.Group

// InstantiateShared instantiates m (or joins the in-flight instantiation
// another caller started) keyed by key, typically the Module's ID combined
// with a caller-chosen instance name. Once that call has returned, a later
// call with the same key instantiates afresh.
func InstantiateShared(key string, m *wasm.Module, imports map[uint32]ImportBinding) (*ModuleInstance, error) {
	v, err, _ := instantiateGroup.Do(key, func() (interface{}, error) {
		return NewModuleInstance(m, imports), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ModuleInstance), nil
}

// evalConstExpr evaluates a global/element/data-segment offset constant
// expression. The decoder guarantees a constant expression is exactly one
// value-producing instruction followed by an implicit End, so this never
// needs a general-purpose interpreter loop.
func evalConstExpr(expr []wasm.Instruction) api.Value {
	if len(expr) == 0 {
		return api.I32Value(0)
	}
	ins := expr[0]
	switch ins.Op {
	case wasm.OpI32Const:
		return api.I32Value(ins.I32)
	case wasm.OpI64Const:
		return api.I64Value(ins.I64)
	case wasm.OpF32Const:
		return api.F32Value(ins.F32)
	case wasm.OpF64Const:
		return api.F64Value(ins.F64)
	case wasm.OpRefNull:
		return api.NullFuncRef()
	case wasm.OpRefFunc:
		return api.FuncRefValue(uint64(ins.Index))
	default:
		// GlobalGet of an imported global and other host-dependent
		// initializers are resolved by the instantiation collaborator
		// before reaching this core; default to zero rather than panic,
		// since this is not a Wasm-defined trap condition.
		return api.I32Value(0)
	}
}
