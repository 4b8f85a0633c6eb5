// Package api includes the value vocabulary and structured error categories
// shared by every internal engine package. It plays the same role wazero's
// api package plays for its host-facing Module/Function interfaces, except
// this core has no host-facing surface (the decoder, validator and
// Component Model canonical ABI are external collaborators per spec) so the
// package is scoped to the data that crosses those boundaries: Values,
// ValueTypes, and the error taxonomy of section 7.
package api

import "fmt"

// ValueType describes the type of a Value. Numeric types match the binary
// encoding used by WebAssembly 1.0/2.0 so a decoder's type table can be
// copied verbatim into a FuncType without re-encoding.
//
// See https://www.w3.org/TR/2019/REC-wasm-core-1-20191205/#binary-valtype
type ValueType byte

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeFuncref   ValueType = 0x70
	ValueTypeExternref ValueType = 0x6f
	// ValueTypeStructRef and ValueTypeArrayRef are Wasm 2.0 GC additions.
	ValueTypeStructRef ValueType = 0x6b
	ValueTypeArrayRef  ValueType = 0x6a
)

// ValueTypeName returns the WebAssembly text format name for t, or
// "unknown" for an undefined value.
func ValueTypeName(t ValueType) string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncref:
		return "funcref"
	case ValueTypeExternref:
		return "externref"
	case ValueTypeStructRef:
		return "structref"
	case ValueTypeArrayRef:
		return "arrayref"
	}
	return "unknown"
}

// IsNumeric reports whether t is one of the four Wasm 1.0 numeric types.
func IsNumeric(t ValueType) bool {
	switch t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64:
		return true
	}
	return false
}

// IsReference reports whether t is a reference type (funcref/externref or
// a Wasm 2.0 GC struct/array reference).
func IsReference(t ValueType) bool {
	switch t {
	case ValueTypeFuncref, ValueTypeExternref, ValueTypeStructRef, ValueTypeArrayRef:
		return true
	}
	return false
}

// Value is a tagged union over every Value variant section 3.1 names.
// Floating point values carry their raw IEEE-754 bit pattern rather than a
// Go float32/float64, so a NaN's payload survives a store-then-load or a
// serialize-then-deserialize round trip exactly — Go's float equality
// collapses distinct NaN payloads, bit patterns do not.
type Value struct {
	typ ValueType
	// lo holds I32 (zero-extended), I64, the bits of F32 (zero-extended)
	// or F64, and FuncRef/ExternRef handles (0 means null).
	lo uint64
	// refValid distinguishes a null reference (false) from handle zero being a
	// valid non-null handle (true); only meaningful when typ is a
	// reference type.
	refValid bool
}

// I32Value constructs an I32 value.
func I32Value(v int32) Value { return Value{typ: ValueTypeI32, lo: uint64(uint32(v))} }

// I64Value constructs an I64 value.
func I64Value(v int64) Value { return Value{typ: ValueTypeI64, lo: uint64(v)} }

// F32Value constructs an F32 value from its raw bit pattern.
func F32Value(bits uint32) Value { return Value{typ: ValueTypeF32, lo: uint64(bits)} }

// F64Value constructs an F64 value from its raw bit pattern.
func F64Value(bits uint64) Value { return Value{typ: ValueTypeF64, lo: bits} }

// NullFuncRef constructs a null FuncRef.
func NullFuncRef() Value { return Value{typ: ValueTypeFuncref} }

// FuncRefValue constructs a non-null FuncRef for the given table/func handle.
func FuncRefValue(handle uint64) Value {
	return Value{typ: ValueTypeFuncref, lo: handle, refValid: true}
}

// NullExternRef constructs a null ExternRef.
func NullExternRef() Value { return Value{typ: ValueTypeExternref} }

// ExternRefValue constructs a non-null ExternRef for the given handle.
func ExternRefValue(handle uint64) Value {
	return Value{typ: ValueTypeExternref, lo: handle, refValid: true}
}

// Type returns the ValueType tag of v.
func (v Value) Type() ValueType { return v.typ }

// I32 returns v's payload reinterpreted as a signed 32-bit integer. Callers
// must check Type() first; this never panics, it just returns garbage for
// the wrong tag (matching the teacher's no-panic-on-Wasm-data contract).
func (v Value) I32() int32 { return int32(uint32(v.lo)) }

// U32 returns v's payload as an unsigned 32-bit integer.
func (v Value) U32() uint32 { return uint32(v.lo) }

// I64 returns v's payload as a signed 64-bit integer.
func (v Value) I64() int64 { return int64(v.lo) }

// U64 returns v's payload as an unsigned 64-bit integer.
func (v Value) U64() uint64 { return v.lo }

// F32Bits returns v's raw F32 bit pattern.
func (v Value) F32Bits() uint32 { return uint32(v.lo) }

// F64Bits returns v's raw F64 bit pattern.
func (v Value) F64Bits() uint64 { return v.lo }

// IsNull reports whether v, a reference-typed Value, is null.
func (v Value) IsNull() bool { return IsReference(v.typ) && !v.refValid }

// RefHandle returns the opaque reference handle; 0 with IsNull() true for a
// null reference.
func (v Value) RefHandle() uint64 { return v.lo }

// String implements fmt.Stringer for debug output; it never allocates on
// any hot path since it is only reachable from error/debug formatting.
func (v Value) String() string {
	switch v.typ {
	case ValueTypeI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case ValueTypeI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case ValueTypeF32:
		return fmt.Sprintf("f32:0x%08x", v.F32Bits())
	case ValueTypeF64:
		return fmt.Sprintf("f64:0x%016x", v.F64Bits())
	case ValueTypeFuncref:
		if v.IsNull() {
			return "funcref:null"
		}
		return fmt.Sprintf("funcref:%d", v.lo)
	case ValueTypeExternref:
		if v.IsNull() {
			return "externref:null"
		}
		return fmt.Sprintf("externref:%d", v.lo)
	default:
		return fmt.Sprintf("%s:%#x", ValueTypeName(v.typ), v.lo)
	}
}

// FunctionKind classifies how a function index resolves, per section 6.
type FunctionKind byte

const (
	// FunctionKindLocal is a function with a body defined in this module.
	FunctionKindLocal FunctionKind = iota
	// FunctionKindImport routes through the ComponentModel calling
	// convention to a named import.
	FunctionKindImport
	// FunctionKindExport is a local function additionally reachable by
	// export name.
	FunctionKindExport
)

// Import describes the module/name pair of an imported function, valid
// only when Kind == FunctionKindImport.
type Import struct {
	Module string
	Name   string
}
