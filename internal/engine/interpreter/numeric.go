package interpreter

import (
	"math"
	"math/bits"

	"github.com/pulseengine/wrt/api"
	"github.com/pulseengine/wrt/internal/moremath"
	"github.com/pulseengine/wrt/internal/wasmruntime"
)

// i32BinOp evaluates one of the i32 binary arithmetic/bitwise/comparison
// instructions, trapping per section 4.2's numeric edge-case rules:
// signed division traps on MIN/-1 exactly as it does on division by zero,
// shift/rotate amounts mask to the width minus one rather than trapping.
func i32BinOp(op wasmOp, a, b int32) api.Value {
	switch op {
	case opAdd:
		return api.I32Value(a + b)
	case opSub:
		return api.I32Value(a - b)
	case opMul:
		return api.I32Value(a * b)
	case opDivS:
		if b == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		if a == math.MinInt32 && b == -1 {
			panic(wasmruntime.ErrIntegerOverflow)
		}
		return api.I32Value(a / b)
	case opDivU:
		ua, ub := uint32(a), uint32(b)
		if ub == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		return api.I32Value(int32(ua / ub))
	case opRemS:
		if b == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		if a == math.MinInt32 && b == -1 {
			return api.I32Value(0)
		}
		return api.I32Value(a % b)
	case opRemU:
		ua, ub := uint32(a), uint32(b)
		if ub == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		return api.I32Value(int32(ua % ub))
	case opAnd:
		return api.I32Value(a & b)
	case opOr:
		return api.I32Value(a | b)
	case opXor:
		return api.I32Value(a ^ b)
	case opShl:
		return api.I32Value(a << (uint32(b) & 31))
	case opShrS:
		return api.I32Value(a >> (uint32(b) & 31))
	case opShrU:
		return api.I32Value(int32(uint32(a) >> (uint32(b) & 31)))
	case opRotl:
		return api.I32Value(int32(bits.RotateLeft32(uint32(a), int(b&31))))
	case opRotr:
		return api.I32Value(int32(bits.RotateLeft32(uint32(a), -int(b&31))))
	case opEq:
		return boolValue(a == b)
	case opNe:
		return boolValue(a != b)
	case opLtS:
		return boolValue(a < b)
	case opLtU:
		return boolValue(uint32(a) < uint32(b))
	case opGtS:
		return boolValue(a > b)
	case opGtU:
		return boolValue(uint32(a) > uint32(b))
	case opLeS:
		return boolValue(a <= b)
	case opLeU:
		return boolValue(uint32(a) <= uint32(b))
	case opGeS:
		return boolValue(a >= b)
	case opGeU:
		return boolValue(uint32(a) >= uint32(b))
	}
	panic("unreachable i32 binop")
}

// i64BinOp is i32BinOp's i64 counterpart.
func i64BinOp(op wasmOp, a, b int64) api.Value {
	switch op {
	case opAdd:
		return api.I64Value(a + b)
	case opSub:
		return api.I64Value(a - b)
	case opMul:
		return api.I64Value(a * b)
	case opDivS:
		if b == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		if a == math.MinInt64 && b == -1 {
			panic(wasmruntime.ErrIntegerOverflow)
		}
		return api.I64Value(a / b)
	case opDivU:
		ua, ub := uint64(a), uint64(b)
		if ub == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		return api.I64Value(int64(ua / ub))
	case opRemS:
		if b == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		if a == math.MinInt64 && b == -1 {
			return api.I64Value(0)
		}
		return api.I64Value(a % b)
	case opRemU:
		ua, ub := uint64(a), uint64(b)
		if ub == 0 {
			panic(wasmruntime.ErrDivisionByZero)
		}
		return api.I64Value(int64(ua % ub))
	case opAnd:
		return api.I64Value(a & b)
	case opOr:
		return api.I64Value(a | b)
	case opXor:
		return api.I64Value(a ^ b)
	case opShl:
		return api.I64Value(a << (uint64(b) & 63))
	case opShrS:
		return api.I64Value(a >> (uint64(b) & 63))
	case opShrU:
		return api.I64Value(int64(uint64(a) >> (uint64(b) & 63)))
	case opRotl:
		return api.I64Value(int64(bits.RotateLeft64(uint64(a), int(b&63))))
	case opRotr:
		return api.I64Value(int64(bits.RotateLeft64(uint64(a), -int(b&63))))
	case opEq:
		return boolValue(a == b)
	case opNe:
		return boolValue(a != b)
	case opLtS:
		return boolValue(a < b)
	case opLtU:
		return boolValue(uint64(a) < uint64(b))
	case opGtS:
		return boolValue(a > b)
	case opGtU:
		return boolValue(uint64(a) > uint64(b))
	case opLeS:
		return boolValue(a <= b)
	case opLeU:
		return boolValue(uint64(a) <= uint64(b))
	case opGeS:
		return boolValue(a >= b)
	case opGeU:
		return boolValue(uint64(a) >= uint64(b))
	}
	panic("unreachable i64 binop")
}

// f32BinOp evaluates an f32 binary instruction. min/max reuse
// moremath.WasmCompatMinF32/MaxF32 so NaN and ±0 follow the Wasm spec's
// rules rather than Go's math package (section 4.2).
func f32BinOp(op wasmOp, a, b float32) api.Value {
	switch op {
	case opAdd:
		return api.F32Value(math.Float32bits(a + b))
	case opSub:
		return api.F32Value(math.Float32bits(a - b))
	case opMul:
		return api.F32Value(math.Float32bits(a * b))
	case opDiv:
		return api.F32Value(math.Float32bits(a / b))
	case opMin:
		return api.F32Value(math.Float32bits(moremath.WasmCompatMinF32(a, b)))
	case opMax:
		return api.F32Value(math.Float32bits(moremath.WasmCompatMaxF32(a, b)))
	case opCopysign:
		return api.F32Value(math.Float32bits(float32(math.Copysign(float64(a), float64(b)))))
	case opEq:
		return boolValue(a == b)
	case opNe:
		return boolValue(a != b)
	case opLt:
		return boolValue(a < b)
	case opGt:
		return boolValue(a > b)
	case opLe:
		return boolValue(a <= b)
	case opGe:
		return boolValue(a >= b)
	}
	panic("unreachable f32 binop")
}

func f64BinOp(op wasmOp, a, b float64) api.Value {
	switch op {
	case opAdd:
		return api.F64Value(math.Float64bits(a + b))
	case opSub:
		return api.F64Value(math.Float64bits(a - b))
	case opMul:
		return api.F64Value(math.Float64bits(a * b))
	case opDiv:
		return api.F64Value(math.Float64bits(a / b))
	case opMin:
		return api.F64Value(math.Float64bits(moremath.WasmCompatMin(a, b)))
	case opMax:
		return api.F64Value(math.Float64bits(moremath.WasmCompatMax(a, b)))
	case opCopysign:
		return api.F64Value(math.Float64bits(math.Copysign(a, b)))
	case opEq:
		return boolValue(a == b)
	case opNe:
		return boolValue(a != b)
	case opLt:
		return boolValue(a < b)
	case opGt:
		return boolValue(a > b)
	case opLe:
		return boolValue(a <= b)
	case opGe:
		return boolValue(a >= b)
	}
	panic("unreachable f64 binop")
}

func boolValue(b bool) api.Value {
	if b {
		return api.I32Value(1)
	}
	return api.I32Value(0)
}

// wasmOp is the internal, type-generic operator tag i32BinOp/i64BinOp/
// f32BinOp/f64BinOp switch on, decoupling the shared arithmetic bodies
// from wasm.Opcode's per-width instruction identity.
type wasmOp byte

const (
	opAdd wasmOp = iota
	opSub
	opMul
	opDivS
	opDivU
	opDiv // float division
	opRemS
	opRemU
	opAnd
	opOr
	opXor
	opShl
	opShrS
	opShrU
	opRotl
	opRotr
	opEq
	opNe
	opLtS
	opLtU
	opLt // float
	opGtS
	opGtU
	opGt // float
	opLeS
	opLeU
	opLe // float
	opGeS
	opGeU
	opGe // float
	opMin
	opMax
	opCopysign
)

// truncToI32S converts f to a signed 32-bit integer per the i32.trunc_f32_s
// / i32.trunc_f64_s rules: trap on NaN or out-of-range (section 4.2
// "truncations trap on NaN/±Inf/out-of-range").
func truncToI32S(f float64) int32 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	t := math.Trunc(f)
	if t < math.MinInt32 || t >= math.MaxInt32+1 {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	return int32(t)
}

func truncToI32U(f float64) int32 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	t := math.Trunc(f)
	if t < 0 || t >= math.MaxUint32+1 {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	return int32(uint32(t))
}

func truncToI64S(f float64) int64 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	return int64(t)
}

func truncToI64U(f float64) int64 {
	if math.IsNaN(f) {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	t := math.Trunc(f)
	if t < 0 || t >= math.MaxUint64 {
		panic(wasmruntime.ErrIntegerOverflow)
	}
	return int64(uint64(t))
}
