package interpreter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/pulseengine/wrt/internal/wasmruntime"
)

func requireTrap(t *testing.T, kind *wasmruntime.TrapError, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a trap panic")
		trap, ok := r.(*wasmruntime.TrapError)
		require.True(t, ok, "expected *wasmruntime.TrapError, got %T", r)
		require.Equal(t, kind.Kind, trap.Kind)
	}()
	fn()
}

func TestI32BinOp_DivisionByZero(t *testing.T) {
	requireTrap(t, wasmruntime.ErrDivisionByZero, func() {
		i32BinOp(opDivS, 10, 0)
	})
	requireTrap(t, wasmruntime.ErrDivisionByZero, func() {
		i32BinOp(opDivU, 10, 0)
	})
}

func TestI32BinOp_MinOverflowTraps(t *testing.T) {
	requireTrap(t, wasmruntime.ErrIntegerOverflow, func() {
		i32BinOp(opDivS, math.MinInt32, -1)
	})
}

func TestI32BinOp_MinRemByMinusOneIsZero(t *testing.T) {
	v := i32BinOp(opRemS, math.MinInt32, -1)
	require.Equal(t, int32(0), v.I32())
}

func TestI64BinOp_MinOverflowTraps(t *testing.T) {
	requireTrap(t, wasmruntime.ErrIntegerOverflow, func() {
		i64BinOp(opDivS, math.MinInt64, -1)
	})
}

func TestI32BinOp_ShiftAmountMasksToWidth(t *testing.T) {
	// Shifting by 33 must behave identically to shifting by 1 (33 & 31 == 1).
	v := i32BinOp(opShl, 1, 33)
	require.Equal(t, int32(2), v.I32())
}

func TestI64BinOp_ShiftAmountMasksToWidth(t *testing.T) {
	// Shifting by 65 must behave identically to shifting by 1 (65 & 63 == 1).
	v := i64BinOp(opShl, 1, 65)
	require.Equal(t, int64(2), v.I64())
}

func TestI32BinOp_RotateRoundTrips(t *testing.T) {
	v := i32BinOp(opRotl, 1, 31)
	require.Equal(t, int32(math.MinInt32), v.I32())
	back := i32BinOp(opRotr, v.I32(), 31)
	require.Equal(t, int32(1), back.I32())
}

func TestF32BinOp_MinMaxNaNPropagates(t *testing.T) {
	nan := float32(math.NaN())
	v := f32BinOp(opMin, nan, 1.0)
	require.True(t, math.IsNaN(float64(math.Float32frombits(v.F32Bits()))))
}

func TestF64BinOp_MinNegativeZeroVsPositiveZero(t *testing.T) {
	negZero := math.Copysign(0, -1)
	posZero := float64(0)
	v := f64BinOp(opMin, negZero, posZero)
	got := math.Float64frombits(v.F64Bits())
	require.True(t, math.Signbit(got), "min(-0, +0) must be -0")
}

func TestTruncToI32S_NaNTraps(t *testing.T) {
	requireTrap(t, wasmruntime.ErrIntegerOverflow, func() {
		truncToI32S(math.NaN())
	})
}

func TestTruncToI32S_OutOfRangeTraps(t *testing.T) {
	requireTrap(t, wasmruntime.ErrIntegerOverflow, func() {
		truncToI32S(math.MaxInt32 + 1.0)
	})
}

func TestTruncToI32S_InRangeValue(t *testing.T) {
	require.Equal(t, int32(42), truncToI32S(42.9))
	require.Equal(t, int32(-42), truncToI32S(-42.9))
}

func TestTruncToI64U_NegativeTraps(t *testing.T) {
	requireTrap(t, wasmruntime.ErrIntegerOverflow, func() {
		truncToI64U(-1.0)
	})
}

func TestBoolValue(t *testing.T) {
	require.Equal(t, int32(1), boolValue(true).I32())
	require.Equal(t, int32(0), boolValue(false).I32())
}
