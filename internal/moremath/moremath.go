// Package moremath holds float min/max helpers whose NaN and signed-zero
// behavior matches the Wasm spec rather than Go's math package.
package moremath

import "math"

// WasmCompatMin is float min per the Wasm numeric rules: either operand
// NaN yields NaN even when the other is -Inf, which math.Min alone
// doesn't guarantee. Adapted from
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L74-L91
func WasmCompatMin(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, -1) || math.IsInf(y, -1):
		return math.Inf(-1)
	case x == 0 && x == y:
		if math.Signbit(x) {
			return x
		}
		return y
	}
	if x < y {
		return x
	}
	return y
}

// WasmCompatMax is float max per the Wasm numeric rules: either operand
// NaN yields NaN even when the other is +Inf. Adapted from
// https://github.com/golang/go/blob/1d20a362d0ca4898d77865e314ef6f73582daef0/src/math/dim.go#L42-L59
func WasmCompatMax(x, y float64) float64 {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return math.NaN()
	case math.IsInf(x, 1) || math.IsInf(y, 1):
		return math.Inf(1)

	case x == 0 && x == y:
		if math.Signbit(x) {
			return y
		}
		return x
	}
	if x > y {
		return x
	}
	return y
}

// WasmCompatMinF32 is WasmCompatMin at float32 precision, for the f32.min
// instruction (section 4.2: "float min/max NaN/±0 rules").
func WasmCompatMinF32(x, y float32) float32 {
	return float32(WasmCompatMin(float64(x), float64(y)))
}

// WasmCompatMaxF32 is WasmCompatMax at float32 precision, for the f32.max
// instruction.
func WasmCompatMaxF32(x, y float32) float32 {
	return float32(WasmCompatMax(float64(x), float64(y)))
}
