// Package moremath provides float semantics that deviate from math's, in
// the ways WebAssembly's numeric operators require.
package moremath

import "math"

// WasmCompatMin is math.Min adjusted to the Wasm spec. math.Min doesn't
// comply with it, so we borrow from the original with a change that either
// one of NaN results in NaN even if another is -Inf.
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

// WasmCompatMax is math.Max adjusted to the Wasm spec. math.Max doesn't
// comply with it, so we borrow from the original with a change that either
// one of NaN results in NaN even if another is Inf.
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

// WasmCompatNearestF32 implements the "nearest" rounding mode wasm's
// f32.nearest requires: round to the nearest integer, ties to even. This is
// math.RoundToEven for the common case, but RoundToEven returns float64
// precision artifacts when round-tripped through float32, so round in
// float64 and convert once.
func WasmCompatNearestF32(f float32) float32 {
	if f == 0 || math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return f
	}
	return float32(math.RoundToEven(float64(f)))
}

// WasmCompatNearestF64 implements f64.nearest: round to the nearest
// integer, ties to even.
func WasmCompatNearestF64(f float64) float64 {
	if f == 0 || math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	return math.RoundToEven(f)
}
