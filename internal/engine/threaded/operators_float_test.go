package threaded

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func runFloatOp(t *testing.T, sp SlotStack, ins Instr) RegisterCache {
	t.Helper()
	_, regs, tr := runOp(t, sp, ins)
	require.False(t, tr.IsTrap())
	return regs
}

func TestF32ArithmeticRoundTrip(t *testing.T) {
	sp := SlotStack{uint64(math.Float32bits(1.5)), uint64(math.Float32bits(2.5)), 0}
	regs := runFloatOp(t, sp, Instr{Op: F32Add, SlotA: 0, SlotB: 8})
	require.Equal(t, float32(4), math.Float32frombits(uint32(regs.FP0)))
}

func TestF64MinMaxWasmCompatWithNaN(t *testing.T) {
	sp := SlotStack{math.Float64bits(math.NaN()), math.Float64bits(1), 0}
	regs := runFloatOp(t, sp, Instr{Op: F64Min, SlotA: 0, SlotB: 8})
	require.True(t, math.IsNaN(math.Float64frombits(regs.FP0)))

	regs = runFloatOp(t, sp, Instr{Op: F64Max, SlotA: 0, SlotB: 8})
	require.True(t, math.IsNaN(math.Float64frombits(regs.FP0)))
}

func TestF64MinMaxSignedZero(t *testing.T) {
	sp := SlotStack{math.Float64bits(0), math.Float64bits(math.Copysign(0, -1)), 0}
	regs := runFloatOp(t, sp, Instr{Op: F64Min, SlotA: 0, SlotB: 8})
	got := math.Float64frombits(regs.FP0)
	require.Equal(t, true, math.Signbit(got)) // min(+0,-0) is -0 per wasm rules

	regs = runFloatOp(t, sp, Instr{Op: F64Max, SlotA: 0, SlotB: 8})
	got = math.Float64frombits(regs.FP0)
	require.Equal(t, false, math.Signbit(got)) // max(+0,-0) is +0 per wasm rules
}

func TestF32NearestTiesToEven(t *testing.T) {
	sp := SlotStack{uint64(math.Float32bits(2.5)), 0}
	regs := runFloatOp(t, sp, Instr{Op: F32Nearest, SlotA: 0})
	require.Equal(t, float32(2), math.Float32frombits(uint32(regs.FP0)))
}

func TestF64ComparisonWithNaNIsAlwaysFalseExceptNe(t *testing.T) {
	sp := SlotStack{math.Float64bits(math.NaN()), math.Float64bits(1), 0}
	regs1 := runFloatOp(t, sp, Instr{Op: F64Eq, SlotA: 0, SlotB: 8})
	require.Equal(t, uint64(0), regs1.R0)

	regs2 := runFloatOp(t, sp, Instr{Op: F64Ne, SlotA: 0, SlotB: 8})
	require.Equal(t, uint64(1), regs2.R0)
}

func TestF32CopysignAndAbs(t *testing.T) {
	sp := SlotStack{uint64(math.Float32bits(3)), uint64(math.Float32bits(-1)), 0}
	regs := runFloatOp(t, sp, Instr{Op: F32Copysign, SlotA: 0, SlotB: 8})
	require.Equal(t, float32(-3), math.Float32frombits(uint32(regs.FP0)))

	regs = runFloatOp(t, sp, Instr{Op: F32Abs, SlotA: 8})
	require.Equal(t, float32(1), math.Float32frombits(uint32(regs.FP0)))
}

func TestF64SqrtOfNegativeIsNaN(t *testing.T) {
	sp := SlotStack{math.Float64bits(-4), 0}
	regs := runFloatOp(t, sp, Instr{Op: F64Sqrt, SlotA: 0})
	require.True(t, math.IsNaN(math.Float64frombits(regs.FP0)))
}
