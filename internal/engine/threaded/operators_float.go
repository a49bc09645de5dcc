package threaded

import (
	"math"

	"github.com/threadcore/wazerotc/internal/moremath"
	"github.com/threadcore/wazerotc/internal/trap"
)

// Floating-point arithmetic and comparison operators. Results land in the
// fp0 accumulator for float-typed results and the r0 accumulator for
// comparisons, never in an arbitrary destination slot. Min, max, and
// nearest are wired to internal/moremath rather than math.Min/math.Max/
// math.RoundToEven directly, since WebAssembly's NaN and signed-zero rules
// for these three operations differ from plain IEEE 754.

func F32Add(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(f.slotF32(ins.SlotA) + f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Sub(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(f.slotF32(ins.SlotA) - f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Mul(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(f.slotF32(ins.SlotA) * f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Div(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(f.slotF32(ins.SlotA) / f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Min(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := float32(moremath.WasmCompatMin(float64(f.slotF32(ins.SlotA)), float64(f.slotF32(ins.SlotB))))
	f.Regs.FP0 = uint64(math.Float32bits(v))
	return f.nextOp()
}

func F32Max(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := float32(moremath.WasmCompatMax(float64(f.slotF32(ins.SlotA)), float64(f.slotF32(ins.SlotB))))
	f.Regs.FP0 = uint64(math.Float32bits(v))
	return f.nextOp()
}

func F32Copysign(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := float32(math.Copysign(float64(f.slotF32(ins.SlotA)), float64(f.slotF32(ins.SlotB))))
	f.Regs.FP0 = uint64(math.Float32bits(v))
	return f.nextOp()
}

func F32Abs(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(math.Abs(float64(f.slotF32(ins.SlotA))))))
	return f.nextOp()
}

func F32Neg(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(-f.slotF32(ins.SlotA)))
	return f.nextOp()
}

func F32Ceil(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(math.Ceil(float64(f.slotF32(ins.SlotA))))))
	return f.nextOp()
}

func F32Floor(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(math.Floor(float64(f.slotF32(ins.SlotA))))))
	return f.nextOp()
}

func F32Trunc(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(math.Trunc(float64(f.slotF32(ins.SlotA))))))
	return f.nextOp()
}

func F32Nearest(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(moremath.WasmCompatNearestF32(f.slotF32(ins.SlotA))))
	return f.nextOp()
}

func F32Sqrt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(math.Sqrt(float64(f.slotF32(ins.SlotA))))))
	return f.nextOp()
}

func F32Eq(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF32(ins.SlotA) == f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Ne(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF32(ins.SlotA) != f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Lt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF32(ins.SlotA) < f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Gt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF32(ins.SlotA) > f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Le(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF32(ins.SlotA) <= f.slotF32(ins.SlotB)))
	return f.nextOp()
}

func F32Ge(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF32(ins.SlotA) >= f.slotF32(ins.SlotB)))
	return f.nextOp()
}

// --- 64-bit float ---

func F64Add(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(f.slotF64(ins.SlotA) + f.slotF64(ins.SlotB))
	return f.nextOp()
}

func F64Sub(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(f.slotF64(ins.SlotA) - f.slotF64(ins.SlotB))
	return f.nextOp()
}

func F64Mul(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(f.slotF64(ins.SlotA) * f.slotF64(ins.SlotB))
	return f.nextOp()
}

func F64Div(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(f.slotF64(ins.SlotA) / f.slotF64(ins.SlotB))
	return f.nextOp()
}

func F64Min(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(moremath.WasmCompatMin(f.slotF64(ins.SlotA), f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Max(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(moremath.WasmCompatMax(f.slotF64(ins.SlotA), f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Copysign(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(math.Copysign(f.slotF64(ins.SlotA), f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Abs(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(math.Abs(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func F64Neg(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(-f.slotF64(ins.SlotA))
	return f.nextOp()
}

func F64Ceil(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(math.Ceil(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func F64Floor(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(math.Floor(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func F64Trunc(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(math.Trunc(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func F64Nearest(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(moremath.WasmCompatNearestF64(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func F64Sqrt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(math.Sqrt(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func F64Eq(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF64(ins.SlotA) == f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Ne(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF64(ins.SlotA) != f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Lt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF64(ins.SlotA) < f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Gt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF64(ins.SlotA) > f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Le(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF64(ins.SlotA) <= f.slotF64(ins.SlotB)))
	return f.nextOp()
}

func F64Ge(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotF64(ins.SlotA) >= f.slotF64(ins.SlotB)))
	return f.nextOp()
}
