package threaded

import (
	"math"

	"github.com/threadcore/wazerotc/internal/trap"
)

// Conversion operators: wrap, sign/zero extension,
// promote/demote, reinterpret, and the trapping and saturating float-to-int
// truncations.
//
// Wrap, Extend, Demote, Promote, Convert, Reinterpret, and the trapping
// truncations read their one operand from a slot and always deposit the
// result in the accumulator of the destination type (r0 for integer, fp0
// for floating); none of them writes a result into an arbitrary
// destination slot.
//
// The saturating-truncation family additionally gets the full
// _RR/_RS/_SR/_SS addressing quad for I32TruncSatF64S: the non-trapping
// saturating conversions are exactly the ones a compiler is most likely to
// keep fully in registers across a chain of conversions, so collapsing
// them to slot-only would throw away the one case that matters. The suffix
// order is (DEST, SRC): _RS means dest=r0/src=slot and _SR means
// dest=slot/src=r0.

func I32WrapI64(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(int32(f.slotI64(ins.SlotA))))
	return f.nextOp()
}

func I64ExtendI32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(int64(f.slotI32(ins.SlotA)))
	return f.nextOp()
}

func I64ExtendI32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotU32(ins.SlotA))
	return f.nextOp()
}

func I32Extend8S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(int32(int8(f.slotI32(ins.SlotA)))))
	return f.nextOp()
}

func I32Extend16S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(int32(int16(f.slotI32(ins.SlotA)))))
	return f.nextOp()
}

func I64Extend8S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(int64(int8(f.slotI64(ins.SlotA))))
	return f.nextOp()
}

func I64Extend16S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(int64(int16(f.slotI64(ins.SlotA))))
	return f.nextOp()
}

func I64Extend32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(int64(int32(f.slotI64(ins.SlotA))))
	return f.nextOp()
}

func F32DemoteF64(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(f.slotF64(ins.SlotA))))
	return f.nextOp()
}

func F64PromoteF32(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(float64(f.slotF32(ins.SlotA)))
	return f.nextOp()
}

func F32ConvertI32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(f.slotI32(ins.SlotA))))
	return f.nextOp()
}

func F32ConvertI32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(f.slotU32(ins.SlotA))))
	return f.nextOp()
}

func F32ConvertI64S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(f.slotI64(ins.SlotA))))
	return f.nextOp()
}

func F32ConvertI64U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(math.Float32bits(float32(f.slotU64(ins.SlotA))))
	return f.nextOp()
}

func F64ConvertI32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(float64(f.slotI32(ins.SlotA)))
	return f.nextOp()
}

func F64ConvertI32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(float64(f.slotU32(ins.SlotA)))
	return f.nextOp()
}

func F64ConvertI64S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(float64(f.slotI64(ins.SlotA)))
	return f.nextOp()
}

func F64ConvertI64U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = math.Float64bits(float64(f.slotU64(ins.SlotA)))
	return f.nextOp()
}

func I32ReinterpretF32(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(math.Float32bits(f.slotF32(ins.SlotA)))
	return f.nextOp()
}

func F32ReinterpretI32(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = uint64(f.slotU32(ins.SlotA))
	return f.nextOp()
}

func I64ReinterpretF64(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = math.Float64bits(f.slotF64(ins.SlotA))
	return f.nextOp()
}

func F64ReinterpretI64(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.FP0 = f.slotU64(ins.SlotA)
	return f.nextOp()
}

// --- Trapping truncation (i32/i64 .trunc_f32/f64 _s/_u) ---

func truncTrap(v float64) trap.Trap {
	if math.IsNaN(v) {
		return trap.New(trap.CodeInvalidConversionToInteger)
	}
	return trap.New(trap.CodeIntegerOverflow)
}

func I32TruncF32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := float64(f.slotF32(ins.SlotA))
	if math.IsNaN(v) || v < -2147483648 || v >= 2147483648 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(uint32(int32(v)))
	return f.nextOp()
}

func I32TruncF32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := float64(f.slotF32(ins.SlotA))
	if math.IsNaN(v) || v <= -1 || v >= 4294967296 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(uint32(v))
	return f.nextOp()
}

func I32TruncF64S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := f.slotF64(ins.SlotA)
	if math.IsNaN(v) || v < -2147483649 || v >= 2147483648 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(uint32(int32(v)))
	return f.nextOp()
}

func I32TruncF64U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := f.slotF64(ins.SlotA)
	if math.IsNaN(v) || v <= -1 || v >= 4294967296 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(uint32(v))
	return f.nextOp()
}

func I64TruncF32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := float64(f.slotF32(ins.SlotA))
	if math.IsNaN(v) || v < -9223372036854775808 || v >= 9223372036854775808 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(int64(v))
	return f.nextOp()
}

func I64TruncF32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := float64(f.slotF32(ins.SlotA))
	if math.IsNaN(v) || v <= -1 || v >= 18446744073709551616 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

func I64TruncF64S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := f.slotF64(ins.SlotA)
	if math.IsNaN(v) || v < -9223372036854775808 || v >= 9223372036854775808 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(int64(v))
	return f.nextOp()
}

func I64TruncF64U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v := f.slotF64(ins.SlotA)
	if math.IsNaN(v) || v <= -1 || v >= 18446744073709551616 {
		return nil, truncTrap(v)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

// --- Saturating truncation (the *_r_r/_r_s/_s_r/_s_s family) ---
//
// The first suffix letter addresses the destination (r0 or a slot), the
// second the source (fp0 or a slot). Unlike the trapping family,
// out-of-range and NaN inputs saturate rather than trap, so every variant
// is a pure function of its source float with no Trap path — exactly the
// shape the register cache is built to keep hot end to end.

func satI32S(v float64) int32 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < -2147483648:
		return math.MinInt32
	case v >= 2147483648:
		return math.MaxInt32
	default:
		return int32(v)
	}
}

func satI32U(v float64) uint32 {
	switch {
	case math.IsNaN(v) || v <= -1:
		return 0
	case v >= 4294967296:
		return math.MaxUint32
	default:
		return uint32(v)
	}
}

func satI64S(v float64) int64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < -9223372036854775808:
		return math.MinInt64
	case v >= 9223372036854775808:
		return math.MaxInt64
	default:
		return int64(v)
	}
}

func satI64U(v float64) uint64 {
	switch {
	case math.IsNaN(v) || v <= -1:
		return 0
	case v >= 18446744073709551616:
		return math.MaxUint64
	default:
		return uint64(v)
	}
}

// I32TruncSatF64S_RR: dest=r0, src=fp0 (both register).
func I32TruncSatF64S_RR(f *Frame) (Operation, trap.Trap) {
	f.Regs.R0 = uint64(uint32(satI32S(math.Float64frombits(f.Regs.FP0))))
	return f.nextOp()
}

// I32TruncSatF64S_RS: dest=r0 (register), src=a slot.
func I32TruncSatF64S_RS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(satI32S(f.slotF64(ins.SlotA))))
	return f.nextOp()
}

// I32TruncSatF64S_SR: dest=a slot, src=fp0 (register).
func I32TruncSatF64S_SR(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.storeI32(ins.Dst, satI32S(math.Float64frombits(f.Regs.FP0)))
	return f.nextOp()
}

// I32TruncSatF64S_SS: dest and src both addressed via slots.
func I32TruncSatF64S_SS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.storeI32(ins.Dst, satI32S(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func I32TruncSatF64U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(satI32U(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func I32TruncSatF32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(satI32S(float64(f.slotF32(ins.SlotA)))))
	return f.nextOp()
}

func I32TruncSatF32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(satI32U(float64(f.slotF32(ins.SlotA))))
	return f.nextOp()
}

func I64TruncSatF64S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(satI64S(f.slotF64(ins.SlotA)))
	return f.nextOp()
}

func I64TruncSatF64U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = satI64U(f.slotF64(ins.SlotA))
	return f.nextOp()
}

func I64TruncSatF32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(satI64S(float64(f.slotF32(ins.SlotA))))
	return f.nextOp()
}

func I64TruncSatF32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = satI64U(float64(f.slotF32(ins.SlotA)))
	return f.nextOp()
}
