package threaded

import (
	"math/bits"

	"github.com/threadcore/wazerotc/internal/trap"
)

// Integer arithmetic and comparison operators. The _SS/_SR/_RS suffix
// names the operand placement only (both operands in slots, the left in a
// slot and the right in the r0 accumulator, or vice versa); the result
// always lands in r0, never in an arbitrary destination slot. I32Add,
// I32Sub, I32Mul, and I64Add get the full _SR/_RS/_SS treatment; the
// remaining operators are deliberately slot-operand-only — they still
// target the accumulator, they just don't get register-operand variants,
// since that's the same three-line pattern proven once for add/sub/mul and
// adds nothing new to verify per operator.

// I32AddSS is the fully slot-addressed form of I32Add.
func I32AddSS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) + f.slotI32(ins.SlotB)))
	return f.nextOp()
}

// I32AddSR reads its left operand from a slot and its right operand from
// the r0 accumulator.
func I32AddSR(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) + int32(uint32(f.Regs.R0))))
	return f.nextOp()
}

// I32AddRS is I32AddSR with the operands swapped.
func I32AddRS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(int32(uint32(f.Regs.R0)) + f.slotI32(ins.SlotA)))
	return f.nextOp()
}

func I32SubSS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) - f.slotI32(ins.SlotB)))
	return f.nextOp()
}

func I32SubSR(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) - int32(uint32(f.Regs.R0))))
	return f.nextOp()
}

func I32SubRS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(int32(uint32(f.Regs.R0)) - f.slotI32(ins.SlotA)))
	return f.nextOp()
}

func I32MulSS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) * f.slotI32(ins.SlotB)))
	return f.nextOp()
}

func I32MulSR(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) * int32(uint32(f.Regs.R0))))
	return f.nextOp()
}

func I32MulRS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(int32(uint32(f.Regs.R0)) * f.slotI32(ins.SlotA)))
	return f.nextOp()
}

func I64AddSS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotI64(ins.SlotA) + f.slotI64(ins.SlotB))
	return f.nextOp()
}

func I64AddSR(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotI64(ins.SlotA) + int64(f.Regs.R0))
	return f.nextOp()
}

func I64AddRS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(int64(f.Regs.R0) + f.slotI64(ins.SlotA))
	return f.nextOp()
}

// --- slot-operand-only operators (result still targets r0) ---

func I32Sub(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) - f.slotI32(ins.SlotB)))
	return f.nextOp()
}

func I32DivS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotI32(ins.SlotA), f.slotI32(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	if a == -1<<31 && b == -1 {
		return nil, trap.New(trap.CodeIntegerOverflow)
	}
	f.Regs.R0 = uint64(uint32(a / b))
	return f.nextOp()
}

func I32DivU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotU32(ins.SlotA), f.slotU32(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	f.Regs.R0 = uint64(a / b)
	return f.nextOp()
}

func I32RemS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotI32(ins.SlotA), f.slotI32(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	if a == -1<<31 && b == -1 {
		f.Regs.R0 = 0
		return f.nextOp()
	}
	f.Regs.R0 = uint64(uint32(a % b))
	return f.nextOp()
}

func I32RemU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotU32(ins.SlotA), f.slotU32(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	f.Regs.R0 = uint64(a % b)
	return f.nextOp()
}

func I32And(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotU32(ins.SlotA) & f.slotU32(ins.SlotB))
	return f.nextOp()
}

func I32Or(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotU32(ins.SlotA) | f.slotU32(ins.SlotB))
	return f.nextOp()
}

func I32Xor(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotU32(ins.SlotA) ^ f.slotU32(ins.SlotB))
	return f.nextOp()
}

func I32Shl(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotU32(ins.SlotA) << (f.slotU32(ins.SlotB) & 31))
	return f.nextOp()
}

func I32ShrS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(uint32(f.slotI32(ins.SlotA) >> (f.slotU32(ins.SlotB) & 31)))
	return f.nextOp()
}

func I32ShrU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotU32(ins.SlotA) >> (f.slotU32(ins.SlotB) & 31))
	return f.nextOp()
}

func I32Rotl(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.RotateLeft32(f.slotU32(ins.SlotA), int(f.slotU32(ins.SlotB)&31)))
	return f.nextOp()
}

func I32Rotr(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.RotateLeft32(f.slotU32(ins.SlotA), -int(f.slotU32(ins.SlotB)&31)))
	return f.nextOp()
}

func I32Clz(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.LeadingZeros32(f.slotU32(ins.SlotA)))
	return f.nextOp()
}

func I32Ctz(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.TrailingZeros32(f.slotU32(ins.SlotA)))
	return f.nextOp()
}

func I32Popcnt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.OnesCount32(f.slotU32(ins.SlotA)))
	return f.nextOp()
}

func I32Eqz(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU32(ins.SlotA) == 0))
	return f.nextOp()
}

func I32Eq(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU32(ins.SlotA) == f.slotU32(ins.SlotB)))
	return f.nextOp()
}

func I32Ne(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU32(ins.SlotA) != f.slotU32(ins.SlotB)))
	return f.nextOp()
}

func I32LtS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI32(ins.SlotA) < f.slotI32(ins.SlotB)))
	return f.nextOp()
}

func I32LtU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU32(ins.SlotA) < f.slotU32(ins.SlotB)))
	return f.nextOp()
}

func I32GtS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI32(ins.SlotA) > f.slotI32(ins.SlotB)))
	return f.nextOp()
}

func I32GtU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU32(ins.SlotA) > f.slotU32(ins.SlotB)))
	return f.nextOp()
}

func I32LeS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI32(ins.SlotA) <= f.slotI32(ins.SlotB)))
	return f.nextOp()
}

func I32LeU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU32(ins.SlotA) <= f.slotU32(ins.SlotB)))
	return f.nextOp()
}

func I32GeS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI32(ins.SlotA) >= f.slotI32(ins.SlotB)))
	return f.nextOp()
}

func I32GeU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU32(ins.SlotA) >= f.slotU32(ins.SlotB)))
	return f.nextOp()
}

// --- 64-bit ---

func I64Sub(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotI64(ins.SlotA) - f.slotI64(ins.SlotB))
	return f.nextOp()
}

func I64Mul(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotI64(ins.SlotA) * f.slotI64(ins.SlotB))
	return f.nextOp()
}

func I64DivS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotI64(ins.SlotA), f.slotI64(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	if a == -1<<63 && b == -1 {
		return nil, trap.New(trap.CodeIntegerOverflow)
	}
	f.Regs.R0 = uint64(a / b)
	return f.nextOp()
}

func I64DivU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotU64(ins.SlotA), f.slotU64(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	f.Regs.R0 = a / b
	return f.nextOp()
}

func I64RemS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotI64(ins.SlotA), f.slotI64(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	if a == -1<<63 && b == -1 {
		f.Regs.R0 = 0
		return f.nextOp()
	}
	f.Regs.R0 = uint64(a % b)
	return f.nextOp()
}

func I64RemU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	a, b := f.slotU64(ins.SlotA), f.slotU64(ins.SlotB)
	if b == 0 {
		return nil, trap.New(trap.CodeIntegerDivideByZero)
	}
	f.Regs.R0 = a % b
	return f.nextOp()
}

func I64And(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = f.slotU64(ins.SlotA) & f.slotU64(ins.SlotB)
	return f.nextOp()
}

func I64Or(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = f.slotU64(ins.SlotA) | f.slotU64(ins.SlotB)
	return f.nextOp()
}

func I64Xor(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = f.slotU64(ins.SlotA) ^ f.slotU64(ins.SlotB)
	return f.nextOp()
}

func I64Shl(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = f.slotU64(ins.SlotA) << (f.slotU64(ins.SlotB) & 63)
	return f.nextOp()
}

func I64ShrS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(f.slotI64(ins.SlotA) >> (f.slotU64(ins.SlotB) & 63))
	return f.nextOp()
}

func I64ShrU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = f.slotU64(ins.SlotA) >> (f.slotU64(ins.SlotB) & 63)
	return f.nextOp()
}

func I64Rotl(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = bits.RotateLeft64(f.slotU64(ins.SlotA), int(f.slotU64(ins.SlotB)&63))
	return f.nextOp()
}

func I64Rotr(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = bits.RotateLeft64(f.slotU64(ins.SlotA), -int(f.slotU64(ins.SlotB)&63))
	return f.nextOp()
}

func I64Clz(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.LeadingZeros64(f.slotU64(ins.SlotA)))
	return f.nextOp()
}

func I64Ctz(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.TrailingZeros64(f.slotU64(ins.SlotA)))
	return f.nextOp()
}

func I64Popcnt(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(bits.OnesCount64(f.slotU64(ins.SlotA)))
	return f.nextOp()
}

func I64Eqz(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU64(ins.SlotA) == 0))
	return f.nextOp()
}

func I64Eq(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU64(ins.SlotA) == f.slotU64(ins.SlotB)))
	return f.nextOp()
}

func I64Ne(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU64(ins.SlotA) != f.slotU64(ins.SlotB)))
	return f.nextOp()
}

func I64LtS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI64(ins.SlotA) < f.slotI64(ins.SlotB)))
	return f.nextOp()
}

func I64LtU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU64(ins.SlotA) < f.slotU64(ins.SlotB)))
	return f.nextOp()
}

func I64GtS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI64(ins.SlotA) > f.slotI64(ins.SlotB)))
	return f.nextOp()
}

func I64GtU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU64(ins.SlotA) > f.slotU64(ins.SlotB)))
	return f.nextOp()
}

func I64LeS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI64(ins.SlotA) <= f.slotI64(ins.SlotB)))
	return f.nextOp()
}

func I64LeU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU64(ins.SlotA) <= f.slotU64(ins.SlotB)))
	return f.nextOp()
}

func I64GeS(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotI64(ins.SlotA) >= f.slotI64(ins.SlotB)))
	return f.nextOp()
}

func I64GeU(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.Regs.R0 = uint64(b2u32(f.slotU64(ins.SlotA) >= f.slotU64(ins.SlotB)))
	return f.nextOp()
}

func b2u32(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}
