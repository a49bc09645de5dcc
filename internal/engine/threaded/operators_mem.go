package threaded

import "github.com/threadcore/wazerotc/internal/trap"

// Memory operators. Every load/store computes its effective address as
// instr.U32 (the static offset immediate) plus the dynamic address operand
// from SlotA, matching the memarg.offset + operand encoding WebAssembly
// itself uses. Every load deposits its result in the accumulator of the
// loaded type (r0 for integer, fp0 for floating); only the address operand
// is slot-addressed.

// effectiveAddr widens both halves before summing: the two u32s can add to
// just past the 32-bit space, and a wrapped sum would alias back into valid
// memory instead of failing the bounds check.
func effectiveAddr(f *Frame, ins *Instr) uint64 {
	return uint64(ins.U32) + uint64(f.slotU32(ins.SlotA))
}

func I32Load(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint32Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

func I32Load8S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadByte(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(uint32(int32(int8(v))))
	return f.nextOp()
}

func I32Load8U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadByte(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

func I32Load16S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint16Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(uint32(int32(int16(v))))
	return f.nextOp()
}

func I32Load16U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint16Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

func I64Load(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint64Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = v
	return f.nextOp()
}

func I64Load8S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadByte(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(int64(int8(v)))
	return f.nextOp()
}

func I64Load8U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadByte(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

func I64Load16S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint16Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(int64(int16(v)))
	return f.nextOp()
}

func I64Load16U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint16Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

func I64Load32S(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint32Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(int64(int32(v)))
	return f.nextOp()
}

func I64Load32U(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint32Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.R0 = uint64(v)
	return f.nextOp()
}

func F32Load(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint32Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.FP0 = uint64(v)
	return f.nextOp()
}

func F64Load(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	v, ok := f.Mem.inst.ReadUint64Le(effectiveAddr(f, ins))
	if !ok {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	f.Regs.FP0 = v
	return f.nextOp()
}

// --- Stores: SlotA is the address operand, SlotB the value to store ---

func I32Store(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteUint32Le(effectiveAddr(f, ins), f.slotU32(ins.SlotB)) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func I32Store8(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteByte(effectiveAddr(f, ins), byte(f.slotU32(ins.SlotB))) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func I32Store16(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteUint16Le(effectiveAddr(f, ins), uint16(f.slotU32(ins.SlotB))) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func I64Store(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteUint64Le(effectiveAddr(f, ins), f.slotU64(ins.SlotB)) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func I64Store8(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteByte(effectiveAddr(f, ins), byte(f.slotU64(ins.SlotB))) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func I64Store16(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteUint16Le(effectiveAddr(f, ins), uint16(f.slotU64(ins.SlotB))) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func I64Store32(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteUint32Le(effectiveAddr(f, ins), uint32(f.slotU64(ins.SlotB))) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func F32Store(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteUint32Le(effectiveAddr(f, ins), f.slotU32(ins.SlotB)) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func F64Store(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !f.Mem.inst.WriteUint64Le(effectiveAddr(f, ins), f.slotU64(ins.SlotB)) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

// --- Memory management ---
//
// MemorySize and MemoryGrow deposit their result in r0 like every other
// integer-valued operator.

func MemorySize(f *Frame) (Operation, trap.Trap) {
	f.Regs.R0 = uint64(f.Mem.inst.PageCount())
	return f.nextOp()
}

func MemoryGrow(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	prev := f.Mem.inst.Grow(f.slotU32(ins.SlotA))
	f.Mem = f.Mem.Refresh()
	f.Regs.R0 = uint64(prev)
	return f.nextOp()
}

func MemoryCopy(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	dst := f.slotU32(ins.Dst)
	src := f.slotU32(ins.SlotA)
	n := f.slotU32(ins.SlotB)
	if !f.Mem.inst.Copy(dst, src, n) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}

func MemoryFill(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	offset := f.slotU32(ins.Dst)
	value := byte(f.slotU32(ins.SlotA))
	n := f.slotU32(ins.SlotB)
	if !f.Mem.inst.Fill(offset, value, n) {
		return nil, trap.New(trap.CodeOutOfBoundsMemoryAccess)
	}
	return f.nextOp()
}
