package threaded

import "github.com/threadcore/wazerotc/internal/trap"

// Entry is the first handler dispatched in every function's code stream:
// it enforces the stack-depth bound, zero-fills the local region, installs
// constants, and primes the register cache before falling into the body.
func Entry(f *Frame) (Operation, trap.Trap) {
	fd := f.fn
	if len(f.SP) < fd.MaxStackSlots {
		return nil, trap.New(trap.CodeCallStackExhausted)
	}
	for i := 0; i < fd.LocalSlotCount; i++ {
		f.SP[fd.LocalBase+i] = 0
	}
	for i, c := range fd.Consts {
		f.SP[fd.ConstBase+i] = c
	}
	f.Regs.Clear()
	if f.regCacheEnabled {
		f.Regs.Reload(fd, f.SP)
	}
	return f.nextOp()
}

// Return and End both signal normal function exit: a (nil, zero-Trap) return
// tells Frame.Run to stop, unwinding to whichever Call/CallIndirect/
// CallExported invocation dispatched this frame.
func Return(f *Frame) (Operation, trap.Trap) { return nil, trap.Trap{} }
func End(f *Frame) (Operation, trap.Trap)    { return nil, trap.Trap{} }

// Unreachable implements the `unreachable` instruction.
func Unreachable(f *Frame) (Operation, trap.Trap) {
	return nil, trap.New(trap.CodeUnreachableExecuted)
}

// checkYield invokes Runtime.Yield, if the embedder installed one, and
// converts a non-nil return into a trap exactly like CallRawFunction bridges
// a host error. A nil Yield is a no-op, so
// this costs one nil check on embedders that never configure it.
func (f *Frame) checkYield() trap.Trap {
	if f.rt.Yield == nil {
		return trap.Trap{}
	}
	if err := f.rt.Yield(); err != nil {
		return trap.Host(err)
	}
	return trap.Trap{}
}

// Yield is the cooperative-suspension point as its own code-stream
// instruction: where to place one (a loop back-edge, between calls, or
// nowhere at all) is the compiler's policy decision; Call below performs
// the equivalent check unconditionally, since a call boundary is always a
// valid place to suspend.
func Yield(f *Frame) (Operation, trap.Trap) {
	if tr := f.checkYield(); tr.IsTrap() {
		return nil, tr
	}
	return f.nextOp()
}

// Call implements a direct call: a genuine recursive
// invocation, not a tail-chained dispatch, since it crosses a function
// boundary and must be able to unwind independently of the caller's own
// straight-line code. ins.Func is the callee; ins.SlotA is the byte offset
// (relative to this frame's sp) where the callee's own sp window begins. A
// cooperative yield check runs before the callee is invoked, so a trapping
// Yield callback prevents the call itself from ever starting.
func Call(f *Frame) (Operation, trap.Trap) {
	if tr := f.checkYield(); tr.IsTrap() {
		return nil, tr
	}
	ins := f.instr()
	calleeSP := f.SP[ins.SlotA/slotWidth:]
	tr := f.rt.runFunction(ins.Func, calleeSP, f.engine)
	f.Mem = f.Mem.Refresh()
	if tr.IsTrap() {
		return nil, tr
	}
	if f.regCacheEnabled {
		f.Regs.Reload(f.fn, f.SP)
	}
	return f.nextOp()
}

// CallIndirect implements `call_indirect`:
// table bounds, initialization, and signature are checked, in that order,
// before any callee code runs. A callee reached this way is compiled
// lazily if necessary. Like Call, it performs the cooperative yield check
// before any of those checks, since it is just as much a call boundary.
func CallIndirect(f *Frame) (Operation, trap.Trap) {
	if tr := f.checkYield(); tr.IsTrap() {
		return nil, tr
	}
	ins := f.instr()
	idx := f.slotU32(ins.SlotA)
	if int(idx) >= len(ins.Table.Entries) {
		return nil, trap.New(trap.CodeUndefinedElement)
	}
	entry := ins.Table.Entries[idx]
	if entry == nil || entry.Func == nil {
		return nil, trap.New(trap.CodeUninitializedElement)
	}
	fd := entry.Func
	if fd.Type != ins.Type {
		return nil, trap.New(trap.CodeIndirectCallTypeMismatch)
	}
	if !fd.Compiled() {
		fd.compile()
	}
	calleeSP := f.SP[ins.SlotB/slotWidth:]
	tr := f.rt.runFunction(fd, calleeSP, f.engine)
	f.Mem = f.Mem.Refresh()
	if tr.IsTrap() {
		return nil, tr
	}
	if f.regCacheEnabled {
		f.Regs.Reload(f.fn, f.SP)
	}
	return f.nextOp()
}

// CallRawFunction bridges to a host function. A host-function descriptor's
// entire Code is this one instruction; there is no Entry, since host
// functions have no WebAssembly
// locals to zero-fill. The runtime's shared stack base is repointed at this
// frame's sp for the duration of the call, so the host may recursively
// invoke exported functions against the same slot-stack arena.
func CallRawFunction(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	saved := f.rt.stack
	f.rt.stack = f.SP
	err := ins.Host.Call(f.rt, ins.UserData, f.SP, f.Mem.Bytes())
	f.rt.stack = saved
	f.Mem = f.Mem.Refresh()
	if err != nil {
		return nil, trap.Host(err)
	}
	return nil, trap.Trap{}
}

// Compile is the lazy-compilation thunk: on first dispatch it materializes
// ins.Func.Code, patches its own Instr.Op to Call so every later call
// through this code-stream slot skips straight to Call, and redispatches
// as Call immediately without re-reading the code stream.
func Compile(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if !ins.Func.Compiled() {
		ins.Func.compile()
	}
	ins.Op = Call
	return Call(f)
}

// Loop is dispatched once per loop header entry, and again on every
// back-edge: ContinueLoop jumps to the Loop instruction's own pc rather
// than past it, so each iteration re-refreshes the memory header (the body
// may have grown memory) and re-clears the register cache before falling
// into the body. A forward branch out of the loop is an ordinary Branch to
// an address after the
// construct and never revisits this handler.
func Loop(f *Frame) (Operation, trap.Trap) {
	f.Mem = f.Mem.Refresh()
	f.Regs.Clear()
	return f.nextOp()
}

// ContinueLoop implements the unconditional loop back-edge: jump to the
// enclosing Loop instruction's own pc.
func ContinueLoop(f *Frame) (Operation, trap.Trap) {
	return f.jumpOp(f.instr().Target)
}

// ContinueLoopIf is the conditional back-edge, reading its condition from
// the slot operand SlotA: nonzero continues the loop, zero falls through to
// whatever follows in the body.
func ContinueLoopIf(f *Frame) (Operation, trap.Trap) {
	if f.slotU32(f.instr().SlotA) != 0 {
		return f.jumpOp(f.instr().Target)
	}
	return f.nextOp()
}

// Branch is an unconditional jump to ins.Target.
func Branch(f *Frame) (Operation, trap.Trap) {
	return f.jumpOp(f.instr().Target)
}

// BranchIfSlot jumps to ins.Target when the slot operand SlotA is nonzero,
// otherwise falls through.
func BranchIfSlot(f *Frame) (Operation, trap.Trap) {
	if f.slotU32(f.instr().SlotA) != 0 {
		return f.jumpOp(f.instr().Target)
	}
	return f.nextOp()
}

// BranchIfReg is BranchIfSlot reading its condition from the r0 accumulator
// instead of a backing slot.
func BranchIfReg(f *Frame) (Operation, trap.Trap) {
	if uint32(f.Regs.R0) != 0 {
		return f.jumpOp(f.instr().Target)
	}
	return f.nextOp()
}

// BranchIfPrologueReg and BranchIfPrologueSlot implement the `BranchIfPrologue_*`
// family: the inverse of BranchIfReg/BranchIfSlot.
// A branch target that requires stack adjustment (moving the block's result
// values down to sit right after the discarded operands) can't just jump
// straight there — the adjustment has to run first. So the condition sense
// is flipped: a *true* condition falls through into the instructions
// immediately following, which perform that adjustment and end in an
// unconditional Branch to the real target; a *false* condition jumps
// straight to ins.Target, which is the address right after that adjustment
// preamble, skipping it entirely since the false path never needed the
// shuffle.
func BranchIfPrologueReg(f *Frame) (Operation, trap.Trap) {
	if uint32(f.Regs.R0) != 0 {
		return f.nextOp()
	}
	return f.jumpOp(f.instr().Target)
}

func BranchIfPrologueSlot(f *Frame) (Operation, trap.Trap) {
	if f.slotU32(f.instr().SlotA) != 0 {
		return f.nextOp()
	}
	return f.jumpOp(f.instr().Target)
}

// IfSlot dispatches by falling through when its slot condition is zero, or
// jumps to the else/end address when nonzero. IfReg is the same reading
// the r0 accumulator, the usual case when the condition was just computed
// by a comparison.
func IfSlot(f *Frame) (Operation, trap.Trap) {
	if f.slotU32(f.instr().SlotA) == 0 {
		return f.nextOp()
	}
	return f.jumpOp(f.instr().Target)
}

func IfReg(f *Frame) (Operation, trap.Trap) {
	if uint32(f.Regs.R0) == 0 {
		return f.nextOp()
	}
	return f.jumpOp(f.instr().Target)
}

// BranchTable implements `br_table`: the operand
// selects a direct target by index, clamped to the trailing default target
// when out of range.
func BranchTable(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	n := ins.Targets.Len()
	count := n - 1
	idx := f.slotU32(ins.SlotA)
	if int(idx) >= count {
		idx = uint32(count)
	}
	return f.jumpOp(ins.Targets.At(int(idx)))
}

// Select implements the value-polymorphic `select`: SlotA is the consequent
// operand, SlotB the alternative, and the r0 accumulator (already holding
// the boolean condition per stack discipline) picks between them, leaving
// the result in r0.
func Select(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	if f.Regs.R0 != 0 {
		f.Regs.R0 = f.slotU64(ins.SlotA)
	} else {
		f.Regs.R0 = f.slotU64(ins.SlotB)
	}
	return f.nextOp()
}

// GetGlobal32 and GetGlobal64 implement `global.get`, storing the global
// cell's value to a destination slot.
func GetGlobal32(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.storeU32(ins.Dst, uint32(ins.Global.Value))
	return f.nextOp()
}

func GetGlobal64(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.storeU64(ins.Dst, ins.Global.Value)
	return f.nextOp()
}

// SetGlobal32 and SetGlobal64 implement `global.set`, writing the r0
// accumulator into the global cell.
func SetGlobal32(f *Frame) (Operation, trap.Trap) {
	f.instr().Global.Value = uint64(uint32(f.Regs.R0))
	return f.nextOp()
}

func SetGlobal64(f *Frame) (Operation, trap.Trap) {
	f.instr().Global.Value = f.Regs.R0
	return f.nextOp()
}

// --- Register/slot commit family ---
//
// Every arithmetic, conversion, and load operator deposits its result in
// the accumulator; these four handlers are how a value actually becomes a
// persistent local or a scratch slot a later, non-adjacent instruction
// reads back. SetSlot32/64 commit r0; SetSlotF32/F64 commit fp0. There is
// no fused "compute and store to a slot" form: the slot commit is its own
// instruction, not a destination field on the operator that produced the
// value.
func SetSlot32(f *Frame) (Operation, trap.Trap) {
	f.storeU32(f.instr().Dst, uint32(f.Regs.R0))
	return f.nextOp()
}

func SetSlot64(f *Frame) (Operation, trap.Trap) {
	f.storeU64(f.instr().Dst, f.Regs.R0)
	return f.nextOp()
}

func SetSlotF32(f *Frame) (Operation, trap.Trap) {
	f.storeU32(f.instr().Dst, uint32(f.Regs.FP0))
	return f.nextOp()
}

func SetSlotF64(f *Frame) (Operation, trap.Trap) {
	f.storeU64(f.instr().Dst, f.Regs.FP0)
	return f.nextOp()
}

// SetRegister32/64 and SetRegisterF32/64 are the inverse: they load a slot
// into the accumulator, used when a later instruction needs a value that
// was previously committed to a slot.
func SetRegister32(f *Frame) (Operation, trap.Trap) {
	f.Regs.R0 = uint64(f.slotU32(f.instr().SlotA))
	return f.nextOp()
}

func SetRegister64(f *Frame) (Operation, trap.Trap) {
	f.Regs.R0 = f.slotU64(f.instr().SlotA)
	return f.nextOp()
}

func SetRegisterF32(f *Frame) (Operation, trap.Trap) {
	f.Regs.FP0 = uint64(f.slotU32(f.instr().SlotA))
	return f.nextOp()
}

func SetRegisterF64(f *Frame) (Operation, trap.Trap) {
	f.Regs.FP0 = f.slotU64(f.instr().SlotA)
	return f.nextOp()
}

// Const32 and Const64 materialize an inline constant into a destination
// slot. Most constants reach the frame through the function's const pool
// at Entry; these cover the ones the compiler chooses to embed in the
// stream instead.
func Const32(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.storeU32(ins.Dst, ins.U32)
	return f.nextOp()
}

func Const64(f *Frame) (Operation, trap.Trap) {
	ins := f.instr()
	f.storeU64(ins.Dst, ins.U64)
	return f.nextOp()
}
