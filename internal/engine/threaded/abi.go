package threaded

import (
	"math"

	"github.com/threadcore/wazerotc/internal/trap"
	"github.com/threadcore/wazerotc/internal/wasmdebug"
)

// Operation is the fixed ABI every opcode handler obeys: given the current
// frame, it either returns the next handler to invoke (nextOp/jumpOp), or
// a trap, never both. A (nil,
// trap.Trap{}) return with a zero Trap means normal function exit
// (Return/End); the driver in Frame.Run tells the two apart via
// trap.IsTrap.
type Operation func(f *Frame) (Operation, trap.Trap)

// Frame is the per-call activation record threaded through every handler:
// the code-stream position, the slot-stack window for this call, the
// current memory header, and (when enabled) the hot register cache.
// Carrying these as struct fields rather than as a fixed handler-argument
// bundle is a calling-convention choice, not a semantic one: the
// register/slot coherence invariant is the actual contract.
type Frame struct {
	pc   int
	Code CodeStream
	SP   SlotStack
	Mem  *MemoryHeader
	Regs RegisterCache

	fn     *FunctionDescriptor
	rt     *Runtime
	engine *engineState

	// regCacheEnabled mirrors EngineConfig at the time this frame was
	// entered, so a trampoline loop never has to consult the engine for a
	// per-access branch.
	regCacheEnabled bool

	// debugCoherence mirrors EngineConfig.DebugRegisterCoherence; when set,
	// every encoded-offset access is checked against coherenceOK and panics
	// on violation rather than silently reading/writing a stale value.
	debugCoherence bool
}

// nextOp reads the handler at the following code-stream position, advances
// pc past it, and returns it for the trampoline to invoke — never calling
// it directly, so native Go stack depth stays O(1) across straight-line
// code regardless of function length.
func (f *Frame) nextOp() (Operation, trap.Trap) {
	f.pc++
	return f.Code[f.pc].Op, trap.Trap{}
}

// jumpOp is nextOp but dispatches at an explicit code-stream address
// instead of pc+1, used by the control-flow family (Branch, Loop, If).
func (f *Frame) jumpOp(target int) (Operation, trap.Trap) {
	f.pc = target
	return f.Code[f.pc].Op, trap.Trap{}
}

// instr returns the instruction the currently executing handler was
// dispatched from, i.e. its own immediates: pc points at the executing
// handler's word until that handler advances it.
func (f *Frame) instr() *Instr { return &f.Code[f.pc] }

// Run is the trampoline driver: it repeatedly invokes the
// current handler and follows the Operation it returns until dispatch
// completes (op == nil) or traps. This is the Go-idiomatic stand-in for a
// guaranteed-tail-call chain, which Go's compiler does not provide.
func (f *Frame) Run() trap.Trap {
	if f.engine != nil && (f.engine.cfg.OpTrace != nil || f.engine.cfg.OpProfile != nil) {
		return f.runHooked(f.engine.cfg.OpTrace, f.engine.cfg.OpProfile)
	}
	op := f.Code[f.pc].Op
	for {
		next, tr := op(f)
		if tr.IsTrap() {
			return tr
		}
		if next == nil {
			return trap.Trap{}
		}
		op = next
	}
}

// --- Operand access ---
//
// Non-negative offsets address a byte offset relative to the frame's SP;
// negative offsets are the tagged register-cache encoding (see stack.go).
// Byte order for slot loads/stores is native: slots are uint64 words,
// never serialized, so there is nothing to swap.

func (f *Frame) readSlot(offset int32) uint64 {
	if IsEncodedOffset(offset) && f.regCacheEnabled {
		if f.debugCoherence && !f.coherenceOK(offset) {
			panic("threaded: register cache incoherent with backing slot on read")
		}
		float, reg, slot := DecodeOffset(offset)
		return f.Regs.readEncoded(f.SP, float, reg, slot)
	}
	return f.SP[offset/slotWidth]
}

func (f *Frame) writeSlot(offset int32, v uint64) {
	if IsEncodedOffset(offset) && f.regCacheEnabled {
		if f.debugCoherence && !f.coherenceOK(offset) {
			panic("threaded: register cache incoherent with backing slot on write")
		}
		float, reg, slot := DecodeOffset(offset)
		f.Regs.writeEncoded(f.SP, float, reg, slot, v)
		return
	}
	f.SP[offset/slotWidth] = v
}

func (f *Frame) slotI32(offset int32) int32   { return int32(f.readSlot(offset)) }
func (f *Frame) slotU32(offset int32) uint32  { return uint32(f.readSlot(offset)) }
func (f *Frame) slotI64(offset int32) int64   { return int64(f.readSlot(offset)) }
func (f *Frame) slotU64(offset int32) uint64  { return f.readSlot(offset) }
func (f *Frame) slotF32(offset int32) float32 { return math.Float32frombits(uint32(f.readSlot(offset))) }
func (f *Frame) slotF64(offset int32) float64 { return math.Float64frombits(f.readSlot(offset)) }

func (f *Frame) storeI32(offset int32, v int32)   { f.writeSlot(offset, uint64(uint32(v))) }
func (f *Frame) storeU32(offset int32, v uint32)  { f.writeSlot(offset, uint64(v)) }
func (f *Frame) storeI64(offset int32, v int64)   { f.writeSlot(offset, uint64(v)) }
func (f *Frame) storeU64(offset int32, v uint64)  { f.writeSlot(offset, v) }
func (f *Frame) storeF32(offset int32, v float32) { f.writeSlot(offset, uint64(math.Float32bits(v))) }
func (f *Frame) storeF64(offset int32, v float64) { f.writeSlot(offset, math.Float64bits(v)) }

// coherenceOK validates the register/slot coherence invariant for an
// encoded offset, when debug validation is enabled.
func (f *Frame) coherenceOK(offset int32) bool {
	if !IsEncodedOffset(offset) || !f.regCacheEnabled {
		return true
	}
	float, reg, slot := DecodeOffset(offset)
	return f.Regs.checkCoherent(f.SP, float, reg, slot)
}

// pushBacktraceFrame records the failing operation's position against this
// frame's function. That position is pc itself: only nextOp/jumpOp move pc,
// and a trapping handler returns without calling either, so pc still points
// at the trapping handler's own instruction when the trap is observed.
func (f *Frame) pushBacktraceFrame(bt *wasmdebug.Backtrace) {
	*bt = append(*bt, wasmdebug.Frame{FuncName: f.fn.DebugName(), PC: uint64(f.pc)})
}
