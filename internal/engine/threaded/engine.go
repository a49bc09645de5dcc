package threaded

import (
	"github.com/threadcore/wazerotc/internal/buildoptions"
	"github.com/threadcore/wazerotc/internal/trap"
	"github.com/threadcore/wazerotc/internal/wasmdebug"
)

// defaultStackSlotCapacity bounds the shared slot-stack arena when a caller
// does not set EngineConfig.StackSlotCapacity.
const defaultStackSlotCapacity = 1 << 20

// EngineConfig configures a Runtime's execution behavior. Every With*
// method returns a modified copy, leaving the receiver untouched, so a
// shared base config can be specialized per caller without aliasing.
type EngineConfig struct {
	// RegisterCache enables the local-register cache. Off by default trades
	// dispatch speed for a simpler coherence story during development.
	RegisterCache bool

	// DebugRegisterCoherence enables the register/slot coherence assertion
	// on every encoded-offset access. Expensive; intended for tests, not
	// production dispatch.
	DebugRegisterCoherence bool

	// RecordBacktrace enables backtrace accumulation on trap.
	RecordBacktrace bool

	// OpTrace, when non-nil, runs before every handler dispatch with the
	// opcode name and current code-stream position.
	OpTrace func(opName string, pc int)

	// OpProfile, when non-nil, runs before every handler dispatch with the
	// opcode name, for counter-style profiling.
	OpProfile func(opName string)

	// CallStackCeiling bounds recursive Call/CallIndirect depth. Zero means
	// buildoptions.CallStackCeiling.
	CallStackCeiling int

	// StackSlotCapacity sizes the shared slot-stack arena a Runtime
	// allocates. Zero means defaultStackSlotCapacity.
	StackSlotCapacity int
}

// NewEngineConfig returns the default configuration.
func NewEngineConfig() EngineConfig { return EngineConfig{} }

func (c EngineConfig) WithRegisterCache(v bool) EngineConfig {
	c.RegisterCache = v
	return c
}

func (c EngineConfig) WithDebugRegisterCoherence(v bool) EngineConfig {
	c.DebugRegisterCoherence = v
	return c
}

func (c EngineConfig) WithRecordBacktrace(v bool) EngineConfig {
	c.RecordBacktrace = v
	return c
}

func (c EngineConfig) WithOpTrace(hook func(opName string, pc int)) EngineConfig {
	c.OpTrace = hook
	return c
}

func (c EngineConfig) WithOpProfile(hook func(opName string)) EngineConfig {
	c.OpProfile = hook
	return c
}

func (c EngineConfig) WithCallStackCeiling(n int) EngineConfig {
	c.CallStackCeiling = n
	return c
}

func (c EngineConfig) WithStackSlotCapacity(n int) EngineConfig {
	c.StackSlotCapacity = n
	return c
}

func (c EngineConfig) ceiling() int {
	if c.CallStackCeiling > 0 {
		return c.CallStackCeiling
	}
	return buildoptions.CallStackCeiling
}

// engineState is the per-call-tree state threaded alongside Frame.rt: the
// recursion-depth counter runFunction maintains for every call entered
// through it (CallExported, Call, CallIndirect), and the accumulated
// backtrace when RecordBacktrace is on. One engineState is created per
// top-level CallExported invocation.
type engineState struct {
	cfg       EngineConfig
	depth     int
	backtrace wasmdebug.Backtrace
}

// Backtrace is a recorded trap unwind, most-recent-frame first.
type Backtrace = wasmdebug.Backtrace

// runFunction is the single recursion point for entering a FunctionDescriptor:
// used by exported calls (Entry point, below) and by the Call/CallIndirect
// handlers for nested calls. calleeSP is the slot-stack window the callee
// should treat as its own sp.
func (rt *Runtime) runFunction(fd *FunctionDescriptor, calleeSP SlotStack, st *engineState) trap.Trap {
	st.depth++
	defer func() { st.depth-- }()
	if st.depth > st.cfg.ceiling() {
		return trap.New(trap.CodeCallStackExhausted)
	}

	f := &Frame{
		Code:            fd.Code,
		SP:              calleeSP,
		Mem:             rt.memory.header,
		fn:              fd,
		rt:              rt,
		engine:          st,
		regCacheEnabled: st.cfg.RegisterCache,
		debugCoherence:  st.cfg.DebugRegisterCoherence,
	}
	tr := f.Run()
	if tr.IsTrap() && st.cfg.RecordBacktrace {
		f.pushBacktraceFrame(&st.backtrace)
	}
	return tr
}

// CallExported runs fd as a top-level export call: a fresh engineState, a sp
// window at the base of the runtime's shared slot stack. Returns any trap
// and, if RecordBacktrace was configured, the resulting backtrace.
func (rt *Runtime) CallExported(fd *FunctionDescriptor) (trap.Trap, Backtrace) {
	st := &engineState{cfg: rt.config}
	tr := rt.runFunction(fd, rt.rootSlots, st)
	return tr, st.backtrace
}
