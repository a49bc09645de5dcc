package threaded

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/threadcore/wazerotc/internal/trap"
)

func operationIdentity(op Operation) uintptr {
	return reflect.ValueOf(op).Pointer()
}

func newTestRuntime(cfg EngineConfig) *Runtime {
	return NewRuntime(1, 1, cfg)
}

func TestEntryTrapsOnStackOverflow(t *testing.T) {
	rt := newTestRuntime(NewEngineConfig())
	fd := &FunctionDescriptor{
		MaxStackSlots: 10,
		Code:          CodeStream{{Op: Entry}, {Op: Return}},
	}
	sp := make(SlotStack, 2) // shorter than MaxStackSlots
	tr := rt.runFunction(fd, sp, &engineState{cfg: rt.config})
	require.True(t, tr.IsTrap())
	require.Equal(t, trap.CodeCallStackExhausted, tr.Code)
}

func TestEntryZeroFillsLocalsAndInstallsConsts(t *testing.T) {
	rt := newTestRuntime(NewEngineConfig())
	fd := &FunctionDescriptor{
		MaxStackSlots:  3,
		LocalBase:      0,
		LocalSlotCount: 1,
		ConstBase:      1,
		Consts:         []uint64{42},
		Code:           CodeStream{{Op: Entry}, {Op: Return}},
	}
	sp := SlotStack{99, 0, 0}
	tr := rt.runFunction(fd, sp, &engineState{cfg: rt.config})
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(0), sp[0])
	require.Equal(t, uint64(42), sp[1])
}

func TestUnreachableTraps(t *testing.T) {
	rt := newTestRuntime(NewEngineConfig())
	fd := &FunctionDescriptor{
		MaxStackSlots: 1,
		Code:          CodeStream{{Op: Entry}, {Op: Unreachable}},
	}
	tr := rt.runFunction(fd, make(SlotStack, 1), &engineState{cfg: rt.config})
	require.True(t, tr.IsTrap())
	require.Equal(t, trap.CodeUnreachableExecuted, tr.Code)
}

func TestBranchTableClampsOutOfRangeIndexToDefault(t *testing.T) {
	fd := &FunctionDescriptor{MaxStackSlots: 1}
	// three direct targets (indices 0,1,2) plus a default at index 3.
	targets := NewOffsetTargets([]int{10, 11, 12, 99})
	code := CodeStream{
		{Op: Entry},
		{Op: BranchTable, SlotA: 0, Targets: targets},
	}
	for len(code) <= 99 {
		code = append(code, Instr{Op: Return})
	}
	code[99] = Instr{Op: Return}
	fd.Code = code

	rt := newTestRuntime(NewEngineConfig())
	for _, idx := range []uint32{0, 2, 3, 1000} {
		sp := SlotStack{uint64(idx)}
		tr := rt.runFunction(fd, sp, &engineState{cfg: rt.config})
		require.False(t, tr.IsTrap())
	}
}

func TestLoopAndContinueLoopIf(t *testing.T) {
	// Slots: 0 = counter, 1 = iteration count, 2 = constant one.
	fd := &FunctionDescriptor{
		MaxStackSlots: 3,
		ConstBase:     2,
		Consts:        []uint64{1},
		Code: CodeStream{
			/*0*/ {Op: Entry},
			/*1*/ {Op: Loop},
			/*2*/ {Op: I32Sub, SlotA: 0, SlotB: 16},
			/*3*/ {Op: SetSlot32, Dst: 0},
			/*4*/ {Op: I32AddSS, SlotA: 8, SlotB: 16},
			/*5*/ {Op: SetSlot32, Dst: 8},
			/*6*/ {Op: ContinueLoopIf, SlotA: 0, Target: 1},
			/*7*/ {Op: Return},
		},
	}
	sp := SlotStack{5, 0, 0}
	rt := newTestRuntime(NewEngineConfig())
	tr := rt.runFunction(fd, sp, &engineState{cfg: rt.config})
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(0), sp[0])
	require.Equal(t, uint64(5), sp[1])
}

func TestCallRecursesIntoCallee(t *testing.T) {
	callee := &FunctionDescriptor{
		Name:          "callee",
		MaxStackSlots: 2,
		Code: CodeStream{
			{Op: Entry},
			{Op: I32AddSS, SlotA: 0, SlotB: 8},
			{Op: SetSlot32, Dst: 0},
			{Op: Return},
		},
	}
	caller := &FunctionDescriptor{
		Name:          "caller",
		MaxStackSlots: 4,
		Code: CodeStream{
			{Op: Entry},
			{Op: Call, Func: callee, SlotA: 16},
			{Op: Return},
		},
	}
	// caller's sp: [0,1] unused, [2,3] the callee's argument window.
	sp := SlotStack{0, 0, 7, 35}
	rt := newTestRuntime(NewEngineConfig())
	tr := rt.runFunction(caller, sp, &engineState{cfg: rt.config})
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(42), sp[2])
}

func TestCallIndirectChecksBoundsInitAndType(t *testing.T) {
	typeA := &TypeDescriptor{ParamCount: 0, ResultCount: 0}
	typeB := &TypeDescriptor{ParamCount: 1, ResultCount: 1}
	okFn := &FunctionDescriptor{
		Type:          typeA,
		MaxStackSlots: 1,
		Code:          CodeStream{{Op: Entry}, {Op: Return}},
	}
	table := &TableInstance{Entries: []*TableEntry{
		{Func: okFn},
		nil,
	}}

	rt := newTestRuntime(NewEngineConfig())
	caller := func(idx uint32, wantType *TypeDescriptor) trap.Trap {
		fd := &FunctionDescriptor{
			MaxStackSlots: 1,
			Code: CodeStream{
				{Op: Entry},
				{Op: CallIndirect, SlotA: 0, SlotB: 8, Table: table, Type: wantType},
				{Op: Return},
			},
		}
		sp := SlotStack{uint64(idx), 0}
		return rt.runFunction(fd, sp, &engineState{cfg: rt.config})
	}

	tr := caller(5, typeA)
	require.True(t, tr.IsTrap())
	require.Equal(t, trap.CodeUndefinedElement, tr.Code)

	tr = caller(1, typeA)
	require.True(t, tr.IsTrap())
	require.Equal(t, trap.CodeUninitializedElement, tr.Code)

	tr = caller(0, typeB)
	require.True(t, tr.IsTrap())
	require.Equal(t, trap.CodeIndirectCallTypeMismatch, tr.Code)

	tr = caller(0, typeA)
	require.False(t, tr.IsTrap())
}

func TestCallStackCeilingTraps(t *testing.T) {
	cfg := NewEngineConfig().WithCallStackCeiling(4)
	rt := newTestRuntime(cfg)

	var fd FunctionDescriptor
	fd.MaxStackSlots = 1
	fd.Code = CodeStream{
		{Op: Entry},
		{Op: Call, Func: &fd, SlotA: 0},
		{Op: Return},
	}

	tr := rt.runFunction(&fd, make(SlotStack, 16), &engineState{cfg: rt.config})
	require.True(t, tr.IsTrap())
	require.Equal(t, trap.CodeCallStackExhausted, tr.Code)
}

func TestCallRawFunctionBridgesToHost(t *testing.T) {
	hostCalled := false
	host := &HostFunc{Call: func(rt *Runtime, userData any, sp SlotStack, mem []byte) error {
		hostCalled = true
		sp[0] = userData.(uint64)
		return nil
	}}
	fd := &FunctionDescriptor{
		Host: host,
		Code: CodeStream{{Op: CallRawFunction, Host: host, UserData: uint64(7)}},
	}
	rt := newTestRuntime(NewEngineConfig())
	sp := SlotStack{0}
	tr := rt.runFunction(fd, sp, &engineState{cfg: rt.config})
	require.False(t, tr.IsTrap())
	require.True(t, hostCalled)
	require.Equal(t, uint64(7), sp[0])
}

func TestCompileThunkLazilyCompilesThenBehavesAsCall(t *testing.T) {
	callee := &FunctionDescriptor{
		MaxStackSlots: 1,
		Code:          CodeStream{{Op: Entry}, {Op: Return}},
	}
	lazy := &FunctionDescriptor{MaxStackSlots: 1}
	lazy.SetLazyCompiler(func(*FunctionDescriptor) CodeStream { return callee.Code })

	ins := Instr{Op: Compile, Func: lazy, SlotA: 0}
	caller := &FunctionDescriptor{
		MaxStackSlots: 2,
		Code:          CodeStream{{Op: Entry}, ins, {Op: Return}},
	}
	rt := newTestRuntime(NewEngineConfig())
	tr := rt.runFunction(caller, make(SlotStack, 2), &engineState{cfg: rt.config})
	require.False(t, tr.IsTrap())
	require.True(t, lazy.Compiled())
	require.Equal(t, operationIdentity(Call), operationIdentity(caller.Code[1].Op))
}

func TestSelectPicksByAccumulator(t *testing.T) {
	fd := &FunctionDescriptor{MaxStackSlots: 2}
	code := CodeStream{
		{Op: Select, SlotA: 0, SlotB: 8},
		{Op: Return},
	}
	rt := newTestRuntime(NewEngineConfig())

	f := &Frame{Code: code, SP: SlotStack{11, 22}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f.Mem = rt.memory.header
	f.Regs.R0 = 1
	tr := f.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(11), f.Regs.R0)
}

func TestGlobalGetSet(t *testing.T) {
	g := &GlobalCell{Value: 5}
	fd := &FunctionDescriptor{MaxStackSlots: 1}
	code := CodeStream{
		{Op: GetGlobal32, Dst: 0, Global: g},
		{Op: SetGlobal32, Global: g},
		{Op: Return},
	}
	rt := newTestRuntime(NewEngineConfig())
	f := &Frame{Code: code, SP: SlotStack{0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f.Mem = rt.memory.header
	f.Regs.R0 = 77
	tr := f.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(77), g.Value)
}

func TestIfFallsThroughOnZeroJumpsOtherwise(t *testing.T) {
	fd := &FunctionDescriptor{MaxStackSlots: 2}
	// Falling through commits r0 into slot 1; jumping skips that commit.
	code := CodeStream{
		/*0*/ {Op: IfSlot, SlotA: 0, Target: 2},
		/*1*/ {Op: SetSlot32, Dst: 8},
		/*2*/ {Op: Return},
	}
	rt := newTestRuntime(NewEngineConfig())

	for _, tc := range []struct {
		cond uint64
		want uint64
	}{
		{cond: 0, want: 31},
		{cond: 1, want: 0},
	} {
		f := &Frame{Code: code, SP: SlotStack{tc.cond, 0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
		f.Mem = rt.memory.header
		f.Regs.R0 = 31
		tr := f.Run()
		require.False(t, tr.IsTrap())
		require.Equal(t, tc.want, f.SP[1])
	}

	regCode := CodeStream{
		/*0*/ {Op: IfReg, Target: 2},
		/*1*/ {Op: Const32, U32: 31, Dst: 8},
		/*2*/ {Op: Return},
	}
	f := &Frame{Code: regCode, SP: SlotStack{0, 0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f.Mem = rt.memory.header
	f.Regs.R0 = 1 // nonzero: jump, so the Const32 never runs
	tr := f.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(0), f.SP[1])
}

func TestConstWritesImmediateToSlot(t *testing.T) {
	fd := &FunctionDescriptor{MaxStackSlots: 2}
	code := CodeStream{
		{Op: Const32, U32: 0xcafe, Dst: 0},
		{Op: Const64, U64: 0xdead_beef_dead_beef, Dst: 8},
		{Op: Return},
	}
	rt := newTestRuntime(NewEngineConfig())
	f := &Frame{Code: code, SP: SlotStack{0, 0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f.Mem = rt.memory.header
	tr := f.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(0xcafe), f.SP[0])
	require.Equal(t, uint64(0xdead_beef_dead_beef), f.SP[1])
}

// TestBranchIfPrologueRunsAdjustmentOnlyOnTruePath exercises the
// BranchIfPrologue_* family: a true condition
// falls into the short preamble that precedes the real jump and performs
// whatever stack adjustment the branch target needs, then reaches the join
// point via its own trailing Branch; a false condition skips the preamble
// entirely and jumps straight to the join point, so the adjustment never
// runs.
func TestBranchIfPrologueRunsAdjustmentOnlyOnTruePath(t *testing.T) {
	fd := &FunctionDescriptor{MaxStackSlots: 2}
	code := CodeStream{
		/*0*/ {Op: BranchIfPrologueSlot, SlotA: 0, Target: 3},
		/*1*/ {Op: SetSlot32, Dst: 8}, // preamble: commits r0 into slot 1
		/*2*/ {Op: Branch, Target: 3},
		/*3*/ {Op: Return},
	}
	rt := newTestRuntime(NewEngineConfig())

	f := &Frame{Code: code, SP: SlotStack{1, 0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f.Mem = rt.memory.header
	f.Regs.R0 = 42
	tr := f.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(42), f.SP[1])

	f2 := &Frame{Code: code, SP: SlotStack{0, 0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f2.Mem = rt.memory.header
	f2.Regs.R0 = 42
	tr = f2.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(0), f2.SP[1])
}

// TestBranchIfPrologueReg is BranchIfPrologueSlot reading its condition from
// r0 instead of a backing slot.
func TestBranchIfPrologueReg(t *testing.T) {
	fd := &FunctionDescriptor{MaxStackSlots: 1}
	code := CodeStream{
		/*0*/ {Op: BranchIfPrologueReg, Target: 3},
		/*1*/ {Op: SetSlot32, Dst: 0},
		/*2*/ {Op: Branch, Target: 3},
		/*3*/ {Op: Return},
	}
	rt := newTestRuntime(NewEngineConfig())

	f := &Frame{Code: code, SP: SlotStack{0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f.Mem = rt.memory.header
	f.Regs.R0 = 9
	tr := f.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(9), f.SP[0])

	f2 := &Frame{Code: code, SP: SlotStack{0}, fn: fd, rt: rt, engine: &engineState{cfg: rt.config}}
	f2.Mem = rt.memory.header
	f2.Regs.R0 = 0
	tr = f2.Run()
	require.False(t, tr.IsTrap())
	require.Equal(t, uint64(0), f2.SP[0])
}
