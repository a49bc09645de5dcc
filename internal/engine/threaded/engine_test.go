package threaded

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegisterCacheEndToEndViaCallExported(t *testing.T) {
	local0 := EncodeOffset(false, 0, 0)
	fd := &FunctionDescriptor{
		MaxStackSlots: 2,
		CachedLocals:  []CachedLocal{{SlotOffset: 0, Float: false}},
		Code: CodeStream{
			{Op: Entry},
			{Op: I32AddSS, SlotA: local0, SlotB: 8},
			{Op: SetSlot32, Dst: local0},
			{Op: Return},
		},
	}
	cfg := NewEngineConfig().WithRegisterCache(true)
	rt := newTestRuntime(cfg)
	sp := rt.rootSlots[:2]
	sp[0], sp[1] = 10, 5

	tr, bt := rt.CallExported(fd)
	require.False(t, tr.IsTrap())
	require.Empty(t, bt)
	require.Equal(t, uint64(15), sp[0])
}

func TestDebugRegisterCoherencePanicsOnViolation(t *testing.T) {
	rt := newTestRuntime(NewEngineConfig().WithRegisterCache(true))
	mismatched := EncodeOffset(false, 0, 0)
	f := &Frame{
		Code:            CodeStream{{Op: I32Eqz, SlotA: mismatched, Dst: 8}, {Op: Return}},
		SP:              SlotStack{1, 0},
		fn:              &FunctionDescriptor{},
		rt:              rt,
		regCacheEnabled: true,
		debugCoherence:  true,
	}
	f.Mem = rt.memory.header
	f.Regs.RInt[0] = 99
	f.Regs.intLive[0] = true // backing slot holds 1, register holds 99: incoherent

	require.Panics(t, func() { f.Run() })
}

func TestCallExportedRecordsBacktraceOnTrap(t *testing.T) {
	fd := &FunctionDescriptor{
		ModuleName:    "m",
		Name:          "boom",
		MaxStackSlots: 1,
		Code:          CodeStream{{Op: Entry}, {Op: Unreachable}},
	}
	cfg := NewEngineConfig().WithRecordBacktrace(true)
	rt := newTestRuntime(cfg)

	tr, bt := rt.CallExported(fd)
	require.True(t, tr.IsTrap())
	require.Len(t, bt, 1)
	require.Equal(t, fd.DebugName(), bt[0].FuncName)
}

func TestCallExportedSucceeds(t *testing.T) {
	fd := &FunctionDescriptor{
		MaxStackSlots: 1,
		Code:          CodeStream{{Op: Entry}, {Op: Return}},
	}
	rt := newTestRuntime(NewEngineConfig())
	tr, bt := rt.CallExported(fd)
	require.False(t, tr.IsTrap())
	require.Empty(t, bt)
}
