package threaded

// Instr is one operation in a CodeStream: the handler plus its decoded
// immediates in one struct, rather than a raw word array the handler must
// walk and type-punn. The shape the decoder produces ("function-pointer
// word followed by N immediate words") is preserved field-for-field; only
// the walking mechanism changes from pointer arithmetic to a typed struct
// slice, because Go has no portable way to read arbitrary-width immediates
// out of a flat word array without unsafe.
//
// Only the fields relevant to Op are populated; the rest are the zero
// value. Op is itself mutable for the Compile thunk, which overwrites its
// own Instr.Op (and patches Func once compiled) in place — the code
// stream's one sanctioned self-modification.
type Instr struct {
	Op Operation

	// Slot offsets, encoded register references included. Most operators
	// use at most two.
	SlotA, SlotB, Dst int32

	U32 uint32
	U64 uint64

	// Target is a code-stream address: a branch target, the else/end
	// address for If, or the loop header PC for ContinueLoop.
	Target int

	// Targets backs BranchTable: num-targets direct targets plus the
	// default at index len(Targets)-1.
	Targets OffsetTargets

	Func   *FunctionDescriptor
	Type   *TypeDescriptor
	Module *ModuleInstance
	Global *GlobalCell
	Table  *TableInstance
	Host   *HostFunc

	UserData any
}

// CodeStream is a compiled function body: a flat, PC-indexed sequence of
// Instr.
type CodeStream []Instr
