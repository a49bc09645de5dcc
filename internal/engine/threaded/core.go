// Package threaded implements a threaded-code WebAssembly execution core:
// every operation is a Go function value in a code stream, and control
// flows by returning the next handler to a trampoline driver rather than
// through a central switch loop.
//
// The decoder/compiler that produces the code stream, module loading, and
// the embedder-facing API live elsewhere; this package defines only the
// shapes their output must have to be consumable here: FunctionDescriptor,
// the code stream itself, MemoryHeader, globals and tables.
package threaded

import "github.com/threadcore/wazerotc/internal/wasmdebug"

// TypeDescriptor names a function signature for CallIndirect's type check.
// Two functions are call-compatible only if they share a TypeDescriptor
// pointer: identity is assigned by the decoder, which interns one
// descriptor per distinct signature, so no structural comparison happens
// at call time.
type TypeDescriptor struct {
	ParamCount, ResultCount int
}

// FunctionDescriptor is the per-function record the decoder/compiler
// produces. Code is nil until the
// function is lazily compiled via the Compile thunk or CallIndirect.
type FunctionDescriptor struct {
	ModuleName, Name string
	Index            uint32

	Type *TypeDescriptor

	// Code is the function's code stream; nil until compiled.
	Code CodeStream

	// MaxStackSlots bounds sp+MaxStackSlots against the runtime stack limit
	// at Entry.
	MaxStackSlots int

	// LocalBase is the slot index (relative to the frame's sp) where the
	// zero-initialized local region begins; LocalSlotCount is its length.
	LocalBase, LocalSlotCount int

	// ConstBase is the slot index where Consts is copied on Entry.
	ConstBase int
	Consts    []uint64

	// CachedLocals designates which local slots the register cache should
	// shadow, ordered (int locals first, then float locals), up to 4 int
	// and 7 float entries.
	CachedLocals []CachedLocal

	// Host is non-nil for a host-function descriptor reached through
	// CallRawFunction; Code is unused in that case.
	Host *HostFunc

	// compileFn lazily produces Code the first time this function is
	// called, modeling the out-of-scope decoder/compiler as an opaque
	// producer. nil for functions already compiled eagerly.
	compileFn func(*FunctionDescriptor) CodeStream
}

// CachedLocal designates one local slot that the register cache shadows.
type CachedLocal struct {
	SlotOffset int32
	Float      bool
}

// SetLazyCompiler installs the thunk used by the Compile handler and by
// CallIndirect to materialize Code on first use.
func (fd *FunctionDescriptor) SetLazyCompiler(fn func(*FunctionDescriptor) CodeStream) {
	fd.compileFn = fn
}

// Compiled reports whether Code has been materialized.
func (fd *FunctionDescriptor) Compiled() bool { return fd.Code != nil }

func (fd *FunctionDescriptor) compile() {
	if fd.compileFn == nil {
		panic("threaded: function has no code and no lazy compiler")
	}
	fd.Code = fd.compileFn(fd)
}

// DebugName is the stable backtrace-frame name for fd.
func (fd *FunctionDescriptor) DebugName() string {
	return wasmdebug.FuncName(fd.ModuleName, fd.Name, fd.Index)
}

// HostFunc is the engine-side bridge to a host function reached through
// CallRawFunction. The host-call calling
// convention from the embedder side is out of scope; this is only the
// engine-side invocation shape.
type HostFunc struct {
	// Call receives the runtime (so the host may recursively invoke
	// exported functions), the user-data pointer captured at compile time,
	// the callee's slot-stack window (arguments and result slots), and the
	// current raw memory bytes.
	Call func(rt *Runtime, userData any, sp SlotStack, mem []byte) error
}

// GlobalCell is the storage cell behind GetGlobal/SetGlobal.
// 64 bits regardless of declared type; floats are reinterpreted bitwise.
type GlobalCell struct {
	Value uint64
}

// TableInstance backs CallIndirect. Entries are nil until initialized.
type TableInstance struct {
	Entries []*TableEntry
}

// TableEntry holds a callable function; CallIndirect matches that
// function's own Type against the TypeDescriptor the call site expects.
type TableEntry struct {
	Func *FunctionDescriptor
}

// ModuleInstance is the minimal module-scoped state the control engine
// consumes: globals and tables. Function lookup for Call is by direct
// FunctionDescriptor pointer embedded in the code stream, so no function
// index table is needed here.
type ModuleInstance struct {
	Name    string
	Globals []*GlobalCell
	Tables  []*TableInstance
}
