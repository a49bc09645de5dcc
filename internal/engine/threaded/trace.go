package threaded

import (
	"reflect"
	"runtime"
	"strings"
	"sync"

	"github.com/threadcore/wazerotc/internal/trap"
)

// opNames caches handler function-pointer to short-name lookups so the
// trace path resolves each distinct Operation through the runtime only
// once for the life of the process.
var opNames sync.Map

// OpName resolves a handler to its short function name ("I32AddSS",
// "BranchTable", ...), the identity the OpTrace and OpProfile hooks report.
func OpName(op Operation) string {
	key := reflect.ValueOf(op).Pointer()
	if v, ok := opNames.Load(key); ok {
		return v.(string)
	}
	name := "<unknown>"
	if fn := runtime.FuncForPC(key); fn != nil {
		name = fn.Name()
		if i := strings.LastIndexByte(name, '.'); i >= 0 {
			name = name[i+1:]
		}
	}
	opNames.Store(key, name)
	return name
}

// runHooked is Frame.Run with the pre-dispatch trace/profile hooks applied
// to every handler. It is a separate loop so the zero-hook path in Run
// never pays the per-op nil checks. Hooking happens inside the same
// trampoline iteration rather than by stacking wrapper functions, so the
// hooked dispatch keeps the trampoline's O(1) native stack depth no matter
// how long the handler chain runs.
func (f *Frame) runHooked(onTrace func(string, int), onProfile func(string)) trap.Trap {
	op := f.Code[f.pc].Op
	for {
		if onTrace != nil {
			onTrace(OpName(op), f.pc)
		}
		if onProfile != nil {
			onProfile(OpName(op))
		}
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
