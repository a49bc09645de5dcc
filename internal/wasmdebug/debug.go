// Package wasmdebug formats the human-readable half of the trap surface:
// function names and backtrace frames. Trap identity itself lives in
// internal/trap; this package only turns that identity, plus the frames
// threaded.Frame.Run records, into text an embedder can print.
package wasmdebug

import (
	"strconv"
	"strings"
)

// FuncName formats a stable, human-readable name for a function given its
// defining module name, its own name (which may be empty), and its index
// in the module's function namespace. When name is empty a substitute is
// generated from the index, e.g. ".$0" for the first function of an
// unnamed module.
func FuncName(moduleName, funcName string, funcIdx uint32) string {
	var sb strings.Builder
	sb.WriteString(moduleName)
	sb.WriteByte('.')
	if funcName != "" {
		sb.WriteString(funcName)
	} else {
		sb.WriteByte('$')
		sb.WriteString(strconv.FormatUint(uint64(funcIdx), 10))
	}
	return sb.String()
}

// Frame is one entry of a recorded backtrace: the failing function and the
// code-stream position of the operation that was executing when the trap
// was raised or forwarded through this frame.
type Frame struct {
	FuncName string
	PC       uint64
}

// Backtrace is an ordered list of Frame, innermost (where the trap
// originated) first.
type Backtrace []Frame

// String renders the backtrace one frame per line, innermost first, in the
// conventional "at <func> (pc=<n>)" form.
func (b Backtrace) String() string {
	if len(b) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, f := range b {
		sb.WriteString("\tat ")
		sb.WriteString(f.FuncName)
		sb.WriteString(" (pc=")
		sb.WriteString(strconv.FormatUint(f.PC, 10))
		sb.WriteString(")\n")
	}
	return sb.String()
}
