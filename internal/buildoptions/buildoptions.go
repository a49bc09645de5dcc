//go:build !wazerotc_testing

// Package buildoptions centralizes constants that differ between the
// normal build and the test build (selected via the wazerotc_testing
// build tag), plus fixed resource ceilings for the execution core.
package buildoptions

// IsTest is true only when built with -tags wazerotc_testing. Code paths
// can gate "test-time" assertions behind `if buildoptions.IsTest { ... }`;
// the compiler optimizes the branch out of production binaries.
const IsTest = false

// CallStackCeiling bounds the number of nested Frame.Run invocations (one
// per live WebAssembly call, since Call/CallIndirect recurse genuinely
// rather than tail-chaining across function boundaries). Exceeding it
// traps with trap.CodeCallStackExhausted instead of overflowing the
// native Go stack.
const CallStackCeiling = 1 << 16
