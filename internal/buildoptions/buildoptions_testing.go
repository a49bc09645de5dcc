//go:build wazerotc_testing

package buildoptions

// IsTest is true when built with -tags wazerotc_testing. Nothing in this
// module currently branches on it; the register/slot coherence checks are
// switched by EngineConfig.DebugRegisterCoherence instead.
const IsTest = true

// CallStackCeiling is lowered under the test tag so stack-exhaustion tests
// run quickly instead of needing 2^16 nested calls to observe the trap.
const CallStackCeiling = 1 << 10
