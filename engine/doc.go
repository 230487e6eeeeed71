// Package engine runs emitted binaries on the wazero runtime.
//
// An Engine owns one wazero runtime plus the "env" host module that
// satisfies the intrinsic imports every emitted binary carries (sin,
// cos, sqrt, log_value). Instantiate compiles a binary and starts an
// instance; InstantiateStreaming does the same from a reader and is
// behaviorally identical. An Instance exposes exported functions
// through Call and exported linear memory through Memory.
//
// Arguments and results cross the boundary in wazero's raw uint64
// form. The I32/F64 and AsI32/AsF64 helpers pack and unpack them so
// callers never import wazero themselves; the engine package is the
// only place the host runtime appears.
//
// Engine is safe for concurrent use. Instance is not and should stay
// on a single goroutine.
package engine
