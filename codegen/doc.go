// Package codegen lowers parsed programs into WebAssembly modules.
//
// A Generator owns the module-scope state for one compilation: the target
// wasm.Module, the global and function symbol tables, and the string
// constant pool. Each function is lowered by a short-lived builder that
// owns the local symbol table and body buffer; exactly one builder is
// live at a time and compilation is strictly sequential.
//
//	m, stats := codegen.Generate(prog, codegen.Config{})
//	data := m.Encode()
//
// Lowering never fails. Unresolved variable and function names degrade to
// zero constants, and constructs without a lowering rule are skipped
// (statements) or replaced by a zero constant (expressions). Every
// degraded site is counted in Stats, so callers can observe how faithful
// the output is.
//
// Every module imports the host intrinsics sin, cos, sqrt, and log_value
// from the "env" module, exports its linear memory as "memory", and, when
// a function named "Main" exists, exports it under the additional name
// "main".
package codegen
