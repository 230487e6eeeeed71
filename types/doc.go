// Package types maps source-language type names to WebAssembly value types.
//
// The source language is dynamically typed with optional declarations, so
// the mapping is total: every name resolves to a value type, with i32 as
// the lenient default for anything unrecognized or undeclared. Names are
// matched case-insensitively.
//
//	types.MapType("Long")     // wasm.ValI32
//	types.MapType("Double")   // wasm.ValF64
//	types.MapType("String")   // wasm.ValI32 (linear-memory pointer)
//	types.MapType("")         // wasm.ValI32
//
// ZeroConst supplies the constant initializer expression for a value
// type's zero value, used for global defaults, and IsFloat reports which
// value types select floating-point opcodes.
package types
