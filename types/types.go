package types

import (
	"strings"

	"github.com/basiclang/wasm-compiler/wasm"
)

// MapType resolves a source type name to its WebAssembly value type.
// Matching is case-insensitive and never fails: integer-family and
// reference-family names map to i32 (references are pointers into linear
// memory), Single maps to f32, Double and Currency map to f64, and
// anything else falls back to i32.
func MapType(name string) wasm.ValType {
	switch strings.ToLower(name) {
	case "boolean", "byte", "integer", "long":
		return wasm.ValI32
	case "single":
		return wasm.ValF32
	case "double", "currency":
		return wasm.ValF64
	case "string", "object", "variant", "":
		// References are i32 offsets into linear memory.
		return wasm.ValI32
	default:
		return wasm.ValI32
	}
}

// ZeroConst returns the constant initializer expression for t's zero
// value, end opcode included. Value types without a scalar constant
// instruction fall back to the i32 zero expression.
func ZeroConst(t wasm.ValType) []byte {
	switch t {
	case wasm.ValI64:
		return []byte{wasm.OpI64Const, 0x00, wasm.OpEnd}
	case wasm.ValF32:
		return []byte{wasm.OpF32Const, 0x00, 0x00, 0x00, 0x00, wasm.OpEnd}
	case wasm.ValF64:
		return []byte{wasm.OpF64Const, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, wasm.OpEnd}
	default:
		return []byte{wasm.OpI32Const, 0x00, wasm.OpEnd}
	}
}

// IsFloat reports whether t selects floating-point opcodes.
func IsFloat(t wasm.ValType) bool {
	return t == wasm.ValF32 || t == wasm.ValF64
}
