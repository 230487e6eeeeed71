// Package wasm provides WebAssembly module construction, encoding, and
// parsing for the compiler backend.
//
// The central type is Module: an in-memory collection of the index spaces a
// binary module serializes. Modules are built incrementally through the Add*
// methods and serialized with Encode, which emits sections in canonical
// order regardless of build order.
//
// # Building
//
// Create a module and register its contents:
//
//	m := wasm.NewModule(wasm.ModuleConfig{MemoryPages: 1})
//	sig := wasm.FuncType{
//	    Params:  []wasm.ValType{wasm.ValI32, wasm.ValI32},
//	    Results: []wasm.ValType{wasm.ValI32},
//	}
//	idx := m.AddFunction(sig, nil, body)
//	m.AddExport("add", wasm.KindFunc, idx)
//	data := m.Encode()
//
// NewModule pre-seeds one linear memory and exports it as "memory", so the
// memory section is always present in the output. Function signatures are
// deduplicated structurally; registering the same shape twice reuses the
// type index. Duplicate export names are recorded as-is rather than merged.
//
// # Supported Features
//
//	Core:
//	  - Value types i32, i64, f32, f64
//	  - Functions, one linear memory, globals
//	  - Control flow, calls, local/global access
//	  - Active data segments
//
//	Extensions:
//	  - Saturating truncation and bulk memory (0xFC prefix)
//	  - A 128-bit vector subset (0xFD prefix): splats, lane ops, and
//	    four-lane arithmetic
//	  - Shared memory limits for threaded instantiation
//
// # Parsing
//
// ParseModule decodes a binary produced by Encode (or any module within the
// supported feature set) back into a Module:
//
//	module, err := wasm.ParseModule(data)
//
// ParseModuleValidate additionally checks structural validity: index
// references in bounds, code and function counts matching, memory limits
// sane, and bodies terminated correctly.
//
// # Instructions
//
// Function bodies are raw bytes in Module, with a structured view available
// on demand:
//
//	instructions, err := wasm.DecodeInstructions(body.Code)
//	encoded := wasm.EncodeInstructions(instructions)
//
// Disassemble renders a whole module as a text-format-flavored listing,
// using the "name" custom section for labels when present.
package wasm
