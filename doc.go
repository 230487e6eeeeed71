// Package wasmcompiler turns parsed BASIC-family programs into
// WebAssembly binaries.
//
// The compiler takes a typed syntax tree (ast.Program), optionally
// rewrites it with tree passes, lowers every function to a flat
// instruction stream, and serializes the result as a loadable module.
// Compilation never fails on malformed input: unresolved names and
// unsupported constructs degrade to zero values and are counted in the
// returned Stats.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	wasmcompiler/    Root package with the one-call Compile front door
//	├── ast/         Typed syntax tree produced by an external front end
//	├── optimize/    Tree passes: constant folding, dead-branch elimination
//	├── types/       Source type names to value-type tags
//	├── codegen/     Function lowering, symbol tables, string pool
//	├── wasm/        Module builder, binary encoder/parser, validator
//	├── engine/      wazero instantiation adapter and host intrinsics
//	└── errors/      Structured error types for host-runtime failures
//
// # Quick Start
//
// Compile and run a program:
//
//	data, stats, err := wasmcompiler.Compile(ctx, prog, wasmcompiler.Options{Optimize: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("%d bytes, %d functions\n", stats.BinarySize, stats.Functions)
//
//	e, err := engine.New(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close(ctx)
//
//	inst, err := e.Instantiate(ctx, data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer inst.Close(ctx)
//
//	result, err := inst.Call(ctx, "main")
//
// # Degradation Model
//
// The lowering stage never rejects a tree. Reads of undeclared names
// become zero constants, writes to them are dropped, calls to unknown
// functions vanish in statement position and produce zero in value
// position, and unsupported statement forms are skipped. Every such
// decision increments a Stats counter so callers can tell a clean
// compilation from a degraded one.
//
// # Thread Safety
//
// Compile is safe for concurrent use with distinct programs. A single
// *ast.Program must not be compiled concurrently when Optimize is set,
// because tree passes rewrite it in place.
package wasmcompiler
