package wasmcompiler

import (
	"context"

	"github.com/basiclang/wasm-compiler/ast"
	"github.com/basiclang/wasm-compiler/codegen"
	"github.com/basiclang/wasm-compiler/optimize"
)

// Options configures a compilation. The zero value produces an
// unoptimized scalar binary with one page of exported memory.
type Options struct {
	// Optimize runs constant folding and dead-branch elimination on
	// the tree before lowering. The program is rewritten in place.
	Optimize bool

	// SIMD substitutes vector instructions for arithmetic the front
	// end tagged vectorizable.
	SIMD bool

	// Threads marks linear memory shared so the binary can back
	// multi-worker execution. Shared memory forces a maximum size.
	Threads bool

	// Streaming is advisory for callers that instantiate: prefer
	// engine.InstantiateStreaming. The emitted bytes are identical
	// either way.
	Streaming bool

	// CacheDir is advisory for callers that instantiate: the host
	// engine's compilation cache directory. Empty disables caching.
	CacheDir string

	// MemoryPages is the initial linear memory size in 64 KiB pages.
	// Zero means one page.
	MemoryPages uint32

	// MaxMemoryPages caps linear memory growth. Zero leaves growth
	// unbounded unless Threads forces a maximum.
	MaxMemoryPages uint32

	// TableSize is accepted for callers that preallocate call tables.
	// Emission currently uses no table, so the value has no effect on
	// the binary.
	TableSize uint32

	// DebugNames attaches a name section mapping function indices to
	// their source names.
	DebugNames bool

	// ModuleName overrides the program name recorded in the name
	// section when DebugNames is set.
	ModuleName string
}

func (o Options) withDefaults() Options {
	if o.MemoryPages == 0 {
		o.MemoryPages = 1
	}
	return o
}

// Stats reports what a compilation produced. The embedded lowering
// counters tell a clean compilation (all zero degradation counts) from
// one that fell back to defaults.
type Stats struct {
	codegen.Stats

	// BinarySize is the emitted binary's length in bytes.
	BinarySize int
}

// Compile lowers prog to a loadable WebAssembly binary. Lowering never
// fails: unresolved names and unsupported constructs degrade to zero
// values and are counted in Stats. The only error Compile returns is
// ctx's, checked between phases.
func Compile(ctx context.Context, prog *ast.Program, opts Options) ([]byte, Stats, error) {
	opts = opts.withDefaults()

	if opts.Optimize {
		optimize.Apply(prog)
	}
	if err := ctx.Err(); err != nil {
		return nil, Stats{}, err
	}

	m, lowered := codegen.Generate(prog, codegen.Config{
		SIMD:           opts.SIMD,
		Threads:        opts.Threads,
		MemoryPages:    opts.MemoryPages,
		MaxMemoryPages: opts.MaxMemoryPages,
		DebugNames:     opts.DebugNames,
		ModuleName:     opts.ModuleName,
	})
	data := m.Encode()

	return data, Stats{Stats: lowered, BinarySize: len(data)}, nil
}
