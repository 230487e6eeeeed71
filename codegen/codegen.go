package codegen

import (
	"go.uber.org/zap"

	"github.com/basiclang/wasm-compiler/ast"
	"github.com/basiclang/wasm-compiler/types"
	"github.com/basiclang/wasm-compiler/wasm"
)

// hostModule is the import module every generated binary binds at
// instantiation time.
const hostModule = "env"

// String constants live in fixed-size slots so repeated literals share
// one address and the pool never needs relocation.
const (
	stringBase uint32 = 1024
	stringSlot uint32 = 256
)

// Config controls how a Generator shapes its output module.
type Config struct {
	// SIMD substitutes four-lane vector arithmetic for binary expressions
	// the front end marked vectorizable.
	SIMD bool

	// Threads marks the linear memory shared. Shared memories require a
	// maximum, so MaxMemoryPages defaults to the architectural limit when
	// unset.
	Threads bool

	// MemoryPages is the initial linear memory size in 64 KiB pages.
	// Zero means one page.
	MemoryPages uint32

	// MaxMemoryPages bounds memory growth. Zero means no maximum unless
	// Threads forces one.
	MaxMemoryPages uint32

	// DebugNames appends a "name" custom section carrying the module name
	// and per-function names, imports included.
	DebugNames bool

	// ModuleName overrides the program name in the name section.
	ModuleName string
}

// Stats describes one finished compilation: what the module contains and
// how often lowering had to fall back on a default.
type Stats struct {
	Functions       int
	Types           int
	Globals         int
	DataSegments    int
	InternedStrings int

	// DefaultedNames counts variable reads and writes that resolved to
	// neither a local nor a global.
	DefaultedNames int
	// DefaultedCalls counts calls whose callee is not registered.
	DefaultedCalls int
	// DefaultedExprs counts expressions with no lowering rule.
	DefaultedExprs int
	// SkippedStmts counts statements with no lowering rule.
	SkippedStmts int
}

type funcInfo struct {
	idx         uint32
	hasResult   bool
	floatResult bool
}

type globalVar struct {
	idx uint32
	typ wasm.ValType
}

// Generator lowers one program into one module. It owns the module-scope
// symbol tables; per-function state lives in a funcBuilder created for
// each function in turn. A Generator is spent after Generate returns.
type Generator struct {
	cfg     Config
	mod     *wasm.Module
	globals map[string]globalVar
	funcs   map[string]funcInfo
	strings *stringPool
	names   map[uint32]string
	stats   Stats
}

// New creates a generator targeting a fresh module sized by cfg.
func New(cfg Config) *Generator {
	return &Generator{
		cfg: cfg,
		mod: wasm.NewModule(wasm.ModuleConfig{
			MemoryPages:    cfg.MemoryPages,
			MaxMemoryPages: cfg.MaxMemoryPages,
			SharedMemory:   cfg.Threads,
		}),
		globals: make(map[string]globalVar),
		funcs:   make(map[string]funcInfo),
		strings: newStringPool(),
		names:   make(map[uint32]string),
	}
}

// Generate lowers prog with a one-shot generator.
func Generate(prog *ast.Program, cfg Config) (*wasm.Module, Stats) {
	return New(cfg).Generate(prog)
}

// Generate lowers prog and returns the finished module together with the
// compilation stats. Lowering never fails: unresolved names and
// unsupported constructs degrade to defaults and are counted instead.
func (g *Generator) Generate(prog *ast.Program) (*wasm.Module, Stats) {
	g.registerImports()
	g.registerGlobals(prog.Decls)
	g.registerFuncs(prog.Funcs)

	for i := range prog.Funcs {
		g.lowerFunc(&prog.Funcs[i])
	}

	if g.cfg.DebugNames {
		name := g.cfg.ModuleName
		if name == "" {
			name = prog.Name
		}
		g.mod.CustomSections = append(g.mod.CustomSections, wasm.CustomSection{
			Name: wasm.NameSectionID,
			Data: wasm.BuildNameSection(name, g.names),
		})
	}

	g.stats.Functions = len(g.mod.Funcs)
	g.stats.Types = len(g.mod.Types)
	g.stats.Globals = len(g.mod.Globals)
	g.stats.DataSegments = len(g.mod.Data)
	g.stats.InternedStrings = g.strings.count()

	Logger().Debug("program lowered",
		zap.String("program", prog.Name),
		zap.Int("functions", g.stats.Functions),
		zap.Int("globals", g.stats.Globals),
		zap.Int("strings", g.stats.InternedStrings),
		zap.Int("skipped_statements", g.stats.SkippedStmts),
		zap.Int("defaulted_names", g.stats.DefaultedNames),
		zap.Int("defaulted_calls", g.stats.DefaultedCalls))

	return g.mod, g.stats
}

// registerImports binds the host intrinsics. Imported functions occupy
// the front of the index space, so this must run before any AddFunction.
func (g *Generator) registerImports() {
	mathSig := wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValF64},
		Results: []wasm.ValType{wasm.ValF64},
	}
	for _, name := range []string{"sin", "cos", "sqrt"} {
		idx := g.mod.AddImport(hostModule, name, mathSig)
		g.funcs[name] = funcInfo{idx: idx, hasResult: true, floatResult: true}
		g.names[idx] = name
	}

	logSig := wasm.FuncType{Params: []wasm.ValType{wasm.ValF64}}
	idx := g.mod.AddImport(hostModule, "log_value", logSig)
	g.funcs["log_value"] = funcInfo{idx: idx}
	g.names[idx] = "log_value"
}

// registerGlobals turns top-level variable declarations into mutable
// module globals with zero initializers. The first declaration of a name
// wins.
func (g *Generator) registerGlobals(decls []ast.Decl) {
	for _, d := range decls {
		if d.Kind != ast.KindVar {
			continue
		}
		if _, ok := g.globals[d.Name]; ok {
			Logger().Debug("duplicate global ignored", zap.String("name", d.Name))
			continue
		}
		t := types.MapType(d.Type)
		idx := g.mod.AddGlobal(t, true, types.ZeroConst(t))
		g.globals[d.Name] = globalVar{idx: idx, typ: t}
	}
}

// registerFuncs assigns every function its final index before any body is
// lowered so forward and mutual calls resolve. Function i lands at
// index base+i because lowerFunc adds bodies in the same order.
func (g *Generator) registerFuncs(funcs []ast.Func) {
	base := uint32(g.mod.NumImportedFuncs())
	for i := range funcs {
		f := &funcs[i]
		idx := base + uint32(i)
		info := funcInfo{idx: idx, hasResult: f.Result != ""}
		if info.hasResult {
			info.floatResult = types.IsFloat(types.MapType(f.Result))
		}
		if _, ok := g.funcs[f.Name]; ok {
			Logger().Debug("duplicate function name keeps first registration",
				zap.String("name", f.Name))
		} else {
			g.funcs[f.Name] = info
		}
		g.names[idx] = f.Name
	}
}

// lowerFunc compiles one function body and records its exports. Public
// functions export under their source name; the entry point "Main" is
// additionally exported as "main" whether or not it is public.
func (g *Generator) lowerFunc(f *ast.Func) {
	b := newFuncBuilder(g, f)
	sig, locals, body := b.build()
	idx := g.mod.AddFunction(sig, locals, body)
	if f.Public {
		g.mod.AddExport(f.Name, wasm.KindFunc, idx)
	}
	if f.Name == "Main" {
		g.mod.AddExport("main", wasm.KindFunc, idx)
	}
}

// stringPool interns string literals into linear memory. Each distinct
// string claims one slot; contents longer than a slot are truncated.
type stringPool struct {
	slots map[string]uint32
	next  uint32
}

func newStringPool() *stringPool {
	return &stringPool{slots: make(map[string]uint32), next: stringBase}
}

// intern returns the memory offset for s, appending a data segment the
// first time a string is seen.
func (p *stringPool) intern(m *wasm.Module, s string) uint32 {
	if off, ok := p.slots[s]; ok {
		return off
	}
	data := []byte(s)
	if uint32(len(data)) > stringSlot {
		data = data[:stringSlot]
	}
	off := p.next
	p.next += stringSlot
	p.slots[s] = off
	m.AddData(off, data)
	return off
}

func (p *stringPool) count() int {
	return len(p.slots)
}
