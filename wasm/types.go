package wasm

// Module is a WebAssembly module being assembled or inspected. The Add*
// methods grow the index spaces; Encode serializes the result.
type Module struct {
	Types    []FuncType
	Imports  []Import
	Funcs    []uint32 // Type indices for declared functions
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Start    *uint32
	Code     []FuncBody
	Data     []DataSegment

	CustomSections []CustomSection
}

// FuncType represents a function signature with parameter and result types.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// ValType represents a WebAssembly value type.
// See constants.go for ValI32, ValI64, ValF32, ValF64, etc.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	default:
		return "unknown"
	}
}

// Import represents an imported function, memory, or global.
type Import struct {
	Desc   ImportDesc
	Module string
	Name   string
}

// ImportDesc describes an imported item.
// Kind uses KindFunc, KindMemory, or KindGlobal constants.
type ImportDesc struct {
	Memory  *MemoryType
	Global  *GlobalType
	TypeIdx uint32
	Kind    byte
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
}

// Limits describes size constraints for a memory, in 64 KiB pages.
type Limits struct {
	Max    *uint32
	Min    uint32
	Shared bool
}

// GlobalType describes a global variable's type and mutability.
type GlobalType struct {
	ValType ValType
	Mutable bool
}

// Global represents a global variable with type and initialization.
type Global struct {
	Type GlobalType
	Init []byte // Raw init expression bytes, end opcode included
}

// Export describes an exported item.
// Kind uses KindFunc, KindMemory, or KindGlobal constants.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// FuncBody represents a function's local declarations and bytecode.
type FuncBody struct {
	Locals []LocalEntry
	Code   []byte // Raw code bytes including end opcode
}

// LocalEntry represents a run of local variables sharing one type.
type LocalEntry struct {
	Count   uint32
	ValType ValType
}

// DataSegment represents a data segment.
// Flags determine the format:
//   - 0: active, memIdx=0, offset expr, vec(byte)
//   - 1: passive, vec(byte)
//   - 2: active, memIdx, offset expr, vec(byte)
type DataSegment struct {
	Offset []byte
	Init   []byte
	Flags  uint32
	MemIdx uint32
}

// CustomSection holds a named custom section's data.
type CustomSection struct {
	Name string
	Data []byte
}

// ModuleConfig sizes the default linear memory seeded by NewModule.
type ModuleConfig struct {
	// MemoryPages is the initial memory size in pages. Zero means one page.
	MemoryPages uint32
	// MaxMemoryPages bounds memory growth. Zero means no maximum, unless
	// SharedMemory is set, in which case the format requires a maximum and
	// MemoryMaxPages is used.
	MaxMemoryPages uint32
	// SharedMemory marks the memory shared for use with threads.
	SharedMemory bool
}

// NewModule creates a module with one linear memory exported as "memory".
// The memory section and its export are always emitted even when nothing
// else is added.
func NewModule(cfg ModuleConfig) *Module {
	min := cfg.MemoryPages
	if min == 0 {
		min = 1
	}
	limits := Limits{Min: min, Shared: cfg.SharedMemory}
	if cfg.MaxMemoryPages > 0 {
		max := cfg.MaxMemoryPages
		limits.Max = &max
	} else if cfg.SharedMemory {
		max := MemoryMaxPages
		limits.Max = &max
	}

	m := &Module{
		Memories: []MemoryType{{Limits: limits}},
	}
	m.AddExport("memory", KindMemory, 0)
	return m
}

// AddType adds a function type and returns its index, reusing an existing
// entry when one is structurally equal
func (m *Module) AddType(ft FuncType) uint32 {
	for i, t := range m.Types {
		if typesEqual(t, ft) {
			return uint32(i)
		}
	}
	idx := uint32(len(m.Types))
	m.Types = append(m.Types, ft)
	return idx
}

func typesEqual(a, b FuncType) bool {
	if len(a.Params) != len(b.Params) || len(a.Results) != len(b.Results) {
		return false
	}
	for i := range a.Params {
		if a.Params[i] != b.Params[i] {
			return false
		}
	}
	for i := range a.Results {
		if a.Results[i] != b.Results[i] {
			return false
		}
	}
	return true
}

// AddImport records a function import and returns its index in the function
// space. Imported functions occupy the low indices, so all imports must be
// registered before the first AddFunction call.
func (m *Module) AddImport(module, name string, sig FuncType) uint32 {
	typeIdx := m.AddType(sig)
	m.Imports = append(m.Imports, Import{
		Module: module,
		Name:   name,
		Desc:   ImportDesc{Kind: KindFunc, TypeIdx: typeIdx},
	})
	return uint32(m.NumImportedFuncs() - 1)
}

// AddFunction declares a function with the given signature, locals, and body
// bytes, and returns its index in the function space. The signature is
// deduplicated against the type table.
func (m *Module) AddFunction(sig FuncType, locals []LocalEntry, body []byte) uint32 {
	typeIdx := m.AddType(sig)
	idx := uint32(m.NumImportedFuncs() + len(m.Funcs))
	m.Funcs = append(m.Funcs, typeIdx)
	m.Code = append(m.Code, FuncBody{Locals: locals, Code: body})
	return idx
}

// AddGlobal appends a global variable and returns its index. The init bytes
// are a complete constant expression, end opcode included.
func (m *Module) AddGlobal(t ValType, mutable bool, init []byte) uint32 {
	idx := uint32(len(m.Globals))
	m.Globals = append(m.Globals, Global{
		Type: GlobalType{ValType: t, Mutable: mutable},
		Init: init,
	})
	return idx
}

// AddExport records an export of the item at idx under name. Duplicate names
// are not merged; each call appends a new export record.
func (m *Module) AddExport(name string, kind byte, idx uint32) {
	m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
}

// AddData appends an active data segment placing init at the given memory
// offset, and returns the segment index.
func (m *Module) AddData(offset uint32, init []byte) uint32 {
	expr := []byte{OpI32Const}
	expr = append(expr, EncodeLEB128s(int32(offset))...)
	expr = append(expr, OpEnd)

	idx := uint32(len(m.Data))
	m.Data = append(m.Data, DataSegment{Offset: expr, Init: init})
	return idx
}

// NumImportedFuncs returns the number of imported functions
func (m *Module) NumImportedFuncs() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc {
			count++
		}
	}
	return count
}

// NumImportedGlobals returns the number of imported globals
func (m *Module) NumImportedGlobals() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindGlobal {
			count++
		}
	}
	return count
}

// NumImportedMemories returns the number of imported memories
func (m *Module) NumImportedMemories() int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory {
			count++
		}
	}
	return count
}

// GetFuncType returns the type of a function by its index in the function
// space, or nil if the index is out of range
func (m *Module) GetFuncType(funcIdx uint32) *FuncType {
	numImported := uint32(m.NumImportedFuncs())
	if funcIdx < numImported {
		for i := range m.Imports {
			if m.Imports[i].Desc.Kind != KindFunc {
				continue
			}
			if funcIdx == 0 {
				return m.typeByIdx(m.Imports[i].Desc.TypeIdx)
			}
			funcIdx--
		}
	}
	localIdx := funcIdx - numImported
	if int(localIdx) >= len(m.Funcs) {
		return nil
	}
	return m.typeByIdx(m.Funcs[localIdx])
}

func (m *Module) typeByIdx(typeIdx uint32) *FuncType {
	if int(typeIdx) >= len(m.Types) {
		return nil
	}
	return &m.Types[typeIdx]
}
