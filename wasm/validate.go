package wasm

import "fmt"

// Validate checks the module for structural validity: index references in
// bounds, function and code counts matching, and sane memory limits.
// Duplicate export names are deliberately not rejected; the builder
// documents them as appendable records.
func (m *Module) Validate() error {
	if err := m.validateTypeIndices(); err != nil {
		return err
	}
	if err := m.validateFunctionIndices(); err != nil {
		return err
	}
	if err := m.validateMemoryIndices(); err != nil {
		return err
	}
	if err := m.validateGlobalIndices(); err != nil {
		return err
	}
	if err := m.validateStart(); err != nil {
		return err
	}
	if err := m.validateCodeCount(); err != nil {
		return err
	}
	if err := m.validateMemoryLimits(); err != nil {
		return err
	}
	if err := m.validateBodies(); err != nil {
		return err
	}
	return nil
}

// ParseModuleValidate parses a WebAssembly binary and validates it.
// This is a convenience function combining ParseModule and Validate.
func ParseModuleValidate(data []byte) (*Module, error) {
	m, err := ParseModule(data)
	if err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Module) validateTypeIndices() error {
	numTypes := uint32(len(m.Types))

	for i, typeIdx := range m.Funcs {
		if typeIdx >= numTypes {
			return fmt.Errorf("function %d references invalid type index %d", i, typeIdx)
		}
	}

	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindFunc && imp.Desc.TypeIdx >= numTypes {
			return fmt.Errorf("import %d (%s.%s) references invalid type index %d", i, imp.Module, imp.Name, imp.Desc.TypeIdx)
		}
	}

	return nil
}

func (m *Module) validateFunctionIndices() error {
	numFuncs := uint32(m.NumImportedFuncs() + len(m.Funcs))

	if m.Start != nil && *m.Start >= numFuncs {
		return fmt.Errorf("start function index %d exceeds function count %d", *m.Start, numFuncs)
	}

	for i, exp := range m.Exports {
		if exp.Kind == KindFunc && exp.Idx >= numFuncs {
			return fmt.Errorf("export %d (%s) references invalid function index %d", i, exp.Name, exp.Idx)
		}
	}

	return nil
}

func (m *Module) validateMemoryIndices() error {
	numMemories := uint32(m.NumImportedMemories() + len(m.Memories))

	if numMemories > 1 {
		return fmt.Errorf("at most one memory is allowed, found %d", numMemories)
	}

	// Active data segments must target an existing memory
	for i, data := range m.Data {
		if data.Flags != 1 && data.MemIdx >= numMemories {
			return fmt.Errorf("data segment %d references invalid memory index %d", i, data.MemIdx)
		}
	}

	for i, exp := range m.Exports {
		if exp.Kind == KindMemory && exp.Idx >= numMemories {
			return fmt.Errorf("export %d (%s) references invalid memory index %d", i, exp.Name, exp.Idx)
		}
	}

	return nil
}

func (m *Module) validateGlobalIndices() error {
	numGlobals := uint32(m.NumImportedGlobals() + len(m.Globals))

	for i, exp := range m.Exports {
		if exp.Kind == KindGlobal && exp.Idx >= numGlobals {
			return fmt.Errorf("export %d (%s) references invalid global index %d", i, exp.Name, exp.Idx)
		}
	}

	return nil
}

func (m *Module) validateStart() error {
	if m.Start == nil {
		return nil
	}

	funcType := m.GetFuncType(*m.Start)
	if funcType == nil {
		return fmt.Errorf("start function %d has no type", *m.Start)
	}

	if len(funcType.Params) != 0 || len(funcType.Results) != 0 {
		return fmt.Errorf("start function must have signature [] -> [], got [%d params] -> [%d results]",
			len(funcType.Params), len(funcType.Results))
	}

	return nil
}

func (m *Module) validateCodeCount() error {
	if len(m.Code) != len(m.Funcs) {
		return fmt.Errorf("code section has %d entries but function section has %d",
			len(m.Code), len(m.Funcs))
	}
	return nil
}

func (m *Module) validateMemoryLimits() error {
	for i, imp := range m.Imports {
		if imp.Desc.Kind == KindMemory && imp.Desc.Memory != nil {
			if err := validateMemoryType(imp.Desc.Memory, i, true); err != nil {
				return err
			}
		}
	}
	for i := range m.Memories {
		if err := validateMemoryType(&m.Memories[i], i, false); err != nil {
			return err
		}
	}
	return nil
}

func validateMemoryType(mem *MemoryType, idx int, isImport bool) error {
	prefix := "memory"
	if isImport {
		prefix = "imported memory"
	}

	// Shared memory requires maximum limit
	if mem.Limits.Shared && mem.Limits.Max == nil {
		return fmt.Errorf("%s %d: shared memory must have maximum limit", prefix, idx)
	}

	if mem.Limits.Min > MemoryMaxPages {
		return fmt.Errorf("%s %d: min pages %d exceeds maximum %d",
			prefix, idx, mem.Limits.Min, MemoryMaxPages)
	}
	if mem.Limits.Max != nil {
		if *mem.Limits.Max > MemoryMaxPages {
			return fmt.Errorf("%s %d: max pages %d exceeds maximum %d",
				prefix, idx, *mem.Limits.Max, MemoryMaxPages)
		}
		if *mem.Limits.Max < mem.Limits.Min {
			return fmt.Errorf("%s %d: max pages %d below min pages %d",
				prefix, idx, *mem.Limits.Max, mem.Limits.Min)
		}
	}
	return nil
}

// validateBodies decodes each function body and checks that local, global,
// and call references stay in bounds, and that every body terminates with
// an end opcode.
func (m *Module) validateBodies() error {
	numImported := m.NumImportedFuncs()
	numFuncs := uint32(numImported + len(m.Funcs))
	numGlobals := uint32(m.NumImportedGlobals() + len(m.Globals))

	for i := range m.Code {
		body := &m.Code[i]
		if len(body.Code) == 0 || body.Code[len(body.Code)-1] != OpEnd {
			return fmt.Errorf("function %d body does not terminate with end", i)
		}

		ft := m.GetFuncType(uint32(numImported + i))
		if ft == nil {
			return fmt.Errorf("function %d has no resolvable type", i)
		}
		numLocals := uint64(len(ft.Params))
		for _, le := range body.Locals {
			numLocals += uint64(le.Count)
		}

		instrs, err := DecodeInstructions(body.Code)
		if err != nil {
			return fmt.Errorf("function %d body: %w", i, err)
		}
		for _, ins := range instrs {
			if target, ok := ins.GetCallTarget(); ok && target >= numFuncs {
				return fmt.Errorf("function %d calls invalid function index %d", i, target)
			}
			switch imm := ins.Imm.(type) {
			case LocalImm:
				if uint64(imm.LocalIdx) >= numLocals {
					return fmt.Errorf("function %d references invalid local index %d", i, imm.LocalIdx)
				}
			case GlobalImm:
				if imm.GlobalIdx >= numGlobals {
					return fmt.Errorf("function %d references invalid global index %d", i, imm.GlobalIdx)
				}
			}
		}
	}
	return nil
}
