package wasm

import (
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/basiclang/wasm-compiler/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseModule parses a WebAssembly binary back into a Module. It understands
// the sections Encode produces; table, element, and other proposal sections
// are rejected.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	// Check magic number
	magic, err := r.ReadFixedU32()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	// Check version
	version, err := r.ReadFixedU32()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}

	// Non-custom sections must appear in canonical order
	var lastSectionOrder int

	for r.Remaining() > 0 {
		sectionID, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, r.WrapError("section header", err)
		}

		if sectionID != SectionCustom {
			order := sectionOrder(sectionID)
			if order <= lastSectionOrder {
				return nil, fmt.Errorf("section %d appears out of order", sectionID)
			}
			lastSectionOrder = order
		}

		sectionSize, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}

		sectionData, err := r.ReadBytes(int(sectionSize))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}

		sr := binary.NewReader(sectionData)

		switch sectionID {
		case SectionCustom:
			if err := parseCustomSection(sr, m); err != nil {
				return nil, fmt.Errorf("custom section: %w", err)
			}
		case SectionType:
			if err := parseTypeSection(sr, m); err != nil {
				return nil, fmt.Errorf("type section: %w", err)
			}
		case SectionImport:
			if err := parseImportSection(sr, m); err != nil {
				return nil, fmt.Errorf("import section: %w", err)
			}
		case SectionFunction:
			if err := parseFunctionSection(sr, m); err != nil {
				return nil, fmt.Errorf("function section: %w", err)
			}
		case SectionMemory:
			if err := parseMemorySection(sr, m); err != nil {
				return nil, fmt.Errorf("memory section: %w", err)
			}
		case SectionGlobal:
			if err := parseGlobalSection(sr, m); err != nil {
				return nil, fmt.Errorf("global section: %w", err)
			}
		case SectionExport:
			if err := parseExportSection(sr, m); err != nil {
				return nil, fmt.Errorf("export section: %w", err)
			}
		case SectionStart:
			if err := parseStartSection(sr, m); err != nil {
				return nil, fmt.Errorf("start section: %w", err)
			}
		case SectionCode:
			if err := parseCodeSection(sr, m); err != nil {
				return nil, fmt.Errorf("code section: %w", err)
			}
		case SectionData:
			if err := parseDataSection(sr, m); err != nil {
				return nil, fmt.Errorf("data section: %w", err)
			}
		case SectionTable, SectionElement, SectionDataCount:
			return nil, fmt.Errorf("unsupported section ID: %d", sectionID)
		default:
			return nil, fmt.Errorf("unknown section ID: 0x%02x", sectionID)
		}
	}

	return m, nil
}

// sectionOrder returns the canonical ordering for a section ID, which
// differs from the raw ID values.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionGlobal:
		return 6
	case SectionExport:
		return 7
	case SectionStart:
		return 8
	case SectionElement:
		return 9
	case SectionDataCount:
		return 10 // DataCount must come before Code
	case SectionCode:
		return 11
	case SectionData:
		return 12
	default:
		return 100 // Unknown sections at end
	}
}

func parseCustomSection(r *binary.Reader, m *Module) error {
	name, err := r.ReadName()
	if err != nil {
		return err
	}
	rest, err := r.ReadBytes(r.Remaining())
	if err != nil {
		return err
	}
	m.CustomSections = append(m.CustomSections, CustomSection{
		Name: name,
		Data: rest,
	})
	return nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Types = make([]FuncType, 0, count)
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("read type form at index %d: %w", i, err)
		}
		if form != FuncTypeByte {
			return fmt.Errorf("unsupported type form 0x%02x at index %d", form, i)
		}

		params, err := readValTypes(r)
		if err != nil {
			return fmt.Errorf("read params at index %d: %w", i, err)
		}
		results, err := readValTypes(r)
		if err != nil {
			return fmt.Errorf("read results at index %d: %w", i, err)
		}
		m.Types = append(m.Types, FuncType{Params: params, Results: results})
	}
	return nil
}

func parseImportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Imports = make([]Import, 0, count)
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return fmt.Errorf("read import module at index %d: %w", i, err)
		}
		name, err := r.ReadName()
		if err != nil {
			return fmt.Errorf("read import name at index %d: %w", i, err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("read import kind at index %d: %w", i, err)
		}

		imp := Import{Module: module, Name: name, Desc: ImportDesc{Kind: kind}}
		switch kind {
		case KindFunc:
			typeIdx, err := r.ReadU32()
			if err != nil {
				return fmt.Errorf("read import type index at index %d: %w", i, err)
			}
			imp.Desc.TypeIdx = typeIdx
		case KindMemory:
			limits, err := readLimits(r)
			if err != nil {
				return fmt.Errorf("read import memory limits at index %d: %w", i, err)
			}
			imp.Desc.Memory = &MemoryType{Limits: limits}
		case KindGlobal:
			gt, err := readGlobalType(r)
			if err != nil {
				return fmt.Errorf("read import global type at index %d: %w", i, err)
			}
			imp.Desc.Global = &gt
		default:
			return fmt.Errorf("unsupported import kind 0x%02x at index %d", kind, i)
		}
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Funcs = make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		m.Funcs[i], err = r.ReadU32()
		if err != nil {
			return fmt.Errorf("read type index at index %d: %w", i, err)
		}
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Memories = make([]MemoryType, 0, count)
	for i := uint32(0); i < count; i++ {
		limits, err := readLimits(r)
		if err != nil {
			return fmt.Errorf("read memory limits at index %d: %w", i, err)
		}
		m.Memories = append(m.Memories, MemoryType{Limits: limits})
	}
	return nil
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Globals = make([]Global, 0, count)
	for i := uint32(0); i < count; i++ {
		gt, err := readGlobalType(r)
		if err != nil {
			return fmt.Errorf("read global type at index %d: %w", i, err)
		}
		init, err := readConstExpr(r)
		if err != nil {
			return fmt.Errorf("read global init at index %d: %w", i, err)
		}
		m.Globals = append(m.Globals, Global{Type: gt, Init: init})
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Exports = make([]Export, 0, count)
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return fmt.Errorf("read export name at index %d: %w", i, err)
		}
		kind, err := r.ReadByte()
		if err != nil {
			return fmt.Errorf("read export kind at index %d: %w", i, err)
		}
		if kind > KindGlobal {
			return fmt.Errorf("unsupported export kind 0x%02x at index %d", kind, i)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("read export index at index %d: %w", i, err)
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func parseStartSection(r *binary.Reader, m *Module) error {
	idx, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Code = make([]FuncBody, 0, count)
	for i := uint32(0); i < count; i++ {
		bodySize, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("read body size at index %d: %w", i, err)
		}
		body, err := r.ReadBytes(int(bodySize))
		if err != nil {
			return fmt.Errorf("read body at index %d: %w", i, err)
		}

		br := binary.NewReader(body)
		localCount, err := br.ReadU32()
		if err != nil {
			return fmt.Errorf("read local count at index %d: %w", i, err)
		}

		locals := make([]LocalEntry, 0, localCount)
		var totalLocals uint64
		for j := uint32(0); j < localCount; j++ {
			n, err := br.ReadU32()
			if err != nil {
				return fmt.Errorf("read local run at index %d: %w", i, err)
			}
			t, err := br.ReadByte()
			if err != nil {
				return fmt.Errorf("read local type at index %d: %w", i, err)
			}
			totalLocals += uint64(n)
			if totalLocals > math.MaxUint32 {
				return fmt.Errorf("too many locals at index %d", i)
			}
			locals = append(locals, LocalEntry{Count: n, ValType: ValType(t)})
		}

		code, err := br.ReadBytes(br.Remaining())
		if err != nil {
			return fmt.Errorf("read code at index %d: %w", i, err)
		}
		m.Code = append(m.Code, FuncBody{Locals: locals, Code: code})
	}
	return nil
}

func parseDataSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}

	m.Data = make([]DataSegment, 0, count)
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("read data flags at index %d: %w", i, err)
		}
		if flags > 2 {
			return fmt.Errorf("unsupported data flags %d at index %d", flags, i)
		}

		seg := DataSegment{Flags: flags}
		if flags == 2 {
			seg.MemIdx, err = r.ReadU32()
			if err != nil {
				return fmt.Errorf("read data memory index at index %d: %w", i, err)
			}
		}
		if flags != 1 {
			seg.Offset, err = readConstExpr(r)
			if err != nil {
				return fmt.Errorf("read data offset at index %d: %w", i, err)
			}
		}

		size, err := r.ReadU32()
		if err != nil {
			return fmt.Errorf("read data size at index %d: %w", i, err)
		}
		seg.Init, err = r.ReadBytes(int(size))
		if err != nil {
			return fmt.Errorf("read data bytes at index %d: %w", i, err)
		}
		m.Data = append(m.Data, seg)
	}
	return nil
}

func readValTypes(r *binary.Reader) ([]ValType, error) {
	count, err := r.ReadU32()
	if err != nil {
		return nil, err
	}
	types := make([]ValType, count)
	for i := uint32(0); i < count; i++ {
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		types[i] = ValType(b)
	}
	return types, nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	if flags > LimitsHasMax|LimitsShared {
		return Limits{}, fmt.Errorf("unsupported limits flags 0x%02x", flags)
	}

	l := Limits{Shared: flags&LimitsShared != 0}
	l.Min, err = r.ReadU32()
	if err != nil {
		return Limits{}, err
	}
	if flags&LimitsHasMax != 0 {
		max, err := r.ReadU32()
		if err != nil {
			return Limits{}, err
		}
		l.Max = &max
	}
	if l.Shared && l.Max == nil {
		return Limits{}, errors.New("shared memory requires a maximum")
	}
	return l, nil
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	t, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("invalid mutability flag 0x%02x", mut)
	}
	return GlobalType{ValType: ValType(t), Mutable: mut == 1}, nil
}

// readConstExpr captures a constant expression, end opcode included. Only
// the opcodes valid in initializers are accepted.
func readConstExpr(r *binary.Reader) ([]byte, error) {
	start := r.Position()
	for {
		op, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		switch op {
		case OpEnd:
			return r.BytesFrom(start), nil
		case OpI32Const:
			if _, err := r.ReadS32(); err != nil {
				return nil, err
			}
		case OpI64Const:
			if _, err := r.ReadS64(); err != nil {
				return nil, err
			}
		case OpF32Const:
			if _, err := r.ReadF32(); err != nil {
				return nil, err
			}
		case OpF64Const:
			if _, err := r.ReadF64(); err != nil {
				return nil, err
			}
		case OpGlobalGet:
			if _, err := r.ReadU32(); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("invalid opcode 0x%02x in constant expression", op)
		}
	}
}
