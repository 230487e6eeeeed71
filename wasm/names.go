package wasm

import (
	"sort"

	"github.com/basiclang/wasm-compiler/wasm/internal/binary"
)

// Name section subsection identifiers.
const (
	nameSubsectionModule byte = 0
	nameSubsectionFuncs  byte = 1
)

// NameSectionID is the conventional name of the debug-names custom section.
const NameSectionID = "name"

// BuildNameSection serializes a "name" custom section payload carrying the
// module name and a function-index-to-name map. Entries are sorted by
// function index as the format requires.
func BuildNameSection(moduleName string, funcNames map[uint32]string) []byte {
	w := binary.NewWriter()

	if moduleName != "" {
		sub := binary.NewWriter()
		sub.WriteName(moduleName)
		w.WriteByte(nameSubsectionModule)
		w.WriteU32(uint32(sub.Len()))
		w.WriteBytes(sub.Bytes())
	}

	if len(funcNames) > 0 {
		indices := make([]uint32, 0, len(funcNames))
		for idx := range funcNames {
			indices = append(indices, idx)
		}
		sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })

		sub := binary.NewWriter()
		sub.WriteU32(uint32(len(indices)))
		for _, idx := range indices {
			sub.WriteU32(idx)
			sub.WriteName(funcNames[idx])
		}
		w.WriteByte(nameSubsectionFuncs)
		w.WriteU32(uint32(sub.Len()))
		w.WriteBytes(sub.Bytes())
	}

	return w.Bytes()
}

// ParseNameSection extracts the module name and function names from a "name"
// custom section payload. Unknown subsections are skipped.
func ParseNameSection(data []byte) (moduleName string, funcNames map[uint32]string, err error) {
	r := binary.NewReader(data)
	funcNames = make(map[uint32]string)

	for r.Remaining() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return "", nil, err
		}
		size, err := r.ReadU32()
		if err != nil {
			return "", nil, err
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return "", nil, err
		}

		sr := binary.NewReader(payload)
		switch id {
		case nameSubsectionModule:
			moduleName, err = sr.ReadName()
			if err != nil {
				return "", nil, err
			}
		case nameSubsectionFuncs:
			count, err := sr.ReadU32()
			if err != nil {
				return "", nil, err
			}
			for i := uint32(0); i < count; i++ {
				idx, err := sr.ReadU32()
				if err != nil {
					return "", nil, err
				}
				name, err := sr.ReadName()
				if err != nil {
					return "", nil, err
				}
				funcNames[idx] = name
			}
		}
	}

	return moduleName, funcNames, nil
}

// FuncNames returns the function names recorded in the module's "name"
// custom section, or an empty map when none is present.
func (m *Module) FuncNames() map[uint32]string {
	for _, cs := range m.CustomSections {
		if cs.Name != NameSectionID {
			continue
		}
		_, names, err := ParseNameSection(cs.Data)
		if err != nil {
			break
		}
		return names
	}
	return map[uint32]string{}
}
