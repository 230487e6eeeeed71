package wasm

import (
	"fmt"
	"strings"
)

// Disassemble renders the module as a flat text listing in the style of the
// WebAssembly text format. The output is for inspection and logging; it is
// not meant to round-trip through a text assembler.
func Disassemble(m *Module) string {
	var b strings.Builder

	moduleName := ""
	for _, cs := range m.CustomSections {
		if cs.Name == NameSectionID {
			if name, _, err := ParseNameSection(cs.Data); err == nil {
				moduleName = name
			}
		}
	}
	if moduleName != "" {
		fmt.Fprintf(&b, "(module $%s\n", moduleName)
	} else {
		b.WriteString("(module\n")
	}

	funcNames := m.FuncNames()

	for _, imp := range m.Imports {
		switch imp.Desc.Kind {
		case KindFunc:
			sig := ""
			if ft := m.typeByIdx(imp.Desc.TypeIdx); ft != nil {
				sig = signatureString(*ft)
			}
			fmt.Fprintf(&b, "  (import %q %q (func%s))\n", imp.Module, imp.Name, sig)
		case KindMemory:
			if imp.Desc.Memory != nil {
				fmt.Fprintf(&b, "  (import %q %q (memory %s))\n", imp.Module, imp.Name, limitsString(imp.Desc.Memory.Limits))
			}
		case KindGlobal:
			if imp.Desc.Global != nil {
				fmt.Fprintf(&b, "  (import %q %q (global %s))\n", imp.Module, imp.Name, globalTypeString(*imp.Desc.Global))
			}
		}
	}

	for _, mem := range m.Memories {
		fmt.Fprintf(&b, "  (memory %s)\n", limitsString(mem.Limits))
	}

	for i, g := range m.Globals {
		fmt.Fprintf(&b, "  (global %d %s %s)\n", i, globalTypeString(g.Type), constExprString(g.Init))
	}

	numImported := m.NumImportedFuncs()
	for i := range m.Code {
		funcIdx := uint32(numImported + i)
		label := fmt.Sprintf("%d", funcIdx)
		if name, ok := funcNames[funcIdx]; ok {
			label = "$" + name
		}
		sig := ""
		if ft := m.GetFuncType(funcIdx); ft != nil {
			sig = signatureString(*ft)
		}
		fmt.Fprintf(&b, "  (func %s%s\n", label, sig)

		for _, le := range m.Code[i].Locals {
			fmt.Fprintf(&b, "    (local %d %s)\n", le.Count, le.ValType)
		}

		writeBody(&b, m.Code[i].Code)
		b.WriteString("  )\n")
	}

	for _, exp := range m.Exports {
		fmt.Fprintf(&b, "  (export %q (%s %d))\n", exp.Name, exportKindString(exp.Kind), exp.Idx)
	}

	for _, d := range m.Data {
		fmt.Fprintf(&b, "  (data (%s) %q)\n", constExprString(d.Offset), string(d.Init))
	}

	b.WriteString(")\n")
	return b.String()
}

func writeBody(b *strings.Builder, code []byte) {
	instrs, err := DecodeInstructions(code)
	if err != nil {
		fmt.Fprintf(b, "    ;; body decode failed: %v\n", err)
		return
	}

	depth := 2
	for i, ins := range instrs {
		switch ins.Opcode {
		case OpEnd:
			depth--
			if depth < 1 {
				depth = 1
			}
			if i == len(instrs)-1 {
				// Closing end of the body itself
				continue
			}
		case OpElse:
			depth--
		}

		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(instructionString(ins))
		b.WriteByte('\n')

		switch ins.Opcode {
		case OpBlock, OpLoop, OpIf, OpElse:
			depth++
		}
	}
}

func instructionString(ins Instruction) string {
	name := opcodeName(ins.Opcode)

	switch imm := ins.Imm.(type) {
	case BlockImm:
		if imm.Type == BlockTypeVoid {
			return name
		}
		return fmt.Sprintf("%s (result %s)", name, ValType(byte(imm.Type&0x7F)))
	case BranchImm:
		return fmt.Sprintf("%s %d", name, imm.LabelIdx)
	case BrTableImm:
		parts := make([]string, 0, len(imm.Labels)+1)
		for _, l := range imm.Labels {
			parts = append(parts, fmt.Sprintf("%d", l))
		}
		parts = append(parts, fmt.Sprintf("%d", imm.Default))
		return name + " " + strings.Join(parts, " ")
	case CallImm:
		return fmt.Sprintf("%s %d", name, imm.FuncIdx)
	case CallIndirectImm:
		return fmt.Sprintf("%s %d %d", name, imm.TypeIdx, imm.TableIdx)
	case LocalImm:
		return fmt.Sprintf("%s %d", name, imm.LocalIdx)
	case GlobalImm:
		return fmt.Sprintf("%s %d", name, imm.GlobalIdx)
	case MemoryImm:
		if imm.Offset == 0 {
			return name
		}
		return fmt.Sprintf("%s offset=%d", name, imm.Offset)
	case MemoryIdxImm:
		return name
	case I32Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	case I64Imm:
		return fmt.Sprintf("%s %d", name, imm.Value)
	case F32Imm:
		return fmt.Sprintf("%s %g", name, imm.Value)
	case F64Imm:
		return fmt.Sprintf("%s %g", name, imm.Value)
	case MiscImm:
		return miscName(imm.SubOpcode)
	case SIMDImm:
		return simdString(imm)
	default:
		return name
	}
}

func signatureString(ft FuncType) string {
	var b strings.Builder
	if len(ft.Params) > 0 {
		b.WriteString(" (param")
		for _, p := range ft.Params {
			b.WriteByte(' ')
			b.WriteString(p.String())
		}
		b.WriteByte(')')
	}
	if len(ft.Results) > 0 {
		b.WriteString(" (result")
		for _, r := range ft.Results {
			b.WriteByte(' ')
			b.WriteString(r.String())
		}
		b.WriteByte(')')
	}
	return b.String()
}

func limitsString(l Limits) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d", l.Min)
	if l.Max != nil {
		fmt.Fprintf(&b, " %d", *l.Max)
	}
	if l.Shared {
		b.WriteString(" shared")
	}
	return b.String()
}

func globalTypeString(gt GlobalType) string {
	if gt.Mutable {
		return fmt.Sprintf("(mut %s)", gt.ValType)
	}
	return gt.ValType.String()
}

func exportKindString(kind byte) string {
	switch kind {
	case KindFunc:
		return "func"
	case KindTable:
		return "table"
	case KindMemory:
		return "memory"
	case KindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

func constExprString(expr []byte) string {
	instrs, err := DecodeInstructions(expr)
	if err != nil || len(instrs) == 0 {
		return fmt.Sprintf(";; %d expr bytes", len(expr))
	}
	parts := make([]string, 0, len(instrs))
	for _, ins := range instrs {
		if ins.Opcode == OpEnd {
			continue
		}
		parts = append(parts, instructionString(ins))
	}
	return strings.Join(parts, " ")
}

func simdString(imm SIMDImm) string {
	name := simdName(imm.SubOpcode)
	switch {
	case imm.SubOpcode == SimdV128Const:
		parts := make([]string, len(imm.V128Bytes))
		for i, by := range imm.V128Bytes {
			parts[i] = fmt.Sprintf("0x%02x", by)
		}
		return name + " " + strings.Join(parts, " ")
	case imm.LaneIdx != nil && imm.MemArg != nil:
		return fmt.Sprintf("%s offset=%d %d", name, imm.MemArg.Offset, *imm.LaneIdx)
	case imm.LaneIdx != nil:
		return fmt.Sprintf("%s %d", name, *imm.LaneIdx)
	case imm.MemArg != nil && imm.MemArg.Offset != 0:
		return fmt.Sprintf("%s offset=%d", name, imm.MemArg.Offset)
	default:
		return name
	}
}

func opcodeName(op byte) string {
	if name, ok := opcodeNames[op]; ok {
		return name
	}
	return fmt.Sprintf("0x%02x", op)
}

func miscName(subOp uint32) string {
	switch subOp {
	case MiscI32TruncSatF32S:
		return "i32.trunc_sat_f32_s"
	case MiscI32TruncSatF32U:
		return "i32.trunc_sat_f32_u"
	case MiscI32TruncSatF64S:
		return "i32.trunc_sat_f64_s"
	case MiscI32TruncSatF64U:
		return "i32.trunc_sat_f64_u"
	case MiscI64TruncSatF32S:
		return "i64.trunc_sat_f32_s"
	case MiscI64TruncSatF32U:
		return "i64.trunc_sat_f32_u"
	case MiscI64TruncSatF64S:
		return "i64.trunc_sat_f64_s"
	case MiscI64TruncSatF64U:
		return "i64.trunc_sat_f64_u"
	case MiscMemoryInit:
		return "memory.init"
	case MiscDataDrop:
		return "data.drop"
	case MiscMemoryCopy:
		return "memory.copy"
	case MiscMemoryFill:
		return "memory.fill"
	default:
		return fmt.Sprintf("misc.0x%02x", subOp)
	}
}

func simdName(subOp uint32) string {
	switch subOp {
	case SimdV128Load:
		return "v128.load"
	case SimdV128Store:
		return "v128.store"
	case SimdV128Const:
		return "v128.const"
	case SimdI8x16Shuffle:
		return "i8x16.shuffle"
	case SimdI32x4Splat:
		return "i32x4.splat"
	case SimdF32x4Splat:
		return "f32x4.splat"
	case SimdF64x2Splat:
		return "f64x2.splat"
	case SimdI32x4Add:
		return "i32x4.add"
	case SimdI32x4Sub:
		return "i32x4.sub"
	case SimdI32x4Mul:
		return "i32x4.mul"
	case SimdF32x4Add:
		return "f32x4.add"
	case SimdF32x4Sub:
		return "f32x4.sub"
	case SimdF32x4Mul:
		return "f32x4.mul"
	case SimdF32x4Div:
		return "f32x4.div"
	case SimdF64x2Add:
		return "f64x2.add"
	case SimdF64x2Sub:
		return "f64x2.sub"
	case SimdF64x2Mul:
		return "f64x2.mul"
	case SimdF64x2Div:
		return "f64x2.div"
	default:
		return fmt.Sprintf("simd.0x%02x", subOp)
	}
}

var opcodeNames = map[byte]string{
	OpUnreachable:  "unreachable",
	OpNop:          "nop",
	OpBlock:        "block",
	OpLoop:         "loop",
	OpIf:           "if",
	OpElse:         "else",
	OpEnd:          "end",
	OpBr:           "br",
	OpBrIf:         "br_if",
	OpBrTable:      "br_table",
	OpReturn:       "return",
	OpCall:         "call",
	OpCallIndirect: "call_indirect",
	OpDrop:         "drop",
	OpSelect:       "select",
	OpLocalGet:     "local.get",
	OpLocalSet:     "local.set",
	OpLocalTee:     "local.tee",
	OpGlobalGet:    "global.get",
	OpGlobalSet:    "global.set",

	OpI32Load:    "i32.load",
	OpI64Load:    "i64.load",
	OpF32Load:    "f32.load",
	OpF64Load:    "f64.load",
	OpI32Load8S:  "i32.load8_s",
	OpI32Load8U:  "i32.load8_u",
	OpI32Load16S: "i32.load16_s",
	OpI32Load16U: "i32.load16_u",
	OpI64Load8S:  "i64.load8_s",
	OpI64Load8U:  "i64.load8_u",
	OpI64Load16S: "i64.load16_s",
	OpI64Load16U: "i64.load16_u",
	OpI64Load32S: "i64.load32_s",
	OpI64Load32U: "i64.load32_u",
	OpI32Store:   "i32.store",
	OpI64Store:   "i64.store",
	OpF32Store:   "f32.store",
	OpF64Store:   "f64.store",
	OpI32Store8:  "i32.store8",
	OpI32Store16: "i32.store16",
	OpI64Store8:  "i64.store8",
	OpI64Store16: "i64.store16",
	OpI64Store32: "i64.store32",
	OpMemorySize: "memory.size",
	OpMemoryGrow: "memory.grow",

	OpI32Const: "i32.const",
	OpI64Const: "i64.const",
	OpF32Const: "f32.const",
	OpF64Const: "f64.const",

	OpI32Eqz: "i32.eqz",
	OpI32Eq:  "i32.eq",
	OpI32Ne:  "i32.ne",
	OpI32LtS: "i32.lt_s",
	OpI32LtU: "i32.lt_u",
	OpI32GtS: "i32.gt_s",
	OpI32GtU: "i32.gt_u",
	OpI32LeS: "i32.le_s",
	OpI32LeU: "i32.le_u",
	OpI32GeS: "i32.ge_s",
	OpI32GeU: "i32.ge_u",
	OpI64Eqz: "i64.eqz",
	OpI64Eq:  "i64.eq",
	OpI64Ne:  "i64.ne",
	OpI64LtS: "i64.lt_s",
	OpI64LtU: "i64.lt_u",
	OpI64GtS: "i64.gt_s",
	OpI64GtU: "i64.gt_u",
	OpI64LeS: "i64.le_s",
	OpI64LeU: "i64.le_u",
	OpI64GeS: "i64.ge_s",
	OpI64GeU: "i64.ge_u",
	OpF32Eq:  "f32.eq",
	OpF32Ne:  "f32.ne",
	OpF32Lt:  "f32.lt",
	OpF32Gt:  "f32.gt",
	OpF32Le:  "f32.le",
	OpF32Ge:  "f32.ge",
	OpF64Eq:  "f64.eq",
	OpF64Ne:  "f64.ne",
	OpF64Lt:  "f64.lt",
	OpF64Gt:  "f64.gt",
	OpF64Le:  "f64.le",
	OpF64Ge:  "f64.ge",

	OpI32Clz:    "i32.clz",
	OpI32Ctz:    "i32.ctz",
	OpI32Popcnt: "i32.popcnt",
	OpI32Add:    "i32.add",
	OpI32Sub:    "i32.sub",
	OpI32Mul:    "i32.mul",
	OpI32DivS:   "i32.div_s",
	OpI32DivU:   "i32.div_u",
	OpI32RemS:   "i32.rem_s",
	OpI32RemU:   "i32.rem_u",
	OpI32And:    "i32.and",
	OpI32Or:     "i32.or",
	OpI32Xor:    "i32.xor",
	OpI32Shl:    "i32.shl",
	OpI32ShrS:   "i32.shr_s",
	OpI32ShrU:   "i32.shr_u",
	OpI32Rotl:   "i32.rotl",
	OpI32Rotr:   "i32.rotr",
	OpI64Clz:    "i64.clz",
	OpI64Ctz:    "i64.ctz",
	OpI64Popcnt: "i64.popcnt",
	OpI64Add:    "i64.add",
	OpI64Sub:    "i64.sub",
	OpI64Mul:    "i64.mul",
	OpI64DivS:   "i64.div_s",
	OpI64DivU:   "i64.div_u",
	OpI64RemS:   "i64.rem_s",
	OpI64RemU:   "i64.rem_u",
	OpI64And:    "i64.and",
	OpI64Or:     "i64.or",
	OpI64Xor:    "i64.xor",
	OpI64Shl:    "i64.shl",
	OpI64ShrS:   "i64.shr_s",
	OpI64ShrU:   "i64.shr_u",
	OpI64Rotl:   "i64.rotl",
	OpI64Rotr:   "i64.rotr",

	OpF32Abs:      "f32.abs",
	OpF32Neg:      "f32.neg",
	OpF32Ceil:     "f32.ceil",
	OpF32Floor:    "f32.floor",
	OpF32Trunc:    "f32.trunc",
	OpF32Nearest:  "f32.nearest",
	OpF32Sqrt:     "f32.sqrt",
	OpF32Add:      "f32.add",
	OpF32Sub:      "f32.sub",
	OpF32Mul:      "f32.mul",
	OpF32Div:      "f32.div",
	OpF32Min:      "f32.min",
	OpF32Max:      "f32.max",
	OpF32Copysign: "f32.copysign",
	OpF64Abs:      "f64.abs",
	OpF64Neg:      "f64.neg",
	OpF64Ceil:     "f64.ceil",
	OpF64Floor:    "f64.floor",
	OpF64Trunc:    "f64.trunc",
	OpF64Nearest:  "f64.nearest",
	OpF64Sqrt:     "f64.sqrt",
	OpF64Add:      "f64.add",
	OpF64Sub:      "f64.sub",
	OpF64Mul:      "f64.mul",
	OpF64Div:      "f64.div",
	OpF64Min:      "f64.min",
	OpF64Max:      "f64.max",
	OpF64Copysign: "f64.copysign",

	OpI32WrapI64:        "i32.wrap_i64",
	OpI32TruncF32S:      "i32.trunc_f32_s",
	OpI32TruncF32U:      "i32.trunc_f32_u",
	OpI32TruncF64S:      "i32.trunc_f64_s",
	OpI32TruncF64U:      "i32.trunc_f64_u",
	OpI64ExtendI32S:     "i64.extend_i32_s",
	OpI64ExtendI32U:     "i64.extend_i32_u",
	OpI64TruncF32S:      "i64.trunc_f32_s",
	OpI64TruncF32U:      "i64.trunc_f32_u",
	OpI64TruncF64S:      "i64.trunc_f64_s",
	OpI64TruncF64U:      "i64.trunc_f64_u",
	OpF32ConvertI32S:    "f32.convert_i32_s",
	OpF32ConvertI32U:    "f32.convert_i32_u",
	OpF32ConvertI64S:    "f32.convert_i64_s",
	OpF32ConvertI64U:    "f32.convert_i64_u",
	OpF32DemoteF64:      "f32.demote_f64",
	OpF64ConvertI32S:    "f64.convert_i32_s",
	OpF64ConvertI32U:    "f64.convert_i32_u",
	OpF64ConvertI64S:    "f64.convert_i64_s",
	OpF64ConvertI64U:    "f64.convert_i64_u",
	OpF64PromoteF32:     "f64.promote_f32",
	OpI32ReinterpretF32: "i32.reinterpret_f32",
	OpI64ReinterpretF64: "i64.reinterpret_f64",
	OpF32ReinterpretI32: "f32.reinterpret_i32",
	OpF64ReinterpretI64: "f64.reinterpret_i64",

	OpI32Extend8S:  "i32.extend8_s",
	OpI32Extend16S: "i32.extend16_s",
	OpI64Extend8S:  "i64.extend8_s",
	OpI64Extend16S: "i64.extend16_s",
	OpI64Extend32S: "i64.extend32_s",
}
