package wasm_test

import (
	"strings"
	"testing"

	"github.com/basiclang/wasm-compiler/wasm"
)

func TestDisassembleEmpty(t *testing.T) {
	m := &wasm.Module{}
	out := wasm.Disassemble(m)
	if out != "(module\n)\n" {
		t.Errorf("empty module listing = %q", out)
	}
}

func TestDisassembleModule(t *testing.T) {
	m := wasm.NewModule(wasm.ModuleConfig{MemoryPages: 1})
	sin := m.AddImport("env", "sin", wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValF64},
		Results: []wasm.ValType{wasm.ValF64},
	})

	body := wasm.EncodeInstructions([]wasm.Instruction{
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpCall, Imm: wasm.CallImm{FuncIdx: sin}},
		{Opcode: wasm.OpEnd},
	})
	idx := m.AddFunction(wasm.FuncType{
		Params:  []wasm.ValType{wasm.ValF64},
		Results: []wasm.ValType{wasm.ValF64},
	}, nil, body)
	m.AddExport("SinOf", wasm.KindFunc, idx)
	m.AddGlobal(wasm.ValI32, true, []byte{wasm.OpI32Const, 0x2A, wasm.OpEnd})
	m.AddData(1024, []byte("Hi"))

	out := wasm.Disassemble(m)

	for _, want := range []string{
		"(module\n",
		`(import "env" "sin" (func (param f64) (result f64)))`,
		"(memory 1)",
		"(global 0 (mut i32) i32.const 42)",
		"(func 1 (param f64) (result f64)",
		"local.get 0",
		"call 0",
		`(export "memory" (memory 0))`,
		`(export "SinOf" (func 1))`,
		`(data (i32.const 1024) "Hi")`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q\n%s", want, out)
		}
	}
}

func TestDisassembleUsesNames(t *testing.T) {
	m := wasm.NewModule(wasm.ModuleConfig{})
	idx := m.AddFunction(wasm.FuncType{}, nil, []byte{wasm.OpEnd})
	m.CustomSections = append(m.CustomSections, wasm.CustomSection{
		Name: wasm.NameSectionID,
		Data: wasm.BuildNameSection("circle", map[uint32]string{idx: "Main"}),
	})

	out := wasm.Disassemble(m)

	if !strings.Contains(out, "(module $circle") {
		t.Errorf("listing should carry the module name\n%s", out)
	}
	if !strings.Contains(out, "(func $Main") {
		t.Errorf("listing should label the function by name\n%s", out)
	}
}

func TestDisassembleControlFlow(t *testing.T) {
	// A counted loop: block / loop / br_if / br, nested indentation.
	body := wasm.EncodeInstructions([]wasm.Instruction{
		{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: wasm.BlockTypeVoid}},
		{Opcode: wasm.OpLoop, Imm: wasm.BlockImm{Type: wasm.BlockTypeVoid}},
		{Opcode: wasm.OpLocalGet, Imm: wasm.LocalImm{LocalIdx: 0}},
		{Opcode: wasm.OpI32Eqz},
		{Opcode: wasm.OpBrIf, Imm: wasm.BranchImm{LabelIdx: 1}},
		{Opcode: wasm.OpBr, Imm: wasm.BranchImm{LabelIdx: 0}},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
	})

	m := &wasm.Module{
		Types: []wasm.FuncType{{Params: []wasm.ValType{wasm.ValI32}, Results: nil}},
		Funcs: []uint32{0},
		Code:  []wasm.FuncBody{{Code: body}},
	}

	out := wasm.Disassemble(m)

	for _, want := range []string{
		"    block\n",
		"      loop\n",
		"        br_if 1\n",
		"        br 0\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("listing missing %q\n%s", want, out)
		}
	}
}

func TestDisassembleBlockResult(t *testing.T) {
	body := wasm.EncodeInstructions([]wasm.Instruction{
		{Opcode: wasm.OpBlock, Imm: wasm.BlockImm{Type: wasm.BlockTypeI32}},
		{Opcode: wasm.OpI32Const, Imm: wasm.I32Imm{Value: 7}},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpEnd},
	})

	m := &wasm.Module{
		Types: []wasm.FuncType{{Results: []wasm.ValType{wasm.ValI32}}},
		Funcs: []uint32{0},
		Code:  []wasm.FuncBody{{Code: body}},
	}

	out := wasm.Disassemble(m)
	if !strings.Contains(out, "block (result i32)") {
		t.Errorf("listing missing typed block\n%s", out)
	}
}

func TestDisassembleSIMD(t *testing.T) {
	body := wasm.EncodeInstructions([]wasm.Instruction{
		{Opcode: wasm.OpPrefixSIMD, Imm: wasm.SIMDImm{SubOpcode: wasm.SimdF64x2Splat}},
		{Opcode: wasm.OpPrefixSIMD, Imm: wasm.SIMDImm{SubOpcode: wasm.SimdF64x2Add}},
		{Opcode: wasm.OpEnd},
	})

	m := &wasm.Module{
		Types: []wasm.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0},
		Code:  []wasm.FuncBody{{Code: body}},
	}

	out := wasm.Disassemble(m)
	if !strings.Contains(out, "f64x2.splat") || !strings.Contains(out, "f64x2.add") {
		t.Errorf("listing missing vector mnemonics\n%s", out)
	}
}

func TestDisassembleUndecodableBody(t *testing.T) {
	m := &wasm.Module{
		Types: []wasm.FuncType{{Params: nil, Results: nil}},
		Funcs: []uint32{0},
		Code:  []wasm.FuncBody{{Code: []byte{0xFF}}},
	}

	out := wasm.Disassemble(m)
	if !strings.Contains(out, "body decode failed") {
		t.Errorf("listing should note the decode failure\n%s", out)
	}
}
