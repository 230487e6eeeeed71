package wasmcompiler_test

import (
	"bytes"
	"context"
	"testing"

	wasmcompiler "github.com/basiclang/wasm-compiler"
	"github.com/basiclang/wasm-compiler/ast"
	"github.com/basiclang/wasm-compiler/wasm"
)

// compileBody compiles prog and returns the body bytes of its only
// defined function.
func compileBody(t *testing.T, prog *ast.Program, opts wasmcompiler.Options) ([]byte, wasmcompiler.Stats) {
	t.Helper()
	data, stats, err := wasmcompiler.Compile(context.Background(), prog, opts)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("parse emitted binary: %v", err)
	}
	if len(m.Code) != 1 {
		t.Fatalf("expected 1 compiled body, got %d", len(m.Code))
	}
	return m.Code[0].Code, stats
}

// sumProgram returns Function Calc() As Integer : Return 2 + 3. Each
// call builds a fresh tree because optimization rewrites it in place.
func sumProgram() *ast.Program {
	return &ast.Program{
		Name: "fold",
		Funcs: []ast.Func{{
			Name:   "Calc",
			Result: "Integer",
			Body: []ast.Stmt{
				&ast.ReturnStmt{Value: &ast.BinaryExpr{
					Op:    ast.OpAdd,
					Left:  &ast.IntLit{Value: 2},
					Right: &ast.IntLit{Value: 3},
				}},
			},
		}},
	}
}

func TestConstantFolding(t *testing.T) {
	plain, _ := compileBody(t, sumProgram(), wasmcompiler.Options{})
	if want := []byte{wasm.OpI32Const, 2, wasm.OpI32Const, 3, wasm.OpI32Add, wasm.OpReturn, wasm.OpEnd}; !bytes.Equal(plain, want) {
		t.Errorf("unoptimized body\n got % x\nwant % x", plain, want)
	}

	folded, _ := compileBody(t, sumProgram(), wasmcompiler.Options{Optimize: true})
	if want := []byte{wasm.OpI32Const, 5, wasm.OpReturn, wasm.OpEnd}; !bytes.Equal(folded, want) {
		t.Errorf("optimized body\n got % x\nwant % x", folded, want)
	}
}

func branchProgram() *ast.Program {
	return &ast.Program{
		Name: "branch",
		Funcs: []ast.Func{{
			Name:   "Choose",
			Result: "Integer",
			Body: []ast.Stmt{
				&ast.DimStmt{Name: "x", Type: "Integer"},
				&ast.IfStmt{
					Cond: &ast.BoolLit{Value: true},
					Then: []ast.Stmt{&ast.AssignStmt{Name: "x", Value: &ast.IntLit{Value: 1}}},
					Else: []ast.Stmt{&ast.AssignStmt{Name: "x", Value: &ast.IntLit{Value: 2}}},
				},
				&ast.ReturnStmt{Value: &ast.Ident{Name: "x"}},
			},
		}},
	}
}

func TestDeadBranchElimination(t *testing.T) {
	plain, _ := compileBody(t, branchProgram(), wasmcompiler.Options{})
	if !bytes.Contains(plain, []byte{wasm.OpIf, 0x40}) {
		t.Errorf("unoptimized body should keep the branch, got % x", plain)
	}

	pruned, _ := compileBody(t, branchProgram(), wasmcompiler.Options{Optimize: true})
	want := []byte{
		wasm.OpI32Const, 1,
		wasm.OpLocalSet, 0,
		wasm.OpLocalGet, 0,
		wasm.OpReturn,
		wasm.OpEnd,
	}
	if !bytes.Equal(pruned, want) {
		t.Errorf("optimized body\n got % x\nwant % x", pruned, want)
	}
}

func TestUndeclaredVariable(t *testing.T) {
	leak := func() *ast.Program {
		return &ast.Program{
			Name: "leak",
			Funcs: []ast.Func{{
				Name:   "Leak",
				Result: "Integer",
				Body:   []ast.Stmt{&ast.ReturnStmt{Value: &ast.Ident{Name: "y"}}},
			}},
		}
	}

	for _, optimized := range []bool{false, true} {
		body, stats := compileBody(t, leak(), wasmcompiler.Options{Optimize: optimized})
		want := []byte{wasm.OpI32Const, 0, wasm.OpReturn, wasm.OpEnd}
		if !bytes.Equal(body, want) {
			t.Errorf("optimize=%v body\n got % x\nwant % x", optimized, body, want)
		}
		if stats.DefaultedNames != 1 {
			t.Errorf("optimize=%v defaulted names = %d, want 1", optimized, stats.DefaultedNames)
		}
	}
}

func TestTableSizeHasNoEffect(t *testing.T) {
	ctx := context.Background()
	plain, _, err := wasmcompiler.Compile(ctx, sumProgram(), wasmcompiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	sized, _, err := wasmcompiler.Compile(ctx, sumProgram(), wasmcompiler.Options{TableSize: 16})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if !bytes.Equal(plain, sized) {
		t.Error("table size changed the emitted bytes")
	}
}

func TestDefaultMemoryPage(t *testing.T) {
	data, _, err := wasmcompiler.Compile(context.Background(), &ast.Program{Name: "empty"}, wasmcompiler.Options{})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	m, err := wasm.ParseModule(data)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(m.Memories) != 1 || m.Memories[0].Limits.Min != 1 {
		t.Errorf("expected one page of memory by default, got %+v", m.Memories)
	}
}

func TestCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := wasmcompiler.Compile(ctx, sumProgram(), wasmcompiler.Options{}); err == nil {
		t.Error("expected a cancelled context to stop compilation")
	}
}

func TestFullPipelineValidates(t *testing.T) {
	prog := &ast.Program{
		Name:  "full",
		Decls: []ast.Decl{{Kind: ast.KindVar, Name: "total", Type: "Integer"}},
		Funcs: []ast.Func{{
			Name:   "Main",
			Public: true,
			Result: "Integer",
			Body: []ast.Stmt{
				&ast.DimStmt{Name: "i", Type: "Integer"},
				&ast.ForStmt{
					Var:   "i",
					Start: &ast.IntLit{Value: 1},
					End:   &ast.IntLit{Value: 3},
					Body: []ast.Stmt{
						&ast.AssignStmt{Name: "total", Value: &ast.BinaryExpr{
							Op:    ast.OpAdd,
							Left:  &ast.Ident{Name: "total"},
							Right: &ast.Ident{Name: "i"},
						}},
					},
				},
				&ast.ReturnStmt{Value: &ast.Ident{Name: "total"}},
			},
		}},
	}

	data, stats, err := wasmcompiler.Compile(context.Background(), prog, wasmcompiler.Options{
		Optimize:    true,
		SIMD:        true,
		DebugNames:  true,
		MemoryPages: 2,
		ModuleName:  "full",
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if _, err := wasm.ParseModuleValidate(data); err != nil {
		t.Errorf("emitted binary failed validation: %v", err)
	}
	if stats.BinarySize != len(data) {
		t.Errorf("binary size %d, want %d", stats.BinarySize, len(data))
	}
	if stats.Functions != 1 || stats.Globals != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}
