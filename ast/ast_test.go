package ast_test

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"

	"github.com/basiclang/wasm-compiler/ast"
)

func TestProgramRoundTrip(t *testing.T) {
	prog := &ast.Program{
		Name: "demo",
		Decls: []ast.Decl{
			{Kind: ast.KindVar, Name: "total", Type: "Long"},
			{Kind: ast.KindVar, Name: "rate", Type: "Double"},
		},
		Funcs: []ast.Func{
			{
				Name:   "Accumulate",
				Public: true,
				Result: "Long",
				Params: []ast.Param{
					{Name: "n", Type: "Long"},
				},
				Body: []ast.Stmt{
					&ast.DimStmt{Name: "i", Type: "Long"},
					&ast.DimStmt{Name: "s", Type: "Long"},
					&ast.ForStmt{
						Var:   "i",
						Start: &ast.IntLit{Value: 1},
						End:   &ast.Ident{Name: "n"},
						Body: []ast.Stmt{
							&ast.AssignStmt{
								Name: "s",
								Value: &ast.BinaryExpr{
									Op:    ast.OpAdd,
									Left:  &ast.Ident{Name: "s"},
									Right: &ast.Ident{Name: "i"},
								},
							},
						},
					},
					&ast.ReturnStmt{Value: &ast.Ident{Name: "s"}},
				},
			},
			{
				Name: "Main",
				Body: []ast.Stmt{
					&ast.IfStmt{
						Cond: &ast.BinaryExpr{
							Op:    ast.OpGt,
							Left:  &ast.CallExpr{Name: "Accumulate", Args: []ast.Expr{&ast.IntLit{Value: 3}}},
							Right: &ast.IntLit{Value: 5},
						},
						Then: []ast.Stmt{
							&ast.AssignStmt{Name: "total", Value: &ast.IntLit{Value: 1}},
						},
						Else: []ast.Stmt{
							&ast.AssignStmt{Name: "total", Value: &ast.IntLit{Value: 0}},
						},
					},
					&ast.WhileStmt{
						Cond: &ast.BinaryExpr{
							Op:    ast.OpLt,
							Left:  &ast.Ident{Name: "total"},
							Right: &ast.IntLit{Value: 10},
						},
						Body: []ast.Stmt{
							&ast.AssignStmt{
								Name: "total",
								Value: &ast.BinaryExpr{
									Op:    ast.OpMul,
									Left:  &ast.Ident{Name: "total"},
									Right: &ast.IntLit{Value: 2},
								},
							},
						},
					},
					&ast.CallStmt{Call: &ast.CallExpr{Name: "Accumulate", Args: []ast.Expr{&ast.IntLit{Value: 7}}}},
				},
			},
		},
	}

	data, err := json.Marshal(prog)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var back ast.Program
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if !reflect.DeepEqual(prog, &back) {
		t.Errorf("round trip mismatch:\n got %#v\nwant %#v", &back, prog)
	}
}

func TestUnmarshalExprKinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ast.Expr
	}{
		{
			name: "int literal",
			in:   `{"kind": "int", "value": 42}`,
			want: &ast.IntLit{Value: 42},
		},
		{
			name: "large int literal",
			in:   `{"kind": "int", "value": 1099511627776}`,
			want: &ast.IntLit{Value: 1 << 40},
		},
		{
			name: "float literal",
			in:   `{"kind": "float", "value": 3.25}`,
			want: &ast.FloatLit{Value: 3.25},
		},
		{
			name: "bool literal",
			in:   `{"kind": "bool", "value": true}`,
			want: &ast.BoolLit{Value: true},
		},
		{
			name: "string literal",
			in:   `{"kind": "string", "value": "hello"}`,
			want: &ast.StringLit{Value: "hello"},
		},
		{
			name: "ident",
			in:   `{"kind": "ident", "name": "x"}`,
			want: &ast.Ident{Name: "x"},
		},
		{
			name: "binary with flags",
			in: `{"kind": "binary", "op": "+", "float": true, "vectorizable": true,
				"left": {"kind": "ident", "name": "a"},
				"right": {"kind": "float", "value": 1.5}}`,
			want: &ast.BinaryExpr{
				Op:           ast.OpAdd,
				Left:         &ast.Ident{Name: "a"},
				Right:        &ast.FloatLit{Value: 1.5},
				Float:        true,
				Vectorizable: true,
			},
		},
		{
			name: "unary not",
			in:   `{"kind": "unary", "op": "Not", "operand": {"kind": "ident", "name": "flag"}}`,
			want: &ast.UnaryExpr{Op: ast.OpNot, Operand: &ast.Ident{Name: "flag"}},
		},
		{
			name: "index",
			in:   `{"kind": "index", "name": "arr", "index": {"kind": "int", "value": 3}}`,
			want: &ast.IndexExpr{Name: "arr", Index: &ast.IntLit{Value: 3}},
		},
		{
			name: "call with args",
			in:   `{"kind": "call", "name": "F", "args": [{"kind": "int", "value": 1}, {"kind": "int", "value": 2}]}`,
			want: &ast.CallExpr{Name: "F", Args: []ast.Expr{&ast.IntLit{Value: 1}, &ast.IntLit{Value: 2}}},
		},
		{
			name: "call without args",
			in:   `{"kind": "call", "name": "G"}`,
			want: &ast.CallExpr{Name: "G"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ast.UnmarshalExpr([]byte(tt.in))
			if err != nil {
				t.Fatalf("UnmarshalExpr failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalStmtKinds(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want ast.Stmt
	}{
		{
			name: "dim",
			in:   `{"kind": "dim", "name": "x", "type": "Long"}`,
			want: &ast.DimStmt{Name: "x", Type: "Long"},
		},
		{
			name: "assign",
			in:   `{"kind": "assign", "name": "x", "value": {"kind": "int", "value": 1}}`,
			want: &ast.AssignStmt{Name: "x", Value: &ast.IntLit{Value: 1}},
		},
		{
			name: "return bare",
			in:   `{"kind": "return"}`,
			want: &ast.ReturnStmt{},
		},
		{
			name: "return value",
			in:   `{"kind": "return", "value": {"kind": "ident", "name": "x"}}`,
			want: &ast.ReturnStmt{Value: &ast.Ident{Name: "x"}},
		},
		{
			name: "for with step",
			in: `{"kind": "for", "var": "i",
				"start": {"kind": "int", "value": 0},
				"end": {"kind": "int", "value": 10},
				"step": {"kind": "int", "value": 2},
				"body": [{"kind": "assign", "name": "x", "value": {"kind": "ident", "name": "i"}}]}`,
			want: &ast.ForStmt{
				Var:   "i",
				Start: &ast.IntLit{Value: 0},
				End:   &ast.IntLit{Value: 10},
				Step:  &ast.IntLit{Value: 2},
				Body: []ast.Stmt{
					&ast.AssignStmt{Name: "x", Value: &ast.Ident{Name: "i"}},
				},
			},
		},
		{
			name: "doloop until",
			in: `{"kind": "doloop", "until": true,
				"cond": {"kind": "bool", "value": false},
				"body": [{"kind": "dim", "name": "t"}]}`,
			want: &ast.DoLoopStmt{
				Cond:  &ast.BoolLit{Value: false},
				Until: true,
				Body:  []ast.Stmt{&ast.DimStmt{Name: "t"}},
			},
		},
		{
			name: "nested if",
			in: `{"kind": "if",
				"cond": {"kind": "bool", "value": true},
				"then": [{"kind": "if",
					"cond": {"kind": "ident", "name": "deep"},
					"then": [{"kind": "return"}]}]}`,
			want: &ast.IfStmt{
				Cond: &ast.BoolLit{Value: true},
				Then: []ast.Stmt{
					&ast.IfStmt{
						Cond: &ast.Ident{Name: "deep"},
						Then: []ast.Stmt{&ast.ReturnStmt{}},
					},
				},
			},
		},
		{
			name: "callstmt",
			in:   `{"kind": "callstmt", "call": {"kind": "call", "name": "Log", "args": [{"kind": "string", "value": "hi"}]}}`,
			want: &ast.CallStmt{Call: &ast.CallExpr{Name: "Log", Args: []ast.Expr{&ast.StringLit{Value: "hi"}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ast.UnmarshalStmt([]byte(tt.in))
			if err != nil {
				t.Fatalf("UnmarshalStmt failed: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestUnmarshalUnknownKinds(t *testing.T) {
	if _, err := ast.UnmarshalExpr([]byte(`{"kind": "lambda"}`)); err == nil {
		t.Error("expected error for unknown expression kind")
	} else if !strings.Contains(err.Error(), "lambda") {
		t.Errorf("error %q does not name the kind", err)
	}

	if _, err := ast.UnmarshalStmt([]byte(`{"kind": "goto"}`)); err == nil {
		t.Error("expected error for unknown statement kind")
	} else if !strings.Contains(err.Error(), "goto") {
		t.Errorf("error %q does not name the kind", err)
	}
}

func TestUnmarshalNestedError(t *testing.T) {
	in := `{"funcs": [{"name": "Broken", "body": [{"kind": "assign", "name": "x",
		"value": {"kind": "mystery"}}]}]}`

	var prog ast.Program
	err := json.Unmarshal([]byte(in), &prog)
	if err == nil {
		t.Fatal("expected error for unknown nested kind")
	}
	if !strings.Contains(err.Error(), "Broken") {
		t.Errorf("error %q does not name the containing function", err)
	}
}

func TestMarshalKindTags(t *testing.T) {
	tests := []struct {
		node interface{}
		kind string
	}{
		{&ast.IntLit{Value: 1}, ast.KindInt},
		{&ast.FloatLit{Value: 1}, ast.KindFloat},
		{&ast.BoolLit{}, ast.KindBool},
		{&ast.StringLit{}, ast.KindString},
		{&ast.Ident{Name: "x"}, ast.KindIdent},
		{&ast.BinaryExpr{Op: "+"}, ast.KindBinary},
		{&ast.UnaryExpr{Op: "-"}, ast.KindUnary},
		{&ast.IndexExpr{Name: "a"}, ast.KindIndex},
		{&ast.CallExpr{Name: "f"}, ast.KindCall},
		{&ast.DimStmt{Name: "x"}, ast.KindDim},
		{&ast.AssignStmt{Name: "x"}, ast.KindAssign},
		{&ast.IfStmt{}, ast.KindIf},
		{&ast.ForStmt{Var: "i"}, ast.KindFor},
		{&ast.WhileStmt{}, ast.KindWhile},
		{&ast.DoLoopStmt{}, ast.KindDoLoop},
		{&ast.ReturnStmt{}, ast.KindReturn},
		{&ast.CallStmt{}, ast.KindCallStmt},
	}

	for _, tt := range tests {
		data, err := json.Marshal(tt.node)
		if err != nil {
			t.Fatalf("marshal %T failed: %v", tt.node, err)
		}
		var probe struct {
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(data, &probe); err != nil {
			t.Fatalf("probe %T failed: %v", tt.node, err)
		}
		if probe.Kind != tt.kind {
			t.Errorf("%T marshals with kind %q, want %q", tt.node, probe.Kind, tt.kind)
		}
	}
}

func TestMarshalOmitsAbsentFields(t *testing.T) {
	data, err := json.Marshal(&ast.ReturnStmt{})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "value") {
		t.Errorf("bare return marshals as %s, want value omitted", data)
	}

	data, err = json.Marshal(&ast.ForStmt{
		Var:   "i",
		Start: &ast.IntLit{Value: 1},
		End:   &ast.IntLit{Value: 3},
	})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if strings.Contains(string(data), "step") {
		t.Errorf("stepless loop marshals as %s, want step omitted", data)
	}
}
