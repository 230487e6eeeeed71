package optimize

import (
	"math"

	"github.com/basiclang/wasm-compiler/ast"
)

// FoldConstants rewrites prog in place, replacing every binary expression
// whose operands are two integer literals or two float literals with a
// literal holding the computed value. Comparisons fold to integer 0/1.
// Integer division and remainder with a zero divisor are left unfolded.
func FoldConstants(prog *ast.Program) {
	for i := range prog.Funcs {
		foldStmts(prog.Funcs[i].Body)
	}
}

func foldStmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		foldStmt(s)
	}
}

func foldStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		s.Value = foldExpr(s.Value)
	case *ast.IfStmt:
		s.Cond = foldExpr(s.Cond)
		foldStmts(s.Then)
		foldStmts(s.Else)
	case *ast.ForStmt:
		s.Start = foldExpr(s.Start)
		s.End = foldExpr(s.End)
		if s.Step != nil {
			s.Step = foldExpr(s.Step)
		}
		foldStmts(s.Body)
	case *ast.WhileStmt:
		s.Cond = foldExpr(s.Cond)
		foldStmts(s.Body)
	case *ast.DoLoopStmt:
		s.Cond = foldExpr(s.Cond)
		foldStmts(s.Body)
	case *ast.ReturnStmt:
		if s.Value != nil {
			s.Value = foldExpr(s.Value)
		}
	case *ast.CallStmt:
		if s.Call != nil {
			foldArgs(s.Call)
		}
	}
}

func foldExpr(e ast.Expr) ast.Expr {
	switch e := e.(type) {
	case *ast.BinaryExpr:
		e.Left = foldExpr(e.Left)
		e.Right = foldExpr(e.Right)
		return foldBinary(e)
	case *ast.UnaryExpr:
		e.Operand = foldExpr(e.Operand)
		return e
	case *ast.IndexExpr:
		e.Index = foldExpr(e.Index)
		return e
	case *ast.CallExpr:
		foldArgs(e)
		return e
	default:
		return e
	}
}

func foldArgs(call *ast.CallExpr) {
	for i, a := range call.Args {
		call.Args[i] = foldExpr(a)
	}
}

func foldBinary(e *ast.BinaryExpr) ast.Expr {
	if l, ok := e.Left.(*ast.IntLit); ok {
		if r, ok := e.Right.(*ast.IntLit); ok {
			return foldInt(e, l.Value, r.Value)
		}
	}
	if l, ok := e.Left.(*ast.FloatLit); ok {
		if r, ok := e.Right.(*ast.FloatLit); ok {
			return foldFloat(e, l.Value, r.Value)
		}
	}
	return e
}

func foldInt(e *ast.BinaryExpr, l, r int64) ast.Expr {
	switch e.Op {
	case ast.OpAdd:
		return &ast.IntLit{Value: l + r}
	case ast.OpSub:
		return &ast.IntLit{Value: l - r}
	case ast.OpMul:
		return &ast.IntLit{Value: l * r}
	case ast.OpDiv:
		if r == 0 {
			return e
		}
		return &ast.IntLit{Value: l / r}
	case ast.OpMod:
		if r == 0 {
			return e
		}
		return &ast.IntLit{Value: l % r}
	case ast.OpEq:
		return foldBool(l == r)
	case ast.OpNe:
		return foldBool(l != r)
	case ast.OpLt:
		return foldBool(l < r)
	case ast.OpLe:
		return foldBool(l <= r)
	case ast.OpGt:
		return foldBool(l > r)
	case ast.OpGe:
		return foldBool(l >= r)
	default:
		return e
	}
}

func foldFloat(e *ast.BinaryExpr, l, r float64) ast.Expr {
	switch e.Op {
	case ast.OpAdd:
		return &ast.FloatLit{Value: l + r}
	case ast.OpSub:
		return &ast.FloatLit{Value: l - r}
	case ast.OpMul:
		return &ast.FloatLit{Value: l * r}
	case ast.OpDiv:
		return &ast.FloatLit{Value: l / r}
	case ast.OpMod:
		return &ast.FloatLit{Value: math.Mod(l, r)}
	case ast.OpEq:
		return foldBool(l == r)
	case ast.OpNe:
		return foldBool(l != r)
	case ast.OpLt:
		return foldBool(l < r)
	case ast.OpLe:
		return foldBool(l <= r)
	case ast.OpGt:
		return foldBool(l > r)
	case ast.OpGe:
		return foldBool(l >= r)
	default:
		return e
	}
}

func foldBool(b bool) *ast.IntLit {
	if b {
		return &ast.IntLit{Value: 1}
	}
	return &ast.IntLit{Value: 0}
}
