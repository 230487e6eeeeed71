package optimize

import (
	"github.com/basiclang/wasm-compiler/ast"
)

// EliminateDeadBranches rewrites prog in place, replacing every
// conditional whose condition is a boolean or numeric literal with the
// branch known to run: the then-branch for a truthy condition, the
// else-branch (or nothing) otherwise.
func EliminateDeadBranches(prog *ast.Program) {
	for i := range prog.Funcs {
		prog.Funcs[i].Body = pruneStmts(prog.Funcs[i].Body)
	}
}

func pruneStmts(stmts []ast.Stmt) []ast.Stmt {
	if len(stmts) == 0 {
		return stmts
	}
	out := make([]ast.Stmt, 0, len(stmts))
	for _, s := range stmts {
		switch s := s.(type) {
		case *ast.IfStmt:
			if truth, known := literalTruth(s.Cond); known {
				if truth {
					out = append(out, pruneStmts(s.Then)...)
				} else {
					out = append(out, pruneStmts(s.Else)...)
				}
				continue
			}
			s.Then = pruneStmts(s.Then)
			s.Else = pruneStmts(s.Else)
			out = append(out, s)
		case *ast.ForStmt:
			s.Body = pruneStmts(s.Body)
			out = append(out, s)
		case *ast.WhileStmt:
			s.Body = pruneStmts(s.Body)
			out = append(out, s)
		case *ast.DoLoopStmt:
			s.Body = pruneStmts(s.Body)
			out = append(out, s)
		default:
			out = append(out, s)
		}
	}
	return out
}

// literalTruth reports whether cond is a literal and, if so, whether it
// selects the then-branch.
func literalTruth(cond ast.Expr) (truth, known bool) {
	switch c := cond.(type) {
	case *ast.BoolLit:
		return c.Value, true
	case *ast.IntLit:
		return c.Value != 0, true
	case *ast.FloatLit:
		return c.Value != 0, true
	default:
		return false, false
	}
}
