package optimize

import (
	"github.com/basiclang/wasm-compiler/ast"
)

// Apply runs the standard pass order on prog: constant folding, then
// dead-branch elimination.
func Apply(prog *ast.Program) {
	FoldConstants(prog)
	EliminateDeadBranches(prog)
}
