// Package optimize implements the tree passes applied before code
// generation.
//
// FoldConstants replaces binary expressions over two like-kind literals
// with their computed literal. EliminateDeadBranches replaces
// conditionals whose condition is a literal with the branch known to
// run. Apply runs both in that order, so conditions that fold down to
// literals are visible to the pruning pass. Passes rewrite the program
// in place.
//
// Vector opcode substitution, the third optimization the compiler
// performs, happens during opcode selection in the code generator
// rather than on the tree.
package optimize
