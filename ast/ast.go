package ast

// Expression kinds as they appear in serialized programs.
const (
	KindInt    = "int"
	KindFloat  = "float"
	KindBool   = "bool"
	KindString = "string"
	KindIdent  = "ident"
	KindBinary = "binary"
	KindUnary  = "unary"
	KindIndex  = "index"
	KindCall   = "call"
)

// Statement kinds.
const (
	KindDim      = "dim"
	KindAssign   = "assign"
	KindIf       = "if"
	KindFor      = "for"
	KindWhile    = "while"
	KindDoLoop   = "doloop"
	KindReturn   = "return"
	KindCallStmt = "callstmt"
)

// Declaration kinds. Only variable declarations are lowered; other kinds
// pass through the backend untouched.
const (
	KindVar = "var"
)

// Binary operator symbols.
const (
	OpAdd = "+"
	OpSub = "-"
	OpMul = "*"
	OpDiv = "/"
	OpMod = "Mod"
	OpEq  = "="
	OpNe  = "<>"
	OpLt  = "<"
	OpLe  = "<="
	OpGt  = ">"
	OpGe  = ">="
	OpAnd = "And"
	OpOr  = "Or"
)

// Unary operator symbols.
const (
	OpNeg = "-"
	OpNot = "Not"
)

// Expr is an expression node. The implementation set is closed; consumers
// dispatch with a type switch.
type Expr interface {
	exprNode()
}

// Stmt is a statement node. The implementation set is closed.
type Stmt interface {
	stmtNode()
}

// Program is the root of a parsed compilation unit: module-level variable
// declarations and the functions defined on it.
type Program struct {
	Name  string `json:"name,omitempty"`
	Decls []Decl `json:"decls,omitempty"`
	Funcs []Func `json:"funcs,omitempty"`
}

// Decl is a kind-tagged module-level declaration. KindVar entries carry a
// variable name and optional declared type.
type Decl struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// Func is a function or subroutine definition. Result is the declared
// return type name, empty for subroutines. Public marks the function
// externally visible.
type Func struct {
	Name   string  `json:"name"`
	Public bool    `json:"public,omitempty"`
	Result string  `json:"result,omitempty"`
	Params []Param `json:"params,omitempty"`
	Body   []Stmt  `json:"body,omitempty"`
}

// Param is one name/type pair in a function's parameter list.
type Param struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// IntLit is an integer literal.
type IntLit struct {
	Value int64 `json:"value"`
}

// FloatLit is a non-integer numeric literal.
type FloatLit struct {
	Value float64 `json:"value"`
}

// BoolLit is a True/False literal.
type BoolLit struct {
	Value bool `json:"value"`
}

// StringLit is a string literal.
type StringLit struct {
	Value string `json:"value"`
}

// Ident is a reference to a named variable.
type Ident struct {
	Name string `json:"name"`
}

// BinaryExpr applies Op to Left and Right. Float records whether the
// analyzer inferred a floating-point result; Vectorizable marks the
// operation eligible for four-lane lowering.
type BinaryExpr struct {
	Op           string `json:"op"`
	Left         Expr   `json:"left"`
	Right        Expr   `json:"right"`
	Float        bool   `json:"float,omitempty"`
	Vectorizable bool   `json:"vectorizable,omitempty"`
}

// UnaryExpr applies Op (OpNeg or OpNot) to Operand.
type UnaryExpr struct {
	Op      string `json:"op"`
	Operand Expr   `json:"operand"`
}

// IndexExpr is an array element access. Array access has no lowering
// rule; the backend treats it as unsupported.
type IndexExpr struct {
	Name  string `json:"name"`
	Index Expr   `json:"index"`
}

// CallExpr invokes a named function with ordered arguments.
type CallExpr struct {
	Name string `json:"name"`
	Args []Expr `json:"args,omitempty"`
}

// DimStmt declares a function-local variable with an optional type name.
type DimStmt struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// AssignStmt stores Value into the named variable.
type AssignStmt struct {
	Name  string `json:"name"`
	Value Expr   `json:"value"`
}

// IfStmt is a conditional with an optional alternate branch.
type IfStmt struct {
	Cond Expr   `json:"cond"`
	Then []Stmt `json:"then,omitempty"`
	Else []Stmt `json:"else,omitempty"`
}

// ForStmt is a counted loop over Var from Start to End inclusive,
// advancing by Step (1 when nil).
type ForStmt struct {
	Var   string `json:"var"`
	Start Expr   `json:"start"`
	End   Expr   `json:"end"`
	Step  Expr   `json:"step,omitempty"`
	Body  []Stmt `json:"body,omitempty"`
}

// WhileStmt is a pre-test conditional loop.
type WhileStmt struct {
	Cond Expr   `json:"cond"`
	Body []Stmt `json:"body,omitempty"`
}

// DoLoopStmt is a post-test loop (Do ... Loop While/Until). Post-test
// loops have no lowering rule; the backend treats them as unsupported.
type DoLoopStmt struct {
	Cond  Expr   `json:"cond"`
	Until bool   `json:"until,omitempty"`
	Body  []Stmt `json:"body,omitempty"`
}

// ReturnStmt exits the function, yielding Value when present.
type ReturnStmt struct {
	Value Expr `json:"value,omitempty"`
}

// CallStmt invokes a call in statement position, discarding any result.
type CallStmt struct {
	Call *CallExpr `json:"call"`
}

func (*IntLit) exprNode()     {}
func (*FloatLit) exprNode()   {}
func (*BoolLit) exprNode()    {}
func (*StringLit) exprNode()  {}
func (*Ident) exprNode()      {}
func (*BinaryExpr) exprNode() {}
func (*UnaryExpr) exprNode()  {}
func (*IndexExpr) exprNode()  {}
func (*CallExpr) exprNode()   {}

func (*DimStmt) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*IfStmt) stmtNode()     {}
func (*ForStmt) stmtNode()    {}
func (*WhileStmt) stmtNode()  {}
func (*DoLoopStmt) stmtNode() {}
func (*ReturnStmt) stmtNode() {}
func (*CallStmt) stmtNode()   {}
