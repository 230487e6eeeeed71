package codegen

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/basiclang/wasm-compiler/ast"
	"github.com/basiclang/wasm-compiler/types"
	"github.com/basiclang/wasm-compiler/wasm"
)

// lowerExpr emits code leaving exactly one value on the stack. Kinds
// without a lowering rule push a zero constant and count as defaulted.
func (b *funcBuilder) lowerExpr(e ast.Expr) {
	switch e := e.(type) {
	case *ast.IntLit:
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, int32(e.Value))
	case *ast.FloatLit:
		b.buf.WriteByte(wasm.OpF64Const)
		wasm.WriteFloat64(&b.buf, e.Value)
	case *ast.BoolLit:
		b.buf.WriteByte(wasm.OpI32Const)
		if e.Value {
			wasm.WriteLEB128s(&b.buf, 1)
		} else {
			wasm.WriteLEB128s(&b.buf, 0)
		}
	case *ast.StringLit:
		off := b.gen.strings.intern(b.gen.mod, e.Value)
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, int32(off))
	case *ast.Ident:
		b.loadVar(e.Name)
	case *ast.BinaryExpr:
		b.lowerBinary(e)
	case *ast.UnaryExpr:
		b.lowerUnary(e)
	case *ast.CallExpr:
		b.lowerCallExpr(e)
	default:
		b.gen.stats.DefaultedExprs++
		Logger().Debug("expression defaulted",
			zap.String("function", b.fn.Name),
			zap.String("kind", fmt.Sprintf("%T", e)))
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, 0)
	}
}

// lowerBinary selects the opcode before lowering operands so an operator
// with no lowering degrades to a single zero constant instead of leaving
// operand values stranded.
func (b *funcBuilder) lowerBinary(e *ast.BinaryExpr) {
	if b.gen.cfg.SIMD && e.Vectorizable {
		if sub, ok := vectorOpcode(e.Op, e.Float); ok {
			b.lowerExpr(e.Left)
			b.lowerExpr(e.Right)
			b.buf.WriteByte(wasm.OpPrefixSIMD)
			wasm.WriteLEB128u(&b.buf, sub)
			return
		}
	}
	op, ok := binaryOpcode(e.Op, e.Float)
	if !ok {
		b.gen.stats.DefaultedExprs++
		Logger().Debug("operator defaulted",
			zap.String("function", b.fn.Name),
			zap.String("op", e.Op),
			zap.Bool("float", e.Float))
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, 0)
		return
	}
	b.lowerExpr(e.Left)
	b.lowerExpr(e.Right)
	b.buf.WriteByte(op)
}

func (b *funcBuilder) lowerUnary(e *ast.UnaryExpr) {
	switch e.Op {
	case ast.OpNot:
		b.lowerExpr(e.Operand)
		b.buf.WriteByte(wasm.OpI32Eqz)
	case ast.OpNeg:
		// Subtraction from zero, so the zero is pushed first.
		if b.exprIsFloat(e.Operand) {
			b.buf.WriteByte(wasm.OpF64Const)
			wasm.WriteFloat64(&b.buf, 0)
			b.lowerExpr(e.Operand)
			b.buf.WriteByte(wasm.OpF64Sub)
		} else {
			b.buf.WriteByte(wasm.OpI32Const)
			wasm.WriteLEB128s(&b.buf, 0)
			b.lowerExpr(e.Operand)
			b.buf.WriteByte(wasm.OpI32Sub)
		}
	default:
		b.gen.stats.DefaultedExprs++
		Logger().Debug("operator defaulted",
			zap.String("function", b.fn.Name),
			zap.String("op", e.Op))
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, 0)
	}
}

// lowerCallExpr emits a call in value position. Void callees still have
// to leave a value, so a zero constant follows the call. Unknown callees
// degrade to a zero constant without lowering arguments.
func (b *funcBuilder) lowerCallExpr(e *ast.CallExpr) {
	info, ok := b.gen.funcs[e.Name]
	if !ok {
		b.gen.stats.DefaultedCalls++
		Logger().Debug("call to unknown function defaulted",
			zap.String("function", b.fn.Name),
			zap.String("callee", e.Name))
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, 0)
		return
	}
	for _, a := range e.Args {
		b.lowerExpr(a)
	}
	b.buf.WriteByte(wasm.OpCall)
	wasm.WriteLEB128u(&b.buf, info.idx)
	if !info.hasResult {
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, 0)
	}
}

// exprIsFloat reports whether e evaluates to an f64, picking the operand
// family for negation.
func (b *funcBuilder) exprIsFloat(e ast.Expr) bool {
	switch e := e.(type) {
	case *ast.FloatLit:
		return true
	case *ast.BinaryExpr:
		return e.Float
	case *ast.UnaryExpr:
		return e.Op == ast.OpNeg && b.exprIsFloat(e.Operand)
	case *ast.Ident:
		_, t, site := b.resolveVar(e.Name)
		return site != siteDefaulted && types.IsFloat(t)
	case *ast.CallExpr:
		return b.gen.funcs[e.Name].floatResult
	}
	return false
}

func binaryOpcode(op string, float bool) (byte, bool) {
	if float {
		switch op {
		case ast.OpAdd:
			return wasm.OpF64Add, true
		case ast.OpSub:
			return wasm.OpF64Sub, true
		case ast.OpMul:
			return wasm.OpF64Mul, true
		case ast.OpDiv:
			return wasm.OpF64Div, true
		case ast.OpEq:
			return wasm.OpF64Eq, true
		case ast.OpNe:
			return wasm.OpF64Ne, true
		case ast.OpLt:
			return wasm.OpF64Lt, true
		case ast.OpLe:
			return wasm.OpF64Le, true
		case ast.OpGt:
			return wasm.OpF64Gt, true
		case ast.OpGe:
			return wasm.OpF64Ge, true
		}
		// Mod, And, and Or have no f64 instruction.
		return 0, false
	}
	switch op {
	case ast.OpAdd:
		return wasm.OpI32Add, true
	case ast.OpSub:
		return wasm.OpI32Sub, true
	case ast.OpMul:
		return wasm.OpI32Mul, true
	case ast.OpDiv:
		return wasm.OpI32DivS, true
	case ast.OpMod:
		return wasm.OpI32RemS, true
	case ast.OpEq:
		return wasm.OpI32Eq, true
	case ast.OpNe:
		return wasm.OpI32Ne, true
	case ast.OpLt:
		return wasm.OpI32LtS, true
	case ast.OpLe:
		return wasm.OpI32LeS, true
	case ast.OpGt:
		return wasm.OpI32GtS, true
	case ast.OpGe:
		return wasm.OpI32GeS, true
	case ast.OpAnd:
		return wasm.OpI32And, true
	case ast.OpOr:
		return wasm.OpI32Or, true
	}
	return 0, false
}

// vectorOpcode maps + - * / to their four-lane counterparts. Integer
// division has no vector form and stays scalar; comparisons never
// vectorize.
func vectorOpcode(op string, float bool) (uint32, bool) {
	if float {
		switch op {
		case ast.OpAdd:
			return wasm.SimdF32x4Add, true
		case ast.OpSub:
			return wasm.SimdF32x4Sub, true
		case ast.OpMul:
			return wasm.SimdF32x4Mul, true
		case ast.OpDiv:
			return wasm.SimdF32x4Div, true
		}
		return 0, false
	}
	switch op {
	case ast.OpAdd:
		return wasm.SimdI32x4Add, true
	case ast.OpSub:
		return wasm.SimdI32x4Sub, true
	case ast.OpMul:
		return wasm.SimdI32x4Mul, true
	}
	return 0, false
}
