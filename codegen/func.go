package codegen

import (
	"bytes"
	"fmt"

	"go.uber.org/zap"

	"github.com/basiclang/wasm-compiler/ast"
	"github.com/basiclang/wasm-compiler/types"
	"github.com/basiclang/wasm-compiler/wasm"
)

type localVar struct {
	idx uint32
	typ wasm.ValType
}

// varSite says where a name resolved. Lookups that miss both tables
// produce siteDefaulted, which lowers to a zero constant or a drop and
// bumps the defaulted-name counter.
type varSite int

const (
	siteLocal varSite = iota
	siteGlobal
	siteDefaulted
)

// funcBuilder holds the per-function lowering state: the local symbol
// table and the body buffer. One builder exists per function and is
// discarded once the body is handed to the module.
type funcBuilder struct {
	gen    *Generator
	fn     *ast.Func
	locals map[string]localVar
	extra  []wasm.ValType // non-parameter locals in allocation order
	buf    bytes.Buffer
}

func newFuncBuilder(g *Generator, f *ast.Func) *funcBuilder {
	return &funcBuilder{gen: g, fn: f, locals: make(map[string]localVar)}
}

// build maps the signature, pre-allocates declared locals, lowers the
// body, and returns the pieces AddFunction wants. Functions without a
// declared result get an explicit trailing return.
func (b *funcBuilder) build() (wasm.FuncType, []wasm.LocalEntry, []byte) {
	var sig wasm.FuncType
	for i, p := range b.fn.Params {
		t := types.MapType(p.Type)
		b.locals[p.Name] = localVar{idx: uint32(i), typ: t}
		sig.Params = append(sig.Params, t)
	}
	if b.fn.Result != "" {
		sig.Results = []wasm.ValType{types.MapType(b.fn.Result)}
	}

	b.scanDecls(b.fn.Body)

	for _, s := range b.fn.Body {
		b.lowerStmt(s)
	}
	if b.fn.Result == "" {
		b.buf.WriteByte(wasm.OpReturn)
	}
	b.buf.WriteByte(wasm.OpEnd)

	return sig, groupLocals(b.extra), b.buf.Bytes()
}

// scanDecls claims a local slot for every variable declaration in the
// body, descending into branches and loops because declarations are
// scoped to the whole procedure regardless of nesting.
func (b *funcBuilder) scanDecls(body []ast.Stmt) {
	for _, s := range body {
		switch s := s.(type) {
		case *ast.DimStmt:
			b.allocLocal(s.Name, types.MapType(s.Type))
		case *ast.IfStmt:
			b.scanDecls(s.Then)
			b.scanDecls(s.Else)
		case *ast.ForStmt:
			b.scanDecls(s.Body)
		case *ast.WhileStmt:
			b.scanDecls(s.Body)
		case *ast.DoLoopStmt:
			b.scanDecls(s.Body)
		}
	}
}

// allocLocal reserves the next local index for name. Redeclarations keep
// the first slot.
func (b *funcBuilder) allocLocal(name string, t wasm.ValType) {
	if _, ok := b.locals[name]; ok {
		return
	}
	idx := uint32(len(b.fn.Params) + len(b.extra))
	b.locals[name] = localVar{idx: idx, typ: t}
	b.extra = append(b.extra, t)
}

func (b *funcBuilder) lowerStmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.DimStmt:
		// Slot already claimed by the declaration scan.
	case *ast.AssignStmt:
		b.lowerExpr(s.Value)
		b.storeVar(s.Name)
	case *ast.IfStmt:
		b.lowerIf(s)
	case *ast.ForStmt:
		b.lowerFor(s)
	case *ast.WhileStmt:
		b.lowerWhile(s)
	case *ast.ReturnStmt:
		if s.Value != nil {
			b.lowerExpr(s.Value)
		}
		b.buf.WriteByte(wasm.OpReturn)
	case *ast.CallStmt:
		b.lowerCallStmt(s.Call)
	default:
		b.gen.stats.SkippedStmts++
		Logger().Debug("statement skipped",
			zap.String("function", b.fn.Name),
			zap.String("kind", fmt.Sprintf("%T", s)))
	}
}

func (b *funcBuilder) lowerIf(s *ast.IfStmt) {
	b.lowerExpr(s.Cond)
	b.buf.WriteByte(wasm.OpIf)
	b.writeBlockVoid()
	for _, t := range s.Then {
		b.lowerStmt(t)
	}
	if len(s.Else) > 0 {
		b.buf.WriteByte(wasm.OpElse)
		for _, t := range s.Else {
			b.lowerStmt(t)
		}
	}
	b.buf.WriteByte(wasm.OpEnd)
}

// lowerFor emits a counted loop. The counter starts at the start value,
// the bound expression is re-evaluated every iteration, and both ends
// are inclusive. The step defaults to one.
func (b *funcBuilder) lowerFor(s *ast.ForStmt) {
	b.lowerExpr(s.Start)
	b.storeVar(s.Var)

	b.buf.WriteByte(wasm.OpBlock)
	b.writeBlockVoid()
	b.buf.WriteByte(wasm.OpLoop)
	b.writeBlockVoid()

	b.loadVar(s.Var)
	b.lowerExpr(s.End)
	b.buf.WriteByte(wasm.OpI32LeS)
	b.buf.WriteByte(wasm.OpI32Eqz)
	b.buf.WriteByte(wasm.OpBrIf)
	wasm.WriteLEB128u(&b.buf, 1)

	for _, t := range s.Body {
		b.lowerStmt(t)
	}

	b.loadVar(s.Var)
	if s.Step != nil {
		b.lowerExpr(s.Step)
	} else {
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, 1)
	}
	b.buf.WriteByte(wasm.OpI32Add)
	b.storeVar(s.Var)

	b.buf.WriteByte(wasm.OpBr)
	wasm.WriteLEB128u(&b.buf, 0)
	b.buf.WriteByte(wasm.OpEnd)
	b.buf.WriteByte(wasm.OpEnd)
}

// lowerWhile emits a pre-test loop: the condition is checked before every
// iteration, including the first.
func (b *funcBuilder) lowerWhile(s *ast.WhileStmt) {
	b.buf.WriteByte(wasm.OpBlock)
	b.writeBlockVoid()
	b.buf.WriteByte(wasm.OpLoop)
	b.writeBlockVoid()

	b.lowerExpr(s.Cond)
	b.buf.WriteByte(wasm.OpI32Eqz)
	b.buf.WriteByte(wasm.OpBrIf)
	wasm.WriteLEB128u(&b.buf, 1)

	for _, t := range s.Body {
		b.lowerStmt(t)
	}

	b.buf.WriteByte(wasm.OpBr)
	wasm.WriteLEB128u(&b.buf, 0)
	b.buf.WriteByte(wasm.OpEnd)
	b.buf.WriteByte(wasm.OpEnd)
}

// lowerCallStmt emits a call in statement position, dropping a produced
// value. Unknown callees emit nothing so the stack stays balanced.
func (b *funcBuilder) lowerCallStmt(call *ast.CallExpr) {
	info, ok := b.gen.funcs[call.Name]
	if !ok {
		b.gen.stats.DefaultedCalls++
		Logger().Debug("call to unknown function skipped",
			zap.String("function", b.fn.Name),
			zap.String("callee", call.Name))
		return
	}
	for _, a := range call.Args {
		b.lowerExpr(a)
	}
	b.buf.WriteByte(wasm.OpCall)
	wasm.WriteLEB128u(&b.buf, info.idx)
	if info.hasResult {
		b.buf.WriteByte(wasm.OpDrop)
	}
}

func (b *funcBuilder) resolveVar(name string) (uint32, wasm.ValType, varSite) {
	if lv, ok := b.locals[name]; ok {
		return lv.idx, lv.typ, siteLocal
	}
	if gv, ok := b.gen.globals[name]; ok {
		return gv.idx, gv.typ, siteGlobal
	}
	return 0, wasm.ValI32, siteDefaulted
}

func (b *funcBuilder) loadVar(name string) {
	idx, _, site := b.resolveVar(name)
	switch site {
	case siteLocal:
		b.buf.WriteByte(wasm.OpLocalGet)
		wasm.WriteLEB128u(&b.buf, idx)
	case siteGlobal:
		b.buf.WriteByte(wasm.OpGlobalGet)
		wasm.WriteLEB128u(&b.buf, idx)
	default:
		b.gen.stats.DefaultedNames++
		Logger().Debug("unresolved variable read",
			zap.String("function", b.fn.Name),
			zap.String("name", name))
		b.buf.WriteByte(wasm.OpI32Const)
		wasm.WriteLEB128s(&b.buf, 0)
	}
}

func (b *funcBuilder) storeVar(name string) {
	idx, _, site := b.resolveVar(name)
	switch site {
	case siteLocal:
		b.buf.WriteByte(wasm.OpLocalSet)
		wasm.WriteLEB128u(&b.buf, idx)
	case siteGlobal:
		b.buf.WriteByte(wasm.OpGlobalSet)
		wasm.WriteLEB128u(&b.buf, idx)
	default:
		b.gen.stats.DefaultedNames++
		Logger().Debug("unresolved variable write",
			zap.String("function", b.fn.Name),
			zap.String("name", name))
		b.buf.WriteByte(wasm.OpDrop)
	}
}

func (b *funcBuilder) writeBlockVoid() {
	wasm.WriteLEB128s(&b.buf, wasm.BlockTypeVoid)
}

// groupLocals compresses locals into the run-length entries the code
// section encodes.
func groupLocals(locals []wasm.ValType) []wasm.LocalEntry {
	var entries []wasm.LocalEntry
	for _, t := range locals {
		if n := len(entries); n > 0 && entries[n-1].ValType == t {
			entries[n-1].Count++
			continue
		}
		entries = append(entries, wasm.LocalEntry{Count: 1, ValType: t})
	}
	return entries
}
