package ast

import (
	"encoding/json"
	"fmt"
)

// UnmarshalExpr decodes one kind-tagged expression node.
func UnmarshalExpr(data []byte) (Expr, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Kind {
	case KindInt:
		e := new(IntLit)
		return e, json.Unmarshal(data, e)
	case KindFloat:
		e := new(FloatLit)
		return e, json.Unmarshal(data, e)
	case KindBool:
		e := new(BoolLit)
		return e, json.Unmarshal(data, e)
	case KindString:
		e := new(StringLit)
		return e, json.Unmarshal(data, e)
	case KindIdent:
		e := new(Ident)
		return e, json.Unmarshal(data, e)
	case KindBinary:
		e := new(BinaryExpr)
		return e, json.Unmarshal(data, e)
	case KindUnary:
		e := new(UnaryExpr)
		return e, json.Unmarshal(data, e)
	case KindIndex:
		e := new(IndexExpr)
		return e, json.Unmarshal(data, e)
	case KindCall:
		e := new(CallExpr)
		return e, json.Unmarshal(data, e)
	default:
		return nil, fmt.Errorf("unknown expression kind %q", probe.Kind)
	}
}

// UnmarshalStmt decodes one kind-tagged statement node.
func UnmarshalStmt(data []byte) (Stmt, error) {
	var probe struct {
		Kind string `json:"kind"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, err
	}
	switch probe.Kind {
	case KindDim:
		s := new(DimStmt)
		return s, json.Unmarshal(data, s)
	case KindAssign:
		s := new(AssignStmt)
		return s, json.Unmarshal(data, s)
	case KindIf:
		s := new(IfStmt)
		return s, json.Unmarshal(data, s)
	case KindFor:
		s := new(ForStmt)
		return s, json.Unmarshal(data, s)
	case KindWhile:
		s := new(WhileStmt)
		return s, json.Unmarshal(data, s)
	case KindDoLoop:
		s := new(DoLoopStmt)
		return s, json.Unmarshal(data, s)
	case KindReturn:
		s := new(ReturnStmt)
		return s, json.Unmarshal(data, s)
	case KindCallStmt:
		s := new(CallStmt)
		return s, json.Unmarshal(data, s)
	default:
		return nil, fmt.Errorf("unknown statement kind %q", probe.Kind)
	}
}

func unmarshalOptExpr(raw json.RawMessage) (Expr, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	return UnmarshalExpr(raw)
}

func unmarshalExprs(raws []json.RawMessage) ([]Expr, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]Expr, len(raws))
	for i, r := range raws {
		e, err := UnmarshalExpr(r)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = e
	}
	return out, nil
}

func unmarshalStmts(raws []json.RawMessage) ([]Stmt, error) {
	if len(raws) == 0 {
		return nil, nil
	}
	out := make([]Stmt, len(raws))
	for i, r := range raws {
		s, err := UnmarshalStmt(r)
		if err != nil {
			return nil, fmt.Errorf("statement %d: %w", i, err)
		}
		out[i] = s
	}
	return out, nil
}

func (e *IntLit) MarshalJSON() ([]byte, error) {
	type alias IntLit
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindInt, (*alias)(e)})
}

func (e *FloatLit) MarshalJSON() ([]byte, error) {
	type alias FloatLit
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindFloat, (*alias)(e)})
}

func (e *BoolLit) MarshalJSON() ([]byte, error) {
	type alias BoolLit
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindBool, (*alias)(e)})
}

func (e *StringLit) MarshalJSON() ([]byte, error) {
	type alias StringLit
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindString, (*alias)(e)})
}

func (e *Ident) MarshalJSON() ([]byte, error) {
	type alias Ident
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindIdent, (*alias)(e)})
}

func (e *BinaryExpr) MarshalJSON() ([]byte, error) {
	type alias BinaryExpr
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindBinary, (*alias)(e)})
}

func (e *BinaryExpr) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op           string          `json:"op"`
		Left         json.RawMessage `json:"left"`
		Right        json.RawMessage `json:"right"`
		Float        bool            `json:"float"`
		Vectorizable bool            `json:"vectorizable"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Op = raw.Op
	e.Float = raw.Float
	e.Vectorizable = raw.Vectorizable
	var err error
	if e.Left, err = unmarshalOptExpr(raw.Left); err != nil {
		return err
	}
	if e.Right, err = unmarshalOptExpr(raw.Right); err != nil {
		return err
	}
	return nil
}

func (e *UnaryExpr) MarshalJSON() ([]byte, error) {
	type alias UnaryExpr
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindUnary, (*alias)(e)})
}

func (e *UnaryExpr) UnmarshalJSON(data []byte) error {
	var raw struct {
		Op      string          `json:"op"`
		Operand json.RawMessage `json:"operand"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Op = raw.Op
	var err error
	e.Operand, err = unmarshalOptExpr(raw.Operand)
	return err
}

func (e *IndexExpr) MarshalJSON() ([]byte, error) {
	type alias IndexExpr
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindIndex, (*alias)(e)})
}

func (e *IndexExpr) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Index json.RawMessage `json:"index"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Name = raw.Name
	var err error
	e.Index, err = unmarshalOptExpr(raw.Index)
	return err
}

func (e *CallExpr) MarshalJSON() ([]byte, error) {
	type alias CallExpr
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindCall, (*alias)(e)})
}

func (e *CallExpr) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name string            `json:"name"`
		Args []json.RawMessage `json:"args"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	e.Name = raw.Name
	args, err := unmarshalExprs(raw.Args)
	if err != nil {
		return err
	}
	e.Args = args
	return nil
}

func (s *DimStmt) MarshalJSON() ([]byte, error) {
	type alias DimStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindDim, (*alias)(s)})
}

func (s *AssignStmt) MarshalJSON() ([]byte, error) {
	type alias AssignStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindAssign, (*alias)(s)})
}

func (s *AssignStmt) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  string          `json:"name"`
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Name = raw.Name
	var err error
	s.Value, err = unmarshalOptExpr(raw.Value)
	return err
}

func (s *IfStmt) MarshalJSON() ([]byte, error) {
	type alias IfStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindIf, (*alias)(s)})
}

func (s *IfStmt) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cond json.RawMessage   `json:"cond"`
		Then []json.RawMessage `json:"then"`
		Else []json.RawMessage `json:"else"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if s.Cond, err = unmarshalOptExpr(raw.Cond); err != nil {
		return err
	}
	if s.Then, err = unmarshalStmts(raw.Then); err != nil {
		return err
	}
	s.Else, err = unmarshalStmts(raw.Else)
	return err
}

func (s *ForStmt) MarshalJSON() ([]byte, error) {
	type alias ForStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindFor, (*alias)(s)})
}

func (s *ForStmt) UnmarshalJSON(data []byte) error {
	var raw struct {
		Var   string            `json:"var"`
		Start json.RawMessage   `json:"start"`
		End   json.RawMessage   `json:"end"`
		Step  json.RawMessage   `json:"step"`
		Body  []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Var = raw.Var
	var err error
	if s.Start, err = unmarshalOptExpr(raw.Start); err != nil {
		return err
	}
	if s.End, err = unmarshalOptExpr(raw.End); err != nil {
		return err
	}
	if s.Step, err = unmarshalOptExpr(raw.Step); err != nil {
		return err
	}
	s.Body, err = unmarshalStmts(raw.Body)
	return err
}

func (s *WhileStmt) MarshalJSON() ([]byte, error) {
	type alias WhileStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindWhile, (*alias)(s)})
}

func (s *WhileStmt) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cond json.RawMessage   `json:"cond"`
		Body []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	if s.Cond, err = unmarshalOptExpr(raw.Cond); err != nil {
		return err
	}
	s.Body, err = unmarshalStmts(raw.Body)
	return err
}

func (s *DoLoopStmt) MarshalJSON() ([]byte, error) {
	type alias DoLoopStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindDoLoop, (*alias)(s)})
}

func (s *DoLoopStmt) UnmarshalJSON(data []byte) error {
	var raw struct {
		Cond  json.RawMessage   `json:"cond"`
		Until bool              `json:"until"`
		Body  []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s.Until = raw.Until
	var err error
	if s.Cond, err = unmarshalOptExpr(raw.Cond); err != nil {
		return err
	}
	s.Body, err = unmarshalStmts(raw.Body)
	return err
}

func (s *ReturnStmt) MarshalJSON() ([]byte, error) {
	type alias ReturnStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindReturn, (*alias)(s)})
}

func (s *ReturnStmt) UnmarshalJSON(data []byte) error {
	var raw struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var err error
	s.Value, err = unmarshalOptExpr(raw.Value)
	return err
}

func (s *CallStmt) MarshalJSON() ([]byte, error) {
	type alias CallStmt
	return json.Marshal(struct {
		Kind string `json:"kind"`
		*alias
	}{KindCallStmt, (*alias)(s)})
}

func (f *Func) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name   string            `json:"name"`
		Public bool              `json:"public"`
		Result string            `json:"result"`
		Params []Param           `json:"params"`
		Body   []json.RawMessage `json:"body"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	f.Name = raw.Name
	f.Public = raw.Public
	f.Result = raw.Result
	f.Params = raw.Params
	body, err := unmarshalStmts(raw.Body)
	if err != nil {
		return fmt.Errorf("function %q: %w", raw.Name, err)
	}
	f.Body = body
	return nil
}
