// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/ast"
	"github.com/yuin/gopher-lua/parse"
)

// Program is a compiled script, reusable across executions.
type Program struct {
	Name   string
	Source string
	proto  *lua.FunctionProto
}

// Compile parses and compiles source once. Identifiers, attribute keys,
// method names and literal table keys starting with "__" are rejected.
func Compile(name, source string) (*Program, error) {
	chunk, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, oops.Code("SCRIPT_COMPILE").With("script", name).Wrapf(err, "parsing script")
	}
	if bad, ok := forbiddenName(chunk); ok {
		return nil, oops.Code("SCRIPT_FORBIDDEN").With("script", name).With("name", bad).
			Errorf("script %s uses reserved name %q", name, bad)
	}
	proto, err := lua.Compile(chunk, name)
	if err != nil {
		return nil, oops.Code("SCRIPT_COMPILE").With("script", name).Wrapf(err, "compiling script")
	}
	return &Program{Name: name, Source: source, proto: proto}, nil
}

func reserved(name string) bool { return strings.HasPrefix(name, "__") }

// forbiddenName returns the first reserved name found in the chunk.
func forbiddenName(stmts []ast.Stmt) (string, bool) {
	v := &nameCheck{}
	v.stmts(stmts)
	return v.bad, v.bad != ""
}

type nameCheck struct {
	bad string
}

func (v *nameCheck) name(n string) {
	if v.bad == "" && reserved(n) {
		v.bad = n
	}
}

func (v *nameCheck) key(e ast.Expr) {
	if s, ok := e.(*ast.StringExpr); ok {
		v.name(s.Value)
		return
	}
	v.expr(e)
}

func (v *nameCheck) stmts(list []ast.Stmt) {
	for _, s := range list {
		if v.bad != "" {
			return
		}
		v.stmt(s)
	}
}

func (v *nameCheck) exprs(list []ast.Expr) {
	for _, e := range list {
		v.expr(e)
	}
}

func (v *nameCheck) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.AssignStmt:
		v.exprs(s.Lhs)
		v.exprs(s.Rhs)
	case *ast.LocalAssignStmt:
		for _, n := range s.Names {
			v.name(n)
		}
		v.exprs(s.Exprs)
	case *ast.FuncCallStmt:
		v.expr(s.Expr)
	case *ast.DoBlockStmt:
		v.stmts(s.Stmts)
	case *ast.WhileStmt:
		v.expr(s.Condition)
		v.stmts(s.Stmts)
	case *ast.RepeatStmt:
		v.expr(s.Condition)
		v.stmts(s.Stmts)
	case *ast.IfStmt:
		v.expr(s.Condition)
		v.stmts(s.Then)
		v.stmts(s.Else)
	case *ast.NumberForStmt:
		v.name(s.Name)
		v.expr(s.Init)
		v.expr(s.Limit)
		v.expr(s.Step)
		v.stmts(s.Stmts)
	case *ast.GenericForStmt:
		for _, n := range s.Names {
			v.name(n)
		}
		v.exprs(s.Exprs)
		v.stmts(s.Stmts)
	case *ast.FuncDefStmt:
		if s.Name != nil {
			v.expr(s.Name.Func)
			v.expr(s.Name.Receiver)
			v.name(s.Name.Method)
		}
		v.expr(s.Func)
	case *ast.ReturnStmt:
		v.exprs(s.Exprs)
	case *ast.LabelStmt:
		v.name(s.Name)
	case *ast.GotoStmt:
		v.name(s.Label)
	}
}

func (v *nameCheck) expr(e ast.Expr) {
	if e == nil || v.bad != "" {
		return
	}
	switch e := e.(type) {
	case *ast.IdentExpr:
		v.name(e.Value)
	case *ast.AttrGetExpr:
		v.expr(e.Object)
		v.key(e.Key)
	case *ast.TableExpr:
		for _, f := range e.Fields {
			if f.Key != nil {
				v.key(f.Key)
			}
			v.expr(f.Value)
		}
	case *ast.FuncCallExpr:
		v.expr(e.Func)
		v.expr(e.Receiver)
		v.name(e.Method)
		v.exprs(e.Args)
	case *ast.LogicalOpExpr:
		v.expr(e.Lhs)
		v.expr(e.Rhs)
	case *ast.RelationalOpExpr:
		v.expr(e.Lhs)
		v.expr(e.Rhs)
	case *ast.StringConcatOpExpr:
		v.expr(e.Lhs)
		v.expr(e.Rhs)
	case *ast.ArithmeticOpExpr:
		v.expr(e.Lhs)
		v.expr(e.Rhs)
	case *ast.UnaryMinusOpExpr:
		v.expr(e.Expr)
	case *ast.UnaryNotOpExpr:
		v.expr(e.Expr)
	case *ast.UnaryLenOpExpr:
		v.expr(e.Expr)
	case *ast.FunctionExpr:
		if e.ParList != nil {
			for _, n := range e.ParList.Names {
				v.name(n)
			}
		}
		v.stmts(e.Stmts)
	}
}
