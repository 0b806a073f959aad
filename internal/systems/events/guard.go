// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package events

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

// Guard fields available to expressions.
const (
	FieldPlayers  = "players"
	FieldPowered  = "powered"
	FieldHour     = "hour"
	FieldSeverity = "severity"
	FieldTick     = "tick"
)

var guardFields = []string{FieldPlayers, FieldPowered, FieldHour, FieldSeverity, FieldTick}

// maxGuardDepth bounds nesting of parentheses and negation.
const maxGuardDepth = 32

var guardLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "String", Pattern: `"[^"]*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Op", Pattern: `==|!=|<=|>=|&&|\|\||<|>|!`},
	{Name: "Ident", Pattern: `[a-zA-Z_]\w*`},
	{Name: "Punct", Pattern: `[()]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Grammar:
//
//	or      = and ( ("or" | "||") and )*
//	and     = unary ( ("and" | "&&") unary )*
//	unary   = ("not" | "!") unary | compare
//	compare = operand [ op operand ]
//	operand = number | string | "true" | "false" | field | "(" or ")"
type orExpr struct {
	Left  *andExpr   `parser:"@@"`
	Right []*andExpr `parser:"( ('or' | '||') @@ )*"`
}

type andExpr struct {
	Left  *unaryExpr   `parser:"@@"`
	Right []*unaryExpr `parser:"( ('and' | '&&') @@ )*"`
}

type unaryExpr struct {
	Not     *unaryExpr   `parser:"  ('not' | '!') @@"`
	Compare *compareExpr `parser:"| @@"`
}

type compareExpr struct {
	Left  *operand `parser:"@@"`
	Op    string   `parser:"( @('==' | '!=' | '<=' | '>=' | '<' | '>')"`
	Right *operand `parser:"  @@ )?"`
}

type operand struct {
	Number *float64 `parser:"  @Number"`
	String *string  `parser:"| @String"`
	Bool   *string  `parser:"| @('true' | 'false')"`
	Field  string   `parser:"| @Ident"`
	Sub    *orExpr  `parser:"| '(' @@ ')'"`
}

var guardParser = participle.MustBuild[orExpr](
	participle.Lexer(guardLexer),
	participle.Unquote("String"),
)

// Env is the station state a guard is evaluated against.
type Env struct {
	Players  int
	Powered  bool
	Hour     int
	Severity int
	Tick     int
}

func (e Env) lookup(field string) any {
	switch field {
	case FieldPlayers:
		return float64(e.Players)
	case FieldPowered:
		return e.Powered
	case FieldHour:
		return float64(e.Hour)
	case FieldSeverity:
		return float64(e.Severity)
	default:
		return float64(e.Tick)
	}
}

// Guard is a compiled guard expression. The zero Guard always passes.
type Guard struct {
	src  string
	root *orExpr
}

// CompileGuard parses src. Unknown fields and ill-typed comparisons between
// literals are rejected here so evaluation never sees them.
func CompileGuard(src string) (Guard, error) {
	if src == "" {
		return Guard{}, nil
	}
	root, err := guardParser.ParseString("", src)
	if err != nil {
		return Guard{}, oops.Code("GUARD_INVALID").With("guard", src).Wrapf(err, "parsing guard")
	}
	if err := checkOr(root, 0); err != nil {
		return Guard{}, oops.Code("GUARD_INVALID").With("guard", src).Wrap(err)
	}
	return Guard{src: src, root: root}, nil
}

// String returns the source text.
func (g Guard) String() string { return g.src }

// Eval reports whether the guard holds in env.
func (g Guard) Eval(env Env) (bool, error) {
	if g.root == nil {
		return true, nil
	}
	return g.root.eval(env)
}

func checkOr(e *orExpr, depth int) error {
	if depth > maxGuardDepth {
		return fmt.Errorf("nesting depth exceeds maximum of %d", maxGuardDepth)
	}
	for _, a := range append([]*andExpr{e.Left}, e.Right...) {
		for _, u := range append([]*unaryExpr{a.Left}, a.Right...) {
			if err := checkUnary(u, depth); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkUnary(u *unaryExpr, depth int) error {
	for u.Not != nil {
		depth++
		if depth > maxGuardDepth {
			return fmt.Errorf("nesting depth exceeds maximum of %d", maxGuardDepth)
		}
		u = u.Not
	}
	c := u.Compare
	if err := checkOperand(c.Left, depth); err != nil {
		return err
	}
	if c.Right == nil {
		return nil
	}
	return checkOperand(c.Right, depth)
}

func checkOperand(o *operand, depth int) error {
	switch {
	case o.Sub != nil:
		return checkOr(o.Sub, depth+1)
	case o.Field != "":
		if !slices.Contains(guardFields, o.Field) {
			return fmt.Errorf("unknown field %q", o.Field)
		}
	}
	return nil
}

func (e *orExpr) eval(env Env) (bool, error) {
	ok, err := e.Left.eval(env)
	if err != nil || ok {
		return ok, err
	}
	for _, r := range e.Right {
		if ok, err = r.eval(env); err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

func (e *andExpr) eval(env Env) (bool, error) {
	ok, err := e.Left.eval(env)
	if err != nil || !ok {
		return ok, err
	}
	for _, r := range e.Right {
		if ok, err = r.eval(env); err != nil || !ok {
			return ok, err
		}
	}
	return true, nil
}

func (u *unaryExpr) eval(env Env) (bool, error) {
	if u.Not != nil {
		ok, err := u.Not.eval(env)
		return !ok, err
	}
	return u.Compare.eval(env)
}

func (c *compareExpr) eval(env Env) (bool, error) {
	l, err := c.Left.value(env)
	if err != nil {
		return false, err
	}
	if c.Right == nil {
		return truthy(l), nil
	}
	r, err := c.Right.value(env)
	if err != nil {
		return false, err
	}
	return compare(l, c.Op, r)
}

func (o *operand) value(env Env) (any, error) {
	switch {
	case o.Number != nil:
		return *o.Number, nil
	case o.String != nil:
		return *o.String, nil
	case o.Bool != nil:
		return *o.Bool == "true", nil
	case o.Sub != nil:
		return o.Sub.eval(env)
	default:
		return env.lookup(o.Field), nil
	}
}

func truthy(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case float64:
		return x != 0
	case string:
		return x != ""
	}
	return false
}

func compare(l any, op string, r any) (bool, error) {
	switch a := l.(type) {
	case float64:
		b, ok := r.(float64)
		if !ok {
			return false, mismatch(l, op, r)
		}
		switch op {
		case "==":
			return a == b, nil
		case "!=":
			return a != b, nil
		case "<":
			return a < b, nil
		case "<=":
			return a <= b, nil
		case ">":
			return a > b, nil
		default:
			return a >= b, nil
		}
	case string:
		b, ok := r.(string)
		if !ok {
			return false, mismatch(l, op, r)
		}
		switch op {
		case "==":
			return a == b, nil
		case "!=":
			return a != b, nil
		case "<":
			return a < b, nil
		case "<=":
			return a <= b, nil
		case ">":
			return a > b, nil
		default:
			return a >= b, nil
		}
	case bool:
		b, ok := r.(bool)
		if !ok || (op != "==" && op != "!=") {
			return false, mismatch(l, op, r)
		}
		return (a == b) == (op == "=="), nil
	}
	return false, mismatch(l, op, r)
}

func mismatch(l any, op string, r any) error {
	return oops.Code("GUARD_TYPE").Errorf("cannot compare %s %s %s", describe(l), op, describe(r))
}

func describe(v any) string {
	switch x := v.(type) {
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return strconv.Quote(x)
	default:
		return fmt.Sprint(x)
	}
}
