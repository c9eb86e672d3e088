// internal/parser/ast.go
//
// Expression tree nodes: one struct per production, dispatched through
// a single `Eval` method per node rather than an external visitor, since
// Mapyrus expressions have exactly one operation performed on them
// (evaluation against an Env). The node set is Mapyrus's own grammar
// (§4.C) — no closures, classes or indexing, but a FunctionCall node the
// distilled grammar leaves implicit (built-in functions like
// getWorldScale() appear in the literal end-to-end scenarios).
package parser

import (
	"regexp"
	"strings"

	mapyruserr "mapyrus/internal/errors"
	"mapyrus/internal/value"
)

// Env is what an expression tree needs from its execution context: variable
// resolution (through whatever scoping rules the caller implements),
// built-in function dispatch, and a shared regex cache for the `~`
// operator. The ContextStack in internal/interp implements this.
type Env interface {
	LookupVariable(name string) (value.Value, error)
	CallFunction(name string, args []value.Value) (value.Value, error)
	CompileRegexp(pattern string) (*regexp.Regexp, error)
}

// Expr is any node of the immutable expression tree.
type Expr interface {
	Eval(env Env) (value.Value, error)
}

// Literal is a constant number or string baked in at parse time.
type Literal struct {
	Value value.Value
}

func (l *Literal) Eval(Env) (value.Value, error) { return l.Value, nil }

// VariableExpr resolves a named variable through the Env at evaluation
// time (possibly dotted/namespaced, e.g. $Mapyrus.http.header).
type VariableExpr struct {
	Name string
}

func (v *VariableExpr) Eval(env Env) (value.Value, error) {
	return env.LookupVariable(v.Name)
}

// FunctionCall invokes a built-in function (sin, round, getWorldScale, ...).
type FunctionCall struct {
	Name string
	Args []Expr
}

func (f *FunctionCall) Eval(env Env) (value.Value, error) {
	args := make([]value.Value, len(f.Args))
	for i, a := range f.Args {
		v, err := a.Eval(env)
		if err != nil {
			return value.Value{}, err
		}
		args[i] = v
	}
	return env.CallFunction(f.Name, args)
}

// UnaryExpr is unary +/-.
type UnaryExpr struct {
	Operator string
	Operand  Expr
}

func (u *UnaryExpr) Eval(env Env) (value.Value, error) {
	v, err := u.Operand.Eval(env)
	if err != nil {
		return value.Value{}, err
	}
	n := v.AsNumber()
	if u.Operator == "-" {
		n = -n
	}
	return value.Number(n), nil
}

// LogicalExpr implements `and`/`or`. Per §4.C both sides are always
// evaluated (the language has no observable side effects in expressions),
// so this never short-circuits.
type LogicalExpr struct {
	Left     Expr
	Operator string // "and" | "or"
	Right    Expr
}

func (l *LogicalExpr) Eval(env Env) (value.Value, error) {
	lv, err := l.Left.Eval(env)
	if err != nil {
		return value.Value{}, err
	}
	rv, err := l.Right.Eval(env)
	if err != nil {
		return value.Value{}, err
	}
	switch l.Operator {
	case "and":
		return value.Bool(lv.IsTrue() && rv.IsTrue()), nil
	case "or":
		return value.Bool(lv.IsTrue() || rv.IsTrue()), nil
	}
	return value.Value{}, mapyruserr.Newf(mapyruserr.InvalidExpression, "unknown logical operator %q", l.Operator)
}

// BinaryExpr implements comparisons, `~`, additive and multiplicative
// operators.
type BinaryExpr struct {
	Left     Expr
	Operator string
	Right    Expr
}

func (b *BinaryExpr) Eval(env Env) (value.Value, error) {
	lv, err := b.Left.Eval(env)
	if err != nil {
		return value.Value{}, err
	}
	rv, err := b.Right.Eval(env)
	if err != nil {
		return value.Value{}, err
	}
	switch b.Operator {
	case ".":
		return value.String(lv.AsString() + rv.AsString()), nil
	case "+", "-":
		return arithmetic(b.Operator, lv, rv)
	case "*":
		return multiply(lv, rv)
	case "/":
		return divide(lv, rv)
	case "=", "!=", "<", "<=", ">", ">=":
		return compare(b.Operator, lv, rv)
	case "~":
		return regexContains(env, lv, rv)
	}
	return value.Value{}, mapyruserr.Newf(mapyruserr.InvalidExpression, "unknown operator %q", b.Operator)
}

func arithmetic(op string, lv, rv value.Value) (value.Value, error) {
	if lv.Kind() != value.KindNumber && lv.Kind() != value.KindString {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongTypes, "left operand of "+op+" is not numeric")
	}
	if rv.Kind() != value.KindNumber && rv.Kind() != value.KindString {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongTypes, "right operand of "+op+" is not numeric")
	}
	a, b := lv.AsNumber(), rv.AsNumber()
	var n float64
	if op == "+" {
		n = a + b
	} else {
		n = a - b
	}
	if err := value.CheckFinite(n); err != nil {
		return value.Value{}, err
	}
	return value.Number(n), nil
}

// multiply accepts (number,number) or (string,number), where the latter
// repeats the string floor(n) times, per §4.C.
func multiply(lv, rv value.Value) (value.Value, error) {
	if lv.Kind() == value.KindString && rv.Kind() == value.KindNumber {
		return value.String(strings.Repeat(lv.AsString(), int(rv.AsNumber()))), nil
	}
	if lv.Kind() != value.KindNumber || rv.Kind() != value.KindNumber {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongTypes, "'*' requires (number,number) or (string,number)")
	}
	n := lv.AsNumber() * rv.AsNumber()
	if err := value.CheckFinite(n); err != nil {
		return value.Value{}, err
	}
	return value.Number(n), nil
}

func divide(lv, rv value.Value) (value.Value, error) {
	if lv.Kind() != value.KindNumber || rv.Kind() != value.KindNumber {
		return value.Value{}, mapyruserr.New(mapyruserr.WrongTypes, "'/' requires two numbers")
	}
	n := lv.AsNumber() / rv.AsNumber()
	if err := value.CheckFinite(n); err != nil {
		return value.Value{}, err
	}
	return value.Number(n), nil
}

func compare(op string, lv, rv value.Value) (value.Value, error) {
	var result bool
	if lv.Kind() == value.KindString || rv.Kind() == value.KindString {
		a, b := lv.AsString(), rv.AsString()
		switch op {
		case "=":
			result = a == b
		case "!=":
			result = a != b
		case "<":
			result = a < b
		case "<=":
			result = a <= b
		case ">":
			result = a > b
		case ">=":
			result = a >= b
		}
	} else {
		a, b := lv.AsNumber(), rv.AsNumber()
		switch op {
		case "=":
			result = a == b
		case "!=":
			result = a != b
		case "<":
			result = a < b
		case "<=":
			result = a <= b
		case ">":
			result = a > b
		case ">=":
			result = a >= b
		}
	}
	return value.Bool(result), nil
}

// regexContains implements `~`: the right-hand string is compiled (via the
// shared, size-bounded LRU in the Env) and tested with Find against the
// left-hand string.
func regexContains(env Env, lv, rv value.Value) (value.Value, error) {
	re, err := env.CompileRegexp(rv.AsString())
	if err != nil {
		return value.Value{}, mapyruserr.Wrap(mapyruserr.InvalidExpression, err, "invalid regular expression")
	}
	return value.Bool(re.FindStringIndex(lv.AsString()) != nil), nil
}
