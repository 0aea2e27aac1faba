// Package query holds the expression tree callers compose against a
// collection proxy, and the translator that renders one tree into the
// remote service's textual filter/order/offset syntax.
//
//	import q "github.com/manojoshi/restorm/query"
//
//	pred := q.And(
//	    q.Eq(q.Field("Status"), q.Value("PAID")),
//	    q.StartsWith(q.Field("Contact"), q.Value("ACME")),
//	)
//
// Nodes are dumb data containers; all traversal and rendering logic lives
// in translate.go so the node structs stay inert.
package query

import (
	"github.com/manojoshi/restorm/entity"
)

// Expr is the root node interface.
type Expr interface {
	isExpr()
}

// Op enumerates binary operator kinds. Only the kinds with an entry in
// the translator's operator table render; the rest fail translation.
type Op int

const (
	OpAnd Op = iota
	OpOr
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpXor
)

var opNames = map[Op]string{
	OpAnd: "AND", OpOr: "OR", OpEq: "==", OpNe: "<>",
	OpLt: "<", OpLe: "<=", OpGt: ">", OpGe: ">=", OpXor: "XOR",
}

func (o Op) String() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return "?"
}

type unaryOp int

const (
	unaryNot unaryOp = iota
	unaryConvert
)

// -------------------------------------------------------------------
// node types
// -------------------------------------------------------------------

type (
	// param is the query lambda parameter (the entity being filtered).
	param struct{}

	// source is a constant payload marking the queryable root; it
	// contributes the element schema and renders nothing.
	source struct{ schema *entity.Schema }

	constant struct{ value any }

	member struct {
		on   Expr
		name string
		decl string // declaring type name, for nested access rendering
		kind entity.Kind
	}

	call struct {
		method    string
		on        Expr // nil for static field methods
		args      []Expr
		declaring entity.Kind // set only for field methods
	}

	unary struct {
		op unaryOp
		x  Expr
	}

	binary struct {
		op   Op
		l, r Expr
	}

	// construct builds an intermediate value inline (e.g. a date literal
	// from components); it is constant-folded before rendering.
	construct struct {
		kind entity.Kind
		args []Expr
	}
)

func (*param) isExpr()     {}
func (*constant) isExpr()  {}
func (*member) isExpr()    {}
func (*call) isExpr()      {}
func (*unary) isExpr()     {}
func (*binary) isExpr()    {}
func (*construct) isExpr() {}

// -------------------------------------------------------------------
// leaf constructors
// -------------------------------------------------------------------

// Source marks the queryable root for an element schema.
func Source(s *entity.Schema) Expr { return &constant{value: &source{schema: s}} }

// Field accesses a field of the query parameter: renders the bare name.
func Field(name string) Expr { return &member{on: &param{}, name: name} }

// Sub accesses a field of a nested entity, e.g. x.Contact.Name. The
// declaring type name is kept because that is all the remote grammar
// accepts for nested shapes.
func Sub(parent Expr, declaringType, name string) Expr {
	return &member{on: parent, name: name, decl: declaringType}
}

// Capture reads a field off a closure-captured value; it is folded to a
// literal during translation. The field's static kind is resolved here so
// the literal formatter can dispatch on it.
func Capture(owner any, field string) Expr {
	return &member{
		on:   &constant{value: owner},
		name: field,
		kind: fieldKind(owner, field),
	}
}

// Value wraps a plain constant.
func Value(v any) Expr { return &constant{value: v} }

// Null is the untyped null constant.
func Null() Expr { return &constant{value: nil} }

// NewDate constructs a timestamp literal from components. With no clock
// arguments it is a date-only (midnight) literal; otherwise clock is
// hour, minute, second.
func NewDate(year, month, day int, clock ...int) Expr {
	args := []Expr{Value(year), Value(month), Value(day)}
	for _, c := range clock {
		args = append(args, Value(c))
	}
	return &construct{kind: entity.KindDateTime, args: args}
}

// NewGuid constructs an identifier literal from its string form.
func NewGuid(s string) Expr {
	return &construct{kind: entity.KindGuid, args: []Expr{Value(s)}}
}

// -------------------------------------------------------------------
// combinators
// -------------------------------------------------------------------

// Binary builds a comparison/logical node with an explicit operator kind.
func Binary(op Op, l, r Expr) Expr { return &binary{op: op, l: l, r: r} }

func Eq(l, r Expr) Expr  { return Binary(OpEq, l, r) }
func Ne(l, r Expr) Expr  { return Binary(OpNe, l, r) }
func Lt(l, r Expr) Expr  { return Binary(OpLt, l, r) }
func Le(l, r Expr) Expr  { return Binary(OpLe, l, r) }
func Gt(l, r Expr) Expr  { return Binary(OpGt, l, r) }
func Ge(l, r Expr) Expr  { return Binary(OpGe, l, r) }
func And(l, r Expr) Expr { return Binary(OpAnd, l, r) }
func Or(l, r Expr) Expr  { return Binary(OpOr, l, r) }

// Not is logical negation; it renders as (<operand> == false).
func Not(x Expr) Expr { return &unary{op: unaryNot, x: x} }

// Convert is a pass-through unary wrapper (type coercions produced by
// upstream builders); the operand renders unchanged.
func Convert(x Expr) Expr { return &unary{op: unaryConvert, x: x} }

// -------------------------------------------------------------------
// calls
// -------------------------------------------------------------------

// Invoke appends a query operator (Where, OrderBy, Skip, First, ...) to
// the queryable spine.
func Invoke(on Expr, method string, args ...Expr) Expr {
	return &call{method: method, on: on, args: args}
}

// Method invokes a field-value method of one of the approved value types.
// A nil receiver makes it a static method of that type.
func Method(kind entity.Kind, on Expr, name string, args ...Expr) Expr {
	return &call{method: name, on: on, args: args, declaring: kind}
}

// String field-method sugar.
func Contains(on Expr, arg Expr) Expr   { return Method(entity.KindString, on, "Contains", arg) }
func StartsWith(on Expr, arg Expr) Expr { return Method(entity.KindString, on, "StartsWith", arg) }
func EndsWith(on Expr, arg Expr) Expr   { return Method(entity.KindString, on, "EndsWith", arg) }

// StringCompare is the static String.Compare(a, b) helper some upstream
// expression builders wrap string equality in; the translator rewrites
// comparisons against it back into plain equality.
func StringCompare(a, b Expr) Expr {
	return Method(entity.KindString, nil, "Compare", a, b)
}
