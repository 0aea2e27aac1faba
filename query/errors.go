package query

import (
	"fmt"

	"github.com/manojoshi/restorm/entity"
)

// Translation failures are synchronous and fatal to the Translate call:
// the caller fixes the query shape, nothing is retried or degraded.

// UnsupportedOperationError reports a query operator or method with no
// server-side or approved field-method equivalent.
type UnsupportedOperationError struct {
	Method string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("query: unsupported operation %q", e.Method)
}

// UnsupportedOperatorError reports a comparison/logical operator kind
// with no textual mapping in the remote grammar.
type UnsupportedOperatorError struct {
	Op Op
}

func (e *UnsupportedOperatorError) Error() string {
	return fmt.Sprintf("query: unsupported operator %s", e.Op)
}

// UnsupportedConstantError reports a constant whose runtime value cannot
// be rendered inline.
type UnsupportedConstantError struct {
	Value any
}

func (e *UnsupportedConstantError) Error() string {
	return fmt.Sprintf("query: unsupported constant of type %T", e.Value)
}

// UnsupportedLiteralTypeError reports an evaluated value whose static
// type has no literal form in the remote grammar.
type UnsupportedLiteralTypeError struct {
	Kind  entity.Kind
	Value any
}

func (e *UnsupportedLiteralTypeError) Error() string {
	return fmt.Sprintf("query: no literal form for %s value %v", e.Kind, e.Value)
}

// UnsupportedMemberAccessError reports a member-access shape the grammar
// cannot express.
type UnsupportedMemberAccessError struct {
	Name string
}

func (e *UnsupportedMemberAccessError) Error() string {
	return fmt.Sprintf("query: unsupported member access %q", e.Name)
}

// MultipleAggregatesError reports more than one distinct client-side
// aggregate requested in a single query.
type MultipleAggregatesError struct {
	Existing  Aggregate
	Requested Aggregate
}

func (e *MultipleAggregatesError) Error() string {
	return fmt.Sprintf("query: client-side aggregate already set to %s, cannot set %s",
		e.Existing, e.Requested)
}
