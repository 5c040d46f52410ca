package sql

import (
	"errors"
	"fmt"
)

// TypeError is returned when an expression is constructed from
// incompatible operands, such as a negative limit or a CASE
// expression with no WHEN clauses.
type TypeError struct {
	Expr string // offending expression.
	Hint string // what went wrong.
}

// Error implements the error interface.
func (e *TypeError) Error() string {
	return fmt.Sprintf("sql: invalid expression %s: %s", e.Expr, e.Hint)
}

// MissingJoinError is returned when a bare table is joined without
// an ON condition. Joins derived from a declared relationship carry
// an implicit condition; all others must set one explicitly.
type MissingJoinError struct {
	Table string // joined table or alias.
}

// Error implements the error interface.
func (e *MissingJoinError) Error() string {
	return fmt.Sprintf("sql: missing ON condition for joined table %q", e.Table)
}

// IsMissingJoin reports if the error was caused by a join without a condition.
func IsMissingJoin(err error) bool {
	var e *MissingJoinError
	return errors.As(err, &e)
}

// ProjectionError is returned when row values cannot be mapped into
// the projection target, for example a constructor with mismatched
// arity or incompatible parameter types. It is reported when the
// projection is bound, before any query executes, when possible.
type ProjectionError struct {
	Target string // target type name.
	Reason string // mismatch description.
}

// Error implements the error interface.
func (e *ProjectionError) Error() string {
	return fmt.Sprintf("sql: cannot project into %s: %s", e.Target, e.Reason)
}

// IsProjection reports if the error was caused by a projection mismatch.
func IsProjection(err error) bool {
	var e *ProjectionError
	return errors.As(err, &e)
}
