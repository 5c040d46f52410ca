package sql

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// sqlStateError is implemented by driver errors that expose their
// SQLSTATE code, e.g. pq.Error and pgx errors.
type sqlStateError interface {
	SQLState() string
}

// violation describes how one class of constraint violation is
// reported across drivers: the SQLSTATE code (Postgres class 23),
// the MySQL error numbers, and message substrings for drivers that
// expose neither, e.g. SQLite.
type violation struct {
	sqlstate string
	numbers  []uint16
	messages []string
}

var (
	uniqueViolation = violation{
		sqlstate: "23505",
		numbers:  []uint16{1062},
		messages: []string{
			"Error 1062",
			"violates unique constraint",
			"UNIQUE constraint failed",
		},
	}
	foreignKeyViolation = violation{
		sqlstate: "23503",
		// 1451: cannot delete or update a parent row.
		// 1452: cannot add or update a child row.
		numbers: []uint16{1451, 1452},
		messages: []string{
			"Error 1451",
			"Error 1452",
			"violates foreign key constraint",
			"FOREIGN KEY constraint failed",
		},
	}
	checkViolation = violation{
		sqlstate: "23514",
		numbers:  []uint16{3819},
		messages: []string{
			"Error 3819",
			"violates check constraint",
			"CHECK constraint failed",
		},
	}
)

func (v violation) match(err error) bool {
	if err == nil {
		return false
	}
	if e, ok := asError[sqlStateError](err); ok && e.SQLState() == v.sqlstate {
		return true
	}
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		for _, n := range v.numbers {
			if me.Number == n {
				return true
			}
		}
	}
	msg := err.Error()
	for _, m := range v.messages {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// IsConstraintError reports if the error resulted from a database
// constraint violation of any kind.
func IsConstraintError(err error) bool {
	return IsUniqueConstraintError(err) ||
		IsForeignKeyConstraintError(err) ||
		IsCheckConstraintError(err)
}

// IsUniqueConstraintError reports if the error resulted from a
// uniqueness constraint violation, e.g. a duplicate value in a
// unique index.
func IsUniqueConstraintError(err error) bool {
	return uniqueViolation.match(err)
}

// IsForeignKeyConstraintError reports if the error resulted from a
// foreign-key constraint violation, e.g. a missing parent row.
func IsForeignKeyConstraintError(err error) bool {
	return foreignKeyViolation.match(err)
}

// IsCheckConstraintError reports if the error resulted from a check
// constraint violation.
func IsCheckConstraintError(err error) bool {
	return checkViolation.match(err)
}

// asError extracts an error implementing T from the error chain.
func asError[T any](err error) (T, bool) {
	var target T
	for err != nil {
		if e, ok := err.(T); ok {
			return e, true
		}
		err = errors.Unwrap(err)
	}
	return target, false
}
