// Package sql provides fluent SQL statement building and execution
// primitives across database dialects.
//
// The package is the foundation of the query layer: a fluent API for
// constructing statements, typed predicates for composing filters,
// typed row projection, and a small executor bound to the
// dialect driver interface.
//
// # Builder Types
//
// The package provides specialized builders for the SQL operations:
//
//   - Builder: low-level SQL string builder with identifier quoting
//   - Selector: SELECT builder with joins, predicates and pagination
//   - InsertBuilder: INSERT builder with RETURNING support
//   - UpdateBuilder: UPDATE builder with SET and WHERE clauses
//   - DeleteBuilder: DELETE builder with WHERE predicates
//
// # Dialect Support
//
// Rendering adapts to the configured dialect, including placeholder
// style and identifier quoting:
//
//	import "github.com/vegasql/vega/dialect"
//
//	// PostgreSQL ($1, $2 placeholders, double-quoted identifiers)
//	b := sql.Dialect(dialect.Postgres)
//	b.Select("id", "name").From(sql.Table("users")).Where(sql.EQ("status", "active"))
//
//	// MySQL (? placeholders, backtick-quoted identifiers)
//	b := sql.Dialect(dialect.MySQL)
//
// # Predicates
//
// Filters are built from predicate values and composed with And, Or
// and Not. Nil predicates are skipped during composition, so optional
// filters can be passed through unconditionally:
//
//	sql.EQ("name", "john")                 // `name` = ?
//	sql.GT("age", 18)                      // `age` > ?
//	sql.Contains("name", "jo")             // `name` LIKE ?
//	sql.IsNull("deleted_at")               // `deleted_at` IS NULL
//	sql.In("status", "active", "pending")  // `status` IN (?, ?)
//	sql.And(nil, sql.GT("age", 18), nil)   // `age` > ?
//
// # Joins
//
// Join clauses require an ON condition. A join left without one is
// reported as a MissingJoinError when the statement is rendered.
// An intentional cross join is expressed with AppendFrom:
//
//	u, p := sql.Table("users").As("u"), sql.Table("posts").As("p")
//	sql.Select(u.C("name"), p.C("title")).
//		From(u).
//		Join(p).On(u.C("id"), p.C("user_id")).
//		Where(sql.EQ(u.C("status"), "active"))
//
// # Projection and Execution
//
// Statements execute through the Fetch family, which maps rows into
// typed values. With no explicit mapper, struct targets are mapped
// by matching field names, *Tuple targets receive ordered values,
// and other types are scanned as single-column scalars:
//
//	users, err := sql.Fetch[User](ctx, drv, query)
//	total, err := sql.FetchCount(ctx, drv, query)
//	rows, total, err := sql.FetchPage[User](ctx, drv, query.Limit(10))
//
// # Pagination
//
// Both offset and keyset pagination are supported:
//
//	// Offset pagination.
//	sql.Select("*").From(sql.Table("users")).Offset(20).Limit(10)
//
//	// Keyset pagination with an opaque cursor.
//	keys := []sql.OrderKey{{Column: "created_at", Desc: true}, {Column: "id"}}
//	sql.Select("*").From(sql.Table("users")).Keyset(keys, cursor).Limit(10)
//
// # Row-Level Locking
//
// Pessimistic locking for transactions:
//
//	sql.Select("*").From(sql.Table("users")).
//		Where(sql.EQ("id", 1)).
//		ForUpdate()
package sql
