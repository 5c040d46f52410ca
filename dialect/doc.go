// Package dialect provides the database abstraction the query builders
// are rendered and executed against.
//
// # Supported Dialects
//
// Each dialect is identified by a constant string:
//
//	dialect.Postgres = "postgres"
//	dialect.MySQL    = "mysql"
//	dialect.SQLite   = "sqlite3"
//
// # Driver Interface
//
// The Driver interface wraps all database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// The Tx interface extends ExecQuerier with Commit and Rollback, and the
// ExecQuerier interface is the subset implemented by both drivers and
// transactions.
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/vegasql/vega/dialect"
//	    "github.com/vegasql/vega/dialect/sql"
//	)
//
//	drv, err := sql.Open(dialect.SQLite, "file:demo?mode=memory&cache=shared&_fk=1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
// Wrapping a driver with query logging:
//
//	drv = dialect.Debug(drv)
package dialect
