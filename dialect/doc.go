// Package dialect defines the database-facing interfaces shared by the
// driver, schema, and proto-table layers.
//
// Unlike a general-purpose ORM dialect package, this one targets a single
// embedded engine: SQLite, via modernc.org/sqlite. There is no portability
// layer to Postgres or MySQL — the proto-table schema generator emits
// SQLite-specific DDL (INSTEAD OF triggers on views, functional indexes)
// that has no equivalent shape in those engines.
//
// # Driver Interface
//
// The package defines the Driver interface for database operations:
//
//	type Driver interface {
//	    Exec(ctx context.Context, query string, args, v any) error
//	    Query(ctx context.Context, query string, args, v any) error
//	    Tx(ctx context.Context) (Tx, error)
//	    Close() error
//	    Dialect() string
//	}
//
// # Transaction Interface
//
// The Tx interface extends Driver with transaction methods:
//
//	type Tx interface {
//	    Driver
//	    Commit() error
//	    Rollback() error
//	}
//
// # Usage
//
// Opening a database connection:
//
//	import (
//	    "github.com/syssam/protosql/dialect"
//	    "github.com/syssam/protosql/dialect/sql"
//	)
//
//	db, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=busy_timeout(5000)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer db.Close()
//
// # Sub-packages
//
//   - dialect/sql: driver implementation and session-pragma plumbing
//   - dialect/sql/schema: table/column/index model and diff validation
package dialect
