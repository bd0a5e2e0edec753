// Package sql implements the dialect.Driver for SQLite on top of
// database/sql and modernc.org/sqlite.
//
// It wraps *sql.DB / *sql.Tx behind the dialect.Driver Exec/Query shape
// (the proto-table installer and the transaction batcher take the plain
// *sql.DB instead, available from Driver.DB), and adds two pieces of
// SQLite-specific plumbing that plain database/sql does not give you:
//
//   - WithPragma attaches a connection-scoped PRAGMA (busy_timeout,
//     foreign_keys, ...) to a context, applied on the connection actually
//     used to run the next statement.
//   - StatsDriver wraps a Driver with query/exec counters and a slow-query
//     hook, logged through log/slog.
//
// # Usage
//
//	drv, err := sql.Open(dialect.SQLite, "file:app.db?_pragma=busy_timeout(5000)")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer drv.Close()
//
//	stats := sql.NewStatsDriver(drv, sql.WithSlowQueryLog())
package sql
