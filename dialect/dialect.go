package dialect

import "context"

// SQLite is the only engine this module targets. The path-extraction and
// proto-table machinery is written directly against SQLite's function
// registration and trigger model; there is no portability layer.
const SQLite = "sqlite"

// ExecQuerier wraps the two primitive operations every layer above it is
// built from.
type ExecQuerier interface {
	Exec(ctx context.Context, query string, args, v any) error
	Query(ctx context.Context, query string, args, v any) error
}

// Driver is the generic exec/query/transaction interface to the underlying
// engine. The proto-table installer and the transaction batcher do not use
// it; they take a *sql.DB.
type Driver interface {
	ExecQuerier
	Tx(ctx context.Context) (Tx, error)
	Close() error
	Dialect() string
}

// Tx is a Driver bound to an open transaction.
type Tx interface {
	Driver
	Commit() error
	Rollback() error
}
