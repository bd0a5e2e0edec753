package protosqlite

import (
	"context"
	"time"

	"github.com/syssam/protosql/dialect"
	dsql "github.com/syssam/protosql/dialect/sql"
)

// openConfig holds Open's optional debug-logging wrapper settings.
type openConfig struct {
	debug     bool
	debugOpts []dsql.DebugOption
}

// OpenOption configures Open beyond statistics collection, which is always
// on.
type OpenOption func(*openConfig)

// WithDebugLog has Open additionally wrap the opened connection in a
// dialect/sql.DebugDriver, logging every query/exec/transaction boundary.
// It wraps the same underlying connection StatsDriver observes, so both
// can be used side by side: StatsDriver for the running aggregate,
// DebugDriver for a verbose per-statement trace during troubleshooting.
func WithDebugLog(opts ...dsql.DebugOption) OpenOption {
	return func(c *openConfig) {
		c.debug = true
		c.debugOpts = opts
	}
}

// Open is the top-level entry point applications are expected to use: it
// opens source against the sqlite driver, registers the protobuf SQL
// functions, and hands back a StatsDriver (and, if WithDebugLog is passed,
// a DebugDriver) wrapping the connection the proto-table installer, the
// transaction batcher, and rowio all expect their callers to build on.
//
// txbatch, prototable, and rowio take a plain *sql.DB rather than a
// dialect.Driver: they issue raw BEGIN IMMEDIATE/COMMIT statements (for the
// cycling transaction batching performs) and rely on *sql.Rows streaming
// and RETURNING-clause queries dialect.Driver's portable ExecQuerier
// interface does not model. Callers needing those packages pass
// statsDriver.DB(). StatsDriver and DebugDriver count and log only the
// calls made through their own Query, Exec, and Tx methods; statements
// issued directly on that *sql.DB are neither counted nor logged.
func Open(ctx context.Context, source string, statsOpts []dsql.StatsOption, opts ...OpenOption) (*dsql.StatsDriver, *dsql.QueryStats, *dsql.DebugDriver, error) {
	cfg := &openConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	base, err := dsql.Open(dialect.SQLite, source)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := Register(ctx, base.DB()); err != nil {
		base.Close()
		return nil, nil, nil, err
	}

	statsDriver := dsql.NewStatsDriver(base, statsOpts...)
	stats := statsDriver.QueryStats()

	var debugDriver *dsql.DebugDriver
	if cfg.debug {
		debugDriver = dsql.NewDebugDriver(base, cfg.debugOpts...)
	}

	return statsDriver, stats, debugDriver, nil
}

// DefaultSlowThreshold is the slow-query threshold Open's callers typically
// want for interactive workloads; bulk ingestion callers should raise it
// via dsql.WithSlowThreshold to avoid flagging every batched commit cycle.
const DefaultSlowThreshold = 200 * time.Millisecond
