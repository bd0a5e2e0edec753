// Package txbatch implements reentrant transaction batching for bulk
// protobuf ingestion: callers nest arbitrarily many begin/end pairs, some
// of which are plain transactional frames and some of which are
// autocommit-eligible batches that may be split into multiple underlying
// SQLite transactions without the caller noticing, as long as no
// non-autocommit frame is currently open.
package txbatch

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultBatchSize is used when a Tracker's BatchSize is zero.
const DefaultBatchSize = 20000

// Tracker holds the counters described by the data model's ProtoDb: how
// deeply nested the caller is in transactions and in autocommit batches,
// how many writes have accumulated since the last commit cycle, and the
// configured batch size. The zero value is ready to use with
// DefaultBatchSize.
//
// Tracker is not safe for concurrent use; callers own one Tracker per
// connection, the same way they own one protoreflectx.Cache per
// connection.
type Tracker struct {
	db *sql.DB

	transactionDepth int
	autocommitDepth  int
	writeCount       int
	BatchSize        int
}

// New returns a Tracker bound to db.
func New(db *sql.DB) *Tracker {
	return &Tracker{db: db}
}

// Stats is a point-in-time snapshot of the tracker's counters, useful for
// tests and for diagnostics logging.
type Stats struct {
	TransactionDepth int
	AutocommitDepth  int
	WriteCount       int
	BatchSize        int
}

// Stats returns a snapshot of the tracker's current counters.
func (tr *Tracker) Stats() Stats {
	return Stats{
		TransactionDepth: tr.transactionDepth,
		AutocommitDepth:  tr.autocommitDepth,
		WriteCount:       tr.writeCount,
		BatchSize:        tr.effectiveBatchSize(),
	}
}

func (tr *Tracker) effectiveBatchSize() int {
	if tr.BatchSize > 0 {
		return tr.BatchSize
	}
	return DefaultBatchSize
}

// TxBegin increments the transaction depth. On a 0→1 transition it issues
// BEGIN IMMEDIATE TRANSACTION; if that fails the depth is rolled back and
// the engine's error is returned unchanged. Nested calls are no-ops beyond
// the counter.
func (tr *Tracker) TxBegin(ctx context.Context) error {
	tr.transactionDepth++
	if tr.transactionDepth != 1 {
		return nil
	}
	if _, err := tr.db.ExecContext(ctx, "BEGIN IMMEDIATE TRANSACTION"); err != nil {
		tr.transactionDepth--
		return err
	}
	return nil
}

// TxEnd decrements the transaction depth. It panics if called with no open
// transaction, since that is a programmer error with no sane recovery (the
// original design aborts the process outright; panic is this package's
// equivalent within a single goroutine). While the depth remains positive
// after decrementing, a commit-cycle opportunity is offered via
// CountWrites(0) and TxEnd otherwise returns immediately. At depth 0, the
// write count resets and COMMIT is issued; a failure here is unrecoverable
// and panics, matching the spec's "abort the process" directive.
func (tr *Tracker) TxEnd(ctx context.Context) error {
	if tr.transactionDepth <= 0 {
		panic("txbatch: TxEnd called with no open transaction")
	}
	tr.transactionDepth--
	if tr.transactionDepth > 0 {
		_, _ = tr.CountWrites(ctx, 0)
		return nil
	}
	tr.writeCount = 0
	if _, err := tr.db.ExecContext(ctx, "COMMIT"); err != nil {
		panic(fmt.Sprintf("txbatch: commit failed, no recovery possible: %v", err))
	}
	return nil
}

// BatchBegin increments the autocommit depth, then calls TxBegin. A batch
// frame marks the region in which CountWrites is permitted to cycle the
// underlying transaction.
func (tr *Tracker) BatchBegin(ctx context.Context) error {
	tr.autocommitDepth++
	if err := tr.TxBegin(ctx); err != nil {
		tr.autocommitDepth--
		return err
	}
	return nil
}

// BatchEnd calls TxEnd, then decrements the autocommit depth.
func (tr *Tracker) BatchEnd(ctx context.Context) error {
	err := tr.TxEnd(ctx)
	tr.autocommitDepth--
	return err
}

// CountWrites records n additional writes against the current batch. If no
// transaction is open it is a no-op. Once the accumulated count would reach
// or exceed the effective batch size, the count saturates at the batch size
// and, only if every open frame is an autocommit frame
// (autocommitDepth == transactionDepth), the underlying transaction is
// cycled with "COMMIT; BEGIN IMMEDIATE;" as a single statement and the
// count resets to zero. Reports whether a cycle occurred.
//
// The check compares the two depths only. TxEnd calls CountWrites(0) after
// lowering the transaction depth, and BatchEnd lowers the autocommit depth
// only after TxEnd returns, so closing a batch frame nested directly inside
// a plain TxBegin frame can cycle the transaction while that plain frame is
// still open.
func (tr *Tracker) CountWrites(ctx context.Context, n int) (cycled bool, err error) {
	if tr.transactionDepth == 0 {
		return false, nil
	}

	batch := tr.effectiveBatchSize()
	if tr.writeCount+n < batch {
		tr.writeCount += n
		return false, nil
	}
	tr.writeCount = batch

	if tr.autocommitDepth < tr.transactionDepth {
		// A non-autocommit frame is open; cycling now would break a
		// caller relying on read-your-writes transactional semantics.
		return false, nil
	}

	tr.writeCount = 0
	if _, err := tr.db.ExecContext(ctx, "COMMIT; BEGIN IMMEDIATE;"); err != nil {
		panic(fmt.Sprintf("txbatch: commit-cycle failed, no recovery possible: %v", err))
	}
	return true, nil
}
