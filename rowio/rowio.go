// Package rowio implements the row reader/writer that moves proto-table
// rows between SQL result sets and in-memory lists: Populate drains a query
// result into a List, optionally parsing each blob; WriteRows pushes a List
// of pending rows back through INSERT/UPDATE.
package rowio

import (
	"context"
	"database/sql"
	"fmt"
	"math"

	"github.com/syssam/protosql"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

// Row is one proto-table row, in one of two states: parsed (Msg set) or
// carried as unparsed bytes (Raw set). ParseFailed distinguishes a row
// whose blob failed to parse as the requested message type from a row that
// was never asked to parse in the first place.
type Row struct {
	ID          int64
	Msg         protoreflect.Message
	Raw         []byte
	ParseFailed bool
}

// serialize returns the row's wire bytes, encoding Msg only if Raw was
// never populated.
func (r Row) serialize() ([]byte, error) {
	if r.Raw != nil {
		return r.Raw, nil
	}
	if r.Msg == nil {
		return nil, nil
	}
	data, err := proto.Marshal(r.Msg.Interface())
	if err != nil {
		return nil, protosql.NewSerializeError(string(r.Msg.Descriptor().FullName()), err)
	}
	return data, nil
}

// List is a growable, owning collection of Row. The zero value is usable;
// NewList preallocates the spec'd starting capacity of 8.
type List struct {
	rows []Row
}

// NewList returns a List with capacity for 8 rows without reallocating.
func NewList() *List {
	return &List{rows: make([]Row, 0, 8)}
}

// NewListWithCapacity returns a List preallocated to hold n rows without
// reallocating, used by WriteRows to guarantee the input-to-output
// transfer cannot fail partway through a row due to a failed allocation.
func NewListWithCapacity(n int) *List {
	return &List{rows: make([]Row, 0, n)}
}

// Len returns the number of rows currently held.
func (l *List) Len() int { return len(l.rows) }

// Rows returns the list's rows. The returned slice aliases the List's
// backing array; callers must not retain it across a further Append.
func (l *List) Rows() []Row { return l.rows }

// Append adds r to the list, growing the backing array by doubling
// (starting from capacity 8) when full. Returns an error instead of
// silently overflowing when doubling the capacity would wrap around.
func (l *List) Append(r Row) error {
	if len(l.rows) == cap(l.rows) {
		newCap := 8
		if cap(l.rows) > 0 {
			if cap(l.rows) > math.MaxInt/2 {
				return fmt.Errorf("rowio: list capacity overflow")
			}
			newCap = cap(l.rows) * 2
		}
		grown := make([]Row, len(l.rows), newCap)
		copy(grown, l.rows)
		l.rows = grown
	}
	l.rows = append(l.rows, r)
	return nil
}

// Populate steps rows (an already-executing query result with columns
// (id, proto)) and appends one Row per result row to list. When desc is
// non-nil, each blob is parsed as a message of that descriptor; a parse
// failure marks the row ParseFailed rather than aborting the scan, so a
// single malformed row does not lose the rest of the result set. When desc
// is nil, the raw bytes are carried unparsed.
func Populate(list *List, desc protoreflect.MessageDescriptor, rows *sql.Rows) error {
	for rows.Next() {
		var id int64
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			return err
		}

		row := Row{ID: id}
		switch {
		case desc != nil:
			msg := dynamicpb.NewMessage(desc)
			if err := proto.Unmarshal(blob, msg); err != nil {
				row.ParseFailed = true
				row.Raw = blob
			} else {
				row.Msg = msg.ProtoReflect()
			}
		default:
			row.Raw = blob
		}

		if err := list.Append(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

// WriteRows writes each row of input to table in order: a row with ID == 0
// is inserted into "<table>_raw" and gets back its assigned id; any other
// row is updated through the view "<table>" by id (routing through its
// INSTEAD-OF trigger). Rows that succeed are moved, in order, into output,
// which the caller must size with NewListWithCapacity(input.Len()) so the
// transfer itself cannot fail partway through. On the first failure,
// WriteRows stops and leaves the unwritten remainder in input.
func WriteRows(ctx context.Context, db *sql.DB, output, input *List, table string) error {
	pending := input.rows
	i := 0
	for ; i < len(pending); i++ {
		row := pending[i]
		data, err := row.serialize()
		if err != nil {
			input.rows = pending[i:]
			return err
		}

		if row.ID == 0 {
			q := fmt.Sprintf("INSERT INTO %s_raw(proto) VALUES(?) RETURNING id", table)
			if err := db.QueryRowContext(ctx, q, data).Scan(&row.ID); err != nil {
				input.rows = pending[i:]
				return err
			}
		} else {
			q := fmt.Sprintf("UPDATE %s SET proto = ? WHERE id = ?", table)
			if _, err := db.ExecContext(ctx, q, data, row.ID); err != nil {
				input.rows = pending[i:]
				return err
			}
		}

		output.rows = append(output.rows, row)
	}
	input.rows = pending[i:]
	return nil
}
