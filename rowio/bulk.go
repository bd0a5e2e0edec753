package rowio

import (
	"context"
	"database/sql"

	"github.com/syssam/protosql"
	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// BulkInsert marshals msgs concurrently (bounded by concurrency) and then
// writes them to table sequentially via WriteRows. SQLite allows only one
// writer at a time, so there is nothing to gain from parallelizing the
// inserts themselves, but marshaling a large batch of protobuf messages is
// pure CPU work that benefits from fanning out across goroutines before the
// single-writer bottleneck.
func BulkInsert(ctx context.Context, db *sql.DB, table string, msgs []protoreflect.Message, concurrency int) (*List, error) {
	if concurrency <= 0 {
		concurrency = 1
	}

	serialized := make([][]byte, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, m := range msgs {
		i, m := i, m
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			data, err := proto.Marshal(m.Interface())
			if err != nil {
				return protosql.NewSerializeError(string(m.Descriptor().FullName()), err)
			}
			serialized[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	input := NewListWithCapacity(len(msgs))
	for _, data := range serialized {
		if err := input.Append(Row{Raw: data}); err != nil {
			return nil, err
		}
	}

	output := NewListWithCapacity(len(msgs))
	if err := WriteRows(ctx, db, output, input, table); err != nil {
		return output, err
	}
	return output, nil
}
