package rowio

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/types/dynamicpb"
)

func TestBulkInsertMarshalsAndInsertsEveryMessage(t *testing.T) {
	desc := personDescriptor(t)

	var msgs []protoreflect.Message
	names := []string{"ada", "grace", "turing"}
	for _, n := range names {
		m := dynamicpb.NewMessage(desc)
		m.Set(desc.Fields().ByName("name"), protoreflect.ValueOfString(n))
		msgs = append(msgs, m.ProtoReflect())
	}

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	for i := range msgs {
		mock.ExpectQuery(`INSERT INTO people_raw\(proto\) VALUES\(\?\) RETURNING id`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(i + 1)))
	}

	out, err := BulkInsert(context.Background(), db, "people", msgs, 2)
	require.NoError(t, err)
	require.Equal(t, len(msgs), out.Len())

	for i, row := range out.Rows() {
		assert.Equal(t, int64(i+1), row.ID)
		got := dynamicpb.NewMessage(desc)
		require.NoError(t, proto.Unmarshal(row.Raw, got))
		assert.Equal(t, names[i], got.Get(desc.Fields().ByName("name")).String())
	}
}

func TestBulkInsertDefaultsConcurrencyToOne(t *testing.T) {
	desc := personDescriptor(t)
	m := dynamicpb.NewMessage(desc)
	m.Set(desc.Fields().ByName("name"), protoreflect.ValueOfString("x"))

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO people_raw\(proto\) VALUES\(\?\) RETURNING id`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))

	out, err := BulkInsert(context.Background(), db, "people", []protoreflect.Message{m.ProtoReflect()}, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Len())
}
