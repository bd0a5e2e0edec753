package protosqlite

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syssam/protosql/prototable"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
	_ "modernc.org/sqlite"
)

func personDescriptor(t *testing.T) protoreflect.MessageDescriptor {
	t.Helper()
	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("protosqlite/person.proto"),
		Package: proto.String("protosqlitetest"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Person"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name: proto.String("name"), Number: proto.Int32(1),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
						JsonName: proto.String("name"),
					},
					{
						Name: proto.String("age"), Number: proto.Int32(2),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_INT64.Enum(),
						JsonName: proto.String("age"),
					},
				},
			},
		},
	}
	files := new(protoregistry.Files)
	fd, err := protodesc.NewFile(fdp, files)
	require.NoError(t, err)
	require.NoError(t, files.RegisterFile(fd))

	desc := fd.Messages().Get(0)
	if prev, err := protoregistry.GlobalTypes.FindMessageByName(desc.FullName()); err == nil {
		// An earlier test in this package already registered the type, and
		// GlobalTypes rejects a second registration of the same name.
		return prev.Descriptor()
	}
	mt := dynamicpb.NewMessageType(desc)
	require.NoError(t, protoregistry.GlobalTypes.RegisterMessage(mt))
	t.Cleanup(func() {
		// protoregistry.GlobalTypes has no unregister; the type stays
		// registered and later tests in this package reuse it above.
	})
	return desc
}

func openRegistered(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, Register(context.Background(), db))
	return db
}

func TestRegisterInstallsEveryFunction(t *testing.T) {
	desc := personDescriptor(t)
	db := openRegistered(t)
	ctx := context.Background()

	msg := dynamicpb.NewMessage(desc)
	msg.Set(desc.Fields().ByName("name"), protoreflect.ValueOfString("ada"))
	data, err := proto.Marshal(msg)
	require.NoError(t, err)

	// A bare call to every registered name with plausible arguments; a
	// "no such function" error here means Register failed to install it.
	calls := []struct {
		query string
		args  []any
	}{
		{"SELECT protobuf_extract(?, ?, ?)", []any{data, "protosqlitetest.Person", "$.name"}},
		{"SELECT protobuf_to_json(?, ?)", []any{data, "protosqlitetest.Person"}},
		{"SELECT protobuf_of_json(?, ?)", []any{`{"name":"ada"}`, "protosqlitetest.Person"}},
		{"SELECT protobuf_to_text(?, ?)", []any{data, "protosqlitetest.Person"}},
		{"SELECT protobuf_of_text(?, ?)", []any{`name: "ada"`, "protosqlitetest.Person"}},
		{"SELECT protobuf_enum_name_of_number(?, ?)", []any{"protosqlitetest.Status", int64(0)}},
		{"SELECT protobuf_enum_number_of_name(?, ?)", []any{"protosqlitetest.Status", "UNKNOWN"}},
	}
	for _, c := range calls {
		rows, err := db.QueryContext(ctx, c.query, c.args...)
		if rows != nil {
			rows.Close()
		}
		assert.NotContains(t, errString(err), "no such function", c.query)
	}
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func TestExtractThroughProtoTableView(t *testing.T) {
	desc := personDescriptor(t)
	db := openRegistered(t)
	ctx := context.Background()

	spec := prototable.Spec{
		Table:   "people",
		Message: "protosqlitetest.Person",
		Columns: []prototable.Column{
			{Name: "name", SQLType: "TEXT", Path: "$.name"},
			{Name: "age", SQLType: "INTEGER", Path: "$.age"},
		},
	}
	require.NoError(t, spec.Validate())
	require.NoError(t, prototable.NewInstaller(db).Install(ctx, spec, new(prototable.CacheSlot)))

	msg := dynamicpb.NewMessage(desc)
	msg.Set(desc.Fields().ByName("name"), protoreflect.ValueOfString("ada"))
	msg.Set(desc.Fields().ByName("age"), protoreflect.ValueOfInt64(36))
	data, err := proto.Marshal(msg)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx, "INSERT INTO people(proto) VALUES (?)", data)
	require.NoError(t, err)

	var name string
	var age int64
	row := db.QueryRowContext(ctx, "SELECT name, age FROM people WHERE id = 1")
	require.NoError(t, row.Scan(&name, &age))
	assert.Equal(t, "ada", name)
	assert.Equal(t, int64(36), age)
}

func TestProtobufExtractWrongArity(t *testing.T) {
	db := openRegistered(t)
	_, err := db.QueryContext(context.Background(), "SELECT protobuf_extract(?, ?)", []byte{}, "protosqlitetest.Person")
	assert.Error(t, err)
}

func TestProtobufToJSONAndBack(t *testing.T) {
	desc := personDescriptor(t)
	db := openRegistered(t)
	ctx := context.Background()

	msg := dynamicpb.NewMessage(desc)
	msg.Set(desc.Fields().ByName("name"), protoreflect.ValueOfString("grace"))
	data, err := proto.Marshal(msg)
	require.NoError(t, err)

	var json string
	require.NoError(t, db.QueryRowContext(ctx, "SELECT protobuf_to_json(?, ?)", data, "protosqlitetest.Person").Scan(&json))
	assert.Contains(t, json, "grace")

	var roundTripped []byte
	require.NoError(t, db.QueryRowContext(ctx, "SELECT protobuf_of_json(?, ?)", json, "protosqlitetest.Person").Scan(&roundTripped))

	out := dynamicpb.NewMessage(desc)
	require.NoError(t, proto.Unmarshal(roundTripped, out))
	assert.Equal(t, "grace", out.Get(desc.Fields().ByName("name")).String())
}

func TestRegisterRejectsOldHostVersion(t *testing.T) {
	assert.True(t, versionLess("3.9.0", MinHostVersion))
	assert.False(t, versionLess("3.13.0", MinHostVersion))
	assert.False(t, versionLess("3.45.1", MinHostVersion))
}
