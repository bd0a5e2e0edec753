package protoreflectx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syssam/protosql"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protodesc"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/descriptorpb"
	"google.golang.org/protobuf/types/dynamicpb"
)

// buildTestRegistry assembles a tiny in-memory descriptor (a single
// "testpkg.Person" message with a string "name" field) without depending on
// generated code, and returns a registry containing only that type.
func buildTestRegistry(t *testing.T) (*protoregistry.Types, protoreflect.MessageDescriptor) {
	t.Helper()

	fdp := &descriptorpb.FileDescriptorProto{
		Name:    proto.String("testpkg/person.proto"),
		Package: proto.String("testpkg"),
		Syntax:  proto.String("proto3"),
		MessageType: []*descriptorpb.DescriptorProto{
			{
				Name: proto.String("Person"),
				Field: []*descriptorpb.FieldDescriptorProto{
					{
						Name:     proto.String("name"),
						Number:   proto.Int32(1),
						Label:    descriptorpb.FieldDescriptorProto_LABEL_OPTIONAL.Enum(),
						Type:     descriptorpb.FieldDescriptorProto_TYPE_STRING.Enum(),
						JsonName: proto.String("name"),
					},
				},
			},
		},
	}

	files := new(protoregistry.Files)
	fd, err := protodesc.NewFile(fdp, files)
	require.NoError(t, err)
	require.NoError(t, files.RegisterFile(fd))

	md := fd.Messages().Get(0)
	types := new(protoregistry.Types)
	require.NoError(t, types.RegisterMessage(dynamicpb.NewMessageType(md)))
	return types, md
}

func TestCachePrototypeHit(t *testing.T) {
	reg, md := buildTestRegistry(t)
	c := NewWithRegistry(reg)

	mt, err := c.Prototype("testpkg.Person")
	require.NoError(t, err)
	assert.Equal(t, md.FullName(), mt.Descriptor().FullName())

	// second call should hit the cached prototype, not call the registry
	// again; wrap the registry in a counter to prove it.
	counting := &countingRegistry{Registry: reg}
	c2 := NewWithRegistry(counting)
	_, err = c2.Prototype("testpkg.Person")
	require.NoError(t, err)
	_, err = c2.Prototype("testpkg.Person")
	require.NoError(t, err)
	assert.Equal(t, 1, counting.calls)
}

func TestCachePrototypeNotFound(t *testing.T) {
	reg, _ := buildTestRegistry(t)
	c := NewWithRegistry(reg)

	_, err := c.Prototype("testpkg.DoesNotExist")
	require.Error(t, err)
	assert.ErrorIs(t, err, protosql.ErrTypeNotFound)
}

func TestCacheInvalidateAll(t *testing.T) {
	reg, _ := buildTestRegistry(t)
	counting := &countingRegistry{Registry: reg}
	c := NewWithRegistry(counting)

	_, err := c.Prototype("testpkg.Person")
	require.NoError(t, err)
	InvalidateAll()
	_, err = c.Prototype("testpkg.Person")
	require.NoError(t, err)
	assert.Equal(t, 2, counting.calls)
}

func TestCacheParseRoundTrip(t *testing.T) {
	reg, md := buildTestRegistry(t)
	c := NewWithRegistry(reg)

	src := dynamicpb.NewMessage(md)
	src.Set(md.Fields().ByName("name"), protoreflect.ValueOfString("ada"))
	data, err := proto.Marshal(src)
	require.NoError(t, err)

	msg, err := c.Parse(data, "testpkg.Person")
	require.NoError(t, err)
	assert.Equal(t, "ada", msg.Get(md.Fields().ByName("name")).String())
}

func TestCacheParseSamePayloadSkipsReparse(t *testing.T) {
	reg, md := buildTestRegistry(t)
	c := NewWithRegistry(reg)

	src := dynamicpb.NewMessage(md)
	src.Set(md.Fields().ByName("name"), protoreflect.ValueOfString("grace"))
	data, err := proto.Marshal(src)
	require.NoError(t, err)

	first, err := c.Parse(data, "testpkg.Person")
	require.NoError(t, err)
	second, err := c.Parse(data, "testpkg.Person")
	require.NoError(t, err)
	assert.Same(t, first.Interface(), second.Interface())
}

func TestCacheParseInvalidBytes(t *testing.T) {
	reg, _ := buildTestRegistry(t)
	c := NewWithRegistry(reg)

	_, err := c.Parse([]byte{0xff, 0xff, 0xff}, "testpkg.Person")
	require.Error(t, err)
}

type countingRegistry struct {
	Registry
	calls int
}

func (c *countingRegistry) FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error) {
	c.calls++
	return c.Registry.FindMessageByName(name)
}
