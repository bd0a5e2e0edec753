package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/syssam/protosql/protoreflectx"
	"google.golang.org/protobuf/reflect/protoreflect"
)

func TestToJSONEmitsUnpopulatedFields(t *testing.T) {
	s := buildSchema(t)
	cache := protoreflectx.NewWithRegistry(s.types)

	p := s.newPerson()
	p.Set(s.person.Fields().ByName("name"), protoreflect.ValueOfString("ada"))
	data := s.marshal(t, p)

	out, err := ToJSON(cache, data, "testpkg.Person")
	require.NoError(t, err)
	assert.Contains(t, out, `"name":"ada"`)
	assert.Contains(t, out, `"age":0`)
}

func TestJSONRoundTrip(t *testing.T) {
	s := buildSchema(t)
	cache := protoreflectx.NewWithRegistry(s.types)

	p := s.newPerson()
	p.Set(s.person.Fields().ByName("name"), protoreflect.ValueOfString("grace"))
	p.Set(s.person.Fields().ByName("age"), protoreflect.ValueOfInt32(41))
	data := s.marshal(t, p)

	js, err := ToJSON(cache, data, "testpkg.Person")
	require.NoError(t, err)

	back, err := FromJSON(cache, []byte(js), "testpkg.Person")
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestJSONUnmarshalIgnoresUnknownFields(t *testing.T) {
	s := buildSchema(t)
	cache := protoreflectx.NewWithRegistry(s.types)

	_, err := FromJSON(cache, []byte(`{"name":"ada","somethingNew":123}`), "testpkg.Person")
	require.NoError(t, err)
}

func TestTextRoundTrip(t *testing.T) {
	s := buildSchema(t)
	cache := protoreflectx.NewWithRegistry(s.types)

	p := s.newPerson()
	p.Set(s.person.Fields().ByName("name"), protoreflect.ValueOfString("turing"))
	data := s.marshal(t, p)

	txt, err := ToText(cache, data, "testpkg.Person")
	require.NoError(t, err)
	assert.Contains(t, txt, "turing")

	back, err := FromText(cache, []byte(txt), "testpkg.Person")
	require.NoError(t, err)
	assert.Equal(t, data, back)
}

func TestFromJSONUnknownType(t *testing.T) {
	s := buildSchema(t)
	cache := protoreflectx.NewWithRegistry(s.types)

	_, err := FromJSON(cache, []byte(`{}`), "testpkg.NoSuchMessage")
	require.Error(t, err)
}
