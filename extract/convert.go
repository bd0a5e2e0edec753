package extract

import (
	"github.com/syssam/protosql"
	"github.com/syssam/protosql/protoreflectx"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/encoding/prototext"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/dynamicpb"
)

// jsonMarshalOptions always emits primitive fields, including those at
// their zero value, so a consumer in a language with loose null semantics
// cannot confuse "unset" with "explicitly default".
var jsonMarshalOptions = protojson.MarshalOptions{EmitUnpopulated: true}

var jsonUnmarshalOptions = protojson.UnmarshalOptions{DiscardUnknown: true}

var textUnmarshalOptions = prototext.UnmarshalOptions{DiscardUnknown: true}

// ToJSON renders data (parsed as name) to its canonical protojson text.
func ToJSON(cache *protoreflectx.Cache, data []byte, name string) (string, error) {
	msg, err := cache.Parse(data, name)
	if err != nil {
		return "", err
	}
	out, err := jsonMarshalOptions.Marshal(msg.Interface())
	if err != nil {
		return "", protosql.NewSerializeError(name, err)
	}
	return string(out), nil
}

// FromJSON parses json as a message of the named type and returns its
// wire-format bytes.
func FromJSON(cache *protoreflectx.Cache, json []byte, name string) ([]byte, error) {
	mt, err := cache.Prototype(name)
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(mt.Descriptor())
	if err := jsonUnmarshalOptions.Unmarshal(json, msg); err != nil {
		return nil, protosql.NewParseError("json", name, err)
	}
	out, err := proto.Marshal(msg)
	if err != nil {
		return nil, protosql.NewSerializeError(name, err)
	}
	return out, nil
}

// ToText renders data (parsed as name) to textproto.
func ToText(cache *protoreflectx.Cache, data []byte, name string) (string, error) {
	msg, err := cache.Parse(data, name)
	if err != nil {
		return "", err
	}
	out, err := prototext.Marshal(msg.Interface())
	if err != nil {
		return "", protosql.NewSerializeError(name, err)
	}
	return string(out), nil
}

// FromText parses text as textproto for the named type and returns its
// wire-format bytes.
func FromText(cache *protoreflectx.Cache, text []byte, name string) ([]byte, error) {
	mt, err := cache.Prototype(name)
	if err != nil {
		return nil, err
	}
	msg := dynamicpb.NewMessage(mt.Descriptor())
	if err := textUnmarshalOptions.Unmarshal(text, msg); err != nil {
		return nil, protosql.NewParseError("text", name, err)
	}
	out, err := proto.Marshal(msg)
	if err != nil {
		return nil, protosql.NewSerializeError(name, err)
	}
	return out, nil
}
