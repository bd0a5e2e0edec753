package extract

import (
	"github.com/syssam/protosql"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
)

// EnumNameOfNumber resolves number to its symbolic name within the named
// enum type.
func EnumNameOfNumber(registry *protoregistry.Types, enumName string, number int32) (string, error) {
	et, err := registry.FindEnumByName(protoreflect.FullName(enumName))
	if err != nil {
		return "", protosql.ErrTypeNotFound
	}
	ev := et.Descriptor().Values().ByNumber(protoreflect.EnumNumber(number))
	if ev == nil {
		return "", protosql.ErrEnumValueNotFound
	}
	return string(ev.Name()), nil
}

// EnumNumberOfName resolves name to its numeric value within the named enum
// type.
func EnumNumberOfName(registry *protoregistry.Types, enumName, name string) (int32, error) {
	et, err := registry.FindEnumByName(protoreflect.FullName(enumName))
	if err != nil {
		return 0, protosql.ErrTypeNotFound
	}
	ev := et.Descriptor().Values().ByName(protoreflect.Name(name))
	if ev == nil {
		return 0, protosql.ErrEnumValueNotFound
	}
	return int32(ev.Number()), nil
}
