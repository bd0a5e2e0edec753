// Package extract implements the path-extraction, format-conversion, and
// enum-lookup primitives exposed as SQL functions by protosqlite.
package extract

import (
	"log/slog"

	"github.com/syssam/protosql"
	"github.com/syssam/protosql/pathlang"
	"github.com/syssam/protosql/protoreflectx"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// Extract walks data (parsed as name via cache) along path and returns the
// single SQL-representable value the path selects: an int64, a float64, a
// string, a []byte, or nil. def/hasDefault carry the caller-supplied SQL
// default argument, if any, which takes priority over the protobuf field's
// own declared default. A nil data is rejected with protosql.ErrFieldNotFound.
func Extract(cache *protoreflectx.Cache, data []byte, name, path string, hasDefault bool, def any) (any, error) {
	if data == nil {
		return nil, protosql.ErrFieldNotFound
	}

	p, err := pathlang.Parse(path)
	if err != nil {
		return nil, err
	}

	root, err := cache.Parse(data, name)
	if err != nil {
		return nil, err
	}

	if p.IsRoot() {
		return serializeMessage(root, hasDefault, def)
	}

	return walk(root, p.Steps, hasDefault, def, path)
}

// walk consumes steps one at a time against cur, switching on each named
// field's cardinality and presence per the rules in the path extractor's
// step semantics.
func walk(cur protoreflect.Message, steps []pathlang.Step, hasDefault bool, def any, rawPath string) (any, error) {
	for i, step := range steps {
		remaining := steps[i+1:]

		fd := cur.Descriptor().Fields().ByName(protoreflect.Name(step.Name))
		if fd == nil {
			return nil, protosql.NewPathError(rawPath, protosql.ErrFieldNotFound)
		}

		if fd.IsList() {
			if !step.Indexed() {
				return nil, protosql.NewPathError(rawPath, protosql.ErrInvalidPath)
			}
			list := cur.Get(fd).List()
			idx := step.Index
			if idx < 0 {
				idx += list.Len()
			}
			if idx < 0 || idx >= list.Len() {
				return nil, nil
			}
			val := list.Get(idx)
			next, result, err := step1(fd, val, remaining, hasDefault, def, rawPath)
			if err != nil || result != nil {
				return valOrNil(result), err
			}
			cur = next
			continue
		}

		if !cur.Has(fd) && fd.HasPresence() {
			if len(remaining) == 0 {
				return defaultValue(fd, hasDefault, def, "")
			}
			switch fd.Kind() {
			case protoreflect.MessageKind, protoreflect.GroupKind:
				cur = cur.Get(fd).Message()
				continue
			case protoreflect.EnumKind:
				if len(remaining) == 1 && isEnumSuffix(remaining[0].Name) {
					return defaultValue(fd, hasDefault, def, remaining[0].Name)
				}
				return nil, protosql.NewPathError(rawPath, protosql.ErrInvalidPath)
			default:
				return nil, protosql.NewPathError(rawPath, protosql.ErrInvalidPath)
			}
		}

		val := cur.Get(fd)
		next, result, err := step1(fd, val, remaining, hasDefault, def, rawPath)
		if err != nil || result != nil {
			return valOrNil(result), err
		}
		cur = next
	}
	return nil, protosql.NewPathError(rawPath, protosql.ErrInvalidPath)
}

// step1 classifies a populated field value against the remaining path,
// returning either a message to keep descending into, or a terminal SQL
// result (with result non-nil, possibly itself nil meaning SQL NULL wrapped
// in resultHolder).
func step1(fd protoreflect.FieldDescriptor, val protoreflect.Value, remaining []pathlang.Step, hasDefault bool, def any, rawPath string) (protoreflect.Message, *resultHolder, error) {
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		if len(remaining) == 0 {
			r, err := serializeMessage(val.Message(), hasDefault, def)
			return nil, &resultHolder{v: r}, err
		}
		return val.Message(), nil, nil
	case protoreflect.EnumKind:
		switch {
		case len(remaining) == 0:
			r, err := enumSQLValue(fd, val.Enum(), "")
			return nil, &resultHolder{v: r}, err
		case len(remaining) == 1 && isEnumSuffix(remaining[0].Name):
			r, err := enumSQLValue(fd, val.Enum(), remaining[0].Name)
			return nil, &resultHolder{v: r}, err
		default:
			return nil, nil, protosql.NewPathError(rawPath, protosql.ErrNonMessageTraversal)
		}
	default:
		if len(remaining) != 0 {
			return nil, nil, protosql.NewPathError(rawPath, protosql.ErrNonMessageTraversal)
		}
		r, err := scalarToSQL(fd, val)
		return nil, &resultHolder{v: r}, err
	}
}

// resultHolder distinguishes "no terminal result yet" (nil *resultHolder)
// from "terminal result is SQL NULL" (non-nil holder wrapping a nil v).
type resultHolder struct{ v any }

func valOrNil(h *resultHolder) any {
	if h == nil {
		return nil
	}
	return h.v
}

func isEnumSuffix(name string) bool {
	return name == "name" || name == "number"
}

// defaultValue emits the protobuf-declared default for fd, or the
// caller-supplied default if one was given. suffixName is "name", "number",
// or "" (no suffix) for enum fields.
func defaultValue(fd protoreflect.FieldDescriptor, hasDefault bool, def any, suffixName string) (any, error) {
	if hasDefault {
		return def, nil
	}
	switch fd.Kind() {
	case protoreflect.MessageKind, protoreflect.GroupKind:
		return nil, nil
	case protoreflect.EnumKind:
		return enumSQLValue(fd, fd.Default().Enum(), suffixName)
	default:
		return scalarToSQL(fd, fd.Default())
	}
}

// scalarToSQL maps a non-enum scalar protoreflect.Value to its SQL
// representation, preserving the spec'd bool inversion quirk: true maps to
// 0 and false maps to 1.
func scalarToSQL(fd protoreflect.FieldDescriptor, val protoreflect.Value) (any, error) {
	switch fd.Kind() {
	case protoreflect.Int32Kind, protoreflect.Sint32Kind, protoreflect.Sfixed32Kind,
		protoreflect.Int64Kind, protoreflect.Sint64Kind, protoreflect.Sfixed64Kind:
		return val.Int(), nil
	case protoreflect.Uint32Kind, protoreflect.Fixed32Kind:
		return int64(val.Uint()), nil
	case protoreflect.Uint64Kind, protoreflect.Fixed64Kind:
		slog.Warn("protosql: uint64 field narrowed to signed SQL integer, range may be lost")
		return int64(val.Uint()), nil
	case protoreflect.FloatKind, protoreflect.DoubleKind:
		return val.Float(), nil
	case protoreflect.BoolKind:
		if val.Bool() {
			return int64(0), nil
		}
		return int64(1), nil
	case protoreflect.StringKind:
		return val.String(), nil
	case protoreflect.BytesKind:
		return val.Bytes(), nil
	default:
		slog.Warn("protosql: unexpected scalar kind presented as string", "kind", fd.Kind())
		return val.String(), nil
	}
}

// enumSQLValue resolves an enum value per the suffix rule: no suffix or
// "number" yields the numeric value, "name" yields the symbolic name.
func enumSQLValue(fd protoreflect.FieldDescriptor, num protoreflect.EnumNumber, suffixName string) (any, error) {
	if suffixName != "name" {
		return int64(num), nil
	}
	ev := fd.Enum().Values().ByNumber(num)
	if ev == nil {
		return nil, protosql.ErrEnumValueNotFound
	}
	return string(ev.Name()), nil
}

func serializeMessage(msg protoreflect.Message, hasDefault bool, def any) (any, error) {
	if !msg.IsValid() {
		if hasDefault {
			return def, nil
		}
		return nil, nil
	}
	data, err := proto.Marshal(msg.Interface())
	if err != nil {
		return nil, protosql.NewSerializeError(string(msg.Descriptor().FullName()), err)
	}
	return data, nil
}
