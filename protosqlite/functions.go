package protosqlite

import (
	"database/sql/driver"

	"github.com/syssam/protosql"
	"github.com/syssam/protosql/extract"
	"github.com/syssam/protosql/protoreflectx"
	"google.golang.org/protobuf/reflect/protoregistry"
	sqlite "modernc.org/sqlite"
)

// extractFunc implements protobuf_extract(proto, message_name, path[, default]).
func extractFunc(sc *sharedCache) sqlite.ScalarFunction {
	return func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 3 && len(args) != 4 {
			return nil, protosql.ErrWrongArity
		}
		data, _ := args[0].([]byte)
		name, _ := args[1].(string)
		path, _ := args[2].(string)

		hasDefault := len(args) == 4
		var def any
		if hasDefault {
			def = args[3]
		}

		result, err := sc.do(func(c *protoreflectx.Cache) (any, error) {
			return extract.Extract(c, data, name, path, hasDefault, def)
		})
		if err != nil {
			return nil, protosql.NewPathError(path, err)
		}
		return result, nil
	}
}

// toJSONFunc implements protobuf_to_json(proto, message_name).
func toJSONFunc(sc *sharedCache) sqlite.ScalarFunction {
	return func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, protosql.ErrWrongArity
		}
		data, _ := args[0].([]byte)
		name, _ := args[1].(string)
		return sc.do(func(c *protoreflectx.Cache) (any, error) {
			return extract.ToJSON(c, data, name)
		})
	}
}

// ofJSONFunc implements protobuf_of_json(json_text, message_name).
func ofJSONFunc(sc *sharedCache) sqlite.ScalarFunction {
	return func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, protosql.ErrWrongArity
		}
		text := toBytes(args[0])
		name, _ := args[1].(string)
		return sc.do(func(c *protoreflectx.Cache) (any, error) {
			return extract.FromJSON(c, text, name)
		})
	}
}

// toTextFunc implements protobuf_to_text(proto, message_name).
func toTextFunc(sc *sharedCache) sqlite.ScalarFunction {
	return func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, protosql.ErrWrongArity
		}
		data, _ := args[0].([]byte)
		name, _ := args[1].(string)
		return sc.do(func(c *protoreflectx.Cache) (any, error) {
			return extract.ToText(c, data, name)
		})
	}
}

// ofTextFunc implements protobuf_of_text(text, message_name).
func ofTextFunc(sc *sharedCache) sqlite.ScalarFunction {
	return func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, protosql.ErrWrongArity
		}
		text := toBytes(args[0])
		name, _ := args[1].(string)
		return sc.do(func(c *protoreflectx.Cache) (any, error) {
			return extract.FromText(c, text, name)
		})
	}
}

// enumNameOfNumberFunc implements protobuf_enum_name_of_number(enum_type_name, number).
//
// Enum symbol tables are process-wide and read-only from this extension's
// point of view, so lookups go straight to protoregistry.GlobalTypes
// (safe for concurrent use) rather than through the shared cache.
func enumNameOfNumberFunc() sqlite.ScalarFunction {
	return func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, protosql.ErrWrongArity
		}
		enumName, _ := args[0].(string)
		number, err := toInt64(args[1])
		if err != nil {
			return nil, err
		}
		return extract.EnumNameOfNumber(protoregistry.GlobalTypes, enumName, int32(number))
	}
}

// enumNumberOfNameFunc implements protobuf_enum_number_of_name(enum_type_name, name).
func enumNumberOfNameFunc() sqlite.ScalarFunction {
	return func(ctx *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
		if len(args) != 2 {
			return nil, protosql.ErrWrongArity
		}
		enumName, _ := args[0].(string)
		name, _ := args[1].(string)
		n, err := extract.EnumNumberOfName(protoregistry.GlobalTypes, enumName, name)
		if err != nil {
			return nil, err
		}
		return int64(n), nil
	}
}

func toBytes(v driver.Value) []byte {
	switch t := v.(type) {
	case []byte:
		return t
	case string:
		return []byte(t)
	default:
		return nil
	}
}

func toInt64(v driver.Value) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case float64:
		return int64(t), nil
	default:
		return 0, protosql.ErrWrongArity
	}
}
