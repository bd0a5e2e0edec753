// Package protosqlite is the extension's single entry point: it registers
// every protobuf SQL function against a database/sql handle backed by
// modernc.org/sqlite, the pure-Go, cgo-free SQLite driver this extension
// targets exclusively.
package protosqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/syssam/protosql/protoreflectx"
	sqlite "modernc.org/sqlite"
)

// MinHostVersion is the lowest SQLite version Register accepts. It does not
// cover the RETURNING clause rowio.WriteRows uses for insert, which SQLite
// supports only from 3.35.0.
const MinHostVersion = "3.13.0"

var (
	registerOnce sync.Once
	registerErr  error
)

// Register checks db's host SQLite version and installs the seven
// protobuf SQL functions: protobuf_extract, protobuf_to_json,
// protobuf_of_json, protobuf_to_text, protobuf_of_text,
// protobuf_enum_name_of_number, and protobuf_enum_number_of_name.
//
// modernc.org/sqlite registers scalar functions process-wide rather than
// per *sql.DB, so the function bodies are installed only once no matter
// how many times Register is called or against how many distinct
// databases; every database opened against the "sqlite" driver afterward
// sees the same functions. Registration aborts and returns the first
// failure, per the host-initializer contract this package implements.
func Register(ctx context.Context, db *sql.DB) error {
	if err := checkHostVersion(ctx, db); err != nil {
		return err
	}
	registerOnce.Do(func() {
		registerErr = registerFunctions(newSharedCache())
	})
	return registerErr
}

func checkHostVersion(ctx context.Context, db *sql.DB) error {
	var v string
	if err := db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&v); err != nil {
		return fmt.Errorf("protosqlite: reading host sqlite_version: %w", err)
	}
	if versionLess(v, MinHostVersion) {
		return fmt.Errorf("protosqlite: host SQLite %s is older than the required %s", v, MinHostVersion)
	}
	return nil
}

func registerFunctions(sc *sharedCache) error {
	fns := []struct {
		name  string
		nArgs int32
		fn    sqlite.ScalarFunction
	}{
		{"protobuf_extract", -1, extractFunc(sc)},
		{"protobuf_to_json", 2, toJSONFunc(sc)},
		{"protobuf_of_json", 2, ofJSONFunc(sc)},
		{"protobuf_to_text", 2, toTextFunc(sc)},
		{"protobuf_of_text", 2, ofTextFunc(sc)},
		{"protobuf_enum_name_of_number", 2, enumNameOfNumberFunc()},
		{"protobuf_enum_number_of_name", 2, enumNumberOfNameFunc()},
	}

	for _, f := range fns {
		if err := sqlite.RegisterDeterministicScalarFunction(f.name, f.nArgs, f.fn); err != nil {
			return fmt.Errorf("protosqlite: registering %s: %w", f.name, err)
		}
	}
	return nil
}

// sharedCache backs every registered function with one prototype/message
// cache. The C extension this is modeled on hands sqlite3_create_function a
// per-connection user-data pointer; modernc.org/sqlite's ScalarFunction
// callback carries no equivalent connection-scoped slot, so instead every
// connection in the process serializes through one mutex-guarded
// protoreflectx.Cache. This is strictly a concurrency-vs-contention
// tradeoff, not a correctness one: the cache's reuse heuristic (skip
// re-parsing when the generation and the last-seen bytes are unchanged)
// still works exactly as documented, it is just shared rather than private
// per connection.
type sharedCache struct {
	mu    sync.Mutex
	cache *protoreflectx.Cache
}

func newSharedCache() *sharedCache {
	return &sharedCache{cache: protoreflectx.New()}
}

func (s *sharedCache) do(fn func(*protoreflectx.Cache) (any, error)) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.cache)
}
