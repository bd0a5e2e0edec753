// Package protoreflectx memoizes the two expensive lookups the path
// extractor performs on every call: resolving a fully qualified message
// name to a prototype, and parsing a wire payload into a reusable message.
//
// A Cache is not safe for concurrent use; callers own one Cache per
// goroutine (typically per SQLite connection, since modernc.org/sqlite
// invokes registered scalar functions synchronously on the connection that
// is executing the statement) the way a per-thread-local would be owned in
// a C extension. The only cross-goroutine shared state is the global
// generation counter, bumped by InvalidateAll.
package protoreflectx

import (
	"bytes"
	"sync/atomic"

	"github.com/syssam/protosql"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/reflect/protoreflect"
	"google.golang.org/protobuf/reflect/protoregistry"
	"google.golang.org/protobuf/types/dynamicpb"
)

// generation is the process-wide invalidation counter. Acquire/release
// semantics are provided for free by atomic.Uint64's Load/Add on every
// supported platform.
var generation atomic.Uint64

// InvalidateAll bumps the global generation counter. Every Cache whose
// cached generation no longer matches re-resolves its prototype on next
// use; this is the only way prototypes held by other goroutines' Caches are
// invalidated.
func InvalidateAll() {
	generation.Add(1)
}

// Registry is the subset of protoregistry.Types this package needs. The
// zero value of Cache uses protoregistry.GlobalTypes, the registry that
// generated packages populate via their init() functions; tests may supply
// a scoped *protoregistry.Types instead.
type Registry interface {
	FindMessageByName(name protoreflect.FullName) (protoreflect.MessageType, error)
}

// Cache is a per-goroutine memoization slot for a single (name ->
// prototype) resolution and a single (bytes -> parsed message) pair. The
// parsed message instance is reused across payloads unless a payload is
// under half the largest one seen, which caps what an outlier keeps alive.
type Cache struct {
	registry Registry

	name       string
	prototype  protoreflect.MessageType
	generation uint64

	lastBytes []byte
	parsed    *dynamicpb.Message
	highWater int
}

// New returns a Cache backed by protoregistry.GlobalTypes.
func New() *Cache {
	return &Cache{registry: protoregistry.GlobalTypes}
}

// NewWithRegistry returns a Cache backed by a caller-supplied registry,
// useful for tests that want an isolated set of message types.
func NewWithRegistry(r Registry) *Cache {
	return &Cache{registry: r}
}

// Prototype resolves name to a protoreflect.MessageType, reusing the cached
// value when the cache is fresh (same generation, same name).
func (c *Cache) Prototype(name string) (protoreflect.MessageType, error) {
	cur := generation.Load()
	if cur != c.generation || c.prototype == nil || c.name != name {
		mt, err := c.registry.FindMessageByName(protoreflect.FullName(name))
		if err != nil {
			c.prototype = nil
			c.name = ""
			c.parsed = nil
			return nil, protosql.ErrTypeNotFound
		}
		c.name = name
		c.prototype = mt
		c.generation = cur
		c.parsed = nil // the parsed-message slot is only valid for the old prototype
	}
	return c.prototype, nil
}

// Parse resolves name via Prototype and parses bytes into a reusable
// message instance. If bytes is byte-for-byte equal to the last parsed
// payload for this cache, the previous result is returned without
// re-parsing. Otherwise the instance returned by an earlier call may be
// cleared and refilled, so a caller must not hold it across calls.
func (c *Cache) Parse(data []byte, name string) (protoreflect.Message, error) {
	mt, err := c.Prototype(name)
	if err != nil {
		return nil, err
	}

	if c.parsed != nil && bytes.Equal(c.lastBytes, data) {
		return c.parsed.ProtoReflect(), nil
	}

	// Reuse the previous instance, cleared, unless this payload is smaller
	// than half the largest one parsed so far; then a fresh instance is
	// allocated so an outlier payload's storage is not kept alive.
	msg := c.parsed
	if msg == nil || len(data) < c.highWater/2 {
		msg = dynamicpb.NewMessage(mt.Descriptor())
	} else {
		proto.Reset(msg)
	}

	if err := proto.Unmarshal(data, msg); err != nil {
		c.parsed = nil
		c.lastBytes = nil
		return nil, protosql.NewParseError("protobuf", name, err)
	}

	c.lastBytes = append(c.lastBytes[:0], data...)
	c.parsed = msg
	if len(data) > c.highWater {
		c.highWater = len(data)
	}
	return c.parsed.ProtoReflect(), nil
}
