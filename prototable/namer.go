package prototable

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// indexFPKey is the constant domain key mixed into every index-expression
// fingerprint, so a collision with an unrelated hash of the same bytes
// elsewhere in the process is astronomically unlikely.
const indexFPKey = "proto table umash index fp key"

// fingerprint computes a 128-bit keyed fingerprint of expr as two
// independent 64-bit xxhash digests, domain-separated by a trailing tag
// byte so the two halves are not trivially related.
func fingerprint(expr string) (hi, lo uint64) {
	hi = xxhash.Sum64String(indexFPKey + "\x00" + expr)
	lo = xxhash.Sum64String(indexFPKey + "\x01" + expr)
	return hi, lo
}

// indexName derives the name of an index per §4.6: content-addressed on
// its expression string, so changing the expression produces a new name
// and leaves the old one orphaned for the installer to drop.
func indexName(table, suffix, expr string, auto bool) string {
	hi, lo := fingerprint(expr)
	tag := ""
	if auto {
		tag = "auto"
	}
	return fmt.Sprintf("proto_%sindex__%s__%s__%016x%016x", tag, table, suffix, hi, lo)
}
