package protosqlite

import "strconv"
import "strings"

// versionLess reports whether a denotes an earlier SQLite version than b,
// comparing major.minor.patch numerically rather than lexically (so "3.9.0"
// is correctly older than "3.13.0").
func versionLess(a, b string) bool {
	pa, pb := splitVersion(a), splitVersion(b)
	for i := 0; i < 3; i++ {
		if pa[i] != pb[i] {
			return pa[i] < pb[i]
		}
	}
	return false
}

func splitVersion(v string) [3]int {
	var out [3]int
	parts := strings.SplitN(v, ".", 3)
	for i := 0; i < len(parts) && i < 3; i++ {
		n, _ := strconv.Atoi(parts[i])
		out[i] = n
	}
	return out
}
