// Package prototable compiles a declarative proto-table description into
// the SQLite DDL bundle that exposes a protobuf blob column as a relational
// view, and installs that bundle idempotently against a live database.
package prototable

import (
	"fmt"
	"regexp"

	"github.com/syssam/protosql"
	"github.com/syssam/protosql/pathlang"
)

// SelectorStrength controls whether a column automatically gets a
// supporting index.
type SelectorStrength int

const (
	// Strong is the default: the column is expected to appear in WHERE
	// clauses often enough to warrant an automatic index.
	Strong SelectorStrength = iota
	// Weak columns never get an automatic index.
	Weak
)

// Column is one extracted, typed view column.
type Column struct {
	Name     string
	SQLType  string // e.g. "INTEGER", "TEXT", "REAL", "BLOB"
	Path     string // path expression, e.g. "$.name"
	Strength SelectorStrength
}

// Index is an explicit, named (by suffix) multi-column index. Components
// are either a column name (substituted with that column's CAST expression
// when the script is generated) or a raw SQL expression.
type Index struct {
	NameSuffix string
	Components []string
	Unique     bool
}

// Spec is the declarative description of one proto-table.
type Spec struct {
	Table   string // view name
	Message string // fully qualified message name
	Columns []Column
	Indexes []Index
}

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Validate checks the invariants ProtoTableSpec is declared to hold: the
// table name is a valid identifier, column names are unique, and every
// column path parses.
func (s Spec) Validate() error {
	if !identifierRe.MatchString(s.Table) {
		return protosql.NewInstallError(s.Table, fmt.Errorf("not a valid identifier"))
	}
	seen := make(map[string]bool, len(s.Columns))
	for _, c := range s.Columns {
		if !identifierRe.MatchString(c.Name) {
			return protosql.NewInstallError(s.Table, fmt.Errorf("column %q is not a valid identifier", c.Name))
		}
		if seen[c.Name] {
			return protosql.NewInstallError(s.Table, fmt.Errorf("duplicate column %q", c.Name))
		}
		seen[c.Name] = true
		if _, err := pathlang.Parse(c.Path); err != nil {
			return protosql.NewInstallError(s.Table, fmt.Errorf("column %q: %w", c.Name, err))
		}
	}
	return nil
}

func (s Spec) column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

func (s Spec) rawTable() string { return s.Table + "_raw" }
