package prototable

import (
	"fmt"
	"strings"
)

// indexDef is a fully resolved index: its derived name, the SQL index
// expression it indexes, and whether it was auto-generated from a strong
// column (affecting the name prefix only).
type indexDef struct {
	name string
	expr string
	auto bool
	uniq bool
}

// Script is the generated DDL bundle for one proto-table, plus the
// bookkeeping the installer needs to find and drop orphaned indexes.
type Script struct {
	// SQL is the full semicolon-separated install script: BEGIN
	// EXCLUSIVE, raw table, view, triggers, and index creation, followed
	// by COMMIT.
	SQL string
	// OrphanQuery, run after SQL commits, lists indexes on the raw table
	// that match this generator's naming convention but were not
	// (re)created by the most recent run of SQL.
	OrphanQuery string
}

// columnExpr renders the CAST(protobuf_extract(...)) expression for a
// column, used both in the view definition and wherever an index
// component names a column.
func columnExpr(msg string, c Column) string {
	return fmt.Sprintf("CAST(protobuf_extract(proto, '%s', '%s', NULL) AS %s)", msg, c.Path, c.SQLType)
}

// Generate compiles s into its install script per §4.6: raw table, view,
// INSTEAD-OF triggers, functional indexes (auto + explicit), and a trailing
// orphan-index discovery query.
func Generate(s Spec) (Script, error) {
	if err := s.Validate(); err != nil {
		return Script{}, err
	}

	raw := s.rawTable()
	var b strings.Builder

	b.WriteString("BEGIN EXCLUSIVE;\n")
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s(id INTEGER PRIMARY KEY ASC NOT NULL, proto BLOB NOT NULL);\n", raw)

	writeView(&b, s, raw)
	writeTriggers(&b, s, raw)

	indexes := collectIndexes(s)
	names := make([]string, 0, len(indexes))
	for _, idx := range indexes {
		names = append(names, idx.name)
		kw := "INDEX"
		if idx.uniq {
			kw = "UNIQUE INDEX"
		}
		fmt.Fprintf(&b, "CREATE %s IF NOT EXISTS %q ON %s(%s);\n", kw, idx.name, raw, idx.expr)
	}

	b.WriteString("COMMIT;\n")

	return Script{
		SQL:         b.String(),
		OrphanQuery: orphanQuery(raw, names),
	}, nil
}

func writeView(b *strings.Builder, s Spec, raw string) {
	colNames := make([]string, 0, len(s.Columns)+2)
	colNames = append(colNames, "id", "proto")
	selectExprs := make([]string, 0, len(s.Columns)+2)
	selectExprs = append(selectExprs, "id", "proto")
	for _, c := range s.Columns {
		colNames = append(colNames, c.Name)
		selectExprs = append(selectExprs, columnExpr(s.Message, c))
	}

	fmt.Fprintf(b, "DROP VIEW IF EXISTS %s;\n", s.Table)
	fmt.Fprintf(b, "CREATE VIEW %s(%s) AS SELECT %s FROM %s;\n",
		s.Table, strings.Join(colNames, ", "), strings.Join(selectExprs, ", "), raw)
}

func writeTriggers(b *strings.Builder, s Spec, raw string) {
	insertTrigger := s.Table + "_insert"
	updateTrigger := s.Table + "_update"
	deleteTrigger := s.Table + "_delete"

	fmt.Fprintf(b, "DROP TRIGGER IF EXISTS %s;\n", insertTrigger)
	fmt.Fprintf(b, "CREATE TRIGGER %s INSTEAD OF INSERT ON %s BEGIN INSERT INTO %s(proto) VALUES (NEW.proto); END;\n",
		insertTrigger, s.Table, raw)

	fmt.Fprintf(b, "DROP TRIGGER IF EXISTS %s;\n", updateTrigger)
	fmt.Fprintf(b, "CREATE TRIGGER %s INSTEAD OF UPDATE OF proto ON %s BEGIN UPDATE %s SET proto = NEW.proto WHERE id = OLD.id; END;\n",
		updateTrigger, s.Table, raw)

	fmt.Fprintf(b, "DROP TRIGGER IF EXISTS %s;\n", deleteTrigger)
	fmt.Fprintf(b, "CREATE TRIGGER %s INSTEAD OF DELETE ON %s BEGIN DELETE FROM %s WHERE id = OLD.id; END;\n",
		deleteTrigger, s.Table, raw)
}

// collectIndexes builds the index set: one auto-index per strong column,
// then every explicit index, each resolved to its content-addressed name.
func collectIndexes(s Spec) []indexDef {
	var out []indexDef

	for _, c := range s.Columns {
		if c.Strength != Strong {
			continue
		}
		expr := columnExpr(s.Message, c)
		out = append(out, indexDef{
			name: indexName(s.Table, c.Name, expr, true),
			expr: expr,
			auto: true,
		})
	}

	for _, idx := range s.Indexes {
		parts := make([]string, len(idx.Components))
		for i, comp := range idx.Components {
			if c, ok := s.column(comp); ok {
				parts[i] = columnExpr(s.Message, c)
			} else {
				parts[i] = comp
			}
		}
		expr := strings.Join(parts, ",\n  ")
		out = append(out, indexDef{
			name: indexName(s.Table, idx.NameSuffix, expr, false),
			expr: expr,
			uniq: idx.Unique,
		})
	}

	return out
}

// orphanQuery lists indexes on raw matching either naming convention that
// are not among the names just (re)created.
func orphanQuery(raw string, created []string) string {
	keep := make([]string, len(created))
	for i, n := range created {
		keep[i] = "'" + n + "'"
	}
	notIn := "''"
	if len(keep) > 0 {
		notIn = strings.Join(keep, ", ")
	}
	return fmt.Sprintf(
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = '%s' `+
			`AND (name LIKE 'proto_index__%%' OR name LIKE 'proto_autoindex__%%') AND name NOT IN (%s);`,
		raw, notIn,
	)
}
