// Package schema models the raw-table/view/index layout produced by the
// proto-table compiler (see prototable.Generate) and validates the
// evolution from one layout to the next before it is applied.
package schema

// Table describes a single SQL table or view as the proto-table compiler
// understands it: a name, its columns, the indexes defined over it, and any
// foreign keys. It has no notion of protobuf; it is the generic shape that
// ValidateDiff and ValidateSchema compare.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  []*Column
	Indexes     []*Index
	ForeignKeys []*ForeignKey
}

// Column describes a single column of a Table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Unique   bool
	Size     int
	Default  any
}

// Index describes an index over one or more columns of a Table. Columns
// that are nil (rather than a concrete *Column) indicate an expression
// index component that does not map onto a stored column — e.g. a
// protobuf_extract(...) CAST expression.
type Index struct {
	Name    string
	Unique  bool
	Columns []*Column
}

// ForeignKey describes a foreign key constraint from Columns in the owning
// Table to RefColumns in RefTable.
type ForeignKey struct {
	Columns    []*Column
	RefTable   *Table
	RefColumns []*Column
}
