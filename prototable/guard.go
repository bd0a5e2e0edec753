package prototable

import (
	"github.com/syssam/protosql/dialect/sql/schema"
)

// expectedRawTable describes the raw table's stable shape: it never grows
// or loses columns across spec changes, since every proto-table's storage
// is just an id and an opaque blob. This lets ValidateTable/ValidateDiff
// catch a raw table that drifted out from under the installer (e.g. a
// column added by hand, or the primary key dropped) before the install
// script runs against it.
func expectedRawTable(s Spec) *schema.Table {
	return &schema.Table{
		Name: s.rawTable(),
		Columns: []*schema.Column{
			{Name: "id", Type: "INTEGER", Nullable: false},
			{Name: "proto", Type: "BLOB", Nullable: false},
		},
		PrimaryKey: []*schema.Column{{Name: "id", Type: "INTEGER"}},
	}
}

// CheckDrift compares the live raw table (as introspected by the caller,
// typically from PRAGMA table_info) against the shape the installer always
// produces, surfacing any out-of-band schema drift as validation errors
// before Install runs. It also runs ValidateTable over the expected shape
// itself first, catching a Spec that would produce a malformed raw table
// (no primary key, duplicate columns) before that shape is even compared
// against what's live.
func CheckDrift(current *schema.Table, s Spec, opts ...schema.ValidateOption) *schema.ValidationResult {
	expected := expectedRawTable(s)

	result := schema.ValidateTable(expected)
	diff := schema.ValidateDiff([]*schema.Table{current}, []*schema.Table{expected}, opts...)
	result.Errors = append(result.Errors, diff.Errors...)
	result.Warnings = append(result.Warnings, diff.Warnings...)
	return result
}

// CheckSchema validates a set of proto-table specs together via
// ValidateSchema, catching two specs that would collide on the same raw
// table name before Installer.InstallAll installs any of them.
func CheckSchema(specs []Spec) *schema.ValidationResult {
	tables := make([]*schema.Table, len(specs))
	for i, s := range specs {
		tables[i] = expectedRawTable(s)
	}
	return schema.ValidateSchema(tables)
}
