package prototable

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"github.com/syssam/protosql"
)

// CacheSlot holds the last script generated for a given Spec, keyed on the
// spec's own content so Install can skip regeneration on repeated,
// unchanged calls (the common case: an application calls Install once per
// connection open).
type CacheSlot struct {
	mu     sync.Mutex
	key    string
	script Script
}

func specKey(s Spec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|", s.Table, s.Message)
	for _, c := range s.Columns {
		fmt.Fprintf(&b, "%s,%s,%s,%d;", c.Name, c.SQLType, c.Path, c.Strength)
	}
	for _, idx := range s.Indexes {
		fmt.Fprintf(&b, "%s,%v,%v;", idx.NameSuffix, idx.Components, idx.Unique)
	}
	return b.String()
}

// Installer executes generated proto-table scripts against a live
// database.
type Installer struct {
	db *sql.DB
}

// NewInstaller returns an Installer bound to db.
func NewInstaller(db *sql.DB) *Installer {
	return &Installer{db: db}
}

// Install generates (or reuses, via slot) the DDL script for s and runs it,
// then drops any indexes the trailing orphan query reports. On any SQL
// error mid-install, the error and table name are surfaced together and the
// exclusive transaction the script opened is left to SQLite to roll back.
func (in *Installer) Install(ctx context.Context, s Spec, slot *CacheSlot) error {
	script, err := in.scriptFor(s, slot)
	if err != nil {
		return err
	}

	if _, err := in.db.ExecContext(ctx, script.SQL); err != nil {
		return protosql.NewInstallError(s.Table, err)
	}

	orphans, err := in.orphanIndexNames(ctx, script.OrphanQuery)
	if err != nil {
		return protosql.NewInstallError(s.Table, err)
	}
	for _, name := range orphans {
		stmt := fmt.Sprintf("DROP INDEX IF EXISTS %q", name)
		if _, err := in.db.ExecContext(ctx, stmt); err != nil {
			return protosql.NewInstallError(s.Table, err)
		}
	}
	return nil
}

// InstallAll validates every spec in specs together (CheckSchema, catching
// a raw-table-name collision across the set) before installing each one in
// order against its corresponding slot. Installation stops at the first
// spec that fails validation or fails to install.
func (in *Installer) InstallAll(ctx context.Context, specs []Spec, slots []*CacheSlot) error {
	if len(specs) != len(slots) {
		return fmt.Errorf("protosql/prototable: %d specs but %d cache slots", len(specs), len(slots))
	}

	if result := CheckSchema(specs); result.HasErrors() {
		return protosql.NewInstallError(specs[0].Table, fmt.Errorf("%s", result))
	}

	for i, s := range specs {
		if err := in.Install(ctx, s, slots[i]); err != nil {
			return err
		}
	}
	return nil
}

func (in *Installer) scriptFor(s Spec, slot *CacheSlot) (Script, error) {
	key := specKey(s)

	slot.mu.Lock()
	if slot.key == key {
		script := slot.script
		slot.mu.Unlock()
		return script, nil
	}
	slot.mu.Unlock()

	script, err := Generate(s)
	if err != nil {
		return Script{}, err
	}

	slot.mu.Lock()
	slot.key = key
	slot.script = script
	slot.mu.Unlock()
	return script, nil
}

func (in *Installer) orphanIndexNames(ctx context.Context, query string) ([]string, error) {
	rows, err := in.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
