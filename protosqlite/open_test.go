package protosqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dsql "github.com/syssam/protosql/dialect/sql"
)

func TestOpenReturnsStatsDriverOnly(t *testing.T) {
	_, stats, debugDriver, err := Open(context.Background(), ":memory:", nil)
	require.NoError(t, err)
	require.NotNil(t, stats)
	assert.Nil(t, debugDriver)
}

func TestOpenWithDebugLogReturnsDebugDriver(t *testing.T) {
	var logged []string
	statsDriver, _, debugDriver, err := Open(context.Background(), ":memory:", nil,
		WithDebugLog(dsql.DebugWithLog(func(_ context.Context, v ...any) {
			for _, x := range v {
				if s, ok := x.(string); ok {
					logged = append(logged, s)
				}
			}
		})),
	)
	require.NoError(t, err)
	require.NotNil(t, debugDriver)

	// A single shared connection, since ":memory:" otherwise gives each
	// pooled connection its own distinct database.
	statsDriver.DB().SetMaxOpenConns(1)

	_, err = statsDriver.DB().ExecContext(context.Background(), "CREATE TABLE t(id INTEGER)")
	require.NoError(t, err)

	err = debugDriver.Exec(context.Background(), "INSERT INTO t(id) VALUES (1)", []any{}, nil)
	require.NoError(t, err)

	rows := &dsql.Rows{}
	err = debugDriver.Query(context.Background(), "SELECT id FROM t", []any{}, rows)
	require.NoError(t, err)
	require.NoError(t, rows.Close())

	assert.NotEmpty(t, logged)
}
