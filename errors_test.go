package protosql

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPathError(t *testing.T) {
	err := NewPathError("$.foo[bar]", ErrInvalidPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "$.foo[bar]")
	assert.True(t, IsInvalidPath(err))
	assert.True(t, errors.Is(err, ErrInvalidPath))

	other := NewPathError("$.nope", ErrFieldNotFound)
	assert.False(t, IsInvalidPath(other))
}

func TestParseError(t *testing.T) {
	wrapped := errors.New("unexpected EOF")
	err := NewParseError("json", "pkg.Person", wrapped)
	require.Error(t, err)
	assert.ErrorIs(t, err, wrapped)
	assert.True(t, IsParseError(err))
	assert.Contains(t, err.Error(), "pkg.Person")
}

func TestInstallError(t *testing.T) {
	wrapped := errors.New("no such column: id")
	err := NewInstallError("people", wrapped)
	require.Error(t, err)
	assert.True(t, IsInstallError(err))
	assert.Contains(t, err.Error(), "people")
	assert.ErrorIs(t, err, wrapped)
}
