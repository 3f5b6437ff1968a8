package backend

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap("create_table", "users", nil))

	driverErr := errors.New("relation already exists")
	err := Wrap("create_table", "users", driverErr)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, driverErr)
	assert.Equal(t, "create_table users: relation already exists", err.Error())

	var be *BackendError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "create_table", be.Op)
	assert.Equal(t, "users", be.Table)
}

func TestWrapKeepsExistingBackendError(t *testing.T) {
	inner := Wrap("alter_table", "orders", errors.New("locked"))
	outer := Wrap("commit", "", fmt.Errorf("applying: %w", inner))

	var be *BackendError
	require.ErrorAs(t, outer, &be)
	assert.Equal(t, "alter_table", be.Op)
}

func TestBackendErrorWithoutTable(t *testing.T) {
	err := &BackendError{Op: "begin", Err: errors.New("connection refused")}
	assert.Equal(t, "begin: connection refused", err.Error())
}
