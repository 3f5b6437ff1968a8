// Package backend defines the schema backend the synchronizer drives: table
// existence checks, column introspection and DDL execution inside a single
// transaction.
package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/schema"
)

// Backend opens transactions against one database.
type Backend interface {
	Dialect() ddl.Dialect
	// RunInTransaction runs fn in a transaction and commits when fn returns
	// nil. Any error from fn rolls back every change fn made and is returned
	// unchanged.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close()
}

// Tx is the set of schema operations available inside a transaction.
type Tx interface {
	HasTable(ctx context.Context, name string) (bool, error)
	// IntrospectColumns returns the live columns of a table in ordinal order,
	// with DataType normalized to the dialect's ColumnType spelling.
	IntrospectColumns(ctx context.Context, name string) ([]schema.Column, error)
	// IntrospectUniqueKeys returns the unique constraints of a table with
	// their columns in key order. Primary keys are not included.
	IntrospectUniqueKeys(ctx context.Context, name string) ([]schema.UniqueKey, error)
	// ChildTables returns the array tables of parent: tables named
	// "<parent>__<field>" with a foreign key referencing parent.
	ChildTables(ctx context.Context, parent string) ([]string, error)
	// CreateTable creates plan's table. Children are not created.
	CreateTable(ctx context.Context, plan schema.TablePlan) error
	AlterTable(ctx context.Context, op schema.AlterTable) error
	DropTable(ctx context.Context, name string) error
}

// ErrBackend is wrapped by every BackendError.
var ErrBackend = errors.New("backend error")

// BackendError reports a failure of the database while running Op.
type BackendError struct {
	Op    string // e.g. "create_table", "introspect"
	Table string
	Err   error
}

func (e *BackendError) Error() string {
	if e.Table != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes both the sentinel and the driver error.
func (e *BackendError) Unwrap() []error {
	return []error{ErrBackend, e.Err}
}

// Wrap returns err as a BackendError, or nil when err is nil. Errors that
// already are BackendErrors are returned as is.
func Wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{Op: op, Table: table, Err: err}
}
