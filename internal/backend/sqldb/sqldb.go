// Package sqldb implements backend.Backend on database/sql for SQLite
// (modernc.org/sqlite), MySQL (go-sql-driver/mysql) and SQL Server
// (go-mssqldb).
//
// The three databases differ in how far DDL is transactional:
//
//   - SQL Server runs DDL inside a regular transaction.
//   - SQLite does too, but table rebuilds need foreign key enforcement off,
//     which can only be toggled outside a transaction. The backend pins a
//     connection, disables enforcement, runs the transaction and verifies
//     the foreign keys with PRAGMA foreign_key_check before committing.
//   - MySQL commits every DDL statement implicitly. The backend records a
//     compensating statement for every change and replays them in reverse
//     when the synchronization fails.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hurou927/schema-sync/internal/backend"
	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/schema"
)

// querier is satisfied by *sql.Tx and *sql.Conn.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// flavor holds the catalog queries and transaction handling of one database.
type flavor interface {
	dialect() ddl.Dialect
	hasTable(ctx context.Context, q querier, name string) (bool, error)
	columns(ctx context.Context, q querier, name string) ([]schema.Column, error)
	uniqueKeys(ctx context.Context, q querier, name string) ([]schema.UniqueKey, error)
	childTables(ctx context.Context, q querier, parent string) ([]string, error)
	run(ctx context.Context, db *sql.DB, fn func(q querier, j *journal) error) error
}

// Backend is a database/sql schema backend.
type Backend struct {
	db     *sql.DB
	flavor flavor
}

// New wraps an open database for the given backend kind ("sqlite", "mysql"
// or "mssql"). dbSchema qualifies SQL Server tables and is ignored otherwise.
func New(db *sql.DB, kind, dbSchema string) (*Backend, error) {
	d, ok := ddl.ForKind(kind, dbSchema)
	if !ok {
		return nil, fmt.Errorf("sqldb: unsupported backend kind %q", kind)
	}
	var f flavor
	switch d := d.(type) {
	case ddl.SQLite:
		f = sqliteFlavor{}
	case ddl.MySQL:
		f = mysqlFlavor{}
	case ddl.MSSQL:
		if d.Schema == "" {
			d.Schema = defaultMSSQLSchema
		}
		f = mssqlFlavor{d: d}
	default:
		return nil, fmt.Errorf("sqldb: %s is not a database/sql backend", d.Name())
	}
	return &Backend{db: db, flavor: f}, nil
}

func (b *Backend) Dialect() ddl.Dialect { return b.flavor.dialect() }

func (b *Backend) Close() { b.db.Close() }

func (b *Backend) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx backend.Tx) error) error {
	return b.flavor.run(ctx, b.db, func(q querier, j *journal) error {
		return fn(ctx, &txOps{q: q, f: b.flavor, journal: j})
	})
}

// runTx runs fn in a plain database/sql transaction started by begin.
func runTx(ctx context.Context, begin func(context.Context, *sql.TxOptions) (*sql.Tx, error), fn func(q querier, j *journal) error) error {
	tx, err := begin(ctx, nil)
	if err != nil {
		return backend.Wrap("begin", "", err)
	}
	if err := fn(tx, nil); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return backend.Wrap("commit", "", err)
	}
	return nil
}

// journal collects compensating statements for databases without
// transactional DDL. A nil journal records nothing.
type journal struct {
	undo []string
}

func (j *journal) record(stmts ...string) {
	if j == nil {
		return
	}
	j.undo = append(j.undo, stmts...)
}

// rollback runs the recorded statements newest first. Failures are
// collected, not short-circuited, so as much as possible is undone.
func (j *journal) rollback(ctx context.Context, q querier) error {
	if j == nil {
		return nil
	}
	var errs []error
	for i := len(j.undo) - 1; i >= 0; i-- {
		if _, err := q.ExecContext(ctx, j.undo[i]); err != nil {
			errs = append(errs, fmt.Errorf("undo %q: %w", j.undo[i], err))
		}
	}
	j.undo = nil
	return errors.Join(errs...)
}

type txOps struct {
	q       querier
	f       flavor
	journal *journal
}

func (t *txOps) HasTable(ctx context.Context, name string) (bool, error) {
	ok, err := t.f.hasTable(ctx, t.q, name)
	return ok, backend.Wrap("has_table", name, err)
}

func (t *txOps) IntrospectColumns(ctx context.Context, name string) ([]schema.Column, error) {
	cols, err := t.f.columns(ctx, t.q, name)
	if err != nil {
		return nil, backend.Wrap("introspect", name, err)
	}
	return cols, nil
}

func (t *txOps) IntrospectUniqueKeys(ctx context.Context, name string) ([]schema.UniqueKey, error) {
	keys, err := t.f.uniqueKeys(ctx, t.q, name)
	if err != nil {
		return nil, backend.Wrap("introspect", name, err)
	}
	return keys, nil
}

func (t *txOps) ChildTables(ctx context.Context, parent string) ([]string, error) {
	tables, err := t.f.childTables(ctx, t.q, parent)
	if err != nil {
		return nil, backend.Wrap("child_tables", parent, err)
	}
	return tables, nil
}

func (t *txOps) CreateTable(ctx context.Context, plan schema.TablePlan) error {
	d := t.f.dialect()
	stmt, err := ddl.BuildCreateTableSQL(d, plan)
	if err != nil {
		return backend.Wrap("create_table", plan.Name, err)
	}
	if err := t.exec(ctx, "create_table", plan.Name, stmt); err != nil {
		return err
	}
	t.journal.record(d.DropTableSQL(plan.Name))
	return nil
}

func (t *txOps) AlterTable(ctx context.Context, op schema.AlterTable) error {
	d := t.f.dialect()
	stmts, err := d.AlterTableSQL(op)
	if err != nil {
		return backend.Wrap("alter_table", op.Table, err)
	}
	if err := t.exec(ctx, "alter_table", op.Table, stmts...); err != nil {
		return err
	}
	if r, ok := d.(interface {
		RevertAlterSQL(schema.AlterTable) []string
	}); ok {
		t.journal.record(r.RevertAlterSQL(op)...)
	}
	return nil
}

func (t *txOps) DropTable(ctx context.Context, name string) error {
	var create string
	if t.journal != nil {
		var err error
		if create, err = showCreateTable(ctx, t.q, t.f.dialect(), name); err != nil {
			return backend.Wrap("drop_table", name, err)
		}
	}
	if err := t.exec(ctx, "drop_table", name, t.f.dialect().DropTableSQL(name)); err != nil {
		return err
	}
	if create != "" {
		t.journal.record(create)
	}
	return nil
}

// scanKeyColumns folds (key name, column name) rows ordered by key and
// column position into unique keys.
func scanKeyColumns(rows *sql.Rows) ([]schema.UniqueKey, error) {
	defer rows.Close()

	var keys []schema.UniqueKey
	for rows.Next() {
		var name, column string
		if err := rows.Scan(&name, &column); err != nil {
			return nil, err
		}
		keys = schema.AppendKeyColumn(keys, name, column)
	}
	return keys, rows.Err()
}

func (t *txOps) exec(ctx context.Context, op, table string, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := t.q.ExecContext(ctx, stmt); err != nil {
			return backend.Wrap(op, table, fmt.Errorf("%w (statement: %s)", err, stmt))
		}
	}
	return nil
}
