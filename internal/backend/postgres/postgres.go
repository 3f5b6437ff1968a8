// Package postgres implements backend.Backend on PostgreSQL with pgx v5.
// PostgreSQL runs DDL transactionally, so a failed synchronization leaves
// nothing behind.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hurou927/schema-sync/internal/backend"
	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/schema"
)

// DefaultSchema is used when no database schema is configured.
const DefaultSchema = "public"

// Backend is a pgx-backed schema backend.
type Backend struct {
	pool    *pgxpool.Pool
	dialect ddl.Postgres
}

// New wraps an open pool. Tables live in dbSchema ("public" when empty).
func New(pool *pgxpool.Pool, dbSchema string) *Backend {
	if dbSchema == "" {
		dbSchema = DefaultSchema
	}
	return &Backend{pool: pool, dialect: ddl.Postgres{Schema: dbSchema}}
}

func (b *Backend) Dialect() ddl.Dialect { return b.dialect }

func (b *Backend) Close() { b.pool.Close() }

// RunInTransaction runs fn in a pgx transaction.
func (b *Backend) RunInTransaction(ctx context.Context, fn func(ctx context.Context, tx backend.Tx) error) error {
	tx, err := b.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return backend.Wrap("begin", "", err)
	}

	if err := fn(ctx, &txOps{tx: tx, dialect: b.dialect}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return backend.Wrap("commit", "", err)
	}
	return nil
}

type txOps struct {
	tx      pgx.Tx
	dialect ddl.Postgres
}

func (t *txOps) HasTable(ctx context.Context, name string) (bool, error) {
	ok, err := hasTable(ctx, t.tx, t.dialect.Schema, name)
	return ok, backend.Wrap("has_table", name, err)
}

func (t *txOps) IntrospectColumns(ctx context.Context, name string) ([]schema.Column, error) {
	cols, err := queryColumns(ctx, t.tx, t.dialect.Schema, name)
	if err != nil {
		return nil, backend.Wrap("introspect", name, err)
	}
	return cols, nil
}

func (t *txOps) IntrospectUniqueKeys(ctx context.Context, name string) ([]schema.UniqueKey, error) {
	keys, err := queryUniqueKeys(ctx, t.tx, t.dialect.Schema, name)
	if err != nil {
		return nil, backend.Wrap("introspect", name, err)
	}
	return keys, nil
}

func (t *txOps) ChildTables(ctx context.Context, parent string) ([]string, error) {
	tables, err := queryChildTables(ctx, t.tx, t.dialect.Schema, parent)
	if err != nil {
		return nil, backend.Wrap("child_tables", parent, err)
	}
	return tables, nil
}

func (t *txOps) CreateTable(ctx context.Context, plan schema.TablePlan) error {
	stmt, err := ddl.BuildCreateTableSQL(t.dialect, plan)
	if err != nil {
		return backend.Wrap("create_table", plan.Name, err)
	}
	return t.exec(ctx, "create_table", plan.Name, stmt)
}

func (t *txOps) AlterTable(ctx context.Context, op schema.AlterTable) error {
	stmts, err := t.dialect.AlterTableSQL(op)
	if err != nil {
		return backend.Wrap("alter_table", op.Table, err)
	}
	return t.exec(ctx, "alter_table", op.Table, stmts...)
}

func (t *txOps) DropTable(ctx context.Context, name string) error {
	return t.exec(ctx, "drop_table", name, t.dialect.DropTableSQL(name))
}

func (t *txOps) exec(ctx context.Context, op, table string, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := t.tx.Exec(ctx, stmt); err != nil {
			return backend.Wrap(op, table, fmt.Errorf("%w (statement: %s)", err, stmt))
		}
	}
	return nil
}
