package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // registers the "mysql" driver

	"github.com/hurou927/schema-sync/internal/backend"
	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/schema"
)

type mysqlFlavor struct{}

func (mysqlFlavor) dialect() ddl.Dialect { return ddl.MySQL{} }

func (mysqlFlavor) hasTable(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM information_schema.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND TABLE_TYPE = 'BASE TABLE'`,
		name).Scan(&n)
	return n > 0, err
}

func (mysqlFlavor) columns(ctx context.Context, q querier, name string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, ORDINAL_POSITION
		FROM information_schema.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col      schema.Column
			nullable string
		)
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &col.OrdPos); err != nil {
			return nil, err
		}
		col.DataType = ddl.NormalizeMySQLType(col.DataType)
		col.Nullable = nullable == "YES"
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (mysqlFlavor) uniqueKeys(ctx context.Context, q querier, name string) ([]schema.UniqueKey, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT tc.CONSTRAINT_NAME, k.COLUMN_NAME
		FROM information_schema.TABLE_CONSTRAINTS tc
		JOIN information_schema.KEY_COLUMN_USAGE k
			ON k.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
			AND k.TABLE_NAME = tc.TABLE_NAME
			AND k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = DATABASE()
			AND tc.TABLE_NAME = ?
			AND tc.CONSTRAINT_TYPE = 'UNIQUE'
		ORDER BY tc.CONSTRAINT_NAME, k.ORDINAL_POSITION`, name)
	if err != nil {
		return nil, err
	}
	return scanKeyColumns(rows)
}

func (mysqlFlavor) childTables(ctx context.Context, q querier, parent string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT TABLE_NAME
		FROM information_schema.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE()
			AND REFERENCED_TABLE_SCHEMA = DATABASE()
			AND REFERENCED_TABLE_NAME = ?
			AND LEFT(TABLE_NAME, CHAR_LENGTH(?) + 2) = CONCAT(?, '__')
		ORDER BY TABLE_NAME`, parent, parent, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// run executes fn on a pinned connection without a transaction, since
// MySQL commits each DDL statement implicitly. When fn fails the journal is
// replayed to undo what already ran.
func (mysqlFlavor) run(ctx context.Context, db *sql.DB, fn func(q querier, j *journal) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return backend.Wrap("begin", "", err)
	}
	defer conn.Close()

	j := &journal{}
	if err := fn(conn, j); err != nil {
		if rerr := j.rollback(context.WithoutCancel(ctx), conn); rerr != nil {
			return errors.Join(err, backend.Wrap("rollback", "", rerr))
		}
		return err
	}
	return nil
}

// showCreateTable returns the statement recreating name.
func showCreateTable(ctx context.Context, q querier, d ddl.Dialect, name string) (string, error) {
	var table, create string
	if err := q.QueryRowContext(ctx, "SHOW CREATE TABLE "+d.QuoteTable(name)).Scan(&table, &create); err != nil {
		return "", fmt.Errorf("show create table: %w", err)
	}
	return create, nil
}
