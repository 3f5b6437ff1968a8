package sqldb

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/hurou927/schema-sync/internal/backend"
	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/schema"
)

type sqliteFlavor struct{}

func (sqliteFlavor) dialect() ddl.Dialect { return ddl.SQLite{} }

func (sqliteFlavor) hasTable(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	return n > 0, err
}

func (sqliteFlavor) columns(ctx context.Context, q querier, name string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT cid, name, type, "notnull" FROM pragma_table_info(?) ORDER BY cid`, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			cid     int
			col     schema.Column
			notNull int
		)
		if err := rows.Scan(&cid, &col.Name, &col.DataType, &notNull); err != nil {
			return nil, err
		}
		col.Nullable = notNull == 0
		col.OrdPos = cid + 1
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// uniqueKeys lists UNIQUE table constraints. SQLite names their indexes
// sqlite_autoindex_<table>_<n>; the declared constraint name is not kept.
func (sqliteFlavor) uniqueKeys(ctx context.Context, q querier, name string) ([]schema.UniqueKey, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT il.name, ii.name
		FROM pragma_index_list(?1) il
		JOIN pragma_index_info(il.name) ii
		WHERE il.origin = 'u'
		ORDER BY il.name, ii.seqno`, name)
	if err != nil {
		return nil, err
	}
	return scanKeyColumns(rows)
}

func (sqliteFlavor) childTables(ctx context.Context, q querier, parent string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT m.name
		FROM sqlite_master m
		JOIN pragma_foreign_key_list(m.name) f
		WHERE m.type = 'table'
			AND f."table" = ?1
			AND substr(m.name, 1, length(?1) + 2) = ?1 || '__'
		ORDER BY m.name`, parent)
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

// run pins one connection so the foreign_keys pragma, which is a no-op
// inside a transaction, applies to the transaction that follows it.
func (sqliteFlavor) run(ctx context.Context, db *sql.DB, fn func(q querier, j *journal) error) error {
	conn, err := db.Conn(ctx)
	if err != nil {
		return backend.Wrap("begin", "", err)
	}
	defer conn.Close()

	var fkEnabled int
	if err := conn.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&fkEnabled); err != nil {
		return backend.Wrap("begin", "", err)
	}
	if _, err := conn.ExecContext(ctx, "PRAGMA foreign_keys = OFF"); err != nil {
		return backend.Wrap("begin", "", err)
	}
	defer func() {
		if fkEnabled != 0 {
			// Restore on a fresh context; ctx may already be cancelled.
			_, _ = conn.ExecContext(context.Background(), "PRAGMA foreign_keys = ON")
		}
	}()

	return runTx(ctx, conn.BeginTx, func(q querier, j *journal) error {
		if err := fn(q, j); err != nil {
			return err
		}
		return foreignKeyCheck(ctx, q)
	})
}

// foreignKeyCheck fails when any row violates a foreign key.
func foreignKeyCheck(ctx context.Context, q querier) error {
	rows, err := q.QueryContext(ctx, "PRAGMA foreign_key_check")
	if err != nil {
		return backend.Wrap("foreign_key_check", "", err)
	}
	defer rows.Close()

	if rows.Next() {
		var (
			table  string
			rowid  sql.NullInt64
			parent string
			fkid   int
		)
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return backend.Wrap("foreign_key_check", "", err)
		}
		return backend.Wrap("foreign_key_check", table,
			fmt.Errorf("row %d violates foreign key %d referencing %s", rowid.Int64, fkid, parent))
	}
	return backend.Wrap("foreign_key_check", "", rows.Err())
}
