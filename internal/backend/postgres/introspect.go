package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/hurou927/schema-sync/internal/schema"
)

// Catalog queries. $1 is the database schema and $2 the table; both are
// typed as text so that the prefix match in childTablesQuery resolves
// without guessing between name and text.
const (
	hasTableQuery = `
		SELECT EXISTS (
			SELECT 1
			FROM pg_class c
			JOIN pg_namespace n ON n.oid = c.relnamespace
			WHERE c.relkind IN ('r', 'p')
				AND n.nspname = $1::text
				AND c.relname = $2::text
		)
	`

	columnsQuery = `
		SELECT
			a.attname::text AS column_name,
			format_type(a.atttypid, a.atttypmod) AS data_type,
			NOT a.attnotnull AS is_nullable,
			a.attnum AS ordinal_position
		FROM pg_class c
		JOIN pg_namespace n ON n.oid = c.relnamespace
		JOIN pg_attribute a ON a.attrelid = c.oid
		WHERE c.relkind IN ('r', 'p')
			AND a.attnum > 0
			AND NOT a.attisdropped
			AND n.nspname = $1::text
			AND c.relname = $2::text
		ORDER BY a.attnum
	`

	uniqueKeysQuery = `
		SELECT con.conname::text AS key_name, a.attname::text AS column_name
		FROM pg_constraint con
		JOIN pg_class c ON c.oid = con.conrelid
		JOIN pg_namespace n ON n.oid = c.relnamespace
		CROSS JOIN LATERAL unnest(con.conkey) WITH ORDINALITY AS k(attnum, ord)
		JOIN pg_attribute a ON a.attrelid = c.oid AND a.attnum = k.attnum
		WHERE con.contype = 'u'
			AND n.nspname = $1::text
			AND c.relname = $2::text
		ORDER BY con.conname, k.ord
	`

	childTablesQuery = `
		SELECT DISTINCT cc.relname::text AS child_table
		FROM pg_constraint con
		JOIN pg_class cc ON cc.oid = con.conrelid
		JOIN pg_namespace cn ON cn.oid = cc.relnamespace
		JOIN pg_class pc ON pc.oid = con.confrelid
		JOIN pg_namespace pn ON pn.oid = pc.relnamespace
		WHERE con.contype = 'f'
			AND cn.nspname = $1::text
			AND pn.nspname = $1::text
			AND pc.relname = $2::text
			AND left(cc.relname::text, length($2::text) + 2) = $2::text || '__'
		ORDER BY child_table
	`
)

// hasTable checks pg_class for an ordinary or partitioned table.
func hasTable(ctx context.Context, tx pgx.Tx, dbSchema, name string) (bool, error) {
	var exists bool
	if err := tx.QueryRow(ctx, hasTableQuery, dbSchema, name).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// queryColumns returns a table's columns in ordinal order. Types come from
// format_type, which spells them the way ddl.Postgres renders them.
func queryColumns(ctx context.Context, tx pgx.Tx, dbSchema, name string) ([]schema.Column, error) {
	rows, err := tx.Query(ctx, columnsQuery, dbSchema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col    schema.Column
			ordPos int16
		)
		if err := rows.Scan(&col.Name, &col.DataType, &col.Nullable, &ordPos); err != nil {
			return nil, err
		}
		col.OrdPos = int(ordPos)
		cols = append(cols, col)
	}

	return cols, rows.Err()
}

// queryUniqueKeys returns a table's UNIQUE constraints, columns in key order.
func queryUniqueKeys(ctx context.Context, tx pgx.Tx, dbSchema, name string) ([]schema.UniqueKey, error) {
	rows, err := tx.Query(ctx, uniqueKeysQuery, dbSchema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []schema.UniqueKey
	for rows.Next() {
		var keyName, column string
		if err := rows.Scan(&keyName, &column); err != nil {
			return nil, err
		}
		keys = schema.AppendKeyColumn(keys, keyName, column)
	}

	return keys, rows.Err()
}

// queryChildTables returns tables named "<parent>__*" holding a foreign key
// that references parent.
func queryChildTables(ctx context.Context, tx pgx.Tx, dbSchema, parent string) ([]string, error) {
	rows, err := tx.Query(ctx, childTablesQuery, dbSchema, parent)
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
