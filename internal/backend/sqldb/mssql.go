package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver

	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/schema"
)

const defaultMSSQLSchema = "dbo"

type mssqlFlavor struct {
	d ddl.MSSQL
}

func (f mssqlFlavor) dialect() ddl.Dialect { return f.d }

func (f mssqlFlavor) hasTable(ctx context.Context, q querier, name string) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*)
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2 AND TABLE_TYPE = 'BASE TABLE'`,
		f.d.Schema, name).Scan(&n)
	return n > 0, err
}

func (f mssqlFlavor) columns(ctx context.Context, q querier, name string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT COLUMN_NAME, DATA_TYPE, CHARACTER_MAXIMUM_LENGTH,
			NUMERIC_PRECISION, NUMERIC_SCALE, IS_NULLABLE, ORDINAL_POSITION
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION`, f.d.Schema, name)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col       schema.Column
			dataType  string
			maxLen    sql.NullInt64
			precision sql.NullInt64
			scale     sql.NullInt64
			nullable  string
		)
		if err := rows.Scan(&col.Name, &dataType, &maxLen, &precision, &scale, &nullable, &col.OrdPos); err != nil {
			return nil, err
		}
		col.DataType = mssqlTypeName(dataType, maxLen, precision, scale)
		col.Nullable = nullable == "YES"
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

// mssqlTypeName spells an INFORMATION_SCHEMA type the way ddl.MSSQL renders it.
func mssqlTypeName(dataType string, maxLen, precision, scale sql.NullInt64) string {
	t := strings.ToLower(dataType)
	switch t {
	case "nvarchar", "varchar", "nchar", "char", "varbinary":
		if !maxLen.Valid {
			return t
		}
		if maxLen.Int64 < 0 {
			return t + "(max)"
		}
		return fmt.Sprintf("%s(%d)", t, maxLen.Int64)
	case "decimal", "numeric":
		return fmt.Sprintf("%s(%d,%d)", t, precision.Int64, scale.Int64)
	default:
		return t
	}
}

func (f mssqlFlavor) uniqueKeys(ctx context.Context, q querier, name string) ([]schema.UniqueKey, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT tc.CONSTRAINT_NAME, k.COLUMN_NAME
		FROM INFORMATION_SCHEMA.TABLE_CONSTRAINTS tc
		JOIN INFORMATION_SCHEMA.KEY_COLUMN_USAGE k
			ON k.CONSTRAINT_SCHEMA = tc.CONSTRAINT_SCHEMA
			AND k.CONSTRAINT_NAME = tc.CONSTRAINT_NAME
		WHERE tc.TABLE_SCHEMA = @p1
			AND tc.TABLE_NAME = @p2
			AND tc.CONSTRAINT_TYPE = 'UNIQUE'
		ORDER BY tc.CONSTRAINT_NAME, k.ORDINAL_POSITION`, f.d.Schema, name)
	if err != nil {
		return nil, err
	}
	return scanKeyColumns(rows)
}

func (f mssqlFlavor) childTables(ctx context.Context, q querier, parent string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT DISTINCT ct.name
		FROM sys.foreign_keys fk
		JOIN sys.tables ct ON ct.object_id = fk.parent_object_id
		JOIN sys.schemas cs ON cs.schema_id = ct.schema_id
		JOIN sys.tables pt ON pt.object_id = fk.referenced_object_id
		JOIN sys.schemas ps ON ps.schema_id = pt.schema_id
		WHERE cs.name = @p1 AND ps.name = @p1
			AND pt.name = @p2
			AND LEFT(ct.name, LEN(@p2) + 2) = @p2 + '__'
		ORDER BY ct.name`, f.d.Schema, parent)
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

func (mssqlFlavor) run(ctx context.Context, db *sql.DB, fn func(q querier, j *journal) error) error {
	return runTx(ctx, db.BeginTx, fn)
}
