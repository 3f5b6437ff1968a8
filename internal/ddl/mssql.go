package ddl

import (
	"fmt"
	"strings"

	"github.com/hurou927/schema-sync/internal/schema"
)

// MSSQL renders SQL Server DDL. Type names match what the sqldb backend
// assembles from INFORMATION_SCHEMA.COLUMNS.
type MSSQL struct {
	Schema string // e.g. "dbo"; empty for the user's default schema
}

// uniqueNVarcharLength keeps text columns covered by a unique key within
// the index key size limit.
const uniqueNVarcharLength = 450

func (MSSQL) Name() string { return "mssql" }

func (MSSQL) QuoteIdent(id string) string { return quoteWith("[", "]", id) }

func (d MSSQL) QuoteTable(name string) string {
	return quoteQualified(d.QuoteIdent, d.Schema, name)
}

func (MSSQL) ColumnType(c schema.ColumnSpec) string {
	t := c.Type
	switch t.Kind {
	case schema.KindText, schema.KindLongText:
		if c.Keyed {
			return fmt.Sprintf("nvarchar(%d)", uniqueNVarcharLength)
		}
		return "nvarchar(max)"
	case schema.KindTimestamp:
		return "datetime2"
	case schema.KindDate:
		return "date"
	case schema.KindTime:
		return "time"
	case schema.KindBoolean:
		return "bit"
	case schema.KindInteger:
		return "int"
	case schema.KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case schema.KindFloat:
		return "real"
	default:
		return t.String()
	}
}

func (d MSSQL) ColumnDefinition(c schema.ColumnSpec) string {
	if c.AutoIncrement {
		return d.QuoteIdent(c.Name) + " " + d.ColumnType(c) + " IDENTITY(1,1) NOT NULL"
	}
	return plainColumn(d, c)
}

func (MSSQL) InlineAutoIncrementKey() bool { return false }

func (MSSQL) TableOptions(schema.TableStorageOptions) string { return "" }

// AlterTableSQL renders one ALTER TABLE for dropped keys, one for dropped
// columns, one for adds, one per altered column and one per added key,
// since SQL Server allows a single ALTER COLUMN per statement.
func (d MSSQL) AlterTableSQL(op schema.AlterTable) ([]string, error) {
	if op.Empty() {
		return nil, nil
	}
	table := d.QuoteTable(op.Table)
	var stmts []string
	if len(op.DropUnique) > 0 {
		names := make([]string, len(op.DropUnique))
		for i, k := range op.DropUnique {
			names[i] = d.QuoteIdent(k.Name)
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s", table, strings.Join(names, ", ")))
	}
	if len(op.Drop) > 0 {
		names := make([]string, len(op.Drop))
		for i, c := range op.Drop {
			names[i] = d.QuoteIdent(c.Name)
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s", table, strings.Join(names, ", ")))
	}
	if len(op.Add) > 0 {
		defs := make([]string, len(op.Add))
		for i, c := range op.Add {
			defs[i] = d.ColumnDefinition(c)
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD %s", table, strings.Join(defs, ", ")))
	}
	for _, ch := range op.Alter {
		null := " NULL"
		if !ch.To.Nullable {
			null = " NOT NULL"
		}
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s %s%s",
			table, d.QuoteIdent(ch.To.Name), d.ColumnType(ch.To), null))
	}
	for _, k := range op.AddUnique {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD %s", table, uniqueConstraint(d, k)))
	}
	return stmts, nil
}

func (d MSSQL) DropTableSQL(name string) string {
	return "DROP TABLE " + d.QuoteTable(name)
}
