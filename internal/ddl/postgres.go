package ddl

import (
	"fmt"
	"strings"

	"github.com/hurou927/schema-sync/internal/schema"
)

// Postgres renders PostgreSQL DDL. Type names match format_type() output.
type Postgres struct {
	Schema string // database schema qualifying table names; empty for search_path
}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdent(id string) string { return quoteWith(`"`, `"`, id) }

func (d Postgres) QuoteTable(name string) string {
	return quoteQualified(d.QuoteIdent, d.Schema, name)
}

func (Postgres) ColumnType(c schema.ColumnSpec) string {
	t := c.Type
	switch t.Kind {
	case schema.KindText, schema.KindLongText:
		return "text"
	case schema.KindTimestamp:
		return "timestamp with time zone"
	case schema.KindDate:
		return "date"
	case schema.KindTime:
		return "time without time zone"
	case schema.KindBoolean:
		return "boolean"
	case schema.KindInteger:
		return "integer"
	case schema.KindDecimal:
		return fmt.Sprintf("numeric(%d,%d)", t.Precision, t.Scale)
	case schema.KindFloat:
		return "real"
	default:
		return t.String()
	}
}

func (d Postgres) ColumnDefinition(c schema.ColumnSpec) string {
	if c.AutoIncrement {
		return d.QuoteIdent(c.Name) + " " + d.ColumnType(c) + " GENERATED BY DEFAULT AS IDENTITY NOT NULL"
	}
	return plainColumn(d, c)
}

func (Postgres) InlineAutoIncrementKey() bool { return false }

func (Postgres) TableOptions(schema.TableStorageOptions) string { return "" }

// AlterTableSQL renders all changes as a single ALTER TABLE with one action
// per change. Type changes cast the existing values with USING.
func (d Postgres) AlterTableSQL(op schema.AlterTable) ([]string, error) {
	if op.Empty() {
		return nil, nil
	}
	var actions []string
	for _, k := range op.DropUnique {
		actions = append(actions, "DROP CONSTRAINT "+d.QuoteIdent(k.Name))
	}
	for _, c := range op.Drop {
		actions = append(actions, "DROP COLUMN "+d.QuoteIdent(c.Name))
	}
	for _, c := range op.Add {
		actions = append(actions, "ADD COLUMN "+d.ColumnDefinition(c))
	}
	for _, ch := range op.Alter {
		col := d.QuoteIdent(ch.To.Name)
		typ := d.ColumnType(ch.To)
		if !strings.EqualFold(ch.From.DataType, typ) {
			actions = append(actions, fmt.Sprintf("ALTER COLUMN %s TYPE %s USING %s::%s", col, typ, col, typ))
		}
		if ch.From.Nullable != ch.To.Nullable {
			if ch.To.Nullable {
				actions = append(actions, fmt.Sprintf("ALTER COLUMN %s DROP NOT NULL", col))
			} else {
				actions = append(actions, fmt.Sprintf("ALTER COLUMN %s SET NOT NULL", col))
			}
		}
	}
	for _, k := range op.AddUnique {
		actions = append(actions, "ADD "+uniqueConstraint(d, k))
	}
	return []string{fmt.Sprintf("ALTER TABLE %s %s", d.QuoteTable(op.Table), strings.Join(actions, ", "))}, nil
}

func (d Postgres) DropTableSQL(name string) string {
	return "DROP TABLE " + d.QuoteTable(name)
}
