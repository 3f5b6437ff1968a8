package ddl

import (
	"fmt"
	"strings"

	"github.com/hurou927/schema-sync/internal/schema"
)

// SQLite renders SQLite DDL. Type names are the declared types that
// pragma_table_info reports back verbatim.
type SQLite struct{}

// RebuildSuffix is appended to a table name while the table is rebuilt.
const RebuildSuffix = "__rebuild"

func (SQLite) Name() string { return "sqlite" }

func (SQLite) QuoteIdent(id string) string { return quoteWith(`"`, `"`, id) }

func (d SQLite) QuoteTable(name string) string { return d.QuoteIdent(name) }

func (SQLite) ColumnType(c schema.ColumnSpec) string {
	t := c.Type
	switch t.Kind {
	case schema.KindText, schema.KindLongText:
		return "TEXT"
	case schema.KindTimestamp:
		return "DATETIME"
	case schema.KindDate:
		return "DATE"
	case schema.KindTime:
		return "TIME"
	case schema.KindBoolean:
		return "BOOLEAN"
	case schema.KindInteger:
		return "INTEGER"
	case schema.KindDecimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
	case schema.KindFloat:
		return "REAL"
	default:
		return strings.ToUpper(t.String())
	}
}

func (d SQLite) ColumnDefinition(c schema.ColumnSpec) string {
	if c.AutoIncrement {
		return d.QuoteIdent(c.Name) + " INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL"
	}
	return plainColumn(d, c)
}

func (SQLite) InlineAutoIncrementKey() bool { return true }

func (SQLite) TableOptions(schema.TableStorageOptions) string { return "" }

// NeedsRebuild reports whether SQLite cannot apply op with ALTER TABLE.
// SQLite can only add nullable, unkeyed columns in place. Dropping a column
// fails when it is indexed, column definitions cannot be changed, and table
// constraints can be neither added nor dropped.
func (SQLite) NeedsRebuild(op schema.AlterTable) bool {
	if len(op.Alter) > 0 || len(op.Drop) > 0 || len(op.AddUnique) > 0 || len(op.DropUnique) > 0 {
		return true
	}
	for _, c := range op.Add {
		if !c.Nullable || c.Keyed || c.DefaultNow {
			return true
		}
	}
	return false
}

// AlterTableSQL adds columns in place when possible and otherwise rebuilds
// the table from op.Target: create the new definition under a temporary
// name, copy the surviving columns, drop the old table and rename the new
// one. The caller must run the statements with foreign key enforcement off.
func (d SQLite) AlterTableSQL(op schema.AlterTable) ([]string, error) {
	if op.Empty() {
		return nil, nil
	}
	if !d.NeedsRebuild(op) {
		stmts := make([]string, 0, len(op.Add))
		for _, c := range op.Add {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", d.QuoteTable(op.Table), d.ColumnDefinition(c)))
		}
		return stmts, nil
	}

	if op.Target.Name != op.Table {
		return nil, fmt.Errorf("sqlite ddl: rebuild of %s needs the target definition", op.Table)
	}
	tmp := op.Target
	tmp.Name = op.Table + RebuildSuffix
	tmp.Children = nil
	create, err := BuildCreateTableSQL(d, tmp)
	if err != nil {
		return nil, err
	}

	added := make(map[string]bool, len(op.Add))
	for _, c := range op.Add {
		added[c.Name] = true
	}
	var shared []string
	for _, c := range op.Target.Columns {
		if !added[c.Name] {
			shared = append(shared, c.Name)
		}
	}

	stmts := []string{create}
	if len(shared) > 0 {
		cols := quoteAll(d, shared)
		stmts = append(stmts, fmt.Sprintf("INSERT INTO %s (%s) SELECT %s FROM %s",
			d.QuoteTable(tmp.Name), cols, cols, d.QuoteTable(op.Table)))
	}
	stmts = append(stmts,
		d.DropTableSQL(op.Table),
		fmt.Sprintf("ALTER TABLE %s RENAME TO %s", d.QuoteTable(tmp.Name), d.QuoteIdent(op.Table)),
	)
	return stmts, nil
}

func (d SQLite) DropTableSQL(name string) string {
	return "DROP TABLE " + d.QuoteTable(name)
}
