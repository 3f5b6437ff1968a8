package ddl

import (
	"fmt"
	"strings"

	"github.com/hurou927/schema-sync/internal/schema"
)

// BuildCreateTableSQL renders a CREATE TABLE statement for a single plan.
// Child plans are ignored; each child is created by its own statement.
//
// The statement has the form:
//
//	CREATE TABLE <table> (
//	  <col1-def>,
//	  ...,
//	  PRIMARY KEY (<pk-cols>),
//	  CONSTRAINT <key> UNIQUE (<cols>),
//	  CONSTRAINT <fk> FOREIGN KEY (<cols>) REFERENCES <parent> (<cols>) [ON DELETE <action>]
//	)[ <table options>]
func BuildCreateTableSQL(d Dialect, p schema.TablePlan) (string, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(p.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s has no columns", name)
	}

	defs := make([]string, 0, len(p.Columns)+len(p.UniqueKeys)+len(p.ForeignKeys)+1)
	inlineKey := false
	for _, c := range p.Columns {
		if strings.TrimSpace(c.Name) == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", name)
		}
		if c.AutoIncrement && d.InlineAutoIncrementKey() {
			inlineKey = true
		}
		defs = append(defs, d.ColumnDefinition(c))
	}

	if len(p.PrimaryKey) > 0 && !(inlineKey && len(p.PrimaryKey) == 1) {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", quoteAll(d, p.PrimaryKey)))
	}

	for _, k := range p.UniqueKeys {
		if len(k.Columns) == 0 {
			return "", fmt.Errorf("ddl: unique key %s of table %s has no columns", k.Name, name)
		}
		defs = append(defs, uniqueConstraint(d, k))
	}

	for _, fk := range p.ForeignKeys {
		if len(fk.ChildColumns) == 0 || len(fk.ChildColumns) != len(fk.ParentColumns) {
			return "", fmt.Errorf("ddl: foreign key %s of table %s has mismatched columns", fk.Name, name)
		}
		def := fmt.Sprintf("CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
			d.QuoteIdent(fk.Name), quoteAll(d, fk.ChildColumns),
			d.QuoteTable(fk.ParentTable), quoteAll(d, fk.ParentColumns))
		if fk.OnDelete != "" {
			def += " ON DELETE " + fk.OnDelete
		}
		defs = append(defs, def)
	}

	stmt := fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", d.QuoteTable(name), strings.Join(defs, ",\n  "))
	if opts := d.TableOptions(p.Options); opts != "" {
		stmt += " " + opts
	}
	return stmt, nil
}

// OperationSQL renders the statements applying op.
func OperationSQL(d Dialect, op schema.Operation) ([]string, error) {
	switch o := op.(type) {
	case schema.CreateTable:
		stmt, err := BuildCreateTableSQL(d, o.Plan)
		if err != nil {
			return nil, err
		}
		return []string{stmt}, nil
	case schema.AlterTable:
		return d.AlterTableSQL(o)
	case schema.DropTable:
		return []string{d.DropTableSQL(o.Table)}, nil
	default:
		return nil, fmt.Errorf("ddl: unknown operation %T", op)
	}
}
