package ddl

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/hurou927/schema-sync/internal/schema"
)

// MySQL renders MySQL/MariaDB DDL. Type names match
// information_schema.COLUMNS.COLUMN_TYPE after NormalizeMySQLType.
type MySQL struct{}

// uniqueTextLength bounds text columns covered by a unique key, since MySQL
// cannot index TEXT without a prefix length.
const uniqueTextLength = 255

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdent(id string) string { return quoteWith("`", "`", id) }

func (d MySQL) QuoteTable(name string) string { return d.QuoteIdent(name) }

func (MySQL) ColumnType(c schema.ColumnSpec) string {
	t := c.Type
	switch t.Kind {
	case schema.KindText:
		if c.Keyed {
			return fmt.Sprintf("varchar(%d)", uniqueTextLength)
		}
		return "text"
	case schema.KindLongText:
		if c.Keyed {
			return fmt.Sprintf("varchar(%d)", uniqueTextLength)
		}
		return "longtext"
	case schema.KindTimestamp:
		return "datetime"
	case schema.KindDate:
		return "date"
	case schema.KindTime:
		return "time"
	case schema.KindBoolean:
		return "tinyint(1)"
	case schema.KindInteger:
		return "int"
	case schema.KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case schema.KindFloat:
		return "float"
	default:
		return t.String()
	}
}

func (d MySQL) ColumnDefinition(c schema.ColumnSpec) string {
	if c.AutoIncrement {
		return d.QuoteIdent(c.Name) + " " + d.ColumnType(c) + " NOT NULL AUTO_INCREMENT"
	}
	return plainColumn(d, c)
}

func (MySQL) InlineAutoIncrementKey() bool { return false }

func (MySQL) TableOptions(o schema.TableStorageOptions) string {
	var parts []string
	if o.Engine != "" {
		parts = append(parts, "ENGINE="+o.Engine)
	}
	if o.Charset != "" {
		parts = append(parts, "DEFAULT CHARSET="+o.Charset)
	}
	if o.Collation != "" {
		parts = append(parts, "COLLATE="+o.Collation)
	}
	return strings.Join(parts, " ")
}

func (d MySQL) AlterTableSQL(op schema.AlterTable) ([]string, error) {
	if op.Empty() {
		return nil, nil
	}
	var actions []string
	for _, k := range op.DropUnique {
		actions = append(actions, "DROP INDEX "+d.QuoteIdent(k.Name))
	}
	for _, c := range op.Drop {
		actions = append(actions, "DROP COLUMN "+d.QuoteIdent(c.Name))
	}
	for _, c := range op.Add {
		actions = append(actions, "ADD COLUMN "+d.ColumnDefinition(c))
	}
	for _, ch := range op.Alter {
		actions = append(actions, "MODIFY COLUMN "+nativeColumn(d, ch.To.Name, d.ColumnType(ch.To), ch.To.Nullable))
	}
	for _, k := range op.AddUnique {
		actions = append(actions, "ADD "+uniqueConstraint(d, k))
	}
	return []string{fmt.Sprintf("ALTER TABLE %s %s", d.QuoteTable(op.Table), strings.Join(actions, ", "))}, nil
}

// RevertAlterSQL returns the statement restoring the structure op changed.
// MySQL commits DDL implicitly, so a failed synchronization undoes the
// statements it already ran with these. Values of dropped columns are not
// restored.
func (d MySQL) RevertAlterSQL(op schema.AlterTable) []string {
	if op.Empty() {
		return nil
	}
	var actions []string
	for _, k := range op.AddUnique {
		actions = append(actions, "DROP INDEX "+d.QuoteIdent(k.Name))
	}
	for _, c := range op.Add {
		actions = append(actions, "DROP COLUMN "+d.QuoteIdent(c.Name))
	}
	for _, c := range op.Drop {
		actions = append(actions, "ADD COLUMN "+nativeColumn(d, c.Name, c.DataType, c.Nullable))
	}
	for _, ch := range op.Alter {
		actions = append(actions, "MODIFY COLUMN "+nativeColumn(d, ch.From.Name, ch.From.DataType, ch.From.Nullable))
	}
	for _, k := range op.DropUnique {
		actions = append(actions, "ADD "+uniqueConstraint(d, k))
	}
	return []string{fmt.Sprintf("ALTER TABLE %s %s", d.QuoteTable(op.Table), strings.Join(actions, ", "))}
}

func (d MySQL) DropTableSQL(name string) string {
	return "DROP TABLE " + d.QuoteTable(name)
}

var intDisplayWidth = regexp.MustCompile(`^(tinyint|smallint|mediumint|int|bigint)\(\d+\)`)

// NormalizeMySQLType lowercases a COLUMN_TYPE and strips integer display
// widths, which MySQL 8 no longer reports. tinyint(1) is kept since it is
// the boolean type.
func NormalizeMySQLType(columnType string) string {
	t := strings.ToLower(strings.TrimSpace(columnType))
	if t == "tinyint(1)" {
		return t
	}
	return intDisplayWidth.ReplaceAllString(t, "$1")
}

func nativeColumn(d Dialect, name, native string, nullable bool) string {
	def := d.QuoteIdent(name) + " " + native
	if !nullable {
		def += " NOT NULL"
	}
	return def
}
