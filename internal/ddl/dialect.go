// Package ddl renders table plans as SQL for the supported dialects.
//
// The rendering is split in two: BuildCreateTableSQL assembles a CREATE TABLE
// statement from a plan using a Dialect for everything that differs between
// databases (identifier quoting, type names, auto-increment syntax, table
// options), and each Dialect renders its own ALTER TABLE statements since
// those differ too much to share.
//
// Type names returned by ColumnType are the names the database reports back
// when its catalog is introspected (after the backend normalizes them), so a
// planned column and a live column can be compared as strings.
package ddl

import (
	"fmt"
	"strings"

	"github.com/hurou927/schema-sync/internal/schema"
)

// Dialect renders DDL for one database.
type Dialect interface {
	// Name is the backend kind, e.g. "postgres".
	Name() string
	QuoteIdent(id string) string
	// QuoteTable quotes a table name, qualifying it when the dialect is
	// bound to a database schema.
	QuoteTable(name string) string
	ColumnType(c schema.ColumnSpec) string
	ColumnDefinition(c schema.ColumnSpec) string
	// InlineAutoIncrementKey reports whether an auto-increment column
	// declares the primary key inline (SQLite), in which case no separate
	// PRIMARY KEY clause is emitted for it.
	InlineAutoIncrementKey() bool
	TableOptions(o schema.TableStorageOptions) string
	AlterTableSQL(op schema.AlterTable) ([]string, error)
	DropTableSQL(name string) string
}

// ForKind returns the dialect for a backend kind. dbSchema qualifies table
// names for dialects that support it.
func ForKind(kind, dbSchema string) (Dialect, bool) {
	switch strings.ToLower(kind) {
	case "postgres", "postgresql":
		return Postgres{Schema: dbSchema}, true
	case "sqlite", "sqlite3":
		return SQLite{}, true
	case "mysql", "mariadb":
		return MySQL{}, true
	case "mssql", "sqlserver":
		return MSSQL{Schema: dbSchema}, true
	default:
		return nil, false
	}
}

// quoteWith quotes id with the given delimiters, doubling the closing one.
func quoteWith(open, close, id string) string {
	return open + strings.ReplaceAll(id, close, close+close) + close
}

// quoteQualified quotes schema.table, skipping an empty schema.
func quoteQualified(quote func(string) string, dbSchema, name string) string {
	if strings.TrimSpace(dbSchema) == "" {
		return quote(name)
	}
	return quote(dbSchema) + "." + quote(name)
}

// plainColumn renders "<name> <type> [NOT NULL] [DEFAULT CURRENT_TIMESTAMP]",
// the column shape all dialects share apart from auto-increment.
func plainColumn(d Dialect, c schema.ColumnSpec) string {
	var sb strings.Builder
	sb.WriteString(d.QuoteIdent(c.Name))
	sb.WriteByte(' ')
	sb.WriteString(d.ColumnType(c))
	if !c.Nullable {
		sb.WriteString(" NOT NULL")
	}
	if c.DefaultNow {
		sb.WriteString(" DEFAULT CURRENT_TIMESTAMP")
	}
	return sb.String()
}

// uniqueConstraint renders "CONSTRAINT <name> UNIQUE (<cols>)".
func uniqueConstraint(d Dialect, k schema.UniqueKey) string {
	return fmt.Sprintf("CONSTRAINT %s UNIQUE (%s)", d.QuoteIdent(k.Name), quoteAll(d, k.Columns))
}

func quoteAll(d Dialect, names []string) string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = d.QuoteIdent(n)
	}
	return strings.Join(out, ", ")
}
