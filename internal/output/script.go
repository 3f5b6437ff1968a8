// Package output writes planned operations as a SQL script.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/schema"
)

// Writer writes DDL scripts for one dialect.
type Writer struct {
	w       io.Writer
	dialect ddl.Dialect
}

// NewWriter creates a new script writer.
func NewWriter(w io.Writer, d ddl.Dialect) *Writer {
	return &Writer{w: w, dialect: d}
}

// WriteHeader writes the opening BEGIN.
func (sw *Writer) WriteHeader() error {
	_, err := fmt.Fprintf(sw.w, "-- dialect: %s\nBEGIN;\n\n", sw.dialect.Name())
	return err
}

// WriteFooter writes the closing COMMIT.
func (sw *Writer) WriteFooter() error {
	_, err := fmt.Fprintln(sw.w, "COMMIT;")
	return err
}

// WriteOperation writes the statements of a single operation, preceded by
// a comment naming it.
func (sw *Writer) WriteOperation(op schema.Operation) error {
	stmts, err := ddl.OperationSQL(sw.dialect, op)
	if err != nil {
		return err
	}
	if len(stmts) == 0 {
		return nil
	}

	if _, err := fmt.Fprintf(sw.w, "-- %s %s\n", op.Kind(), commentSafe(op.TableName())); err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := fmt.Fprintf(sw.w, "%s;\n", stmt); err != nil {
			return err
		}
	}
	_, err = fmt.Fprintln(sw.w)
	return err
}

// WriteScript writes a complete script applying ops in one transaction.
func (sw *Writer) WriteScript(ops []schema.Operation) error {
	if err := sw.WriteHeader(); err != nil {
		return err
	}
	for _, op := range ops {
		if err := sw.WriteOperation(op); err != nil {
			return err
		}
	}
	return sw.WriteFooter()
}

// commentSafe keeps a name on one comment line.
func commentSafe(s string) string {
	return strings.NewReplacer("\r", `\r`, "\n", `\n`).Replace(s)
}
