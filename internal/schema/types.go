package schema

import (
	"fmt"
	"slices"
)

// TypeKind enumerates the backend-agnostic column types.
type TypeKind int

const (
	KindText TypeKind = iota + 1
	KindLongText
	KindTimestamp
	KindDate
	KindTime
	KindBoolean
	KindInteger
	KindDecimal // fixed point, uses Precision and Scale
	KindFloat
)

// SQLType is a backend-agnostic column type. Dialects render it to native
// type names.
type SQLType struct {
	Kind      TypeKind
	Precision int
	Scale     int
}

var (
	Text      = SQLType{Kind: KindText}
	LongText  = SQLType{Kind: KindLongText}
	Timestamp = SQLType{Kind: KindTimestamp}
	Date      = SQLType{Kind: KindDate}
	Time      = SQLType{Kind: KindTime}
	Boolean   = SQLType{Kind: KindBoolean}
	Integer   = SQLType{Kind: KindInteger}
	Float     = SQLType{Kind: KindFloat}
)

// Decimal returns a fixed-point type.
func Decimal(precision, scale int) SQLType {
	return SQLType{Kind: KindDecimal, Precision: precision, Scale: scale}
}

func (t SQLType) String() string {
	switch t.Kind {
	case KindText:
		return "text"
	case KindLongText:
		return "longtext"
	case KindTimestamp:
		return "timestamp"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindBoolean:
		return "boolean"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return fmt.Sprintf("decimal(%d,%d)", t.Precision, t.Scale)
	case KindFloat:
		return "float"
	default:
		return fmt.Sprintf("unknown(%d)", int(t.Kind))
	}
}

// ColumnSpec describes a column to create.
type ColumnSpec struct {
	Name          string
	Type          SQLType
	Nullable      bool
	Keyed         bool // covered by a unique key
	AutoIncrement bool
	DefaultNow    bool // defaults to the current timestamp on insert
	// Managed columns (id, audit timestamps, parent_id) are owned by the
	// planner and never added, dropped or altered by a diff.
	Managed bool
}

// ForeignKey references a parent table from a child table.
type ForeignKey struct {
	Name          string
	ChildColumns  []string
	ParentTable   string
	ParentColumns []string
	OnDelete      string // e.g. "CASCADE"; empty for the backend default
}

// UniqueKey is a named unique constraint. Keys are compared by their
// columns; the name is only used to drop them.
type UniqueKey struct {
	Name    string
	Columns []string
}

// Covers reports whether column is part of the key.
func (k UniqueKey) Covers(column string) bool {
	return slices.Contains(k.Columns, column)
}

// SameColumns reports whether both keys span the same columns in order.
func (k UniqueKey) SameColumns(o UniqueKey) bool {
	return slices.Equal(k.Columns, o.Columns)
}

// AppendKeyColumn adds column to the key named name, starting a new key
// when name differs from the last one. Catalog rows ordered by key name and
// column position fold into keys with it.
func AppendKeyColumn(keys []UniqueKey, name, column string) []UniqueKey {
	if n := len(keys); n > 0 && keys[n-1].Name == name {
		keys[n-1].Columns = append(keys[n-1].Columns, column)
		return keys
	}
	return append(keys, UniqueKey{Name: name, Columns: []string{column}})
}

// TableStorageOptions are table-level storage settings. Dialects without
// such clauses ignore them.
type TableStorageOptions struct {
	Engine    string `yaml:"engine"`
	Charset   string `yaml:"charset"`
	Collation string `yaml:"collation"`
}

// TablePlan is the full description of a table and its child tables.
// Plans are values: they are built once and never mutated afterwards.
type TablePlan struct {
	Name        string
	Columns     []ColumnSpec
	PrimaryKey  []string
	ForeignKeys []ForeignKey
	UniqueKeys  []UniqueKey
	Children    []TablePlan
	Options     TableStorageOptions
}

// Column returns the column named name.
func (p TablePlan) Column(name string) (ColumnSpec, bool) {
	for _, c := range p.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSpec{}, false
}

// ColumnNames returns all column names in order.
func (p TablePlan) ColumnNames() []string {
	names := make([]string, len(p.Columns))
	for i, c := range p.Columns {
		names[i] = c.Name
	}
	return names
}

// Child returns the child plan named name.
func (p TablePlan) Child(name string) (TablePlan, bool) {
	for _, c := range p.Children {
		if c.Name == name {
			return c, true
		}
	}
	return TablePlan{}, false
}

// Flatten returns the plan and all its descendants, parents first. The
// returned plans have their Children cleared.
func (p TablePlan) Flatten() []TablePlan {
	self := p
	self.Children = nil
	out := []TablePlan{self}
	for _, c := range p.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}

// Column is a live column as reported by a backend.
type Column struct {
	Name     string
	DataType string // dialect-normalized native type (e.g. "integer", "numeric(10,2)")
	Nullable bool
	OrdPos   int // ordinal position (1-based)
}
