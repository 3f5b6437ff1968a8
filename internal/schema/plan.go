package schema

import (
	"fmt"

	"github.com/hurou927/schema-sync/internal/jsonschema"
)

// Columns every base table carries.
const (
	IDColumn        = "id"
	CreatedAtColumn = "created_at"
	UpdatedAtColumn = "updated_at"
)

// PlanTable builds the creation plan for a normalized schema: an
// auto-incrementing id, the created_at/updated_at audit columns, one column
// per scalar property in declared order and one child table per array
// property.
func PlanTable(s jsonschema.Schema, opts TableStorageOptions) (TablePlan, error) {
	plan := TablePlan{
		Name: s.Name,
		Columns: []ColumnSpec{
			{Name: IDColumn, Type: Integer, AutoIncrement: true, Managed: true},
			{Name: CreatedAtColumn, Type: Timestamp, DefaultNow: true, Managed: true},
			{Name: UpdatedAtColumn, Type: Timestamp, DefaultNow: true, Managed: true},
		},
		PrimaryKey: []string{IDColumn},
		Options:    opts,
	}

	for _, p := range s.Properties {
		if p.Field.Type == jsonschema.TypeArray {
			child, err := PlanArrayField(s.Name, p.Name, p.Field, opts)
			if err != nil {
				return TablePlan{}, fmt.Errorf("planning %s.%s: %w", s.Name, p.Name, err)
			}
			plan.Children = append(plan.Children, child)
			continue
		}

		col, err := MapField(p.Name, p.Field, s.IsRequired(p.Name))
		if err != nil {
			return TablePlan{}, fmt.Errorf("planning %s.%s: %w", s.Name, p.Name, err)
		}
		if _, dup := plan.Column(col.Name); dup {
			return TablePlan{}, fmt.Errorf("planning %s.%s: %w", s.Name, p.Name,
				&jsonschema.InvalidSchemaError{Field: "properties." + p.Name, Message: "collides with a generated column"})
		}
		plan.Columns = append(plan.Columns, col)
	}

	return plan, nil
}

// OpKind names the kind of an Operation.
type OpKind string

const (
	OpCreateTable OpKind = "create"
	OpAlterTable  OpKind = "alter"
	OpDropTable   OpKind = "drop"
)

// Operation is one structural change. A synchronization emits an ordered
// list of operations; parents are always created before their children.
type Operation interface {
	Kind() OpKind
	TableName() string
}

// CreateTable creates a single table. Plan.Children is always empty; child
// tables get their own CreateTable.
type CreateTable struct {
	Plan TablePlan
}

func (o CreateTable) Kind() OpKind      { return OpCreateTable }
func (o CreateTable) TableName() string { return o.Plan.Name }

// ColumnChange changes an existing column to a new definition.
type ColumnChange struct {
	From Column
	To   ColumnSpec
}

// AlterTable adds, drops and alters columns and unique keys of an existing
// table. Keys in DropUnique go before any column change and keys in
// AddUnique after all of them. Target is the full desired definition of the
// table, for backends that rebuild tables instead of altering them in place.
type AlterTable struct {
	Table      string
	Add        []ColumnSpec
	Drop       []Column
	Alter      []ColumnChange
	AddUnique  []UniqueKey
	DropUnique []UniqueKey
	Target     TablePlan
}

func (o AlterTable) Kind() OpKind      { return OpAlterTable }
func (o AlterTable) TableName() string { return o.Table }

// Empty reports whether the alteration changes nothing.
func (o AlterTable) Empty() bool {
	return len(o.Add) == 0 && len(o.Drop) == 0 && len(o.Alter) == 0 &&
		len(o.AddUnique) == 0 && len(o.DropUnique) == 0
}

// DropTable drops a table.
type DropTable struct {
	Table string
}

func (o DropTable) Kind() OpKind      { return OpDropTable }
func (o DropTable) TableName() string { return o.Table }

// CreateOps returns the operations creating plan and its children, parents
// first.
func CreateOps(plan TablePlan) []Operation {
	tables := plan.Flatten()
	ops := make([]Operation, len(tables))
	for i, t := range tables {
		ops[i] = CreateTable{Plan: t}
	}
	return ops
}
