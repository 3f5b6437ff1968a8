package schema

import "github.com/hurou927/schema-sync/internal/jsonschema"

// Column names of a child table.
const (
	ChildIDColumn     = "id"
	ChildParentColumn = "parent_id"
	ChildValueColumn  = "value"
)

// ChildTableName returns the name of the table holding the elements of an
// array property.
func ChildTableName(parent, field string) string {
	return parent + "__" + field
}

// ValueKeyName returns the name of the unique key an array table carries
// when its items are unique.
func ValueKeyName(table string) string {
	return table + "_" + ChildValueColumn + "_key"
}

// PlanArrayField plans the child table for an array property. Each element
// is a row keyed by (id, parent_id); id is scoped to the parent row. The
// parent_id foreign key cascades deletes. uniqueItems adds a unique key over
// (parent_id, value), so values repeat across parents but not within one.
func PlanArrayField(parent, field string, f jsonschema.Field, opts TableStorageOptions) (TablePlan, error) {
	if f.Items == nil {
		return TablePlan{}, &UnsupportedTypeError{Field: field, Type: string(f.Type)}
	}
	if f.Items.Type == jsonschema.TypeArray {
		return TablePlan{}, &UnsupportedNestingError{Field: field}
	}

	value, err := MapField(ChildValueColumn, *f.Items, true)
	if err != nil {
		return TablePlan{}, &UnsupportedTypeError{Field: field + "[]", Type: string(f.Items.Type)}
	}
	value.Keyed = f.UniqueItems

	name := ChildTableName(parent, field)
	var keys []UniqueKey
	if f.UniqueItems {
		keys = []UniqueKey{{Name: ValueKeyName(name), Columns: []string{ChildParentColumn, ChildValueColumn}}}
	}
	return TablePlan{
		Name: name,
		Columns: []ColumnSpec{
			{Name: ChildIDColumn, Type: Integer, Managed: true},
			{Name: ChildParentColumn, Type: Integer, Managed: true},
			value,
		},
		PrimaryKey: []string{ChildIDColumn, ChildParentColumn},
		ForeignKeys: []ForeignKey{{
			Name:          name + "_" + ChildParentColumn + "_fkey",
			ChildColumns:  []string{ChildParentColumn},
			ParentTable:   parent,
			ParentColumns: []string{IDColumn},
			OnDelete:      "CASCADE",
		}},
		UniqueKeys: keys,
		Options:    opts,
	}, nil
}
