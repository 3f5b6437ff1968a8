package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/schema-sync/internal/jsonschema"
)

func intPtr(i int) *int { return &i }

func TestMapField(t *testing.T) {
	tests := []struct {
		name  string
		field jsonschema.Field
		want  SQLType
	}{
		{"plain string", jsonschema.Field{Type: jsonschema.TypeString}, Text},
		{"date-time", jsonschema.Field{Type: jsonschema.TypeString, Format: jsonschema.FormatDateTime}, Timestamp},
		{"date", jsonschema.Field{Type: jsonschema.TypeString, Format: jsonschema.FormatDate}, Date},
		{"time", jsonschema.Field{Type: jsonschema.TypeString, Format: jsonschema.FormatTime}, Time},
		{"memo", jsonschema.Field{Type: jsonschema.TypeString, Format: jsonschema.FormatMemo}, LongText},
		{"unknown format", jsonschema.Field{Type: jsonschema.TypeString, Format: "email"}, Text},
		{"boolean", jsonschema.Field{Type: jsonschema.TypeBoolean}, Boolean},
		{"integer", jsonschema.Field{Type: jsonschema.TypeInteger}, Integer},
		{"number", jsonschema.Field{Type: jsonschema.TypeNumber}, Float},
		{"decimal", jsonschema.Field{Type: jsonschema.TypeNumber, Precision: 10, Scale: intPtr(2)}, Decimal(10, 2)},
		{"zero scale", jsonschema.Field{Type: jsonschema.TypeNumber, Precision: 8, Scale: intPtr(0)}, Decimal(8, 0)},
		{"precision without scale", jsonschema.Field{Type: jsonschema.TypeNumber, Precision: 10}, Float},
		{"scale without precision", jsonschema.Field{Type: jsonschema.TypeNumber, Scale: intPtr(2)}, Float},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			col, err := MapField("f", tt.field, false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, col.Type)
			assert.Equal(t, "f", col.Name)
			assert.True(t, col.Nullable)
			assert.False(t, col.Managed)
		})
	}
}

func TestMapFieldRequiredIsNotNull(t *testing.T) {
	col, err := MapField("name", jsonschema.Field{Type: jsonschema.TypeString}, true)
	require.NoError(t, err)
	assert.False(t, col.Nullable)
}

func TestMapFieldIsPure(t *testing.T) {
	f := jsonschema.Field{Type: jsonschema.TypeNumber, Precision: 12, Scale: intPtr(4)}
	a, errA := MapField("amount", f, true)
	b, errB := MapField("amount", f, true)
	require.NoError(t, errA)
	require.NoError(t, errB)
	assert.Equal(t, a, b)
	assert.Equal(t, 4, *f.Scale)
}

func TestMapFieldUnsupported(t *testing.T) {
	for _, typ := range []jsonschema.FieldType{"object", "null", "", jsonschema.TypeArray} {
		t.Run(string(typ), func(t *testing.T) {
			_, err := MapField("x", jsonschema.Field{Type: typ}, false)
			assert.ErrorIs(t, err, ErrUnsupportedType)

			var ute *UnsupportedTypeError
			require.ErrorAs(t, err, &ute)
			assert.Equal(t, "x", ute.Field)
			assert.Equal(t, string(typ), ute.Type)
		})
	}
}

func TestUnsupportedTypeErrorMessage(t *testing.T) {
	assert.Equal(t, `field "x": missing type`, (&UnsupportedTypeError{Field: "x"}).Error())
	assert.Equal(t, `field "x": unsupported type "object"`, (&UnsupportedTypeError{Field: "x", Type: "object"}).Error())
}

func TestChildTableName(t *testing.T) {
	assert.Equal(t, "widgets__tags", ChildTableName("widgets", "tags"))
}

func TestPlanArrayField(t *testing.T) {
	f := jsonschema.Field{Type: jsonschema.TypeArray, Items: &jsonschema.Field{Type: jsonschema.TypeString}, UniqueItems: true}
	opts := TableStorageOptions{Engine: "InnoDB"}

	plan, err := PlanArrayField("widgets", "tags", f, opts)
	require.NoError(t, err)

	assert.Equal(t, "widgets__tags", plan.Name)
	assert.Equal(t, []string{"id", "parent_id", "value"}, plan.ColumnNames())
	assert.Equal(t, []string{"id", "parent_id"}, plan.PrimaryKey)
	assert.Equal(t, opts, plan.Options)

	value, ok := plan.Column("value")
	require.True(t, ok)
	assert.Equal(t, Text, value.Type)
	assert.False(t, value.Nullable)
	assert.True(t, value.Keyed)
	assert.Equal(t, []UniqueKey{{
		Name:    "widgets__tags_value_key",
		Columns: []string{"parent_id", "value"},
	}}, plan.UniqueKeys, "items are unique per parent, not across the table")

	for _, name := range []string{"id", "parent_id"} {
		c, _ := plan.Column(name)
		assert.True(t, c.Managed, name)
		assert.False(t, c.Nullable, name)
		assert.Equal(t, Integer, c.Type, name)
	}

	require.Len(t, plan.ForeignKeys, 1)
	assert.Equal(t, ForeignKey{
		Name:          "widgets__tags_parent_id_fkey",
		ChildColumns:  []string{"parent_id"},
		ParentTable:   "widgets",
		ParentColumns: []string{"id"},
		OnDelete:      "CASCADE",
	}, plan.ForeignKeys[0])
}

func TestPlanArrayFieldUniqueness(t *testing.T) {
	f := jsonschema.Field{Type: jsonschema.TypeArray, Items: &jsonschema.Field{Type: jsonschema.TypeInteger}}
	plan, err := PlanArrayField("orders", "lines", f, TableStorageOptions{})
	require.NoError(t, err)
	value, _ := plan.Column("value")
	assert.False(t, value.Keyed)
	assert.Empty(t, plan.UniqueKeys)
	assert.Equal(t, Integer, value.Type)
}

func TestPlanArrayFieldErrors(t *testing.T) {
	_, err := PlanArrayField("t", "m", jsonschema.Field{
		Type:  jsonschema.TypeArray,
		Items: &jsonschema.Field{Type: jsonschema.TypeArray, Items: &jsonschema.Field{Type: jsonschema.TypeString}},
	}, TableStorageOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedNesting)

	_, err = PlanArrayField("t", "o", jsonschema.Field{
		Type:  jsonschema.TypeArray,
		Items: &jsonschema.Field{Type: "object"},
	}, TableStorageOptions{})
	var ute *UnsupportedTypeError
	require.ErrorAs(t, err, &ute)
	assert.Equal(t, "o[]", ute.Field)

	_, err = PlanArrayField("t", "x", jsonschema.Field{Type: jsonschema.TypeArray}, TableStorageOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestPlanTableUsers(t *testing.T) {
	s := jsonschema.Schema{
		Name:     "users",
		Required: []string{"name"},
		Properties: jsonschema.Properties{
			{Name: "name", Field: jsonschema.Field{Type: jsonschema.TypeString}},
			{Name: "age", Field: jsonschema.Field{Type: jsonschema.TypeInteger}},
			{Name: "signed_up", Field: jsonschema.Field{Type: jsonschema.TypeString, Format: jsonschema.FormatDateTime}},
		},
	}

	plan, err := PlanTable(s, TableStorageOptions{})
	require.NoError(t, err)

	assert.Equal(t, "users", plan.Name)
	assert.Equal(t, []string{"id", "created_at", "updated_at", "name", "age", "signed_up"}, plan.ColumnNames())
	assert.Equal(t, []string{"id"}, plan.PrimaryKey)
	assert.Empty(t, plan.Children)
	assert.Empty(t, plan.ForeignKeys)

	id, _ := plan.Column("id")
	assert.True(t, id.AutoIncrement)
	assert.True(t, id.Managed)

	for _, name := range []string{"created_at", "updated_at"} {
		c, _ := plan.Column(name)
		assert.Equal(t, Timestamp, c.Type, name)
		assert.True(t, c.DefaultNow, name)
		assert.False(t, c.Nullable, name)
	}

	name, _ := plan.Column("name")
	assert.False(t, name.Nullable)
	age, _ := plan.Column("age")
	assert.True(t, age.Nullable)
}

func TestPlanTableArrays(t *testing.T) {
	s := jsonschema.Schema{
		Name:     "widgets",
		Required: []string{"tags"},
		Properties: jsonschema.Properties{
			{Name: "tags", Field: jsonschema.Field{Type: jsonschema.TypeArray, Items: &jsonschema.Field{Type: jsonschema.TypeString}}},
			{Name: "label", Field: jsonschema.Field{Type: jsonschema.TypeString}},
			{Name: "sizes", Field: jsonschema.Field{Type: jsonschema.TypeArray, Items: &jsonschema.Field{Type: jsonschema.TypeNumber}}},
		},
	}

	plan, err := PlanTable(s, TableStorageOptions{})
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "created_at", "updated_at", "label"}, plan.ColumnNames())
	require.Len(t, plan.Children, 2)
	assert.Equal(t, "widgets__tags", plan.Children[0].Name)
	assert.Equal(t, "widgets__sizes", plan.Children[1].Name)

	flat := plan.Flatten()
	require.Len(t, flat, 3)
	assert.Equal(t, "widgets", flat[0].Name)
	assert.Empty(t, flat[0].Children)
	assert.Len(t, plan.Children, 2, "Flatten leaves the plan untouched")

	ops := CreateOps(plan)
	require.Len(t, ops, 3)
	for i, want := range []string{"widgets", "widgets__tags", "widgets__sizes"} {
		assert.Equal(t, OpCreateTable, ops[i].Kind())
		assert.Equal(t, want, ops[i].TableName())
	}
}

func TestPlanTableErrors(t *testing.T) {
	_, err := PlanTable(jsonschema.Schema{
		Name:       "t",
		Properties: jsonschema.Properties{{Name: "geo", Field: jsonschema.Field{Type: "object"}}},
	}, TableStorageOptions{})
	assert.ErrorIs(t, err, ErrUnsupportedType)
	assert.True(t, strings.HasPrefix(err.Error(), "planning t.geo: "))

	_, err = PlanTable(jsonschema.Schema{
		Name:       "t",
		Properties: jsonschema.Properties{{Name: "created_at", Field: jsonschema.Field{Type: jsonschema.TypeString}}},
	}, TableStorageOptions{})
	assert.ErrorIs(t, err, jsonschema.ErrInvalidSchema)
}

func postgresTypeName(c ColumnSpec) string {
	switch c.Type.Kind {
	case KindText, KindLongText:
		return "text"
	case KindInteger:
		return "integer"
	case KindTimestamp:
		return "timestamp with time zone"
	default:
		return c.Type.String()
	}
}

func liveUsers() []Column {
	return []Column{
		{Name: "id", DataType: "integer", OrdPos: 1},
		{Name: "created_at", DataType: "timestamp with time zone", OrdPos: 2},
		{Name: "updated_at", DataType: "timestamp with time zone", OrdPos: 3},
		{Name: "name", DataType: "text", OrdPos: 4},
		{Name: "age", DataType: "integer", Nullable: true, OrdPos: 5},
	}
}

func usersPlan(t *testing.T, props jsonschema.Properties, required ...string) TablePlan {
	t.Helper()
	plan, err := PlanTable(jsonschema.Schema{Name: "users", Required: required, Properties: props}, TableStorageOptions{})
	require.NoError(t, err)
	return plan
}

func TestDiffNoChanges(t *testing.T) {
	plan := usersPlan(t, jsonschema.Properties{
		{Name: "name", Field: jsonschema.Field{Type: jsonschema.TypeString}},
		{Name: "age", Field: jsonschema.Field{Type: jsonschema.TypeInteger}},
	}, "name")

	op := Diff(plan, liveUsers(), nil, postgresTypeName)
	assert.True(t, op.Empty())
	assert.Equal(t, "users", op.Table)
	assert.Equal(t, OpAlterTable, op.Kind())
}

func TestDiffAddDropAlter(t *testing.T) {
	plan := usersPlan(t, jsonschema.Properties{
		{Name: "name", Field: jsonschema.Field{Type: jsonschema.TypeString}},
		{Name: "age", Field: jsonschema.Field{Type: jsonschema.TypeString}},
		{Name: "email", Field: jsonschema.Field{Type: jsonschema.TypeString}},
	})
	live := append(liveUsers(), Column{Name: "legacy", DataType: "text", Nullable: true, OrdPos: 6})

	op := Diff(plan, live, nil, postgresTypeName)

	require.Len(t, op.Add, 1)
	assert.Equal(t, "email", op.Add[0].Name)

	require.Len(t, op.Drop, 1)
	assert.Equal(t, "legacy", op.Drop[0].Name)

	require.Len(t, op.Alter, 2)
	assert.Equal(t, "name", op.Alter[0].To.Name, "name became nullable")
	assert.False(t, op.Alter[0].From.Nullable)
	assert.True(t, op.Alter[0].To.Nullable)
	assert.Equal(t, "age", op.Alter[1].To.Name, "age changed type")
	assert.Equal(t, "integer", op.Alter[1].From.DataType)

	assert.Equal(t, plan, op.Target)
}

func TestDiffIgnoresManagedColumns(t *testing.T) {
	plan := usersPlan(t, nil)
	live := []Column{
		{Name: "id", DataType: "bigint", OrdPos: 1},
		{Name: "created_at", DataType: "text", Nullable: true, OrdPos: 2},
	}

	op := Diff(plan, live, nil, postgresTypeName)
	assert.True(t, op.Empty(), "managed columns are neither altered nor re-added")
}

func TestDiffComparesTypesCaseInsensitively(t *testing.T) {
	plan := usersPlan(t, jsonschema.Properties{{Name: "name", Field: jsonschema.Field{Type: jsonschema.TypeString}}}, "name")
	live := []Column{{Name: "name", DataType: " TEXT "}}
	assert.True(t, Diff(plan, live, nil, postgresTypeName).Empty())
}

func tagsPlan(t *testing.T, unique bool) TablePlan {
	t.Helper()
	f := jsonschema.Field{Type: jsonschema.TypeArray, Items: &jsonschema.Field{Type: jsonschema.TypeString}, UniqueItems: unique}
	plan, err := PlanArrayField("widgets", "tags", f, TableStorageOptions{})
	require.NoError(t, err)
	return plan
}

func liveTags() []Column {
	return []Column{
		{Name: "id", DataType: "integer", OrdPos: 1},
		{Name: "parent_id", DataType: "integer", OrdPos: 2},
		{Name: "value", DataType: "text", OrdPos: 3},
	}
}

func TestDiffUniqueKeys(t *testing.T) {
	valueKey := UniqueKey{Name: "widgets__tags_value_key", Columns: []string{"parent_id", "value"}}

	t.Run("items become unique", func(t *testing.T) {
		op := Diff(tagsPlan(t, true), liveTags(), nil, postgresTypeName)
		assert.Equal(t, []UniqueKey{valueKey}, op.AddUnique)
		assert.Empty(t, op.DropUnique)
		assert.Empty(t, op.Alter)
		assert.False(t, op.Empty())
	})

	t.Run("items stop being unique", func(t *testing.T) {
		op := Diff(tagsPlan(t, false), liveTags(), []UniqueKey{valueKey}, postgresTypeName)
		assert.Equal(t, []UniqueKey{valueKey}, op.DropUnique)
		assert.Empty(t, op.AddUnique)
	})

	t.Run("unchanged keys are kept whatever their live name", func(t *testing.T) {
		live := []UniqueKey{{Name: "sqlite_autoindex_widgets__tags_1", Columns: []string{"parent_id", "value"}}}
		assert.True(t, Diff(tagsPlan(t, true), liveTags(), live, postgresTypeName).Empty())
	})

	t.Run("table-wide key is replaced by the per-parent key", func(t *testing.T) {
		legacy := UniqueKey{Name: "widgets__tags_value_key", Columns: []string{"value"}}
		op := Diff(tagsPlan(t, true), liveTags(), []UniqueKey{legacy}, postgresTypeName)
		assert.Equal(t, []UniqueKey{legacy}, op.DropUnique)
		assert.Equal(t, []UniqueKey{valueKey}, op.AddUnique)
	})

	t.Run("key over an altered column is rebuilt", func(t *testing.T) {
		live := liveTags()
		live[2].DataType = "integer"
		op := Diff(tagsPlan(t, true), live, []UniqueKey{valueKey}, postgresTypeName)
		require.Len(t, op.Alter, 1)
		assert.Equal(t, []UniqueKey{valueKey}, op.DropUnique)
		assert.Equal(t, []UniqueKey{valueKey}, op.AddUnique)
	})
}

func TestAppendKeyColumn(t *testing.T) {
	var keys []UniqueKey
	keys = AppendKeyColumn(keys, "a_key", "parent_id")
	keys = AppendKeyColumn(keys, "a_key", "value")
	keys = AppendKeyColumn(keys, "b_key", "code")
	assert.Equal(t, []UniqueKey{
		{Name: "a_key", Columns: []string{"parent_id", "value"}},
		{Name: "b_key", Columns: []string{"code"}},
	}, keys)
	assert.True(t, keys[0].Covers("value"))
	assert.False(t, keys[0].Covers("code"))
}
