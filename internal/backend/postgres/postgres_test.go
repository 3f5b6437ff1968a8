package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/schema-sync/internal/ddl"
	"github.com/hurou927/schema-sync/internal/jsonschema"
	"github.com/hurou927/schema-sync/internal/schema"
)

func TestNewDefaultsSchema(t *testing.T) {
	b := New(nil, "")
	assert.Equal(t, `"public"."users"`, b.Dialect().QuoteTable("users"))

	b = New(nil, "app")
	assert.Equal(t, `"app"."users"`, b.Dialect().QuoteTable("users"))
}

func TestCatalogQueriesTypeParameters(t *testing.T) {
	for name, q := range map[string]string{
		"has table":   hasTableQuery,
		"columns":     columnsQuery,
		"unique keys": uniqueKeysQuery,
		"child":       childTablesQuery,
	} {
		t.Run(name, func(t *testing.T) {
			assert.Contains(t, q, "nspname = $1::text")
			assert.NotRegexp(t, `\$[12][^:0-9]`, q, "every parameter is cast")
		})
	}
}

func TestChildTablesQuery(t *testing.T) {
	q := childTablesQuery
	assert.Contains(t, q, "con.contype = 'f'")
	assert.Contains(t, q, "pc.relname = $2::text")
	assert.Contains(t, q, "left(cc.relname::text, length($2::text) + 2) = $2::text || '__'")
	assert.Contains(t, q, "pn.nspname = $1::text", "parent and child live in the same schema")
}

func TestColumnsAndKeysQueries(t *testing.T) {
	assert.Contains(t, columnsQuery, "format_type(a.atttypid, a.atttypmod)")
	assert.Contains(t, columnsQuery, "NOT a.attisdropped")
	assert.Contains(t, columnsQuery, "a.attnum > 0")
	assert.Contains(t, columnsQuery, "ORDER BY a.attnum")

	assert.Contains(t, uniqueKeysQuery, "con.contype = 'u'")
	assert.Contains(t, uniqueKeysQuery, "WITH ORDINALITY")
	assert.Contains(t, uniqueKeysQuery, "ORDER BY con.conname, k.ord")
}

func TestCreateStatementsForPlan(t *testing.T) {
	plan, err := schema.PlanTable(jsonschema.Schema{
		Name: "widgets",
		Properties: jsonschema.Properties{
			{Name: "tags", Field: jsonschema.Field{
				Type:        jsonschema.TypeArray,
				Items:       &jsonschema.Field{Type: jsonschema.TypeString},
				UniqueItems: true,
			}},
		},
	}, schema.TableStorageOptions{})
	require.NoError(t, err)

	d := New(nil, "").Dialect()
	var stmts []string
	for _, op := range schema.CreateOps(plan) {
		s, err := ddl.OperationSQL(d, op)
		require.NoError(t, err)
		stmts = append(stmts, s...)
	}
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], `"id" integer GENERATED BY DEFAULT AS IDENTITY NOT NULL`)
	assert.Contains(t, stmts[0], `"created_at" timestamp with time zone NOT NULL DEFAULT CURRENT_TIMESTAMP`)
	assert.Contains(t, stmts[1], `CONSTRAINT "widgets__tags_value_key" UNIQUE ("parent_id", "value")`)
	assert.Contains(t, stmts[1], `REFERENCES "public"."widgets" ("id") ON DELETE CASCADE`)
}
