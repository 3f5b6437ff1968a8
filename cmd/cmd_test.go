package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hurou927/schema-sync/internal/config"
	"github.com/hurou927/schema-sync/internal/schema"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSummarize(t *testing.T) {
	assert.Equal(t, "up to date", summarize(nil))
	assert.Equal(t, "2 created, 1 dropped", summarize([]schema.Operation{
		schema.CreateTable{}, schema.DropTable{}, schema.CreateTable{},
	}))
	assert.Equal(t, "1 altered", summarize([]schema.Operation{schema.AlterTable{}}))
}

func TestLoadSchemasRejectsDuplicateTables(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "name: users\n")
	b := writeFile(t, dir, "b.yaml", "name: users\nproperties:\n  x: {type: string}\n")

	cfg = &config.Config{}
	_, err := loadSchemas([]string{a, b})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `table "users" is described by both`)
}

func TestLoadSchemasFallsBackToConfig(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.yaml", "name: users\n")

	cfg = &config.Config{Schemas: []string{a}}
	schemas, err := loadSchemas(nil)
	require.NoError(t, err)
	require.Len(t, schemas, 1)
	assert.Equal(t, "users", schemas[0].Name)

	cfg = &config.Config{}
	_, err = loadSchemas(nil)
	assert.Error(t, err)
}

func TestSyncCommandAgainstSQLite(t *testing.T) {
	dir := t.TempDir()
	users := writeFile(t, dir, "users.yaml", `
name: users
required: [name]
properties:
  name: {type: string}
  tags: {type: array, items: {type: string}}
`)
	orders := writeFile(t, dir, "orders.yaml", `
name: orders
properties:
  total: {type: number, precision: 10, scale: 2}
`)
	cfgFile := writeFile(t, dir, "config.yaml", "backend: sqlite\nparallel: 2\nconnection:\n  database: "+filepath.Join(dir, "app.db")+"\n")

	rootCmd.SetArgs([]string{"--config", cfgFile, "--log-level", "warn", "sync", users, orders})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	rootCmd.SetArgs([]string{"--config", cfgFile, "--log-level", "warn", "inspect", "users"})
	require.NoError(t, rootCmd.ExecuteContext(context.Background()))

	rootCmd.SetArgs([]string{"--config", cfgFile, "--log-level", "warn", "inspect", "missing"})
	assert.Error(t, rootCmd.ExecuteContext(context.Background()))
}

func TestPlanCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	users := writeFile(t, dir, "users.yaml", "name: users\n")
	cfgFile := writeFile(t, dir, "config.yaml", "backend: sqlite\nconnection:\n  database: "+filepath.Join(dir, "app.db")+"\n")

	rootCmd.SetArgs([]string{"--config", cfgFile, "plan", "--format", "xml", users})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown format")

	rootCmd.SetArgs([]string{"--config", cfgFile, "plan", "--format", "text", users})
	assert.NoError(t, rootCmd.ExecuteContext(context.Background()))
}

func TestRootRequiresConfig(t *testing.T) {
	cfgPath = ""
	rootCmd.SetArgs([]string{"--config", "", "plan"})
	err := rootCmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--config is required")
}
