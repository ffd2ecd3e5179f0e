package main

import (
	"bytes"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/koba/table-diff/internal/config"
	"github.com/koba/table-diff/internal/loader"
	"github.com/koba/table-diff/internal/profile"
	"github.com/koba/table-diff/internal/schema"
	"github.com/koba/table-diff/internal/session"
	"github.com/koba/table-diff/internal/snapshot"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func useDefaults(t *testing.T) {
	t.Helper()
	cfg = &config.Config{Compare: config.CompareConfig{SampleSize: 10, TopValues: 5}}
	logger = zap.NewNop()
	outputFormat = "table"
	baseSheet, compareSheet = "", ""
}

func TestReadFile_SelectsOnlySheet(t *testing.T) {
	useDefaults(t)
	path := filepath.Join(t.TempDir(), "single.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec("CREATE TABLE users (id INTEGER, name TEXT)")
	require.NoError(t, err)
	_, err = db.Exec("INSERT INTO users VALUES (1, 'John')")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, opts, err := readFile(path, "")
	require.NoError(t, err)
	assert.Equal(t, loader.ReadOptions{Sheet: "users"}, opts)

	table, err := readTable(path, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name"}, table.ColumnNames())
}

func TestLoadSession_Files(t *testing.T) {
	useDefaults(t)
	dir := t.TempDir()
	base := writeFile(t, dir, "base.csv", "id,name\n1,John\n2,Jane\n")
	compare := writeFile(t, dir, "compare.json", `[{"id":1,"name":"John"},{"id":3,"name":"Bob"}]`)

	s := session.New(logger, cfg.CompareOptions())
	require.NoError(t, loadSession(s, base, compare))
	assert.Equal(t, 2, s.BaseTable().RowCount())
	assert.Equal(t, 2, s.CompareTable().RowCount())

	err := loadSession(s, base, filepath.Join(dir, "missing.csv"))
	assert.Error(t, err)
}

func TestRowMaps(t *testing.T) {
	table, err := schema.FromText("t", []string{"a"}, [][]string{{"1"}, {"2"}, {"3"}})
	require.NoError(t, err)

	assert.Len(t, rowMaps(table, 2), 2)
	assert.Len(t, rowMaps(table, 0), 3)
	assert.Equal(t, map[string]interface{}{"a": int64(1)}, rowMaps(table, 1)[0])
}

func TestWriteStructured(t *testing.T) {
	useDefaults(t)
	var buf bytes.Buffer

	outputFormat = "yaml"
	require.NoError(t, writeStructured(&buf, loader.Options{Sheets: []string{"a", "b"}}))

	var decoded map[string][]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, []string{"a", "b"}, decoded["sheets"])

	buf.Reset()
	outputFormat = "json"
	require.NoError(t, writeStructured(&buf, loader.Options{Sheets: []string{"a"}}))
	assert.JSONEq(t, `{"sheets":["a"]}`, buf.String())

	outputFormat = "xml"
	assert.Error(t, writeStructured(&buf, nil))
}

func TestCompareCommand(t *testing.T) {
	dir := t.TempDir()
	base := writeFile(t, dir, "base.csv", "id,name,value\n1,John,100\n2,Jane,200\n3,Bob,300\n")
	compare := writeFile(t, dir, "compare.csv", "id,name,value\n1,John,100\n2,Jane,250\n4,Alice,400\n")
	reportPath := filepath.Join(dir, "out", "report.db")
	mergedPath := filepath.Join(dir, "out", "merged.parquet")

	rootCmd.SetArgs([]string{
		"compare", base, compare,
		"--config", filepath.Join(dir, "absent.yaml"),
		"--format", "table",
		"--keys", "id",
		"--save", reportPath,
		"--merged", mergedPath,
	})
	require.NoError(t, rootCmd.Execute())

	report, err := snapshot.Load(reportPath)
	require.NoError(t, err)
	require.NotNil(t, report.Stats)
	assert.Equal(t, 2, report.Stats.RowsInCommon)

	f, err := loader.ReadFile(mergedPath)
	require.NoError(t, err)
	merged, err := loader.Load(f, loader.ReadOptions{})
	require.NoError(t, err)
	assert.Equal(t, 4, merged.RowCount())
	assert.Contains(t, merged.ColumnNames(), "_merge")
}

func TestPrintValueCounts(t *testing.T) {
	assert.NoError(t, printValueCounts(nil))
	assert.NoError(t, printValueCounts([]profile.ValueCount{{Value: "a", Count: 1200}}))
}
