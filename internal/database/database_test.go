package database

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/table-diff/internal/schema"
)

func createSQLiteFixture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`
		CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, score REAL);
		INSERT INTO users (id, name, score) VALUES (1, 'John', 1.5), (2, 'Jane', NULL), (3, 'Bob', 3.25);
		CREATE TABLE "odd ""name""" (v TEXT);
	`)
	require.NoError(t, err)
	return path
}

func TestNewDatabase(t *testing.T) {
	for _, typ := range []string{"mysql", "MySQL", "postgres", "PostgreSQL", "sqlite", "sqlite3"} {
		db, err := NewDatabase(Config{Type: typ})
		require.NoError(t, err, typ)
		assert.NotNil(t, db)
	}

	_, err := NewDatabase(Config{Type: "oracle"})
	assert.Error(t, err)
}

func TestDefaultPort(t *testing.T) {
	assert.Equal(t, "3306", DefaultPort("MySQL"))
	assert.Equal(t, "5432", DefaultPort("postgresql"))
	assert.Equal(t, "", DefaultPort("sqlite"))
}

func TestConfigDSN(t *testing.T) {
	mysql := Config{Type: "mysql", Host: "db", Port: "3306", Database: "app", User: "u", Password: "p"}
	assert.Equal(t, "u:p@tcp(db:3306)/app?parseTime=true", mysql.DSN())

	pg := Config{Type: "postgres", Host: "db", Port: "5432", Database: "app", User: "u", Password: "p"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=app sslmode=disable", pg.DSN())

	assert.Equal(t, "/tmp/x.db", Config{Type: "sqlite", Database: "/tmp/x.db"}.DSN())
}

func TestSQLite_GetTable(t *testing.T) {
	db := NewSQLite(Config{Type: "sqlite", Database: createSQLiteFixture(t)})
	require.NoError(t, db.Connect())
	defer db.Close()

	tables, err := db.GetAllTables()
	require.NoError(t, err)
	assert.Equal(t, []string{`odd "name"`, "users"}, tables)

	table, err := db.GetTable("users", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "name", "score"}, table.ColumnNames())
	assert.Equal(t, schema.TypeInt, table.Columns[0].Type)
	assert.Equal(t, schema.TypeFloat, table.Columns[2].Type)
	require.Equal(t, 3, table.RowCount())
	assert.Equal(t, schema.Row{int64(2), "Jane", nil}, table.Rows[1])

	limited, err := db.GetTable("users", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, limited.RowCount())

	quoted, err := db.GetTable(`odd "name"`, 0)
	require.NoError(t, err)
	assert.Equal(t, 0, quoted.RowCount())

	_, err = db.GetTable("missing", 0)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestConvertValue(t *testing.T) {
	assert.Equal(t, int64(42), convertValue([]byte("42"), "BIGINT"))
	assert.Equal(t, int64(7), convertValue([]byte("7"), "UNSIGNED INT"))
	assert.Equal(t, 1.25, convertValue([]byte("1.25"), "DECIMAL"))
	assert.Equal(t, true, convertValue([]byte("1"), "BOOLEAN"))
	assert.Equal(t, "abc", convertValue([]byte("abc"), "VARCHAR"))
	assert.Equal(t, int64(3), convertValue(int64(3), "INTEGER"))
}
