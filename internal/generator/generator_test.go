package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/schema"
)

func compare(t *testing.T, base, compare *schema.Table, keys ...string) *diff.Result {
	t.Helper()
	result, err := diff.Compare(base, compare, keys, diff.Options{})
	require.NoError(t, err)
	return result
}

func mustText(t *testing.T, name string, headers []string, records ...[]string) *schema.Table {
	t.Helper()
	table, err := schema.FromText(name, headers, records)
	require.NoError(t, err)
	return table
}

func TestGenerateSQL_MySQL(t *testing.T) {
	base := mustText(t, "base", []string{"id", "name", "value"},
		[]string{"1", "John", "100"},
		[]string{"2", "Jane", "200"},
		[]string{"3", "Bob", "300"},
	)
	cmp := mustText(t, "compare", []string{"id", "name", "value"},
		[]string{"1", "John", "100"},
		[]string{"2", "Jane", "250"},
		[]string{"4", "Alice", "400"},
	)

	sql := GenerateSQL(compare(t, base, cmp, "id"), "users", "mysql")

	expected := "DELETE FROM `users` WHERE `id` = 4;\n" +
		"INSERT INTO `users` (`id`, `name`, `value`) VALUES (3, 'Bob', 300);\n" +
		"UPDATE `users` SET `value` = 200 WHERE `id` = 2;"
	assert.Equal(t, expected, sql)
}

func TestGenerateSQL_PostgresSchemaChanges(t *testing.T) {
	base := mustText(t, "base", []string{"id", "score"}, []string{"1", "1.5"})
	cmp := mustText(t, "compare", []string{"id", "legacy"}, []string{"1", "x"})

	sql := GenerateSQL(compare(t, base, cmp, "id"), "scores", "postgresql")

	expected := `ALTER TABLE "scores" ADD COLUMN "score" DOUBLE PRECISION;` + "\n" +
		`ALTER TABLE "scores" DROP COLUMN "legacy";`
	assert.Equal(t, expected, sql)
}

func TestGenerateSQL_QuotesValuesAndNullKeys(t *testing.T) {
	base := mustText(t, "base", []string{"code", "note"},
		[]string{"", "it's"},
	)
	cmp := mustText(t, "compare", []string{"code", "note"},
		[]string{"", "its"},
	)

	sql := GenerateSQL(compare(t, base, cmp, "code"), "notes", "sqlite")
	assert.Equal(t, `UPDATE "notes" SET "note" = 'it''s' WHERE "code" IS NULL;`, sql)
}

func TestGenerateSQL_NoDifferences(t *testing.T) {
	base := mustText(t, "base", []string{"id"}, []string{"1"})

	assert.Empty(t, GenerateSQL(compare(t, base, base, "id"), "t", "mysql"))
	assert.Empty(t, GenerateSQL(nil, "t", "mysql"))
}

func TestFormatValue(t *testing.T) {
	g := NewDMLGenerator("mysql")

	assert.Equal(t, "NULL", g.formatValue(nil))
	assert.Equal(t, "2.5", g.formatValue(2.5))
	assert.Equal(t, "FALSE", g.formatValue(false))
	assert.Equal(t, "'2024-01-02 03:04:05'", g.formatValue(time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)))
}

func TestColumnType(t *testing.T) {
	assert.Equal(t, "BIGINT", NewDDLGenerator("mysql").columnType(schema.TypeInt))
	assert.Equal(t, "TIMESTAMP", NewDDLGenerator("postgres").columnType(schema.TypeDatetime))
	assert.Equal(t, "REAL", NewDDLGenerator("sqlite").columnType(schema.TypeFloat))
	assert.Equal(t, "TEXT", NewDDLGenerator("mysql").columnType(schema.TypeObject))
}
