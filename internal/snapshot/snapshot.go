// Package snapshot persists comparison reports to SQLite files so a
// comparison can be reviewed after the session that produced it is gone.
package snapshot

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/koba/table-diff/internal/diff"
	"github.com/koba/table-diff/internal/schema"
)

const (
	sideBase    = "base"
	sideCompare = "compare"
)

// Report is a comparison read back from a report file
type Report struct {
	ID          string
	CreatedAt   time.Time
	JoinKeys    []string
	BaseName    string
	CompareName string
	Options     diff.Options

	Stats           *diff.Stats // nil when the report was saved without stats
	Columns         []diff.ColumnComparison
	BaseOnlyRows    []map[string]interface{}
	CompareOnlyRows []map[string]interface{}
	Mismatches      []Mismatch
}

// Mismatch is one differing value of a common row
type Mismatch struct {
	Key     []interface{}
	Column  string
	Base    interface{}
	Compare interface{}
}

// Save writes the comparison to a new SQLite file at path, replacing any
// existing file, and returns the report id
func Save(path string, r *diff.Result, s *diff.Stats) (string, error) {
	if r == nil {
		return "", fmt.Errorf("no comparison to save")
	}

	// Ensure output directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	// Remove existing report file if it exists
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return "", fmt.Errorf("failed to remove existing report: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return "", fmt.Errorf("failed to create report database: %w", err)
	}
	defer db.Close()

	if err := initializeSchema(db); err != nil {
		return "", fmt.Errorf("failed to initialize report schema: %w", err)
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	id := uuid.New().String()
	if err := saveMetadata(tx, id, r); err != nil {
		return "", err
	}

	if s != nil {
		_, err := tx.Exec(
			`INSERT INTO stats (rows_in_common, unmatched_base, unmatched_compare, match_rate, total_base, total_compare)
			VALUES (?, ?, ?, ?, ?, ?)`,
			s.RowsInCommon, s.UnmatchedBase, s.UnmatchedCompare, s.MatchRate, s.TotalBase, s.TotalCompare,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert stats: %w", err)
		}
	}

	for i, col := range r.Columns {
		_, err := tx.Exec(
			`INSERT INTO column_results (position, column_name, base_type, compare_type, match_count, mismatch_count, max_diff, null_diff)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			i, col.Column, string(col.BaseType), string(col.CompareType),
			col.MatchCount, col.MismatchCount, col.MaxDiff, col.NullDiff,
		)
		if err != nil {
			return "", fmt.Errorf("failed to insert column result: %w", err)
		}
	}

	if err := saveUniqueRows(tx, sideBase, r.Base, r.BaseOnlyRows); err != nil {
		return "", err
	}
	if err := saveUniqueRows(tx, sideCompare, r.Compare, r.CompareOnlyRows); err != nil {
		return "", err
	}
	if err := saveMismatches(tx, r); err != nil {
		return "", err
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit transaction: %w", err)
	}

	return id, nil
}

func saveMetadata(tx *sql.Tx, id string, r *diff.Result) error {
	keysJSON, err := json.Marshal(r.JoinKeys)
	if err != nil {
		return fmt.Errorf("failed to marshal join keys: %w", err)
	}
	optionsJSON, err := json.Marshal(r.Options)
	if err != nil {
		return fmt.Errorf("failed to marshal options: %w", err)
	}

	metadata := map[string]string{
		"id":           id,
		"created_at":   time.Now().UTC().Format(time.RFC3339),
		"join_keys":    string(keysJSON),
		"base_name":    r.Base.Name,
		"compare_name": r.Compare.Name,
		"options":      string(optionsJSON),
	}

	for key, value := range metadata {
		if _, err := tx.Exec("INSERT INTO metadata (key, value) VALUES (?, ?)", key, value); err != nil {
			return fmt.Errorf("failed to insert metadata: %w", err)
		}
	}
	return nil
}

func saveUniqueRows(tx *sql.Tx, side string, t *schema.Table, rows []schema.Row) error {
	stmt, err := tx.Prepare("INSERT INTO unique_rows (side, row_json) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		values := make(map[string]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			values[col.Name] = row[i]
		}

		rowJSON, err := json.Marshal(values)
		if err != nil {
			return fmt.Errorf("failed to marshal row: %w", err)
		}

		if _, err := stmt.Exec(side, string(rowJSON)); err != nil {
			return fmt.Errorf("failed to insert row: %w", err)
		}
	}
	return nil
}

func saveMismatches(tx *sql.Tx, r *diff.Result) error {
	stmt, err := tx.Prepare("INSERT INTO mismatches (key_json, column_name, base_value, compare_value) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	keyIdx := make([]int, len(r.JoinKeys))
	for i, key := range r.JoinKeys {
		keyIdx[i] = r.Base.ColumnIndex(key)
	}

	for _, row := range r.MismatchedRows() {
		key := make([]interface{}, len(keyIdx))
		for i, idx := range keyIdx {
			key[i] = row.Base[idx]
		}
		keyJSON, err := json.Marshal(key)
		if err != nil {
			return fmt.Errorf("failed to marshal key: %w", err)
		}

		for _, column := range row.Mismatched {
			baseJSON, err := json.Marshal(row.Base[r.Base.ColumnIndex(column)])
			if err != nil {
				return fmt.Errorf("failed to marshal value: %w", err)
			}
			compareJSON, err := json.Marshal(row.Compare[r.Compare.ColumnIndex(column)])
			if err != nil {
				return fmt.Errorf("failed to marshal value: %w", err)
			}

			if _, err := stmt.Exec(string(keyJSON), column, string(baseJSON), string(compareJSON)); err != nil {
				return fmt.Errorf("failed to insert mismatch: %w", err)
			}
		}
	}
	return nil
}

// Load reads a report file written by Save
func Load(path string) (*Report, error) {
	// Check if file exists
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("report file does not exist: %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open report database: %w", err)
	}
	defer db.Close()

	report := &Report{}
	if err := loadMetadata(db, report); err != nil {
		return nil, err
	}
	if err := loadStats(db, report); err != nil {
		return nil, err
	}
	if err := loadColumns(db, report); err != nil {
		return nil, err
	}
	if err := loadUniqueRows(db, report); err != nil {
		return nil, err
	}
	if err := loadMismatches(db, report); err != nil {
		return nil, err
	}

	return report, nil
}

func loadMetadata(db *sql.DB, report *Report) error {
	rows, err := db.Query("SELECT key, value FROM metadata")
	if err != nil {
		return fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	metadata := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("failed to scan metadata: %w", err)
		}
		metadata[key] = value
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read metadata: %w", err)
	}

	report.ID = metadata["id"]
	report.BaseName = metadata["base_name"]
	report.CompareName = metadata["compare_name"]

	if report.CreatedAt, err = time.Parse(time.RFC3339, metadata["created_at"]); err != nil {
		return fmt.Errorf("failed to parse created_at: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata["join_keys"]), &report.JoinKeys); err != nil {
		return fmt.Errorf("failed to unmarshal join keys: %w", err)
	}
	if err := json.Unmarshal([]byte(metadata["options"]), &report.Options); err != nil {
		return fmt.Errorf("failed to unmarshal options: %w", err)
	}
	return nil
}

func loadStats(db *sql.DB, report *Report) error {
	var s diff.Stats
	err := db.QueryRow(
		"SELECT rows_in_common, unmatched_base, unmatched_compare, match_rate, total_base, total_compare FROM stats",
	).Scan(&s.RowsInCommon, &s.UnmatchedBase, &s.UnmatchedCompare, &s.MatchRate, &s.TotalBase, &s.TotalCompare)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to query stats: %w", err)
	}
	report.Stats = &s
	return nil
}

func loadColumns(db *sql.DB, report *Report) error {
	rows, err := db.Query(`
		SELECT column_name, base_type, compare_type, match_count, mismatch_count, max_diff, null_diff
		FROM column_results ORDER BY position`)
	if err != nil {
		return fmt.Errorf("failed to query column results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var col diff.ColumnComparison
		var baseType, compareType string
		if err := rows.Scan(&col.Column, &baseType, &compareType,
			&col.MatchCount, &col.MismatchCount, &col.MaxDiff, &col.NullDiff); err != nil {
			return fmt.Errorf("failed to scan column result: %w", err)
		}
		col.BaseType = schema.DataType(baseType)
		col.CompareType = schema.DataType(compareType)
		report.Columns = append(report.Columns, col)
	}
	return rows.Err()
}

func loadUniqueRows(db *sql.DB, report *Report) error {
	rows, err := db.Query("SELECT side, row_json FROM unique_rows ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to query unique rows: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var side, rowJSON string
		if err := rows.Scan(&side, &rowJSON); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}

		var row map[string]interface{}
		if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
			return fmt.Errorf("failed to unmarshal row: %w", err)
		}

		if side == sideBase {
			report.BaseOnlyRows = append(report.BaseOnlyRows, row)
		} else {
			report.CompareOnlyRows = append(report.CompareOnlyRows, row)
		}
	}
	return rows.Err()
}

func loadMismatches(db *sql.DB, report *Report) error {
	rows, err := db.Query("SELECT key_json, column_name, base_value, compare_value FROM mismatches ORDER BY id")
	if err != nil {
		return fmt.Errorf("failed to query mismatches: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var keyJSON, baseJSON, compareJSON string
		var m Mismatch
		if err := rows.Scan(&keyJSON, &m.Column, &baseJSON, &compareJSON); err != nil {
			return fmt.Errorf("failed to scan mismatch: %w", err)
		}
		if err := json.Unmarshal([]byte(keyJSON), &m.Key); err != nil {
			return fmt.Errorf("failed to unmarshal key: %w", err)
		}
		if err := json.Unmarshal([]byte(baseJSON), &m.Base); err != nil {
			return fmt.Errorf("failed to unmarshal value: %w", err)
		}
		if err := json.Unmarshal([]byte(compareJSON), &m.Compare); err != nil {
			return fmt.Errorf("failed to unmarshal value: %w", err)
		}
		report.Mismatches = append(report.Mismatches, m)
	}
	return rows.Err()
}
