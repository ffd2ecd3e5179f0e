package snapshot

import "database/sql"

const (
	// SQLite schema for storing comparison reports
	createMetadataTable = `
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`

	createStatsTable = `
		CREATE TABLE IF NOT EXISTS stats (
			rows_in_common INTEGER NOT NULL,
			unmatched_base INTEGER NOT NULL,
			unmatched_compare INTEGER NOT NULL,
			match_rate REAL NOT NULL,
			total_base INTEGER NOT NULL,
			total_compare INTEGER NOT NULL
		);
	`

	createColumnResultsTable = `
		CREATE TABLE IF NOT EXISTS column_results (
			position INTEGER PRIMARY KEY,
			column_name TEXT NOT NULL,
			base_type TEXT NOT NULL,
			compare_type TEXT NOT NULL,
			match_count INTEGER NOT NULL,
			mismatch_count INTEGER NOT NULL,
			max_diff REAL NOT NULL,
			null_diff INTEGER NOT NULL
		);
	`

	createUniqueRowsTable = `
		CREATE TABLE IF NOT EXISTS unique_rows (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			side TEXT NOT NULL,
			row_json TEXT NOT NULL
		);
	`

	createUniqueRowsIndex = `
		CREATE INDEX IF NOT EXISTS idx_unique_rows_side
		ON unique_rows(side);
	`

	createMismatchesTable = `
		CREATE TABLE IF NOT EXISTS mismatches (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			key_json TEXT NOT NULL,
			column_name TEXT NOT NULL,
			base_value TEXT NOT NULL,
			compare_value TEXT NOT NULL
		);
	`
)

// initializeSchema creates the report tables in the SQLite database
func initializeSchema(db *sql.DB) error {
	schemas := []string{
		createMetadataTable,
		createStatsTable,
		createColumnResultsTable,
		createUniqueRowsTable,
		createUniqueRowsIndex,
		createMismatchesTable,
	}

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return err
		}
	}

	return nil
}
