package resultlog

import "database/sql"

// Schema holds the dashboard state table: one row per well-known key, value
// is an opaque serialized blob owned by the writer.
const Schema = `
CREATE TABLE IF NOT EXISTS dashboard_state (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at INTEGER NOT NULL
);
`

// ApplySchema creates the dashboard state table on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
