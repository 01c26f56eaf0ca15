package audit

import "database/sql"

// Schema contains the DDL for the operator action trail.
// Call Init(db) to apply it, or embed the constant in your own schema
// management.
const Schema = `
CREATE TABLE IF NOT EXISTS trigger_events (
    event_id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    transport TEXT NOT NULL DEFAULT 'http',
    source_id TEXT,
    source_name TEXT,
    sweep_id TEXT,
    action TEXT NOT NULL,
    details TEXT,
    success INTEGER NOT NULL DEFAULT 1,
    created_at INTEGER NOT NULL DEFAULT (strftime('%s', 'now'))
);
CREATE INDEX IF NOT EXISTS idx_trigger_events_type ON trigger_events(event_type, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_trigger_events_source ON trigger_events(source_id, created_at DESC);
`

// Init applies the audit schema to the given database.
func Init(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
