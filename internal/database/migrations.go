package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS outbreaks (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    alert_id TEXT UNIQUE NOT NULL,
    outbreak_identifier TEXT,
    disease TEXT,
    category TEXT,
    country TEXT NOT NULL DEFAULT 'USA',
    state TEXT,
    county TEXT,
    date_label TEXT,
    reported_at TEXT,
    status TEXT,
    source TEXT,
    num_confirmed INTEGER,
    num_suspected INTEGER,
    num_exposed INTEGER,
    num_euthanized INTEGER,
    facility_type TEXT,
    comments TEXT,
    raw_text TEXT,
    lat REAL,
    lng REAL,
    first_seen_at TEXT DEFAULT (datetime('now')),
    updated_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_outbreaks_alert_id ON outbreaks(alert_id);
CREATE INDEX IF NOT EXISTS idx_outbreaks_reported_at ON outbreaks(reported_at);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
