package database

import (
	"database/sql"
	"log"
	"time"

	"edccmon/internal/extract"
)

// Stats contains aggregate database statistics.
type Stats struct {
	TotalAlerts int
	Geocoded    int
	Dated       int
}

// UpsertAlert inserts or fully replaces the record for the candidate's
// alert id. A candidate without an alert id is a logged no-op, not an
// error. On conflict every non-key field is overwritten with the
// candidate's values, nil included.
func (db *DB) UpsertAlert(rec extract.Record) error {
	if rec.AlertID == nil || *rec.AlertID == "" {
		log.Println("skipping candidate without alert id")
		return nil
	}

	_, err := db.conn.Exec(
		`INSERT INTO outbreaks (
			alert_id, outbreak_identifier, disease, category, country,
			state, county, date_label, reported_at, status, source,
			num_confirmed, num_suspected, num_exposed, num_euthanized,
			facility_type, comments, raw_text, lat, lng
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(alert_id) DO UPDATE SET
			outbreak_identifier = excluded.outbreak_identifier,
			disease = excluded.disease,
			category = excluded.category,
			country = excluded.country,
			state = excluded.state,
			county = excluded.county,
			date_label = excluded.date_label,
			reported_at = excluded.reported_at,
			status = excluded.status,
			source = excluded.source,
			num_confirmed = excluded.num_confirmed,
			num_suspected = excluded.num_suspected,
			num_exposed = excluded.num_exposed,
			num_euthanized = excluded.num_euthanized,
			facility_type = excluded.facility_type,
			comments = excluded.comments,
			raw_text = excluded.raw_text,
			lat = excluded.lat,
			lng = excluded.lng,
			updated_at = datetime('now')`,
		rec.AlertID, rec.OutbreakIdentifier, rec.Disease, rec.Category, rec.Country,
		rec.State, rec.County, rec.DateLabel, timeToString(rec.ReportedAt),
		rec.Status, rec.Source,
		rec.NumConfirmed, rec.NumSuspected, rec.NumExposed, rec.NumEuthanized,
		rec.FacilityType, rec.Comments, rec.RawText, rec.Lat, rec.Lng,
	)
	return err
}

// GetAlertByAlertID returns the stored record for an external alert id,
// or nil if none exists.
func (db *DB) GetAlertByAlertID(alertID string) (*extract.Record, error) {
	row := db.conn.QueryRow(selectColumns+` FROM outbreaks WHERE alert_id = ?`, alertID)
	rec, err := scanAlert(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAlerts returns stored records ordered by reported_at descending.
// With a non-nil cutoff only records with a known reported time newer than
// the cutoff are returned.
func (db *DB) GetAlerts(since *time.Time) ([]extract.Record, error) {
	query := selectColumns + ` FROM outbreaks`
	var args []any
	if since != nil {
		query += ` WHERE reported_at IS NOT NULL AND reported_at > ?`
		args = append(args, since.UTC().Format(time.RFC3339))
	}
	query += ` ORDER BY reported_at DESC`

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var alerts []extract.Record
	for rows.Next() {
		rec, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, *rec)
	}
	return alerts, rows.Err()
}

// GetStats returns aggregate counts for the status command.
func (db *DB) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := db.conn.QueryRow(`SELECT
		COUNT(*),
		COUNT(lat),
		COUNT(reported_at)
	FROM outbreaks`).Scan(&stats.TotalAlerts, &stats.Geocoded, &stats.Dated)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

const selectColumns = `SELECT alert_id, outbreak_identifier, disease, category, country,
	state, county, date_label, reported_at, status, source,
	num_confirmed, num_suspected, num_exposed, num_euthanized,
	facility_type, comments, raw_text, lat, lng`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAlert(row rowScanner) (*extract.Record, error) {
	var rec extract.Record
	var reportedAt *string
	if err := row.Scan(
		&rec.AlertID, &rec.OutbreakIdentifier, &rec.Disease, &rec.Category, &rec.Country,
		&rec.State, &rec.County, &rec.DateLabel, &reportedAt, &rec.Status, &rec.Source,
		&rec.NumConfirmed, &rec.NumSuspected, &rec.NumExposed, &rec.NumEuthanized,
		&rec.FacilityType, &rec.Comments, &rec.RawText, &rec.Lat, &rec.Lng,
	); err != nil {
		return nil, err
	}
	rec.ReportedAt = stringToTime(reportedAt)
	return &rec, nil
}

func timeToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func stringToTime(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
