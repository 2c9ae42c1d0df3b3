package database

import (
	"path/filepath"
	"testing"
	"time"

	"edccmon/internal/extract"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func candidate(alertID string) extract.Record {
	return extract.Record{
		AlertID: ptr(alertID),
		Country: "USA",
		Disease: ptr("Equine Herpesvirus- Neurologic"),
	}
}

func TestUpsertInsertsNewAlert(t *testing.T) {
	db := openTestDB(t)
	if err := db.UpsertAlert(candidate("100")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rec, err := db.GetAlertByAlertID("100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec == nil {
		t.Fatal("expected stored record")
	}
	if rec.Disease == nil || *rec.Disease != "Equine Herpesvirus- Neurologic" {
		t.Errorf("unexpected disease %v", rec.Disease)
	}
}

func TestUpsertSecondWriteWins(t *testing.T) {
	db := openTestDB(t)

	first := candidate("200")
	first.Status = ptr("Confirmed Case(s)")
	n := int64(3)
	first.NumConfirmed = &n
	if err := db.UpsertAlert(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := candidate("200")
	second.Status = ptr("Quarantine Released")
	// NumConfirmed deliberately nil: the overwrite must null out the old value.
	if err := db.UpsertAlert(second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	all, _ := db.GetAlerts(nil)
	if len(all) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(all))
	}

	rec, _ := db.GetAlertByAlertID("200")
	if rec.Status == nil || *rec.Status != "Quarantine Released" {
		t.Errorf("expected second write's status, got %v", rec.Status)
	}
	if rec.NumConfirmed != nil {
		t.Errorf("expected numConfirmed nulled by full overwrite, got %d", *rec.NumConfirmed)
	}
}

func TestUpsertWithoutAlertIDIsNoOp(t *testing.T) {
	db := openTestDB(t)

	rec := extract.Record{Country: "USA", Disease: ptr("Strangles")}
	if err := db.UpsertAlert(rec); err != nil {
		t.Fatalf("expected no-op, got error: %v", err)
	}

	all, err := db.GetAlerts(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected empty store, got %d records", len(all))
	}
}

func TestGetAlertByAlertIDMissing(t *testing.T) {
	db := openTestDB(t)
	rec, err := db.GetAlertByAlertID("nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec != nil {
		t.Error("expected nil for missing alert")
	}
}

func TestGetAlertsOrderingAndCutoff(t *testing.T) {
	db := openTestDB(t)

	old := candidate("1")
	old.ReportedAt = timePtr(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC))
	recent := candidate("2")
	recent.ReportedAt = timePtr(time.Date(2025, 11, 28, 0, 0, 0, 0, time.UTC))
	undated := candidate("3")

	for _, rec := range []extract.Record{old, recent, undated} {
		if err := db.UpsertAlert(rec); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	all, err := db.GetAlerts(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 records, got %d", len(all))
	}
	if *all[0].AlertID != "2" || *all[1].AlertID != "1" {
		t.Errorf("expected reported_at descending, got %q then %q", *all[0].AlertID, *all[1].AlertID)
	}

	cutoff := time.Date(2025, 11, 15, 0, 0, 0, 0, time.UTC)
	filtered, err := db.GetAlerts(&cutoff)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(filtered) != 1 {
		t.Fatalf("expected 1 record after cutoff, got %d", len(filtered))
	}
	if *filtered[0].AlertID != "2" {
		t.Errorf("expected alert 2, got %q", *filtered[0].AlertID)
	}
}

func TestReportedAtRoundTrip(t *testing.T) {
	db := openTestDB(t)

	rec := candidate("42")
	rec.ReportedAt = timePtr(time.Date(2025, 11, 28, 13, 45, 0, 0, time.UTC))
	if err := db.UpsertAlert(rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, _ := db.GetAlertByAlertID("42")
	if stored.ReportedAt == nil {
		t.Fatal("expected reportedAt to survive round trip")
	}
	if !stored.ReportedAt.Equal(*rec.ReportedAt) {
		t.Errorf("expected %v, got %v", rec.ReportedAt, stored.ReportedAt)
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)

	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalAlerts != 0 {
		t.Errorf("expected 0 alerts, got %d", stats.TotalAlerts)
	}

	rec := candidate("7")
	lat, lng := 36.1156, -97.0584
	rec.Lat, rec.Lng = &lat, &lng
	db.UpsertAlert(rec)
	db.UpsertAlert(candidate("8"))

	stats, _ = db.GetStats()
	if stats.TotalAlerts != 2 {
		t.Errorf("expected 2 alerts, got %d", stats.TotalAlerts)
	}
	if stats.Geocoded != 1 {
		t.Errorf("expected 1 geocoded, got %d", stats.Geocoded)
	}
}

func TestUpsertFromSecondHandleConverges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "shared.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	defer db.Close()

	other, err := Open(path)
	if err != nil {
		t.Fatalf("failed to open second handle: %v", err)
	}
	defer other.Close()

	first := candidate("300")
	first.Status = ptr("Suspected Case(s)")
	if err := db.UpsertAlert(first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second := candidate("300")
	second.Status = ptr("Confirmed Case(s)")
	if err := other.UpsertAlert(second); err != nil {
		t.Fatalf("unexpected error on second handle: %v", err)
	}

	all, err := db.GetAlerts(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected exactly one record, got %d", len(all))
	}
	if all[0].Status == nil || *all[0].Status != "Confirmed Case(s)" {
		t.Errorf("expected last write's status, got %v", all[0].Status)
	}
}
