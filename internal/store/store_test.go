package store

import (
	"context"
	"path/filepath"
	"testing"

	"fleetwatch/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "fleet_test.sqlite")
	s, err := Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}

func TestReadingLastWriteWins(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	first := model.Reading{Hum: 40, Temp: 20, Battery: 80, Timestamp: 1_000}
	if err := s.PutReading(ctx, "n1", first); err != nil {
		t.Fatalf("PutReading failed: %v", err)
	}
	second := model.Reading{Hum: 55, Temp: 25, Battery: 75, Timestamp: 2_000}
	if err := s.PutReading(ctx, "n1", second); err != nil {
		t.Fatalf("PutReading overwrite failed: %v", err)
	}

	readings, err := s.LatestReadings(ctx)
	if err != nil {
		t.Fatalf("LatestReadings failed: %v", err)
	}
	if len(readings) != 1 {
		t.Fatalf("expected 1 unit, got %d", len(readings))
	}
	if got := readings["n1"]; got != second {
		t.Fatalf("expected latest value %+v, got %+v", second, got)
	}
}

func TestThresholdsDefaultThenReplace(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	th, err := s.Thresholds(ctx)
	if err != nil {
		t.Fatalf("Thresholds failed: %v", err)
	}
	if th != model.DefaultThresholds() {
		t.Fatalf("unset store must fall back to defaults, got %+v", th)
	}
	saved, err := s.HasThresholds(ctx)
	if err != nil {
		t.Fatalf("HasThresholds failed: %v", err)
	}
	if saved {
		t.Fatalf("HasThresholds must be false before a save")
	}

	want := model.Thresholds{MaxHumidity: 70, MaxTemperature: 35, MinBattery: 15}
	if err := s.SaveThresholds(ctx, want); err != nil {
		t.Fatalf("SaveThresholds failed: %v", err)
	}
	// Whole-object replace: a second save leaves exactly one active value.
	want = model.Thresholds{MaxHumidity: 65, MaxTemperature: 32, MinBattery: 25}
	if err := s.SaveThresholds(ctx, want); err != nil {
		t.Fatalf("SaveThresholds replace failed: %v", err)
	}

	th, err = s.Thresholds(ctx)
	if err != nil {
		t.Fatalf("Thresholds failed: %v", err)
	}
	if th != want {
		t.Fatalf("expected %+v, got %+v", want, th)
	}
}

func TestAlertAppendAndList(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	older := model.AlertEvent{UnitID: "n1", Kind: model.AlertHumidity, Value: 70, Threshold: 60, Timestamp: 1_000}
	newer := model.AlertEvent{UnitID: "n2", Kind: model.AlertBattery, Value: 5, Threshold: 20, Timestamp: 2_000}

	rec1, err := s.AppendAlert(ctx, older)
	if err != nil {
		t.Fatalf("AppendAlert failed: %v", err)
	}
	if rec1.ID == "" {
		t.Fatalf("store must assign an identifier")
	}
	rec2, err := s.AppendAlert(ctx, newer)
	if err != nil {
		t.Fatalf("AppendAlert failed: %v", err)
	}
	if rec2.ID == rec1.ID {
		t.Fatalf("identifiers must be unique")
	}

	list, err := s.ListAlerts(ctx)
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(list))
	}
	if list[0].UnitID != "n2" || list[1].UnitID != "n1" {
		t.Fatalf("expected newest first, got %s then %s", list[0].UnitID, list[1].UnitID)
	}
}

func TestBreachRule(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)
	rule := NewBreachRule(s)

	// Safe reading writes nothing.
	written, err := rule.Evaluate(ctx, "n1", model.Reading{Hum: 40, Temp: 20, Battery: 80, Timestamp: 1_000})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(written) != 0 {
		t.Fatalf("safe reading must not produce alerts, got %d", len(written))
	}

	// Breaching all three thresholds produces one record per kind.
	written, err = rule.Evaluate(ctx, "n1", model.Reading{Hum: 70, Temp: 35, Battery: 5, Timestamp: 2_000})
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if len(written) != 3 {
		t.Fatalf("expected 3 alerts, got %d", len(written))
	}
	kinds := map[model.AlertKind]model.AlertRecord{}
	for _, r := range written {
		kinds[r.Kind] = r
	}
	if kinds[model.AlertHumidity].Threshold != 60 || kinds[model.AlertHumidity].Value != 70 {
		t.Fatalf("humidity alert wrong: %+v", kinds[model.AlertHumidity])
	}
	if kinds[model.AlertTemperature].Threshold != 30 {
		t.Fatalf("temperature alert wrong: %+v", kinds[model.AlertTemperature])
	}
	if kinds[model.AlertBattery].Value != 5 || kinds[model.AlertBattery].Threshold != 20 {
		t.Fatalf("battery alert wrong: %+v", kinds[model.AlertBattery])
	}

	list, err := s.ListAlerts(ctx)
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(list) != 3 {
		t.Fatalf("alerts not persisted, got %d", len(list))
	}
}
