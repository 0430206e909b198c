package store

import (
	"context"
	"fmt"

	"fleetwatch/internal/model"
)

// BreachRule appends alert log entries when an incoming reading breaches
// the active thresholds. It is the producer side of the alert log; the
// engine only consumes and orders what it writes.
type BreachRule struct {
	store *Store
}

func NewBreachRule(s *Store) *BreachRule {
	return &BreachRule{store: s}
}

// Evaluate checks one reading against the active thresholds and appends an
// alert record per breached threshold. It returns the records written.
func (r *BreachRule) Evaluate(ctx context.Context, unitID string, reading model.Reading) ([]model.AlertRecord, error) {
	th, err := r.store.Thresholds(ctx)
	if err != nil {
		return nil, fmt.Errorf("load thresholds: %w", err)
	}

	var events []model.AlertEvent
	if reading.Hum > th.MaxHumidity {
		events = append(events, model.AlertEvent{
			UnitID:    unitID,
			Kind:      model.AlertHumidity,
			Value:     reading.Hum,
			Threshold: th.MaxHumidity,
			Message:   fmt.Sprintf("humidity %.1f%% above ceiling %.1f%%", reading.Hum, th.MaxHumidity),
			Timestamp: reading.Timestamp,
		})
	}
	if reading.Temp > th.MaxTemperature {
		events = append(events, model.AlertEvent{
			UnitID:    unitID,
			Kind:      model.AlertTemperature,
			Value:     reading.Temp,
			Threshold: th.MaxTemperature,
			Message:   fmt.Sprintf("temperature %.1f above ceiling %.1f", reading.Temp, th.MaxTemperature),
			Timestamp: reading.Timestamp,
		})
	}
	if reading.Battery < th.MinBattery {
		events = append(events, model.AlertEvent{
			UnitID:    unitID,
			Kind:      model.AlertBattery,
			Value:     float64(reading.Battery),
			Threshold: float64(th.MinBattery),
			Message:   fmt.Sprintf("battery %d%% below floor %d%%", reading.Battery, th.MinBattery),
			Timestamp: reading.Timestamp,
		})
	}

	out := make([]model.AlertRecord, 0, len(events))
	for _, ev := range events {
		rec, err := r.store.AppendAlert(ctx, ev)
		if err != nil {
			return out, fmt.Errorf("append alert: %w", err)
		}
		out = append(out, rec)
	}
	return out, nil
}
