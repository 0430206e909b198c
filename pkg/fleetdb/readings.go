package fleetdb

import (
	"context"
	"sort"

	"fleetwatch/internal/model"
)

// Reading mirrors one unit's latest telemetry for external callers.
type Reading struct {
	UnitID    string  `json:"unit_id"`
	Hum       float64 `json:"hum"`
	Temp      float64 `json:"temp"`
	Battery   int     `json:"battery"`
	Timestamp int64   `json:"timestamp"`
}

// Thresholds mirrors the fleet-wide safety configuration.
type Thresholds struct {
	MaxHumidity    float64 `json:"max_humidity"`
	MaxTemperature float64 `json:"max_temperature"`
	MinBattery     int     `json:"min_battery"`
}

// PutReading upserts the latest reading for a unit.
func (c *Client) PutReading(ctx context.Context, r Reading) error {
	return c.s.PutReading(ctx, r.UnitID, model.Reading{
		Hum:       r.Hum,
		Temp:      r.Temp,
		Battery:   r.Battery,
		Timestamp: r.Timestamp,
	})
}

// LatestReadings returns the latest reading per unit, sorted by unit ID
// on the way out of the store.
func (c *Client) LatestReadings(ctx context.Context) ([]Reading, error) {
	m, err := c.s.LatestReadings(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Reading, 0, len(m))
	for id, r := range m {
		out = append(out, Reading{
			UnitID:    id,
			Hum:       r.Hum,
			Temp:      r.Temp,
			Battery:   r.Battery,
			Timestamp: r.Timestamp,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UnitID < out[j].UnitID })
	return out, nil
}

// SaveThresholds replaces the active configuration wholesale.
func (c *Client) SaveThresholds(ctx context.Context, th Thresholds) error {
	return c.s.SaveThresholds(ctx, model.Thresholds{
		MaxHumidity:    th.MaxHumidity,
		MaxTemperature: th.MaxTemperature,
		MinBattery:     th.MinBattery,
	})
}

// Thresholds returns the active configuration, defaults included.
func (c *Client) Thresholds(ctx context.Context) (Thresholds, error) {
	th, err := c.s.Thresholds(ctx)
	if err != nil {
		return Thresholds{}, err
	}
	return Thresholds{
		MaxHumidity:    th.MaxHumidity,
		MaxTemperature: th.MaxTemperature,
		MinBattery:     th.MinBattery,
	}, nil
}
