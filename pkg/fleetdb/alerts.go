package fleetdb

import (
	"context"
	"io"

	"fleetwatch/internal/alertlog"
	"fleetwatch/internal/model"
)

// Alert mirrors one alert log entry for external callers.
type Alert struct {
	ID        string  `json:"id"`
	UnitID    string  `json:"nodeId"`
	Kind      string  `json:"type"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
	Message   string  `json:"message,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// AppendAlert appends one entry to the log and returns its assigned ID.
func (c *Client) AppendAlert(ctx context.Context, a Alert) (string, error) {
	rec, err := c.s.AppendAlert(ctx, model.AlertEvent{
		UnitID:    a.UnitID,
		Kind:      model.AlertKind(a.Kind),
		Value:     a.Value,
		Threshold: a.Threshold,
		Message:   a.Message,
		Timestamp: a.Timestamp,
	})
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}

// ListAlerts returns the full log, newest first. kind filters to one alert
// kind when non-empty.
func (c *Client) ListAlerts(ctx context.Context, kind string) ([]Alert, error) {
	records, err := c.s.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}
	if kind != "" {
		records = alertlog.Filter(records, model.AlertKind(kind))
	}
	out := make([]Alert, 0, len(records))
	for _, r := range records {
		out = append(out, Alert{
			ID:        r.ID,
			UnitID:    r.UnitID,
			Kind:      string(r.Kind),
			Value:     r.Value,
			Threshold: r.Threshold,
			Message:   r.Message,
			Timestamp: r.Timestamp,
		})
	}
	return out, nil
}

// ExportAlertsCSV writes the (optionally filtered) log in the CSV export
// format.
func (c *Client) ExportAlertsCSV(ctx context.Context, w io.Writer, kind string) error {
	records, err := c.s.ListAlerts(ctx)
	if err != nil {
		return err
	}
	if kind != "" {
		records = alertlog.Filter(records, model.AlertKind(kind))
	}
	return alertlog.WriteCSV(w, records)
}
