package model

// AlertKind identifies which threshold a breach alert refers to.
type AlertKind string

const (
	AlertHumidity    AlertKind = "humidity"
	AlertTemperature AlertKind = "temperature"
	AlertBattery     AlertKind = "battery"
)

// AlertEvent is the wire form of one append-only log entry, before the
// store has assigned it an identifier.
type AlertEvent struct {
	UnitID    string    `json:"nodeId"`
	Kind      AlertKind `json:"type"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// AlertRecord is a stored log entry. Created once by a producer when a
// breach is detected, never mutated or deleted afterwards.
type AlertRecord struct {
	ID        string    `json:"id"`
	UnitID    string    `json:"nodeId"`
	Kind      AlertKind `json:"type"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	Message   string    `json:"message,omitempty"`
	Timestamp int64     `json:"timestamp"`
}
