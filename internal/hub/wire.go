package hub

import (
	"encoding/json"

	"fleetwatch/internal/model"
)

// Topics pushed from the hub to subscribers. Each carries the full current
// value of its slot, never a delta.
const (
	TopicReadings   = "readings"
	TopicThresholds = "thresholds"
	TopicAlerts     = "alerts"
)

// Ops accepted from producers.
const (
	OpPutReading    = "put_reading"
	OpPutThresholds = "put_thresholds"
	OpAppendAlert   = "append_alert"
)

// Envelope is one hub-to-subscriber push message.
type Envelope struct {
	Topic   string          `json:"topic"`
	Payload json.RawMessage `json:"payload"`
}

// Op is one producer-to-hub write message.
type Op struct {
	Op         string            `json:"op"`
	UnitID     string            `json:"unit_id,omitempty"`
	Reading    *model.Reading    `json:"reading,omitempty"`
	Thresholds *model.Thresholds `json:"thresholds,omitempty"`
	Alert      *model.AlertEvent `json:"alert,omitempty"`
}

func marshalEnvelope(topic string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Topic: topic, Payload: raw})
}
