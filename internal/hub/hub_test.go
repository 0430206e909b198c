package hub

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"fleetwatch/internal/model"
	"fleetwatch/internal/store"
)

func newTestHub(t *testing.T) (*Hub, *store.Store) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "hub_test.sqlite"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return New(s), s
}

func drainTopic(t *testing.T, h *Hub) Envelope {
	t.Helper()
	select {
	case msg := <-h.broadcast:
		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			t.Fatalf("bad broadcast envelope: %v", err)
		}
		return env
	default:
		t.Fatalf("no broadcast pending")
		return Envelope{}
	}
}

func TestPutReadingPersistsAndBroadcasts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, s := newTestHub(t)

	r := model.Reading{Hum: 40, Temp: 20, Battery: 80, Timestamp: 1_000}
	h.handleOp(ctx, Op{Op: OpPutReading, UnitID: "n1", Reading: &r})

	readings, err := s.LatestReadings(ctx)
	if err != nil {
		t.Fatalf("LatestReadings: %v", err)
	}
	if readings["n1"] != r {
		t.Fatalf("reading not persisted: %+v", readings)
	}

	env := drainTopic(t, h)
	if env.Topic != TopicReadings {
		t.Fatalf("expected readings push, got %s", env.Topic)
	}
	var payload map[string]model.Reading
	if err := json.Unmarshal(env.Payload, &payload); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if payload["n1"] != r {
		t.Fatalf("broadcast carries wrong value: %+v", payload)
	}
}

func TestBreachingReadingAlsoPushesAlerts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, s := newTestHub(t)

	r := model.Reading{Hum: 70, Temp: 20, Battery: 80, Timestamp: 1_000}
	h.handleOp(ctx, Op{Op: OpPutReading, UnitID: "n1", Reading: &r})

	if env := drainTopic(t, h); env.Topic != TopicReadings {
		t.Fatalf("expected readings first, got %s", env.Topic)
	}
	env := drainTopic(t, h)
	if env.Topic != TopicAlerts {
		t.Fatalf("expected alerts push after breach, got %s", env.Topic)
	}

	alerts, err := s.ListAlerts(ctx)
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Kind != model.AlertHumidity {
		t.Fatalf("breach rule output wrong: %+v", alerts)
	}
}

func TestPutThresholdsReplaces(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, s := newTestHub(t)

	th := model.Thresholds{MaxHumidity: 75, MaxTemperature: 32, MinBattery: 25}
	h.handleOp(ctx, Op{Op: OpPutThresholds, Thresholds: &th})

	got, err := s.Thresholds(ctx)
	if err != nil {
		t.Fatalf("Thresholds: %v", err)
	}
	if got != th {
		t.Fatalf("expected %+v, got %+v", th, got)
	}
	if env := drainTopic(t, h); env.Topic != TopicThresholds {
		t.Fatalf("expected thresholds push, got %s", env.Topic)
	}
}

func TestMalformedOpsAreIgnored(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, _ := newTestHub(t)

	h.handleOp(ctx, Op{Op: OpPutReading}) // missing unit and reading
	h.handleOp(ctx, Op{Op: OpPutThresholds})
	h.handleOp(ctx, Op{Op: "explode"})

	select {
	case <-h.broadcast:
		t.Fatalf("malformed op caused a broadcast")
	default:
	}
}

func TestTopicMessagesCarryCurrentValues(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	h, s := newTestHub(t)

	if _, err := s.AppendAlert(ctx, model.AlertEvent{UnitID: "n1", Kind: model.AlertBattery, Value: 5, Threshold: 20, Timestamp: 1}); err != nil {
		t.Fatalf("AppendAlert: %v", err)
	}

	msg, err := h.topicMessage(ctx, TopicAlerts)
	if err != nil {
		t.Fatalf("topicMessage: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	var alerts []model.AlertRecord
	if err := json.Unmarshal(env.Payload, &alerts); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if len(alerts) != 1 || alerts[0].UnitID != "n1" {
		t.Fatalf("alerts topic wrong: %+v", alerts)
	}

	msg, err = h.topicMessage(ctx, TopicThresholds)
	if err != nil {
		t.Fatalf("topicMessage: %v", err)
	}
	if err := json.Unmarshal(msg, &env); err != nil {
		t.Fatalf("envelope: %v", err)
	}
	var th model.Thresholds
	if err := json.Unmarshal(env.Payload, &th); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if th != model.DefaultThresholds() {
		t.Fatalf("unset thresholds topic must carry defaults, got %+v", th)
	}
}
