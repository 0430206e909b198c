package alarm

import (
	"testing"
	"time"

	"fleetwatch/internal/model"
)

func snap(overall model.FleetStatus) model.FleetSnapshot {
	return model.FleetSnapshot{Overall: overall}
}

func TestEdgeTriggeredActivations(t *testing.T) {
	t.Parallel()
	a := New(nil)

	sequence := []model.FleetStatus{
		model.FleetOptimal,
		model.FleetCritical,
		model.FleetCritical,
		model.FleetOptimal,
		model.FleetCritical,
	}
	fired := 0
	for _, st := range sequence {
		if a.Observe(snap(st)) {
			fired++
		}
	}
	if fired != 2 {
		t.Fatalf("expected 2 activations (entries), got %d", fired)
	}
}

func TestRemainingCriticalDoesNotRefire(t *testing.T) {
	t.Parallel()
	a := New(nil)

	if !a.Observe(snap(model.FleetCritical)) {
		t.Fatalf("first critical snapshot must fire")
	}
	for i := 0; i < 10; i++ {
		if a.Observe(snap(model.FleetCritical)) {
			t.Fatalf("level-triggered activation on recomputation %d", i)
		}
	}
	if !a.Active() {
		t.Fatalf("alarm should still be active while critical")
	}
}

func TestAcknowledgeWhileCritical(t *testing.T) {
	t.Parallel()
	a := New(nil)

	a.Observe(snap(model.FleetCritical))
	a.Acknowledge()
	if a.Active() {
		t.Fatalf("acknowledged alarm must be quiescent")
	}

	// Still critical: no re-fire until a fresh entry.
	if a.Observe(snap(model.FleetCritical)) {
		t.Fatalf("acknowledgment must suppress while status stays critical")
	}
	a.Observe(snap(model.FleetOptimal))
	if !a.Observe(snap(model.FleetCritical)) {
		t.Fatalf("fresh critical entry after recovery must fire")
	}
}

func TestAcknowledgeWhenQuiescentIsNoop(t *testing.T) {
	t.Parallel()
	a := New(nil)

	a.Acknowledge()
	if a.Active() {
		t.Fatalf("acknowledge on quiescent alarm must not activate it")
	}
}

type recordingNotifier struct {
	raised    chan model.FleetSnapshot
	dismissed chan struct{}
}

func (n *recordingNotifier) AlarmRaised(s model.FleetSnapshot) { n.raised <- s }
func (n *recordingNotifier) AlarmDismissed()                   { n.dismissed <- struct{}{} }

func TestNotifierSideEffects(t *testing.T) {
	t.Parallel()
	n := &recordingNotifier{
		raised:    make(chan model.FleetSnapshot, 1),
		dismissed: make(chan struct{}, 1),
	}
	a := New(n)

	a.Observe(model.FleetSnapshot{Overall: model.FleetCritical, CriticalUnits: 3})
	select {
	case s := <-n.raised:
		if s.CriticalUnits != 3 {
			t.Fatalf("notifier got wrong snapshot: %+v", s)
		}
	case <-time.After(time.Second):
		t.Fatalf("raise notification never delivered")
	}

	a.Acknowledge()
	select {
	case <-n.dismissed:
	case <-time.After(time.Second):
		t.Fatalf("dismiss notification never delivered")
	}
}
