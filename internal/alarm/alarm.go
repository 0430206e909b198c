package alarm

import "fleetwatch/internal/model"

// Notifier delivers best-effort local cues when the alarm changes state.
// Implementations must not block; failures never affect the state machine.
type Notifier interface {
	// AlarmRaised is called once per fresh entry into the critical state.
	AlarmRaised(snap model.FleetSnapshot)
	// AlarmDismissed is called when the consumer acknowledges the alarm.
	AlarmDismissed()
}

type state int

const (
	quiescent state = iota
	alarmed
)

// Alarm is an edge-triggered two-state machine watching the snapshot
// stream. It fires exactly once per transition into the critical overall
// status and suppresses repeats while the fleet remains critical.
type Alarm struct {
	state    state
	prev     model.FleetStatus
	notifier Notifier
}

// New returns a quiescent alarm. notifier may be nil.
func New(notifier Notifier) *Alarm {
	return &Alarm{prev: model.FleetNoData, notifier: notifier}
}

// Observe feeds the next snapshot into the machine and reports whether the
// alarm fired on this transition. Side effects run fire-and-forget.
func (a *Alarm) Observe(snap model.FleetSnapshot) bool {
	entered := snap.Overall == model.FleetCritical && a.prev != model.FleetCritical
	left := snap.Overall != model.FleetCritical

	a.prev = snap.Overall

	if entered {
		a.state = alarmed
		if a.notifier != nil {
			go a.notifier.AlarmRaised(snap)
		}
		return true
	}
	if left && a.state == alarmed {
		a.state = quiescent
	}
	return false
}

// Acknowledge dismisses an active alarm without changing the underlying
// snapshot. While the fleet stays critical no new activation occurs until
// the next fresh critical entry.
func (a *Alarm) Acknowledge() {
	if a.state != alarmed {
		return
	}
	a.state = quiescent
	if a.notifier != nil {
		go a.notifier.AlarmDismissed()
	}
}

// Active reports whether the alarm is currently raised and unacknowledged.
func (a *Alarm) Active() bool { return a.state == alarmed }
