package engine

import (
	"sync"
	"time"

	"fleetwatch/internal/alarm"
	"fleetwatch/internal/fleet"
	"fleetwatch/internal/model"
)

// SnapshotHandler receives every recomputed fleet snapshot.
type SnapshotHandler func(model.FleetSnapshot)

// UnitHandler receives one unit's record after every recomputation.
// present is false when the unit is no longer part of the fleet.
type UnitHandler func(rec model.UnitRecord, present bool)

// AlertsHandler receives the projected alert log on every alert update.
type AlertsHandler func([]model.AlertRecord)

// Engine multiplexes the store's three push streams into latest-value
// slots and recomputes the fleet snapshot on every readings or thresholds
// change. The alert stream is orthogonal: it refreshes the projected log
// but never triggers aggregation.
//
// All state mutation happens under one mutex, the Go rendition of a single
// logical event loop. Listener handlers run on the updating goroutine and
// must not block or re-enter the engine.
type Engine struct {
	// Now supplies the current time in epoch milliseconds. Swappable in
	// tests; defaults to the wall clock.
	Now func() int64

	mu         sync.Mutex
	readings   map[string]model.Reading
	thresholds model.Thresholds
	alerts     []model.AlertRecord
	snapshot   model.FleetSnapshot
	alarm      *alarm.Alarm

	nextID    int
	snapSubs  map[int]SnapshotHandler
	unitSubs  map[int]unitSub
	alertSubs map[int]AlertsHandler

	cancels []CancelFunc
	closed  bool
}

type unitSub struct {
	unitID  string
	handler UnitHandler
}

// New returns an engine with default thresholds and an empty fleet.
// notifier may be nil; it receives the alarm's best-effort side effects.
func New(notifier alarm.Notifier) *Engine {
	e := &Engine{
		Now:        func() int64 { return time.Now().UnixMilli() },
		readings:   map[string]model.Reading{},
		thresholds: model.DefaultThresholds(),
		alarm:      alarm.New(notifier),
		snapSubs:   map[int]SnapshotHandler{},
		unitSubs:   map[int]unitSub{},
		alertSubs:  map[int]AlertsHandler{},
	}
	e.snapshot = fleet.Aggregate(e.readings, e.thresholds, e.Now())
	return e
}

// Attach subscribes the engine to all three of the source's streams.
// The returned cancel handles are released by Close.
func (e *Engine) Attach(src Source) {
	c1 := src.SubscribeReadings(e.applyReadings)
	c2 := src.SubscribeThresholds(e.applyThresholds)
	c3 := src.SubscribeAlerts(e.applyAlerts)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancels = append(e.cancels, c1, c2, c3)
}

func (e *Engine) applyReadings(readings map[string]model.Reading) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.readings = make(map[string]model.Reading, len(readings))
	for id, r := range readings {
		e.readings[id] = r
	}
	e.recompute()
}

func (e *Engine) applyThresholds(patch model.ThresholdsPatch) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.thresholds = model.MergeThresholds(model.DefaultThresholds(), patch)
	e.recompute()
}

func (e *Engine) applyAlerts(alerts []model.AlertRecord) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.alerts = append([]model.AlertRecord(nil), alerts...)
	for _, h := range e.alertSubs {
		h(append([]model.AlertRecord(nil), e.alerts...))
	}
}

// recompute rebuilds the snapshot from the current slots, feeds the alarm
// and fans it out. Caller holds the mutex.
func (e *Engine) recompute() {
	e.snapshot = fleet.Aggregate(e.readings, e.thresholds, e.Now())
	e.alarm.Observe(e.snapshot)

	for _, h := range e.snapSubs {
		h(e.snapshot)
	}
	for _, s := range e.unitSubs {
		rec, ok := e.snapshot.Units[s.unitID]
		s.handler(rec, ok)
	}
}

// SubscribeSnapshots registers a listener for every recomputed snapshot.
// The current snapshot is delivered immediately.
func (e *Engine) SubscribeSnapshots(h SnapshotHandler) CancelFunc {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.snapSubs[id] = h
	h(e.snapshot)
	e.mu.Unlock()

	return sync.OnceFunc(func() {
		e.mu.Lock()
		delete(e.snapSubs, id)
		e.mu.Unlock()
	})
}

// SubscribeUnit registers a listener for a single unit's record. Multiple
// overlapping subscriptions may exist; each handle is independently
// revocable.
func (e *Engine) SubscribeUnit(unitID string, h UnitHandler) CancelFunc {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.unitSubs[id] = unitSub{unitID: unitID, handler: h}
	rec, ok := e.snapshot.Units[unitID]
	h(rec, ok)
	e.mu.Unlock()

	return sync.OnceFunc(func() {
		e.mu.Lock()
		delete(e.unitSubs, id)
		e.mu.Unlock()
	})
}

// SubscribeAlerts registers a listener for the projected alert log.
// The current log is delivered immediately.
func (e *Engine) SubscribeAlerts(h AlertsHandler) CancelFunc {
	e.mu.Lock()
	id := e.nextID
	e.nextID++
	e.alertSubs[id] = h
	h(append([]model.AlertRecord(nil), e.alerts...))
	e.mu.Unlock()

	return sync.OnceFunc(func() {
		e.mu.Lock()
		delete(e.alertSubs, id)
		e.mu.Unlock()
	})
}

// Snapshot returns the most recent fleet snapshot.
func (e *Engine) Snapshot() model.FleetSnapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot
}

// Alerts returns a copy of the projected alert log, newest first.
func (e *Engine) Alerts() []model.AlertRecord {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]model.AlertRecord(nil), e.alerts...)
}

// Thresholds returns the active configuration, defaults included.
func (e *Engine) Thresholds() model.Thresholds {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.thresholds
}

// Acknowledge dismisses an active alarm.
func (e *Engine) Acknowledge() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.alarm.Acknowledge()
}

// AlarmActive reports whether the alarm is raised and unacknowledged.
func (e *Engine) AlarmActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.alarm.Active()
}

// Close cancels the upstream subscriptions and drops all listeners.
// Idempotent; later pushes from a lingering source are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	cancels := e.cancels
	e.cancels = nil
	e.snapSubs = map[int]SnapshotHandler{}
	e.unitSubs = map[int]unitSub{}
	e.alertSubs = map[int]AlertsHandler{}
	e.mu.Unlock()

	for _, c := range cancels {
		c()
	}
}
