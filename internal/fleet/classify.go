package fleet

import "fleetwatch/internal/model"

// staleAfterMs is the silence timeout after which a unit's data is
// considered stale. Fixed policy constant, not part of Thresholds.
const staleAfterMs = 120_000

// criticalMargin is the overshoot factor above a ceiling that escalates
// a breach from at-risk to critical.
const criticalMargin = 1.1

// Stale reports whether a last-seen timestamp is too old at nowMs.
// A missing timestamp (<= 0) is always stale.
func Stale(lastSeenMs, nowMs int64) bool {
	if lastSeenMs <= 0 {
		return true
	}
	return nowMs-lastSeenMs > staleAfterMs
}

// Classify maps one unit's latest reading plus the active thresholds to a
// status. Staleness takes precedence over every other check. Battery level
// never influences the result; it only feeds the separate low-battery list.
func Classify(r *model.Reading, th model.Thresholds, nowMs int64) model.UnitStatus {
	if r == nil || Stale(r.Timestamp, nowMs) {
		return model.UnitOffline
	}
	humRisk := r.Hum > th.MaxHumidity
	tempRisk := r.Temp > th.MaxTemperature
	humCritical := r.Hum > th.MaxHumidity*criticalMargin
	tempCritical := r.Temp > th.MaxTemperature*criticalMargin
	switch {
	case humCritical || tempCritical:
		return model.UnitCritical
	case humRisk || tempRisk:
		return model.UnitAtRisk
	default:
		return model.UnitOptimal
	}
}
