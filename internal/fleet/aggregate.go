package fleet

import (
	"math"
	"sort"

	"fleetwatch/internal/model"
)

// Aggregate folds every unit's latest reading into a fleet-wide snapshot.
// It is total over its input domain: missing or malformed data degrades to
// offline/no-data, never an error.
func Aggregate(readings map[string]model.Reading, th model.Thresholds, nowMs int64) model.FleetSnapshot {
	snap := model.FleetSnapshot{
		Overall:    model.FleetNoData,
		LowBattery: []string{},
		Units:      map[string]model.UnitRecord{},
	}
	if len(readings) == 0 {
		return snap
	}

	var sumTemp, sumHum float64
	for id, r := range readings {
		r := r
		status := Classify(&r, th, nowMs)
		online := status != model.UnitOffline

		rec := model.UnitRecord{
			ID:        id,
			Hum:       r.Hum,
			Temp:      r.Temp,
			Battery:   r.Battery,
			Timestamp: r.Timestamp,
			Status:    status,
			Online:    online,
		}
		if r.Timestamp > 0 {
			secs := (nowMs - r.Timestamp) / 1000
			rec.LastSeenSec = &secs
		}
		snap.Units[id] = rec

		snap.TotalUnits++
		if online {
			snap.OnlineUnits++
			sumTemp += r.Temp
			sumHum += r.Hum
			if r.Battery < th.MinBattery {
				snap.LowBattery = append(snap.LowBattery, id)
			}
		} else {
			snap.OfflineUnits++
		}
		switch status {
		case model.UnitAtRisk:
			snap.AtRiskUnits++
		case model.UnitCritical:
			snap.CriticalUnits++
		}
	}

	sort.Strings(snap.LowBattery)

	if snap.OnlineUnits > 0 {
		snap.AvgTemperature = round1(sumTemp / float64(snap.OnlineUnits))
		snap.AvgHumidity = round1(sumHum / float64(snap.OnlineUnits))
	}

	switch {
	case snap.CriticalUnits > 0:
		snap.Overall = model.FleetCritical
	case snap.AtRiskUnits > 0:
		snap.Overall = model.FleetAtRisk
	case snap.OnlineUnits == 0:
		snap.Overall = model.FleetNoData
	default:
		snap.Overall = model.FleetOptimal
	}
	return snap
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
