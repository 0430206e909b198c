package model

// Reading is the latest telemetry report from one sensor unit.
// Timestamp is milliseconds since epoch; 0 means the unit never reported one.
type Reading struct {
	Hum       float64 `json:"hum"`
	Temp      float64 `json:"temp"`
	Battery   int     `json:"battery"`
	Timestamp int64   `json:"timestamp"`
}

// Thresholds is the fleet-wide safety configuration. A single value is
// active at any time and is replaced wholesale on update.
type Thresholds struct {
	MaxHumidity    float64 `json:"max_humidity" yaml:"max_humidity"`
	MaxTemperature float64 `json:"max_temperature" yaml:"max_temperature"`
	MinBattery     int     `json:"min_battery" yaml:"min_battery"`
}

// DefaultThresholds is the built-in fallback used until the first
// authoritative configuration arrives.
func DefaultThresholds() Thresholds {
	return Thresholds{MaxHumidity: 60, MaxTemperature: 30, MinBattery: 20}
}

// ThresholdsPatch is a partially-populated remote thresholds object.
// Nil fields keep their current/default value on merge.
type ThresholdsPatch struct {
	MaxHumidity    *float64 `json:"max_humidity,omitempty" yaml:"max_humidity,omitempty"`
	MaxTemperature *float64 `json:"max_temperature,omitempty" yaml:"max_temperature,omitempty"`
	MinBattery     *int     `json:"min_battery,omitempty" yaml:"min_battery,omitempty"`
}

// MergeThresholds overlays a partial patch onto base so that no field is
// ever left undefined. Pure function, no shared state.
func MergeThresholds(base Thresholds, p ThresholdsPatch) Thresholds {
	out := base
	if p.MaxHumidity != nil {
		out.MaxHumidity = *p.MaxHumidity
	}
	if p.MaxTemperature != nil {
		out.MaxTemperature = *p.MaxTemperature
	}
	if p.MinBattery != nil {
		out.MinBattery = *p.MinBattery
	}
	return out
}

// UnitStatus is the derived health of a single unit. Never persisted;
// recomputed from a Reading, the Thresholds and the current time.
type UnitStatus string

const (
	UnitOptimal  UnitStatus = "optimal"
	UnitAtRisk   UnitStatus = "at_risk"
	UnitCritical UnitStatus = "critical"
	UnitOffline  UnitStatus = "offline"
)

// FleetStatus is the aggregated health of the whole fleet.
type FleetStatus string

const (
	FleetOptimal  FleetStatus = "optimal"
	FleetAtRisk   FleetStatus = "at_risk"
	FleetCritical FleetStatus = "critical"
	FleetNoData   FleetStatus = "no_data"
)

// UnitRecord enriches a Reading with derived per-unit state for display.
// LastSeenSec is nil when the reading carries no timestamp.
type UnitRecord struct {
	ID          string     `json:"id"`
	Hum         float64    `json:"hum"`
	Temp        float64    `json:"temp"`
	Battery     int        `json:"battery"`
	Timestamp   int64      `json:"timestamp"`
	Status      UnitStatus `json:"status"`
	Online      bool       `json:"online"`
	LastSeenSec *int64     `json:"last_seen_sec"`
}

// FleetSnapshot is a fully-recomputed, immutable aggregate view of fleet
// health at one point in time. It is rebuilt in full on every relevant
// input change, never patched.
type FleetSnapshot struct {
	Overall        FleetStatus           `json:"overall"`
	AvgTemperature float64               `json:"avg_temperature"`
	AvgHumidity    float64               `json:"avg_humidity"`
	TotalUnits     int                   `json:"total_units"`
	OnlineUnits    int                   `json:"online_units"`
	OfflineUnits   int                   `json:"offline_units"`
	AtRiskUnits    int                   `json:"at_risk_units"`
	CriticalUnits  int                   `json:"critical_units"`
	LowBattery     []string              `json:"low_battery"`
	Units          map[string]UnitRecord `json:"units"`
}
