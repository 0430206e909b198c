package model

// ReadingRow persists the latest reading per unit, last-write-wins.
type ReadingRow struct {
	UnitID    string  `gorm:"column:unit_id;primaryKey"`
	Hum       float64 `gorm:"column:hum"`
	Temp      float64 `gorm:"column:temp"`
	Battery   int     `gorm:"column:battery"`
	Timestamp int64   `gorm:"column:timestamp"`
}

func (ReadingRow) TableName() string { return "readings" }

// ThresholdsRow persists the single active thresholds configuration.
// Exactly one row with ID 1 exists once a configuration has been saved.
type ThresholdsRow struct {
	ID             int     `gorm:"column:id;primaryKey"`
	MaxHumidity    float64 `gorm:"column:max_humidity"`
	MaxTemperature float64 `gorm:"column:max_temperature"`
	MinBattery     int     `gorm:"column:min_battery"`
}

func (ThresholdsRow) TableName() string { return "thresholds" }

// AlertRow persists one append-only alert log entry.
type AlertRow struct {
	ID        string  `gorm:"column:id;primaryKey"`
	UnitID    string  `gorm:"column:unit_id;index"`
	Kind      string  `gorm:"column:kind"`
	Value     float64 `gorm:"column:value"`
	Threshold float64 `gorm:"column:threshold"`
	Message   string  `gorm:"column:message"`
	Timestamp int64   `gorm:"column:timestamp;index"`
}

func (AlertRow) TableName() string { return "alerts" }
