package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"fleetwatch/internal/model"
)

// Store is the durable side of the remote data store: latest reading per
// unit, the single active thresholds row and the append-only alert log.
type Store struct {
	orm *gorm.DB
}

// Open opens the SQLite database using GORM and runs migrations.
func Open(path string) (*Store, error) {
	g, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	if err := g.AutoMigrate(&model.ReadingRow{}, &model.ThresholdsRow{}, &model.AlertRow{}); err != nil {
		sqlDB, dberr := g.DB()
		if dberr == nil {
			_ = sqlDB.Close()
		}
		return nil, err
	}
	return &Store{orm: g}, nil
}

// Close closes the underlying SQL connection.
func (s *Store) Close() error {
	sqlDB, err := s.orm.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// PutReading upserts the latest reading for a unit, last-write-wins.
func (s *Store) PutReading(ctx context.Context, unitID string, r model.Reading) error {
	row := model.ReadingRow{
		UnitID:    unitID,
		Hum:       r.Hum,
		Temp:      r.Temp,
		Battery:   r.Battery,
		Timestamp: r.Timestamp,
	}
	return s.orm.WithContext(ctx).Save(&row).Error
}

// LatestReadings returns the latest reading per unit.
func (s *Store) LatestReadings(ctx context.Context) (map[string]model.Reading, error) {
	var rows []model.ReadingRow
	if err := s.orm.WithContext(ctx).Order("unit_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]model.Reading, len(rows))
	for _, row := range rows {
		out[row.UnitID] = model.Reading{
			Hum:       row.Hum,
			Temp:      row.Temp,
			Battery:   row.Battery,
			Timestamp: row.Timestamp,
		}
	}
	return out, nil
}

// SaveThresholds replaces the active configuration wholesale.
func (s *Store) SaveThresholds(ctx context.Context, th model.Thresholds) error {
	row := model.ThresholdsRow{
		ID:             1,
		MaxHumidity:    th.MaxHumidity,
		MaxTemperature: th.MaxTemperature,
		MinBattery:     th.MinBattery,
	}
	return s.orm.WithContext(ctx).Save(&row).Error
}

// Thresholds returns the active configuration, falling back to the
// built-in defaults until an authoritative value has been saved.
func (s *Store) Thresholds(ctx context.Context) (model.Thresholds, error) {
	var row model.ThresholdsRow
	err := s.orm.WithContext(ctx).First(&row, 1).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.DefaultThresholds(), nil
	}
	if err != nil {
		return model.Thresholds{}, err
	}
	return model.Thresholds{
		MaxHumidity:    row.MaxHumidity,
		MaxTemperature: row.MaxTemperature,
		MinBattery:     row.MinBattery,
	}, nil
}

// HasThresholds reports whether an authoritative configuration has been
// saved, as opposed to the defaults fallback.
func (s *Store) HasThresholds(ctx context.Context) (bool, error) {
	var count int64
	if err := s.orm.WithContext(ctx).Model(&model.ThresholdsRow{}).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AppendAlert assigns an identifier and appends one log entry. Entries are
// never updated or deleted.
func (s *Store) AppendAlert(ctx context.Context, ev model.AlertEvent) (model.AlertRecord, error) {
	rec := model.AlertRecord{
		ID:        uuid.NewString(),
		UnitID:    ev.UnitID,
		Kind:      ev.Kind,
		Value:     ev.Value,
		Threshold: ev.Threshold,
		Message:   ev.Message,
		Timestamp: ev.Timestamp,
	}
	row := model.AlertRow{
		ID:        rec.ID,
		UnitID:    rec.UnitID,
		Kind:      string(rec.Kind),
		Value:     rec.Value,
		Threshold: rec.Threshold,
		Message:   rec.Message,
		Timestamp: rec.Timestamp,
	}
	if err := s.orm.WithContext(ctx).Create(&row).Error; err != nil {
		return model.AlertRecord{}, err
	}
	return rec, nil
}

// ListAlerts returns the full log, newest first.
func (s *Store) ListAlerts(ctx context.Context) ([]model.AlertRecord, error) {
	var rows []model.AlertRow
	if err := s.orm.WithContext(ctx).Order("timestamp DESC, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]model.AlertRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, model.AlertRecord{
			ID:        row.ID,
			UnitID:    row.UnitID,
			Kind:      model.AlertKind(row.Kind),
			Value:     row.Value,
			Threshold: row.Threshold,
			Message:   row.Message,
			Timestamp: row.Timestamp,
		})
	}
	return out, nil
}
