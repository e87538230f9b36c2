package db

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hoslog/internal/logbook"
	"hoslog/internal/model"
)

// Store implements the logbook storage port on top of GORM/PostgreSQL.
// A Store handed to an InTransaction callback is scoped to that transaction;
// every lock it takes is released when the transaction ends.
type Store struct {
	db *gorm.DB
}

func NewStore(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

var _ logbook.Store = (*Store)(nil)

func (s *Store) DriverByUsername(ctx context.Context, username string) (*model.Driver, error) {
	// Limit(1).Find so "not found" doesn't log as error.
	var driver model.Driver
	if err := s.db.WithContext(ctx).Where("username = ?", username).Limit(1).Find(&driver).Error; err != nil {
		return nil, err
	}
	if driver.ID == 0 {
		return nil, nil
	}
	return &driver, nil
}

func (s *Store) InTransaction(ctx context.Context, fn func(tx logbook.Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx})
	})
}

// LockDailyLog gets or creates the (driver, date) log row with SELECT ...
// FOR UPDATE, so concurrent ingestions for the same driver/date serialize
// here. FOR UPDATE on an absent row locks nothing, so two first-ingests can
// both reach the create; it runs with ON CONFLICT DO NOTHING and the loser
// falls back to locking the winner's row. A plain insert would raise a
// constraint error and leave the whole transaction aborted on PostgreSQL.
func (s *Store) LockDailyLog(ctx context.Context, driverID uint, logDate time.Time) (*model.DailyLog, error) {
	var lg model.DailyLog
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("driver_id = ? AND log_date = ?", driverID, logDate).
		First(&lg).Error
	if err == nil {
		return &lg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	lg = model.DailyLog{DriverID: driverID, LogDate: logDate}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&lg)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return &lg, nil
	}

	lg = model.DailyLog{}
	err = s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("driver_id = ? AND log_date = ?", driverID, logDate).
		First(&lg).Error
	if err != nil {
		return nil, err
	}
	return &lg, nil
}

func (s *Store) HasEvent(ctx context.Context, clientEventID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.DutyEvent{}).
		Where("client_event_id = ?", clientEventID).
		Count(&count).Error
	return count > 0, err
}

// InsertEvent writes the event with ON CONFLICT DO NOTHING so an
// idempotency-key race never aborts the enclosing transaction; a no-op
// insert reports inserted == false.
func (s *Store) InsertEvent(ctx context.Context, ev *model.DutyEvent) (bool, error) {
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(ev)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (s *Store) EventsForLog(ctx context.Context, logID uint) ([]model.DutyEvent, error) {
	var events []model.DutyEvent
	err := s.db.WithContext(ctx).
		Where("log_id = ?", logID).
		Order("event_time ASC, id ASC").
		Find(&events).Error
	return events, err
}

func (s *Store) UpdateLog(ctx context.Context, lg *model.DailyLog) error {
	return s.db.WithContext(ctx).
		Model(&model.DailyLog{}).
		Where("id = ?", lg.ID).
		Updates(map[string]interface{}{
			"metadata":     lg.Metadata,
			"certified":    lg.Certified,
			"certified_at": lg.CertifiedAt,
			"certified_by": lg.CertifiedBy,
			"signature":    lg.Signature,
		}).Error
}

// ReplaceHourlySamples swaps the log's sample set wholesale. Delete-then-
// insert, not per-hour upsert, so hours no longer covered by any event
// never linger as stale rows.
func (s *Store) ReplaceHourlySamples(ctx context.Context, logID uint, samples []model.HourlySample) error {
	if err := s.db.WithContext(ctx).Where("log_id = ?", logID).Delete(&model.HourlySample{}).Error; err != nil {
		return err
	}
	if len(samples) == 0 {
		return nil
	}
	for i := range samples {
		samples[i].LogID = logID
	}
	return s.db.WithContext(ctx).Create(&samples).Error
}

func (s *Store) LogsSince(ctx context.Context, driverID uint, from time.Time) ([]model.DailyLog, error) {
	var logs []model.DailyLog
	err := s.db.WithContext(ctx).
		Where("driver_id = ? AND log_date >= ?", driverID, from).
		Order("log_date DESC").
		Preload("Events", func(db *gorm.DB) *gorm.DB {
			return db.Order("event_time ASC, id ASC")
		}).
		Preload("Samples", func(db *gorm.DB) *gorm.DB {
			return db.Order("hour ASC")
		}).
		Find(&logs).Error
	return logs, err
}
