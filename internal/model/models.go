package model

import (
	"time"

	"gorm.io/datatypes"
)

// Duty statuses as recorded by the driver's ELD client. These are the only
// values accepted on ingestion and the only values stored.
const (
	StatusOffDuty = "OFF_DUTY"
	StatusSleeper = "SLEEPER"
	StatusDriving = "DRIVING"
	StatusOnDuty  = "ON_DUTY"
)

// ValidStatus reports whether s is one of the four duty statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusOffDuty, StatusSleeper, StatusDriving, StatusOnDuty:
		return true
	}
	return false
}

// Driver is the minimal driver record needed to resolve usernames on the
// logbook endpoints. Company/vehicle/terminal management lives elsewhere;
// everything here references drivers by ID only.
type Driver struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Username     string `gorm:"uniqueIndex;size:64;not null"`
	PasswordHash string `gorm:"size:255;not null"`

	FirstName string `gorm:"size:64"`
	LastName  string `gorm:"size:64"`

	Status string `gorm:"size:16;default:active"`
}

// DailyLog is the canonical per-driver, per-calendar-date HOS record.
// Exactly one row exists per (driver, date); the row is created on the first
// ingested event, first metadata submission, or first certification for that
// date, whichever comes first.
type DailyLog struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time
	UpdatedAt time.Time

	DriverID uint `gorm:"uniqueIndex:idx_daily_log_driver_date,priority:1;not null"`

	// LogDate is the calendar date (UTC midnight) this log covers.
	LogDate time.Time `gorm:"type:date;uniqueIndex:idx_daily_log_driver_date,priority:2;not null"`

	// Metadata holds the per-day form fields submitted by the client
	// (trailer numbers, shipping docs, remarks). Merged shallowly by
	// top-level key on each submission.
	Metadata datatypes.JSONMap `gorm:"type:jsonb"`

	Certified   bool `gorm:"default:false"`
	CertifiedAt *time.Time
	CertifiedBy string `gorm:"size:128"`

	// Signature is the opaque sign-off artifact captured by the client.
	Signature []byte

	Events  []DutyEvent    `gorm:"foreignKey:LogID"`
	Samples []HourlySample `gorm:"foreignKey:LogID"`
}

// DutyEvent is one duty-status change reported by the client device.
// Rows are append-only: once written they are never updated or deleted,
// since they form the compliance record of the day.
type DutyEvent struct {
	ID uint `gorm:"primaryKey"`

	CreatedAt time.Time

	LogID uint `gorm:"index;not null"`

	Status    string    `gorm:"size:16;not null"`
	EventTime time.Time `gorm:"not null"`

	Location    *string `gorm:"size:255"`
	Odometer    *float64
	EngineHours *float64

	// EldIdentifier names the device (and thereby the vehicle) that
	// produced the event.
	EldIdentifier string `gorm:"size:128"`

	// ClientEventID is the caller-supplied idempotency key. Globally
	// unique: resubmitting an event with the same key is a no-op.
	ClientEventID string `gorm:"uniqueIndex;size:128;not null"`
}

// HourlySample is one slot of the derived 24-hour occupancy grid for a log.
// The set is a disposable cache: it is fully recomputed from the log's
// events after every ingestion and replaced wholesale.
type HourlySample struct {
	ID uint `gorm:"primaryKey"`

	LogID uint `gorm:"uniqueIndex:idx_hourly_sample_log_hour,priority:1;not null"`
	Hour  int  `gorm:"uniqueIndex:idx_hourly_sample_log_hour,priority:2;not null"`

	// StartTime/EndTime are the covering event's interval clipped to this
	// hour slot. EndTime is exclusive.
	StartTime time.Time `gorm:"not null"`
	EndTime   time.Time `gorm:"not null"`

	Status string `gorm:"size:16;not null"`

	// EventID references the duty event whose status won this slot.
	EventID uint

	// Carried forward from the source event for display.
	Location    *string `gorm:"size:255"`
	Odometer    *float64
	EngineHours *float64
}
