package logbook

import (
	"context"
	"log"
	"time"

	"gorm.io/datatypes"

	"hoslog/internal/model"
)

// Certified-log ingest policies. The reference behavior treats certification
// as a snapshot and keeps accepting events for a certified day; "reject"
// turns such ingestions into a hard error instead.
const (
	CertifiedLogAllow  = "allow"
	CertifiedLogReject = "reject"
)

// Store is the storage port the logbook service runs against. The gorm
// implementation lives in internal/db; tests use an in-memory fake.
// Methods called inside the InTransaction callback operate on the
// transaction-scoped store passed to the callback.
type Store interface {
	// DriverByUsername returns (nil, nil) when the username is unknown.
	DriverByUsername(ctx context.Context, username string) (*model.Driver, error)

	// InTransaction runs fn inside one atomic unit of work. Any error
	// from fn rolls back everything fn did.
	InTransaction(ctx context.Context, fn func(tx Store) error) error

	// LockDailyLog returns the (driver, date) log row under an exclusive
	// lock, creating it first if absent. Serializes all writers for that
	// driver/date unit.
	LockDailyLog(ctx context.Context, driverID uint, logDate time.Time) (*model.DailyLog, error)

	// HasEvent reports whether an event with this client event ID exists.
	HasEvent(ctx context.Context, clientEventID string) (bool, error)

	// InsertEvent appends one immutable duty event unless a row with the
	// same client event ID already exists. A concurrent writer racing past
	// the HasEvent pre-check is reported as inserted == false, not as an
	// error, so the surrounding unit of work stays usable.
	InsertEvent(ctx context.Context, ev *model.DutyEvent) (inserted bool, err error)

	// EventsForLog returns the log's events ordered ascending by time.
	EventsForLog(ctx context.Context, logID uint) ([]model.DutyEvent, error)

	// UpdateLog persists changed metadata/certification fields of a log.
	UpdateLog(ctx context.Context, lg *model.DailyLog) error

	// ReplaceHourlySamples swaps the log's entire sample set for the given
	// one. An empty set deletes all samples.
	ReplaceHourlySamples(ctx context.Context, logID uint, samples []model.HourlySample) error

	// LogsSince returns the driver's logs with LogDate >= from, most
	// recent date first, with events (time ascending) and samples (hour
	// ascending) attached.
	LogsSince(ctx context.Context, driverID uint, from time.Time) ([]model.DailyLog, error)
}

// Service implements the logbook operations: event ingestion, per-day
// metadata, certification, and the day-view query.
type Service struct {
	store Store

	// certifiedLogPolicy is CertifiedLogAllow or CertifiedLogReject.
	certifiedLogPolicy string
}

func NewService(store Store, certifiedLogPolicy string) *Service {
	if certifiedLogPolicy == "" {
		certifiedLogPolicy = CertifiedLogAllow
	}
	return &Service{store: store, certifiedLogPolicy: certifiedLogPolicy}
}

// EventInput is one duty-status change as submitted by the client.
type EventInput struct {
	ClientEventID string     `json:"clientEventId"`
	Status        string     `json:"status"`
	Time          *time.Time `json:"time"`
	LogDate       string     `json:"logDate,omitempty"`
	Location      *string    `json:"location,omitempty"`
	Odometer      *float64   `json:"odometer,omitempty"`
	EngineHours   *float64   `json:"engineHours,omitempty"`
	EldIdentifier string     `json:"eldIdentifier,omitempty"`
}

// IngestResult reports the outcome of one sync batch. SavedClientEventIDs
// lists every event the caller may consider durable, including resubmissions
// of already-stored events.
type IngestResult struct {
	SavedClientEventIDs []string
	Inserted            int
	Duplicates          int
	Dropped             int
}

const dateLayout = "2006-01-02"

// eventDate picks the calendar date (UTC midnight) an event belongs to:
// the explicit logDate when given, else the UTC date of the event time.
func eventDate(in EventInput) (time.Time, error) {
	if in.LogDate != "" {
		return time.ParseInLocation(dateLayout, in.LogDate, time.UTC)
	}
	y, m, d := in.Time.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
}

// Ingest validates and stores a batch of duty events for a driver, grouped
// by calendar date, then recomputes each touched log's hourly samples. The
// whole batch runs in one transaction: a failure in any date group rolls
// back every group. Items missing time, status, or a client event ID are
// dropped individually without failing the batch; a client that omits the
// idempotency key gets no generated fallback, since a random key would
// defeat retry safety.
func (s *Service) Ingest(ctx context.Context, driverUsername string, items []EventInput) (IngestResult, error) {
	var res IngestResult

	driver, err := s.store.DriverByUsername(ctx, driverUsername)
	if err != nil {
		return res, err
	}
	if driver == nil {
		return res, ErrDriverNotFound
	}

	type dateGroup struct {
		date  time.Time
		items []EventInput
	}
	var groups []dateGroup
	index := make(map[time.Time]int)

	for _, it := range items {
		if it.Time == nil || !model.ValidStatus(it.Status) || it.ClientEventID == "" {
			log.Printf("ingest: dropping malformed event for %s (clientEventId=%q status=%q hasTime=%t)",
				driverUsername, it.ClientEventID, it.Status, it.Time != nil)
			res.Dropped++
			continue
		}
		date, err := eventDate(it)
		if err != nil {
			log.Printf("ingest: dropping event %s for %s: bad logDate %q", it.ClientEventID, driverUsername, it.LogDate)
			res.Dropped++
			continue
		}
		i, ok := index[date]
		if !ok {
			i = len(groups)
			index[date] = i
			groups = append(groups, dateGroup{date: date})
		}
		groups[i].items = append(groups[i].items, it)
	}

	err = s.store.InTransaction(ctx, func(tx Store) error {
		for _, g := range groups {
			lg, err := tx.LockDailyLog(ctx, driver.ID, g.date)
			if err != nil {
				return err
			}
			if lg.Certified && s.certifiedLogPolicy == CertifiedLogReject {
				return ErrLogCertified
			}

			for _, it := range g.items {
				exists, err := tx.HasEvent(ctx, it.ClientEventID)
				if err != nil {
					return err
				}
				if exists {
					res.SavedClientEventIDs = append(res.SavedClientEventIDs, it.ClientEventID)
					res.Duplicates++
					continue
				}

				ev := &model.DutyEvent{
					LogID:         lg.ID,
					Status:        it.Status,
					EventTime:     it.Time.UTC(),
					Location:      it.Location,
					Odometer:      it.Odometer,
					EngineHours:   it.EngineHours,
					EldIdentifier: it.EldIdentifier,
					ClientEventID: it.ClientEventID,
				}
				inserted, err := tx.InsertEvent(ctx, ev)
				if err != nil {
					return err
				}
				res.SavedClientEventIDs = append(res.SavedClientEventIDs, it.ClientEventID)
				if inserted {
					res.Inserted++
				} else {
					// Lost the race against a concurrent writer; the
					// row exists, which is all the caller needs.
					res.Duplicates++
				}
			}

			events, err := tx.EventsForLog(ctx, lg.ID)
			if err != nil {
				return err
			}
			if err := tx.ReplaceHourlySamples(ctx, lg.ID, BuildHourlySamples(events, g.date)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return IngestResult{Dropped: res.Dropped}, err
	}
	return res, nil
}

// SubmitMetadata merges the submitted form fields into the day's log
// metadata by shallow top-level key replacement, creating the log row if
// this is the day's first submission.
func (s *Service) SubmitMetadata(ctx context.Context, driverUsername string, logDate time.Time, form map[string]any) error {
	driver, err := s.store.DriverByUsername(ctx, driverUsername)
	if err != nil {
		return err
	}
	if driver == nil {
		return ErrDriverNotFound
	}

	return s.store.InTransaction(ctx, func(tx Store) error {
		lg, err := tx.LockDailyLog(ctx, driver.ID, logDate)
		if err != nil {
			return err
		}
		if lg.Metadata == nil {
			lg.Metadata = datatypes.JSONMap{}
		}
		for k, v := range form {
			lg.Metadata[k] = v
		}
		return tx.UpdateLog(ctx, lg)
	})
}

// Certify marks the day's log as certified with the given signature and
// certifier, creating the log row directly certified when absent. Repeat
// calls overwrite the previous certification; the latest call wins and no
// history is kept.
func (s *Service) Certify(ctx context.Context, driverUsername string, logDate time.Time, signature []byte, certifierName string) error {
	if len(signature) == 0 {
		return ErrSignatureRequired
	}

	driver, err := s.store.DriverByUsername(ctx, driverUsername)
	if err != nil {
		return err
	}
	if driver == nil {
		return ErrDriverNotFound
	}

	return s.store.InTransaction(ctx, func(tx Store) error {
		lg, err := tx.LockDailyLog(ctx, driver.ID, logDate)
		if err != nil {
			return err
		}
		now := time.Now().UTC()
		lg.Certified = true
		lg.CertifiedAt = &now
		lg.CertifiedBy = certifierName
		lg.Signature = signature
		return tx.UpdateLog(ctx, lg)
	})
}

// EventView is one stored duty event in a day view.
type EventView struct {
	ID            uint     `json:"id"`
	Status        string   `json:"status"`
	Time          string   `json:"time"`
	Location      *string  `json:"location"`
	Odometer      *float64 `json:"odometer"`
	EngineHours   *float64 `json:"engineHours"`
	EldIdentifier string   `json:"eldIdentifier,omitempty"`
	ClientEventID string   `json:"clientEventId"`
}

// SampleView is one hour slot of the derived occupancy grid in a day view.
type SampleView struct {
	Hour        int      `json:"hour"`
	Start       string   `json:"start"`
	End         string   `json:"end"`
	Status      string   `json:"status"`
	EventID     uint     `json:"eventId"`
	Location    *string  `json:"location"`
	Odometer    *float64 `json:"odometer"`
	EngineHours *float64 `json:"engineHours"`
}

// DayView bundles everything known about one day's log: metadata,
// certification state, the full event list, the hourly grid, and the
// summary recomputed from the events at read time.
type DayView struct {
	Date        string            `json:"date"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	Certified   bool              `json:"certified"`
	CertifiedAt *time.Time        `json:"certifiedAt"`
	CertifiedBy string            `json:"certifiedBy,omitempty"`
	Signature   []byte            `json:"signature,omitempty"`
	Events      []EventView       `json:"events"`
	Hourly      []SampleView      `json:"hourlySamples"`
	Summary     Summary           `json:"summary"`
}

// Logs returns the driver's day views for the window
// [today-(days-1), today], most recent date first. An unknown driver or a
// driver with no logs in the window yields an empty list.
func (s *Service) Logs(ctx context.Context, driverUsername string, days int) ([]DayView, error) {
	if days < 1 {
		days = 1
	}

	views := []DayView{}

	driver, err := s.store.DriverByUsername(ctx, driverUsername)
	if err != nil {
		return nil, err
	}
	if driver == nil {
		return views, nil
	}

	y, m, d := time.Now().UTC().Date()
	today := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	from := today.AddDate(0, 0, -(days - 1))

	logs, err := s.store.LogsSince(ctx, driver.ID, from)
	if err != nil {
		return nil, err
	}

	for _, lg := range logs {
		view := DayView{
			Date:        lg.LogDate.UTC().Format(dateLayout),
			Metadata:    lg.Metadata,
			Certified:   lg.Certified,
			CertifiedAt: lg.CertifiedAt,
			CertifiedBy: lg.CertifiedBy,
			Signature:   lg.Signature,
			Events:      []EventView{},
			Hourly:      []SampleView{},
			Summary:     Summarize(lg.Events),
		}
		if view.Metadata == nil {
			view.Metadata = datatypes.JSONMap{}
		}
		for _, ev := range lg.Events {
			view.Events = append(view.Events, EventView{
				ID:            ev.ID,
				Status:        ev.Status,
				Time:          ev.EventTime.UTC().Format(time.RFC3339),
				Location:      ev.Location,
				Odometer:      ev.Odometer,
				EngineHours:   ev.EngineHours,
				EldIdentifier: ev.EldIdentifier,
				ClientEventID: ev.ClientEventID,
			})
		}
		for _, sm := range lg.Samples {
			view.Hourly = append(view.Hourly, SampleView{
				Hour:        sm.Hour,
				Start:       sm.StartTime.UTC().Format(time.RFC3339),
				End:         sm.EndTime.UTC().Format(time.RFC3339),
				Status:      sm.Status,
				EventID:     sm.EventID,
				Location:    sm.Location,
				Odometer:    sm.Odometer,
				EngineHours: sm.EngineHours,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// ParseLogDate parses a YYYY-MM-DD date as UTC midnight.
func ParseLogDate(s string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, s, time.UTC)
}
