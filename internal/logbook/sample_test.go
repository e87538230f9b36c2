package logbook

import (
	"reflect"
	"testing"
	"time"

	"hoslog/internal/model"
)

var day = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func at(hour, min int) time.Time {
	return day.Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
}

func ev(id uint, key, status string, t time.Time) model.DutyEvent {
	return model.DutyEvent{ID: id, ClientEventID: key, Status: status, EventTime: t}
}

func TestBuildHourlySamplesFullDay(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusOffDuty, at(0, 0)),
		ev(2, "e2", model.StatusDriving, at(8, 0)),
		ev(3, "e3", model.StatusOnDuty, at(12, 0)),
	}

	samples := BuildHourlySamples(events, day)
	if len(samples) != 24 {
		t.Fatalf("expected 24 samples, got %d", len(samples))
	}

	for _, s := range samples {
		want := model.StatusOnDuty
		switch {
		case s.Hour <= 7:
			want = model.StatusOffDuty
		case s.Hour <= 11:
			want = model.StatusDriving
		}
		if s.Status != want {
			t.Errorf("hour %d: status = %s, want %s", s.Hour, s.Status, want)
		}
	}
}

func TestBuildHourlySamplesOrderIndependence(t *testing.T) {
	ordered := []model.DutyEvent{
		ev(1, "e1", model.StatusOffDuty, at(0, 0)),
		ev(2, "e2", model.StatusDriving, at(8, 0)),
		ev(3, "e3", model.StatusOnDuty, at(12, 0)),
	}
	shuffled := []model.DutyEvent{ordered[2], ordered[0], ordered[1]}

	a := BuildHourlySamples(ordered, day)
	b := BuildHourlySamples(shuffled, day)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("samples differ by input order:\n%v\n%v", a, b)
	}
}

func TestBuildHourlySamplesHourBounds(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusSleeper, at(3, 30)),
		ev(2, "e2", model.StatusDriving, at(6, 45)),
		ev(3, "e3", model.StatusOffDuty, at(21, 10)),
	}

	dayEnd := day.Add(24 * time.Hour)
	for _, s := range BuildHourlySamples(events, day) {
		slotStart := day.Add(time.Duration(s.Hour) * time.Hour)
		slotEnd := slotStart.Add(time.Hour)
		if s.StartTime.Before(slotStart) || s.EndTime.After(slotEnd) {
			t.Errorf("hour %d: interval [%v, %v) outside slot", s.Hour, s.StartTime, s.EndTime)
		}
		if s.StartTime.Before(day) || s.EndTime.After(dayEnd) {
			t.Errorf("hour %d: interval outside day bounds", s.Hour)
		}
		if !s.EndTime.After(s.StartTime) {
			t.Errorf("hour %d: non-positive interval", s.Hour)
		}
	}
}

func TestBuildHourlySamplesPrecedenceWithinHour(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusOffDuty, at(9, 0)),
		ev(2, "e2", model.StatusDriving, at(9, 10)),
		ev(3, "e3", model.StatusOffDuty, at(9, 40)),
	}

	samples := BuildHourlySamples(events, day)

	var hour9 *model.HourlySample
	for i := range samples {
		if samples[i].Hour == 9 {
			hour9 = &samples[i]
		}
	}
	if hour9 == nil {
		t.Fatal("no sample for hour 9")
	}
	if hour9.Status != model.StatusDriving {
		t.Fatalf("hour 9 status = %s, want DRIVING", hour9.Status)
	}
	if hour9.EventID != 2 {
		t.Fatalf("hour 9 source event = %d, want 2", hour9.EventID)
	}
}

func TestBuildHourlySamplesTieKeepsFirstSeen(t *testing.T) {
	// OFF_DUTY and SLEEPER share the lowest precedence; the earlier
	// candidate keeps the slot.
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusOffDuty, at(5, 0)),
		ev(2, "e2", model.StatusSleeper, at(5, 30)),
		ev(3, "e3", model.StatusOnDuty, at(6, 0)),
	}

	for _, s := range BuildHourlySamples(events, day) {
		if s.Hour == 5 && s.Status != model.StatusOffDuty {
			t.Fatalf("hour 5 status = %s, want OFF_DUTY (first seen)", s.Status)
		}
	}
}

func TestBuildHourlySamplesClipsToDay(t *testing.T) {
	// Event from the previous evening carries into the log day and is
	// clipped to the day's start.
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusSleeper, day.Add(-2*time.Hour)),
		ev(2, "e2", model.StatusOnDuty, at(4, 0)),
	}

	samples := BuildHourlySamples(events, day)
	if len(samples) != 24 {
		t.Fatalf("expected 24 samples, got %d", len(samples))
	}
	if samples[0].Hour != 0 || !samples[0].StartTime.Equal(day) {
		t.Fatalf("hour 0 not clipped to day start: %+v", samples[0])
	}
	if samples[0].Status != model.StatusSleeper {
		t.Fatalf("hour 0 status = %s, want SLEEPER", samples[0].Status)
	}
}

func TestBuildHourlySamplesEmpty(t *testing.T) {
	if got := BuildHourlySamples(nil, day); got != nil {
		t.Fatalf("expected nil for empty events, got %v", got)
	}
}

func TestBuildHourlySamplesLastEventRunsToDayEnd(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusDriving, at(23, 15)),
	}

	samples := BuildHourlySamples(events, day)
	if len(samples) != 1 {
		t.Fatalf("expected 1 sample, got %d", len(samples))
	}
	s := samples[0]
	if s.Hour != 23 || !s.EndTime.Equal(day.Add(24*time.Hour)) {
		t.Fatalf("last sample = %+v, want hour 23 ending at day end", s)
	}
}
