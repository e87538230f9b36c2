package logbook

import (
	"testing"
	"time"

	"hoslog/internal/model"
)

func TestSummarizeSingleGap(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusDriving, at(0, 0)),
		ev(2, "e2", model.StatusOnDuty, at(2, 0)),
	}

	s := Summarize(events)
	if s.Drive != 2.00 {
		t.Errorf("drive = %.2f, want 2.00", s.Drive)
	}
	// The trailing ON_DUTY interval to end of day is deliberately uncounted.
	if s.Shift != 0.00 {
		t.Errorf("shift = %.2f, want 0.00", s.Shift)
	}
	if s.LastStatus != model.StatusDriving {
		t.Errorf("lastStatus = %s, want DRIVING", s.LastStatus)
	}
}

func TestSummarizeFullDay(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusOffDuty, at(0, 0)),
		ev(2, "e2", model.StatusDriving, at(8, 0)),
		ev(3, "e3", model.StatusOnDuty, at(12, 0)),
	}

	s := Summarize(events)
	if s.Break != 8.00 {
		t.Errorf("break = %.2f, want 8.00", s.Break)
	}
	if s.Drive != 4.00 {
		t.Errorf("drive = %.2f, want 4.00", s.Drive)
	}
	if s.Shift != 0.00 {
		t.Errorf("shift = %.2f, want 0.00", s.Shift)
	}
	if s.Cycle != CycleHoursPlaceholder {
		t.Errorf("cycle = %.2f, want %d", s.Cycle, CycleHoursPlaceholder)
	}
}

func TestSummarizeEmptyAndSingle(t *testing.T) {
	s := Summarize(nil)
	if s.Drive != 0 || s.Break != 0 || s.Shift != 0 {
		t.Errorf("empty summary has nonzero buckets: %+v", s)
	}
	if s.LastStatus != model.StatusOffDuty {
		t.Errorf("empty lastStatus = %s, want OFF_DUTY", s.LastStatus)
	}
	if s.Vehicle != nil {
		t.Errorf("empty vehicle = %v, want nil", s.Vehicle)
	}

	// A single event opens no interval, so nothing is bucketed.
	s = Summarize([]model.DutyEvent{ev(1, "e1", model.StatusDriving, at(6, 0))})
	if s.Drive != 0 {
		t.Errorf("single-event drive = %.2f, want 0", s.Drive)
	}
	if s.LastStatus != model.StatusOffDuty {
		t.Errorf("single-event lastStatus = %s, want OFF_DUTY default", s.LastStatus)
	}
}

func TestSummarizeVehicleFromLastEvent(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusOnDuty, at(6, 0)),
		{ID: 2, ClientEventID: "e2", Status: model.StatusDriving, EventTime: at(7, 0), EldIdentifier: "ELD-42"},
	}

	s := Summarize(events)
	if s.Vehicle == nil || *s.Vehicle != "ELD-42" {
		t.Fatalf("vehicle = %v, want ELD-42", s.Vehicle)
	}
}

func TestSummarizeRounding(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusDriving, at(0, 0)),
		ev(2, "e2", model.StatusOffDuty, at(0, 0).Add(100*time.Minute)),
		ev(3, "e3", model.StatusOnDuty, at(0, 0).Add(190*time.Minute)),
	}

	s := Summarize(events)
	if s.Drive != 1.67 {
		t.Errorf("drive = %v, want 1.67", s.Drive)
	}
	if s.Break != 1.5 {
		t.Errorf("break = %v, want 1.5", s.Break)
	}
}

func TestSummarizeSleeperCountsAsBreak(t *testing.T) {
	events := []model.DutyEvent{
		ev(1, "e1", model.StatusSleeper, at(0, 0)),
		ev(2, "e2", model.StatusOffDuty, at(3, 0)),
		ev(3, "e3", model.StatusDriving, at(5, 0)),
	}

	s := Summarize(events)
	if s.Break != 5.00 {
		t.Errorf("break = %.2f, want 5.00", s.Break)
	}
}
